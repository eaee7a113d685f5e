package status

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"out/model.glb", "out/model.status.json"},
		{"model", "model.status.json"},
		{"/tmp/a.b/model.fbx", "/tmp/a.b/model.status.json"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Path(tt.in), tt.in)
	}
}

func TestWriteSuccess(t *testing.T) {
	out := filepath.Join(t.TempDir(), "res", "model.glb")

	path, err := Write(out, Success("Model processed successfully", out))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(out), "model.status.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]string
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, map[string]string{
		"status":     "success",
		"message":    "Model processed successfully",
		"model_path": out,
	}, raw)
}

func TestWriteFailure(t *testing.T) {
	out := filepath.Join(t.TempDir(), "model.glb")
	cause := errors.Wrap(errors.New("texture not found"), "binding Material_Side")

	path, err := Write(out, Failure(cause))
	require.NoError(t, err)

	r, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, StatusError, r.Status)
	assert.Equal(t, "binding Material_Side: texture not found", r.Message)
	assert.Empty(t, r.ModelPath)
	assert.Contains(t, r.Traceback, "texture not found")
	assert.Contains(t, r.Traceback, "status_test.go")
}

func TestWriteUnwritable(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, err := Write(filepath.Join(blocker, "model.glb"), Success("ok", "x"))
	assert.Error(t, err)
}
