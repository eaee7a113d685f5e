package logger

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var linePattern = regexp.MustCompile(`^\[\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d{3}\] \[(DEBUG|INFO|WARN|ERROR)\] `)

func TestFileRotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "job.log")

	// 1 MB is the smallest size lumberjack rotates at.
	require.NoError(t, InitWithFileConfig("info", FileConfig{Path: path, MaxSizeMB: 1, MaxBackups: 2}, false))
	defer InitWriter("info", io.Discard)

	payload := strings.Repeat("uv", 100)
	for i := 0; i < 7000; i++ {
		Sugar.Infof("projected loop %d %s", i, payload)
	}
	Sync()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var rotated []string
	for _, e := range entries {
		if e.Name() != "job.log" && strings.HasPrefix(e.Name(), "job-") {
			rotated = append(rotated, e.Name())
		}
	}
	assert.FileExists(t, path)
	assert.NotEmpty(t, rotated, "expected at least one rotated backup")
}

func TestLevels(t *testing.T) {
	tests := []struct {
		level string
		shown int // levels written, most severe first
	}{
		{"debug", 4},
		{"info", 3},
		{"", 3},
		{"warn", 2},
		{"warning", 2},
		{"error", 1},
	}

	for _, tt := range tests {
		t.Run("level="+tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			InitWriter(tt.level, &buf)
			defer InitWriter("info", io.Discard)

			Debug("d")
			Info("i")
			Warn("w")
			Error("e")

			out := buf.String()
			for i, tag := range []string{"[ERROR]", "[WARN]", "[INFO]", "[DEBUG]"} {
				if i < tt.shown {
					assert.Contains(t, out, tag)
				} else {
					assert.NotContains(t, out, tag)
				}
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
}

func TestDefaultFileConfig(t *testing.T) {
	fc := DefaultFileConfig("out/job.log")
	assert.Equal(t, "out/job.log", fc.Path)
	assert.Positive(t, fc.MaxSizeMB)
	assert.Positive(t, fc.MaxBackups)
	assert.False(t, fc.Compress)
}

func TestLineFormat(t *testing.T) {
	var buf bytes.Buffer
	InitWriter("info", &buf)
	defer InitWriter("info", io.Discard)

	Info("projecting UVs from camera", zap.String("camera", "Camera_Top"))

	line := strings.TrimSpace(buf.String())
	assert.Regexp(t, linePattern, line)
	assert.Contains(t, line, "[INFO] projecting UVs from camera")
	assert.Contains(t, line, `"camera": "Camera_Top"`)
}

func TestWithAddsFields(t *testing.T) {
	var buf bytes.Buffer
	InitWriter("debug", &buf)
	defer InitWriter("info", io.Discard)

	With(zap.String("view", "Camera_Side")).Debug("orchestrator state")
	assert.Contains(t, buf.String(), `"view": "Camera_Side"`)
}

func TestFileAndConsole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "run.log")
	require.NoError(t, InitWithFileConfig("info", DefaultFileConfig(path), false))
	defer InitWriter("info", io.Discard)

	Info("model exported", zap.String("path", "out.glb"))
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Regexp(t, linePattern, string(data))
}

func TestNopBeforeInit(t *testing.T) {
	Log = zap.NewNop()
	Sugar = Log.Sugar()
	Info("discarded")
	Sync()
}
