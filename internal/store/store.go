// Package store imports meshes from model files and exports textured
// scenes as GLB.
package store

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/autotex/internal/logger"
	"github.com/Faultbox/autotex/internal/mesh"
	"github.com/Faultbox/autotex/internal/pipeline"
	"github.com/Faultbox/autotex/pkg/formats"
	"github.com/Faultbox/autotex/pkg/math"
)

// Generator is written into the asset header of exported files.
const Generator = "autotex"

var gltfExtensions = []string{".glb", ".gltf"}

// SupportedExtension reports whether Import can read path.
func SupportedExtension(path string) bool {
	if formats.Supported(path) {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range gltfExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

func isGLTF(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".glb" || ext == ".gltf"
}

// FileStore reads and writes models on the local filesystem.
type FileStore struct{}

// NewFileStore creates a filesystem store.
func NewFileStore() *FileStore {
	return &FileStore{}
}

// Import loads the model at path into a Z-up mesh.
func (s *FileStore) Import(path string) (*mesh.Mesh, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, pipeline.Wrap(pipeline.MissingInputFile, "import", err)
		}
		return nil, pipeline.Wrap(pipeline.UnclassifiedPipelineFailure, "import", err)
	}
	if !SupportedExtension(path) {
		return nil, pipeline.Wrap(pipeline.UnsupportedModelFormat, "import",
			errors.Wrap(formats.ErrUnsupportedFormat, filepath.Ext(path)))
	}

	var (
		data *formats.MeshData
		err  error
	)
	if isGLTF(path) {
		data, err = readGLTF(path)
	} else {
		data, err = formats.ParseFile(path)
	}
	if err != nil {
		switch {
		case errors.Is(err, errNoGLTFMesh):
			return nil, pipeline.Wrap(pipeline.NoMeshFoundInScene, "import", err)
		case errors.Is(err, formats.ErrUnsupportedFormat):
			return nil, pipeline.Wrap(pipeline.UnsupportedModelFormat, "import", err)
		}
		return nil, pipeline.Wrap(pipeline.UnclassifiedPipelineFailure, "import", err)
	}

	m, err := toMesh(data)
	if err != nil {
		return nil, err
	}
	logger.Info("imported model",
		zap.String("path", path),
		zap.String("mesh", m.Name),
		zap.Int("vertices", len(m.Vertices)),
		zap.Int("faces", len(m.Faces)),
		zap.Bool("uvs", data.HasUVs()))
	return m, nil
}

// toMesh converts parsed data to the internal Z-up mesh, keeping any UVs
// the file carried.
func toMesh(d *formats.MeshData) (*mesh.Mesh, error) {
	if len(d.Positions) == 0 || len(d.Faces) == 0 {
		return nil, pipeline.Errorf(pipeline.NoMeshFoundInScene, "import",
			"%s: %d vertices, %d faces", d.Name, len(d.Positions), len(d.Faces))
	}

	verts := d.Positions
	if d.YUp {
		verts = make([]mgl64.Vec3, len(d.Positions))
		for i, p := range d.Positions {
			verts[i] = math.ZUpFromYUp(p)
		}
	}

	m, err := mesh.New(d.Name, verts, d.Faces)
	if err != nil {
		return nil, pipeline.Wrap(pipeline.UnclassifiedPipelineFailure, "import", err)
	}
	for i, uvs := range d.UVs {
		if uvs == nil {
			continue
		}
		for j, uv := range uvs {
			m.SetLoopUV(i, j, uv)
		}
	}
	return m, nil
}
