// Package formats provides parsers for polygon mesh file formats.
package formats

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrUnsupportedFormat is returned by Parse for unknown extensions.
var ErrUnsupportedFormat = errors.New("unsupported mesh format")

// MeshData is the format-neutral result of every parser.
type MeshData struct {
	Name      string
	Positions []mgl64.Vec3
	// Faces holds vertex indices per polygon, at least three each.
	Faces [][]int
	// UVs holds one coordinate per face loop, or nil for faces without UVs.
	// The slice itself is nil when the file carries no texture coordinates.
	UVs [][]mgl64.Vec2
	// YUp is set for formats whose convention is Y-up (OBJ, FBX, glTF).
	YUp bool
}

// HasUVs reports whether any face carries texture coordinates.
func (m *MeshData) HasUVs() bool {
	for _, uv := range m.UVs {
		if uv != nil {
			return true
		}
	}
	return false
}

// Validate checks that every face has at least three in-range indices and
// that UVs, when present, match the face loops.
func (m *MeshData) Validate() error {
	if m.UVs != nil && len(m.UVs) != len(m.Faces) {
		return fmt.Errorf("uv faces %d != faces %d", len(m.UVs), len(m.Faces))
	}
	for i, f := range m.Faces {
		if len(f) < 3 {
			return fmt.Errorf("face %d has %d vertices", i, len(f))
		}
		for _, idx := range f {
			if idx < 0 || idx >= len(m.Positions) {
				return fmt.Errorf("face %d: vertex index %d out of range [0,%d)", i, idx, len(m.Positions))
			}
		}
		if m.UVs != nil && m.UVs[i] != nil && len(m.UVs[i]) != len(f) {
			return fmt.Errorf("face %d: %d uvs for %d loops", i, len(m.UVs[i]), len(f))
		}
	}
	return nil
}

// Extensions lists the extensions handled by Parse.
var Extensions = []string{".ply", ".obj", ".stl", ".fbx"}

// Supported reports whether Parse handles the extension of path.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Parse decodes data according to the extension of name.
func Parse(name string, data []byte) (*MeshData, error) {
	var (
		m   *MeshData
		err error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".ply":
		m, err = ParsePLY(data)
	case ".obj":
		m, err = ParseOBJ(data)
	case ".stl":
		m, err = ParseSTL(data)
	case ".fbx":
		m, err = ParseFBX(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(name))
	}
	if err != nil {
		return nil, err
	}
	if m.Name == "" {
		m.Name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(name), err)
	}
	return m, nil
}

// ParseFile reads and parses a mesh file from disk.
func ParseFile(path string) (*MeshData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading mesh file: %w", err)
	}
	return Parse(path, data)
}
