package formats

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hschendel/stl"

	"github.com/Faultbox/autotex/pkg/encoding"
)

// ErrEmptySTL is returned for STL files without triangles.
var ErrEmptySTL = errors.New("STL contains no triangles")

// ParseSTL parses an ASCII or binary STL file. Triangle corners at identical
// positions are merged into shared vertices.
func ParseSTL(data []byte) (*MeshData, error) {
	solid, err := stl.ReadAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("reading STL: %w", err)
	}
	if len(solid.Triangles) == 0 {
		return nil, ErrEmptySTL
	}

	m := &MeshData{
		Name:  strings.TrimSpace(encoding.ToUTF8([]byte(solid.Name))),
		Faces: make([][]int, 0, len(solid.Triangles)),
	}
	index := make(map[stl.Vec3]int)

	for _, tri := range solid.Triangles {
		face := make([]int, 3)
		for i, v := range tri.Vertices {
			idx, ok := index[v]
			if !ok {
				idx = len(m.Positions)
				index[v] = idx
				m.Positions = append(m.Positions, mgl64.Vec3{float64(v[0]), float64(v[1]), float64(v[2])})
			}
			face[i] = idx
		}
		m.Faces = append(m.Faces, face)
	}

	return m, nil
}
