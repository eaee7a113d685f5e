package formats

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/autotex/pkg/encoding"
)

// OBJ format errors.
var (
	ErrInvalidOBJVertex = errors.New("invalid OBJ vertex")
	ErrInvalidOBJFace   = errors.New("invalid OBJ face")
)

// ParseOBJ parses a Wavefront OBJ file. Only geometry statements are read
// (v, vt, f and the first o/g name); polygons are kept as n-gons and
// negative indices are resolved relative to the current list end.
func ParseOBJ(data []byte) (*MeshData, error) {
	m := &MeshData{YUp: true}
	var (
		texcoords []mgl64.Vec2
		uvs       [][]mgl64.Vec2
		anyUV     bool
	)

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "v":
			v, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidOBJVertex, lineNo, err)
			}
			m.Positions = append(m.Positions, mgl64.Vec3{v[0], v[1], v[2]})

		case "vt":
			v, err := parseFloats(fields[1:], 2)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidOBJVertex, lineNo, err)
			}
			texcoords = append(texcoords, mgl64.Vec2{v[0], v[1]})

		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("%w: line %d: %d vertices", ErrInvalidOBJFace, lineNo, len(fields)-1)
			}
			face := make([]int, 0, len(fields)-1)
			loops := make([]mgl64.Vec2, 0, len(fields)-1)
			hasUV := true
			for _, ref := range fields[1:] {
				vi, ti, err := parseFaceRef(ref, len(m.Positions), len(texcoords))
				if err != nil {
					return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidOBJFace, lineNo, err)
				}
				face = append(face, vi)
				if ti < 0 {
					hasUV = false
				} else {
					loops = append(loops, texcoords[ti])
				}
			}
			m.Faces = append(m.Faces, face)
			if hasUV {
				uvs = append(uvs, loops)
				anyUV = true
			} else {
				uvs = append(uvs, nil)
			}

		case "o", "g":
			if m.Name == "" && len(fields) > 1 {
				m.Name = encoding.ToUTF8([]byte(strings.Join(fields[1:], " ")))
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading OBJ: %w", err)
	}

	if anyUV {
		m.UVs = uvs
	}
	return m, nil
}

// parseFaceRef resolves one "v", "v/vt", "v//vn" or "v/vt/vn" reference
// into zero-based vertex and texcoord indices (texcoord -1 when absent).
func parseFaceRef(ref string, nv, nt int) (int, int, error) {
	parts := strings.Split(ref, "/")
	vi, err := resolveOBJIndex(parts[0], nv)
	if err != nil {
		return 0, 0, fmt.Errorf("vertex ref %q: %v", ref, err)
	}
	ti := -1
	if len(parts) > 1 && parts[1] != "" {
		ti, err = resolveOBJIndex(parts[1], nt)
		if err != nil {
			return 0, 0, fmt.Errorf("texcoord ref %q: %v", ref, err)
		}
	}
	return vi, ti, nil
}

func resolveOBJIndex(s string, n int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	switch {
	case i > 0 && i <= n:
		return i - 1, nil
	case i < 0 && -i <= n:
		return n + i, nil
	default:
		return 0, fmt.Errorf("index %d out of range (%d defined)", i, n)
	}
}

// parseFloats parses at least n floats from fields; extra values are ignored.
func parseFloats(fields []string, n int) ([]float64, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("expected %d values, got %d", n, len(fields))
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
