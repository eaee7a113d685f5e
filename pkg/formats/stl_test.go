package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

const asciiQuadSTL = `solid quad
  facet normal 0 0 1
    outer loop
      vertex 0 0 0
      vertex 1 0 0
      vertex 1 1 0
    endloop
  endfacet
  facet normal 0 0 1
    outer loop
      vertex 0 0 0
      vertex 1 1 0
      vertex 0 1 0
    endloop
  endfacet
endsolid quad
`

// createBinarySTL writes triangles in the 80-byte header + count + records layout.
func createBinarySTL(tris [][3][3]float32) []byte {
	buf := new(bytes.Buffer)
	header := make([]byte, 80)
	copy(header, "binary test mesh")
	buf.Write(header)
	binary.Write(buf, binary.LittleEndian, uint32(len(tris)))
	for _, tri := range tris {
		binary.Write(buf, binary.LittleEndian, [3]float32{0, 0, 1})
		for _, v := range tri {
			binary.Write(buf, binary.LittleEndian, v)
		}
		binary.Write(buf, binary.LittleEndian, uint16(0))
	}
	return buf.Bytes()
}

func TestParseSTL_ASCII(t *testing.T) {
	m, err := ParseSTL([]byte(asciiQuadSTL))
	if err != nil {
		t.Fatalf("ParseSTL failed: %v", err)
	}

	if m.Name != "quad" {
		t.Errorf("expected name 'quad', got %q", m.Name)
	}
	if len(m.Faces) != 2 {
		t.Fatalf("expected 2 faces, got %d", len(m.Faces))
	}
	// Shared corners are merged
	if len(m.Positions) != 4 {
		t.Errorf("expected 4 merged vertices, got %d", len(m.Positions))
	}
	if m.Faces[1][0] != m.Faces[0][0] || m.Faces[1][1] != m.Faces[0][2] {
		t.Errorf("expected faces to share vertices, got %v", m.Faces)
	}
}

func TestParseSTL_Binary(t *testing.T) {
	data := createBinarySTL([][3][3]float32{
		{{0, 0, 0}, {1, 0, 0}, {0, 0, 1}},
		{{1, 0, 0}, {1, 0, 1}, {0, 0, 1}},
		{{5, 5, 5}, {6, 5, 5}, {5, 6, 5}},
	})

	m, err := ParseSTL(data)
	if err != nil {
		t.Fatalf("ParseSTL failed: %v", err)
	}
	if len(m.Faces) != 3 {
		t.Fatalf("expected 3 faces, got %d", len(m.Faces))
	}
	if len(m.Positions) != 7 {
		t.Errorf("expected 7 merged vertices, got %d", len(m.Positions))
	}
	if p := m.Positions[m.Faces[2][1]]; p[0] != 6 || p[1] != 5 || p[2] != 5 {
		t.Errorf("unexpected position %v", p)
	}
}

func TestParseSTL_Empty(t *testing.T) {
	_, err := ParseSTL(createBinarySTL(nil))
	if !errors.Is(err, ErrEmptySTL) {
		t.Errorf("expected ErrEmptySTL, got %v", err)
	}
}

func TestParseSTL_Garbage(t *testing.T) {
	if _, err := ParseSTL([]byte("not an stl")); err == nil {
		t.Error("expected error for garbage input")
	}
}
