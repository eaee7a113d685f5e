package formats

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

// fbxWriter emits binary FBX records for tests.
type fbxWriter struct {
	buf  bytes.Buffer
	wide bool
}

type fbxTestNode struct {
	name     string
	props    [][]byte // encoded properties
	children []fbxTestNode
}

func newFBXWriter(version uint32) *fbxWriter {
	w := &fbxWriter{wide: version >= 7500}
	w.buf.WriteString(fbxMagic)
	w.buf.Write([]byte{0x1A, 0x00})
	binary.Write(&w.buf, binary.LittleEndian, version)
	return w
}

func (w *fbxWriter) offset(v uint64) []byte {
	if w.wide {
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, v)
		return b
	}
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))
	return b
}

func (w *fbxWriter) nullRecord() []byte {
	n := 13
	if w.wide {
		n = 25
	}
	return make([]byte, n)
}

// encode serialises n assuming it starts at absolute offset start.
func (w *fbxWriter) encode(n fbxTestNode, start int) []byte {
	var props []byte
	for _, p := range n.props {
		props = append(props, p...)
	}
	headerLen := 3*len(w.offset(0)) + 1 + len(n.name)

	var body []byte
	pos := start + headerLen + len(props)
	for _, c := range n.children {
		enc := w.encode(c, pos)
		body = append(body, enc...)
		pos += len(enc)
	}
	if len(n.children) > 0 {
		body = append(body, w.nullRecord()...)
	}

	end := start + headerLen + len(props) + len(body)
	var out []byte
	out = append(out, w.offset(uint64(end))...)
	out = append(out, w.offset(uint64(len(n.props)))...)
	out = append(out, w.offset(uint64(len(props)))...)
	out = append(out, byte(len(n.name)))
	out = append(out, n.name...)
	out = append(out, props...)
	out = append(out, body...)
	return out
}

func (w *fbxWriter) bytes(nodes ...fbxTestNode) []byte {
	for _, n := range nodes {
		w.buf.Write(w.encode(n, w.buf.Len()))
	}
	w.buf.Write(w.nullRecord())
	return w.buf.Bytes()
}

func fbxPropString(s string) []byte {
	b := []byte{'S', 0, 0, 0, 0}
	binary.LittleEndian.PutUint32(b[1:], uint32(len(s)))
	return append(b, s...)
}

func fbxPropInt64(v int64) []byte {
	b := make([]byte, 9)
	b[0] = 'L'
	binary.LittleEndian.PutUint64(b[1:], uint64(v))
	return b
}

func fbxArray(code byte, count int, raw []byte, compress bool) []byte {
	encoding := uint32(0)
	if compress {
		var z bytes.Buffer
		zw := zlib.NewWriter(&z)
		zw.Write(raw)
		zw.Close()
		raw = z.Bytes()
		encoding = 1
	}
	b := make([]byte, 13)
	b[0] = code
	binary.LittleEndian.PutUint32(b[1:], uint32(count))
	binary.LittleEndian.PutUint32(b[5:], encoding)
	binary.LittleEndian.PutUint32(b[9:], uint32(len(raw)))
	return append(b, raw...)
}

func fbxPropDoubles(v []float64, compress bool) []byte {
	raw := make([]byte, 8*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint64(raw[8*i:], math.Float64bits(f))
	}
	return fbxArray('d', len(v), raw, compress)
}

func fbxPropInts(v []int32, compress bool) []byte {
	raw := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(raw[4*i:], uint32(x))
	}
	return fbxArray('i', len(v), raw, compress)
}

// createTestFBX builds a document holding one quad Geometry with UVs.
func createTestFBX(version uint32, compress bool) []byte {
	geometry := fbxTestNode{
		name: "Geometry",
		props: [][]byte{
			fbxPropInt64(1000),
			fbxPropString("Plane\x00\x01Geometry"),
			fbxPropString("Mesh"),
		},
		children: []fbxTestNode{
			{name: "Vertices", props: [][]byte{fbxPropDoubles([]float64{0, 0, 0, 1, 0, 0, 1, 0, -1, 0, 0, -1}, compress)}},
			{name: "PolygonVertexIndex", props: [][]byte{fbxPropInts([]int32{0, 1, 2, ^3}, compress)}},
			{name: "LayerElementUV", props: [][]byte{{'I', 0, 0, 0, 0}}, children: []fbxTestNode{
				{name: "MappingInformationType", props: [][]byte{fbxPropString("ByPolygonVertex")}},
				{name: "ReferenceInformationType", props: [][]byte{fbxPropString("IndexToDirect")}},
				{name: "UV", props: [][]byte{fbxPropDoubles([]float64{0, 0, 1, 0, 1, 1, 0, 1}, compress)}},
				{name: "UVIndex", props: [][]byte{fbxPropInts([]int32{0, 1, 2, 3}, compress)}},
			}},
		},
	}

	w := newFBXWriter(version)
	return w.bytes(
		fbxTestNode{name: "FBXHeaderExtension", children: []fbxTestNode{
			{name: "FBXVersion", props: [][]byte{{'I', 0xE8, 0x1C, 0, 0}}},
		}},
		fbxTestNode{name: "Objects", children: []fbxTestNode{geometry}},
	)
}

func TestParseFBX(t *testing.T) {
	tests := []struct {
		name     string
		version  uint32
		compress bool
	}{
		{"7.4 raw arrays", 7400, false},
		{"7.4 zlib arrays", 7400, true},
		{"7.5 wide offsets", 7500, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseFBX(createTestFBX(tt.version, tt.compress))
			if err != nil {
				t.Fatalf("ParseFBX failed: %v", err)
			}

			if m.Name != "Plane" {
				t.Errorf("expected name 'Plane', got %q", m.Name)
			}
			if !m.YUp {
				t.Error("expected FBX to be flagged Y-up")
			}
			if len(m.Positions) != 4 {
				t.Fatalf("expected 4 vertices, got %d", len(m.Positions))
			}
			if m.Positions[2][2] != -1 {
				t.Errorf("expected vertex 2 z = -1, got %f", m.Positions[2][2])
			}
			if len(m.Faces) != 1 || len(m.Faces[0]) != 4 || m.Faces[0][3] != 3 {
				t.Fatalf("expected quad 0 1 2 3, got %v", m.Faces)
			}
			if !m.HasUVs() {
				t.Fatal("expected UVs")
			}
			if uv := m.UVs[0][2]; uv[0] != 1 || uv[1] != 1 {
				t.Errorf("expected loop 2 uv (1,1), got %v", uv)
			}
		})
	}
}

func TestParseFBXDocument(t *testing.T) {
	doc, err := ParseFBXDocument(createTestFBX(7400, false))
	if err != nil {
		t.Fatalf("ParseFBXDocument failed: %v", err)
	}
	if doc.Version != 7400 {
		t.Errorf("expected version 7400, got %d", doc.Version)
	}
	if len(doc.Nodes) != 2 {
		t.Fatalf("expected 2 top-level nodes, got %d", len(doc.Nodes))
	}
	hdr := doc.Find("FBXHeaderExtension")
	if hdr == nil || hdr.Child("FBXVersion") == nil {
		t.Fatal("expected FBXHeaderExtension/FBXVersion")
	}
	if v, ok := hdr.Child("FBXVersion").Properties[0].(int32); !ok || v != 7400 {
		t.Errorf("expected FBXVersion 7400, got %v", hdr.Child("FBXVersion").Properties[0])
	}
}

func TestParseFBX_Errors(t *testing.T) {
	noGeometry := newFBXWriter(7400).bytes(fbxTestNode{name: "Objects"})
	tooNew := createTestFBX(7400, false)
	binary.LittleEndian.PutUint32(tooNew[23:], 8000)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"short", []byte("Kaydara"), ErrTruncatedFBXData},
		{"ascii fbx", append([]byte("; FBX 7.4.0 project file\n"), make([]byte, 10)...), ErrInvalidFBXMagic},
		{"version", tooNew, ErrUnsupportedFBXVersion},
		{"no geometry", noGeometry, ErrNoFBXGeometry},
		{"truncated", createTestFBX(7400, false)[:120], ErrTruncatedFBXData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFBX(tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
