package formats

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/autotex/pkg/encoding"
)

// FBX format errors.
var (
	ErrInvalidFBXMagic       = errors.New("invalid FBX magic: expected binary FBX header")
	ErrUnsupportedFBXVersion = errors.New("unsupported FBX version")
	ErrTruncatedFBXData      = errors.New("truncated FBX data")
	ErrNoFBXGeometry         = errors.New("FBX contains no mesh geometry")
)

// fbxMagic is the 21-byte signature followed by 0x1A 0x00.
const fbxMagic = "Kaydara FBX Binary  \x00"

const fbxHeaderSize = 27

// FBXNode is one record of the binary node tree.
type FBXNode struct {
	Name       string
	Properties []interface{}
	Children   []*FBXNode
}

// Child returns the first direct child with the given name.
func (n *FBXNode) Child(name string) *FBXNode {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// FBX is a parsed binary FBX document.
type FBX struct {
	Version uint32
	Nodes   []*FBXNode
}

// Find returns the first top-level node with the given name.
func (f *FBX) Find(name string) *FBXNode {
	for _, n := range f.Nodes {
		if n.Name == name {
			return n
		}
	}
	return nil
}

// ParseFBXDocument parses the node tree of a binary FBX 7.x file.
func ParseFBXDocument(data []byte) (*FBX, error) {
	if len(data) < fbxHeaderSize {
		return nil, ErrTruncatedFBXData
	}
	if string(data[:len(fbxMagic)]) != fbxMagic {
		return nil, ErrInvalidFBXMagic
	}

	version := binary.LittleEndian.Uint32(data[23:27])
	if version < 7000 || version >= 8000 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedFBXVersion, version)
	}

	p := &fbxParser{data: data, pos: fbxHeaderSize, wide: version >= 7500}
	doc := &FBX{Version: version}
	for {
		n, err := p.node()
		if err != nil {
			return nil, err
		}
		if n == nil {
			break
		}
		doc.Nodes = append(doc.Nodes, n)
	}
	return doc, nil
}

// ParseFBX extracts the first Geometry node of type "Mesh": Vertices,
// PolygonVertexIndex and, when mapped ByPolygonVertex, the first UV layer.
func ParseFBX(data []byte) (*MeshData, error) {
	doc, err := ParseFBXDocument(data)
	if err != nil {
		return nil, err
	}

	objects := doc.Find("Objects")
	if objects == nil {
		return nil, ErrNoFBXGeometry
	}

	for _, g := range objects.Children {
		if g.Name != "Geometry" || !fbxIsMesh(g) {
			continue
		}
		return fbxMesh(g)
	}
	return nil, ErrNoFBXGeometry
}

func fbxIsMesh(g *FBXNode) bool {
	if len(g.Properties) < 3 {
		return g.Child("Vertices") != nil
	}
	kind, _ := g.Properties[2].(string)
	return kind == "Mesh"
}

// fbxName strips the "\x00\x01Class" suffix from an object name.
func fbxName(g *FBXNode) string {
	if len(g.Properties) < 2 {
		return ""
	}
	s, _ := g.Properties[1].(string)
	return encoding.FixedString([]byte(s))
}

func fbxMesh(g *FBXNode) (*MeshData, error) {
	vn, in := g.Child("Vertices"), g.Child("PolygonVertexIndex")
	if vn == nil || in == nil {
		return nil, ErrNoFBXGeometry
	}
	coords, ok := fbxFloats(vn)
	if !ok || len(coords)%3 != 0 {
		return nil, fmt.Errorf("%w: bad Vertices array", ErrNoFBXGeometry)
	}
	indices, ok := fbxInts(in)
	if !ok {
		return nil, fmt.Errorf("%w: bad PolygonVertexIndex array", ErrNoFBXGeometry)
	}

	m := &MeshData{Name: fbxName(g), YUp: true}
	m.Positions = make([]mgl64.Vec3, len(coords)/3)
	for i := range m.Positions {
		m.Positions[i] = mgl64.Vec3{coords[3*i], coords[3*i+1], coords[3*i+2]}
	}

	// A negative index closes a polygon and encodes -(i+1).
	var face []int
	for _, idx := range indices {
		if idx < 0 {
			face = append(face, int(^idx))
			m.Faces = append(m.Faces, face)
			face = nil
			continue
		}
		face = append(face, int(idx))
	}
	if len(face) > 0 {
		return nil, fmt.Errorf("%w: unterminated polygon", ErrNoFBXGeometry)
	}

	m.UVs = fbxUVs(g, m.Faces)
	return m, nil
}

// fbxUVs reads LayerElementUV mapped ByPolygonVertex. Other mappings are ignored.
func fbxUVs(g *FBXNode, faces [][]int) [][]mgl64.Vec2 {
	layer := g.Child("LayerElementUV")
	if layer == nil {
		return nil
	}
	if fbxString(layer.Child("MappingInformationType")) != "ByPolygonVertex" {
		return nil
	}
	uvNode := layer.Child("UV")
	if uvNode == nil {
		return nil
	}
	raw, ok := fbxFloats(uvNode)
	if !ok || len(raw)%2 != 0 {
		return nil
	}

	loops := 0
	for _, f := range faces {
		loops += len(f)
	}

	lookup := make([]int, loops)
	switch fbxString(layer.Child("ReferenceInformationType")) {
	case "IndexToDirect", "Index":
		ix := layer.Child("UVIndex")
		if ix == nil {
			return nil
		}
		idx, ok := fbxInts(ix)
		if !ok || len(idx) != loops {
			return nil
		}
		for i, v := range idx {
			lookup[i] = int(v)
		}
	default:
		for i := range lookup {
			lookup[i] = i
		}
	}

	out := make([][]mgl64.Vec2, len(faces))
	loop := 0
	for fi, f := range faces {
		uv := make([]mgl64.Vec2, len(f))
		for j := range f {
			k := lookup[loop]
			loop++
			if k < 0 || 2*k+1 >= len(raw) {
				return nil
			}
			uv[j] = mgl64.Vec2{raw[2*k], raw[2*k+1]}
		}
		out[fi] = uv
	}
	return out
}

func fbxString(n *FBXNode) string {
	if n == nil || len(n.Properties) == 0 {
		return ""
	}
	s, _ := n.Properties[0].(string)
	return s
}

func fbxFloats(n *FBXNode) ([]float64, bool) {
	if len(n.Properties) == 0 {
		return nil, false
	}
	switch v := n.Properties[0].(type) {
	case []float64:
		return v, true
	case []float32:
		out := make([]float64, len(v))
		for i, f := range v {
			out[i] = float64(f)
		}
		return out, true
	}
	return nil, false
}

func fbxInts(n *FBXNode) ([]int64, bool) {
	if len(n.Properties) == 0 {
		return nil, false
	}
	switch v := n.Properties[0].(type) {
	case []int32:
		out := make([]int64, len(v))
		for i, x := range v {
			out[i] = int64(x)
		}
		return out, true
	case []int64:
		return v, true
	}
	return nil, false
}

type fbxParser struct {
	data []byte
	pos  int
	wide bool // 7.5+ uses 64-bit record offsets
}

func (p *fbxParser) need(n int) error {
	if n < 0 || p.pos+n > len(p.data) {
		return ErrTruncatedFBXData
	}
	return nil
}

func (p *fbxParser) u8() (uint8, error) {
	if err := p.need(1); err != nil {
		return 0, err
	}
	v := p.data[p.pos]
	p.pos++
	return v, nil
}

func (p *fbxParser) u32() (uint32, error) {
	if err := p.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(p.data[p.pos:])
	p.pos += 4
	return v, nil
}

func (p *fbxParser) u64() (uint64, error) {
	if err := p.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(p.data[p.pos:])
	p.pos += 8
	return v, nil
}

// offset reads a record header field, 32 or 64 bits wide depending on version.
func (p *fbxParser) offset() (uint64, error) {
	if p.wide {
		return p.u64()
	}
	v, err := p.u32()
	return uint64(v), err
}

func (p *fbxParser) bytes(n int) ([]byte, error) {
	if err := p.need(n); err != nil {
		return nil, err
	}
	b := p.data[p.pos : p.pos+n]
	p.pos += n
	return b, nil
}

// node reads one record. A nil node with nil error marks the null
// terminator record (or end of data at top level).
func (p *fbxParser) node() (*FBXNode, error) {
	if p.pos >= len(p.data) {
		return nil, nil
	}

	end, err := p.offset()
	if err != nil {
		return nil, err
	}
	numProps, err := p.offset()
	if err != nil {
		return nil, err
	}
	if _, err := p.offset(); err != nil { // property list length
		return nil, err
	}
	nameLen, err := p.u8()
	if err != nil {
		return nil, err
	}
	if end == 0 {
		return nil, nil
	}
	if end > uint64(len(p.data)) {
		return nil, ErrTruncatedFBXData
	}

	name, err := p.bytes(int(nameLen))
	if err != nil {
		return nil, err
	}
	n := &FBXNode{Name: string(name)}

	for i := uint64(0); i < numProps; i++ {
		prop, err := p.property()
		if err != nil {
			return nil, fmt.Errorf("%s property %d: %w", n.Name, i, err)
		}
		n.Properties = append(n.Properties, prop)
	}

	for uint64(p.pos) < end {
		child, err := p.node()
		if err != nil {
			return nil, err
		}
		if child == nil {
			break
		}
		n.Children = append(n.Children, child)
	}

	p.pos = int(end)
	return n, nil
}

func (p *fbxParser) property() (interface{}, error) {
	code, err := p.u8()
	if err != nil {
		return nil, err
	}

	switch code {
	case 'Y':
		b, err := p.bytes(2)
		if err != nil {
			return nil, err
		}
		return int16(binary.LittleEndian.Uint16(b)), nil
	case 'C':
		b, err := p.u8()
		return b != 0, err
	case 'I':
		v, err := p.u32()
		return int32(v), err
	case 'F':
		v, err := p.u32()
		return math.Float32frombits(v), err
	case 'D':
		v, err := p.u64()
		return math.Float64frombits(v), err
	case 'L':
		v, err := p.u64()
		return int64(v), err
	case 'S', 'R':
		n, err := p.u32()
		if err != nil {
			return nil, err
		}
		b, err := p.bytes(int(n))
		if err != nil {
			return nil, err
		}
		if code == 'S' {
			return string(b), nil
		}
		return append([]byte(nil), b...), nil
	case 'f', 'd', 'l', 'i', 'b':
		return p.array(code)
	default:
		return nil, fmt.Errorf("unknown property type %q", code)
	}
}

func (p *fbxParser) array(code byte) (interface{}, error) {
	count, err := p.u32()
	if err != nil {
		return nil, err
	}
	encoding, err := p.u32()
	if err != nil {
		return nil, err
	}
	size, err := p.u32()
	if err != nil {
		return nil, err
	}
	raw, err := p.bytes(int(size))
	if err != nil {
		return nil, err
	}

	elem := map[byte]int{'f': 4, 'd': 8, 'l': 8, 'i': 4, 'b': 1}[code]
	want := int(count) * elem

	switch encoding {
	case 0:
	case 1:
		zr, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("array inflate: %w", err)
		}
		buf := make([]byte, want)
		if _, err := io.ReadFull(zr, buf); err != nil {
			return nil, fmt.Errorf("array inflate: %w", err)
		}
		zr.Close()
		raw = buf
	default:
		return nil, fmt.Errorf("unknown array encoding %d", encoding)
	}
	if len(raw) < want {
		return nil, ErrTruncatedFBXData
	}

	le := binary.LittleEndian
	switch code {
	case 'f':
		out := make([]float32, count)
		for i := range out {
			out[i] = math.Float32frombits(le.Uint32(raw[4*i:]))
		}
		return out, nil
	case 'd':
		out := make([]float64, count)
		for i := range out {
			out[i] = math.Float64frombits(le.Uint64(raw[8*i:]))
		}
		return out, nil
	case 'l':
		out := make([]int64, count)
		for i := range out {
			out[i] = int64(le.Uint64(raw[8*i:]))
		}
		return out, nil
	case 'i':
		out := make([]int32, count)
		for i := range out {
			out[i] = int32(le.Uint32(raw[4*i:]))
		}
		return out, nil
	default:
		out := make([]bool, count)
		for i := range out {
			out[i] = raw[i] != 0
		}
		return out, nil
	}
}
