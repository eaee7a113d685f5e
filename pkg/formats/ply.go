package formats

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// PLY format errors.
var (
	ErrInvalidPLYMagic       = errors.New("invalid PLY magic: expected 'ply'")
	ErrUnsupportedPLYFormat  = errors.New("unsupported PLY format")
	ErrInvalidPLYHeader      = errors.New("invalid PLY header")
	ErrTruncatedPLYData      = errors.New("truncated PLY data")
	ErrMissingPLYCoordinates = errors.New("PLY vertex element lacks x/y/z")
	ErrInvalidPLYCount       = errors.New("PLY count exceeds data")
)

// PLYEncoding is the body encoding declared in the header.
type PLYEncoding int

const (
	PLYASCII PLYEncoding = iota
	PLYBinaryLittleEndian
	PLYBinaryBigEndian
)

// String returns the header keyword.
func (e PLYEncoding) String() string {
	switch e {
	case PLYASCII:
		return "ascii"
	case PLYBinaryLittleEndian:
		return "binary_little_endian"
	case PLYBinaryBigEndian:
		return "binary_big_endian"
	default:
		return fmt.Sprintf("Unknown(%d)", int(e))
	}
}

// plyProperty is a scalar or list property of an element.
type plyProperty struct {
	name      string
	typ       string // scalar type, or item type for lists
	list      bool
	countType string
}

type plyElement struct {
	name  string
	count int
	props []plyProperty
}

func (e *plyElement) index(names ...string) int {
	for i, p := range e.props {
		for _, n := range names {
			if p.name == n {
				return i
			}
		}
	}
	return -1
}

// plyTypeSize returns the byte size of a PLY scalar type, or 0 if unknown.
func plyTypeSize(t string) int {
	switch t {
	case "char", "int8", "uchar", "uint8":
		return 1
	case "short", "int16", "ushort", "uint16":
		return 2
	case "int", "int32", "uint", "uint32", "float", "float32":
		return 4
	case "double", "float64":
		return 8
	default:
		return 0
	}
}

// ParsePLY parses a PLY file. Vertices are read from the "vertex" element
// (x, y, z and optional s/t or u/v), faces from the "face" element's
// vertex_indices (or vertex_index) list. Other elements are skipped.
func ParsePLY(data []byte) (*MeshData, error) {
	br := bufio.NewReader(bytes.NewReader(data))

	enc, elems, err := parsePLYHeader(br)
	if err != nil {
		return nil, err
	}
	// Every row and list item takes at least one byte of body.
	limit := len(data)
	for _, el := range elems {
		if el.count > limit {
			return nil, fmt.Errorf("%w: %d %s rows in %d bytes", ErrInvalidPLYCount, el.count, el.name, limit)
		}
	}

	var body plyBody
	if enc == PLYASCII {
		body = &plyASCIIBody{r: br}
	} else {
		var order binary.ByteOrder = binary.LittleEndian
		if enc == PLYBinaryBigEndian {
			order = binary.BigEndian
		}
		body = &plyBinaryBody{r: br, order: order}
	}

	m := &MeshData{}
	var uvs []mgl64.Vec2
	hasUV := false

	for _, el := range elems {
		switch el.name {
		case "vertex":
			ix, iy, iz := el.index("x"), el.index("y"), el.index("z")
			if ix < 0 || iy < 0 || iz < 0 {
				return nil, ErrMissingPLYCoordinates
			}
			iu, iv := el.index("s", "u", "texture_u"), el.index("t", "v", "texture_v")
			hasUV = iu >= 0 && iv >= 0

			m.Positions = make([]mgl64.Vec3, el.count)
			if hasUV {
				uvs = make([]mgl64.Vec2, el.count)
			}
			for i := 0; i < el.count; i++ {
				vals, err := readPLYRow(body, &el, limit)
				if err != nil {
					return nil, fmt.Errorf("vertex %d: %w", i, err)
				}
				m.Positions[i] = mgl64.Vec3{vals[ix][0], vals[iy][0], vals[iz][0]}
				if hasUV {
					uvs[i] = mgl64.Vec2{vals[iu][0], vals[iv][0]}
				}
			}

		case "face":
			fi := el.index("vertex_indices", "vertex_index")
			if fi < 0 || !el.props[fi].list {
				return nil, fmt.Errorf("%w: face element lacks vertex_indices list", ErrInvalidPLYHeader)
			}
			m.Faces = make([][]int, 0, el.count)
			for i := 0; i < el.count; i++ {
				vals, err := readPLYRow(body, &el, limit)
				if err != nil {
					return nil, fmt.Errorf("face %d: %w", i, err)
				}
				face := make([]int, len(vals[fi]))
				for j, v := range vals[fi] {
					face[j] = int(v)
				}
				m.Faces = append(m.Faces, face)
			}

		default:
			for i := 0; i < el.count; i++ {
				if _, err := readPLYRow(body, &el, limit); err != nil {
					return nil, fmt.Errorf("%s %d: %w", el.name, i, err)
				}
			}
		}
	}

	// Per-vertex UVs become per-loop UVs
	if hasUV {
		m.UVs = make([][]mgl64.Vec2, len(m.Faces))
		for i, f := range m.Faces {
			loops := make([]mgl64.Vec2, len(f))
			for j, idx := range f {
				if idx >= 0 && idx < len(uvs) {
					loops[j] = uvs[idx]
				}
			}
			m.UVs[i] = loops
		}
	}

	return m, nil
}

func parsePLYHeader(br *bufio.Reader) (PLYEncoding, []plyElement, error) {
	line, err := br.ReadString('\n')
	if err != nil || strings.TrimSpace(line) != "ply" {
		return 0, nil, ErrInvalidPLYMagic
	}

	enc := PLYEncoding(-1)
	var elems []plyElement

	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return 0, nil, fmt.Errorf("%w: missing end_header", ErrInvalidPLYHeader)
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "format":
			if len(fields) < 2 {
				return 0, nil, fmt.Errorf("%w: %q", ErrInvalidPLYHeader, strings.TrimSpace(line))
			}
			switch fields[1] {
			case "ascii":
				enc = PLYASCII
			case "binary_little_endian":
				enc = PLYBinaryLittleEndian
			case "binary_big_endian":
				enc = PLYBinaryBigEndian
			default:
				return 0, nil, fmt.Errorf("%w: %s", ErrUnsupportedPLYFormat, fields[1])
			}

		case "comment", "obj_info":

		case "element":
			if len(fields) != 3 {
				return 0, nil, fmt.Errorf("%w: %q", ErrInvalidPLYHeader, strings.TrimSpace(line))
			}
			n, err := strconv.Atoi(fields[2])
			if err != nil || n < 0 {
				return 0, nil, fmt.Errorf("%w: element count %q", ErrInvalidPLYHeader, fields[2])
			}
			elems = append(elems, plyElement{name: fields[1], count: n})

		case "property":
			if len(elems) == 0 {
				return 0, nil, fmt.Errorf("%w: property before element", ErrInvalidPLYHeader)
			}
			el := &elems[len(elems)-1]
			var p plyProperty
			if len(fields) == 5 && fields[1] == "list" {
				p = plyProperty{name: fields[4], typ: fields[3], list: true, countType: fields[2]}
				if plyTypeSize(p.countType) == 0 {
					return 0, nil, fmt.Errorf("%w: list count type %s", ErrInvalidPLYHeader, p.countType)
				}
			} else if len(fields) == 3 {
				p = plyProperty{name: fields[2], typ: fields[1]}
			} else {
				return 0, nil, fmt.Errorf("%w: %q", ErrInvalidPLYHeader, strings.TrimSpace(line))
			}
			if plyTypeSize(p.typ) == 0 {
				return 0, nil, fmt.Errorf("%w: property type %s", ErrInvalidPLYHeader, p.typ)
			}
			el.props = append(el.props, p)

		case "end_header":
			if enc < 0 {
				return 0, nil, fmt.Errorf("%w: missing format line", ErrInvalidPLYHeader)
			}
			return enc, elems, nil

		default:
			return 0, nil, fmt.Errorf("%w: unknown keyword %s", ErrInvalidPLYHeader, fields[0])
		}
	}
}

// plyBody reads successive typed values from the body.
type plyBody interface {
	next(typ string) (float64, error)
	endRow() error
}

// readPLYRow reads one element row. Scalars come back as one-value slices.
func readPLYRow(b plyBody, el *plyElement, limit int) ([][]float64, error) {
	row := make([][]float64, len(el.props))
	for i, p := range el.props {
		if !p.list {
			v, err := b.next(p.typ)
			if err != nil {
				return nil, err
			}
			row[i] = []float64{v}
			continue
		}
		n, err := b.next(p.countType)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(n) || n < 0 || n != math.Trunc(n) || n > float64(limit) {
			return nil, fmt.Errorf("%w: list length %v", ErrInvalidPLYCount, n)
		}
		items := make([]float64, int(n))
		for j := range items {
			if items[j], err = b.next(p.typ); err != nil {
				return nil, err
			}
		}
		row[i] = items
	}
	return row, b.endRow()
}

type plyASCIIBody struct {
	r      *bufio.Reader
	fields []string
}

func (b *plyASCIIBody) next(string) (float64, error) {
	for len(b.fields) == 0 {
		line, err := b.r.ReadString('\n')
		if err != nil && (err != io.EOF || strings.TrimSpace(line) == "") {
			return 0, ErrTruncatedPLYData
		}
		b.fields = strings.Fields(line)
	}
	v, err := strconv.ParseFloat(b.fields[0], 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %q: %w", b.fields[0], err)
	}
	b.fields = b.fields[1:]
	return v, nil
}

// endRow drops trailing values so every row starts on a fresh line.
func (b *plyASCIIBody) endRow() error {
	b.fields = nil
	return nil
}

type plyBinaryBody struct {
	r     *bufio.Reader
	order binary.ByteOrder
	buf   [8]byte
}

func (b *plyBinaryBody) next(typ string) (float64, error) {
	n := plyTypeSize(typ)
	if _, err := io.ReadFull(b.r, b.buf[:n]); err != nil {
		return 0, ErrTruncatedPLYData
	}
	p := b.buf[:n]
	switch typ {
	case "char", "int8":
		return float64(int8(p[0])), nil
	case "uchar", "uint8":
		return float64(p[0]), nil
	case "short", "int16":
		return float64(int16(b.order.Uint16(p))), nil
	case "ushort", "uint16":
		return float64(b.order.Uint16(p)), nil
	case "int", "int32":
		return float64(int32(b.order.Uint32(p))), nil
	case "uint", "uint32":
		return float64(b.order.Uint32(p)), nil
	case "float", "float32":
		return float64(math.Float32frombits(b.order.Uint32(p))), nil
	default:
		return math.Float64frombits(b.order.Uint64(p)), nil
	}
}

func (b *plyBinaryBody) endRow() error {
	return nil
}
