package store

import (
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/autotex/internal/logger"
	"github.com/Faultbox/autotex/pkg/formats"
)

var errNoGLTFMesh = errors.New("gltf: no triangle mesh")

// readGLTF merges the triangle primitives of the first mesh into one
// MeshData. TEXCOORD_0 becomes loop UVs with V flipped to a bottom-left
// origin.
func readGLTF(path string) (*formats.MeshData, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, err
	}
	if len(doc.Meshes) == 0 {
		return nil, errNoGLTFMesh
	}
	src := doc.Meshes[0]

	d := &formats.MeshData{Name: src.Name, YUp: true}
	if d.Name == "" {
		d.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	hasUV := false

	for pi, p := range src.Primitives {
		if p.Mode != gltf.PrimitiveTriangles {
			logger.Debug("skipping non-triangle primitive",
				zap.String("mesh", d.Name), zap.Int("primitive", pi), zap.Int("mode", int(p.Mode)))
			continue
		}
		posIdx, ok := p.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		posAcc, err := accessor(doc, posIdx)
		if err != nil {
			return nil, errors.Wrapf(err, "primitive %d positions", pi)
		}
		pos, err := modeler.ReadPosition(doc, posAcc, nil)
		if err != nil {
			return nil, errors.Wrapf(err, "primitive %d positions", pi)
		}

		var uvs [][2]float32
		if uvIdx, ok := p.Attributes[gltf.TEXCOORD_0]; ok {
			uvAcc, err := accessor(doc, uvIdx)
			if err != nil {
				return nil, errors.Wrapf(err, "primitive %d texcoords", pi)
			}
			if uvs, err = modeler.ReadTextureCoord(doc, uvAcc, nil); err != nil {
				return nil, errors.Wrapf(err, "primitive %d texcoords", pi)
			}
			if len(uvs) != len(pos) {
				return nil, errors.Errorf("primitive %d: %d texcoords for %d positions", pi, len(uvs), len(pos))
			}
			hasUV = true
		}

		idx, err := triangleIndices(doc, p, len(pos))
		if err != nil {
			return nil, errors.Wrapf(err, "primitive %d indices", pi)
		}

		base := len(d.Positions)
		for _, v := range pos {
			d.Positions = append(d.Positions, mgl64.Vec3{float64(v[0]), float64(v[1]), float64(v[2])})
		}
		for t := 0; t+2 < len(idx); t += 3 {
			d.Faces = append(d.Faces, []int{base + idx[t], base + idx[t+1], base + idx[t+2]})
			if uvs == nil {
				d.UVs = append(d.UVs, nil)
				continue
			}
			loop := make([]mgl64.Vec2, 3)
			for k := range loop {
				uv := uvs[idx[t+k]]
				loop[k] = mgl64.Vec2{float64(uv[0]), 1 - float64(uv[1])}
			}
			d.UVs = append(d.UVs, loop)
		}
	}

	if len(d.Faces) == 0 {
		return nil, errNoGLTFMesh
	}
	if !hasUV {
		d.UVs = nil
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func accessor(doc *gltf.Document, i int) (*gltf.Accessor, error) {
	if i < 0 || i >= len(doc.Accessors) {
		return nil, errors.Errorf("accessor %d out of range [0,%d)", i, len(doc.Accessors))
	}
	return doc.Accessors[i], nil
}

// triangleIndices returns the vertex indices of p, or 0..n-1 when the
// primitive is not indexed. Every index is checked against n.
func triangleIndices(doc *gltf.Document, p *gltf.Primitive, n int) ([]int, error) {
	if p.Indices == nil {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx, nil
	}
	acc, err := accessor(doc, *p.Indices)
	if err != nil {
		return nil, err
	}
	raw, err := modeler.ReadIndices(doc, acc, nil)
	if err != nil {
		return nil, err
	}
	idx := make([]int, len(raw))
	for i, v := range raw {
		if int(v) >= n {
			return nil, errors.Errorf("index %d out of range [0,%d)", v, n)
		}
		idx[i] = int(v)
	}
	return idx, nil
}
