package store

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/autotex/internal/logger"
	"github.com/Faultbox/autotex/internal/mesh"
	"github.com/Faultbox/autotex/internal/pipeline"
	"github.com/Faultbox/autotex/internal/shading"
	"github.com/Faultbox/autotex/pkg/math"
)

// Export writes scene as a GLB file at path, creating its directory.
func (s *FileStore) Export(scene *pipeline.SceneContext, path string) (err error) {
	if scene == nil || scene.Mesh == nil {
		return pipeline.Errorf(pipeline.ExportFailure, "export", "nothing to export")
	}

	doc, err := buildDocument(scene)
	if err != nil {
		return pipeline.Wrap(pipeline.ExportFailure, "export", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return pipeline.Wrap(pipeline.ExportFailure, "export", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return pipeline.Wrap(pipeline.ExportFailure, "export", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = multierr.Append(err, pipeline.Wrap(pipeline.ExportFailure, "export", cerr))
		}
	}()

	enc := gltf.NewEncoder(f)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		return pipeline.Wrap(pipeline.ExportFailure, "export", err)
	}

	size := 0
	for _, b := range doc.Buffers {
		size += len(b.Data)
	}
	logger.Info("exported GLB",
		zap.String("path", path),
		zap.Int("materials", len(doc.Materials)),
		zap.Int("primitives", len(doc.Meshes[0].Primitives)),
		zap.Int("bytes", size))
	return nil
}

// buildDocument lays out one node holding one mesh with a primitive per
// material slot. Slot -1 (no material) comes first.
func buildDocument(scene *pipeline.SceneContext) (*gltf.Document, error) {
	m := scene.Mesh
	doc := &gltf.Document{
		Asset:  gltf.Asset{Version: "2.0", Generator: Generator},
		Scene:  gltf.Index(0),
		Scenes: []*gltf.Scene{{Name: "Scene"}},
	}

	materials := make(map[int]int)
	for _, mat := range scene.MaterialSlots() {
		idx, err := addMaterial(doc, mat)
		if err != nil {
			return nil, err
		}
		materials[mat.Index] = idx
	}

	groups := make(map[int][]int)
	for i := range m.Faces {
		slot := m.Faces[i].Material
		groups[slot] = append(groups[slot], i)
	}
	slots := make([]int, 0, len(groups))
	for slot := range groups {
		slots = append(slots, slot)
	}
	sort.Ints(slots)

	withUV := false
	for i := range m.Faces {
		if m.Faces[i].HasUV {
			withUV = true
			break
		}
	}

	world := m.WorldMatrix()
	out := &gltf.Mesh{Name: m.Name}
	for _, slot := range slots {
		p := addPrimitive(doc, m, world, groups[slot], withUV)
		if idx, ok := materials[slot]; ok {
			p.Material = gltf.Index(idx)
		}
		out.Primitives = append(out.Primitives, p)
	}
	doc.Meshes = append(doc.Meshes, out)
	doc.Nodes = append(doc.Nodes, &gltf.Node{Name: m.Name, Mesh: gltf.Index(len(doc.Meshes) - 1)})
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, len(doc.Nodes)-1)
	return doc, nil
}

// addMaterial appends a rough, non-metallic material. A bound image is
// embedded as PNG and used as the base colour texture.
func addMaterial(doc *gltf.Document, mat *shading.Material) (int, error) {
	out := &gltf.Material{
		Name: mat.Name,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			MetallicFactor:  gltf.Float(0),
			RoughnessFactor: gltf.Float(1),
		},
	}

	if img := mat.BaseColorImage(); img != nil {
		var buf bytes.Buffer
		if err := imgio.PNGEncoder()(&buf, img.Pixels); err != nil {
			return 0, errors.Wrapf(err, "encoding texture of %s", mat.Name)
		}
		image, err := modeler.WriteImage(doc, img.Name, "image/png", &buf)
		if err != nil {
			return 0, errors.Wrapf(err, "embedding texture of %s", mat.Name)
		}
		doc.Textures = append(doc.Textures, &gltf.Texture{Source: gltf.Index(image)})
		out.PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{Index: len(doc.Textures) - 1}
	}

	doc.Materials = append(doc.Materials, out)
	return len(doc.Materials) - 1, nil
}

// addPrimitive fan-triangulates faces into unshared vertices with flat
// normals, converting world positions back to Y-up.
func addPrimitive(doc *gltf.Document, m *mesh.Mesh, world mgl64.Mat4, faces []int, withUV bool) *gltf.Primitive {
	var (
		pos     [][3]float32
		normals [][3]float32
		uvs     [][2]float32
		idx     []uint32
	)

	for _, fi := range faces {
		f := &m.Faces[fi]
		wp := make([]mgl64.Vec3, len(f.Verts))
		for j, vi := range f.Verts {
			wp[j] = math.TransformPoint(world, m.Vertices[vi])
		}
		n := math.NewellNormal(wp)
		if n.Len() == 0 {
			n = mgl64.Vec3{0, 0, 1}
		}
		ny := vec3f(math.YUpFromZUp(n))

		for k := 1; k+1 < len(f.Verts); k++ {
			for _, j := range [3]int{0, k, k + 1} {
				idx = append(idx, uint32(len(pos)))
				pos = append(pos, vec3f(math.YUpFromZUp(wp[j])))
				normals = append(normals, ny)
				if withUV {
					var uv mgl64.Vec2
					if f.HasUV {
						uv = f.UVs[j]
					}
					uvs = append(uvs, [2]float32{float32(uv[0]), float32(1 - uv[1])})
				}
			}
		}
	}

	p := &gltf.Primitive{
		Attributes: gltf.PrimitiveAttributes{
			gltf.POSITION: modeler.WritePosition(doc, pos),
			gltf.NORMAL:   modeler.WriteNormal(doc, normals),
		},
		Indices: gltf.Index(modeler.WriteIndices(doc, idx)),
	}
	if withUV {
		p.Attributes[gltf.TEXCOORD_0] = modeler.WriteTextureCoord(doc, uvs)
	}
	return p
}

func vec3f(v mgl64.Vec3) [3]float32 {
	return [3]float32{float32(v[0]), float32(v[1]), float32(v[2])}
}
