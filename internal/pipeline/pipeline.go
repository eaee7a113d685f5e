// Package pipeline runs the per-view texturing passes over one mesh.
package pipeline

import (
	"github.com/Faultbox/autotex/internal/assets"
	"github.com/Faultbox/autotex/internal/mesh"
	"github.com/Faultbox/autotex/internal/projection"
	"github.com/Faultbox/autotex/internal/shading"
)

// MeshStore imports meshes from disk and exports textured scenes.
type MeshStore interface {
	Import(path string) (*mesh.Mesh, error)
	Export(scene *SceneContext, path string) error
}

// ShadingSystem owns material slots and binds textures into them.
type ShadingSystem interface {
	CreateMaterial(name string) (int, error)
	Material(index int) *shading.Material
	Bind(index int, textureRef string) error
}

// AssetLoader decodes images by path.
type AssetLoader interface {
	Load(path string) (*assets.Image, error)
}

// NewShadingSystem returns the node-graph shading system reading images
// through loader.
func NewShadingSystem(loader AssetLoader) ShadingSystem {
	return shading.NewSystem(loader)
}

// SceneContext carries what the orchestrator works on: one mesh, one
// camera and one material slot per view.
type SceneContext struct {
	Mesh      *mesh.Mesh
	Cameras   []*projection.Camera
	Materials []int
	Shading   ShadingSystem
}

// MaterialSlots returns the distinct materials of the scene in view order.
func (s *SceneContext) MaterialSlots() []*shading.Material {
	seen := make(map[int]bool, len(s.Materials))
	out := make([]*shading.Material, 0, len(s.Materials))
	for _, idx := range s.Materials {
		if seen[idx] {
			continue
		}
		seen[idx] = true
		if m := s.Material(idx); m != nil {
			out = append(out, m)
		}
	}
	return out
}

// Material returns the material at slot index, or nil.
func (s *SceneContext) Material(index int) *shading.Material {
	if s.Shading == nil {
		return nil
	}
	return s.Shading.Material(index)
}
