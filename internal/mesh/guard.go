package mesh

import "github.com/Faultbox/autotex/pkg/math"

// TransformGuard captures a mesh's world transform so it can be put back
// after the mesh has been posed for one or more views.
//
//	g := mesh.Capture(m)
//	defer g.Restore()
type TransformGuard struct {
	mesh  *Mesh
	saved math.Transform
}

// Capture snapshots the current world transform of m.
func Capture(m *Mesh) *TransformGuard {
	return &TransformGuard{mesh: m, saved: m.Transform()}
}

// Saved returns the captured transform.
func (g *TransformGuard) Saved() math.Transform {
	return g.saved
}

// RestoreRotation puts back only the captured rotation.
func (g *TransformGuard) RestoreRotation() {
	g.mesh.SetRotation(g.saved.Rotation)
}

// Restore puts back location, rotation and scale. Safe to call repeatedly.
func (g *TransformGuard) Restore() {
	g.mesh.SetTransform(g.saved)
}
