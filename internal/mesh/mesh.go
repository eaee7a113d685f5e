// Package mesh holds the editable polygon mesh the texturing pipeline works on.
package mesh

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/autotex/pkg/math"
)

// NoMaterial marks a face that no view has assigned a material to.
const NoMaterial = -1

// Face is a polygon referencing mesh vertices in winding order.
type Face struct {
	Verts    []int        // Vertex indices (loop order)
	Normal   mgl64.Vec3   // Local-space unit normal, zero if degenerate
	Material int          // Material slot index, NoMaterial if unassigned
	Selected bool         // Transient selection flag for the current view
	UVs      []mgl64.Vec2 // One UV per loop, parallel to Verts
	HasUV    bool         // UVs have been written for this face
}

// Mesh owns vertices and faces plus the object's world transform.
type Mesh struct {
	Name      string
	Vertices  []mgl64.Vec3 // Local-space positions
	Faces     []Face
	transform math.Transform
}

// New creates a mesh with an identity world transform.
// Faces reference vertices by index; normals are computed here.
func New(name string, vertices []mgl64.Vec3, faces [][]int) (*Mesh, error) {
	m := &Mesh{
		Name:      name,
		Vertices:  vertices,
		Faces:     make([]Face, 0, len(faces)),
		transform: math.IdentityTransform(),
	}
	for fi, f := range faces {
		for _, vi := range f {
			if vi < 0 || vi >= len(vertices) {
				return nil, fmt.Errorf("face %d: vertex index %d out of range [0,%d)", fi, vi, len(vertices))
			}
		}
		verts := append([]int(nil), f...)
		m.Faces = append(m.Faces, Face{
			Verts:    verts,
			Material: NoMaterial,
			UVs:      make([]mgl64.Vec2, len(verts)),
		})
	}
	m.RecalcNormals()
	return m, nil
}

// RecalcNormals recomputes every face normal from local-space positions.
func (m *Mesh) RecalcNormals() {
	for i := range m.Faces {
		m.Faces[i].Normal = math.NewellNormal(m.FacePositions(i))
	}
}

// FacePositions returns the local-space positions of face i in loop order.
func (m *Mesh) FacePositions(i int) []mgl64.Vec3 {
	f := &m.Faces[i]
	p := make([]mgl64.Vec3, len(f.Verts))
	for j, vi := range f.Verts {
		p[j] = m.Vertices[vi]
	}
	return p
}

// Empty reports whether the mesh has no geometry to texture.
func (m *Mesh) Empty() bool {
	return len(m.Vertices) == 0 || len(m.Faces) == 0
}

// Transform returns the current world transform.
func (m *Mesh) Transform() math.Transform {
	return m.transform
}

// SetTransform replaces the world transform.
func (m *Mesh) SetTransform(t math.Transform) {
	m.transform = t
}

// SetRotation replaces only the rotation of the world transform.
func (m *Mesh) SetRotation(r math.Euler) {
	m.transform.Rotation = r
}

// WorldMatrix returns the current object-to-world matrix.
func (m *Mesh) WorldMatrix() mgl64.Mat4 {
	return m.transform.Matrix()
}

// DeselectAll clears the transient selection flag on every face.
func (m *Mesh) DeselectAll() {
	for i := range m.Faces {
		m.Faces[i].Selected = false
	}
}

// SelectedFaces returns the indices of faces with the selection flag set.
func (m *Mesh) SelectedFaces() []int {
	var out []int
	for i := range m.Faces {
		if m.Faces[i].Selected {
			out = append(out, i)
		}
	}
	return out
}

// AssignMaterial sets the material slot of the given faces.
// Faces assigned by an earlier call are overwritten.
func (m *Mesh) AssignMaterial(faces []int, slot int) {
	for _, fi := range faces {
		m.Faces[fi].Material = slot
	}
}

// SetLoopUV writes the UV of loop j in face i.
func (m *Mesh) SetLoopUV(i, j int, uv mgl64.Vec2) {
	f := &m.Faces[i]
	f.UVs[j] = uv
	f.HasUV = true
}

// MaterialCounts returns how many faces use each material slot.
// Unassigned faces are counted under NoMaterial.
func (m *Mesh) MaterialCounts() map[int]int {
	counts := make(map[int]int)
	for i := range m.Faces {
		counts[m.Faces[i].Material]++
	}
	return counts
}
