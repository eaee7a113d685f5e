// Package selection picks the mesh faces a view should texture.
//
// A face is selected when all of its vertices lie within Epsilon of the
// mesh's extremity plane along the chosen axis, and its world normal points
// the same way as the requested direction on that axis.
package selection

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/autotex/internal/mesh"
	"github.com/Faultbox/autotex/internal/views"
	"github.com/Faultbox/autotex/pkg/math"
)

// Stats describes one selection pass.
type Stats struct {
	Extreme  float64 // Extremity plane coordinate along the axis
	Selected int     // Number of faces selected
	Faces    int     // Number of faces considered
}

// Select marks and returns the faces of m matching p under the world
// transform. Face indices are ascending. Previously set selection flags are
// not cleared.
func Select(m *mesh.Mesh, world mgl64.Mat4, p views.SelectionParams) []int {
	sel, _ := SelectWithStats(m, world, p)
	return sel
}

// SelectWithStats is Select that also reports the extremity and counts.
// An empty mesh or an invalid axis yields an empty selection.
func SelectWithStats(m *mesh.Mesh, world mgl64.Mat4, p views.SelectionParams) ([]int, Stats) {
	stats := Stats{Faces: len(m.Faces)}
	if len(m.Vertices) == 0 || !math.ValidAxis(p.Axis) {
		return nil, stats
	}

	axis := p.Axis
	coords := make([]float64, len(m.Vertices))
	for i, v := range m.Vertices {
		coords[i] = math.TransformPoint(world, v)[axis]
	}
	extreme := extremum(coords, p.FindMax)
	stats.Extreme = extreme

	var out []int
	for fi := range m.Faces {
		f := &m.Faces[fi]
		if len(f.Verts) == 0 {
			continue
		}
		if !withinBand(f.Verts, coords, extreme, p.Epsilon, p.FindMax) {
			continue
		}
		n := math.TransformDirection(world, f.Normal)
		if n[axis]*p.NormalDirection[axis] <= 0 {
			continue
		}
		f.Selected = true
		out = append(out, fi)
	}
	stats.Selected = len(out)
	return out, stats
}

func extremum(coords []float64, findMax bool) float64 {
	if findMax {
		e := gomath.Inf(-1)
		for _, c := range coords {
			e = gomath.Max(e, c)
		}
		return e
	}
	e := gomath.Inf(1)
	for _, c := range coords {
		e = gomath.Min(e, c)
	}
	return e
}

// withinBand reports whether every vertex of the face is within eps of the
// extremity plane.
func withinBand(verts []int, coords []float64, extreme, eps float64, findMax bool) bool {
	for _, vi := range verts {
		c := coords[vi]
		if findMax {
			if c < extreme-eps {
				return false
			}
		} else if c > extreme+eps {
			return false
		}
	}
	return true
}
