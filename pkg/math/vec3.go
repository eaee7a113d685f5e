// Package math provides the linear algebra used by the texturing pipeline.
// Vectors and matrices are mgl64 types (column-major, OpenGL compatible);
// this package adds the Euler, TRS and axis helpers the pipeline needs.
package math

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Axis indices for Vec3 components.
const (
	AxisX = 0
	AxisY = 1
	AxisZ = 2
)

// ValidAxis reports whether axis names a Vec3 component.
func ValidAxis(axis int) bool {
	return axis >= AxisX && axis <= AxisZ
}

// NewellNormal returns the unit normal of the polygon p using Newell's method.
// Degenerate polygons (fewer than three points, zero area) yield the zero vector.
func NewellNormal(p []mgl64.Vec3) mgl64.Vec3 {
	if len(p) < 3 {
		return mgl64.Vec3{}
	}
	var n mgl64.Vec3
	for i := range p {
		cur := p[i]
		next := p[(i+1)%len(p)]
		n[0] += (cur[1] - next[1]) * (cur[2] + next[2])
		n[1] += (cur[2] - next[2]) * (cur[0] + next[0])
		n[2] += (cur[0] - next[0]) * (cur[1] + next[1])
	}
	l := n.Len()
	if l == 0 || math.IsNaN(l) {
		return mgl64.Vec3{}
	}
	return n.Mul(1 / l)
}

// ZUpFromYUp converts a Y-up position into the Z-up working space.
func ZUpFromYUp(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v[0], -v[2], v[1]}
}

// YUpFromZUp converts a Z-up position back to Y-up (glTF convention).
func YUpFromZUp(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v[0], v[2], -v[1]}
}
