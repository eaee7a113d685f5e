// Package meshtest provides meshes for tests of packages built on mesh.
package meshtest

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/autotex/internal/mesh"
)

// Cube returns an axis-aligned cube centred at the origin with the given
// half extent. Faces are wound counter-clockwise seen from outside, in the
// order -X, +X, -Y, +Y, -Z, +Z.
func Cube(half float64) *mesh.Mesh {
	h := half
	verts := []mgl64.Vec3{
		{-h, -h, -h}, // 0
		{h, -h, -h},  // 1
		{h, h, -h},   // 2
		{-h, h, -h},  // 3
		{-h, -h, h},  // 4
		{h, -h, h},   // 5
		{h, h, h},    // 6
		{-h, h, h},   // 7
	}
	faces := [][]int{
		{0, 4, 7, 3}, // -X
		{1, 2, 6, 5}, // +X
		{0, 1, 5, 4}, // -Y
		{3, 7, 6, 2}, // +Y
		{0, 3, 2, 1}, // -Z
		{4, 5, 6, 7}, // +Z
	}
	m, err := mesh.New("Cube", verts, faces)
	if err != nil {
		panic(err) // static data
	}
	return m
}
