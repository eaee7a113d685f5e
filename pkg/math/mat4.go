package math

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Euler is an XYZ Euler rotation in radians.
// The rotation matrix is Rz * Ry * Rx: X is applied first.
type Euler struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// Matrix returns the 4x4 rotation matrix.
func (e Euler) Matrix() mgl64.Mat4 {
	return mgl64.HomogRotate3DZ(e.Z).
		Mul4(mgl64.HomogRotate3DY(e.Y)).
		Mul4(mgl64.HomogRotate3DX(e.X))
}

// Degrees returns the rotation in degrees, for logging.
func (e Euler) Degrees() [3]float64 {
	return [3]float64{mgl64.RadToDeg(e.X), mgl64.RadToDeg(e.Y), mgl64.RadToDeg(e.Z)}
}

// Transform is an object transform: location, rotation and scale.
type Transform struct {
	Location mgl64.Vec3
	Rotation Euler
	Scale    mgl64.Vec3
}

// IdentityTransform returns a transform at the origin with unit scale.
func IdentityTransform() Transform {
	return Transform{Scale: mgl64.Vec3{1, 1, 1}}
}

// Matrix returns T * R * S.
func (t Transform) Matrix() mgl64.Mat4 {
	return mgl64.Translate3D(t.Location[0], t.Location[1], t.Location[2]).
		Mul4(t.Rotation.Matrix()).
		Mul4(mgl64.Scale3D(t.Scale[0], t.Scale[1], t.Scale[2]))
}

// Pose returns the world matrix of an unscaled object at location with rotation.
func Pose(location mgl64.Vec3, rotation Euler) mgl64.Mat4 {
	return mgl64.Translate3D(location[0], location[1], location[2]).Mul4(rotation.Matrix())
}

// TransformPoint transforms p by m (w = 1).
func TransformPoint(m mgl64.Mat4, p mgl64.Vec3) mgl64.Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}

// TransformDirection transforms d by the linear 3x3 part of m (ignores translation).
func TransformDirection(m mgl64.Mat4, d mgl64.Vec3) mgl64.Vec3 {
	return m.Mat3().Mul3x1(d)
}

// Inverse returns the inverse of m.
// Returns identity if the matrix is singular.
func Inverse(m mgl64.Mat4) mgl64.Mat4 {
	if det := m.Det(); det == 0 || math.IsNaN(det) {
		return mgl64.Ident4()
	}
	return m.Inv()
}
