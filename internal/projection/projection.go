// Package projection computes per-loop UVs by projecting face vertices
// through a virtual camera.
package projection

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/Faultbox/autotex/internal/logger"
	"github.com/Faultbox/autotex/internal/mesh"
	"github.com/Faultbox/autotex/internal/views"
	"github.com/Faultbox/autotex/pkg/math"
)

// orthoScale is the fixed world-units-per-UV divisor for orthographic views.
const orthoScale = 10.0

// Camera is a posed camera ready for projection.
type Camera struct {
	Name       string
	Pose       views.CameraPose
	Intrinsics views.CameraIntrinsics

	world    mgl64.Mat4
	worldInv mgl64.Mat4
}

// NewCamera builds a camera and caches its world matrix and inverse.
func NewCamera(name string, pose views.CameraPose, in views.CameraIntrinsics) *Camera {
	w := pose.Matrix()
	return &Camera{
		Name:       name,
		Pose:       pose,
		Intrinsics: in,
		world:      w,
		worldInv:   math.Inverse(w),
	}
}

// FromView builds the camera described by a view.
func FromView(v views.ViewConfig) *Camera {
	return NewCamera(v.Name, v.Camera, v.Intrinsics)
}

// World returns the camera-to-world matrix.
func (c *Camera) World() mgl64.Mat4 {
	return c.world
}

// ToCamera transforms a world-space point into camera space.
// The camera looks down its local -Z.
func (c *Camera) ToCamera(p mgl64.Vec3) mgl64.Vec3 {
	return math.TransformPoint(c.worldInv, p)
}

// ProjectPoint returns the UV of a camera-space point and whether the
// projection was regular. Points behind or at a perspective camera map to
// (0.5, 0.5) and report false.
func (c *Camera) ProjectPoint(p mgl64.Vec3) (mgl64.Vec2, bool) {
	if c.Intrinsics.Projection == views.Orthographic {
		return mgl64.Vec2{0.5 + p[0]/orthoScale, 0.5 + p[1]/orthoScale}, true
	}
	if p[2] >= 0 {
		return mgl64.Vec2{0.5, 0.5}, false
	}
	sx := p[0] / -p[2]
	sy := p[1] / -p[2]
	k := gomath.Tan(c.Intrinsics.FOV() / 2)
	aspect := c.Intrinsics.Aspect()
	return mgl64.Vec2{
		0.5 + sx/(2*k*aspect),
		0.5 + sy/(2*k),
	}, true
}

// Result summarises a projection pass.
type Result struct {
	Faces        int // Faces written
	Loops        int // Loops written
	BehindCamera int // Loops that fell back to (0.5, 0.5)
}

// Project writes loop UVs for the given faces of m as seen from cam.
// Only those faces are touched; UVs are not clamped.
func Project(m *mesh.Mesh, faces []int, cam *Camera) Result {
	var res Result
	if len(faces) == 0 {
		logger.Warn("no selected faces, skipping UV projection", zap.String("camera", cam.Name))
		return res
	}

	logProjection(cam)

	world := m.WorldMatrix()
	for _, fi := range faces {
		f := &m.Faces[fi]
		for j, vi := range f.Verts {
			p := cam.ToCamera(math.TransformPoint(world, m.Vertices[vi]))
			uv, ok := cam.ProjectPoint(p)
			if !ok {
				res.BehindCamera++
			}
			m.SetLoopUV(fi, j, uv)
			res.Loops++
		}
		res.Faces++
	}

	if res.BehindCamera > 0 {
		logger.Debug("vertices behind camera mapped to image centre",
			zap.String("camera", cam.Name),
			zap.Int("loops", res.BehindCamera))
	}
	logger.Info("UV projection done",
		zap.String("camera", cam.Name),
		zap.Int("faces", res.Faces),
		zap.Int("loops", res.Loops))
	return res
}

func logProjection(cam *Camera) {
	loc := cam.world.Col(3)
	fields := []zap.Field{
		zap.String("camera", cam.Name),
		zap.String("projection", string(cam.Intrinsics.Projection)),
		zap.Float64s("location", []float64{loc[0], loc[1], loc[2]}),
	}
	if cam.Intrinsics.Projection != views.Orthographic {
		fields = append(fields,
			zap.Float64("focal_length_mm", cam.Intrinsics.FocalLength),
			zap.Float64("fov_deg", mgl64.RadToDeg(cam.Intrinsics.FOV())),
			zap.Float64("aspect", cam.Intrinsics.Aspect()))
	}
	logger.Info("projecting UVs from camera", fields...)
}
