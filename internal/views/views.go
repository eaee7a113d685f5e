// Package views defines the per-viewpoint texturing configuration.
package views

import (
	"errors"
	"fmt"
	gomath "math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/autotex/pkg/math"
)

// Texture references resolved from the command line.
const (
	TextureTop  = "top"
	TextureSide = "side"
)

// Validation errors.
var (
	ErrInvalidAxis       = errors.New("selection axis must be 0, 1 or 2")
	ErrNegativeEpsilon   = errors.New("selection epsilon must be >= 0")
	ErrInvalidIntrinsics = errors.New("camera sensor size and focal length must be > 0")
	ErrUnknownProjection = errors.New("unknown camera projection")
	ErrNoViews           = errors.New("no views configured")
	ErrUnresolvedTexture = errors.New("texture reference not resolved")
)

// Projection is the camera projection kind.
type Projection string

const (
	Perspective  Projection = "perspective"
	Orthographic Projection = "orthographic"
)

// SelectionParams choose the faces near the mesh extremity along Axis
// whose normal agrees in sign with NormalDirection on that axis.
type SelectionParams struct {
	Axis            int        `yaml:"axis"`
	FindMax         bool       `yaml:"find_max"`
	Epsilon         float64    `yaml:"epsilon"`
	NormalDirection mgl64.Vec3 `yaml:"normal_direction"`
}

// Validate checks the parameter ranges.
func (p SelectionParams) Validate() error {
	if !math.ValidAxis(p.Axis) {
		return fmt.Errorf("%w: got %d", ErrInvalidAxis, p.Axis)
	}
	if p.Epsilon < 0 || gomath.IsNaN(p.Epsilon) {
		return fmt.Errorf("%w: got %v", ErrNegativeEpsilon, p.Epsilon)
	}
	return nil
}

// CameraPose places a camera in world space.
type CameraPose struct {
	Location mgl64.Vec3 `yaml:"location"`
	Rotation math.Euler `yaml:"rotation"`
}

// Matrix returns the camera-to-world matrix.
func (p CameraPose) Matrix() mgl64.Mat4 {
	return math.Pose(p.Location, p.Rotation)
}

// CameraIntrinsics describe the lens. Sizes are in millimetres.
type CameraIntrinsics struct {
	Projection   Projection `yaml:"projection"`
	SensorWidth  float64    `yaml:"sensor_width"`
	SensorHeight float64    `yaml:"sensor_height"`
	FocalLength  float64    `yaml:"focal_length"`
}

// DefaultIntrinsics returns a 50mm lens on a 36x24mm sensor.
func DefaultIntrinsics() CameraIntrinsics {
	return CameraIntrinsics{
		Projection:   Perspective,
		SensorWidth:  36,
		SensorHeight: 24,
		FocalLength:  50,
	}
}

// FOV returns the horizontal field of view in radians.
func (c CameraIntrinsics) FOV() float64 {
	return 2 * gomath.Atan(c.SensorWidth/(2*c.FocalLength))
}

// Aspect returns sensor width over height.
func (c CameraIntrinsics) Aspect() float64 {
	return c.SensorWidth / c.SensorHeight
}

// WithDefaults fills unset fields from DefaultIntrinsics.
func (c CameraIntrinsics) WithDefaults() CameraIntrinsics {
	d := DefaultIntrinsics()
	if c.Projection == "" {
		c.Projection = d.Projection
	}
	if c.SensorWidth == 0 {
		c.SensorWidth = d.SensorWidth
	}
	if c.SensorHeight == 0 {
		c.SensorHeight = d.SensorHeight
	}
	if c.FocalLength == 0 {
		c.FocalLength = d.FocalLength
	}
	return c
}

// Validate checks the intrinsics can be projected with.
func (c CameraIntrinsics) Validate() error {
	switch c.Projection {
	case Perspective:
		if c.SensorWidth <= 0 || c.SensorHeight <= 0 || c.FocalLength <= 0 {
			return ErrInvalidIntrinsics
		}
	case Orthographic:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProjection, c.Projection)
	}
	return nil
}

// ViewConfig is one viewpoint: camera, material, texture and face selection.
type ViewConfig struct {
	Name          string           `yaml:"name"`
	Camera        CameraPose       `yaml:"camera"`
	Intrinsics    CameraIntrinsics `yaml:"intrinsics"`
	MaterialName  string           `yaml:"material_name"`
	Texture       string           `yaml:"texture"`        // "top", "side" or a file path
	ModelRotation math.Euler       `yaml:"model_rotation"` // Mesh rotation while this view is processed
	Selection     SelectionParams  `yaml:"selection"`
}

// Validate checks a single view.
func (v ViewConfig) Validate() error {
	if err := v.Selection.Validate(); err != nil {
		return fmt.Errorf("view %q: %w", v.Name, err)
	}
	if err := v.Intrinsics.Validate(); err != nil {
		return fmt.Errorf("view %q: %w", v.Name, err)
	}
	if v.Texture == "" {
		return fmt.Errorf("view %q: %w", v.Name, ErrUnresolvedTexture)
	}
	return nil
}

// Default returns the top and side views.
// Texture fields hold the TextureTop/TextureSide references.
func Default() []ViewConfig {
	return []ViewConfig{
		{
			Name: "Camera_Top",
			Camera: CameraPose{
				Location: mgl64.Vec3{0, 0, 16},
				Rotation: math.Euler{Z: gomath.Pi / 2},
			},
			Intrinsics:   DefaultIntrinsics(),
			MaterialName: "Material_Top",
			Texture:      TextureTop,
			Selection: SelectionParams{
				Axis:            math.AxisZ,
				FindMax:         true,
				Epsilon:         1.5,
				NormalDirection: mgl64.Vec3{0, 0, 1},
			},
		},
		{
			Name: "Camera_Side",
			Camera: CameraPose{
				Location: mgl64.Vec3{14, 0, 1.3},
				Rotation: math.Euler{X: gomath.Pi / 2, Z: gomath.Pi / 2},
			},
			Intrinsics:    DefaultIntrinsics(),
			MaterialName:  "Material_Side",
			Texture:       TextureSide,
			ModelRotation: math.Euler{Y: gomath.Pi / 2},
			Selection: SelectionParams{
				Axis:            math.AxisX,
				FindMax:         true,
				Epsilon:         1.5,
				NormalDirection: mgl64.Vec3{1, 0, 0},
			},
		},
	}
}

// Resolve returns a copy of vs with texture references replaced by the
// matching entry of refs. Unknown references are kept as literal paths.
// Unset intrinsics take their defaults and every view is validated.
func Resolve(vs []ViewConfig, refs map[string]string) ([]ViewConfig, error) {
	if len(vs) == 0 {
		return nil, ErrNoViews
	}
	out := make([]ViewConfig, len(vs))
	for i, v := range vs {
		if p, ok := refs[v.Texture]; ok {
			v.Texture = p
		}
		v.Intrinsics = v.Intrinsics.WithDefaults()
		if err := v.Validate(); err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
