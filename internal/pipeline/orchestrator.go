package pipeline

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/autotex/internal/logger"
	"github.com/Faultbox/autotex/internal/mesh"
	"github.com/Faultbox/autotex/internal/projection"
	"github.com/Faultbox/autotex/internal/selection"
	"github.com/Faultbox/autotex/internal/views"
)

// Options tunes orchestration.
type Options struct {
	// ContinueOnBindFailure records a failed texture bind in the report
	// and keeps processing the remaining views instead of aborting.
	ContinueOnBindFailure bool
}

// ViewReport is the outcome of one view.
type ViewReport struct {
	Name          string
	MaterialIndex int
	SelectedFaces int
	BehindCamera  int
	FinalState    State
	BindErr       error
}

// Report lists the outcome of every view that was started.
type Report struct {
	Views []ViewReport
}

// BindFailures returns the number of views whose texture bind failed.
func (r *Report) BindFailures() int {
	n := 0
	for _, v := range r.Views {
		if v.BindErr != nil {
			n++
		}
	}
	return n
}

// Orchestrator runs the views of a scene in order.
type Orchestrator struct {
	shading ShadingSystem
	opts    Options
}

// NewOrchestrator creates an orchestrator creating materials in sh.
func NewOrchestrator(sh ShadingSystem, opts Options) *Orchestrator {
	return &Orchestrator{shading: sh, opts: opts}
}

// Prepare creates one material slot and one camera per view.
func (o *Orchestrator) Prepare(m *mesh.Mesh, vs []views.ViewConfig) (*SceneContext, error) {
	if len(vs) == 0 {
		return nil, Wrap(UnclassifiedPipelineFailure, "prepare", views.ErrNoViews)
	}

	scene := &SceneContext{
		Mesh:      m,
		Cameras:   make([]*projection.Camera, 0, len(vs)),
		Materials: make([]int, 0, len(vs)),
		Shading:   o.shading,
	}

	for _, v := range vs {
		idx, err := o.shading.CreateMaterial(v.MaterialName)
		if err != nil {
			return nil, Wrap(UnclassifiedPipelineFailure, v.Name, err)
		}
		scene.Materials = append(scene.Materials, idx)
		scene.Cameras = append(scene.Cameras, projection.FromView(v))
		logger.Debug("view prepared",
			zap.String("view", v.Name),
			zap.String("material", v.MaterialName),
			zap.Int("slot", idx))
	}
	return scene, nil
}

// Run processes the views against scene.Mesh. The mesh transform is put
// back to its initial value on every exit path, panics included.
func (o *Orchestrator) Run(scene *SceneContext, vs []views.ViewConfig) (report *Report, err error) {
	if scene == nil || scene.Mesh == nil {
		return nil, Errorf(NoMeshFoundInScene, "run", "no mesh in scene")
	}
	if len(scene.Cameras) != len(vs) || len(scene.Materials) != len(vs) {
		return nil, Errorf(UnclassifiedPipelineFailure, "run",
			"scene prepared for %d views, got %d", len(scene.Cameras), len(vs))
	}

	m := scene.Mesh
	report = &Report{Views: make([]ViewReport, 0, len(vs))}

	// Registered first so it runs after the transform is restored.
	defer func() {
		if r := recover(); r != nil {
			err = &Error{
				Kind: UnclassifiedPipelineFailure,
				Op:   "run",
				Err:  errors.Errorf("panic: %v", r),
			}
			logger.Error("orchestration panicked", zap.Any("panic", r))
		}
	}()

	guard := mesh.Capture(m)
	finished := false
	defer func() {
		guard.Restore()
		trace(logger.Log, AllRestored)
		logger.Info("restored original transform", zap.String("mesh", m.Name))
		if finished {
			trace(logger.Log, Done)
		}
	}()

	last := len(vs) - 1
	for i, v := range vs {
		vr := ViewReport{Name: v.Name, MaterialIndex: scene.Materials[i], FinalState: Idle}
		vlog := logger.With(zap.String("view", v.Name))
		trace(vlog, Idle)

		m.DeselectAll()
		m.SetRotation(v.ModelRotation)
		vr.FinalState = step(vlog, PoseSet)
		deg := v.ModelRotation.Degrees()
		vlog.Debug("model rotation set", zap.Float64s("degrees", deg[:]))

		faces, stats := selection.SelectWithStats(m, m.WorldMatrix(), v.Selection)
		vr.SelectedFaces = len(faces)
		vr.FinalState = step(vlog, FacesSelected)
		logger.Info(fmt.Sprintf("selected %d faces for %s", len(faces), v.Name),
			zap.Float64("extreme", stats.Extreme),
			zap.Int("total_faces", stats.Faces))
		if len(faces) == 0 {
			vlog.Warn("no faces matched view selection", zap.Stringer("kind", FaceSelectionDegenerate))
		}

		m.AssignMaterial(m.SelectedFaces(), scene.Materials[i])
		vr.FinalState = step(vlog, MaterialAssigned)

		res := projection.Project(m, faces, scene.Cameras[i])
		vr.BehindCamera = res.BehindCamera
		vr.FinalState = step(vlog, UVProjected)

		if bindErr := scene.Shading.Bind(scene.Materials[i], v.Texture); bindErr != nil {
			vr.BindErr = Wrap(TextureBindFailure, v.Name, bindErr)
			report.Views = append(report.Views, vr)
			if !o.opts.ContinueOnBindFailure {
				return report, vr.BindErr
			}
			vlog.Error("texture bind failed, continuing",
				zap.String("texture", v.Texture),
				zap.Error(bindErr))
		} else {
			vr.FinalState = step(vlog, TextureBound)
			report.Views = append(report.Views, vr)
		}

		if i != last {
			guard.RestoreRotation()
			report.Views[len(report.Views)-1].FinalState = step(vlog, PoseRestored)
		}
	}

	finished = true
	return report, nil
}

func step(log *zap.Logger, s State) State {
	trace(log, s)
	return s
}

func trace(log *zap.Logger, s State) {
	log.Debug("orchestrator state", zap.Stringer("state", s))
}
