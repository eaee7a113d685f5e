package pipeline

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/autotex/internal/logger"
	"github.com/Faultbox/autotex/internal/views"
)

// Job is one texturing request.
type Job struct {
	ModelPath  string
	OutputPath string
	Views      []views.ViewConfig // Texture references already resolved
}

// Deps are the host services a job runs against.
type Deps struct {
	Store   MeshStore
	Shading ShadingSystem
	Options Options
}

// Execute imports the model, runs every view and exports the result.
func Execute(d Deps, job Job) (*Report, error) {
	logger.Info("importing model", zap.String("path", job.ModelPath))
	m, err := d.Store.Import(job.ModelPath)
	if err != nil {
		var perr *Error
		if !errors.As(err, &perr) {
			err = Wrap(UnclassifiedPipelineFailure, "import", err)
		}
		return nil, err
	}
	if m == nil || m.Empty() {
		return nil, Errorf(NoMeshFoundInScene, "import", "no mesh found in %s", job.ModelPath)
	}
	logger.Info("model imported",
		zap.String("mesh", m.Name),
		zap.Int("vertices", len(m.Vertices)),
		zap.Int("faces", len(m.Faces)))

	o := NewOrchestrator(d.Shading, d.Options)
	scene, err := o.Prepare(m, job.Views)
	if err != nil {
		return nil, err
	}

	report, err := o.Run(scene, job.Views)
	if err != nil {
		return report, err
	}

	for slot, n := range m.MaterialCounts() {
		logger.Debug("material assignment", zap.Int("slot", slot), zap.Int("faces", n))
	}

	logger.Info("exporting model", zap.String("path", job.OutputPath))
	if err := d.Store.Export(scene, job.OutputPath); err != nil {
		if KindOf(err) == UnclassifiedPipelineFailure {
			err = Wrap(ExportFailure, "export", err)
		}
		return report, err
	}
	logger.Info("model exported", zap.String("path", job.OutputPath))
	return report, nil
}
