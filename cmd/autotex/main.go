// autotex projects two texture images onto the top and side faces of a
// mesh and writes the result as a GLB file with a JSON status report.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/autotex/internal/assets"
	"github.com/Faultbox/autotex/internal/config"
	"github.com/Faultbox/autotex/internal/logger"
	"github.com/Faultbox/autotex/internal/pipeline"
	"github.com/Faultbox/autotex/internal/status"
	"github.com/Faultbox/autotex/internal/store"
	"github.com/Faultbox/autotex/internal/views"
)

const usage = `Usage: autotex [flags] -- <model_path> <texture_top_path> <texture_side_path> <output_path> [log_path]

Supported models: .ply .obj .stl .fbx .glb .gltf

Flags:`

// execute runs the pipeline; tests replace it to inject faults.
var execute = pipeline.Execute

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

// args holds the positional arguments after the separator.
type args struct {
	Model       string
	TextureTop  string
	TextureSide string
	Output      string
	LogFile     string
}

func parseArgs(flags *config.Flags, argv []string) (args, error) {
	pos, err := flags.Parse(argv)
	if err != nil {
		return args{}, err
	}
	if len(pos) < 4 {
		return args{}, fmt.Errorf("expected 4 or 5 arguments after %s, got %d", config.Separator, len(pos))
	}
	a := args{Model: pos[0], TextureTop: pos[1], TextureSide: pos[2], Output: pos[3]}
	if len(pos) > 4 {
		a.LogFile = pos[4]
	}
	return a, nil
}

func printUsage(w io.Writer, flags *config.Flags, err error) {
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n\n", err)
	}
	fmt.Fprintln(w, usage)
	flags.PrintDefaults()
}

// run executes one texturing job and returns the process exit code.
func run(argv []string, stderr io.Writer) (code int) {
	flags := config.NewFlags("autotex", stderr)
	a, err := parseArgs(flags, argv)
	if err != nil {
		printUsage(stderr, flags, err)
		return 1
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(stderr, "Config error: %v\n", err)
		if a.LogFile != "" && logger.Init("info", a.LogFile) == nil {
			logger.Error("failed to load config", zap.Error(err))
			logger.Sync()
		}
		return 1
	}
	if a.LogFile != "" {
		cfg.Logging.LogFile = a.LogFile
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(stderr, "Logger error: %v\n", err)
		return 1
	}
	defer logger.Sync()

	logger.Info("=== autotex ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	if flags.DumpConfig != "" {
		if err := cfg.SaveTo(flags.DumpConfig); err != nil {
			logger.Warn("failed to dump config", zap.String("path", flags.DumpConfig), zap.Error(err))
		}
	}

	if err := checkInputs(a); err != nil {
		logger.Error("precondition failed", zap.Error(err))
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if err := ensureOutputDir(a.Output); err != nil {
		return finish(a.Output, cfg, pipeline.Wrap(pipeline.ExportFailure, "output", err))
	}

	// From here on every outcome, crashes included, ends in a status file.
	defer func() {
		if r := recover(); r != nil {
			logger.Error("texturing panicked", zap.Any("panic", r))
			code = finish(a.Output, cfg, pipeline.Errorf(pipeline.UnclassifiedPipelineFailure, "run", "panic: %v", r))
		}
	}()

	vs, err := views.Resolve(cfg.ViewRegistry(), map[string]string{
		views.TextureTop:  a.TextureTop,
		views.TextureSide: a.TextureSide,
	})
	if err != nil {
		return finish(a.Output, cfg, pipeline.Wrap(pipeline.UnclassifiedPipelineFailure, "views", err))
	}

	deps := pipeline.Deps{
		Store:   store.NewFileStore(),
		Shading: pipeline.NewShadingSystem(assets.NewLoader(cfg.Textures.MaxSize)),
		Options: pipeline.Options{ContinueOnBindFailure: cfg.Pipeline.ContinueOnBindFailure},
	}
	report, err := execute(deps, pipeline.Job{
		ModelPath:  a.Model,
		OutputPath: a.Output,
		Views:      vs,
	})
	if report != nil {
		for _, v := range report.Views {
			logger.Debug("view report",
				zap.String("view", v.Name),
				zap.Int("material", v.MaterialIndex),
				zap.Int("faces", v.SelectedFaces),
				zap.Int("behind_camera", v.BehindCamera),
				zap.Stringer("state", v.FinalState),
				zap.NamedError("bind_error", v.BindErr))
		}
	}
	return finish(a.Output, cfg, err)
}

// checkInputs verifies the input files exist and the model format is
// supported. Failures here leave no status file behind.
func checkInputs(a args) error {
	for _, in := range []struct{ what, path string }{
		{"model", a.Model},
		{"top texture", a.TextureTop},
		{"side texture", a.TextureSide},
	} {
		if _, err := os.Stat(in.path); err != nil {
			return pipeline.Errorf(pipeline.MissingInputFile, in.what, "%s not found: %s", in.what, in.path)
		}
	}
	if !store.SupportedExtension(a.Model) {
		return pipeline.Errorf(pipeline.UnsupportedModelFormat, "model",
			"unsupported model format %q", filepath.Ext(a.Model))
	}
	return nil
}

func ensureOutputDir(output string) error {
	dir := filepath.Dir(output)
	if _, err := os.Stat(dir); err == nil {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	logger.Info("created output directory", zap.String("dir", dir))
	return nil
}

// finish writes the status file for the outcome err and returns the exit
// code.
func finish(output string, cfg *config.Config, err error) int {
	var r status.Report
	if err != nil {
		logger.Error("texturing failed",
			zap.Stringer("kind", pipeline.KindOf(err)),
			zap.Error(err))
		r = status.Failure(err)
	} else {
		r = status.Success(cfg.Pipeline.StatusMessage, output)
	}

	path, werr := status.Write(output, r)
	if werr != nil {
		err = multierr.Append(err, werr)
		logger.Error("failed to write status file", zap.String("path", path), zap.Error(err))
		return 1
	}
	logger.Info("status written", zap.String("path", path), zap.String("status", r.Status))

	if err != nil {
		return 1
	}
	logger.Info("model saved", zap.String("path", output))
	return 0
}
