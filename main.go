// Command georef georeferences a vector floor plan: it fits a transform from
// control points and writes the drawing's lines and paths as GeoJSON.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"floorplan-georef/internal/config"
	"floorplan-georef/internal/drawing"
	"floorplan-georef/internal/features"
	"floorplan-georef/internal/pipeline"
	"floorplan-georef/internal/project"
	"floorplan-georef/internal/version"

	"github.com/google/uuid"
)

type options struct {
	output      string
	local       string
	model       string
	tolerance   float64
	invertY     bool
	markerFill  string
	configFile  string
	projectFile string
	initProject string
	showVersion bool
	verbose     bool
}

func main() {
	var o options
	flag.StringVar(&o.output, "o", "output.geojson", "output file, - for stdout")
	flag.StringVar(&o.local, "local", "", "local control point file (default: markers in the drawing)")
	flag.StringVar(&o.model, "model", "auto", "transform model: auto, similarity or affine")
	flag.Float64Var(&o.tolerance, "tolerance", drawing.DefaultFlattenTolerance, "curve flattening tolerance in drawing units")
	flag.BoolVar(&o.invertY, "invert-y", true, "drawing y axis points down")
	flag.StringVar(&o.markerFill, "marker-fill", drawing.DefaultMarkerFill, "fill colour of reference markers")
	flag.StringVar(&o.configFile, "config", "", "YAML config file")
	flag.StringVar(&o.projectFile, "project", "", "project file ("+project.Ext+")")
	flag.StringVar(&o.initProject, "init-project", "", "write a new project file for the given inputs and exit")
	flag.BoolVar(&o.showVersion, "version", false, "print version and exit")
	flag.BoolVar(&o.verbose, "v", false, "debug logging")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: georef [flags] drawing.svg control.geojson\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if o.showVersion {
		fmt.Printf("georef %s (commit %s, built %s)\n", version.Version, version.GitCommit, version.BuildTime)
		return
	}

	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if o.initProject != "" {
		if err := initProject(o.initProject, o, set, flag.Args()); err != nil {
			fmt.Fprintf(os.Stderr, "georef: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(o, set, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "georef: %v\n", err)
		os.Exit(1)
	}
}

// stageErr tags failures outside the pipeline the same way pipeline stages are.
func stageErr(stage string, err error) error {
	return &pipeline.StageError{Stage: pipeline.Stage(stage), Err: err}
}

func run(o options, set map[string]bool, args []string) error {
	cfg := config.New()
	if o.configFile != "" {
		if err := cfg.Load(o.configFile); err != nil {
			return stageErr("config", err)
		}
	}
	if err := cfg.LoadEnv(); err != nil {
		return stageErr("config", err)
	}

	var (
		proj        *project.File
		drawingPath string
		controlPath string
		localPath   string
		outputPath  string
	)
	if o.projectFile != "" {
		p, err := project.Load(o.projectFile)
		if err != nil {
			return stageErr("project", err)
		}
		proj = p
		drawingPath = p.GetDrawingPath(o.projectFile)
		controlPath = p.GetControlPath(o.projectFile)
		localPath = p.GetLocalPath(o.projectFile)
		outputPath = p.GetOutputPath(o.projectFile)
		if err := applyProject(cfg, p.Settings); err != nil {
			return stageErr("project", err)
		}
	}

	switch {
	case len(args) == 2:
		drawingPath, controlPath = args[0], args[1]
	case len(args) == 0 && proj != nil:
	default:
		flag.Usage()
		return stageErr("usage", fmt.Errorf("expected drawing and control point files, got %d arguments", len(args)))
	}
	if drawingPath == "" || controlPath == "" {
		return stageErr("usage", fmt.Errorf("project %s names no drawing or control file", o.projectFile))
	}

	if err := applyFlags(cfg, o, set); err != nil {
		return stageErr("config", err)
	}
	if set["local"] {
		localPath = o.local
	}
	if set["o"] || outputPath == "" {
		outputPath = cfg.Output()
	}

	estimate, err := cfg.EstimateOptions()
	if err != nil {
		return stageErr("config", err)
	}

	drawingFile, err := os.Open(drawingPath)
	if err != nil {
		return stageErr("input", err)
	}
	defer drawingFile.Close()

	controlFile, err := os.Open(controlPath)
	if err != nil {
		return stageErr("input", err)
	}
	defer controlFile.Close()

	in := pipeline.Input{Drawing: drawingFile, Control: controlFile}
	if localPath != "" {
		localFile, err := os.Open(localPath)
		if err != nil {
			return stageErr("input", err)
		}
		defer localFile.Close()
		in.Local = localFile
	}

	runID := uuid.NewString()
	logger := slog.Default().With("logger", "georef", "run", runID)
	logger.Info("starting", "drawing", drawingPath, "control", controlPath, "local", localPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fc, res, err := pipeline.Run(ctx, in, pipeline.Settings{
		Drawing:    cfg.DrawingOptions(),
		Estimate:   estimate,
		MarkerFill: cfg.MarkerFill(),
		Members: map[string]any{
			"run_id": runID,
			"source": map[string]string{
				"drawing": filepath.Base(drawingPath),
				"control": filepath.Base(controlPath),
			},
		},
		Logger: logger,
	})
	if err != nil {
		return err
	}

	if err := writeOutput(outputPath, func(w io.Writer) error { return features.Write(w, fc) }); err != nil {
		return stageErr("output", err)
	}
	logger.Info("done", "output", outputPath, "features", res.Features, "rmse", res.Diagnostics.RMSE)

	if proj != nil {
		proj.RMSE = res.Diagnostics.RMSE
		if err := proj.Save(o.projectFile); err != nil {
			logger.Warn("saving project failed", "error", err)
		}
	}
	return nil
}

// applyProject layers project settings over the loaded config.
func applyProject(cfg *config.Config, s project.Settings) error {
	if s.Model != "" {
		if err := cfg.Set("model", s.Model); err != nil {
			return err
		}
	}
	if s.FlattenTolerance > 0 {
		if err := cfg.Set("flatten_tolerance", s.FlattenTolerance); err != nil {
			return err
		}
	}
	if s.InvertY != nil {
		if err := cfg.Set("invert_y", *s.InvertY); err != nil {
			return err
		}
	}
	if s.MarkerFill != "" {
		if err := cfg.Set("marker_fill", s.MarkerFill); err != nil {
			return err
		}
	}
	return nil
}

// applyFlags layers explicitly set flags over everything else.
func applyFlags(cfg *config.Config, o options, set map[string]bool) error {
	values := map[string]struct {
		key string
		v   any
	}{
		"o":           {"output", o.output},
		"model":       {"model", o.model},
		"tolerance":   {"flatten_tolerance", o.tolerance},
		"invert-y":    {"invert_y", o.invertY},
		"marker-fill": {"marker_fill", o.markerFill},
	}
	for name, kv := range values {
		if !set[name] {
			continue
		}
		if err := cfg.Set(kv.key, kv.v); err != nil {
			return err
		}
	}
	return nil
}

// initProject records the inputs and explicitly set flags in a new project
// file. An existing file is left alone.
func initProject(path string, o options, set map[string]bool, args []string) error {
	if len(args) != 2 {
		return stageErr("usage", fmt.Errorf("expected drawing and control point files, got %d arguments", len(args)))
	}
	if _, err := os.Stat(path); err == nil {
		return stageErr("project", fmt.Errorf("%s already exists", path))
	}
	projPath, err := filepath.Abs(path)
	if err != nil {
		return stageErr("project", err)
	}

	name := strings.TrimSuffix(filepath.Base(path), project.Ext)
	p := project.New(name)

	drawingPath, err := filepath.Abs(args[0])
	if err != nil {
		return stageErr("project", err)
	}
	p.SetDrawing(projPath, drawingPath)

	controlPath, err := filepath.Abs(args[1])
	if err != nil {
		return stageErr("project", err)
	}
	p.SetControl(projPath, controlPath)

	if set["local"] {
		localPath, err := filepath.Abs(o.local)
		if err != nil {
			return stageErr("project", err)
		}
		p.SetLocal(projPath, localPath)
	}
	if set["o"] && o.output != "-" {
		outputPath, err := filepath.Abs(o.output)
		if err != nil {
			return stageErr("project", err)
		}
		p.SetOutput(projPath, outputPath)
	}

	if set["model"] {
		p.Settings.Model = o.model
	}
	if set["tolerance"] {
		p.Settings.FlattenTolerance = o.tolerance
	}
	if set["invert-y"] {
		invert := o.invertY
		p.Settings.InvertY = &invert
	}
	if set["marker-fill"] {
		p.Settings.MarkerFill = o.markerFill
	}

	if err := p.Save(path); err != nil {
		return stageErr("project", err)
	}
	slog.Info("project written", "path", path)
	return nil
}

// writeOutput writes to a temporary file next to path and renames it into
// place, so a failed write leaves any existing output untouched.
func writeOutput(path string, write func(io.Writer) error) error {
	if path == "-" {
		return write(os.Stdout)
	}
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	fail := func(err error) error {
		f.Close()
		os.Remove(tmp)
		return err
	}

	if err := write(f); err != nil {
		return fail(err)
	}
	if err := f.Chmod(0o644); err != nil {
		return fail(err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
