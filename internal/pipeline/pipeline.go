// Package pipeline runs a georeferencing job: read control points, fit the
// transform, extract the drawing, reproject it and assemble the output.
package pipeline

import (
	"context"
	"io"
	"log/slog"

	"floorplan-georef/internal/controlpoints"
	"floorplan-georef/internal/drawing"
	"floorplan-georef/internal/features"
	"floorplan-georef/internal/georef"
	"floorplan-georef/pkg/geometry"

	"github.com/paulmach/orb/geojson"
)

// Stage names a pipeline step in errors and logs.
type Stage string

const (
	StageControlPoints Stage = "controlpoints"
	StageFit           Stage = "fit"
	StageExtract       Stage = "extract"
	StageReproject     Stage = "reproject"
	StageAssemble      Stage = "assemble"
)

// StageError tags a failure with the stage it happened in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return string(e.Stage) + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Input holds the job's sources. Local is optional: without it the local
// points are read from reference markers in the drawing.
type Input struct {
	Drawing io.Reader
	Control io.Reader
	Local   io.Reader
}

// Settings configures a run.
type Settings struct {
	Drawing    drawing.Options
	Estimate   georef.EstimateOptions
	MarkerFill string
	// Members are extra top-level members of the output collection.
	Members map[string]any
	Logger  *slog.Logger
}

// Result summarises a successful run.
type Result struct {
	Transform   georef.Transform
	Diagnostics georef.Diagnostics
	Features    int
}

type runner struct {
	in     Input
	s      Settings
	logger *slog.Logger
	doc    *drawing.Drawing
}

// Run executes all stages in order. The context is checked between stages.
// On error nothing partial is returned.
func Run(ctx context.Context, in Input, s Settings) (*geojson.FeatureCollection, Result, error) {
	r := &runner{in: in, s: s, logger: s.Logger}
	if r.logger == nil {
		r.logger = slog.Default().With("logger", "pipeline")
	}

	fc, res, err := r.run(ctx)
	if err != nil {
		return nil, Result{}, err
	}
	return fc, res, nil
}

func (r *runner) run(ctx context.Context) (*geojson.FeatureCollection, Result, error) {
	var res Result

	if err := ctx.Err(); err != nil {
		return nil, res, &StageError{StageControlPoints, err}
	}
	set, err := r.controlPoints()
	if err != nil {
		return nil, res, &StageError{StageControlPoints, err}
	}
	r.logger.Info("control points read", "count", set.Len())

	if err := ctx.Err(); err != nil {
		return nil, res, &StageError{StageFit, err}
	}
	t, diag, err := georef.EstimateWithOptions(set, r.s.Estimate)
	if err != nil {
		return nil, res, &StageError{StageFit, err}
	}
	r.logger.Info("transform fitted",
		"model", t.Model.String(),
		"rmse", diag.RMSE,
		"max_error", diag.MaxError,
		"condition", diag.ConditionNumber)
	for _, rs := range diag.Residuals {
		r.logger.Debug("residual", "index", rs.Index, "id", rs.ID, "error", rs.Error)
	}
	res.Transform, res.Diagnostics = t, diag

	if err := ctx.Err(); err != nil {
		return nil, res, &StageError{StageExtract, err}
	}
	lines, err := r.extract()
	if err != nil {
		return nil, res, &StageError{StageExtract, err}
	}
	r.logger.Info("geometry extracted", "polylines", len(lines))

	if err := ctx.Err(); err != nil {
		return nil, res, &StageError{StageReproject, err}
	}
	geo, err := georef.ReprojectAll(lines, t)
	if err != nil {
		return nil, res, &StageError{StageReproject, err}
	}

	if err := ctx.Err(); err != nil {
		return nil, res, &StageError{StageAssemble, err}
	}
	opts := []features.Option{features.WithTransform(t)}
	for k, v := range r.s.Members {
		opts = append(opts, features.WithMember(k, v))
	}
	fc := features.Assemble(geo, diag, opts...)
	res.Features = len(fc.Features)
	r.logger.Info("features assembled", "features", res.Features)

	return fc, res, nil
}

func (r *runner) drawing() (*drawing.Drawing, error) {
	if r.doc != nil {
		return r.doc, nil
	}
	doc, err := drawing.Parse(r.in.Drawing)
	if err != nil {
		return nil, err
	}
	r.doc = doc
	return doc, nil
}

func (r *runner) controlPoints() (georef.CorrespondenceSet, error) {
	geo, err := controlpoints.ReadGeoJSON(r.in.Control)
	if err != nil {
		return georef.CorrespondenceSet{}, err
	}

	var local []controlpoints.Point
	if r.in.Local != nil {
		raw, err := controlpoints.ReadLocal(r.in.Local)
		if err != nil {
			return georef.CorrespondenceSet{}, err
		}
		local = controlpoints.Normalize(raw, r.s.Drawing.Normalizer())
	} else {
		doc, err := r.drawing()
		if err != nil {
			return georef.CorrespondenceSet{}, err
		}
		markers, err := doc.Markers(drawing.MarkerOptions{Fill: r.s.MarkerFill}, r.s.Drawing.Normalizer())
		if err != nil {
			return georef.CorrespondenceSet{}, err
		}
		if len(markers) == 0 {
			return georef.CorrespondenceSet{}, controlpoints.ErrNoControlPoints
		}
		r.logger.Debug("using drawing markers", "count", len(markers))
		local = controlpoints.FromMarkers(markers)
	}

	return controlpoints.Pair(local, geo)
}

func (r *runner) extract() ([]geometry.Polyline, error) {
	doc, err := r.drawing()
	if err != nil {
		return nil, err
	}
	return doc.Geometries(r.s.Drawing)
}
