// Package features turns reprojected polylines into a GeoJSON feature
// collection carrying the georeferencing quality metadata.
package features

import (
	"encoding/json"
	"io"
	"math"
	"strings"

	"floorplan-georef/internal/georef"
	"floorplan-georef/pkg/geometry"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// MetadataMember is the foreign member holding the fit metadata.
const MetadataMember = "georeference"

// Metadata echoes the fit diagnostics so output quality can be judged
// without refitting.
type Metadata struct {
	Model     string      `json:"model"`
	Transform *[6]float64 `json:"transform,omitempty"`
	Points    int         `json:"control_points"`
	RMSE      float64     `json:"rmse"`
	MaxError  float64     `json:"max_error"`
	// ConditionNumber is nil when the local points span a single direction.
	ConditionNumber *float64          `json:"condition_number"`
	Residuals       []georef.Residual `json:"residuals"`
}

// Option customises Assemble.
type Option func(*assembly)

type assembly struct {
	transform *georef.Transform
	members   map[string]any
}

// WithTransform records the fitted transform parameters in the metadata.
func WithTransform(t georef.Transform) Option {
	return func(a *assembly) {
		a.transform = &t
	}
}

// WithMember adds a top-level foreign member to the collection.
func WithMember(key string, value any) Option {
	return func(a *assembly) {
		a.members[key] = value
	}
}

// NewMetadata builds the metadata block from fit diagnostics.
func NewMetadata(diag georef.Diagnostics, t *georef.Transform) Metadata {
	m := Metadata{
		Model:     diag.Model.String(),
		Points:    diag.Points,
		RMSE:      diag.RMSE,
		MaxError:  diag.MaxError,
		Residuals: diag.Residuals,
	}
	if m.Residuals == nil {
		m.Residuals = []georef.Residual{}
	}
	if !math.IsInf(diag.ConditionNumber, 0) && !math.IsNaN(diag.ConditionNumber) {
		c := diag.ConditionNumber
		m.ConditionNumber = &c
	}
	if t != nil {
		params := [6]float64(t.Affine.Aff3())
		m.Transform = &params
	}
	return m
}

// Assemble wraps each polyline in a LineString feature with a sequential
// "id" property. Zero polylines yield an empty collection that still
// carries the metadata.
func Assemble(lines []geometry.Polyline, diag georef.Diagnostics, opts ...Option) *geojson.FeatureCollection {
	a := &assembly{members: make(map[string]any)}
	for _, opt := range opts {
		opt(a)
	}

	fc := geojson.NewFeatureCollection()
	var bound orb.Bound
	for i, l := range lines {
		ls := make(orb.LineString, len(l.Points))
		for j, p := range l.Points {
			ls[j] = orb.Point{p.X, p.Y}
		}

		f := geojson.NewFeature(ls)
		for k, v := range l.Attrs {
			f.Properties[propertyName(k)] = v
		}
		f.Properties["id"] = i
		f.Properties["kind"] = l.Kind.String()
		fc.Append(f)

		if i == 0 {
			bound = ls.Bound()
		} else {
			bound = bound.Union(ls.Bound())
		}
	}
	if len(lines) > 0 {
		fc.BBox = geojson.NewBBox(bound)
	}

	fc.ExtraMembers = geojson.Properties{}
	for k, v := range a.members {
		fc.ExtraMembers[k] = v
	}
	fc.ExtraMembers[MetadataMember] = NewMetadata(diag, a.transform)
	return fc
}

// propertyName maps drawing attribute names onto output property names.
// The drawing id moves aside for the sequential feature id.
func propertyName(attr string) string {
	if attr == "id" {
		return "svg_id"
	}
	return strings.ReplaceAll(attr, "-", "_")
}

// Write encodes the collection as indented JSON.
func Write(w io.Writer, fc *geojson.FeatureCollection) error {
	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
