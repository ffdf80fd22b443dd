// Package controlpoints reads the two halves of a control-point set, the
// geographic GeoJSON points and the local drawing points, and pairs them
// by position.
package controlpoints

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"floorplan-georef/internal/drawing"
	"floorplan-georef/internal/georef"
	"floorplan-georef/pkg/geometry"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"gopkg.in/yaml.v3"
)

// ErrNoControlPoints is returned when an input holds no usable points.
var ErrNoControlPoints = errors.New("no control points found")

// Point is one half of a control point. Label keeps the original id text;
// ID is its integer form, or the sequence index when it is not numeric.
type Point struct {
	ID    int
	Label string
	Point geometry.Point2D
}

// ReadGeoJSON returns the Point features of a FeatureCollection in order.
// Other geometry types are skipped.
func ReadGeoJSON(r io.Reader) ([]Point, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parsing control points: %w", err)
	}

	var out []Point
	for _, f := range fc.Features {
		pt, ok := f.Geometry.(orb.Point)
		if !ok {
			continue
		}
		id, label := featureID(f.Properties["id"], len(out))
		out = append(out, Point{ID: id, Label: label, Point: geometry.NewPoint2D(pt.Lon(), pt.Lat())})
	}
	if len(out) == 0 {
		return nil, ErrNoControlPoints
	}
	return out, nil
}

func featureID(v any, index int) (int, string) {
	switch id := v.(type) {
	case float64:
		if id == math.Trunc(id) {
			return int(id), strconv.Itoa(int(id))
		}
		return index, strconv.FormatFloat(id, 'f', -1, 64)
	case string:
		if n, err := strconv.Atoi(id); err == nil {
			return n, id
		}
		return index, id
	}
	return index, strconv.Itoa(index)
}

// localEntry is one record of a local point file.
type localEntry struct {
	ID *int     `yaml:"id"`
	X  *float64 `yaml:"x"`
	Y  *float64 `yaml:"y"`
}

// ReadLocal reads local drawing points from a YAML or JSON list of
// {id, x, y} records. Coordinates are raw drawing coordinates and both are
// required.
func ReadLocal(r io.Reader) ([]Point, error) {
	var entries []localEntry
	if err := yaml.NewDecoder(r).Decode(&entries); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoControlPoints
		}
		return nil, fmt.Errorf("parsing local points: %w", err)
	}
	if len(entries) == 0 {
		return nil, ErrNoControlPoints
	}

	out := make([]Point, len(entries))
	for i, e := range entries {
		if e.X == nil || e.Y == nil {
			return nil, fmt.Errorf("%w: local point %d is missing x or y", georef.ErrInvalidPoint, i)
		}
		id := i
		if e.ID != nil {
			id = *e.ID
		}
		out[i] = Point{ID: id, Label: strconv.Itoa(id), Point: geometry.NewPoint2D(*e.X, *e.Y)}
	}
	return out, nil
}

// FromMarkers converts drawing reference markers into local points.
func FromMarkers(markers []drawing.Marker) []Point {
	out := make([]Point, len(markers))
	for i, m := range markers {
		id := i
		if n, err := strconv.Atoi(m.ID); err == nil {
			id = n
		}
		out[i] = Point{ID: id, Label: m.ID, Point: m.Point}
	}
	return out
}

// Normalize applies the drawing axis convention to raw local points.
func Normalize(points []Point, norm drawing.Normalizer) []Point {
	out := make([]Point, len(points))
	for i, p := range points {
		p.Point = norm.Apply(p.Point)
		out[i] = p
	}
	return out
}

// Pair matches local and geographic points strictly by position. Ids are
// taken from the geographic side and are labels only.
func Pair(local, geo []Point) (georef.CorrespondenceSet, error) {
	l := make([]geometry.Point2D, len(local))
	for i, p := range local {
		l[i] = p.Point
	}
	g := make([]geometry.Point2D, len(geo))
	ids := make([]int, len(geo))
	for i, p := range geo {
		g[i] = p.Point
		ids[i] = p.ID
	}
	return georef.NewCorrespondenceSet(l, g, ids)
}
