// Package georef fits planar-to-geographic transforms from control points
// and reprojects drawing geometry through them.
package georef

import (
	"fmt"
	"math"

	"floorplan-georef/pkg/geometry"
)

// ControlPoint is a location known both in the drawing and on the ground.
// ID is a label only; duplicates are allowed and are never merged.
type ControlPoint struct {
	ID    int              `json:"id"`
	Local geometry.Point2D `json:"local"`
	Geo   geometry.Point2D `json:"geo"`
}

// CorrespondenceSet is an ordered, immutable list of control points.
type CorrespondenceSet struct {
	points []ControlPoint
}

// NewCorrespondenceSet pairs local and geographic points by position.
// ids may be nil, in which case each point is labelled with its index.
func NewCorrespondenceSet(local, geo []geometry.Point2D, ids []int) (CorrespondenceSet, error) {
	if len(local) != len(geo) {
		return CorrespondenceSet{}, fmt.Errorf("%w: %d local points but %d geographic points",
			ErrInsufficientPoints, len(local), len(geo))
	}
	if ids != nil && len(ids) != len(local) {
		return CorrespondenceSet{}, fmt.Errorf("%w: %d ids for %d points",
			ErrInsufficientPoints, len(ids), len(local))
	}

	points := make([]ControlPoint, len(local))
	for i := range local {
		if !finite(local[i]) || !finite(geo[i]) {
			return CorrespondenceSet{}, fmt.Errorf("%w: point %d has non-finite coordinates", ErrInvalidPoint, i)
		}
		id := i
		if ids != nil {
			id = ids[i]
		}
		points[i] = ControlPoint{ID: id, Local: local[i], Geo: geo[i]}
	}
	return CorrespondenceSet{points: points}, nil
}

// NewCorrespondenceSetFromPoints copies already paired control points.
func NewCorrespondenceSetFromPoints(points []ControlPoint) (CorrespondenceSet, error) {
	local := make([]geometry.Point2D, len(points))
	geo := make([]geometry.Point2D, len(points))
	ids := make([]int, len(points))
	for i, p := range points {
		local[i], geo[i], ids[i] = p.Local, p.Geo, p.ID
	}
	return NewCorrespondenceSet(local, geo, ids)
}

// Len returns the number of control points.
func (s CorrespondenceSet) Len() int {
	return len(s.points)
}

// At returns the i-th control point.
func (s CorrespondenceSet) At(i int) ControlPoint {
	return s.points[i]
}

// Points returns a copy of the control points.
func (s CorrespondenceSet) Points() []ControlPoint {
	out := make([]ControlPoint, len(s.points))
	copy(out, s.points)
	return out
}

// Local returns the local-space coordinates in order.
func (s CorrespondenceSet) Local() []geometry.Point2D {
	out := make([]geometry.Point2D, len(s.points))
	for i, p := range s.points {
		out[i] = p.Local
	}
	return out
}

// Geo returns the geographic coordinates in order.
func (s CorrespondenceSet) Geo() []geometry.Point2D {
	out := make([]geometry.Point2D, len(s.points))
	for i, p := range s.points {
		out[i] = p.Geo
	}
	return out
}

func finite(p geometry.Point2D) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}
