package georef

import (
	"fmt"

	"floorplan-georef/pkg/geometry"
)

// Reproject maps every vertex of g through t. Vertex count and order are
// preserved exactly and g is left untouched.
func Reproject(g geometry.Polyline, t Transform) (geometry.Polyline, error) {
	if !t.Fitted() {
		return geometry.Polyline{}, ErrTransformNotFitted
	}
	out := g.Clone()
	out.Points = t.Affine.ApplyAll(g.Points)
	return out, nil
}

// ReprojectAll reprojects a batch. On error nothing is returned.
func ReprojectAll(gs []geometry.Polyline, t Transform) ([]geometry.Polyline, error) {
	if !t.Fitted() {
		return nil, ErrTransformNotFitted
	}
	out := make([]geometry.Polyline, len(gs))
	for i, g := range gs {
		r, err := Reproject(g, t)
		if err != nil {
			return nil, fmt.Errorf("geometry %d: %w", i, err)
		}
		out[i] = r
	}
	return out, nil
}
