package drawing

import (
	"strings"

	"floorplan-georef/pkg/colorutil"
	"floorplan-georef/pkg/geometry"

	"github.com/beevik/etree"
)

// DefaultMarkerFill is the fill colour of reference markers in the
// floor-plan exports this tool was written for.
const DefaultMarkerFill = "pink"

// Marker is a reference point drawn into the floor plan.
type Marker struct {
	ID    string
	Point geometry.Point2D
}

// MarkerOptions selects marker elements.
type MarkerOptions struct {
	// Fill is the marker fill colour. Keywords, hex and rgb() forms of the
	// same colour all match.
	Fill string
}

// Markers returns the reference markers in document order: <rect> elements
// anchored at x/y and <circle>/<ellipse> elements at cx/cy whose fill
// matches. Points are normalised with norm.
func (d *Drawing) Markers(opts MarkerOptions, norm Normalizer) ([]Marker, error) {
	fill := strings.TrimSpace(opts.Fill)
	if fill == "" {
		fill = DefaultMarkerFill
	}

	var out []Marker
	var walkErr error
	walk(d.root, func(el *etree.Element) bool {
		var xName, yName string
		switch el.Tag {
		case "rect":
			xName, yName = "x", "y"
		case "circle", "ellipse":
			xName, yName = "cx", "cy"
		default:
			return true
		}
		if !colorutil.Equal(presentation(el, "fill"), fill) {
			return true
		}

		x, err := numberAttr(el, xName)
		if err != nil {
			walkErr = err
			return false
		}
		y, err := numberAttr(el, yName)
		if err != nil {
			walkErr = err
			return false
		}
		out = append(out, Marker{
			ID:    el.SelectAttrValue("id", ""),
			Point: norm.Apply(geometry.Point2D{X: x, Y: y}),
		})
		return true
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return out, nil
}
