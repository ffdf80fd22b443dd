// Package drawing reads line and path primitives from an SVG floor plan and
// normalises them into polylines in a y-up local frame.
//
// Only <line> and <path> elements produce geometry. Every other element kind
// (rect, circle, text, images, ...) is skipped without error, and group
// transforms are not applied: floor-plan exports are expected to contain
// nothing else, so there is no unsupported-primitive error.
package drawing

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"floorplan-georef/pkg/geometry"

	"github.com/beevik/etree"
)

var (
	// ErrNotSVG is returned when the document root is not an <svg> element.
	ErrNotSVG = errors.New("document is not an SVG drawing")
	// ErrPathSyntax is returned for malformed path data.
	ErrPathSyntax = errors.New("invalid path data")
	// ErrBadAttribute is returned when a coordinate attribute is not a number.
	ErrBadAttribute = errors.New("invalid coordinate attribute")
)

// DefaultFlattenTolerance is the maximum chordal deviation, in drawing
// units, of flattened curves.
const DefaultFlattenTolerance = 0.5

// Options controls extraction.
type Options struct {
	// FlattenTolerance bounds the distance between a curve and the polyline
	// replacing it, in local units.
	FlattenTolerance float64
	// InvertY mirrors the vertical axis so that y grows upwards.
	InvertY bool
}

// DefaultOptions returns the settings used for SVG exports (y axis down).
func DefaultOptions() Options {
	return Options{
		FlattenTolerance: DefaultFlattenTolerance,
		InvertY:          true,
	}
}

// Normalizer returns the axis normalisation matching these options.
func (o Options) Normalizer() Normalizer {
	return Normalizer{InvertY: o.InvertY}
}

// Normalizer converts raw drawing coordinates to the local frame used for
// fitting. Drawing geometry and local control points must go through the
// same Normalizer.
type Normalizer struct {
	InvertY bool
}

// Apply normalises a single point.
func (n Normalizer) Apply(p geometry.Point2D) geometry.Point2D {
	if n.InvertY {
		return geometry.Point2D{X: p.X, Y: -p.Y}
	}
	return p
}

// ApplyAll normalises a list of points into a new slice.
func (n Normalizer) ApplyAll(points []geometry.Point2D) []geometry.Point2D {
	out := make([]geometry.Point2D, len(points))
	for i, p := range points {
		out[i] = n.Apply(p)
	}
	return out
}

// Drawing is a parsed SVG document.
type Drawing struct {
	doc  *etree.Document
	root *etree.Element
}

// Parse reads an SVG document.
func Parse(r io.Reader) (*Drawing, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("reading svg: %w", err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "svg" {
		return nil, ErrNotSVG
	}
	return &Drawing{doc: doc, root: root}, nil
}

// Extract parses r and returns its geometry.
func Extract(r io.Reader, opts Options) ([]geometry.Polyline, error) {
	d, err := Parse(r)
	if err != nil {
		return nil, err
	}
	return d.Geometries(opts)
}

// Geometries returns one polyline per <line> and one per <path> subpath, in
// document order. Degenerate primitives (fewer than two distinct vertices)
// are dropped.
func (d *Drawing) Geometries(opts Options) ([]geometry.Polyline, error) {
	if opts.FlattenTolerance <= 0 {
		opts.FlattenTolerance = DefaultFlattenTolerance
	}
	norm := opts.Normalizer()

	var out []geometry.Polyline
	var walkErr error
	walk(d.root, func(el *etree.Element) bool {
		var (
			lines []geometry.Polyline
			err   error
		)
		switch el.Tag {
		case "line":
			lines, err = lineElement(el)
		case "path":
			lines, err = pathElement(el, opts.FlattenTolerance)
		default:
			return true
		}
		if err != nil {
			walkErr = err
			return false
		}
		for _, l := range lines {
			l.Points = geometry.DedupeConsecutive(norm.ApplyAll(l.Points))
			if len(l.Points) < 2 {
				continue
			}
			out = append(out, l)
		}
		return true
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return out, nil
}

// nonRendered holds containers whose children are never drawn directly.
var nonRendered = map[string]bool{
	"defs":     true,
	"symbol":   true,
	"clipPath": true,
	"mask":     true,
	"marker":   true,
	"pattern":  true,
	"metadata": true,
}

// walk visits elements depth first in document order until fn returns false.
func walk(el *etree.Element, fn func(*etree.Element) bool) bool {
	for _, child := range el.ChildElements() {
		if nonRendered[child.Tag] {
			continue
		}
		if !fn(child) {
			return false
		}
		if !walk(child, fn) {
			return false
		}
	}
	return true
}

func lineElement(el *etree.Element) ([]geometry.Polyline, error) {
	var v [4]float64
	for i, name := range []string{"x1", "y1", "x2", "y2"} {
		f, err := numberAttr(el, name)
		if err != nil {
			return nil, err
		}
		v[i] = f
	}
	return []geometry.Polyline{{
		Kind:   geometry.KindSegment,
		Points: []geometry.Point2D{{X: v[0], Y: v[1]}, {X: v[2], Y: v[3]}},
		Attrs:  styleAttrs(el),
	}}, nil
}

func pathElement(el *etree.Element, tol float64) ([]geometry.Polyline, error) {
	subpaths, err := parsePathData(el.SelectAttrValue("d", ""), tol)
	if err != nil {
		return nil, fmt.Errorf("path %s: %w", describe(el), err)
	}
	out := make([]geometry.Polyline, 0, len(subpaths))
	for i, sp := range subpaths {
		attrs := styleAttrs(el)
		attrs["subpath"] = strconv.Itoa(i)
		out = append(out, geometry.Polyline{Kind: geometry.KindPath, Points: sp, Attrs: attrs})
	}
	return out, nil
}

// numberAttr parses a coordinate attribute. Missing attributes are 0.
func numberAttr(el *etree.Element, name string) (float64, error) {
	raw := strings.TrimSpace(el.SelectAttrValue(name, ""))
	if raw == "" {
		return 0, nil
	}
	raw = strings.TrimSuffix(raw, "px")
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %s=%q", ErrBadAttribute, describe(el), name, raw)
	}
	return f, nil
}

func describe(el *etree.Element) string {
	if id := el.SelectAttrValue("id", ""); id != "" {
		return fmt.Sprintf("<%s id=%q>", el.Tag, id)
	}
	return fmt.Sprintf("<%s> at %s", el.Tag, el.GetPath())
}
