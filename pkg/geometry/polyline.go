package geometry

import "math"

// Kind distinguishes the drawing primitive a polyline came from.
type Kind int

const (
	// KindSegment is a straight line element with exactly two endpoints.
	KindSegment Kind = iota
	// KindPath is one subpath of a path element.
	KindPath
)

func (k Kind) String() string {
	switch k {
	case KindSegment:
		return "segment"
	case KindPath:
		return "path"
	default:
		return "unknown"
	}
}

// Polyline is an ordered vertex sequence joined by straight segments.
// Attrs carries drawing attributes (id, stroke, ...) through to the output.
type Polyline struct {
	Kind   Kind
	Points []Point2D
	Attrs  map[string]string
}

// Clone returns a deep copy of the polyline.
func (p Polyline) Clone() Polyline {
	out := Polyline{Kind: p.Kind, Points: make([]Point2D, len(p.Points))}
	copy(out.Points, p.Points)
	if p.Attrs != nil {
		out.Attrs = make(map[string]string, len(p.Attrs))
		for k, v := range p.Attrs {
			out.Attrs[k] = v
		}
	}
	return out
}

// DedupeConsecutive removes vertices equal to their predecessor.
// The input slice is not modified.
func DedupeConsecutive(points []Point2D) []Point2D {
	if len(points) == 0 {
		return nil
	}
	out := make([]Point2D, 0, len(points))
	out = append(out, points[0])
	for _, p := range points[1:] {
		if p != out[len(out)-1] {
			out = append(out, p)
		}
	}
	return out
}

// DistanceToSegment returns the distance from p to the closest point of the
// segment ab.
func DistanceToSegment(p, a, b Point2D) float64 {
	ab := b.Sub(a)
	l2 := ab.X*ab.X + ab.Y*ab.Y
	if l2 == 0 {
		return p.Distance(a)
	}
	t := ((p.X-a.X)*ab.X + (p.Y-a.Y)*ab.Y) / l2
	t = math.Max(0, math.Min(1, t))
	return p.Distance(a.Lerp(b, t))
}
