package drawing

import (
	"math"

	"floorplan-georef/pkg/geometry"
)

// maxSubdivision caps recursive curve splitting.
const maxSubdivision = 16

// maxArcSegments caps the number of chords used for one arc.
const maxArcSegments = 1024

// flattenCubic approximates a cubic Bézier from p0 with chords whose distance
// to the curve stays within tol. The returned points exclude p0 and end
// with p3.
func flattenCubic(p0, c1, c2, p3 geometry.Point2D, tol float64) []geometry.Point2D {
	var out []geometry.Point2D
	subdivideCubic(p0, c1, c2, p3, tol, 0, &out)
	return out
}

// flattenQuad approximates a quadratic Bézier by raising it to a cubic.
func flattenQuad(p0, q, p2 geometry.Point2D, tol float64) []geometry.Point2D {
	c1 := p0.Lerp(q, 2.0/3.0)
	c2 := p2.Lerp(q, 2.0/3.0)
	return flattenCubic(p0, c1, c2, p2, tol)
}

// subdivideCubic splits at t=0.5 until both control points lie within tol
// of the chord segment. The curve stays inside the control hull, so this
// bounds the chordal deviation, including curves that overshoot an endpoint.
func subdivideCubic(p0, c1, c2, p3 geometry.Point2D, tol float64, depth int, out *[]geometry.Point2D) {
	flat := math.Max(geometry.DistanceToSegment(c1, p0, p3), geometry.DistanceToSegment(c2, p0, p3)) <= tol
	if flat || depth >= maxSubdivision {
		*out = append(*out, p3)
		return
	}

	// de Casteljau
	p01 := p0.Lerp(c1, 0.5)
	p12 := c1.Lerp(c2, 0.5)
	p23 := c2.Lerp(p3, 0.5)
	p012 := p01.Lerp(p12, 0.5)
	p123 := p12.Lerp(p23, 0.5)
	mid := p012.Lerp(p123, 0.5)

	subdivideCubic(p0, p01, p012, mid, tol, depth+1, out)
	subdivideCubic(mid, p123, p23, p3, tol, depth+1, out)
}

// flattenArc approximates an SVG elliptical arc from p0 to p1 given in
// endpoint form. The returned points exclude p0 and end exactly at p1.
func flattenArc(p0 geometry.Point2D, rx, ry, phiDeg float64, large, sweep bool, p1 geometry.Point2D, tol float64) []geometry.Point2D {
	if p0 == p1 {
		return nil
	}
	rx, ry = math.Abs(rx), math.Abs(ry)
	if rx == 0 || ry == 0 {
		return []geometry.Point2D{p1}
	}

	phi := phiDeg * math.Pi / 180
	cosPhi, sinPhi := math.Cos(phi), math.Sin(phi)

	// endpoint to centre parameterisation
	dx2 := (p0.X - p1.X) / 2
	dy2 := (p0.Y - p1.Y) / 2
	x1p := cosPhi*dx2 + sinPhi*dy2
	y1p := -sinPhi*dx2 + cosPhi*dy2

	// scale radii up when they cannot span the endpoints
	if lambda := x1p*x1p/(rx*rx) + y1p*y1p/(ry*ry); lambda > 1 {
		s := math.Sqrt(lambda)
		rx *= s
		ry *= s
	}

	num := rx*rx*ry*ry - rx*rx*y1p*y1p - ry*ry*x1p*x1p
	den := rx*rx*y1p*y1p + ry*ry*x1p*x1p
	var coef float64
	if num > 0 && den > 0 {
		coef = math.Sqrt(num / den)
	}
	if large == sweep {
		coef = -coef
	}
	cxp := coef * rx * y1p / ry
	cyp := -coef * ry * x1p / rx

	cx := cosPhi*cxp - sinPhi*cyp + (p0.X+p1.X)/2
	cy := sinPhi*cxp + cosPhi*cyp + (p0.Y+p1.Y)/2

	theta1 := vectorAngle(1, 0, (x1p-cxp)/rx, (y1p-cyp)/ry)
	dtheta := vectorAngle((x1p-cxp)/rx, (y1p-cyp)/ry, (-x1p-cxp)/rx, (-y1p-cyp)/ry)
	if !sweep && dtheta > 0 {
		dtheta -= 2 * math.Pi
	} else if sweep && dtheta < 0 {
		dtheta += 2 * math.Pi
	}

	// sagitta r(1-cos(step/2)) <= tol
	r := math.Max(rx, ry)
	step := math.Pi / 2
	if tol < r {
		step = math.Min(step, 2*math.Acos(1-tol/r))
	}
	n := int(math.Ceil(math.Abs(dtheta) / step))
	if n < 1 {
		n = 1
	}
	if n > maxArcSegments {
		n = maxArcSegments
	}

	out := make([]geometry.Point2D, 0, n)
	for i := 1; i < n; i++ {
		t := theta1 + dtheta*float64(i)/float64(n)
		ct, st := math.Cos(t), math.Sin(t)
		out = append(out, geometry.Point2D{
			X: cx + rx*ct*cosPhi - ry*st*sinPhi,
			Y: cy + rx*ct*sinPhi + ry*st*cosPhi,
		})
	}
	return append(out, p1)
}

func vectorAngle(ux, uy, vx, vy float64) float64 {
	return math.Atan2(ux*vy-uy*vx, ux*vx+uy*vy)
}
