package drawing

import (
	"math"
	"testing"

	"floorplan-georef/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenCubicStraight(t *testing.T) {
	out := flattenCubic(p(0, 0), p(1, 0), p(2, 0), p(3, 0), 0.1)
	assert.Equal(t, []geometry.Point2D{p(3, 0)}, out)
}

func TestFlattenCubicQuarterCircle(t *testing.T) {
	const k = 55.228475 // 100 * 4/3 * (sqrt(2)-1)
	const tol = 0.1
	start := p(100, 0)
	out := flattenCubic(start, p(100, k), p(k, 100), p(0, 100), tol)
	require.Greater(t, len(out), 4)
	assert.Equal(t, p(0, 100), out[len(out)-1])

	prev := start
	for _, pt := range out {
		// vertices lie on the curve, which is within 0.03 of the circle
		assert.InDelta(t, 100, pt.Distance(p(0, 0)), 0.03)
		mid := prev.Lerp(pt, 0.5)
		assert.GreaterOrEqual(t, mid.Distance(p(0, 0)), 100-tol-0.03)
		prev = pt
	}
}

func TestFlattenToleranceControlsDensity(t *testing.T) {
	coarse := flattenCubic(p(0, 0), p(0, 100), p(100, 100), p(100, 0), 1)
	fine := flattenCubic(p(0, 0), p(0, 100), p(100, 100), p(100, 0), 0.01)
	assert.Greater(t, len(fine), len(coarse))
}

func TestFlattenQuadEndpoints(t *testing.T) {
	out := flattenQuad(p(0, 0), p(50, 50), p(100, 0), 0.05)
	require.NotEmpty(t, out)
	assert.Equal(t, p(100, 0), out[len(out)-1])
	for _, pt := range out {
		assert.LessOrEqual(t, pt.Y, 25.0+1e-9)
	}
}

func TestFlattenArcSemicircle(t *testing.T) {
	const tol = 0.05
	centre := p(50, 0)
	out := flattenArc(p(0, 0), 50, 50, 0, false, true, p(100, 0), tol)
	require.Greater(t, len(out), 8)
	assert.Equal(t, p(100, 0), out[len(out)-1])

	prev := p(0, 0)
	for _, pt := range out {
		assert.InDelta(t, 50, pt.Distance(centre), 1e-9)
		assert.LessOrEqual(t, pt.Y, 1e-9)
		sagitta := 50 - prev.Lerp(pt, 0.5).Distance(centre)
		assert.LessOrEqual(t, sagitta, tol+1e-9)
		prev = pt
	}
}

func TestFlattenArcOppositeSweep(t *testing.T) {
	out := flattenArc(p(0, 0), 50, 50, 0, false, false, p(100, 0), 0.5)
	for _, pt := range out {
		assert.GreaterOrEqual(t, pt.Y, -1e-9)
	}
}

func TestFlattenArcScalesSmallRadii(t *testing.T) {
	out := flattenArc(p(0, 0), 1, 1, 0, false, true, p(100, 0), 0.5)
	for _, pt := range out {
		assert.InDelta(t, 50, pt.Distance(p(50, 0)), 1e-6)
	}
}

func TestFlattenArcDegenerate(t *testing.T) {
	assert.Nil(t, flattenArc(p(1, 1), 5, 5, 0, false, true, p(1, 1), 0.1))
	assert.Equal(t, []geometry.Point2D{p(10, 0)}, flattenArc(p(0, 0), 0, 5, 0, false, true, p(10, 0), 0.1))
}

func TestFlattenArcRotatedEllipse(t *testing.T) {
	out := flattenArc(p(0, 0), 20, 10, 30, true, true, p(15, 15), 0.1)
	require.NotEmpty(t, out)
	last := out[len(out)-1]
	assert.Equal(t, p(15, 15), last)
	for _, pt := range out {
		assert.False(t, math.IsNaN(pt.X) || math.IsNaN(pt.Y))
	}
}

// maxX returns the largest x coordinate among points.
func maxX(points []geometry.Point2D) float64 {
	m := math.Inf(-1)
	for _, pt := range points {
		m = math.Max(m, pt.X)
	}
	return m
}

func TestFlattenCubicOvershootingEndpoint(t *testing.T) {
	// the curve runs out to x=76.30 and back to x=10 along the x axis
	const tol = 0.5
	out := flattenCubic(p(0, 0), p(100, 0), p(100, 0), p(10, 0), tol)
	require.Greater(t, len(out), 1)
	assert.Equal(t, p(10, 0), out[len(out)-1])
	assert.GreaterOrEqual(t, maxX(out), 76.30-tol)
	assert.LessOrEqual(t, maxX(out), 76.31)
}

func TestFlattenQuadOvershootingEndpoint(t *testing.T) {
	// peaks at x=52.63 before returning to x=10
	const tol = 0.5
	out := flattenQuad(p(0, 0), p(100, 0), p(10, 0), tol)
	require.Greater(t, len(out), 1)
	assert.Equal(t, p(10, 0), out[len(out)-1])
	assert.GreaterOrEqual(t, maxX(out), 52.63-tol)
	assert.LessOrEqual(t, maxX(out), 52.64)
}
