package drawing

import (
	"testing"

	"floorplan-georef/pkg/geometry"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func p(x, y float64) geometry.Point2D {
	return geometry.NewPoint2D(x, y)
}

func TestParsePathDataStraight(t *testing.T) {
	tests := []struct {
		name string
		d    string
		want [][]geometry.Point2D
	}{
		{
			name: "absolute with close",
			d:    "M 10 20 L 30 40 H 50 V 60 Z",
			want: [][]geometry.Point2D{{p(10, 20), p(30, 40), p(50, 40), p(50, 60), p(10, 20)}},
		},
		{
			name: "relative with close",
			d:    "m10,20 l20,20 h20 v20 z",
			want: [][]geometry.Point2D{{p(10, 20), p(30, 40), p(50, 40), p(50, 60), p(10, 20)}},
		},
		{
			name: "compact numbers",
			d:    "M0 0L10-5.5.5.5",
			want: [][]geometry.Point2D{{p(0, 0), p(10, -5.5), p(0.5, 0.5)}},
		},
		{
			name: "implicit lineto after moveto",
			d:    "M0 0 10 0 10 10",
			want: [][]geometry.Point2D{{p(0, 0), p(10, 0), p(10, 10)}},
		},
		{
			name: "implicit relative lineto",
			d:    "m5 5 1 0 0 1",
			want: [][]geometry.Point2D{{p(5, 5), p(6, 5), p(6, 6)}},
		},
		{
			name: "two subpaths",
			d:    "M0 0 L1 0 M5 5 L6 5",
			want: [][]geometry.Point2D{{p(0, 0), p(1, 0)}, {p(5, 5), p(6, 5)}},
		},
		{
			name: "drawing resumes after close",
			d:    "M0 0 L10 0 L10 10 Z L 0 10",
			want: [][]geometry.Point2D{{p(0, 0), p(10, 0), p(10, 10), p(0, 0)}, {p(0, 0), p(0, 10)}},
		},
		{
			name: "already closed is not doubled",
			d:    "M0 0 L10 0 L0 0 Z",
			want: [][]geometry.Point2D{{p(0, 0), p(10, 0), p(0, 0)}},
		},
		{
			name: "exponents",
			d:    "M1e1 0 L2E+1 0",
			want: [][]geometry.Point2D{{p(10, 0), p(20, 0)}},
		},
		{
			name: "lone moveto",
			d:    "M 5 5",
			want: nil,
		},
		{
			name: "empty",
			d:    "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePathData(tt.d, DefaultFlattenTolerance)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
				t.Errorf("parsePathData(%q) mismatch (-want +got):\n%s", tt.d, diff)
			}
		})
	}
}

func TestParsePathDataErrors(t *testing.T) {
	for _, d := range []string{
		"10 10",
		"M 0",
		"M0 0 Z 5",
		"M0 0 A 5 5 0 2 1 10 0",
		"M0 0 L x y",
		"M0 0 C 1 1 2 2",
	} {
		_, err := parsePathData(d, DefaultFlattenTolerance)
		assert.ErrorIs(t, err, ErrPathSyntax, d)
	}
}

func TestParsePathDataSmoothCurveReflection(t *testing.T) {
	// S reflects the previous second control point; with control points on
	// the chord the result stays straight
	got, err := parsePathData("M0 0 C 10 0 20 0 30 0 S 50 0 60 0", 0.01)
	require.NoError(t, err)
	require.Len(t, got, 1)
	for _, pt := range got[0] {
		assert.InDelta(t, 0, pt.Y, 1e-12)
	}
	assert.Equal(t, p(60, 0), got[0][len(got[0])-1])
}

func TestParsePathDataCurvesEndOnTarget(t *testing.T) {
	got, err := parsePathData("M0 0 Q 50 100 100 0 T 200 0 c 10 10 20 10 30 0 a 10 10 0 0 0 20 0", 0.1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	last := got[0][len(got[0])-1]
	assert.InDelta(t, 250, last.X, 1e-9)
	assert.InDelta(t, 0, last.Y, 1e-9)
	assert.Greater(t, len(got[0]), 10)
}
