package georef

import (
	"testing"

	"floorplan-georef/pkg/geometry"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReprojectPreservesVertices(t *testing.T) {
	tr := Transform{Affine: geometry.Similarity(2, 0, 1, 1), Model: ModelSimilarity}
	tests := []geometry.Polyline{
		{Kind: geometry.KindSegment, Points: pts(0, 0, 1, 1)},
		{Kind: geometry.KindPath, Points: pts(0, 0, 1, 0, 1, 1, 0, 1, 0, 0), Attrs: map[string]string{"id": "room"}},
		{Kind: geometry.KindPath, Points: pts(5, 5, 5, 5, 6, 6)},
	}

	for _, in := range tests {
		before := in.Clone()
		out, err := Reproject(in, tr)
		require.NoError(t, err)
		require.Len(t, out.Points, len(in.Points))
		assert.Equal(t, in.Kind, out.Kind)
		assert.Equal(t, in.Attrs, out.Attrs)
		for i, p := range in.Points {
			assert.Equal(t, tr.Apply(p), out.Points[i])
		}
		if diff := cmp.Diff(before, in); diff != "" {
			t.Errorf("input mutated (-before +after):\n%s", diff)
		}
	}
}

func TestReprojectNotFitted(t *testing.T) {
	g := geometry.Polyline{Kind: geometry.KindSegment, Points: pts(0, 0, 1, 1)}
	_, err := Reproject(g, Transform{})
	require.ErrorIs(t, err, ErrTransformNotFitted)

	out, err := ReprojectAll([]geometry.Polyline{g}, Transform{Affine: geometry.AffineTransform{A: 1, D: 1}})
	require.ErrorIs(t, err, ErrTransformNotFitted)
	assert.Nil(t, out)
}

func TestReprojectControlPointsRoundTrip(t *testing.T) {
	local := pts(120, 40, 880, 60, 860, 610, 100, 590)
	geo := pts(-8.6601, 40.6331, -8.6590, 40.6331, -8.6590, 40.6324, -8.6601, 40.6324)
	set := mustSet(t, local, geo)
	tr, diag, err := Estimate(set)
	require.NoError(t, err)

	out, err := ReprojectAll([]geometry.Polyline{{Kind: geometry.KindPath, Points: local}}, tr)
	require.NoError(t, err)

	opt := cmpopts.EquateApprox(0, 4*diag.RMSE+1e-12)
	if diff := cmp.Diff(geo, out[0].Points, opt); diff != "" {
		t.Errorf("control points not reproduced (-want +got):\n%s", diff)
	}
}
