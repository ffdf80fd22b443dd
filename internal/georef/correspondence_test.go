package georef

import (
	"math"
	"testing"

	"floorplan-georef/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCorrespondenceSetPairsByPosition(t *testing.T) {
	set, err := NewCorrespondenceSet(pts(0, 0, 1, 1, 2, 2), pts(10, 10, 11, 11, 12, 12), []int{7, 7, 3})
	require.NoError(t, err)
	require.Equal(t, 3, set.Len())

	// duplicate ids stay separate points
	assert.Equal(t, 7, set.At(0).ID)
	assert.Equal(t, 7, set.At(1).ID)
	assert.Equal(t, geometry.NewPoint2D(11, 11), set.At(1).Geo)
	assert.Equal(t, pts(0, 0, 1, 1, 2, 2), set.Local())
}

func TestNewCorrespondenceSetDefaultIDs(t *testing.T) {
	set, err := NewCorrespondenceSet(pts(0, 0, 1, 1), pts(0, 0, 1, 1), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, set.At(1).ID)
}

func TestNewCorrespondenceSetMismatch(t *testing.T) {
	_, err := NewCorrespondenceSet(pts(0, 0, 1, 1, 2, 2), pts(0, 0, 1, 1), nil)
	require.ErrorIs(t, err, ErrInsufficientPoints)
	assert.Contains(t, err.Error(), "3 local points but 2 geographic points")

	_, err = NewCorrespondenceSet(pts(0, 0), pts(0, 0), []int{1, 2})
	require.ErrorIs(t, err, ErrInsufficientPoints)
}

func TestNewCorrespondenceSetRejectsNaN(t *testing.T) {
	_, err := NewCorrespondenceSet(pts(0, math.NaN()), pts(0, 0), nil)
	require.ErrorIs(t, err, ErrInvalidPoint)
}

func TestPointsReturnsCopy(t *testing.T) {
	set, err := NewCorrespondenceSetFromPoints([]ControlPoint{{ID: 1, Local: geometry.NewPoint2D(1, 2), Geo: geometry.NewPoint2D(3, 4)}})
	require.NoError(t, err)
	p := set.Points()
	p[0].ID = 99
	assert.Equal(t, 1, set.At(0).ID)
}
