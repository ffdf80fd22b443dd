package georef

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientPoints is returned when there are too few control
	// points for the requested model, or the local and geographic point
	// lists cannot be paired.
	ErrInsufficientPoints = errors.New("insufficient control points")

	// ErrDegenerateFit matches every *DegenerateFitError via errors.Is.
	ErrDegenerateFit = errors.New("degenerate fit")

	// ErrTransformNotFitted is returned when a zero Transform is used.
	ErrTransformNotFitted = errors.New("transform not fitted")

	// ErrInvalidPoint is returned for NaN or infinite coordinates.
	ErrInvalidPoint = errors.New("invalid control point")
)

// DegenerateFitError reports control points that cannot constrain the
// requested model. Indices refer to positions in the CorrespondenceSet.
type DegenerateFitError struct {
	Reason  string
	Indices []int
}

func (e *DegenerateFitError) Error() string {
	return fmt.Sprintf("degenerate fit: %s (control points %v)", e.Reason, e.Indices)
}

// Is lets errors.Is(err, ErrDegenerateFit) match.
func (e *DegenerateFitError) Is(target error) bool {
	return target == ErrDegenerateFit
}

func degenerate(reason string, indices []int) error {
	return &DegenerateFitError{Reason: reason, Indices: indices}
}

func allIndices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}
