package georef

import (
	"fmt"
	"math"
	"strings"

	"floorplan-georef/pkg/geometry"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Model selects the family of transforms the estimator fits.
type Model int

const (
	// ModelAuto fits a similarity for two points and an affine for three or more.
	ModelAuto Model = iota
	// ModelSimilarity fits uniform scale, rotation and translation (4 parameters).
	ModelSimilarity
	// ModelAffine fits a full 2x3 affine matrix (6 parameters).
	ModelAffine
)

func (m Model) String() string {
	switch m {
	case ModelAuto:
		return "auto"
	case ModelSimilarity:
		return "similarity"
	case ModelAffine:
		return "affine"
	default:
		return "unknown"
	}
}

// ParseModel parses "auto", "similarity" or "affine". Empty means auto.
func ParseModel(s string) (Model, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ModelAuto, nil
	case "similarity":
		return ModelSimilarity, nil
	case "affine":
		return ModelAffine, nil
	}
	return ModelAuto, fmt.Errorf("unknown transform model %q", s)
}

// DefaultCollinearityTolerance is the smallest accepted ratio between the
// minor and major singular values of the centred local points.
const DefaultCollinearityTolerance = 1e-9

// detTolerance bounds |det(A)| relative to the squared scale estimate.
const detTolerance = 1e-12

// EstimateOptions configures Estimate.
type EstimateOptions struct {
	Model                 Model
	CollinearityTolerance float64
}

// Transform is a fitted local-to-geographic affine map. The zero value is
// not fitted and is rejected by Reproject.
type Transform struct {
	Affine geometry.AffineTransform
	Model  Model
}

// Fitted reports whether the transform came out of a successful estimate.
func (t Transform) Fitted() bool {
	return t.Model == ModelSimilarity || t.Model == ModelAffine
}

// Apply maps a local point to geographic coordinates.
func (t Transform) Apply(p geometry.Point2D) geometry.Point2D {
	return t.Affine.Apply(p)
}

// Residual is the geographic error at one control point.
type Residual struct {
	Index int     `json:"index"`
	ID    int     `json:"id"`
	DX    float64 `json:"dx"`
	DY    float64 `json:"dy"`
	Error float64 `json:"error"`
}

// Diagnostics describes the quality of a fit.
type Diagnostics struct {
	Model           Model      `json:"-"`
	Points          int        `json:"points"`
	Residuals       []Residual `json:"residuals"`
	RMSE            float64    `json:"rmse"`
	MaxError        float64    `json:"max_error"`
	ConditionNumber float64    `json:"condition_number"`
}

// Estimate fits a transform with the automatic model choice.
func Estimate(set CorrespondenceSet) (Transform, Diagnostics, error) {
	return EstimateWithOptions(set, EstimateOptions{})
}

// EstimateWithOptions fits a transform from the control points by ordinary
// least squares. Every point carries equal weight.
func EstimateWithOptions(set CorrespondenceSet, opts EstimateOptions) (Transform, Diagnostics, error) {
	n := set.Len()
	if n < 2 {
		return Transform{}, Diagnostics{}, fmt.Errorf("%w: need at least 2, got %d", ErrInsufficientPoints, n)
	}

	model := opts.Model
	if model == ModelAuto {
		model = ModelAffine
		if n < 3 {
			model = ModelSimilarity
		}
	}
	if model == ModelAffine && n < 3 {
		return Transform{}, Diagnostics{}, fmt.Errorf("%w: affine model needs at least 3, got %d", ErrInsufficientPoints, n)
	}

	tol := opts.CollinearityTolerance
	if tol <= 0 {
		tol = DefaultCollinearityTolerance
	}

	local := set.Local()
	geo := set.Geo()

	if err := checkDuplicates(local, geo); err != nil {
		return Transform{}, Diagnostics{}, err
	}

	localSV := spread(local)
	if localSV[0] <= 1e-12*magnitude(local) {
		return Transform{}, Diagnostics{}, degenerate("local points coincide", allIndices(n))
	}
	cond := math.Inf(1)
	if localSV[1] > 0 {
		cond = localSV[0] / localSV[1]
	}
	// two points are always collinear; three or more must span the plane
	if n >= 3 && localSV[1] <= tol*localSV[0] {
		return Transform{}, Diagnostics{}, degenerate("local points are collinear", allIndices(n))
	}

	geoSV := spread(geo)
	if geoSV[0] <= 1e-12*magnitude(geo) {
		return Transform{}, Diagnostics{}, degenerate("geographic points coincide", allIndices(n))
	}

	var (
		affine geometry.AffineTransform
		err    error
	)
	switch model {
	case ModelSimilarity:
		affine, err = fitSimilarity(local, geo)
	case ModelAffine:
		affine, err = fitAffine(local, geo)
	default:
		return Transform{}, Diagnostics{}, fmt.Errorf("unsupported model %v", model)
	}
	if err != nil {
		return Transform{}, Diagnostics{}, degenerate(err.Error(), allIndices(n))
	}

	scale := geoSV[0] / localSV[0]
	if math.Abs(affine.Det()) <= detTolerance*scale*scale {
		return Transform{}, Diagnostics{}, degenerate("fitted matrix is singular", allIndices(n))
	}

	t := Transform{Affine: affine, Model: model}
	diag := residuals(set, t)
	diag.ConditionNumber = cond
	return t, diag, nil
}

// checkDuplicates rejects identical local points that claim different
// geographic locations.
func checkDuplicates(local, geo []geometry.Point2D) error {
	localEps := 1e-12 * math.Max(1, geometry.BoundingBox(local).Diagonal())
	geoEps := 1e-12 * math.Max(1, geometry.BoundingBox(geo).Diagonal())
	for i := range local {
		for j := i + 1; j < len(local); j++ {
			if local[i].Distance(local[j]) <= localEps && geo[i].Distance(geo[j]) > geoEps {
				return degenerate("identical local points map to different geographic points", []int{i, j})
			}
		}
	}
	return nil
}

// spread returns the two singular values of the centred point cloud,
// largest first.
func spread(points []geometry.Point2D) [2]float64 {
	c := geometry.Centroid(points)
	m := mat.NewDense(len(points), 2, nil)
	for i, p := range points {
		m.Set(i, 0, p.X-c.X)
		m.Set(i, 1, p.Y-c.Y)
	}

	var svd mat.SVD
	if !svd.Factorize(m, mat.SVDNone) {
		return [2]float64{}
	}
	vals := svd.Values(nil)
	var out [2]float64
	copy(out[:], vals)
	return out
}

// magnitude is the reference size for absolute tolerances.
func magnitude(points []geometry.Point2D) float64 {
	m := 1.0
	for _, p := range points {
		m = math.Max(m, math.Max(math.Abs(p.X), math.Abs(p.Y)))
	}
	return m
}

// fitAffine solves the 6-parameter affine by QR least squares on centred
// coordinates.
func fitAffine(src, dst []geometry.Point2D) (geometry.AffineTransform, error) {
	n := len(src)
	sc, dc := geometry.Centroid(src), geometry.Centroid(dst)

	// x' = a*x + b*y + tx
	// y' = c*x + d*y + ty
	A := mat.NewDense(n*2, 6, nil)
	B := mat.NewVecDense(n*2, nil)
	for i := 0; i < n; i++ {
		x, y := src[i].X-sc.X, src[i].Y-sc.Y
		xp, yp := dst[i].X-dc.X, dst[i].Y-dc.Y

		A.Set(i*2, 0, x)
		A.Set(i*2, 1, y)
		A.Set(i*2, 2, 1)
		B.SetVec(i*2, xp)

		A.Set(i*2+1, 3, x)
		A.Set(i*2+1, 4, y)
		A.Set(i*2+1, 5, 1)
		B.SetVec(i*2+1, yp)
	}

	params, err := solveLeastSquares(A, B)
	if err != nil {
		return geometry.AffineTransform{}, err
	}

	t := geometry.AffineTransform{
		A: params.AtVec(0), B: params.AtVec(1),
		C: params.AtVec(3), D: params.AtVec(4),
	}
	return uncentre(t, params.AtVec(2), params.AtVec(5), sc, dc), nil
}

// fitSimilarity solves the 4-parameter similarity by QR least squares on
// centred coordinates. Two pairs determine it exactly.
func fitSimilarity(src, dst []geometry.Point2D) (geometry.AffineTransform, error) {
	n := len(src)
	sc, dc := geometry.Centroid(src), geometry.Centroid(dst)

	// x' = a*x - b*y + tx
	// y' = b*x + a*y + ty
	A := mat.NewDense(n*2, 4, nil)
	B := mat.NewVecDense(n*2, nil)
	for i := 0; i < n; i++ {
		x, y := src[i].X-sc.X, src[i].Y-sc.Y
		xp, yp := dst[i].X-dc.X, dst[i].Y-dc.Y

		A.Set(i*2, 0, x)
		A.Set(i*2, 1, -y)
		A.Set(i*2, 2, 1)
		B.SetVec(i*2, xp)

		A.Set(i*2+1, 0, y)
		A.Set(i*2+1, 1, x)
		A.Set(i*2+1, 3, 1)
		B.SetVec(i*2+1, yp)
	}

	params, err := solveLeastSquares(A, B)
	if err != nil {
		return geometry.AffineTransform{}, err
	}

	a, b := params.AtVec(0), params.AtVec(1)
	t := geometry.AffineTransform{A: a, B: -b, C: b, D: a}
	return uncentre(t, params.AtVec(2), params.AtVec(3), sc, dc), nil
}

// uncentre folds the centroids back into the translation.
func uncentre(t geometry.AffineTransform, tx, ty float64, sc, dc geometry.Point2D) geometry.AffineTransform {
	t.TX = dc.X + tx - (t.A*sc.X + t.B*sc.Y)
	t.TY = dc.Y + ty - (t.C*sc.X + t.D*sc.Y)
	return t
}

func solveLeastSquares(A *mat.Dense, B *mat.VecDense) (*mat.VecDense, error) {
	var qr mat.QR
	qr.Factorize(A)

	var params mat.VecDense
	if err := qr.SolveVecTo(&params, false, B); err != nil {
		return nil, fmt.Errorf("least squares solve failed: %w", err)
	}
	return &params, nil
}

func residuals(set CorrespondenceSet, t Transform) Diagnostics {
	n := set.Len()
	diag := Diagnostics{
		Model:     t.Model,
		Points:    n,
		Residuals: make([]Residual, n),
	}
	errs := make([]float64, n)
	for i := 0; i < n; i++ {
		cp := set.At(i)
		d := t.Apply(cp.Local).Sub(cp.Geo)
		errs[i] = math.Hypot(d.X, d.Y)
		diag.Residuals[i] = Residual{Index: i, ID: cp.ID, DX: d.X, DY: d.Y, Error: errs[i]}
	}
	diag.RMSE = floats.Norm(errs, 2) / math.Sqrt(float64(n))
	diag.MaxError = floats.Max(errs)
	return diag
}
