package circular

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// DefaultKernelPoints is the default resolution of a density curve.
const DefaultKernelPoints = 256

// Normalization records how a DensityCurve was scaled.
type Normalization int

const (
	// RawAverage is the plain average of the per-sample kernels.
	RawAverage Normalization = iota
	// PeakNormalized divides the curve by its maximum so the peak is 1.
	PeakNormalized
)

func (n Normalization) String() string {
	switch n {
	case RawAverage:
		return "raw"
	case PeakNormalized:
		return "peak"
	}
	return fmt.Sprintf("Normalization(%d)", int(n))
}

// DensityCurve is a circular density sampled on Grid(len(Values)).
// It is not modified after construction.
type DensityCurve struct {
	Values        []float64
	Normalization Normalization
}

// Grid returns n equally spaced angles over [0, 2π], both ends included.
func Grid(n int) []float64 {
	return floats.Span(make([]float64, n), 0, TwoPi)
}

// NearestIndex returns the index of the grid point closest to angle.
// Ties go to the first index.
func NearestIndex(grid []float64, angle float64) int {
	best, bestDist := 0, math.Inf(1)
	for i, z := range grid {
		if d := math.Abs(z - angle); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// EstimateKernel builds the von Mises kernel density estimate of angles with
// concentration bandwidth, sampled at n points. One canonical density is
// computed and rotated so its peak sits on the grid index nearest to each
// angle; the rotated copies are averaged.
//
// Grid spans the closed range [0, 2π], so the canonical density has equal
// values at both ends and every peak is a two-point flat top ending on the
// grid index nearest to its angle.
func EstimateKernel(angles []float64, bandwidth float64, n int, norm Normalization) (DensityCurve, error) {
	if len(angles) == 0 {
		return DensityCurve{}, fmt.Errorf("%w: kernel needs at least 1 angle", ErrInsufficientData)
	}
	if n < 2 {
		return DensityCurve{}, fmt.Errorf("%w: kernel points %d", ErrInvalidInput, n)
	}
	if !(bandwidth > 0) || math.IsInf(bandwidth, 0) {
		return DensityCurve{}, fmt.Errorf("%w: bandwidth %g", ErrInvalidInput, bandwidth)
	}
	if err := checkAngles(angles, true); err != nil {
		return DensityCurve{}, err
	}

	grid := Grid(n)
	p := make([]float64, n)
	for i, z := range grid {
		p[i] = VonMisesPDF(z, 0, bandwidth)
	}

	y := make([]float64, n)
	for _, a := range angles {
		idx := NearestIndex(grid, a)
		// p[0] lands on idx, the tail of p wraps around to the front
		for j := range y {
			y[j] += p[(j-idx+n)%n]
		}
	}
	floats.Scale(1/float64(len(angles)), y)

	curve := DensityCurve{Values: y, Normalization: RawAverage}
	if norm == PeakNormalized {
		curve = curve.PeakNormalized()
	}
	return curve, nil
}

// Len returns the number of grid points.
func (c DensityCurve) Len() int {
	return len(c.Values)
}

// Grid returns the angles the curve is sampled at.
func (c DensityCurve) Grid() []float64 {
	if len(c.Values) < 2 {
		return nil
	}
	return Grid(len(c.Values))
}

// Max returns the largest value of the curve, or 0 when empty.
func (c DensityCurve) Max() float64 {
	if len(c.Values) == 0 {
		return 0
	}
	return floats.Max(c.Values)
}

// PeakNormalized returns a copy scaled so that its maximum is 1.
func (c DensityCurve) PeakNormalized() DensityCurve {
	out := make([]float64, len(c.Values))
	copy(out, c.Values)
	if m := c.Max(); m > 0 {
		floats.Scale(1/m, out)
	}
	return DensityCurve{Values: out, Normalization: PeakNormalized}
}

// RiskScores converts the curve into integer risk percentiles,
// round((1 - y/max(y))·100): 0 at the peak, 100 where the density vanishes.
func (c DensityCurve) RiskScores() ([]int, error) {
	m := c.Max()
	if !(m > 0) {
		return nil, fmt.Errorf("%w: density curve has no positive value", ErrNumericDomain)
	}

	scores := make([]int, len(c.Values))
	for i, v := range c.Values {
		scores[i] = int(math.RoundToEven((1 - v/m) * 100))
	}
	return scores, nil
}

// IndexOf returns the grid index nearest to angle.
func (c DensityCurve) IndexOf(angle float64) int {
	return NearestIndex(c.Grid(), angle)
}

// Modes returns the grid angles of the local maxima of the curve, treating
// the first and last points as neighbours, highest first. A flat pair is
// reported at its later index.
func (c DensityCurve) Modes() []float64 {
	n := len(c.Values)
	if n < 3 {
		return nil
	}

	grid := Grid(n)
	var idx []int
	for i, v := range c.Values {
		prev := c.Values[(i-1+n)%n]
		next := c.Values[(i+1)%n]
		if v >= prev && v > next {
			idx = append(idx, i)
		}
	}

	sort.SliceStable(idx, func(i, j int) bool {
		return c.Values[idx[i]] > c.Values[idx[j]]
	})

	modes := make([]float64, len(idx))
	for i, k := range idx {
		modes[i] = grid[k]
	}
	return modes
}
