package circular

import (
	"fmt"
	"math"

	"github.com/golang/geo/r1"
	"gonum.org/v1/gonum/floats"
)

// BandwidthOptions bounds the leave-one-out bandwidth search.
type BandwidthOptions struct {
	Lower         float64 `yaml:"lower" json:"lower"`
	Upper         float64 `yaml:"upper" json:"upper"`
	Tolerance     float64 `yaml:"tolerance" json:"tolerance"`
	MaxIterations int     `yaml:"max_iterations" json:"max_iterations"`
}

// DefaultBandwidthOptions returns the search box [0.1, 500] with an absolute
// tolerance of 1e-5 and at most 500 cost evaluations.
func DefaultBandwidthOptions() BandwidthOptions {
	return BandwidthOptions{
		Lower:         0.1,
		Upper:         500,
		Tolerance:     1e-5,
		MaxIterations: 500,
	}
}

// Bounds returns the search interval.
func (o BandwidthOptions) Bounds() r1.Interval {
	return r1.Interval{Lo: o.Lower, Hi: o.Upper}
}

// Validate checks that the options describe a usable search.
func (o BandwidthOptions) Validate() error {
	if !(o.Lower > 0) || math.IsInf(o.Upper, 0) || !(o.Upper > o.Lower) {
		return fmt.Errorf("%w: bandwidth bounds [%g, %g]", ErrInvalidInput, o.Lower, o.Upper)
	}
	if !(o.Tolerance > 0) {
		return fmt.Errorf("%w: bandwidth tolerance %g", ErrInvalidInput, o.Tolerance)
	}
	if o.MaxIterations < 1 {
		return fmt.Errorf("%w: bandwidth max iterations %d", ErrInvalidInput, o.MaxIterations)
	}
	return nil
}

// BandwidthResult is the selected bandwidth together with the optimizer state.
// Converged is false when the evaluation budget ran out first; Bandwidth is
// then the best value seen.
type BandwidthResult struct {
	Bandwidth  float64 `json:"bandwidth"`
	Cost       float64 `json:"cost"`
	Iterations int     `json:"iterations"`
	Converged  bool    `json:"converged"`
}

// LeaveOneOutCost is the inverted leave-one-out log-likelihood of angles under
// a von Mises kernel with concentration kappa. For every held-out angle the
// density of the remaining angles is summed and divided by len(angles); the
// logs are averaged and the mean is inverted so that a minimizer can use it.
func LeaveOneOutCost(angles []float64, kappa float64) (float64, error) {
	n := len(angles)
	if n < 2 {
		return 0, fmt.Errorf("%w: leave-one-out cost needs at least 2 angles, got %d", ErrInsufficientData, n)
	}

	logNorm := vonMisesLogNorm(kappa)
	logN := math.Log(float64(n))
	exps := make([]float64, n-1)

	var total float64
	for i, xi := range angles {
		k := 0
		for j, xj := range angles {
			if j == i {
				continue
			}
			exps[k] = kappa * (math.Cos(xj-xi) - 1)
			k++
		}
		total += floats.LogSumExp(exps) + logNorm - logN
	}

	mean := total / float64(n)
	if mean == 0 || math.IsNaN(mean) || math.IsInf(mean, 0) {
		return 0, fmt.Errorf("%w: leave-one-out log-likelihood %g at bandwidth %g", ErrNumericDomain, mean, kappa)
	}
	return 1 / mean, nil
}

// SelectBandwidth picks the kernel concentration for angles by minimizing
// LeaveOneOutCost inside opts.Bounds(). Only a local minimum is guaranteed.
func SelectBandwidth(angles []float64, opts BandwidthOptions) (BandwidthResult, error) {
	if len(angles) < 2 {
		return BandwidthResult{}, fmt.Errorf("%w: bandwidth selection needs at least 2 angles, got %d", ErrInsufficientData, len(angles))
	}
	if err := opts.Validate(); err != nil {
		return BandwidthResult{}, err
	}
	if err := checkAngles(angles, false); err != nil {
		return BandwidthResult{}, err
	}

	// Degenerate evaluations push the search away instead of aborting it
	var lastErr error
	cost := func(kappa float64) float64 {
		c, err := LeaveOneOutCost(angles, kappa)
		if err != nil {
			lastErr = err
			return math.Inf(1)
		}
		return c
	}

	res := minimizeBounded(cost, opts.Bounds(), opts.Tolerance, opts.MaxIterations)
	if math.IsInf(res.F, 1) || math.IsNaN(res.F) {
		if lastErr == nil {
			lastErr = fmt.Errorf("%w: no finite cost in [%g, %g]", ErrNumericDomain, opts.Lower, opts.Upper)
		}
		return BandwidthResult{}, fmt.Errorf("failed to select bandwidth: %w", lastErr)
	}

	return BandwidthResult{
		Bandwidth:  res.X,
		Cost:       res.F,
		Iterations: res.Evals,
		Converged:  res.Converged,
	}, nil
}
