package circular

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// DefaultCurveSize is the number of points VonMisesCurve samples by default.
const DefaultCurveSize = 240

// besselI0e returns exp(-|x|)·I0(x), the exponentially scaled modified
// Bessel function of the first kind of order zero (Abramowitz & Stegun
// 9.8.1 and 9.8.2, relative error below 2e-7).
func besselI0e(x float64) float64 {
	ax := math.Abs(x)
	if ax < 3.75 {
		y := x / 3.75
		y *= y
		i0 := 1 + y*(3.5156229+y*(3.0899424+y*(1.2067492+y*(0.2659732+y*(0.0360768+y*0.0045813)))))
		return i0 * math.Exp(-ax)
	}

	y := 3.75 / ax
	s := 0.39894228 + y*(0.01328592+y*(0.00225319+y*(-0.00157565+y*(0.00916281+
		y*(-0.02057706+y*(0.02635537+y*(-0.01647633+y*0.00392377)))))))
	return s / math.Sqrt(ax)
}

// vonMisesLogNorm returns log(1 / (2π·I0(κ)·e^-κ)), the log normalizer of the
// scaled density exp(κ(cos(x-μ)-1)).
func vonMisesLogNorm(kappa float64) float64 {
	return -math.Log(TwoPi * besselI0e(kappa))
}

// VonMisesPDF evaluates the von Mises density with location mu and
// concentration kappa at x. The exponent is shifted by -κ so large
// concentrations do not overflow.
func VonMisesPDF(x, mu, kappa float64) float64 {
	return math.Exp(kappa*(math.Cos(x-mu)-1)) / (TwoPi * besselI0e(kappa))
}

// VonMisesCurve samples the parametric von Mises fit of a periodic mean and
// std: size points over [-π, π] with concentration 1/std, then shifted by
// mean. It returns the shifted abscissa and the density values.
func VonMisesCurve(mean, std float64, size int) (x, p []float64, err error) {
	if size < 2 {
		return nil, nil, fmt.Errorf("%w: curve size %d", ErrInvalidInput, size)
	}
	if !(std > 0) || math.IsInf(std, 0) {
		return nil, nil, fmt.Errorf("%w: std %g", ErrNumericDomain, std)
	}

	kappa := 1 / std
	x = floats.Span(make([]float64, size), -math.Pi, math.Pi)
	p = make([]float64, size)
	for i, xi := range x {
		p[i] = VonMisesPDF(xi, 0, kappa)
	}
	floats.AddConst(mean, x)

	return x, p, nil
}
