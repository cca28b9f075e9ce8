package circular

import (
	"math"

	"github.com/golang/geo/r1"
)

var (
	sqrtEps    = math.Sqrt(2.2e-16)
	goldenMean = 0.5 * (3 - math.Sqrt(5))
)

// minimizeResult is the outcome of a bounded scalar minimization.
type minimizeResult struct {
	X         float64
	F         float64
	Evals     int
	Converged bool
}

// minimizeBounded finds a local minimum of f inside bounds with Brent's
// method (golden section steps with parabolic interpolation), stopping when
// the bracket shrinks below xatol or after maxEvals evaluations of f.
func minimizeBounded(f func(float64) float64, bounds r1.Interval, xatol float64, maxEvals int) minimizeResult {
	a, b := bounds.Lo, bounds.Hi

	fulc := a + goldenMean*(b-a)
	nfc, xf := fulc, fulc
	var rat, e float64
	x := xf
	fx := f(x)
	evals := 1
	fu := math.Inf(1)

	ffulc, fnfc := fx, fx
	xm := 0.5 * (a + b)
	tol1 := sqrtEps*math.Abs(xf) + xatol/3
	tol2 := 2 * tol1

	converged := true
	for math.Abs(xf-xm) > tol2-0.5*(b-a) {
		golden := true

		// Try a parabolic fit first
		if math.Abs(e) > tol1 {
			golden = false
			r := (xf - nfc) * (fx - ffulc)
			q := (xf - fulc) * (fx - fnfc)
			p := (xf-fulc)*q - (xf-nfc)*r
			q = 2 * (q - r)
			if q > 0 {
				p = -p
			}
			q = math.Abs(q)
			r = e
			e = rat

			if math.Abs(p) < math.Abs(0.5*q*r) && p > q*(a-xf) && p < q*(b-xf) {
				rat = p / q
				x = xf + rat
				if x-a < tol2 || b-x < tol2 {
					rat = tol1 * signOrOne(xm-xf)
				}
			} else {
				golden = true
			}
		}

		if golden {
			if xf >= xm {
				e = a - xf
			} else {
				e = b - xf
			}
			rat = goldenMean * e
		}

		x = xf + signOrOne(rat)*math.Max(math.Abs(rat), tol1)
		fu = f(x)
		evals++

		if fu <= fx {
			if x >= xf {
				a = xf
			} else {
				b = xf
			}
			fulc, ffulc = nfc, fnfc
			nfc, fnfc = xf, fx
			xf, fx = x, fu
		} else {
			if x < xf {
				a = x
			} else {
				b = x
			}
			if fu <= fnfc || nfc == xf {
				fulc, ffulc = nfc, fnfc
				nfc, fnfc = x, fu
			} else if fu <= ffulc || fulc == xf || fulc == nfc {
				fulc, ffulc = x, fu
			}
		}

		xm = 0.5 * (a + b)
		tol1 = sqrtEps*math.Abs(xf) + xatol/3
		tol2 = 2 * tol1

		if evals >= maxEvals {
			converged = false
			break
		}
	}

	if math.IsNaN(xf) || math.IsNaN(fx) || math.IsNaN(fu) {
		converged = false
	}

	return minimizeResult{
		X:         bounds.ClampPoint(xf),
		F:         fx,
		Evals:     evals,
		Converged: converged,
	}
}

// signOrOne is sign(v) with zero mapped to +1.
func signOrOne(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
