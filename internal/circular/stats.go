package circular

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/golang/geo/s1"
)

// resultantTolerance is the resultant length below which the sample has no
// usable mean direction.
const resultantTolerance = 1e-12

// MeanResultantLength calculates the mean resultant length R of angles.
// weights may be nil for equal weights; missing trailing weights count as 1.
// R ranges from 0 (no preferred direction) to 1 (all angles identical).
func MeanResultantLength(angles []float64, weights []float64) float64 {
	sumSin, sumCos, sumWeights := resultant(angles, weights)
	if sumWeights == 0 {
		return 0
	}
	return math.Hypot(sumSin, sumCos) / sumWeights
}

// CircularMean calculates the mean direction of angles, wrapped into [0, 2π).
func CircularMean(angles []float64, weights []float64) float64 {
	if len(angles) == 0 {
		return 0
	}
	sumSin, sumCos, _ := resultant(angles, weights)
	return WrapAngle(math.Atan2(sumSin, sumCos))
}

func resultant(angles []float64, weights []float64) (sumSin, sumCos, sumWeights float64) {
	for i, a := range angles {
		w := 1.0
		if i < len(weights) {
			w = weights[i]
		}
		sumSin += w * math.Sin(a)
		sumCos += w * math.Cos(a)
		sumWeights += w
	}
	return sumSin, sumCos, sumWeights
}

// PeriodicMeanStd returns the circular mean, in [0, 2π), and the circular
// standard deviation sqrt(-2 ln R) of angles. Samples spread so evenly that
// R vanishes have neither and fail with ErrNumericDomain.
func PeriodicMeanStd(angles []float64) (mean, std float64, err error) {
	if len(angles) == 0 {
		return 0, 0, fmt.Errorf("%w: periodic mean of an empty sample", ErrInsufficientData)
	}
	if err := checkAngles(angles, false); err != nil {
		return 0, 0, err
	}

	r := MeanResultantLength(angles, nil)
	if r <= resultantTolerance {
		return 0, 0, fmt.Errorf("%w: resultant length %g, no mean direction", ErrNumericDomain, r)
	}

	// rounding can leave R a hair above 1 for identical angles
	r = math.Min(r, 1)
	return CircularMean(angles, nil), math.Sqrt(-2 * math.Log(r)), nil
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return s1.Angle(rad).Degrees()
}

// Frequency is the share of events falling in one integer bucket of a domain.
type Frequency struct {
	Value int     `json:"value"`
	Count int     `json:"count"`
	Share float64 `json:"share"`
}

// Frequencies tabulates times per integer bucket of d, most frequent first.
// Buckets with the same share are ordered by value.
func Frequencies(times []time.Time, d Domain) ([]Frequency, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDomain, string(d))
	}
	if len(times) == 0 {
		return nil, nil
	}

	counts := make(map[int]int)
	for _, t := range times {
		b, err := Bucket(t, d)
		if err != nil {
			return nil, err
		}
		counts[b]++
	}

	table := make([]Frequency, 0, len(counts))
	for v, c := range counts {
		table = append(table, Frequency{
			Value: v,
			Count: c,
			Share: float64(c) / float64(len(times)),
		})
	}
	sort.Slice(table, func(i, j int) bool {
		if table[i].Count != table[j].Count {
			return table[i].Count > table[j].Count
		}
		return table[i].Value < table[j].Value
	})
	return table, nil
}
