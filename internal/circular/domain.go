package circular

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// TwoPi is one full turn in radians.
const TwoPi = 2 * math.Pi

// phaseOffset rotates every domain so that its origin sits at the top of the circle.
const phaseOffset = math.Pi / 2

// Domain identifies one of the fixed cyclic domains an event time is mapped onto.
type Domain string

const (
	Hour       Domain = "hour"     // 24-hour clock
	DayOfWeek  Domain = "dayweek"  // 7-day week, Monday = 0
	DayOfMonth Domain = "daymonth" // 31-day month
)

// AllDomains returns the supported domains in scoring order.
func AllDomains() []Domain {
	return []Domain{Hour, DayOfWeek, DayOfMonth}
}

// ParseDomain resolves a domain selector string.
func ParseDomain(s string) (Domain, error) {
	d := Domain(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownDomain, s)
	}
	return d, nil
}

// Valid reports whether d is one of the supported domains.
func (d Domain) Valid() bool {
	switch d {
	case Hour, DayOfWeek, DayOfMonth:
		return true
	}
	return false
}

// Period returns the length of one cycle in the domain's own unit.
func (d Domain) Period() float64 {
	switch d {
	case Hour:
		return 24
	case DayOfWeek:
		return 7
	case DayOfMonth:
		return 31
	}
	return 0
}

// Scale returns radians per domain unit.
func (d Domain) Scale() float64 {
	if p := d.Period(); p > 0 {
		return TwoPi / p
	}
	return 0
}

// Offset returns the phase offset added after scaling.
func (d Domain) Offset() float64 {
	return phaseOffset
}

// Clockwise reports whether the domain runs clockwise (the hour dial does).
func (d Domain) Clockwise() bool {
	return d == Hour
}

func (d Domain) direction() float64 {
	if d.Clockwise() {
		return -1
	}
	return 1
}

// FractionalValue extracts the position of t inside domain d, in the
// domain's unit: fractional hour, fractional weekday (Monday = 0) or
// fractional day of month. Fields are read in t's own location.
//
// Day 31 lands on the same angle as the start of the month cycle; shorter
// months never reach it. This is left as is.
func FractionalValue(t time.Time, d Domain) (float64, error) {
	h := float64(t.Hour()) + float64(t.Minute())/60 + float64(t.Second())/3600

	switch d {
	case Hour:
		return h, nil
	case DayOfWeek:
		return float64(mondayFirst(t.Weekday())) + h/24, nil
	case DayOfMonth:
		return float64(t.Day()) + h/24, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDomain, string(d))
}

// Bucket returns the integer bucket of t in domain d (hour, weekday with
// Monday = 0, or day of month).
func Bucket(t time.Time, d Domain) (int, error) {
	switch d {
	case Hour:
		return t.Hour(), nil
	case DayOfWeek:
		return mondayFirst(t.Weekday()), nil
	case DayOfMonth:
		return t.Day(), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDomain, string(d))
}

func mondayFirst(w time.Weekday) int {
	return (int(w) + 6) % 7
}

// ValuesToAngles maps pre-extracted domain values (see FractionalValue) to
// angles in [0, 2π). The output keeps the input length and order.
func ValuesToAngles(values []float64, d Domain) ([]float64, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDomain, string(d))
	}

	angles := make([]float64, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: value %d is not finite", ErrInvalidInput, i)
		}
		angles[i] = d.direction()*v*d.Scale() + d.Offset()
	}
	return WrapAngles(angles), nil
}

// ValueToAngle is the single-value form of ValuesToAngles.
func ValueToAngle(v float64, d Domain) (float64, error) {
	angles, err := ValuesToAngles([]float64{v}, d)
	if err != nil {
		return 0, err
	}
	return angles[0], nil
}

// TimesToAngles maps timestamps to angles in [0, 2π) on domain d.
func TimesToAngles(times []time.Time, d Domain) ([]float64, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDomain, string(d))
	}

	values := make([]float64, len(times))
	for i, t := range times {
		v, err := FractionalValue(t, d)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return ValuesToAngles(values, d)
}

// TimeToAngle is the single-timestamp form of TimesToAngles.
func TimeToAngle(t time.Time, d Domain) (float64, error) {
	angles, err := TimesToAngles([]time.Time{t}, d)
	if err != nil {
		return 0, err
	}
	return angles[0], nil
}

// WrapAngles folds every angle into [0, 2π) in place and returns the slice.
// True modulo is used, so inputs several turns away are handled too.
func WrapAngles(angles []float64) []float64 {
	for i, a := range angles {
		w := math.Mod(a, TwoPi)
		if w < 0 {
			w += TwoPi
		}
		// -tiny + 2π rounds to 2π
		if w >= TwoPi {
			w = 0
		}
		angles[i] = w
	}
	return angles
}

// WrapAngle is the single-angle form of WrapAngles.
func WrapAngle(a float64) float64 {
	return WrapAngles([]float64{a})[0]
}

// checkAngles rejects non-finite values and, when strict, anything outside [0, 2π).
func checkAngles(angles []float64, strict bool) error {
	for i, a := range angles {
		if math.IsNaN(a) || math.IsInf(a, 0) {
			return fmt.Errorf("%w: angle %d is not finite", ErrInvalidInput, i)
		}
		if strict && (a < 0 || a >= TwoPi) {
			return fmt.Errorf("%w: angle %d (%g) outside [0, 2π)", ErrInvalidInput, i, a)
		}
	}
	return nil
}
