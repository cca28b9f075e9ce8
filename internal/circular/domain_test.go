package circular

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeToAngle(t *testing.T) {
	tests := []struct {
		name     string
		at       time.Time
		domain   Domain
		expected float64
	}{
		{"midnight on the hour dial", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Hour, math.Pi / 2},
		{"six in the morning", time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC), Hour, 0},
		{"noon", time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), Hour, 3 * math.Pi / 2},
		{"six in the evening", time.Date(2024, 1, 1, 18, 0, 0, 0, time.UTC), Hour, math.Pi},
		{"half past three", time.Date(2024, 1, 1, 3, 30, 0, 0, time.UTC), Hour, math.Pi/2 - 3.5*TwoPi/24},
		{"monday start", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), DayOfWeek, math.Pi / 2},
		{"monday noon", time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), DayOfWeek, 0.5*TwoPi/7 + math.Pi/2},
		{"sunday start", time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC), DayOfWeek, 3 * math.Pi / 14},
		{"first of month", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), DayOfMonth, TwoPi/31 + math.Pi/2},
		{"thirty-first folds onto the origin", time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), DayOfMonth, math.Pi / 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TimeToAngle(tt.at, tt.domain)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.Less(t, got, TwoPi)
		})
	}
}

func TestTimesToAnglesKeepsOrderAndRange(t *testing.T) {
	start := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	var times []time.Time
	for i := 0; i < 24*45; i++ {
		times = append(times, start.Add(time.Duration(i)*37*time.Minute))
	}

	for _, d := range AllDomains() {
		angles, err := TimesToAngles(times, d)
		require.NoError(t, err)
		require.Len(t, angles, len(times))
		for i, a := range angles {
			assert.GreaterOrEqual(t, a, 0.0)
			assert.Less(t, a, TwoPi)

			single, err := TimeToAngle(times[i], d)
			require.NoError(t, err)
			assert.Equal(t, single, a)
		}
	}
}

func TestValuesToAngles(t *testing.T) {
	angles, err := ValuesToAngles([]float64{0, 24, 48, -24}, Hour)
	require.NoError(t, err)
	for _, a := range angles {
		assert.InDelta(t, math.Pi/2, a, 1e-9)
	}

	_, err = ValuesToAngles([]float64{math.NaN()}, Hour)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ValuesToAngles([]float64{1}, Domain("minute"))
	assert.ErrorIs(t, err, ErrUnknownDomain)
}

func TestWrapAngle(t *testing.T) {
	assert.InDelta(t, TwoPi-0.5, WrapAngle(-0.5), 1e-12)
	assert.InDelta(t, 1.0, WrapAngle(3*TwoPi+1), 1e-9)
	assert.InDelta(t, 1.0, WrapAngle(-5*TwoPi+1), 1e-9)
	assert.Equal(t, 0.0, WrapAngle(TwoPi))

	tiny := WrapAngle(-1e-18)
	assert.GreaterOrEqual(t, tiny, 0.0)
	assert.Less(t, tiny, TwoPi)
}

func TestParseDomain(t *testing.T) {
	d, err := ParseDomain(" HOUR ")
	require.NoError(t, err)
	assert.Equal(t, Hour, d)

	d, err = ParseDomain("daymonth")
	require.NoError(t, err)
	assert.Equal(t, DayOfMonth, d)
	assert.Equal(t, 31.0, d.Period())

	_, err = ParseDomain("minute")
	assert.ErrorIs(t, err, ErrUnknownDomain)
}

func TestBucket(t *testing.T) {
	at := time.Date(2024, 1, 7, 22, 15, 0, 0, time.UTC) // Sunday

	b, err := Bucket(at, Hour)
	require.NoError(t, err)
	assert.Equal(t, 22, b)

	b, err = Bucket(at, DayOfWeek)
	require.NoError(t, err)
	assert.Equal(t, 6, b)

	b, err = Bucket(at, DayOfMonth)
	require.NoError(t, err)
	assert.Equal(t, 7, b)
}
