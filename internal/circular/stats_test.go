package circular

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodicMeanStd(t *testing.T) {
	t.Run("uniform spread has no mean", func(t *testing.T) {
		_, _, err := PeriodicMeanStd([]float64{0, math.Pi / 2, math.Pi, 3 * math.Pi / 2})
		assert.ErrorIs(t, err, ErrNumericDomain)
	})

	t.Run("identical angles", func(t *testing.T) {
		mean, std, err := PeriodicMeanStd([]float64{1, 1, 1})
		require.NoError(t, err)
		assert.InDelta(t, 1.0, mean, 1e-12)
		assert.InDelta(t, 0.0, std, 1e-6)
	})

	t.Run("mean across zero is wrapped", func(t *testing.T) {
		mean, std, err := PeriodicMeanStd([]float64{6.0, 6.2})
		require.NoError(t, err)
		assert.InDelta(t, 6.1, mean, 1e-9)
		assert.InDelta(t, math.Sqrt(-2*math.Log(math.Cos(0.1))), std, 1e-9)
	})

	t.Run("empty", func(t *testing.T) {
		_, _, err := PeriodicMeanStd(nil)
		assert.ErrorIs(t, err, ErrInsufficientData)
	})
}

func TestMeanResultantLength(t *testing.T) {
	assert.Equal(t, 0.0, MeanResultantLength(nil, nil))
	assert.InDelta(t, 1.0, MeanResultantLength([]float64{2, 2}, nil), 1e-12)
	assert.InDelta(t, 0.0, MeanResultantLength([]float64{0, math.Pi}, nil), 1e-12)

	// weighting one side shifts the balance
	assert.InDelta(t, 0.5, MeanResultantLength([]float64{0, math.Pi}, []float64{3, 1}), 1e-12)
	assert.InDelta(t, 0.0, CircularMean([]float64{0, math.Pi}, []float64{3, 1}), 1e-12)
}

func TestDegrees(t *testing.T) {
	assert.InDelta(t, 180.0, Degrees(math.Pi), 1e-12)
	assert.InDelta(t, 90.0, Degrees(math.Pi/2), 1e-12)
}

func TestFrequencies(t *testing.T) {
	day := time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)
	times := []time.Time{
		day.Add(1 * time.Hour),
		day.Add(2 * time.Hour),
		day.Add(1*time.Hour + 30*time.Minute),
		day.Add(23 * time.Hour),
	}

	table, err := Frequencies(times, Hour)
	require.NoError(t, err)
	require.Len(t, table, 3)
	assert.Equal(t, Frequency{Value: 1, Count: 2, Share: 0.5}, table[0])
	assert.Equal(t, 2, table[1].Value)
	assert.Equal(t, 23, table[2].Value)
	assert.InDelta(t, 0.25, table[2].Share, 1e-12)

	table, err = Frequencies(times, DayOfWeek)
	require.NoError(t, err)
	assert.Equal(t, []Frequency{{Value: 0, Count: 4, Share: 1}}, table)

	empty, err := Frequencies(nil, Hour)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = Frequencies(times, Domain("year"))
	assert.ErrorIs(t, err, ErrUnknownDomain)
}
