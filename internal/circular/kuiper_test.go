package circular

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKuiperSelfConsistency(t *testing.T) {
	x := evenlySpaced()
	for _, bw := range []float64{0.1, 0.5, 2, 5} {
		curve, err := EstimateKernel(x, bw, DefaultKernelPoints, RawAverage)
		require.NoError(t, err)

		p, err := KuiperTest(x, curve)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, p, 0.5, "bandwidth %g", bw)
	}
}

func TestKuiperTestDetails(t *testing.T) {
	curve, err := EstimateKernel(bimodalAngles, 29.897, DefaultKernelPoints, RawAverage)
	require.NoError(t, err)

	res, err := KuiperTestDetails(bimodalAngles, curve)
	require.NoError(t, err)

	assert.Len(t, res.Grid, DefaultKernelPoints)
	assert.Len(t, res.EmpiricalCDF, DefaultKernelPoints)
	assert.Len(t, res.KernelCDF, DefaultKernelPoints)
	assert.InDelta(t, 1.0, res.EmpiricalCDF[DefaultKernelPoints-1], 1e-12)
	assert.InDelta(t, 1.0, res.KernelCDF[DefaultKernelPoints-1], 1e-12)

	assert.InDelta(t, 0.125, res.D1, 0.02)
	assert.InDelta(t, 0.113, res.D2, 0.02)
	assert.InDelta(t, res.D1+res.D2, res.Statistic, 1e-12)
	assert.InDelta(t, res.EmpiricalCDF[res.D1Index]-res.KernelCDF[res.D1Index], res.D1, 1e-12)
	assert.InDelta(t, res.KernelCDF[res.D2Index]-res.EmpiricalCDF[res.D2Index], res.D2, 1e-12)
	assert.InDelta(t, 8.0*256/264, res.EffectiveN, 1e-12)

	assert.Greater(t, res.PValue, 0.3)
	assert.LessOrEqual(t, res.PValue, 1.0)

	p, err := KuiperTest(bimodalAngles, curve)
	require.NoError(t, err)
	assert.Equal(t, res.PValue, p)
}

func TestKuiperStatisticBounds(t *testing.T) {
	// a sample far from the curve it is compared with
	curve, err := EstimateKernel([]float64{1, 1.05, 1.1}, 200, 128, RawAverage)
	require.NoError(t, err)

	res, err := KuiperTestDetails([]float64{4, 4.1, 4.2, 4.3, 4.4, 4.5}, curve)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.Statistic, -2.0)
	assert.LessOrEqual(t, res.Statistic, 2.0)
	assert.Greater(t, res.Statistic, 0.9)
	assert.GreaterOrEqual(t, res.PValue, 0.0)
	assert.Less(t, res.PValue, 0.3)
}

func TestKuiperProbability(t *testing.T) {
	assert.Equal(t, 1.0, KuiperProbability(0, 10))
	assert.Equal(t, 1.0, KuiperProbability(0.05, 10), "small lambda has no power")

	tiny := KuiperProbability(1.5, 100)
	assert.GreaterOrEqual(t, tiny, 0.0)
	assert.Less(t, tiny, 1e-10)

	mid := KuiperProbability(0.3, 50)
	assert.Greater(t, mid, 0.0)
	assert.Less(t, mid, 1.0)
	assert.Greater(t, KuiperProbability(0.25, 50), mid)
}

func TestKuiperErrors(t *testing.T) {
	curve := DensityCurve{Values: []float64{1, 2, 3}}

	_, err := KuiperTest(nil, curve)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = KuiperTest([]float64{1}, DensityCurve{Values: []float64{1}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = KuiperTest([]float64{1}, DensityCurve{Values: []float64{0, 0, 0}})
	assert.ErrorIs(t, err, ErrNumericDomain)

	_, err = KuiperTest([]float64{-1}, curve)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
