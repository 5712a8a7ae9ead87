package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMean(t *testing.T) {
	assert.Equal(t, 3.0, Mean([]float64{1, 2, 3, 4, 5}))
	assert.Equal(t, 0.0, Mean(nil), "empty input should not panic")
}

func TestStdDev_SampleVariance(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	mean := Mean(values)

	got := StdDev(values, mean)
	assert.InDelta(t, math.Sqrt(2.5), got, 1e-12, "sample stddev uses n-1")

	assert.Equal(t, 0.0, StdDev([]float64{7}, 7), "single sample has no deviation")
	assert.Equal(t, 0.0, StdDev(nil, 0))
}

func TestOLS_PerfectLine(t *testing.T) {
	x := []float64{0, 1, 2, 3, 4}
	y := []float64{1, 3, 5, 7, 9} // y = 2x + 1

	reg := OLS(x, y)
	require.Equal(t, 5, reg.N)
	assert.InDelta(t, 2.0, reg.Slope, 1e-12)
	assert.InDelta(t, 1.0, reg.Intercept, 1e-12)
	assert.InDelta(t, 1.0, reg.RSquared, 1e-12)
	assert.Equal(t, 0.0, reg.PValue, "zero residual makes the slope infinitely significant")
}

func TestOLS_KnownPValue(t *testing.T) {
	// slope 1.2, t = 6*sqrt(3) with 3 degrees of freedom, p ~= 0.0019
	x := []float64{0, 1, 2, 3, 4}
	y := []float64{1, 2, 3, 4, 6}

	reg := OLS(x, y)
	assert.InDelta(t, 1.2, reg.Slope, 1e-12)
	assert.InDelta(t, 0.8, reg.Intercept, 1e-12)
	assert.InDelta(t, 0.0019018, reg.PValue, 1e-5)
}

func TestOLS_ZeroSlopeIsInsignificant(t *testing.T) {
	x := []float64{0, 1, 2, 3, 4}
	y := []float64{1, 2, 1, 2, 1}

	reg := OLS(x, y)
	assert.InDelta(t, 0.0, reg.Slope, 1e-12)
	assert.InDelta(t, 1.0, reg.PValue, 1e-12, "flat fit should have p = 1")
}

func TestOLS_ConstantSeries(t *testing.T) {
	x := []float64{0, 1, 2, 3}
	y := []float64{5, 5, 5, 5}

	reg := OLS(x, y)
	assert.InDelta(t, 0.0, reg.Slope, 1e-12)
	assert.True(t, math.IsNaN(reg.PValue), "constant series has undefined significance")
}

func TestOLS_DegenerateInputs(t *testing.T) {
	assert.True(t, math.IsNaN(OLS([]float64{1}, []float64{2}).Slope), "one point cannot be fit")
	assert.True(t, math.IsNaN(OLS([]float64{1, 2}, []float64{3}).Slope), "length mismatch")
	assert.True(t, math.IsNaN(OLS([]float64{2, 2, 2}, []float64{1, 2, 3}).Slope), "no x variance")
}

func TestPearson(t *testing.T) {
	assert.InDelta(t, 1.0, Pearson([]float64{1, 2, 3}, []float64{2, 4, 6}), 1e-12)
	assert.InDelta(t, -1.0, Pearson([]float64{1, 2, 3}, []float64{6, 4, 2}), 1e-12)
	assert.InDelta(t, 0.8, Pearson([]float64{1, 2, 3, 4}, []float64{1, 3, 2, 4}), 1e-12)
}

func TestPearson_Undefined(t *testing.T) {
	assert.True(t, math.IsNaN(Pearson([]float64{1, 1, 1}, []float64{1, 2, 3})), "zero variance")
	assert.True(t, math.IsNaN(Pearson([]float64{1}, []float64{2})), "single point")
	assert.True(t, math.IsNaN(Pearson([]float64{1, 2}, []float64{1, 2, 3})), "length mismatch")
}
