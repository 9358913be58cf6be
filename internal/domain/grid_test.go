package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestBaseline(t *testing.T) {
	t.Run("per-pixel mean ignoring NaN", func(t *testing.T) {
		history := []*mat.Dense{
			mat.NewDense(2, 2, []float64{1, 2, 3, 4}),
			mat.NewDense(2, 2, []float64{3, math.NaN(), 5, 6}),
		}

		base, err := Baseline(history, 2, 2)
		require.NoError(t, err)
		require.NotNil(t, base)

		assert.Equal(t, 2.0, base.At(0, 0))
		assert.Equal(t, 2.0, base.At(0, 1)) // NaN sample skipped
		assert.Equal(t, 4.0, base.At(1, 0))
		assert.Equal(t, 5.0, base.At(1, 1))
	})

	t.Run("pixel with no valid sample stays NaN", func(t *testing.T) {
		history := []*mat.Dense{
			mat.NewDense(1, 2, []float64{math.NaN(), 1}),
			mat.NewDense(1, 2, []float64{math.NaN(), 3}),
		}

		base, err := Baseline(history, 1, 2)
		require.NoError(t, err)
		assert.True(t, math.IsNaN(base.At(0, 0)))
		assert.Equal(t, 2.0, base.At(0, 1))
	})

	t.Run("empty history yields no baseline", func(t *testing.T) {
		base, err := Baseline(nil, 4, 4)
		require.NoError(t, err)
		assert.Nil(t, base)
	})

	t.Run("mismatched history grid", func(t *testing.T) {
		history := []*mat.Dense{mat.NewDense(3, 3, nil)}
		_, err := Baseline(history, 2, 2)
		assert.ErrorIs(t, err, ErrShapeMismatch)
	})

	t.Run("invalid shape parameters", func(t *testing.T) {
		_, err := Baseline(nil, 0, 4)
		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "grid_rows", cfgErr.Param)
	})
}

func TestAnomaly(t *testing.T) {
	t.Run("grid against itself is zero everywhere", func(t *testing.T) {
		g := mat.NewDense(3, 3, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9})

		anomaly, err := Anomaly(g, g)
		require.NoError(t, err)

		rows, cols := anomaly.Dims()
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				assert.Equal(t, 0.0, anomaly.At(r, c))
			}
		}
	})

	t.Run("shape mismatch yields no anomaly", func(t *testing.T) {
		current := mat.NewDense(10, 10, nil)
		base := mat.NewDense(12, 12, nil)

		anomaly, err := Anomaly(current, base)
		assert.ErrorIs(t, err, ErrShapeMismatch)
		assert.Nil(t, anomaly)
	})

	t.Run("nil baseline yields no anomaly and no error", func(t *testing.T) {
		anomaly, err := Anomaly(mat.NewDense(2, 2, nil), nil)
		require.NoError(t, err)
		assert.Nil(t, anomaly)
	})
}

func TestGridMean(t *testing.T) {
	t.Run("ignores NaN pixels", func(t *testing.T) {
		g := mat.NewDense(2, 2, []float64{1, math.NaN(), 3, 5})
		assert.Equal(t, 3.0, GridMean(g))
	})

	t.Run("all NaN", func(t *testing.T) {
		g := mat.NewDense(1, 2, []float64{math.NaN(), math.NaN()})
		assert.True(t, math.IsNaN(GridMean(g)))
	})
}

func TestFloodMask(t *testing.T) {
	th := DefaultFloodThresholds()

	t.Run("classifies open water and flooded vegetation", func(t *testing.T) {
		// Linear power values: 0.01 is -20 dB (open water), 0.2 is -7 dB (dry).
		vv := mat.NewDense(1, 3, []float64{0.01, 0.2, 0.04})
		// Third pixel: VV -14 dB, VH -12 dB, ratio +2 dB > -3 with VV < -12
		// marks flooded vegetation.
		vh := mat.NewDense(1, 3, []float64{0.001, 0.02, 0.063})

		mask, err := FloodMask(vv, vh, th)
		require.NoError(t, err)

		assert.Equal(t, 1.0, mask.At(0, 0))
		assert.Equal(t, 0.0, mask.At(0, 1))
		assert.Equal(t, 1.0, mask.At(0, 2))
	})

	t.Run("shape mismatch", func(t *testing.T) {
		_, err := FloodMask(mat.NewDense(2, 2, nil), mat.NewDense(3, 3, nil), th)
		assert.ErrorIs(t, err, ErrShapeMismatch)
	})
}

func TestFloodCoverage(t *testing.T) {
	mask := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	assert.Equal(t, 0.5, FloodCoverage(mask))
}
