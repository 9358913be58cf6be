package domain

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"
)

// BaselineProvider supplies the historical reference grid for a field and
// period. Implementations may compute, fetch, or cache; a nil grid with a
// nil error means no history is available.
type BaselineProvider interface {
	BaselineFor(ctx context.Context, fieldID, period string, rows, cols int) (*mat.Dense, error)
}

// Baseline computes the per-pixel mean of the history grids, ignoring NaN
// samples. Pixels with no valid sample across the whole history come back
// NaN. All grids must be rows x cols; a mismatched grid is ErrShapeMismatch.
// Empty history yields (nil, nil).
func Baseline(history []*mat.Dense, rows, cols int) (*mat.Dense, error) {
	if rows <= 0 {
		return nil, configErr("grid_rows", "must be positive")
	}
	if cols <= 0 {
		return nil, configErr("grid_cols", "must be positive")
	}
	if len(history) == 0 {
		return nil, nil
	}
	for _, g := range history {
		if r, c := g.Dims(); r != rows || c != cols {
			return nil, ErrShapeMismatch
		}
	}

	out := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			sum, n := 0.0, 0
			for _, g := range history {
				if v := g.At(r, c); !math.IsNaN(v) {
					sum += v
					n++
				}
			}
			if n == 0 {
				out.Set(r, c, math.NaN())
			} else {
				out.Set(r, c, sum/float64(n))
			}
		}
	}
	return out, nil
}

// Anomaly returns current minus baseline per pixel. A nil baseline means no
// history, yielding (nil, nil). Dimension mismatch is ErrShapeMismatch.
func Anomaly(current, baseline *mat.Dense) (*mat.Dense, error) {
	if baseline == nil {
		return nil, nil
	}
	cr, cc := current.Dims()
	br, bc := baseline.Dims()
	if cr != br || cc != bc {
		return nil, ErrShapeMismatch
	}

	out := mat.NewDense(cr, cc, nil)
	out.Sub(current, baseline)
	return out, nil
}

// GridMean is the mean over non-NaN pixels, or NaN when every pixel is NaN.
func GridMean(g *mat.Dense) float64 {
	rows, cols := g.Dims()
	sum, n := 0.0, 0
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if v := g.At(r, c); !math.IsNaN(v) {
				sum += v
				n++
			}
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// FloodThresholds tune radar-backscatter water detection, in decibels.
type FloodThresholds struct {
	// VVLikely: open water is smooth, so VV backscatter below this marks a
	// pixel as likely flooded.
	VVLikely float64

	// Flooded vegetation shows double-bounce: elevated VH relative to VV
	// while VV stays moderately low.
	VVVegetation float64
	VHVVRatio    float64
}

// DefaultFloodThresholds returns the calibrated Sentinel-1 defaults.
func DefaultFloodThresholds() FloodThresholds {
	return FloodThresholds{VVLikely: -15, VVVegetation: -12, VHVVRatio: -3}
}

// FloodMask classifies each pixel of a VV/VH radar backscatter pair as
// water. Inputs are linear power; they are converted to dB internally with
// values clipped at 1e-5 to keep the logarithm finite. The mask is the union
// of the open-water and flooded-vegetation tests: 1 flooded, 0 dry.
// Dimension mismatch is ErrShapeMismatch.
func FloodMask(vv, vh *mat.Dense, th FloodThresholds) (*mat.Dense, error) {
	rows, cols := vv.Dims()
	if hr, hc := vh.Dims(); hr != rows || hc != cols {
		return nil, ErrShapeMismatch
	}

	out := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			vvDB := toDB(vv.At(r, c))
			vhDB := toDB(vh.At(r, c))

			openWater := vvDB < th.VVLikely
			vegetation := vhDB-vvDB > th.VHVVRatio && vvDB < th.VVVegetation
			if openWater || vegetation {
				out.Set(r, c, 1)
			}
		}
	}
	return out, nil
}

// FloodCoverage is the flooded fraction of a mask, in [0, 1].
func FloodCoverage(mask *mat.Dense) float64 {
	rows, cols := mask.Dims()
	total := rows * cols
	if total == 0 {
		return 0
	}
	flooded := 0
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if mask.At(r, c) > 0 {
				flooded++
			}
		}
	}
	return float64(flooded) / float64(total)
}

func toDB(linear float64) float64 {
	if linear < 1e-5 || math.IsNaN(linear) {
		linear = 1e-5
	}
	return 10 * math.Log10(linear)
}
