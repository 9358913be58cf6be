package domain

import "math"

// Smooth applies a symmetric moving-average filter of the given window to a
// series, returning a new slice of the same length. Deterministic and pure.
//
// NaN handling: interior NaNs are linearly interpolated from the nearest
// valid neighbors before smoothing; leading and trailing NaNs are filled by
// replicating the nearest valid value. A series with no valid values is
// returned unchanged.
//
// At the boundaries the window is truncated and renormalized over the
// samples actually present rather than padded with invented values, so a
// constant input comes back as the same constant.
func Smooth(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	if len(out) == 0 {
		return out
	}

	fillNaNs(out)
	if window <= 1 || len(out) < 2 {
		return out
	}

	// Symmetric window: half samples behind, the remainder ahead. For even
	// windows the extra sample lands on the trailing side.
	smoothed := make([]float64, len(out))
	behind := window / 2
	ahead := window - 1 - behind
	for i := range out {
		lo := i - behind
		if lo < 0 {
			lo = 0
		}
		hi := i + ahead
		if hi > len(out)-1 {
			hi = len(out) - 1
		}
		var sum float64
		var n int
		for j := lo; j <= hi; j++ {
			if math.IsNaN(out[j]) {
				continue
			}
			sum += out[j]
			n++
		}
		if n == 0 {
			smoothed[i] = math.NaN()
			continue
		}
		smoothed[i] = sum / float64(n)
	}
	return smoothed
}

// fillNaNs interpolates interior NaNs linearly by sample index and replicates
// the nearest valid value across leading/trailing gaps, in place. All-NaN
// input is left untouched.
func fillNaNs(values []float64) {
	firstValid, lastValid := -1, -1
	for i, v := range values {
		if !math.IsNaN(v) {
			if firstValid < 0 {
				firstValid = i
			}
			lastValid = i
		}
	}
	if firstValid < 0 {
		return
	}

	for i := 0; i < firstValid; i++ {
		values[i] = values[firstValid]
	}
	for i := lastValid + 1; i < len(values); i++ {
		values[i] = values[lastValid]
	}

	prev := firstValid
	for i := firstValid + 1; i <= lastValid; i++ {
		if math.IsNaN(values[i]) {
			continue
		}
		if i > prev+1 {
			step := (values[i] - values[prev]) / float64(i-prev)
			for j := prev + 1; j < i; j++ {
				values[j] = values[prev] + step*float64(j-prev)
			}
		}
		prev = i
	}
}
