package domain

import (
	"math"
	"time"
)

// Season end reasons.
const (
	EndGradual   = "gradual"    // smoothed index recrossed the threshold downward
	EndSharpDrop = "sharp_drop" // abrupt decline from a recent peak (harvest)
	EndSeriesEnd = "series_end" // data ran out while the season was still open
)

// Season is one detected growing season. Immutable once emitted; Health is
// filled in by ClassifyHealth after detection.
type Season struct {
	StartDate    time.Time `json:"start_date"`
	PeakDate     time.Time `json:"peak_date"`
	PeakValue    float64   `json:"peak_value"`
	EndDate      time.Time `json:"end_date"`
	DurationDays int       `json:"duration_days"`
	Health       string    `json:"health,omitempty"`
	Closed       bool      `json:"closed"`
	EndReason    string    `json:"end_reason"`
}

// DetectorConfig holds every season-detection parameter. There are no hidden
// constants: anything that shapes detection is a named field here.
type DetectorConfig struct {
	// Threshold is the index level that bounds a season: a season starts
	// when the smoothed index crosses it upward and ends when it recrosses
	// downward.
	Threshold float64

	// SharpDrop is the minimum decline from a recent peak counted as an
	// abrupt harvest event, and SharpDropDays the maximum window in which
	// that decline must occur.
	SharpDrop     float64
	SharpDropDays int

	// MinDuration filters out noise: candidate seasons shorter than this
	// many days are discarded, not emitted.
	MinDuration int

	// CloseUnclosed controls whether a season still open at the end of the
	// series is emitted provisionally (Closed=false) or discarded.
	CloseUnclosed bool

	// SmoothWindow is the moving-average window applied before scanning.
	// 1 disables smoothing.
	SmoothWindow int
}

// DefaultDetectorConfig returns the operational defaults.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		Threshold:     0.25,
		SharpDrop:     0.2,
		SharpDropDays: 14,
		MinDuration:   30,
		CloseUnclosed: true,
		SmoothWindow:  5,
	}
}

// Validate reports a ConfigError for out-of-range parameters.
func (c DetectorConfig) Validate() error {
	if c.Threshold < 0 || c.Threshold > 1 {
		return configErr("threshold", "must be within [0, 1]")
	}
	if c.SharpDrop <= 0 {
		return configErr("sharp_drop", "must be positive")
	}
	if c.SharpDropDays <= 0 {
		return configErr("sharp_drop_days", "must be positive")
	}
	if c.MinDuration <= 0 {
		return configErr("min_duration", "must be positive")
	}
	if c.SmoothWindow < 1 {
		return configErr("smooth_window", "must be at least 1")
	}
	return nil
}

// detector states. The scan is an explicit two-state machine so every edge
// case (unclosed season, exact-threshold ties, simultaneous gradual and
// sharp-drop ends) stays independently testable.
type detectorState int

const (
	outsideSeason detectorState = iota
	inSeason
)

// openSeason carries the running state while the machine is IN_SEASON.
type openSeason struct {
	startDate time.Time // interpolated threshold crossing
	startIdx  int       // first sample at/above threshold
	peakIdx   int
	peakVal   float64
}

// DetectSeasons segments a vegetation-index series into growing seasons.
// dates must be sorted ascending and parallel to values.
//
// The series is smoothed first (cfg.SmoothWindow), then scanned
// chronologically:
//
//   - OUTSIDE_SEASON → IN_SEASON when the smoothed value crosses
//     cfg.Threshold with non-negative slope (prev < threshold ≤ current).
//     The start date is linearly interpolated between the bracketing
//     samples; peak tracking starts at the triggering sample.
//   - While IN_SEASON the running peak advances only on strictly greater
//     values, so the earliest maximum wins ties.
//   - The season ends at the first sample where either the value recrosses
//     the threshold downward (gradual) or the decline from the highest
//     smoothed value within the trailing cfg.SharpDropDays window reaches
//     cfg.SharpDrop (sharp drop). When both fire on the same sample the
//     gradual rule wins.
//   - Candidates shorter than cfg.MinDuration days are discarded and the
//     machine returns to OUTSIDE_SEASON either way.
//   - A season still open at the end of the series is emitted with
//     Closed=false when cfg.CloseUnclosed is set, subject to the same
//     duration filter.
//
// Series with fewer than two points, or entirely NaN after smoothing, yield
// zero seasons and no error. Only invalid configuration is an error.
func DetectSeasons(dates []time.Time, values []float64, cfg DetectorConfig) ([]Season, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(dates) < 2 || len(dates) != len(values) {
		return nil, nil
	}

	smoothed := Smooth(values, cfg.SmoothWindow)
	if allNaN(smoothed) {
		return nil, nil
	}

	var seasons []Season
	state := outsideSeason
	var open openSeason

	for i := 1; i < len(smoothed); i++ {
		v, prev := smoothed[i], smoothed[i-1]
		if math.IsNaN(v) || math.IsNaN(prev) {
			continue
		}

		switch state {
		case outsideSeason:
			if prev < cfg.Threshold && v >= cfg.Threshold {
				state = inSeason
				open = openSeason{
					startDate: crossingDate(dates[i-1], dates[i], prev, v, cfg.Threshold),
					startIdx:  i,
					peakIdx:   i,
					peakVal:   v,
				}
			}

		case inSeason:
			if v > open.peakVal {
				open.peakVal = v
				open.peakIdx = i
			}

			reason := ""
			switch {
			case v < cfg.Threshold && v <= prev:
				reason = EndGradual
			case sharpDropAt(dates, smoothed, open.startIdx, i, cfg):
				reason = EndSharpDrop
			}
			if reason == "" {
				continue
			}

			if s, ok := closeSeason(open, dates[i], dates[open.peakIdx], reason, true, cfg.MinDuration); ok {
				seasons = append(seasons, s)
			}
			state = outsideSeason
		}
	}

	if state == inSeason && cfg.CloseUnclosed {
		last := len(dates) - 1
		if s, ok := closeSeason(open, dates[last], dates[open.peakIdx], EndSeriesEnd, false, cfg.MinDuration); ok {
			seasons = append(seasons, s)
		}
	}

	return seasons, nil
}

// sharpDropAt reports whether the decline from the highest smoothed value in
// the trailing SharpDropDays window (bounded to the current season) down to
// sample i reaches the configured SharpDrop.
func sharpDropAt(dates []time.Time, smoothed []float64, startIdx, i int, cfg DetectorConfig) bool {
	windowStart := dates[i].AddDate(0, 0, -cfg.SharpDropDays)
	recentMax := math.Inf(-1)
	for j := i - 1; j >= startIdx; j-- {
		if dates[j].Before(windowStart) {
			break
		}
		if !math.IsNaN(smoothed[j]) && smoothed[j] > recentMax {
			recentMax = smoothed[j]
		}
	}
	if math.IsInf(recentMax, -1) {
		return false
	}
	return recentMax-smoothed[i] >= cfg.SharpDrop
}

// closeSeason builds the candidate Season and applies the duration filter.
func closeSeason(open openSeason, end, peak time.Time, reason string, closed bool, minDuration int) (Season, bool) {
	duration := int(end.Sub(open.startDate).Hours() / 24)
	if duration < minDuration {
		return Season{}, false
	}
	return Season{
		StartDate:    open.startDate,
		PeakDate:     peak,
		PeakValue:    open.peakVal,
		EndDate:      end,
		DurationDays: duration,
		Closed:       closed,
		EndReason:    reason,
	}, true
}

// crossingDate interpolates the instant the series crossed threshold between
// two samples, giving sub-sample start precision.
func crossingDate(d0, d1 time.Time, v0, v1, threshold float64) time.Time {
	if v1 == v0 {
		return d1
	}
	frac := (threshold - v0) / (v1 - v0)
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	return d0.Add(time.Duration(frac * float64(d1.Sub(d0))))
}

func allNaN(values []float64) bool {
	for _, v := range values {
		if !math.IsNaN(v) {
			return false
		}
	}
	return true
}
