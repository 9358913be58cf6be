package domain

import (
	"math"
	"sort"
	"time"
)

// Observation is one field-mean measurement of a single metric on a single
// date. CloudFraction is the fraction of the field obscured at acquisition
// time and doubles as the quality flag (lower is cleaner); sensors without a
// cloud concept report 0.
type Observation struct {
	Date          time.Time
	Value         float64
	CloudFraction float64
}

// MergeObservations merges per-sensor observation streams for the same
// logical metric into one series sorted ascending by date.
//
// Observations whose CloudFraction exceeds maxCloudFraction are dropped.
// When two sensors report the same UTC calendar day, the observation with
// the lower CloudFraction wins; on ties the first-seen observation is kept.
// Cadence is never resampled; the merged series keeps whatever irregular
// spacing the sensors produced.
func MergeObservations(streams [][]Observation, maxCloudFraction float64) []Observation {
	type slot struct {
		obs   Observation
		order int
	}
	best := make(map[time.Time]slot)
	order := 0

	for _, stream := range streams {
		for _, obs := range stream {
			order++
			if obs.CloudFraction > maxCloudFraction {
				continue
			}
			day := obs.Date.UTC().Truncate(24 * time.Hour)
			existing, ok := best[day]
			if !ok || obs.CloudFraction < existing.obs.CloudFraction {
				best[day] = slot{obs: obs, order: order}
			}
		}
	}

	merged := make([]Observation, 0, len(best))
	for _, s := range best {
		merged = append(merged, s.obs)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Date.Before(merged[j].Date)
	})
	return merged
}

// SeriesColumns splits a series into parallel date and value slices, the
// form the smoothing and season-detection functions operate on.
func SeriesColumns(obs []Observation) ([]time.Time, []float64) {
	dates := make([]time.Time, len(obs))
	values := make([]float64, len(obs))
	for i, o := range obs {
		dates[i] = o.Date
		values[i] = o.Value
	}
	return dates, values
}

// SeriesStats summarizes a merged series for reporting.
type SeriesStats struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Count int     `json:"count"`
}

// ComputeStats reduces a series to summary statistics, skipping NaN values.
// A series with no valid values yields a zero-count SeriesStats.
func ComputeStats(obs []Observation) SeriesStats {
	var (
		sum   float64
		sumSq float64
		n     int
		min   = math.Inf(1)
		max   = math.Inf(-1)
	)
	for _, o := range obs {
		if math.IsNaN(o.Value) {
			continue
		}
		sum += o.Value
		sumSq += o.Value * o.Value
		n++
		if o.Value < min {
			min = o.Value
		}
		if o.Value > max {
			max = o.Value
		}
	}
	if n == 0 {
		return SeriesStats{}
	}
	mean := sum / float64(n)
	variance := sumSq/float64(n) - mean*mean
	if variance < 0 {
		variance = 0
	}
	return SeriesStats{
		Min:   min,
		Max:   max,
		Mean:  mean,
		Std:   math.Sqrt(variance),
		Count: n,
	}
}

// RainfallAccum sums daily rainfall over the trailing window (asOf−days, asOf].
// Returns nil when no observation falls inside the window, so callers can
// distinguish "no data" from "no rain".
func RainfallAccum(obs []Observation, asOf time.Time, days int) *float64 {
	if days <= 0 {
		return nil
	}
	windowStart := asOf.AddDate(0, 0, -days)
	var total float64
	found := false
	for _, o := range obs {
		if math.IsNaN(o.Value) {
			continue
		}
		if o.Date.After(windowStart) && !o.Date.After(asOf) {
			total += o.Value
			found = true
		}
	}
	if !found {
		return nil
	}
	return &total
}

// LatestValue returns the most recent non-NaN value of a date-sorted series,
// or nil when the series has none.
func LatestValue(obs []Observation) *float64 {
	for i := len(obs) - 1; i >= 0; i-- {
		if !math.IsNaN(obs[i].Value) {
			v := obs[i].Value
			return &v
		}
	}
	return nil
}
