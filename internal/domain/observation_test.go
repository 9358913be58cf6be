package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMergeObservations(t *testing.T) {
	t.Run("drops observations above cloud threshold", func(t *testing.T) {
		streams := [][]Observation{{
			{Date: day(2025, 5, 1), Value: 0.4, CloudFraction: 0.1},
			{Date: day(2025, 5, 2), Value: 0.5, CloudFraction: 0.9},
		}}

		merged := MergeObservations(streams, 0.8)

		require.Len(t, merged, 1)
		assert.Equal(t, 0.4, merged[0].Value)
	})

	t.Run("same day keeps lower cloud fraction", func(t *testing.T) {
		streams := [][]Observation{
			{{Date: day(2025, 5, 1), Value: 0.3, CloudFraction: 0.5}},
			{{Date: day(2025, 5, 1), Value: 0.6, CloudFraction: 0.1}},
		}

		merged := MergeObservations(streams, 1.0)

		require.Len(t, merged, 1)
		assert.Equal(t, 0.6, merged[0].Value)
		assert.Equal(t, 0.1, merged[0].CloudFraction)
	})

	t.Run("equal cloud fraction keeps first seen", func(t *testing.T) {
		streams := [][]Observation{
			{{Date: day(2025, 5, 1), Value: 0.3, CloudFraction: 0.2}},
			{{Date: day(2025, 5, 1), Value: 0.6, CloudFraction: 0.2}},
		}

		merged := MergeObservations(streams, 1.0)

		require.Len(t, merged, 1)
		assert.Equal(t, 0.3, merged[0].Value)
	})

	t.Run("result is sorted by date", func(t *testing.T) {
		streams := [][]Observation{{
			{Date: day(2025, 5, 9), Value: 0.5},
			{Date: day(2025, 5, 1), Value: 0.3},
			{Date: day(2025, 5, 5), Value: 0.4},
		}}

		merged := MergeObservations(streams, 1.0)

		require.Len(t, merged, 3)
		assert.True(t, merged[0].Date.Before(merged[1].Date))
		assert.True(t, merged[1].Date.Before(merged[2].Date))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, MergeObservations(nil, 1.0))
	})
}

func TestComputeStats(t *testing.T) {
	t.Run("skips NaN samples", func(t *testing.T) {
		stats := ComputeStats([]Observation{
			{Date: day(2025, 5, 1), Value: 0.2},
			{Date: day(2025, 5, 2), Value: math.NaN()},
			{Date: day(2025, 5, 3), Value: 0.4},
			{Date: day(2025, 5, 4), Value: 0.6},
		})

		assert.Equal(t, 3, stats.Count)
		assert.Equal(t, 0.2, stats.Min)
		assert.Equal(t, 0.6, stats.Max)
		assert.InDelta(t, 0.4, stats.Mean, 1e-9)
	})

	t.Run("all NaN", func(t *testing.T) {
		stats := ComputeStats([]Observation{{Date: day(2025, 5, 1), Value: math.NaN()}})
		assert.Equal(t, 0, stats.Count)
	})
}

func TestRainfallAccum(t *testing.T) {
	obs := []Observation{
		{Date: day(2025, 6, 1), Value: 10},
		{Date: day(2025, 6, 5), Value: 4},
		{Date: day(2025, 6, 10), Value: 6},
	}
	asOf := day(2025, 6, 10)

	t.Run("trailing 7 days", func(t *testing.T) {
		got := RainfallAccum(obs, asOf, 7)
		require.NotNil(t, got)
		assert.Equal(t, 10.0, *got) // Jun 5 + Jun 10, Jun 1 outside window
	})

	t.Run("trailing 30 days", func(t *testing.T) {
		got := RainfallAccum(obs, asOf, 30)
		require.NotNil(t, got)
		assert.Equal(t, 20.0, *got)
	})

	t.Run("no observations in window", func(t *testing.T) {
		assert.Nil(t, RainfallAccum(obs, day(2025, 8, 1), 7))
	})
}

func TestLatestValue(t *testing.T) {
	t.Run("skips trailing NaN", func(t *testing.T) {
		obs := []Observation{
			{Date: day(2025, 6, 1), Value: 0.5},
			{Date: day(2025, 6, 5), Value: math.NaN()},
		}
		got := LatestValue(obs)
		require.NotNil(t, got)
		assert.Equal(t, 0.5, *got)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Nil(t, LatestValue(nil))
	})
}
