package pipeline_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/cropsense/crop-analysis/internal/domain"
	"github.com/cropsense/crop-analysis/internal/pipeline"
)

func newAnalyzer(baselines domain.BaselineProvider) *pipeline.FieldAnalyzer {
	detector := domain.DefaultDetectorConfig()
	detector.SmoothWindow = 1
	return pipeline.NewFieldAnalyzer(
		detector,
		domain.DefaultHealthCuts(),
		domain.DefaultAlertThresholds(),
		0.8,
		baselines,
		slog.Default(),
		newTestMetrics(),
	)
}

// seasonSnapshot builds one field year: a bell-shaped vegetation curve, a
// rainfall reading, and a warm 2x2 thermal grid with cooler history.
func seasonSnapshot() domain.RawSnapshot {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	values := []float64{0.1, 0.2, 0.35, 0.5, 0.65, 0.7, 0.65, 0.5, 0.35, 0.2, 0.1, 0.1, 0.1}

	var ndvi []domain.ObservationRecord
	for i, v := range values {
		ndvi = append(ndvi, domain.ObservationRecord{
			Date:  start.AddDate(0, 0, i*10).Format("2006-01-02"),
			Value: v,
		})
	}

	return domain.RawSnapshot{
		FieldID: "field-001",
		Period:  "2025",
		NDVI:    ndvi,
		Rainfall: []domain.ObservationRecord{
			{Date: "2025-07-10", Value: 20},
		},
		GridRows:   2,
		GridCols:   2,
		LSTCurrent: [][]float64{{31, 31}, {31, 31}},
		LSTHistory: [][][]float64{
			{{25, 25}, {25, 25}},
			{{25, 25}, {25, 25}},
		},
		SoilMoisture: f(15),
	}
}

func f(v float64) *float64 { return &v }

func transformSnapshot(t *testing.T, a *pipeline.FieldAnalyzer, snap domain.RawSnapshot) domain.FieldReport {
	t.Helper()
	payload, err := json.Marshal(snap)
	require.NoError(t, err)

	out, err := a.Transform(context.Background(), domain.RawEvent{Value: payload})
	require.NoError(t, err)

	var report domain.FieldReport
	require.NoError(t, json.Unmarshal(out.Value, &report))
	return report
}

func TestFieldAnalyzer_Transform(t *testing.T) {
	fixed := time.Date(2025, 11, 1, 6, 0, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(fixed))
	t.Cleanup(func() { domain.SetClock(nil) })

	report := transformSnapshot(t, newAnalyzer(nil), seasonSnapshot())

	assert.Equal(t, "field-001", report.FieldID)
	assert.Equal(t, domain.StatusOK, report.Status)
	assert.Equal(t, fixed, report.ProcessedAt)

	require.Len(t, report.Seasons, 1)
	s := report.Seasons[0]
	assert.Equal(t, 0.7, s.PeakValue)
	assert.Equal(t, domain.HealthGood, s.Health)
	assert.Equal(t, domain.EndGradual, s.EndReason)

	// Metrics: current grid runs 6 degrees above its history, the last index
	// reading is 0.1, soil is dry.
	require.NotNil(t, report.Metrics.SurfaceTemperature)
	assert.InDelta(t, 31, *report.Metrics.SurfaceTemperature, 1e-9)
	require.NotNil(t, report.Metrics.Anomaly)
	assert.InDelta(t, 6, *report.Metrics.Anomaly, 1e-9)
	require.NotNil(t, report.Metrics.Rain7d)
	assert.Equal(t, 20.0, *report.Metrics.Rain7d)

	ids := make([]string, len(report.Alerts))
	for i, a := range report.Alerts {
		ids[i] = a.RuleID
	}
	assert.Equal(t, []string{"heat_anomaly", "low_soil_moisture", "poor_crop_health"}, ids)
	assert.Equal(t, 50, report.RiskScore)
	assert.Equal(t, domain.RiskHigh, report.RiskLevel)
}

func TestFieldAnalyzer_Transform_NoSeasons(t *testing.T) {
	snap := domain.RawSnapshot{
		FieldID: "field-002",
		Period:  "2025",
		NDVI: []domain.ObservationRecord{
			{Date: "2025-05-01", Value: 0.1},
			{Date: "2025-05-11", Value: 0.12},
			{Date: "2025-05-21", Value: 0.11},
		},
	}

	report := transformSnapshot(t, newAnalyzer(nil), snap)
	assert.Equal(t, domain.StatusNoSeasons, report.Status)
	assert.Empty(t, report.Seasons)
}

func TestFieldAnalyzer_Transform_InvalidPayload(t *testing.T) {
	a := newAnalyzer(nil)
	_, err := a.Transform(context.Background(), domain.RawEvent{Value: []byte("not json")})
	assert.Error(t, err)
}

func TestFieldAnalyzer_Transform_ShapeMismatchDegrades(t *testing.T) {
	snap := seasonSnapshot()
	// History grids disagree with the declared shape.
	snap.LSTHistory = [][][]float64{{{25, 25, 25}}}

	report := transformSnapshot(t, newAnalyzer(nil), snap)

	assert.Nil(t, report.Metrics.Anomaly)
	require.NotNil(t, report.Metrics.SurfaceTemperature)
	assert.NotEmpty(t, report.Warnings)
}

type stubProvider struct {
	grid *mat.Dense
}

func (s *stubProvider) BaselineFor(_ context.Context, _, _ string, _, _ int) (*mat.Dense, error) {
	return s.grid, nil
}

func TestFieldAnalyzer_Transform_ProviderFallback(t *testing.T) {
	snap := seasonSnapshot()
	snap.LSTHistory = nil

	provider := &stubProvider{grid: mat.NewDense(2, 2, []float64{28, 28, 28, 28})}
	report := transformSnapshot(t, newAnalyzer(provider), snap)

	require.NotNil(t, report.Metrics.Anomaly)
	assert.InDelta(t, 3, *report.Metrics.Anomaly, 1e-9)
}

func TestFieldAnalyzer_Transform_BadDatesBecomeWarnings(t *testing.T) {
	snap := seasonSnapshot()
	snap.NDVI = append(snap.NDVI, domain.ObservationRecord{Date: "garbage", Value: 0.5})

	report := transformSnapshot(t, newAnalyzer(nil), snap)
	assert.NotEmpty(t, report.Warnings)
}
