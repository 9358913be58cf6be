package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/cropsense/crop-analysis/internal/domain"
	"github.com/cropsense/crop-analysis/internal/observability"
)

// FieldAnalyzer turns raw field snapshots into field reports. It implements
// Transformer and is pure apart from logging and metrics: the same snapshot
// always yields the same report.
type FieldAnalyzer struct {
	detector         domain.DetectorConfig
	healthCuts       []domain.HealthCut
	alerts           domain.AlertThresholds
	maxCloudFraction float64
	baselines        domain.BaselineProvider
	logger           *slog.Logger
	metrics          *observability.Metrics
}

// NewFieldAnalyzer wires the analysis stages together. baselines may be nil
// when historical grids only ever arrive inline with the snapshot.
func NewFieldAnalyzer(
	detector domain.DetectorConfig,
	healthCuts []domain.HealthCut,
	alerts domain.AlertThresholds,
	maxCloudFraction float64,
	baselines domain.BaselineProvider,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *FieldAnalyzer {
	return &FieldAnalyzer{
		detector:         detector,
		healthCuts:       healthCuts,
		alerts:           alerts,
		maxCloudFraction: maxCloudFraction,
		baselines:        baselines,
		logger:           logger,
		metrics:          metrics,
	}
}

// Transform analyzes one snapshot end to end. Recoverable data problems
// (mismatched grids, bad dates, missing metrics) degrade into report
// warnings; only an undecodable payload is an error.
func (a *FieldAnalyzer) Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	snap, err := domain.ParseRawSnapshot(raw.Value)
	if err != nil {
		return domain.OutputEvent{}, err
	}

	report := domain.FieldReport{FieldID: snap.FieldID, Period: snap.Period}

	ndvi, warnings := snap.Observations(snap.NDVI)
	report.Warnings = warnings

	merged := domain.MergeObservations([][]domain.Observation{ndvi}, a.maxCloudFraction)
	report.Stats = domain.ComputeStats(merged)
	dates, values := domain.SeriesColumns(merged)

	seasons, err := domain.DetectSeasons(dates, values, a.detector)
	if err != nil {
		return domain.OutputEvent{}, fmt.Errorf("detecting seasons for %s: %w", snap.FieldID, err)
	}
	for i := range seasons {
		seasons[i].Health = domain.ClassifyHealth(seasons[i].PeakValue, seasons[i].DurationDays, a.healthCuts)
	}
	report.Seasons = seasons
	a.metrics.SeasonsDetected.Add(float64(len(seasons)))

	metrics := a.buildSnapshot(ctx, snap, merged, &report)

	report.Metrics = metrics
	report.Alerts = domain.EvaluateAlerts(metrics, a.alerts)
	report.RiskScore, report.RiskLevel = domain.RiskScore(report.Alerts)
	for _, alert := range report.Alerts {
		a.metrics.AlertsFired.WithLabelValues(alert.Severity).Inc()
	}

	domain.FinalizeReport(&report)

	a.logger.Debug("field analyzed",
		"field_id", report.FieldID,
		"period", report.Period,
		"seasons", len(report.Seasons),
		"alerts", len(report.Alerts),
		"risk_level", report.RiskLevel,
	)

	return domain.SerializeFieldReport(report)
}

// buildSnapshot assembles the flat metric set the alert rules consume,
// leaving a metric nil whenever its inputs are absent or unusable.
func (a *FieldAnalyzer) buildSnapshot(ctx context.Context, snap domain.RawSnapshot, ndvi []domain.Observation, report *domain.FieldReport) domain.Snapshot {
	var m domain.Snapshot

	m.IndexValue = domain.LatestValue(ndvi)
	m.SoilMoisture = snap.SoilMoisture

	m.CloudFraction = snap.CloudFraction
	if m.CloudFraction == nil && len(ndvi) > 0 {
		cf := ndvi[len(ndvi)-1].CloudFraction
		m.CloudFraction = &cf
	}

	rain, rainWarnings := snap.Observations(snap.Rainfall)
	report.Warnings = append(report.Warnings, rainWarnings...)
	if len(rain) > 0 {
		asOf := rain[len(rain)-1].Date
		m.Rain7d = domain.RainfallAccum(rain, asOf, 7)
		m.Rain30d = domain.RainfallAccum(rain, asOf, 30)
	}

	a.thermalMetrics(ctx, snap, &m, report)
	a.floodMetrics(snap, &m, report)

	return m
}

// thermalMetrics derives surface temperature and its anomaly against the
// historical baseline. Inline history wins; the injected provider is the
// fallback for snapshots that ship only the current grid.
func (a *FieldAnalyzer) thermalMetrics(ctx context.Context, snap domain.RawSnapshot, m *domain.Snapshot, report *domain.FieldReport) {
	current, err := snap.Grid(snap.LSTCurrent)
	if err != nil {
		a.warnShape(report, "lst_current grid does not match declared shape")
		return
	}
	if current == nil {
		return
	}

	if mean := domain.GridMean(current); !math.IsNaN(mean) {
		m.SurfaceTemperature = &mean
	}

	baseline, err := a.resolveBaseline(ctx, snap)
	if err != nil {
		if errors.Is(err, domain.ErrShapeMismatch) {
			a.warnShape(report, "historical grid does not match declared shape")
			return
		}
		report.Warnings = append(report.Warnings, fmt.Sprintf("baseline unavailable: %v", err))
		return
	}

	anomalyGrid, err := domain.Anomaly(current, baseline)
	if err != nil {
		a.warnShape(report, "baseline shape does not match current grid")
		return
	}
	if anomalyGrid == nil {
		return
	}
	if mean := domain.GridMean(anomalyGrid); !math.IsNaN(mean) {
		m.Anomaly = &mean
	}
}

func (a *FieldAnalyzer) resolveBaseline(ctx context.Context, snap domain.RawSnapshot) (*mat.Dense, error) {
	if len(snap.LSTHistory) > 0 {
		history, err := snap.HistoryGrids()
		if err != nil {
			return nil, err
		}
		return domain.Baseline(history, snap.GridRows, snap.GridCols)
	}
	if a.baselines == nil {
		return nil, nil
	}
	return a.baselines.BaselineFor(ctx, snap.FieldID, snap.Period, snap.GridRows, snap.GridCols)
}

// floodMetrics prefers a precomputed coverage ratio, falling back to radar
// backscatter classification when the VV/VH pair is present.
func (a *FieldAnalyzer) floodMetrics(snap domain.RawSnapshot, m *domain.Snapshot, report *domain.FieldReport) {
	if snap.FloodCoverageRatio != nil {
		m.FloodCoverageRatio = snap.FloodCoverageRatio
		return
	}

	vv, err := snap.Grid(snap.RadarVV)
	if err != nil {
		a.warnShape(report, "radar_vv grid does not match declared shape")
		return
	}
	vh, err := snap.Grid(snap.RadarVH)
	if err != nil {
		a.warnShape(report, "radar_vh grid does not match declared shape")
		return
	}
	if vv == nil || vh == nil {
		return
	}

	mask, err := domain.FloodMask(vv, vh, domain.DefaultFloodThresholds())
	if err != nil {
		a.warnShape(report, "radar_vv and radar_vh grids do not match")
		return
	}
	coverage := domain.FloodCoverage(mask)
	m.FloodCoverageRatio = &coverage
}

func (a *FieldAnalyzer) warnShape(report *domain.FieldReport, msg string) {
	a.metrics.ShapeMismatches.Inc()
	report.Warnings = append(report.Warnings, msg)
}
