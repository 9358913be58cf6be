package domain

import (
	"fmt"
	"math"
)

// Alert severities.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityInfo   = "info"
)

// Risk levels, derived from the aggregate alert score.
const (
	RiskCritical = "CRITICAL"
	RiskHigh     = "HIGH"
	RiskModerate = "MODERATE"
	RiskLow      = "LOW"
)

// Snapshot is the flat metric set the alert rules evaluate against. Every
// field is optional: a nil metric silently skips the rules that reference
// it, so partial acquisitions still produce whatever alerts they can.
type Snapshot struct {
	SurfaceTemperature *float64 `json:"surface_temperature,omitempty"`
	IndexValue         *float64 `json:"index_value,omitempty"`
	Anomaly            *float64 `json:"anomaly,omitempty"`
	Rain7d             *float64 `json:"rain_7d,omitempty"`
	Rain30d            *float64 `json:"rain_30d,omitempty"`
	SoilMoisture       *float64 `json:"soil_moisture,omitempty"`
	FloodCoverageRatio *float64 `json:"flood_coverage_ratio,omitempty"`
	CloudFraction      *float64 `json:"cloud_fraction,omitempty"`
}

// AlertThresholds names every boundary in the rule table.
type AlertThresholds struct {
	WaterStressTemp  float64 // surface temperature above this, with a low index, means stress
	WaterStressIndex float64
	HeatAnomaly      float64 // positive thermal anomaly in degrees
	DroughtRain7d    float64 // weekly rainfall below this, with a dry month, means drought
	DroughtRain30d   float64
	FloodCoverage    float64 // flooded fraction of the field
	DrySpellRain7d   float64 // weekly rainfall below this (but above the drought cut) is a dry spell
	SoilMoisture     float64 // volumetric percent
	PoorHealthIndex  float64
	CloudFraction    float64 // above this, optical metrics are unreliable
}

// DefaultAlertThresholds returns the operational rule boundaries.
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{
		WaterStressTemp:  35,
		WaterStressIndex: 0.3,
		HeatAnomaly:      5,
		DroughtRain7d:    5,
		DroughtRain30d:   30,
		FloodCoverage:    0.10,
		DrySpellRain7d:   10,
		SoilMoisture:     20,
		PoorHealthIndex:  0.25,
		CloudFraction:    0.20,
	}
}

// Validate reports a ConfigError for boundaries that would make the rule
// table incoherent.
func (t AlertThresholds) Validate() error {
	if t.DrySpellRain7d < t.DroughtRain7d {
		return configErr("dry_spell_rain_7d", "must not be below drought_rain_7d")
	}
	if t.WaterStressIndex < 0 || t.WaterStressIndex > 1 {
		return configErr("water_stress_index", "must be within [0, 1]")
	}
	if t.PoorHealthIndex < 0 || t.PoorHealthIndex > 1 {
		return configErr("poor_health_index", "must be within [0, 1]")
	}
	if t.FloodCoverage < 0 || t.FloodCoverage > 1 {
		return configErr("flood_coverage", "must be within [0, 1]")
	}
	if t.CloudFraction < 0 || t.CloudFraction > 1 {
		return configErr("cloud_fraction", "must be within [0, 1]")
	}
	return nil
}

// Alert is one fired rule with the metric values that triggered it.
type Alert struct {
	RuleID   string             `json:"rule_id"`
	Severity string             `json:"severity"`
	Message  string             `json:"message"`
	Values   map[string]float64 `json:"values,omitempty"`
}

// EvaluateAlerts runs the full rule table against a metrics snapshot. Rules
// are evaluated independently in declaration order so the output ordering is
// stable; a rule whose inputs are absent is skipped, never an error. The
// drought and dry-spell rainfall ranges are disjoint, so one rainfall reading
// never fires both.
func EvaluateAlerts(m Snapshot, th AlertThresholds) []Alert {
	var alerts []Alert
	fire := func(id, severity, message string, values map[string]float64) {
		alerts = append(alerts, Alert{RuleID: id, Severity: severity, Message: message, Values: values})
	}

	if temp, idx, ok := metric2(m.SurfaceTemperature, m.IndexValue); ok &&
		temp > th.WaterStressTemp && idx < th.WaterStressIndex {
		fire("water_stress", SeverityHigh,
			fmt.Sprintf("high surface temperature %.1f with low vegetation index %.2f", temp, idx),
			map[string]float64{"surface_temperature": temp, "index_value": idx})
	}

	if a, ok := metric(m.Anomaly); ok && a > th.HeatAnomaly {
		fire("heat_anomaly", SeverityHigh,
			fmt.Sprintf("surface temperature %.1f above seasonal baseline", a),
			map[string]float64{"anomaly": a})
	}

	if r7, r30, ok := metric2(m.Rain7d, m.Rain30d); ok &&
		r7 < th.DroughtRain7d && r30 < th.DroughtRain30d {
		fire("drought_risk", SeverityHigh,
			fmt.Sprintf("only %.1fmm rain in 7 days, %.1fmm in 30 days", r7, r30),
			map[string]float64{"rain_7d": r7, "rain_30d": r30})
	}

	if fc, ok := metric(m.FloodCoverageRatio); ok && fc > th.FloodCoverage {
		fire("flooding", SeverityHigh,
			fmt.Sprintf("%.0f%% of field flagged as standing water", fc*100),
			map[string]float64{"flood_coverage_ratio": fc})
	}

	if r7, ok := metric(m.Rain7d); ok &&
		r7 >= th.DroughtRain7d && r7 < th.DrySpellRain7d {
		fire("dry_spell", SeverityMedium,
			fmt.Sprintf("low rainfall %.1fmm over the last 7 days", r7),
			map[string]float64{"rain_7d": r7})
	}

	if sm, ok := metric(m.SoilMoisture); ok && sm < th.SoilMoisture {
		fire("low_soil_moisture", SeverityMedium,
			fmt.Sprintf("soil moisture %.1f%% below wilting margin", sm),
			map[string]float64{"soil_moisture": sm})
	}

	if idx, ok := metric(m.IndexValue); ok && idx < th.PoorHealthIndex {
		fire("poor_crop_health", SeverityMedium,
			fmt.Sprintf("vegetation index %.2f below healthy range", idx),
			map[string]float64{"index_value": idx})
	}

	if cf, ok := metric(m.CloudFraction); ok && cf > th.CloudFraction {
		fire("cloudy_fallback", SeverityInfo,
			fmt.Sprintf("cloud fraction %.0f%%, optical metrics may be unreliable", cf*100),
			map[string]float64{"cloud_fraction": cf})
	}

	return alerts
}

// Severity weights for the composite risk score.
const (
	riskWeightHigh   = 30
	riskWeightMedium = 10
	riskWeightInfo   = 0
	riskScoreCap     = 100
)

// RiskScore aggregates fired alerts into a capped 0-100 score and the
// matching coarse level.
func RiskScore(alerts []Alert) (int, string) {
	score := 0
	for _, a := range alerts {
		switch a.Severity {
		case SeverityHigh:
			score += riskWeightHigh
		case SeverityMedium:
			score += riskWeightMedium
		case SeverityInfo:
			score += riskWeightInfo
		}
	}
	if score > riskScoreCap {
		score = riskScoreCap
	}

	switch {
	case score >= 60:
		return score, RiskCritical
	case score >= 30:
		return score, RiskHigh
	case score >= 10:
		return score, RiskModerate
	default:
		return score, RiskLow
	}
}

// metric unwraps an optional metric, treating nil and NaN as absent.
func metric(p *float64) (float64, bool) {
	if p == nil || math.IsNaN(*p) {
		return 0, false
	}
	return *p, true
}

func metric2(a, b *float64) (float64, float64, bool) {
	av, aok := metric(a)
	bv, bok := metric(b)
	return av, bv, aok && bok
}
