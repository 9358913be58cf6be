// Command genmock generates synthetic field snapshot fixtures and their
// expected reports. It uses the actual analysis domain package so the
// expected output matches real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -fields 5 \
//	  -snapshots-out data/mock/field_snapshots.json \
//	  -reports-out data/mock/field_reports.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/cropsense/crop-analysis/internal/domain"
	"github.com/cropsense/crop-analysis/internal/report"
)

var seasonStart = time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	fields := flag.Int("fields", 5, "number of synthetic fields")
	snapshotsOut := flag.String("snapshots-out", "", "output path for raw snapshot fixtures")
	reportsOut := flag.String("reports-out", "", "output path for expected report fixtures")
	flag.Parse()

	if *snapshotsOut == "" || *reportsOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -snapshots-out, -reports-out")
	}

	// Fixed clock and seed for reproducible fixtures.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2025, time.November, 1, 6, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)
	rng := rand.New(rand.NewSource(42))

	snapshots := make([]domain.RawSnapshot, 0, *fields)
	reports := make([]domain.FieldReport, 0, *fields)

	for i := 0; i < *fields; i++ {
		snap := synthSnapshot(fmt.Sprintf("field-%03d", i+1), rng)
		snapshots = append(snapshots, snap)

		r, err := analyze(snap)
		if err != nil {
			return fmt.Errorf("analyzing %s: %w", snap.FieldID, err)
		}
		reports = append(reports, r)
		if err := report.WriteText(os.Stderr, r); err != nil {
			return fmt.Errorf("printing summary for %s: %w", snap.FieldID, err)
		}
	}

	if err := writeJSON(*snapshotsOut, snapshots); err != nil {
		return fmt.Errorf("writing snapshot fixture: %w", err)
	}
	log.Printf("wrote snapshot fixture: %s", *snapshotsOut)

	if err := writeJSON(*reportsOut, reports); err != nil {
		return fmt.Errorf("writing report fixture: %w", err)
	}
	log.Printf("wrote report fixture: %s", *reportsOut)

	return nil
}

// synthSnapshot builds one plausible field: a bell-shaped vegetation year,
// weekly rainfall, an 8x8 thermal grid with three years of history, and a
// radar pair with a dry field.
func synthSnapshot(fieldID string, rng *rand.Rand) domain.RawSnapshot {
	const gridSize = 8

	var ndvi []domain.ObservationRecord
	for d := 0; d < 240; d += 8 {
		date := seasonStart.AddDate(0, 0, d)
		// Bell curve peaking mid-season around 0.75.
		x := (float64(d) - 120) / 60
		value := 0.12 + 0.63*math.Exp(-x*x) + rng.Float64()*0.04
		ndvi = append(ndvi, domain.ObservationRecord{
			Date:          date.Format("2006-01-02"),
			Value:         value,
			CloudFraction: rng.Float64() * 0.3,
		})
	}

	var rain []domain.ObservationRecord
	for d := 0; d < 240; d += 7 {
		date := seasonStart.AddDate(0, 0, d)
		rain = append(rain, domain.ObservationRecord{
			Date:  date.Format("2006-01-02"),
			Value: rng.Float64() * 12,
		})
	}

	current := make([][]float64, gridSize)
	history := make([][][]float64, 3)
	for y := range history {
		history[y] = make([][]float64, gridSize)
	}
	vv := make([][]float64, gridSize)
	vh := make([][]float64, gridSize)
	for r := 0; r < gridSize; r++ {
		current[r] = make([]float64, gridSize)
		vv[r] = make([]float64, gridSize)
		vh[r] = make([]float64, gridSize)
		for y := range history {
			history[y][r] = make([]float64, gridSize)
		}
		for c := 0; c < gridSize; c++ {
			base := 24 + rng.Float64()*4
			current[r][c] = base + rng.Float64()*3
			for y := range history {
				history[y][r][c] = base + rng.Float64()*2
			}
			// Dry soil backscatter, around -8 dB in linear power.
			vv[r][c] = 0.15 + rng.Float64()*0.1
			vh[r][c] = 0.02 + rng.Float64()*0.02
		}
	}

	soil := 18 + rng.Float64()*20
	return domain.RawSnapshot{
		FieldID:      fieldID,
		Period:       "2025",
		NDVI:         ndvi,
		Rainfall:     rain,
		GridRows:     gridSize,
		GridCols:     gridSize,
		LSTCurrent:   current,
		LSTHistory:   history,
		RadarVV:      vv,
		RadarVH:      vh,
		SoilMoisture: &soil,
	}
}

// analyze runs the domain stages the pipeline analyzer runs, without the
// Kafka plumbing.
func analyze(snap domain.RawSnapshot) (domain.FieldReport, error) {
	report := domain.FieldReport{FieldID: snap.FieldID, Period: snap.Period}

	ndvi, _ := snap.Observations(snap.NDVI)
	merged := domain.MergeObservations([][]domain.Observation{ndvi}, 0.8)
	report.Stats = domain.ComputeStats(merged)
	dates, values := domain.SeriesColumns(merged)

	seasons, err := domain.DetectSeasons(dates, values, domain.DefaultDetectorConfig())
	if err != nil {
		return domain.FieldReport{}, err
	}
	cuts := domain.DefaultHealthCuts()
	for i := range seasons {
		seasons[i].Health = domain.ClassifyHealth(seasons[i].PeakValue, seasons[i].DurationDays, cuts)
	}
	report.Seasons = seasons

	var m domain.Snapshot
	m.IndexValue = domain.LatestValue(merged)
	m.SoilMoisture = snap.SoilMoisture

	rain, _ := snap.Observations(snap.Rainfall)
	if len(rain) > 0 {
		asOf := rain[len(rain)-1].Date
		m.Rain7d = domain.RainfallAccum(rain, asOf, 7)
		m.Rain30d = domain.RainfallAccum(rain, asOf, 30)
	}

	current, err := snap.Grid(snap.LSTCurrent)
	if err != nil {
		return domain.FieldReport{}, err
	}
	history, err := snap.HistoryGrids()
	if err != nil {
		return domain.FieldReport{}, err
	}
	if current != nil {
		mean := domain.GridMean(current)
		m.SurfaceTemperature = &mean

		base, err := domain.Baseline(history, snap.GridRows, snap.GridCols)
		if err != nil {
			return domain.FieldReport{}, err
		}
		anomaly, err := domain.Anomaly(current, base)
		if err != nil {
			return domain.FieldReport{}, err
		}
		if anomaly != nil {
			a := domain.GridMean(anomaly)
			m.Anomaly = &a
		}
	}

	vvGrid, err := snap.Grid(snap.RadarVV)
	if err != nil {
		return domain.FieldReport{}, err
	}
	vhGrid, err := snap.Grid(snap.RadarVH)
	if err != nil {
		return domain.FieldReport{}, err
	}
	if vvGrid != nil && vhGrid != nil {
		mask, err := domain.FloodMask(vvGrid, vhGrid, domain.DefaultFloodThresholds())
		if err != nil {
			return domain.FieldReport{}, err
		}
		coverage := domain.FloodCoverage(mask)
		m.FloodCoverageRatio = &coverage
	}

	report.Metrics = m
	report.Alerts = domain.EvaluateAlerts(m, domain.DefaultAlertThresholds())
	report.RiskScore, report.RiskLevel = domain.RiskScore(report.Alerts)
	domain.FinalizeReport(&report)
	return report, nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}
