package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"
)

// RawEvent is one unparsed field snapshot as it arrives from the broker.
// Commit acknowledges the source offset after the derived report is safely
// published.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Headers   map[string]string
	Commit    func(ctx context.Context) error
}

// ObservationRecord is the wire form of a single dated sample.
type ObservationRecord struct {
	Date          string  `json:"date"`
	Value         float64 `json:"value"`
	CloudFraction float64 `json:"cloud_fraction"`
}

// RawSnapshot is the decoded input payload: everything the acquisition side
// gathered for one field over one reporting period. Scalar metrics and grids
// are all optional; the analyzer works with whatever is present.
type RawSnapshot struct {
	FieldID string `json:"field_id"`
	Period  string `json:"period"`

	NDVI     []ObservationRecord `json:"ndvi,omitempty"`
	LST      []ObservationRecord `json:"lst,omitempty"`
	Rainfall []ObservationRecord `json:"rainfall,omitempty"`

	GridRows int `json:"grid_rows,omitempty"`
	GridCols int `json:"grid_cols,omitempty"`

	LSTCurrent [][]float64   `json:"lst_current,omitempty"`
	LSTHistory [][][]float64 `json:"lst_history,omitempty"`

	RadarVV [][]float64 `json:"radar_vv,omitempty"`
	RadarVH [][]float64 `json:"radar_vh,omitempty"`

	SoilMoisture       *float64 `json:"soil_moisture,omitempty"`
	FloodCoverageRatio *float64 `json:"flood_coverage_ratio,omitempty"`
	CloudFraction      *float64 `json:"cloud_fraction,omitempty"`
}

// ParseRawSnapshot decodes and structurally validates one input payload.
func ParseRawSnapshot(data []byte) (RawSnapshot, error) {
	var snap RawSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return RawSnapshot{}, fmt.Errorf("decoding snapshot: %w", err)
	}
	if snap.FieldID == "" {
		return RawSnapshot{}, fmt.Errorf("snapshot missing field_id")
	}
	if snap.Period == "" {
		return RawSnapshot{}, fmt.Errorf("snapshot missing period")
	}
	if (snap.LSTCurrent != nil || snap.RadarVV != nil) && (snap.GridRows <= 0 || snap.GridCols <= 0) {
		return RawSnapshot{}, fmt.Errorf("snapshot carries grids without grid_rows/grid_cols")
	}
	return snap, nil
}

// Observations converts wire records to domain observations. Records with
// unparseable dates are dropped and reported so callers can surface them as
// warnings rather than failing the whole snapshot.
func (s RawSnapshot) Observations(records []ObservationRecord) ([]Observation, []string) {
	var obs []Observation
	var warnings []string
	for _, r := range records {
		d, err := time.Parse("2006-01-02", r.Date)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("skipping sample with bad date %q", r.Date))
			continue
		}
		obs = append(obs, Observation{Date: d, Value: r.Value, CloudFraction: r.CloudFraction})
	}
	return obs, warnings
}

// Grid materializes one wire grid into a dense matrix, or nil when absent.
// Row shape is validated against the declared dimensions.
func (s RawSnapshot) Grid(rows [][]float64) (*mat.Dense, error) {
	if rows == nil {
		return nil, nil
	}
	if len(rows) != s.GridRows {
		return nil, ErrShapeMismatch
	}
	out := mat.NewDense(s.GridRows, s.GridCols, nil)
	for r, row := range rows {
		if len(row) != s.GridCols {
			return nil, ErrShapeMismatch
		}
		out.SetRow(r, row)
	}
	return out, nil
}

// HistoryGrids materializes the historical grid stack.
func (s RawSnapshot) HistoryGrids() ([]*mat.Dense, error) {
	var out []*mat.Dense
	for _, rows := range s.LSTHistory {
		g, err := s.Grid(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

// Report statuses.
const (
	StatusOK        = "ok"
	StatusNoSeasons = "no_seasons"
)

// FieldReport is the published analysis result for one field and period.
type FieldReport struct {
	FieldID     string      `json:"field_id"`
	Period      string      `json:"period"`
	Status      string      `json:"status"`
	Seasons     []Season    `json:"seasons,omitempty"`
	Stats       SeriesStats `json:"stats"`
	Metrics     Snapshot    `json:"metrics"`
	Alerts      []Alert     `json:"alerts,omitempty"`
	RiskScore   int         `json:"risk_score"`
	RiskLevel   string      `json:"risk_level"`
	Warnings    []string    `json:"warnings,omitempty"`
	ProcessedAt time.Time   `json:"processed_at"`
}

// FinalizeReport stamps the processing time and derives the status.
func FinalizeReport(r *FieldReport) {
	r.ProcessedAt = clock.Now().UTC()
	if len(r.Seasons) == 0 {
		r.Status = StatusNoSeasons
	} else {
		r.Status = StatusOK
	}
}

// OutputEvent is a report encoded for the broker.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// SerializeFieldReport encodes a report for publishing, keyed by field so a
// field's reports stay ordered within a partition.
func SerializeFieldReport(r FieldReport) (OutputEvent, error) {
	value, err := json.Marshal(r)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("encoding report for %s: %w", r.FieldID, err)
	}
	return OutputEvent{
		Key:   []byte(r.FieldID),
		Value: value,
		Headers: map[string]string{
			"field_id":     r.FieldID,
			"processed_at": r.ProcessedAt.Format(time.RFC3339),
			"risk_level":   r.RiskLevel,
		},
	}, nil
}
