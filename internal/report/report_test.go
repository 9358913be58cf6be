package report

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/cropsense/crop-analysis/internal/domain"
)

func sampleReport() domain.FieldReport {
	return domain.FieldReport{
		FieldID:   "field-001",
		Period:    "2025",
		Status:    domain.StatusOK,
		RiskScore: 40,
		RiskLevel: domain.RiskHigh,
		Stats:     domain.SeriesStats{Min: 0.1, Max: 0.7, Mean: 0.4, Count: 20},
		Seasons: []domain.Season{{
			StartDate:    time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC),
			PeakDate:     time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			PeakValue:    0.7,
			EndDate:      time.Date(2025, 9, 20, 0, 0, 0, 0, time.UTC),
			DurationDays: 191,
			Health:       domain.HealthExcellent,
			Closed:       true,
			EndReason:    domain.EndGradual,
		}},
		Alerts: []domain.Alert{{
			RuleID:   "low_soil_moisture",
			Severity: domain.SeverityMedium,
			Message:  "soil moisture 15.0% below wilting margin",
		}},
		ProcessedAt: time.Date(2025, 11, 1, 6, 0, 0, 0, time.UTC),
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "field field-001 period 2025 status ok risk HIGH (40)")
	assert.Contains(t, out, "season 2025-03-13 -> 2025-09-20 (closed, gradual) peak 0.700 on 2025-06-01, 191 days, health excellent")
	assert.Contains(t, out, "alert [medium] low_soil_moisture")
}

func TestBuildFieldPDF(t *testing.T) {
	data, err := BuildFieldPDF(sampleReport())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestBuildFieldXLSX(t *testing.T) {
	data, err := BuildFieldXLSX(sampleReport())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	field, err := f.GetCellValue("summary", "B3")
	require.NoError(t, err)
	assert.Equal(t, "field-001", field)

	start, err := f.GetCellValue("seasons", "A2")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-13", start)

	health, err := f.GetCellValue("seasons", "F2")
	require.NoError(t, err)
	assert.Equal(t, domain.HealthExcellent, health)
}

func TestDirWriter(t *testing.T) {
	dir := t.TempDir()
	w, err := NewDirWriter(dir, slog.Default())
	require.NoError(t, err)

	payload, err := json.Marshal(sampleReport())
	require.NoError(t, err)

	err = w.LoadBatch(context.Background(), []domain.OutputEvent{{Key: []byte("field-001"), Value: payload}})
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "field-001_2025.pdf"))
	assert.FileExists(t, filepath.Join(dir, "field-001_2025.xlsx"))
}

func TestDirWriterSkipsMalformed(t *testing.T) {
	dir := t.TempDir()
	w, err := NewDirWriter(dir, slog.Default())
	require.NoError(t, err)

	err = w.LoadBatch(context.Background(), []domain.OutputEvent{{Value: []byte("not json")}})
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "field-001_2025", sanitize("field-001_2025"))
	assert.Equal(t, "a_b_c", sanitize("a/b c"))
}
