package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cropsense/crop-analysis/internal/domain"
)

// DirWriter persists rendered reports to a local directory, one PDF and one
// XLSX per field and period. It implements pipeline.BatchLoader and is meant
// to be chained after the Kafka writer, so rendering problems are logged and
// skipped rather than failing the batch.
type DirWriter struct {
	dir    string
	logger *slog.Logger
}

// NewDirWriter creates the output directory if needed.
func NewDirWriter(dir string, logger *slog.Logger) (*DirWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating report dir: %w", err)
	}
	return &DirWriter{dir: dir, logger: logger}, nil
}

// LoadBatch renders and writes every report in the batch.
func (w *DirWriter) LoadBatch(_ context.Context, events []domain.OutputEvent) error {
	for _, ev := range events {
		var r domain.FieldReport
		if err := json.Unmarshal(ev.Value, &r); err != nil {
			w.logger.Warn("skipping malformed report", "error", err)
			continue
		}
		w.write(r)
	}
	return nil
}

func (w *DirWriter) write(r domain.FieldReport) {
	base := filepath.Join(w.dir, sanitize(r.FieldID)+"_"+sanitize(r.Period))

	if pdf, err := BuildFieldPDF(r); err != nil {
		w.logger.Warn("pdf render failed", "field_id", r.FieldID, "error", err)
	} else if err := os.WriteFile(base+".pdf", pdf, 0o644); err != nil {
		w.logger.Warn("pdf write failed", "field_id", r.FieldID, "error", err)
	}

	if xlsx, err := BuildFieldXLSX(r); err != nil {
		w.logger.Warn("xlsx render failed", "field_id", r.FieldID, "error", err)
	} else if err := os.WriteFile(base+".xlsx", xlsx, 0o644); err != nil {
		w.logger.Warn("xlsx write failed", "field_id", r.FieldID, "error", err)
	}
}

// sanitize keeps file names shell-safe regardless of what arrives in
// field_id or period.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, s)
}
