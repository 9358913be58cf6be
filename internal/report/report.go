// Package report renders field reports as PDF and XLSX documents for
// distribution outside the Kafka pipeline.
package report

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/cropsense/crop-analysis/internal/domain"
)

// BuildFieldPDF renders a field report as a single-page PDF.
func BuildFieldPDF(r domain.FieldReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Field Analysis Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Field: %s", r.FieldID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Period: %s", r.Period))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Status: %s", r.Status))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Risk: %s (%d)", r.RiskLevel, r.RiskScore))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Processed: %s", r.ProcessedAt.Format(time.RFC3339)))
	pdf.Ln(8)

	pdf.Cell(0, 6, fmt.Sprintf("Index mean %.3f, min %.3f, max %.3f over %d samples",
		r.Stats.Mean, r.Stats.Min, r.Stats.Max, r.Stats.Count))
	pdf.Ln(8)

	// Seasons table
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(30, 6, "Start", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Peak", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Peak Value", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "End", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Days", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Health", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, s := range r.Seasons {
		pdf.CellFormat(30, 6, s.StartDate.Format("2006-01-02"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, s.PeakDate.Format("2006-01-02"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%.3f", s.PeakValue), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, s.EndDate.Format("2006-01-02"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%d", s.DurationDays), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, s.Health, "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	if len(r.Alerts) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(0, 6, "Alerts")
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 10)
		for _, a := range r.Alerts {
			pdf.Cell(0, 6, fmt.Sprintf("[%s] %s: %s", a.Severity, a.RuleID, a.Message))
			pdf.Ln(5)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildFieldXLSX renders a field report as a two-sheet workbook: summary
// plus one season row per line.
func BuildFieldXLSX(r domain.FieldReport) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	seasonsSheet := "seasons"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(seasonsSheet)

	_ = f.SetCellValue(summarySheet, "A1", "Field Analysis Report")
	_ = f.SetCellValue(summarySheet, "A3", "Field")
	_ = f.SetCellValue(summarySheet, "B3", r.FieldID)
	_ = f.SetCellValue(summarySheet, "A4", "Period")
	_ = f.SetCellValue(summarySheet, "B4", r.Period)
	_ = f.SetCellValue(summarySheet, "A5", "Status")
	_ = f.SetCellValue(summarySheet, "B5", r.Status)
	_ = f.SetCellValue(summarySheet, "A6", "Risk Level")
	_ = f.SetCellValue(summarySheet, "B6", r.RiskLevel)
	_ = f.SetCellValue(summarySheet, "A7", "Risk Score")
	_ = f.SetCellValue(summarySheet, "B7", r.RiskScore)
	_ = f.SetCellValue(summarySheet, "A8", "Index Mean")
	_ = f.SetCellValue(summarySheet, "B8", r.Stats.Mean)
	_ = f.SetCellValue(summarySheet, "A9", "Index Min")
	_ = f.SetCellValue(summarySheet, "B9", r.Stats.Min)
	_ = f.SetCellValue(summarySheet, "A10", "Index Max")
	_ = f.SetCellValue(summarySheet, "B10", r.Stats.Max)
	_ = f.SetCellValue(summarySheet, "A11", "Samples")
	_ = f.SetCellValue(summarySheet, "B11", r.Stats.Count)
	_ = f.SetCellValue(summarySheet, "A12", "Processed At")
	_ = f.SetCellValue(summarySheet, "B12", r.ProcessedAt.Format(time.RFC3339))

	row := 14
	for _, a := range r.Alerts {
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), a.Severity)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), a.RuleID)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("C%d", row), a.Message)
		row++
	}

	_ = f.SetCellValue(seasonsSheet, "A1", "Start")
	_ = f.SetCellValue(seasonsSheet, "B1", "Peak")
	_ = f.SetCellValue(seasonsSheet, "C1", "Peak Value")
	_ = f.SetCellValue(seasonsSheet, "D1", "End")
	_ = f.SetCellValue(seasonsSheet, "E1", "Duration Days")
	_ = f.SetCellValue(seasonsSheet, "F1", "Health")
	_ = f.SetCellValue(seasonsSheet, "G1", "End Reason")
	for i, s := range r.Seasons {
		row := i + 2
		_ = f.SetCellValue(seasonsSheet, fmt.Sprintf("A%d", row), s.StartDate.Format("2006-01-02"))
		_ = f.SetCellValue(seasonsSheet, fmt.Sprintf("B%d", row), s.PeakDate.Format("2006-01-02"))
		_ = f.SetCellValue(seasonsSheet, fmt.Sprintf("C%d", row), s.PeakValue)
		_ = f.SetCellValue(seasonsSheet, fmt.Sprintf("D%d", row), s.EndDate.Format("2006-01-02"))
		_ = f.SetCellValue(seasonsSheet, fmt.Sprintf("E%d", row), s.DurationDays)
		_ = f.SetCellValue(seasonsSheet, fmt.Sprintf("F%d", row), s.Health)
		_ = f.SetCellValue(seasonsSheet, fmt.Sprintf("G%d", row), s.EndReason)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteText writes a plain-text summary of a field report, one season and
// one alert per line. Used for console output in local tooling.
func WriteText(w io.Writer, r domain.FieldReport) error {
	if _, err := fmt.Fprintf(w, "field %s period %s status %s risk %s (%d)\n",
		r.FieldID, r.Period, r.Status, r.RiskLevel, r.RiskScore); err != nil {
		return err
	}
	fmt.Fprintf(w, "  index mean %.3f min %.3f max %.3f over %d samples\n",
		r.Stats.Mean, r.Stats.Min, r.Stats.Max, r.Stats.Count)
	for _, s := range r.Seasons {
		closed := "closed"
		if !s.Closed {
			closed = "open"
		}
		fmt.Fprintf(w, "  season %s -> %s (%s, %s) peak %.3f on %s, %d days, health %s\n",
			s.StartDate.Format("2006-01-02"), s.EndDate.Format("2006-01-02"),
			closed, s.EndReason, s.PeakValue, s.PeakDate.Format("2006-01-02"),
			s.DurationDays, s.Health)
	}
	for _, a := range r.Alerts {
		fmt.Fprintf(w, "  alert [%s] %s: %s\n", a.Severity, a.RuleID, a.Message)
	}
	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", warn)
	}
	return nil
}
