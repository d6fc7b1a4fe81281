// Package report renders classification results as a terminal table, CSV,
// JSON or an Excel workbook.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/alimgiray/botscope/internal/models"
)

// Format is an output format
type Format string

const (
	FormatTerminal Format = "term"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatXLSX     Format = "xlsx"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatTerminal, FormatCSV, FormatJSON, FormatXLSX:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want term, csv, json or xlsx)", s)
}

// NeedsFile reports whether the format must be written to a file
func (f Format) NeedsFile() bool {
	return f != FormatTerminal
}

// FailedType is shown in place of a verdict for contributors whose run failed
const FailedType = "Error"

// Row is one contributor in a report
type Row struct {
	Contributor string                `json:"contributor"`
	Type        string                `json:"type"`
	Confidence  *float64              `json:"-"`
	Features    *models.FeatureVector `json:"-"`
	QueriesUsed int                   `json:"-"`
	Error       string                `json:"-"`
}

// RowsFromResults converts results into report rows, skipping contributors
// that have no outcome
func RowsFromResults(results []*models.ClassificationResult) []Row {
	rows := make([]Row, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		row := Row{Contributor: r.Login, QueriesUsed: r.QueriesUsed}
		if r.Verdict != nil {
			row.Type = string(r.Verdict.Type)
			row.Confidence = r.Verdict.Confidence
			row.Features = r.Verdict.Features
		} else {
			row.Type = FailedType
			row.Error = r.ErrorMessage()
		}
		rows = append(rows, row)
	}
	return rows
}

// ConfidenceText formats a confidence the way every format shows it: "-" when absent
func (r Row) ConfidenceText() string {
	if r.Confidence == nil {
		return "-"
	}
	return strconv.FormatFloat(*r.Confidence, 'f', -1, 64)
}

// Writer renders rows to w
type Writer interface {
	Write(w io.Writer, rows []Row) error
}

// NewWriter returns the writer of a format. Verbose writers add one column
// per feature.
func NewWriter(format Format, verbose bool) (Writer, error) {
	switch format {
	case FormatTerminal:
		return &TerminalWriter{Verbose: verbose}, nil
	case FormatCSV:
		return &CSVWriter{Verbose: verbose}, nil
	case FormatJSON:
		return &JSONWriter{Verbose: verbose}, nil
	case FormatXLSX:
		return &XLSXWriter{Verbose: verbose}, nil
	}
	return nil, fmt.Errorf("unknown output format %q", format)
}

// SaveFile writes the whole report to path, replacing any previous content
// only once the new report is complete
func SaveFile(path string, w Writer, rows []Row) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".botscope-*")
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := w.Write(tmp, rows); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to save report to %s: %w", path, err)
	}
	return nil
}

func header(verbose bool) []string {
	h := []string{"contributor", "type", "confidence"}
	if verbose {
		h = append(h, models.FeatureNames[:]...)
	}
	return h
}

func featureCells(r Row) []string {
	cells := make([]string, models.FeatureCount)
	for i := range cells {
		if r.Features == nil {
			cells[i] = "-"
			continue
		}
		cells[i] = strconv.FormatFloat(r.Features[i], 'f', -1, 64)
	}
	return cells
}
