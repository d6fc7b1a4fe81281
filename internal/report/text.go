package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// TerminalWriter prints an aligned table
type TerminalWriter struct {
	Verbose bool
}

func (t *TerminalWriter) Write(w io.Writer, rows []Row) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header(t.Verbose), "\t"))
	for _, r := range rows {
		cells := []string{r.Contributor, r.Type, r.ConfidenceText()}
		if t.Verbose {
			cells = append(cells, featureCells(r)...)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// CSVWriter writes contributor,type,confidence records with a header line
type CSVWriter struct {
	Verbose bool
}

func (c *CSVWriter) Write(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header(c.Verbose)); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{r.Contributor, r.Type, r.ConfidenceText()}
		if c.Verbose {
			record = append(record, featureCells(r)...)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
