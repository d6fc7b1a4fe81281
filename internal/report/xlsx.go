package report

import (
	"io"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Contributors"

// XLSXWriter writes a workbook with one sheet of results
type XLSXWriter struct {
	Verbose bool
}

func (x *XLSXWriter) Write(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	cols := header(x.Verbose)
	if err := setRow(f, 1, toCells(cols)); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(sheetName, 1, 1, bold); err != nil {
		return err
	}

	for i, r := range rows {
		cells := []interface{}{r.Contributor, r.Type, r.ConfidenceText()}
		if r.Confidence != nil {
			cells[2] = *r.Confidence
		}
		if x.Verbose {
			for j := 0; j < len(cols)-3; j++ {
				if r.Features == nil {
					cells = append(cells, "-")
				} else {
					cells = append(cells, r.Features[j])
				}
			}
		}
		if err := setRow(f, i+2, cells); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(sheetName, "A", "A", 30); err != nil {
		return err
	}

	return f.Write(w)
}

func setRow(f *excelize.File, row int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheetName, cell, &cells)
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
