package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/careerpulse/cohortsim/sim/cohort"
)

// SheetName is the worksheet that holds the cohort.
const SheetName = "cohort"

// WriteXLSX streams the cohort into a single worksheet with a header row.
// Numbers and bools keep their cell types; dates are written as YYYY-MM-DD text.
func WriteXLSX(w io.Writer, c *cohort.Cohort) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("opening stream writer: %w", err)
	}

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("writing xlsx header: %w", err)
	}

	for i := range c.Records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, xlsxRow(&c.Records[i])); err != nil {
			return fmt.Errorf("writing xlsx row %d: %w", i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flushing xlsx stream: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing xlsx: %w", err)
	}
	return nil
}

func xlsxRow(r *cohort.StudentRecord) []any {
	row := values(r)
	row[5] = r.RegisteredOn.Format(cohort.DateLayout)
	if row[16] == nil {
		row[16] = ""
	}
	return row
}
