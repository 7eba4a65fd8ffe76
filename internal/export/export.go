// Package export renders reconciliation results as xlsx workbooks, one
// sheet per result bucket.
package export

import (
	"github.com/xuri/excelize/v2"

	"trade-reconcile-service/internal/dataset"
	apperrors "trade-reconcile-service/pkg/errors"
)

// Excel rejects sheet names longer than 31 characters.
const maxSheetName = 31

// Sheet is one workbook sheet: a header plus display rows.
type Sheet struct {
	Name    string
	Columns []string
	Rows    [][]dataset.Value
}

// Empty reports whether the sheet has no data rows.
func (s Sheet) Empty() bool {
	return len(s.Rows) == 0
}

// RecordSheet builds a sheet from classifier output rows. The first record
// defines the column order; rows render each cell under that order, so
// tagged rows keep their prepended columns.
func RecordSheet(name string, records []dataset.Record) Sheet {
	sheet := Sheet{Name: name}
	if len(records) == 0 {
		return sheet
	}
	sheet.Columns = records[0].Columns()
	for _, rec := range records {
		row := make([]dataset.Value, len(sheet.Columns))
		for i, col := range sheet.Columns {
			row[i] = rec.Value(col)
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet
}

// Workbook renders the sheets into xlsx bytes in the order given. Sheet
// names are clamped to the xlsx limit; cell values keep their source
// types so amounts stay numeric in the output.
func Workbook(sheets []Sheet) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		name := sheet.Name
		if len(name) > maxSheetName {
			name = name[:maxSheetName]
		}

		if i == 0 {
			// Rename the default sheet instead of leaving it empty.
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return nil, apperrors.ExportError(err)
			}
		} else {
			if _, err := f.NewSheet(name); err != nil {
				return nil, apperrors.ExportError(err)
			}
		}

		if err := writeSheet(f, name, sheet); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, apperrors.ExportError(err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, name string, sheet Sheet) error {
	for i, col := range sheet.Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return apperrors.ExportError(err)
		}
		if err := f.SetCellValue(name, cell, col); err != nil {
			return apperrors.ExportError(err)
		}
	}

	for r, row := range sheet.Rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return apperrors.ExportError(err)
			}
			if err := f.SetCellValue(name, cell, cellValue(v)); err != nil {
				return apperrors.ExportError(err)
			}
		}
	}
	return nil
}

// cellValue maps a typed cell to what excelize should write: numbers stay
// numeric, everything else renders as its display string.
func cellValue(v dataset.Value) interface{} {
	switch v.Kind {
	case dataset.KindNumber:
		f, _ := v.Number.Float64()
		return f
	default:
		return v.String()
	}
}
