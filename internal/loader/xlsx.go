package loader

import (
	"bytes"

	"github.com/xuri/excelize/v2"

	"trade-reconcile-service/internal/dataset"
	apperrors "trade-reconcile-service/pkg/errors"
)

// XLSXLoader parses Excel workbooks via excelize. When no sheet is selected
// it reads the first worksheet.
type XLSXLoader struct {
	opts Options
}

// NewXLSXLoader creates a workbook loader.
func NewXLSXLoader(opts Options) *XLSXLoader {
	return &XLSXLoader{opts: opts}
}

// Load implements Loader.
func (l *XLSXLoader) Load(name string, raw []byte) (*dataset.Dataset, error) {
	// Mislabelled CSV uploads are common enough to be worth a sniff.
	if sniffCSV(raw) {
		return NewCSVLoader(l.opts).Load(name, raw)
	}

	book, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, apperrors.ParseError(name, err)
	}
	defer book.Close()

	sheet := l.opts.Sheet
	if sheet == "" {
		sheet = book.GetSheetName(0)
	}
	if sheet == "" {
		return nil, apperrors.EmptyDataset(name)
	}

	rows, err := book.GetRows(sheet)
	if err != nil {
		return nil, apperrors.ParseError(name, err).WithContext("sheet", sheet)
	}

	start := firstNonEmpty(rows)
	if start == -1 {
		return nil, apperrors.EmptyDataset(name)
	}

	return buildDataset(name, rows[start], rows[start+1:])
}
