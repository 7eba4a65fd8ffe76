// Package loader parses raw spreadsheet uploads (xlsx workbooks or CSV
// exports) into read-only datasets. The rest of the engine depends only on
// the dataset abstraction; format handling stays behind the Loader
// interface, one implementation per format.
package loader

import (
	"bytes"
	"path/filepath"
	"strings"

	"trade-reconcile-service/internal/dataset"
	apperrors "trade-reconcile-service/pkg/errors"
	"trade-reconcile-service/pkg/logger"
)

// Loader parses one upload format into a Dataset.
type Loader interface {
	// Load parses raw bytes into a dataset. name is used for error
	// reporting and as the dataset name.
	Load(name string, raw []byte) (*dataset.Dataset, error)
}

// Options control header handling shared by all loaders.
type Options struct {
	// Sheet selects a worksheet by name for workbook formats. Empty means
	// the first sheet.
	Sheet string
}

// ForFile returns the loader matching the uploaded filename, defaulting to
// the workbook loader when the extension is unknown (broker extracts are
// xlsx unless stated otherwise).
func ForFile(filename string, opts Options) Loader {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return NewCSVLoader(opts)
	default:
		return NewXLSXLoader(opts)
	}
}

// Load is the convenience entry point: pick a loader by filename and parse.
func Load(filename string, raw []byte, opts Options) (*dataset.Dataset, error) {
	return ForFile(filename, opts).Load(filename, raw)
}

// buildDataset turns a header row plus raw cell rows into a dataset,
// applying type coercion and skipping blank trailing rows. Shared by the
// CSV and XLSX loaders.
func buildDataset(name string, header []string, rows [][]string) (*dataset.Dataset, error) {
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
	}

	var data [][]dataset.Value
	for _, row := range rows {
		if isBlankRow(row) {
			continue
		}
		values := make([]dataset.Value, len(columns))
		for i := range columns {
			if i < len(row) {
				values[i] = dataset.Coerce(row[i])
			} else {
				values[i] = dataset.Null()
			}
		}
		data = append(data, values)
	}

	if len(data) == 0 {
		return nil, apperrors.EmptyDataset(name)
	}

	logger.Global().WithComponent("loader").WithFields(logger.Fields{
		"name":    name,
		"columns": len(columns),
		"rows":    len(data),
	}).Debug("parsed dataset")

	return dataset.New(name, columns, data), nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// firstNonEmpty returns the index of the first row with any content, or -1
// when every row is blank.
func firstNonEmpty(rows [][]string) int {
	for i, row := range rows {
		if !isBlankRow(row) {
			return i
		}
	}
	return -1
}

// sniffCSV reports whether the payload looks like text rather than a zip
// container, used when the filename extension lies.
func sniffCSV(raw []byte) bool {
	return !bytes.HasPrefix(raw, []byte("PK\x03\x04"))
}
