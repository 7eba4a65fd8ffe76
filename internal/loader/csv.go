package loader

import (
	"bytes"
	"encoding/csv"
	"io"
	"unicode/utf8"

	"trade-reconcile-service/internal/dataset"
	apperrors "trade-reconcile-service/pkg/errors"
)

// CSVLoader parses comma-separated exports. The first non-empty row is the
// header; subsequent rows are data.
type CSVLoader struct {
	opts Options
}

// NewCSVLoader creates a CSV loader.
func NewCSVLoader(opts Options) *CSVLoader {
	return &CSVLoader{opts: opts}
}

// Load implements Loader.
func (l *CSVLoader) Load(name string, raw []byte) (*dataset.Dataset, error) {
	if !utf8.Valid(raw) {
		return nil, apperrors.New(apperrors.CategoryParse, apperrors.CodeBadEncoding,
			"file is not valid UTF-8 text").
			WithSuggestion("save the export in UTF-8 encoding").
			WithContext("source", name)
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.ParseError(name, err)
		}
		rows = append(rows, record)
	}

	start := firstNonEmpty(rows)
	if start == -1 {
		return nil, apperrors.EmptyDataset(name)
	}

	return buildDataset(name, rows[start], rows[start+1:])
}
