package classify

import (
	"strings"

	"trade-reconcile-service/internal/dataset"
	apperrors "trade-reconcile-service/pkg/errors"
)

// KeywordConfig configures the keyword classifier used for crypto-related
// flagging.
type KeywordConfig struct {
	// Column is the text column searched for keywords.
	Column string

	// Keywords are matched as case-insensitive substrings. An empty list
	// yields an empty result, never "flag everything".
	Keywords []string

	// SourceLabel, when set, is prepended to flagged rows as a SourceFile
	// column.
	SourceLabel string
}

// Validate checks the configuration against the dataset header.
func (c *KeywordConfig) Validate(ds *dataset.Dataset) error {
	if !ds.HasColumn(c.Column) {
		return apperrors.ColumnNotFound(ds.Name, c.Column, ds.Columns())
	}
	return nil
}

// Keyword flags every record whose target column contains any of the
// configured keywords, case-insensitively.
func Keyword(ds *dataset.Dataset, cfg *KeywordConfig) ([]dataset.Record, error) {
	if err := cfg.Validate(ds); err != nil {
		return nil, err
	}

	var needles []string
	for _, kw := range cfg.Keywords {
		kw = strings.ToUpper(strings.TrimSpace(kw))
		if kw != "" {
			needles = append(needles, kw)
		}
	}
	if len(needles) == 0 {
		return nil, nil
	}

	var flagged []dataset.Record
	for _, rec := range ds.Records() {
		haystack := strings.ToUpper(rec.Value(cfg.Column).String())
		if haystack == "" {
			continue
		}
		for _, needle := range needles {
			if strings.Contains(haystack, needle) {
				if cfg.SourceLabel != "" {
					rec = rec.WithColumn("SourceFile", dataset.TextValue(cfg.SourceLabel))
				}
				flagged = append(flagged, rec)
				break
			}
		}
	}

	return flagged, nil
}
