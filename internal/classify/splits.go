package classify

import (
	"trade-reconcile-service/internal/dataset"
	apperrors "trade-reconcile-service/pkg/errors"
)

// SplitConfig configures the corporate-action reference-list classifier.
type SplitConfig struct {
	// ReferenceISINColumn names the identifier column in the reference
	// (split list) dataset.
	ReferenceISINColumn string

	// SecurityColumn, AccountColumn and QuantityColumn name the daily
	// dataset columns carried into the report.
	SecurityColumn string
	AccountColumn  string
	QuantityColumn string
}

// Validate checks the configuration against both dataset headers.
func (c *SplitConfig) Validate(daily, reference *dataset.Dataset) error {
	if !reference.HasColumn(c.ReferenceISINColumn) {
		return apperrors.ColumnNotFound(reference.Name, c.ReferenceISINColumn, reference.Columns())
	}
	for _, col := range []string{c.SecurityColumn, c.AccountColumn, c.QuantityColumn} {
		if !daily.HasColumn(col) {
			return apperrors.ColumnNotFound(daily.Name, col, daily.Columns())
		}
	}
	return nil
}

// SplitMatch is one daily record whose cleaned security identifier appears
// in the reference list.
type SplitMatch struct {
	ISIN     string        `json:"isin"`
	Account  dataset.Value `json:"account"`
	Quantity dataset.Value `json:"quantity"`
	Security dataset.Value `json:"security_name"`
}

// Splits joins the daily dataset against the reference ISIN set. The daily
// security cell is cleaned to its leading alphanumeric run before lookup;
// cells with no such run never match. An empty intersection is a valid
// empty result, not an error.
func Splits(daily, reference *dataset.Dataset, cfg *SplitConfig) ([]SplitMatch, error) {
	if err := cfg.Validate(daily, reference); err != nil {
		return nil, err
	}

	isins := make(map[string]bool, reference.Len())
	for _, rec := range reference.Records() {
		id := NormalizeSecurityIdentifier(rec.Value(cfg.ReferenceISINColumn))
		if id != "" {
			isins[id] = true
		}
	}

	var matches []SplitMatch
	for _, rec := range daily.Records() {
		id := NormalizeSecurityIdentifier(rec.Value(cfg.SecurityColumn))
		if id == "" || !isins[id] {
			continue
		}
		matches = append(matches, SplitMatch{
			ISIN:     id,
			Account:  rec.Value(cfg.AccountColumn),
			Quantity: rec.Value(cfg.QuantityColumn),
			Security: rec.Value(cfg.SecurityColumn),
		})
	}

	return matches, nil
}
