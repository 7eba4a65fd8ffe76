package classify

import (
	"strings"

	"github.com/shopspring/decimal"

	"trade-reconcile-service/internal/dataset"
	apperrors "trade-reconcile-service/pkg/errors"
)

// ThresholdConfig configures the regulatory amount-threshold classifier.
type ThresholdConfig struct {
	// AmountColumn holds the amount checked against the threshold.
	AmountColumn string

	// Threshold is the flagging limit; records whose absolute amount
	// reaches it are flagged.
	Threshold decimal.Decimal

	// ExclusionEnabled turns on the exclusion filter: records whose
	// ExclusionColumn value (trimmed, upper-cased) is in ExcludedValues
	// are not flagged regardless of amount.
	ExclusionEnabled bool
	ExclusionColumn  string
	ExcludedValues   []string

	// SourceLabel, when set, is prepended to each flagged row as a
	// SourceFile column so merged buckets stay attributable.
	SourceLabel string
}

// Validate checks the configuration against the dataset header.
func (c *ThresholdConfig) Validate(ds *dataset.Dataset) error {
	if c.Threshold.LessThanOrEqual(decimal.Zero) {
		return apperrors.InvalidConfig("threshold", c.Threshold.String(), "must be positive")
	}
	if !ds.HasColumn(c.AmountColumn) {
		return apperrors.ColumnNotFound(ds.Name, c.AmountColumn, ds.Columns())
	}
	if c.ExclusionEnabled {
		if c.ExclusionColumn == "" {
			return apperrors.InvalidConfig("exclusion_column", "",
				"exclusion filter enabled but no column mapped")
		}
		// A missing exclusion column disables the filter rather than
		// failing the run; the column set varies between daily extracts.
	}
	return nil
}

// Threshold flags every record whose amount (absolute value after numeric
// coercion) is at or above the configured threshold, minus exclusions.
//
// Coercion policy: a record whose amount cell cannot be coerced to a
// number is skipped, never flagged and never an error. Regulatory review
// of unparseable rows belongs to the duplicate/parse tooling, not this
// classifier.
func Threshold(ds *dataset.Dataset, cfg *ThresholdConfig) ([]dataset.Record, error) {
	if err := cfg.Validate(ds); err != nil {
		return nil, err
	}

	excluded := make(map[string]bool, len(cfg.ExcludedValues))
	for _, v := range cfg.ExcludedValues {
		v = strings.ToUpper(strings.TrimSpace(v))
		if v != "" {
			excluded[v] = true
		}
	}
	applyExclusion := cfg.ExclusionEnabled && len(excluded) > 0 && ds.HasColumn(cfg.ExclusionColumn)

	var flagged []dataset.Record
	for _, rec := range ds.Records() {
		amount, ok := rec.Value(cfg.AmountColumn).AsNumber()
		if !ok {
			continue
		}
		if amount.Abs().LessThan(cfg.Threshold) {
			continue
		}
		if applyExclusion {
			key := strings.ToUpper(strings.TrimSpace(rec.Value(cfg.ExclusionColumn).String()))
			if excluded[key] {
				continue
			}
		}
		if cfg.SourceLabel != "" {
			rec = rec.WithColumn("SourceFile", dataset.TextValue(cfg.SourceLabel))
		}
		flagged = append(flagged, rec)
	}

	return flagged, nil
}
