package classify

import (
	"sort"

	"github.com/shopspring/decimal"

	"trade-reconcile-service/internal/dataset"
	apperrors "trade-reconcile-service/pkg/errors"
)

// CrossFileConfig configures the two-dataset amount/instrument classifier.
type CrossFileConfig struct {
	InstrumentColumn1 string
	AmountColumn1     string
	InstrumentColumn2 string
	AmountColumn2     string

	// RoundTo is the decimal precision applied to both sides before
	// grouping, 0 through 6.
	RoundTo int

	// Normalizer1 and Normalizer2 reduce instrument cells to keys per
	// side. Defaults: suffixed convention on side 1, bracketed on side 2.
	Normalizer1 InstrumentNormalizer
	Normalizer2 InstrumentNormalizer
}

// Validate checks the configuration against both dataset headers.
func (c *CrossFileConfig) Validate(ds1, ds2 *dataset.Dataset) error {
	if c.RoundTo < 0 || c.RoundTo > 6 {
		return apperrors.InvalidConfig("round_to", c.RoundTo, "must be between 0 and 6")
	}
	for _, col := range []struct {
		ds   *dataset.Dataset
		name string
	}{
		{ds1, c.InstrumentColumn1},
		{ds1, c.AmountColumn1},
		{ds2, c.InstrumentColumn2},
		{ds2, c.AmountColumn2},
	} {
		if !col.ds.HasColumn(col.name) {
			return apperrors.ColumnNotFound(col.ds.Name, col.name, col.ds.Columns())
		}
	}
	return nil
}

// CrossFileDiscrepancy is a grouped (instrument, rounded amount) key that
// appears in exactly one of the two datasets.
type CrossFileDiscrepancy struct {
	Instrument string          `json:"paper_key"`
	Amount     decimal.Decimal `json:"amount"`
	CountFile1 int             `json:"count_file1"`
	CountFile2 int             `json:"count_file2"`
}

// CrossFileReport is the classifier output.
type CrossFileReport struct {
	Discrepancies []CrossFileDiscrepancy

	RowsParsed1 int
	RowsParsed2 int
}

// CrossFile groups each dataset independently by (instrument, rounded
// amount) and reports the set difference over grouped keys. A key present
// on both sides is never flagged, even when the per-group row counts
// differ; this is a comparison of grouped key sets, not a positional row
// comparison. Rounding uses the same precision on both sides.
func CrossFile(ds1, ds2 *dataset.Dataset, cfg *CrossFileConfig) (*CrossFileReport, error) {
	if err := cfg.Validate(ds1, ds2); err != nil {
		return nil, err
	}

	norm1 := cfg.Normalizer1
	if norm1 == nil {
		norm1 = NormalizeSuffixedInstrument
	}
	norm2 := cfg.Normalizer2
	if norm2 == nil {
		norm2 = NormalizeBracketedInstrument
	}

	counts1, parsed1 := groupAmounts(ds1, cfg.InstrumentColumn1, cfg.AmountColumn1, norm1, cfg.RoundTo)
	counts2, parsed2 := groupAmounts(ds2, cfg.InstrumentColumn2, cfg.AmountColumn2, norm2, cfg.RoundTo)

	report := &CrossFileReport{RowsParsed1: parsed1, RowsParsed2: parsed2}

	for k, g := range counts1 {
		if _, ok := counts2[k]; !ok {
			report.Discrepancies = append(report.Discrepancies, CrossFileDiscrepancy{
				Instrument: k.instrument,
				Amount:     g.amount,
				CountFile1: g.count,
			})
		}
	}
	for k, g := range counts2 {
		if _, ok := counts1[k]; !ok {
			report.Discrepancies = append(report.Discrepancies, CrossFileDiscrepancy{
				Instrument: k.instrument,
				Amount:     g.amount,
				CountFile2: g.count,
			})
		}
	}

	sort.Slice(report.Discrepancies, func(i, j int) bool {
		a, b := report.Discrepancies[i], report.Discrepancies[j]
		if a.Instrument != b.Instrument {
			return a.Instrument < b.Instrument
		}
		return a.Amount.LessThan(b.Amount)
	})

	return report, nil
}

type amountGroup struct {
	amount decimal.Decimal
	count  int
}

func groupAmounts(ds *dataset.Dataset, instrumentCol, amountCol string, norm InstrumentNormalizer, roundTo int) (map[dupKey]amountGroup, int) {
	groups := make(map[dupKey]amountGroup)
	parsed := 0
	for _, rec := range ds.Records() {
		instrument := norm(rec.Value(instrumentCol))
		if instrument == "" {
			continue
		}
		amount, ok := rec.Value(amountCol).AsNumber()
		if !ok {
			continue
		}
		parsed++
		rounded := dataset.Round(amount, int32(roundTo))
		k := dupKey{instrument: instrument, amount: rounded.String()}
		g := groups[k]
		g.amount = rounded
		g.count++
		groups[k] = g
	}
	return groups, parsed
}
