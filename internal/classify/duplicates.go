package classify

import (
	"sort"

	"github.com/shopspring/decimal"

	"trade-reconcile-service/internal/dataset"
	apperrors "trade-reconcile-service/pkg/errors"
)

// DuplicateConfig configures the single-dataset duplicate classifier.
type DuplicateConfig struct {
	// InstrumentColumn and AmountColumn name the grouping columns.
	InstrumentColumn string
	AmountColumn     string

	// MinRepeats is the smallest group size reported. Must be at least 2.
	MinRepeats int

	// RoundTo is the decimal precision applied to amounts before grouping,
	// 0 through 6. Rounding is half away from zero.
	RoundTo int

	// Normalizer reduces instrument cells to group keys. Defaults to
	// NormalizeSuffixedInstrument.
	Normalizer InstrumentNormalizer
}

// Validate checks the configuration against the dataset header.
func (c *DuplicateConfig) Validate(ds *dataset.Dataset) error {
	if c.MinRepeats < 2 {
		return apperrors.InvalidConfig("min_repeats", c.MinRepeats, "must be >= 2")
	}
	if c.RoundTo < 0 || c.RoundTo > 6 {
		return apperrors.InvalidConfig("round_to", c.RoundTo, "must be between 0 and 6")
	}
	if !ds.HasColumn(c.InstrumentColumn) {
		return apperrors.ColumnNotFound(ds.Name, c.InstrumentColumn, ds.Columns())
	}
	if !ds.HasColumn(c.AmountColumn) {
		return apperrors.ColumnNotFound(ds.Name, c.AmountColumn, ds.Columns())
	}
	return nil
}

func (c *DuplicateConfig) normalizer() InstrumentNormalizer {
	if c.Normalizer != nil {
		return c.Normalizer
	}
	return NormalizeSuffixedInstrument
}

// DuplicateGroup is one (instrument, rounded amount) group at or above the
// repeat threshold.
type DuplicateGroup struct {
	Instrument string          `json:"paper_key"`
	Amount     decimal.Decimal `json:"amount"`
	Count      int             `json:"count"`
}

// DuplicateReport holds the classifier output: the group summary plus every
// member row tagged with its group size.
type DuplicateReport struct {
	Groups []DuplicateGroup
	Rows   []dataset.Record

	// RowsParsed counts records with a usable instrument key and amount;
	// rows that fail either coercion are excluded from grouping, not fatal.
	RowsParsed int
}

type dupKey struct {
	instrument string
	amount     string
}

// Duplicates groups records by (instrument, rounded amount) and reports
// groups whose member count reaches MinRepeats. Re-running the classifier
// over its own Rows output with the same precision reproduces the same
// group sizes: rounding is idempotent and membership depends only on the
// group key.
func Duplicates(ds *dataset.Dataset, cfg *DuplicateConfig) (*DuplicateReport, error) {
	if err := cfg.Validate(ds); err != nil {
		return nil, err
	}
	norm := cfg.normalizer()

	type member struct {
		rec    dataset.Record
		key    dupKey
		amount decimal.Decimal
	}

	var members []member
	counts := make(map[dupKey]int)
	amounts := make(map[dupKey]decimal.Decimal)

	for _, rec := range ds.Records() {
		instrument := norm(rec.Value(cfg.InstrumentColumn))
		if instrument == "" {
			continue
		}
		amount, ok := rec.Value(cfg.AmountColumn).AsNumber()
		if !ok {
			continue
		}
		rounded := dataset.Round(amount, int32(cfg.RoundTo))
		k := dupKey{instrument: instrument, amount: rounded.String()}
		counts[k]++
		amounts[k] = rounded
		members = append(members, member{rec: rec, key: k, amount: rounded})
	}

	report := &DuplicateReport{RowsParsed: len(members)}

	for k, n := range counts {
		if n >= cfg.MinRepeats {
			report.Groups = append(report.Groups, DuplicateGroup{
				Instrument: k.instrument,
				Amount:     amounts[k],
				Count:      n,
			})
		}
	}

	// Largest groups first, then by key for a stable order.
	sort.Slice(report.Groups, func(i, j int) bool {
		a, b := report.Groups[i], report.Groups[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.Instrument != b.Instrument {
			return a.Instrument < b.Instrument
		}
		return a.Amount.LessThan(b.Amount)
	})

	flagged := make(map[dupKey]bool, len(report.Groups))
	for _, g := range report.Groups {
		flagged[dupKey{instrument: g.Instrument, amount: g.Amount.String()}] = true
	}

	for _, m := range members {
		if flagged[m.key] {
			report.Rows = append(report.Rows, m.rec.WithColumn("GroupSize",
				dataset.NumberValue(decimal.NewFromInt(int64(counts[m.key])))))
		}
	}

	return report, nil
}
