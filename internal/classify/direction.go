package classify

import (
	"sort"

	"trade-reconcile-service/internal/dataset"
	apperrors "trade-reconcile-service/pkg/errors"
)

// DirectionConfig configures the instrument/direction classifier, which
// compares declared operation types in one export against trade sides in
// the other under a configured equivalence mapping.
type DirectionConfig struct {
	InstrumentColumn1 string
	OperationColumn1  string
	InstrumentColumn2 string
	SideColumn2       string

	// OperationMap and SideMap translate each side's vocabulary into
	// canonical direction labels. They are pure configuration; the
	// classifier carries no vocabulary of its own.
	OperationMap DirectionMap
	SideMap      DirectionMap

	Normalizer1 InstrumentNormalizer
	Normalizer2 InstrumentNormalizer
}

// Validate checks the configuration against both dataset headers.
func (c *DirectionConfig) Validate(ds1, ds2 *dataset.Dataset) error {
	if len(c.OperationMap.Entries) == 0 || len(c.SideMap.Entries) == 0 {
		return apperrors.InvalidConfig("direction_map", "",
			"operation and side equivalence tables must be supplied")
	}
	for _, col := range []struct {
		ds   *dataset.Dataset
		name string
	}{
		{ds1, c.InstrumentColumn1},
		{ds1, c.OperationColumn1},
		{ds2, c.InstrumentColumn2},
		{ds2, c.SideColumn2},
	} {
		if !col.ds.HasColumn(col.name) {
			return apperrors.ColumnNotFound(col.ds.Name, col.name, col.ds.Columns())
		}
	}
	return nil
}

// DirectionRow is one (instrument, direction) key with its per-file counts.
type DirectionRow struct {
	Instrument string `json:"instrument_key"`
	Direction  string `json:"direction"`
	CountFile1 int    `json:"count_file1"`
	CountFile2 int    `json:"count_file2"`
	Diff       int    `json:"diff_file1_minus_file2"`
}

// DirectionReport is the classifier output: the full per-key summary plus
// the subset whose counts disagree.
type DirectionReport struct {
	Summary    []DirectionRow
	Mismatches []DirectionRow

	RowsResolved1 int
	RowsResolved2 int
}

type directionKey struct {
	instrument string
	direction  string
}

// Direction resolves each record to an (instrument, canonical direction)
// key per the configured equivalence tables and compares per-key counts
// across the two datasets. Records whose instrument or direction cannot be
// resolved are skipped. Keys whose counts differ are reported as
// mismatches.
func Direction(ds1, ds2 *dataset.Dataset, cfg *DirectionConfig) (*DirectionReport, error) {
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

	counts1 := make(map[directionKey]int)
	resolved1 := 0
	for _, rec := range ds1.Records() {
		instrument := norm1(rec.Value(cfg.InstrumentColumn1))
		direction := cfg.OperationMap.Resolve(rec.Value(cfg.OperationColumn1))
		if instrument == "" || direction == "" {
			continue
		}
		counts1[directionKey{instrument, direction}]++
		resolved1++
	}

	counts2 := make(map[directionKey]int)
	resolved2 := 0
	for _, rec := range ds2.Records() {
		instrument := norm2(rec.Value(cfg.InstrumentColumn2))
		direction := cfg.SideMap.Resolve(rec.Value(cfg.SideColumn2))
		if instrument == "" || direction == "" {
			continue
		}
		counts2[directionKey{instrument, direction}]++
		resolved2++
	}

	keys := make(map[directionKey]bool, len(counts1)+len(counts2))
	for k := range counts1 {
		keys[k] = true
	}
	for k := range counts2 {
		keys[k] = true
	}

	report := &DirectionReport{RowsResolved1: resolved1, RowsResolved2: resolved2}
	for k := range keys {
		row := DirectionRow{
			Instrument: k.instrument,
			Direction:  k.direction,
			CountFile1: counts1[k],
			CountFile2: counts2[k],
			Diff:       counts1[k] - counts2[k],
		}
		report.Summary = append(report.Summary, row)
		if row.Diff != 0 {
			report.Mismatches = append(report.Mismatches, row)
		}
	}

	byKey := func(rows []DirectionRow) func(i, j int) bool {
		return func(i, j int) bool {
			if rows[i].Instrument != rows[j].Instrument {
				return rows[i].Instrument < rows[j].Instrument
			}
			return rows[i].Direction < rows[j].Direction
		}
	}
	sort.Slice(report.Summary, byKey(report.Summary))
	sort.Slice(report.Mismatches, byKey(report.Mismatches))

	return report, nil
}

// DefaultOperationMap returns the equivalence table for the back-office
// operation-type vocabulary: debit phrasings map to "debit", credit
// phrasings to "credit".
func DefaultOperationMap() DirectionMap {
	return DirectionMap{Entries: []DirectionEntry{
		{Key: "спис", Match: MatchContains, Direction: "debit"},
		{Key: "зачис", Match: MatchContains, Direction: "credit"},
		{Key: "debit", Match: MatchContains, Direction: "debit"},
		{Key: "credit", Match: MatchContains, Direction: "credit"},
	}}
}

// DefaultSideMap returns the equivalence table for trade sides: buys debit
// cash, sells credit it.
func DefaultSideMap() DirectionMap {
	return DirectionMap{Entries: []DirectionEntry{
		{Key: "buy", Match: MatchExact, Direction: "debit"},
		{Key: "sell", Match: MatchExact, Direction: "credit"},
		{Key: "long", Match: MatchExact, Direction: "debit"},
		{Key: "short", Match: MatchExact, Direction: "credit"},
	}}
}
