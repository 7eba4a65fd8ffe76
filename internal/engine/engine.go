// Package engine orchestrates a full two-file reconciliation: it cleans
// both datasets, runs the regulatory classifiers, joins on the mapped id
// columns, and assembles an immutable report.
package engine

import (
	"context"
	"sort"

	"trade-reconcile-service/internal/classify"
	"trade-reconcile-service/internal/dataset"
	"trade-reconcile-service/internal/matcher"
	"trade-reconcile-service/internal/settings"
	"trade-reconcile-service/pkg/logger"
)

// CompareRequest carries everything one compare invocation needs. The
// engine holds no state between invocations; two identical requests yield
// identical reports.
type CompareRequest struct {
	File1 *dataset.Dataset
	File2 *dataset.Dataset

	// Label1 and Label2 are the display names used for source-file tags.
	Label1 string
	Label2 string

	Mapping  matcher.ColumnMapping
	Settings settings.Bundle
}

// AccountCount is one per-account row count in the report summary.
type AccountCount struct {
	Account string `json:"account"`
	Count   int    `json:"count"`
}

// Report is the assembled result of a compare invocation. It is not
// modified after Compare returns.
type Report struct {
	Matches    []dataset.Record `json:"matches"`
	Unmatched1 []dataset.Record `json:"unmatched1"`
	Unmatched2 []dataset.Record `json:"unmatched2"`

	// Duplicates1 and Duplicates2 hold every record whose id occurs more
	// than once in its own file, computed before the join so first-match
	// pairing never hides a doubled id.
	Duplicates1 []dataset.Record `json:"duplicates1"`
	Duplicates2 []dataset.Record `json:"duplicates2"`

	PodftFlagged  []dataset.Record `json:"podft_flagged"`
	CryptoFlagged []dataset.Record `json:"crypto_flagged"`

	Summary1 []AccountCount `json:"summary1"`
	Summary2 []AccountCount `json:"summary2"`

	// FoundOverlaps lists the configured overlap accounts actually present
	// in either file. Records under those accounts are excluded from every
	// bucket above except the duplicate ones.
	FoundOverlaps []string `json:"found_overlaps"`
}

// Engine runs compare invocations.
type Engine struct {
	log logger.Logger
}

// New creates an engine.
func New(log logger.Logger) *Engine {
	if log == nil {
		log = logger.Global()
	}
	return &Engine{log: log.WithComponent("engine")}
}

// Compare validates the request, cleans both datasets, and produces the
// report. Cleaning order matters and mirrors the operational procedure:
// empty-id rows are dropped first, duplicate ids are collected next (still
// including overlap accounts, so a doubled id on an excluded account stays
// visible), then overlap accounts are removed before the threshold and
// keyword checks and the join.
func (e *Engine) Compare(ctx context.Context, req CompareRequest) (*Report, error) {
	if err := req.Mapping.Validate(req.File1, req.File2); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ds1 := dropEmptyIDs(req.File1, req.Mapping.IDColumn1)
	ds2 := dropEmptyIDs(req.File2, req.Mapping.IDColumn2)

	e.log.WithFields(logger.Fields{
		"file1_rows": ds1.Len(),
		"file2_rows": ds2.Len(),
	}).Info("datasets cleaned")

	report := &Report{
		Duplicates1: duplicateIDs(ds1, req.Mapping.IDColumn1),
		Duplicates2: duplicateIDs(ds2, req.Mapping.IDColumn2),
	}

	overlaps := newOverlapSet(req.Settings.OverlapAccounts)
	ds1, ds2 = overlaps.apply(report, ds1, ds2, req.Mapping)

	if err := e.runClassifiers(report, ds1, ds2, req); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	join := matcher.Match(ds1, ds2, &req.Mapping)
	for _, pair := range join.Matches {
		report.Matches = append(report.Matches, pair.Record1)
	}
	report.Unmatched1 = join.Unmatched1
	report.Unmatched2 = join.Unmatched2

	report.Summary1 = accountCounts(ds1, req.Mapping.AccountColumn1)
	report.Summary2 = accountCounts(ds2, req.Mapping.AccountColumn2)

	e.log.WithFields(logger.Fields{
		"matches":    len(report.Matches),
		"unmatched1": len(report.Unmatched1),
		"unmatched2": len(report.Unmatched2),
		"duplicates": len(report.Duplicates1) + len(report.Duplicates2),
	}).Info("compare complete")

	return report, nil
}

// runClassifiers executes the threshold and keyword checks over both
// cleaned datasets. A dataset missing the configured classifier column is
// skipped with a warning rather than failing the whole run; the column set
// of daily exports varies.
func (e *Engine) runClassifiers(report *Report, ds1, ds2 *dataset.Dataset, req CompareRequest) error {
	threshold, err := req.Settings.ThresholdAmount()
	if err != nil {
		return err
	}

	sides := []struct {
		ds    *dataset.Dataset
		label string
	}{
		{ds1, req.Label1},
		{ds2, req.Label2},
	}

	for _, side := range sides {
		if !side.ds.HasColumn(req.Settings.PodftSumColumn) {
			e.log.WithField("column", req.Settings.PodftSumColumn).
				Warnf("threshold column missing in %s, check skipped", side.label)
			continue
		}
		flagged, err := classify.Threshold(side.ds, &classify.ThresholdConfig{
			AmountColumn:     req.Settings.PodftSumColumn,
			Threshold:        threshold,
			ExclusionEnabled: req.Settings.PodftFilterEnabled,
			ExclusionColumn:  req.Settings.PodftFilterColumn,
			ExcludedValues:   req.Settings.ExcludedMarkets(),
			SourceLabel:      side.label,
		})
		if err != nil {
			return err
		}
		report.PodftFlagged = append(report.PodftFlagged, flagged...)
	}

	if !req.Settings.CryptoEnabled {
		return nil
	}
	for _, side := range sides {
		if !side.ds.HasColumn(req.Settings.CryptoColumn) {
			continue
		}
		flagged, err := classify.Keyword(side.ds, &classify.KeywordConfig{
			Column:      req.Settings.CryptoColumn,
			Keywords:    req.Settings.CryptoKeywords,
			SourceLabel: side.label,
		})
		if err != nil {
			return err
		}
		report.CryptoFlagged = append(report.CryptoFlagged, flagged...)
	}

	return nil
}

// dropEmptyIDs removes rows whose id cell normalizes to the empty string.
func dropEmptyIDs(ds *dataset.Dataset, idColumn string) *dataset.Dataset {
	return ds.Filter(func(rec dataset.Record) bool {
		return dataset.NormalizeKey(rec.Value(idColumn)) != ""
	})
}

// duplicateIDs returns every record whose normalized id occurs more than
// once in the dataset, ordered by id then original position.
func duplicateIDs(ds *dataset.Dataset, idColumn string) []dataset.Record {
	counts := make(map[string]int, ds.Len())
	for _, rec := range ds.Records() {
		counts[dataset.NormalizeKey(rec.Value(idColumn))]++
	}

	type member struct {
		id  string
		pos int
		rec dataset.Record
	}
	var members []member
	for i, rec := range ds.Records() {
		id := dataset.NormalizeKey(rec.Value(idColumn))
		if counts[id] > 1 {
			members = append(members, member{id: id, pos: i, rec: rec})
		}
	}

	sort.SliceStable(members, func(i, j int) bool {
		return members[i].id < members[j].id
	})

	out := make([]dataset.Record, 0, len(members))
	for _, m := range members {
		out = append(out, m.rec)
	}
	return out
}

// accountCounts groups the dataset by normalized account number.
func accountCounts(ds *dataset.Dataset, accountColumn string) []AccountCount {
	if accountColumn == "" || !ds.HasColumn(accountColumn) {
		return nil
	}

	counts := make(map[string]int)
	for _, rec := range ds.Records() {
		acc := dataset.ExtractDigits(rec.Value(accountColumn))
		if acc == "" {
			continue
		}
		counts[acc]++
	}

	out := make([]AccountCount, 0, len(counts))
	for acc, n := range counts {
		out = append(out, AccountCount{Account: acc, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Account < out[j].Account
	})
	return out
}

type overlapSet map[string]bool

func newOverlapSet(accounts []string) overlapSet {
	set := make(overlapSet, len(accounts))
	for _, a := range accounts {
		if a != "" {
			set[a] = true
		}
	}
	return set
}

// apply records which overlap accounts appear in either dataset and
// returns both datasets with those accounts' records removed.
func (s overlapSet) apply(report *Report, ds1, ds2 *dataset.Dataset, mapping matcher.ColumnMapping) (*dataset.Dataset, *dataset.Dataset) {
	if len(s) == 0 {
		return ds1, ds2
	}

	found := make(map[string]bool)
	filter := func(ds *dataset.Dataset, accountColumn string) *dataset.Dataset {
		if accountColumn == "" || !ds.HasColumn(accountColumn) {
			return ds
		}
		return ds.Filter(func(rec dataset.Record) bool {
			acc := dataset.ExtractDigits(rec.Value(accountColumn))
			if s[acc] {
				found[acc] = true
				return false
			}
			return true
		})
	}

	ds1 = filter(ds1, mapping.AccountColumn1)
	ds2 = filter(ds2, mapping.AccountColumn2)

	for acc := range found {
		report.FoundOverlaps = append(report.FoundOverlaps, acc)
	}
	sort.Strings(report.FoundOverlaps)
	return ds1, ds2
}
