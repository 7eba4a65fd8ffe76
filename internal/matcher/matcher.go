package matcher

import (
	"trade-reconcile-service/internal/dataset"
	"trade-reconcile-service/pkg/logger"
)

// Pair is one matched record pair.
type Pair struct {
	Key     string
	Record1 dataset.Record
	Record2 dataset.Record
}

// Result is the partition produced by Match. For any two inputs,
// matches plus unmatched cover each dataset exactly once.
type Result struct {
	Matches    []Pair
	Unmatched1 []dataset.Record
	Unmatched2 []dataset.Record
}

// Match joins ds1 against ds2 on the mapped id columns.
//
// It builds a hash index of ds2 keyed by normalized id in one O(m) pass,
// then scans ds1 once. A hit consumes the first remaining ds2 record under
// the key (first-match-wins on duplicate ids; duplicate handling stays
// visible to the caller through the duplicate classifiers rather than being
// silently collapsed here). Leftover ds1 records become Unmatched1,
// unconsumed index entries become Unmatched2 in original order.
//
// The mapping must have been validated against both datasets beforehand.
func Match(ds1, ds2 *dataset.Dataset, mapping *ColumnMapping) *Result {
	// Index of ds2: key -> FIFO of record positions still available.
	index := make(map[string][]int, ds2.Len())
	records2 := ds2.Records()
	for i, rec := range records2 {
		k := mapping.Key2(rec)
		index[k] = append(index[k], i)
	}

	result := &Result{}
	consumed := make([]bool, len(records2))

	for _, rec := range ds1.Records() {
		k := mapping.Key1(rec)
		queue := index[k]
		if k == "" || len(queue) == 0 {
			result.Unmatched1 = append(result.Unmatched1, rec)
			continue
		}
		pos := queue[0]
		index[k] = queue[1:]
		consumed[pos] = true
		result.Matches = append(result.Matches, Pair{
			Key:     k,
			Record1: rec,
			Record2: records2[pos],
		})
	}

	for i, rec := range records2 {
		if !consumed[i] {
			result.Unmatched2 = append(result.Unmatched2, rec)
		}
	}

	logger.Global().WithComponent("matcher").WithFields(logger.Fields{
		"matches":    len(result.Matches),
		"unmatched1": len(result.Unmatched1),
		"unmatched2": len(result.Unmatched2),
	}).Debug("join complete")

	return result
}
