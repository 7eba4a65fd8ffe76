// Package classify holds the stateless classifiers of the reconciliation
// pipeline. Each classifier consumes one or two datasets plus its own
// validated configuration and produces a named bucket of flagged records;
// none of them keeps state between calls or reads ambient configuration.
package classify

import (
	"regexp"
	"strings"

	"trade-reconcile-service/internal/dataset"
)

// InstrumentNormalizer reduces an instrument cell to a comparable ticker
// key. Normalizers return "" for cells they cannot interpret; classifiers
// skip such rows.
type InstrumentNormalizer func(dataset.Value) string

var (
	keepAlnumDash = regexp.MustCompile(`[^A-Z0-9\-]`)
	bracketPrefix = regexp.MustCompile(`^\[[^\]]+\]`)
)

// NormalizeSuffixedInstrument handles the back-office export convention
// "US91324P1021___UNH US": the ticker follows a triple underscore and runs
// to the first space.
func NormalizeSuffixedInstrument(v dataset.Value) string {
	s := strings.TrimSpace(v.String())
	if s == "" {
		return ""
	}
	if idx := strings.Index(s, "___"); idx >= 0 {
		s = strings.TrimSpace(s[idx+3:])
	}
	if fields := strings.Fields(s); len(fields) > 0 {
		s = fields[0]
	}
	return keepAlnumDash.ReplaceAllString(strings.ToUpper(s), "")
}

// NormalizeBracketedInstrument handles the trading-platform convention
// "[EQ]UNH.NYSE.TOM": a bracketed asset-class prefix, then the ticker up
// to the first dot.
func NormalizeBracketedInstrument(v dataset.Value) string {
	s := strings.TrimSpace(v.String())
	if s == "" {
		return ""
	}
	s = strings.TrimSpace(bracketPrefix.ReplaceAllString(s, ""))
	if idx := strings.Index(s, "."); idx >= 0 {
		s = s[:idx]
	}
	return keepAlnumDash.ReplaceAllString(strings.ToUpper(strings.TrimSpace(s)), "")
}

var leadingIdentifier = regexp.MustCompile(`^[A-Z0-9]+`)

// NormalizeSecurityIdentifier extracts the leading identifier run (an ISIN
// or ticker) from a security cell, for reference-list joins.
func NormalizeSecurityIdentifier(v dataset.Value) string {
	return leadingIdentifier.FindString(strings.TrimSpace(v.String()))
}

// DirectionMap translates side/operation vocabulary into a canonical
// direction label. Keys are matched case-insensitively; substring keys
// (Match = MatchContains) match anywhere in the cell, which covers verbose
// operation-type phrasing. The concrete table is external configuration,
// never hard-coded in a classifier.
type DirectionMap struct {
	Entries []DirectionEntry
}

// MatchMode selects how a DirectionEntry key is compared.
type MatchMode int

const (
	// MatchExact compares the whole trimmed, folded cell.
	MatchExact MatchMode = iota
	// MatchContains looks for the key as a substring.
	MatchContains
)

// DirectionEntry maps one vocabulary token to a canonical direction.
type DirectionEntry struct {
	Key       string
	Match     MatchMode
	Direction string
}

// Resolve maps a cell to its canonical direction, or "" when no entry
// applies.
func (m *DirectionMap) Resolve(v dataset.Value) string {
	s := strings.ToLower(strings.TrimSpace(v.String()))
	if s == "" {
		return ""
	}
	for _, e := range m.Entries {
		key := strings.ToLower(e.Key)
		switch e.Match {
		case MatchContains:
			if strings.Contains(s, key) {
				return e.Direction
			}
		default:
			if s == key {
				return e.Direction
			}
		}
	}
	return ""
}
