package dataset

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var amountJunk = regexp.MustCompile(`[^0-9\-.,]`)

// ParseAmount parses a decimal amount out of messy spreadsheet text.
// It strips currency symbols, regular and non-breaking spaces, and handles
// both "1,234.56" and "1234,56" separator conventions.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string is empty")
	}

	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	s = amountJunk.ReplaceAllString(s, "")
	if s == "" || s == "-" {
		return decimal.Zero, fmt.Errorf("no digits in amount")
	}

	if strings.Contains(s, ",") && strings.Contains(s, ".") {
		// "1,234.56": comma is a thousands separator
		s = strings.ReplaceAll(s, ",", "")
	} else {
		// "1234,56": comma is the decimal separator
		s = strings.ReplaceAll(s, ",", ".")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	return d, nil
}

// dateFormats are tried in order when coercing cell text to a date.
var dateFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02.01.2006",
	"01/02/2006",
	"2006/01/02",
}

// ParseDate attempts to parse a date from cell text using the common
// formats seen in broker exports.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date string is empty")
	}

	var lastErr error
	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date %q: %w", s, lastErr)
}

var looksNumeric = regexp.MustCompile(`^-?[0-9][0-9\s .,]*$`)
var looksDate = regexp.MustCompile(`^\d{4}[-/]\d{2}[-/]\d{2}([T ].*)?$|^\d{2}\.\d{2}\.\d{4}$`)

// Coerce converts raw cell text to a typed Value: recognizable numbers
// become numbers, recognizable dates become dates, everything else stays
// text. Empty text becomes null.
func Coerce(raw string) Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Null()
	}

	if looksDate.MatchString(s) {
		if t, err := ParseDate(s); err == nil {
			return DateValue(t)
		}
	}

	if looksNumeric.MatchString(s) {
		if d, err := ParseAmount(s); err == nil {
			return NumberValue(d)
		}
	}

	return TextValue(s)
}

var floatArtifact = regexp.MustCompile(`\.0$`)

// NormalizeKey normalizes a cell for use as a join key: trimmed, upper
// cased, with the ".0" suffix spreadsheet tools append to numeric ids
// stripped.
func NormalizeKey(v Value) string {
	s := strings.TrimSpace(v.String())
	s = floatArtifact.ReplaceAllString(s, "")
	return strings.ToUpper(s)
}

var digitsRun = regexp.MustCompile(`\d+`)

// ExtractDigits returns the first run of digits in the cell, used to
// normalize account numbers that carry textual decoration. Returns the
// empty string when the cell holds no digits.
func ExtractDigits(v Value) string {
	return digitsRun.FindString(v.String())
}

// Round rounds a decimal to the given number of places using
// half-away-from-zero, the convention applied to every amount comparison
// in the engine.
func Round(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Round(places)
}
