package merge

import (
	"strconv"
	"strings"

	"attest/internal/record/models"
)

// Normalizer maps a raw extracted value to its comparison form. Two values
// normalizing to the same string are treated as agreeing; the raw values are
// what discrepancy reports carry.
type Normalizer func(field models.Field, value string) string

// DefaultNormalizer trims whitespace and case-folds, and compares numeric
// fields after stripping thousands separators and unifying decimal points.
// It never rewrites the stored values, only their comparison form.
func DefaultNormalizer(field models.Field, value string) string {
	trimmed := strings.TrimSpace(value)
	if field.IsNumeric() {
		if canonical, ok := normalizeNumeric(trimmed); ok {
			return canonical
		}
	}
	return strings.ToLower(trimmed)
}

// normalizeNumeric canonicalizes common numeric formattings: "1,000.50",
// "1 000,50" and "1000.5" all compare equal. Returns false when the value
// does not parse as a number after cleanup, in which case the caller falls
// back to string comparison.
func normalizeNumeric(value string) (string, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if r == ' ' || r == ' ' {
			return -1
		}
		return r
	}, value)

	dot := strings.LastIndexByte(cleaned, '.')
	comma := strings.LastIndexByte(cleaned, ',')
	switch {
	case dot >= 0 && comma >= 0:
		// Both present: the rightmost is the decimal separator.
		if comma > dot {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case comma >= 0:
		// Comma only: decimal separator when followed by 1-2 digits at the
		// end and it is the only comma, grouping separator otherwise.
		if strings.Count(cleaned, ",") == 1 && len(cleaned)-comma-1 <= 2 {
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	}

	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return "", false
	}
	return strconv.FormatFloat(parsed, 'f', -1, 64), true
}
