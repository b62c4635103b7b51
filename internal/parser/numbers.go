// internal/parser/numbers.go
package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// abbreviatedPattern matches human-abbreviated counts like "12.3K" or
// "1M", with optional thousands separators in the plain form.
var abbreviatedPattern = regexp.MustCompile(`(\d+(?:[.,]\d+)*)\s*([KkMmBb])?`)

// multipliers maps abbreviation suffixes to their scale.
var multipliers = map[string]float64{
	"K": 1e3,
	"M": 1e6,
	"B": 1e9,
}

// ParseAbbreviatedNumber converts a human-abbreviated count ("12.3K",
// "1M", "1,234") to an integer. Returns 0 and false when text holds no
// parseable number.
func ParseAbbreviatedNumber(text string) (int64, bool) {
	match := abbreviatedPattern.FindStringSubmatch(strings.TrimSpace(text))
	if match == nil {
		return 0, false
	}

	digits := match[1]
	suffix := strings.ToUpper(match[2])

	if suffix == "" {
		// Plain number, possibly with thousands separators.
		digits = strings.ReplaceAll(digits, ",", "")
		value, err := strconv.ParseInt(digits, 10, 64)
		if err != nil {
			return 0, false
		}
		return value, true
	}

	// Abbreviated form: a comma is a decimal separator in some locales.
	digits = strings.ReplaceAll(digits, ",", ".")
	value, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0, false
	}
	return int64(value * multipliers[suffix]), true
}

var integerRunPattern = regexp.MustCompile(`\d[\d,.]*[KkMmBb]?`)

// extractFirstCount pulls the first integer run (abbreviated or plain)
// from free text. Returns 0 when none is present.
func extractFirstCount(text string) int {
	run := integerRunPattern.FindString(text)
	if run == "" {
		return 0
	}
	value, ok := ParseAbbreviatedNumber(run)
	if !ok || value < 0 {
		return 0
	}
	return int(value)
}
