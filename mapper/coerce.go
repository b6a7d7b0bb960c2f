package mapper

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/openrera/rerapipe/extract"
)

var (
	nonDigits      = regexp.MustCompile(`[^0-9]`)
	leadingNumeric = regexp.MustCompile(`-?\d+(\.\d+)?`)
	pincodeRe      = regexp.MustCompile(`(^|[^0-9])([1-9][0-9]{5})([^0-9]|$)`)
)

// coerceInt strips every non-digit and parses what remains. Failure
// yields nil, never an error.
func coerceInt(s string) *int {
	digits := nonDigits.ReplaceAllString(s, "")
	if digits == "" {
		return nil
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return nil
	}
	return &n
}

// coerceFloat strips thousands separators and parses; when the exact
// parse fails (trailing units like "1234.5 sq.m."), it falls back to
// the leading numeric run.
func coerceFloat(s string) *float64 {
	cleaned := strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if cleaned == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return &f
	}
	match := leadingNumeric.FindString(cleaned)
	if match == "" {
		return nil
	}
	f, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}
	return &f
}

// coerceDate normalizes to ISO YYYY-MM-DD, or empty when unparseable.
func coerceDate(s string) string {
	iso, ok := extract.ParseDate(s)
	if !ok {
		return ""
	}
	return iso
}

// extractPincode pulls a 6-digit postal code out of free text. Bare 5-
// or 7-digit numbers are never treated as pincodes.
func extractPincode(s string) string {
	m := pincodeRe.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[2]
}

// isNavigable mirrors the extractor's notion of a fetchable href.
func isNavigable(href string) bool {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return false
	}
	lower := strings.ToLower(href)
	for _, p := range []string{"javascript:", "mailto:", "tel:", "about:"} {
		if strings.HasPrefix(lower, p) {
			return false
		}
	}
	return true
}
