package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/openrera/rerapipe/schema"
)

// numberPattern matches integers and decimals, with or without
// thousands separators.
var numberPattern = regexp.MustCompile(`^-?(\d{1,3}(,\d{3})+|\d+)(\.\d+)?$`)

// dateLayouts lists the date shapes the registry emits. Zero-padded and
// bare day/month variants are both accepted.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006", "2/1/2006",
	"02-01-2006", "2-1-2006",
	"02.01.2006", "2.1.2006",
	"02 Jan 2006", "2 Jan 2006",
	"02 January 2006", "2 January 2006",
}

// ParseDate parses a registry date string and returns it normalized to
// ISO YYYY-MM-DD. A string that merely looks date-shaped but fails a
// real parse (e.g. 31/02/2024) is rejected.
func ParseDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

// inferType classifies a collapsed value. DATE values are normalized to
// ISO form; all other types return the value unchanged.
func inferType(value string, links []string) (schema.ValueType, string) {
	if value == "" {
		if len(links) > 0 {
			return schema.ValueURL, value
		}
		return schema.ValueUnknown, value
	}
	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		return schema.ValueURL, value
	}
	if numberPattern.MatchString(value) {
		return schema.ValueNumber, value
	}
	if iso, ok := ParseDate(value); ok {
		return schema.ValueDate, iso
	}
	return schema.ValueText, value
}
