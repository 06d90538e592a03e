package pipeline

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"vantetider/internal"
)

var numberPattern = regexp.MustCompile(`^[-+]?(?:\d+(?:\.\d*)?|\.\d+)$`)

var sentinels = map[string]struct{}{
	internal.SentinelDidNotParticipate: {},
	internal.SentinelNotApplicable:     {},
	internal.SentinelDash:              {},
}

// ParseValue turns the text of one table cell into a Value.
//
// Percent signs and all whitespace (thousand separators) are dropped, a
// decimal comma becomes a point and a trailing "st" unit is removed. The
// result is a sentinel when it is one of the known missing-value markers,
// null when empty and a number otherwise. Anything else is a
// *CellParseError.
func ParseValue(raw string) (internal.Value, error) {
	cleaned := cleanNumericToken(raw)

	if _, ok := sentinels[cleaned]; ok {
		return internal.Sentinel(cleaned), nil
	}
	if cleaned == "" {
		return internal.Null(), nil
	}
	if !numberPattern.MatchString(cleaned) {
		return internal.Value{}, &CellParseError{Raw: raw, Cleaned: cleaned}
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return internal.Value{}, &CellParseError{Raw: raw, Cleaned: cleaned}
	}
	return internal.Number(parsed), nil
}

func cleanNumericToken(raw string) string {
	s := strings.ReplaceAll(raw, "%", "")
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	s = strings.ReplaceAll(s, ",", ".")
	s = strings.TrimSuffix(s, "st")
	return s
}
