package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	reSpaces = regexp.MustCompile(`\s+`)
	reRowID  = regexp.MustCompile(`\(this,\s*(\d+)`)
)

// NormalizeText collapses whitespace runs (newlines included) into single
// spaces and trims the result.
func NormalizeText(input string) string {
	s := strings.ReplaceAll(input, "\u00a0", " ")
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// ParseRowID extracts the numeric id from click handlers such as
// "handle_click_event_landsting(this, 27)".
func ParseRowID(onclick string) *string {
	m := reRowID.FindStringSubmatch(onclick)
	if len(m) < 2 {
		return nil
	}
	return StringPtr(m[1])
}

// FoldDiacritics maps "Västra Götaland" to "Vastra Gotaland".
func FoldDiacritics(input string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, input)
	if err != nil {
		return input
	}
	return out
}

func StringPtr(v string) *string { return &v }

func Deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
