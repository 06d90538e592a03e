package catalog

import (
	"regexp"
	"strings"
)

var (
	reInputTag   = regexp.MustCompile(`<input[^>]*>`)
	reInputValue = regexp.MustCompile(`value="(\w+)"`)
	reInputID    = regexp.MustCompile(`id="(\w+)"`)
)

// RadioInput is one option of a radio group. The site uses the input id
// as the human readable label.
type RadioInput struct {
	Value   string
	Label   string
	Checked bool
}

// ParseRadioInputs scans raw markup for input tags. The site's radio
// markup is malformed enough that a DOM walk misses or repeats inputs, so
// tags are matched textually and repeated values keep their first
// occurrence.
func ParseRadioInputs(markup string) []RadioInput {
	var out []RadioInput
	seen := map[string]struct{}{}
	for _, tag := range reInputTag.FindAllString(markup, -1) {
		value := reInputValue.FindStringSubmatch(tag)
		id := reInputID.FindStringSubmatch(tag)
		if value == nil || id == nil {
			continue
		}
		if _, dup := seen[value[1]]; dup {
			continue
		}
		seen[value[1]] = struct{}{}
		out = append(out, RadioInput{
			Value:   value[1],
			Label:   id[1],
			Checked: strings.Contains(tag, "checked"),
		})
	}
	return out
}
