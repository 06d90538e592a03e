package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"

	"vantetider/internal"
)

// Selection maps a dimension id to the value the result page was rendered
// with.
type Selection map[string]internal.DimensionValue

// Label returns the selected label of a dimension, or "".
func (s Selection) Label(dimID string) string {
	return s[dimID].Label
}

// CurrentSelection reads back the form state of a result page for every
// queryable dimension.
func CurrentSelection(doc *goquery.Selection, dims []internal.Dimension) (Selection, error) {
	out := Selection{}
	for _, dim := range dims {
		if !dim.Queryable() {
			continue
		}

		elems := doc.Find(fmt.Sprintf(`[name=%q]`, dim.ElemID))
		if elems.Length() == 0 {
			return nil, fmt.Errorf("form element %q not found on result page", dim.ElemID)
		}

		switch dim.Kind {
		case internal.DimensionSelect:
			selected, err := selectedOption(elems.First())
			if err != nil {
				return nil, errors.Wrapf(err, "select %q", dim.ElemID)
			}
			out[dim.ID] = selected
		case internal.DimensionRadio:
			var markup strings.Builder
			elems.Each(func(_ int, s *goquery.Selection) {
				html, _ := goquery.OuterHtml(s)
				markup.WriteString(html)
			})
			found := false
			for _, radio := range ParseRadioInputs(markup.String()) {
				if radio.Checked {
					out[dim.ID] = internal.DimensionValue{ID: radio.Value, Label: radio.Label}
					found = true
				}
			}
			if !found {
				return nil, fmt.Errorf("radio group %q has no checked input", dim.ElemID)
			}
		case internal.DimensionCheckbox:
			_, checked := elems.First().Attr("checked")
			v := strconv.FormatBool(checked)
			out[dim.ID] = internal.DimensionValue{ID: v, Label: v}
		default:
			return nil, fmt.Errorf("dimension %q has unknown kind %q", dim.ID, dim.Kind)
		}
	}
	return out, nil
}
