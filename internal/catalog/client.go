package catalog

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"

	"vantetider/internal"
	"vantetider/internal/config"
	"vantetider/internal/fetch"
	"vantetider/internal/util"
)

var (
	ErrDatasetNotFound         = errors.New("dataset not found")
	ErrNotImplementedDimension = errors.New("querying by this dimension is not implemented")
	ErrNoForm                  = errors.New("no search form found")
)

// Datasets the site lists but whose pages cannot be queried or parsed.
var notImplementedDatasets = []string{
	// search is driven by query params
	"Aterbesok", "Undersokningar",
	// table layout not supported
	"BUPdetalj", "BUP",
}

// NationalSlug is the URL segment of the country level pages.
const NationalSlug = "Sveriges"

type Client struct {
	fetcher fetch.Fetcher
	baseURL string
}

func NewClient(fetcher fetch.Fetcher, cfg config.Config) *Client {
	return &Client{fetcher: fetcher, baseURL: cfg.BaseURL}
}

func (c *Client) BaseURL() string { return c.baseURL }

// DatasetURL builds <base><slug>/<id>.
func DatasetURL(baseURL, slug, id string) string {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return baseURL + slug + "/" + id
}

// ListDatasets reads the dataset menu of the national start page.
func (c *Client) ListDatasets(ctx context.Context) ([]internal.Dataset, error) {
	doc, err := c.getDocument(ctx, c.baseURL+NationalSlug)
	if err != nil {
		return nil, err
	}
	return ParseDatasets(doc.Selection)
}

// ParseDatasets extracts the datasets linked from the main navigation.
// The first two links of the menu are not datasets.
func ParseDatasets(doc *goquery.Selection) ([]internal.Dataset, error) {
	nav := doc.Find("ul.main-nav.page-width").First()
	if nav.Length() == 0 {
		return nil, errors.New("main navigation not found")
	}
	items := nav.Find("li")
	if items.Length() < 2 {
		return nil, fmt.Errorf("main navigation has %d items, expected at least 2", items.Length())
	}

	out := []internal.Dataset{}
	links := items.Eq(1).Find("a")
	if links.Length() <= 2 {
		return out, nil
	}
	links.Slice(2, goquery.ToEnd).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		parts := strings.Split(href, "/Sveriges/")
		id := strings.ReplaceAll(parts[len(parts)-1], "/", "")
		if id == "" || slices.Contains(notImplementedDatasets, id) {
			return
		}
		out = append(out, internal.Dataset{ID: id, Label: util.NormalizeText(a.Text())})
	})
	return out, nil
}

// DatasetPage fetches the national page of a dataset.
func (c *Client) DatasetPage(ctx context.Context, id string) (*goquery.Document, error) {
	doc, err := c.getDocument(ctx, DatasetURL(c.baseURL, NationalSlug, id))
	if fetch.Status(err) == 404 {
		return nil, errors.Wrapf(ErrDatasetNotFound, "%s", id)
	}
	return doc, err
}

// Dimensions discovers the search form of a dataset.
func (c *Client) Dimensions(ctx context.Context, id string) ([]internal.Dimension, error) {
	doc, err := c.DatasetPage(ctx, id)
	if err != nil {
		return nil, err
	}
	dims, err := ParseDimensions(doc.Selection)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset %s", id)
	}
	slog.Debug("discovered dimensions", "dataset", id, "count", len(dims))
	return dims, nil
}

func (c *Client) getDocument(ctx context.Context, target string) (*goquery.Document, error) {
	page, err := c.fetcher.Get(ctx, target)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", target)
	}
	return doc, nil
}

// ParseDimensions reads selects, checkboxes and radio groups of the search
// form, in that order, and appends the measure and unit_id pseudo
// dimensions.
func ParseDimensions(doc *goquery.Selection) ([]internal.Dimension, error) {
	form := searchForm(doc)
	if form == nil {
		return nil, ErrNoForm
	}

	var dims []internal.Dimension

	var selectErr error
	form.Find("select").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		dim, err := parseSelect(sel)
		if err != nil {
			selectErr = err
			return false
		}
		dims = append(dims, dim)
		return true
	})
	if selectErr != nil {
		return nil, selectErr
	}

	checkboxes := form.Find(`input[type="checkbox"]`)
	labels := form.Find("label.checkbox")
	n := min(checkboxes.Length(), labels.Length())
	for i := 0; i < n; i++ {
		input := checkboxes.Eq(i)
		name, _ := input.Attr("name")
		value, ok := input.Attr("value")
		if !ok {
			return nil, fmt.Errorf("checkbox %q has no value", name)
		}
		dims = append(dims, internal.Dimension{
			ID:      strings.ReplaceAll(name, "checkbox_", ""),
			Label:   util.NormalizeText(labels.Eq(i).Text()),
			ElemID:  name,
			Kind:    internal.DimensionCheckbox,
			Default: value,
		})
	}

	radios := form.Find(`input[type="radio"]`)
	var names []string
	groups := map[string][]*goquery.Selection{}
	radios.Each(func(_ int, input *goquery.Selection) {
		name, _ := input.Attr("name")
		if _, seen := groups[name]; !seen {
			names = append(names, name)
		}
		groups[name] = append(groups[name], input)
	})
	for _, name := range names {
		dim, err := parseRadioGroup(name, groups[name])
		if err != nil {
			return nil, err
		}
		dims = append(dims, dim)
	}

	dims = append(dims,
		internal.Dimension{ID: "measure", Label: "Nyckeltal", Kind: internal.DimensionVirtual},
		internal.Dimension{ID: "unit_id", Kind: internal.DimensionVirtual},
	)
	return dims, nil
}

func searchForm(doc *goquery.Selection) *goquery.Selection {
	var form *goquery.Selection
	doc.Find("form").EachWithBreak(func(_ int, f *goquery.Selection) bool {
		action, _ := f.Attr("action")
		if strings.Contains(action, "/Kontaktkort/") {
			form = f
			return false
		}
		return true
	})
	if form != nil {
		return form
	}
	// some datasets render the filters without a form element
	div := doc.Find("div.container_12.filter_section.specialised_operation").First()
	if div.Length() == 0 {
		return nil
	}
	return div
}

func parseSelect(sel *goquery.Selection) (internal.Dimension, error) {
	name, _ := sel.Attr("name")
	dim := internal.Dimension{
		ID:     strings.ReplaceAll(strings.ReplaceAll(name, "select_", ""), "revisits_", ""),
		ElemID: name,
		Kind:   internal.DimensionSelect,
	}

	var optErr error
	sel.Find("option").EachWithBreak(func(_ int, opt *goquery.Selection) bool {
		value, err := optionValue(opt)
		if err != nil {
			optErr = err
			return false
		}
		dim.Values = append(dim.Values, internal.DimensionValue{ID: value, Label: optionText(opt)})
		return true
	})
	if optErr != nil {
		return internal.Dimension{}, errors.Wrapf(optErr, "select %q", name)
	}

	def, err := selectedOption(sel)
	if err != nil {
		return internal.Dimension{}, errors.Wrapf(err, "select %q", name)
	}
	dim.Default = def.ID
	return dim, nil
}

func parseRadioGroup(name string, inputs []*goquery.Selection) (internal.Dimension, error) {
	dim := internal.Dimension{ID: name, ElemID: name, Kind: internal.DimensionRadio}

	var markup strings.Builder
	for _, input := range inputs {
		html, err := goquery.OuterHtml(input)
		if err != nil {
			return internal.Dimension{}, err
		}
		markup.WriteString(html)
		if _, checked := input.Attr("checked"); checked && dim.Default == "" {
			dim.Default, _ = input.Attr("value")
		}
	}
	for _, radio := range ParseRadioInputs(markup.String()) {
		dim.Values = append(dim.Values, internal.DimensionValue{ID: radio.Value, Label: radio.Label})
	}
	if dim.Default == "" {
		return internal.Dimension{}, fmt.Errorf("radio group %q has no checked input", name)
	}
	return dim, nil
}

// selectedOption is the [selected] option of a select, else its first one.
func selectedOption(sel *goquery.Selection) (internal.DimensionValue, error) {
	opt := sel.Find("option[selected]").First()
	if opt.Length() == 0 {
		opt = sel.Find("option").First()
	}
	if opt.Length() == 0 {
		return internal.DimensionValue{}, errors.New("no options")
	}
	value, err := optionValue(opt)
	if err != nil {
		return internal.DimensionValue{}, err
	}
	return internal.DimensionValue{ID: value, Label: optionText(opt)}, nil
}

// optionValue is the value attribute, else the trimmed text.
func optionValue(opt *goquery.Selection) (string, error) {
	value, ok := opt.Attr("value")
	if !ok {
		value = strings.TrimSpace(opt.Text())
	}
	if value == "" {
		html, _ := goquery.OuterHtml(opt)
		return "", fmt.Errorf("cannot read value of %s", html)
	}
	return value, nil
}

func optionText(opt *goquery.Selection) string {
	return util.NormalizeText(opt.Text())
}
