package catalog

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"vantetider/internal/config"
	"vantetider/internal/fetch"
)

const testBase = "http://vantetider.test/Kontaktkort/"

const startPage = `<html><body>
<ul class="main-nav page-width">
  <li><a href="/">Hem</a></li>
  <li>
    <a href="/Kontaktkort/Sveriges/">Översikt</a>
    <a href="/Kontaktkort/Sveriges/Jamfor/">Jämför</a>
    <a href="/Kontaktkort/Sveriges/PrimarvardBesok/">Besök i
      primärvården</a>
    <a href="/Kontaktkort/Sveriges/Aterbesok/">Återbesök</a>
    <a href="/Kontaktkort/Sveriges/Overbelaggning/">Överbeläggningar</a>
  </li>
</ul>
</body></html>`

func datasetForm(year, radio string, checked bool) string {
	sel := func(v string) string {
		if v == year {
			return ` selected="selected"`
		}
		return ""
	}
	check := func(v string) string {
		if v == radio {
			return ` checked="checked"`
		}
		return ""
	}
	box := ""
	if checked {
		box = ` checked="checked"`
	}
	return `<html><body>
<form action="/Kontaktkort/Sveriges/Overbelaggning/" method="post">
<select name="select_region">
  <option value="0">Alla landsting</option>
  <option value="27">Blekinge</option>
  <option value="12">Skåne</option>
  <option value="23">Jämtland Härjedalen</option>
</select>
<select name="select_year"><option` + sel("2017") + `>2017</option><option` + sel("2016") + `>2016</option></select>
<select name="select_period"><option value="Januari">Januari</option><option value="Februari">Februari</option></select>
<input type="checkbox" name="checkbox_gender" value="true"` + box + `><label class="checkbox">Kön</label>
<input type="radio" name="type_of_overbelaggning" value="0" id="Somatik"` + check("0") + `>
<input type="radio" name="type_of_overbelaggning" value="1" id="Psykiatri"` + check("1") + `>
</form>
</body></html>`
}

type fakeFetcher struct {
	pages map[string]string
	gets  []string
}

func (f *fakeFetcher) Get(ctx context.Context, target string) (fetch.Page, error) {
	f.gets = append(f.gets, target)
	body, ok := f.pages[target]
	if !ok {
		return fetch.Page{}, &fetch.StatusError{Method: http.MethodGet, URL: target, Status: http.StatusNotFound}
	}
	return fetch.Page{URL: target, Status: http.StatusOK, Body: []byte(body)}, nil
}

func (f *fakeFetcher) Post(ctx context.Context, target string, form url.Values) (fetch.Page, error) {
	return f.Get(ctx, target)
}

func newFakeClient() (*Client, *fakeFetcher) {
	fetcher := &fakeFetcher{pages: map[string]string{
		testBase + "Sveriges":                startPage,
		testBase + "Sveriges/Overbelaggning": datasetForm("2016", "0", false),
	}}
	return NewClient(fetcher, config.Config{BaseURL: testBase}), fetcher
}

func mustDoc(t *testing.T, html string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc.Selection
}
