package dataset

import (
	"context"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"vantetider/internal/catalog"
	"vantetider/internal/config"
	"vantetider/internal/fetch"
	"vantetider/internal/storage"
)

const testBase = "http://vantetider.test/Kontaktkort/"

func form(year string) string {
	sel := func(v string) string {
		if v == year {
			return ` selected="selected"`
		}
		return ""
	}
	return `<form action="/Kontaktkort/Sveriges/Overbelaggning/" method="post">
<select name="select_region"><option value="0">Alla landsting</option><option value="27">Blekinge</option><option value="12">Skåne</option></select>
<select name="select_year"><option` + sel("2017") + `>2017</option><option` + sel("2016") + `>2016</option></select>
<select name="select_period"><option value="Januari">Januari</option><option value="Februari">Februari</option></select>
<input type="checkbox" name="checkbox_gender" value="true"><label class="checkbox">Kön</label>
<input type="radio" name="type_of_overbelaggning" value="0" id="Somatik" checked="checked">
<input type="radio" name="type_of_overbelaggning" value="1" id="Psykiatri">
</form>`
}

func htmlPage(body ...string) string {
	return "<html><body>" + strings.Join(body, "\n") + "</body></html>"
}

// plainResult has a region row followed by one of its units.
const plainResult = `<table class="chart table scrolling"><thead><tr><th>Region</th><th>Andel</th><th>Antal</th></tr></thead><tbody>
<tr><td><a class="clickable" onclick="handle_click_event_landsting(this, 27)">Blekinge</a></td><td>12,5 %</td><td>40 st</td></tr>
<tr><td><a class="clickable" onclick="handle_click_event_landsting(this, 1201)">Vårdcentral
  Norr</a></td><td>Ej deltagit</td><td></td></tr>
</tbody></table>`

func pane(labels []string, cols []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString(`<div class="dataTables_wrapper"><div class="DTFC_ScrollWrapper"><div class="dataTables_scroll"><div class="dataTables_scrollHead"><table><thead><tr>`)
	for _, c := range cols {
		b.WriteString("<th>" + c + "</th>")
	}
	b.WriteString(`</tr></thead></table></div><div class="dataTables_scrollBody"><table><tbody>`)
	for _, row := range rows {
		b.WriteString("<tr>")
		for _, v := range row {
			b.WriteString("<td>" + v + "</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString(`</tbody></table></div></div><div class="DTFC_LeftWrapper"><div class="DTFC_LeftHeadWrapper"><table><thead><tr><th>Region</th></tr></thead></table></div><div class="DTFC_LeftBodyWrapper"><table><tbody>`)
	for _, l := range labels {
		b.WriteString("<tr><td>" + l + "</td></tr>")
	}
	b.WriteString(`</tbody></table></div></div></div></div>`)
	return b.String()
}

const tabStrip = `<ul class="table_switch"><li><span class="visible_normal">Somatik</span></li><li><span class="visible_normal">Psykiatri</span></li></ul>`

type request struct {
	method string
	url    string
	form   url.Values
}

// fakeSite answers from a handler and records every request.
type fakeSite struct {
	mu       sync.Mutex
	requests []request
	handler  func(r request) (string, int)
}

func (s *fakeSite) Get(ctx context.Context, target string) (fetch.Page, error) {
	return s.serve(request{method: http.MethodGet, url: target})
}

func (s *fakeSite) Post(ctx context.Context, target string, form url.Values) (fetch.Page, error) {
	return s.serve(request{method: http.MethodPost, url: target, form: form})
}

func (s *fakeSite) serve(r request) (fetch.Page, error) {
	s.mu.Lock()
	s.requests = append(s.requests, r)
	s.mu.Unlock()

	if r.method == http.MethodGet && r.url == testBase+"Sveriges/Overbelaggning" {
		return fetch.Page{URL: r.url, Status: http.StatusOK, Body: []byte(htmlPage(form("2016")))}, nil
	}
	body, status := s.handler(r)
	if status != http.StatusOK {
		return fetch.Page{}, &fetch.StatusError{Method: r.method, URL: r.url, Status: status}
	}
	return fetch.Page{URL: r.url, Status: status, Body: []byte(body)}, nil
}

func (s *fakeSite) resultRequests() []request {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []request
	for _, r := range s.requests {
		if r.url != testBase+"Sveriges/Overbelaggning" || r.method != http.MethodGet {
			out = append(out, r)
		}
	}
	return out
}

func newTestService(t *testing.T, handler func(r request) (string, int)) (*Service, *fakeSite, *storage.DB) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.Config{BaseURL: testBase, FetchConcurrency: 2}
	site := &fakeSite{handler: handler}
	cat := catalog.NewSyncService(db, catalog.NewClient(site, cfg))
	return NewService(db, cat, site, cfg), site, db
}
