package pipeline

import (
	"strings"
	"testing"
)

func mustDocument(t *testing.T, html string) Document {
	t.Helper()
	doc, err := NewDocument(strings.NewReader(html))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func page(body ...string) string {
	return "<html><body>" + strings.Join(body, "\n") + "</body></html>"
}

func headRow(cols []string) string {
	b := strings.Builder{}
	b.WriteString("<tr>")
	for _, c := range cols {
		b.WriteString("<th>" + c + "</th>")
	}
	b.WriteString("</tr>")
	return b.String()
}

func bodyRows(rows [][]string) string {
	b := strings.Builder{}
	for _, row := range rows {
		b.WriteString("<tr>")
		for _, c := range row {
			b.WriteString("<td>" + c + "</td>")
		}
		b.WriteString("</tr>")
	}
	return b.String()
}

func plainTable(cols []string, rows [][]string) string {
	return `<table class="chart table scrolling"><thead>` + headRow(cols) + `</thead><tbody>` + bodyRows(rows) + `</tbody></table>`
}

func verticalTable(cols []string, rows [][]string) string {
	return `<div id="DataTables_Table_0_wrapper" class="dataTables_wrapper">` +
		`<div class="dataTables_scroll">` +
		`<div class="dataTables_scrollHead"><table><thead>` + headRow(cols) + `</thead></table></div>` +
		`<div class="dataTables_scrollBody"><table><tbody>` + bodyRows(rows) + `</tbody></table></div>` +
		`</div></div>`
}

// horizontalPane renders a frozen-column table. labels go to the frozen
// column, rows to the scroll body.
func horizontalPane(frozenHead string, cols []string, labels []string, rows [][]string) string {
	labelRows := make([][]string, 0, len(labels))
	for _, l := range labels {
		labelRows = append(labelRows, []string{l})
	}
	return `<div class="dataTables_wrapper"><div class="DTFC_ScrollWrapper">` +
		`<div class="dataTables_scroll">` +
		`<div class="dataTables_scrollHead"><table><thead>` + headRow(cols) + `</thead></table></div>` +
		`<div class="dataTables_scrollBody"><table><tbody>` + bodyRows(rows) + `</tbody></table></div>` +
		`</div>` +
		`<div class="DTFC_LeftWrapper">` +
		`<div class="DTFC_LeftHeadWrapper"><table><thead>` + headRow([]string{frozenHead}) + `</thead></table></div>` +
		`<div class="DTFC_LeftBodyWrapper"><table><tbody>` + bodyRows(labelRows) + `</tbody></table></div>` +
		`</div></div></div>`
}

func tabStrip(labels ...string) string {
	b := strings.Builder{}
	b.WriteString(`<ul class="table_switch">`)
	for _, l := range labels {
		b.WriteString(`<li><a href="#"><span class="visible_normal">` + l + `</span><span class="visible_mobile">` + l + ` (flik)</span></a></li>`)
	}
	b.WriteString(`</ul>`)
	return b.String()
}
