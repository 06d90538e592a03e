package pipeline

import (
	"fmt"

	"github.com/pkg/errors"

	"vantetider/internal"
	"vantetider/internal/util"
)

// Extraction is the raw material of a Sheet as read from one table region.
type Extraction struct {
	Rows    []RowKey
	Columns []string
	Values  [][]internal.Value
}

func (e Extraction) Sheet() (*Sheet, error) {
	return NewSheet(e.Rows, e.Columns, e.Values)
}

// ExtractPlain reads a table whose header cells are inline <th> elements.
// The first column holds the row labels. A header row written without
// <thead> lands in the implicit <tbody>; rows of only <th> cells are read
// as header, not body.
func ExtractPlain(region Node) (Extraction, error) {
	header := region.FindAll("thead th")
	var body []Node
	for _, row := range region.FindAll("tbody tr") {
		if len(row.FindAll("td")) == 0 && len(row.FindAll("th")) > 0 {
			if len(header) == 0 {
				header = row.FindAll("th")
			}
			continue
		}
		body = append(body, row)
	}
	if len(header) == 0 {
		header = region.FindAll("th")
	}
	return extractLabelledBody(body, dropFirst(texts(header)))
}

// ExtractVerticalScroll reads a table whose header was moved into a
// separate scroll head by the DataTables plugin.
func ExtractVerticalScroll(region Node) (Extraction, error) {
	header := dropFirst(texts(region.FindAll(selScrollHead)))
	return extractLabelledBody(region.FindAll("tbody tr"), header)
}

// ExtractHorizontalScroll reads a table with a frozen left column. Row
// labels come from the frozen column and are zipped with the scroll body
// by position. Row identifiers are not present in this markup.
func ExtractHorizontalScroll(region Node) (Extraction, error) {
	labelRows := region.FindAll(selFrozenRows)
	bodyRows := region.FindAll(selScrollRows)
	if len(labelRows) != len(bodyRows) {
		return Extraction{}, mismatch("frozen column rows vs scroll body rows", len(labelRows), len(bodyRows))
	}

	cols := texts(region.FindAll(selScrollHead))
	skip := 0
	if head := first(region, selFrozenHead); head != nil && len(cols) > 0 && util.NormalizeText(head.Text()) == cols[0] {
		// the scroll body still carries the label column under the frozen clone
		skip = 1
		cols = cols[1:]
	}

	out := Extraction{
		Rows:    make([]RowKey, 0, len(labelRows)),
		Columns: cols,
		Values:  make([][]internal.Value, 0, len(bodyRows)),
	}
	for i, labelRow := range labelRows {
		label := labelRow.Text()
		if cell := first(labelRow, "td"); cell != nil {
			label = cell.Text()
		}
		out.Rows = append(out.Rows, RowKey{Label: util.NormalizeText(label)})

		cells := bodyRows[i].FindAll("td")
		if len(cells) < skip {
			return Extraction{}, mismatch(fmt.Sprintf("scroll body row %d: cells", i+1), skip, len(cells))
		}
		values, err := parseCells(cells[skip:], i+1, skip+1)
		if err != nil {
			return Extraction{}, err
		}
		out.Values = append(out.Values, values)
	}
	return out, nil
}

func extractLabelledBody(rows []Node, cols []string) (Extraction, error) {
	out := Extraction{
		Rows:    make([]RowKey, 0, len(rows)),
		Columns: cols,
		Values:  make([][]internal.Value, 0, len(rows)),
	}
	for i, row := range rows {
		cells := row.FindAll("td")
		if len(cells) == 0 {
			return Extraction{}, mismatch(fmt.Sprintf("body row %d: cells", i+1), 1, 0)
		}
		out.Rows = append(out.Rows, RowKey{
			ID:    rowID(cells[0]),
			Label: util.NormalizeText(cells[0].Text()),
		})
		values, err := parseCells(cells[1:], i+1, 2)
		if err != nil {
			return Extraction{}, err
		}
		out.Values = append(out.Values, values)
	}
	return out, nil
}

// rowID reads the click handler of the row label cell, if any.
func rowID(cell Node) *string {
	if clickable := first(cell, selClickable); clickable != nil {
		if onclick, ok := clickable.Attr("onclick"); ok {
			return util.ParseRowID(onclick)
		}
	}
	if onclick, ok := cell.Attr("onclick"); ok {
		return util.ParseRowID(onclick)
	}
	return nil
}

func parseCells(cells []Node, row, firstColumn int) ([]internal.Value, error) {
	values := make([]internal.Value, 0, len(cells))
	for j, cell := range cells {
		v, err := ParseValue(cell.Text())
		if err != nil {
			var parseErr *CellParseError
			if errors.As(err, &parseErr) {
				parseErr.Row = row
				parseErr.Column = firstColumn + j
			}
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

func texts(nodes []Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, util.NormalizeText(n.Text()))
	}
	return out
}

func dropFirst(values []string) []string {
	if len(values) == 0 {
		return values
	}
	return values[1:]
}
