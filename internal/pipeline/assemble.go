package pipeline

import (
	"iter"

	"github.com/pkg/errors"

	"vantetider/internal"
)

// Part is one extracted sheet with the measure its records are stamped with.
type Part struct {
	Measure string
	Sheet   *Sheet
}

// Table is a classified and fully extracted document.
type Table struct {
	Layout Layout
	Parts  []Part
}

// Assemble classifies doc, extracts every table region and returns the
// resulting sheets. Tab labels become the measure of tabbed tables; any
// other shape uses the caller supplied measure.
func Assemble(doc Document, measure string) (*Table, error) {
	layout, err := Classify(doc)
	if err != nil {
		return nil, err
	}

	table := &Table{Layout: layout}
	switch layout.Shape {
	case ShapeTabbed:
		for _, pane := range layout.Panes {
			sheet, err := extractPane(pane)
			if err != nil {
				return nil, err
			}
			table.Parts = append(table.Parts, Part{Measure: pane.Label, Sheet: sheet})
		}
	case ShapeHorizontalScroll:
		sheet, err := toSheet(ExtractHorizontalScroll(layout.Region))
		if err != nil {
			return nil, err
		}
		table.Parts = []Part{{Measure: measure, Sheet: sheet}}
	case ShapeVerticalScroll:
		sheet, err := toSheet(ExtractVerticalScroll(layout.Region))
		if err != nil {
			return nil, err
		}
		table.Parts = []Part{{Measure: measure, Sheet: sheet}}
	case ShapePlain:
		sheet, err := toSheet(ExtractPlain(layout.Region))
		if err != nil {
			return nil, err
		}
		table.Parts = []Part{{Measure: measure, Sheet: sheet}}
	default:
		return nil, &UnsupportedLayoutError{Shape: layout.Shape}
	}
	return table, nil
}

// extractPane extracts one tab. Only horizontally scrolling panes occur on
// the site; other inner shapes are rejected rather than guessed at.
func extractPane(pane Pane) (*Sheet, error) {
	if pane.Shape != ShapeHorizontalScroll {
		return nil, &UnsupportedLayoutError{Tab: pane.Label, Shape: pane.Shape, Markers: pane.Markers}
	}
	sheet, err := toSheet(ExtractHorizontalScroll(pane.Region))
	if err != nil {
		return nil, errors.Wrapf(err, "tab %q", pane.Label)
	}
	return sheet, nil
}

func toSheet(ex Extraction, err error) (*Sheet, error) {
	if err != nil {
		return nil, err
	}
	return ex.Sheet()
}

func (t *Table) Tabbed() bool { return t.Layout.Shape == ShapeTabbed }

// Len is the total number of records.
func (t *Table) Len() int {
	n := 0
	for _, p := range t.Parts {
		n += p.Sheet.Len()
	}
	return n
}

// Records yields the long format of every part in document order.
func (t *Table) Records() iter.Seq[internal.Record] {
	return func(yield func(internal.Record) bool) {
		for _, p := range t.Parts {
			for rec := range p.Sheet.Records(p.Measure) {
				if !yield(rec) {
					return
				}
			}
		}
	}
}

// Collect materializes Records.
func (t *Table) Collect() []internal.Record {
	out := make([]internal.Record, 0, t.Len())
	for rec := range t.Records() {
		out = append(out, rec)
	}
	return out
}
