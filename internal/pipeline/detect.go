package pipeline

import (
	"vantetider/internal/util"
)

// Shape is one of the table layouts the site renders.
type Shape string

const (
	ShapeTabbed           Shape = "tabbed"
	ShapeHorizontalScroll Shape = "horizontal_scroll"
	ShapeVerticalScroll   Shape = "vertical_scroll"
	ShapePlain            Shape = "plain"
)

const (
	selTabSwitch      = ".table_switch"
	selTabItems       = ".table_switch li"
	selTabVisibleText = ".visible_normal"
	selPane           = ".dataTables_wrapper"
	selFrozenWrapper  = ".DTFC_ScrollWrapper"
	selFrozenHead     = ".DTFC_LeftHeadWrapper th"
	selFrozenRows     = ".DTFC_LeftBodyWrapper tbody tr"
	selVerticalTable  = "#DataTables_Table_0_wrapper"
	selPlainTable     = ".chart.table.scrolling"
	selScrollHead     = ".dataTables_scrollHead th"
	selScrollRows     = ".dataTables_scrollBody tbody tr"
	selClickable      = ".clickable"
)

// markers are reported back in UnsupportedLayoutError so a failing page can
// be diagnosed without re-fetching it.
var markers = []string{selTabSwitch, selFrozenWrapper, selVerticalTable, ".dataTables_scrollHead", selPlainTable, "table"}

// Pane is one tab of a tabbed layout.
type Pane struct {
	Label   string
	Region  Node
	Shape   Shape
	Markers []string
}

// Layout is the result of classifying a document. Region is set for
// untabbed shapes, Panes for ShapeTabbed. HorizontalScroll records the
// frozen-column marker independently of Shape since tab panes are
// themselves horizontally scrollable.
type Layout struct {
	Shape            Shape
	HorizontalScroll bool
	Region           Node
	Panes            []Pane
}

// Classify determines the layout of a document. Rules are evaluated in
// priority order: tab strip, frozen left column, vertical scroll wrapper,
// then the last plain data table.
func Classify(doc Document) (Layout, error) {
	layout := Layout{HorizontalScroll: has(doc, selFrozenWrapper)}

	if has(doc, selTabSwitch) {
		panes, err := classifyPanes(doc)
		if err != nil {
			return Layout{}, err
		}
		layout.Shape = ShapeTabbed
		layout.Panes = panes
		return layout, nil
	}

	if layout.HorizontalScroll {
		layout.Shape = ShapeHorizontalScroll
		layout.Region = frozenRegion(doc)
		return layout, nil
	}

	if region := first(doc, selVerticalTable); region != nil {
		layout.Shape = ShapeVerticalScroll
		layout.Region = region
		return layout, nil
	}

	region := last(doc, selPlainTable)
	if region == nil {
		return Layout{}, &StructuralMismatchError{Context: "document", Err: ErrNoDataTable}
	}
	layout.Shape = ShapePlain
	layout.Region = region
	return layout, nil
}

func classifyPanes(doc Document) ([]Pane, error) {
	tabs := doc.FindAll(selTabItems)
	regions := doc.FindAll(selPane)
	if len(regions) == 0 {
		return nil, mismatch("tab panes", len(tabs), 0)
	}
	if len(tabs) != len(regions) {
		return nil, mismatch("tab labels vs tab panes", len(tabs), len(regions))
	}

	panes := make([]Pane, 0, len(tabs))
	for i, tab := range tabs {
		shape, seen := classifyRegion(regions[i])
		panes = append(panes, Pane{
			Label:   tabLabel(tab),
			Region:  regions[i],
			Shape:   shape,
			Markers: seen,
		})
	}
	return panes, nil
}

// tabLabel prefers the nested visible span; the full tab text repeats the
// label for screen readers.
func tabLabel(tab Node) string {
	if visible := first(tab, selTabVisibleText); visible != nil {
		return util.NormalizeText(visible.Text())
	}
	return util.NormalizeText(tab.Text())
}

func classifyRegion(region Node) (Shape, []string) {
	seen := []string{}
	for _, m := range markers {
		if has(region, m) {
			seen = append(seen, m)
		}
	}

	switch {
	case has(region, selFrozenWrapper):
		return ShapeHorizontalScroll, seen
	case has(region, ".dataTables_scrollHead"):
		return ShapeVerticalScroll, seen
	default:
		return ShapePlain, seen
	}
}

// frozenRegion returns the last table wrapper holding a frozen column, or
// the whole document when the wrapper class is missing.
func frozenRegion(doc Document) Node {
	var region Node = doc
	for _, pane := range doc.FindAll(selPane) {
		if has(pane, selFrozenWrapper) {
			region = pane
		}
	}
	return region
}
