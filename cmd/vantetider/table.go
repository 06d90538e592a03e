package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"vantetider/internal"
	"vantetider/internal/util"
)

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	return t
}

func renderObservations(out io.Writer, observations []internal.Observation, limit int) {
	t := newTable(out)
	t.AppendHeader(table.Row{"Region", "Unit", "Measure", "Dimensions", "Value"})
	for i, o := range observations {
		if limit > 0 && i >= limit {
			break
		}
		t.AppendRow(table.Row{o.Region, o.Unit, o.Measure, formatDimensions(o.Dimensions), o.Value.String()})
	}
	if limit > 0 && len(observations) > limit {
		t.AppendFooter(table.Row{"", "", "", "", fmt.Sprintf("+%d more", len(observations)-limit)})
	}
	t.Render()
}

func renderRecords(out io.Writer, records []internal.Record) {
	t := newTable(out)
	t.AppendHeader(table.Row{"Row", "Row ID", "Column", "Measure", "Value"})
	for _, r := range records {
		t.AppendRow(table.Row{r.Row, util.Deref(r.RowID), r.Column, r.Measure, r.Value.String()})
	}
	t.Render()
}

func formatDimensions(dims map[string]string) string {
	parts := make([]string, 0, len(dims))
	for _, k := range slices.Sorted(maps.Keys(dims)) {
		parts = append(parts, k+"="+dims[k])
	}
	return strings.Join(parts, " ")
}
