package dataset

import (
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"vantetider/internal"
)

const observationsSheet = "observations"

// fixed leading columns of the observations sheet; year and period come
// out of Dimensions
var leadingColumns = []string{"dataset", "region", "unit", "unit_id", "measure", "period", "year"}

// ExportXLSX writes observations to path: one long sheet plus one pivot
// sheet per measure with regions and units as rows.
func ExportXLSX(observations []internal.Observation, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), observationsSheet); err != nil {
		return err
	}

	extra := extraDimensions(observations)
	headers := append(append(append([]string{}, leadingColumns...), extra...), "value", "value_kind")
	if err := setRow(f, observationsSheet, 1, toAny(headers)); err != nil {
		return err
	}
	for i, o := range observations {
		row := []any{o.Dataset, o.Region, o.Unit, o.UnitID, o.Measure, o.Dimensions["period"], o.Dimensions["year"]}
		for _, dim := range extra {
			row = append(row, o.Dimensions[dim])
		}
		row = append(row, o.Value.Any(), string(valueKind(o.Value)))
		if err := setRow(f, observationsSheet, i+2, row); err != nil {
			return err
		}
	}

	used := map[string]struct{}{observationsSheet: {}}
	for _, measure := range measures(observations) {
		name := sheetName(measure, used)
		if _, err := f.NewSheet(name); err != nil {
			return errors.Wrapf(err, "sheet for %q", measure)
		}
		if err := writePivot(f, name, measure, observations); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func writePivot(f *excelize.File, sheet, measure string, observations []internal.Observation) error {
	type rowKey struct{ region, unit string }
	var rows []rowKey
	var cols []string
	cells := map[rowKey]map[string]internal.Value{}

	for _, o := range observations {
		if o.Measure != measure {
			continue
		}
		rk := rowKey{o.Region, o.Unit}
		if _, ok := cells[rk]; !ok {
			rows = append(rows, rk)
			cells[rk] = map[string]internal.Value{}
		}
		col := pivotColumn(o)
		if !slices.Contains(cols, col) {
			cols = append(cols, col)
		}
		cells[rk][col] = o.Value
	}

	if err := setRow(f, sheet, 1, toAny(append([]string{"region", "unit"}, cols...))); err != nil {
		return err
	}
	for i, rk := range rows {
		row := []any{rk.region, rk.unit}
		for _, col := range cols {
			v, ok := cells[rk][col]
			if !ok {
				row = append(row, nil)
				continue
			}
			row = append(row, v.Any())
		}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

// pivotColumn labels a pivot column by year and period, falling back to the
// measure itself for undated tables.
func pivotColumn(o internal.Observation) string {
	var parts []string
	for _, key := range []string{"year", "period"} {
		if v := o.Dimensions[key]; v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return o.Measure
	}
	return strings.Join(parts, " ")
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func extraDimensions(observations []internal.Observation) []string {
	seen := map[string]struct{}{"year": {}, "period": {}}
	var out []string
	for _, o := range observations {
		for k := range o.Dimensions {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}

func measures(observations []internal.Observation) []string {
	var out []string
	for _, o := range observations {
		if !slices.Contains(out, o.Measure) {
			out = append(out, o.Measure)
		}
	}
	return out
}

var sheetNameReplacer = strings.NewReplacer("[", "(", "]", ")", ":", "-", "*", "-", "?", "", "/", "-", "\\", "-")

// sheetName makes a unique worksheet name of at most 31 characters.
func sheetName(measure string, used map[string]struct{}) string {
	base := strings.TrimSpace(sheetNameReplacer.Replace(measure))
	if base == "" {
		base = "measure"
	}
	base = truncateRunes(base, 31)
	name := base
	for i := 2; ; i++ {
		if _, taken := used[strings.ToLower(name)]; !taken {
			break
		}
		suffix := " " + strconv.Itoa(i)
		name = truncateRunes(base, 31-len(suffix)) + suffix
	}
	used[strings.ToLower(name)] = struct{}{}
	return name
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func valueKind(v internal.Value) internal.ValueKind {
	if v.Kind == "" {
		return internal.ValueNull
	}
	return v.Kind
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
