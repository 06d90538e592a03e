package pipeline

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"vantetider/internal"
	"vantetider/internal/util"
)

func grid(rows, cols int) ([]RowKey, []string, [][]internal.Value) {
	keys := make([]RowKey, 0, rows)
	labels := make([]string, 0, cols)
	values := make([][]internal.Value, 0, rows)
	for c := 0; c < cols; c++ {
		labels = append(labels, fmt.Sprintf("c%d", c))
	}
	for r := 0; r < rows; r++ {
		keys = append(keys, RowKey{ID: util.StringPtr(fmt.Sprint(r)), Label: fmt.Sprintf("r%d", r)})
		row := make([]internal.Value, 0, cols)
		for c := 0; c < cols; c++ {
			row = append(row, internal.Number(float64(r*cols+c)))
		}
		values = append(values, row)
	}
	return keys, labels, values
}

func TestSheetLongFormat(t *testing.T) {
	for _, shape := range [][2]int{{0, 0}, {1, 1}, {3, 2}, {4, 7}} {
		rows, cols, values := grid(shape[0], shape[1])
		sheet, err := NewSheet(rows, cols, values)
		require.NoError(t, err)

		var first []Cell
		seen := map[string]struct{}{}
		for c := range sheet.Cells() {
			key := c.Row.Label + "|" + c.Column
			_, dup := seen[key]
			require.False(t, dup, "duplicate cell %s", key)
			seen[key] = struct{}{}
			first = append(first, c)
		}
		require.Len(t, first, shape[0]*shape[1])
		require.Equal(t, sheet.Len(), len(first))

		var second []Cell
		for c := range sheet.Cells() {
			second = append(second, c)
		}
		require.Equal(t, first, second)
	}
}

func TestSheetRowMajorOrder(t *testing.T) {
	rows, cols, values := grid(2, 3)
	sheet, err := NewSheet(rows, cols, values)
	require.NoError(t, err)

	i := 0
	for c := range sheet.Cells() {
		require.Equal(t, internal.Number(float64(i)), c.Value)
		require.Equal(t, fmt.Sprintf("r%d", i/3), c.Row.Label)
		require.Equal(t, fmt.Sprintf("c%d", i%3), c.Column)
		i++
	}
}

func TestSheetRowCountMismatch(t *testing.T) {
	rows, cols, values := grid(3, 2)
	sheet, err := NewSheet(rows, cols, values[:2])
	require.Nil(t, sheet)

	var mismatchErr *StructuralMismatchError
	require.True(t, errors.As(err, &mismatchErr), "err=%v", err)
	require.Equal(t, 3, mismatchErr.Expected)
	require.Equal(t, 2, mismatchErr.Actual)
}

func TestSheetCellCountMismatch(t *testing.T) {
	rows, cols, values := grid(2, 2)
	values[1] = values[1][:1]
	_, err := NewSheet(rows, cols, values)

	var mismatchErr *StructuralMismatchError
	require.True(t, errors.As(err, &mismatchErr), "err=%v", err)
	require.Equal(t, 2, mismatchErr.Expected)
	require.Equal(t, 1, mismatchErr.Actual)
}

func TestSheetLookup(t *testing.T) {
	rows, cols, values := grid(2, 2)
	sheet, err := NewSheet(rows, cols, values)
	require.NoError(t, err)

	v, ok := sheet.Lookup(RowKey{ID: util.StringPtr("1"), Label: "r1"}, "c0")
	require.True(t, ok)
	require.Equal(t, internal.Number(2), v)

	_, ok = sheet.Lookup(RowKey{Label: "r1"}, "c0")
	require.False(t, ok)
	_, ok = sheet.Lookup(RowKey{ID: util.StringPtr("1"), Label: "r1"}, "missing")
	require.False(t, ok)
}

func TestSheetIsDetachedFromInputs(t *testing.T) {
	rows, cols, values := grid(1, 1)
	sheet, err := NewSheet(rows, cols, values)
	require.NoError(t, err)

	values[0][0] = internal.Number(99)
	cols[0] = "changed"
	require.Equal(t, internal.Number(0), sheet.At(0, 0))
	require.Equal(t, []string{"c0"}, sheet.Columns())
}

func TestSheetRowIDsAreDetached(t *testing.T) {
	rows, cols, values := grid(1, 1)
	sheet, err := NewSheet(rows, cols, values)
	require.NoError(t, err)

	*rows[0].ID = "7"
	for rec := range sheet.Records("") {
		*rec.RowID = "999"
	}
	for c := range sheet.Cells() {
		*c.Row.ID = "998"
	}
	*sheet.Rows()[0].ID = "997"

	for rec := range sheet.Records("") {
		require.Equal(t, "0", *rec.RowID)
	}
	v, ok := sheet.Lookup(RowKey{ID: util.StringPtr("0"), Label: "r0"}, "c0")
	require.True(t, ok)
	require.Equal(t, internal.Number(0), v)
	_, ok = sheet.Lookup(RowKey{ID: util.StringPtr("999"), Label: "r0"}, "c0")
	require.False(t, ok)
}
