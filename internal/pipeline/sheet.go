package pipeline

import (
	"fmt"
	"iter"

	"vantetider/internal"
)

// RowKey identifies a sheet row. ID is nil when the markup carries no row
// identifier.
type RowKey struct {
	ID    *string
	Label string
}

// clone returns a key that shares no storage with k.
func (k RowKey) clone() RowKey {
	if k.ID != nil {
		id := *k.ID
		k.ID = &id
	}
	return k
}

func (k RowKey) key() string {
	if k.ID == nil {
		return k.Label + "\x00"
	}
	return k.Label + "\x00" + *k.ID + "\x01"
}

// Cell is one entry of a sheet's long format.
type Cell struct {
	Row    RowKey
	Column string
	Value  internal.Value
}

// Sheet is an immutable labelled matrix. Every row holds exactly one value
// per column.
type Sheet struct {
	rows   []RowKey
	cols   []string
	values [][]internal.Value

	rowIndex map[string]int
	colIndex map[string]int
}

// NewSheet validates the matrix shape and copies its inputs. A matrix that
// does not match the row and column index is a *StructuralMismatchError.
func NewSheet(rows []RowKey, cols []string, values [][]internal.Value) (*Sheet, error) {
	if len(values) != len(rows) {
		return nil, mismatch(fmt.Sprintf("sheet of %d rows x %d columns: value rows", len(rows), len(cols)), len(rows), len(values))
	}
	for i, row := range values {
		if len(row) != len(cols) {
			return nil, mismatch(fmt.Sprintf("sheet row %d (%s): cells", i+1, rows[i].Label), len(cols), len(row))
		}
	}

	s := &Sheet{
		rows:     cloneKeys(rows),
		cols:     append([]string(nil), cols...),
		values:   make([][]internal.Value, len(values)),
		rowIndex: make(map[string]int, len(rows)),
		colIndex: make(map[string]int, len(cols)),
	}
	for i, row := range values {
		s.values[i] = append([]internal.Value(nil), row...)
	}
	for i, r := range s.rows {
		if _, ok := s.rowIndex[r.key()]; !ok {
			s.rowIndex[r.key()] = i
		}
	}
	for i, c := range s.cols {
		if _, ok := s.colIndex[c]; !ok {
			s.colIndex[c] = i
		}
	}
	return s, nil
}

func (s *Sheet) Rows() []RowKey { return cloneKeys(s.rows) }

func cloneKeys(rows []RowKey) []RowKey {
	out := make([]RowKey, len(rows))
	for i, r := range rows {
		out[i] = r.clone()
	}
	return out
}

func (s *Sheet) Columns() []string { return append([]string(nil), s.cols...) }

func (s *Sheet) NumRows() int { return len(s.rows) }

func (s *Sheet) NumColumns() int { return len(s.cols) }

// Len is the number of cells, rows times columns.
func (s *Sheet) Len() int { return len(s.rows) * len(s.cols) }

// At returns the value at a row/column position. It panics when out of range.
func (s *Sheet) At(row, col int) internal.Value {
	return s.values[row][col]
}

// Lookup returns the value for a row key and column label. Duplicate
// labels resolve to their first occurrence.
func (s *Sheet) Lookup(row RowKey, col string) (internal.Value, bool) {
	r, ok := s.rowIndex[row.key()]
	if !ok {
		return internal.Value{}, false
	}
	c, ok := s.colIndex[col]
	if !ok {
		return internal.Value{}, false
	}
	return s.values[r][c], true
}

// Cells yields the long format: row 0 against every column, then row 1 and
// so on. The sequence can be ranged over any number of times. Every cell
// carries its own copy of the row key.
func (s *Sheet) Cells() iter.Seq[Cell] {
	return func(yield func(Cell) bool) {
		for i, row := range s.rows {
			for j, col := range s.cols {
				if !yield(Cell{Row: row.clone(), Column: col, Value: s.values[i][j]}) {
					return
				}
			}
		}
	}
}

// Records is Cells converted to records stamped with measure.
func (s *Sheet) Records(measure string) iter.Seq[internal.Record] {
	return func(yield func(internal.Record) bool) {
		for c := range s.Cells() {
			rec := internal.Record{
				Row:     c.Row.Label,
				RowID:   c.Row.ID,
				Column:  c.Column,
				Value:   c.Value,
				Measure: measure,
			}
			if !yield(rec) {
				return
			}
		}
	}
}
