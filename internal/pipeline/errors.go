package pipeline

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrNoDataTable means none of the known table markers were found.
var ErrNoDataTable = errors.New("no data table found")

// StructuralMismatchError reports a document whose regions disagree with
// each other, e.g. more tabs than tab panes.
type StructuralMismatchError struct {
	Context  string
	Expected int
	Actual   int
	Err      error
}

func (e *StructuralMismatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("structural mismatch in %s: %v", e.Context, e.Err)
	}
	return fmt.Sprintf("structural mismatch in %s: expected %d, got %d", e.Context, e.Expected, e.Actual)
}

func (e *StructuralMismatchError) Unwrap() error {
	return e.Err
}

func mismatch(context string, expected, actual int) *StructuralMismatchError {
	return &StructuralMismatchError{Context: context, Expected: expected, Actual: actual}
}

// UnsupportedLayoutError reports a known outer shape wrapping an inner
// shape there is no extractor for.
type UnsupportedLayoutError struct {
	Tab     string
	Shape   Shape
	Markers []string
}

func (e *UnsupportedLayoutError) Error() string {
	markers := "none"
	if len(e.Markers) > 0 {
		markers = strings.Join(e.Markers, ", ")
	}
	if e.Tab != "" {
		return fmt.Sprintf("unsupported layout in tab %q: inner shape %s (markers: %s)", e.Tab, e.Shape, markers)
	}
	return fmt.Sprintf("unsupported layout: %s (markers: %s)", e.Shape, markers)
}

// CellParseError reports cell text that is neither a number nor a known
// missing-value marker.
type CellParseError struct {
	Raw     string
	Cleaned string
	Row     int
	Column  int
}

func (e *CellParseError) Error() string {
	if e.Row > 0 || e.Column > 0 {
		return fmt.Sprintf("cannot parse cell %q at row %d, column %d", e.Raw, e.Row, e.Column)
	}
	return fmt.Sprintf("cannot parse cell %q", e.Raw)
}

// ErrorKind names the class of a core error for logs and metrics:
// "structural_mismatch", "unsupported_layout", "cell_parse" or "other".
func ErrorKind(err error) string {
	var mismatchErr *StructuralMismatchError
	var unsupported *UnsupportedLayoutError
	var cellErr *CellParseError
	switch {
	case errors.As(err, &unsupported):
		return "unsupported_layout"
	case errors.As(err, &cellErr):
		return "cell_parse"
	case errors.As(err, &mismatchErr):
		return "structural_mismatch"
	default:
		return "other"
	}
}
