package xathena

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedResultSet indicates a result set that violates the Athena
	// contract: a nil result set, rows without column metadata, or a row whose
	// cell count differs from the number of columns.
	ErrMalformedResultSet = errors.New("xathena: malformed result set")

	// ErrMissingColumn is returned when a bound column name is not present in
	// the result set schema.
	ErrMissingColumn = errors.New("xathena: column not found")

	// ErrUnexpectedNull is returned when a cell is SQL NULL but the target is
	// not optional (not a pointer and not one of the sql.Null types).
	ErrUnexpectedNull = errors.New("xathena: unexpected NULL")

	// ErrTypeMismatch is returned when a cell's text does not parse into the
	// target type. The surrounding BindError carries the raw text.
	ErrTypeMismatch = errors.New("xathena: value does not parse as target type")
)

// BindError describes the failure to bind a single column to a record field.
// For the built-in coercions Err is one of the package sentinel errors, so
// callers can test the failure kind with errors.Is; setters installed with
// Func and types binding through encoding.TextUnmarshaler report their own
// errors, which pass through verbatim.
type BindError struct {
	Column string // column name the binding looked up
	Type   string // target type of the binding, e.g. "int64" or "time.Time"
	Raw    string // raw cell text; meaningful when Err is ErrTypeMismatch
	Err    error
}

func (e *BindError) Error() string {
	switch e.Err {
	case ErrMissingColumn:
		return fmt.Sprintf("xathena: column %q not found in result set", e.Column)
	case ErrUnexpectedNull:
		if e.Type == "" {
			return fmt.Sprintf("xathena: column %q: unexpected NULL", e.Column)
		}
		return fmt.Sprintf("xathena: column %q: unexpected NULL for %s", e.Column, e.Type)
	case ErrTypeMismatch:
		return fmt.Sprintf("xathena: column %q: cannot parse %q as %s", e.Column, e.Raw, e.Type)
	}
	return fmt.Sprintf("xathena: column %q: %v", e.Column, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }

// RowError reports a result-set row that failed to bind. Row is the
// zero-based index of the row within the result set, counting a header row
// if one is present.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("xathena: row %d: %s", e.Row, strings.TrimPrefix(e.Err.Error(), "xathena: "))
}

func (e *RowError) Unwrap() error { return e.Err }
