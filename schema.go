package xathena

import (
	"database/sql"
	"fmt"
	"time"
)

// Schema binds result set columns to the fields of a record type T. Each
// registration names the column to look up and supplies the setter that
// stores the parsed value; Bind applies the bindings in registration order.
//
// Build a Schema once and reuse it; it is safe for concurrent use after the
// last registration.
type Schema[T any] struct {
	bindings []binding[T]
}

// binding is one (column, target type, setter) triple. typ is the target's
// name as it appears in error messages.
type binding[T any] struct {
	column string
	typ    string
	set    func(*T, sql.NullString) error
}

// NewSchema returns an empty schema for T. Registrations are chained:
//
//	s := xathena.NewSchema[User]().
//		String("name", func(u *User, v string) { u.Name = v }).
//		Int64("age", func(u *User, v int64) { u.Age = v })
func NewSchema[T any]() *Schema[T] {
	return &Schema[T]{}
}

// Bind assembles one record from a mapped row. The first binding that fails
// aborts the row: the error describes that column and the partially
// assembled record is discarded.
func (s *Schema[T]) Bind(rm RowMap) (T, error) {
	var out T
	for i := range s.bindings {
		b := &s.bindings[i]
		cell, ok := rm[b.column]
		if !ok {
			var zero T
			return zero, &BindError{Column: b.column, Type: b.typ, Err: ErrMissingColumn}
		}
		if err := b.set(&out, cell); err != nil {
			var zero T
			return zero, &BindError{Column: b.column, Type: b.typ, Raw: cell.String, Err: err}
		}
	}
	return out, nil
}

// String binds column to a string target. NULL cells fail with
// ErrUnexpectedNull; use NullString or Func when the column can be NULL.
func (s *Schema[T]) String(column string, assign func(*T, string)) *Schema[T] {
	return addParsed(s, column, KindString, assign)
}

// Bool binds column to a bool target.
func (s *Schema[T]) Bool(column string, assign func(*T, bool)) *Schema[T] {
	return addParsed(s, column, KindBool, assign)
}

// Int binds column to an int target.
func (s *Schema[T]) Int(column string, assign func(*T, int)) *Schema[T] {
	return addParsed(s, column, KindInt, assign)
}

// Int32 binds column to an int32 target, the width of an Athena integer.
func (s *Schema[T]) Int32(column string, assign func(*T, int32)) *Schema[T] {
	return addParsed(s, column, KindInt32, assign)
}

// Int64 binds column to an int64 target, the width of an Athena bigint.
func (s *Schema[T]) Int64(column string, assign func(*T, int64)) *Schema[T] {
	return addParsed(s, column, KindInt64, assign)
}

// Float64 binds column to a float64 target.
func (s *Schema[T]) Float64(column string, assign func(*T, float64)) *Schema[T] {
	return addParsed(s, column, KindFloat64, assign)
}

// Time binds column to a time.Time target using the layouts Athena emits
// for timestamp and date cells.
func (s *Schema[T]) Time(column string, assign func(*T, time.Time)) *Schema[T] {
	return addParsed(s, column, KindTime, assign)
}

// TimeLayout binds column to a time.Time target parsed with an explicit
// layout instead of the Athena ones.
func (s *Schema[T]) TimeLayout(column, layout string, assign func(*T, time.Time)) *Schema[T] {
	s.bindings = append(s.bindings, binding[T]{
		column: column,
		typ:    "time.Time",
		set: func(out *T, cell sql.NullString) error {
			if !cell.Valid {
				return ErrUnexpectedNull
			}
			t, err := time.Parse(layout, cell.String)
			if err != nil {
				return ErrTypeMismatch
			}
			assign(out, t)
			return nil
		},
	})
	return s
}

// Bytes binds column to a []byte target, decoding Athena's varbinary hex
// form.
func (s *Schema[T]) Bytes(column string, assign func(*T, []byte)) *Schema[T] {
	return addParsed(s, column, KindBytes, assign)
}

// NullString binds column to a sql.NullString target. The cell is passed
// through as is, so NULL binds as the invalid NullString.
func (s *Schema[T]) NullString(column string, assign func(*T, sql.NullString)) *Schema[T] {
	s.bindings = append(s.bindings, binding[T]{
		column: column,
		typ:    "sql.NullString",
		set: func(out *T, cell sql.NullString) error {
			assign(out, cell)
			return nil
		},
	})
	return s
}

// NullBool binds column to a sql.NullBool target. NULL binds as the invalid
// zero value.
func (s *Schema[T]) NullBool(column string, assign func(*T, sql.NullBool)) *Schema[T] {
	return addNull(s, column, KindBool, func(v bool) sql.NullBool {
		return sql.NullBool{Bool: v, Valid: true}
	}, assign)
}

// NullInt64 binds column to a sql.NullInt64 target. NULL binds as the
// invalid zero value.
func (s *Schema[T]) NullInt64(column string, assign func(*T, sql.NullInt64)) *Schema[T] {
	return addNull(s, column, KindInt64, func(v int64) sql.NullInt64 {
		return sql.NullInt64{Int64: v, Valid: true}
	}, assign)
}

// NullFloat64 binds column to a sql.NullFloat64 target. NULL binds as the
// invalid zero value.
func (s *Schema[T]) NullFloat64(column string, assign func(*T, sql.NullFloat64)) *Schema[T] {
	return addNull(s, column, KindFloat64, func(v float64) sql.NullFloat64 {
		return sql.NullFloat64{Float64: v, Valid: true}
	}, assign)
}

// NullTime binds column to a sql.NullTime target. NULL binds as the invalid
// zero value.
func (s *Schema[T]) NullTime(column string, assign func(*T, sql.NullTime)) *Schema[T] {
	return addNull(s, column, KindTime, func(v time.Time) sql.NullTime {
		return sql.NullTime{Time: v, Valid: true}
	}, assign)
}

// Func binds column with a caller-supplied setter. The raw cell is passed
// through, NULL included, and any error the setter returns is reported
// verbatim in the row's BindError.
func (s *Schema[T]) Func(column string, set func(*T, sql.NullString) error) *Schema[T] {
	s.bindings = append(s.bindings, binding[T]{column: column, set: set})
	return s
}

// addParsed registers a binding that parses the cell with kind and hands the
// typed value to assign. V must be the Go type kind parses into.
func addParsed[T, V any](s *Schema[T], column string, kind Kind, assign func(*T, V)) *Schema[T] {
	s.bindings = append(s.bindings, binding[T]{
		column: column,
		typ:    kind.String(),
		set: func(out *T, cell sql.NullString) error {
			if !cell.Valid {
				return ErrUnexpectedNull
			}
			v, err := kind.Parse(cell.String)
			if err != nil {
				return ErrTypeMismatch
			}
			assign(out, v.(V))
			return nil
		},
	})
	return s
}

// addNull registers a binding for a sql.Null wrapper N around value type V.
// NULL cells assign the zero (invalid) N.
func addNull[T, V, N any](s *Schema[T], column string, kind Kind, wrap func(V) N, assign func(*T, N)) *Schema[T] {
	var zero N
	s.bindings = append(s.bindings, binding[T]{
		column: column,
		typ:    fmt.Sprintf("%T", zero),
		set: func(out *T, cell sql.NullString) error {
			if !cell.Valid {
				assign(out, zero)
				return nil
			}
			v, err := kind.Parse(cell.String)
			if err != nil {
				return ErrTypeMismatch
			}
			assign(out, wrap(v.(V)))
			return nil
		},
	})
	return s
}
