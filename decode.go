package xathena

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/service/athena/types"
	"golang.org/x/sync/errgroup"
)

// Policy decides what a row that fails to bind does to the batch.
type Policy uint8

const (
	// PolicyFail aborts the batch at the first failing row. Nothing is
	// returned besides that row's error.
	PolicyFail Policy = iota
	// PolicySkip drops failing rows and keeps the rest. Decoder.Logger, when
	// set, records each dropped row.
	PolicySkip
	// PolicyCollect keeps the rows that bind and returns the failures
	// joined, so both the usable records and every error come back.
	PolicyCollect
)

// Decoder converts result sets into records of type T. The zero value
// decodes with the derived schema for T, fails on the first bad row, and
// treats the first row as data; set the fields to change that.
//
// A Decoder is stateless apart from its configuration and is safe for
// concurrent use.
type Decoder[T any] struct {
	// Schema binds each row. When nil, the schema derived from T's fields
	// is used (see SchemaOf).
	Schema *Schema[T]

	// Policy is applied to rows that fail to bind, in row order.
	Policy Policy

	// SkipHeader drops the first row before decoding. Athena SELECT results
	// repeat the column names as the first row; HasHeaderRow detects that.
	SkipHeader bool

	// Logger, when set, records rows dropped under PolicySkip at Warn
	// level.
	Logger *slog.Logger

	// Parallelism caps the goroutines binding rows. Values below 2 bind on
	// the calling goroutine. Results and policy handling keep row order
	// either way, but with parallelism every row is bound before PolicyFail
	// picks the first failure.
	Parallelism int
}

// DecodeAll converts every data row of the result set into a T.
//
// Rows bind all-or-nothing: a record is either assembled from every bound
// column or its row fails with a RowError, and d.Policy decides what that
// failure does to the batch. A result set with no rows returns a nil slice
// and no error.
func (d *Decoder[T]) DecodeAll(rs *types.ResultSet) ([]T, error) {
	rows, cols, err := d.dataRows(rs)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	schema, err := d.schema()
	if err != nil {
		return nil, err
	}

	offset := 0
	if d.SkipHeader {
		offset = 1
	}
	recs := make([]T, len(rows))
	errs := make([]*RowError, len(rows))
	bind := func(i int) {
		rm, err := MapRow(cols, rows[i])
		if err == nil {
			recs[i], err = schema.Bind(rm)
		}
		if err != nil {
			errs[i] = &RowError{Row: i + offset, Err: err}
		}
	}

	if d.Parallelism > 1 && len(rows) > 1 {
		var g errgroup.Group
		g.SetLimit(d.Parallelism)
		for i := range rows {
			g.Go(func() error {
				bind(i)
				return nil
			})
		}
		_ = g.Wait() // workers report through errs
	} else {
		for i := range rows {
			bind(i)
			if errs[i] != nil && d.Policy == PolicyFail {
				return nil, errs[i]
			}
		}
	}

	return d.apply(recs, errs)
}

// apply walks the bound rows in order and resolves failures per d.Policy.
func (d *Decoder[T]) apply(recs []T, errs []*RowError) ([]T, error) {
	out := make([]T, 0, len(recs))
	var joined []error
	for i, rec := range recs {
		re := errs[i]
		if re == nil {
			out = append(out, rec)
			continue
		}
		switch d.Policy {
		case PolicySkip:
			if d.Logger != nil {
				d.Logger.Warn("row discarded", "row", re.Row, "error", re.Err)
			}
		case PolicyCollect:
			joined = append(joined, re)
		default:
			return nil, re
		}
	}
	if len(joined) > 0 {
		return out, errors.Join(joined...)
	}
	return out, nil
}

// DecodeOne converts the first data row of the result set into a T. It
// returns [sql.ErrNoRows] when there is no such row and ignores any rows
// after the first; d.Policy does not apply.
func (d *Decoder[T]) DecodeOne(rs *types.ResultSet) (out T, err error) {
	rows, cols, err := d.dataRows(rs)
	if err != nil {
		return out, err
	}
	if len(rows) == 0 {
		return out, sql.ErrNoRows
	}
	schema, err := d.schema()
	if err != nil {
		return out, err
	}
	offset := 0
	if d.SkipHeader {
		offset = 1
	}
	rm, berr := MapRow(cols, rows[0])
	if berr == nil {
		out, berr = schema.Bind(rm)
	}
	if berr != nil {
		var zero T
		return zero, &RowError{Row: offset, Err: berr}
	}
	return out, nil
}

// dataRows validates the result set shape and returns the rows to decode
// with the column names. A result set that has neither metadata nor rows
// decodes to nothing rather than failing; one with rows but no metadata is
// malformed.
func (d *Decoder[T]) dataRows(rs *types.ResultSet) ([]types.Row, []string, error) {
	if rs == nil {
		return nil, nil, fmt.Errorf("%w: nil result set", ErrMalformedResultSet)
	}
	if rs.ResultSetMetadata == nil && len(rs.Rows) == 0 {
		return nil, nil, nil
	}
	cols, err := ColumnNames(rs)
	if err != nil {
		return nil, nil, err
	}
	rows := rs.Rows
	if d.SkipHeader && len(rows) > 0 {
		rows = rows[1:]
	}
	return rows, cols, nil
}

func (d *Decoder[T]) schema() (*Schema[T], error) {
	if d.Schema != nil {
		return d.Schema, nil
	}
	return SchemaOf[T]()
}

// DecodeAll converts every data row of the result set into a slice of T
// using the schema derived from T's fields.
//
// T is a struct; its `athena` tags and ,inline fields shape the derived
// schema the way SchemaOf describes. A header row is detected with
// HasHeaderRow and dropped. Rows bind all-or-nothing, and the first row
// that fails to bind aborts the batch; build a Decoder to choose another
// policy.
//
// Example:
//
//	// Given a *athena.GetQueryResultsOutput in variable `res`:
//	type User struct {
//	    ID    int64  `athena:"id"`
//	    Email string `athena:"email"`
//	}
//
//	users, err := xathena.DecodeAll[User](res.ResultSet)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, u := range users {
//	    fmt.Println(u.ID, u.Email)
//	}
func DecodeAll[T any](rs *types.ResultSet) ([]T, error) {
	d := Decoder[T]{SkipHeader: HasHeaderRow(rs)}
	return d.DecodeAll(rs)
}

// DecodeOne converts the first data row of the result set into a value of
// type T using the schema derived from T's fields.
//
// It returns [sql.ErrNoRows] if the result set has no data rows and does
// not enforce "exactly one row" beyond the first; if more rows exist, they
// are ignored. Use LIMIT 1 (or an equivalent WHERE clause) when you require
// at-most-one row. A header row is detected with HasHeaderRow and dropped.
//
// Example:
//
//	// Given a *athena.GetQueryResultsOutput in variable `res`:
//	type Count struct {
//	    N int64 `athena:"n"`
//	}
//
//	c, err := xathena.DecodeOne[Count](res.ResultSet)
//	if err != nil {
//	    if errors.Is(err, sql.ErrNoRows) {
//	        // handle empty result
//	    } else {
//	        // handle other errors
//	    }
//	}
//	// use c.N
func DecodeOne[T any](rs *types.ResultSet) (T, error) {
	d := Decoder[T]{SkipHeader: HasHeaderRow(rs)}
	return d.DecodeOne(rs)
}
