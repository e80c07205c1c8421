package xathena

import (
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSchemaBind_AllRegistrars(t *testing.T) {
	type record struct {
		Name  string
		OK    bool
		Count int
		Small int32
		Big   int64
		Ratio float64
		At    time.Time
		Day   time.Time
		Blob  []byte
		NS    sql.NullString
		NB    sql.NullBool
		NI    sql.NullInt64
		NF    sql.NullFloat64
		NT    sql.NullTime
		Extra string
	}

	s := NewSchema[record]().
		String("name", func(r *record, v string) { r.Name = v }).
		Bool("ok", func(r *record, v bool) { r.OK = v }).
		Int("count", func(r *record, v int) { r.Count = v }).
		Int32("small", func(r *record, v int32) { r.Small = v }).
		Int64("big", func(r *record, v int64) { r.Big = v }).
		Float64("ratio", func(r *record, v float64) { r.Ratio = v }).
		Time("at", func(r *record, v time.Time) { r.At = v }).
		TimeLayout("day", "02/01/2006", func(r *record, v time.Time) { r.Day = v }).
		Bytes("blob", func(r *record, v []byte) { r.Blob = v }).
		NullString("ns", func(r *record, v sql.NullString) { r.NS = v }).
		NullBool("nb", func(r *record, v sql.NullBool) { r.NB = v }).
		NullInt64("ni", func(r *record, v sql.NullInt64) { r.NI = v }).
		NullFloat64("nf", func(r *record, v sql.NullFloat64) { r.NF = v }).
		NullTime("nt", func(r *record, v sql.NullTime) { r.NT = v }).
		Func("extra", func(r *record, c sql.NullString) error {
			r.Extra = strings.ToUpper(c.String)
			return nil
		})

	rm := RowMap{
		"name":  text("alpha"),
		"ok":    text("true"),
		"count": text("-3"),
		"small": text("7"),
		"big":   text("9000000000"),
		"ratio": text("0.25"),
		"at":    text("2024-06-15 08:30:00"),
		"day":   text("31/12/2024"),
		"blob":  text("cafe"),
		"ns":    text("maybe"),
		"nb":    text("false"),
		"ni":    text("42"),
		"nf":    text("1.5"),
		"nt":    text("2024-06-15"),
		"extra": text("shout"),
	}

	got, err := s.Bind(rm)
	require.NoError(t, err)
	require.Equal(t, record{
		Name:  "alpha",
		OK:    true,
		Count: -3,
		Small: 7,
		Big:   9000000000,
		Ratio: 0.25,
		At:    time.Date(2024, 6, 15, 8, 30, 0, 0, time.UTC),
		Day:   time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		Blob:  []byte{0xca, 0xfe},
		NS:    sql.NullString{String: "maybe", Valid: true},
		NB:    sql.NullBool{Bool: false, Valid: true},
		NI:    sql.NullInt64{Int64: 42, Valid: true},
		NF:    sql.NullFloat64{Float64: 1.5, Valid: true},
		NT:    sql.NullTime{Time: time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), Valid: true},
		Extra: "SHOUT",
	}, got)
}

func TestSchemaBind_NullWrappersOnNull(t *testing.T) {
	type record struct {
		NS sql.NullString
		NB sql.NullBool
		NI sql.NullInt64
		NF sql.NullFloat64
		NT sql.NullTime
	}
	s := NewSchema[record]().
		NullString("ns", func(r *record, v sql.NullString) { r.NS = v }).
		NullBool("nb", func(r *record, v sql.NullBool) { r.NB = v }).
		NullInt64("ni", func(r *record, v sql.NullInt64) { r.NI = v }).
		NullFloat64("nf", func(r *record, v sql.NullFloat64) { r.NF = v }).
		NullTime("nt", func(r *record, v sql.NullTime) { r.NT = v })

	rm := RowMap{"ns": {}, "nb": {}, "ni": {}, "nf": {}, "nt": {}}
	got, err := s.Bind(rm)
	require.NoError(t, err)
	require.Zero(t, got)
}

func TestSchemaBind_MissingColumn(t *testing.T) {
	type record struct{ Age int64 }
	s := NewSchema[record]().Int64("age", func(r *record, v int64) { r.Age = v })

	_, err := s.Bind(RowMap{})
	require.ErrorIs(t, err, ErrMissingColumn)
	require.EqualError(t, err, `xathena: column "age" not found in result set`)

	var be *BindError
	require.ErrorAs(t, err, &be)
	require.Equal(t, "age", be.Column)
	require.Equal(t, "int64", be.Type)
}

func TestSchemaBind_UnexpectedNull(t *testing.T) {
	type record struct{ Name string }
	s := NewSchema[record]().String("name", func(r *record, v string) { r.Name = v })

	_, err := s.Bind(RowMap{"name": {}})
	require.ErrorIs(t, err, ErrUnexpectedNull)
	require.EqualError(t, err, `xathena: column "name": unexpected NULL for string`)
}

func TestSchemaBind_TypeMismatch(t *testing.T) {
	type record struct{ Age int64 }
	s := NewSchema[record]().Int64("age", func(r *record, v int64) { r.Age = v })

	_, err := s.Bind(RowMap{"age": {String: "abc", Valid: true}})
	require.ErrorIs(t, err, ErrTypeMismatch)
	require.EqualError(t, err, `xathena: column "age": cannot parse "abc" as int64`)

	var be *BindError
	require.ErrorAs(t, err, &be)
	require.Equal(t, "abc", be.Raw)
}

func TestSchemaBind_AllOrNothing(t *testing.T) {
	type record struct {
		Name string
		Age  int64
	}
	s := NewSchema[record]().
		String("name", func(r *record, v string) { r.Name = v }).
		Int64("age", func(r *record, v int64) { r.Age = v })

	got, err := s.Bind(RowMap{"name": text("alpha"), "age": text("abc")})
	require.Error(t, err)
	require.Zero(t, got, "failed rows must not leak partial records")
}

func TestSchemaBind_FuncErrorVerbatim(t *testing.T) {
	boom := errors.New("boom")
	type record struct{ V string }
	s := NewSchema[record]().Func("v", func(r *record, c sql.NullString) error {
		return boom
	})

	_, err := s.Bind(RowMap{"v": {String: "x", Valid: true}})
	require.ErrorIs(t, err, boom)
	require.EqualError(t, err, `xathena: column "v": boom`)
}

func TestSchemaBind_TimeLayoutMismatch(t *testing.T) {
	type record struct{ Day time.Time }
	s := NewSchema[record]().TimeLayout("day", "02/01/2006", func(r *record, v time.Time) { r.Day = v })

	_, err := s.Bind(RowMap{"day": {String: "2024-12-31", Valid: true}})
	require.ErrorIs(t, err, ErrTypeMismatch)
}
