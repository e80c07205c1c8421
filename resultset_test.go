package xathena

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/athena/types"
	"github.com/stretchr/testify/require"
)

func TestColumns(t *testing.T) {
	notNull := col("id", "bigint")
	notNull.Nullable = types.ColumnNullableNotNull
	nullable := col("name", "varchar(64)")
	nullable.Nullable = types.ColumnNullableNullable
	unknown := col("score", "double") // nullability not reported

	rs := resultSet([]types.ColumnInfo{notNull, nullable, unknown})

	cols, err := Columns(rs)
	require.NoError(t, err)
	require.Equal(t, []Column{
		{Name: "id", Type: "bigint", Kind: KindInt64, Nullable: false},
		{Name: "name", Type: "varchar(64)", Kind: KindString, Nullable: true},
		{Name: "score", Type: "double", Kind: KindFloat64, Nullable: true},
	}, cols)
}

func TestColumns_Malformed(t *testing.T) {
	_, err := Columns(nil)
	require.ErrorIs(t, err, ErrMalformedResultSet)

	_, err = Columns(&types.ResultSet{})
	require.ErrorIs(t, err, ErrMalformedResultSet)

	rs := resultSet([]types.ColumnInfo{{Type: cell("bigint")}}) // no name
	_, err = Columns(rs)
	require.ErrorIs(t, err, ErrMalformedResultSet)
}

func TestColumnNames(t *testing.T) {
	rs := resultSet([]types.ColumnInfo{col("a", "bigint"), col("b", "varchar")})
	names, err := ColumnNames(rs)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, names)
}

func TestHasHeaderRow(t *testing.T) {
	cols := []types.ColumnInfo{col("a", "bigint"), col("b", "varchar")}

	require.True(t, HasHeaderRow(resultSet(cols,
		headerRow(cols),
		row(cell("1"), cell("x")),
	)))

	// first row is data
	require.False(t, HasHeaderRow(resultSet(cols,
		row(cell("1"), cell("x")),
	)))

	// a NULL cell can never be a column name
	require.False(t, HasHeaderRow(resultSet(cols,
		row(cell("a"), nil),
	)))

	// partial match is data
	require.False(t, HasHeaderRow(resultSet(cols,
		row(cell("a"), cell("x")),
	)))

	// shape mismatches are not headers
	require.False(t, HasHeaderRow(resultSet(cols,
		row(cell("a")),
	)))

	require.False(t, HasHeaderRow(resultSet(cols)))
	require.False(t, HasHeaderRow(nil))
}

func TestMapRow(t *testing.T) {
	m, err := MapRow([]string{"a", "b"}, row(cell("1"), nil))
	require.NoError(t, err)
	require.Len(t, m, 2)

	// present and non-NULL
	v, ok := m.Get("a")
	require.True(t, ok)
	require.Equal(t, "1", v)

	// present but NULL: distinct from missing
	_, ok = m.Get("b")
	require.False(t, ok)
	c, present := m["b"]
	require.True(t, present)
	require.False(t, c.Valid)

	// missing entirely
	_, present = m["c"]
	require.False(t, present)
}

func TestMapRow_WidthMismatch(t *testing.T) {
	_, err := MapRow([]string{"a", "b"}, row(cell("1")))
	require.ErrorIs(t, err, ErrMalformedResultSet)

	_, err = MapRow([]string{"a"}, row(cell("1"), cell("2")))
	require.ErrorIs(t, err, ErrMalformedResultSet)
}

func TestMapRow_DuplicateNameLastWins(t *testing.T) {
	m, err := MapRow([]string{"a", "b", "a"}, row(cell("1"), cell("2"), cell("3")))
	require.NoError(t, err)
	require.Len(t, m, 2)

	v, ok := m.Get("a")
	require.True(t, ok)
	require.Equal(t, "3", v)
}

func TestMapRow_Empty(t *testing.T) {
	m, err := MapRow(nil, row())
	require.NoError(t, err)
	require.Empty(t, m)
}
