package xathena

import (
	"database/sql"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"
)

// Column describes one column of a result set: its Athena name and type, the
// Kind its cells parse into, and whether the engine marked it nullable.
type Column struct {
	Name     string
	Type     string // Athena type name as reported, e.g. "varchar"
	Kind     Kind
	Nullable bool
}

// Columns extracts the column descriptions from a result set's metadata, in
// result-set order. A nil result set, or one without metadata, returns
// ErrMalformedResultSet.
func Columns(rs *types.ResultSet) ([]Column, error) {
	if rs == nil {
		return nil, fmt.Errorf("%w: nil result set", ErrMalformedResultSet)
	}
	if rs.ResultSetMetadata == nil {
		return nil, fmt.Errorf("%w: missing column metadata", ErrMalformedResultSet)
	}
	info := rs.ResultSetMetadata.ColumnInfo
	cols := make([]Column, len(info))
	for i, ci := range info {
		if ci.Name == nil {
			return nil, fmt.Errorf("%w: column %d has no name", ErrMalformedResultSet, i)
		}
		typ := aws.ToString(ci.Type)
		cols[i] = Column{
			Name:     *ci.Name,
			Type:     typ,
			Kind:     KindForColumnType(typ),
			Nullable: ci.Nullable != types.ColumnNullableNotNull,
		}
	}
	return cols, nil
}

// ColumnNames returns just the column names, in result-set order.
func ColumnNames(rs *types.ResultSet) ([]string, error) {
	cols, err := Columns(rs)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names, nil
}

// HasHeaderRow reports whether the first row of the result set repeats the
// column names. Athena SELECT queries ship such a header row; DDL and CTAS
// output does not. A first data row that happens to equal the column names
// is indistinguishable from a header.
func HasHeaderRow(rs *types.ResultSet) bool {
	cols, err := Columns(rs)
	if err != nil || len(cols) == 0 || len(rs.Rows) == 0 {
		return false
	}
	data := rs.Rows[0].Data
	if len(data) != len(cols) {
		return false
	}
	for i, c := range cols {
		if data[i].VarCharValue == nil || *data[i].VarCharValue != c.Name {
			return false
		}
	}
	return true
}

// RowMap is one row keyed by column name. A key that is absent means the
// result set has no such column; a present key holding an invalid
// sql.NullString means the cell was SQL NULL. The two cases are distinct and
// bind differently.
type RowMap map[string]sql.NullString

// Get returns the text of the named cell. ok is false when the column is
// absent or the cell is NULL.
func (m RowMap) Get(name string) (value string, ok bool) {
	cell, ok := m[name]
	if !ok || !cell.Valid {
		return "", false
	}
	return cell.String, true
}

// MapRow pairs a row's cells with the column names, in order. The row must
// have exactly one cell per column; any other shape returns
// ErrMalformedResultSet. When the same name appears more than once the last
// occurrence wins.
func MapRow(cols []string, row types.Row) (RowMap, error) {
	if len(row.Data) != len(cols) {
		return nil, fmt.Errorf("%w: row has %d cells for %d columns", ErrMalformedResultSet, len(row.Data), len(cols))
	}
	m := make(RowMap, len(cols))
	for i, name := range cols {
		m[name] = cellText(row.Data[i])
	}
	return m, nil
}

func cellText(d types.Datum) sql.NullString {
	return sql.NullString{String: aws.ToString(d.VarCharValue), Valid: d.VarCharValue != nil}
}
