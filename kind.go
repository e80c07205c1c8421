package xathena

import (
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the Go value a cell's text parses into. Every binding
// carries a Kind, and every Kind has exactly one parse rule, so a given cell
// text either yields a value of that kind or fails with ErrTypeMismatch.
//
// The zero value is KindString, which accepts any text unchanged. Column
// types this package does not recognize map to KindString rather than
// failing, matching Athena's own behavior of shipping every cell as text.
type Kind uint8

const (
	KindString Kind = iota
	KindBool
	KindInt
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindBytes
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindInt8:
		return "int8"
	case KindInt16:
		return "int16"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindUint:
		return "uint"
	case KindUint8:
		return "uint8"
	case KindUint16:
		return "uint16"
	case KindUint32:
		return "uint32"
	case KindUint64:
		return "uint64"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindBytes:
		return "[]byte"
	case KindTime:
		return "time.Time"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Athena renders timestamps in the session zone without an offset and dates
// as bare calendar days. RFC 3339 is accepted as a fallback for cells that
// were formatted upstream.
const (
	timestampLayout = "2006-01-02 15:04:05.999999999"
	dateLayout      = "2006-01-02"
)

// Parse converts a cell's text into the Go value for k. The dynamic type of
// the result is the type named by k.String. Numeric kinds require the exact
// textual form strconv accepts for the width: no rounding, no truncation,
// and range overflow is an error.
func (k Kind) Parse(s string) (any, error) {
	switch k {
	case KindString:
		return s, nil
	case KindBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, err
		}
		return b, nil
	case KindInt:
		return parseInt[int](s, strconv.IntSize)
	case KindInt8:
		return parseInt[int8](s, 8)
	case KindInt16:
		return parseInt[int16](s, 16)
	case KindInt32:
		return parseInt[int32](s, 32)
	case KindInt64:
		return parseInt[int64](s, 64)
	case KindUint:
		return parseUint[uint](s, strconv.IntSize)
	case KindUint8:
		return parseUint[uint8](s, 8)
	case KindUint16:
		return parseUint[uint16](s, 16)
	case KindUint32:
		return parseUint[uint32](s, 32)
	case KindUint64:
		return parseUint[uint64](s, 64)
	case KindFloat32:
		n, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return nil, err
		}
		return float32(n), nil
	case KindFloat64:
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
		return n, nil
	case KindBytes:
		return parseBytes(s)
	case KindTime:
		return parseTime(s)
	}
	return nil, ErrTypeMismatch
}

func parseInt[T int | int8 | int16 | int32 | int64](s string, bits int) (any, error) {
	n, err := strconv.ParseInt(s, 10, bits)
	if err != nil {
		return nil, err
	}
	return T(n), nil
}

func parseUint[T uint | uint8 | uint16 | uint32 | uint64](s string, bits int) (any, error) {
	n, err := strconv.ParseUint(s, 10, bits)
	if err != nil {
		return nil, err
	}
	return T(n), nil
}

// parseTime accepts the timestamp and date layouts Athena emits, then
// RFC 3339. Athena timestamps carry no offset, so they parse as UTC.
func parseTime(s string) (any, error) {
	for _, layout := range []string{timestampLayout, dateLayout, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return nil, &time.ParseError{Layout: timestampLayout, Value: s}
}

// parseBytes decodes the hex dump Athena uses for varbinary cells. Byte
// pairs may be separated by spaces ("de ad be ef") or run together.
func parseBytes(s string) (any, error) {
	b, err := hex.DecodeString(strings.ReplaceAll(s, " ", ""))
	if err != nil {
		return nil, err
	}
	return b, nil
}

// KindForColumnType maps an Athena column type name, as reported in
// ColumnInfo.Type, to the Kind its cells parse into. Precision suffixes are
// ignored, so "decimal(10,2)" and "varchar(255)" resolve like their base
// names. Unrecognized types resolve to KindString.
func KindForColumnType(dbType string) Kind {
	name := strings.ToLower(dbType)
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = name[:i]
	}
	switch strings.TrimSpace(name) {
	case "boolean":
		return KindBool
	case "tinyint":
		return KindInt8
	case "smallint":
		return KindInt16
	case "integer", "int":
		return KindInt32
	case "bigint":
		return KindInt64
	case "float", "real":
		return KindFloat32
	case "double", "decimal":
		return KindFloat64
	case "binary", "varbinary":
		return KindBytes
	case "date", "timestamp", "timestamp with time zone":
		return KindTime
	}
	return KindString
}
