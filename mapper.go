package xathena

import (
	"database/sql"
	"encoding"
	"fmt"
	"reflect"
	"sync"
	"time"
)

// Mapper owns the derived-schema cache. Use the package-level lazy getter
// (getMapper) or create your own in tests.
type Mapper struct {
	schemaCache sync.Map // key: reflect.Type -> *Schema[T] (per T)
}

func NewMapper() *Mapper { return &Mapper{} }

// --- package-level lazy global mapper (used by SchemaOf/DecodeAll) ---

var (
	mapper     *Mapper
	mapperOnce sync.Once
)

func getMapper() *Mapper {
	mapperOnce.Do(func() { mapper = NewMapper() })
	return mapper
}

// SchemaOf derives the Schema for struct type T from its fields. Each
// exported field binds the column named by its `athena:"..."` tag, or the
// snake_case form of the field name when untagged; a tag of "-" omits the
// field. Anonymous and `athena:",inline"` struct fields flatten into the
// parent, and when two fields derive the same column name the first wins.
//
// Field types bind as follows, first match deciding:
//
//   - database/sql null wrappers (sql.NullString, sql.Null[V], ...) bind
//     NULL cells as their invalid zero value
//   - pointer fields bind NULL cells as nil
//   - time.Time parses with the Athena timestamp and date layouts
//   - types implementing encoding.TextUnmarshaler receive the raw cell text
//   - bool, the integer and float widths, string, and []byte parse by Kind,
//     named types with those underlying kinds included
//
// Any other field type fails derivation. Derived schemas are cached per
// type, so repeated calls for the same T are cheap.
func SchemaOf[T any]() (*Schema[T], error) {
	return schemaOf[T](getMapper())
}

func schemaOf[T any](m *Mapper) (*Schema[T], error) {
	rt := reflect.TypeOf((*T)(nil)).Elem()
	if v, ok := m.schemaCache.Load(rt); ok {
		return v.(*Schema[T]), nil
	}
	s, err := deriveSchema[T](rt)
	if err != nil {
		return nil, err
	}
	v, _ := m.schemaCache.LoadOrStore(rt, s)
	return v.(*Schema[T]), nil
}

func deriveSchema[T any](rt reflect.Type) (*Schema[T], error) {
	if rt.Kind() != reflect.Struct {
		return nil, fmt.Errorf("xathena: cannot derive a schema for %s; use a struct or NewSchema", rt)
	}
	s := NewSchema[T]()
	for _, f := range structFields(rt) {
		ft := fieldTypeByPath(rt, f.fpath)
		step, err := makeFieldStep(ft)
		if err != nil {
			return nil, fmt.Errorf("xathena: deriving schema for %s: column %q: %v", rt, f.column, err)
		}
		fpath := f.fpath
		s.bindings = append(s.bindings, binding[T]{
			column: f.column,
			typ:    ft.String(),
			set: func(out *T, cell sql.NullString) error {
				return step(fieldByPathAlloc(reflect.ValueOf(out).Elem(), fpath), cell)
			},
		})
	}
	return s, nil
}

// ---------------- Struct indexing & tags ----------------

// derivedField is one bindable field: the column it binds and the index
// path to reach it, in field declaration order.
type derivedField struct {
	column string
	fpath  []int
}

func structFields(rt reflect.Type) []derivedField {
	var fields []derivedField
	seen := make(map[string]struct{})

	var walk func(t reflect.Type, base []int, forceInline bool)
	walk = func(t reflect.Type, base []int, forceInline bool) {
		t = derefPtr(t)
		if t.Kind() != reflect.Struct {
			return
		}
		n := t.NumField()
		for i := 0; i < n; i++ {
			sf := t.Field(i)
			if sf.PkgPath != "" && !sf.Anonymous { // unexported, non-anonymous
				continue
			}
			tag := sf.Tag.Get("athena")
			name, inline, omit := parseTag(tag)
			if omit {
				continue
			}
			ft := sf.Type
			path := append(append([]int(nil), base...), i)

			if inline || (sf.Anonymous && (forceInline || tag == "")) {
				if isStruct(ft) || (ft.Kind() == reflect.Ptr && isStruct(ft.Elem())) {
					walk(ft, path, inline)
					continue
				}
			}
			if name == "" {
				name = snakeCase(sf.Name)
			}
			if _, ok := seen[name]; !ok {
				fields = append(fields, derivedField{column: name, fpath: path})
				seen[name] = struct{}{}
			}
		}
	}
	walk(rt, nil, false)
	return fields
}

// parseTag supports: "-", "col", ",inline", "col,inline", "inline,col".
func parseTag(tag string) (name string, inline bool, omit bool) {
	if tag == "-" {
		return "", false, true
	}
	if tag == "" {
		return "", false, false
	}
	start := 0
	for i := 0; i <= len(tag); i++ {
		if i == len(tag) || tag[i] == ',' {
			part := tag[start:i]
			if part == "inline" {
				inline = true
			} else if part != "" && name == "" {
				name = part
			}
			start = i + 1
		}
	}
	return name, inline, false
}

// snakeCase derives the column form of a Go field name: MyValue -> my_value,
// TestID -> test_id, HTTPCode -> http_code. ASCII only; Athena column names
// are ASCII.
func snakeCase(s string) string {
	b := make([]byte, 0, len(s)+2)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if 'A' <= c && c <= 'Z' {
			if i > 0 {
				prev := s[i-1]
				var next byte
				if i+1 < len(s) {
					next = s[i+1]
				}
				switch {
				case 'a' <= prev && prev <= 'z', '0' <= prev && prev <= '9':
					b = append(b, '_')
				case 'A' <= prev && prev <= 'Z' && 'a' <= next && next <= 'z':
					b = append(b, '_')
				}
			}
			c += 'a' - 'A'
		}
		b = append(b, c)
	}
	return string(b)
}

// ---------------- Step construction ----------------

// stepFn stores one parsed cell into an addressable field value.
type stepFn func(fv reflect.Value, cell sql.NullString) error

var (
	timeType            = reflect.TypeOf(time.Time{})
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

func makeFieldStep(ft reflect.Type) (stepFn, error) {
	// 1) database/sql null wrappers bind NULL as their invalid zero value.
	if step, ok := makeNullWrapperStep(ft); ok {
		return step, nil
	}
	// 2) Pointer fields are optional: NULL binds nil, everything else binds
	//    through the element's step.
	if ft.Kind() == reflect.Ptr {
		elemType := ft.Elem()
		elem, err := makeFieldStep(elemType)
		if err != nil {
			return nil, err
		}
		return func(fv reflect.Value, cell sql.NullString) error {
			if !cell.Valid {
				fv.SetZero()
				return nil
			}
			p := reflect.New(elemType)
			if err := elem(p.Elem(), cell); err != nil {
				return err
			}
			fv.Set(p)
			return nil
		}, nil
	}
	// 3) time.Time before TextUnmarshaler, so the Athena layouts win over
	//    the RFC 3339 form UnmarshalText expects.
	if ft == timeType {
		return makeParseStep(ft, KindTime), nil
	}
	// 4) Types that unmarshal text receive the raw cell; their errors are
	//    reported verbatim.
	if reflect.PointerTo(ft).Implements(textUnmarshalerType) {
		return func(fv reflect.Value, cell sql.NullString) error {
			if !cell.Valid {
				return ErrUnexpectedNull
			}
			return fv.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(cell.String))
		}, nil
	}
	// 5) Primitives and named primitive types parse by kind.
	if kind, ok := kindOfType(ft); ok {
		return makeParseStep(ft, kind), nil
	}
	return nil, fmt.Errorf("no binding strategy for %s", ft)
}

// makeParseStep parses the cell with kind and converts the result into the
// field type, so named types with a primitive underlying type work.
func makeParseStep(ft reflect.Type, kind Kind) stepFn {
	return func(fv reflect.Value, cell sql.NullString) error {
		if !cell.Valid {
			return ErrUnexpectedNull
		}
		v, err := kind.Parse(cell.String)
		if err != nil {
			return ErrTypeMismatch
		}
		fv.Set(reflect.ValueOf(v).Convert(ft))
		return nil
	}
}

// makeNullWrapperStep recognizes database/sql's null wrappers, the generic
// sql.Null[V] included: a two-field struct from that package with a Valid
// bool. NULL binds the zero (invalid) value; anything else parses by the
// value field's kind.
func makeNullWrapperStep(ft reflect.Type) (stepFn, bool) {
	if ft.Kind() != reflect.Struct || ft.PkgPath() != "database/sql" || ft.NumField() != 2 {
		return nil, false
	}
	validIdx := -1
	for i := 0; i < 2; i++ {
		if f := ft.Field(i); f.Name == "Valid" && f.Type.Kind() == reflect.Bool {
			validIdx = i
		}
	}
	if validIdx < 0 {
		return nil, false
	}
	valIdx := 1 - validIdx
	valType := ft.Field(valIdx).Type
	kind, ok := kindOfType(valType)
	if !ok {
		if valType != timeType {
			return nil, false
		}
		kind = KindTime
	}
	return func(fv reflect.Value, cell sql.NullString) error {
		if !cell.Valid {
			fv.SetZero()
			return nil
		}
		v, err := kind.Parse(cell.String)
		if err != nil {
			return ErrTypeMismatch
		}
		fv.Field(valIdx).Set(reflect.ValueOf(v).Convert(valType))
		fv.Field(validIdx).SetBool(true)
		return nil
	}, true
}

// ---------------- Type helpers ----------------

func kindOfType(t reflect.Type) (Kind, bool) {
	switch t.Kind() {
	case reflect.Bool:
		return KindBool, true
	case reflect.Int:
		return KindInt, true
	case reflect.Int8:
		return KindInt8, true
	case reflect.Int16:
		return KindInt16, true
	case reflect.Int32:
		return KindInt32, true
	case reflect.Int64:
		return KindInt64, true
	case reflect.Uint:
		return KindUint, true
	case reflect.Uint8:
		return KindUint8, true
	case reflect.Uint16:
		return KindUint16, true
	case reflect.Uint32:
		return KindUint32, true
	case reflect.Uint64:
		return KindUint64, true
	case reflect.Float32:
		return KindFloat32, true
	case reflect.Float64:
		return KindFloat64, true
	case reflect.String:
		return KindString, true
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return KindBytes, true
		}
	}
	return 0, false
}

func isStruct(t reflect.Type) bool { return derefPtr(t).Kind() == reflect.Struct }

func derefPtr(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

func fieldTypeByPath(root reflect.Type, fpath []int) reflect.Type {
	t := root
	for _, i := range fpath {
		t = derefPtr(t)
		t = t.Field(i).Type
	}
	return t
}

// fieldByPathAlloc walks fpath, allocating intermediate nil pointers so the
// final field is addressable. The final field itself is returned as is; the
// step decides what a leaf pointer holds.
func fieldByPathAlloc(root reflect.Value, fpath []int) reflect.Value {
	v := root
	for _, i := range fpath {
		if v.Kind() == reflect.Ptr {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(i)
	}
	return v
}
