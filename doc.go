/*
Package xathena converts Amazon Athena query results into typed Go records.
Athena's GetQueryResults API ships every cell as optional text; xathena maps
those rows into your structs by column name with a tiny, predictable API.

# Overview

xathena consumes the athena SDK's types.ResultSet directly, so it slots in
right after a GetQueryResults call. Decoding has three layers, each usable on
its own: MapRow pairs one row's cells with the column names, a Schema binds a
mapped row to one record, and a Decoder applies a schema across the whole
result set. DecodeAll and DecodeOne wrap all three for the common case.

# Mapping rules

  - Fields bind by `athena:"name"` first; otherwise the snake_case form of
    the field name (UserID ←→ user_id).
  - Nested structs can be flattened with `athena:",inline"`.
  - time.Time fields accept Athena's timestamp and date forms.
  - Fields implementing encoding.TextUnmarshaler receive the raw cell text.
  - Primitives (bool, numbers, string, []byte) parse from the cell text by
    exact format; named types with those underlying kinds work too.
  - NULL cells bind nil into pointer fields and the invalid zero value into
    sql.Null wrappers; any other field type treats NULL as an error.
  - Extra columns are ignored; a bound column missing from the result set is
    an error.

# Header rows

Athena SELECT results repeat the column names as the first row of the first
results page. DecodeAll and DecodeOne detect and drop that row with
HasHeaderRow; a Decoder leaves the choice to its SkipHeader field.

# Error handling

Rows bind all-or-nothing: a record is either assembled from every bound
column or its row fails, and no partial record is returned. Failures are
row-local. The Decoder's Policy chooses whether the first failing row aborts
the batch (PolicyFail), failing rows are dropped (PolicySkip), or good rows
and joined failures come back together (PolicyCollect).

The built-in coercions wrap the package sentinels (ErrMalformedResultSet,
ErrMissingColumn, ErrUnexpectedNull, ErrTypeMismatch) for errors.Is, and
BindError / RowError carry the column, raw text, and row index for errors.As.
Errors from Func setters and TextUnmarshaler fields pass through verbatim.
DecodeOne returns sql.ErrNoRows when there is no data row.

# Performance

On first use of a record type, xathena derives its schema (column → field
index path and parse step) and caches it in a lazily-initialized,
concurrency-safe map (sync.Map). Subsequent result sets reuse the schema and
avoid reflection on the walk. Decoder.Parallelism spreads row binding across
goroutines for wide result sets; results stay in row order.

# Usage notes

Results fetched through paginated GetQueryResults calls decode page by page;
only the first page carries a header row. Prefer explicit column lists over
SELECT * so derived schemas stay stable. Keep Go field types close to the
Athena column types to minimize surprises; use a hand-built Schema via
NewSchema when a result set needs bindings reflection cannot express.

xathena does not run queries, poll executions, or page through results. It
does one thing: turn a result set you already have into Go values.
*/
package xathena
