// Package frame wraps apache/arrow-go/v18 into the small columnar-result
// surface the rest of this module needs: building a record from Go-native
// column values, and reading a record's columns back out as Go-native
// values. spec.md §1 places "the columnar-frame library used as the
// in-memory result type" out of the hard core's scope as an external
// collaborator; arrow-go is wired here rather than reinvented because its
// arrow.Record is itself reference-counted (Retain/Release), matching
// spec.md §5's "reference-counted chunks, shared by inexpensive clones"
// almost verbatim. Grounded on xentoshi-lake and Basekick-Labs'
// grafana-arc-datasource (other_examples manifests), both of which build
// arrow.Record frames from application-level column slices the same way.
package frame

import (
	"fmt"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Column is one named, typed column of Go-native values used to build a
// Record. Exactly one of the typed slices is populated, selected by Kind.
type Column struct {
	Name string
	Kind arrow.Type // arrow.STRING, arrow.FLOAT64, arrow.INT64, arrow.TIMESTAMP, arrow.BOOL

	Strings    []string
	Floats     []float64
	Ints       []int64
	Timestamps []time.Time
	Bools      []bool

	// Valid marks which rows are non-null; nil means every row is valid.
	Valid []bool
}

var pool = memory.NewGoAllocator()

// Build constructs an arrow.Record from a set of equal-length columns. The
// caller owns the returned Record and must call Release when done with it.
func Build(columns []Column) (arrow.Record, error) {
	if len(columns) == 0 {
		return array.NewRecord(arrow.NewSchema(nil, nil), nil, 0), nil
	}
	n := columnLen(columns[0])
	fields := make([]arrow.Field, len(columns))
	arrays := make([]arrow.Array, len(columns))
	for i, c := range columns {
		if columnLen(c) != n {
			return nil, fmt.Errorf("frame: column %q has %d rows, want %d", c.Name, columnLen(c), n)
		}
		field, arr, err := buildArray(c)
		if err != nil {
			return nil, fmt.Errorf("frame: building column %q: %w", c.Name, err)
		}
		fields[i] = field
		arrays[i] = arr
	}
	schema := arrow.NewSchema(fields, nil)
	rec := array.NewRecord(schema, arrays, int64(n))
	for _, a := range arrays {
		a.Release()
	}
	return rec, nil
}

func columnLen(c Column) int {
	switch c.Kind {
	case arrow.STRING:
		return len(c.Strings)
	case arrow.FLOAT64:
		return len(c.Floats)
	case arrow.INT64:
		return len(c.Ints)
	case arrow.TIMESTAMP:
		return len(c.Timestamps)
	case arrow.BOOL:
		return len(c.Bools)
	default:
		return 0
	}
}

func buildArray(c Column) (arrow.Field, arrow.Array, error) {
	switch c.Kind {
	case arrow.STRING:
		b := array.NewStringBuilder(pool)
		defer b.Release()
		for i, v := range c.Strings {
			if c.Valid != nil && !c.Valid[i] {
				b.AppendNull()
				continue
			}
			b.Append(v)
		}
		return arrow.Field{Name: c.Name, Type: arrow.BinaryTypes.String}, b.NewArray(), nil
	case arrow.FLOAT64:
		b := array.NewFloat64Builder(pool)
		defer b.Release()
		for i, v := range c.Floats {
			if c.Valid != nil && !c.Valid[i] {
				b.AppendNull()
				continue
			}
			b.Append(v)
		}
		return arrow.Field{Name: c.Name, Type: arrow.PrimitiveTypes.Float64}, b.NewArray(), nil
	case arrow.INT64:
		b := array.NewInt64Builder(pool)
		defer b.Release()
		for i, v := range c.Ints {
			if c.Valid != nil && !c.Valid[i] {
				b.AppendNull()
				continue
			}
			b.Append(v)
		}
		return arrow.Field{Name: c.Name, Type: arrow.PrimitiveTypes.Int64}, b.NewArray(), nil
	case arrow.TIMESTAMP:
		dt := &arrow.TimestampType{Unit: arrow.Nanosecond, TimeZone: "UTC"}
		b := array.NewTimestampBuilder(pool, dt)
		defer b.Release()
		for i, v := range c.Timestamps {
			if c.Valid != nil && !c.Valid[i] {
				b.AppendNull()
				continue
			}
			ts, err := arrow.TimestampFromTime(v, arrow.Nanosecond)
			if err != nil {
				return arrow.Field{}, nil, err
			}
			b.Append(ts)
		}
		return arrow.Field{Name: c.Name, Type: dt}, b.NewArray(), nil
	case arrow.BOOL:
		b := array.NewBooleanBuilder(pool)
		defer b.Release()
		for i, v := range c.Bools {
			if c.Valid != nil && !c.Valid[i] {
				b.AppendNull()
				continue
			}
			b.Append(v)
		}
		return arrow.Field{Name: c.Name, Type: arrow.FixedWidthTypes.Boolean}, b.NewArray(), nil
	default:
		return arrow.Field{}, nil, fmt.Errorf("frame: unsupported column kind %v", c.Kind)
	}
}

// ColumnNames returns rec's field names in schema order.
func ColumnNames(rec arrow.Record) []string {
	names := make([]string, rec.NumCols())
	for i, f := range rec.Schema().Fields() {
		names[i] = f.Name
	}
	return names
}

// HasColumn reports whether rec has a field named name.
func HasColumn(rec arrow.Record, name string) bool {
	_, ok := rec.Schema().FieldsByName(name)
	return ok
}

// ColumnIndex returns the index of the field named name, or -1.
func ColumnIndex(rec arrow.Record, name string) int {
	for i, f := range rec.Schema().Fields() {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// StringValue extracts row's value from a string column at colIdx as a Go
// string, or ("", false) if the value is null or the column is not string
// -typed.
func StringValue(rec arrow.Record, colIdx, row int) (string, bool) {
	arr, ok := rec.Column(colIdx).(*array.String)
	if !ok || arr.IsNull(row) {
		return "", false
	}
	return arr.Value(row), true
}

// Float64Value extracts row's value from a float64 column.
func Float64Value(rec arrow.Record, colIdx, row int) (float64, bool) {
	arr, ok := rec.Column(colIdx).(*array.Float64)
	if !ok || arr.IsNull(row) {
		return 0, false
	}
	return arr.Value(row), true
}

// Int64Value extracts row's value from an int64 column.
func Int64Value(rec arrow.Record, colIdx, row int) (int64, bool) {
	arr, ok := rec.Column(colIdx).(*array.Int64)
	if !ok || arr.IsNull(row) {
		return 0, false
	}
	return arr.Value(row), true
}

// TimeValue extracts row's value from a timestamp column as a time.Time.
func TimeValue(rec arrow.Record, colIdx, row int) (time.Time, bool) {
	arr, ok := rec.Column(colIdx).(*array.Timestamp)
	if !ok || arr.IsNull(row) {
		return time.Time{}, false
	}
	dt, ok := arr.DataType().(*arrow.TimestampType)
	if !ok {
		return time.Time{}, false
	}
	return arr.Value(row).ToTime(dt.Unit), true
}

// BoolValue extracts row's value from a bool column.
func BoolValue(rec arrow.Record, colIdx, row int) (bool, bool) {
	arr, ok := rec.Column(colIdx).(*array.Boolean)
	if !ok || arr.IsNull(row) {
		return false, false
	}
	return arr.Value(row), true
}

// AnyValue returns row's value from any recognized column type, boxed as
// an `any`, along with whether the value is non-null.
func AnyValue(rec arrow.Record, colIdx, row int) (any, bool) {
	switch arr := rec.Column(colIdx).(type) {
	case *array.String:
		if arr.IsNull(row) {
			return nil, false
		}
		return arr.Value(row), true
	case *array.Float64:
		if arr.IsNull(row) {
			return nil, false
		}
		return arr.Value(row), true
	case *array.Int64:
		if arr.IsNull(row) {
			return nil, false
		}
		return arr.Value(row), true
	case *array.Boolean:
		if arr.IsNull(row) {
			return nil, false
		}
		return arr.Value(row), true
	case *array.Timestamp:
		return TimeValue(rec, colIdx, row)
	default:
		return nil, false
	}
}

// Retain increments rec's reference count, per spec.md §5's "shared by
// inexpensive clones" frame lifecycle.
func Retain(rec arrow.Record) { rec.Retain() }

// Release decrements rec's reference count, freeing its backing buffers
// once it reaches zero.
func Release(rec arrow.Record) { rec.Release() }
