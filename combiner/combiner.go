// Package combiner implements C7 from spec.md §4.7: joins the static
// result frame with each executed time-series frame on their shared
// columns, drops identifier columns, and re-applies whatever expressions,
// filters, or group-bys the prepper left unpushed by walking the
// *original* algebra a second time.
//
// The join algorithm (hash join keyed on shared columns, column-batch
// semantics) is grounded on janus-datalog's executor/symmetric_hash_join.go
// and executor/relations.go, generalized from a tuple-at-a-time Relation
// join to Arrow's column-batch model; rows are materialized into Go-native
// maps for the join/filter/aggregate passes (via frame.AnyValue) and
// rebuilt into a fresh arrow.Record at each stage boundary, mirroring how
// the teacher's executor treats a Relation as a transient materialization
// between planner stages rather than keeping everything in one
// long-lived columnar buffer.
package combiner

import (
	"fmt"
	"time"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/wbrown/hybridgraph/algebra"
	"github.com/wbrown/hybridgraph/frame"
	"github.com/wbrown/hybridgraph/tsquery"
)

type tuple map[string]any

// Combiner joins a static result with the per-query time-series results
// and reproduces the original algebra's semantics.
type Combiner struct{}

// New constructs a Combiner. It holds no per-query state of its own.
func New() *Combiner { return &Combiner{} }

// Combine implements C7: static joined with each (tsq, frame) pair in
// turn, identifier columns dropped, then original's unpushed
// filters/group-bys re-applied, finally projected down to original's
// output variables.
func (c *Combiner) Combine(original algebra.GraphPattern, static arrow.Record, results []tsquery.ResultPair) (arrow.Record, error) {
	acc, err := recordToTuples(static)
	if err != nil {
		return nil, fmt.Errorf("combiner: reading static result: %w", err)
	}

	for _, pair := range results {
		rec, ok := pair.Frame.(arrow.Record)
		if !ok {
			return nil, fmt.Errorf("combiner: result pair frame is %T, want arrow.Record", pair.Frame)
		}
		other, err := recordToTuples(rec)
		if err != nil {
			return nil, fmt.Errorf("combiner: reading time-series result: %w", err)
		}
		acc = innerJoin(acc, other)
		for _, idVar := range pair.Query.IdentifierVariables() {
			dropColumn(acc, idVar.String())
		}
	}

	acc = reapply(original, acc)

	projected := projectToOutputVars(original, acc)
	return tuplesToRecord(projected)
}

// innerJoin joins l and r on the set of column names present in both,
// matching spec.md §4.7's "inner-join it onto the accumulating lazy frame
// on the set of columns common to both (by name)".
func innerJoin(l, r []tuple) []tuple {
	shared := sharedColumns(l, r)
	if len(shared) == 0 {
		// No shared columns: the join degenerates to a cross product, which
		// is the correct SPARQL join semantics when two patterns share no
		// variables.
		var out []tuple
		for _, lt := range l {
			for _, rt := range r {
				out = append(out, merge(lt, rt))
			}
		}
		return out
	}

	index := map[string][]tuple{}
	for _, rt := range r {
		k := key(rt, shared)
		index[k] = append(index[k], rt)
	}

	var out []tuple
	for _, lt := range l {
		k := key(lt, shared)
		for _, rt := range index[k] {
			out = append(out, merge(lt, rt))
		}
	}
	return out
}

func sharedColumns(l, r []tuple) []string {
	lCols := columnSet(l)
	rCols := columnSet(r)
	var shared []string
	for c := range lCols {
		if rCols[c] {
			shared = append(shared, c)
		}
	}
	return shared
}

func columnSet(ts []tuple) map[string]bool {
	set := map[string]bool{}
	for _, t := range ts {
		for k := range t {
			set[k] = true
		}
	}
	return set
}

func key(t tuple, cols []string) string {
	s := ""
	for _, c := range cols {
		s += fmt.Sprintf("%v|", t[c])
	}
	return s
}

func merge(l, r tuple) tuple {
	out := tuple{}
	for k, v := range l {
		out[k] = v
	}
	for k, v := range r {
		out[k] = v
	}
	return out
}

func dropColumn(ts []tuple, name string) {
	for _, t := range ts {
		delete(t, name)
	}
}

func recordToTuples(rec arrow.Record) ([]tuple, error) {
	names := frame.ColumnNames(rec)
	out := make([]tuple, rec.NumRows())
	for row := 0; row < int(rec.NumRows()); row++ {
		t := tuple{}
		for col, name := range names {
			if v, ok := frame.AnyValue(rec, col, row); ok {
				t[name] = v
			}
		}
		out[row] = t
	}
	return out, nil
}

func tuplesToRecord(ts []tuple) (arrow.Record, error) {
	names := map[string]bool{}
	var order []string
	for _, t := range ts {
		for k := range t {
			if !names[k] {
				names[k] = true
				order = append(order, k)
			}
		}
	}
	cols := make([]frame.Column, len(order))
	for i, name := range order {
		cols[i] = buildColumn(name, ts)
	}
	return frame.Build(cols)
}

func buildColumn(name string, ts []tuple) frame.Column {
	kind := inferKind(name, ts)
	col := frame.Column{Name: name, Kind: kind}
	for _, t := range ts {
		v, present := t[name]
		col.Valid = append(col.Valid, present)
		switch kind {
		case arrow.STRING:
			s, _ := v.(string)
			col.Strings = append(col.Strings, s)
		case arrow.FLOAT64:
			f, _ := v.(float64)
			col.Floats = append(col.Floats, f)
		case arrow.INT64:
			n, _ := v.(int64)
			col.Ints = append(col.Ints, n)
		case arrow.BOOL:
			b, _ := v.(bool)
			col.Bools = append(col.Bools, b)
		case arrow.TIMESTAMP:
			tm, _ := v.(time.Time)
			col.Timestamps = append(col.Timestamps, tm)
		}
	}
	return col
}

func inferKind(name string, ts []tuple) arrow.Type {
	for _, t := range ts {
		switch t[name].(type) {
		case string:
			return arrow.STRING
		case float64:
			return arrow.FLOAT64
		case int64:
			return arrow.INT64
		case bool:
			return arrow.BOOL
		case time.Time:
			return arrow.TIMESTAMP
		}
	}
	return arrow.STRING
}
