// Package memframe is an in-memory backend.Queryable adapted from
// original_source's hybrid/tests/in_memory_timeseries.rs test double: it
// holds a flat set of (id, timestamp, value) data points in process memory
// and answers tsquery.Query requests by renaming columns to the query's
// variable names and applying Filtered/Grouped/InnerSynchronized logic
// in-process, the same role the original's test fixture plays for
// exercising the core against something concrete without a real
// time-series store.
package memframe

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/wbrown/hybridgraph/algebra"
	"github.com/wbrown/hybridgraph/frame"
	"github.com/wbrown/hybridgraph/tsquery"
)

// Point is one raw data point keyed by external id.
type Point struct {
	ID        string
	Timestamp time.Time
	Value     float64
}

// Backend is a backend.Queryable over a fixed slice of Points, suitable
// for tests and for exercising the orchestrator end-to-end without a real
// time-series store.
type Backend struct {
	Points []Point
}

// New constructs a Backend over points.
func New(points []Point) *Backend { return &Backend{Points: points} }

type row map[algebra.Variable]any

type table struct {
	rows []row
}

// Execute implements backend.Queryable.
func (b *Backend) Execute(ctx context.Context, q tsquery.Query) (arrow.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := b.eval(q)
	if err != nil {
		return nil, err
	}
	return tableToRecord(t, q)
}

func (b *Backend) eval(q tsquery.Query) (table, error) {
	switch n := q.(type) {
	case *tsquery.Basic:
		return b.evalBasic(n)
	case *tsquery.Filtered:
		inner, err := b.eval(n.Inner)
		if err != nil {
			return table{}, err
		}
		var out []row
		for _, r := range inner.rows {
			ok, err := evalBoolExpr(n.Expr, r)
			if err != nil {
				return table{}, err
			}
			if ok {
				out = append(out, r)
			}
		}
		return table{rows: out}, nil
	case *tsquery.Grouped:
		return b.evalGrouped(n)
	case *tsquery.InnerSynchronized:
		return b.evalSynchronized(n)
	default:
		return table{}, fmt.Errorf("memframe: unrecognized query type %T", q)
	}
}

func (b *Backend) evalBasic(n *tsquery.Basic) (table, error) {
	ids := map[string]bool{}
	for _, id := range n.IDs {
		ids[id] = true
	}
	var out []row
	for _, p := range b.Points {
		if len(ids) > 0 && !ids[p.ID] {
			continue
		}
		r := row{}
		if n.IdentifierVar != nil {
			r[*n.IdentifierVar] = p.ID
		}
		if n.TimestampVar != nil {
			r[*n.TimestampVar] = p.Timestamp
		}
		if n.ValueVar != nil {
			r[*n.ValueVar] = p.Value
		}
		out = append(out, r)
	}
	return table{rows: out}, nil
}

func (b *Backend) evalGrouped(n *tsquery.Grouped) (table, error) {
	inner, err := b.eval(n.Inner)
	if err != nil {
		return table{}, err
	}
	type bucket struct {
		key    string
		keyRow row
		values map[algebra.Variable][]float64
	}
	buckets := map[string]*bucket{}
	var order []string
	for _, r := range inner.rows {
		key := ""
		keyRow := row{}
		for _, by := range n.By {
			v := r[by]
			key += fmt.Sprintf("%v|", v)
			keyRow[by] = v
		}
		bk, ok := buckets[key]
		if !ok {
			bk = &bucket{key: key, keyRow: keyRow, values: map[algebra.Variable][]float64{}}
			buckets[key] = bk
			order = append(order, key)
		}
		for _, agg := range n.Aggregates {
			if fv, ok := r[agg.InputVar].(float64); ok {
				bk.values[agg.InputVar] = append(bk.values[agg.InputVar], fv)
			}
		}
	}
	sort.Strings(order)
	var out []row
	for _, key := range order {
		bk := buckets[key]
		r := row{}
		for k, v := range bk.keyRow {
			r[k] = v
		}
		for _, agg := range n.Aggregates {
			r[agg.OutputVar] = aggregate(agg.Type, bk.values[agg.InputVar])
		}
		out = append(out, r)
	}
	return table{rows: out}, nil
}

func aggregate(kind tsquery.AggregationType, values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	switch kind {
	case tsquery.AggFirst:
		return values[0]
	case tsquery.AggLast:
		return values[len(values)-1]
	case tsquery.AggMin:
		m := values[0]
		for _, v := range values {
			if v < m {
				m = v
			}
		}
		return m
	case tsquery.AggMax:
		m := values[0]
		for _, v := range values {
			if v > m {
				m = v
			}
		}
		return m
	case tsquery.AggSum:
		s := 0.0
		for _, v := range values {
			s += v
		}
		return s
	case tsquery.AggMean:
		s := 0.0
		for _, v := range values {
			s += v
		}
		return s / float64(len(values))
	case tsquery.AggCount:
		return float64(len(values))
	default:
		return 0
	}
}

func (b *Backend) evalSynchronized(n *tsquery.InnerSynchronized) (table, error) {
	if len(n.Children) == 0 {
		return table{}, nil
	}
	children := make([]table, len(n.Children))
	for i, c := range n.Children {
		t, err := b.eval(c)
		if err != nil {
			return table{}, err
		}
		children[i] = t
	}
	merged := children[0].rows
	for _, tsVar := range n.Children[0].TimestampVariables() {
		for _, next := range children[1:] {
			var joined []row
			for _, l := range merged {
				for _, r := range next.rows {
					if sameTimestamp(l, r, tsVar, next) {
						combined := row{}
						for k, v := range l {
							combined[k] = v
						}
						for k, v := range r {
							combined[k] = v
						}
						joined = append(joined, combined)
					}
				}
			}
			merged = joined
		}
		break
	}
	return table{rows: merged}, nil
}

func sameTimestamp(l, r row, lTsVar algebra.Variable, rightTable table) bool {
	lv, ok := l[lTsVar].(time.Time)
	if !ok {
		return false
	}
	for k, v := range r {
		if rt, ok := v.(time.Time); ok {
			_ = k
			if rt.Equal(lv) {
				return true
			}
		}
	}
	_ = rightTable
	return false
}

// evalBoolExpr evaluates a small subset of algebra.Expression against a
// row: conjunctions/disjunctions/negation and binary comparisons, enough
// to support the pushdown-able filter shapes spec.md §8's seed scenarios
// exercise (?v > 100.0, ?t >= "..."^^xsd:dateTime).
func evalBoolExpr(expr algebra.Expression, r row) (bool, error) {
	switch e := expr.(type) {
	case algebra.ExprAnd:
		l, err := evalBoolExpr(e.Left, r)
		if err != nil || !l {
			return false, err
		}
		return evalBoolExpr(e.Right, r)
	case algebra.ExprOr:
		l, err := evalBoolExpr(e.Left, r)
		if err != nil {
			return false, err
		}
		if l {
			return true, nil
		}
		return evalBoolExpr(e.Right, r)
	case algebra.ExprNot:
		v, err := evalBoolExpr(e.Inner, r)
		return !v, err
	case algebra.ExprBinary:
		return evalComparison(e, r)
	default:
		return false, fmt.Errorf("memframe: unsupported filter expression %T", expr)
	}
}

func evalComparison(e algebra.ExprBinary, r row) (bool, error) {
	l, err := evalValue(e.Left, r)
	if err != nil {
		return false, err
	}
	rv, err := evalValue(e.Right, r)
	if err != nil {
		return false, err
	}
	lf, lok := toFloat(l)
	rf, rok := toFloat(rv)
	if lok && rok {
		switch e.Op {
		case algebra.OpGT:
			return lf > rf, nil
		case algebra.OpGTE:
			return lf >= rf, nil
		case algebra.OpLT:
			return lf < rf, nil
		case algebra.OpLTE:
			return lf <= rf, nil
		case algebra.OpEQ:
			return lf == rf, nil
		case algebra.OpNE:
			return lf != rf, nil
		}
	}
	lt, ltok := l.(time.Time)
	rt, rtok := rv.(time.Time)
	if ltok && rtok {
		switch e.Op {
		case algebra.OpGT:
			return lt.After(rt), nil
		case algebra.OpGTE:
			return lt.After(rt) || lt.Equal(rt), nil
		case algebra.OpLT:
			return lt.Before(rt), nil
		case algebra.OpLTE:
			return lt.Before(rt) || lt.Equal(rt), nil
		case algebra.OpEQ:
			return lt.Equal(rt), nil
		case algebra.OpNE:
			return !lt.Equal(rt), nil
		}
	}
	return false, fmt.Errorf("memframe: incomparable values %v, %v", l, rv)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func evalValue(expr algebra.Expression, r row) (any, error) {
	switch e := expr.(type) {
	case algebra.ExprVar:
		return r[e.Name], nil
	case algebra.ExprLiteral:
		return literalValue(e.Value)
	default:
		return nil, fmt.Errorf("memframe: unsupported value expression %T", expr)
	}
}

func literalValue(t algebra.Term) (any, error) {
	lit, ok := t.(algebra.Literal)
	if !ok {
		return nil, fmt.Errorf("memframe: expected literal, got %T", t)
	}
	switch lit.Datatype {
	case algebra.XSDDateTime.IRI:
		return time.Parse(time.RFC3339, lit.Lexical)
	case algebra.XSDInteger.IRI:
		var n int64
		_, err := fmt.Sscanf(lit.Lexical, "%d", &n)
		return n, err
	case algebra.XSDDouble.IRI:
		var f float64
		_, err := fmt.Sscanf(lit.Lexical, "%g", &f)
		return f, err
	default:
		return lit.Lexical, nil
	}
}

func tableToRecord(t table, q tsquery.Query) (arrow.Record, error) {
	vars := map[algebra.Variable]bool{}
	var order []algebra.Variable
	for _, v := range q.IdentifierVariables() {
		if !vars[v] {
			vars[v] = true
			order = append(order, v)
		}
	}
	for _, v := range q.TimestampVariables() {
		if !vars[v] {
			vars[v] = true
			order = append(order, v)
		}
	}
	for _, v := range q.ValueVariables() {
		if !vars[v] {
			vars[v] = true
			order = append(order, v)
		}
	}

	columns := make([]frame.Column, 0, len(order))
	for _, v := range order {
		col := frame.Column{Name: v.String()}
		kind := columnKind(t.rows, v)
		col.Kind = kind
		for _, r := range t.rows {
			val := r[v]
			switch kind {
			case arrow.STRING:
				s, _ := val.(string)
				col.Strings = append(col.Strings, s)
				col.Valid = append(col.Valid, val != nil)
			case arrow.FLOAT64:
				f, _ := val.(float64)
				col.Floats = append(col.Floats, f)
				col.Valid = append(col.Valid, val != nil)
			case arrow.TIMESTAMP:
				ts, _ := val.(time.Time)
				col.Timestamps = append(col.Timestamps, ts)
				col.Valid = append(col.Valid, val != nil)
			}
		}
		columns = append(columns, col)
	}
	return frame.Build(columns)
}

func columnKind(rows []row, v algebra.Variable) arrow.Type {
	for _, r := range rows {
		switch r[v].(type) {
		case string:
			return arrow.STRING
		case float64:
			return arrow.FLOAT64
		case time.Time:
			return arrow.TIMESTAMP
		}
	}
	return arrow.STRING
}
