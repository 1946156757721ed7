package orchestrator

import (
	"strconv"
	"time"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/wbrown/hybridgraph/algebra"
	"github.com/wbrown/hybridgraph/frame"
	"github.com/wbrown/hybridgraph/staticsparql"
)

// solutionsToRecord builds the static result frame the rest of the
// pipeline operates on, one column per variable the rewritten static
// query mentions. Grounded on combiner's recordToTuples/tuplesToRecord
// round-trip: the same row-materialization bridge, run in the opposite
// direction since staticsparql hands back term maps rather than a Record.
func solutionsToRecord(vars []algebra.Variable, solutions []staticsparql.Solution) (arrow.Record, error) {
	columns := make([]frame.Column, len(vars))
	for i, v := range vars {
		kind, values, valid, err := columnValues(v, solutions)
		if err != nil {
			return nil, err
		}
		col := frame.Column{Name: v.String(), Kind: kind, Valid: valid}
		switch kind {
		case arrow.STRING:
			col.Strings = values.([]string)
		case arrow.FLOAT64:
			col.Floats = values.([]float64)
		case arrow.INT64:
			col.Ints = values.([]int64)
		case arrow.BOOL:
			col.Bools = values.([]bool)
		case arrow.TIMESTAMP:
			col.Timestamps = values.([]time.Time)
		}
		columns[i] = col
	}
	return frame.Build(columns)
}

// columnValues inspects the first bound occurrence of v across solutions
// to decide the column's Arrow kind, then converts every row consistently
// with that kind; rows where v is unbound get Valid=false.
func columnValues(v algebra.Variable, solutions []staticsparql.Solution) (arrow.Type, any, []bool, error) {
	kind := arrow.STRING
	for _, sol := range solutions {
		if t, ok := sol[v]; ok {
			kind = kindOf(t)
			break
		}
	}

	valid := make([]bool, len(solutions))
	switch kind {
	case arrow.FLOAT64:
		out := make([]float64, len(solutions))
		for i, sol := range solutions {
			t, ok := sol[v]
			if !ok {
				continue
			}
			val, err := termValue(t)
			if err != nil {
				return 0, nil, nil, err
			}
			out[i], valid[i] = val.(float64), true
		}
		return kind, out, valid, nil
	case arrow.INT64:
		out := make([]int64, len(solutions))
		for i, sol := range solutions {
			t, ok := sol[v]
			if !ok {
				continue
			}
			val, err := termValue(t)
			if err != nil {
				return 0, nil, nil, err
			}
			out[i], valid[i] = val.(int64), true
		}
		return kind, out, valid, nil
	case arrow.BOOL:
		out := make([]bool, len(solutions))
		for i, sol := range solutions {
			t, ok := sol[v]
			if !ok {
				continue
			}
			val, err := termValue(t)
			if err != nil {
				return 0, nil, nil, err
			}
			out[i], valid[i] = val.(bool), true
		}
		return kind, out, valid, nil
	case arrow.TIMESTAMP:
		out := make([]time.Time, len(solutions))
		for i, sol := range solutions {
			t, ok := sol[v]
			if !ok {
				continue
			}
			val, err := termValue(t)
			if err != nil {
				return 0, nil, nil, err
			}
			out[i], valid[i] = val.(time.Time), true
		}
		return kind, out, valid, nil
	default:
		out := make([]string, len(solutions))
		for i, sol := range solutions {
			t, ok := sol[v]
			if !ok {
				continue
			}
			val, err := termValue(t)
			if err != nil {
				return 0, nil, nil, err
			}
			out[i], valid[i] = val.(string), true
		}
		return arrow.STRING, out, valid, nil
	}
}

// kindOf picks the Arrow column type a bound term implies: only typed
// literals drive anything other than STRING, since NamedNode/BlankNode
// values (and untyped/plain-string literals) all read back as strings.
func kindOf(t algebra.Term) arrow.Type {
	lit, ok := t.(algebra.Literal)
	if !ok {
		return arrow.STRING
	}
	switch lit.Datatype {
	case algebra.XSDInteger.IRI, "http://www.w3.org/2001/XMLSchema#long":
		return arrow.INT64
	case algebra.XSDDouble.IRI, "http://www.w3.org/2001/XMLSchema#float", "http://www.w3.org/2001/XMLSchema#decimal":
		return arrow.FLOAT64
	case algebra.XSDBoolean.IRI:
		return arrow.BOOL
	case algebra.XSDDateTime.IRI:
		return arrow.TIMESTAMP
	default:
		return arrow.STRING
	}
}

// termValue converts a bound term to the Go value matching kindOf(t)'s
// decision, mirroring combiner's literalValue for the literal case and
// falling back to a term's lexical string form for IRIs/blank nodes.
func termValue(t algebra.Term) (any, error) {
	lit, ok := t.(algebra.Literal)
	if !ok {
		switch n := t.(type) {
		case algebra.NamedNode:
			return n.IRI, nil
		case algebra.BlankNode:
			return n.ID, nil
		default:
			return t.String(), nil
		}
	}
	switch lit.Datatype {
	case algebra.XSDInteger.IRI, "http://www.w3.org/2001/XMLSchema#long":
		return strconv.ParseInt(lit.Lexical, 10, 64)
	case algebra.XSDDouble.IRI, "http://www.w3.org/2001/XMLSchema#float", "http://www.w3.org/2001/XMLSchema#decimal":
		return strconv.ParseFloat(lit.Lexical, 64)
	case algebra.XSDBoolean.IRI:
		return lit.Lexical == "true" || lit.Lexical == "1", nil
	case algebra.XSDDateTime.IRI:
		return time.Parse(time.RFC3339Nano, lit.Lexical)
	default:
		return lit.Lexical, nil
	}
}
