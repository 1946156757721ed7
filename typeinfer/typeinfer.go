// Package typeinfer implements C2, the Type Inferrer from spec.md §4.2: a
// single top-down traversal of the parsed algebra that marks every
// variable touched by the reserved time-series vocabulary with its
// constraint.Kind and normalizes the one recognized property-path shape
// into the equivalent BGP before any later component sees it.
//
// Grounded on janus-datalog's one-function-per-node-kind planner style
// (datalog/planner/planner_patterns.go), mirroring the original's
// hybrid/src/type_inference.rs infer_graph_pattern match arm-for-arm.
package typeinfer

import (
	"github.com/wbrown/hybridgraph/algebra"
	"github.com/wbrown/hybridgraph/constraint"
	"github.com/wbrown/hybridgraph/qctx"
)

// Infer runs the top-down traversal described in spec.md §4.2, returning
// the populated constraint map and a copy of gp with every recognized
// timeseries property path folded into its equivalent BGP triples.
func Infer(gp algebra.GraphPattern) (*constraint.Map, algebra.GraphPattern, error) {
	m := constraint.New()
	normalized, err := infer(m, qctx.Root(), gp)
	if err != nil {
		return nil, nil, err
	}
	return m, normalized, nil
}

func infer(m *constraint.Map, ctx qctx.Context, gp algebra.GraphPattern) (algebra.GraphPattern, error) {
	switch n := gp.(type) {
	case algebra.BGP:
		triples := make([]algebra.TriplePattern, len(n.Triples))
		for i, t := range n.Triples {
			if err := markTriple(m, ctx.PushIndexed(qctx.BgpTriple, i), t); err != nil {
				return nil, err
			}
			triples[i] = t
		}
		return algebra.BGP{Triples: triples}, nil

	case algebra.PathPattern:
		return inferPath(m, ctx, n)

	case algebra.Join:
		l, err := infer(m, ctx.Push(qctx.Entry{Kind: qctx.JoinLeftSide}), n.Left)
		if err != nil {
			return nil, err
		}
		r, err := infer(m, ctx.Push(qctx.Entry{Kind: qctx.JoinRightSide}), n.Right)
		if err != nil {
			return nil, err
		}
		return algebra.Join{Left: l, Right: r}, nil

	case algebra.LeftJoin:
		l, err := infer(m, ctx.Push(qctx.Entry{Kind: qctx.LeftJoinLeftSide}), n.Left)
		if err != nil {
			return nil, err
		}
		r, err := infer(m, ctx.Push(qctx.Entry{Kind: qctx.LeftJoinRightSide}), n.Right)
		if err != nil {
			return nil, err
		}
		return algebra.LeftJoin{Left: l, Right: r, Expr: n.Expr}, nil

	case algebra.Filter:
		inner, err := infer(m, ctx.Push(qctx.Entry{Kind: qctx.FilterInner}), n.Inner)
		if err != nil {
			return nil, err
		}
		return algebra.Filter{Expr: n.Expr, Inner: inner}, nil

	case algebra.Union:
		l, err := infer(m, ctx.Push(qctx.Entry{Kind: qctx.UnionLeftSide}), n.Left)
		if err != nil {
			return nil, err
		}
		r, err := infer(m, ctx.Push(qctx.Entry{Kind: qctx.UnionRightSide}), n.Right)
		if err != nil {
			return nil, err
		}
		return algebra.Union{Left: l, Right: r}, nil

	case algebra.Graph:
		inner, err := infer(m, ctx.Push(qctx.Entry{Kind: qctx.GraphInner}), n.Inner)
		if err != nil {
			return nil, err
		}
		return algebra.Graph{Name: n.Name, Inner: inner}, nil

	case algebra.Extend:
		inner, err := infer(m, ctx.Push(qctx.Entry{Kind: qctx.ExtendInner}), n.Inner)
		if err != nil {
			return nil, err
		}
		return algebra.Extend{Inner: inner, Var: n.Var, Expr: n.Expr}, nil

	case algebra.Minus:
		l, err := infer(m, ctx.Push(qctx.Entry{Kind: qctx.MinusLeftSide}), n.Left)
		if err != nil {
			return nil, err
		}
		r, err := infer(m, ctx.Push(qctx.Entry{Kind: qctx.MinusRightSide}), n.Right)
		if err != nil {
			return nil, err
		}
		return algebra.Minus{Left: l, Right: r}, nil

	case algebra.Values:
		return n, nil

	case algebra.OrderBy:
		inner, err := infer(m, ctx.Push(qctx.Entry{Kind: qctx.OrderByInner}), n.Inner)
		if err != nil {
			return nil, err
		}
		return algebra.OrderBy{Inner: inner, Exprs: n.Exprs}, nil

	case algebra.Project:
		inner, err := infer(m, ctx.Push(qctx.Entry{Kind: qctx.ProjectInner}), n.Inner)
		if err != nil {
			return nil, err
		}
		return algebra.Project{Inner: inner, Vars: n.Vars}, nil

	case algebra.Distinct:
		inner, err := infer(m, ctx.Push(qctx.Entry{Kind: qctx.DistinctInner}), n.Inner)
		if err != nil {
			return nil, err
		}
		return algebra.Distinct{Inner: inner}, nil

	case algebra.Reduced:
		inner, err := infer(m, ctx.Push(qctx.Entry{Kind: qctx.ReducedInner}), n.Inner)
		if err != nil {
			return nil, err
		}
		return algebra.Reduced{Inner: inner}, nil

	case algebra.Slice:
		inner, err := infer(m, ctx.Push(qctx.Entry{Kind: qctx.SliceInner}), n.Inner)
		if err != nil {
			return nil, err
		}
		return algebra.Slice{Inner: inner, Start: n.Start, Length: n.Length}, nil

	case algebra.Group:
		inner, err := infer(m, ctx.Push(qctx.Entry{Kind: qctx.GroupInner}), n.Inner)
		if err != nil {
			return nil, err
		}
		return algebra.Group{Inner: inner, By: n.By, Aggregates: n.Aggregates}, nil

	case algebra.Service:
		inner, err := infer(m, ctx.Push(qctx.Entry{Kind: qctx.ServiceInner}), n.Inner)
		if err != nil {
			return nil, err
		}
		return algebra.Service{Name: n.Name, Inner: inner, Silent: n.Silent}, nil

	default:
		return gp, nil
	}
}

// inferPath normalizes a PathPattern per spec.md §4.2/§9: a recognized
// hasTimeseries/hasDataPoint/(hasTimestamp|hasValue) shape decomposes into
// the equivalent BGP (whose triples are then marked exactly as if they had
// been written directly); any other path shape passes through unchanged
// and is not marked, since its endpoints are not provably external.
func inferPath(m *constraint.Map, ctx qctx.Context, n algebra.PathPattern) (algebra.GraphPattern, error) {
	tsPred, dpPred, tailPreds, ok := algebra.DecomposeTimeseriesPath(n.Path)
	if !ok {
		return n, nil
	}

	tsVar := algebra.Var{Name: freshBlank()}
	dpVar := algebra.Var{Name: freshBlank()}

	triples := []algebra.TriplePattern{
		{Subject: n.Subject, Predicate: algebra.NamedNode{IRI: tsPred.IRI}, Object: tsVar},
		{Subject: tsVar, Predicate: algebra.NamedNode{IRI: dpPred.IRI}, Object: dpVar},
	}
	for _, p := range tailPreds {
		triples = append(triples, algebra.TriplePattern{
			Subject: dpVar, Predicate: algebra.NamedNode{IRI: p.IRI}, Object: n.Object,
		})
	}

	bgpCtx := ctx
	for i, t := range triples {
		if err := markTriple(m, bgpCtx.PushIndexed(qctx.BgpTriple, i), t); err != nil {
			return nil, err
		}
	}
	return algebra.BGP{Triples: triples}, nil
}

var blankCounter int

// freshBlank mints a synthetic variable for an intermediate node
// introduced by path decomposition (the timeseries/data-point nodes in
// `?s hasTimeseries/hasDataPoint/hasValue ?o`, which the path syntax never
// names). Per spec.md §5 the rewriter owns the ts_external_id_{n} counter;
// this is a distinct, purely-local counter for decomposition-internal
// blank nodes and never collides with rewriter-minted names.
func freshBlank() algebra.Variable {
	blankCounter++
	return algebra.Variable(tsPathVarPrefix + itoa(blankCounter))
}

const tsPathVarPrefix = "_pathdecomp_"

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// markTriple applies spec.md §4.2's reserved-predicate rule to a single
// triple pattern at ctx.
func markTriple(m *constraint.Map, ctx qctx.Context, t algebra.TriplePattern) error {
	pred, ok := t.Predicate.(algebra.NamedNode)
	if !ok {
		return nil
	}
	switch pred {
	case algebra.HasTimeseries:
		return markPair(m, ctx, t.Subject, constraint.ExternallyDerived, t.Object, constraint.ExternalTimeseries)
	case algebra.HasDataPoint:
		return markPair(m, ctx, t.Subject, constraint.ExternalTimeseries, t.Object, constraint.ExternalDataPoint)
	case algebra.HasTimestamp:
		return markPair(m, ctx, t.Subject, constraint.ExternalDataPoint, t.Object, constraint.ExternalTimestamp)
	case algebra.HasValue:
		return markPair(m, ctx, t.Subject, constraint.ExternalDataPoint, t.Object, constraint.ExternalDataValue)
	default:
		return nil
	}
}

// markPair inserts constraints for the subject and object variables of a
// reserved-predicate triple, skipping either side that is not itself a
// variable (e.g. a literal timestamp bound via VALUES, or the subject of
// hasTimeseries being a concrete IRI).
func markPair(m *constraint.Map, ctx qctx.Context, subj algebra.Term, subjKind constraint.Kind, obj algebra.Term, objKind constraint.Kind) error {
	if v, ok := algebra.AsVariable(subj); ok {
		// The subject of hasTimeseries is the owning entity, not itself an
		// externally-derived value in the sense spec.md §3 enumerates; only
		// mark it when it already carries a constraint elsewhere (i.e. it is
		// chained, e.g. the object of a prior hasDataPoint). Otherwise leave
		// ordinary entity variables unconstrained.
		if subjKind == constraint.ExternallyDerived {
			if _, already := m.Lookup(v, ctx); already {
				if err := m.Insert(v, ctx, subjKind); err != nil {
					return err
				}
			}
		} else {
			if err := m.Insert(v, ctx, subjKind); err != nil {
				return err
			}
		}
	}
	if v, ok := algebra.AsVariable(obj); ok {
		if err := m.Insert(v, ctx, objKind); err != nil {
			return err
		}
	}
	return nil
}
