// Package rewrite implements C3, the Static Rewriter from spec.md §4.3: a
// bottom-up walk of the inferred algebra that splits it into a static
// SPARQL query plus a set of seed tsquery.Basic pushdown candidates.
//
// Grounded on janus-datalog's planner_patterns.go/planner_predicates.go
// split-by-concern style and the original's
// hybrid/src/rewriting/graph_patterns/*.rs one-file-per-variant layout;
// this package groups closely related variants into a handful of files
// (rewriter.go for the entry point, bgp.go for BGP/Path, joins.go for
// Join/LeftJoin/Union/Minus, filter.go, extend.go, group.go,
// passthrough.go, expression.go) rather
// than seventeen single-function files, the same granularity
// janus-datalog itself uses for its own "one file per planner concern"
// split.
package rewrite

import (
	"fmt"

	"github.com/wbrown/hybridgraph/algebra"
	"github.com/wbrown/hybridgraph/changetype"
	"github.com/wbrown/hybridgraph/constraint"
	"github.com/wbrown/hybridgraph/qctx"
	"github.com/wbrown/hybridgraph/tsquery"
)

// GPReturn is the value threaded bottom-up through the rewrite walk,
// exactly spec.md §4.3's shape.
type GPReturn struct {
	// Pattern is the rewritten static pattern, or nil if this sub-pattern
	// contributed nothing to the static query (e.g. a BGP consisting
	// entirely of dynamic triples).
	Pattern algebra.GraphPattern
	Change  changetype.ChangeType
	// VarsInScope is the set of variables bound by Pattern (or, if Pattern
	// is nil, the set that would have been bound had the original,
	// unrewritten sub-pattern executed).
	VarsInScope map[algebra.Variable]bool
	// ExternalIDsInScope maps each ExternalTimeseries variable visible at
	// this node to the injected ts_external_id_{n} variable that carries
	// its resolved identifier in the static result.
	ExternalIDsInScope map[algebra.Variable]algebra.Variable
}

// Rewriter holds per-query state: the constraint map produced by
// typeinfer, the minted Basic queries, the monotonic variable counter, and
// the set of variables that must be added to the outermost projection.
// None of this is global — a fresh Rewriter is constructed per query, per
// spec.md §5's "Variable counter is a per-query monotonic integer".
type Rewriter struct {
	constraints *constraint.Map

	counter int
	basics  []*tsquery.Basic

	// varToBasic maps every variable that identifies a Basic query (the
	// timeseries variable itself, and once discovered, its data-point
	// variable) to that Basic, so that triples scattered across a BGP can
	// be attributed to the right query regardless of order.
	varToBasic map[algebra.Variable]*tsquery.Basic

	additionalProjections map[algebra.Variable]bool
}

// NewRewriter constructs a Rewriter over the constraint map typeinfer
// produced for this query.
func NewRewriter(constraints *constraint.Map) *Rewriter {
	return &Rewriter{
		constraints:           constraints,
		varToBasic:            map[algebra.Variable]*tsquery.Basic{},
		additionalProjections: map[algebra.Variable]bool{},
	}
}

func (r *Rewriter) freshExternalID() algebra.Variable {
	r.counter++
	return algebra.Variable(fmt.Sprintf("ts_external_id_%d", r.counter))
}

// Rewrite is the package entry point orchestrator calls: it walks gp
// bottom-up, returns the static Query to execute plus the Basic pushdown
// seeds discovered along the way.
func (r *Rewriter) Rewrite(gp algebra.GraphPattern) (algebra.Query, []*tsquery.Basic, error) {
	ret, err := r.rewrite(qctx.Root(), gp)
	if err != nil {
		return algebra.Query{}, nil, err
	}

	pattern := ret.Pattern
	if pattern == nil {
		pattern = algebra.BGP{}
	}

	if len(r.additionalProjections) > 0 {
		pattern = mergeAdditionalProjections(pattern, r.additionalProjections)
	}

	return algebra.Query{Pattern: pattern}, r.basics, nil
}

// mergeAdditionalProjections implements spec.md §4.3's "Projection
// additions": any variable needed to join with time-series outputs is
// added to the outermost Project, synthesizing one wrapping the whole
// pattern (projecting every in-scope variable plus the additions) if the
// query has no explicit Project — supplemented per SPEC_FULL.md §3.6,
// since a bare pattern has nothing for the additions to merge into.
func mergeAdditionalProjections(gp algebra.GraphPattern, additions map[algebra.Variable]bool) algebra.GraphPattern {
	if p, ok := gp.(algebra.Project); ok {
		vars := append([]algebra.Variable{}, p.Vars...)
		have := map[algebra.Variable]bool{}
		for _, v := range vars {
			have[v] = true
		}
		for v := range additions {
			if !have[v] {
				vars = append(vars, v)
				have[v] = true
			}
		}
		return algebra.Project{Inner: p.Inner, Vars: vars}
	}
	vars := algebra.Variables(gp)
	have := map[algebra.Variable]bool{}
	for _, v := range vars {
		have[v] = true
	}
	for v := range additions {
		if !have[v] {
			vars = append(vars, v)
		}
	}
	return algebra.Project{Inner: gp, Vars: vars}
}

// rewrite dispatches on gp's concrete type, matching spec.md §4.3's
// per-node rules.
func (r *Rewriter) rewrite(ctx qctx.Context, gp algebra.GraphPattern) (GPReturn, error) {
	switch n := gp.(type) {
	case algebra.BGP:
		return r.rewriteBGP(ctx, n)
	case algebra.PathPattern:
		return r.rewritePath(ctx, n)
	case algebra.Join:
		return r.rewriteJoin(ctx, n)
	case algebra.LeftJoin:
		return r.rewriteLeftJoin(ctx, n)
	case algebra.Union:
		return r.rewriteUnion(ctx, n)
	case algebra.Minus:
		return r.rewriteMinus(ctx, n)
	case algebra.Filter:
		return r.rewriteFilter(ctx, n)
	case algebra.Extend:
		return r.rewriteExtend(ctx, n)
	case algebra.Group:
		return r.rewriteGroup(ctx, n)
	case algebra.Project:
		return r.rewritePassthroughProject(ctx, n)
	case algebra.Distinct:
		return r.rewritePassthroughUnary(ctx, n.Inner, qctx.DistinctInner, func(inner algebra.GraphPattern) algebra.GraphPattern {
			return algebra.Distinct{Inner: inner}
		})
	case algebra.Reduced:
		return r.rewritePassthroughUnary(ctx, n.Inner, qctx.ReducedInner, func(inner algebra.GraphPattern) algebra.GraphPattern {
			return algebra.Reduced{Inner: inner}
		})
	case algebra.Slice:
		return r.rewritePassthroughUnary(ctx, n.Inner, qctx.SliceInner, func(inner algebra.GraphPattern) algebra.GraphPattern {
			return algebra.Slice{Inner: inner, Start: n.Start, Length: n.Length}
		})
	case algebra.OrderBy:
		return r.rewritePassthroughUnary(ctx, n.Inner, qctx.OrderByInner, func(inner algebra.GraphPattern) algebra.GraphPattern {
			return algebra.OrderBy{Inner: inner, Exprs: n.Exprs}
		})
	case algebra.Graph:
		return r.rewritePassthroughUnary(ctx, n.Inner, qctx.GraphInner, func(inner algebra.GraphPattern) algebra.GraphPattern {
			return algebra.Graph{Name: n.Name, Inner: inner}
		})
	case algebra.Service:
		return r.rewriteService(ctx, n)
	case algebra.Values:
		vars := map[algebra.Variable]bool{}
		for _, v := range n.Vars {
			vars[v] = true
		}
		return GPReturn{Pattern: n, Change: changetype.NoChange, VarsInScope: vars, ExternalIDsInScope: map[algebra.Variable]algebra.Variable{}}, nil
	default:
		return GPReturn{}, fmt.Errorf("rewrite: unrecognized graph pattern %T", gp)
	}
}
