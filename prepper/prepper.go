// Package prepper implements C5, the Prepper from spec.md §4.5: a walk of
// the *original*, un-rewritten algebra carrying the Basic time-series
// queries C3 discovered and the static result frame, deciding which
// filters/group-bys/synchronizations can be pushed down to a time-series
// backend.
//
// Grounded on janus-datalog's planner phase-based pushdown
// (`PushPredicates`/`rewriteCorrelatedAggregates` in datalog/planner) and
// original_source's hybrid/src/preparing/graph_patterns/*.rs one-file
// -per-variant layout; like rewrite, this package groups the spec's
// seventeen variants into a handful of files (prepper.go, groupjoin.go,
// group.go).
package prepper

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/wbrown/hybridgraph/algebra"
	"github.com/wbrown/hybridgraph/frame"
	"github.com/wbrown/hybridgraph/pushdown"
	"github.com/wbrown/hybridgraph/qctx"
	"github.com/wbrown/hybridgraph/tsquery"
)

// failGroupByComplex is the explicit fail-set spec.md §4.5/§9 names: under
// try-groupby-complex, pushdown is unsafe inside any of these variants.
var failGroupByComplex = map[string]bool{
	"Slice": true, "Distinct": true, "Reduced": true,
	"LeftJoin": true, "Union": true, "Graph": true, "Minus": true,
}

// GPPrepReturn is the value threaded bottom-up through the prep walk, per
// spec.md §4.5.
type GPPrepReturn struct {
	Queries            []tsquery.Query
	FailGroupByComplex bool
}

// Prepper holds per-query state: the Basic queries C3 minted, the static
// result frame, and the pushdown settings governing which categories of
// pushdown may be attempted.
type Prepper struct {
	basics       []*tsquery.Basic
	staticResult arrow.Record
	settings     pushdown.Settings
}

// New constructs a Prepper over C3's output and the executed static
// result.
func New(basics []*tsquery.Basic, staticResult arrow.Record, settings pushdown.Settings) *Prepper {
	return &Prepper{basics: basics, staticResult: staticResult, settings: settings}
}

// Prep is the package entry point orchestrator calls.
func (p *Prepper) Prep(original algebra.GraphPattern) ([]tsquery.Query, error) {
	ret, err := p.prep(qctx.Root(), original, false)
	if err != nil {
		return nil, err
	}
	return ret.Queries, nil
}

func (p *Prepper) prep(ctx qctx.Context, gp algebra.GraphPattern, tryGroupByComplex bool) (GPPrepReturn, error) {
	switch n := gp.(type) {
	case algebra.BGP:
		return p.prepBGP(ctx, n, tryGroupByComplex)
	case algebra.PathPattern, algebra.Values:
		return GPPrepReturn{}, nil
	case algebra.Filter:
		return p.prepFilter(ctx, n, tryGroupByComplex)
	case algebra.Group:
		return p.prepGroup(ctx, n)
	case algebra.Join:
		return p.prepJoin(ctx, n, tryGroupByComplex)
	case algebra.Extend:
		return p.prepExtend(ctx, n, tryGroupByComplex)
	case algebra.LeftJoin:
		return p.prepFailUnderComplex(ctx, "LeftJoin", joinChildren(n.Left, n.Right), tryGroupByComplex)
	case algebra.Union:
		return p.prepFailUnderComplex(ctx, "Union", joinChildren(n.Left, n.Right), tryGroupByComplex)
	case algebra.Minus:
		return p.prepFailUnderComplex(ctx, "Minus", joinChildren(n.Left, n.Right), tryGroupByComplex)
	case algebra.Graph:
		return p.prepFailUnderComplex(ctx, "Graph", []algebra.GraphPattern{n.Inner}, tryGroupByComplex)
	case algebra.Distinct:
		return p.prepFailUnderComplex(ctx, "Distinct", []algebra.GraphPattern{n.Inner}, tryGroupByComplex)
	case algebra.Reduced:
		return p.prepFailUnderComplex(ctx, "Reduced", []algebra.GraphPattern{n.Inner}, tryGroupByComplex)
	case algebra.Slice:
		return p.prepFailUnderComplex(ctx, "Slice", []algebra.GraphPattern{n.Inner}, tryGroupByComplex)
	case algebra.Project:
		return p.prep(ctx.Push(qctx.Entry{Kind: qctx.ProjectInner}), n.Inner, tryGroupByComplex)
	case algebra.OrderBy:
		return p.prep(ctx.Push(qctx.Entry{Kind: qctx.OrderByInner}), n.Inner, tryGroupByComplex)
	case algebra.Service:
		return p.prep(ctx.Push(qctx.Entry{Kind: qctx.ServiceInner}), n.Inner, tryGroupByComplex)
	default:
		return GPPrepReturn{}, fmt.Errorf("prepper: unrecognized graph pattern %T", gp)
	}
}

func joinChildren(l, r algebra.GraphPattern) []algebra.GraphPattern { return []algebra.GraphPattern{l, r} }

// prepFailUnderComplex implements the shared "fail under tryGroupByComplex,
// otherwise union children's queries" rule spec.md §4.5 states for
// LeftJoin/Union/Graph/Distinct/Reduced/Slice/Minus.
func (p *Prepper) prepFailUnderComplex(ctx qctx.Context, kind string, children []algebra.GraphPattern, tryGroupByComplex bool) (GPPrepReturn, error) {
	if tryGroupByComplex {
		return GPPrepReturn{FailGroupByComplex: true}, nil
	}
	var queries []tsquery.Query
	for i, c := range children {
		childCtx := ctx.PushIndexed(childKind(kind, i), i)
		ret, err := p.prep(childCtx, c, false)
		if err != nil {
			return GPPrepReturn{}, err
		}
		queries = append(queries, ret.Queries...)
	}
	return GPPrepReturn{Queries: queries}, nil
}

func childKind(kind string, i int) qctx.EntryKind {
	switch kind {
	case "LeftJoin":
		if i == 0 {
			return qctx.LeftJoinLeftSide
		}
		return qctx.LeftJoinRightSide
	case "Union":
		if i == 0 {
			return qctx.UnionLeftSide
		}
		return qctx.UnionRightSide
	case "Minus":
		if i == 0 {
			return qctx.MinusLeftSide
		}
		return qctx.MinusRightSide
	case "Graph":
		return qctx.GraphInner
	case "Distinct":
		return qctx.DistinctInner
	case "Reduced":
		return qctx.ReducedInner
	case "Slice":
		return qctx.SliceInner
	default:
		return qctx.GraphInner
	}
}

// basicsAt returns every Basic query whose data-point-variable context
// equals ctx exactly, per spec.md §4.5's BGP rule.
func (p *Prepper) basicsAt(ctx qctx.Context) []*tsquery.Basic {
	var out []*tsquery.Basic
	for _, b := range p.basics {
		if b.DataPointVar != nil && b.DataPointCtx.Equal(ctx) {
			out = append(out, b)
		}
	}
	return out
}

func stringColumn(rec arrow.Record, name string) ([]string, bool) {
	idx := frame.ColumnIndex(rec, name)
	if idx < 0 {
		return nil, false
	}
	var out []string
	for i := 0; i < int(rec.NumRows()); i++ {
		if v, ok := frame.StringValue(rec, idx, i); ok {
			out = append(out, v)
		}
	}
	return out, true
}
