package rewrite

import (
	"github.com/wbrown/hybridgraph/algebra"
	"github.com/wbrown/hybridgraph/changetype"
	"github.com/wbrown/hybridgraph/hqerr"
	"github.com/wbrown/hybridgraph/qctx"
)

func unionVars(a, b map[algebra.Variable]bool) map[algebra.Variable]bool {
	out := map[algebra.Variable]bool{}
	for v := range a {
		out[v] = true
	}
	for v := range b {
		out[v] = true
	}
	return out
}

func unionExternalIDs(a, b map[algebra.Variable]algebra.Variable) map[algebra.Variable]algebra.Variable {
	out := map[algebra.Variable]algebra.Variable{}
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

func combinePatterns(l, r algebra.GraphPattern) algebra.GraphPattern {
	switch {
	case l == nil && r == nil:
		return nil
	case l == nil:
		return r
	case r == nil:
		return l
	default:
		return algebra.Join{Left: l, Right: r}
	}
}

// rewriteJoin implements spec.md §4.3's Join rule.
func (r *Rewriter) rewriteJoin(ctx qctx.Context, n algebra.Join) (GPReturn, error) {
	left, err := r.rewrite(ctx.Push(qctx.Entry{Kind: qctx.JoinLeftSide}), n.Left)
	if err != nil {
		return GPReturn{}, err
	}
	right, err := r.rewrite(ctx.Push(qctx.Entry{Kind: qctx.JoinRightSide}), n.Right)
	if err != nil {
		return GPReturn{}, err
	}
	change, ok := changetype.Join(left.Change, right.Change)
	if !ok {
		return GPReturn{}, hqerr.NewPushdownAbandoned("incompatible change types in Join")
	}
	return GPReturn{
		Pattern:            combinePatterns(left.Pattern, right.Pattern),
		Change:             change,
		VarsInScope:        unionVars(left.VarsInScope, right.VarsInScope),
		ExternalIDsInScope: unionExternalIDs(left.ExternalIDsInScope, right.ExternalIDsInScope),
	}, nil
}

// rewriteLeftJoin implements spec.md §4.3's LeftJoin rule, combining the
// two sides with the same table as Join (changetype.Join); Union and Minus
// use their own tables (changetype.Union, changetype.Minus).
func (r *Rewriter) rewriteLeftJoin(ctx qctx.Context, n algebra.LeftJoin) (GPReturn, error) {
	left, err := r.rewrite(ctx.Push(qctx.Entry{Kind: qctx.LeftJoinLeftSide}), n.Left)
	if err != nil {
		return GPReturn{}, err
	}
	right, err := r.rewrite(ctx.Push(qctx.Entry{Kind: qctx.LeftJoinRightSide}), n.Right)
	if err != nil {
		return GPReturn{}, err
	}
	change, ok := changetype.Join(left.Change, right.Change)
	if !ok {
		return GPReturn{}, hqerr.NewPushdownAbandoned("incompatible change types in LeftJoin")
	}

	var pattern algebra.GraphPattern
	switch {
	case left.Pattern == nil:
		pattern = nil
	case right.Pattern == nil:
		pattern = left.Pattern
	default:
		pattern = algebra.LeftJoin{Left: left.Pattern, Right: right.Pattern, Expr: n.Expr}
	}

	return GPReturn{
		Pattern:            pattern,
		Change:             change,
		VarsInScope:        unionVars(left.VarsInScope, right.VarsInScope),
		ExternalIDsInScope: unionExternalIDs(left.ExternalIDsInScope, right.ExternalIDsInScope),
	}, nil
}

// rewriteUnion implements spec.md §4.3's Union rule: propagate
// componentwise.
func (r *Rewriter) rewriteUnion(ctx qctx.Context, n algebra.Union) (GPReturn, error) {
	left, err := r.rewrite(ctx.Push(qctx.Entry{Kind: qctx.UnionLeftSide}), n.Left)
	if err != nil {
		return GPReturn{}, err
	}
	right, err := r.rewrite(ctx.Push(qctx.Entry{Kind: qctx.UnionRightSide}), n.Right)
	if err != nil {
		return GPReturn{}, err
	}
	change, ok := changetype.Union(left.Change, right.Change)
	if !ok {
		return GPReturn{}, hqerr.NewPushdownAbandoned("incompatible change types in Union")
	}

	lp, rp := left.Pattern, right.Pattern
	if lp == nil {
		lp = algebra.BGP{}
	}
	if rp == nil {
		rp = algebra.BGP{}
	}

	return GPReturn{
		Pattern:            algebra.Union{Left: lp, Right: rp},
		Change:             change,
		VarsInScope:        unionVars(left.VarsInScope, right.VarsInScope),
		ExternalIDsInScope: unionExternalIDs(left.ExternalIDsInScope, right.ExternalIDsInScope),
	}, nil
}

// rewriteMinus implements spec.md §4.3's Minus rule: "the right side's
// required direction flips (Rel<->Constr)".
func (r *Rewriter) rewriteMinus(ctx qctx.Context, n algebra.Minus) (GPReturn, error) {
	left, err := r.rewrite(ctx.Push(qctx.Entry{Kind: qctx.MinusLeftSide}), n.Left)
	if err != nil {
		return GPReturn{}, err
	}
	right, err := r.rewrite(ctx.Push(qctx.Entry{Kind: qctx.MinusRightSide}), n.Right)
	if err != nil {
		return GPReturn{}, err
	}
	change, ok := changetype.Minus(left.Change, right.Change)
	if !ok {
		return GPReturn{}, hqerr.NewPushdownAbandoned("incompatible change types in Minus")
	}

	lp := left.Pattern
	if lp == nil {
		lp = algebra.BGP{}
	}
	rp := right.Pattern
	if rp == nil {
		rp = algebra.BGP{}
	}

	return GPReturn{
		Pattern:            algebra.Minus{Left: lp, Right: rp},
		Change:             change,
		VarsInScope:        left.VarsInScope,
		ExternalIDsInScope: left.ExternalIDsInScope,
	}, nil
}
