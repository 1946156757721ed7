package prepper

import (
	"github.com/wbrown/hybridgraph/algebra"
	"github.com/wbrown/hybridgraph/qctx"
	"github.com/wbrown/hybridgraph/tsquery"
)

// prepBGP implements spec.md §4.5's BGP rule: emit one Basic per basic
// query scoped to ctx; under try-groupby-complex, fold siblings sharing a
// timestamp variable into an InnerSynchronized.
func (p *Prepper) prepBGP(ctx qctx.Context, n algebra.BGP, tryGroupByComplex bool) (GPPrepReturn, error) {
	basics := p.basicsAt(ctx)
	if len(basics) == 0 {
		return GPPrepReturn{}, nil
	}

	queries := make([]tsquery.Query, len(basics))
	for i, b := range basics {
		queries[i] = b
	}

	if !tryGroupByComplex {
		return GPPrepReturn{Queries: queries}, nil
	}

	pool := append([]*tsquery.Basic{}, basics...)
	var out []tsquery.Query
	for len(pool) > 0 {
		q := pool[0]
		pool = pool[1:]
		var same []*tsquery.Basic
		var rest []*tsquery.Basic
		for _, other := range pool {
			if q.SharesTimestamp(other) {
				same = append(same, other)
			} else {
				rest = append(rest, other)
			}
		}
		pool = rest
		if len(same) == 0 {
			out = append(out, q)
			continue
		}
		children := []tsquery.Query{q}
		syncs := make([]tsquery.Synchronizer, 0, len(same))
		for _, s := range same {
			children = append(children, s)
			syncs = append(syncs, tsquery.IdentitySynchronizer{})
		}
		out = append(out, &tsquery.InnerSynchronized{Children: children, Synchronizers: syncs})
	}
	return GPPrepReturn{Queries: out}, nil
}

// prepFilter implements spec.md §4.5's Filter rule.
func (p *Prepper) prepFilter(ctx qctx.Context, n algebra.Filter, tryGroupByComplex bool) (GPPrepReturn, error) {
	inner, err := p.prep(ctx.Push(qctx.Entry{Kind: qctx.FilterInner}), n.Inner, tryGroupByComplex)
	if err != nil {
		return GPPrepReturn{}, err
	}
	if inner.FailGroupByComplex {
		return inner, nil
	}

	lostAny := false
	out := make([]tsquery.Query, len(inner.Queries))
	for i, q := range inner.Queries {
		pushed, lost := tsquery.RewriteFilterExpression(n.Expr, q, p.settings)
		if lost {
			lostAny = true
		}
		if pushed != nil {
			out[i] = &tsquery.Filtered{Inner: q, Expr: pushed}
		} else {
			out[i] = q
		}
	}

	fail := tryGroupByComplex && lostAny
	return GPPrepReturn{Queries: out, FailGroupByComplex: fail}, nil
}

// prepJoin implements spec.md §4.5's Join rule: union children's queries.
func (p *Prepper) prepJoin(ctx qctx.Context, n algebra.Join, tryGroupByComplex bool) (GPPrepReturn, error) {
	left, err := p.prep(ctx.Push(qctx.Entry{Kind: qctx.JoinLeftSide}), n.Left, tryGroupByComplex)
	if err != nil {
		return GPPrepReturn{}, err
	}
	if left.FailGroupByComplex {
		return left, nil
	}
	right, err := p.prep(ctx.Push(qctx.Entry{Kind: qctx.JoinRightSide}), n.Right, tryGroupByComplex)
	if err != nil {
		return GPPrepReturn{}, err
	}
	if right.FailGroupByComplex {
		return right, nil
	}
	return GPPrepReturn{Queries: append(left.Queries, right.Queries...)}, nil
}

// prepExtend implements spec.md §4.5's Extend rule: under
// try-groupby-complex, the BIND expression's variables must all be known
// to at least one child time-series query.
func (p *Prepper) prepExtend(ctx qctx.Context, n algebra.Extend, tryGroupByComplex bool) (GPPrepReturn, error) {
	inner, err := p.prep(ctx.Push(qctx.Entry{Kind: qctx.ExtendInner}), n.Inner, tryGroupByComplex)
	if err != nil {
		return GPPrepReturn{}, err
	}
	if !tryGroupByComplex || inner.FailGroupByComplex {
		return inner, nil
	}

	known := map[algebra.Variable]bool{}
	for _, q := range inner.Queries {
		for _, v := range q.IdentifierVariables() {
			known[v] = true
		}
		for _, v := range q.TimestampVariables() {
			known[v] = true
		}
		for _, v := range q.ValueVariables() {
			known[v] = true
		}
	}
	for _, v := range algebra.ExpressionVariables(n.Expr) {
		if !known[v] {
			return GPPrepReturn{FailGroupByComplex: true}, nil
		}
	}
	return inner, nil
}
