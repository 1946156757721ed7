package rewrite

import (
	"github.com/wbrown/hybridgraph/algebra"
	"github.com/wbrown/hybridgraph/changetype"
	"github.com/wbrown/hybridgraph/qctx"
)

// rewriteFilter implements spec.md §4.3's Filter rule: descend, then split
// the filter expression into conjuncts that are entirely static (kept) and
// conjuncts that reference an external variable (dropped here; C5 attempts
// to push them into the matching tsquery.Query via
// tsquery.RewriteFilterExpression, and whatever survives neither push is
// re-applied by the combiner).
func (r *Rewriter) rewriteFilter(ctx qctx.Context, n algebra.Filter) (GPReturn, error) {
	innerCtx := ctx.Push(qctx.Entry{Kind: qctx.FilterInner})
	inner, err := r.rewrite(innerCtx, n.Inner)
	if err != nil {
		return GPReturn{}, err
	}

	exprCtx := ctx.Push(qctx.Entry{Kind: qctx.FilterExpr})
	var staticParts []algebra.Expression
	droppedAny := false
	for _, part := range splitConjuncts(n.Expr) {
		if rewritten, ok := r.isStaticExpression(exprCtx, part); ok {
			staticParts = append(staticParts, rewritten)
		} else {
			droppedAny = true
		}
	}

	change := inner.Change
	if droppedAny {
		change = changetype.Weaken(change)
	}

	pattern := inner.Pattern
	if staticExpr := joinConjuncts(staticParts); staticExpr != nil && pattern != nil {
		pattern = algebra.Filter{Expr: staticExpr, Inner: pattern}
	}

	return GPReturn{
		Pattern:            pattern,
		Change:             change,
		VarsInScope:        inner.VarsInScope,
		ExternalIDsInScope: inner.ExternalIDsInScope,
	}, nil
}
