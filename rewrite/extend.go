package rewrite

import (
	"github.com/wbrown/hybridgraph/algebra"
	"github.com/wbrown/hybridgraph/qctx"
)

// rewriteExtend implements spec.md §4.3's Extend rule: rewrite the BIND
// expression in scope of the inner pattern's variables; if it cannot be
// rewritten statically, drop the Extend node but keep the inner pattern.
func (r *Rewriter) rewriteExtend(ctx qctx.Context, n algebra.Extend) (GPReturn, error) {
	innerCtx := ctx.Push(qctx.Entry{Kind: qctx.ExtendInner})
	inner, err := r.rewrite(innerCtx, n.Inner)
	if err != nil {
		return GPReturn{}, err
	}

	exprCtx := ctx.Push(qctx.Entry{Kind: qctx.ExtendExpr})
	rewrittenExpr, ok := r.isStaticExpression(exprCtx, n.Expr)

	vars := inner.VarsInScope
	pattern := inner.Pattern
	if ok && pattern != nil {
		vars = map[algebra.Variable]bool{n.Var: true}
		for v := range inner.VarsInScope {
			vars[v] = true
		}
		pattern = algebra.Extend{Inner: pattern, Var: n.Var, Expr: rewrittenExpr}
	}

	return GPReturn{
		Pattern:            pattern,
		Change:             inner.Change,
		VarsInScope:        vars,
		ExternalIDsInScope: inner.ExternalIDsInScope,
	}, nil
}
