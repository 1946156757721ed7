package rewrite

import (
	"github.com/wbrown/hybridgraph/algebra"
	"github.com/wbrown/hybridgraph/changetype"
	"github.com/wbrown/hybridgraph/qctx"
)

// splitConjuncts flattens a tree of ExprAnd nodes into its leaf conjuncts,
// the unit spec.md §4.3's Filter rule tests for static-ness independently.
func splitConjuncts(expr algebra.Expression) []algebra.Expression {
	if and, ok := expr.(algebra.ExprAnd); ok {
		return append(splitConjuncts(and.Left), splitConjuncts(and.Right)...)
	}
	return []algebra.Expression{expr}
}

func joinConjuncts(parts []algebra.Expression) algebra.Expression {
	if len(parts) == 0 {
		return nil
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out = algebra.ExprAnd{Left: out, Right: p}
	}
	return out
}

// isStaticExpression reports whether every variable expr references is
// non-external at ctx — i.e. whether expr can be evaluated entirely by the
// static triple store. EXISTS/NOT EXISTS is static iff its inner pattern
// rewrites to NoChange, in which case its inner pattern is itself rewritten
// and embedded; a statically-unrewritable EXISTS is left to the combiner,
// which re-applies unpushed expressions by re-walking the original
// (un-rewritten) algebra a second time (see combiner's two-pass design) —
// this module does not additionally materialize the EXISTS body as a
// `Values` pushup.
func (r *Rewriter) isStaticExpression(ctx qctx.Context, expr algebra.Expression) (algebra.Expression, bool) {
	switch e := expr.(type) {
	case algebra.ExprExists:
		inner, err := r.rewrite(ctx.Push(qctx.Entry{Kind: qctx.ExistsInner}), e.Pattern)
		if err != nil || inner.Change != changetype.NoChange || inner.Pattern == nil {
			return nil, false
		}
		return algebra.ExprExists{Negated: e.Negated, Pattern: inner.Pattern}, true
	default:
		for _, v := range algebra.ExpressionVariables(expr) {
			if r.constraints.IsExternal(v, ctx) {
				return nil, false
			}
		}
		return expr, true
	}
}
