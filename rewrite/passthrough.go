package rewrite

import (
	"github.com/wbrown/hybridgraph/algebra"
	"github.com/wbrown/hybridgraph/changetype"
	"github.com/wbrown/hybridgraph/qctx"
)

// rewritePassthroughUnary implements spec.md §4.3's "Passthrough, rewriting
// children" rule shared by Distinct/Reduced/Slice/OrderBy/Graph: descend,
// then rebuild the same wrapper node around whatever the child rewrote to
// (or drop the wrapper if the child produced nothing static).
func (r *Rewriter) rewritePassthroughUnary(ctx qctx.Context, inner algebra.GraphPattern, kind qctx.EntryKind, rebuild func(algebra.GraphPattern) algebra.GraphPattern) (GPReturn, error) {
	innerCtx := ctx.Push(qctx.Entry{Kind: kind})
	ret, err := r.rewrite(innerCtx, inner)
	if err != nil {
		return GPReturn{}, err
	}
	pattern := ret.Pattern
	if pattern != nil {
		pattern = rebuild(pattern)
	}
	return GPReturn{
		Pattern:            pattern,
		Change:             ret.Change,
		VarsInScope:        ret.VarsInScope,
		ExternalIDsInScope: ret.ExternalIDsInScope,
	}, nil
}

// rewritePassthroughProject rewrites Project's inner pattern and restricts
// VarsInScope to the projected variables, matching SPARQL SELECT scoping.
func (r *Rewriter) rewritePassthroughProject(ctx qctx.Context, n algebra.Project) (GPReturn, error) {
	innerCtx := ctx.Push(qctx.Entry{Kind: qctx.ProjectInner})
	inner, err := r.rewrite(innerCtx, n.Inner)
	if err != nil {
		return GPReturn{}, err
	}
	var pattern algebra.GraphPattern
	if inner.Pattern != nil {
		pattern = algebra.Project{Inner: inner.Pattern, Vars: n.Vars}
	}
	vars := map[algebra.Variable]bool{}
	for _, v := range n.Vars {
		vars[v] = true
	}
	return GPReturn{
		Pattern:            pattern,
		Change:             inner.Change,
		VarsInScope:        vars,
		ExternalIDsInScope: inner.ExternalIDsInScope,
	}, nil
}

// rewriteService implements spec.md §4.3's rule that Service forces
// NoChange on its child: the federated endpoint is opaque, so whatever it
// returns is treated as already exact and never rewritten further — the
// inner pattern is kept verbatim rather than descended into.
func (r *Rewriter) rewriteService(ctx qctx.Context, n algebra.Service) (GPReturn, error) {
	vars := map[algebra.Variable]bool{}
	for _, v := range algebra.Variables(n.Inner) {
		vars[v] = true
	}
	return GPReturn{
		Pattern:            algebra.Service{Name: n.Name, Inner: n.Inner, Silent: n.Silent},
		Change:             changetype.NoChange,
		VarsInScope:        vars,
		ExternalIDsInScope: map[algebra.Variable]algebra.Variable{},
	}, nil
}
