package rewrite

import (
	"github.com/wbrown/hybridgraph/algebra"
	"github.com/wbrown/hybridgraph/changetype"
	"github.com/wbrown/hybridgraph/qctx"
)

// rewriteGroup implements spec.md §4.3's Group rule: only a NoChange inner
// allows pushing the aggregates into the static query; otherwise keep the
// inner pattern unaggregated (the combiner or, for time-series columns,
// the prepper's own Grouped pushdown performs the aggregation instead) and
// surface the inner's change type unchanged.
func (r *Rewriter) rewriteGroup(ctx qctx.Context, n algebra.Group) (GPReturn, error) {
	innerCtx := ctx.Push(qctx.Entry{Kind: qctx.GroupInner})
	inner, err := r.rewrite(innerCtx, n.Inner)
	if err != nil {
		return GPReturn{}, err
	}

	if inner.Change == changetype.NoChange && inner.Pattern != nil {
		vars := map[algebra.Variable]bool{}
		for _, v := range n.By {
			vars[v] = true
		}
		for _, ab := range n.Aggregates {
			vars[ab.Var] = true
		}
		return GPReturn{
			Pattern:            algebra.Group{Inner: inner.Pattern, By: n.By, Aggregates: n.Aggregates},
			Change:             changetype.NoChange,
			VarsInScope:        vars,
			ExternalIDsInScope: inner.ExternalIDsInScope,
		}, nil
	}

	return GPReturn{
		Pattern:            inner.Pattern,
		Change:             inner.Change,
		VarsInScope:        inner.VarsInScope,
		ExternalIDsInScope: inner.ExternalIDsInScope,
	}, nil
}
