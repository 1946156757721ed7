package prepper

import (
	"github.com/wbrown/hybridgraph/algebra"
	"github.com/wbrown/hybridgraph/qctx"
	"github.com/wbrown/hybridgraph/tsquery"
)

// prepGroup implements spec.md §4.5's Group rule: attempt complex group-by
// pushdown once; on success (a single surviving time-series query and the
// GroupBy pushdown setting enabled) materialize a Grouped query; otherwise
// fall back to leaving the group-by for the combiner.
func (p *Prepper) prepGroup(ctx qctx.Context, n algebra.Group) (GPPrepReturn, error) {
	innerCtx := ctx.Push(qctx.Entry{Kind: qctx.GroupInner})
	attempt, err := p.prep(innerCtx, n.Inner, true)
	if err != nil {
		return GPPrepReturn{}, err
	}

	if p.settings.GroupByEnabled() && !attempt.FailGroupByComplex && len(attempt.Queries) == 1 {
		specs, funcs, ok := convertAggregates(n.Aggregates)
		if ok {
			grouped := &tsquery.Grouped{
				Inner:      attempt.Queries[0],
				By:         n.By,
				Aggregates: specs,
				Funcs:      funcs,
			}
			return GPPrepReturn{Queries: []tsquery.Query{grouped}}, nil
		}
	}

	// Fall back: non-pushdown group-by, leaving aggregation to the combiner.
	fallback, err := p.prep(innerCtx, n.Inner, false)
	if err != nil {
		return GPPrepReturn{}, err
	}
	return GPPrepReturn{Queries: fallback.Queries}, nil
}

// convertAggregates translates the algebra's AggregateBinding list into
// the flattened AggregationType shape a time-series backend recognizes.
// ok is false if any aggregate has no time-series-pushable equivalent
// (e.g. DISTINCT/GROUP_CONCAT), in which case the caller must fall back.
func convertAggregates(bindings []algebra.AggregateBinding) ([]tsquery.AggregateSpec, []tsquery.TimeseriesFunc, bool) {
	specs := make([]tsquery.AggregateSpec, 0, len(bindings))
	for _, ab := range bindings {
		kind, inputExpr, ok := aggregationKind(ab.Agg)
		if !ok {
			return nil, nil, false
		}
		inputVarExpr, ok := inputExpr.(algebra.ExprVar)
		if !ok {
			return nil, nil, false
		}
		specs = append(specs, tsquery.AggregateSpec{OutputVar: ab.Var, Type: kind, InputVar: inputVarExpr.Name})
	}
	return specs, nil, true
}

func aggregationKind(agg algebra.AggregateExpression) (tsquery.AggregationType, algebra.Expression, bool) {
	switch a := agg.(type) {
	case algebra.SumAgg:
		if a.Distinct {
			return 0, nil, false
		}
		return tsquery.AggSum, a.Expr, true
	case algebra.AvgAgg:
		if a.Distinct {
			return 0, nil, false
		}
		return tsquery.AggMean, a.Expr, true
	case algebra.MinAgg:
		return tsquery.AggMin, a.Expr, true
	case algebra.MaxAgg:
		return tsquery.AggMax, a.Expr, true
	case algebra.CountAgg:
		if a.Distinct || a.Expr == nil {
			return 0, nil, false
		}
		return tsquery.AggCount, a.Expr, true
	case algebra.SampleAgg:
		return tsquery.AggFirst, a.Expr, true
	default:
		return 0, nil, false
	}
}
