package rewrite

import (
	"github.com/wbrown/hybridgraph/algebra"
	"github.com/wbrown/hybridgraph/changetype"
	"github.com/wbrown/hybridgraph/constraint"
	"github.com/wbrown/hybridgraph/qctx"
	"github.com/wbrown/hybridgraph/tsquery"
)

// rewriteBGP implements spec.md §4.3's BGP rule: partition triples into
// static and dynamic, mint a Basic + injected hasExternalId triple for
// every newly discovered ExternalTimeseries variable, and attribute
// dynamic hasDataPoint/hasTimestamp/hasValue triples to the Basic they
// describe.
func (r *Rewriter) rewriteBGP(ctx qctx.Context, n algebra.BGP) (GPReturn, error) {
	vars := map[algebra.Variable]bool{}
	externalIDs := map[algebra.Variable]algebra.Variable{}

	var staticTriples []algebra.TriplePattern
	var dynamicTriples []algebra.TriplePattern

	// First pass: mint a Basic for every hasTimeseries triple's object.
	for i, t := range n.Triples {
		triCtx := ctx.PushIndexed(qctx.BgpTriple, i)
		pred, ok := t.Predicate.(algebra.NamedNode)
		if !ok || pred != algebra.HasTimeseries {
			continue
		}
		tsVar, ok := algebra.AsVariable(t.Object)
		if !ok {
			continue
		}
		if _, exists := r.varToBasic[tsVar]; exists {
			continue
		}
		extID := r.freshExternalID()
		b := &tsquery.Basic{IdentifierVar: &extID, IdentifierCtx: triCtx}
		r.basics = append(r.basics, b)
		r.varToBasic[tsVar] = b
		r.additionalProjections[extID] = true
		externalIDs[tsVar] = extID

		staticTriples = append(staticTriples, t)
		staticTriples = append(staticTriples, algebra.TriplePattern{
			Subject: tsVar, Predicate: algebra.HasExternalID, Object: algebra.Var{Name: extID},
		})
		for _, v := range algebra.TripleVariables(t) {
			vars[v] = true
		}
		vars[extID] = true
	}

	// Second pass: everything else.
	for i, t := range n.Triples {
		triCtx := ctx.PushIndexed(qctx.BgpTriple, i)
		pred, isReserved := t.Predicate.(algebra.NamedNode)
		if isReserved && pred == algebra.HasTimeseries {
			continue // already handled above
		}

		if isReserved && pred == algebra.HasDataPoint {
			tsVar, ok := algebra.AsVariable(t.Subject)
			dpVar, dpOk := algebra.AsVariable(t.Object)
			if ok && dpOk {
				if b, found := r.varToBasic[tsVar]; found {
					b.DataPointVar = &dpVar
					b.DataPointCtx = triCtx
					r.varToBasic[dpVar] = b
					dynamicTriples = append(dynamicTriples, t)
					continue
				}
			}
		}

		if isReserved && pred == algebra.HasTimestamp {
			dpVar, dpOk := algebra.AsVariable(t.Subject)
			tVar, tOk := algebra.AsVariable(t.Object)
			if dpOk && tOk {
				if b, found := r.varToBasic[dpVar]; found {
					b.TimestampVar = &tVar
					b.TimestampCtx = triCtx
					dynamicTriples = append(dynamicTriples, t)
					continue
				}
			}
		}

		if isReserved && pred == algebra.HasValue {
			dpVar, dpOk := algebra.AsVariable(t.Subject)
			vVar, vOk := algebra.AsVariable(t.Object)
			if dpOk && vOk {
				if b, found := r.varToBasic[dpVar]; found {
					b.ValueVar = &vVar
					b.ValueCtx = triCtx
					dynamicTriples = append(dynamicTriples, t)
					continue
				}
			}
		}

		if r.tripleIsDynamic(ctx, t) {
			dynamicTriples = append(dynamicTriples, t)
			continue
		}

		staticTriples = append(staticTriples, t)
		for _, v := range algebra.TripleVariables(t) {
			vars[v] = true
		}
	}

	change := changetype.NoChange
	if len(dynamicTriples) > 0 {
		change = changetype.Relaxed
		// Dynamic triples still introduce variables into scope, even though
		// they never reach the static query — the prepper needs to see them
		// when it later walks the *original* algebra.
		for _, t := range dynamicTriples {
			for _, v := range algebra.TripleVariables(t) {
				vars[v] = true
			}
		}
	}

	var pattern algebra.GraphPattern
	if len(staticTriples) > 0 {
		pattern = algebra.BGP{Triples: staticTriples}
	}

	return GPReturn{Pattern: pattern, Change: change, VarsInScope: vars, ExternalIDsInScope: externalIDs}, nil
}

// tripleIsDynamic applies spec.md §4.3's "either end is an external
// variable (except ExternalTimeseries)" rule to a triple not already
// recognized as one of the three reserved-predicate shapes handled above.
func (r *Rewriter) tripleIsDynamic(ctx qctx.Context, t algebra.TriplePattern) bool {
	for _, term := range []algebra.Term{t.Subject, t.Object} {
		v, ok := algebra.AsVariable(term)
		if !ok {
			continue
		}
		kind, found := r.constraints.Lookup(v, ctx)
		if found && kind != constraint.ExternalTimeseries {
			return true
		}
	}
	return false
}

// rewritePath implements spec.md §4.3's Path rule. typeinfer folds only the
// recognized hasTimeseries/hasDataPoint/... path shape into a BGP; every
// other PathPattern, including one that mentions a reserved predicate,
// reaches rewrite as is and passes through unchanged.
func (r *Rewriter) rewritePath(ctx qctx.Context, n algebra.PathPattern) (GPReturn, error) {
	vars := map[algebra.Variable]bool{}
	for _, v := range algebra.TermVariables(n.Subject) {
		vars[v] = true
	}
	for _, v := range algebra.TermVariables(n.Object) {
		vars[v] = true
	}
	return GPReturn{Pattern: n, Change: changetype.NoChange, VarsInScope: vars, ExternalIDsInScope: map[algebra.Variable]algebra.Variable{}}, nil
}
