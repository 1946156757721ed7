// Package tsquery implements C4, the Time-Series Query Model from
// spec.md §4.4: an immutable algebraic representation of a pushdown
// candidate, built incrementally by rewrite (C3) as Basic queries and
// composed by prepper (C5) into Filtered/Grouped/InnerSynchronized forms.
//
// Grounded on janus-datalog's query.AggregateFunction/query.Predicate
// split (datalog/query/*.go): a closed interface with a handful of
// concrete implementations, each answering the same small set of
// observer methods the planner needs regardless of shape.
package tsquery

import (
	"github.com/wbrown/hybridgraph/algebra"
	"github.com/wbrown/hybridgraph/pushdown"
	"github.com/wbrown/hybridgraph/qctx"
)

// Query is the closed sum type spec.md §4.4 describes: Basic, Filtered,
// Grouped, or InnerSynchronized. Every variant answers the three observer
// methods C7 (combiner) needs to compute its join/drop columns.
type Query interface {
	isQuery()
	// IdentifierVariables returns the variable(s) a result frame from this
	// query uses to identify which external resource each row belongs to.
	IdentifierVariables() []algebra.Variable
	// TimestampVariables returns the variable(s) bound to a result row's
	// timestamp column, if the query exposes one.
	TimestampVariables() []algebra.Variable
	// ValueVariables returns the variable(s) bound to a result row's
	// measured-value column, if the query exposes one.
	ValueVariables() []algebra.Variable
}

// Basic is one external-timeseries pushdown seed, minted by the rewriter
// for each ExternalTimeseries variable it discovers (spec.md §3's "Basic
// time-series query"). IDs is populated after static execution completes
// (spec.md §4.8's "identifier completion" step); it is empty when the
// Basic is first minted.
type Basic struct {
	IdentifierVar *algebra.Variable
	IdentifierCtx qctx.Context
	TimestampVar  *algebra.Variable
	TimestampCtx  qctx.Context
	ValueVar      *algebra.Variable
	ValueCtx      qctx.Context
	DataPointVar  *algebra.Variable
	DataPointCtx  qctx.Context

	// IDs holds the resolved external ids this query ranges over, filled in
	// by the orchestrator after the static subquery executes.
	IDs []string
}

func (*Basic) isQuery() {}

func (b *Basic) IdentifierVariables() []algebra.Variable {
	return singleton(b.IdentifierVar)
}
func (b *Basic) TimestampVariables() []algebra.Variable { return singleton(b.TimestampVar) }
func (b *Basic) ValueVariables() []algebra.Variable     { return singleton(b.ValueVar) }

func singleton(v *algebra.Variable) []algebra.Variable {
	if v == nil {
		return nil
	}
	return []algebra.Variable{*v}
}

// SharesTimestamp reports whether b and other were scoped to the same
// timestamp variable, the condition create-identity-synchronized-queries
// (spec.md §4.5) groups siblings by.
func (b *Basic) SharesTimestamp(other *Basic) bool {
	if b.TimestampVar == nil || other.TimestampVar == nil {
		return false
	}
	return *b.TimestampVar == *other.TimestampVar
}

// Filtered wraps Inner with a pushdown-resolved filter expression (spec.md
// §4.4's RewriteFilterExpression output). The expression is expressed
// entirely in terms of Inner's own columns; it never introduces new
// variables.
type Filtered struct {
	Inner Query
	Expr  algebra.Expression
}

func (*Filtered) isQuery() {}

func (f *Filtered) IdentifierVariables() []algebra.Variable { return f.Inner.IdentifierVariables() }
func (f *Filtered) TimestampVariables() []algebra.Variable  { return f.Inner.TimestampVariables() }
func (f *Filtered) ValueVariables() []algebra.Variable      { return f.Inner.ValueVariables() }

// AggregationType enumerates the aggregate shapes a Grouped query's
// back-end is expected to compute, mirroring algebra.AggregateExpression
// but flattened to the kinds a back-end actually needs to recognize: there
// is no DISTINCT or GROUP_CONCAT kind, and prepper pushes SAMPLE down as
// AggFirst.
type AggregationType int

const (
	AggFirst AggregationType = iota
	AggLast
	AggMean
	AggMin
	AggMax
	AggSum
	AggCount
)

func (a AggregationType) String() string {
	switch a {
	case AggFirst:
		return "first"
	case AggLast:
		return "last"
	case AggMean:
		return "mean"
	case AggMin:
		return "min"
	case AggMax:
		return "max"
	case AggSum:
		return "sum"
	case AggCount:
		return "count"
	default:
		return "unknown"
	}
}

// AggregateSpec is one aggregate output column of a Grouped query.
type AggregateSpec struct {
	OutputVar algebra.Variable
	Type      AggregationType
	InputVar  algebra.Variable
}

// TimeseriesFunc attaches one of the datetime-aggregation helper IRIs
// (spec.md §6) as a derived column computed over a Grouped query's output.
type TimeseriesFunc struct {
	OutputVar algebra.Variable
	FuncIRI   string
	Args      []algebra.Variable
}

// Grouped is a grouped-aggregation pushdown: Inner's rows are aggregated
// by By, producing one row per distinct combination plus the Aggregates
// and Funcs derived columns.
type Grouped struct {
	Inner      Query
	By         []algebra.Variable
	Aggregates []AggregateSpec
	Funcs      []TimeseriesFunc
}

func (*Grouped) isQuery() {}

func (g *Grouped) IdentifierVariables() []algebra.Variable { return g.Inner.IdentifierVariables() }
func (g *Grouped) TimestampVariables() []algebra.Variable  { return g.Inner.TimestampVariables() }
func (g *Grouped) ValueVariables() []algebra.Variable {
	out := make([]algebra.Variable, 0, len(g.Aggregates))
	for _, a := range g.Aggregates {
		out = append(out, a.OutputVar)
	}
	return out
}

// Synchronizer is the sum type spec.md §4.5's synchronization step
// produces. Identity is the only variant spec.md ever constructs; the
// type stays open (supplemented from original_source's dedicated
// synchronization.rs file) for interval-tolerant synchronization the
// original only scaffolds and never finishes.
type Synchronizer interface {
	isSynchronizer()
}

// IdentitySynchronizer joins children row-for-row on exactly matching
// timestamp values.
type IdentitySynchronizer struct{}

func (IdentitySynchronizer) isSynchronizer() {}

// InnerSynchronized groups several sibling queries that share a timestamp
// variable and must be joined on matching timestamps before any
// aggregation that crosses series runs.
type InnerSynchronized struct {
	Children      []Query
	Synchronizers []Synchronizer
}

func (*InnerSynchronized) isQuery() {}

func (s *InnerSynchronized) IdentifierVariables() []algebra.Variable {
	var out []algebra.Variable
	for _, c := range s.Children {
		out = append(out, c.IdentifierVariables()...)
	}
	return out
}
func (s *InnerSynchronized) TimestampVariables() []algebra.Variable {
	var out []algebra.Variable
	for _, c := range s.Children {
		out = append(out, c.TimestampVariables()...)
	}
	return out
}
func (s *InnerSynchronized) ValueVariables() []algebra.Variable {
	var out []algebra.Variable
	for _, c := range s.Children {
		out = append(out, c.ValueVariables()...)
	}
	return out
}

// ResultPair is one executed time-series query and the frame it produced,
// the shape C7 (combiner) consumes.
type ResultPair struct {
	Query Query
	Frame any // *arrow.Record; kept as `any` here to avoid an import cycle with frame
}

// RewriteFilterExpression attempts to express expr entirely in terms of
// q's own columns, per spec.md §4.4. It returns the pushed expression (nil
// if nothing could be pushed) and whether any sub-expression had to be
// dropped (lostValue). Grounded on janus-datalog's
// Predicate.CanPushToStorage()/Selectivity() pattern: same "can this be
// expressed in terms of what storage already knows" check, generalized
// from a boolean flag to an expression-rewrite that may drop conjuncts.
func RewriteFilterExpression(expr algebra.Expression, q Query, settings pushdown.Settings) (pushed algebra.Expression, lostValue bool) {
	known := map[algebra.Variable]bool{}
	for _, v := range q.IdentifierVariables() {
		known[v] = true
	}
	for _, v := range q.TimestampVariables() {
		known[v] = true
	}
	if settings.ValueConditionsEnabled() {
		for _, v := range q.ValueVariables() {
			known[v] = true
		}
	}
	return rewriteExpr(expr, known)
}

func rewriteExpr(expr algebra.Expression, known map[algebra.Variable]bool) (algebra.Expression, bool) {
	switch e := expr.(type) {
	case algebra.ExprAnd:
		l, lLost := rewriteExpr(e.Left, known)
		r, rLost := rewriteExpr(e.Right, known)
		lost := lLost || rLost
		switch {
		case l == nil && r == nil:
			return nil, lost
		case l == nil:
			return r, lost
		case r == nil:
			return l, lost
		default:
			return algebra.ExprAnd{Left: l, Right: r}, lost
		}
	default:
		for _, v := range algebra.ExpressionVariables(expr) {
			if !known[v] {
				return nil, true
			}
		}
		return expr, false
	}
}
