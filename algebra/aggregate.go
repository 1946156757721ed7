package algebra

import "fmt"

// AggregateExpression is the parallel algebraic tree for aggregates
// (spec.md §3), grounded on janus-datalog's query.AggregateFunction family
// (datalog/query/aggregate.go) and supplemented with Sample/GroupConcat,
// the two standard SPARQL aggregates the distillation's "Count/Sum/..."
// prose left implicit.
type AggregateExpression interface {
	isAggregate()
	String() string
	// AggregatedExpr returns the inner expression the aggregate reduces,
	// or nil for COUNT(*).
	AggregatedExpr() Expression
}

type CountAgg struct {
	Distinct bool
	Expr     Expression // nil for COUNT(*)
}

func (CountAgg) isAggregate()              {}
func (c CountAgg) AggregatedExpr() Expression { return c.Expr }
func (c CountAgg) String() string {
	if c.Expr == nil {
		return aggStr("COUNT", c.Distinct, "*")
	}
	return aggStr("COUNT", c.Distinct, c.Expr.String())
}

type SumAgg struct {
	Distinct bool
	Expr     Expression
}

func (SumAgg) isAggregate()                 {}
func (s SumAgg) AggregatedExpr() Expression { return s.Expr }
func (s SumAgg) String() string             { return aggStr("SUM", s.Distinct, s.Expr.String()) }

type AvgAgg struct {
	Distinct bool
	Expr     Expression
}

func (AvgAgg) isAggregate()                 {}
func (a AvgAgg) AggregatedExpr() Expression { return a.Expr }
func (a AvgAgg) String() string             { return aggStr("AVG", a.Distinct, a.Expr.String()) }

type MinAgg struct{ Expr Expression }

func (MinAgg) isAggregate()                 {}
func (m MinAgg) AggregatedExpr() Expression { return m.Expr }
func (m MinAgg) String() string             { return aggStr("MIN", false, m.Expr.String()) }

type MaxAgg struct{ Expr Expression }

func (MaxAgg) isAggregate()                 {}
func (m MaxAgg) AggregatedExpr() Expression { return m.Expr }
func (m MaxAgg) String() string             { return aggStr("MAX", false, m.Expr.String()) }

type SampleAgg struct{ Expr Expression }

func (SampleAgg) isAggregate()                 {}
func (s SampleAgg) AggregatedExpr() Expression { return s.Expr }
func (s SampleAgg) String() string             { return aggStr("SAMPLE", false, s.Expr.String()) }

type GroupConcatAgg struct {
	Distinct  bool
	Expr      Expression
	Separator string
}

func (GroupConcatAgg) isAggregate()                 {}
func (g GroupConcatAgg) AggregatedExpr() Expression { return g.Expr }
func (g GroupConcatAgg) String() string {
	return aggStr("GROUP_CONCAT", g.Distinct, g.Expr.String())
}

func aggStr(name string, distinct bool, inner string) string {
	if distinct {
		return fmt.Sprintf("%s(DISTINCT %s)", name, inner)
	}
	return fmt.Sprintf("%s(%s)", name, inner)
}

// AggregateBinding is `(aggregate AS ?var)` inside a GROUP BY clause.
type AggregateBinding struct {
	Var Variable
	Agg AggregateExpression
}
