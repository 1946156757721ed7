package rewritecache

import (
	"encoding/gob"

	"github.com/wbrown/hybridgraph/algebra"
)

func init() {
	gob.Register(algebra.BGP{})
	gob.Register(algebra.PathPattern{})
	gob.Register(algebra.Join{})
	gob.Register(algebra.LeftJoin{})
	gob.Register(algebra.Filter{})
	gob.Register(algebra.Union{})
	gob.Register(algebra.Graph{})
	gob.Register(algebra.Extend{})
	gob.Register(algebra.Minus{})
	gob.Register(algebra.Values{})
	gob.Register(algebra.OrderBy{})
	gob.Register(algebra.Project{})
	gob.Register(algebra.Distinct{})
	gob.Register(algebra.Reduced{})
	gob.Register(algebra.Slice{})
	gob.Register(algebra.Group{})
	gob.Register(algebra.Service{})

	gob.Register(algebra.ExprLiteral{})
	gob.Register(algebra.ExprVar{})
	gob.Register(algebra.ExprBound{})
	gob.Register(algebra.ExprNot{})
	gob.Register(algebra.ExprAnd{})
	gob.Register(algebra.ExprOr{})
	gob.Register(algebra.ExprUnary{})
	gob.Register(algebra.ExprBinary{})
	gob.Register(algebra.ExprFunctionCall{})
	gob.Register(algebra.ExprIf{})
	gob.Register(algebra.ExprCoalesce{})
	gob.Register(algebra.ExprIn{})
	gob.Register(algebra.ExprExists{})

	gob.Register(algebra.NamedNode{})
	gob.Register(algebra.BlankNode{})
	gob.Register(algebra.Literal{})
	gob.Register(algebra.Var{})

	gob.Register(algebra.CountAgg{})
	gob.Register(algebra.SumAgg{})
	gob.Register(algebra.AvgAgg{})
	gob.Register(algebra.MinAgg{})
	gob.Register(algebra.MaxAgg{})
	gob.Register(algebra.SampleAgg{})
	gob.Register(algebra.GroupConcatAgg{})
}
