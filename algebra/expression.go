package algebra

import (
	"fmt"
	"strings"
)

// Expression is a SPARQL filter/extend expression. Variants mirror the
// original crate's preparing/expressions file-per-kind split (and, binary
// ordinary, coalesce, exists, function-call, if, in, not, unary ordinary)
// plus the literal/variable/bound leaves spec.md's algebra model requires.
type Expression interface {
	isExpression()
	String() string
}

// ExprLiteral is a constant RDF term appearing in an expression.
type ExprLiteral struct{ Value Term }

func (ExprLiteral) isExpression()    {}
func (e ExprLiteral) String() string { return e.Value.String() }

// ExprVar references a query variable.
type ExprVar struct{ Name Variable }

func (ExprVar) isExpression()    {}
func (e ExprVar) String() string { return e.Name.String() }

// ExprBound is BOUND(?v).
type ExprBound struct{ Name Variable }

func (ExprBound) isExpression()    {}
func (e ExprBound) String() string { return fmt.Sprintf("BOUND(%s)", e.Name) }

// ExprNot is a boolean negation.
type ExprNot struct{ Inner Expression }

func (ExprNot) isExpression()    {}
func (e ExprNot) String() string { return "!(" + e.Inner.String() + ")" }

// ExprAnd is a conjunction.
type ExprAnd struct{ Left, Right Expression }

func (ExprAnd) isExpression()    {}
func (e ExprAnd) String() string { return fmt.Sprintf("(%s && %s)", e.Left, e.Right) }

// ExprOr is a disjunction.
type ExprOr struct{ Left, Right Expression }

func (ExprOr) isExpression()    {}
func (e ExprOr) String() string { return fmt.Sprintf("(%s || %s)", e.Left, e.Right) }

// UnaryOp is a prefix numeric operator, e.g. unary minus.
type UnaryOp string

const (
	OpUnaryMinus UnaryOp = "-"
	OpUnaryPlus  UnaryOp = "+"
)

// ExprUnary is a unary ordinary expression.
type ExprUnary struct {
	Op    UnaryOp
	Inner Expression
}

func (ExprUnary) isExpression()    {}
func (e ExprUnary) String() string { return string(e.Op) + e.Inner.String() }

// BinaryOp is an infix comparison or arithmetic operator.
type BinaryOp string

const (
	OpEQ       BinaryOp = "="
	OpNE       BinaryOp = "!="
	OpLT       BinaryOp = "<"
	OpLTE      BinaryOp = "<="
	OpGT       BinaryOp = ">"
	OpGTE      BinaryOp = ">="
	OpAdd      BinaryOp = "+"
	OpSubtract BinaryOp = "-"
	OpMultiply BinaryOp = "*"
	OpDivide   BinaryOp = "/"
)

// ExprBinary is a binary ordinary expression (comparison or arithmetic).
type ExprBinary struct {
	Op          BinaryOp
	Left, Right Expression
}

func (ExprBinary) isExpression() {}
func (e ExprBinary) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Left, e.Op, e.Right)
}

// IsComparison reports whether Op is one of the six comparison operators.
func (op BinaryOp) IsComparison() bool {
	switch op {
	case OpEQ, OpNE, OpLT, OpLTE, OpGT, OpGTE:
		return true
	default:
		return false
	}
}

// ExprFunctionCall is a named function application, covering both the
// reserved datetime-aggregation helpers (spec.md §6) and ordinary built-ins
// (e.g. str/starts-with semantics) carried over from the pack's predicate
// function shape.
type ExprFunctionCall struct {
	Name string
	Args []Expression
}

func (ExprFunctionCall) isExpression() {}
func (e ExprFunctionCall) String() string {
	parts := make([]string, len(e.Args))
	for i, a := range e.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", e.Name, strings.Join(parts, ", "))
}

// ExprIf is IF(cond, then, else).
type ExprIf struct {
	Cond, Then, Else Expression
}

func (ExprIf) isExpression() {}
func (e ExprIf) String() string {
	return fmt.Sprintf("IF(%s, %s, %s)", e.Cond, e.Then, e.Else)
}

// ExprCoalesce is COALESCE(args...).
type ExprCoalesce struct{ Args []Expression }

func (ExprCoalesce) isExpression() {}
func (e ExprCoalesce) String() string {
	parts := make([]string, len(e.Args))
	for i, a := range e.Args {
		parts[i] = a.String()
	}
	return "COALESCE(" + strings.Join(parts, ", ") + ")"
}

// ExprIn is `expr IN (list...)` or, when Negated, `expr NOT IN (list...)`.
type ExprIn struct {
	Expr    Expression
	List    []Expression
	Negated bool
}

func (ExprIn) isExpression() {}
func (e ExprIn) String() string {
	parts := make([]string, len(e.List))
	for i, a := range e.List {
		parts[i] = a.String()
	}
	op := "IN"
	if e.Negated {
		op = "NOT IN"
	}
	return fmt.Sprintf("%s %s (%s)", e.Expr, op, strings.Join(parts, ", "))
}

// ExprExists is EXISTS{pattern} or, when Negated, NOT EXISTS{pattern}.
type ExprExists struct {
	Negated bool
	Pattern GraphPattern
}

func (ExprExists) isExpression() {}
func (e ExprExists) String() string {
	if e.Negated {
		return "NOT EXISTS " + renderBlock(e.Pattern)
	}
	return "EXISTS " + renderBlock(e.Pattern)
}

func renderBlock(gp GraphPattern) string {
	return "{ " + gp.String() + " }"
}

// ExpressionVariables returns the set of variables an expression reads,
// excluding the pattern inside an Exists/NotExists (that pattern has its
// own, inner scope).
func ExpressionVariables(e Expression) []Variable {
	seen := map[Variable]bool{}
	var out []Variable
	add := func(v Variable) {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	var walk func(Expression)
	walk = func(e Expression) {
		switch x := e.(type) {
		case ExprVar:
			add(x.Name)
		case ExprBound:
			add(x.Name)
		case ExprNot:
			walk(x.Inner)
		case ExprAnd:
			walk(x.Left)
			walk(x.Right)
		case ExprOr:
			walk(x.Left)
			walk(x.Right)
		case ExprUnary:
			walk(x.Inner)
		case ExprBinary:
			walk(x.Left)
			walk(x.Right)
		case ExprFunctionCall:
			for _, a := range x.Args {
				walk(a)
			}
		case ExprIf:
			walk(x.Cond)
			walk(x.Then)
			walk(x.Else)
		case ExprCoalesce:
			for _, a := range x.Args {
				walk(a)
			}
		case ExprIn:
			walk(x.Expr)
			for _, a := range x.List {
				walk(a)
			}
		case ExprExists:
			// variables bound only inside the nested pattern are out of scope
		case ExprLiteral:
		}
	}
	walk(e)
	return out
}
