package algebra

import (
	"fmt"
	"strings"
)

// GraphPattern is one algebra node. The recognized variants are exactly
// those named in spec.md §3: BGP, Path, Join, LeftJoin, Filter, Union,
// Graph, Extend, Minus, Values, OrderBy, Project, Distinct, Reduced,
// Slice, Group, Service.
type GraphPattern interface {
	isGraphPattern()
	String() string
}

// BGP is a basic graph pattern: a conjunction of triple patterns.
type BGP struct {
	Triples []TriplePattern
}

func (BGP) isGraphPattern() {}
func (b BGP) String() string {
	parts := make([]string, len(b.Triples))
	for i, t := range b.Triples {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}

// PathPattern is a single property-path triple.
type PathPattern struct {
	Subject Term
	Path    *Path
	Object  Term
}

func (PathPattern) isGraphPattern() {}
func (p PathPattern) String() string {
	return fmt.Sprintf("%s %s %s .", p.Subject, p.Path, p.Object)
}

// Join is an inner join of two patterns (implicit juxtaposition in SPARQL).
type Join struct{ Left, Right GraphPattern }

func (Join) isGraphPattern() {}
func (j Join) String() string { return j.Left.String() + " " + j.Right.String() }

// LeftJoin is SPARQL OPTIONAL, with an optional join-filter expression.
type LeftJoin struct {
	Left, Right GraphPattern
	Expr        Expression // nil if none
}

func (LeftJoin) isGraphPattern() {}
func (l LeftJoin) String() string {
	if l.Expr != nil {
		return fmt.Sprintf("%s OPTIONAL { %s FILTER(%s) }", l.Left, l.Right, l.Expr)
	}
	return fmt.Sprintf("%s OPTIONAL { %s }", l.Left, l.Right)
}

// Filter restricts Inner to solutions where Expr is effective-true.
type Filter struct {
	Expr  Expression
	Inner GraphPattern
}

func (Filter) isGraphPattern() {}
func (f Filter) String() string { return fmt.Sprintf("%s FILTER(%s)", f.Inner, f.Expr) }

// Union is SPARQL UNION.
type Union struct{ Left, Right GraphPattern }

func (Union) isGraphPattern() {}
func (u Union) String() string {
	return fmt.Sprintf("{ %s } UNION { %s }", u.Left, u.Right)
}

// Graph is a named-graph wrapper. Named-graph datasets are a Non-goal
// (spec.md §1); the variant exists so Passthrough handling is total, per
// spec.md §4.3's rule for Graph ("Passthrough, rewriting children").
type Graph struct {
	Name  Term
	Inner GraphPattern
}

func (Graph) isGraphPattern() {}
func (g Graph) String() string { return fmt.Sprintf("GRAPH %s { %s }", g.Name, g.Inner) }

// Extend is SPARQL BIND.
type Extend struct {
	Inner GraphPattern
	Var   Variable
	Expr  Expression
}

func (Extend) isGraphPattern() {}
func (e Extend) String() string {
	return fmt.Sprintf("%s BIND(%s AS %s)", e.Inner, e.Expr, e.Var)
}

// Minus is SPARQL MINUS.
type Minus struct{ Left, Right GraphPattern }

func (Minus) isGraphPattern() {}
func (m Minus) String() string { return fmt.Sprintf("%s MINUS { %s }", m.Left, m.Right) }

// Values is a SPARQL VALUES block. A nil Term in a row means UNDEF.
type Values struct {
	Vars []Variable
	Rows [][]Term
}

func (Values) isGraphPattern() {}
func (v Values) String() string {
	names := make([]string, len(v.Vars))
	for i, n := range v.Vars {
		names[i] = n.String()
	}
	var rows []string
	for _, row := range v.Rows {
		cells := make([]string, len(row))
		for i, c := range row {
			if c == nil {
				cells[i] = "UNDEF"
			} else {
				cells[i] = c.String()
			}
		}
		rows = append(rows, "("+strings.Join(cells, " ")+")")
	}
	return fmt.Sprintf("VALUES (%s) { %s }", strings.Join(names, " "), strings.Join(rows, " "))
}

// OrderBy is SPARQL ORDER BY.
type OrderBy struct {
	Inner GraphPattern
	Exprs []OrderExpression
}

func (OrderBy) isGraphPattern() {}
func (o OrderBy) String() string {
	parts := make([]string, len(o.Exprs))
	for i, e := range o.Exprs {
		parts[i] = e.String()
	}
	return fmt.Sprintf("%s ORDER BY %s", o.Inner, strings.Join(parts, " "))
}

// Project restricts the output to a set of variables (the SELECT list).
type Project struct {
	Inner GraphPattern
	Vars  []Variable
}

func (Project) isGraphPattern() {}
func (p Project) String() string {
	names := make([]string, len(p.Vars))
	for i, v := range p.Vars {
		names[i] = v.String()
	}
	return fmt.Sprintf("SELECT %s WHERE { %s }", strings.Join(names, " "), p.Inner)
}

// Distinct is SPARQL SELECT DISTINCT.
type Distinct struct{ Inner GraphPattern }

func (Distinct) isGraphPattern() {}
func (d Distinct) String() string { return "DISTINCT { " + d.Inner.String() + " }" }

// Reduced is SPARQL SELECT REDUCED.
type Reduced struct{ Inner GraphPattern }

func (Reduced) isGraphPattern() {}
func (r Reduced) String() string { return "REDUCED { " + r.Inner.String() + " }" }

// Slice is SPARQL LIMIT/OFFSET.
type Slice struct {
	Inner  GraphPattern
	Start  int
	Length *int // nil = unbounded
}

func (Slice) isGraphPattern() {}
func (s Slice) String() string {
	if s.Length != nil {
		return fmt.Sprintf("%s LIMIT %d OFFSET %d", s.Inner, *s.Length, s.Start)
	}
	return fmt.Sprintf("%s OFFSET %d", s.Inner, s.Start)
}

// Group is SPARQL GROUP BY with aggregate bindings.
type Group struct {
	Inner      GraphPattern
	By         []Variable
	Aggregates []AggregateBinding
}

func (Group) isGraphPattern() {}
func (g Group) String() string {
	by := make([]string, len(g.By))
	for i, v := range g.By {
		by[i] = v.String()
	}
	return fmt.Sprintf("%s GROUP BY %s", g.Inner, strings.Join(by, " "))
}

// Service is SPARQL SERVICE. Federation across multiple triple stores is a
// Non-goal (spec.md §1); Service is retained as a variant so the rewriter's
// "Service forces NoChange on its child" rule (spec.md §4.3) is expressible,
// not so the core can itself dispatch to another store.
type Service struct {
	Name   Term
	Inner  GraphPattern
	Silent bool
}

func (Service) isGraphPattern() {}
func (s Service) String() string {
	if s.Silent {
		return fmt.Sprintf("SERVICE SILENT %s { %s }", s.Name, s.Inner)
	}
	return fmt.Sprintf("SERVICE %s { %s }", s.Name, s.Inner)
}
