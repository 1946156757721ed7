package algebra

// Query is a parsed, dataset/base-iri-free SELECT query (spec.md §1's
// "DATASET"/"BaseIri" unsupported constructs are rejected before a Query
// is ever constructed — see sparqlparse).
type Query struct {
	Pattern GraphPattern
}

func (q Query) String() string { return q.Pattern.String() }

// TermVariables returns the variable referenced by t, if any.
func TermVariables(t Term) []Variable {
	if v, ok := AsVariable(t); ok {
		return []Variable{v}
	}
	return nil
}

// TripleVariables returns the variables in a triple pattern in
// subject/predicate/object order; a variable used in two positions is
// listed twice.
func TripleVariables(t TriplePattern) []Variable {
	var out []Variable
	for _, term := range []Term{t.Subject, t.Predicate, t.Object} {
		out = append(out, TermVariables(term)...)
	}
	return out
}

// Variables walks a GraphPattern collecting every distinct variable that
// occurs anywhere within it. Variables bound only inside the pattern of a
// nested Exists expression are not included (see ExpressionVariables).
func Variables(gp GraphPattern) []Variable {
	seen := map[Variable]bool{}
	var out []Variable
	add := func(v Variable) {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	addExpr := func(e Expression) {
		for _, v := range ExpressionVariables(e) {
			add(v)
		}
	}
	var walk func(GraphPattern)
	walk = func(gp GraphPattern) {
		switch n := gp.(type) {
		case BGP:
			for _, t := range n.Triples {
				for _, v := range TripleVariables(t) {
					add(v)
				}
			}
		case PathPattern:
			for _, v := range TermVariables(n.Subject) {
				add(v)
			}
			for _, v := range TermVariables(n.Object) {
				add(v)
			}
		case Join:
			walk(n.Left)
			walk(n.Right)
		case LeftJoin:
			walk(n.Left)
			walk(n.Right)
			if n.Expr != nil {
				addExpr(n.Expr)
			}
		case Filter:
			walk(n.Inner)
			addExpr(n.Expr)
		case Union:
			walk(n.Left)
			walk(n.Right)
		case Graph:
			walk(n.Inner)
			for _, v := range TermVariables(n.Name) {
				add(v)
			}
		case Extend:
			walk(n.Inner)
			add(n.Var)
			addExpr(n.Expr)
		case Minus:
			walk(n.Left)
			walk(n.Right)
		case Values:
			for _, v := range n.Vars {
				add(v)
			}
		case OrderBy:
			walk(n.Inner)
			for _, o := range n.Exprs {
				addExpr(o.Expr)
			}
		case Project:
			walk(n.Inner)
			for _, v := range n.Vars {
				add(v)
			}
		case Distinct:
			walk(n.Inner)
		case Reduced:
			walk(n.Inner)
		case Slice:
			walk(n.Inner)
		case Group:
			walk(n.Inner)
			for _, v := range n.By {
				add(v)
			}
			for _, ab := range n.Aggregates {
				add(ab.Var)
				if e := ab.Agg.AggregatedExpr(); e != nil {
					addExpr(e)
				}
			}
		case Service:
			walk(n.Inner)
		}
	}
	walk(gp)
	return out
}

// Walk calls visit once for every GraphPattern node in the tree, including
// gp itself, pre-order.
func Walk(gp GraphPattern, visit func(GraphPattern)) {
	if gp == nil {
		return
	}
	visit(gp)
	switch n := gp.(type) {
	case Join:
		Walk(n.Left, visit)
		Walk(n.Right, visit)
	case LeftJoin:
		Walk(n.Left, visit)
		Walk(n.Right, visit)
	case Filter:
		Walk(n.Inner, visit)
	case Union:
		Walk(n.Left, visit)
		Walk(n.Right, visit)
	case Graph:
		Walk(n.Inner, visit)
	case Extend:
		Walk(n.Inner, visit)
	case Minus:
		Walk(n.Left, visit)
		Walk(n.Right, visit)
	case OrderBy:
		Walk(n.Inner, visit)
	case Project:
		Walk(n.Inner, visit)
	case Distinct:
		Walk(n.Inner, visit)
	case Reduced:
		Walk(n.Inner, visit)
	case Slice:
		Walk(n.Inner, visit)
	case Group:
		Walk(n.Inner, visit)
	case Service:
		Walk(n.Inner, visit)
	}
}
