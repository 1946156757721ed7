package combiner

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/wbrown/hybridgraph/algebra"
)

// reapply walks the original, un-rewritten algebra a second time and
// re-applies any Filter or Group node whose effect is not already visible
// in acc. Filters are idempotent to reapply (a row that already satisfies
// a predicate still satisfies it), so every Filter found is applied
// unconditionally; a Group is reapplied unless every one of its aggregate
// output variables is already a column in acc, which is how a Grouped
// pushdown that the prepper already materialized is detected and skipped.
func reapply(gp algebra.GraphPattern, acc []tuple) []tuple {
	switch n := gp.(type) {
	case algebra.Filter:
		acc = reapply(n.Inner, acc)
		return applyFilter(n.Expr, acc)
	case algebra.Group:
		acc = reapply(n.Inner, acc)
		if groupAlreadyMaterialized(n, acc) {
			return acc
		}
		return applyGroup(n.By, n.Aggregates, acc)
	case algebra.Join:
		return reapply(n.Right, reapply(n.Left, acc))
	case algebra.Extend:
		acc = reapply(n.Inner, acc)
		return applyExtend(n.Var, n.Expr, acc)
	case algebra.Project:
		return reapply(n.Inner, acc)
	case algebra.OrderBy:
		acc = reapply(n.Inner, acc)
		return applyOrderBy(n.Exprs, acc)
	case algebra.Distinct:
		return dedupe(reapply(n.Inner, acc))
	case algebra.Reduced:
		return reapply(n.Inner, acc)
	case algebra.Slice:
		acc = reapply(n.Inner, acc)
		return applySlice(n.Start, n.Length, acc)
	case algebra.Service:
		return reapply(n.Inner, acc)
	case algebra.Graph:
		return reapply(n.Inner, acc)
	case algebra.LeftJoin:
		acc = reapplyBranch(n.Left, acc)
		acc = reapplyBranch(n.Right, acc)
		if n.Expr != nil {
			acc = applyFilterBranch(n.Expr, acc)
		}
		return acc
	case algebra.Union:
		acc = reapplyBranch(n.Left, acc)
		acc = reapplyBranch(n.Right, acc)
		return acc
	case algebra.Minus:
		acc = reapply(n.Left, acc)
		return reapplyBranch(n.Right, acc)
	default:
		return acc
	}
}

// reapplyBranch is reapply for one side of a LeftJoin/Union/Minus, where
// acc holds tuples interleaved from both sides rather than every tuple
// carrying both sides' columns the way a plain Join's output does. A row
// that doesn't have the variables a Filter/Group references wasn't
// produced by this branch and passes through untouched instead of being
// dropped the way a direct evaluation error would drop it.
func reapplyBranch(gp algebra.GraphPattern, acc []tuple) []tuple {
	switch n := gp.(type) {
	case algebra.Filter:
		acc = reapplyBranch(n.Inner, acc)
		return applyFilterBranch(n.Expr, acc)
	case algebra.Group:
		acc = reapplyBranch(n.Inner, acc)
		if groupAlreadyMaterialized(n, acc) {
			return acc
		}
		return applyGroupBranch(n.By, n.Aggregates, acc)
	case algebra.Join:
		return reapplyBranch(n.Right, reapplyBranch(n.Left, acc))
	case algebra.Extend:
		acc = reapplyBranch(n.Inner, acc)
		return applyExtend(n.Var, n.Expr, acc)
	case algebra.Project:
		return reapplyBranch(n.Inner, acc)
	case algebra.Distinct:
		return reapplyBranch(n.Inner, acc)
	case algebra.Reduced:
		return reapplyBranch(n.Inner, acc)
	case algebra.Service:
		return reapplyBranch(n.Inner, acc)
	case algebra.Graph:
		return reapplyBranch(n.Inner, acc)
	case algebra.LeftJoin:
		acc = reapplyBranch(n.Left, acc)
		acc = reapplyBranch(n.Right, acc)
		if n.Expr != nil {
			acc = applyFilterBranch(n.Expr, acc)
		}
		return acc
	case algebra.Union:
		acc = reapplyBranch(n.Left, acc)
		return reapplyBranch(n.Right, acc)
	case algebra.Minus:
		return reapplyBranch(n.Left, acc)
	default:
		return acc
	}
}

// applyFilterBranch is applyFilter's branch-aware counterpart: a tuple
// missing one of expr's variables did not come from this branch and is
// kept as-is rather than dropped.
func applyFilterBranch(expr algebra.Expression, ts []tuple) []tuple {
	vars := exprVars(expr)
	var out []tuple
	for _, t := range ts {
		if !hasAllVars(t, vars) {
			out = append(out, t)
			continue
		}
		keep, err := evalBool(expr, t)
		if err != nil {
			continue
		}
		if keep {
			out = append(out, t)
		}
	}
	return out
}

// applyGroupBranch is applyGroup's branch-aware counterpart: only tuples
// carrying every BY and aggregate-input variable are grouped, the rest
// pass through so rows belonging to the other branch of a Union/LeftJoin
// survive unchanged.
func applyGroupBranch(by []algebra.Variable, aggregates []algebra.AggregateBinding, ts []tuple) []tuple {
	vars := make([]string, 0, len(by)+len(aggregates))
	for _, v := range by {
		vars = append(vars, v.String())
	}
	for _, ab := range aggregates {
		vars = append(vars, exprVars(ab.Agg.AggregatedExpr())...)
	}

	var applicable, rest []tuple
	for _, t := range ts {
		if hasAllVars(t, vars) {
			applicable = append(applicable, t)
		} else {
			rest = append(rest, t)
		}
	}
	return append(rest, applyGroup(by, aggregates, applicable)...)
}

// exprVars collects the variable names expr references, for deciding
// whether a tuple belongs to the branch expr was lifted from.
func exprVars(expr algebra.Expression) []string {
	if expr == nil {
		return nil
	}
	var out []string
	switch e := expr.(type) {
	case algebra.ExprVar:
		out = append(out, e.Name.String())
	case algebra.ExprBound:
		out = append(out, e.Name.String())
	case algebra.ExprNot:
		out = append(out, exprVars(e.Inner)...)
	case algebra.ExprAnd:
		out = append(out, exprVars(e.Left)...)
		out = append(out, exprVars(e.Right)...)
	case algebra.ExprOr:
		out = append(out, exprVars(e.Left)...)
		out = append(out, exprVars(e.Right)...)
	case algebra.ExprBinary:
		out = append(out, exprVars(e.Left)...)
		out = append(out, exprVars(e.Right)...)
	case algebra.ExprIf:
		out = append(out, exprVars(e.Cond)...)
		out = append(out, exprVars(e.Then)...)
		out = append(out, exprVars(e.Else)...)
	case algebra.ExprCoalesce:
		for _, a := range e.Args {
			out = append(out, exprVars(a)...)
		}
	case algebra.ExprIn:
		out = append(out, exprVars(e.Expr)...)
		for _, a := range e.List {
			out = append(out, exprVars(a)...)
		}
	}
	return out
}

func hasAllVars(t tuple, vars []string) bool {
	for _, v := range vars {
		if _, ok := t[v]; !ok {
			return false
		}
	}
	return true
}

func groupAlreadyMaterialized(n algebra.Group, acc []tuple) bool {
	if len(n.Aggregates) == 0 || len(acc) == 0 {
		return false
	}
	sample := acc[0]
	for _, ab := range n.Aggregates {
		if _, ok := sample[ab.Var.String()]; !ok {
			return false
		}
	}
	return true
}

func applyFilter(expr algebra.Expression, ts []tuple) []tuple {
	var out []tuple
	for _, t := range ts {
		keep, err := evalBool(expr, t)
		if err != nil {
			continue
		}
		if keep {
			out = append(out, t)
		}
	}
	return out
}

func applyExtend(v algebra.Variable, expr algebra.Expression, ts []tuple) []tuple {
	for _, t := range ts {
		val, err := evalExpr(expr, t)
		if err == nil {
			t[v.String()] = val
		}
	}
	return ts
}

func applyOrderBy(exprs []algebra.OrderExpression, ts []tuple) []tuple {
	sort.SliceStable(ts, func(i, j int) bool {
		for _, oe := range exprs {
			vi, _ := evalExpr(oe.Expr, ts[i])
			vj, _ := evalExpr(oe.Expr, ts[j])
			c := compareValues(vi, vj)
			if c == 0 {
				continue
			}
			if oe.Descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	return ts
}

func applySlice(start int, length *int, ts []tuple) []tuple {
	if start < 0 {
		start = 0
	}
	if start >= len(ts) {
		return nil
	}
	end := len(ts)
	if length != nil && start+*length < end {
		end = start + *length
	}
	return ts[start:end]
}

func dedupe(ts []tuple) []tuple {
	seen := map[string]bool{}
	var out []tuple
	for _, t := range ts {
		k := tupleKey(t)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, t)
	}
	return out
}

func tupleKey(t tuple) string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	s := ""
	for _, k := range keys {
		s += fmt.Sprintf("%s=%v|", k, t[k])
	}
	return s
}

func applyGroup(by []algebra.Variable, aggregates []algebra.AggregateBinding, ts []tuple) []tuple {
	type bucket struct {
		key    string
		sample tuple
		rows   []tuple
	}
	order := map[string]*bucket{}
	var keys []string
	for _, t := range ts {
		k := groupKey(by, t)
		b, ok := order[k]
		if !ok {
			b = &bucket{key: k, sample: t}
			order[k] = b
			keys = append(keys, k)
		}
		b.rows = append(b.rows, t)
	}

	var out []tuple
	for _, k := range keys {
		b := order[k]
		row := tuple{}
		for _, v := range by {
			row[v.String()] = b.sample[v.String()]
		}
		for _, ab := range aggregates {
			row[ab.Var.String()] = evalAggregate(ab.Agg, b.rows)
		}
		out = append(out, row)
	}
	return out
}

func groupKey(by []algebra.Variable, t tuple) string {
	s := ""
	for _, v := range by {
		s += fmt.Sprintf("%v|", t[v.String()])
	}
	return s
}

func evalAggregate(agg algebra.AggregateExpression, rows []tuple) any {
	switch a := agg.(type) {
	case algebra.CountAgg:
		if a.Expr == nil {
			return int64(len(rows))
		}
		n := int64(0)
		for _, r := range rows {
			if v, err := evalExpr(a.Expr, r); err == nil && v != nil {
				n++
			}
		}
		return n
	case algebra.SumAgg:
		return sumOf(a.Expr, rows)
	case algebra.AvgAgg:
		s, n := sumAndCount(a.Expr, rows)
		if n == 0 {
			return 0.0
		}
		return s / float64(n)
	case algebra.MinAgg:
		return extremeOf(a.Expr, rows, -1)
	case algebra.MaxAgg:
		return extremeOf(a.Expr, rows, 1)
	case algebra.SampleAgg:
		if len(rows) == 0 {
			return nil
		}
		v, _ := evalExpr(a.Expr, rows[0])
		return v
	case algebra.GroupConcatAgg:
		sep := a.Separator
		if sep == "" {
			sep = " "
		}
		s := ""
		for i, r := range rows {
			v, _ := evalExpr(a.Expr, r)
			if i > 0 {
				s += sep
			}
			s += fmt.Sprintf("%v", v)
		}
		return s
	default:
		return nil
	}
}

func sumOf(expr algebra.Expression, rows []tuple) float64 {
	s, _ := sumAndCount(expr, rows)
	return s
}

func sumAndCount(expr algebra.Expression, rows []tuple) (float64, int) {
	s := 0.0
	n := 0
	for _, r := range rows {
		v, err := evalExpr(expr, r)
		if err != nil {
			continue
		}
		if f, ok := asFloat(v); ok {
			s += f
			n++
		}
	}
	return s, n
}

func extremeOf(expr algebra.Expression, rows []tuple, sign int) any {
	var best any
	var bestF float64
	found := false
	for _, r := range rows {
		v, err := evalExpr(expr, r)
		if err != nil {
			continue
		}
		f, ok := asFloat(v)
		if !ok {
			continue
		}
		if !found || (sign < 0 && f < bestF) || (sign > 0 && f > bestF) {
			best, bestF, found = v, f, true
		}
	}
	return best
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func evalBool(expr algebra.Expression, t tuple) (bool, error) {
	v, err := evalExpr(expr, t)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("combiner: expression %s did not evaluate to a boolean", expr)
	}
	return b, nil
}

// evalExpr evaluates an algebra.Expression against one output row. It
// mirrors backend/memframe's evaluator but operates on the boxed Go
// values a tuple holds rather than algebra.Term, since by this point in
// the pipeline the static and time-series results have already been
// reduced to plain Go values.
func evalExpr(expr algebra.Expression, t tuple) (any, error) {
	switch e := expr.(type) {
	case algebra.ExprVar:
		v, ok := t[e.Name.String()]
		if !ok {
			return nil, fmt.Errorf("combiner: unbound variable %s", e.Name)
		}
		return v, nil
	case algebra.ExprLiteral:
		return literalValue(e.Value)
	case algebra.ExprBound:
		_, ok := t[e.Name.String()]
		return ok, nil
	case algebra.ExprNot:
		b, err := evalBool(e.Inner, t)
		if err != nil {
			return nil, err
		}
		return !b, nil
	case algebra.ExprAnd:
		l, err := evalBool(e.Left, t)
		if err != nil || !l {
			return false, err
		}
		return evalBool(e.Right, t)
	case algebra.ExprOr:
		l, err := evalBool(e.Left, t)
		if err == nil && l {
			return true, nil
		}
		return evalBool(e.Right, t)
	case algebra.ExprBinary:
		return evalBinary(e, t)
	case algebra.ExprIf:
		cond, err := evalBool(e.Cond, t)
		if err != nil {
			return nil, err
		}
		if cond {
			return evalExpr(e.Then, t)
		}
		return evalExpr(e.Else, t)
	case algebra.ExprCoalesce:
		for _, a := range e.Args {
			if v, err := evalExpr(a, t); err == nil && v != nil {
				return v, nil
			}
		}
		return nil, fmt.Errorf("combiner: COALESCE exhausted with no bound argument")
	case algebra.ExprIn:
		v, err := evalExpr(e.Expr, t)
		if err != nil {
			return nil, err
		}
		found := false
		for _, a := range e.List {
			av, err := evalExpr(a, t)
			if err == nil && compareValues(v, av) == 0 {
				found = true
				break
			}
		}
		if e.Negated {
			return !found, nil
		}
		return found, nil
	default:
		// EXISTS/NOT EXISTS conjuncts that the static rewriter could not
		// push down (rewrite.isStaticExpression only embeds an EXISTS whose
		// inner pattern rewrites to NoChange) have no dataset left to
		// re-query by the time results reach the combiner; they are left
		// unevaluated here rather than silently dropping or keeping rows.
		return nil, fmt.Errorf("combiner: unsupported expression %T in post-combine reapplication", expr)
	}
}

func evalBinary(e algebra.ExprBinary, t tuple) (any, error) {
	l, err := evalExpr(e.Left, t)
	if err != nil {
		return nil, err
	}
	r, err := evalExpr(e.Right, t)
	if err != nil {
		return nil, err
	}
	if e.Op.IsComparison() {
		c := compareValues(l, r)
		switch e.Op {
		case algebra.OpEQ:
			return c == 0, nil
		case algebra.OpNE:
			return c != 0, nil
		case algebra.OpLT:
			return c < 0, nil
		case algebra.OpLTE:
			return c <= 0, nil
		case algebra.OpGT:
			return c > 0, nil
		case algebra.OpGTE:
			return c >= 0, nil
		}
	}
	lf, lok := asFloat(l)
	rf, rok := asFloat(r)
	if lok && rok {
		switch e.Op {
		case algebra.OpAdd:
			return lf + rf, nil
		case algebra.OpSubtract:
			return lf - rf, nil
		case algebra.OpMultiply:
			return lf * rf, nil
		case algebra.OpDivide:
			if rf == 0 {
				return nil, fmt.Errorf("combiner: division by zero")
			}
			return lf / rf, nil
		}
	}
	return nil, fmt.Errorf("combiner: unsupported binary operator %s", e.Op)
}

func compareValues(l, r any) int {
	if lt, ok := l.(time.Time); ok {
		if rt, ok := r.(time.Time); ok {
			switch {
			case lt.Before(rt):
				return -1
			case lt.After(rt):
				return 1
			default:
				return 0
			}
		}
	}
	if lf, ok := asFloat(l); ok {
		if rf, ok := asFloat(r); ok {
			switch {
			case lf < rf:
				return -1
			case lf > rf:
				return 1
			default:
				return 0
			}
		}
	}
	ls := fmt.Sprintf("%v", l)
	rs := fmt.Sprintf("%v", r)
	switch {
	case ls < rs:
		return -1
	case ls > rs:
		return 1
	default:
		return 0
	}
}

func literalValue(term algebra.Term) (any, error) {
	lit, ok := term.(algebra.Literal)
	if !ok {
		return term.String(), nil
	}
	switch lit.Datatype {
	case "http://www.w3.org/2001/XMLSchema#integer", "http://www.w3.org/2001/XMLSchema#long":
		n, err := strconv.ParseInt(lit.Lexical, 10, 64)
		if err != nil {
			return nil, err
		}
		return n, nil
	case "http://www.w3.org/2001/XMLSchema#double", "http://www.w3.org/2001/XMLSchema#float", "http://www.w3.org/2001/XMLSchema#decimal":
		f, err := strconv.ParseFloat(lit.Lexical, 64)
		if err != nil {
			return nil, err
		}
		return f, nil
	case "http://www.w3.org/2001/XMLSchema#boolean":
		return lit.Lexical == "true" || lit.Lexical == "1", nil
	case "http://www.w3.org/2001/XMLSchema#dateTime":
		t, err := time.Parse(time.RFC3339Nano, lit.Lexical)
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		return lit.Lexical, nil
	}
}

// projectToOutputVars restricts acc to original's outermost Project
// variables, if any; patterns with no Project (e.g. a bare CONSTRUCT-free
// ASK-shaped subquery) pass every column through unchanged.
func projectToOutputVars(gp algebra.GraphPattern, acc []tuple) []tuple {
	vars, ok := findProject(gp)
	if !ok {
		return acc
	}
	out := make([]tuple, len(acc))
	for i, t := range acc {
		row := tuple{}
		for _, v := range vars {
			if val, present := t[v.String()]; present {
				row[v.String()] = val
			}
		}
		out[i] = row
	}
	return out
}

func findProject(gp algebra.GraphPattern) ([]algebra.Variable, bool) {
	switch n := gp.(type) {
	case algebra.Project:
		return n.Vars, true
	case algebra.Distinct:
		return findProject(n.Inner)
	case algebra.Reduced:
		return findProject(n.Inner)
	case algebra.Slice:
		return findProject(n.Inner)
	case algebra.OrderBy:
		return findProject(n.Inner)
	case algebra.Service:
		return findProject(n.Inner)
	default:
		return nil, false
	}
}
