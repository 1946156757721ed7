package sparqlparse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wbrown/hybridgraph/algebra"
	"github.com/wbrown/hybridgraph/hqerr"
)

// Parser turns a tokenized SPARQL-like query into an algebra.GraphPattern.
type Parser struct {
	lexer    *Lexer
	prefixes map[string]string
}

// NewParser constructs a Parser over lexer, which must already have Lex
// called on it.
func NewParser(lexer *Lexer) *Parser {
	return &Parser{lexer: lexer, prefixes: map[string]string{}}
}

// ParseQuery is the package entry point: lexes and parses input, returning
// the full algebra.GraphPattern (solution modifiers, projection, and all).
func ParseQuery(input string) (algebra.GraphPattern, error) {
	lexer := NewLexer(input)
	if err := lexer.Lex(); err != nil {
		return nil, hqerr.NewParseError(err)
	}
	p := NewParser(lexer)
	gp, err := p.parseQuery()
	if err != nil {
		return nil, hqerr.NewParseError(err)
	}
	return gp, nil
}

func (p *Parser) parseQuery() (algebra.GraphPattern, error) {
	if err := p.parsePrologue(); err != nil {
		return nil, err
	}

	distinct, reduced, selectVars, selectAll, bindings, err := p.parseSelectClause()
	if err != nil {
		return nil, err
	}

	if !p.isKeyword("WHERE") && p.peekPunct() != "{" {
		return nil, fmt.Errorf("expected WHERE or '{', got %s", p.lexer.PeekToken())
	}
	if p.isKeyword("WHERE") {
		p.lexer.NextToken()
	}

	inner, err := p.parseGroupGraphPattern()
	if err != nil {
		return nil, err
	}

	groupBy, err := p.parseGroupClause()
	if err != nil {
		return nil, err
	}

	orderExprs, err := p.parseOrderClause()
	if err != nil {
		return nil, err
	}

	start, length, err := p.parseLimitOffset()
	if err != nil {
		return nil, err
	}

	gp := inner

	// BIND any non-aggregate SELECT-list expressions before grouping, per
	// SPARQL's "Extend" step preceding "Group" in the algebra translation.
	// Aggregate-valued bindings don't get an Extend — they're collected
	// below into the Group node's Aggregates instead.
	var aggBindings []algebra.AggregateBinding
	for _, b := range bindings {
		if marker, isAgg := b.Expr.(aggregateMarker); isAgg {
			aggBindings = append(aggBindings, algebra.AggregateBinding{Var: b.Var, Agg: marker.AggregateExpression})
		} else {
			gp = algebra.Extend{Inner: gp, Var: b.Var, Expr: b.Expr}
		}
	}

	if len(groupBy) > 0 || len(aggBindings) > 0 {
		gp = algebra.Group{Inner: gp, By: groupBy, Aggregates: aggBindings}
	}

	if len(orderExprs) > 0 {
		gp = algebra.OrderBy{Inner: gp, Exprs: orderExprs}
	}

	if !selectAll {
		gp = algebra.Project{Inner: gp, Vars: selectVars}
	}

	if distinct {
		gp = algebra.Distinct{Inner: gp}
	} else if reduced {
		gp = algebra.Reduced{Inner: gp}
	}

	if start != 0 || length != nil {
		gp = algebra.Slice{Inner: gp, Start: start, Length: length}
	}

	if err := p.expectEOF(); err != nil {
		return nil, err
	}
	return gp, nil
}

// aggregateMarker distinguishes an AS-bound aggregate expression (handled
// by Group) from a plain BIND expression in the SELECT list; it is never
// placed on the returned algebra tree itself.
type aggregateMarker struct{ algebra.AggregateExpression }

func (aggregateMarker) isExpression() {}
func (a aggregateMarker) String() string { return a.AggregateExpression.String() }

// selectBinding is one `(expr AS ?var)` item from a SELECT list.
type selectBinding struct {
	Var  algebra.Variable
	Expr algebra.Expression
}

func (p *Parser) parsePrologue() error {
	for {
		if p.isKeyword("PREFIX") {
			p.lexer.NextToken()
			ns := p.lexer.NextToken()
			if ns.Type != TokenPrefixedName {
				return fmt.Errorf("expected prefix name after PREFIX, got %s", ns)
			}
			iri := p.lexer.NextToken()
			if iri.Type != TokenIRI {
				return fmt.Errorf("expected IRI after prefix name, got %s", iri)
			}
			p.prefixes[strings.TrimSuffix(ns.Value, ":")] = iri.Value
			continue
		}
		if p.isKeyword("BASE") {
			return fmt.Errorf("BASE is not supported")
		}
		break
	}
	return nil
}

func (p *Parser) parseSelectClause() (distinct, reduced bool, vars []algebra.Variable, selectAll bool, bindings []selectBinding, err error) {
	if !p.isKeyword("SELECT") {
		return false, false, nil, false, nil, fmt.Errorf("expected SELECT, got %s", p.lexer.PeekToken())
	}
	p.lexer.NextToken()

	if p.isKeyword("DISTINCT") {
		p.lexer.NextToken()
		distinct = true
	} else if p.isKeyword("REDUCED") {
		p.lexer.NextToken()
		reduced = true
	}

	if p.peekPunct() == "*" {
		p.lexer.NextToken()
		return distinct, reduced, nil, true, nil, nil
	}

	for {
		tok := p.lexer.PeekToken()
		if tok.Type == TokenVar {
			p.lexer.NextToken()
			v := algebra.Variable(tok.Value)
			vars = append(vars, v)
			continue
		}
		if tok.Type == TokenPunct && tok.Value == "(" {
			p.lexer.NextToken()
			expr, isAgg, err := p.parseExpressionOrAggregate()
			if err != nil {
				return false, false, nil, false, nil, err
			}
			if !p.isKeyword("AS") {
				return false, false, nil, false, nil, fmt.Errorf("expected AS in SELECT expression, got %s", p.lexer.PeekToken())
			}
			p.lexer.NextToken()
			nameTok := p.lexer.NextToken()
			if nameTok.Type != TokenVar {
				return false, false, nil, false, nil, fmt.Errorf("expected variable after AS, got %s", nameTok)
			}
			if err := p.expectPunct(")"); err != nil {
				return false, false, nil, false, nil, err
			}
			v := algebra.Variable(nameTok.Value)
			vars = append(vars, v)
			if isAgg {
				bindings = append(bindings, selectBinding{Var: v, Expr: aggregateMarker{expr.(algebra.AggregateExpression)}})
			} else {
				bindings = append(bindings, selectBinding{Var: v, Expr: expr.(algebra.Expression)})
			}
			continue
		}
		break
	}
	if len(vars) == 0 {
		return false, false, nil, false, nil, fmt.Errorf("SELECT must list at least one variable or be SELECT *")
	}
	return distinct, reduced, vars, false, bindings, nil
}

func (p *Parser) parseGroupClause() ([]algebra.Variable, error) {
	if !p.isKeyword("GROUP") {
		return nil, nil
	}
	p.lexer.NextToken()
	if !p.isKeyword("BY") {
		return nil, fmt.Errorf("expected BY after GROUP, got %s", p.lexer.PeekToken())
	}
	p.lexer.NextToken()

	var by []algebra.Variable
	for {
		tok := p.lexer.PeekToken()
		if tok.Type != TokenVar {
			break
		}
		p.lexer.NextToken()
		by = append(by, algebra.Variable(tok.Value))
	}
	if len(by) == 0 {
		return nil, fmt.Errorf("GROUP BY requires at least one variable")
	}
	return by, nil
}

func (p *Parser) parseOrderClause() ([]algebra.OrderExpression, error) {
	if !p.isKeyword("ORDER") {
		return nil, nil
	}
	p.lexer.NextToken()
	if !p.isKeyword("BY") {
		return nil, fmt.Errorf("expected BY after ORDER, got %s", p.lexer.PeekToken())
	}
	p.lexer.NextToken()

	var exprs []algebra.OrderExpression
	for {
		desc := false
		if p.isKeyword("ASC") {
			p.lexer.NextToken()
		} else if p.isKeyword("DESC") {
			p.lexer.NextToken()
			desc = true
		} else if p.lexer.PeekToken().Type != TokenVar && p.peekPunct() != "(" {
			break
		}
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, algebra.OrderExpression{Expr: expr, Descending: desc})
	}
	if len(exprs) == 0 {
		return nil, fmt.Errorf("ORDER BY requires at least one expression")
	}
	return exprs, nil
}

func (p *Parser) parseLimitOffset() (start int, length *int, err error) {
	for {
		if p.isKeyword("LIMIT") {
			p.lexer.NextToken()
			n, err := p.expectInt()
			if err != nil {
				return 0, nil, err
			}
			length = &n
			continue
		}
		if p.isKeyword("OFFSET") {
			p.lexer.NextToken()
			n, err := p.expectInt()
			if err != nil {
				return 0, nil, err
			}
			start = n
			continue
		}
		break
	}
	return start, length, nil
}

func (p *Parser) expectInt() (int, error) {
	tok := p.lexer.NextToken()
	if tok.Type != TokenNumber {
		return 0, fmt.Errorf("expected integer, got %s", tok)
	}
	n, err := strconv.Atoi(tok.Value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q: %w", tok.Value, err)
	}
	return n, nil
}

func (p *Parser) expectEOF() error {
	tok := p.lexer.PeekToken()
	if tok.Type != TokenEOF {
		return fmt.Errorf("unexpected trailing input at %d:%d: %s", tok.Line, tok.Col, tok)
	}
	return nil
}

func (p *Parser) expectPunct(v string) error {
	tok := p.lexer.NextToken()
	if tok.Type != TokenPunct || tok.Value != v {
		return fmt.Errorf("expected %q, got %s", v, tok)
	}
	return nil
}

func (p *Parser) isKeyword(kw string) bool {
	tok := p.lexer.PeekToken()
	return tok.Type == TokenKeyword && tok.Value == kw
}

func (p *Parser) peekPunct() string {
	tok := p.lexer.PeekToken()
	if tok.Type == TokenPunct {
		return tok.Value
	}
	return ""
}

// resolveIRI expands a TokenPrefixedName into a full IRI string using the
// prologue's PREFIX declarations.
func (p *Parser) resolveIRI(prefixed string) (string, error) {
	idx := strings.Index(prefixed, ":")
	prefix, local := prefixed[:idx], prefixed[idx+1:]
	ns, ok := p.prefixes[prefix]
	if !ok {
		return "", fmt.Errorf("undeclared prefix %q", prefix)
	}
	return ns + local, nil
}
