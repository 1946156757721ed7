package sparqlparse

import (
	"fmt"

	"github.com/wbrown/hybridgraph/algebra"
)

// parseGroupGraphPattern parses a '{' ... '}' block into a single
// algebra.GraphPattern, joining its elements left to right and applying
// any FILTERs found anywhere in the group to the whole group, per the
// SPARQL-to-algebra translation (a FILTER is not positionally scoped to
// whatever precedes it within its enclosing group).
func (p *Parser) parseGroupGraphPattern() (algebra.GraphPattern, error) {
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}

	var acc algebra.GraphPattern
	var pending []algebra.TriplePattern
	var filters []algebra.Expression

	flush := func() {
		if len(pending) == 0 {
			return
		}
		bgp := algebra.BGP{Triples: pending}
		pending = nil
		acc = join(acc, bgp)
	}

	for {
		if p.peekPunct() == "}" {
			p.lexer.NextToken()
			break
		}
		if p.lexer.PeekToken().Type == TokenEOF {
			return nil, fmt.Errorf("unterminated group graph pattern")
		}

		switch {
		case p.isKeyword("FILTER"):
			p.lexer.NextToken()
			expr, err := p.parseConstraint()
			if err != nil {
				return nil, err
			}
			filters = append(filters, expr)

		case p.isKeyword("OPTIONAL"):
			p.lexer.NextToken()
			flush()
			inner, err := p.parseGroupGraphPattern()
			if err != nil {
				return nil, err
			}
			acc = algebra.LeftJoin{Left: acc, Right: inner}

		case p.isKeyword("MINUS"):
			p.lexer.NextToken()
			flush()
			inner, err := p.parseGroupGraphPattern()
			if err != nil {
				return nil, err
			}
			acc = algebra.Minus{Left: acc, Right: inner}

		case p.isKeyword("GRAPH"):
			p.lexer.NextToken()
			name, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			inner, err := p.parseGroupGraphPattern()
			if err != nil {
				return nil, err
			}
			flush()
			acc = join(acc, algebra.Graph{Name: name, Inner: inner})

		case p.isKeyword("SERVICE"):
			p.lexer.NextToken()
			silent := false
			if p.isKeyword("SILENT") {
				p.lexer.NextToken()
				silent = true
			}
			name, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			inner, err := p.parseGroupGraphPattern()
			if err != nil {
				return nil, err
			}
			flush()
			acc = join(acc, algebra.Service{Name: name, Inner: inner, Silent: silent})

		case p.isKeyword("BIND"):
			p.lexer.NextToken()
			if err := p.expectPunct("("); err != nil {
				return nil, err
			}
			expr, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if !p.isKeyword("AS") {
				return nil, fmt.Errorf("expected AS in BIND, got %s", p.lexer.PeekToken())
			}
			p.lexer.NextToken()
			v := p.lexer.NextToken()
			if v.Type != TokenVar {
				return nil, fmt.Errorf("expected variable after AS in BIND, got %s", v)
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			flush()
			acc = algebra.Extend{Inner: acc, Var: algebra.Variable(v.Value), Expr: expr}

		case p.isKeyword("VALUES"):
			p.lexer.NextToken()
			values, err := p.parseInlineData()
			if err != nil {
				return nil, err
			}
			flush()
			acc = join(acc, values)

		case p.peekPunct() == "{":
			inner, err := p.parseGroupGraphPattern()
			if err != nil {
				return nil, err
			}
			for p.isKeyword("UNION") {
				p.lexer.NextToken()
				right, err := p.parseGroupGraphPattern()
				if err != nil {
					return nil, err
				}
				inner = algebra.Union{Left: inner, Right: right}
			}
			flush()
			acc = join(acc, inner)

		default:
			triples, err := p.parseTriplesSameSubjectPath()
			if err != nil {
				return nil, err
			}
			for _, t := range triples {
				switch v := t.(type) {
				case algebra.TriplePattern:
					pending = append(pending, v)
				case algebra.PathPattern:
					flush()
					acc = join(acc, v)
				}
			}
			if p.peekPunct() == "." {
				p.lexer.NextToken()
			}
		}
	}

	flush()
	if acc == nil {
		acc = algebra.BGP{}
	}
	for _, f := range filters {
		acc = algebra.Filter{Inner: acc, Expr: f}
	}
	return acc, nil
}

func join(acc, next algebra.GraphPattern) algebra.GraphPattern {
	if acc == nil {
		return next
	}
	return algebra.Join{Left: acc, Right: next}
}

// triplesStep is either an algebra.TriplePattern (simple predicate) or an
// algebra.PathPattern (property path predicate).
func (p *Parser) parseTriplesSameSubjectPath() ([]any, error) {
	subject, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	return p.parsePropertyListPathNotEmpty(subject)
}

func (p *Parser) parsePropertyListPathNotEmpty(subject algebra.Term) ([]any, error) {
	var out []any
	for {
		varPred, path, err := p.parsePredicate()
		if err != nil {
			return nil, err
		}
		objects, err := p.parseObjectList()
		if err != nil {
			return nil, err
		}
		for _, obj := range objects {
			if varPred != nil {
				out = append(out, algebra.TriplePattern{Subject: subject, Predicate: *varPred, Object: obj})
				continue
			}
			if steps, ok := path.AsSequenceOfPredicates(); ok && len(steps) == 1 {
				out = append(out, algebra.TriplePattern{Subject: subject, Predicate: steps[0], Object: obj})
			} else {
				out = append(out, algebra.PathPattern{Subject: subject, Path: path, Object: obj})
			}
		}
		if p.peekPunct() != ";" {
			break
		}
		p.lexer.NextToken()
		if p.peekPunct() == "." || p.peekPunct() == "}" {
			break
		}
	}
	return out, nil
}

func (p *Parser) parseObjectList() ([]algebra.Term, error) {
	var out []algebra.Term
	for {
		obj, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		out = append(out, obj)
		if p.peekPunct() != "," {
			break
		}
		p.lexer.NextToken()
	}
	return out, nil
}

// parsePredicate parses a path predicate, or a variable used in predicate
// position (SPARQL permits this; it is never a reserved/time-series
// predicate, so typeinfer attaches no constraint to the triple).
func (p *Parser) parsePredicate() (*algebra.Var, *algebra.Path, error) {
	if p.lexer.PeekToken().Type == TokenVar {
		tok := p.lexer.NextToken()
		v := algebra.Var{Name: algebra.Variable(tok.Value)}
		return &v, nil, nil
	}
	path, err := p.parsePathAlternative()
	return nil, path, err
}

func (p *Parser) parsePathAlternative() (*algebra.Path, error) {
	var parts []*algebra.Path
	first, err := p.parsePathSequence()
	if err != nil {
		return nil, err
	}
	parts = append(parts, first)
	for p.peekPunct() == "|" {
		p.lexer.NextToken()
		next, err := p.parsePathSequence()
		if err != nil {
			return nil, err
		}
		parts = append(parts, next)
	}
	return foldRight(parts, algebra.PathAlternative), nil
}

func (p *Parser) parsePathSequence() (*algebra.Path, error) {
	var parts []*algebra.Path
	first, err := p.parsePathEltOrInverse()
	if err != nil {
		return nil, err
	}
	parts = append(parts, first)
	for p.peekPunct() == "/" {
		p.lexer.NextToken()
		next, err := p.parsePathEltOrInverse()
		if err != nil {
			return nil, err
		}
		parts = append(parts, next)
	}
	return foldRight(parts, algebra.PathSequence), nil
}

func foldRight(parts []*algebra.Path, kind algebra.PathKind) *algebra.Path {
	if len(parts) == 1 {
		return parts[0]
	}
	return &algebra.Path{Kind: kind, Left: parts[0], Right: foldRight(parts[1:], kind)}
}

func (p *Parser) parsePathEltOrInverse() (*algebra.Path, error) {
	inverse := false
	if p.peekPunct() == "^" {
		p.lexer.NextToken()
		inverse = true
	}
	primary, err := p.parsePathPrimary()
	if err != nil {
		return nil, err
	}
	primary = p.parsePathModifier(primary)
	if inverse {
		return &algebra.Path{Kind: algebra.PathInverse, Sub: primary}, nil
	}
	return primary, nil
}

func (p *Parser) parsePathModifier(path *algebra.Path) *algebra.Path {
	switch p.peekPunct() {
	case "*":
		p.lexer.NextToken()
		return &algebra.Path{Kind: algebra.PathZeroOrMore, Sub: path}
	case "+":
		p.lexer.NextToken()
		return &algebra.Path{Kind: algebra.PathOneOrMore, Sub: path}
	case "?":
		p.lexer.NextToken()
		return &algebra.Path{Kind: algebra.PathZeroOrOne, Sub: path}
	default:
		return path
	}
}

func (p *Parser) parsePathPrimary() (*algebra.Path, error) {
	if p.peekPunct() == "!" {
		p.lexer.NextToken()
		sub, err := p.parsePathPrimary()
		if err != nil {
			return nil, err
		}
		return &algebra.Path{Kind: algebra.PathNegated, Sub: sub}, nil
	}
	if p.peekPunct() == "(" {
		p.lexer.NextToken()
		inner, err := p.parsePathAlternative()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return inner, nil
	}
	if p.isKeyword("A") {
		p.lexer.NextToken()
		return algebra.NewPredicatePath(algebra.RDFType), nil
	}
	n, err := p.parseIRITerm()
	if err != nil {
		return nil, err
	}
	return algebra.NewPredicatePath(n), nil
}

func (p *Parser) parseIRITerm() (algebra.NamedNode, error) {
	tok := p.lexer.NextToken()
	switch tok.Type {
	case TokenIRI:
		return algebra.NamedNode{IRI: tok.Value}, nil
	case TokenPrefixedName:
		iri, err := p.resolveIRI(tok.Value)
		if err != nil {
			return algebra.NamedNode{}, err
		}
		return algebra.NamedNode{IRI: iri}, nil
	default:
		return algebra.NamedNode{}, fmt.Errorf("expected IRI, got %s", tok)
	}
}

func (p *Parser) parseTerm() (algebra.Term, error) {
	tok := p.lexer.PeekToken()
	switch tok.Type {
	case TokenVar:
		p.lexer.NextToken()
		return algebra.Var{Name: algebra.Variable(tok.Value)}, nil
	case TokenIRI:
		p.lexer.NextToken()
		return algebra.NamedNode{IRI: tok.Value}, nil
	case TokenPrefixedName:
		p.lexer.NextToken()
		iri, err := p.resolveIRI(tok.Value)
		if err != nil {
			return nil, err
		}
		return algebra.NamedNode{IRI: iri}, nil
	case TokenBlank:
		p.lexer.NextToken()
		return algebra.BlankNode{ID: tok.Value}, nil
	case TokenString:
		p.lexer.NextToken()
		return p.parseLiteralSuffix(tok.Value)
	case TokenNumber:
		p.lexer.NextToken()
		return numericLiteral(tok.Value), nil
	case TokenKeyword:
		switch tok.Value {
		case "TRUE":
			p.lexer.NextToken()
			return algebra.Literal{Lexical: "true", Datatype: algebra.XSDBoolean.IRI}, nil
		case "FALSE":
			p.lexer.NextToken()
			return algebra.Literal{Lexical: "false", Datatype: algebra.XSDBoolean.IRI}, nil
		case "A":
			p.lexer.NextToken()
			return algebra.RDFType, nil
		}
	}
	return nil, fmt.Errorf("expected term, got %s", tok)
}

func (p *Parser) parseLiteralSuffix(lexical string) (algebra.Term, error) {
	if p.peekPunct() == "^^" {
		p.lexer.NextToken()
		dt, err := p.parseIRITerm()
		if err != nil {
			return nil, err
		}
		return algebra.Literal{Lexical: lexical, Datatype: dt.IRI}, nil
	}
	return algebra.Literal{Lexical: lexical, Datatype: algebra.XSDString.IRI}, nil
}

func numericLiteral(lexical string) algebra.Literal {
	for _, ch := range lexical {
		if ch == '.' || ch == 'e' || ch == 'E' {
			return algebra.Literal{Lexical: lexical, Datatype: algebra.XSDDouble.IRI}
		}
	}
	return algebra.Literal{Lexical: lexical, Datatype: algebra.XSDInteger.IRI}
}

// parseInlineData parses a VALUES block: either `?var { term... }` (one
// variable) or `( ?v1 ?v2 ) { (term term) ... }` (multiple variables).
func (p *Parser) parseInlineData() (algebra.Values, error) {
	var vars []algebra.Variable
	multi := false
	if p.peekPunct() == "(" {
		multi = true
		p.lexer.NextToken()
		for p.lexer.PeekToken().Type == TokenVar {
			tok := p.lexer.NextToken()
			vars = append(vars, algebra.Variable(tok.Value))
		}
		if err := p.expectPunct(")"); err != nil {
			return algebra.Values{}, err
		}
	} else {
		tok := p.lexer.NextToken()
		if tok.Type != TokenVar {
			return algebra.Values{}, fmt.Errorf("expected variable in VALUES, got %s", tok)
		}
		vars = append(vars, algebra.Variable(tok.Value))
	}

	if err := p.expectPunct("{"); err != nil {
		return algebra.Values{}, err
	}
	var rows [][]algebra.Term
	for p.peekPunct() != "}" {
		var row []algebra.Term
		if multi {
			if err := p.expectPunct("("); err != nil {
				return algebra.Values{}, err
			}
			for p.peekPunct() != ")" {
				term, err := p.parseDataBlockValue()
				if err != nil {
					return algebra.Values{}, err
				}
				row = append(row, term)
			}
			p.lexer.NextToken() // ')'
		} else {
			term, err := p.parseDataBlockValue()
			if err != nil {
				return algebra.Values{}, err
			}
			row = append(row, term)
		}
		rows = append(rows, row)
	}
	p.lexer.NextToken() // '}'
	return algebra.Values{Vars: vars, Rows: rows}, nil
}

func (p *Parser) parseDataBlockValue() (algebra.Term, error) {
	if p.isKeyword("UNDEF") {
		p.lexer.NextToken()
		return nil, nil
	}
	return p.parseTerm()
}

// parseConstraint parses a FILTER's argument: either a parenthesized
// expression, a bracketed EXISTS/NOT EXISTS form, or a function call.
func (p *Parser) parseConstraint() (algebra.Expression, error) {
	return p.parseExpression()
}
