package sparqlparse

import (
	"fmt"

	"github.com/wbrown/hybridgraph/algebra"
)

// parseExpressionOrAggregate is used only for SELECT-list items, where an
// aggregate function call is permitted wherever a plain expression would
// be, per SPARQL's `(expr AS ?var)` select-item grammar.
func (p *Parser) parseExpressionOrAggregate() (any, bool, error) {
	if agg, ok := p.aggregateKeyword(); ok {
		a, err := p.parseAggregateCall(agg)
		return a, true, err
	}
	e, err := p.parseExpression()
	return e, false, err
}

func (p *Parser) aggregateKeyword() (string, bool) {
	tok := p.lexer.PeekToken()
	if tok.Type != TokenKeyword {
		return "", false
	}
	switch tok.Value {
	case "COUNT", "SUM", "AVG", "MIN", "MAX", "SAMPLE", "GROUP_CONCAT":
		return tok.Value, true
	default:
		return "", false
	}
}

func (p *Parser) parseAggregateCall(name string) (algebra.AggregateExpression, error) {
	p.lexer.NextToken()
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	distinct := false
	if p.isKeyword("DISTINCT") {
		p.lexer.NextToken()
		distinct = true
	}

	if name == "COUNT" && p.peekPunct() == "*" {
		p.lexer.NextToken()
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return algebra.CountAgg{Distinct: distinct, Expr: nil}, nil
	}

	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	var agg algebra.AggregateExpression
	switch name {
	case "COUNT":
		agg = algebra.CountAgg{Distinct: distinct, Expr: expr}
	case "SUM":
		agg = algebra.SumAgg{Distinct: distinct, Expr: expr}
	case "AVG":
		agg = algebra.AvgAgg{Distinct: distinct, Expr: expr}
	case "MIN":
		agg = algebra.MinAgg{Expr: expr}
	case "MAX":
		agg = algebra.MaxAgg{Expr: expr}
	case "SAMPLE":
		agg = algebra.SampleAgg{Expr: expr}
	case "GROUP_CONCAT":
		sep := ""
		if p.peekPunct() == ";" {
			p.lexer.NextToken()
			if !p.isKeyword("SEPARATOR") {
				return nil, fmt.Errorf("expected SEPARATOR, got %s", p.lexer.PeekToken())
			}
			p.lexer.NextToken()
			if err := p.expectPunct("="); err != nil {
				return nil, err
			}
			tok := p.lexer.NextToken()
			if tok.Type != TokenString {
				return nil, fmt.Errorf("expected string after SEPARATOR=, got %s", tok)
			}
			sep = tok.Value
		}
		agg = algebra.GroupConcatAgg{Distinct: distinct, Expr: expr, Separator: sep}
	default:
		return nil, fmt.Errorf("unrecognized aggregate %s", name)
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return agg, nil
}

// parseExpression parses a full ConditionalOrExpression.
func (p *Parser) parseExpression() (algebra.Expression, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (algebra.Expression, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peekPunct() == "||" {
		p.lexer.NextToken()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = algebra.ExprOr{Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (algebra.Expression, error) {
	left, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for p.peekPunct() == "&&" {
		p.lexer.NextToken()
		right, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		left = algebra.ExprAnd{Left: left, Right: right}
	}
	return left, nil
}

var comparisonOps = map[string]algebra.BinaryOp{
	"=": algebra.OpEQ, "!=": algebra.OpNE, "<": algebra.OpLT,
	"<=": algebra.OpLTE, ">": algebra.OpGT, ">=": algebra.OpGTE,
}

func (p *Parser) parseRelational() (algebra.Expression, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if p.isKeyword("IN") || (p.isKeyword("NOT") && p.peekKeywordAt(1) == "IN") {
		negate := false
		if p.isKeyword("NOT") {
			p.lexer.NextToken()
			negate = true
		}
		p.lexer.NextToken() // IN
		args, err := p.parseExpressionList()
		if err != nil {
			return nil, err
		}
		return algebra.ExprIn{Expr: left, List: args, Negated: negate}, nil
	}
	if op, ok := comparisonOps[p.peekPunct()]; ok {
		p.lexer.NextToken()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return algebra.ExprBinary{Op: op, Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *Parser) peekKeywordAt(n int) string {
	tok := p.lexer.peekAhead(n)
	if tok.Type == TokenKeyword {
		return tok.Value
	}
	return ""
}

func (p *Parser) parseExpressionList() ([]algebra.Expression, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var out []algebra.Expression
	for p.peekPunct() != ")" {
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
		if p.peekPunct() == "," {
			p.lexer.NextToken()
			continue
		}
		break
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Parser) parseAdditive() (algebra.Expression, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peekPunct() {
		case "+":
			p.lexer.NextToken()
			right, err := p.parseMultiplicative()
			if err != nil {
				return nil, err
			}
			left = algebra.ExprBinary{Op: algebra.OpAdd, Left: left, Right: right}
		case "-":
			p.lexer.NextToken()
			right, err := p.parseMultiplicative()
			if err != nil {
				return nil, err
			}
			left = algebra.ExprBinary{Op: algebra.OpSubtract, Left: left, Right: right}
		default:
			return left, nil
		}
	}
}

func (p *Parser) parseMultiplicative() (algebra.Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peekPunct() {
		case "*":
			p.lexer.NextToken()
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = algebra.ExprBinary{Op: algebra.OpMultiply, Left: left, Right: right}
		case "/":
			p.lexer.NextToken()
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = algebra.ExprBinary{Op: algebra.OpDivide, Left: left, Right: right}
		default:
			return left, nil
		}
	}
}

func (p *Parser) parseUnary() (algebra.Expression, error) {
	switch p.peekPunct() {
	case "!":
		p.lexer.NextToken()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return algebra.ExprNot{Inner: inner}, nil
	case "-":
		p.lexer.NextToken()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return algebra.ExprBinary{Op: algebra.OpSubtract, Left: algebra.ExprLiteral{Value: algebra.Literal{Lexical: "0", Datatype: algebra.XSDInteger.IRI}}, Right: inner}, nil
	case "+":
		p.lexer.NextToken()
		return p.parseUnary()
	default:
		return p.parsePrimary()
	}
}

func (p *Parser) parsePrimary() (algebra.Expression, error) {
	if p.peekPunct() == "(" {
		p.lexer.NextToken()
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return e, nil
	}

	if p.isKeyword("NOT") && p.peekKeywordAt(1) == "EXISTS" {
		p.lexer.NextToken()
		p.lexer.NextToken()
		inner, err := p.parseGroupGraphPattern()
		if err != nil {
			return nil, err
		}
		return algebra.ExprExists{Pattern: inner, Negated: true}, nil
	}
	if p.isKeyword("EXISTS") {
		p.lexer.NextToken()
		inner, err := p.parseGroupGraphPattern()
		if err != nil {
			return nil, err
		}
		return algebra.ExprExists{Pattern: inner}, nil
	}
	if p.isKeyword("BOUND") {
		p.lexer.NextToken()
		if err := p.expectPunct("("); err != nil {
			return nil, err
		}
		v := p.lexer.NextToken()
		if v.Type != TokenVar {
			return nil, fmt.Errorf("expected variable in BOUND(), got %s", v)
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return algebra.ExprBound{Name: algebra.Variable(v.Value)}, nil
	}
	if p.isKeyword("IF") {
		p.lexer.NextToken()
		if err := p.expectPunct("("); err != nil {
			return nil, err
		}
		cond, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(","); err != nil {
			return nil, err
		}
		then, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(","); err != nil {
			return nil, err
		}
		els, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return algebra.ExprIf{Cond: cond, Then: then, Else: els}, nil
	}
	if p.isKeyword("COALESCE") {
		p.lexer.NextToken()
		args, err := p.parseExpressionList()
		if err != nil {
			return nil, err
		}
		return algebra.ExprCoalesce{Args: args}, nil
	}

	tok := p.lexer.PeekToken()
	switch tok.Type {
	case TokenVar:
		p.lexer.NextToken()
		return algebra.ExprVar{Name: algebra.Variable(tok.Value)}, nil
	case TokenString, TokenNumber, TokenBlank:
		term, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		return algebra.ExprLiteral{Value: term}, nil
	case TokenKeyword:
		if tok.Value == "TRUE" || tok.Value == "FALSE" {
			term, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			return algebra.ExprLiteral{Value: term}, nil
		}
	case TokenIRI, TokenPrefixedName:
		n, err := p.parseIRITerm()
		if err != nil {
			return nil, err
		}
		if p.peekPunct() == "(" {
			args, err := p.parseExpressionList()
			if err != nil {
				return nil, err
			}
			return algebra.ExprFunctionCall{Name: n.IRI, Args: args}, nil
		}
		return algebra.ExprLiteral{Value: n}, nil
	}
	return nil, fmt.Errorf("unexpected token in expression: %s", tok)
}
