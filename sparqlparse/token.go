package sparqlparse

import "fmt"

// TokenType identifies the lexical category of a Token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIRI           // <http://...>
	TokenPrefixedName  // prefix:local or :local
	TokenVar           // ?x or $x
	TokenString        // "..." or '...', unescaped
	TokenNumber        // integer, decimal, or double literal
	TokenKeyword       // case-insensitive reserved word, stored upper-cased
	TokenPunct         // (, ), {, }, ., ,, ;, and operator punctuation
	TokenBlank         // _:label
)

// Token is one lexical unit of a SPARQL-like query string.
type Token struct {
	Type  TokenType
	Value string
	Line  int
	Col   int
}

func (t Token) String() string {
	switch t.Type {
	case TokenEOF:
		return fmt.Sprintf("EOF[%d:%d]", t.Line, t.Col)
	default:
		return fmt.Sprintf("%d[%d:%d]:%q", t.Type, t.Line, t.Col, t.Value)
	}
}

var keywords = map[string]bool{
	"SELECT": true, "WHERE": true, "PREFIX": true, "FILTER": true,
	"OPTIONAL": true, "UNION": true, "MINUS": true, "GRAPH": true,
	"GROUP": true, "BY": true, "ORDER": true, "LIMIT": true, "OFFSET": true,
	"BIND": true, "AS": true, "VALUES": true, "DISTINCT": true, "REDUCED": true,
	"ASC": true, "DESC": true, "EXISTS": true, "NOT": true, "SERVICE": true,
	"SILENT": true, "UNDEF": true,
	"COUNT": true, "SUM": true, "AVG": true, "MIN": true, "MAX": true,
	"SAMPLE": true, "GROUP_CONCAT": true, "SEPARATOR": true,
	"BOUND": true, "IF": true, "COALESCE": true, "IN": true,
	"TRUE": true, "FALSE": true, "A": true,
	"DATASET": true, "FROM": true, "BASE": true, "NAMED": true,
}
