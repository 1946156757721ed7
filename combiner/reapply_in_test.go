package combiner

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wbrown/hybridgraph/algebra"
)

func TestApplyFilterExprIn(t *testing.T) {
	expr := algebra.ExprIn{
		Expr: algebra.ExprVar{Name: "status"},
		List: []algebra.Expression{
			algebra.ExprLiteral{Value: algebra.Literal{Lexical: "ok"}},
			algebra.ExprLiteral{Value: algebra.Literal{Lexical: "warn"}},
		},
	}

	rows := []tuple{
		{"?status": "ok"},
		{"?status": "error"},
		{"?status": "warn"},
	}

	out := applyFilter(expr, rows)
	require.Len(t, out, 2)
	require.Equal(t, "ok", out[0]["?status"])
	require.Equal(t, "warn", out[1]["?status"])
}

func TestReapplyUnionFiltersOnlyItsOwnBranch(t *testing.T) {
	// { ?s <p> ?v } UNION { ?s <q> ?w FILTER(?w > 10) }
	// The right branch's FILTER got dropped during rewrite; reapply must
	// re-check it against only the rows that branch produced, not the
	// left branch's rows (which never bind ?w at all).
	original := algebra.Union{
		Left: algebra.BGP{},
		Right: algebra.Filter{
			Expr: algebra.ExprBinary{
				Op:    algebra.OpGT,
				Left:  algebra.ExprVar{Name: "w"},
				Right: algebra.ExprLiteral{Value: algebra.Literal{Lexical: "10", Datatype: algebra.XSDInteger.IRI}},
			},
			Inner: algebra.BGP{},
		},
	}

	acc := []tuple{
		{"?s": "a"},             // left branch row, no ?w bound at all
		{"?s": "b", "?w": int64(20)}, // right branch row, passes filter
		{"?s": "c", "?w": int64(5)},  // right branch row, fails filter
	}

	out := reapply(original, acc)
	require.Len(t, out, 2)

	byS := map[string]tuple{}
	for _, t := range out {
		byS[t["?s"].(string)] = t
	}
	_, leftSurvived := byS["a"]
	require.True(t, leftSurvived, "left branch row must pass through untouched")
	_, keptPassing := byS["b"]
	require.True(t, keptPassing, "right branch row satisfying the filter must survive")
	_, keptFailing := byS["c"]
	require.False(t, keptFailing, "right branch row failing the filter must be dropped")
}

func TestReapplyLeftJoinAppliesExprOnlyToMatchedRows(t *testing.T) {
	// ?s <p> ?v OPTIONAL { ?s <q> ?w FILTER(?w > 10) }
	original := algebra.LeftJoin{
		Left: algebra.BGP{},
		Right: algebra.Filter{
			Expr: algebra.ExprBinary{
				Op:    algebra.OpGT,
				Left:  algebra.ExprVar{Name: "w"},
				Right: algebra.ExprLiteral{Value: algebra.Literal{Lexical: "10", Datatype: algebra.XSDInteger.IRI}},
			},
			Inner: algebra.BGP{},
		},
		Expr: algebra.ExprBinary{
			Op:    algebra.OpGT,
			Left:  algebra.ExprVar{Name: "w"},
			Right: algebra.ExprLiteral{Value: algebra.Literal{Lexical: "10", Datatype: algebra.XSDInteger.IRI}},
		},
	}

	acc := []tuple{
		{"?s": "a"},             // unmatched optional, no ?w
		{"?s": "b", "?w": int64(20)}, // matched, satisfies join expr
		{"?s": "c", "?w": int64(5)},  // matched, fails join expr
	}

	out := reapply(original, acc)
	require.Len(t, out, 2)
	byS := map[string]tuple{}
	for _, t := range out {
		byS[t["?s"].(string)] = t
	}
	_, unmatchedSurvived := byS["a"]
	require.True(t, unmatchedSurvived)
	_, matchedSurvived := byS["b"]
	require.True(t, matchedSurvived)
	_, failedSurvived := byS["c"]
	require.False(t, failedSurvived)
}

func TestApplyFilterExprNotIn(t *testing.T) {
	expr := algebra.ExprIn{
		Expr:    algebra.ExprVar{Name: "status"},
		List:    []algebra.Expression{algebra.ExprLiteral{Value: algebra.Literal{Lexical: "ok"}}},
		Negated: true,
	}

	rows := []tuple{
		{"?status": "ok"},
		{"?status": "error"},
	}

	out := applyFilter(expr, rows)
	require.Len(t, out, 1)
	require.Equal(t, "error", out[0]["?status"])
}
