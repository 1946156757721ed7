package rewrite

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wbrown/hybridgraph/algebra"
	"github.com/wbrown/hybridgraph/changetype"
	"github.com/wbrown/hybridgraph/constraint"
	"github.com/wbrown/hybridgraph/qctx"
)

func staticBGP(s algebra.Variable, pred string, o algebra.Variable) algebra.BGP {
	return algebra.BGP{Triples: []algebra.TriplePattern{
		{Subject: algebra.Var{Name: s}, Predicate: algebra.NamedNode{IRI: pred}, Object: algebra.Var{Name: o}},
	}}
}

func TestRewriteMinusPropagatesRelaxedLeftThroughUnconstrainedRight(t *testing.T) {
	cm := constraint.New()
	require.NoError(t, cm.Insert("v", qctx.Root(), constraint.ExternalDataValue))

	r := NewRewriter(cm)
	n := algebra.Minus{
		Left:  staticBGP("s", "http://example.org/hasValue2", "v"),
		Right: staticBGP("s", "http://example.org/other", "o"),
	}

	ret, err := r.rewriteMinus(qctx.Root(), n)
	require.NoError(t, err)
	require.Equal(t, changetype.Relaxed, ret.Change)
}

func TestRewriteMinusNarrowsOnRelaxedRight(t *testing.T) {
	cm := constraint.New()
	require.NoError(t, cm.Insert("v", qctx.Root(), constraint.ExternalDataValue))

	r := NewRewriter(cm)
	n := algebra.Minus{
		Left:  staticBGP("s", "http://example.org/other", "o"),
		Right: staticBGP("s", "http://example.org/hasValue2", "v"),
	}

	// Left is NoChange; a Relaxed right flips to an effectively
	// Constrained contribution, narrowing the overall result.
	ret, err := r.rewriteMinus(qctx.Root(), n)
	require.NoError(t, err)
	require.Equal(t, changetype.Constrained, ret.Change)
}

func TestRewriteMinusAbandonsRelaxedLeftAgainstRelaxedRight(t *testing.T) {
	cm := constraint.New()
	require.NoError(t, cm.Insert("v", qctx.Root(), constraint.ExternalDataValue))
	require.NoError(t, cm.Insert("w", qctx.Root(), constraint.ExternalDataValue))

	r := NewRewriter(cm)
	n := algebra.Minus{
		Left:  staticBGP("s", "http://example.org/hasValue2", "v"),
		Right: staticBGP("s", "http://example.org/hasValue3", "w"),
	}

	_, err := r.rewriteMinus(qctx.Root(), n)
	require.Error(t, err)
}

func TestRewriteUnionPropagatesComponentwise(t *testing.T) {
	cm := constraint.New()
	require.NoError(t, cm.Insert("v", qctx.Root(), constraint.ExternalDataValue))

	r := NewRewriter(cm)
	n := algebra.Union{
		Left:  staticBGP("s", "http://example.org/other", "o"),
		Right: staticBGP("s", "http://example.org/hasValue2", "v"),
	}

	ret, err := r.rewriteUnion(qctx.Root(), n)
	require.NoError(t, err)
	require.Equal(t, changetype.Relaxed, ret.Change)

	union, ok := ret.Pattern.(algebra.Union)
	require.True(t, ok)
	require.NotNil(t, union.Left)
	require.NotNil(t, union.Right)
}

func TestRewriteUnionBothStaticIsNoChange(t *testing.T) {
	r := NewRewriter(constraint.New())
	n := algebra.Union{
		Left:  staticBGP("s", "http://example.org/p", "o"),
		Right: staticBGP("s", "http://example.org/q", "p"),
	}

	ret, err := r.rewriteUnion(qctx.Root(), n)
	require.NoError(t, err)
	require.Equal(t, changetype.NoChange, ret.Change)
}
