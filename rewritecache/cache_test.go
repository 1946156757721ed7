package rewritecache

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/wbrown/hybridgraph/algebra"
	"github.com/wbrown/hybridgraph/pushdown"
	"github.com/wbrown/hybridgraph/qctx"
	"github.com/wbrown/hybridgraph/tsquery"
)

func samplePlan() Plan {
	bgp := algebra.BGP{
		Triples: []algebra.TriplePattern{
			{
				Subject:   algebra.Var{Name: "s"},
				Predicate: algebra.NamedNode{IRI: "http://example.org/hasTimeseries"},
				Object:    algebra.Var{Name: "ts"},
			},
		},
	}
	idVar := algebra.Variable("ts_external_id_0")
	basic := &tsquery.Basic{
		IdentifierVar: &idVar,
		IdentifierCtx: qctx.Root().Push(qctx.Entry{Kind: qctx.BgpTriple}),
	}
	return Plan{
		Original: bgp,
		Static:   algebra.Query{Pattern: bgp},
		Basics:   []*tsquery.Basic{basic},
	}
}

func TestCacheRoundTrip(t *testing.T) {
	dir, err := os.MkdirTemp("", "rewritecache-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	cache, err := Open(dir, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer cache.Close()

	settings := pushdown.Default()
	plan := samplePlan()

	_, ok := cache.Get("SELECT * WHERE { ?s ?p ?o }", settings)
	require.False(t, ok)

	cache.Put("SELECT * WHERE { ?s ?p ?o }", settings, plan)

	got, ok := cache.Get("SELECT * WHERE { ?s ?p ?o }", settings)
	require.True(t, ok)
	require.Equal(t, plan.Original, got.Original)
	require.Equal(t, plan.Static, got.Static)
	require.Len(t, got.Basics, 1)
	require.Nil(t, got.Basics[0].IDs)
	require.Equal(t, *plan.Basics[0].IdentifierVar, *got.Basics[0].IdentifierVar)
}

func TestCacheMissUnderDifferentSettings(t *testing.T) {
	dir, err := os.MkdirTemp("", "rewritecache-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	cache, err := Open(dir, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer cache.Close()

	plan := samplePlan()
	cache.Put("Q", pushdown.Default(), plan)

	_, ok := cache.Get("Q", pushdown.Default().WithGroupBy(false))
	require.False(t, ok)
}

func TestCloneBasicsResetsIDs(t *testing.T) {
	idVar := algebra.Variable("x")
	original := []*tsquery.Basic{{IdentifierVar: &idVar, IDs: []string{"a", "b"}}}
	cloned := cloneBasics(original)

	require.Len(t, cloned, 1)
	require.Nil(t, cloned[0].IDs)
	require.NotSame(t, original[0], cloned[0])
	require.Equal(t, []string{"a", "b"}, original[0].IDs)
}
