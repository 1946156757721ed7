package sparqlparse

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wbrown/hybridgraph/algebra"
)

func TestParseQuerySimpleSelect(t *testing.T) {
	gp, err := ParseQuery(`
		PREFIX hg: <https://github.com/wbrown/hybridgraph#>
		SELECT ?sensor ?ts WHERE {
			?sensor hg:hasTimeseries ?ts .
		}
	`)
	require.NoError(t, err)

	proj, ok := gp.(algebra.Project)
	require.True(t, ok, "top-level pattern should be a Project")
	require.ElementsMatch(t, []algebra.Variable{"sensor", "ts"}, proj.Vars)

	bgp, ok := proj.Inner.(algebra.BGP)
	require.True(t, ok)
	require.Len(t, bgp.Triples, 1)
	require.Equal(t, algebra.HasTimeseries, bgp.Triples[0].Predicate)
}

func TestParseQueryFilterAndOptional(t *testing.T) {
	gp, err := ParseQuery(`
		PREFIX hg: <https://github.com/wbrown/hybridgraph#>
		SELECT ?sensor ?value WHERE {
			?sensor hg:hasTimeseries ?ts .
			OPTIONAL { ?ts hg:hasValue ?value . FILTER(?value > 10) }
		}
	`)
	require.NoError(t, err)
	_, ok := gp.(algebra.Project)
	require.True(t, ok)
}

func TestParseQueryRejectsGarbage(t *testing.T) {
	_, err := ParseQuery(`SELECT ?x WHERE { ?x`)
	require.Error(t, err)
}

func TestParseQueryGroupByAggregate(t *testing.T) {
	gp, err := ParseQuery(`
		SELECT ?s (SUM(?v) AS ?total) WHERE {
			?s <http://example.org/value> ?v .
		} GROUP BY ?s
	`)
	require.NoError(t, err)

	proj, ok := gp.(algebra.Project)
	require.True(t, ok)
	require.ElementsMatch(t, []algebra.Variable{"s", "total"}, proj.Vars)

	group, ok := proj.Inner.(algebra.Group)
	require.True(t, ok, "Project's inner pattern should be a Group")
	require.Equal(t, []algebra.Variable{"s"}, group.By)
	require.Len(t, group.Aggregates, 1)
	require.Equal(t, algebra.Variable("total"), group.Aggregates[0].Var)
	sum, ok := group.Aggregates[0].Agg.(algebra.SumAgg)
	require.True(t, ok)
	require.Equal(t, algebra.ExprVar{Name: "v"}, sum.Expr)
}

func TestParseQueryCountStarNoGroupBy(t *testing.T) {
	gp, err := ParseQuery(`SELECT (COUNT(*) AS ?n) WHERE { ?s <http://example.org/p> ?o . }`)
	require.NoError(t, err)

	proj, ok := gp.(algebra.Project)
	require.True(t, ok)

	group, ok := proj.Inner.(algebra.Group)
	require.True(t, ok, "an aggregate binding forces a Group node even without GROUP BY")
	require.Empty(t, group.By)
	require.Len(t, group.Aggregates, 1)
	count, ok := group.Aggregates[0].Agg.(algebra.CountAgg)
	require.True(t, ok)
	require.Nil(t, count.Expr)
}

func TestParseQueryInExpression(t *testing.T) {
	gp, err := ParseQuery(`
		SELECT ?status WHERE {
			?x <http://example.org/status> ?status .
			FILTER(?status IN ("ok", "warn"))
		}
	`)
	require.NoError(t, err)
	require.NotNil(t, gp)
}
