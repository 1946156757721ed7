package orchestrator

import (
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/stretchr/testify/require"

	"github.com/wbrown/hybridgraph/algebra"
	"github.com/wbrown/hybridgraph/frame"
	"github.com/wbrown/hybridgraph/staticsparql"
)

func TestSolutionsToRecordMixedTypes(t *testing.T) {
	idVar := algebra.Variable("id")
	valVar := algebra.Variable("threshold")

	solutions := []staticsparql.Solution{
		{
			idVar:  algebra.NamedNode{IRI: "http://example.org/sensor/1"},
			valVar: algebra.Literal{Lexical: "3.5", Datatype: algebra.XSDDouble.IRI},
		},
		{
			idVar: algebra.NamedNode{IRI: "http://example.org/sensor/2"},
			// threshold unbound in this row
		},
	}

	rec, err := solutionsToRecord([]algebra.Variable{idVar, valVar}, solutions)
	require.NoError(t, err)
	defer frame.Release(rec)

	require.Equal(t, int64(2), rec.NumRows())
	idIdx := frame.ColumnIndex(rec, idVar.String())
	valIdx := frame.ColumnIndex(rec, valVar.String())
	require.GreaterOrEqual(t, idIdx, 0)
	require.GreaterOrEqual(t, valIdx, 0)

	s0, ok := frame.StringValue(rec, idIdx, 0)
	require.True(t, ok)
	require.Equal(t, "http://example.org/sensor/1", s0)

	f0, ok := frame.Float64Value(rec, valIdx, 0)
	require.True(t, ok)
	require.Equal(t, 3.5, f0)

	_, ok = frame.Float64Value(rec, valIdx, 1)
	require.False(t, ok, "unbound threshold should read back as null")
}

func TestKindOfDatatypes(t *testing.T) {
	cases := []struct {
		lit  algebra.Literal
		want arrow.Type
	}{
		{algebra.Literal{Lexical: "1", Datatype: algebra.XSDInteger.IRI}, arrow.INT64},
		{algebra.Literal{Lexical: "1.0", Datatype: algebra.XSDDouble.IRI}, arrow.FLOAT64},
		{algebra.Literal{Lexical: "true", Datatype: algebra.XSDBoolean.IRI}, arrow.BOOL},
		{algebra.Literal{Lexical: "2024-01-01T00:00:00Z", Datatype: algebra.XSDDateTime.IRI}, arrow.TIMESTAMP},
		{algebra.Literal{Lexical: "hi"}, arrow.STRING},
	}
	for _, c := range cases {
		require.Equal(t, c.want, kindOf(c.lit))
	}
	require.Equal(t, arrow.STRING, kindOf(algebra.NamedNode{IRI: "x"}))
}

func TestTermValueDateTime(t *testing.T) {
	v, err := termValue(algebra.Literal{
		Lexical:  "2024-06-01T12:00:00Z",
		Datatype: algebra.XSDDateTime.IRI,
	})
	require.NoError(t, err)
	tm, ok := v.(time.Time)
	require.True(t, ok)
	require.Equal(t, 2024, tm.Year())
}
