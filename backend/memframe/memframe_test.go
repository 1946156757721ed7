package memframe

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wbrown/hybridgraph/algebra"
	"github.com/wbrown/hybridgraph/frame"
	"github.com/wbrown/hybridgraph/tsquery"
)

func TestExecuteBasicFiltersByID(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	be := New([]Point{
		{ID: "sensor/1", Timestamp: t0, Value: 1.0},
		{ID: "sensor/2", Timestamp: t0, Value: 2.0},
		{ID: "sensor/1", Timestamp: t0.Add(time.Minute), Value: 1.5},
	})

	idVar := algebra.Variable("id")
	valVar := algebra.Variable("v")
	basic := &tsquery.Basic{IdentifierVar: &idVar, ValueVar: &valVar, IDs: []string{"sensor/1"}}

	rec, err := be.Execute(context.Background(), basic)
	require.NoError(t, err)
	defer frame.Release(rec)

	require.Equal(t, int64(2), rec.NumRows())
	idIdx := frame.ColumnIndex(rec, idVar.String())
	for row := 0; row < int(rec.NumRows()); row++ {
		s, ok := frame.StringValue(rec, idIdx, row)
		require.True(t, ok)
		require.Equal(t, "sensor/1", s)
	}
}

func TestExecuteBasicNoIDsReturnsEverything(t *testing.T) {
	be := New([]Point{
		{ID: "a", Timestamp: time.Now(), Value: 1},
		{ID: "b", Timestamp: time.Now(), Value: 2},
	})
	idVar := algebra.Variable("id")
	basic := &tsquery.Basic{IdentifierVar: &idVar}

	rec, err := be.Execute(context.Background(), basic)
	require.NoError(t, err)
	defer frame.Release(rec)
	require.Equal(t, int64(2), rec.NumRows())
}

func TestExecuteFilteredAppliesThreshold(t *testing.T) {
	be := New([]Point{
		{ID: "a", Timestamp: time.Now(), Value: 5},
		{ID: "a", Timestamp: time.Now(), Value: 15},
	})
	idVar := algebra.Variable("id")
	valVar := algebra.Variable("v")
	basic := &tsquery.Basic{IdentifierVar: &idVar, ValueVar: &valVar}
	filtered := &tsquery.Filtered{
		Inner: basic,
		Expr: algebra.ExprBinary{
			Op:    algebra.OpGT,
			Left:  algebra.ExprVar{Name: valVar},
			Right: algebra.ExprLiteral{Value: algebra.Literal{Lexical: "10", Datatype: algebra.XSDDouble.IRI}},
		},
	}

	rec, err := be.Execute(context.Background(), filtered)
	require.NoError(t, err)
	defer frame.Release(rec)
	require.Equal(t, int64(1), rec.NumRows())
}

func TestExecuteUnrecognizedQueryType(t *testing.T) {
	be := New(nil)
	_, err := be.Execute(context.Background(), nil)
	require.Error(t, err)
}
