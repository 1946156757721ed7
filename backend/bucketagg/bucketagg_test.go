package bucketagg

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wbrown/hybridgraph/algebra"
	"github.com/wbrown/hybridgraph/frame"
	"github.com/wbrown/hybridgraph/tsquery"
)

func TestExecuteGroupedBucketsByIntervalAndSum(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	be := New([]Point{
		{ID: "a", Timestamp: base, Value: 1},
		{ID: "a", Timestamp: base.Add(30 * time.Second), Value: 2},
		{ID: "a", Timestamp: base.Add(time.Minute), Value: 5},
	}, time.Minute)

	idVar := algebra.Variable("id")
	tsVar := algebra.Variable("bucket")
	outVar := algebra.Variable("total")
	basic := &tsquery.Basic{IdentifierVar: &idVar, TimestampVar: &tsVar}
	grouped := &tsquery.Grouped{
		Inner:      basic,
		By:         []algebra.Variable{tsVar},
		Aggregates: []tsquery.AggregateSpec{{OutputVar: outVar, Type: tsquery.AggSum, InputVar: algebra.Variable("value")}},
	}

	rec, err := be.Execute(context.Background(), grouped)
	require.NoError(t, err)
	defer frame.Release(rec)
	require.Equal(t, int64(2), rec.NumRows())
}

func TestExecuteBasicReturnsAllColumns(t *testing.T) {
	be := New([]Point{{ID: "x", Timestamp: time.Now(), Value: 3.0}}, time.Minute)
	idVar := algebra.Variable("id")
	valVar := algebra.Variable("v")
	basic := &tsquery.Basic{IdentifierVar: &idVar, ValueVar: &valVar}

	rec, err := be.Execute(context.Background(), basic)
	require.NoError(t, err)
	defer frame.Release(rec)
	require.Equal(t, int64(1), rec.NumRows())
	require.True(t, frame.HasColumn(rec, idVar.String()))
	require.True(t, frame.HasColumn(rec, valVar.String()))
}

func TestExecuteFilteredUnsupported(t *testing.T) {
	be := New(nil, time.Minute)
	_, err := be.Execute(context.Background(), &tsquery.Filtered{})
	require.Error(t, err)
}

func TestExecuteGroupedRequiresBasicInner(t *testing.T) {
	be := New(nil, time.Minute)
	grouped := &tsquery.Grouped{Inner: &tsquery.Filtered{}}
	_, err := be.Execute(context.Background(), grouped)
	require.Error(t, err)
}
