package orchestrator

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/stretchr/testify/require"

	"github.com/wbrown/hybridgraph/algebra"
	"github.com/wbrown/hybridgraph/frame"
	"github.com/wbrown/hybridgraph/hqerr"
	"github.com/wbrown/hybridgraph/tsquery"
)

func TestCompleteIdentifiersDedupesAndSkipsNulls(t *testing.T) {
	idVar := algebra.Variable("ts_external_id_0")
	rec, err := frame.Build([]frame.Column{
		{
			Name:    idVar.String(),
			Kind:    arrow.STRING,
			Strings: []string{"sensor/1", "sensor/1", "sensor/2", ""},
			Valid:   []bool{true, true, true, false},
		},
	})
	require.NoError(t, err)
	defer frame.Release(rec)

	basic := &tsquery.Basic{IdentifierVar: &idVar}
	err = completeIdentifiers([]*tsquery.Basic{basic}, rec)
	require.NoError(t, err)
	require.Equal(t, []string{"sensor/1", "sensor/2"}, basic.IDs)
}

func TestCompleteIdentifiersSkipsBasicsWithNoIdentifierVar(t *testing.T) {
	rec, err := frame.Build(nil)
	require.NoError(t, err)
	defer frame.Release(rec)

	basic := &tsquery.Basic{}
	err = completeIdentifiers([]*tsquery.Basic{basic}, rec)
	require.NoError(t, err)
	require.Nil(t, basic.IDs)
}

func TestCompleteIdentifiersRejectsNonStringColumn(t *testing.T) {
	idVar := algebra.Variable("ts_external_id_0")
	rec, err := frame.Build([]frame.Column{
		{Name: idVar.String(), Kind: arrow.FLOAT64, Floats: []float64{1.0}},
	})
	require.NoError(t, err)
	defer frame.Release(rec)

	basic := &tsquery.Basic{IdentifierVar: &idVar}
	err = completeIdentifiers([]*tsquery.Basic{basic}, rec)
	require.Error(t, err)
	var typeErr *hqerr.ErrUnsupportedIDDatatype
	require.ErrorAs(t, err, &typeErr)
}
