package constraint

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wbrown/hybridgraph/algebra"
	"github.com/wbrown/hybridgraph/qctx"
)

func TestInsertAndLookup(t *testing.T) {
	m := New()
	ctx := qctx.Root().Push(qctx.Entry{Kind: qctx.BgpTriple})
	require.NoError(t, m.Insert("ts", ctx, ExternalTimeseries))

	kind, ok := m.Lookup("ts", ctx)
	require.True(t, ok)
	require.Equal(t, ExternalTimeseries, kind)
}

func TestInsertSameKindTwiceIsNotAConflict(t *testing.T) {
	m := New()
	ctx := qctx.Root()
	require.NoError(t, m.Insert("ts", ctx, ExternalTimeseries))
	require.NoError(t, m.Insert("ts", ctx, ExternalTimeseries))
}

func TestInsertConflictingKindAtSameContext(t *testing.T) {
	m := New()
	ctx := qctx.Root()
	require.NoError(t, m.Insert("v", ctx, ExternalDataValue))
	err := m.Insert("v", ctx, ExternalTimestamp)
	require.Error(t, err)
	var conflict ErrConflict
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, algebra.Variable("v"), conflict.Var)
}

func TestLookupPrefersMoreSpecificContext(t *testing.T) {
	m := New()
	root := qctx.Root()
	inner := root.Push(qctx.Entry{Kind: qctx.UnionLeftSide})

	require.NoError(t, m.Insert("x", root, ExternalDataValue))
	require.NoError(t, m.Insert("x", inner, ExternalTimestamp))

	kind, ok := m.Lookup("x", inner)
	require.True(t, ok)
	require.Equal(t, ExternalTimestamp, kind)

	kind, ok = m.Lookup("x", root)
	require.True(t, ok)
	require.Equal(t, ExternalDataValue, kind)
}

func TestLookupNoConstraintVisible(t *testing.T) {
	m := New()
	_, ok := m.Lookup("unbound", qctx.Root())
	require.False(t, ok)
}

func TestMergeDetectsConflict(t *testing.T) {
	a := New()
	b := New()
	ctx := qctx.Root()
	require.NoError(t, a.Insert("v", ctx, ExternalDataValue))
	require.NoError(t, b.Insert("v", ctx, ExternalTimestamp))

	err := a.Merge(b)
	require.Error(t, err)
}

func TestIsExternal(t *testing.T) {
	m := New()
	ctx := qctx.Root()
	require.False(t, m.IsExternal("x", ctx))
	require.NoError(t, m.Insert("x", ctx, ExternallyDerived))
	require.True(t, m.IsExternal("x", ctx))
}
