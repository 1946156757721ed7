package qctx

import (
	"bytes"
	"encoding/gob"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContextGobRoundTrip(t *testing.T) {
	ctx := Root().
		Push(Entry{Kind: JoinLeftSide}).
		Push(Entry{Kind: BgpTriple, Index: 2}).
		Push(Entry{Kind: FilterExpr})

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(ctx))

	var decoded Context
	require.NoError(t, gob.NewDecoder(&buf).Decode(&decoded))

	require.True(t, ctx.Equal(decoded))
	require.Equal(t, ctx.Entries(), decoded.Entries())
	require.Equal(t, ctx.Depth(), decoded.Depth())
}

func TestContextGobRoundTripRoot(t *testing.T) {
	ctx := Root()

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(ctx))

	var decoded Context
	require.NoError(t, gob.NewDecoder(&buf).Decode(&decoded))

	require.True(t, ctx.Equal(decoded))
	require.Equal(t, 0, decoded.Depth())
}
