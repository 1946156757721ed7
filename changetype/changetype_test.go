package changetype

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJoin(t *testing.T) {
	cases := []struct {
		left, right, want ChangeType
	}{
		{NoChange, NoChange, NoChange},
		{Relaxed, NoChange, Relaxed},
		{NoChange, Relaxed, Relaxed},
		{Constrained, NoChange, Constrained},
		{Constrained, Constrained, Constrained},
		{Constrained, Relaxed, Relaxed},
	}
	for _, c := range cases {
		got, ok := Join(c.left, c.right)
		require.True(t, ok)
		require.Equal(t, c.want, got, "Join(%s, %s)", c.left, c.right)
	}
}

func TestUnion(t *testing.T) {
	cases := []struct {
		left, right, want ChangeType
	}{
		{NoChange, NoChange, NoChange},
		{Constrained, Constrained, Constrained},
		{NoChange, Constrained, Relaxed},
		{Relaxed, NoChange, Relaxed},
	}
	for _, c := range cases {
		got, ok := Union(c.left, c.right)
		require.True(t, ok)
		require.Equal(t, c.want, got, "Union(%s, %s)", c.left, c.right)
	}
}

func TestMinus(t *testing.T) {
	cases := []struct {
		left, right, want ChangeType
		ok                bool
	}{
		{NoChange, NoChange, NoChange, true},
		{NoChange, Relaxed, Constrained, true},
		{NoChange, Constrained, Relaxed, true},
		{Relaxed, NoChange, Relaxed, true},
		{Relaxed, Constrained, Relaxed, true},
		{Constrained, NoChange, Constrained, true},
		{Constrained, Relaxed, Constrained, true},
		{Constrained, Constrained, Relaxed, true},
	}
	for _, c := range cases {
		got, ok := Minus(c.left, c.right)
		require.Equal(t, c.ok, ok, "Minus(%s, %s)", c.left, c.right)
		if ok {
			require.Equal(t, c.want, got, "Minus(%s, %s)", c.left, c.right)
		}
	}

	// The one documented incompatible combination: a left-side Relaxed
	// against a right side whose dropped restriction (Relaxed) narrows
	// the MINUS, i.e. flips to an effectively Constrained right.
	_, ok := Minus(Relaxed, Relaxed)
	require.False(t, ok)
}

func TestWeakenIsStickyRelaxed(t *testing.T) {
	require.Equal(t, Relaxed, Weaken(NoChange))
	require.Equal(t, Relaxed, Weaken(Constrained))
	require.Equal(t, Relaxed, Weaken(Relaxed))
}

func TestStrengthenLeavesRelaxedAlone(t *testing.T) {
	require.Equal(t, Constrained, Strengthen(NoChange))
	require.Equal(t, Constrained, Strengthen(Constrained))
	require.Equal(t, Relaxed, Strengthen(Relaxed))
}

func TestAbandonf(t *testing.T) {
	err := Abandonf("MINUS under %s", "GROUP BY")
	require.EqualError(t, err, "rewrite abandoned: MINUS under GROUP BY")
}
