package forkchoice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestIsJustifiableAfter(t *testing.T) {
	justifiable := []uint64{0, 1, 2, 3, 4, 5, 6, 9, 12, 16, 20, 25, 30, 36, 42, 49, 56, 64, 72, 81, 90, 100}
	notJustifiable := []uint64{7, 8, 10, 11, 13, 14, 15, 17, 18, 19, 21, 24, 26, 29, 31, 35, 37, 41, 43, 99}

	for _, delta := range justifiable {
		ok, err := IsJustifiableAfter(10+delta, 10)
		require.NoError(t, err)
		assert.True(t, ok, "delta %d should be justifiable", delta)
	}
	for _, delta := range notJustifiable {
		ok, err := IsJustifiableAfter(10+delta, 10)
		require.NoError(t, err)
		assert.False(t, ok, "delta %d should not be justifiable", delta)
	}

	_, err := IsJustifiableAfter(3, 4)
	assert.Error(t, err)
}

func TestIsJustifiableAfter_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		finalized := rapid.Uint64Range(0, 1<<40).Draw(t, "finalized")
		k := rapid.Uint64Range(0, 1<<20).Draw(t, "k")

		// squares and pronic numbers are always justifiable
		ok, err := IsJustifiableAfter(finalized+k*k, finalized)
		require.NoError(t, err)
		require.True(t, ok)
		ok, err = IsJustifiableAfter(finalized+k*(k+1), finalized)
		require.NoError(t, err)
		require.True(t, ok)
	})
}

func TestIsqrt(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.Uint64Range(0, 1<<62).Draw(t, "n")
		root := isqrt(n)
		require.LessOrEqual(t, root*root, n)
		require.Greater(t, (root+1)*(root+1), n)
	})
}
