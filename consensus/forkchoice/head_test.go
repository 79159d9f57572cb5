package forkchoice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ReamLabs/ream-sub002/model/lean"
)

// genesis(0) -> a(1) -> b(2) -> c(3)
//
//	\-> d(2) -> e(3)
func forkedTree() *testTree {
	tree := newTestTree(r(0))
	tree.add(r(0xa), 1, r(0))
	tree.add(r(0xb), 2, r(0xa))
	tree.add(r(0xc), 3, r(0xb))
	tree.add(r(0xd), 2, r(0xa))
	tree.add(r(0xe), 3, r(0xd))
	return tree
}

func TestHead_NoVotesFollowsLowestRoot(t *testing.T) {
	tree := forkedTree()
	head := Head(tree, r(0), nil, unitWeight, 0)
	// b < d at equal (zero) weight
	assert.Equal(t, r(0xc), head)
}

func TestHead_HeaviestBranch(t *testing.T) {
	tree := forkedTree()
	latest := map[uint64]*lean.Vote{
		0: vote(0, 3, tree.checkpoint(r(0xe)), tree.checkpoint(r(0xe)), tree.checkpoint(r(0))),
		1: vote(1, 3, tree.checkpoint(r(0xe)), tree.checkpoint(r(0xe)), tree.checkpoint(r(0))),
		2: vote(2, 3, tree.checkpoint(r(0xc)), tree.checkpoint(r(0xc)), tree.checkpoint(r(0))),
	}
	assert.Equal(t, r(0xe), Head(tree, r(0), latest, unitWeight, 0))

	// validator 2 carries more weight than the other two together
	heavy := func(index uint64) uint64 {
		if index == 2 {
			return 5
		}
		return 1
	}
	assert.Equal(t, r(0xc), Head(tree, r(0), latest, heavy, 0))
}

func TestHead_TieBrokenByLowestRoot(t *testing.T) {
	tree := forkedTree()
	latest := map[uint64]*lean.Vote{
		0: vote(0, 3, tree.checkpoint(r(0xe)), tree.checkpoint(r(0xe)), tree.checkpoint(r(0))),
		1: vote(1, 3, tree.checkpoint(r(0xc)), tree.checkpoint(r(0xc)), tree.checkpoint(r(0))),
	}
	assert.Equal(t, r(0xc), Head(tree, r(0), latest, unitWeight, 0))
}

// Votes for blocks at or below the start slot do not contribute.
func TestWeights_BoundedByStartSlot(t *testing.T) {
	tree := forkedTree()
	latest := map[uint64]*lean.Vote{
		0: vote(0, 3, tree.checkpoint(r(0xc)), tree.checkpoint(r(0xc)), tree.checkpoint(r(0))),
		1: vote(1, 1, tree.checkpoint(r(0xa)), tree.checkpoint(r(0xa)), tree.checkpoint(r(0))),
		2: vote(2, 9, lean.NewCheckpoint(r(0x77), 9), lean.NewCheckpoint(r(0x77), 9), tree.checkpoint(r(0))),
	}
	weights := Weights(tree, 1, latest, unitWeight)
	assert.Equal(t, map[lean.Root]uint64{r(0xc): 1, r(0xb): 1}, weights)
}

func TestHead_StartsFromJustified(t *testing.T) {
	tree := forkedTree()
	latest := map[uint64]*lean.Vote{
		0: vote(0, 3, tree.checkpoint(r(0xc)), tree.checkpoint(r(0xc)), tree.checkpoint(r(0))),
		1: vote(1, 3, tree.checkpoint(r(0xc)), tree.checkpoint(r(0xc)), tree.checkpoint(r(0))),
	}
	// starting below the heavy branch never leaves the d subtree
	assert.Equal(t, r(0xe), Head(tree, r(0xd), latest, unitWeight, 0))
}

func TestHead_MinScore(t *testing.T) {
	tree := forkedTree()
	latest := map[uint64]*lean.Vote{
		0: vote(0, 3, tree.checkpoint(r(0xc)), tree.checkpoint(r(0xc)), tree.checkpoint(r(0))),
		1: vote(1, 2, tree.checkpoint(r(0xb)), tree.checkpoint(r(0xb)), tree.checkpoint(r(0))),
		2: vote(2, 1, tree.checkpoint(r(0xa)), tree.checkpoint(r(0xa)), tree.checkpoint(r(0))),
	}
	// a:3 b:2 c:1, so a min score of 2 stops at b
	assert.Equal(t, r(0xb), Head(tree, r(0), latest, unitWeight, 2))
	assert.Equal(t, r(0), Head(tree, r(0), latest, unitWeight, 4))
}

func TestLatestVotes(t *testing.T) {
	tree := forkedTree()
	source := tree.checkpoint(r(0))
	older := &lean.SignedVote{Vote: *vote(0, 1, tree.checkpoint(r(0xa)), tree.checkpoint(r(0xa)), source)}
	newer := &lean.SignedVote{Vote: *vote(0, 3, tree.checkpoint(r(0xe)), tree.checkpoint(r(0xe)), source)}
	conflicting := &lean.SignedVote{Vote: *vote(0, 3, tree.checkpoint(r(0xc)), tree.checkpoint(r(0xc)), source)}
	other := &lean.SignedVote{Vote: *vote(1, 2, tree.checkpoint(r(0xb)), tree.checkpoint(r(0xb)), source)}

	for _, order := range [][]*lean.SignedVote{
		{older, newer, conflicting, other},
		{conflicting, other, newer, older},
	} {
		latest := LatestVotes(order)
		require.Len(t, latest, 2)
		// equivocation at slot 3 resolves to the lowest head root
		assert.Equal(t, r(0xc), latest[0].Head.Root)
		assert.Equal(t, r(0xb), latest[1].Head.Root)
	}
}

func TestIsAncestor(t *testing.T) {
	tree := forkedTree()
	assert.True(t, IsAncestor(tree, r(0), r(0xe)))
	assert.True(t, IsAncestor(tree, r(0xa), r(0xc)))
	assert.True(t, IsAncestor(tree, r(0xc), r(0xc)))
	assert.False(t, IsAncestor(tree, r(0xb), r(0xe)))
	assert.False(t, IsAncestor(tree, r(0x99), r(0xe)))
}
