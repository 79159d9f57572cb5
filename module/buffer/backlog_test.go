package buffer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ReamLabs/ream-sub002/model/lean"
	"github.com/ReamLabs/ream-sub002/utils/unittest"
)

func TestBacklog_AddRelease(t *testing.T) {
	validators := unittest.ValidatorsFixture(t, 4)
	genesis := unittest.GenesisFixture()
	chain := validators.ChainFixture(t, genesis, 3)
	vote := validators.VoteFixture(t, 1, chain[2].Checkpoint(), chain[1].Checkpoint(), genesis.Checkpoint())

	backlog, err := NewBacklog(10)
	require.NoError(t, err)

	now := time.Now()
	added, evicted := backlog.Add(lean.NewBlockItem("", chain[2]), chain[1].Root(), now.Add(time.Second))
	require.True(t, added)
	require.Empty(t, evicted)
	added, _ = backlog.Add(lean.NewVoteItem("", vote), chain[1].Root(), now)
	require.True(t, added)
	added, _ = backlog.Add(lean.NewBlockItem("", chain[1]), chain[0].Root(), now)
	require.True(t, added)

	// duplicates are not held twice
	added, _ = backlog.Add(lean.NewBlockItem("", chain[2]), chain[1].Root(), now)
	assert.False(t, added)
	assert.Equal(t, uint(3), backlog.Size())
	assert.True(t, backlog.Waiting(chain[1].Root()))
	assert.True(t, backlog.Has(vote.ID()))

	released := backlog.Release(chain[0].Root())
	require.Len(t, released, 1)
	assert.Equal(t, chain[1].Root(), released[0].Key())

	// oldest first
	released = backlog.Release(chain[1].Root())
	require.Len(t, released, 2)
	assert.Equal(t, vote.ID(), released[0].Key())
	assert.Equal(t, chain[2].Root(), released[1].Key())

	assert.Equal(t, uint(0), backlog.Size())
	assert.False(t, backlog.Waiting(chain[1].Root()))
	assert.Nil(t, backlog.Release(unittest.RootFixture()))
}

func TestBacklog_EvictsOldest(t *testing.T) {
	validators := unittest.ValidatorsFixture(t, 2)
	chain := validators.ChainFixture(t, unittest.GenesisFixture(), 4)

	backlog, err := NewBacklog(3)
	require.NoError(t, err)

	now := time.Now()
	for _, block := range chain[:3] {
		added, evicted := backlog.Add(lean.NewBlockItem("", block), block.Block.ParentRoot, now)
		require.True(t, added)
		require.Empty(t, evicted)
	}

	added, evicted := backlog.Add(lean.NewBlockItem("", chain[3]), chain[3].Block.ParentRoot, now)
	require.True(t, added)
	require.Len(t, evicted, 1)
	assert.Equal(t, chain[0].Root(), evicted[0].Item.Key())
	assert.Equal(t, chain[0].Block.ParentRoot, evicted[0].Missing)

	assert.Equal(t, uint(3), backlog.Size())
	assert.False(t, backlog.Has(chain[0].Root()))
	assert.False(t, backlog.Waiting(chain[0].Block.ParentRoot))
}

func TestBacklog_Expired(t *testing.T) {
	validators := unittest.ValidatorsFixture(t, 2)
	chain := validators.ChainFixture(t, unittest.GenesisFixture(), 2)

	backlog, err := NewBacklog(10)
	require.NoError(t, err)

	start := time.Now()
	backlog.Add(lean.NewBlockItem("", chain[0]), chain[0].Block.ParentRoot, start)
	backlog.Add(lean.NewBlockItem("", chain[1]), chain[1].Block.ParentRoot, start.Add(5*time.Second))

	assert.Empty(t, backlog.Expired(start.Add(time.Second), 10*time.Second))

	expired := backlog.Expired(start.Add(12*time.Second), 10*time.Second)
	require.Len(t, expired, 1)
	assert.Equal(t, chain[0].Root(), expired[0].Item.Key())
	assert.True(t, expired[0].Escalated)

	// escalated items are reported once and stay held
	expired = backlog.Expired(start.Add(20*time.Second), 10*time.Second)
	require.Len(t, expired, 1)
	assert.Equal(t, chain[1].Root(), expired[0].Item.Key())
	assert.Equal(t, uint(2), backlog.Size())
}

func TestNewBacklog_InvalidCapacity(t *testing.T) {
	_, err := NewBacklog(0)
	require.Error(t, err)
}
