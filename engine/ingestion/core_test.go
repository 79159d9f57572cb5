package ingestion

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/ReamLabs/ream-sub002/model/lean"
	"github.com/ReamLabs/ream-sub002/module/irrecoverable"
	"github.com/ReamLabs/ream-sub002/module/metrics"
	mockmodule "github.com/ReamLabs/ream-sub002/module/mock"
	"github.com/ReamLabs/ream-sub002/state"
	"github.com/ReamLabs/ream-sub002/state/chain"
	mockstate "github.com/ReamLabs/ream-sub002/state/mock"
	"github.com/ReamLabs/ream-sub002/storage/store"
	"github.com/ReamLabs/ream-sub002/utils/unittest"
)

// chainState bootstraps an in-memory chain state at the fixture genesis.
func chainState(t testing.TB, validators *unittest.Validators) *chain.State {
	db := unittest.InMemoryStorageDB(t)
	collector := metrics.NewNoopCollector()
	blocks := store.NewBlocks(collector, db)
	require.NoError(t, chain.Bootstrap(db, blocks, unittest.GenesisFixture()))

	s, err := chain.Open(unittest.Logger(), collector, lean.Devnet2Params(), validators.Set, db, blocks)
	require.NoError(t, err)
	return s
}

func newCore(t testing.TB, st state.MutableState, gaps *mockmodule.GapConsumer, opts ...OptionFunc) *Core {
	config := DefaultConfig()
	for _, apply := range opts {
		apply(&config)
	}
	finalization := mockmodule.NewFinalizationConsumer(t)
	finalization.On("OnFinalized", mock.Anything).Maybe()

	core, err := NewCore(unittest.Logger(), metrics.NewNoopCollector(), st, gaps, finalization, config)
	require.NoError(t, err)
	return core
}

func blockItems(blocks []*lean.SignedBlock) []lean.QueueItem {
	items := make([]lean.QueueItem, 0, len(blocks))
	for _, b := range blocks {
		items = append(items, lean.NewBlockItem("", b))
	}
	return items
}

func TestCore_LinearChainInOrder(t *testing.T) {
	validators := unittest.ValidatorsFixture(t, 4)
	st := chainState(t, validators)
	core := newCore(t, st, mockmodule.NewGapConsumer(t))

	blocks := validators.ChainFixture(t, unittest.GenesisFixture(), 5)
	for _, item := range blockItems(blocks) {
		require.NoError(t, core.Process(context.Background(), item))
	}

	assert.Equal(t, blocks[4].Checkpoint(), st.Head())
	assert.Equal(t, uint(0), core.backlog.Size())
}

// Any arrival order of a chain and its votes ends in the same chain state
// with nothing left in the backlog.
func TestCore_CausalOrderUnderPermutation(t *testing.T) {
	validators := unittest.ValidatorsFixture(t, 4)
	genesis := unittest.GenesisFixture()
	blocks := validators.ChainFixture(t, genesis, 5)
	tip := blocks[4].Checkpoint()

	items := blockItems(blocks)
	for i := uint64(0); i < 3; i++ {
		vote := validators.VoteFixture(t, i, tip, blocks[3].Checkpoint(), genesis.Checkpoint())
		items = append(items, lean.NewVoteItem("", vote))
	}

	rapid.Check(t, func(rt *rapid.T) {
		order := rapid.Permutation(items).Draw(rt, "order")

		st := chainState(t, validators)
		core := newCore(t, st, mockmodule.NewGapConsumer(t))
		for _, item := range order {
			require.NoError(t, core.Process(context.Background(), item))
		}

		for _, b := range blocks {
			require.True(t, st.HasBlock(b.Root()))
		}
		require.Equal(t, tip, st.Head())
		require.Equal(t, uint(0), core.backlog.Size())
		// 3 of 4 validators voted blocks[3] with a justified source
		require.Equal(t, blocks[3].Checkpoint(), st.Justified())
	})
}

func TestCore_VoteWaitsForHead(t *testing.T) {
	validators := unittest.ValidatorsFixture(t, 4)
	genesis := unittest.GenesisFixture()
	st := chainState(t, validators)
	core := newCore(t, st, mockmodule.NewGapConsumer(t))

	blocks := validators.ChainFixture(t, genesis, 2)
	vote := validators.VoteFixture(t, 0, blocks[1].Checkpoint(), blocks[0].Checkpoint(), genesis.Checkpoint())

	require.NoError(t, core.Process(context.Background(), lean.NewBlockItem("", blocks[0])))
	require.NoError(t, core.Process(context.Background(), lean.NewVoteItem("", vote)))
	// target is known, the head is not
	assert.True(t, core.backlog.Has(vote.ID()))
	assert.True(t, core.backlog.Waiting(blocks[1].Root()))

	require.NoError(t, core.Process(context.Background(), lean.NewBlockItem("", blocks[1])))
	assert.False(t, core.backlog.Has(vote.ID()))
	assert.Equal(t, blocks[1].Checkpoint(), st.Head())

	// the vote was applied, applying it again is benign
	require.NoError(t, core.Process(context.Background(), lean.NewVoteItem("", vote)))
}

func TestCore_EvictionReportsGap(t *testing.T) {
	validators := unittest.ValidatorsFixture(t, 4)
	genesis := unittest.GenesisFixture()
	st := chainState(t, validators)
	gaps := mockmodule.NewGapConsumer(t)
	core := newCore(t, st, gaps, WithBacklogCapacity(2))

	// orphans on three distinct unknown parents
	orphans := make([]*lean.SignedBlock, 0, 3)
	for i := 0; i < 3; i++ {
		parent := validators.BlockWithParent(t, genesis, lean.Slot(i+1))
		orphans = append(orphans, validators.BlockWithParent(t, parent, lean.Slot(i+5)))
	}

	gaps.On("HandleGap", orphans[0]).Once()
	for _, item := range blockItems(orphans) {
		require.NoError(t, core.Process(context.Background(), item))
	}
	assert.False(t, core.backlog.Has(orphans[0].Root()))
	assert.Equal(t, uint(2), core.backlog.Size())
}

func TestCore_VoteEvictionReportsPressure(t *testing.T) {
	validators := unittest.ValidatorsFixture(t, 4)
	genesis := unittest.GenesisFixture()
	st := chainState(t, validators)
	gaps := mockmodule.NewGapConsumer(t)
	core := newCore(t, st, gaps, WithBacklogCapacity(1))

	head, target := unittest.CheckpointFixture(3), unittest.CheckpointFixture(2)
	first := validators.VoteFixture(t, 0, head, target, genesis.Checkpoint())
	second := validators.VoteFixture(t, 1, head, unittest.CheckpointFixture(2), genesis.Checkpoint())

	// the evicted vote reports the block it was waiting for
	gaps.On("HandleBacklogPressure", []lean.Root{target.Root}).Once()
	require.NoError(t, core.Process(context.Background(), lean.NewVoteItem("", first)))
	require.NoError(t, core.Process(context.Background(), lean.NewVoteItem("", second)))
	assert.True(t, core.backlog.Has(second.ID()))
}

func TestCore_ScanBacklogEscalatesOldestMissing(t *testing.T) {
	validators := unittest.ValidatorsFixture(t, 4)
	genesis := unittest.GenesisFixture()
	st := chainState(t, validators)
	gaps := mockmodule.NewGapConsumer(t)
	core := newCore(t, st, gaps, WithMaxHoldDuration(10*time.Second))

	now := time.Now()
	core.now = func() time.Time { return now }

	// blocks[0] never arrives, blocks[2] waits on the held blocks[1]
	blocks := validators.ChainFixture(t, genesis, 3)
	require.NoError(t, core.Process(context.Background(), lean.NewBlockItem("", blocks[1])))
	require.NoError(t, core.Process(context.Background(), lean.NewBlockItem("", blocks[2])))

	core.ScanBacklog()

	now = now.Add(11 * time.Second)
	gaps.On("HandleGap", blocks[1]).Once()
	core.ScanBacklog()

	// reported once only
	core.ScanBacklog()
	assert.Equal(t, uint(2), core.backlog.Size())

	require.NoError(t, core.Process(context.Background(), lean.NewBlockItem("", blocks[0])))
	assert.Equal(t, blocks[2].Checkpoint(), st.Head())
	assert.Equal(t, uint(0), core.backlog.Size())
}

func TestCore_ApplyErrors(t *testing.T) {
	validators := unittest.ValidatorsFixture(t, 4)
	genesis := unittest.GenesisFixture()
	block := validators.BlockWithParent(t, genesis, 1)
	vote := validators.VoteFixture(t, 0, block.Checkpoint(), block.Checkpoint(), genesis.Checkpoint())

	setup := func(t *testing.T) *mockstate.MutableState {
		st := mockstate.NewMutableState(t)
		st.On("Finalized").Return(genesis.Checkpoint())
		st.On("HasBlock", mock.Anything).Return(true)
		return st
	}

	t.Run("invalid block is dropped", func(t *testing.T) {
		st := setup(t)
		st.On("ApplyBlock", mock.Anything, block).Return(state.NewInvalidBlockErrorf(block.Root(), "slot not above parent"))
		core := newCore(t, st, mockmodule.NewGapConsumer(t))
		require.NoError(t, core.Process(context.Background(), lean.NewBlockItem("", block)))
	})
	t.Run("already known is benign", func(t *testing.T) {
		st := setup(t)
		st.On("ApplyBlock", mock.Anything, block).Return(fmt.Errorf("wrapped: %w", state.ErrAlreadyKnown))
		core := newCore(t, st, mockmodule.NewGapConsumer(t))
		require.NoError(t, core.Process(context.Background(), lean.NewBlockItem("", block)))
	})
	t.Run("checkpoint regression is an exception", func(t *testing.T) {
		st := setup(t)
		st.On("ApplyVote", mock.Anything, vote).Return(fmt.Errorf("justified: %w", state.ErrCheckpointRegression))
		core := newCore(t, st, mockmodule.NewGapConsumer(t))
		err := core.Process(context.Background(), lean.NewVoteItem("", vote))
		require.ErrorIs(t, err, state.ErrCheckpointRegression)
	})
	t.Run("unexpected block error is an exception", func(t *testing.T) {
		st := setup(t)
		exception := irrecoverable.NewExceptionf("corrupted")
		st.On("ApplyBlock", mock.Anything, block).Return(exception)
		core := newCore(t, st, mockmodule.NewGapConsumer(t))
		err := core.Process(context.Background(), lean.NewBlockItem("", block))
		require.ErrorIs(t, err, exception)
	})
	t.Run("unknown parent holds the block", func(t *testing.T) {
		st := setup(t)
		st.On("ApplyBlock", mock.Anything, block).Return(fmt.Errorf("wrapped: %w", state.ErrUnknownParent))
		core := newCore(t, st, mockmodule.NewGapConsumer(t))
		require.NoError(t, core.Process(context.Background(), lean.NewBlockItem("", block)))
		assert.True(t, core.backlog.Has(block.Root()))
		assert.True(t, core.backlog.Waiting(genesis.Root()))
	})
	t.Run("unknown target holds the vote", func(t *testing.T) {
		st := setup(t)
		st.On("ApplyVote", mock.Anything, vote).Return(fmt.Errorf("wrapped: %w", state.ErrUnknownTarget))
		core := newCore(t, st, mockmodule.NewGapConsumer(t))
		require.NoError(t, core.Process(context.Background(), lean.NewVoteItem("", vote)))
		assert.True(t, core.backlog.Has(vote.ID()))
		assert.True(t, core.backlog.Waiting(block.Root()))
	})
	t.Run("held block is escalated when not released", func(t *testing.T) {
		st := setup(t)
		st.On("ApplyBlock", mock.Anything, block).Return(state.ErrUnknownParent)
		gaps := mockmodule.NewGapConsumer(t)
		gaps.On("HandleGap", block).Once()
		core := newCore(t, st, gaps, WithMaxHoldDuration(time.Second))
		now := time.Now()
		core.now = func() time.Time { return now }
		require.NoError(t, core.Process(context.Background(), lean.NewBlockItem("", block)))

		now = now.Add(2 * time.Second)
		core.ScanBacklog()
	})
	t.Run("errors during shutdown are swallowed", func(t *testing.T) {
		st := setup(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		st.On("ApplyBlock", mock.Anything, block).Return(context.Canceled)
		core := newCore(t, st, mockmodule.NewGapConsumer(t))
		require.NoError(t, core.Process(ctx, lean.NewBlockItem("", block)))
	})
}

func TestCore_NotifiesFinalization(t *testing.T) {
	validators := unittest.ValidatorsFixture(t, 4)
	genesis := unittest.GenesisFixture()
	block := validators.BlockWithParent(t, genesis, 1)
	finalized := block.Checkpoint()

	st := mockstate.NewMutableState(t)
	st.On("Finalized").Return(genesis.Checkpoint()).Once()
	st.On("HasBlock", genesis.Root()).Return(true)
	st.On("ApplyBlock", mock.Anything, block).Return(nil)
	st.On("Finalized").Return(finalized)

	finalization := mockmodule.NewFinalizationConsumer(t)
	finalization.On("OnFinalized", finalized).Once()

	core, err := NewCore(unittest.Logger(), metrics.NewNoopCollector(), st, mockmodule.NewGapConsumer(t), finalization, DefaultConfig())
	require.NoError(t, err)

	require.NoError(t, core.Process(context.Background(), lean.NewBlockItem("", block)))
	// unchanged finalized checkpoint is not reported twice
	require.NoError(t, core.Process(context.Background(), lean.NewBlockItem("", block)))
}
