package chainsync

import (
	"context"
	"testing"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ReamLabs/ream-sub002/model/lean"
	"github.com/ReamLabs/ream-sub002/module"
	"github.com/ReamLabs/ream-sub002/module/metrics"
	mockmodule "github.com/ReamLabs/ream-sub002/module/mock"
	"github.com/ReamLabs/ream-sub002/state/chain"
	"github.com/ReamLabs/ream-sub002/storage/store"
	"github.com/ReamLabs/ream-sub002/utils/unittest"
)

type coreFixture struct {
	validators *unittest.Validators
	genesis    *lean.SignedBlock
	state      *chain.State
	pending    *store.PendingBlocks
	core       *Core
	now        time.Time
}

// newCoreFixture returns a sync core over a chain state that only knows genesis.
func newCoreFixture(t *testing.T, opts ...OptionFunc) *coreFixture {
	validators := unittest.ValidatorsFixture(t, 4)
	genesis := unittest.GenesisFixture()
	db := unittest.InMemoryStorageDB(t)
	collector := metrics.NewNoopCollector()

	blocks := store.NewBlocks(collector, db)
	require.NoError(t, chain.Bootstrap(db, blocks, genesis))
	st, err := chain.Open(unittest.Logger(), collector, lean.Devnet2Params(), validators.Set, db, blocks)
	require.NoError(t, err)
	pending := store.NewPendingBlocks(collector, db)

	f := &coreFixture{
		validators: validators,
		genesis:    genesis,
		state:      st,
		pending:    pending,
		core:       New(unittest.Logger(), collector, st, pending, lean.Devnet2Params(), opts...),
		now:        time.Now(),
	}
	f.core.now = func() time.Time { return f.now }
	return f
}

func peerAt(id peer.ID, head lean.Checkpoint) module.PeerInfo {
	return module.PeerInfo{
		ID:        id,
		Score:     100,
		Status:    &lean.Status{Head: head},
		Available: true,
	}
}

// request assigns the pending job to the only given peer and returns its request.
func (f *coreFixture) request(t *testing.T, info module.PeerInfo) Request {
	f.core.Assign([]module.PeerInfo{info})
	requests := f.core.NextRequests()
	require.Len(t, requests, 1)
	require.Equal(t, info.ID, requests[0].Peer)
	return requests[0]
}

func TestCore_GapFetchesAncestryAndForwards(t *testing.T) {
	f := newCoreFixture(t)
	blocks := f.validators.ChainFixture(t, f.genesis, 6)
	gap := blocks[5]
	p := unittest.PeerIDFixture(t)

	require.NoError(t, f.core.HandleGap(gap))
	assert.Equal(t, []lean.PendingJobRequest{
		lean.NewInitialRequest(gap.Root(), gap.Block.Slot, blocks[4].Root()),
	}, f.core.PendingRequests())
	staged, err := f.pending.Has(gap.Root())
	require.NoError(t, err)
	assert.True(t, staged)
	assert.Equal(t, 1, f.core.QueueCount())

	f.core.Assign([]module.PeerInfo{peerAt(p, gap.Checkpoint())})
	assert.Empty(t, f.core.PendingRequests())
	state, job := f.core.PeerState(p)
	assert.Equal(t, PeerInitial, state)
	assert.Equal(t, blocks[4].Root(), job.Root)
	assert.Equal(t, gap.Root(), job.Anchor)

	requests := f.core.NextRequests()
	assert.Equal(t, []Request{{ID: 1, Peer: p, Root: blocks[4].Root(), Slot: gap.Block.Slot, Count: 64}}, requests)
	state, _ = f.core.PeerState(p)
	assert.Equal(t, PeerAwaiting, state)

	// a partial range continues below its tail
	require.NoError(t, f.core.HandleResponse(p, requests[0].ID, []*lean.SignedBlock{blocks[4], blocks[3], blocks[2]}))
	state, _ = f.core.PeerState(p)
	assert.Equal(t, PeerIdle, state)
	assert.Equal(t, []lean.PendingJobRequest{
		lean.NewInitialRequest(blocks[2].Root(), blocks[2].Block.Slot, blocks[1].Root()),
	}, f.core.PendingRequests())
	_, ok := f.core.ReadyQueue()
	assert.False(t, ok)

	req := f.request(t, peerAt(p, gap.Checkpoint()))
	assert.Equal(t, blocks[1].Root(), req.Root)
	assert.Equal(t, uint64(2), req.ID)
	require.NoError(t, f.core.HandleResponse(p, req.ID, []*lean.SignedBlock{blocks[1], blocks[0]}))

	start, ok := f.core.ReadyQueue()
	require.True(t, ok)
	assert.Equal(t, gap.Checkpoint(), start)

	var submitted []lean.Root
	queue := mockmodule.NewIngestionQueue(t)
	queue.On("SubmitWait", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			submitted = append(submitted, args.Get(1).(*lean.BlockItem).Block.Root())
		}).
		Return(nil)

	result, err := NewForwardSyncer(unittest.Logger(), f.state, f.pending, queue).Run(context.Background(), start)
	require.NoError(t, err)
	assert.Equal(t, Completed{Start: start, Blocks: 6}, result)

	// parent before child
	expected := make([]lean.Root, 0, len(blocks))
	for _, b := range blocks {
		expected = append(expected, b.Root())
	}
	assert.Equal(t, expected, submitted)
	count, err := f.pending.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	f.core.HandleForwardResult(result)
	assert.Equal(t, 0, f.core.QueueCount())
}

// A gap block whose parent is already applied needs no fetch.
func TestCore_GapWithKnownParentIsReady(t *testing.T) {
	f := newCoreFixture(t)
	block := f.validators.BlockWithParent(t, f.genesis, 1)

	require.NoError(t, f.core.HandleGap(block))
	assert.Empty(t, f.core.PendingRequests())
	start, ok := f.core.ReadyQueue()
	require.True(t, ok)
	assert.Equal(t, block.Checkpoint(), start)

	f.core.Assign([]module.PeerInfo{peerAt(unittest.PeerIDFixture(t), block.Checkpoint())})
	assert.Empty(t, f.core.NextRequests())
}

func TestCore_NoEligiblePeerKeepsRequestPending(t *testing.T) {
	f := newCoreFixture(t)
	blocks := f.validators.ChainFixture(t, f.genesis, 3)
	gap := blocks[2]
	require.NoError(t, f.core.HandleGap(gap))

	peers := unittest.PeerIDListFixture(t, 3)
	behind := peerAt(peers[0], blocks[1].Checkpoint())
	unavailable := peerAt(peers[1], gap.Checkpoint())
	unavailable.Available = false
	silent := module.PeerInfo{ID: peers[2], Score: 100, Available: true}

	f.core.Assign([]module.PeerInfo{behind, unavailable, silent})
	assert.Len(t, f.core.PendingRequests(), 1)
	assert.Empty(t, f.core.NextRequests())
	for _, p := range peers {
		state, _ := f.core.PeerState(p)
		assert.Equal(t, PeerIdle, state)
	}
}

func TestCore_ResetOnTimeoutWithAlternatePeer(t *testing.T) {
	f := newCoreFixture(t, WithRequestTimeout(5*time.Second))
	blocks := f.validators.ChainFixture(t, f.genesis, 3)
	gap := blocks[2]
	peers := unittest.PeerIDListFixture(t, 2)
	first, second := peerAt(peers[0], gap.Checkpoint()), peerAt(peers[1], gap.Checkpoint())

	require.NoError(t, f.core.HandleGap(gap))
	stale := f.request(t, first)

	f.now = f.now.Add(4 * time.Second)
	assert.Empty(t, f.core.ScanTimeouts())

	f.now = f.now.Add(2 * time.Second)
	assert.Equal(t, []peer.ID{first.ID}, f.core.ScanTimeouts())
	state, _ := f.core.PeerState(first.ID)
	assert.Equal(t, PeerReset, state)
	assert.Equal(t, []lean.PendingJobRequest{lean.NewResetRequest(first.ID)}, f.core.PendingRequests())

	// the peer that failed the job is not picked while another one is eligible
	f.core.Assign([]module.PeerInfo{first, second})
	state, _ = f.core.PeerState(first.ID)
	assert.Equal(t, PeerIdle, state)
	state, job := f.core.PeerState(second.ID)
	assert.Equal(t, PeerInitial, state)
	assert.Equal(t, blocks[1].Root(), job.Root)
	assert.True(t, job.Failed(first.ID))

	requests := f.core.NextRequests()
	require.Len(t, requests, 1)
	assert.Equal(t, second.ID, requests[0].Peer)
	assert.Equal(t, blocks[1].Root(), requests[0].Root)

	// a late answer of the reset peer is not accepted
	err := f.core.HandleResponse(first.ID, stale.ID, []*lean.SignedBlock{blocks[1], blocks[0]})
	assert.ErrorIs(t, err, ErrUnknownJob)
}

// A request that timed out and was handed back to the same peer ignores the
// late failure of the earlier request.
func TestCore_StaleFailureAfterRerequest(t *testing.T) {
	f := newCoreFixture(t, WithRequestTimeout(5*time.Second))
	blocks := f.validators.ChainFixture(t, f.genesis, 2)
	info := peerAt(unittest.PeerIDFixture(t), blocks[1].Checkpoint())

	require.NoError(t, f.core.HandleGap(blocks[1]))
	stale := f.request(t, info)

	f.now = f.now.Add(6 * time.Second)
	assert.Equal(t, []peer.ID{info.ID}, f.core.ScanTimeouts())
	current := f.request(t, info)
	assert.NotEqual(t, stale.ID, current.ID)

	assert.ErrorIs(t, f.core.HandleFailure(info.ID, stale.ID), ErrUnknownJob)
	assert.ErrorIs(t, f.core.HandleResponse(info.ID, stale.ID, []*lean.SignedBlock{blocks[0]}), ErrUnknownJob)
	state, job := f.core.PeerState(info.ID)
	assert.Equal(t, PeerAwaiting, state)
	assert.Equal(t, uint(2), job.Attempts)
	assert.Empty(t, f.core.PendingRequests())

	// the current request is still answered
	require.NoError(t, f.core.HandleResponse(info.ID, current.ID, []*lean.SignedBlock{blocks[0]}))
	_, ok := f.core.ReadyQueue()
	assert.True(t, ok)
}

func TestCore_FailedPeerIsLastResort(t *testing.T) {
	f := newCoreFixture(t)
	blocks := f.validators.ChainFixture(t, f.genesis, 2)
	info := peerAt(unittest.PeerIDFixture(t), blocks[1].Checkpoint())

	require.NoError(t, f.core.HandleGap(blocks[1]))
	failed := f.request(t, info)
	require.NoError(t, f.core.HandleFailure(info.ID, failed.ID))

	req := f.request(t, info)
	assert.Equal(t, blocks[0].Root(), req.Root)
	_, job := f.core.PeerState(info.ID)
	assert.Equal(t, uint(2), job.Attempts)
}

func TestCore_StallsAfterMaxAttempts(t *testing.T) {
	f := newCoreFixture(t, WithMaxAttempts(2), WithStallRetryInterval(time.Minute))
	blocks := f.validators.ChainFixture(t, f.genesis, 2)
	info := peerAt(unittest.PeerIDFixture(t), blocks[1].Checkpoint())

	require.NoError(t, f.core.HandleGap(blocks[1]))
	req := f.request(t, info)
	require.NoError(t, f.core.HandleFailure(info.ID, req.ID))
	req = f.request(t, info)
	require.NoError(t, f.core.HandleFailure(info.ID, req.ID))

	state, _ := f.core.PeerState(info.ID)
	assert.Equal(t, PeerIdle, state)
	assert.Empty(t, f.core.PendingRequests())
	f.core.Assign([]module.PeerInfo{info})
	assert.Empty(t, f.core.NextRequests())
	assert.Equal(t, 1, f.core.QueueCount())

	f.now = f.now.Add(time.Minute)
	f.core.ScanTimeouts()
	req = f.request(t, info)
	assert.Equal(t, blocks[0].Root(), req.Root)
}

func TestCore_MalformedResponses(t *testing.T) {
	cases := map[string]func(blocks []*lean.SignedBlock) []*lean.SignedBlock{
		"empty": func([]*lean.SignedBlock) []*lean.SignedBlock {
			return nil
		},
		"wrong start": func(blocks []*lean.SignedBlock) []*lean.SignedBlock {
			return []*lean.SignedBlock{blocks[1], blocks[0]}
		},
		"not contiguous": func(blocks []*lean.SignedBlock) []*lean.SignedBlock {
			return []*lean.SignedBlock{blocks[2], blocks[0]}
		},
		"too long": func(blocks []*lean.SignedBlock) []*lean.SignedBlock {
			return []*lean.SignedBlock{blocks[2], blocks[1], blocks[0]}
		},
	}

	for name, response := range cases {
		t.Run(name, func(t *testing.T) {
			f := newCoreFixture(t, WithRangeSize(2))
			blocks := f.validators.ChainFixture(t, f.genesis, 4)
			info := peerAt(unittest.PeerIDFixture(t), blocks[3].Checkpoint())

			require.NoError(t, f.core.HandleGap(blocks[3]))
			req := f.request(t, info)

			err := f.core.HandleResponse(info.ID, req.ID, response(blocks))
			require.Error(t, err)
			assert.True(t, IsMalformedResponseError(err))
			state, _ := f.core.PeerState(info.ID)
			assert.Equal(t, PeerReset, state)

			count, err := f.pending.Count()
			require.NoError(t, err)
			assert.Equal(t, 1, count, "only the gap block is staged")
		})
	}
}

func TestCore_UnknownJob(t *testing.T) {
	f := newCoreFixture(t)
	p := unittest.PeerIDFixture(t)

	assert.ErrorIs(t, f.core.HandleResponse(p, 1, nil), ErrUnknownJob)
	assert.ErrorIs(t, f.core.HandleFailure(p, 1), ErrUnknownJob)
	f.core.HandlePeerDisconnected(p)
}

func TestCore_DisconnectResetsJob(t *testing.T) {
	f := newCoreFixture(t)
	blocks := f.validators.ChainFixture(t, f.genesis, 2)
	info := peerAt(unittest.PeerIDFixture(t), blocks[1].Checkpoint())

	require.NoError(t, f.core.HandleGap(blocks[1]))
	f.request(t, info)

	f.core.HandlePeerDisconnected(info.ID)
	state, _ := f.core.PeerState(info.ID)
	assert.Equal(t, PeerReset, state)
	assert.Equal(t, []lean.PendingJobRequest{lean.NewResetRequest(info.ID)}, f.core.PendingRequests())

	// no peer left, the job goes back to the pool and the peer is released
	f.core.Assign(nil)
	assert.Empty(t, f.core.PendingRequests())
	state, _ = f.core.PeerState(info.ID)
	assert.Equal(t, PeerIdle, state)

	other := peerAt(unittest.PeerIDFixture(t), blocks[1].Checkpoint())
	req := f.request(t, other)
	assert.Equal(t, blocks[0].Root(), req.Root)
}

func TestCore_DisconnectWhileResetReleasesPeer(t *testing.T) {
	f := newCoreFixture(t)
	blocks := f.validators.ChainFixture(t, f.genesis, 2)
	info := peerAt(unittest.PeerIDFixture(t), blocks[1].Checkpoint())

	require.NoError(t, f.core.HandleGap(blocks[1]))
	req := f.request(t, info)
	require.NoError(t, f.core.HandleFailure(info.ID, req.ID))

	f.core.HandlePeerDisconnected(info.ID)
	state, _ := f.core.PeerState(info.ID)
	assert.Equal(t, PeerIdle, state)

	// the stale reset request is dropped and the job is unassigned
	other := peerAt(unittest.PeerIDFixture(t), blocks[1].Checkpoint())
	next := f.request(t, other)
	assert.Equal(t, blocks[0].Root(), next.Root)
	assert.Empty(t, f.core.PendingRequests())
}

func TestCore_UpdateStatus(t *testing.T) {
	f := newCoreFixture(t)
	peers := unittest.PeerIDListFixture(t, 4)
	common := unittest.CheckpointFixture(10)
	higher := unittest.CheckpointFixture(12)

	infos := []module.PeerInfo{
		peerAt(peers[0], common),
		peerAt(peers[1], common),
		peerAt(peers[2], higher),
		{ID: peers[3], Available: true},
	}
	assert.Equal(t, Syncing, f.core.UpdateStatus(10, infos))
	assert.Equal(t, Syncing, f.core.Status())
	assert.Equal(t, 1, f.core.QueueCount())

	// the common head is covered by the open queue
	assert.Equal(t, Syncing, f.core.UpdateStatus(11, infos))
	assert.Equal(t, 1, f.core.QueueCount())

	f.core.Assign(infos)
	requests := f.core.NextRequests()
	require.Len(t, requests, 1)
	assert.Equal(t, common.Root, requests[0].Root)

	// peers within two slots of the local head
	near := []module.PeerInfo{peerAt(peers[0], unittest.CheckpointFixture(2))}
	assert.Equal(t, Synced, f.core.UpdateStatus(12, near))
	assert.Equal(t, 1, f.core.QueueCount(), "open queues survive the switch")

	assert.Equal(t, Synced, f.core.UpdateStatus(12, nil))
}

func TestCommonHighestCheckpoint(t *testing.T) {
	peers := unittest.PeerIDListFixture(t, 3)

	_, ok := CommonHighestCheckpoint(nil)
	assert.False(t, ok)

	low, high := unittest.CheckpointFixture(5), unittest.CheckpointFixture(6)
	cp, ok := CommonHighestCheckpoint([]module.PeerInfo{peerAt(peers[0], low), peerAt(peers[1], high)})
	require.True(t, ok)
	assert.Equal(t, high, cp)

	cp, _ = CommonHighestCheckpoint([]module.PeerInfo{peerAt(peers[0], low), peerAt(peers[1], high), peerAt(peers[2], low)})
	assert.Equal(t, low, cp)

	a, b := unittest.CheckpointFixture(7), unittest.CheckpointFixture(7)
	lower := a
	if b.Root.Less(a.Root) {
		lower = b
	}
	cp, _ = CommonHighestCheckpoint([]module.PeerInfo{peerAt(peers[0], a), peerAt(peers[1], b)})
	assert.Equal(t, lower, cp)
}

func TestCore_PruneFinalized(t *testing.T) {
	f := newCoreFixture(t)
	blocks := f.validators.ChainFixture(t, f.genesis, 6)
	require.NoError(t, f.core.HandleGap(blocks[2]))
	require.NoError(t, f.core.HandleGap(blocks[5]))
	require.Equal(t, 2, f.core.QueueCount())

	assert.Equal(t, 1, f.core.PruneFinalized(blocks[3].Checkpoint()))
	assert.Equal(t, 1, f.core.QueueCount())

	// the request of the pruned queue is dropped on assignment
	f.core.Assign([]module.PeerInfo{peerAt(unittest.PeerIDFixture(t), blocks[5].Checkpoint())})
	requests := f.core.NextRequests()
	require.Len(t, requests, 1)
	assert.Equal(t, blocks[4].Root(), requests[0].Root)
	assert.Empty(t, f.core.PendingRequests())
}
