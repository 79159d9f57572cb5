package chainsync

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/rs/zerolog"

	"github.com/ReamLabs/ream-sub002/model/lean"
	"github.com/ReamLabs/ream-sub002/module"
	"github.com/ReamLabs/ream-sub002/state"
	"github.com/ReamLabs/ream-sub002/storage"
	"github.com/ReamLabs/ream-sub002/utils/logging"
)

// PeerState is the sync state of one peer.
type PeerState int

const (
	PeerIdle PeerState = iota
	// PeerInitial peers have a job assigned that was not requested yet.
	PeerInitial
	// PeerAwaiting peers have a range request in flight.
	PeerAwaiting
	// PeerReset peers failed their job and wait for it to be handed over.
	PeerReset
)

func (s PeerState) String() string {
	switch s {
	case PeerIdle:
		return "idle"
	case PeerInitial:
		return "initial"
	case PeerAwaiting:
		return "awaiting"
	case PeerReset:
		return "reset"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

type SyncStatus int

const (
	Synced SyncStatus = iota
	Syncing
)

func (s SyncStatus) String() string {
	if s == Syncing {
		return "syncing"
	}
	return "synced"
}

// Request is a range request to send: up to Count blocks starting at Root and
// walking parents. ID identifies the request in responses and failures.
type Request struct {
	ID    uint64
	Peer  peer.ID
	Root  lean.Root
	Slot  lean.Slot
	Count uint64
}

type peerRecord struct {
	state PeerState
	job   *Job
	// id of the request in flight, zero before the job is requested
	request uint64
}

// Core is the sync job manager. It tracks which missing blocks are being
// fetched from which peer and never performs network calls itself: the
// synchronization engine feeds it peer lists, responses and failures and
// sends the requests it hands out.
//
// All methods are safe for concurrent use.
type Core struct {
	log     zerolog.Logger
	metrics module.SyncMetrics
	state   state.State
	pending storage.PendingBlocks
	params  lean.Params
	config  Config
	now     func() time.Time

	mu       sync.Mutex
	rng      *rand.Rand
	status   SyncStatus
	queues   *Queues
	peers    map[peer.ID]*peerRecord
	requests []lean.PendingJobRequest
	lastID   uint64
}

func New(
	log zerolog.Logger,
	collector module.SyncMetrics,
	st state.State,
	pending storage.PendingBlocks,
	params lean.Params,
	opts ...OptionFunc,
) *Core {
	config := DefaultConfig()
	for _, apply := range opts {
		apply(&config)
	}
	return &Core{
		log:     log.With().Str("module", "chainsync").Logger(),
		metrics: collector,
		state:   st,
		pending: pending,
		params:  params,
		config:  config,
		now:     time.Now,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		status:  Synced,
		queues:  NewQueues(),
		peers:   make(map[peer.ID]*peerRecord),
	}
}

func (c *Core) Config() Config {
	return c.config
}

// Status returns the current sync status.
func (c *Core) Status() SyncStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// QueueCount returns the number of open job queues.
func (c *Core) QueueCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queues.Len()
}

// PeerState returns the sync state of p and a copy of its job, if any.
func (c *Core) PeerState(p peer.ID) (PeerState, *Job) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.peers[p]
	if !ok {
		return PeerIdle, nil
	}
	job := *rec.job
	return rec.state, &job
}

// PendingRequests returns the job requests waiting for a peer.
func (c *Core) PendingRequests() []lean.PendingJobRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]lean.PendingJobRequest(nil), c.requests...)
}

// HandleGap stages block, whose parent is unknown locally, and opens a job
// queue to fetch its ancestry.
// No errors are expected during normal operation.
func (c *Core) HandleGap(block *lean.SignedBlock) error {
	root := block.Root()
	err := c.pending.Store(block)
	if err != nil {
		return fmt.Errorf("could not stage gap block: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.openAnchoredQueue(block, root)
	return nil
}

func (c *Core) openAnchoredQueue(block *lean.SignedBlock, root lean.Root) bool {
	if c.queues.Len() >= c.config.MaxQueues {
		c.log.Warn().
			Str("block_root", logging.Root(root)).
			Int("queues", c.queues.Len()).
			Msg("too many job queues, gap block stays staged")
		return false
	}

	anchor := NewJob(root, root, block.Block.Slot)
	anchor.Requested = true
	if !c.queues.AddQueue(block.Checkpoint(), anchor, true) {
		logging.Block(c.log.Debug(), block).Msg("job queue already open for gap block")
		return false
	}
	c.metrics.JobQueues(c.queues.Len())
	if c.state.HasBlock(block.Block.ParentRoot) {
		// fetched by root, nothing is missing below it
		c.queues.MarkQueueComplete(root)
		logging.Block(c.log.Debug(), block).Msg("job queue complete on open")
		return true
	}
	c.requests = append(c.requests, lean.NewInitialRequest(root, block.Block.Slot, block.Block.ParentRoot))
	logging.Block(c.log.Debug(), block).Msg("job queue opened for gap block")
	return true
}

// Assign hands pending job requests and unassigned jobs to eligible peers.
// Requests that no peer can serve stay pending.
func (c *Core) Assign(peers []module.PeerInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var remaining []lean.PendingJobRequest
	for _, req := range c.requests {
		if !c.assignRequest(req, peers) {
			remaining = append(remaining, req)
		}
	}
	c.requests = remaining

	for _, job := range c.queues.UnrequestedJobs() {
		if job.Peer != "" {
			continue
		}
		p, ok := c.selectPeer(peers, job, "")
		if !ok {
			continue
		}
		job.Peer = p
		c.peers[p] = &peerRecord{state: PeerInitial, job: job}
	}
}

// assignRequest returns false if the request has to wait for a peer.
func (c *Core) assignRequest(req lean.PendingJobRequest, peers []module.PeerInfo) bool {
	switch r := req.(type) {
	case lean.InitialRequest:
		if _, _, ok := c.queues.JobByRoot(r.Root); !ok {
			c.log.Debug().Str("request", r.String()).Msg("dropping request for closed queue")
			return true
		}
		job := NewJob(r.ParentRoot, r.Root, r.Slot)
		p, ok := c.selectPeer(peers, job, "")
		if !ok {
			return false
		}
		if _, ok := c.queues.ReplaceJob(r.Root, r.Slot, job); !ok {
			return true
		}
		job.Peer = p
		c.peers[p] = &peerRecord{state: PeerInitial, job: job}
		return true

	case lean.ResetRequest:
		job, ok := c.queues.JobByPeer(r.Peer)
		if !ok {
			c.release(r.Peer)
			return true
		}
		// the failed peer is a last resort for its own job
		p, ok := c.selectPeer(peers, job, r.Peer)
		if !ok {
			// hand the job back to the unassigned pool so the peer is not
			// held busy while no replacement exists
			job.unassign()
			c.release(r.Peer)
			return true
		}
		c.queues.ResetJobPeer(r.Peer, p)
		c.release(r.Peer)
		c.peers[p] = &peerRecord{state: PeerInitial, job: job}
		if p != r.Peer {
			c.log.Debug().
				Str("job_root", logging.Root(job.Root)).
				Str("from", r.Peer.String()).
				Str("to", p.String()).
				Msg("job reassigned")
		}
		return true

	default:
		c.log.Error().Str("request", req.String()).Msg("unexpected pending job request")
		return true
	}
}

func (c *Core) release(p peer.ID) {
	if rec, ok := c.peers[p]; ok && rec.state == PeerReset {
		delete(c.peers, p)
	}
}

func (c *Core) busy(p peer.ID) bool {
	_, ok := c.peers[p]
	return ok
}

// selectPeer picks a peer for job, weighted by score. Peers that already
// failed the job are only picked if no other peer is eligible. allowBusy may
// name one peer that is picked even though it holds the job.
func (c *Core) selectPeer(peers []module.PeerInfo, job *Job, allowBusy peer.ID) (peer.ID, bool) {
	var fresh, failed []module.PeerInfo
	for _, info := range peers {
		if !info.Available || info.Status == nil || info.Status.Head.Slot < job.Slot {
			continue
		}
		if info.ID != allowBusy && c.busy(info.ID) {
			continue
		}
		if job.Failed(info.ID) {
			failed = append(failed, info)
			continue
		}
		fresh = append(fresh, info)
	}

	candidates := fresh
	if len(candidates) == 0 {
		candidates = failed
	}
	if len(candidates) == 0 {
		return "", false
	}

	total := 0
	for _, info := range candidates {
		total += int(info.Score) + 1
	}
	pick := c.rng.Intn(total)
	for _, info := range candidates {
		pick -= int(info.Score) + 1
		if pick < 0 {
			return info.ID, true
		}
	}
	return candidates[len(candidates)-1].ID, true
}

// NextRequests returns the range requests for peers with an assigned job and
// moves them to awaiting.
func (c *Core) NextRequests() []Request {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var requests []Request
	for _, job := range c.queues.UnrequestedJobs() {
		if job.Peer == "" {
			continue
		}
		rec, ok := c.peers[job.Peer]
		if !ok || rec.state != PeerInitial || rec.job != job {
			continue
		}
		if !c.queues.MarkRequested(job, now) {
			continue
		}
		c.lastID++
		rec.state = PeerAwaiting
		rec.request = c.lastID
		c.metrics.RangeRequestSent()
		requests = append(requests, Request{
			ID:    c.lastID,
			Peer:  job.Peer,
			Root:  job.Root,
			Slot:  job.Slot,
			Count: c.config.RangeSize,
		})
	}
	sort.Slice(requests, func(i, j int) bool {
		return requests[i].Peer < requests[j].Peer
	})
	return requests
}

// HandleResponse accepts the blocks p returned for request id. The blocks
// must be validated already.
// Expected errors during normal operations:
//   - ErrUnknownJob if request id of p is no longer in flight
//   - MalformedResponseError if the blocks are not the ancestry of the
//     requested root; the peer is reset
func (c *Core) HandleResponse(p peer.ID, id uint64, blocks []*lean.SignedBlock) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.peers[p]
	if !ok || rec.state != PeerAwaiting || rec.request != id {
		return ErrUnknownJob
	}
	job := rec.job

	err := c.checkResponse(p, job, blocks)
	if err != nil {
		c.fail(p, rec)
		return err
	}

	for _, block := range blocks {
		err := c.pending.Store(block)
		if err != nil {
			return fmt.Errorf("could not stage fetched block: %w", err)
		}
	}
	c.metrics.BlocksFetched(len(blocks))
	delete(c.peers, p)

	tail := blocks[len(blocks)-1]
	parent := tail.Block.ParentRoot
	known, err := c.known(parent)
	if err != nil {
		return err
	}
	if known || c.queues.IsQueueStart(parent) {
		c.queues.MarkQueueComplete(job.Root)
		c.log.Info().
			Str("tail_root", logging.Root(tail.Root())).
			Uint64("tail_slot", tail.Block.Slot).
			Msg("job queue complete")
		return nil
	}

	tailRoot := tail.Root()
	anchor := NewJob(tailRoot, tailRoot, tail.Block.Slot)
	anchor.Requested = true
	if _, ok := c.queues.ReplaceJob(job.Root, tail.Block.Slot, anchor); !ok {
		// the queue was closed while the request was in flight
		return nil
	}
	c.requests = append(c.requests, lean.NewInitialRequest(tailRoot, tail.Block.Slot, parent))
	return nil
}

func (c *Core) checkResponse(p peer.ID, job *Job, blocks []*lean.SignedBlock) error {
	if len(blocks) == 0 {
		return NewMalformedResponseErrorf(p, "empty response for %s", job.Root.TerminalString())
	}
	if uint64(len(blocks)) > c.config.RangeSize {
		return NewMalformedResponseErrorf(p, "%d blocks exceed range size %d", len(blocks), c.config.RangeSize)
	}
	if blocks[0].Root() != job.Root {
		return NewMalformedResponseErrorf(p, "response starts at %s, requested %s",
			blocks[0].Root().TerminalString(), job.Root.TerminalString())
	}
	for i := 0; i+1 < len(blocks); i++ {
		if blocks[i].Block.ParentRoot != blocks[i+1].Root() {
			return NewMalformedResponseErrorf(p, "response not contiguous at index %d", i+1)
		}
	}
	return nil
}

func (c *Core) known(root lean.Root) (bool, error) {
	if c.state.HasBlock(root) {
		return true, nil
	}
	staged, err := c.pending.Has(root)
	if err != nil {
		return false, fmt.Errorf("could not check staged block %x: %w", root, err)
	}
	return staged, nil
}

// HandleFailure resets the job of p after request id failed. Failures of
// requests that were already reset or replaced are ignored.
// Expected errors during normal operations:
//   - ErrUnknownJob if request id is not the latest request of p
func (c *Core) HandleFailure(p peer.ID, id uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.peers[p]
	if !ok || rec.request != id {
		return ErrUnknownJob
	}
	if rec.state == PeerReset {
		return nil
	}
	c.fail(p, rec)
	return nil
}

// HandlePeerDisconnected resets the job of a disconnected peer. A peer that
// already waits for its job to be handed over gives the job up.
func (c *Core) HandlePeerDisconnected(p peer.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.peers[p]
	if !ok {
		return
	}
	if rec.state == PeerReset {
		if rec.job.Peer == p {
			rec.job.unassign()
		}
		delete(c.peers, p)
		return
	}
	c.fail(p, rec)
}

func (c *Core) fail(p peer.ID, rec *peerRecord) {
	job := rec.job
	job.markFailed(p)

	if job.Attempts < c.config.MaxAttempts {
		rec.state = PeerReset
		c.requests = append(c.requests, lean.NewResetRequest(p))
		return
	}

	job.unassign()
	delete(c.peers, p)
	if queue, ok := c.queues.QueueOf(job); ok {
		queue.Stalled = true
		queue.StalledAt = c.now()
	}
	c.metrics.QueueStalled()
	c.log.Warn().
		Str("job_root", logging.Root(job.Root)).
		Uint("attempts", job.Attempts).
		Msg("job exhausted its attempts, queue stalled")
}

// ScanTimeouts resets peers whose request is older than RequestTimeout and
// resumes stalled queues after StallRetryInterval. Returns the peers that
// timed out.
func (c *Core) ScanTimeouts() []peer.ID {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var timedOut []peer.ID
	for p, rec := range c.peers {
		if rec.state != PeerAwaiting || now.Sub(rec.job.RequestedAt) < c.config.RequestTimeout {
			continue
		}
		c.fail(p, rec)
		timedOut = append(timedOut, p)
	}

	for _, queue := range c.queues.All() {
		if !queue.Stalled || now.Sub(queue.StalledAt) < c.config.StallRetryInterval {
			continue
		}
		queue.Stalled = false
		for _, job := range queue.jobs {
			job.Attempts = 0
			job.failed = make(map[peer.ID]struct{})
		}
		c.log.Info().Str("queue_start", queue.Start.String()).Msg("retrying stalled job queue")
	}
	return timedOut
}

// UpdateStatus recomputes the sync status from the peers' reported heads.
// While syncing, a job queue is opened towards the head most peers agree on.
func (c *Core) UpdateStatus(currentSlot lean.Slot, peers []module.PeerInfo) SyncStatus {
	head := c.state.Head()
	tolerance := c.params.SyncTolerance(c.state.Validators().Len())

	c.mu.Lock()
	defer c.mu.Unlock()

	common, ok := CommonHighestCheckpoint(peers)
	status := Synced
	if ok && common.Slot > head.Slot+c.params.BehindPeersSlots {
		status = Syncing
	}

	if status != c.status {
		c.log.Info().
			Str("status", status.String()).
			Uint64("head_slot", head.Slot).
			Uint64("peer_head_slot", common.Slot).
			Bool("within_tolerance", currentSlot <= head.Slot+tolerance).
			Msg("sync status changed")
		c.status = status
	}
	c.metrics.SyncStatus(status == Syncing)

	if status == Syncing && !c.queues.SlotCovered(common.Slot) {
		known, err := c.known(common.Root)
		if err != nil {
			c.log.Error().Err(err).Msg("could not check peer head")
			return status
		}
		if !known && c.queues.Len() < c.config.MaxQueues {
			if c.queues.AddQueue(common, NewJob(common.Root, lean.ZeroRoot, common.Slot), false) {
				c.metrics.JobQueues(c.queues.Len())
				c.log.Info().Str("target", common.String()).Msg("job queue opened towards peer head")
			}
		}
	}
	return status
}

// CommonHighestCheckpoint returns the head checkpoint reported by most peers,
// preferring the higher slot and then the lower root on ties.
func CommonHighestCheckpoint(peers []module.PeerInfo) (lean.Checkpoint, bool) {
	counts := make(map[lean.Checkpoint]int)
	for _, info := range peers {
		if info.Status == nil {
			continue
		}
		counts[info.Status.Head]++
	}

	var best lean.Checkpoint
	bestCount := 0
	for cp, count := range counts {
		switch {
		case count > bestCount:
		case count < bestCount:
			continue
		case cp.Slot > best.Slot:
		case cp.Slot < best.Slot:
			continue
		case cp.Root.Less(best.Root):
		default:
			continue
		}
		best, bestCount = cp, count
	}
	return best, bestCount > 0
}

// ReadyQueue returns the start of the lowest job queue if its ancestry is
// fully staged.
func (c *Core) ReadyQueue() (lean.Checkpoint, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	queue, ok := c.queues.ReadyQueue()
	if !ok {
		return lean.Checkpoint{}, false
	}
	return queue.Start, true
}

// HandleForwardResult closes or extends the queue the forward syncer ran on.
func (c *Core) HandleForwardResult(result ForwardResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch r := result.(type) {
	case Completed:
		c.queues.RemoveQueue(r.Start.Root)
		c.metrics.QueueCompleted(r.Blocks)
		c.metrics.JobQueues(c.queues.Len())
		c.log.Info().
			Str("queue_start", r.Start.String()).
			Int("blocks", r.Blocks).
			Msg("job queue handed to ingestion")
	case ChainIncomplete:
		// the staged ancestry has a hole below the lowest staged block,
		// fetch from there in a new queue
		if !c.openAnchoredQueue(r.Block, r.Block.Root()) {
			c.queues.RemoveQueue(r.Start.Root)
			c.metrics.JobQueues(c.queues.Len())
			c.log.Warn().Str("queue_start", r.Start.String()).Msg("dropping job queue with incomplete ancestry")
		}
	}
}

// DropQueue removes the queue starting at start.
func (c *Core) DropQueue(start lean.Checkpoint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queues.RemoveQueue(start.Root)
	c.metrics.JobQueues(c.queues.Len())
}

// PruneFinalized removes queues starting at or below the finalized slot.
// Their ancestry can no longer be adopted.
func (c *Core) PruneFinalized(finalized lean.Checkpoint) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var stale []*JobQueue
	for _, queue := range c.queues.All() {
		if queue.Start.Slot <= finalized.Slot {
			stale = append(stale, queue)
		}
	}
	for _, queue := range stale {
		for _, job := range queue.jobs {
			if job.Peer != "" {
				delete(c.peers, job.Peer)
			}
		}
		c.queues.RemoveQueue(queue.Start.Root)
	}
	if len(stale) > 0 {
		c.metrics.JobQueues(c.queues.Len())
	}
	return len(stale)
}
