package synchronization

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/hashicorp/go-multierror"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ReamLabs/ream-sub002/engine"
	"github.com/ReamLabs/ream-sub002/model/lean"
	"github.com/ReamLabs/ream-sub002/module"
	"github.com/ReamLabs/ream-sub002/module/chainsync"
	"github.com/ReamLabs/ream-sub002/module/component"
	"github.com/ReamLabs/ream-sub002/module/events"
	"github.com/ReamLabs/ream-sub002/module/irrecoverable"
	"github.com/ReamLabs/ream-sub002/module/metrics"
	"github.com/ReamLabs/ream-sub002/module/validation"
	"github.com/ReamLabs/ream-sub002/state"
	"github.com/ReamLabs/ream-sub002/storage"
	"github.com/ReamLabs/ream-sub002/utils/logging"
)

// BlockValidator checks blocks received in range responses.
type BlockValidator interface {
	ValidateBlock(block *lean.SignedBlock) (validation.Result, error)
}

// Engine is the synchronization engine, responsible for fetching missing
// ancestry from peers. It drives the sync job manager: peers are polled for
// their status, gaps reported by ingestion open job queues, range requests
// are sent for assigned jobs and complete queues are replayed into ingestion
// by the forward syncer.
type Engine struct {
	*component.ComponentManager
	log       zerolog.Logger
	metrics   module.SyncMetrics
	core      *chainsync.Core
	forward   *chainsync.ForwardSyncer
	state     state.State
	pending   storage.PendingBlocks
	peers     module.PeerAdapter
	validator BlockValidator
	clock     module.SlotClock
	config    Config

	requests        *workerpool.WorkerPool
	scanNotifier    engine.Notifier
	pollNotifier    engine.Notifier
	forwardNotifier engine.Notifier
	finalization    *events.FinalizationActor

	mu       sync.Mutex
	inflight map[peer.ID]inflightRequest
	// blocks held votes wait for, fetched by root on the next scan
	wanted map[lean.Root]struct{}
}

var (
	_ module.GapConsumer            = (*Engine)(nil)
	_ module.PeerDisconnectConsumer = (*Engine)(nil)
	_ module.FinalizationConsumer   = (*Engine)(nil)
)

// New creates a new synchronization engine.
func New(
	log zerolog.Logger,
	collector module.SyncMetrics,
	core *chainsync.Core,
	forward *chainsync.ForwardSyncer,
	st state.State,
	pending storage.PendingBlocks,
	peers module.PeerAdapter,
	validator BlockValidator,
	clock module.SlotClock,
	opts ...OptionFunc,
) *Engine {
	config := DefaultConfig()
	for _, apply := range opts {
		apply(&config)
	}

	e := &Engine{
		log:             log.With().Str("engine", "synchronization").Logger(),
		metrics:         collector,
		core:            core,
		forward:         forward,
		state:           st,
		pending:         pending,
		peers:           peers,
		validator:       validator,
		clock:           clock,
		config:          config,
		requests:        workerpool.New(config.RequestWorkers),
		scanNotifier:    engine.NewNotifier(),
		pollNotifier:    engine.NewNotifier(),
		forwardNotifier: engine.NewNotifier(),
		inflight:        make(map[peer.ID]inflightRequest),
		wanted:          make(map[lean.Root]struct{}),
	}

	finalization, finalizationWorker := events.NewFinalizationActor(e.onFinalized)
	e.finalization = finalization

	e.ComponentManager = component.NewComponentManagerBuilder().
		AddWorker(e.pollLoop).
		AddWorker(e.scanLoop).
		AddWorker(e.forwardLoop).
		AddWorker(finalizationWorker).
		Build()

	return e
}

// HandleGap opens a job queue for the ancestry of block.
func (e *Engine) HandleGap(block *lean.SignedBlock) {
	err := e.core.HandleGap(block)
	if err != nil {
		logging.Block(e.log.Error(), block).Err(err).Msg("could not handle gap")
		return
	}
	e.scanNotifier.Notify()
}

// HandleBacklogPressure fetches the blocks given up votes were waiting for
// by root and triggers a status poll, peers may report a head to sync to.
func (e *Engine) HandleBacklogPressure(missing []lean.Root) {
	added := e.want(missing)
	e.log.Debug().Int("missing", len(missing)).Int("wanted", added).Msg("backlog pressure, polling peers")
	e.pollNotifier.Notify()
	if added > 0 {
		e.scanNotifier.Notify()
	}
}

// OnPeerDisconnected resets the job of the peer and cancels its request.
func (e *Engine) OnPeerDisconnected(id peer.ID) {
	e.core.HandlePeerDisconnected(id)
	e.cancelRequest(id)
	e.scanNotifier.Notify()
}

// OnFinalized implements module.FinalizationConsumer.
func (e *Engine) OnFinalized(cp lean.Checkpoint) {
	e.finalization.OnFinalized(cp)
}

// onFinalized drops staged blocks and job queues that can no longer be
// adopted once cp is finalized.
func (e *Engine) onFinalized(cp lean.Checkpoint) error {
	pruned, err := e.pending.PruneUpToSlot(cp.Slot)
	if err != nil {
		return fmt.Errorf("could not prune staged blocks up to slot %d: %w", cp.Slot, err)
	}
	queues := e.core.PruneFinalized(cp)
	if pruned > 0 || queues > 0 {
		e.log.Debug().
			Uint64("finalized_slot", cp.Slot).
			Int("staged_blocks", pruned).
			Int("queues", queues).
			Msg("pruned sync state below finalized")
	}
	return nil
}

// pollLoop regularly asks all peers for their status and updates the sync status.
func (e *Engine) pollLoop(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	ready()

	ticker := time.NewTicker(e.config.PollInterval)
	defer ticker.Stop()

	e.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.poll(ctx)
		case <-e.pollNotifier.Channel():
			e.poll(ctx)
		}
	}
}

func (e *Engine) poll(ctx context.Context) {
	peers := e.peers.Peers()

	var mu sync.Mutex
	var errs *multierror.Error
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(e.config.StatusConcurrency)
	for _, info := range peers {
		id := info.ID
		group.Go(func() error {
			reqCtx, cancel := context.WithTimeout(groupCtx, e.config.StatusTimeout)
			defer cancel()
			_, err := e.peers.GetStatus(reqCtx, id)
			if err != nil {
				mu.Lock()
				errs = multierror.Append(errs, fmt.Errorf("status of %s: %w", id, err))
				mu.Unlock()
			}
			// a single unresponsive peer must not cancel the others
			return nil
		})
	}
	_ = group.Wait()
	if ctx.Err() != nil {
		return
	}
	if err := errs.ErrorOrNil(); err != nil {
		e.log.Warn().Err(err).Int("failed", errs.Len()).Msg("status poll incomplete")
	}

	status := e.core.UpdateStatus(e.clock.CurrentSlot(), e.peers.Peers())
	e.log.Debug().Str("status", status.String()).Int("peers", len(peers)).Msg("status poll finished")
	e.scanNotifier.Notify()
}

// scanLoop regularly times out stale requests, assigns jobs and sends requests.
// It is the only producer of range requests and waits for the in-flight ones
// when it exits.
func (e *Engine) scanLoop(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	ready()
	defer e.requests.StopWait()

	ticker := time.NewTicker(e.config.ScanInterval)
	defer ticker.Stop()
	for {
		// give the quit channel a priority to be selected
		select {
		case <-ctx.Done():
			return
		default:
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.scan(ctx)
		case <-e.scanNotifier.Channel():
			e.scan(ctx)
		}
	}
}

func (e *Engine) scan(ctx irrecoverable.SignalerContext) {
	for _, id := range e.core.ScanTimeouts() {
		e.log.Debug().Str("peer", id.String()).Msg("range request timed out")
		e.cancelRequest(id)
	}

	peers := e.peers.Peers()
	e.core.Assign(peers)
	for _, req := range e.core.NextRequests() {
		req := req
		e.requests.Submit(func() {
			e.fetch(ctx, req)
		})
	}

	if roots := e.takeWanted(); len(roots) > 0 {
		target, ok := bestPeer(peers)
		if !ok {
			e.want(roots)
		} else {
			e.requests.Submit(func() {
				e.fetchByRoot(ctx, target, roots)
			})
		}
	}

	if _, ok := e.core.ReadyQueue(); ok {
		e.forwardNotifier.Notify()
	}
}

// fetch sends one range request and hands the outcome to the job manager.
func (e *Engine) fetch(ctx irrecoverable.SignalerContext, req chainsync.Request) {
	reqCtx, cancel := context.WithTimeout(ctx, e.core.Config().RequestTimeout)
	defer cancel()
	e.trackRequest(req, cancel)
	defer e.untrackRequest(req)

	log := e.log.With().
		Str("peer", req.Peer.String()).
		Str("start_root", logging.Root(req.Root)).
		Uint64("count", req.Count).
		Logger()

	started := time.Now()
	blocks, err := e.peers.RequestRange(reqCtx, req.Peer, req.Root, req.Count)
	if err != nil {
		if ctx.Err() != nil {
			e.metrics.RangeRequestFinished(metrics.OutcomeCancelled, time.Since(started))
			return
		}
		outcome := metrics.OutcomeFailure
		switch {
		case errors.Is(reqCtx.Err(), context.DeadlineExceeded):
			outcome = metrics.OutcomeTimeout
		case errors.Is(reqCtx.Err(), context.Canceled):
			outcome = metrics.OutcomeCancelled
		}
		e.metrics.RangeRequestFinished(outcome, time.Since(started))
		log.Warn().Err(err).Str("outcome", outcome).Msg("range request failed")
		e.handleFailure(req)
		return
	}

	outcome, err := e.handleResponse(req, blocks)
	if err != nil {
		ctx.Throw(fmt.Errorf("could not handle range response: %w", err))
		return
	}
	e.metrics.RangeRequestFinished(outcome, time.Since(started))
	log.Debug().Int("blocks", len(blocks)).Str("outcome", outcome).Msg("range request finished")
}

// handleResponse validates the blocks of a range response and stages them.
// No errors are expected during normal operation.
func (e *Engine) handleResponse(req chainsync.Request, blocks []*lean.SignedBlock) (string, error) {
	p := req.Peer
	for _, block := range blocks {
		result, err := e.validator.ValidateBlock(block)
		if err != nil {
			return "", err
		}
		if result == validation.Reject {
			e.peers.Penalize(p, "invalid block in range response")
			e.handleFailure(req)
			return metrics.OutcomeMalformed, nil
		}
	}

	err := e.core.HandleResponse(p, req.ID, truncateAtKnown(e.state, blocks))
	switch {
	case err == nil:
	case chainsync.IsMalformedResponseError(err):
		e.log.Warn().Err(err).Msg("malformed range response")
		e.peers.Penalize(p, "malformed range response")
		return metrics.OutcomeMalformed, nil
	case errors.Is(err, chainsync.ErrUnknownJob):
		// the job was reset while the request was in flight
		return metrics.OutcomeCancelled, nil
	default:
		return "", err
	}

	e.scanNotifier.Notify()
	return metrics.OutcomeSuccess, nil
}

func (e *Engine) handleFailure(req chainsync.Request) {
	err := e.core.HandleFailure(req.Peer, req.ID)
	switch {
	case err == nil:
	case errors.Is(err, chainsync.ErrUnknownJob):
		// the request timed out and was replaced already
		return
	default:
		e.log.Error().Err(err).Str("peer", req.Peer.String()).Msg("could not reset job")
	}
	e.scanNotifier.Notify()
}

// fetchByRoot requests the given blocks from p. Fetched blocks are handled
// like gaps: they are staged and replayed once their ancestry is complete.
func (e *Engine) fetchByRoot(ctx irrecoverable.SignalerContext, p peer.ID, roots []lean.Root) {
	reqCtx, cancel := context.WithTimeout(ctx, e.core.Config().RequestTimeout)
	defer cancel()

	log := e.log.With().Str("peer", p.String()).Int("roots", len(roots)).Logger()
	blocks, err := e.peers.RequestByRoot(reqCtx, p, roots)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Warn().Err(err).Msg("by-root request failed")
		return
	}

	requested := make(map[lean.Root]struct{}, len(roots))
	for _, root := range roots {
		requested[root] = struct{}{}
	}
	for _, block := range blocks {
		root := block.Root()
		if _, ok := requested[root]; !ok {
			e.peers.Penalize(p, "unrequested block in by-root response")
			return
		}
		result, err := e.validator.ValidateBlock(block)
		if err != nil {
			ctx.Throw(fmt.Errorf("could not validate fetched block %x: %w", root, err))
			return
		}
		if result == validation.Reject {
			e.peers.Penalize(p, "invalid block in by-root response")
			return
		}
		if e.state.HasBlock(root) {
			continue
		}
		e.HandleGap(block)
	}
	log.Debug().Int("blocks", len(blocks)).Msg("by-root request finished")
}

// want records roots to fetch by root, up to MaxWantedRoots. Returns the
// number of roots added.
func (e *Engine) want(roots []lean.Root) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	added := 0
	for _, root := range roots {
		if len(e.wanted) >= e.config.MaxWantedRoots {
			break
		}
		if _, ok := e.wanted[root]; ok || e.state.HasBlock(root) {
			continue
		}
		e.wanted[root] = struct{}{}
		added++
	}
	return added
}

func (e *Engine) takeWanted() []lean.Root {
	e.mu.Lock()
	defer e.mu.Unlock()
	roots := make([]lean.Root, 0, len(e.wanted))
	for root := range e.wanted {
		roots = append(roots, root)
	}
	clear(e.wanted)
	return roots
}

// bestPeer returns the available peer with a known status and the highest score.
func bestPeer(peers []module.PeerInfo) (peer.ID, bool) {
	var best *module.PeerInfo
	for i := range peers {
		info := &peers[i]
		if !info.Available || info.Status == nil {
			continue
		}
		if best == nil || info.Score > best.Score {
			best = info
		}
	}
	if best == nil {
		return "", false
	}
	return best.ID, true
}

// truncateAtKnown cuts a response before its first block that is already
// known locally, the rest is not needed. A response starting at a known block
// keeps that block.
func truncateAtKnown(st state.State, blocks []*lean.SignedBlock) []*lean.SignedBlock {
	for i, block := range blocks {
		if st.HasBlock(block.Root()) {
			return blocks[:max(i, 1)]
		}
	}
	return blocks
}

// forwardLoop replays complete job queues into ingestion, lowest queue first.
func (e *Engine) forwardLoop(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	ready()

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.forwardNotifier.Channel():
			err := e.forwardReadyQueues(ctx)
			if err != nil {
				ctx.Throw(err)
				return
			}
		}
	}
}

// forwardReadyQueues runs the forward syncer until no queue is ready.
// No errors are expected during normal operation.
func (e *Engine) forwardReadyQueues(ctx context.Context) error {
	for {
		start, ok := e.core.ReadyQueue()
		if !ok {
			return nil
		}

		result, err := e.forward.Run(ctx, start)
		switch {
		case err == nil:
			e.core.HandleForwardResult(result)
		case errors.Is(err, chainsync.ErrQueueStartMissing):
			e.log.Warn().Err(err).Msg("dropping job queue")
			e.core.DropQueue(start)
		case ctx.Err() != nil:
			return nil
		case irrecoverable.IsException(err):
			return fmt.Errorf("forward sync of %s failed: %w", start, err)
		default:
			// ingestion is not accepting items, retry on the next scan
			e.log.Warn().Err(err).Str("queue_start", start.String()).Msg("forward sync interrupted")
			return nil
		}
	}
}

type inflightRequest struct {
	id     uint64
	cancel context.CancelFunc
}

func (e *Engine) trackRequest(req chainsync.Request, cancel context.CancelFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.inflight[req.Peer] = inflightRequest{id: req.ID, cancel: cancel}
}

// untrackRequest forgets req unless a newer request to the same peer
// replaced it.
func (e *Engine) untrackRequest(req chainsync.Request) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if r, ok := e.inflight[req.Peer]; ok && r.id == req.ID {
		delete(e.inflight, req.Peer)
	}
}

func (e *Engine) cancelRequest(p peer.ID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if r, ok := e.inflight[p]; ok {
		r.cancel()
		delete(e.inflight, p)
	}
}
