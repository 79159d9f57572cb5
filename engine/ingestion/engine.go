package ingestion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/ReamLabs/ream-sub002/engine"
	"github.com/ReamLabs/ream-sub002/engine/common/fifoqueue"
	"github.com/ReamLabs/ream-sub002/model/lean"
	"github.com/ReamLabs/ream-sub002/module"
	"github.com/ReamLabs/ream-sub002/module/component"
	"github.com/ReamLabs/ream-sub002/module/irrecoverable"
	"github.com/ReamLabs/ream-sub002/module/metrics"
	"github.com/ReamLabs/ream-sub002/module/util"
	"github.com/ReamLabs/ream-sub002/state"
)

// ErrShuttingDown is returned by SubmitWait once the engine is stopping.
var ErrShuttingDown = errors.New("ingestion engine is shutting down")

var errQueueFull = errors.New("inbound queue full")

// Engine is the single consumer of validated blocks and votes. Producers
// (gossip, sync responses, the forward syncer) submit items to its inbound
// queue; one worker applies them through Core in arrival order, holding back
// items whose dependency is not known yet.
type Engine struct {
	*component.ComponentManager
	log      zerolog.Logger
	metrics  module.IngestionMetrics
	core     *Core
	state    state.MutableState
	clock    module.SlotClock
	config   Config
	queue    *fifoqueue.FifoQueue
	notifier engine.Notifier
	// interval ticks are handed to the processing worker so that the head
	// recomputation does not race with item application
	intervalNotifier engine.Notifier
}

var _ module.IngestionQueue = (*Engine)(nil)

func New(
	log zerolog.Logger,
	collector module.IngestionMetrics,
	st state.MutableState,
	clock module.SlotClock,
	gaps module.GapConsumer,
	finalization module.FinalizationConsumer,
	opts ...OptionFunc,
) (*Engine, error) {
	config := DefaultConfig()
	for _, apply := range opts {
		apply(&config)
	}

	queue, err := fifoqueue.NewFifoQueue(
		fifoqueue.WithCapacity(config.QueueCapacity),
		fifoqueue.WithLengthObserver(func(len int) { collector.InboundQueueLength(uint(len)) }),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create inbound queue: %w", err)
	}

	core, err := NewCore(log, collector, st, gaps, finalization, config)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		log:              log.With().Str("engine", "ingestion").Logger(),
		metrics:          collector,
		core:             core,
		state:            st,
		clock:            clock,
		config:           config,
		queue:            queue,
		notifier:         engine.NewNotifier(),
		intervalNotifier: engine.NewNotifier(),
	}

	e.ComponentManager = component.NewComponentManagerBuilder().
		AddWorker(e.processLoop).
		AddWorker(e.backlogLoop).
		AddWorker(e.intervalLoop).
		Build()

	return e, nil
}

// Submit enqueues item without blocking. Returns false if the item was
// dropped because the queue is full or the engine is shutting down.
func (e *Engine) Submit(item lean.QueueItem) bool {
	if util.CheckClosed(e.ShutdownSignal()) {
		e.metrics.ItemDropped(kindOf(item), metrics.ReasonShuttingDown)
		return false
	}
	if !e.queue.Push(item) {
		e.metrics.ItemDropped(kindOf(item), metrics.ReasonQueueFull)
		e.log.Warn().Str("kind", kindOf(item)).Msg("inbound queue full, dropping item")
		return false
	}
	e.notifier.Notify()
	return true
}

// SubmitWait enqueues item, retrying while the queue is full.
// Expected errors during normal operations:
//   - ErrShuttingDown if the engine stops before the item was queued
//   - ctx.Err() if ctx is done before the item was queued
func (e *Engine) SubmitWait(ctx context.Context, item lean.QueueItem) error {
	interval := e.config.SubmitRetryInterval
	constant := retry.BackoffFunc(func() (time.Duration, bool) {
		return interval, false
	})

	err := retry.Do(ctx, constant, func(ctx context.Context) error {
		if util.CheckClosed(e.ShutdownSignal()) {
			return ErrShuttingDown
		}
		if !e.queue.Push(item) {
			return retry.RetryableError(errQueueFull)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errQueueFull) {
			// retry.Do returns the last error when ctx is done
			return ctx.Err()
		}
		return err
	}
	e.notifier.Notify()
	return nil
}

// processLoop applies queued items until the engine shuts down.
func (e *Engine) processLoop(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	ready()

	doneSignal := ctx.Done()
	newItemSignal := e.notifier.Channel()
	intervalSignal := e.intervalNotifier.Channel()
	for {
		select {
		case <-doneSignal:
			return
		case <-newItemSignal:
			err := e.processQueuedItems(ctx) // no errors expected during normal operations
			if err != nil {
				ctx.Throw(err)
			}
		case <-intervalSignal:
			head, err := e.state.RecomputeHead(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				ctx.Throw(fmt.Errorf("could not recompute head: %w", err))
			}
			e.log.Debug().Uint64("head_slot", head.Slot).Msg("head recomputed on interval")
		}
	}
}

// processQueuedItems processes items until the queue is empty or the engine
// is terminated.
// No errors are expected during normal operation. All returned exceptions are potential
// symptoms of internal state corruption and should be fatal.
func (e *Engine) processQueuedItems(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		msg, ok := e.queue.Pop()
		if !ok {
			return nil
		}
		err := e.core.Process(ctx, msg.(lean.QueueItem))
		if err != nil {
			return fmt.Errorf("could not process queued item: %w", err)
		}
	}
}

func (e *Engine) backlogLoop(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	ready()

	ticker := time.NewTicker(e.config.BacklogScanInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.core.ScanBacklog()
		}
	}
}

// intervalLoop wakes the processing worker at every interval boundary of the
// slot clock.
func (e *Engine) intervalLoop(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	ready()

	timer := time.NewTimer(e.untilNextInterval())
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			e.intervalNotifier.Notify()
			timer.Reset(e.untilNextInterval())
		}
	}
}

func (e *Engine) untilNextInterval() time.Duration {
	interval := e.clock.IntervalDuration()
	slot := e.clock.CurrentSlot()
	next := e.clock.SlotStart(slot).Add(time.Duration(e.clock.CurrentInterval()+1) * interval)
	wait := time.Until(next)
	if wait <= 0 {
		return interval
	}
	return wait
}
