package events

import (
	"sync"

	"github.com/ReamLabs/ream-sub002/engine"
	"github.com/ReamLabs/ream-sub002/model/lean"
	"github.com/ReamLabs/ream-sub002/module"
	"github.com/ReamLabs/ream-sub002/module/component"
	"github.com/ReamLabs/ream-sub002/module/irrecoverable"
)

// ProcessLatestFinalized is invoked when the finalized checkpoint advances.
// It is possible that checkpoints will be skipped.
type ProcessLatestFinalized func(cp lean.Checkpoint) error

// FinalizationActor is an event responder worker which can be embedded in a component
// to simplify the plumbing required to respond to finalization events.
// This worker responds to the newest finalized checkpoint on a best-effort basis,
// meaning that it may skip checkpoints when finalization advances quickly.
// CAUTION: This is suitable for use only when the handler can tolerate skipped checkpoints.
type FinalizationActor struct {
	mu       sync.Mutex
	newest   lean.Checkpoint
	tracked  bool
	notifier engine.Notifier
	handler  ProcessLatestFinalized
}

var _ module.FinalizationConsumer = (*FinalizationActor)(nil)

// NewFinalizationActor creates a new FinalizationActor, and returns the worker routine
// and event consumer required to operate it.
// The caller MUST:
//   - start the returned component.ComponentWorker function
//   - subscribe the returned FinalizationActor to finalization events
func NewFinalizationActor(handler ProcessLatestFinalized) (*FinalizationActor, component.ComponentWorker) {
	actor := &FinalizationActor{
		notifier: engine.NewNotifier(),
		handler:  handler,
	}
	return actor, actor.workerLogic
}

func (actor *FinalizationActor) workerLogic(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	ready()

	doneSignal := ctx.Done()
	finalizedSignal := actor.notifier.Channel()

	for {
		select {
		case <-doneSignal:
			return
		case <-finalizedSignal:
			err := actor.handler(actor.Newest())
			if err != nil {
				ctx.Throw(err)
				return
			}
		}
	}
}

// OnFinalized records cp if it is newer than the last tracked checkpoint and
// wakes up the worker.
func (actor *FinalizationActor) OnFinalized(cp lean.Checkpoint) {
	actor.mu.Lock()
	if actor.tracked && cp.Slot <= actor.newest.Slot {
		actor.mu.Unlock()
		return
	}
	actor.newest = cp
	actor.tracked = true
	actor.mu.Unlock()

	actor.notifier.Notify()
}

// Newest returns the newest finalized checkpoint seen so far.
func (actor *FinalizationActor) Newest() lean.Checkpoint {
	actor.mu.Lock()
	defer actor.mu.Unlock()
	return actor.newest
}
