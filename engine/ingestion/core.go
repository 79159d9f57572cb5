package ingestion

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/ReamLabs/ream-sub002/model/lean"
	"github.com/ReamLabs/ream-sub002/module"
	"github.com/ReamLabs/ream-sub002/module/buffer"
	"github.com/ReamLabs/ream-sub002/module/irrecoverable"
	"github.com/ReamLabs/ream-sub002/module/metrics"
	"github.com/ReamLabs/ream-sub002/state"
	"github.com/ReamLabs/ream-sub002/utils/logging"
)

// Core applies queue items to the chain state in causal order. Items whose
// block dependency is missing are parked in the backlog and re-applied once
// the dependency has been applied.
//
// Process must only be called from a single goroutine. ScanBacklog may run
// concurrently.
type Core struct {
	log          zerolog.Logger
	metrics      module.IngestionMetrics
	state        state.MutableState
	backlog      *buffer.Backlog
	gaps         module.GapConsumer
	finalization module.FinalizationConsumer
	config       Config
	now          func() time.Time
	finalized    lean.Checkpoint
}

func NewCore(
	log zerolog.Logger,
	collector module.IngestionMetrics,
	st state.MutableState,
	gaps module.GapConsumer,
	finalization module.FinalizationConsumer,
	config Config,
) (*Core, error) {
	backlog, err := buffer.NewBacklog(config.BacklogCapacity)
	if err != nil {
		return nil, fmt.Errorf("could not create backlog: %w", err)
	}
	return &Core{
		log:          log.With().Str("engine", "ingestion_core").Logger(),
		metrics:      collector,
		state:        st,
		backlog:      backlog,
		gaps:         gaps,
		finalization: finalization,
		config:       config,
		now:          time.Now,
		finalized:    st.Finalized(),
	}, nil
}

// Process applies item and every held item it unblocks, parent before child.
// No errors are expected during normal operation. All returned errors are
// exceptions.
func (c *Core) Process(ctx context.Context, item lean.QueueItem) error {
	work := []lean.QueueItem{item}
	for len(work) > 0 {
		next := work[0]
		work = work[1:]

		released, err := c.process(ctx, next)
		if err != nil {
			if ctx.Err() != nil {
				// shutting down, items still queued are lost with the process
				return nil
			}
			return err
		}
		work = append(work, released...)
	}

	c.metrics.BacklogSize(c.backlog.Size())
	c.notifyFinalization()
	return nil
}

func (c *Core) process(ctx context.Context, item lean.QueueItem) ([]lean.QueueItem, error) {
	switch it := item.(type) {
	case *lean.BlockItem:
		return c.processBlock(ctx, it)
	case *lean.VoteItem:
		return nil, c.processVote(ctx, it)
	default:
		return nil, irrecoverable.NewExceptionf("unexpected queue item type %T", item)
	}
}

func (c *Core) processBlock(ctx context.Context, item *lean.BlockItem) ([]lean.QueueItem, error) {
	block := item.Block
	root := block.Root()
	log := c.log.With().
		Str("block_root", logging.Root(root)).
		Uint64("block_slot", block.Block.Slot).
		Logger()

	if !c.state.HasBlock(block.Block.ParentRoot) {
		c.hold(item, block.Block.ParentRoot)
		return nil, nil
	}

	err := c.state.ApplyBlock(ctx, block)
	switch {
	case err == nil:
		c.metrics.ItemApplied(metrics.KindBlock)
		log.Debug().Msg("block applied")
	case errors.Is(err, state.ErrAlreadyKnown):
		log.Debug().Msg("block already known")
	case errors.Is(err, state.ErrUnknownParent):
		// the parent is stored but not part of the fork choice tree, the
		// backlog escalates the block if it is not released in time
		log.Info().Err(err).Msg("holding block with parent outside fork choice")
		c.hold(item, block.Block.ParentRoot)
		return nil, nil
	case state.IsInvalidBlockError(err):
		c.metrics.ItemDropped(metrics.KindBlock, metrics.ReasonInvalid)
		log.Warn().Err(err).Str("origin", item.Origin.String()).Msg("dropping invalid block")
		return nil, nil
	default:
		return nil, fmt.Errorf("could not apply block %x: %w", root, err)
	}

	return c.backlog.Release(root), nil
}

func (c *Core) processVote(ctx context.Context, item *lean.VoteItem) error {
	vote := item.Vote
	if missing, ok := c.missingDependency(vote); ok {
		c.hold(item, missing)
		return nil
	}

	err := c.state.ApplyVote(ctx, vote)
	switch {
	case err == nil:
		c.metrics.ItemApplied(metrics.KindVote)
		c.log.Debug().
			Uint64("validator", vote.Vote.ValidatorIndex).
			Uint64("slot", vote.Vote.Slot).
			Msg("vote applied")
	case errors.Is(err, state.ErrAlreadyKnown):
	case errors.Is(err, state.ErrUnknownTarget):
		// the target is checked before the head
		c.log.Info().Err(err).Msg("holding vote with blocks outside fork choice")
		c.hold(item, vote.Vote.Target.Root)
	default:
		// includes state.ErrCheckpointRegression
		return fmt.Errorf("could not apply vote of validator %d at slot %d: %w", vote.Vote.ValidatorIndex, vote.Vote.Slot, err)
	}
	return nil
}

func (c *Core) missingDependency(vote *lean.SignedVote) (lean.Root, bool) {
	if !c.state.HasBlock(vote.Vote.Target.Root) {
		return vote.Vote.Target.Root, true
	}
	if !c.state.HasBlock(vote.Vote.Head.Root) {
		return vote.Vote.Head.Root, true
	}
	return lean.ZeroRoot, false
}

func (c *Core) hold(item lean.QueueItem, missing lean.Root) {
	added, evicted := c.backlog.Add(item, missing, c.now())
	if added {
		c.metrics.ItemHeld(kindOf(item))
		c.log.Debug().
			Str("kind", kindOf(item)).
			Str("missing", logging.Root(missing)).
			Msg("item held for missing dependency")
	}

	var missingRoots []lean.Root
	for _, held := range evicted {
		c.metrics.ItemEvicted(kindOf(held.Item))
		if block, ok := held.Item.(*lean.BlockItem); ok {
			c.gaps.HandleGap(block.Block)
			continue
		}
		missingRoots = appendRoot(missingRoots, held.Missing)
	}
	if len(missingRoots) > 0 {
		c.gaps.HandleBacklogPressure(missingRoots)
	}
}

// ScanBacklog reports items held longer than MaxHoldDuration as gaps. Items
// waiting for another held item are skipped: the gap is reported for the
// oldest missing ancestor only.
func (c *Core) ScanBacklog() {
	expired := c.backlog.Expired(c.now(), c.config.MaxHoldDuration)
	var missingRoots []lean.Root
	for _, held := range expired {
		if c.backlog.Has(held.Missing) {
			continue
		}
		c.metrics.ItemEscalated(kindOf(held.Item))
		switch it := held.Item.(type) {
		case *lean.BlockItem:
			logging.Block(c.log.Info(), it.Block).
				Dur("held", c.now().Sub(held.Since)).
				Msg("escalating block with missing parent")
			c.gaps.HandleGap(it.Block)
		case *lean.VoteItem:
			missingRoots = appendRoot(missingRoots, held.Missing)
		}
	}
	if len(missingRoots) > 0 {
		c.gaps.HandleBacklogPressure(missingRoots)
	}
}

func appendRoot(roots []lean.Root, root lean.Root) []lean.Root {
	if slices.Contains(roots, root) {
		return roots
	}
	return append(roots, root)
}

func (c *Core) notifyFinalization() {
	finalized := c.state.Finalized()
	if finalized.Slot <= c.finalized.Slot {
		return
	}
	c.finalized = finalized
	c.finalization.OnFinalized(finalized)
}

func kindOf(item lean.QueueItem) string {
	if _, ok := item.(*lean.VoteItem); ok {
		return metrics.KindVote
	}
	return metrics.KindBlock
}
