package chainsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ReamLabs/ream-sub002/model/lean"
	"github.com/ReamLabs/ream-sub002/module"
	"github.com/ReamLabs/ream-sub002/module/irrecoverable"
	"github.com/ReamLabs/ream-sub002/state"
	"github.com/ReamLabs/ream-sub002/storage"
)

// ForwardResult is the outcome of a forward sync run: Completed or
// ChainIncomplete.
type ForwardResult interface {
	isForwardResult()
}

// Completed reports that the staged ancestry of Start was handed to ingestion.
type Completed struct {
	Start  lean.Checkpoint
	Blocks int
}

// ChainIncomplete reports that the staged ancestry of Start ends at Block,
// whose parent is neither known nor staged.
type ChainIncomplete struct {
	Start lean.Checkpoint
	Block *lean.SignedBlock
}

func (Completed) isForwardResult()       {}
func (ChainIncomplete) isForwardResult() {}

// ForwardSyncer replays the staged ancestry of a complete job queue into the
// ingestion queue, parent before child.
type ForwardSyncer struct {
	log     zerolog.Logger
	state   state.State
	pending storage.PendingBlocks
	queue   module.IngestionQueue
}

func NewForwardSyncer(log zerolog.Logger, st state.State, pending storage.PendingBlocks, queue module.IngestionQueue) *ForwardSyncer {
	return &ForwardSyncer{
		log:     log.With().Str("module", "forward_syncer").Logger(),
		state:   st,
		pending: pending,
		queue:   queue,
	}
}

// Run walks the staged blocks from start down to a block known locally and
// submits them to ingestion. Staged blocks are removed once submitted.
// Expected errors during normal operations:
//   - ErrQueueStartMissing if the start block is neither known nor staged
//   - context.Canceled / context.DeadlineExceeded if ctx is done while submitting
//   - the ingestion queue's shutdown error
// Storage failures are returned as exceptions.
func (f *ForwardSyncer) Run(ctx context.Context, start lean.Checkpoint) (ForwardResult, error) {
	var chain []*lean.SignedBlock
	root := start.Root
	for !f.state.HasBlock(root) {
		block, err := f.pending.ByRoot(root)
		if errors.Is(err, storage.ErrNotFound) {
			if len(chain) == 0 {
				return nil, fmt.Errorf("queue start %s: %w", start, ErrQueueStartMissing)
			}
			return ChainIncomplete{Start: start, Block: chain[len(chain)-1]}, nil
		}
		if err != nil {
			return nil, irrecoverable.NewExceptionf("could not read staged block %x: %w", root, err)
		}
		chain = append(chain, block)
		root = block.Block.ParentRoot
	}

	roots := make([]lean.Root, 0, len(chain))
	for i := len(chain) - 1; i >= 0; i-- {
		err := f.queue.SubmitWait(ctx, lean.NewBlockItem("", chain[i]))
		if err != nil {
			return nil, fmt.Errorf("could not submit staged block: %w", err)
		}
		roots = append(roots, chain[i].Root())
	}

	err := f.pending.Remove(roots...)
	if err != nil {
		return nil, irrecoverable.NewExceptionf("could not unstage submitted blocks: %w", err)
	}

	f.log.Debug().
		Str("start", start.String()).
		Int("blocks", len(chain)).
		Msg("staged ancestry submitted")
	return Completed{Start: start, Blocks: len(chain)}, nil
}
