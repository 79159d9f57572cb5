package chain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ReamLabs/ream-sub002/consensus/forkchoice"
	"github.com/ReamLabs/ream-sub002/model/lean"
	"github.com/ReamLabs/ream-sub002/module/irrecoverable"
	"github.com/ReamLabs/ream-sub002/state"
	"github.com/ReamLabs/ream-sub002/storage"
	"github.com/ReamLabs/ream-sub002/storage/operation"
	"github.com/ReamLabs/ream-sub002/utils/logging"
)

// ApplyBlock adds a block to the chain and recomputes the head.
// Expected errors during normal operations:
//   - state.ErrUnknownParent if the parent block is not part of the state
//   - state.ErrAlreadyKnown if the block was applied before
//   - state.InvalidBlockError if the block's slot is not above its parent's
func (s *State) ApplyBlock(ctx context.Context, block *lean.SignedBlock) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	root := block.Root()

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing := s.tree.get(root); existing != nil {
		if !bytes.Equal(existing.Signature, block.Signature) {
			return irrecoverable.NewExceptionf("block %x is already known with a different signature", root)
		}
		return fmt.Errorf("block %x: %w", root, state.ErrAlreadyKnown)
	}
	onDisk, err := s.blocks.Exists(root)
	if err != nil {
		return fmt.Errorf("could not check whether block %x is stored: %w", root, err)
	}
	if onDisk {
		return fmt.Errorf("block %x: %w", root, state.ErrAlreadyKnown)
	}

	parent := s.tree.get(block.Block.ParentRoot)
	if parent == nil {
		return fmt.Errorf("block %x at slot %d: %w", root, block.Block.Slot, state.ErrUnknownParent)
	}
	if block.Block.Slot <= parent.Block.Slot {
		return state.NewInvalidBlockErrorf(root, "slot %d is not above parent slot %d", block.Block.Slot, parent.Block.Slot)
	}

	// the block is inserted tentatively so the fork choice can see it, and
	// removed again if it cannot be persisted
	s.tree.add(block)

	start := time.Now()
	next := s.cp
	next.head, next.safeTarget, next.attestation = s.forkChoice(s.latest, s.cp.justified, s.cp.finalized)
	s.metrics.ForkChoiceDuration(time.Since(start))

	err = s.db.WithReaderBatchWriter(func(rw storage.ReaderBatchWriter) error {
		err := s.blocks.BatchStore(rw, block)
		if err != nil {
			return fmt.Errorf("could not store block: %w", err)
		}
		return writeCheckpoints(rw.Writer(), next)
	})
	if err != nil {
		s.tree.remove(root)
		if errors.Is(err, storage.ErrAlreadyExists) {
			return fmt.Errorf("block %x: %w", root, state.ErrAlreadyKnown)
		}
		return fmt.Errorf("could not persist block %x: %w", root, err)
	}

	s.metrics.BlockApplied()
	logging.Block(s.log.Debug(), block).Msg("block applied")
	s.commit(next)
	return nil
}

// ApplyVote records a vote, advances justification and finalization, and
// recomputes the head.
// Expected errors during normal operations:
//   - state.ErrUnknownTarget if the target or head block is not part of the state
//   - state.ErrAlreadyKnown if the same signed vote was applied before
func (s *State) ApplyVote(ctx context.Context, signed *lean.SignedVote) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id := signed.ID()
	vote := &signed.Vote

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.votes[id]; ok {
		return fmt.Errorf("vote %x: %w", id, state.ErrAlreadyKnown)
	}
	if !s.tree.has(vote.Target.Root) {
		return fmt.Errorf("target %s of vote %x: %w", vote.Target, id, state.ErrUnknownTarget)
	}
	if !s.tree.has(vote.Head.Root) {
		return fmt.Errorf("head %s of vote %x: %w", vote.Head, id, state.ErrUnknownTarget)
	}

	// everything below works on copies so that a failed write leaves the
	// state untouched
	justification := s.justification.Copy()
	outcome := justification.Process(s.tree, s.validators, s.cp.finalized, s.cp.justified, vote)

	next := s.cp
	if outcome.NewJustified {
		next.justified = outcome.Justified
	}
	if outcome.NewFinalized {
		next.finalized = outcome.Finalized
	}
	err := checkMonotonic(s.cp, next)
	if err != nil {
		return err
	}

	latest := s.latest
	current, ok := s.latest[vote.ValidatorIndex]
	if !ok || forkchoice.Supersedes(vote, current) {
		latest = make(map[uint64]*lean.Vote, len(s.latest)+1)
		for index, v := range s.latest {
			latest[index] = v
		}
		latest[vote.ValidatorIndex] = vote
	}

	start := time.Now()
	next.head, next.safeTarget, next.attestation = s.forkChoice(latest, next.justified, next.finalized)
	s.metrics.ForkChoiceDuration(time.Since(start))

	key := voterSlot{validator: vote.ValidatorIndex, slot: vote.Slot}
	var equivocations []lean.Equivocation
	for _, other := range s.bySlot[key] {
		equivocations = append(equivocations, lean.Equivocation{
			ValidatorIndex: vote.ValidatorIndex,
			Slot:           vote.Slot,
			First:          other,
			Second:         signed,
		})
	}

	var plan *prunePlan
	if outcome.NewFinalized {
		justification.Prune(next.finalized)
		plan = s.planPrune(next.finalized, latest)
	}

	err = s.db.WithReaderBatchWriter(func(rw storage.ReaderBatchWriter) error {
		err := operation.InsertVote(rw, signed)
		if err != nil {
			return fmt.Errorf("could not store vote: %w", err)
		}
		if outcome.Counted || plan != nil {
			err = operation.UpsertJustification(rw.Writer(), justification.Record())
			if err != nil {
				return fmt.Errorf("could not store justification: %w", err)
			}
		}
		err = writeCheckpoints(rw.Writer(), next)
		if err != nil {
			return err
		}
		if plan != nil {
			err = s.indexFinalized(rw, s.cp.finalized, next.finalized)
			if err != nil {
				return fmt.Errorf("could not index finalized blocks: %w", err)
			}
			err = plan.persist(rw, s.blocks)
			if err != nil {
				return fmt.Errorf("could not prune: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return fmt.Errorf("vote %x: %w", id, state.ErrAlreadyKnown)
		}
		return fmt.Errorf("could not persist vote %x: %w", id, err)
	}

	s.votes[id] = signed
	s.bySlot[key] = append(s.bySlot[key], signed)
	s.latest = latest
	s.justification = justification
	for _, e := range equivocations {
		s.log.Warn().
			Uint64("validator", e.ValidatorIndex).
			Uint64("slot", e.Slot).
			Str("first", logging.Root(e.First.ID())).
			Str("second", logging.Root(e.Second.ID())).
			Msg("validator equivocated")
		s.metrics.EquivocationDetected()
	}
	s.equivocations = append(s.equivocations, equivocations...)
	s.metrics.VoteApplied()

	if plan != nil {
		plan.apply(s)
	}
	s.commit(next)
	return nil
}

// RecomputeHead reruns the fork choice and persists the result.
func (s *State) RecomputeHead(ctx context.Context) (lean.Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return lean.Checkpoint{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	next := s.cp
	next.head, next.safeTarget, next.attestation = s.forkChoice(s.latest, s.cp.justified, s.cp.finalized)
	s.metrics.ForkChoiceDuration(time.Since(start))
	if next == s.cp {
		return next.head, nil
	}

	err := s.db.WithReaderBatchWriter(storage.OnlyWriter(func(w storage.Writer) error {
		return writeCheckpoints(w, next)
	}))
	if err != nil {
		return lean.Checkpoint{}, fmt.Errorf("could not persist checkpoints: %w", err)
	}
	s.commit(next)
	return next.head, nil
}

// indexFinalized records the canonical root of every non-empty slot in
// (from, to] along the ancestry of to.
func (s *State) indexFinalized(rw storage.ReaderBatchWriter, from, to lean.Checkpoint) error {
	root := to.Root
	for {
		block := s.tree.get(root)
		if block == nil || block.Block.Slot <= from.Slot {
			return nil
		}
		err := s.blocks.BatchIndexCanonical(rw, block.Block.Slot, root)
		if err != nil {
			return err
		}
		root = block.Block.ParentRoot
	}
}

func writeCheckpoints(w storage.Writer, cp checkpoints) error {
	for kind, value := range map[operation.CheckpointKind]lean.Checkpoint{
		operation.CheckpointHead:      cp.head,
		operation.CheckpointJustified: cp.justified,
		operation.CheckpointFinalized: cp.finalized,
		operation.CheckpointSafe:      cp.safeTarget,
	} {
		err := operation.UpsertCheckpoint(w, kind, value)
		if err != nil {
			return fmt.Errorf("could not store %s checkpoint: %w", kind, err)
		}
	}
	return nil
}
