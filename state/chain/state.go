package chain

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ReamLabs/ream-sub002/consensus/forkchoice"
	"github.com/ReamLabs/ream-sub002/model/lean"
	"github.com/ReamLabs/ream-sub002/module"
	"github.com/ReamLabs/ream-sub002/state"
	"github.com/ReamLabs/ream-sub002/storage"
	"github.com/ReamLabs/ream-sub002/utils/logging"
)

// canonicalFloor is the slot below which every checkpoint counts as
// canonical: the first slots are always justifiable and carry no fork risk.
const canonicalFloor = 5

type checkpoints struct {
	head        lean.Checkpoint
	justified   lean.Checkpoint
	finalized   lean.Checkpoint
	safeTarget  lean.Checkpoint
	attestation lean.Checkpoint
}

type voterSlot struct {
	validator uint64
	slot      lean.Slot
}

// State is the chain state store. It is the only writer of chain data: all
// mutations happen under the write lock and are persisted in one batch
// before they become visible to readers.
type State struct {
	mu         sync.RWMutex
	log        zerolog.Logger
	metrics    module.ChainMetrics
	params     lean.Params
	validators *lean.ValidatorSet
	db         storage.DB
	blocks     storage.Blocks

	tree          *blockTree
	votes         map[lean.Root]*lean.SignedVote
	bySlot        map[voterSlot][]*lean.SignedVote
	latest        map[uint64]*lean.Vote
	justification *forkchoice.Justification
	equivocations []lean.Equivocation
	cp            checkpoints
}

var _ state.MutableState = (*State)(nil)

func (s *State) Head() lean.Checkpoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cp.head
}

func (s *State) Justified() lean.Checkpoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cp.justified
}

func (s *State) Finalized() lean.Checkpoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cp.finalized
}

func (s *State) SafeTarget() lean.Checkpoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cp.safeTarget
}

func (s *State) AttestationTarget() lean.Checkpoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cp.attestation
}

func (s *State) Snapshot() state.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return state.Snapshot{
		Head:              s.cp.head,
		Justified:         s.cp.justified,
		Finalized:         s.cp.finalized,
		SafeTarget:        s.cp.safeTarget,
		AttestationTarget: s.cp.attestation,
		Blocks:            s.tree.len(),
		Votes:             len(s.votes),
	}
}

func (s *State) Status() lean.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lean.Status{Finalized: s.cp.finalized, Head: s.cp.head}
}

func (s *State) Validators() *lean.ValidatorSet {
	return s.validators
}

func (s *State) Params() lean.Params {
	return s.params
}

func (s *State) Block(root lean.Root) (*lean.SignedBlock, error) {
	s.mu.RLock()
	block := s.tree.get(root)
	s.mu.RUnlock()
	if block != nil {
		return block, nil
	}

	block, err := s.blocks.ByRoot(root)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("block %x: %w", root, state.ErrUnknownBlock)
	}
	if err != nil {
		return nil, fmt.Errorf("could not read block %x: %w", root, err)
	}
	return block, nil
}

// ByRoot makes the state a state.BlockSource.
func (s *State) ByRoot(root lean.Root) (*lean.SignedBlock, error) {
	return s.Block(root)
}

func (s *State) HasBlock(root lean.Root) bool {
	s.mu.RLock()
	inMemory := s.tree.has(root)
	s.mu.RUnlock()
	if inMemory {
		return true
	}
	exists, err := s.blocks.Exists(root)
	if err != nil {
		s.log.Error().Err(err).Str("root", logging.Root(root)).Msg("could not check block existence")
		return false
	}
	return exists
}

func (s *State) BlockRootBySlot(slot lean.Slot) (lean.Root, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.blockRootBySlot(slot)
}

// blockRootBySlot walks the canonical chain from the head in memory and
// falls back to the persisted index of finalized slots.
func (s *State) blockRootBySlot(slot lean.Slot) (lean.Root, error) {
	if slot > s.cp.head.Slot {
		return lean.ZeroRoot, fmt.Errorf("slot %d above head %d: %w", slot, s.cp.head.Slot, state.ErrUnknownBlock)
	}

	root := s.cp.head.Root
	for {
		block := s.tree.get(root)
		if block == nil {
			break
		}
		if block.Block.Slot == slot {
			return root, nil
		}
		if block.Block.Slot < slot {
			return lean.ZeroRoot, fmt.Errorf("slot %d is empty: %w", slot, state.ErrUnknownBlock)
		}
		root = block.Block.ParentRoot
	}

	root, err := s.blocks.CanonicalRootBySlot(slot)
	if errors.Is(err, storage.ErrNotFound) {
		return lean.ZeroRoot, fmt.Errorf("no canonical block at slot %d: %w", slot, state.ErrUnknownBlock)
	}
	if err != nil {
		return lean.ZeroRoot, fmt.Errorf("could not read canonical index: %w", err)
	}
	return root, nil
}

func (s *State) IsCanonicalCheckpoint(cp lean.Checkpoint) bool {
	if cp.Slot < canonicalFloor {
		return true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if cp.Slot > s.cp.head.Slot {
		return true
	}
	root, err := s.blockRootBySlot(cp.Slot)
	if err != nil {
		return false
	}
	return root == cp.Root
}

func (s *State) Equivocations() []lean.Equivocation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]lean.Equivocation, len(s.equivocations))
	copy(out, s.equivocations)
	return out
}

// forkChoice computes head, safe target and attestation target for the given
// latest votes and checkpoints. It must be called with the lock held.
func (s *State) forkChoice(latest map[uint64]*lean.Vote, justified, finalized lean.Checkpoint) (head, safe, attestation lean.Checkpoint) {
	weight := forkchoice.WeightFunc(s.validators.Weight)

	headRoot := forkchoice.Head(s.tree, justified.Root, latest, weight, 0)
	safeRoot := forkchoice.Head(s.tree, justified.Root, latest, weight, s.params.SafeTargetMinScore(s.validators.TotalWeight()))

	var ok bool
	head, ok = s.tree.checkpoint(headRoot)
	if !ok {
		head = justified
	}
	safe, ok = s.tree.checkpoint(safeRoot)
	if !ok {
		safe = justified
	}
	attestation, ok = forkchoice.AttestationTarget(s.tree, head.Root, safe.Root, finalized, s.params.JustificationLookbackSlots)
	if !ok {
		attestation = justified
	}
	return head, safe, attestation
}

// commit makes the new checkpoints visible. Must be called with the write lock held.
func (s *State) commit(next checkpoints) {
	prev := s.cp
	s.cp = next

	if prev.head != next.head {
		s.log.Info().
			Dict("head", logging.CheckpointDict(next.head)).
			Dict("previous", logging.CheckpointDict(prev.head)).
			Msg("head changed")
	}
	if prev.justified != next.justified {
		s.log.Info().Dict("justified", logging.CheckpointDict(next.justified)).Msg("justified checkpoint advanced")
	}
	if prev.finalized != next.finalized {
		s.log.Info().Dict("finalized", logging.CheckpointDict(next.finalized)).Msg("finalized checkpoint advanced")
	}

	s.metrics.HeadSlot(next.head.Slot)
	s.metrics.JustifiedSlot(next.justified.Slot)
	s.metrics.FinalizedSlot(next.finalized.Slot)
	s.metrics.SafeTargetSlot(next.safeTarget.Slot)
}

// checkMonotonic rejects checkpoint updates moving justified or finalized backwards.
func checkMonotonic(prev, next checkpoints) error {
	if next.justified.Slot < prev.justified.Slot {
		return fmt.Errorf("justified would move from %s to %s: %w", prev.justified, next.justified, state.ErrCheckpointRegression)
	}
	if next.finalized.Slot < prev.finalized.Slot {
		return fmt.Errorf("finalized would move from %s to %s: %w", prev.finalized, next.finalized, state.ErrCheckpointRegression)
	}
	if next.finalized.Slot > next.justified.Slot {
		return fmt.Errorf("finalized %s above justified %s: %w", next.finalized, next.justified, state.ErrCheckpointRegression)
	}
	return nil
}
