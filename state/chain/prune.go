package chain

import (
	"github.com/ReamLabs/ream-sub002/model/lean"
	"github.com/ReamLabs/ream-sub002/storage"
	"github.com/ReamLabs/ream-sub002/storage/operation"
)

// prunePlan lists what to drop once finalization advanced. Blocks in
// discard conflict with the finalized chain and are deleted everywhere;
// blocks in evict are finalized ancestry older than the retention window
// and only leave memory.
type prunePlan struct {
	finalized lean.Checkpoint
	discard   []*lean.SignedBlock
	evict     []lean.Root
	votes     []*lean.SignedVote
}

// planPrune must be called with the write lock held.
func (s *State) planPrune(finalized lean.Checkpoint, latest map[uint64]*lean.Vote) *prunePlan {
	plan := &prunePlan{finalized: finalized}
	ancestors := s.tree.ancestors(finalized.Root)

	var retainFrom lean.Slot
	if finalized.Slot > s.params.PruneRetentionSlots {
		retainFrom = finalized.Slot - s.params.PruneRetentionSlots
	}

	for root, block := range s.tree.blocks {
		slot := block.Block.Slot
		if slot >= finalized.Slot {
			continue
		}
		if _, ok := ancestors[root]; !ok {
			plan.discard = append(plan.discard, block)
			continue
		}
		if slot < retainFrom {
			plan.evict = append(plan.evict, root)
		}
	}

	for _, vote := range s.votes {
		if vote.Vote.Slot >= finalized.Slot {
			continue
		}
		if latest[vote.Vote.ValidatorIndex] == &vote.Vote {
			continue
		}
		plan.votes = append(plan.votes, vote)
	}
	return plan
}

func (p *prunePlan) persist(rw storage.ReaderBatchWriter, blocks storage.Blocks) error {
	for _, block := range p.discard {
		err := blocks.BatchRemove(rw, block.Root(), block.Block.Slot)
		if err != nil {
			return err
		}
	}
	for _, vote := range p.votes {
		err := operation.RemoveVote(rw.Writer(), vote.ID(), vote.Vote.Slot)
		if err != nil {
			return err
		}
	}
	return nil
}

// apply must be called with the write lock held, after persist succeeded.
func (p *prunePlan) apply(s *State) {
	for _, block := range p.discard {
		s.tree.remove(block.Root())
	}
	for _, root := range p.evict {
		s.tree.remove(root)
	}
	for _, vote := range p.votes {
		id := vote.ID()
		delete(s.votes, id)
		key := voterSlot{validator: vote.Vote.ValidatorIndex, slot: vote.Vote.Slot}
		remaining := s.bySlot[key][:0:0]
		for _, other := range s.bySlot[key] {
			if other.ID() != id {
				remaining = append(remaining, other)
			}
		}
		if len(remaining) == 0 {
			delete(s.bySlot, key)
		} else {
			s.bySlot[key] = remaining
		}
	}

	s.metrics.Pruned(len(p.discard), len(p.votes))
	s.log.Debug().
		Uint64("finalized_slot", p.finalized.Slot).
		Int("discarded_blocks", len(p.discard)).
		Int("evicted_blocks", len(p.evict)).
		Int("pruned_votes", len(p.votes)).
		Msg("pruned state below finalized checkpoint")
}
