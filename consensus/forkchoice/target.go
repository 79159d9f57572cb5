package forkchoice

import (
	"github.com/ReamLabs/ream-sub002/model/lean"
)

// AttestationTarget returns the checkpoint a validator should vote for. It
// walks back from head towards the safe target by at most lookback blocks,
// then further back until it reaches a slot justifiable after finalized.
func AttestationTarget(tree Tree, head, safeTarget lean.Root, finalized lean.Checkpoint, lookback uint64) (lean.Checkpoint, bool) {
	safeSlot, _, ok := tree.Block(safeTarget)
	if !ok {
		return lean.Checkpoint{}, false
	}
	target := head
	slot, parent, ok := tree.Block(target)
	if !ok {
		return lean.Checkpoint{}, false
	}

	for i := uint64(0); i < lookback && slot > safeSlot; i++ {
		target = parent
		slot, parent, ok = tree.Block(target)
		if !ok {
			return lean.Checkpoint{}, false
		}
	}

	for {
		if slot <= finalized.Slot {
			return finalized, true
		}
		justifiable, err := IsJustifiableAfter(slot, finalized.Slot)
		if err == nil && justifiable {
			return lean.NewCheckpoint(target, slot), true
		}
		target = parent
		slot, parent, ok = tree.Block(target)
		if !ok {
			return lean.Checkpoint{}, false
		}
	}
}
