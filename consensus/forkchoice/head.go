package forkchoice

import (
	"github.com/ReamLabs/ream-sub002/model/lean"
)

// WeightFunc returns the voting weight of a validator.
type WeightFunc func(validatorIndex uint64) uint64

// Weights attributes the weight of every latest vote to the vote's head and
// each of its ancestors strictly above the start slot. Votes whose head is
// unknown carry no weight.
func Weights(tree Tree, startSlot lean.Slot, latest map[uint64]*lean.Vote, weight WeightFunc) map[lean.Root]uint64 {
	weights := make(map[lean.Root]uint64)
	for index, vote := range latest {
		w := weight(index)
		if w == 0 {
			continue
		}
		root := vote.Head.Root
		for {
			slot, parent, ok := tree.Block(root)
			if !ok || slot <= startSlot {
				break
			}
			weights[root] += w
			root = parent
		}
	}
	return weights
}

// Head runs LMD-GHOST from start: it repeatedly descends into the child with
// the greatest weight until it reaches a leaf. Ties are broken by the lowest
// root. Children weighing less than minScore are not considered, which makes
// Head with a positive minScore stop early on weakly supported branches.
func Head(tree Tree, start lean.Root, latest map[uint64]*lean.Vote, weight WeightFunc, minScore uint64) lean.Root {
	startSlot, _, ok := tree.Block(start)
	if !ok {
		return start
	}
	weights := Weights(tree, startSlot, latest, weight)

	current := start
	for {
		best, found := bestChild(tree.Children(current), weights, minScore)
		if !found {
			return current
		}
		current = best
	}
}

func bestChild(children []lean.Root, weights map[lean.Root]uint64, minScore uint64) (lean.Root, bool) {
	var (
		best       lean.Root
		bestWeight uint64
		found      bool
	)
	for _, child := range children {
		w := weights[child]
		if w < minScore {
			continue
		}
		if !found || w > bestWeight || (w == bestWeight && child.Less(best)) {
			best, bestWeight, found = child, w, true
		}
	}
	return best, found
}
