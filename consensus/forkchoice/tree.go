package forkchoice

import (
	"github.com/ReamLabs/ream-sub002/model/lean"
)

// Tree is read access to the block graph the fork choice runs on. All roots
// returned by Children are known to the tree.
type Tree interface {
	// Block returns the slot and parent of a known block.
	Block(root lean.Root) (slot lean.Slot, parent lean.Root, ok bool)

	// Children returns the roots of the known children of root, in any order.
	Children(root lean.Root) []lean.Root
}

// Known reports whether the checkpoint names a block of the tree at the
// checkpoint's slot.
func Known(tree Tree, cp lean.Checkpoint) bool {
	slot, _, ok := tree.Block(cp.Root)
	return ok && slot == cp.Slot
}

// IsAncestor reports whether ancestor is root or one of its ancestors.
func IsAncestor(tree Tree, ancestor lean.Root, root lean.Root) bool {
	ancestorSlot, _, ok := tree.Block(ancestor)
	if !ok {
		return false
	}
	for {
		if root == ancestor {
			return true
		}
		slot, parent, ok := tree.Block(root)
		if !ok || slot <= ancestorSlot {
			return false
		}
		root = parent
	}
}
