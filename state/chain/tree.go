package chain

import (
	"github.com/ReamLabs/ream-sub002/consensus/forkchoice"
	"github.com/ReamLabs/ream-sub002/model/lean"
)

// blockTree is the in-memory block graph. Blocks may be added before or
// after their parent, so children are indexed by parent root regardless of
// whether the parent is present.
type blockTree struct {
	blocks   map[lean.Root]*lean.SignedBlock
	children map[lean.Root][]lean.Root
}

var _ forkchoice.Tree = (*blockTree)(nil)

func newBlockTree() *blockTree {
	return &blockTree{
		blocks:   make(map[lean.Root]*lean.SignedBlock),
		children: make(map[lean.Root][]lean.Root),
	}
}

func (t *blockTree) Block(root lean.Root) (lean.Slot, lean.Root, bool) {
	block, ok := t.blocks[root]
	if !ok {
		return 0, lean.ZeroRoot, false
	}
	return block.Block.Slot, block.Block.ParentRoot, true
}

func (t *blockTree) Children(root lean.Root) []lean.Root {
	return t.children[root]
}

func (t *blockTree) get(root lean.Root) *lean.SignedBlock {
	return t.blocks[root]
}

func (t *blockTree) has(root lean.Root) bool {
	_, ok := t.blocks[root]
	return ok
}

func (t *blockTree) checkpoint(root lean.Root) (lean.Checkpoint, bool) {
	block, ok := t.blocks[root]
	if !ok {
		return lean.Checkpoint{}, false
	}
	return lean.NewCheckpoint(root, block.Block.Slot), true
}

func (t *blockTree) add(block *lean.SignedBlock) {
	root := block.Root()
	t.blocks[root] = block
	if block.Block.Slot == 0 {
		return
	}
	parent := block.Block.ParentRoot
	t.children[parent] = append(t.children[parent], root)
}

// remove drops a block. Its children stay in the tree.
func (t *blockTree) remove(root lean.Root) {
	block, ok := t.blocks[root]
	if !ok {
		return
	}
	delete(t.blocks, root)

	parent := block.Block.ParentRoot
	siblings := t.children[parent]
	for i, child := range siblings {
		if child == root {
			siblings = append(siblings[:i:i], siblings[i+1:]...)
			break
		}
	}
	if len(siblings) == 0 {
		delete(t.children, parent)
	} else {
		t.children[parent] = siblings
	}
}

// ancestors returns root and all of its ancestors present in the tree.
func (t *blockTree) ancestors(root lean.Root) map[lean.Root]struct{} {
	set := make(map[lean.Root]struct{})
	for {
		block, ok := t.blocks[root]
		if !ok {
			return set
		}
		set[root] = struct{}{}
		if block.Block.Slot == 0 {
			return set
		}
		root = block.Block.ParentRoot
	}
}

func (t *blockTree) len() int {
	return len(t.blocks)
}
