package forkchoice

import (
	"github.com/ReamLabs/ream-sub002/model/lean"
)

type testNode struct {
	slot   lean.Slot
	parent lean.Root
}

// testTree is a minimal in-memory Tree. Roots are assigned by name so tests
// can control the lowest-root tie-break.
type testTree struct {
	nodes    map[lean.Root]testNode
	children map[lean.Root][]lean.Root
}

func newTestTree(genesis lean.Root) *testTree {
	return &testTree{
		nodes:    map[lean.Root]testNode{genesis: {slot: 0}},
		children: make(map[lean.Root][]lean.Root),
	}
}

func (t *testTree) add(root lean.Root, slot lean.Slot, parent lean.Root) {
	t.nodes[root] = testNode{slot: slot, parent: parent}
	t.children[parent] = append(t.children[parent], root)
}

func (t *testTree) Block(root lean.Root) (lean.Slot, lean.Root, bool) {
	n, ok := t.nodes[root]
	return n.slot, n.parent, ok
}

func (t *testTree) Children(root lean.Root) []lean.Root {
	return t.children[root]
}

func (t *testTree) checkpoint(root lean.Root) lean.Checkpoint {
	return lean.NewCheckpoint(root, t.nodes[root].slot)
}

// r builds a root whose first byte is b.
func r(b byte) lean.Root {
	var root lean.Root
	root[0] = b
	return root
}

func unitWeight(uint64) uint64 { return 1 }

func vote(index uint64, slot lean.Slot, head, target, source lean.Checkpoint) *lean.Vote {
	return &lean.Vote{ValidatorIndex: index, Slot: slot, Head: head, Target: target, Source: source}
}
