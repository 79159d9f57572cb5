package state

import (
	"fmt"

	"github.com/ReamLabs/ream-sub002/model/lean"
)

// BlockSource resolves blocks by root.
type BlockSource interface {
	ByRoot(root lean.Root) (*lean.SignedBlock, error)
}

// BlockSourceFunc adapts a function to a BlockSource.
type BlockSourceFunc func(root lean.Root) (*lean.SignedBlock, error)

func (f BlockSourceFunc) ByRoot(root lean.Root) (*lean.SignedBlock, error) {
	return f(root)
}

// functor that will be called on each block when traversing blocks.
type onVisitBlock = func(block *lean.SignedBlock) error

// functor that will be called on each block to know if we should continue traversing the chain.
type shouldContinue = func(block *lean.SignedBlock) bool

// TraverseBackward traverses a chain segment beginning with the start block (inclusive).
// Blocks are traversed in reverse slot order, following parent roots.
// The callback is called for each block in this segment.
// Return value of shouldContinue is used to decide if it should continue or not.
func TraverseBackward(source BlockSource, startRoot lean.Root, visitor onVisitBlock, shouldContinue shouldContinue) error {
	root := startRoot
	for {
		block, err := source.ByRoot(root)
		if err != nil {
			return fmt.Errorf("could not get block (%x): %w", root, err)
		}

		err = visitor(block)
		if err != nil {
			return err
		}

		if !shouldContinue(block) || block.Block.Slot == 0 {
			return nil
		}

		root = block.Block.ParentRoot
	}
}
