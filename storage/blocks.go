package storage

import (
	"github.com/ReamLabs/ream-sub002/model/lean"
)

// Blocks provides persistent storage for blocks that are part of the chain.
type Blocks interface {
	// BatchStore adds the block to the write batch and indexes it by slot.
	// Error returns:
	//   - ErrAlreadyExists if a block with the same root is already committed
	BatchStore(rw ReaderBatchWriter, block *lean.SignedBlock) error

	// BatchRemove deletes the block and its slot index in the write batch.
	BatchRemove(rw ReaderBatchWriter, root lean.Root, slot lean.Slot) error

	// ByRoot returns the block with the given root.
	// Error returns:
	//   - ErrNotFound if no block is stored under root
	ByRoot(root lean.Root) (*lean.SignedBlock, error)

	// Exists reports whether a block with the given root is stored.
	Exists(root lean.Root) (bool, error)

	// BatchIndexCanonical records root as the canonical block at slot.
	BatchIndexCanonical(rw ReaderBatchWriter, slot lean.Slot, root lean.Root) error

	// CanonicalRootBySlot returns the root of the canonical block at slot.
	// Error returns:
	//   - ErrNotFound if the slot is empty on the canonical chain or not indexed yet
	CanonicalRootBySlot(slot lean.Slot) (lean.Root, error)

	// All calls fn for every stored block, lower slots first.
	All(fn func(block *lean.SignedBlock) error) error
}

// PendingBlocks stages blocks fetched by sync whose ancestry is not yet
// complete. Staged blocks are not part of the chain.
type PendingBlocks interface {
	// Store stages the block. Storing a block twice is a no-op.
	Store(block *lean.SignedBlock) error

	// ByRoot returns a staged block.
	// Error returns:
	//   - ErrNotFound if no block with the root is staged
	ByRoot(root lean.Root) (*lean.SignedBlock, error)

	// Has reports whether a block with the given root is staged.
	Has(root lean.Root) (bool, error)

	// Remove unstages the given blocks. Unknown roots are ignored.
	Remove(roots ...lean.Root) error

	// Count returns how many blocks are staged.
	Count() (int, error)

	// PruneUpToSlot unstages all blocks at or below slot.
	PruneUpToSlot(slot lean.Slot) (int, error)
}
