package operation

import (
	"errors"
	"fmt"

	"github.com/ReamLabs/ream-sub002/model/lean"
	"github.com/ReamLabs/ream-sub002/storage"
)

// InsertBlock stores a signed block under its root and indexes it by slot.
// Error returns:
//   - storage.ErrAlreadyExists if a block with the same root is already committed
func InsertBlock(rw storage.ReaderBatchWriter, root lean.Root, block *lean.SignedBlock) error {
	err := InsertByKey(rw, MakePrefix(codeBlock, root), block)
	if err != nil {
		return fmt.Errorf("could not insert block %x: %w", root, err)
	}
	return UpsertByKey(rw.Writer(), MakePrefix(codeSlotToBlock, block.Block.Slot, root), root)
}

// RetrieveBlock reads a block by root.
// Error returns:
//   - storage.ErrNotFound if no block is stored under root
func RetrieveBlock(r storage.Reader, root lean.Root, block *lean.SignedBlock) error {
	return RetrieveByKey(r, MakePrefix(codeBlock, root), block)
}

func BlockExists(r storage.Reader, root lean.Root) (bool, error) {
	return KeyExists(r, MakePrefix(codeBlock, root))
}

// RemoveBlock deletes a block and its slot index entry.
func RemoveBlock(w storage.Writer, root lean.Root, slot lean.Slot) error {
	err := RemoveByKey(w, MakePrefix(codeBlock, root))
	if err != nil {
		return err
	}
	return RemoveByKey(w, MakePrefix(codeSlotToBlock, slot, root))
}

// IterateBlocks calls fn for every stored block in ascending slot order.
// Blocks of the same slot are visited in ascending root order.
func IterateBlocks(r storage.Reader, fn func(block *lean.SignedBlock) error) error {
	var roots []lean.Root
	err := TraverseByPrefix(r, MakePrefix(codeSlotToBlock), func(_ []byte, getValue func(any) error) (bool, error) {
		var root lean.Root
		if err := getValue(&root); err != nil {
			return true, err
		}
		roots = append(roots, root)
		return false, nil
	}, storage.DefaultIteratorOptions())
	if err != nil {
		return fmt.Errorf("could not traverse slot index: %w", err)
	}

	for _, root := range roots {
		var block lean.SignedBlock
		err := RetrieveBlock(r, root, &block)
		if err != nil {
			return fmt.Errorf("slot index points to missing block %x: %w", root, err)
		}
		if err := fn(&block); err != nil {
			return err
		}
	}
	return nil
}

// IndexCanonicalBlock records root as the canonical block at slot, replacing any previous entry.
func IndexCanonicalBlock(w storage.Writer, slot lean.Slot, root lean.Root) error {
	return UpsertByKey(w, MakePrefix(codeCanonical, slot), root)
}

// LookupCanonicalBlock returns the canonical block root at slot.
// Error returns:
//   - storage.ErrNotFound if no canonical block is indexed at slot (empty slot or pruned)
func LookupCanonicalBlock(r storage.Reader, slot lean.Slot, root *lean.Root) error {
	return RetrieveByKey(r, MakePrefix(codeCanonical, slot), root)
}

// RemoveCanonicalRange drops the canonical index for every slot in [from, to].
func RemoveCanonicalRange(r storage.Reader, w storage.Writer, from, to lean.Slot) error {
	if from > to {
		return nil
	}
	return RemoveByKeyRange(r, w, MakePrefix(codeCanonical, from), MakePrefix(codeCanonical, to))
}

// InsertGenesis records the genesis root. A database is bootstrapped if and only if it is set.
func InsertGenesis(rw storage.ReaderBatchWriter, root lean.Root) error {
	return InsertByKey(rw, MakePrefix(codeGenesis), root)
}

// RetrieveGenesis reads the genesis root.
// Error returns:
//   - storage.ErrNotBootstrapped if the database has no genesis
func RetrieveGenesis(r storage.Reader, root *lean.Root) error {
	err := RetrieveByKey(r, MakePrefix(codeGenesis), root)
	if errors.Is(err, storage.ErrNotFound) {
		return storage.ErrNotBootstrapped
	}
	return err
}
