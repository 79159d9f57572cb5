package operation

import (
	"github.com/ReamLabs/ream-sub002/model/lean"
	"github.com/ReamLabs/ream-sub002/storage"
)

// Pending blocks were fetched from peers during sync and wait until their
// ancestry is complete. They are keyed by root and are not part of the chain.

func UpsertPendingBlock(w storage.Writer, root lean.Root, block *lean.SignedBlock) error {
	return UpsertByKey(w, MakePrefix(codePendingBlock, root), block)
}

// RetrievePendingBlock error returns:
//   - storage.ErrNotFound if no block with the root is staged
func RetrievePendingBlock(r storage.Reader, root lean.Root, block *lean.SignedBlock) error {
	return RetrieveByKey(r, MakePrefix(codePendingBlock, root), block)
}

func PendingBlockExists(r storage.Reader, root lean.Root) (bool, error) {
	return KeyExists(r, MakePrefix(codePendingBlock, root))
}

func RemovePendingBlock(w storage.Writer, root lean.Root) error {
	return RemoveByKey(w, MakePrefix(codePendingBlock, root))
}

// RemoveAllPendingBlocks drops every staged block.
func RemoveAllPendingBlocks(r storage.Reader, w storage.Writer) error {
	return RemoveByKeyPrefix(r, w, MakePrefix(codePendingBlock))
}

// CountPendingBlocks returns how many blocks are staged.
func CountPendingBlocks(r storage.Reader) (int, error) {
	count := 0
	err := IterateKeysByPrefixRange(r, MakePrefix(codePendingBlock), MakePrefix(codePendingBlock), func([]byte) error {
		count++
		return nil
	})
	return count, err
}

// IteratePendingBlocks calls fn for every staged block, in root order.
func IteratePendingBlocks(r storage.Reader, fn func(block *lean.SignedBlock) error) error {
	return TraverseByPrefix(r, MakePrefix(codePendingBlock), func(_ []byte, getValue func(any) error) (bool, error) {
		var block lean.SignedBlock
		if err := getValue(&block); err != nil {
			return true, err
		}
		if err := fn(&block); err != nil {
			return true, err
		}
		return false, nil
	}, storage.DefaultIteratorOptions())
}
