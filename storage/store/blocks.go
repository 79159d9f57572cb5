package store

import (
	"fmt"

	"github.com/ReamLabs/ream-sub002/model/lean"
	"github.com/ReamLabs/ream-sub002/module"
	"github.com/ReamLabs/ream-sub002/module/metrics"
	"github.com/ReamLabs/ream-sub002/storage"
	"github.com/ReamLabs/ream-sub002/storage/operation"
)

// Blocks implements storage.Blocks on top of a storage.DB.
type Blocks struct {
	db        storage.DB
	cache     *Cache[lean.Root, *lean.SignedBlock]
	canonical *Cache[lean.Slot, lean.Root]
}

var _ storage.Blocks = (*Blocks)(nil)

// DefaultCacheSize is the number of entries kept by each read cache.
const DefaultCacheSize = 1000

func NewBlocks(collector module.CacheMetrics, db storage.DB) *Blocks {
	retrieve := func(r storage.Reader, root lean.Root) (*lean.SignedBlock, error) {
		var block lean.SignedBlock
		err := operation.RetrieveBlock(r, root, &block)
		return &block, err
	}
	retrieveCanonical := func(r storage.Reader, slot lean.Slot) (lean.Root, error) {
		var root lean.Root
		err := operation.LookupCanonicalBlock(r, slot, &root)
		return root, err
	}

	return &Blocks{
		db: db,
		cache: newCache(collector, metrics.ResourceBlock,
			withLimit[lean.Root, *lean.SignedBlock](DefaultCacheSize),
			withRetrieve[lean.Root, *lean.SignedBlock](retrieve)),
		canonical: newCache(collector, metrics.ResourceCanonical,
			withLimit[lean.Slot, lean.Root](DefaultCacheSize),
			withRetrieve[lean.Slot, lean.Root](retrieveCanonical)),
	}
}

func (b *Blocks) BatchStore(rw storage.ReaderBatchWriter, block *lean.SignedBlock) error {
	root := block.Root()
	err := operation.InsertBlock(rw, root, block)
	if err != nil {
		return err
	}
	b.cache.InsertOnCommit(rw, root, block)
	return nil
}

func (b *Blocks) BatchRemove(rw storage.ReaderBatchWriter, root lean.Root, slot lean.Slot) error {
	err := operation.RemoveBlock(rw.Writer(), root, slot)
	if err != nil {
		return fmt.Errorf("could not remove block %x: %w", root, err)
	}
	b.cache.RemoveOnCommit(rw, root)
	return nil
}

func (b *Blocks) ByRoot(root lean.Root) (*lean.SignedBlock, error) {
	return b.cache.Get(b.db.Reader(), root)
}

func (b *Blocks) Exists(root lean.Root) (bool, error) {
	if b.cache.IsCached(root) {
		return true, nil
	}
	return operation.BlockExists(b.db.Reader(), root)
}

func (b *Blocks) BatchIndexCanonical(rw storage.ReaderBatchWriter, slot lean.Slot, root lean.Root) error {
	err := operation.IndexCanonicalBlock(rw.Writer(), slot, root)
	if err != nil {
		return fmt.Errorf("could not index canonical block at slot %d: %w", slot, err)
	}
	b.canonical.InsertOnCommit(rw, slot, root)
	return nil
}

func (b *Blocks) CanonicalRootBySlot(slot lean.Slot) (lean.Root, error) {
	return b.canonical.Get(b.db.Reader(), slot)
}

func (b *Blocks) All(fn func(block *lean.SignedBlock) error) error {
	return operation.IterateBlocks(b.db.Reader(), fn)
}
