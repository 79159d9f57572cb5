package store

import (
	"fmt"

	"github.com/ReamLabs/ream-sub002/model/lean"
	"github.com/ReamLabs/ream-sub002/module"
	"github.com/ReamLabs/ream-sub002/module/metrics"
	"github.com/ReamLabs/ream-sub002/storage"
	"github.com/ReamLabs/ream-sub002/storage/operation"
)

// PendingBlocks implements storage.PendingBlocks on top of a storage.DB.
type PendingBlocks struct {
	db    storage.DB
	cache *Cache[lean.Root, *lean.SignedBlock]
}

var _ storage.PendingBlocks = (*PendingBlocks)(nil)

func NewPendingBlocks(collector module.CacheMetrics, db storage.DB) *PendingBlocks {
	retrieve := func(r storage.Reader, root lean.Root) (*lean.SignedBlock, error) {
		var block lean.SignedBlock
		err := operation.RetrievePendingBlock(r, root, &block)
		return &block, err
	}
	return &PendingBlocks{
		db: db,
		cache: newCache(collector, metrics.ResourcePendingBlock,
			withLimit[lean.Root, *lean.SignedBlock](DefaultCacheSize),
			withRetrieve[lean.Root, *lean.SignedBlock](retrieve)),
	}
}

func (p *PendingBlocks) Store(block *lean.SignedBlock) error {
	root := block.Root()
	return p.db.WithReaderBatchWriter(func(rw storage.ReaderBatchWriter) error {
		err := operation.UpsertPendingBlock(rw.Writer(), root, block)
		if err != nil {
			return fmt.Errorf("could not stage block %x: %w", root, err)
		}
		p.cache.InsertOnCommit(rw, root, block)
		return nil
	})
}

func (p *PendingBlocks) ByRoot(root lean.Root) (*lean.SignedBlock, error) {
	return p.cache.Get(p.db.Reader(), root)
}

func (p *PendingBlocks) Has(root lean.Root) (bool, error) {
	if p.cache.IsCached(root) {
		return true, nil
	}
	return operation.PendingBlockExists(p.db.Reader(), root)
}

func (p *PendingBlocks) Remove(roots ...lean.Root) error {
	if len(roots) == 0 {
		return nil
	}
	return p.db.WithReaderBatchWriter(func(rw storage.ReaderBatchWriter) error {
		for _, root := range roots {
			err := operation.RemovePendingBlock(rw.Writer(), root)
			if err != nil {
				return fmt.Errorf("could not unstage block %x: %w", root, err)
			}
			p.cache.RemoveOnCommit(rw, root)
		}
		return nil
	})
}

func (p *PendingBlocks) Count() (int, error) {
	return operation.CountPendingBlocks(p.db.Reader())
}

// PruneUpToSlot unstages all blocks at or below slot and returns how many
// were removed.
func (p *PendingBlocks) PruneUpToSlot(slot lean.Slot) (int, error) {
	var stale []lean.Root
	err := operation.IteratePendingBlocks(p.db.Reader(), func(block *lean.SignedBlock) error {
		if block.Block.Slot <= slot {
			stale = append(stale, block.Root())
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("could not iterate staged blocks: %w", err)
	}
	return len(stale), p.Remove(stale...)
}
