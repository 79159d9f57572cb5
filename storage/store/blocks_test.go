package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ReamLabs/ream-sub002/model/lean"
	"github.com/ReamLabs/ream-sub002/module/metrics"
	"github.com/ReamLabs/ream-sub002/storage"
	"github.com/ReamLabs/ream-sub002/storage/store"
	"github.com/ReamLabs/ream-sub002/utils/unittest"
)

func TestBlocks_StoreAndRead(t *testing.T) {
	unittest.RunWithStorageDB(t, func(t *testing.T, db storage.DB) {
		blocks := store.NewBlocks(metrics.NewNoopCollector(), db)
		validators := unittest.ValidatorsFixture(t, 4)
		block := validators.BlockWithParent(t, unittest.GenesisFixture(), 1)

		_, err := blocks.ByRoot(block.Root())
		assert.ErrorIs(t, err, storage.ErrNotFound)

		require.NoError(t, db.WithReaderBatchWriter(func(rw storage.ReaderBatchWriter) error {
			if err := blocks.BatchStore(rw, block); err != nil {
				return err
			}
			return blocks.BatchIndexCanonical(rw, block.Block.Slot, block.Root())
		}))

		read, err := blocks.ByRoot(block.Root())
		require.NoError(t, err)
		assert.Equal(t, block.Root(), read.Root())

		exists, err := blocks.Exists(block.Root())
		require.NoError(t, err)
		assert.True(t, exists)

		root, err := blocks.CanonicalRootBySlot(1)
		require.NoError(t, err)
		assert.Equal(t, block.Root(), root)

		require.NoError(t, db.WithReaderBatchWriter(func(rw storage.ReaderBatchWriter) error {
			return blocks.BatchRemove(rw, block.Root(), block.Block.Slot)
		}))
		exists, err = blocks.Exists(block.Root())
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

// A block written in a failed batch is neither persisted nor cached.
func TestBlocks_FailedBatchNotCached(t *testing.T) {
	unittest.RunWithStorageDB(t, func(t *testing.T, db storage.DB) {
		blocks := store.NewBlocks(metrics.NewNoopCollector(), db)
		validators := unittest.ValidatorsFixture(t, 4)
		block := validators.BlockWithParent(t, unittest.GenesisFixture(), 1)

		err := db.WithReaderBatchWriter(func(rw storage.ReaderBatchWriter) error {
			if err := blocks.BatchStore(rw, block); err != nil {
				return err
			}
			return assert.AnError
		})
		require.ErrorIs(t, err, assert.AnError)

		exists, err := blocks.Exists(block.Root())
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestBlocks_All(t *testing.T) {
	unittest.RunWithStorageDB(t, func(t *testing.T, db storage.DB) {
		blocks := store.NewBlocks(metrics.NewNoopCollector(), db)
		validators := unittest.ValidatorsFixture(t, 4)
		chain := validators.ChainFixture(t, unittest.GenesisFixture(), 4)
		for _, block := range chain {
			require.NoError(t, db.WithReaderBatchWriter(func(rw storage.ReaderBatchWriter) error {
				return blocks.BatchStore(rw, block)
			}))
		}

		var roots []lean.Root
		require.NoError(t, blocks.All(func(block *lean.SignedBlock) error {
			roots = append(roots, block.Root())
			return nil
		}))
		require.Len(t, roots, 4)
		for i, block := range chain {
			assert.Equal(t, block.Root(), roots[i])
		}
	})
}

func TestPendingBlocks(t *testing.T) {
	unittest.RunWithStorageDB(t, func(t *testing.T, db storage.DB) {
		pending := store.NewPendingBlocks(metrics.NewNoopCollector(), db)
		validators := unittest.ValidatorsFixture(t, 4)
		chain := validators.ChainFixture(t, unittest.GenesisFixture(), 3)

		for _, block := range chain {
			require.NoError(t, pending.Store(block))
		}
		// storing twice is a no-op
		require.NoError(t, pending.Store(chain[0]))

		count, err := pending.Count()
		require.NoError(t, err)
		assert.Equal(t, 3, count)

		has, err := pending.Has(chain[1].Root())
		require.NoError(t, err)
		assert.True(t, has)

		require.NoError(t, pending.Remove(chain[0].Root(), chain[1].Root(), unittest.RootFixture()))
		has, err = pending.Has(chain[1].Root())
		require.NoError(t, err)
		assert.False(t, has)

		_, err = pending.ByRoot(chain[0].Root())
		assert.ErrorIs(t, err, storage.ErrNotFound)
		read, err := pending.ByRoot(chain[2].Root())
		require.NoError(t, err)
		assert.Equal(t, chain[2].Root(), read.Root())
	})
}

func TestPendingBlocks_PruneUpToSlot(t *testing.T) {
	unittest.RunWithStorageDB(t, func(t *testing.T, db storage.DB) {
		pending := store.NewPendingBlocks(metrics.NewNoopCollector(), db)
		validators := unittest.ValidatorsFixture(t, 4)
		chain := validators.ChainFixture(t, unittest.GenesisFixture(), 5)
		for _, block := range chain {
			require.NoError(t, pending.Store(block))
		}

		removed, err := pending.PruneUpToSlot(3)
		require.NoError(t, err)
		assert.Equal(t, 3, removed)

		count, err := pending.Count()
		require.NoError(t, err)
		assert.Equal(t, 2, count)
		for _, block := range chain[3:] {
			has, err := pending.Has(block.Root())
			require.NoError(t, err)
			assert.True(t, has)
		}
	})
}
