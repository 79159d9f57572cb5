package operation_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ReamLabs/ream-sub002/storage"
	"github.com/ReamLabs/ream-sub002/storage/operation"
	"github.com/ReamLabs/ream-sub002/utils/unittest"
)

type entity struct {
	ID    uint64
	Label string
}

func TestUpsertRetrieve(t *testing.T) {
	unittest.RunWithStorageDB(t, func(t *testing.T, db storage.DB) {
		key := operation.MakePrefix(0x70, uint64(1))
		e := entity{ID: 1, Label: "one"}

		require.NoError(t, db.WithReaderBatchWriter(storage.OnlyWriter(func(w storage.Writer) error {
			return operation.UpsertByKey(w, key, e)
		})))

		var read entity
		require.NoError(t, operation.RetrieveByKey(db.Reader(), key, &read))
		assert.Equal(t, e, read)

		exists, err := operation.KeyExists(db.Reader(), key)
		require.NoError(t, err)
		assert.True(t, exists)
	})
}

func TestRetrieve_NotFound(t *testing.T) {
	unittest.RunWithStorageDB(t, func(t *testing.T, db storage.DB) {
		var read entity
		err := operation.RetrieveByKey(db.Reader(), operation.MakePrefix(0x70, uint64(9)), &read)
		assert.ErrorIs(t, err, storage.ErrNotFound)

		exists, err := operation.KeyExists(db.Reader(), operation.MakePrefix(0x70, uint64(9)))
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestInsertByKey_AlreadyExists(t *testing.T) {
	unittest.RunWithStorageDB(t, func(t *testing.T, db storage.DB) {
		key := operation.MakePrefix(0x70, uint64(2))
		insert := func(rw storage.ReaderBatchWriter) error {
			return operation.InsertByKey(rw, key, entity{ID: 2})
		}
		require.NoError(t, db.WithReaderBatchWriter(insert))
		err := db.WithReaderBatchWriter(insert)
		assert.ErrorIs(t, err, storage.ErrAlreadyExists)
	})
}

// Keys are visited in ascending order, both range ends inclusive, and keys
// outside the range are skipped.
func TestIterateKeys_Range(t *testing.T) {
	unittest.RunWithStorageDB(t, func(t *testing.T, db storage.DB) {
		require.NoError(t, db.WithReaderBatchWriter(storage.OnlyWriter(func(w storage.Writer) error {
			for i := uint64(0); i < 10; i++ {
				if err := operation.UpsertByKey(w, operation.MakePrefix(0x71, i), entity{ID: i}); err != nil {
					return err
				}
			}
			// a different code must not be visited
			return operation.UpsertByKey(w, operation.MakePrefix(0x72, uint64(0)), entity{ID: 100})
		})))

		var seen []uint64
		err := operation.IterateKeys(db.Reader(), operation.MakePrefix(0x71, uint64(3)), operation.MakePrefix(0x71, uint64(6)),
			func(_ []byte, getValue func(any) error) (bool, error) {
				var e entity
				if err := getValue(&e); err != nil {
					return true, err
				}
				seen = append(seen, e.ID)
				return false, nil
			}, storage.DefaultIteratorOptions())
		require.NoError(t, err)
		assert.Equal(t, []uint64{3, 4, 5, 6}, seen)

		count := 0
		err = operation.IterateKeysByPrefixRange(db.Reader(), operation.MakePrefix(0x71), operation.MakePrefix(0x71), func([]byte) error {
			count++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 10, count)
	})
}

func TestIterateKeys_Bail(t *testing.T) {
	unittest.RunWithStorageDB(t, func(t *testing.T, db storage.DB) {
		require.NoError(t, db.WithReaderBatchWriter(storage.OnlyWriter(func(w storage.Writer) error {
			for i := uint64(0); i < 5; i++ {
				if err := operation.UpsertByKey(w, operation.MakePrefix(0x73, i), entity{ID: i}); err != nil {
					return err
				}
			}
			return nil
		})))

		visited := 0
		err := operation.TraverseByPrefix(db.Reader(), operation.MakePrefix(0x73), func([]byte, func(any) error) (bool, error) {
			visited++
			return visited == 2, nil
		}, storage.DefaultIteratorOptions())
		require.NoError(t, err)
		assert.Equal(t, 2, visited)

		sentinel := errors.New("stop")
		err = operation.TraverseByPrefix(db.Reader(), operation.MakePrefix(0x73), func([]byte, func(any) error) (bool, error) {
			return true, sentinel
		}, storage.DefaultIteratorOptions())
		assert.ErrorIs(t, err, sentinel)
	})
}

func TestIterateKeys_InvalidRange(t *testing.T) {
	unittest.RunWithStorageDB(t, func(t *testing.T, db storage.DB) {
		err := operation.IterateKeysByPrefixRange(db.Reader(), []byte{0x02}, []byte{0x01}, func([]byte) error { return nil })
		assert.Error(t, err)
		err = operation.IterateKeysByPrefixRange(db.Reader(), nil, []byte{0x01}, func([]byte) error { return nil })
		assert.Error(t, err)
	})
}

func TestRemoveByKeyRange(t *testing.T) {
	unittest.RunWithStorageDB(t, func(t *testing.T, db storage.DB) {
		require.NoError(t, db.WithReaderBatchWriter(storage.OnlyWriter(func(w storage.Writer) error {
			for i := uint64(0); i < 10; i++ {
				if err := operation.UpsertByKey(w, operation.MakePrefix(0x74, i), entity{ID: i}); err != nil {
					return err
				}
			}
			return nil
		})))

		require.NoError(t, db.WithReaderBatchWriter(func(rw storage.ReaderBatchWriter) error {
			return operation.RemoveByKeyRange(rw.GlobalReader(), rw.Writer(), operation.MakePrefix(0x74, uint64(2)), operation.MakePrefix(0x74, uint64(7)))
		}))

		var remaining []uint64
		err := operation.TraverseByPrefix(db.Reader(), operation.MakePrefix(0x74), func(_ []byte, getValue func(any) error) (bool, error) {
			var e entity
			if err := getValue(&e); err != nil {
				return true, err
			}
			remaining = append(remaining, e.ID)
			return false, nil
		}, storage.DefaultIteratorOptions())
		require.NoError(t, err)
		assert.Equal(t, []uint64{0, 1, 8, 9}, remaining)
	})
}

// A failed batch writes nothing, and callbacks see the error.
func TestBatch_RollbackAndCallbacks(t *testing.T) {
	unittest.RunWithStorageDB(t, func(t *testing.T, db storage.DB) {
		key := operation.MakePrefix(0x75, uint64(1))
		failure := errors.New("abort")

		var callbackErr error
		called := false
		err := db.WithReaderBatchWriter(func(rw storage.ReaderBatchWriter) error {
			rw.AddCallback(func(err error) {
				called = true
				callbackErr = err
			})
			if err := operation.UpsertByKey(rw.Writer(), key, entity{ID: 1}); err != nil {
				return err
			}
			return failure
		})
		assert.ErrorIs(t, err, failure)
		assert.True(t, called)
		assert.ErrorIs(t, callbackErr, failure)

		exists, err := operation.KeyExists(db.Reader(), key)
		require.NoError(t, err)
		assert.False(t, exists)

		succeeded := false
		require.NoError(t, db.WithReaderBatchWriter(func(rw storage.ReaderBatchWriter) error {
			storage.OnCommitSucceed(rw, func() { succeeded = true })
			return operation.UpsertByKey(rw.Writer(), key, entity{ID: 1})
		}))
		assert.True(t, succeeded)
	})
}
