package operation

import (
	"fmt"

	"github.com/ReamLabs/ream-sub002/storage"
)

// UpsertByKey will encode the given entity and upsert the binary data
// under the given key in the badger DB.
// No errors are expected during normal operation.
func UpsertByKey(w storage.Writer, key []byte, val any) error {
	value, err := encodeEntity(val)
	if err != nil {
		return err
	}

	err = w.Set(key, value)
	if err != nil {
		return fmt.Errorf("failed to store data: %w", err)
	}
	return nil
}

// InsertByKey is UpsertByKey that refuses to overwrite: it returns
// storage.ErrAlreadyExists if the key is taken in the committed state.
func InsertByKey(rw storage.ReaderBatchWriter, key []byte, val any) error {
	exists, err := KeyExists(rw.GlobalReader(), key)
	if err != nil {
		return err
	}
	if exists {
		return storage.ErrAlreadyExists
	}
	return UpsertByKey(rw.Writer(), key, val)
}

// RemoveByKey removes the entity with the given key, if it exists. If it doesn't
// exist, this is a no-op.
// No errors are expected during normal operation.
func RemoveByKey(w storage.Writer, key []byte) error {
	err := w.Delete(key)
	if err != nil {
		return fmt.Errorf("could not delete item: %w", err)
	}
	return nil
}

// RemoveByKeyPrefix removes all keys with the given prefix
// No errors are expected during normal operation.
func RemoveByKeyPrefix(reader storage.Reader, w storage.Writer, prefix []byte) error {
	return RemoveByKeyRange(reader, w, prefix, prefix)
}

// RemoveByKeyRange removes all keys with a prefix that falls within the range [start, end], both inclusive.
// It returns error if endPrefix < startPrefix
// no other errors are expected during normal operation
func RemoveByKeyRange(reader storage.Reader, w storage.Writer, startPrefix []byte, endPrefix []byte) error {
	err := w.DeleteByRange(reader, startPrefix, endPrefix)
	if err != nil {
		return fmt.Errorf("failed to delete range [%x, %x]: %w", startPrefix, endPrefix, err)
	}
	return nil
}
