package pebbleimpl

import (
	"github.com/cockroachdb/pebble"

	"github.com/ReamLabs/ream-sub002/storage"
	"github.com/ReamLabs/ream-sub002/storage/operation"
)

type ReaderBatchWriter struct {
	globalReader storage.Reader
	batch        *pebble.Batch

	callbacks operation.Callbacks
}

var _ storage.ReaderBatchWriter = (*ReaderBatchWriter)(nil)

// GlobalReader returns a database-backed reader which reads the latest committed global database state ("read-committed isolation").
// This reader will not read writes written to ReaderBatchWriter.Writer until the write batch is committed.
func (b *ReaderBatchWriter) GlobalReader() storage.Reader {
	return b.globalReader
}

func (b *ReaderBatchWriter) Writer() storage.Writer {
	return b
}

func (b *ReaderBatchWriter) AddCallback(callback func(error)) {
	b.callbacks.AddCallback(callback)
}

// Commit writes the batch durably.
// No errors expected during normal operation
func (b *ReaderBatchWriter) Commit() error {
	err := b.batch.Commit(pebble.Sync)

	b.callbacks.NotifyCallbacks(err)

	return err
}

func (b *ReaderBatchWriter) Close() error {
	return b.batch.Close()
}

func WithReaderBatchWriter(db *pebble.DB, fn func(storage.ReaderBatchWriter) error) error {
	batch := NewReaderBatchWriter(db)
	defer batch.Close() // Release memory

	err := fn(batch)
	if err != nil {
		// fn might hold a lock that is released by a callback, so the
		// callbacks run even if the batch is never committed.
		batch.callbacks.NotifyCallbacks(err)
		return err
	}

	return batch.Commit()
}

func NewReaderBatchWriter(db *pebble.DB) *ReaderBatchWriter {
	return &ReaderBatchWriter{
		globalReader: ToReader(db),
		batch:        db.NewBatch(),
	}
}

var _ storage.Writer = (*ReaderBatchWriter)(nil)

// Set sets the value for the given key. It overwrites any previous value
// for that key; a DB is not a multi-map.
// No errors expected during normal operation
func (b *ReaderBatchWriter) Set(key, value []byte) error {
	return b.batch.Set(key, value, pebble.Sync)
}

// Delete deletes the value for the given key. Deletes are blind all will
// succeed even if the given key does not exist.
// No errors expected during normal operation
func (b *ReaderBatchWriter) Delete(key []byte) error {
	return b.batch.Delete(key, pebble.Sync)
}

// DeleteByRange deletes all keys with a prefix in the range [startPrefix, endPrefix] (both inclusive).
// No errors expected during normal operation
func (b *ReaderBatchWriter) DeleteByRange(_ storage.Reader, startPrefix, endPrefix []byte) error {
	// DeleteRange takes the prefix range with start (inclusive) and end (exclusive, note: not inclusive).
	// therefore, we need to increment the endPrefix to make it inclusive.
	start, end := storage.StartEndPrefixToLowerUpperBound(startPrefix, endPrefix)
	if end == nil {
		// endPrefix is all 0xff, pebble needs an explicit bound
		end = append(append([]byte{}, endPrefix...), 0xff)
	}
	return b.batch.DeleteRange(start, end, pebble.Sync)
}
