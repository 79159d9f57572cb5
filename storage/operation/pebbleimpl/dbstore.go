package pebbleimpl

import (
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/ReamLabs/ream-sub002/storage"
)

// ToDB wraps an open pebble database into a storage.DB.
func ToDB(db *pebble.DB) storage.DB {
	return &dbStore{db: db}
}

type dbStore struct {
	db *pebble.DB
}

var _ (storage.DB) = (*dbStore)(nil)

func (b *dbStore) Reader() storage.Reader {
	return dbReader{db: b.db}
}

func (b *dbStore) WithReaderBatchWriter(fn func(storage.ReaderBatchWriter) error) error {
	return WithReaderBatchWriter(b.db, fn)
}

func (b *dbStore) Close() error {
	return b.db.Close()
}

// Open opens (creating if needed) a pebble database in dir.
func Open(dir string) (*pebble.DB, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("could not open pebble db at %s: %w", dir, err)
	}
	return db, nil
}
