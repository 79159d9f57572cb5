package badgerimpl

import (
	"bytes"

	"github.com/dgraph-io/badger/v2"

	"github.com/ReamLabs/ream-sub002/storage"
)

type badgerIterator struct {
	tx         *badger.Txn
	iter       *badger.Iterator
	lowerBound []byte
	upperBound []byte // exclusive, nil if unbounded
}

var _ storage.Iterator = (*badgerIterator)(nil)

func newBadgerIterator(db *badger.DB, startPrefix, endPrefix []byte, ops storage.IteratorOption) *badgerIterator {
	options := badger.DefaultIteratorOptions
	if ops.BadgerIterateKeyOnly {
		options.PrefetchValues = false
	}

	tx := db.NewTransaction(false)
	iter := tx.NewIterator(options)

	lowerBound, upperBound := storage.StartEndPrefixToLowerUpperBound(startPrefix, endPrefix)

	return &badgerIterator{
		tx:         tx,
		iter:       iter,
		lowerBound: lowerBound,
		upperBound: upperBound,
	}
}

// First seeks to the smallest key greater than or equal to the given key.
func (i *badgerIterator) First() bool {
	i.iter.Seek(i.lowerBound)
	return i.Valid()
}

// Valid returns whether the iterator is positioned at a valid key-value pair.
func (i *badgerIterator) Valid() bool {
	// badger's iterator does not stop at the upper bound on its own
	if !i.iter.Valid() {
		return false
	}
	if i.upperBound == nil {
		return true
	}
	key := i.iter.Item().Key()
	return bytes.Compare(key, i.upperBound) < 0
}

// Next advances the iterator to the next key-value pair.
func (i *badgerIterator) Next() {
	i.iter.Next()
}

// IterItem returns the current key-value pair, or nil if done.
func (i *badgerIterator) IterItem() storage.IterItem {
	return i.iter.Item()
}

var _ storage.IterItem = (*badger.Item)(nil)

// Close closes the iterator. Iterator must be closed, otherwise it causes memory leak.
func (i *badgerIterator) Close() error {
	i.iter.Close()
	i.tx.Discard()
	return nil
}
