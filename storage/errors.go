package storage

import (
	"errors"
)

var (
	// ErrNotFound is returned when a key does not exist. Backend specific
	// not-found errors (badger.ErrKeyNotFound, pebble.ErrNotFound) are always
	// converted to it.
	ErrNotFound = errors.New("key not found")

	// ErrAlreadyExists is returned when inserting under a key that is already taken.
	ErrAlreadyExists = errors.New("key already exists")

	// ErrDataMismatch is returned when a key already holds different data.
	ErrDataMismatch = errors.New("data for key is different")

	// ErrNotBootstrapped is returned when the database holds no genesis.
	ErrNotBootstrapped = errors.New("database not bootstrapped")
)
