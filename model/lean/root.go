package lean

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"

	"golang.org/x/crypto/sha3"
)

// RootLength is the size of a content hash in bytes.
const RootLength = 32

// Root is the content hash identifying a block, a vote or a checkpoint target.
type Root [RootLength]byte

// ZeroRoot is the root of nothing. Genesis uses it as its parent.
var ZeroRoot = Root{}

// Slot is the discrete unit of logical chain time.
type Slot = uint64

func (r Root) String() string {
	return hex.EncodeToString(r[:])
}

// TerminalString returns a short form for logs.
func (r Root) TerminalString() string {
	return hex.EncodeToString(r[:4])
}

func (r Root) IsZero() bool {
	return r == ZeroRoot
}

// Compare orders roots by their byte content.
func (r Root) Compare(other Root) int {
	return bytes.Compare(r[:], other[:])
}

// Less reports whether r sorts before other.
func (r Root) Less(other Root) bool {
	return r.Compare(other) < 0
}

// RootFromBytes copies b into a Root. b must be exactly RootLength long.
func RootFromBytes(b []byte) (Root, error) {
	var r Root
	if len(b) != RootLength {
		return r, fmt.Errorf("invalid root length %d, expected %d", len(b), RootLength)
	}
	copy(r[:], b)
	return r, nil
}

// HexToRoot parses a hex encoded root.
func HexToRoot(s string) (Root, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return ZeroRoot, fmt.Errorf("could not decode hex root: %w", err)
	}
	return RootFromBytes(b)
}

// MustHexToRoot is HexToRoot for constants and tests.
func MustHexToRoot(s string) Root {
	r, err := HexToRoot(s)
	if err != nil {
		panic(err)
	}
	return r
}

// hasher writes fixed width fields into a SHA3-256 state.
type hasher struct {
	h   hash.Hash
	buf [8]byte
}

func newHasher() *hasher {
	return &hasher{h: sha3.New256()}
}

func (h *hasher) uint64(v uint64) {
	binary.BigEndian.PutUint64(h.buf[:], v)
	_, _ = h.h.Write(h.buf[:])
}

func (h *hasher) root(r Root) {
	_, _ = h.h.Write(r[:])
}

// bytes writes a length prefixed byte slice so that adjacent variable
// length fields cannot be shifted into each other.
func (h *hasher) bytes(b []byte) {
	h.uint64(uint64(len(b)))
	_, _ = h.h.Write(b)
}

func (h *hasher) sum() Root {
	var r Root
	copy(r[:], h.h.Sum(nil))
	return r
}
