package operation

import (
	"encoding/binary"
	"fmt"

	"github.com/ReamLabs/ream-sub002/model/lean"
)

const (
	// codes for special database markers
	codeGenesis = 1 // root of the genesis block the database was bootstrapped with

	// codes for the latest checkpoints, one value each
	codeLatestHead      = 10
	codeLatestJustified = 11
	codeLatestFinalized = 12
	codeSafeTarget      = 13
	codeJustification   = 14 // justified roots and pending justification votes

	// codes for entities
	codeBlock = 20
	codeVote  = 21

	// codes for indexes
	codeSlotToBlock = 30 // slot+root -> root, all blocks by slot
	codeCanonical   = 31 // slot -> root of the canonical block at that slot
	codeSlotToVote  = 32 // slot+id -> id, all votes by slot

	// codes for blocks fetched by sync but not yet applied
	codePendingBlock = 40
)

// MakePrefix builds a key from a one byte code followed by the big-endian
// encoding of the given key parts.
func MakePrefix(code byte, keys ...any) []byte {
	prefix := make([]byte, 1)
	prefix[0] = code
	for _, key := range keys {
		prefix = append(prefix, EncodeKeyPart(key)...)
	}
	return prefix
}

// EncodeKeyPart encodes a single key part. Integers are big-endian so that
// numerically smaller values sort first.
func EncodeKeyPart(v any) []byte {
	switch i := v.(type) {
	case uint8:
		return []byte{i}
	case uint32:
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, i)
		return b
	case uint64:
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, i)
		return b
	case string:
		return []byte(i)
	case lean.Root:
		return i[:]
	case []byte:
		return i
	default:
		panic(fmt.Sprintf("unsupported type to convert (%T)", v))
	}
}
