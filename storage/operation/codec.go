package operation

import (
	"errors"
	"fmt"

	"github.com/golang/snappy"
	"github.com/vmihailenco/msgpack/v4"

	"github.com/ReamLabs/ream-sub002/module/irrecoverable"
)

// ErrUncompressedValue is returned when a stored value is not valid snappy data.
var ErrUncompressedValue = errors.New("could not uncompress data")

// encodeEntity serializes the entity with msgpack and compresses the result
// with snappy.
// possible error to return is irrecoverable.exception
func encodeEntity(entity any) ([]byte, error) {
	val, err := msgpack.Marshal(entity)
	if err != nil {
		return nil, irrecoverable.NewExceptionf("could not encode entity: %w", err)
	}
	return snappy.Encode(nil, val), nil
}

// decodeValue reverses encodeEntity. The provided entity needs to be a pointer.
// Error returns:
//   - ErrUncompressedValue if val is not snappy compressed
//   - exception if the uncompressed value cannot be decoded into entity
func decodeValue(val []byte, entity any) error {
	uncompressed, err := snappy.Decode(nil, val)
	if err != nil {
		return fmt.Errorf("%s: %w", err, ErrUncompressedValue)
	}
	err = msgpack.Unmarshal(uncompressed, entity)
	if err != nil {
		return irrecoverable.NewExceptionf("could not decode entity: %w", err)
	}
	return nil
}
