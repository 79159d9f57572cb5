package p2p

import (
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/golang/snappy"
	"github.com/libp2p/go-msgio"
)

// ErrInvalidEncoding is returned when a payload received from a peer cannot be decoded.
var ErrInvalidEncoding = errors.New("invalid encoding")

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("could not create cbor encoding mode: %s", err))
	}
	decMode, err = cbor.DecOptions{
		DupMapKey:       cbor.DupMapKeyEnforcedAPF,
		MaxNestedLevels: 16,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("could not create cbor decoding mode: %s", err))
	}
}

// Encode serializes v with deterministic cbor and compresses the result with snappy.
func Encode(v any) ([]byte, error) {
	data, err := encMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("could not encode %T: %w", v, err)
	}
	return snappy.Encode(nil, data), nil
}

// Decode reverses Encode. Payloads that would uncompress to more than
// maxSize bytes are refused before decompression.
// Expected errors during normal operations:
//   - ErrInvalidEncoding if data is not a valid encoding of v
func Decode(data []byte, maxSize int, v any) error {
	size, err := snappy.DecodedLen(data)
	if err != nil {
		return fmt.Errorf("%s: %w", err, ErrInvalidEncoding)
	}
	if size > maxSize {
		return fmt.Errorf("uncompressed size %d exceeds limit %d: %w", size, maxSize, ErrInvalidEncoding)
	}
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return fmt.Errorf("%s: %w", err, ErrInvalidEncoding)
	}
	if err := decMode.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("could not decode %T: %s: %w", v, err, ErrInvalidEncoding)
	}
	return nil
}

// WriteMessage writes v to w as a single varint length-prefixed frame.
func WriteMessage(w io.Writer, v any) error {
	data, err := Encode(v)
	if err != nil {
		return err
	}
	if err := msgio.NewVarintWriter(w).WriteMsg(data); err != nil {
		return fmt.Errorf("could not write frame: %w", err)
	}
	return nil
}

// ReadMessage reads a single frame written by WriteMessage into v.
// Expected errors during normal operations:
//   - ErrInvalidEncoding if the frame is oversized or cannot be decoded
//   - any io error of the underlying reader
func ReadMessage(r io.Reader, maxSize int, v any) error {
	reader := msgio.NewVarintReaderSize(r, snappy.MaxEncodedLen(maxSize))
	frame, err := reader.ReadMsg()
	if err != nil {
		if errors.Is(err, msgio.ErrMsgTooLarge) {
			return fmt.Errorf("%s: %w", err, ErrInvalidEncoding)
		}
		return fmt.Errorf("could not read frame: %w", err)
	}
	defer reader.ReleaseMsg(frame)
	return Decode(frame, maxSize, v)
}
