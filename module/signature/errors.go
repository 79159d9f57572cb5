package signature

import (
	"errors"
)

var (
	ErrInvalidFormat = errors.New("invalid signature format")
	ErrUnknownSigner = errors.New("unknown signer")
)
