package state

import (
	"errors"
	"fmt"

	"github.com/ReamLabs/ream-sub002/model/lean"
)

var (
	// ErrUnknownParent is returned when a block's parent is not part of the state yet.
	ErrUnknownParent = errors.New("parent block unknown")

	// ErrUnknownTarget is returned when a vote references a target or head block
	// that is not part of the state yet.
	ErrUnknownTarget = errors.New("vote target unknown")

	// ErrAlreadyKnown is returned when a block or vote is applied twice. It is benign.
	ErrAlreadyKnown = errors.New("already known")

	// ErrCheckpointRegression indicates an attempt to move the justified or
	// finalized checkpoint backwards. It is always an exception.
	ErrCheckpointRegression = errors.New("checkpoint regression")

	// ErrUnknownBlock is returned by queries for blocks the state does not hold.
	ErrUnknownBlock = errors.New("block unknown")
)

// InvalidBlockError is an error for a block that can never be part of the
// chain, e.g. because its slot is not above its parent's. It indicates a
// malicious or broken producer.
type InvalidBlockError struct {
	Root lean.Root
	error
}

func NewInvalidBlockErrorf(root lean.Root, msg string, args ...any) error {
	return InvalidBlockError{
		Root:  root,
		error: fmt.Errorf(msg, args...),
	}
}

func (e InvalidBlockError) Unwrap() error {
	return e.error
}

func (e InvalidBlockError) Error() string {
	return fmt.Sprintf("invalid block %s: %s", e.Root.TerminalString(), e.error.Error())
}

// IsInvalidBlockError returns whether the given error is an InvalidBlockError error
func IsInvalidBlockError(err error) bool {
	var e InvalidBlockError
	return errors.As(err, &e)
}
