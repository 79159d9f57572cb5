package chainsync

import (
	"errors"
	"fmt"

	"github.com/libp2p/go-libp2p/core/peer"
)

var (
	// ErrNoEligiblePeer is returned when no connected peer can serve a job.
	ErrNoEligiblePeer = errors.New("no eligible peer")

	// ErrUnknownJob is returned for responses or failures of a peer that has
	// no job assigned, e.g. because the job was reassigned after a timeout.
	ErrUnknownJob = errors.New("no job assigned to peer")

	// ErrQueueStartMissing is returned by the forward syncer when the start
	// of a queue was unstaged, e.g. by pruning below the finalized slot.
	ErrQueueStartMissing = errors.New("queue start block is not staged")
)

// MalformedResponseError is returned when a range response is not a
// contiguous ancestry starting at the requested root.
type MalformedResponseError struct {
	Peer peer.ID
	err  error
}

func NewMalformedResponseErrorf(p peer.ID, msg string, args ...any) error {
	return MalformedResponseError{
		Peer: p,
		err:  fmt.Errorf(msg, args...),
	}
}

func (e MalformedResponseError) Unwrap() error {
	return e.err
}

func (e MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response from %s: %s", e.Peer, e.err.Error())
}

// IsMalformedResponseError returns whether err is a MalformedResponseError.
func IsMalformedResponseError(err error) bool {
	var e MalformedResponseError
	return errors.As(err, &e)
}
