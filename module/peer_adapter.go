package module

import (
	"context"

	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/ReamLabs/ream-sub002/model/lean"
)

// PeerInfo is a point-in-time view of a connected peer.
type PeerInfo struct {
	ID peer.ID
	// Score grows with useful responses and shrinks with failures and penalties.
	Score uint8
	// Status is the last status the peer reported, nil if it never answered.
	Status *lean.Status
	// Available is false while requests to the peer are suspended after
	// repeated failures.
	Available bool
}

// PeerAdapter is the request/response side of the peer protocol.
type PeerAdapter interface {
	// GetStatus asks the peer for its finalized and head checkpoints.
	GetStatus(ctx context.Context, id peer.ID) (*lean.Status, error)

	// RequestRange asks the peer for the block at startRoot followed by its
	// ancestors, at most count blocks. Peers may return fewer.
	RequestRange(ctx context.Context, id peer.ID, startRoot lean.Root, count uint64) ([]*lean.SignedBlock, error)

	// RequestByRoot asks the peer for individual blocks. Roots unknown to the
	// peer are skipped in the response.
	RequestByRoot(ctx context.Context, id peer.ID, roots []lean.Root) ([]*lean.SignedBlock, error)

	// Peers returns all connected peers.
	Peers() []PeerInfo

	// Penalize lowers the score of a peer that sent invalid data.
	Penalize(id peer.ID, reason string)
}

// PeerDisconnectConsumer is notified when a peer disconnects.
type PeerDisconnectConsumer interface {
	OnPeerDisconnected(id peer.ID)
}
