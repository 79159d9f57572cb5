package lean

import (
	"fmt"

	"github.com/libp2p/go-libp2p/core/peer"
)

// PendingJobRequest is a sync job intent. It is a closed sum type over
// ResetRequest and InitialRequest.
type PendingJobRequest interface {
	fmt.Stringer
	isPendingJobRequest()
}

// ResetRequest abandons the job currently assigned to Peer.
type ResetRequest struct {
	Peer peer.ID
}

func NewResetRequest(p peer.ID) ResetRequest {
	return ResetRequest{Peer: p}
}

func (r ResetRequest) String() string {
	return fmt.Sprintf("reset(%s)", r.Peer)
}

func (ResetRequest) isPendingJobRequest() {}

// InitialRequest starts back-filling the ancestry of the block at Root/Slot,
// whose parent ParentRoot is unknown locally.
type InitialRequest struct {
	Root       Root
	Slot       Slot
	ParentRoot Root
}

func NewInitialRequest(root Root, slot Slot, parentRoot Root) InitialRequest {
	return InitialRequest{Root: root, Slot: slot, ParentRoot: parentRoot}
}

func (r InitialRequest) String() string {
	return fmt.Sprintf("initial(root=%s, slot=%d, parent=%s)", r.Root.TerminalString(), r.Slot, r.ParentRoot.TerminalString())
}

func (InitialRequest) isPendingJobRequest() {}
