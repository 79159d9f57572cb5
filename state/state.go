package state

import (
	"context"

	"github.com/ReamLabs/ream-sub002/model/lean"
)

// Snapshot is a consistent copy of the chain checkpoints taken at one point in time.
type Snapshot struct {
	Head              lean.Checkpoint
	Justified         lean.Checkpoint
	Finalized         lean.Checkpoint
	SafeTarget        lean.Checkpoint
	AttestationTarget lean.Checkpoint
	Blocks            int
	Votes             int
}

// State is read access to the chain state. All methods are safe for
// concurrent use and return copies.
type State interface {
	Head() lean.Checkpoint
	Justified() lean.Checkpoint
	Finalized() lean.Checkpoint
	SafeTarget() lean.Checkpoint

	// AttestationTarget is the checkpoint a validator would vote for now.
	AttestationTarget() lean.Checkpoint

	// Snapshot returns all checkpoints at once, read under a single lock.
	Snapshot() Snapshot

	// Status returns the handshake advertised to peers.
	Status() lean.Status

	// Block returns the block with the given root.
	// Expected errors during normal operations:
	//   - ErrUnknownBlock if the block is unknown
	Block(root lean.Root) (*lean.SignedBlock, error)

	// HasBlock reports whether the block is part of the chain, in memory or on disk.
	HasBlock(root lean.Root) bool

	// BlockRootBySlot returns the root of the block at slot on the canonical chain.
	// Expected errors during normal operations:
	//   - ErrUnknownBlock if the canonical chain has no block at that slot
	BlockRootBySlot(slot lean.Slot) (lean.Root, error)

	// IsCanonicalCheckpoint reports whether the checkpoint is consistent with
	// the local canonical chain. Checkpoints beyond the local head cannot be
	// judged and are reported as canonical.
	IsCanonicalCheckpoint(cp lean.Checkpoint) bool

	// Equivocations returns the conflicting vote pairs seen so far.
	Equivocations() []lean.Equivocation

	Validators() *lean.ValidatorSet
	Params() lean.Params
}

// MutableState is the single writer interface of the chain state.
type MutableState interface {
	State

	// ApplyBlock adds a block to the chain and recomputes the head.
	// Expected errors during normal operations:
	//   - ErrUnknownParent if the parent block is not part of the state
	//   - ErrAlreadyKnown if the block was applied before
	//   - InvalidBlockError if the block can never extend its parent
	ApplyBlock(ctx context.Context, block *lean.SignedBlock) error

	// ApplyVote records a vote, advances justification and finalization, and
	// recomputes the head.
	// Expected errors during normal operations:
	//   - ErrUnknownTarget if the vote's target or head block is not part of the state
	//   - ErrAlreadyKnown if the same signed vote was applied before
	ApplyVote(ctx context.Context, vote *lean.SignedVote) error

	// RecomputeHead reruns the fork choice and returns the head.
	RecomputeHead(ctx context.Context) (lean.Checkpoint, error)
}
