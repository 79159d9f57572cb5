package lean

import "fmt"

// Vote is a validator's attestation. Head feeds the fork choice, Target is the
// checkpoint being voted for and Source is the justified checkpoint the vote
// links the target to.
type Vote struct {
	ValidatorIndex uint64
	Slot           Slot
	Head           Checkpoint
	Target         Checkpoint
	Source         Checkpoint
}

func (v *Vote) SigningRoot() Root {
	h := newHasher()
	h.uint64(v.ValidatorIndex)
	h.uint64(v.Slot)
	for _, c := range []Checkpoint{v.Head, v.Target, v.Source} {
		h.root(c.Root)
		h.uint64(c.Slot)
	}
	return h.sum()
}

func (v *Vote) String() string {
	return fmt.Sprintf("validator=%d slot=%d head=%s target=%s source=%s",
		v.ValidatorIndex, v.Slot, v.Head, v.Target, v.Source)
}

// SignedVote is a vote together with the validator's signature.
type SignedVote struct {
	Vote      Vote
	Signature []byte
}

// ID identifies a signed vote. Two conflicting votes of the same validator for
// the same slot have different IDs, so neither overwrites the other.
func (v *SignedVote) ID() Root {
	h := newHasher()
	h.root(v.Vote.SigningRoot())
	h.bytes(v.Signature)
	return h.sum()
}

func (v *SignedVote) SigningMessage() []byte {
	root := v.Vote.SigningRoot()
	return root[:]
}

// Equivocation pairs two votes of one validator for the same slot.
type Equivocation struct {
	ValidatorIndex uint64
	Slot           Slot
	First          *SignedVote
	Second         *SignedVote
}
