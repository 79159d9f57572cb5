package unittest

import (
	crand "crypto/rand"
	"fmt"
	"math/rand"
	"testing"

	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/stretchr/testify/require"

	"github.com/ReamLabs/ream-sub002/model/lean"
)

func RootFixture() lean.Root {
	var root lean.Root
	_, _ = crand.Read(root[:])
	return root
}

func RootListFixture(n int) []lean.Root {
	roots := make([]lean.Root, 0, n)
	for i := 0; i < n; i++ {
		roots = append(roots, RootFixture())
	}
	return roots
}

func CheckpointFixture(slot lean.Slot) lean.Checkpoint {
	return lean.NewCheckpoint(RootFixture(), slot)
}

func SignatureFixture() []byte {
	sig := make([]byte, 64)
	_, _ = crand.Read(sig)
	return sig
}

// PeerIDFixture returns a random peer ID derived from a fresh ed25519 key.
func PeerIDFixture(t testing.TB) peer.ID {
	_, pub, err := crypto.GenerateEd25519Key(crand.Reader)
	require.NoError(t, err)
	id, err := peer.IDFromPublicKey(pub)
	require.NoError(t, err)
	return id
}

func PeerIDListFixture(t testing.TB, n int) []peer.ID {
	ids := make([]peer.ID, 0, n)
	for i := 0; i < n; i++ {
		ids = append(ids, PeerIDFixture(t))
	}
	return ids
}

// GenesisFixture returns the genesis block every fixture chain descends from.
func GenesisFixture() *lean.SignedBlock {
	return lean.GenesisBlock(lean.ZeroRoot)
}

// Validators is a validator set together with the private keys of its
// members, so tests can produce correctly signed blocks and votes.
type Validators struct {
	Set  *lean.ValidatorSet
	Keys map[uint64]crypto.PrivKey
}

// ValidatorsFixture creates n validators with weight 1 each.
func ValidatorsFixture(t testing.TB, n int) *Validators {
	weights := make([]uint64, n)
	for i := range weights {
		weights[i] = 1
	}
	return WeightedValidatorsFixture(t, weights...)
}

// WeightedValidatorsFixture creates one validator per weight, indexed from zero.
func WeightedValidatorsFixture(t testing.TB, weights ...uint64) *Validators {
	keys := make(map[uint64]crypto.PrivKey, len(weights))
	validators := make([]lean.Validator, 0, len(weights))
	for i, weight := range weights {
		priv, pub, err := crypto.GenerateEd25519Key(crand.Reader)
		require.NoError(t, err)
		raw, err := pub.Raw()
		require.NoError(t, err)

		index := uint64(i)
		keys[index] = priv
		validators = append(validators, lean.Validator{Index: index, PublicKey: raw, Weight: weight})
	}
	set, err := lean.NewValidatorSet(validators)
	require.NoError(t, err)
	return &Validators{Set: set, Keys: keys}
}

func (v *Validators) sign(t testing.TB, index uint64, msg []byte) []byte {
	key, ok := v.Keys[index]
	require.True(t, ok, fmt.Sprintf("no key for validator %d", index))
	sig, err := key.Sign(msg)
	require.NoError(t, err)
	return sig
}

// SignBlock signs the block with its proposer's key.
func (v *Validators) SignBlock(t testing.TB, block lean.Block) *lean.SignedBlock {
	signed := &lean.SignedBlock{Block: block}
	signed.Signature = v.sign(t, block.ProposerIndex, signed.SigningMessage())
	return signed
}

// SignVote signs the vote with its validator's key.
func (v *Validators) SignVote(t testing.TB, vote lean.Vote) *lean.SignedVote {
	signed := &lean.SignedVote{Vote: vote}
	signed.Signature = v.sign(t, vote.ValidatorIndex, signed.SigningMessage())
	return signed
}

// BlockWithParent returns a signed block at slot extending parent. The
// proposer rotates round-robin over the validator indices.
func (v *Validators) BlockWithParent(t testing.TB, parent *lean.SignedBlock, slot lean.Slot) *lean.SignedBlock {
	require.Greater(t, slot, parent.Block.Slot, "child slot must be above its parent")
	body := make([]byte, 16)
	_, _ = crand.Read(body)
	return v.SignBlock(t, lean.Block{
		Slot:          slot,
		ProposerIndex: slot % uint64(v.Set.Len()),
		ParentRoot:    parent.Root(),
		StateRoot:     RootFixture(),
		Body:          body,
	})
}

// ChainFixture returns n signed blocks extending parent at consecutive slots.
func (v *Validators) ChainFixture(t testing.TB, parent *lean.SignedBlock, n int) []*lean.SignedBlock {
	blocks := make([]*lean.SignedBlock, 0, n)
	for i := 0; i < n; i++ {
		child := v.BlockWithParent(t, parent, parent.Block.Slot+1)
		blocks = append(blocks, child)
		parent = child
	}
	return blocks
}

// VoteFixture returns a signed vote of validator index at the slot of head.
func (v *Validators) VoteFixture(t testing.TB, index uint64, head, target, source lean.Checkpoint) *lean.SignedVote {
	return v.SignVote(t, lean.Vote{
		ValidatorIndex: index,
		Slot:           head.Slot,
		Head:           head,
		Target:         target,
		Source:         source,
	})
}

// ShuffledBlocks returns a copy of blocks in random order.
func ShuffledBlocks(blocks []*lean.SignedBlock) []*lean.SignedBlock {
	shuffled := make([]*lean.SignedBlock, len(blocks))
	copy(shuffled, blocks)
	rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	return shuffled
}
