package signature

import (
	"fmt"

	"github.com/libp2p/go-libp2p/core/crypto"

	"github.com/ReamLabs/ream-sub002/model/lean"
	"github.com/ReamLabs/ream-sub002/module"
)

// Ed25519Verifier verifies signatures made with libp2p ed25519 keys. Public
// keys are the raw 32 byte form.
type Ed25519Verifier struct{}

var _ module.Verifier = Ed25519Verifier{}

func NewEd25519Verifier() Ed25519Verifier {
	return Ed25519Verifier{}
}

func (Ed25519Verifier) Verify(msg []byte, publicKey []byte, signature []byte) bool {
	if len(signature) == 0 {
		return false
	}
	key, err := crypto.UnmarshalEd25519PublicKey(publicKey)
	if err != nil {
		return false
	}
	ok, err := key.Verify(msg, signature)
	return err == nil && ok
}

// Signer signs blocks and votes with a validator's private key.
type Signer struct {
	index uint64
	key   crypto.PrivKey
}

func NewSigner(index uint64, key crypto.PrivKey) (*Signer, error) {
	if key.Type() != crypto.Ed25519 {
		return nil, fmt.Errorf("validator %d: key type %s: %w", index, key.Type(), ErrInvalidFormat)
	}
	return &Signer{index: index, key: key}, nil
}

func (s *Signer) Index() uint64 {
	return s.index
}

// PublicKey returns the raw public key as stored in the validator set.
func (s *Signer) PublicKey() ([]byte, error) {
	return s.key.GetPublic().Raw()
}

func (s *Signer) SignBlock(block lean.Block) (*lean.SignedBlock, error) {
	if block.ProposerIndex != s.index {
		return nil, fmt.Errorf("block proposer %d is not validator %d: %w", block.ProposerIndex, s.index, ErrUnknownSigner)
	}
	signed := &lean.SignedBlock{Block: block}
	sig, err := s.key.Sign(signed.SigningMessage())
	if err != nil {
		return nil, fmt.Errorf("could not sign block: %w", err)
	}
	signed.Signature = sig
	return signed, nil
}

func (s *Signer) SignVote(vote lean.Vote) (*lean.SignedVote, error) {
	if vote.ValidatorIndex != s.index {
		return nil, fmt.Errorf("vote of validator %d signed by %d: %w", vote.ValidatorIndex, s.index, ErrUnknownSigner)
	}
	signed := &lean.SignedVote{Vote: vote}
	sig, err := s.key.Sign(signed.SigningMessage())
	if err != nil {
		return nil, fmt.Errorf("could not sign vote: %w", err)
	}
	signed.Signature = sig
	return signed, nil
}
