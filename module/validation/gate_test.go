package validation

import (
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/ReamLabs/ream-sub002/model/lean"
	"github.com/ReamLabs/ream-sub002/module/irrecoverable"
	"github.com/ReamLabs/ream-sub002/module/metrics"
	mockmodule "github.com/ReamLabs/ream-sub002/module/mock"
	"github.com/ReamLabs/ream-sub002/module/signature"
	mockstate "github.com/ReamLabs/ream-sub002/state/mock"
	"github.com/ReamLabs/ream-sub002/utils/unittest"
)

type GateSuite struct {
	suite.Suite

	validators *unittest.Validators
	genesis    *lean.SignedBlock
	state      *mockstate.State
	clock      *mockmodule.SlotClock
	gate       *Gate
}

func TestGate(t *testing.T) {
	suite.Run(t, new(GateSuite))
}

func (s *GateSuite) SetupTest() {
	s.validators = unittest.ValidatorsFixture(s.T(), 4)
	s.genesis = unittest.GenesisFixture()

	s.state = mockstate.NewState(s.T())
	s.state.On("Validators").Return(s.validators.Set).Maybe()
	s.state.On("Params").Return(lean.Devnet2Params()).Maybe()
	s.state.On("Finalized").Return(s.genesis.Checkpoint()).Maybe()
	s.state.On("HasBlock", mock.Anything).Return(false).Maybe()

	s.clock = mockmodule.NewSlotClock(s.T())
	s.clock.On("CurrentSlot").Return(lean.Slot(10)).Maybe()

	var err error
	s.gate, err = NewGate(unittest.Logger(), metrics.NewNoopCollector(), s.state, s.clock, signature.NewEd25519Verifier())
	s.Require().NoError(err)
}

func (s *GateSuite) block(slot lean.Slot) *lean.SignedBlock {
	return s.validators.BlockWithParent(s.T(), s.genesis, slot)
}

func (s *GateSuite) TestValidBlock_AcceptedOnce() {
	block := s.block(3)

	result, err := s.gate.Validate(lean.NewBlockItem("", block))
	s.Require().NoError(err)
	s.Assert().Equal(Accept, result)

	// second copy hits the seen cache
	result, err = s.gate.ValidateBlock(block)
	s.Require().NoError(err)
	s.Assert().Equal(Ignore, result)

	s.gate.Forget(block.Root())
	result, err = s.gate.ValidateBlock(block)
	s.Require().NoError(err)
	s.Assert().Equal(Accept, result)
}

func (s *GateSuite) TestBlock_TamperedSignatureRejected() {
	block := s.block(3)
	tampered := *block
	tampered.Signature = append([]byte(nil), block.Signature...)
	tampered.Signature[0] ^= 0xff

	result, err := s.gate.ValidateBlock(&tampered)
	s.Require().NoError(err)
	s.Assert().Equal(Reject, result)

	// the root does not cover the signature, so a rejected copy must not
	// poison the genuine block
	result, err = s.gate.ValidateBlock(block)
	s.Require().NoError(err)
	s.Assert().Equal(Accept, result)
}

func (s *GateSuite) TestBlock_Rejected() {
	s.Run("unknown proposer", func() {
		b := s.block(3).Block
		b.ProposerIndex = 99
		result, err := s.gate.ValidateBlock(&lean.SignedBlock{Block: b, Signature: unittest.SignatureFixture()})
		s.Require().NoError(err)
		s.Assert().Equal(Reject, result)
	})
	s.Run("body too large", func() {
		b := s.block(3).Block
		b.Body = make([]byte, DefaultConfig().MaxBodySize+1)
		result, err := s.gate.ValidateBlock(s.validators.SignBlock(s.T(), b))
		s.Require().NoError(err)
		s.Assert().Equal(Reject, result)
	})
	s.Run("genesis slot", func() {
		b := s.block(3).Block
		b.Slot = 0
		b.ProposerIndex = 0
		result, err := s.gate.ValidateBlock(s.validators.SignBlock(s.T(), b))
		s.Require().NoError(err)
		s.Assert().Equal(Reject, result)
	})
}

func (s *GateSuite) TestBlock_Ignored() {
	s.Run("far future", func() {
		result, err := s.gate.ValidateBlock(s.block(12))
		s.Require().NoError(err)
		s.Assert().Equal(Ignore, result)
	})
	s.Run("one slot ahead is tolerated", func() {
		result, err := s.gate.ValidateBlock(s.block(11))
		s.Require().NoError(err)
		s.Assert().Equal(Accept, result)
	})
	s.Run("already in state", func() {
		block := s.block(4)
		st := mockstate.NewState(s.T())
		st.On("Validators").Return(s.validators.Set)
		st.On("HasBlock", block.Root()).Return(true)
		gate, err := NewGate(unittest.Logger(), metrics.NewNoopCollector(), st, s.clock, signature.NewEd25519Verifier())
		s.Require().NoError(err)

		result, err := gate.ValidateBlock(block)
		s.Require().NoError(err)
		s.Assert().Equal(Ignore, result)
	})
	s.Run("at or below finalized", func() {
		st := mockstate.NewState(s.T())
		st.On("Validators").Return(s.validators.Set)
		st.On("HasBlock", mock.Anything).Return(false)
		st.On("Params").Return(lean.Devnet2Params())
		st.On("Finalized").Return(unittest.CheckpointFixture(5))
		gate, err := NewGate(unittest.Logger(), metrics.NewNoopCollector(), st, s.clock, signature.NewEd25519Verifier())
		s.Require().NoError(err)

		result, err := gate.ValidateBlock(s.block(5))
		s.Require().NoError(err)
		s.Assert().Equal(Ignore, result)
	})
}

func (s *GateSuite) TestVote() {
	head := unittest.CheckpointFixture(4)
	target := unittest.CheckpointFixture(3)
	source := s.genesis.Checkpoint()

	s.Run("valid", func() {
		vote := s.validators.VoteFixture(s.T(), 1, head, target, source)
		result, err := s.gate.Validate(lean.NewVoteItem("", vote))
		s.Require().NoError(err)
		s.Assert().Equal(Accept, result)

		result, err = s.gate.ValidateVote(vote)
		s.Require().NoError(err)
		s.Assert().Equal(Ignore, result)
	})
	s.Run("equivocating votes are both accepted", func() {
		first := s.validators.VoteFixture(s.T(), 2, head, target, source)
		second := s.validators.VoteFixture(s.T(), 2, lean.NewCheckpoint(unittest.RootFixture(), 4), target, source)
		for _, v := range []*lean.SignedVote{first, second} {
			result, err := s.gate.ValidateVote(v)
			s.Require().NoError(err)
			s.Assert().Equal(Accept, result)
		}
	})
	s.Run("tampered signature", func() {
		vote := s.validators.VoteFixture(s.T(), 3, head, target, source)
		vote.Signature[5] ^= 0x01
		result, err := s.gate.ValidateVote(vote)
		s.Require().NoError(err)
		s.Assert().Equal(Reject, result)
	})
	s.Run("inconsistent checkpoints", func() {
		cases := map[string]lean.Vote{
			"source after target": {ValidatorIndex: 0, Slot: 4, Head: head, Target: target, Source: unittest.CheckpointFixture(4)},
			"target after slot":   {ValidatorIndex: 0, Slot: 2, Head: head, Target: target, Source: source},
			"head before target":  {ValidatorIndex: 0, Slot: 4, Head: unittest.CheckpointFixture(2), Target: target, Source: source},
			"unknown validator":   {ValidatorIndex: 42, Slot: 4, Head: head, Target: target, Source: source},
		}
		for name, v := range cases {
			signed := &lean.SignedVote{Vote: v, Signature: unittest.SignatureFixture()}
			result, err := s.gate.ValidateVote(signed)
			s.Require().NoError(err)
			s.Assert().Equal(Reject, result, name)
		}
	})
	s.Run("far future", func() {
		far := unittest.CheckpointFixture(20)
		vote := s.validators.VoteFixture(s.T(), 0, far, target, source)
		result, err := s.gate.ValidateVote(vote)
		s.Require().NoError(err)
		s.Assert().Equal(Ignore, result)
	})
}

type unknownItem struct{ lean.QueueItem }

func TestGate_UnknownItemIsException(t *testing.T) {
	gate, err := NewGate(unittest.Logger(), metrics.NewNoopCollector(), mockstate.NewState(t), mockmodule.NewSlotClock(t), mockmodule.NewVerifier(t))
	require.NoError(t, err)

	_, err = gate.Validate(unknownItem{})
	require.True(t, irrecoverable.IsException(err))
}

func TestGate_InvalidConfig(t *testing.T) {
	_, err := NewGate(unittest.Logger(), metrics.NewNoopCollector(), mockstate.NewState(t), mockmodule.NewSlotClock(t), mockmodule.NewVerifier(t), WithSeenCacheSize(0))
	require.Error(t, err)
}
