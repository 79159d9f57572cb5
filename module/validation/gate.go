package validation

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog"

	"github.com/ReamLabs/ream-sub002/model/lean"
	"github.com/ReamLabs/ream-sub002/module"
	"github.com/ReamLabs/ream-sub002/module/irrecoverable"
	"github.com/ReamLabs/ream-sub002/module/metrics"
	"github.com/ReamLabs/ream-sub002/state"
	"github.com/ReamLabs/ream-sub002/utils/logging"
)

// Gate decides whether blocks and votes arriving from the network are
// ingested, silently dropped or rejected. It only reads the chain state.
//
// Gate is safe for concurrent use.
type Gate struct {
	log      zerolog.Logger
	metrics  module.ValidationMetrics
	state    state.State
	clock    module.SlotClock
	verifier module.Verifier
	seen     *lru.Cache
	config   Config
}

func NewGate(
	log zerolog.Logger,
	collector module.ValidationMetrics,
	state state.State,
	clock module.SlotClock,
	verifier module.Verifier,
	opts ...OptionFunc,
) (*Gate, error) {
	config := DefaultConfig()
	for _, apply := range opts {
		apply(&config)
	}
	seen, err := lru.New(config.SeenCacheSize)
	if err != nil {
		return nil, fmt.Errorf("could not create seen cache: %w", err)
	}
	return &Gate{
		log:      log.With().Str("module", "validation_gate").Logger(),
		metrics:  collector,
		state:    state,
		clock:    clock,
		verifier: verifier,
		seen:     seen,
		config:   config,
	}, nil
}

// Validate dispatches on the item variant.
// No errors are expected during normal operation.
func (g *Gate) Validate(item lean.QueueItem) (Result, error) {
	switch it := item.(type) {
	case *lean.BlockItem:
		return g.ValidateBlock(it.Block)
	case *lean.VoteItem:
		return g.ValidateVote(it.Vote)
	default:
		return Reject, irrecoverable.NewExceptionf("unexpected queue item type %T", item)
	}
}

// ValidateBlock checks a signed block. A block is accepted at most once
// while it stays in the seen cache.
// No errors are expected during normal operation.
func (g *Gate) ValidateBlock(block *lean.SignedBlock) (Result, error) {
	result, reason := g.validateBlock(block)
	g.metrics.ItemValidated(metrics.KindBlock, result.String())
	if result != Accept {
		logging.Block(g.log.Debug(), block).
			Str("result", result.String()).
			Str("reason", reason).
			Msg("block not accepted")
	}
	return result, nil
}

func (g *Gate) validateBlock(block *lean.SignedBlock) (Result, string) {
	b := &block.Block
	root := block.Root()

	proposer, ok := g.state.Validators().ByIndex(b.ProposerIndex)
	if !ok {
		return Reject, "unknown proposer"
	}
	if len(b.Body) > g.config.MaxBodySize {
		return Reject, "body too large"
	}
	if b.Slot == 0 {
		return Reject, "block at genesis slot"
	}
	if b.ParentRoot == root {
		return Reject, "block is its own parent"
	}

	if g.seen.Contains(root) || g.state.HasBlock(root) {
		return Ignore, "duplicate"
	}
	if b.Slot > g.clock.CurrentSlot()+g.state.Params().MaxFutureSlots {
		return Ignore, "slot too far in the future"
	}
	if b.Slot <= g.state.Finalized().Slot {
		return Ignore, "slot at or below finalized"
	}

	if !g.verifier.Verify(block.SigningMessage(), proposer.PublicKey, block.Signature) {
		return Reject, "invalid signature"
	}

	g.seen.Add(root, struct{}{})
	return Accept, ""
}

// ValidateVote checks a signed vote. Two different votes of the same
// validator for the same slot are both accepted: equivocations are recorded
// by the chain state, not filtered here.
// No errors are expected during normal operation.
func (g *Gate) ValidateVote(signed *lean.SignedVote) (Result, error) {
	result, reason := g.validateVote(signed)
	g.metrics.ItemValidated(metrics.KindVote, result.String())
	if result != Accept {
		g.log.Debug().
			Uint64("validator", signed.Vote.ValidatorIndex).
			Uint64("slot", signed.Vote.Slot).
			Str("result", result.String()).
			Str("reason", reason).
			Msg("vote not accepted")
	}
	return result, nil
}

func (g *Gate) validateVote(signed *lean.SignedVote) (Result, string) {
	vote := &signed.Vote

	validator, ok := g.state.Validators().ByIndex(vote.ValidatorIndex)
	if !ok {
		return Reject, "unknown validator"
	}
	if vote.Source.Slot > vote.Target.Slot {
		return Reject, "source after target"
	}
	if vote.Target.Slot > vote.Slot {
		return Reject, "target after vote slot"
	}
	if vote.Head.Slot < vote.Target.Slot {
		return Reject, "head before target"
	}

	id := signed.ID()
	if g.seen.Contains(id) {
		return Ignore, "duplicate"
	}
	if vote.Slot > g.clock.CurrentSlot()+g.state.Params().MaxFutureSlots {
		return Ignore, "slot too far in the future"
	}

	if !g.verifier.Verify(signed.SigningMessage(), validator.PublicKey, signed.Signature) {
		return Reject, "invalid signature"
	}

	g.seen.Add(id, struct{}{})
	return Accept, ""
}

// Forget removes an item from the seen cache so that a later copy is
// accepted again. Used when an accepted item could not be queued.
func (g *Gate) Forget(key lean.Root) {
	g.seen.Remove(key)
}
