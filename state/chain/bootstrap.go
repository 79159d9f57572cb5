package chain

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ReamLabs/ream-sub002/consensus/forkchoice"
	"github.com/ReamLabs/ream-sub002/model/lean"
	"github.com/ReamLabs/ream-sub002/module"
	"github.com/ReamLabs/ream-sub002/storage"
	"github.com/ReamLabs/ream-sub002/storage/operation"
)

// IsBootstrapped reports whether the database already holds a chain.
func IsBootstrapped(db storage.DB) (bool, error) {
	var root lean.Root
	err := operation.RetrieveGenesis(db.Reader(), &root)
	if errors.Is(err, storage.ErrNotBootstrapped) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("could not read genesis: %w", err)
	}
	return true, nil
}

// Bootstrap writes the genesis block and initial checkpoints into an empty
// database. All checkpoints start at genesis.
func Bootstrap(db storage.DB, blocks storage.Blocks, genesis *lean.SignedBlock) error {
	if genesis.Block.Slot != 0 {
		return fmt.Errorf("genesis block must be at slot 0, got %d", genesis.Block.Slot)
	}
	bootstrapped, err := IsBootstrapped(db)
	if err != nil {
		return err
	}
	if bootstrapped {
		return fmt.Errorf("database is already bootstrapped")
	}

	root := genesis.Root()
	anchor := genesis.Checkpoint()
	cp := checkpoints{head: anchor, justified: anchor, finalized: anchor, safeTarget: anchor, attestation: anchor}

	return db.WithReaderBatchWriter(func(rw storage.ReaderBatchWriter) error {
		err := operation.InsertGenesis(rw, root)
		if err != nil {
			return fmt.Errorf("could not insert genesis root: %w", err)
		}
		err = blocks.BatchStore(rw, genesis)
		if err != nil {
			return fmt.Errorf("could not store genesis block: %w", err)
		}
		err = blocks.BatchIndexCanonical(rw, 0, root)
		if err != nil {
			return fmt.Errorf("could not index genesis block: %w", err)
		}
		err = operation.UpsertJustification(rw.Writer(), &lean.JustificationRecord{Justified: []lean.Root{root}})
		if err != nil {
			return fmt.Errorf("could not store justification: %w", err)
		}
		return writeCheckpoints(rw.Writer(), cp)
	})
}

// Open loads the chain state from a bootstrapped database.
func Open(
	log zerolog.Logger,
	metrics module.ChainMetrics,
	params lean.Params,
	validators *lean.ValidatorSet,
	db storage.DB,
	blocks storage.Blocks,
) (*State, error) {
	s := &State{
		log:        log.With().Str("component", "chain_state").Logger(),
		metrics:    metrics,
		params:     params,
		validators: validators,
		db:         db,
		blocks:     blocks,
		tree:       newBlockTree(),
		votes:      make(map[lean.Root]*lean.SignedVote),
		bySlot:     make(map[voterSlot][]*lean.SignedVote),
		latest:     make(map[uint64]*lean.Vote),
	}

	r := db.Reader()
	var genesis lean.Root
	err := operation.RetrieveGenesis(r, &genesis)
	if err != nil {
		return nil, fmt.Errorf("could not read genesis: %w", err)
	}

	err = blocks.All(func(block *lean.SignedBlock) error {
		s.tree.add(block)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not load blocks: %w", err)
	}
	if !s.tree.has(genesis) {
		return nil, fmt.Errorf("genesis block %x is missing", genesis)
	}

	err = operation.IterateVotes(r, func(signed *lean.SignedVote) error {
		s.restoreVote(signed)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not load votes: %w", err)
	}

	for kind, cp := range map[operation.CheckpointKind]*lean.Checkpoint{
		operation.CheckpointHead:      &s.cp.head,
		operation.CheckpointJustified: &s.cp.justified,
		operation.CheckpointFinalized: &s.cp.finalized,
		operation.CheckpointSafe:      &s.cp.safeTarget,
	} {
		err = operation.RetrieveCheckpoint(r, kind, cp)
		if err != nil {
			return nil, fmt.Errorf("could not read %s checkpoint: %w", kind, err)
		}
	}

	var record lean.JustificationRecord
	err = operation.RetrieveJustification(r, &record)
	if err != nil {
		return nil, fmt.Errorf("could not read justification: %w", err)
	}
	s.justification = forkchoice.RestoreJustification(params, s.tree, &record)

	s.trimRetention()

	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.cp
	next.head, next.safeTarget, next.attestation = s.forkChoice(s.latest, s.cp.justified, s.cp.finalized)
	s.commit(next)

	s.log.Info().
		Int("blocks", s.tree.len()).
		Int("votes", len(s.votes)).
		Str("head", next.head.String()).
		Str("finalized", next.finalized.String()).
		Msg("chain state loaded")
	return s, nil
}

// restoreVote indexes a persisted vote without re-running justification,
// whose result is persisted separately.
func (s *State) restoreVote(signed *lean.SignedVote) {
	vote := &signed.Vote
	id := signed.ID()
	s.votes[id] = signed

	key := voterSlot{validator: vote.ValidatorIndex, slot: vote.Slot}
	for _, other := range s.bySlot[key] {
		s.equivocations = append(s.equivocations, lean.Equivocation{
			ValidatorIndex: vote.ValidatorIndex,
			Slot:           vote.Slot,
			First:          other,
			Second:         signed,
		})
	}
	s.bySlot[key] = append(s.bySlot[key], signed)

	current, ok := s.latest[vote.ValidatorIndex]
	if !ok || forkchoice.Supersedes(vote, current) {
		s.latest[vote.ValidatorIndex] = vote
	}
}

// trimRetention drops finalized ancestry older than the retention window
// from memory. It stays on disk.
func (s *State) trimRetention() {
	if s.cp.finalized.Slot <= s.params.PruneRetentionSlots {
		return
	}
	retainFrom := s.cp.finalized.Slot - s.params.PruneRetentionSlots
	for root := range s.tree.ancestors(s.cp.finalized.Root) {
		block := s.tree.get(root)
		if block.Block.Slot < retainFrom {
			s.tree.remove(root)
		}
	}
}
