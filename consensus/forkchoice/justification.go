package forkchoice

import (
	"sort"

	"github.com/ReamLabs/ream-sub002/model/lean"
)

// Outcome describes what a counted vote changed. Justified and Finalized are
// only meaningful when the matching flag is set.
type Outcome struct {
	Counted      bool
	NewJustified bool
	Justified    lean.Checkpoint
	NewFinalized bool
	Finalized    lean.Checkpoint
}

// Justification tracks which checkpoints are justified and, for targets
// still short of the threshold, which validators voted for them.
//
// Not concurrency safe.
type Justification struct {
	params    lean.Params
	justified map[lean.Root]lean.Slot
	pending   map[lean.Checkpoint]map[uint64]struct{}
}

// NewJustification starts tracking with anchor as the only justified checkpoint.
func NewJustification(params lean.Params, anchor lean.Checkpoint) *Justification {
	return &Justification{
		params:    params,
		justified: map[lean.Root]lean.Slot{anchor.Root: anchor.Slot},
		pending:   make(map[lean.Checkpoint]map[uint64]struct{}),
	}
}

// RestoreJustification rebuilds the tracker from its durable form. Justified
// roots unknown to the tree are dropped.
func RestoreJustification(params lean.Params, tree Tree, record *lean.JustificationRecord) *Justification {
	j := &Justification{
		params:    params,
		justified: make(map[lean.Root]lean.Slot, len(record.Justified)),
		pending:   make(map[lean.Checkpoint]map[uint64]struct{}, len(record.Pending)),
	}
	for _, root := range record.Justified {
		slot, _, ok := tree.Block(root)
		if ok {
			j.justified[root] = slot
		}
	}
	for _, p := range record.Pending {
		voters := make(map[uint64]struct{}, len(p.Validators))
		for _, v := range p.Validators {
			voters[v] = struct{}{}
		}
		j.pending[p.Target] = voters
	}
	return j
}

// IsJustified reports whether the block with the given root is justified.
func (j *Justification) IsJustified(root lean.Root) bool {
	_, ok := j.justified[root]
	return ok
}

// Voters returns how many validators have been counted for a pending target.
func (j *Justification) Voters(target lean.Checkpoint) int {
	return len(j.pending[target])
}

// Process counts one vote. A vote counts towards its target only if its source
// is justified, both checkpoints are blocks of the tree at the stated slots,
// the target descends from the source, and the target slot is justifiable after
// the finalized slot. Once the target's voters reach the justification
// threshold it becomes justified, and its source is finalized when no
// justifiable slot lies strictly between the two.
func (j *Justification) Process(tree Tree, validators *lean.ValidatorSet, finalized lean.Checkpoint, justified lean.Checkpoint, vote *lean.Vote) Outcome {
	var out Outcome
	source, target := vote.Source, vote.Target

	if !j.IsJustified(source.Root) || j.IsJustified(target.Root) {
		return out
	}
	if !Known(tree, source) || !Known(tree, target) {
		return out
	}
	if target.Slot <= source.Slot || !IsAncestor(tree, source.Root, target.Root) {
		return out
	}
	if target.Slot <= finalized.Slot {
		return out
	}
	justifiable, err := IsJustifiableAfter(target.Slot, finalized.Slot)
	if err != nil || !justifiable {
		return out
	}
	if validators.Weight(vote.ValidatorIndex) == 0 {
		return out
	}

	voters, ok := j.pending[target]
	if !ok {
		voters = make(map[uint64]struct{})
		j.pending[target] = voters
	}
	if _, seen := voters[vote.ValidatorIndex]; seen {
		return out
	}
	voters[vote.ValidatorIndex] = struct{}{}
	out.Counted = true

	var weight uint64
	for index := range voters {
		weight += validators.Weight(index)
	}
	if !j.params.JustificationReached(weight, validators.TotalWeight()) {
		return out
	}

	j.justified[target.Root] = target.Slot
	delete(j.pending, target)
	if target.Slot > justified.Slot {
		out.NewJustified = true
		out.Justified = target
	}

	if source.Slot > finalized.Slot && !hasJustifiableBetween(source.Slot, target.Slot, finalized.Slot) {
		out.NewFinalized = true
		out.Finalized = source
	}
	return out
}

// Prune forgets pending targets at or below the finalized slot and justified
// roots below it. The finalized root itself stays justified.
func (j *Justification) Prune(finalized lean.Checkpoint) {
	for target := range j.pending {
		if target.Slot <= finalized.Slot {
			delete(j.pending, target)
		}
	}
	for root, slot := range j.justified {
		if slot < finalized.Slot {
			delete(j.justified, root)
		}
	}
	j.justified[finalized.Root] = finalized.Slot
}

// Copy returns an independent copy of the tracker.
func (j *Justification) Copy() *Justification {
	c := &Justification{
		params:    j.params,
		justified: make(map[lean.Root]lean.Slot, len(j.justified)),
		pending:   make(map[lean.Checkpoint]map[uint64]struct{}, len(j.pending)),
	}
	for root, slot := range j.justified {
		c.justified[root] = slot
	}
	for target, voters := range j.pending {
		vs := make(map[uint64]struct{}, len(voters))
		for v := range voters {
			vs[v] = struct{}{}
		}
		c.pending[target] = vs
	}
	return c
}

// Record returns the durable form of the tracker. The output is sorted so
// equal trackers always produce equal records.
func (j *Justification) Record() *lean.JustificationRecord {
	record := &lean.JustificationRecord{
		Justified: make([]lean.Root, 0, len(j.justified)),
		Pending:   make([]lean.PendingJustification, 0, len(j.pending)),
	}
	for root := range j.justified {
		record.Justified = append(record.Justified, root)
	}
	sort.Slice(record.Justified, func(a, b int) bool {
		return record.Justified[a].Less(record.Justified[b])
	})

	for target, voters := range j.pending {
		indices := make([]uint64, 0, len(voters))
		for v := range voters {
			indices = append(indices, v)
		}
		sort.Slice(indices, func(a, b int) bool { return indices[a] < indices[b] })
		record.Pending = append(record.Pending, lean.PendingJustification{Target: target, Validators: indices})
	}
	sort.Slice(record.Pending, func(a, b int) bool {
		pa, pb := record.Pending[a].Target, record.Pending[b].Target
		if pa.Slot != pb.Slot {
			return pa.Slot < pb.Slot
		}
		return pa.Root.Less(pb.Root)
	})
	return record
}
