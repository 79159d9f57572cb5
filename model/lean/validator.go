package lean

import (
	"fmt"
	"sort"
)

// Validator is a voting participant.
type Validator struct {
	Index     uint64
	PublicKey []byte
	Weight    uint64
}

// ValidatorSet is the fixed set of active voters with their weights.
type ValidatorSet struct {
	byIndex map[uint64]Validator
	total   uint64
}

// NewValidatorSet builds a validator set. Indices must be unique and weights positive.
func NewValidatorSet(validators []Validator) (*ValidatorSet, error) {
	set := &ValidatorSet{byIndex: make(map[uint64]Validator, len(validators))}
	for _, v := range validators {
		if _, ok := set.byIndex[v.Index]; ok {
			return nil, fmt.Errorf("duplicate validator index %d", v.Index)
		}
		if v.Weight == 0 {
			return nil, fmt.Errorf("validator %d has zero weight", v.Index)
		}
		set.byIndex[v.Index] = v
		set.total += v.Weight
	}
	if len(set.byIndex) == 0 {
		return nil, fmt.Errorf("validator set is empty")
	}
	return set, nil
}

func (s *ValidatorSet) ByIndex(index uint64) (Validator, bool) {
	v, ok := s.byIndex[index]
	return v, ok
}

// Weight returns the weight of the validator, zero if unknown.
func (s *ValidatorSet) Weight(index uint64) uint64 {
	return s.byIndex[index].Weight
}

func (s *ValidatorSet) TotalWeight() uint64 {
	return s.total
}

func (s *ValidatorSet) Len() int {
	return len(s.byIndex)
}

// Indices returns all validator indices in ascending order.
func (s *ValidatorSet) Indices() []uint64 {
	indices := make([]uint64, 0, len(s.byIndex))
	for i := range s.byIndex {
		indices = append(indices, i)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })
	return indices
}
