package forkchoice

import (
	"github.com/ReamLabs/ream-sub002/model/lean"
)

// LatestVotes picks each validator's latest vote: the one with the highest
// slot. When a validator equivocated at that slot the vote with the lowest
// head root wins, so every node resolves the conflict the same way.
func LatestVotes(votes []*lean.SignedVote) map[uint64]*lean.Vote {
	latest := make(map[uint64]*lean.Vote)
	for _, sv := range votes {
		vote := &sv.Vote
		current, ok := latest[vote.ValidatorIndex]
		if !ok || Supersedes(vote, current) {
			latest[vote.ValidatorIndex] = vote
		}
	}
	return latest
}

// Supersedes reports whether vote replaces current as a validator's latest vote.
func Supersedes(vote, current *lean.Vote) bool {
	if vote.Slot != current.Slot {
		return vote.Slot > current.Slot
	}
	return vote.Head.Root.Less(current.Head.Root)
}
