package operation

import (
	"fmt"

	"github.com/ReamLabs/ream-sub002/model/lean"
	"github.com/ReamLabs/ream-sub002/storage"
)

// InsertVote stores a signed vote under its ID and indexes it by slot.
// Error returns:
//   - storage.ErrAlreadyExists if the same signed vote is already committed
func InsertVote(rw storage.ReaderBatchWriter, vote *lean.SignedVote) error {
	id := vote.ID()
	err := InsertByKey(rw, MakePrefix(codeVote, id), vote)
	if err != nil {
		return fmt.Errorf("could not insert vote %x: %w", id, err)
	}
	return UpsertByKey(rw.Writer(), MakePrefix(codeSlotToVote, vote.Vote.Slot, id), id)
}

func RetrieveVote(r storage.Reader, id lean.Root, vote *lean.SignedVote) error {
	return RetrieveByKey(r, MakePrefix(codeVote, id), vote)
}

func RemoveVote(w storage.Writer, id lean.Root, slot lean.Slot) error {
	err := RemoveByKey(w, MakePrefix(codeVote, id))
	if err != nil {
		return err
	}
	return RemoveByKey(w, MakePrefix(codeSlotToVote, slot, id))
}

// IterateVotes calls fn for every stored vote in ascending slot order.
func IterateVotes(r storage.Reader, fn func(vote *lean.SignedVote) error) error {
	var ids []lean.Root
	err := TraverseByPrefix(r, MakePrefix(codeSlotToVote), func(_ []byte, getValue func(any) error) (bool, error) {
		var id lean.Root
		if err := getValue(&id); err != nil {
			return true, err
		}
		ids = append(ids, id)
		return false, nil
	}, storage.DefaultIteratorOptions())
	if err != nil {
		return fmt.Errorf("could not traverse vote index: %w", err)
	}

	for _, id := range ids {
		var vote lean.SignedVote
		err := RetrieveVote(r, id, &vote)
		if err != nil {
			return fmt.Errorf("vote index points to missing vote %x: %w", id, err)
		}
		if err := fn(&vote); err != nil {
			return err
		}
	}
	return nil
}
