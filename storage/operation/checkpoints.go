package operation

import (
	"github.com/ReamLabs/ream-sub002/model/lean"
	"github.com/ReamLabs/ream-sub002/storage"
)

// CheckpointKind selects one of the latest checkpoints tracked by the chain.
type CheckpointKind byte

const (
	CheckpointHead      CheckpointKind = codeLatestHead
	CheckpointJustified CheckpointKind = codeLatestJustified
	CheckpointFinalized CheckpointKind = codeLatestFinalized
	CheckpointSafe      CheckpointKind = codeSafeTarget
)

func (k CheckpointKind) String() string {
	switch k {
	case CheckpointHead:
		return "head"
	case CheckpointJustified:
		return "justified"
	case CheckpointFinalized:
		return "finalized"
	case CheckpointSafe:
		return "safe_target"
	default:
		return "unknown"
	}
}

func UpsertCheckpoint(w storage.Writer, kind CheckpointKind, cp lean.Checkpoint) error {
	return UpsertByKey(w, MakePrefix(byte(kind)), cp)
}

// RetrieveCheckpoint reads the latest checkpoint of the given kind.
// Error returns:
//   - storage.ErrNotFound if it was never written
func RetrieveCheckpoint(r storage.Reader, kind CheckpointKind, cp *lean.Checkpoint) error {
	return RetrieveByKey(r, MakePrefix(byte(kind)), cp)
}

func UpsertJustification(w storage.Writer, record *lean.JustificationRecord) error {
	return UpsertByKey(w, MakePrefix(codeJustification), record)
}

func RetrieveJustification(r storage.Reader, record *lean.JustificationRecord) error {
	return RetrieveByKey(r, MakePrefix(codeJustification), record)
}
