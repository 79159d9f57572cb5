package logging

import (
	"github.com/rs/zerolog"

	"github.com/ReamLabs/ream-sub002/model/lean"
)

// Root returns the hex form of a root for structured log fields.
func Root(r lean.Root) string {
	return r.String()
}

// Roots returns the hex form of a list of roots.
func Roots(roots []lean.Root) []string {
	ss := make([]string, 0, len(roots))
	for _, r := range roots {
		ss = append(ss, r.String())
	}
	return ss
}

// Checkpoint adds a checkpoint to a log context under the given prefix.
func Checkpoint(ctx zerolog.Context, prefix string, cp lean.Checkpoint) zerolog.Context {
	return ctx.
		Str(prefix+"_root", cp.Root.String()).
		Uint64(prefix+"_slot", cp.Slot)
}

// Block adds the identifying fields of a block to an event.
func Block(event *zerolog.Event, block *lean.SignedBlock) *zerolog.Event {
	return event.
		Str("block_root", block.Root().String()).
		Uint64("block_slot", block.Block.Slot).
		Str("parent_root", block.Block.ParentRoot.String())
}

// CheckpointDict returns a checkpoint as a nested log object, for use with Event.Dict.
func CheckpointDict(cp lean.Checkpoint) *zerolog.Event {
	return zerolog.Dict().
		Str("root", cp.Root.String()).
		Uint64("slot", cp.Slot)
}
