package module

import (
	"context"

	"github.com/ReamLabs/ream-sub002/model/lean"
)

// IngestionQueue accepts validated blocks and votes for application to the
// chain state.
type IngestionQueue interface {
	// Submit enqueues an item without blocking. It returns false if the item
	// was dropped because the queue is full.
	Submit(item lean.QueueItem) bool

	// SubmitWait enqueues an item, waiting for space until ctx is done.
	SubmitWait(ctx context.Context, item lean.QueueItem) error
}

// GapConsumer is told about missing ancestry discovered by ingestion.
type GapConsumer interface {
	// HandleGap reports a block whose parent is unknown locally. The block
	// itself is handed over and must not be lost.
	HandleGap(block *lean.SignedBlock)

	// HandleBacklogPressure reports that held votes had to be given up
	// without a block to anchor a sync job on. missing holds the roots of
	// the blocks they were waiting for.
	HandleBacklogPressure(missing []lean.Root)
}

// FinalizationConsumer is told when the finalized checkpoint advances.
// Implementations must be non-blocking.
type FinalizationConsumer interface {
	OnFinalized(cp lean.Checkpoint)
}
