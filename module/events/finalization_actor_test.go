package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ReamLabs/ream-sub002/model/lean"
	"github.com/ReamLabs/ream-sub002/module/irrecoverable"
	"github.com/ReamLabs/ream-sub002/utils/unittest"
)

// TestFinalizationActor_SubscribeDuringConstruction tests that the FinalizationActor
// subscription is valid during construction of the component using it.
func TestFinalizationActor_SubscribeDuringConstruction(t *testing.T) {
	handled := make(chan lean.Checkpoint, 10)
	actor, worker := NewFinalizationActor(func(cp lean.Checkpoint) error {
		handled <- cp
		return nil
	})

	// the consumer may be notified before the worker starts
	cp := unittest.CheckpointFixture(3)
	actor.OnFinalized(cp)

	ctx, cancel := irrecoverable.NewMockSignalerContextWithCancel(t, context.Background())
	defer cancel()
	go worker(ctx, func() {})

	select {
	case got := <-handled:
		assert.Equal(t, cp, got)
	case <-time.After(time.Second):
		t.Fatal("checkpoint was not handled")
	}
}

func TestFinalizationActor_IgnoresOlderCheckpoints(t *testing.T) {
	actor, _ := NewFinalizationActor(func(lean.Checkpoint) error { return nil })

	newer := unittest.CheckpointFixture(5)
	actor.OnFinalized(newer)
	actor.OnFinalized(unittest.CheckpointFixture(4))
	actor.OnFinalized(unittest.CheckpointFixture(5))
	assert.Equal(t, newer, actor.Newest())

	newest := unittest.CheckpointFixture(6)
	actor.OnFinalized(newest)
	assert.Equal(t, newest, actor.Newest())
}

func TestFinalizationActor_HandlerErrorIsThrown(t *testing.T) {
	failure := errors.New("pruning failed")
	actor, worker := NewFinalizationActor(func(lean.Checkpoint) error {
		return failure
	})

	ctx := irrecoverable.NewMockSignalerContextExpectError(t, context.Background(), failure)
	actor.OnFinalized(unittest.CheckpointFixture(1))

	done := make(chan struct{})
	go func() {
		defer close(done)
		worker(ctx, func() {})
	}()
	unittest.RequireCloseBefore(t, done, time.Second, "worker did not exit after throwing")
	require.Equal(t, uint64(1), actor.Newest().Slot)
}
