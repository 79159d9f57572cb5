package p2p

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	pubsub "github.com/libp2p/go-libp2p-pubsub"
	pb "github.com/libp2p/go-libp2p-pubsub/pb"
	mocknet "github.com/libp2p/go-libp2p/p2p/net/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ReamLabs/ream-sub002/model/lean"
	"github.com/ReamLabs/ream-sub002/module/irrecoverable"
	"github.com/ReamLabs/ream-sub002/module/metrics"
	mockmodule "github.com/ReamLabs/ream-sub002/module/mock"
	"github.com/ReamLabs/ream-sub002/module/validation"
	"github.com/ReamLabs/ream-sub002/utils/unittest"
)

// fakeValidator returns a fixed result and records forgotten keys.
type fakeValidator struct {
	mu        sync.Mutex
	result    validation.Result
	err       error
	forgotten []lean.Root
}

func (v *fakeValidator) Validate(lean.QueueItem) (validation.Result, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.result, v.err
}

func (v *fakeValidator) Forget(key lean.Root) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.forgotten = append(v.forgotten, key)
}

func (v *fakeValidator) Forgotten() []lean.Root {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]lean.Root(nil), v.forgotten...)
}

type gossipFixture struct {
	gossip    *Gossip
	validator *fakeValidator
	ingestion *mockmodule.IngestionQueue
}

func newGossipFixture(t *testing.T, result validation.Result) *gossipFixture {
	net := mocknet.New()
	t.Cleanup(func() { _ = net.Close() })
	h, err := net.GenPeer()
	require.NoError(t, err)

	psCtx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	ps, err := NewGossipSub(psCtx, h)
	require.NoError(t, err)

	f := &gossipFixture{
		validator: &fakeValidator{result: result},
		ingestion: mockmodule.NewIngestionQueue(t),
	}
	f.gossip, err = NewGossip(unittest.Logger(), metrics.NewNoopCollector(), ps, h.ID(), f.validator, f.ingestion)
	require.NoError(t, err)
	return f
}

func (f *gossipFixture) start(t *testing.T) context.CancelFunc {
	ctx, cancel := irrecoverable.NewMockSignalerContextWithCancel(t, context.Background())
	f.gossip.Start(ctx)
	unittest.RequireCloseBefore(t, f.gossip.Ready(), time.Second, "gossip did not start")
	return cancel
}

func TestGossip_PublishedBlockIsIngested(t *testing.T) {
	f := newGossipFixture(t, validation.Accept)
	block := unittest.ValidatorsFixture(t, 4).BlockWithParent(t, unittest.GenesisFixture(), 1)

	submitted := make(chan lean.QueueItem, 1)
	f.ingestion.On("Submit", mock.Anything).
		Run(func(args mock.Arguments) { submitted <- args.Get(0).(lean.QueueItem) }).
		Return(true).Once()

	cancel := f.start(t)
	defer cancel()
	require.NoError(t, f.gossip.PublishBlock(context.Background(), block))

	select {
	case item := <-submitted:
		blockItem, ok := item.(*lean.BlockItem)
		require.True(t, ok)
		assert.Equal(t, block.Root(), blockItem.Block.Root())
		// locally produced items carry no origin
		assert.Empty(t, blockItem.OriginID())
	case <-time.After(2 * time.Second):
		t.Fatal("published block was not submitted")
	}
}

func TestGossip_FullQueueForgetsItem(t *testing.T) {
	f := newGossipFixture(t, validation.Accept)
	validators := unittest.ValidatorsFixture(t, 4)
	genesis := unittest.GenesisFixture()
	vote := validators.VoteFixture(t, 1, genesis.Checkpoint(), genesis.Checkpoint(), genesis.Checkpoint())

	f.ingestion.On("Submit", mock.Anything).Return(false).Once()

	cancel := f.start(t)
	defer cancel()
	require.NoError(t, f.gossip.PublishVote(context.Background(), vote))

	require.Eventually(t, func() bool {
		forgotten := f.validator.Forgotten()
		return len(forgotten) == 1 && forgotten[0] == vote.ID()
	}, 2*time.Second, 10*time.Millisecond)
}

func TestGossip_TopicValidatorMapsResults(t *testing.T) {
	block := unittest.ValidatorsFixture(t, 4).BlockWithParent(t, unittest.GenesisFixture(), 1)
	data, err := Encode(block)
	require.NoError(t, err)
	from := unittest.PeerIDFixture(t)

	message := func(data []byte) *pubsub.Message {
		return &pubsub.Message{Message: &pb.Message{Data: data}, ReceivedFrom: from}
	}

	cases := []struct {
		result   validation.Result
		expected pubsub.ValidationResult
	}{
		{validation.Accept, pubsub.ValidationAccept},
		{validation.Ignore, pubsub.ValidationIgnore},
		{validation.Reject, pubsub.ValidationReject},
	}
	for _, c := range cases {
		t.Run(c.result.String(), func(t *testing.T) {
			f := newGossipFixture(t, c.result)
			validate := f.gossip.topicValidator(BlockTopic, f.gossip.decodeBlock)

			msg := message(data)
			assert.Equal(t, c.expected, validate(context.Background(), from, msg))
			if c.result == validation.Accept {
				item, ok := msg.ValidatorData.(*lean.BlockItem)
				require.True(t, ok)
				assert.Equal(t, from, item.OriginID())
				assert.Equal(t, block.Root(), item.Key())
			} else {
				assert.Nil(t, msg.ValidatorData)
			}
		})
	}

	t.Run("undecodable payload is rejected", func(t *testing.T) {
		f := newGossipFixture(t, validation.Accept)
		validate := f.gossip.topicValidator(BlockTopic, f.gossip.decodeBlock)
		assert.Equal(t, pubsub.ValidationReject, validate(context.Background(), from, message([]byte("garbage"))))
	})
}

func TestGossip_ValidatorExceptionIsThrown(t *testing.T) {
	f := newGossipFixture(t, validation.Accept)
	failure := errors.New("state corrupted")
	f.validator.err = failure

	block := unittest.ValidatorsFixture(t, 4).BlockWithParent(t, unittest.GenesisFixture(), 1)
	data, err := Encode(block)
	require.NoError(t, err)
	validate := f.gossip.topicValidator(BlockTopic, f.gossip.decodeBlock)
	msg := &pubsub.Message{Message: &pb.Message{Data: data}}
	assert.Equal(t, pubsub.ValidationIgnore, validate(context.Background(), unittest.PeerIDFixture(t), msg))

	ctx := irrecoverable.NewMockSignalerContextExpectError(t, context.Background(),
		errors.New("could not validate gossip message: state corrupted"))
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.gossip.exceptionLoop(ctx, func() {})
	}()
	unittest.RequireCloseBefore(t, done, time.Second, "exception was not thrown")
}
