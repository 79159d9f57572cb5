package p2p

import (
	"context"
	"errors"
	"fmt"

	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/rs/zerolog"

	"github.com/ReamLabs/ream-sub002/model/lean"
	"github.com/ReamLabs/ream-sub002/module"
	"github.com/ReamLabs/ream-sub002/module/component"
	"github.com/ReamLabs/ream-sub002/module/irrecoverable"
	"github.com/ReamLabs/ream-sub002/module/validation"
)

const (
	BlockTopic = "/lean/blocks/1"
	VoteTopic  = "/lean/votes/1"
)

// ItemValidator decides on gossiped items before they are relayed.
type ItemValidator interface {
	Validate(item lean.QueueItem) (validation.Result, error)
	Forget(key lean.Root)
}

// Gossip joins the block and vote topics. Messages are decoded and run
// through the validator inside the pubsub topic validator, so only accepted
// items are relayed. Accepted items are then submitted to the ingestion queue.
type Gossip struct {
	*component.ComponentManager
	log       zerolog.Logger
	metrics   module.NetworkMetrics
	self      peer.ID
	validator ItemValidator
	ingestion module.IngestionQueue
	config    Config

	topics     map[string]*pubsub.Topic
	subs       map[string]*pubsub.Subscription
	exceptions chan error
}

// NewGossipSub creates the pubsub router. The router stops when ctx is done.
func NewGossipSub(ctx context.Context, h host.Host, opts ...OptionFunc) (*pubsub.PubSub, error) {
	config := DefaultConfig()
	for _, apply := range opts {
		apply(&config)
	}
	ps, err := pubsub.NewGossipSub(ctx, h,
		pubsub.WithMaxMessageSize(config.MaxMessageSize),
		pubsub.WithMessageSignaturePolicy(pubsub.StrictSign),
	)
	if err != nil {
		return nil, fmt.Errorf("could not create gossipsub router: %w", err)
	}
	return ps, nil
}

func NewGossip(
	log zerolog.Logger,
	collector module.NetworkMetrics,
	ps *pubsub.PubSub,
	self peer.ID,
	validator ItemValidator,
	ingestion module.IngestionQueue,
	opts ...OptionFunc,
) (*Gossip, error) {
	config := DefaultConfig()
	for _, apply := range opts {
		apply(&config)
	}
	g := &Gossip{
		log:        log.With().Str("engine", "gossip").Logger(),
		metrics:    collector,
		self:       self,
		validator:  validator,
		ingestion:  ingestion,
		config:     config,
		topics:     make(map[string]*pubsub.Topic),
		subs:       make(map[string]*pubsub.Subscription),
		exceptions: make(chan error, 1),
	}

	decoders := map[string]func(origin peer.ID, data []byte) (lean.QueueItem, error){
		BlockTopic: g.decodeBlock,
		VoteTopic:  g.decodeVote,
	}
	builder := component.NewComponentManagerBuilder()
	for _, topic := range []string{BlockTopic, VoteTopic} {
		err := ps.RegisterTopicValidator(topic, g.topicValidator(topic, decoders[topic]))
		if err != nil {
			return nil, fmt.Errorf("could not register validator for topic %s: %w", topic, err)
		}
		t, err := ps.Join(topic)
		if err != nil {
			return nil, fmt.Errorf("could not join topic %s: %w", topic, err)
		}
		sub, err := t.Subscribe()
		if err != nil {
			return nil, fmt.Errorf("could not subscribe to topic %s: %w", topic, err)
		}
		g.topics[topic] = t
		g.subs[topic] = sub
		builder.AddWorker(g.deliveryLoop(sub))
	}
	g.ComponentManager = builder.AddWorker(g.exceptionLoop).Build()

	return g, nil
}

func (g *Gossip) decodeBlock(origin peer.ID, data []byte) (lean.QueueItem, error) {
	var block lean.SignedBlock
	if err := Decode(data, g.config.MaxMessageSize, &block); err != nil {
		return nil, err
	}
	return lean.NewBlockItem(origin, &block), nil
}

func (g *Gossip) decodeVote(origin peer.ID, data []byte) (lean.QueueItem, error) {
	var vote lean.SignedVote
	if err := Decode(data, g.config.MaxMessageSize, &vote); err != nil {
		return nil, err
	}
	return lean.NewVoteItem(origin, &vote), nil
}

// topicValidator maps gate decisions onto pubsub results. The decoded item is
// attached to the message so delivery does not decode it again.
func (g *Gossip) topicValidator(
	topic string,
	decode func(origin peer.ID, data []byte) (lean.QueueItem, error),
) pubsub.ValidatorEx {
	return func(_ context.Context, from peer.ID, msg *pubsub.Message) pubsub.ValidationResult {
		g.metrics.GossipReceived(topic)

		origin := from
		if origin == g.self {
			origin = ""
		}
		item, err := decode(origin, msg.Data)
		if err != nil {
			g.log.Debug().Err(err).Str("peer", from.String()).Str("topic", topic).Msg("could not decode gossip message")
			return pubsub.ValidationReject
		}

		result, err := g.validator.Validate(item)
		if err != nil {
			select {
			case g.exceptions <- fmt.Errorf("could not validate gossip message: %w", err):
			default:
			}
			return pubsub.ValidationIgnore
		}
		if result == validation.Accept {
			msg.ValidatorData = item
		}
		return result.PubSub()
	}
}

func (g *Gossip) deliveryLoop(sub *pubsub.Subscription) component.ComponentWorker {
	return func(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
		ready()
		defer sub.Cancel()
		for {
			msg, err := sub.Next(ctx)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, pubsub.ErrSubscriptionCancelled) {
					return
				}
				ctx.Throw(fmt.Errorf("could not read subscription %s: %w", sub.Topic(), err))
				return
			}
			item, ok := msg.ValidatorData.(lean.QueueItem)
			if !ok {
				continue
			}
			if !g.ingestion.Submit(item) {
				// the item was not queued, accept a later copy again
				g.validator.Forget(item.Key())
				g.log.Debug().Str("topic", sub.Topic()).Msg("ingestion queue full, dropped gossip item")
			}
		}
	}
}

func (g *Gossip) exceptionLoop(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	ready()
	select {
	case <-ctx.Done():
	case err := <-g.exceptions:
		ctx.Throw(err)
	}
}

// PublishBlock gossips a locally produced block.
func (g *Gossip) PublishBlock(ctx context.Context, block *lean.SignedBlock) error {
	return g.publish(ctx, BlockTopic, block)
}

// PublishVote gossips a locally produced vote.
func (g *Gossip) PublishVote(ctx context.Context, vote *lean.SignedVote) error {
	return g.publish(ctx, VoteTopic, vote)
}

func (g *Gossip) publish(ctx context.Context, topic string, v any) error {
	data, err := Encode(v)
	if err != nil {
		return irrecoverable.NewException(err)
	}
	if err := g.topics[topic].Publish(ctx, data); err != nil {
		return fmt.Errorf("could not publish to topic %s: %w", topic, err)
	}
	return nil
}
