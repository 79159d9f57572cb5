package p2p

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/ReamLabs/ream-sub002/model/lean"
	"github.com/ReamLabs/ream-sub002/module"
)

const (
	DefaultScore = 100
	MaxScore     = 200

	scoreReward  = 10
	scoreFailure = 20
	scorePenalty = 20
)

// PeerTracker keeps the score, the last reported status and a circuit breaker
// per connected peer. It learns about connections through the host's
// notification bundle and forwards disconnects to the consumer.
//
// PeerTracker is safe for concurrent use.
type PeerTracker struct {
	log      zerolog.Logger
	metrics  module.NetworkMetrics
	consumer module.PeerDisconnectConsumer
	config   Config

	mu    sync.RWMutex
	peers map[peer.ID]*trackedPeer
}

type trackedPeer struct {
	score   uint8
	status  *lean.Status
	breaker *gobreaker.CircuitBreaker
}

func NewPeerTracker(
	log zerolog.Logger,
	collector module.NetworkMetrics,
	consumer module.PeerDisconnectConsumer,
	opts ...OptionFunc,
) *PeerTracker {
	config := DefaultConfig()
	for _, apply := range opts {
		apply(&config)
	}
	return &PeerTracker{
		log:      log.With().Str("module", "peer_tracker").Logger(),
		metrics:  collector,
		consumer: consumer,
		config:   config,
		peers:    make(map[peer.ID]*trackedPeer),
	}
}

// Notifiee returns the bundle to register with the host network.
func (t *PeerTracker) Notifiee() network.Notifiee {
	return &network.NotifyBundle{
		ConnectedF: func(_ network.Network, conn network.Conn) {
			t.Connected(conn.RemotePeer())
		},
		DisconnectedF: func(n network.Network, conn network.Conn) {
			// a peer may hold more than one connection
			if n.Connectedness(conn.RemotePeer()) == network.Connected {
				return
			}
			t.Disconnected(conn.RemotePeer())
		},
	}
}

// Connected starts tracking a peer. Already tracked peers are left unchanged.
func (t *PeerTracker) Connected(id peer.ID) {
	t.mu.Lock()
	_, known := t.peers[id]
	if !known {
		t.peers[id] = t.newPeer(id)
	}
	count := len(t.peers)
	t.mu.Unlock()

	if known {
		return
	}
	t.metrics.ConnectedPeers(count)
	t.log.Debug().Str("peer", id.String()).Msg("peer connected")
}

// Disconnected forgets a peer and notifies the consumer.
func (t *PeerTracker) Disconnected(id peer.ID) {
	t.mu.Lock()
	_, known := t.peers[id]
	delete(t.peers, id)
	count := len(t.peers)
	t.mu.Unlock()

	if !known {
		return
	}
	t.metrics.ConnectedPeers(count)
	t.log.Debug().Str("peer", id.String()).Msg("peer disconnected")
	t.consumer.OnPeerDisconnected(id)
}

func (t *PeerTracker) newPeer(id peer.ID) *trackedPeer {
	return &trackedPeer{
		score: DefaultScore,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        id.String(),
			MaxRequests: 1,
			Timeout:     t.config.BreakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= t.config.BreakerFailures
			},
			IsSuccessful: func(err error) bool {
				// our own cancellations say nothing about the peer
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				t.log.Info().
					Str("peer", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("peer circuit breaker changed state")
			},
		}),
	}
}

// Execute runs a request to the peer through its circuit breaker and adjusts
// the peer score with the outcome. Peers that are not tracked yet are added.
// Expected errors during normal operations:
//   - gobreaker.ErrOpenState or gobreaker.ErrTooManyRequests while requests to the peer are suspended
//   - any error returned by request
func (t *PeerTracker) Execute(id peer.ID, request func() error) error {
	t.mu.Lock()
	p, ok := t.peers[id]
	if !ok {
		p = t.newPeer(id)
		t.peers[id] = p
	}
	t.mu.Unlock()

	_, err := p.breaker.Execute(func() (interface{}, error) {
		return nil, request()
	})
	switch {
	case err == nil:
		t.adjust(id, scoreReward)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests),
		errors.Is(err, context.Canceled):
	default:
		t.adjust(id, -scoreFailure)
	}
	return err
}

// Penalize lowers the score of a peer that sent invalid data.
func (t *PeerTracker) Penalize(id peer.ID, reason string) {
	t.adjust(id, -scorePenalty)
	t.log.Warn().Str("peer", id.String()).Str("reason", reason).Msg("peer penalized")
}

func (t *PeerTracker) adjust(id peer.ID, delta int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.peers[id]
	if !ok {
		return
	}
	score := int(p.score) + delta
	if score < 0 {
		score = 0
	}
	if score > MaxScore {
		score = MaxScore
	}
	p.score = uint8(score)
}

// SetStatus records the last status a peer reported.
func (t *PeerTracker) SetStatus(id peer.ID, status lean.Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p, ok := t.peers[id]; ok {
		p.status = &status
	}
}

// Peers returns the tracked peers ordered by id.
func (t *PeerTracker) Peers() []module.PeerInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()

	infos := make([]module.PeerInfo, 0, len(t.peers))
	for id, p := range t.peers {
		info := module.PeerInfo{
			ID:        id,
			Score:     p.score,
			Available: p.breaker.State() != gobreaker.StateOpen,
		}
		if p.status != nil {
			status := *p.status
			info.Status = &status
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}
