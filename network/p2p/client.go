package p2p

import (
	"context"
	"errors"
	"fmt"

	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/ReamLabs/ream-sub002/model/lean"
	"github.com/ReamLabs/ream-sub002/module"
	"github.com/ReamLabs/ream-sub002/state"
)

// ErrInvalidResponse is returned when a peer answers with more data than requested.
var ErrInvalidResponse = errors.New("invalid response")

// Client is the requesting side of the peer protocol. Every request runs
// through the peer's circuit breaker in the tracker.
type Client struct {
	log     zerolog.Logger
	host    host.Host
	tracker *PeerTracker
	state   state.State
	config  Config
}

var _ module.PeerAdapter = (*Client)(nil)

func NewClient(log zerolog.Logger, h host.Host, tracker *PeerTracker, st state.State, opts ...OptionFunc) *Client {
	config := DefaultConfig()
	for _, apply := range opts {
		apply(&config)
	}
	return &Client{
		log:     log.With().Str("module", "peer_client").Logger(),
		host:    h,
		tracker: tracker,
		state:   st,
		config:  config,
	}
}

// GetStatus exchanges status messages with the peer and records the answer.
func (c *Client) GetStatus(ctx context.Context, id peer.ID) (*lean.Status, error) {
	var status lean.Status
	err := c.tracker.Execute(id, func() error {
		return c.roundTrip(ctx, id, StatusProtocol, c.state.Status(), &status)
	})
	if err != nil {
		return nil, fmt.Errorf("could not get status of peer %s: %w", id, err)
	}
	c.tracker.SetStatus(id, status)
	return &status, nil
}

// RequestRange asks the peer for the block at startRoot and its ancestors.
func (c *Client) RequestRange(ctx context.Context, id peer.ID, startRoot lean.Root, count uint64) ([]*lean.SignedBlock, error) {
	if count == 0 || count > MaxRequestBlocks {
		return nil, fmt.Errorf("range of %d blocks outside of [1, %d]", count, MaxRequestBlocks)
	}

	var resp BlocksResponse
	err := c.tracker.Execute(id, func() error {
		err := c.roundTrip(ctx, id, BlocksByRangeProtocol, &BlocksByRangeRequest{StartRoot: startRoot, Count: count}, &resp)
		if err != nil {
			return err
		}
		if uint64(len(resp.Blocks)) > count {
			return fmt.Errorf("got %d blocks for a range of %d: %w", len(resp.Blocks), count, ErrInvalidResponse)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not request range from peer %s: %w", id, err)
	}
	return resp.Blocks, nil
}

// RequestByRoot asks the peer for individual blocks. The response holds the
// blocks the peer knows, in request order.
func (c *Client) RequestByRoot(ctx context.Context, id peer.ID, roots []lean.Root) ([]*lean.SignedBlock, error) {
	if len(roots) == 0 || len(roots) > MaxRequestBlocks {
		return nil, fmt.Errorf("request of %d roots outside of [1, %d]", len(roots), MaxRequestBlocks)
	}

	var resp BlocksResponse
	err := c.tracker.Execute(id, func() error {
		err := c.roundTrip(ctx, id, BlocksByRootProtocol, &BlocksByRootRequest{Roots: roots}, &resp)
		if err != nil {
			return err
		}
		if len(resp.Blocks) > len(roots) {
			return fmt.Errorf("got %d blocks for %d roots: %w", len(resp.Blocks), len(roots), ErrInvalidResponse)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not request blocks from peer %s: %w", id, err)
	}
	return resp.Blocks, nil
}

func (c *Client) Peers() []module.PeerInfo {
	return c.tracker.Peers()
}

func (c *Client) Penalize(id peer.ID, reason string) {
	c.tracker.Penalize(id, reason)
}

// roundTrip writes a single request and reads a single response. The stream
// is reset as soon as ctx is done.
func (c *Client) roundTrip(ctx context.Context, id peer.ID, proto protocol.ID, req any, resp any) error {
	s, err := c.openStream(ctx, id, proto)
	if err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() {
		_ = s.Reset()
	})
	defer stop()

	if deadline, ok := ctx.Deadline(); ok {
		_ = s.SetDeadline(deadline)
	}
	if err := WriteMessage(s, req); err != nil {
		_ = s.Reset()
		return c.streamError(ctx, fmt.Errorf("could not write request: %w", err))
	}
	if err := s.CloseWrite(); err != nil {
		_ = s.Reset()
		return c.streamError(ctx, fmt.Errorf("could not close request: %w", err))
	}
	if err := ReadMessage(s, c.config.MaxMessageSize, resp); err != nil {
		_ = s.Reset()
		return c.streamError(ctx, fmt.Errorf("could not read response: %w", err))
	}
	return s.Close()
}

// streamError reports a cancellation of ctx instead of the stream reset it caused.
func (c *Client) streamError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", err, ctxErr)
	}
	return err
}

// openStream opens a stream to the peer, retrying with exponential backoff.
func (c *Client) openStream(ctx context.Context, id peer.ID, proto protocol.ID) (network.Stream, error) {
	backoff, err := retry.NewExponential(c.config.DialBackoff)
	if err != nil {
		return nil, fmt.Errorf("could not create backoff: %w", err)
	}
	backoff = retry.WithMaxRetries(c.config.DialRetries, backoff)

	var stream network.Stream
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		s, err := c.host.NewStream(ctx, id, proto)
		if err != nil {
			c.log.Debug().Err(err).Str("peer", id.String()).Str("protocol", string(proto)).Msg("could not open stream")
			return retry.RetryableError(err)
		}
		stream = s
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not open %s stream: %w", proto, err)
	}
	return stream, nil
}
