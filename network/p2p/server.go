package p2p

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/hashicorp/golang-lru/v2/simplelru"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/ReamLabs/ream-sub002/model/lean"
	"github.com/ReamLabs/ream-sub002/module"
	"github.com/ReamLabs/ream-sub002/state"
	"github.com/ReamLabs/ream-sub002/utils/logging"
)

// serveFunc reads one request from the stream and writes its response.
type serveFunc func(from peer.ID, s network.Stream) error

// Server answers status, blocks-by-range and blocks-by-root requests from the
// chain state. Requests are served by a bounded worker pool, each peer within
// its own request budget.
type Server struct {
	log     zerolog.Logger
	metrics module.NetworkMetrics
	host    host.Host
	state   state.State
	tracker *PeerTracker
	config  Config
	pool    *workerpool.WorkerPool

	limitersMu sync.Mutex
	limiters   *simplelru.LRU[peer.ID, *rate.Limiter]

	// stopped guards pool submissions against a concurrent Stop
	stopMu  sync.RWMutex
	stopped bool
}

func NewServer(
	log zerolog.Logger,
	collector module.NetworkMetrics,
	h host.Host,
	st state.State,
	tracker *PeerTracker,
	opts ...OptionFunc,
) (*Server, error) {
	config := DefaultConfig()
	for _, apply := range opts {
		apply(&config)
	}
	limiters, err := simplelru.NewLRU[peer.ID, *rate.Limiter](config.RateLimitedPeers, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create rate limiter cache: %w", err)
	}
	return &Server{
		log:      log.With().Str("module", "peer_server").Logger(),
		metrics:  collector,
		host:     h,
		state:    st,
		tracker:  tracker,
		config:   config,
		pool:     workerpool.New(config.ServeWorkers),
		limiters: limiters,
	}, nil
}

// Register installs the stream handlers on the host.
func (s *Server) Register() {
	s.host.SetStreamHandler(StatusProtocol, s.handler(StatusProtocol, s.serveStatus))
	s.host.SetStreamHandler(BlocksByRangeProtocol, s.handler(BlocksByRangeProtocol, s.serveBlocksByRange))
	s.host.SetStreamHandler(BlocksByRootProtocol, s.handler(BlocksByRootProtocol, s.serveBlocksByRoot))
}

// Stop removes the stream handlers and waits for requests being served.
func (s *Server) Stop() {
	s.host.RemoveStreamHandler(StatusProtocol)
	s.host.RemoveStreamHandler(BlocksByRangeProtocol)
	s.host.RemoveStreamHandler(BlocksByRootProtocol)

	s.stopMu.Lock()
	s.stopped = true
	s.stopMu.Unlock()
	s.pool.StopWait()
}

func (s *Server) handler(proto protocol.ID, serve serveFunc) network.StreamHandler {
	return func(stream network.Stream) {
		from := stream.Conn().RemotePeer()
		if !s.allow(from) {
			s.metrics.InboundRequestRateLimited(string(proto))
			s.log.Debug().Str("peer", from.String()).Str("protocol", string(proto)).Msg("request rate limited")
			_ = stream.Reset()
			return
		}
		s.metrics.InboundRequest(string(proto))

		s.stopMu.RLock()
		defer s.stopMu.RUnlock()
		if s.stopped {
			_ = stream.Reset()
			return
		}
		s.pool.Submit(func() {
			_ = stream.SetDeadline(time.Now().Add(s.config.ServeTimeout))
			err := serve(from, stream)
			if err != nil {
				s.log.Debug().Err(err).
					Str("peer", from.String()).
					Str("protocol", string(proto)).
					Msg("could not serve request")
				_ = stream.Reset()
				return
			}
			_ = stream.Close()
		})
	}
}

func (s *Server) allow(from peer.ID) bool {
	s.limitersMu.Lock()
	limiter, ok := s.limiters.Get(from)
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(s.config.RequestRate), s.config.RequestBurst)
		s.limiters.Add(from, limiter)
	}
	s.limitersMu.Unlock()
	return limiter.Allow()
}

// readRequest reads the single request frame and checks that the peer sent nothing after it.
func (s *Server) readRequest(stream network.Stream, req any) error {
	if err := ReadMessage(stream, s.config.MaxMessageSize, req); err != nil {
		return fmt.Errorf("could not read request: %w", err)
	}
	var trailing [1]byte
	if _, err := stream.Read(trailing[:]); !errors.Is(err, io.EOF) {
		return fmt.Errorf("expected end of request: %w", ErrInvalidEncoding)
	}
	return nil
}

// serveStatus records the status the peer sent and answers with ours.
func (s *Server) serveStatus(from peer.ID, stream network.Stream) error {
	var status lean.Status
	if err := s.readRequest(stream, &status); err != nil {
		return err
	}
	s.tracker.SetStatus(from, status)
	return WriteMessage(stream, s.state.Status())
}

// serveBlocksByRange walks the parents of the start block until the count is
// reached or a block is not part of the chain state.
func (s *Server) serveBlocksByRange(from peer.ID, stream network.Stream) error {
	var req BlocksByRangeRequest
	if err := s.readRequest(stream, &req); err != nil {
		return err
	}
	if req.Count == 0 || req.Count > MaxRequestBlocks {
		return fmt.Errorf("range of %d blocks outside of [1, %d]", req.Count, MaxRequestBlocks)
	}

	blocks := make([]*lean.SignedBlock, 0, req.Count)
	err := state.TraverseBackward(state.BlockSourceFunc(s.state.Block), req.StartRoot,
		func(block *lean.SignedBlock) error {
			blocks = append(blocks, block)
			return nil
		},
		func(*lean.SignedBlock) bool { return uint64(len(blocks)) < req.Count },
	)
	if err != nil && !errors.Is(err, state.ErrUnknownBlock) {
		return fmt.Errorf("could not read range from %s: %w", logging.Root(req.StartRoot), err)
	}
	return WriteMessage(stream, &BlocksResponse{Blocks: blocks})
}

func (s *Server) serveBlocksByRoot(from peer.ID, stream network.Stream) error {
	var req BlocksByRootRequest
	if err := s.readRequest(stream, &req); err != nil {
		return err
	}
	if len(req.Roots) == 0 || len(req.Roots) > MaxRequestBlocks {
		return fmt.Errorf("request of %d roots outside of [1, %d]", len(req.Roots), MaxRequestBlocks)
	}

	blocks := make([]*lean.SignedBlock, 0, len(req.Roots))
	for _, root := range req.Roots {
		block, err := s.state.Block(root)
		if errors.Is(err, state.ErrUnknownBlock) {
			continue
		}
		if err != nil {
			return fmt.Errorf("could not read block %s: %w", logging.Root(root), err)
		}
		blocks = append(blocks, block)
	}
	return WriteMessage(stream, &BlocksResponse{Blocks: blocks})
}
