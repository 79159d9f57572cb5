package p2p

import (
	"context"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/rs/zerolog"

	"github.com/ReamLabs/ream-sub002/module/component"
	"github.com/ReamLabs/ream-sub002/module/irrecoverable"
)

// Node runs the request/response side of the host: it tracks connections,
// serves inbound requests and keeps the bootstrap peers connected.
type Node struct {
	*component.ComponentManager
	log       zerolog.Logger
	host      host.Host
	tracker   *PeerTracker
	server    *Server
	bootstrap []peer.AddrInfo
	config    Config
}

func NewNode(
	log zerolog.Logger,
	h host.Host,
	tracker *PeerTracker,
	server *Server,
	bootstrap []peer.AddrInfo,
	opts ...OptionFunc,
) *Node {
	config := DefaultConfig()
	for _, apply := range opts {
		apply(&config)
	}
	n := &Node{
		log:       log.With().Str("engine", "p2p_node").Str("peer_id", h.ID().String()).Logger(),
		host:      h,
		tracker:   tracker,
		server:    server,
		bootstrap: bootstrap,
		config:    config,
	}
	n.ComponentManager = component.NewComponentManagerBuilder().
		AddWorker(n.serve).
		AddWorker(n.connectLoop).
		Build()
	return n
}

func (n *Node) serve(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	notifiee := n.tracker.Notifiee()
	n.host.Network().Notify(notifiee)
	defer n.host.Network().StopNotify(notifiee)

	// peers connected before the notifiee was registered
	for _, id := range n.host.Network().Peers() {
		n.tracker.Connected(id)
	}

	n.server.Register()
	defer n.server.Stop()

	n.log.Info().Strs("addrs", multiaddrStrings(n.host)).Msg("p2p node started")
	ready()
	<-ctx.Done()
}

func (n *Node) connectLoop(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	ready()
	if len(n.bootstrap) == 0 {
		return
	}

	ticker := time.NewTicker(n.config.ReconnectInterval)
	defer ticker.Stop()
	for {
		n.connectBootstrap(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// connectBootstrap dials every bootstrap peer that is not connected.
func (n *Node) connectBootstrap(ctx context.Context) {
	var errs *multierror.Error
	for _, info := range n.bootstrap {
		if info.ID == n.host.ID() || n.host.Network().Connectedness(info.ID) == network.Connected {
			continue
		}
		dialCtx, cancel := context.WithTimeout(ctx, n.config.ReconnectInterval)
		err := n.host.Connect(dialCtx, info)
		cancel()
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		n.log.Info().Str("peer", info.ID.String()).Msg("connected to bootstrap peer")
	}
	if err := errs.ErrorOrNil(); err != nil && ctx.Err() == nil {
		n.log.Warn().Err(err).Msg("could not connect to some bootstrap peers")
	}
}

func multiaddrStrings(h host.Host) []string {
	addrs := h.Addrs()
	out := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		out = append(out, addr.String())
	}
	return out
}
