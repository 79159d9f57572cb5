package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/ReamLabs/ream-sub002/cmd/build"
	"github.com/ReamLabs/ream-sub002/config"
	"github.com/ReamLabs/ream-sub002/engine/common/synchronization"
	"github.com/ReamLabs/ream-sub002/engine/ingestion"
	"github.com/ReamLabs/ream-sub002/module/chainsync"
	"github.com/ReamLabs/ream-sub002/module/clock"
	"github.com/ReamLabs/ream-sub002/module/component"
	"github.com/ReamLabs/ream-sub002/module/events"
	"github.com/ReamLabs/ream-sub002/module/irrecoverable"
	"github.com/ReamLabs/ream-sub002/module/metrics"
	"github.com/ReamLabs/ream-sub002/module/signature"
	"github.com/ReamLabs/ream-sub002/module/validation"
	"github.com/ReamLabs/ream-sub002/network/p2p"
	"github.com/ReamLabs/ream-sub002/state/chain"
	"github.com/ReamLabs/ream-sub002/storage"
	"github.com/ReamLabs/ream-sub002/storage/operation/badgerimpl"
	"github.com/ReamLabs/ream-sub002/storage/operation/pebbleimpl"
	"github.com/ReamLabs/ream-sub002/storage/store"
)

type namedComponent struct {
	name      string
	component component.Component
}

// NodeBuilder wires the node from its configuration. Components are started
// in the order they were added.
type NodeBuilder struct {
	Config     config.Config
	Logger     zerolog.Logger
	Registerer prometheus.Registerer

	DB          storage.DB
	State       *chain.State
	Pending     *store.PendingBlocks
	Clock       *clock.SlotClock
	Gate        *validation.Gate
	Distributor *events.Distributor
	Host        host.Host

	components []namedComponent
	// run after all components are done, in reverse order
	closers []func() error
}

func NewNodeBuilder(cfg config.Config) *NodeBuilder {
	return &NodeBuilder{
		Config:      cfg,
		Registerer:  prometheus.DefaultRegisterer,
		Distributor: events.NewDistributor(),
	}
}

func (nb *NodeBuilder) Component(name string, c component.Component) *NodeBuilder {
	nb.components = append(nb.components, namedComponent{name: name, component: c})
	return nb
}

func (nb *NodeBuilder) initLogger() error {
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }
	lvl, err := zerolog.ParseLevel(strings.ToLower(nb.Config.LogLevel))
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	zerolog.SetGlobalLevel(lvl)
	nb.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	nb.Logger.Info().
		Str("version", build.Version()).
		Str("commit", build.Commit()).
		Str("profile", nb.Config.Profile).
		Msg("lean node starting up")
	if _, err := build.Semver(); err != nil {
		nb.Logger.Warn().Err(err).Msg("running a build without a semantic version")
	}
	return nil
}

func (nb *NodeBuilder) initDatabase() error {
	db, err := openDB(nb.Config)
	if err != nil {
		return err
	}
	nb.DB = db
	nb.closers = append(nb.closers, db.Close)
	return nil
}

func openDB(cfg config.Config) (storage.DB, error) {
	switch cfg.DBBackend {
	case config.BackendPebble:
		db, err := pebbleimpl.Open(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		return pebbleimpl.ToDB(db), nil
	default:
		db, err := badgerimpl.Open(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		return badgerimpl.ToDB(db), nil
	}
}

// initState bootstraps an empty database from the genesis configuration and
// loads the chain state.
func (nb *NodeBuilder) initState() error {
	validators, err := nb.Config.Genesis.ValidatorSet()
	if err != nil {
		return err
	}
	cacheMetrics := metrics.NewCacheCollector(nb.Registerer)
	blocks := store.NewBlocks(cacheMetrics, nb.DB)

	bootstrapped, err := chain.IsBootstrapped(nb.DB)
	if err != nil {
		return fmt.Errorf("could not check bootstrap: %w", err)
	}
	if !bootstrapped {
		genesis, err := nb.Config.Genesis.GenesisBlock()
		if err != nil {
			return err
		}
		if err := chain.Bootstrap(nb.DB, blocks, genesis); err != nil {
			return fmt.Errorf("could not bootstrap chain state: %w", err)
		}
		nb.Logger.Info().Msg("chain state bootstrapped from genesis")
	}

	st, err := chain.Open(nb.Logger, metrics.NewChainCollector(nb.Registerer), nb.Config.Params, validators, nb.DB, blocks)
	if err != nil {
		return fmt.Errorf("could not open chain state: %w", err)
	}
	nb.State = st
	nb.Pending = store.NewPendingBlocks(cacheMetrics, nb.DB)
	nb.Clock = clock.New(nb.Config.Params)

	gate, err := validation.NewGate(nb.Logger, metrics.NewValidationCollector(nb.Registerer), st, nb.Clock,
		signature.NewEd25519Verifier(), validation.WithConfig(nb.Config.Validation))
	if err != nil {
		return err
	}
	nb.Gate = gate
	return nil
}

func (nb *NodeBuilder) initEngines() error {
	netConfig := p2p.WithConfig(nb.Config.Network)
	netMetrics := metrics.NewNetworkCollector(nb.Registerer)
	syncMetrics := metrics.NewSyncCollector(nb.Registerer)

	ingest, err := ingestion.New(nb.Logger, metrics.NewIngestionCollector(nb.Registerer), nb.State, nb.Clock,
		nb.Distributor, nb.Distributor, ingestion.WithConfig(nb.Config.Ingestion))
	if err != nil {
		return fmt.Errorf("could not create ingestion engine: %w", err)
	}

	if nb.Config.Network.UserAgent == "" {
		nb.Config.Network.UserAgent = build.UserAgent()
	}
	h, err := p2p.NewHost(nb.Config.Network)
	if err != nil {
		return err
	}
	nb.Host = h
	nb.closers = append(nb.closers, h.Close)

	tracker := p2p.NewPeerTracker(nb.Logger, netMetrics, nb.Distributor, netConfig)
	client := p2p.NewClient(nb.Logger, h, tracker, nb.State, netConfig)
	server, err := p2p.NewServer(nb.Logger, netMetrics, h, nb.State, tracker, netConfig)
	if err != nil {
		return err
	}
	bootstrap, err := p2p.ParseBootstrapPeers(nb.Config.Network.Bootstrap)
	if err != nil {
		return err
	}

	// the router outlives the gossip component and stops with the host
	psCtx, cancel := context.WithCancel(context.Background())
	nb.closers = append(nb.closers, func() error {
		cancel()
		return nil
	})
	ps, err := p2p.NewGossipSub(psCtx, h, netConfig)
	if err != nil {
		return err
	}
	gossip, err := p2p.NewGossip(nb.Logger, netMetrics, ps, h.ID(), nb.Gate, ingest, netConfig)
	if err != nil {
		return err
	}

	core := chainsync.New(nb.Logger, syncMetrics, nb.State, nb.Pending, nb.Config.Params,
		chainsync.WithConfig(nb.Config.ChainSync))
	forward := chainsync.NewForwardSyncer(nb.Logger, nb.State, nb.Pending, ingest)
	syncEngine := synchronization.New(nb.Logger, syncMetrics, core, forward, nb.State, nb.Pending,
		client, nb.Gate, nb.Clock, synchronization.WithConfig(nb.Config.Sync))

	nb.Distributor.AddGapConsumer(syncEngine)
	nb.Distributor.AddPeerDisconnectConsumer(syncEngine)
	nb.Distributor.AddFinalizationConsumer(syncEngine)

	nb.Component("ingestion engine", ingest).
		Component("p2p node", p2p.NewNode(nb.Logger, h, tracker, server, bootstrap, netConfig)).
		Component("gossip", gossip).
		Component("sync engine", syncEngine)
	return nil
}

func (nb *NodeBuilder) initMetricsServer() {
	if nb.Config.MetricsAddr == "" {
		return
	}
	server := &http.Server{Addr: nb.Config.MetricsAddr, Handler: metrics.NewHTTPHandler(nb.Registerer)}
	nb.Component("metrics server", component.NewComponentManagerBuilder().
		AddWorker(func(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
			go func() {
				err := server.ListenAndServe()
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					ctx.Throw(fmt.Errorf("metrics server failed: %w", err))
				}
			}()
			ready()
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}).
		Build())
}

// Build initializes the node. Resources opened before a failure are released.
func (nb *NodeBuilder) Build() (*LeanNode, error) {
	steps := []func() error{
		nb.initLogger,
		nb.initDatabase,
		nb.initState,
		nb.initEngines,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			if closeErr := nb.close(); closeErr != nil {
				nb.Logger.Error().Err(closeErr).Msg("could not release resources after failed startup")
			}
			return nil, err
		}
	}
	nb.initMetricsServer()

	builder := component.NewComponentManagerBuilder()
	for _, c := range nb.components {
		c := c
		builder.AddWorker(func(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
			c.component.Start(ctx)
			select {
			case <-c.component.Ready():
				nb.Logger.Info().Msgf("%s ready", c.name)
				ready()
			case <-ctx.Done():
			}
			<-c.component.Done()
			nb.Logger.Info().Msgf("%s shutdown complete", c.name)
		})
	}

	return &LeanNode{
		ComponentManager: builder.Build(),
		Logger:           nb.Logger,
		postShutdown:     nb.close,
	}, nil
}

func (nb *NodeBuilder) close() error {
	var errs *multierror.Error
	for i := len(nb.closers) - 1; i >= 0; i-- {
		if err := nb.closers[i](); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	nb.closers = nil
	return errs.ErrorOrNil()
}
