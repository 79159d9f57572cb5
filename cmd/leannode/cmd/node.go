package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ReamLabs/ream-sub002/module/component"
	"github.com/ReamLabs/ream-sub002/module/irrecoverable"
	"github.com/ReamLabs/ream-sub002/module/util"
)

var _ component.Component = (*LeanNode)(nil)

type LeanNode struct {
	*component.ComponentManager
	Logger       zerolog.Logger
	postShutdown func() error
}

// Run starts every component and blocks until ctx is cancelled or a
// component throws an irrecoverable error. A second cancellation is not
// awaited: shutdown always waits for all components to finish before the
// database and host are closed.
func (node *LeanNode) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	signalerCtx, errChan := irrecoverable.WithSignaler(runCtx)
	go node.Start(signalerCtx)

	go func() {
		select {
		case <-node.Ready():
			node.Logger.Info().Msg("lean node startup complete")
		case <-runCtx.Done():
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errChan:
		node.Logger.Error().Err(runErr).Msg("unhandled irrecoverable error")
	}

	node.Logger.Info().Msg("lean node shutting down")
	cancel()

	if err := util.WaitError(errChan, node.Done()); err != nil && runErr == nil {
		runErr = fmt.Errorf("irrecoverable error during shutdown: %w", err)
	}
	if err := node.postShutdown(); err != nil {
		node.Logger.Error().Err(err).Msg("could not release node resources")
		if runErr == nil {
			runErr = err
		}
	}

	node.Logger.Info().Msg("lean node shutdown complete")
	return runErr
}
