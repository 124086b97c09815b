package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/lanchat-server/internal/config"
	"github.com/vovakirdan/lanchat-server/internal/core"
	"github.com/vovakirdan/lanchat-server/internal/store"
	"github.com/vovakirdan/lanchat-server/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/lanchat-server/internal/transport/http"
	"github.com/vovakirdan/lanchat-server/internal/utils"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	listener        net.Listener
	shutdownTimeout time.Duration
	hub             *core.Broadcaster
	store           store.Store
	runID           string
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	runID := utils.NewID()

	var st store.Store
	if cfg.Archive.Path != "" {
		s, err := sqlite.New(cfg.Archive.Path)
		if err != nil {
			return nil, fmt.Errorf("init archive: %w", err)
		}
		st = s
		logger.Info().Str("archive_path", cfg.Archive.Path).Str("run_id", runID).Msg("transcript archive enabled")
	}

	opts := core.Options{
		Window:   cfg.History.Window,
		Capacity: cfg.History.Capacity,
		RunID:    runID,
		Logger:   logger,
	}
	if st != nil {
		opts.Archive = st
	}
	hub := core.NewBroadcaster(opts)
	server := transporthttp.NewServer(hub, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		store:           st,
		runID:           runID,
		log:             logger,
	}, nil
}

// RunID identifies this process's messages in the archive.
func (a *App) RunID() string {
	return a.runID
}

// Listen binds the configured address. It is separate from Run so callers can
// report the bound address, or a bind failure, before serving.
func (a *App) Listen() (net.Addr, error) {
	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		a.cleanup()
		return nil, fmt.Errorf("cannot bind %s: %w", a.server.Addr, err)
	}
	a.listener = ln
	return ln.Addr(), nil
}

// Run serves until ctx is cancelled or the server fails. Listen is called
// first if it has not been already.
func (a *App) Run(ctx context.Context) error {
	if a.listener == nil {
		if _, err := a.Listen(); err != nil {
			return err
		}
	}
	defer a.cleanup()

	hubCtx, stopHub := context.WithCancel(context.Background())
	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		a.hub.Run(hubCtx)
	}()
	// The archive drains before cleanup closes the store.
	defer func() {
		stopHub()
		<-hubDone
	}()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.server.Serve(a.listener); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		a.log.Info().Msg("shutting down")
		// Stopping the hub first releases pending long-polls, which
		// Shutdown would otherwise wait on.
		stopHub()
		<-hubDone

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// cleanup closes the archive store.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close archive")
		} else {
			a.log.Info().Msg("archive closed")
		}
		a.store = nil
	}
}
