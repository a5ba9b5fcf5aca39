// Package factory wires the duel server's components together
package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/mcoot/cardduel/internal/api"
	"github.com/mcoot/cardduel/internal/config"
	"github.com/mcoot/cardduel/internal/dependencies/clock"
	"github.com/mcoot/cardduel/internal/dependencies/random"
	"github.com/mcoot/cardduel/internal/server"
	"github.com/mcoot/cardduel/internal/services/duel"
	"github.com/mcoot/cardduel/internal/sse"
	"github.com/mcoot/cardduel/internal/storage"
	"github.com/mcoot/cardduel/internal/storage/memory"
	redisstorage "github.com/mcoot/cardduel/internal/storage/redis"
)

// App contains all wired application components
type App struct {
	Config config.Config

	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Controller *duel.Controller
	Hub        *sse.Hub
	GameServer *server.Server
	HTTPServer *api.Server // nil when the status API is disabled

	logger  *slog.Logger
	closers []io.Closer
}

// New creates a new application with all dependencies wired. A nil logger
// discards output.
func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var (
		store   storage.Storage
		closers []io.Closer
	)
	switch cfg.StorageType {
	case config.StorageMemory:
		store = memory.New()
	case config.StorageRedis:
		redisStore, err := redisstorage.New(cfg.Redis())
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		store = redisStore
		closers = append(closers, redisStore)
	default:
		return nil, errors.New("invalid storage type: must be 'memory' or 'redis'")
	}

	app := newWithDependencies(cfg, store, clock.New(), random.New(), logger)
	app.closers = closers
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(cfg config.Config, store storage.Storage, clk clock.Clock, rnd random.Random, logger *slog.Logger) *App {
	hub := sse.NewHub(logger)
	controller := duel.NewController(cfg.Duel(), store, clk, rnd, hub,
		logger.With(slog.String("component", "duel")))
	gameServer := server.New(cfg.Server(), controller, logger)

	var httpServer *api.Server
	if cfg.HTTPPort != 0 {
		router := api.NewRouter(api.RouterConfig{
			Logger:  logger.With(slog.String("component", "api")),
			Table:   controller,
			Storage: store,
			Hub:     hub,
		})
		httpServer = api.NewServer(router, cfg.HTTP(), logger)
	}

	return &App{
		Config:     cfg,
		Storage:    store,
		Clock:      clk,
		Random:     rnd,
		Controller: controller,
		Hub:        hub,
		GameServer: gameServer,
		HTTPServer: httpServer,
		logger:     logger,
	}
}

// Run listens on the configured addresses and serves until ctx is
// cancelled or a server fails
func (a *App) Run(ctx context.Context) error {
	gameLn, err := net.Listen("tcp", a.Config.Addr())
	if err != nil {
		return fmt.Errorf("listen for game connections: %w", err)
	}

	var httpLn net.Listener
	if a.HTTPServer != nil {
		httpLn, err = net.Listen("tcp", net.JoinHostPort(a.Config.HTTPHost, strconv.Itoa(a.Config.HTTPPort)))
		if err != nil {
			_ = gameLn.Close()
			return fmt.Errorf("listen for http: %w", err)
		}
	}

	return a.Serve(ctx, gameLn, httpLn)
}

// Serve runs every component on the given listeners. httpLn may be nil
// when the status API is disabled. Resources are released before Serve
// returns.
func (a *App) Serve(ctx context.Context, gameLn, httpLn net.Listener) error {
	defer a.close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	go a.Hub.Run()

	// Whichever server stops first takes the others down with it
	g.Go(func() error {
		defer cancel()
		return a.GameServer.Serve(ctx, gameLn)
	})

	if a.HTTPServer != nil && httpLn != nil {
		g.Go(func() error {
			defer cancel()
			return a.HTTPServer.Serve(httpLn)
		})
		g.Go(func() error {
			<-ctx.Done()
			// Closing the hub ends open event streams so shutdown does
			// not wait on them
			a.Hub.Close()
			return a.HTTPServer.Shutdown(context.WithoutCancel(ctx))
		})
	}

	err := g.Wait()
	a.logger.Info("server stopped")
	return err
}

func (a *App) close() {
	a.Controller.Close()
	a.Hub.Close()
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Warn("failed to close resource", slog.String("error", err.Error()))
		}
	}
}
