package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lunablock/lunablock-server/internal/config"
	"github.com/lunablock/lunablock-server/internal/room"
	"github.com/lunablock/lunablock-server/internal/server"
	"github.com/lunablock/lunablock-server/internal/session"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := cfg.Logging.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting Luna-Block server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("Luna-Block server stopped")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	identity := session.NewRegistry()
	hub := server.NewHub(logger)

	roomMgr := room.NewManager(identity, hub, room.Options{
		RetargetInterval:  cfg.Game.RetargetInterval,
		DefaultMaxPlayers: cfg.Game.DefaultMaxPlayers,
		MinPlayers:        cfg.Game.MinPlayers,
		MaxPlayers:        cfg.Game.MaxPlayers,
		SingleLineChance:  cfg.Game.SingleLineChance,
	}, logger)
	defer roomMgr.Close()
	logger.Info("room manager initialized",
		zap.Duration("retarget_interval", cfg.Game.RetargetInterval),
		zap.Int("default_max_players", cfg.Game.DefaultMaxPlayers),
	)

	httpServer := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: server.New(cfg.Server, hub, roomMgr, identity, logger).Routes(),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("address", cfg.Server.Address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
