package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lunablock/lunablock-server/internal/bot"
	"github.com/lunablock/lunablock-server/internal/config"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	count      = flag.Int("n", 1, "number of bots to run")
	roomID     = flag.String("room", "", "room to join; empty creates one")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *roomID != "" {
		cfg.Bot.Room = *roomID
	}

	logger, err := cfg.Logging.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < *count; i++ {
		botCfg := cfg.Bot
		if *count > 1 {
			botCfg.Nickname = fmt.Sprintf("%s-%d", cfg.Bot.Nickname, i+1)
		}
		if cfg.Bot.Room == "" && *count > botCfg.MinPlayers {
			botCfg.MinPlayers = *count
		}
		b := bot.New(botCfg, logger.With(zap.String("bot", botCfg.Nickname)))
		g.Go(func() error { return b.Run(ctx) })

		// The first bot hosts; the rest follow it into its room.
		if cfg.Bot.Room == "" {
			room, err := waitForRoom(ctx, b)
			if err != nil {
				break
			}
			cfg.Bot.Room = room
		}
	}

	if err := g.Wait(); err != nil {
		logger.Error("bot stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func waitForRoom(ctx context.Context, b *bot.Bot) (string, error) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		if id := b.RoomID(); id != "" {
			return id, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}
