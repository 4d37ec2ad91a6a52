// Command feedrelay holds the single Postgres LISTEN connection and
// republishes every change notification on Redis for the API instances.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Webizinnovation/serveEz-sub003/internal/config"
	"github.com/Webizinnovation/serveEz-sub003/internal/realtime"
	"github.com/Webizinnovation/serveEz-sub003/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		zap.NewExample().Fatal("failed to load config", zap.Error(err))
	}

	log := logger.New(cfg.AppEnv).Named("feedrelay")
	defer logger.Sync(log)

	if cfg.RedisURL == "" {
		log.Fatal("REDIS_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := realtime.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer client.Close()

	source := realtime.NewPostgresFeed(cfg.DBUrl, cfg.FeedChannel, log)
	target := realtime.NewRedisFeed(client, cfg.FeedChannel, log)

	go func() {
		if err := source.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("postgres feed stopped", zap.Error(err))
			stop()
		}
	}()

	log.Info("relaying change feed", zap.String("channel", cfg.FeedChannel))
	if err := realtime.NewRelay(source, target, log).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("relay stopped", zap.Error(err))
	}
}
