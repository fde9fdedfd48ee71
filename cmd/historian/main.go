// cmd/historian drains the Redis move queue into PostgreSQL.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/chesslive/internal/cache"
	"github.com/jason-s-yu/chesslive/internal/config"
	"github.com/jason-s-yu/chesslive/internal/database"
	"github.com/jason-s-yu/chesslive/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg.PostgresURL())
	if err != nil {
		logger.Fatal(err)
	}
	defer pool.Close()
	store := database.NewStore(pool)
	if err := store.Migrate(ctx); err != nil {
		logger.Fatal(err)
	}

	addr := cfg.RedisAddr
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb, err := cache.Connect(ctx, addr, cfg.RedisDB)
	if err != nil {
		logger.Fatal(err)
	}
	defer rdb.Close()

	svc := historian.New(rdb, store, logger, historian.Config{
		Queue:         cfg.HistorianQueue,
		BatchSize:     cfg.HistorianBatchSize,
		FlushInterval: cfg.HistorianFlushInterval,
	})
	if err := svc.Run(ctx); err != nil {
		logger.Errorf("final flush failed: %v", err)
	}
	logger.Info("historian shutdown complete")
}
