// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/chesslive/internal/auth"
	"github.com/jason-s-yu/chesslive/internal/cache"
	"github.com/jason-s-yu/chesslive/internal/config"
	"github.com/jason-s-yu/chesslive/internal/database"
	"github.com/jason-s-yu/chesslive/internal/game"
	"github.com/jason-s-yu/chesslive/internal/handlers"
	"github.com/jason-s-yu/chesslive/internal/session"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// backend is everything the server needs from storage. Both the PostgreSQL
// store and the in-memory store satisfy it.
type backend interface {
	session.GameStore
	session.ResultRecorder
	handlers.UserStore
	handlers.GameCatalog
	auth.UserLookup
}

func main() {
	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warnf("unknown LOG_LEVEL %q, using info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
}

func run(ctx context.Context, cfg config.Config, logger *logrus.Logger) error {
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	issuer, err := newIssuer(cfg, logger)
	if err != nil {
		return err
	}
	resolver := auth.NewResolver(issuer, store)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	registry := session.NewRegistry()
	metrics := session.NewMetrics(reg, registry)
	out := session.NewBroadcaster(registry, logger, metrics, cfg.WSWriteTimeout)

	opts := []session.Option{
		session.WithMetrics(metrics),
		session.WithResultRecorder(store),
	}
	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		opts = append(opts, session.WithMoveRecorder(cache.NewMoveQueue(rdb, cfg.HistorianQueue)))
		logger.WithField("queue", cfg.HistorianQueue).Info("publishing moves to Redis")
	} else {
		logger.Info("REDIS_ADDR not set, move log disabled")
	}

	d := session.NewDispatcher(resolver, store, game.ChessRules{}, registry, out, logger, opts...)

	srv := &handlers.Server{
		Users:      store,
		Games:      store,
		Tokens:     issuer,
		Auth:       resolver,
		Dispatcher: d,
		Logger:     logger,
		Metrics:    promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}
	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		// WebSocket read loops end with the process context.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Running on %s", httpSrv.Addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg config.Config, logger *logrus.Logger) (backend, func(), error) {
	if cfg.StoreBackend == "memory" {
		logger.Warn("using in-memory store, data is lost on restart")
		return game.NewMemoryStore(), func() {}, nil
	}

	pool, err := database.Connect(ctx, cfg.PostgresURL())
	if err != nil {
		return nil, nil, err
	}
	store := database.NewStore(pool)
	if err := store.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	logger.Info("connected to PostgreSQL")
	return store, pool.Close, nil
}

func newIssuer(cfg config.Config, logger *logrus.Logger) (*auth.TokenIssuer, error) {
	if cfg.JWTPrivateKeyPath == "" {
		logger.Warn("JWT key paths not set, generating a key pair; tokens will not survive a restart")
		return auth.NewTokenIssuer(cfg.TokenExpireTime)
	}
	return auth.LoadTokenIssuer(cfg.JWTPrivateKeyPath, cfg.JWTPublicKeyPath, cfg.TokenExpireTime)
}
