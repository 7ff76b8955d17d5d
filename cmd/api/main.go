package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"value_investor/pkg/api/fundamentals"
	"value_investor/pkg/core/config"
	"value_investor/pkg/core/ingest"
	"value_investor/pkg/core/store"
)

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	return cfg.Build()
}

func main() {
	envLoaded := config.LoadEnv()

	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] %v\n", err)
		os.Exit(1)
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	if !envLoaded {
		logger.Info(".env file not found, using process environment")
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mapping, err := config.LoadMapping(cfg.LabelMapPath)
	if err != nil {
		return err
	}
	logger.Info("label map loaded",
		zap.String("path", cfg.LabelMapPath),
		zap.Int("concepts", len(mapping.Concepts)),
		zap.Int("cards", len(mapping.Cards)))

	if cfg.ProviderURL == "" {
		return errors.New("PROVIDER_URL is not set")
	}
	provider := ingest.NewHTTPFetcher(cfg.ProviderURL, cfg.ProviderTimeout, logger.Named("provider"))

	// Postgres is optional; without it the cache lives on disk.
	if cfg.DatabaseURL != "" {
		if err := store.InitDB(ctx, cfg.DatabaseURL); err != nil {
			logger.Warn("database unavailable, using file cache", zap.Error(err))
		} else {
			defer store.Close()
		}
	}
	cache := store.NewBundleCache(store.GetPool(), cfg.CacheDir, cfg.CacheTTL, logger.Named("cache"))
	if err := cache.EnsureSchema(ctx); err != nil {
		return err
	}
	fetcher := ingest.NewCachedFetcher(provider, cache, logger.Named("fetcher"))

	handler := fundamentals.NewHandler(fetcher, mapping, logger.Named("api"))
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("API server starting",
			zap.String("addr", cfg.ListenAddr),
			zap.Duration("cache_ttl", cfg.CacheTTL),
			zap.Strings("routes", []string{
				"GET /api/health",
				"GET /api/fundamentals/{ticker}",
				"GET /api/fundamentals/{ticker}/report",
				"GET /api/config/labels",
			}))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
