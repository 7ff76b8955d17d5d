package ingest

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"value_investor/pkg/core/store"
	"value_investor/pkg/models"
)

// Cache is the storage side of CachedFetcher. *store.BundleCache implements it.
type Cache interface {
	Get(ctx context.Context, ticker string) (*models.RawFinancials, error)
	Save(ctx context.Context, raw *models.RawFinancials) error
}

// CachedFetcher serves bundles from a cache while they are fresh and fetches
// through to the provider otherwise.
type CachedFetcher struct {
	next   Fetcher
	cache  Cache
	logger *zap.Logger
}

// NewCachedFetcher wraps next with cache.
func NewCachedFetcher(next Fetcher, cache Cache, logger *zap.Logger) *CachedFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedFetcher{next: next, cache: cache, logger: logger}
}

// Fetch implements Fetcher.
func (f *CachedFetcher) Fetch(ctx context.Context, ticker string) (*models.RawFinancials, error) {
	ticker, err := models.NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}

	raw, err := f.cache.Get(ctx, ticker)
	switch {
	case err == nil:
		f.logger.Debug("cache hit", zap.String("ticker", ticker))
		return raw, nil
	case errors.Is(err, store.ErrCacheMiss):
		f.logger.Debug("cache miss", zap.String("ticker", ticker), zap.Error(err))
	default:
		f.logger.Warn("cache read failed", zap.String("ticker", ticker), zap.Error(err))
	}
	return f.Refresh(ctx, ticker)
}

// Refresh fetches from the provider regardless of the cache and stores the
// result. A failed save is logged; the fetched bundle is still returned.
func (f *CachedFetcher) Refresh(ctx context.Context, ticker string) (*models.RawFinancials, error) {
	raw, err := f.next.Fetch(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if err := f.cache.Save(ctx, raw); err != nil {
		f.logger.Warn("cache save failed", zap.String("ticker", ticker), zap.Error(err))
	}
	return raw, nil
}
