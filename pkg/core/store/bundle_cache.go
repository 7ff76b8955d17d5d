// Package store caches fetched RawFinancials bundles per ticker for a time
// window, in Postgres when a pool is configured and on disk otherwise.
package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"value_investor/pkg/models"
)

// ErrCacheMiss means there is no entry for the ticker, or it is older than the TTL.
var ErrCacheMiss = errors.New("cache miss")

const schema = `
CREATE TABLE IF NOT EXISTS raw_financials (
	id          UUID PRIMARY KEY,
	ticker      TEXT NOT NULL UNIQUE,
	fetched_at  TIMESTAMPTZ NOT NULL,
	data        JSONB NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Entry is one cached bundle.
type Entry struct {
	ID        string                `json:"id"`
	Ticker    string                `json:"ticker"`
	FetchedAt time.Time             `json:"fetched_at"`
	Data      *models.RawFinancials `json:"data"`
}

// BundleCache is a hybrid cache: DB (primary) when pool is set, one JSON file
// per ticker under dir otherwise.
type BundleCache struct {
	pool   *pgxpool.Pool
	dir    string
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time

	mu sync.Mutex // guards files under dir
}

// NewBundleCache creates a cache. With a nil pool and empty dir it defaults to
// .cache/fundamentals.
func NewBundleCache(pool *pgxpool.Pool, dir string, ttl time.Duration, logger *zap.Logger) *BundleCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pool == nil && dir == "" {
		dir = filepath.Join(".cache", "fundamentals")
	}
	if pool == nil {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Warn("cache dir unavailable", zap.String("dir", dir), zap.Error(err))
		}
	}
	return &BundleCache{pool: pool, dir: dir, ttl: ttl, logger: logger, now: time.Now}
}

// EnsureSchema creates the cache table. It is a no-op for the file cache.
func (c *BundleCache) EnsureSchema(ctx context.Context) error {
	if c.pool == nil {
		return nil
	}
	_, err := c.pool.Exec(ctx, schema)
	return errors.Wrap(err, "create raw_financials table")
}

// TTL is the freshness window.
func (c *BundleCache) TTL() time.Duration {
	return c.ttl
}

// Get returns the bundle for ticker when it is younger than the TTL.
func (c *BundleCache) Get(ctx context.Context, ticker string) (*models.RawFinancials, error) {
	ticker, err := models.NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}

	var entry *Entry
	if c.pool != nil {
		entry, err = c.getDB(ctx, ticker)
	} else {
		entry, err = c.getFile(ticker)
	}
	if err != nil {
		return nil, err
	}
	if !c.fresh(entry.FetchedAt) {
		return nil, errors.Wrapf(ErrCacheMiss, "%s entry from %s expired", ticker, entry.FetchedAt.Format(time.RFC3339))
	}
	return entry.Data, nil
}

// Save stores raw under its ticker, replacing any previous entry.
func (c *BundleCache) Save(ctx context.Context, raw *models.RawFinancials) error {
	if raw == nil {
		return errors.New("save: nil bundle")
	}
	ticker, err := models.NormalizeTicker(raw.Ticker)
	if err != nil {
		return err
	}
	fetchedAt := raw.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = c.now().UTC()
	}
	entry := Entry{ID: uuid.NewString(), Ticker: ticker, FetchedAt: fetchedAt, Data: raw}

	if c.pool != nil {
		return c.saveDB(ctx, entry)
	}
	return c.saveFile(entry)
}

// Invalidate drops the entry for ticker. Missing entries are not an error.
func (c *BundleCache) Invalidate(ctx context.Context, ticker string) error {
	ticker, err := models.NormalizeTicker(ticker)
	if err != nil {
		return err
	}
	if c.pool != nil {
		_, err := c.pool.Exec(ctx, `DELETE FROM raw_financials WHERE ticker = $1`, ticker)
		return errors.Wrap(err, "invalidate db cache")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.Remove(c.path(ticker)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "invalidate file cache")
	}
	return nil
}

func (c *BundleCache) fresh(fetchedAt time.Time) bool {
	if c.ttl <= 0 {
		return false
	}
	return c.now().Sub(fetchedAt) < c.ttl
}

func (c *BundleCache) getDB(ctx context.Context, ticker string) (*Entry, error) {
	query := `
		SELECT id::text, fetched_at, data
		FROM raw_financials
		WHERE ticker = $1
		LIMIT 1
	`
	var (
		id        string
		fetchedAt time.Time
		dataJSON  []byte
	)
	err := c.pool.QueryRow(ctx, query, ticker).Scan(&id, &fetchedAt, &dataJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errors.Wrap(ErrCacheMiss, ticker)
	}
	if err != nil {
		return nil, errors.Wrap(err, "query db cache")
	}
	var raw models.RawFinancials
	if err := json.Unmarshal(dataJSON, &raw); err != nil {
		return nil, errors.Wrap(err, "unmarshal db cached bundle")
	}
	return &Entry{ID: id, Ticker: ticker, FetchedAt: fetchedAt, Data: &raw}, nil
}

func (c *BundleCache) saveDB(ctx context.Context, e Entry) error {
	dataJSON, err := json.Marshal(e.Data)
	if err != nil {
		return errors.Wrap(err, "marshal bundle")
	}
	query := `
		INSERT INTO raw_financials (id, ticker, fetched_at, data)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (ticker)
		DO UPDATE SET
			id = EXCLUDED.id,
			fetched_at = EXCLUDED.fetched_at,
			data = EXCLUDED.data,
			updated_at = NOW()
	`
	if _, err := c.pool.Exec(ctx, query, e.ID, e.Ticker, e.FetchedAt, dataJSON); err != nil {
		return errors.Wrap(err, "save to db cache")
	}
	c.logger.Debug("cached bundle", zap.String("ticker", e.Ticker), zap.String("id", e.ID), zap.String("backend", "db"))
	return nil
}

func (c *BundleCache) path(ticker string) string {
	return filepath.Join(c.dir, ticker+".json")
}

func (c *BundleCache) getFile(ticker string) (*Entry, error) {
	c.mu.Lock()
	data, err := os.ReadFile(c.path(ticker))
	c.mu.Unlock()
	if os.IsNotExist(err) {
		return nil, errors.Wrap(ErrCacheMiss, ticker)
	}
	if err != nil {
		return nil, errors.Wrap(err, "read file cache")
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil || entry.Data == nil {
		c.logger.Warn("discarding unreadable cache file", zap.String("ticker", ticker), zap.Error(err))
		return nil, errors.Wrap(ErrCacheMiss, ticker)
	}
	return &entry, nil
}

func (c *BundleCache) saveFile(e Entry) error {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal cache entry")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	tmp, err := os.CreateTemp(c.dir, e.Ticker+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "save to file cache")
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(err, "save to file cache")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "save to file cache")
	}
	if err := os.Rename(tmp.Name(), c.path(e.Ticker)); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "save to file cache")
	}
	c.logger.Debug("cached bundle", zap.String("ticker", e.Ticker), zap.String("id", e.ID), zap.String("backend", "file"))
	return nil
}
