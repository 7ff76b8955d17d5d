package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"value_investor/pkg/models"
)

func newFileCache(t *testing.T, ttl time.Duration) (*BundleCache, *time.Time) {
	t.Helper()
	clock := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	c := NewBundleCache(nil, t.TempDir(), ttl, nil)
	c.now = func() time.Time { return clock }
	return c, &clock
}

func bundle(ticker string, fetchedAt time.Time) *models.RawFinancials {
	return &models.RawFinancials{
		Ticker: ticker,
		Annual: models.StatementSet{Income: models.Statement{
			Periods: []string{"2023"},
			Rows:    map[string][]models.RawValue{"Total Revenue": {models.Num(10)}},
		}},
		Info:      models.CompanyInfo{"trailingPE": models.Num(12.5)},
		FetchedAt: fetchedAt,
	}
}

func TestBundleCache_SaveGet(t *testing.T) {
	c, clock := newFileCache(t, time.Hour)
	ctx := context.Background()
	require.NoError(t, c.EnsureSchema(ctx))

	_, err := c.Get(ctx, "ACME")
	assert.True(t, errors.Is(err, ErrCacheMiss))

	in := bundle("ACME", *clock)
	require.NoError(t, c.Save(ctx, in))

	out, err := c.Get(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, in.Annual, out.Annual)
	assert.Equal(t, in.Info, out.Info)
	assert.True(t, in.FetchedAt.Equal(out.FetchedAt))
}

func TestBundleCache_Expiry(t *testing.T) {
	c, clock := newFileCache(t, time.Hour)
	ctx := context.Background()
	require.NoError(t, c.Save(ctx, bundle("ACME", *clock)))

	*clock = clock.Add(59 * time.Minute)
	_, err := c.Get(ctx, "ACME")
	require.NoError(t, err)

	*clock = clock.Add(time.Minute)
	_, err = c.Get(ctx, "ACME")
	assert.True(t, errors.Is(err, ErrCacheMiss), "entry at exactly the TTL is stale")
}

func TestBundleCache_ZeroTTL(t *testing.T) {
	c, clock := newFileCache(t, 0)
	ctx := context.Background()
	require.NoError(t, c.Save(ctx, bundle("ACME", *clock)))

	_, err := c.Get(ctx, "ACME")
	assert.True(t, errors.Is(err, ErrCacheMiss))
	assert.Equal(t, time.Duration(0), c.TTL())
}

func TestBundleCache_StampsFetchedAt(t *testing.T) {
	c, clock := newFileCache(t, time.Hour)
	ctx := context.Background()
	require.NoError(t, c.Save(ctx, bundle("ACME", time.Time{})))

	*clock = clock.Add(30 * time.Minute)
	_, err := c.Get(ctx, "ACME")
	assert.NoError(t, err)
}

func TestBundleCache_Invalidate(t *testing.T) {
	c, clock := newFileCache(t, time.Hour)
	ctx := context.Background()
	require.NoError(t, c.Save(ctx, bundle("ACME", *clock)))

	require.NoError(t, c.Invalidate(ctx, "ACME"))
	_, err := c.Get(ctx, "ACME")
	assert.True(t, errors.Is(err, ErrCacheMiss))

	assert.NoError(t, c.Invalidate(ctx, "ACME"), "invalidating a missing entry")
}

func TestBundleCache_CorruptFile(t *testing.T) {
	c, _ := newFileCache(t, time.Hour)
	require.NoError(t, os.WriteFile(filepath.Join(c.dir, "ACME.json"), []byte("{not json"), 0o644))

	_, err := c.Get(context.Background(), "ACME")
	assert.True(t, errors.Is(err, ErrCacheMiss))
}

func TestBundleCache_Rejects(t *testing.T) {
	c, _ := newFileCache(t, time.Hour)
	ctx := context.Background()

	assert.Error(t, c.Save(ctx, nil))
	assert.True(t, errors.Is(c.Save(ctx, bundle("../x", time.Now())), models.ErrInvalidTicker))
	_, err := c.Get(ctx, "a/b")
	assert.True(t, errors.Is(err, models.ErrInvalidTicker))
}
