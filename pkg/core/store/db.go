package store

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

var (
	pool *pgxpool.Pool
	once sync.Once
)

// InitDB initializes the shared connection pool. Only the first call connects;
// later calls return the first call's error.
func InitDB(ctx context.Context, dbURL string) error {
	var err error
	once.Do(func() {
		if dbURL == "" {
			err = errors.New("database url not set")
			return
		}

		config, parseErr := pgxpool.ParseConfig(dbURL)
		if parseErr != nil {
			err = errors.Wrap(parseErr, "parse database config")
			return
		}

		p, connErr := pgxpool.NewWithConfig(ctx, config)
		if connErr != nil {
			err = errors.Wrap(connErr, "connect database")
			return
		}
		if pingErr := p.Ping(ctx); pingErr != nil {
			p.Close()
			err = errors.Wrap(pingErr, "ping database")
			return
		}
		pool = p
	})
	if err == nil && pool == nil {
		err = errors.New("database not initialized")
	}
	return err
}

// GetPool returns the shared pool, or nil before a successful InitDB.
func GetPool() *pgxpool.Pool {
	return pool
}

// Close closes the shared pool.
func Close() {
	if pool != nil {
		pool.Close()
	}
}
