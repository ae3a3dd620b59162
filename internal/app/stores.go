// Package app wires the process-level collaborators shared by the binaries.
package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/trpg-session-engine/internal/config"
	"github.com/KirkDiggler/trpg-session-engine/internal/repositories/campaigns"
	"github.com/KirkDiggler/trpg-session-engine/internal/repositories/sessionstates"
)

const pingTimeout = 5 * time.Second

// Stores are the persistence backends chosen from configuration
type Stores struct {
	Campaigns campaigns.Repository
	States    sessionstates.Store

	// Backend names the campaign store for logs: "redis", "sqlite" or "memory"
	Backend string

	closers []func() error
}

// Close releases every backend connection
func (s *Stores) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OpenStores picks Redis when REDIS_URL is reachable, then SQLite when
// SQLITE_PATH is set, and falls back to memory. Session snapshots live in
// Redis when it is available and in memory otherwise.
func OpenStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Stores, error) {
	if logger == nil {
		logger = slog.Default()
	}
	stores := &Stores{}

	if cfg.Redis.URL != "" {
		client, err := connectRedis(ctx, cfg.Redis.URL)
		if err != nil {
			logger.Warn("app: redis unavailable, falling back", "err", err)
		} else {
			logger.Info("app: using redis for persistence")
			stores.Campaigns = campaigns.NewRedis(client)
			stores.States = sessionstates.NewRedis(client)
			stores.Backend = "redis"
			stores.closers = append(stores.closers, client.Close)
			return stores, nil
		}
	}

	stores.States = sessionstates.NewInMemoryStore()

	if cfg.SQLitePath != "" {
		repo, err := campaigns.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("app: using sqlite for campaigns", "path", cfg.SQLitePath)
		stores.Campaigns = repo
		stores.Backend = "sqlite"
		stores.closers = append(stores.closers, repo.Close)
		return stores, nil
	}

	logger.Info("app: using in-memory repositories")
	stores.Campaigns = campaigns.NewInMemoryRepository()
	stores.Backend = "memory"
	return stores, nil
}

func connectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
