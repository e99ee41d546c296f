package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/davrodpin/scoundrel/internal/config"
	"github.com/davrodpin/scoundrel/internal/database"
	"github.com/davrodpin/scoundrel/internal/handler/health"
	"github.com/davrodpin/scoundrel/internal/migrations"
	"github.com/davrodpin/scoundrel/internal/store"
)

// backend is an opened session store with its health checks and cleanup.
type backend struct {
	store  store.Backend
	checks map[string]health.Checker
	close  func()
}

// openBackend connects the store selected by cfg.StoreDriver. SQL stores are
// migrated on open.
func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backend, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		logger.Warn("using in-memory store; sessions are lost on restart")
		return &backend{
			store:  store.NewMemory(),
			checks: map[string]health.Checker{},
			close:  func() {},
		}, nil

	case config.DriverSQLite:
		db, err := database.Open(ctx, cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("connecting to sqlite: %w", err)
		}
		if err := migrations.Run(db, migrations.SQLite); err != nil {
			db.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
		logger.Info("connected to sqlite", "path", cfg.DBPath)
		return &backend{
			store:  store.NewSQLite(db),
			checks: map[string]health.Checker{"sqlite": health.CheckFunc(db.PingContext)},
			close:  func() { db.Close() },
		}, nil

	case config.DriverPostgres:
		pool, err := database.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		sqlDB := database.SQLDB(pool)
		err = migrations.Run(sqlDB, migrations.Postgres)
		sqlDB.Close()
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
		logger.Info("connected to postgres")
		return &backend{
			store:  store.NewPostgres(pool),
			checks: map[string]health.Checker{"postgres": health.CheckFunc(pool.Ping)},
			close:  pool.Close,
		}, nil

	case config.DriverRedis:
		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		logger.Info("connected to redis")
		r := store.NewRedis(rdb, cfg.SessionTimeout)
		return &backend{
			store:  r,
			checks: map[string]health.Checker{"redis": health.CheckFunc(r.Ping)},
			close:  func() { rdb.Close() },
		}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}
