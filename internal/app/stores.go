// Package app wires configuration to stores and runs slates for the commands.
package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"nba-seer/internal/config"
	"nba-seer/internal/logging"
	"nba-seer/internal/observability"
	"nba-seer/internal/orchestrator"
	"nba-seer/internal/storage"
	chstore "nba-seer/internal/storage/clickhouse"
	"nba-seer/internal/storage/memory"
	"nba-seer/internal/storage/migrations"
	pgstore "nba-seer/internal/storage/postgres"
	redisstore "nba-seer/internal/storage/redis"
	sqlitestore "nba-seer/internal/storage/sqlite"
)

// Stores holds every storage implementation a run needs.
type Stores struct {
	Games     storage.GameStore
	Directory storage.PlayerDirectoryStore
	GameLogs  storage.GameLogStore

	// Projections is the primary output store (ClickHouse when configured).
	Projections storage.ProjectionStore
	// Cache is the Redis projection cache, nil when not configured.
	Cache storage.ProjectionStore

	closers []func()
}

// Sinks returns every store a run persists projections to.
func (s *Stores) Sinks() []orchestrator.ProjectionSink {
	sinks := []orchestrator.ProjectionSink{s.Projections}
	if s.Cache != nil {
		sinks = append(sinks, s.Cache)
	}
	return sinks
}

// Close releases connections in reverse open order.
func (s *Stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// OpenStores creates the input stores for the configured backend and the
// projection outputs. Database backends are migrated before use.
func OpenStores(ctx context.Context, cfg config.StorageConfig, logger logrus.FieldLogger, metrics *observability.Metrics) (*Stores, error) {
	s := &Stores{}
	if logger == nil {
		logger = logging.Discard()
	}
	log := logging.Component(logger, "stores")

	switch cfg.Backend {
	case config.BackendMemory, "":
		s.Games = memory.NewGameStore()
		s.Directory = memory.NewPlayerDirectoryStore()
		s.GameLogs = memory.NewGameLogStore()

	case config.BackendPostgres:
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			s.Close()
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}
		s.Games = pgstore.NewGameStore(pool)
		s.Directory = pgstore.NewPlayerDirectoryStore(pool)
		s.GameLogs = pgstore.NewGameLogStore(pool)

	case config.BackendSQLite:
		db, err := sqlitestore.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() { db.Close() })
		s.Games = sqlitestore.NewGameStore(db)
		s.Directory = sqlitestore.NewPlayerDirectoryStore(db)
		s.GameLogs = sqlitestore.NewGameLogStore(db)

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}

	if cfg.ClickHouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouseDSN)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("clickhouse: %w", err)
		}
		s.closers = append(s.closers, func() { conn.Close() })
		s.Projections = instrumentProjections(chstore.NewProjectionStore(conn), "clickhouse", metrics)
	} else {
		s.Projections = memory.NewProjectionStore()
	}

	if cfg.RedisAddr != "" {
		client, err := redisstore.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, func() { client.Close() })
		s.Cache = instrumentProjections(redisstore.NewProjectionCache(client, cfg.RedisTTL), "redis", metrics)
	}

	if cfg.Backend != config.BackendMemory && cfg.Backend != "" {
		s.Games = instrumentGames(s.Games, cfg.Backend, metrics)
		s.GameLogs = instrumentGameLogs(s.GameLogs, cfg.Backend, metrics)
	}

	log.WithFields(logrus.Fields{
		"backend":    backendName(cfg.Backend),
		"clickhouse": cfg.ClickHouseDSN != "",
		"redis":      cfg.RedisAddr != "",
	}).Info("stores ready")

	return s, nil
}

func backendName(b string) string {
	if b == "" {
		return config.BackendMemory
	}
	return b
}
