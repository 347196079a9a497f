package app

import (
	"context"
	"time"

	"nba-seer/internal/domain"
	"nba-seer/internal/observability"
	"nba-seer/internal/storage"
)

// observe times fn and records it under (database, operation).
func observe[T any](m *observability.Metrics, database, operation string, fn func() (T, error)) (T, error) {
	start := time.Now()
	v, err := fn()
	m.RecordDBQuery(database, operation, time.Since(start), err)
	return v, err
}

func observeErr(m *observability.Metrics, database, operation string, fn func() error) error {
	_, err := observe(m, database, operation, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

type gameStore struct {
	storage.GameStore
	db      string
	metrics *observability.Metrics
}

func instrumentGames(s storage.GameStore, db string, m *observability.Metrics) storage.GameStore {
	if m == nil {
		return s
	}
	return &gameStore{GameStore: s, db: db, metrics: m}
}

func (s *gameStore) InsertBulk(ctx context.Context, games []*domain.Game) error {
	return observeErr(s.metrics, s.db, "games_insert", func() error {
		return s.GameStore.InsertBulk(ctx, games)
	})
}

func (s *gameStore) GetByDate(ctx context.Context, date time.Time) ([]*domain.Game, error) {
	return observe(s.metrics, s.db, "games_by_date", func() ([]*domain.Game, error) {
		return s.GameStore.GetByDate(ctx, date)
	})
}

type gameLogStore struct {
	storage.GameLogStore
	db      string
	metrics *observability.Metrics
}

func instrumentGameLogs(s storage.GameLogStore, db string, m *observability.Metrics) storage.GameLogStore {
	if m == nil {
		return s
	}
	return &gameLogStore{GameLogStore: s, db: db, metrics: m}
}

func (s *gameLogStore) InsertBulk(ctx context.Context, records []*domain.PlayerGameRecord) error {
	return observeErr(s.metrics, s.db, "game_logs_insert", func() error {
		return s.GameLogStore.InsertBulk(ctx, records)
	})
}

func (s *gameLogStore) GetByPlayerIDs(ctx context.Context, playerIDs []int64) ([]*domain.PlayerGameRecord, error) {
	return observe(s.metrics, s.db, "game_logs_by_players", func() ([]*domain.PlayerGameRecord, error) {
		return s.GameLogStore.GetByPlayerIDs(ctx, playerIDs)
	})
}

func (s *gameLogStore) GetByGameIDs(ctx context.Context, gameIDs []string) ([]*domain.PlayerGameRecord, error) {
	return observe(s.metrics, s.db, "game_logs_by_games", func() ([]*domain.PlayerGameRecord, error) {
		return s.GameLogStore.GetByGameIDs(ctx, gameIDs)
	})
}

type projectionStore struct {
	storage.ProjectionStore
	db      string
	metrics *observability.Metrics
}

func instrumentProjections(s storage.ProjectionStore, db string, m *observability.Metrics) storage.ProjectionStore {
	if m == nil {
		return s
	}
	return &projectionStore{ProjectionStore: s, db: db, metrics: m}
}

func (s *projectionStore) InsertBulk(ctx context.Context, projections []*domain.PlayerProjection) error {
	return observeErr(s.metrics, s.db, "projections_insert", func() error {
		return s.ProjectionStore.InsertBulk(ctx, projections)
	})
}

func (s *projectionStore) GetBySlateDate(ctx context.Context, date time.Time) ([]*domain.PlayerProjection, error) {
	return observe(s.metrics, s.db, "projections_by_slate", func() ([]*domain.PlayerProjection, error) {
		return s.ProjectionStore.GetBySlateDate(ctx, date)
	})
}
