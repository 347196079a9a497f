package storage

import (
	"context"
	"time"

	"nba-seer/internal/domain"
)

// GameStore provides access to games storage.
type GameStore interface {
	// InsertBulk adds multiple games atomically. Fails entire batch on any duplicate game_id.
	InsertBulk(ctx context.Context, games []*domain.Game) error

	// GetByID retrieves a game by its display id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, gameID string) (*domain.Game, error)

	// GetByDate retrieves all games on the given calendar date, ordered by game_id ASC.
	GetByDate(ctx context.Context, date time.Time) ([]*domain.Game, error)
}

// PlayerDirectoryStore provides access to the current-season player directory.
type PlayerDirectoryStore interface {
	// Upsert inserts or replaces directory entries keyed by person_id.
	// Players change teams during a season, so the directory is not append-only.
	Upsert(ctx context.Context, entries []*domain.PlayerDirectoryEntry) error

	// GetByTeamIDs retrieves all players on the given teams, ordered by person_id ASC.
	GetByTeamIDs(ctx context.Context, teamIDs []int64) ([]*domain.PlayerDirectoryEntry, error)

	// GetAll retrieves the full directory, ordered by person_id ASC.
	GetAll(ctx context.Context) ([]*domain.PlayerDirectoryEntry, error)
}

// GameLogStore provides access to the historical per-player game log.
type GameLogStore interface {
	// InsertBulk adds multiple records atomically. Fails entire batch on duplicate (player_id, game_id).
	InsertBulk(ctx context.Context, records []*domain.PlayerGameRecord) error

	// GetByPlayerID retrieves all records for a player, ordered by game_id_sortable ASC.
	GetByPlayerID(ctx context.Context, playerID int64) ([]*domain.PlayerGameRecord, error)

	// GetByPlayerIDs retrieves all records for the given players, ordered by (player_id, game_id_sortable) ASC.
	GetByPlayerIDs(ctx context.Context, playerIDs []int64) ([]*domain.PlayerGameRecord, error)

	// GetByGameIDs retrieves all records for the given games, ordered by (game_id_sortable, player_id) ASC.
	GetByGameIDs(ctx context.Context, gameIDs []string) ([]*domain.PlayerGameRecord, error)
}

// ProjectionStore provides access to the projection output table.
type ProjectionStore interface {
	// InsertBulk adds multiple projections. Fails entire batch on duplicate (run_id, person_id, game_id).
	InsertBulk(ctx context.Context, projections []*domain.PlayerProjection) error

	// GetByRunID retrieves all projections of a run, ordered by (game_id, person_id) ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.PlayerProjection, error)

	// GetBySlateDate retrieves all projections for a slate date, ordered by (game_id, person_id) ASC.
	GetBySlateDate(ctx context.Context, date time.Time) ([]*domain.PlayerProjection, error)
}
