package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"nba-seer/internal/domain"
	"nba-seer/internal/storage"
)

// GameStore implements storage.GameStore using PostgreSQL.
type GameStore struct {
	db DB
}

// NewGameStore creates a new GameStore.
func NewGameStore(db DB) *GameStore {
	return &GameStore{db: db}
}

// Compile-time interface check.
var _ storage.GameStore = (*GameStore)(nil)

const insertGameQuery = `
	INSERT INTO games (game_id, home_team_id, visitor_team_id, game_date)
	VALUES ($1, $2, $3, $4)
`

// InsertBulk adds multiple games atomically. Fails entire batch on any duplicate.
func (s *GameStore) InsertBulk(ctx context.Context, games []*domain.Game) error {
	if len(games) == 0 {
		return nil
	}
	for _, g := range games {
		if g == nil || g.GameID == "" {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, g := range games {
		_, err := tx.Exec(ctx, insertGameQuery, g.GameID, g.HomeTeamID, g.VisitorTeamID, nullDate(g.GameDate))
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert game in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByID retrieves a game by its display id.
func (s *GameStore) GetByID(ctx context.Context, gameID string) (*domain.Game, error) {
	query := `
		SELECT game_id, home_team_id, visitor_team_id, game_date
		FROM games
		WHERE game_id = $1
	`

	var (
		g    domain.Game
		date *time.Time
	)
	err := s.db.QueryRow(ctx, query, gameID).Scan(&g.GameID, &g.HomeTeamID, &g.VisitorTeamID, &date)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get game by id: %w", err)
	}
	g.GameDate = dateOrZero(date)

	return &g, nil
}

// GetByDate retrieves all games on the given calendar date, ordered by game_id ASC.
func (s *GameStore) GetByDate(ctx context.Context, date time.Time) ([]*domain.Game, error) {
	query := `
		SELECT game_id, home_team_id, visitor_team_id, game_date
		FROM games
		WHERE game_date = $1
		ORDER BY game_id ASC
	`

	rows, err := s.db.Query(ctx, query, dateOnly(date))
	if err != nil {
		return nil, fmt.Errorf("get games by date: %w", err)
	}
	defer rows.Close()

	return scanGames(rows)
}

// scanGames scans multiple rows into a slice of Game.
func scanGames(rows pgx.Rows) ([]*domain.Game, error) {
	var games []*domain.Game

	for rows.Next() {
		var (
			g    domain.Game
			date *time.Time
		)
		if err := rows.Scan(&g.GameID, &g.HomeTeamID, &g.VisitorTeamID, &date); err != nil {
			return nil, fmt.Errorf("scan game row: %w", err)
		}
		g.GameDate = dateOrZero(date)
		games = append(games, &g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate game rows: %w", err)
	}

	return games, nil
}
