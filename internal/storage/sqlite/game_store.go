package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"nba-seer/internal/domain"
	"nba-seer/internal/storage"
)

// GameStore implements storage.GameStore on a local SQLite file.
type GameStore struct {
	db *DB
}

// NewGameStore creates a new GameStore.
func NewGameStore(db *DB) *GameStore {
	return &GameStore{db: db}
}

// Compile-time interface check.
var _ storage.GameStore = (*GameStore)(nil)

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

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, g := range games {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO games (game_id, home_team_id, visitor_team_id, game_date) VALUES (?, ?, ?, ?)`,
			g.GameID, g.HomeTeamID, g.VisitorTeamID, formatDate(g.GameDate),
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert game in bulk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByID retrieves a game by its display id.
func (s *GameStore) GetByID(ctx context.Context, gameID string) (*domain.Game, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT game_id, home_team_id, visitor_team_id, game_date FROM games WHERE game_id = ?`, gameID)

	g, err := scanGame(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get game by id: %w", err)
	}
	return g, nil
}

// GetByDate retrieves all games on the given calendar date, ordered by game_id ASC.
func (s *GameStore) GetByDate(ctx context.Context, date time.Time) ([]*domain.Game, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT game_id, home_team_id, visitor_team_id, game_date FROM games WHERE game_date = ? ORDER BY game_id ASC`,
		date.Format(storage.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("get games by date: %w", err)
	}
	defer rows.Close()

	var games []*domain.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game row: %w", err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate game rows: %w", err)
	}
	return games, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGame(row scanner) (*domain.Game, error) {
	var (
		g    domain.Game
		date sql.NullString
	)
	if err := row.Scan(&g.GameID, &g.HomeTeamID, &g.VisitorTeamID, &date); err != nil {
		return nil, err
	}
	d, err := parseDate(date)
	if err != nil {
		return nil, fmt.Errorf("parse game_date %q: %w", date.String, err)
	}
	g.GameDate = d
	return &g, nil
}
