package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"nba-seer/internal/domain"
	"nba-seer/internal/storage"
)

// GameLogStore implements storage.GameLogStore using PostgreSQL.
type GameLogStore struct {
	db DB
}

// NewGameLogStore creates a new GameLogStore.
func NewGameLogStore(db DB) *GameLogStore {
	return &GameLogStore{db: db}
}

// Compile-time interface check.
var _ storage.GameLogStore = (*GameLogStore)(nil)

const gameLogColumns = `
	player_id, team_id, game_id, game_id_sortable, opposing_team_id, location, minutes,
	pts, ast, oreb, dreb, stl, blk, tov, fgm, fga, fg3m, game_date
`

const insertGameLogQuery = `
	INSERT INTO game_logs (` + gameLogColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
`

// InsertBulk adds multiple records atomically. Fails entire batch on any duplicate.
func (s *GameLogStore) InsertBulk(ctx context.Context, records []*domain.PlayerGameRecord) error {
	if len(records) == 0 {
		return nil
	}
	for _, r := range records {
		if !storage.ValidRecord(r) {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range records {
		_, err := tx.Exec(ctx, insertGameLogQuery,
			r.PlayerID,
			r.TeamID,
			r.GameID,
			r.GameIDSortable,
			r.OpposingTeamID,
			string(r.Location),
			r.Minutes,
			r.Points,
			r.Assists,
			r.OffRebounds,
			r.DefRebounds,
			r.Steals,
			r.Blocks,
			r.Turnovers,
			r.FieldGoalsMade,
			r.FieldGoalsAttempted,
			r.ThreesMade,
			nullDate(r.GameDate),
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert game log in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByPlayerID retrieves all records for a player, ordered by game_id_sortable ASC.
func (s *GameLogStore) GetByPlayerID(ctx context.Context, playerID int64) ([]*domain.PlayerGameRecord, error) {
	query := `SELECT ` + gameLogColumns + `
		FROM game_logs
		WHERE player_id = $1
		ORDER BY game_id_sortable ASC
	`

	rows, err := s.db.Query(ctx, query, playerID)
	if err != nil {
		return nil, fmt.Errorf("get game logs by player id: %w", err)
	}
	defer rows.Close()

	return scanGameLogs(rows)
}

// GetByPlayerIDs retrieves all records for the given players, ordered by (player_id, game_id_sortable) ASC.
func (s *GameLogStore) GetByPlayerIDs(ctx context.Context, playerIDs []int64) ([]*domain.PlayerGameRecord, error) {
	if len(playerIDs) == 0 {
		return nil, nil
	}

	query := `SELECT ` + gameLogColumns + `
		FROM game_logs
		WHERE player_id = ANY($1)
		ORDER BY player_id ASC, game_id_sortable ASC
	`

	rows, err := s.db.Query(ctx, query, playerIDs)
	if err != nil {
		return nil, fmt.Errorf("get game logs by player ids: %w", err)
	}
	defer rows.Close()

	return scanGameLogs(rows)
}

// GetByGameIDs retrieves all records for the given games, ordered by (game_id_sortable, player_id) ASC.
func (s *GameLogStore) GetByGameIDs(ctx context.Context, gameIDs []string) ([]*domain.PlayerGameRecord, error) {
	if len(gameIDs) == 0 {
		return nil, nil
	}

	query := `SELECT ` + gameLogColumns + `
		FROM game_logs
		WHERE game_id = ANY($1)
		ORDER BY game_id_sortable ASC, player_id ASC
	`

	rows, err := s.db.Query(ctx, query, gameIDs)
	if err != nil {
		return nil, fmt.Errorf("get game logs by game ids: %w", err)
	}
	defer rows.Close()

	return scanGameLogs(rows)
}

// scanGameLogs scans multiple rows into a slice of PlayerGameRecord.
func scanGameLogs(rows pgx.Rows) ([]*domain.PlayerGameRecord, error) {
	var records []*domain.PlayerGameRecord

	for rows.Next() {
		var (
			r        domain.PlayerGameRecord
			location string
			date     *time.Time
		)

		err := rows.Scan(
			&r.PlayerID,
			&r.TeamID,
			&r.GameID,
			&r.GameIDSortable,
			&r.OpposingTeamID,
			&location,
			&r.Minutes,
			&r.Points,
			&r.Assists,
			&r.OffRebounds,
			&r.DefRebounds,
			&r.Steals,
			&r.Blocks,
			&r.Turnovers,
			&r.FieldGoalsMade,
			&r.FieldGoalsAttempted,
			&r.ThreesMade,
			&date,
		)
		if err != nil {
			return nil, fmt.Errorf("scan game log row: %w", err)
		}
		r.Location = domain.Location(location)
		r.GameDate = dateOrZero(date)

		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate game log rows: %w", err)
	}

	return records, nil
}
