package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"nba-seer/internal/domain"
	"nba-seer/internal/storage"
)

// GameLogStore implements storage.GameLogStore on a local SQLite file.
type GameLogStore struct {
	db *DB
}

// NewGameLogStore creates a new GameLogStore.
func NewGameLogStore(db *DB) *GameLogStore {
	return &GameLogStore{db: db}
}

// Compile-time interface check.
var _ storage.GameLogStore = (*GameLogStore)(nil)

const gameLogColumns = `player_id, team_id, game_id, game_id_sortable, opposing_team_id, location, minutes,
	pts, ast, oreb, dreb, stl, blk, tov, fgm, fga, fg3m, game_date`

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

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO game_logs (`+gameLogColumns+`) VALUES (`+placeholders(18)+`)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		var minutes sql.NullFloat64
		if r.Minutes != nil {
			minutes = sql.NullFloat64{Float64: *r.Minutes, Valid: true}
		}
		_, err := stmt.ExecContext(ctx,
			r.PlayerID, r.TeamID, r.GameID, r.GameIDSortable, r.OpposingTeamID, string(r.Location), minutes,
			r.Points, r.Assists, r.OffRebounds, r.DefRebounds, r.Steals, r.Blocks, r.Turnovers,
			r.FieldGoalsMade, r.FieldGoalsAttempted, r.ThreesMade, formatDate(r.GameDate),
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert game log in bulk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByPlayerID retrieves all records for a player, ordered by game_id_sortable ASC.
func (s *GameLogStore) GetByPlayerID(ctx context.Context, playerID int64) ([]*domain.PlayerGameRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+gameLogColumns+`
		FROM game_logs
		WHERE player_id = ?
		ORDER BY game_id_sortable ASC`, playerID)
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

	args := make([]any, len(playerIDs))
	for i, id := range playerIDs {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+gameLogColumns+`
		FROM game_logs
		WHERE player_id IN (`+placeholders(len(args))+`)
		ORDER BY player_id ASC, game_id_sortable ASC`, args...)
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

	args := make([]any, len(gameIDs))
	for i, id := range gameIDs {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+gameLogColumns+`
		FROM game_logs
		WHERE game_id IN (`+placeholders(len(args))+`)
		ORDER BY game_id_sortable ASC, player_id ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("get game logs by game ids: %w", err)
	}
	defer rows.Close()

	return scanGameLogs(rows)
}

func scanGameLogs(rows *sql.Rows) ([]*domain.PlayerGameRecord, error) {
	var records []*domain.PlayerGameRecord

	for rows.Next() {
		var (
			r        domain.PlayerGameRecord
			location string
			minutes  sql.NullFloat64
			date     sql.NullString
		)
		err := rows.Scan(
			&r.PlayerID, &r.TeamID, &r.GameID, &r.GameIDSortable, &r.OpposingTeamID, &location, &minutes,
			&r.Points, &r.Assists, &r.OffRebounds, &r.DefRebounds, &r.Steals, &r.Blocks, &r.Turnovers,
			&r.FieldGoalsMade, &r.FieldGoalsAttempted, &r.ThreesMade, &date,
		)
		if err != nil {
			return nil, fmt.Errorf("scan game log row: %w", err)
		}

		r.Location = domain.Location(location)
		if minutes.Valid {
			m := minutes.Float64
			r.Minutes = &m
		}
		if r.GameDate, err = parseDate(date); err != nil {
			return nil, fmt.Errorf("parse game_date %q: %w", date.String, err)
		}

		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate game log rows: %w", err)
	}
	return records, nil
}
