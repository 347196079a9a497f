package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"nba-seer/internal/domain"
	"nba-seer/internal/storage"
)

// PlayerDirectoryStore implements storage.PlayerDirectoryStore on a local SQLite file.
type PlayerDirectoryStore struct {
	db *DB
}

// NewPlayerDirectoryStore creates a new PlayerDirectoryStore.
func NewPlayerDirectoryStore(db *DB) *PlayerDirectoryStore {
	return &PlayerDirectoryStore{db: db}
}

// Compile-time interface check.
var _ storage.PlayerDirectoryStore = (*PlayerDirectoryStore)(nil)

// Upsert inserts or replaces directory entries keyed by person_id in one transaction.
func (s *PlayerDirectoryStore) Upsert(ctx context.Context, entries []*domain.PlayerDirectoryEntry) error {
	if len(entries) == 0 {
		return nil
	}
	for _, e := range entries {
		if e == nil || e.PersonID == 0 {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, e := range entries {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO player_directory (person_id, team_id, display_first_last, team_abbreviation)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (person_id) DO UPDATE SET
				team_id = excluded.team_id,
				display_first_last = excluded.display_first_last,
				team_abbreviation = excluded.team_abbreviation`,
			e.PersonID, e.TeamID, e.DisplayFirstLast, e.TeamAbbreviation,
		)
		if err != nil {
			return fmt.Errorf("upsert directory entry %d: %w", e.PersonID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByTeamIDs retrieves all players on the given teams, ordered by person_id ASC.
func (s *PlayerDirectoryStore) GetByTeamIDs(ctx context.Context, teamIDs []int64) ([]*domain.PlayerDirectoryEntry, error) {
	if len(teamIDs) == 0 {
		return nil, nil
	}

	args := make([]any, len(teamIDs))
	for i, id := range teamIDs {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT person_id, team_id, display_first_last, team_abbreviation
		FROM player_directory
		WHERE team_id IN (`+placeholders(len(args))+`)
		ORDER BY person_id ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("get directory by team ids: %w", err)
	}
	defer rows.Close()

	return scanDirectory(rows)
}

// GetAll retrieves the full directory, ordered by person_id ASC.
func (s *PlayerDirectoryStore) GetAll(ctx context.Context) ([]*domain.PlayerDirectoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT person_id, team_id, display_first_last, team_abbreviation
		FROM player_directory
		ORDER BY person_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("get directory: %w", err)
	}
	defer rows.Close()

	return scanDirectory(rows)
}

func scanDirectory(rows *sql.Rows) ([]*domain.PlayerDirectoryEntry, error) {
	var entries []*domain.PlayerDirectoryEntry
	for rows.Next() {
		var e domain.PlayerDirectoryEntry
		if err := rows.Scan(&e.PersonID, &e.TeamID, &e.DisplayFirstLast, &e.TeamAbbreviation); err != nil {
			return nil, fmt.Errorf("scan directory row: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate directory rows: %w", err)
	}
	return entries, nil
}
