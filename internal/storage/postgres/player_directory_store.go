package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"nba-seer/internal/domain"
	"nba-seer/internal/storage"
)

// PlayerDirectoryStore implements storage.PlayerDirectoryStore using PostgreSQL.
type PlayerDirectoryStore struct {
	db DB
}

// NewPlayerDirectoryStore creates a new PlayerDirectoryStore.
func NewPlayerDirectoryStore(db DB) *PlayerDirectoryStore {
	return &PlayerDirectoryStore{db: db}
}

// Compile-time interface check.
var _ storage.PlayerDirectoryStore = (*PlayerDirectoryStore)(nil)

const upsertDirectoryQuery = `
	INSERT INTO player_directory (person_id, team_id, display_first_last, team_abbreviation, updated_at)
	VALUES ($1, $2, $3, $4, NOW())
	ON CONFLICT (person_id) DO UPDATE SET
		team_id = EXCLUDED.team_id,
		display_first_last = EXCLUDED.display_first_last,
		team_abbreviation = EXCLUDED.team_abbreviation,
		updated_at = NOW()
`

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

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range entries {
		if _, err := tx.Exec(ctx, upsertDirectoryQuery,
			e.PersonID, e.TeamID, e.DisplayFirstLast, e.TeamAbbreviation,
		); err != nil {
			return fmt.Errorf("upsert directory entry %d: %w", e.PersonID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByTeamIDs retrieves all players on the given teams, ordered by person_id ASC.
func (s *PlayerDirectoryStore) GetByTeamIDs(ctx context.Context, teamIDs []int64) ([]*domain.PlayerDirectoryEntry, error) {
	if len(teamIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT person_id, team_id, display_first_last, team_abbreviation
		FROM player_directory
		WHERE team_id = ANY($1)
		ORDER BY person_id ASC
	`

	rows, err := s.db.Query(ctx, query, teamIDs)
	if err != nil {
		return nil, fmt.Errorf("get directory by team ids: %w", err)
	}
	defer rows.Close()

	return scanDirectory(rows)
}

// GetAll retrieves the full directory, ordered by person_id ASC.
func (s *PlayerDirectoryStore) GetAll(ctx context.Context) ([]*domain.PlayerDirectoryEntry, error) {
	query := `
		SELECT person_id, team_id, display_first_last, team_abbreviation
		FROM player_directory
		ORDER BY person_id ASC
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get directory: %w", err)
	}
	defer rows.Close()

	return scanDirectory(rows)
}

// scanDirectory scans multiple rows into a slice of PlayerDirectoryEntry.
func scanDirectory(rows pgx.Rows) ([]*domain.PlayerDirectoryEntry, error) {
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
