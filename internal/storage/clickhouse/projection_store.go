package clickhouse

import (
	"context"
	"fmt"
	"time"

	"nba-seer/internal/domain"
	"nba-seer/internal/storage"
)

// ProjectionStore implements storage.ProjectionStore using ClickHouse.
type ProjectionStore struct {
	conn *Conn
}

// NewProjectionStore creates a new ProjectionStore.
func NewProjectionStore(conn *Conn) *ProjectionStore {
	return &ProjectionStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ProjectionStore = (*ProjectionStore)(nil)

const projectionColumns = `
	run_id, slate_date, person_id, team_id, location, game_id, opposing_team_id,
	display_first_last, team_abbreviation,
	game_density_5, days_rest,
	ma_20, ma_10, ma_5,
	min_20, min_10, min_5,
	min_cov_20, min_cov_10, min_cov_5,
	sco_cov_20, sco_cov_10, sco_cov_5,
	home_affinity, away_affinity,
	exp_sco, exp_sco_l
`

type projectionKey struct {
	runID    string
	personID int64
	gameID   string
}

// InsertBulk adds multiple projections. Fails entire batch on duplicate (run_id, person_id, game_id).
// MergeTree does not enforce uniqueness, so duplicates are checked before the batch is sent.
func (s *ProjectionStore) InsertBulk(ctx context.Context, projections []*domain.PlayerProjection) error {
	if len(projections) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[projectionKey]struct{}, len(projections))
	runs := make(map[string]struct{})
	for _, p := range projections {
		if !storage.ValidProjection(p) {
			return storage.ErrInvalidInput
		}
		k := projectionKey{p.RunID, p.Row.PersonID, p.Row.GameID}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
		runs[p.RunID] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for runID := range runs {
		existing, err := s.keysForRun(ctx, runID)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		for k := range existing {
			if _, clash := seen[k]; clash {
				return storage.ErrDuplicateKey
			}
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO player_projections (`+projectionColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range projections {
		f := p.Features
		// Pass nil values directly for Nullable columns
		err = batch.Append(
			p.RunID, dateOnly(p.SlateDate), p.Row.PersonID, p.Row.TeamID, string(p.Row.Location), p.Row.GameID, p.Row.OpposingTeamID,
			p.Row.DisplayFirstLast, p.Row.TeamAbbreviation,
			toNullableInt32(f.GameDensity5), toNullableInt32(f.DaysRest),
			f.MA20, f.MA10, f.MA5,
			f.MIN20, f.MIN10, f.MIN5,
			f.MINCOV20, f.MINCOV10, f.MINCOV5,
			f.SCOCOV20, f.SCOCOV10, f.SCOCOV5,
			f.HomeAffinity, f.AwayAffinity,
			f.ExpectedScore, f.ExpectedScoreLocation,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByRunID retrieves all projections of a run, ordered by (game_id, person_id) ASC.
func (s *ProjectionStore) GetByRunID(ctx context.Context, runID string) ([]*domain.PlayerProjection, error) {
	query := `SELECT ` + projectionColumns + `
		FROM player_projections
		WHERE run_id = ?
		ORDER BY game_id ASC, person_id ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query by run id: %w", err)
	}
	defer rows.Close()

	return scanProjections(rows)
}

// GetBySlateDate retrieves all projections for a slate date, ordered by (game_id, person_id) ASC.
func (s *ProjectionStore) GetBySlateDate(ctx context.Context, date time.Time) ([]*domain.PlayerProjection, error) {
	query := `SELECT ` + projectionColumns + `
		FROM player_projections
		WHERE slate_date = ?
		ORDER BY game_id ASC, person_id ASC, run_id ASC
	`

	rows, err := s.conn.Query(ctx, query, dateOnly(date))
	if err != nil {
		return nil, fmt.Errorf("query by slate date: %w", err)
	}
	defer rows.Close()

	return scanProjections(rows)
}

// keysForRun returns the keys already stored for a run.
func (s *ProjectionStore) keysForRun(ctx context.Context, runID string) (map[projectionKey]struct{}, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT person_id, game_id FROM player_projections
		WHERE run_id = ?
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make(map[projectionKey]struct{})
	for rows.Next() {
		k := projectionKey{runID: runID}
		if err := rows.Scan(&k.personID, &k.gameID); err != nil {
			return nil, err
		}
		keys[k] = struct{}{}
	}
	return keys, rows.Err()
}

// scanProjections scans multiple rows.
func scanProjections(rows chRows) ([]*domain.PlayerProjection, error) {
	var projections []*domain.PlayerProjection

	for rows.Next() {
		var (
			p                 domain.PlayerProjection
			location          string
			density, daysRest *int32
		)
		f := &p.Features

		err := rows.Scan(
			&p.RunID, &p.SlateDate, &p.Row.PersonID, &p.Row.TeamID, &location, &p.Row.GameID, &p.Row.OpposingTeamID,
			&p.Row.DisplayFirstLast, &p.Row.TeamAbbreviation,
			&density, &daysRest,
			&f.MA20, &f.MA10, &f.MA5,
			&f.MIN20, &f.MIN10, &f.MIN5,
			&f.MINCOV20, &f.MINCOV10, &f.MINCOV5,
			&f.SCOCOV20, &f.SCOCOV10, &f.SCOCOV5,
			&f.HomeAffinity, &f.AwayAffinity,
			&f.ExpectedScore, &f.ExpectedScoreLocation,
		)
		if err != nil {
			return nil, fmt.Errorf("scan projection row: %w", err)
		}

		p.Row.Location = domain.Location(location)
		f.GameDensity5 = fromNullableInt32(density)
		f.DaysRest = fromNullableInt32(daysRest)

		projections = append(projections, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projection rows: %w", err)
	}

	return projections, nil
}

// toNullableInt32 converts *int to *int32 for ClickHouse Nullable(Int32).
func toNullableInt32(v *int) *int32 {
	if v == nil {
		return nil
	}
	i := int32(*v)
	return &i
}

func fromNullableInt32(v *int32) *int {
	if v == nil {
		return nil
	}
	i := int(*v)
	return &i
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
