// Package roster expands scheduled games into one query row per participating player.
package roster

import (
	"context"
	"errors"
	"fmt"

	"nba-seer/internal/domain"
)

// ErrInvalidGame is returned for structurally invalid games.
var ErrInvalidGame = errors.New("invalid game")

// Resolver produces the player/game query rows for a slate.
type Resolver interface {
	Resolve(ctx context.Context, games []*domain.Game) ([]*domain.PlayerQueryRow, error)
}

// LiveResolver pairs scheduled games with the current player directory.
type LiveResolver struct {
	directory []*domain.PlayerDirectoryEntry
}

// NewLiveResolver creates a resolver over a directory snapshot.
func NewLiveResolver(directory []*domain.PlayerDirectoryEntry) *LiveResolver {
	return &LiveResolver{directory: directory}
}

// Resolve yields one row per directory player on either team, with the
// display name and team abbreviation carried over.
func (r *LiveResolver) Resolve(ctx context.Context, games []*domain.Game) ([]*domain.PlayerQueryRow, error) {
	if err := validateGames(games); err != nil {
		return nil, err
	}

	var rows []*domain.PlayerQueryRow
	seen := make(map[domain.RowKey]struct{})
	for _, g := range games {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, s := range sides(g) {
			for _, p := range r.directory {
				if p == nil || p.TeamID != s.teamID {
					continue
				}
				rows = appendUnique(rows, seen, &domain.PlayerQueryRow{
					PersonID:         p.PersonID,
					TeamID:           p.TeamID,
					Location:         s.location,
					GameID:           g.GameID,
					OpposingTeamID:   s.opponent,
					DisplayFirstLast: p.DisplayFirstLast,
					TeamAbbreviation: p.TeamAbbreviation,
				})
			}
		}
	}
	return rows, nil
}

// BacktestResolver pairs already-played games with the players who appear in
// their box scores.
type BacktestResolver struct {
	records []*domain.PlayerGameRecord
}

// NewBacktestResolver creates a resolver over historical records.
func NewBacktestResolver(records []*domain.PlayerGameRecord) *BacktestResolver {
	return &BacktestResolver{records: records}
}

// Resolve joins the log on game id and team. Location and opponent come from
// the game, not the log row.
func (r *BacktestResolver) Resolve(ctx context.Context, games []*domain.Game) ([]*domain.PlayerQueryRow, error) {
	if err := validateGames(games); err != nil {
		return nil, err
	}

	byGame := make(map[string][]*domain.PlayerGameRecord)
	for _, rec := range r.records {
		if rec != nil {
			byGame[rec.GameID] = append(byGame[rec.GameID], rec)
		}
	}

	var rows []*domain.PlayerQueryRow
	seen := make(map[domain.RowKey]struct{})
	for _, g := range games {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, s := range sides(g) {
			for _, rec := range byGame[g.GameID] {
				if rec.TeamID != s.teamID {
					continue
				}
				rows = appendUnique(rows, seen, &domain.PlayerQueryRow{
					PersonID:       rec.PlayerID,
					TeamID:         rec.TeamID,
					Location:       s.location,
					GameID:         g.GameID,
					OpposingTeamID: s.opponent,
				})
			}
		}
	}
	return rows, nil
}

type side struct {
	teamID   int64
	location domain.Location
	opponent int64
}

// sides returns the home side first.
func sides(g *domain.Game) [2]side {
	return [2]side{
		{teamID: g.HomeTeamID, location: domain.LocationHome, opponent: g.VisitorTeamID},
		{teamID: g.VisitorTeamID, location: domain.LocationAway, opponent: g.HomeTeamID},
	}
}

func validateGames(games []*domain.Game) error {
	for i, g := range games {
		if g == nil {
			return fmt.Errorf("%w: nil game at index %d", ErrInvalidGame, i)
		}
		if g.GameID == "" {
			return fmt.Errorf("%w: empty game id at index %d", ErrInvalidGame, i)
		}
		if g.HomeTeamID == g.VisitorTeamID {
			return fmt.Errorf("%w: game %s has team %d on both sides", ErrInvalidGame, g.GameID, g.HomeTeamID)
		}
	}
	return nil
}

func appendUnique(rows []*domain.PlayerQueryRow, seen map[domain.RowKey]struct{}, row *domain.PlayerQueryRow) []*domain.PlayerQueryRow {
	key := row.Key()
	if _, ok := seen[key]; ok {
		return rows
	}
	seen[key] = struct{}{}
	return append(rows, row)
}
