// Package history provides a read-only, per-player index over the historical game log.
package history

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"nba-seer/internal/domain"
	"nba-seer/internal/storage"
)

// Errors returned when building an index.
var (
	ErrDuplicateRecord  = errors.New("duplicate (player_id, game_id) record")
	ErrSortableMismatch = errors.New("sortable game id does not match display game id")
)

// Index is a read-only view of the game log grouped by player and ordered by
// sortable game id. It is safe for concurrent readers once built.
type Index struct {
	byPlayer map[int64][]*domain.PlayerGameRecord
	size     int
}

// NewIndex builds an index from records. Records without a sortable id get one
// computed from the display id; records whose sortable id disagrees with the
// display id are rejected. Input records are copied, never mutated.
func NewIndex(records []*domain.PlayerGameRecord) (*Index, error) {
	idx := &Index{byPlayer: make(map[int64][]*domain.PlayerGameRecord)}
	seen := make(map[domain.RowKey]struct{}, len(records))

	for _, r := range records {
		if r == nil {
			return nil, fmt.Errorf("%w: nil record", storage.ErrInvalidInput)
		}

		sortable, err := domain.SortableKey(r.GameID)
		if err != nil {
			return nil, fmt.Errorf("player %d: %w", r.PlayerID, err)
		}
		if r.GameIDSortable != "" && r.GameIDSortable != sortable {
			return nil, fmt.Errorf("%w: player %d game %s has %s, want %s",
				ErrSortableMismatch, r.PlayerID, r.GameID, r.GameIDSortable, sortable)
		}

		key := domain.RowKey{PersonID: r.PlayerID, GameID: r.GameID}
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: player %d game %s", ErrDuplicateRecord, r.PlayerID, r.GameID)
		}
		seen[key] = struct{}{}

		c := *r
		c.GameIDSortable = sortable
		idx.byPlayer[r.PlayerID] = append(idx.byPlayer[r.PlayerID], &c)
	}

	for _, recs := range idx.byPlayer {
		sort.Slice(recs, func(i, j int) bool {
			return recs[i].GameIDSortable < recs[j].GameIDSortable
		})
	}
	idx.size = len(seen)

	return idx, nil
}

// Load builds an index for the given players from a backing store.
func Load(ctx context.Context, store storage.GameLogStore, playerIDs []int64) (*Index, error) {
	records, err := store.GetByPlayerIDs(ctx, playerIDs)
	if err != nil {
		return nil, fmt.Errorf("load game logs: %w", err)
	}
	return NewIndex(records)
}

// Len returns the number of records in the index.
func (idx *Index) Len() int {
	return idx.size
}

// Players returns the number of distinct players in the index.
func (idx *Index) Players() int {
	return len(idx.byPlayer)
}

// RecordsFor returns the full history of a player in ascending sortable order.
// The returned slice is a copy; the records themselves must not be modified.
func (idx *Index) RecordsFor(playerID int64) []*domain.PlayerGameRecord {
	recs := idx.byPlayer[playerID]
	out := make([]*domain.PlayerGameRecord, len(recs))
	copy(out, recs)
	return out
}

// Before returns the player's records strictly before ref, in ascending order.
// The game ref and anything sorting after it are excluded.
func (idx *Index) Before(playerID int64, ref domain.SortableGameID) []*domain.PlayerGameRecord {
	recs := idx.byPlayer[playerID]
	key := ref.String()
	n := sort.Search(len(recs), func(i int) bool {
		return recs[i].GameIDSortable >= key
	})
	out := make([]*domain.PlayerGameRecord, n)
	copy(out, recs[:n])
	return out
}
