package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"nba-seer/internal/domain"
	"nba-seer/internal/storage"
)

// GameLogStore is an in-memory implementation of storage.GameLogStore.
type GameLogStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PlayerGameRecord // keyed by (player_id, game_id)
}

// NewGameLogStore creates a new in-memory game log store.
func NewGameLogStore() *GameLogStore {
	return &GameLogStore{
		data: make(map[string]*domain.PlayerGameRecord),
	}
}

// gameLogKey generates a unique key for a record.
func gameLogKey(playerID int64, gameID string) string {
	return fmt.Sprintf("%d|%s", playerID, gameID)
}

// InsertBulk adds multiple records atomically. Fails entire batch on any duplicate.
func (s *GameLogStore) InsertBulk(_ context.Context, records []*domain.PlayerGameRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(records))

	// First pass: check for duplicates (existing + intra-batch)
	for _, r := range records {
		if !storage.ValidRecord(r) {
			return storage.ErrInvalidInput
		}
		key := gameLogKey(r.PlayerID, r.GameID)

		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, r := range records {
		s.data[gameLogKey(r.PlayerID, r.GameID)] = copyRecord(r)
	}

	return nil
}

// GetByPlayerID retrieves all records for a player, ordered by game_id_sortable ASC.
func (s *GameLogStore) GetByPlayerID(_ context.Context, playerID int64) ([]*domain.PlayerGameRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PlayerGameRecord
	for _, r := range s.data {
		if r.PlayerID == playerID {
			result = append(result, copyRecord(r))
		}
	}

	sortByPlayerThenGame(result)
	return result, nil
}

// GetByPlayerIDs retrieves all records for the given players, ordered by (player_id, game_id_sortable) ASC.
func (s *GameLogStore) GetByPlayerIDs(_ context.Context, playerIDs []int64) ([]*domain.PlayerGameRecord, error) {
	wanted := make(map[int64]struct{}, len(playerIDs))
	for _, id := range playerIDs {
		wanted[id] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PlayerGameRecord
	for _, r := range s.data {
		if _, ok := wanted[r.PlayerID]; ok {
			result = append(result, copyRecord(r))
		}
	}

	sortByPlayerThenGame(result)
	return result, nil
}

// GetByGameIDs retrieves all records for the given games, ordered by (game_id_sortable, player_id) ASC.
func (s *GameLogStore) GetByGameIDs(_ context.Context, gameIDs []string) ([]*domain.PlayerGameRecord, error) {
	wanted := make(map[string]struct{}, len(gameIDs))
	for _, id := range gameIDs {
		wanted[id] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PlayerGameRecord
	for _, r := range s.data {
		if _, ok := wanted[r.GameID]; ok {
			result = append(result, copyRecord(r))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].GameIDSortable != result[j].GameIDSortable {
			return result[i].GameIDSortable < result[j].GameIDSortable
		}
		return result[i].PlayerID < result[j].PlayerID
	})
	return result, nil
}

func sortByPlayerThenGame(records []*domain.PlayerGameRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].PlayerID != records[j].PlayerID {
			return records[i].PlayerID < records[j].PlayerID
		}
		return records[i].GameIDSortable < records[j].GameIDSortable
	})
}

// copyRecord deep-copies a record, including the nullable minutes.
func copyRecord(r *domain.PlayerGameRecord) *domain.PlayerGameRecord {
	c := *r
	if r.Minutes != nil {
		m := *r.Minutes
		c.Minutes = &m
	}
	return &c
}

var _ storage.GameLogStore = (*GameLogStore)(nil)
