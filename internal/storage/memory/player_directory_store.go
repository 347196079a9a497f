package memory

import (
	"context"
	"sort"
	"sync"

	"nba-seer/internal/domain"
	"nba-seer/internal/storage"
)

// PlayerDirectoryStore is an in-memory implementation of storage.PlayerDirectoryStore.
type PlayerDirectoryStore struct {
	mu   sync.RWMutex
	data map[int64]*domain.PlayerDirectoryEntry // keyed by person_id
}

// NewPlayerDirectoryStore creates a new in-memory player directory store.
func NewPlayerDirectoryStore() *PlayerDirectoryStore {
	return &PlayerDirectoryStore{
		data: make(map[int64]*domain.PlayerDirectoryEntry),
	}
}

// Upsert inserts or replaces directory entries keyed by person_id.
func (s *PlayerDirectoryStore) Upsert(_ context.Context, entries []*domain.PlayerDirectoryEntry) error {
	for _, e := range entries {
		if e == nil || e.PersonID == 0 {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		entry := *e
		s.data[e.PersonID] = &entry
	}
	return nil
}

// GetByTeamIDs retrieves all players on the given teams, ordered by person_id ASC.
func (s *PlayerDirectoryStore) GetByTeamIDs(_ context.Context, teamIDs []int64) ([]*domain.PlayerDirectoryEntry, error) {
	wanted := make(map[int64]struct{}, len(teamIDs))
	for _, id := range teamIDs {
		wanted[id] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PlayerDirectoryEntry
	for _, e := range s.data {
		if _, ok := wanted[e.TeamID]; ok {
			entry := *e
			result = append(result, &entry)
		}
	}

	sortByPersonID(result)
	return result, nil
}

// GetAll retrieves the full directory, ordered by person_id ASC.
func (s *PlayerDirectoryStore) GetAll(_ context.Context) ([]*domain.PlayerDirectoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.PlayerDirectoryEntry, 0, len(s.data))
	for _, e := range s.data {
		entry := *e
		result = append(result, &entry)
	}

	sortByPersonID(result)
	return result, nil
}

func sortByPersonID(entries []*domain.PlayerDirectoryEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].PersonID < entries[j].PersonID
	})
}

var _ storage.PlayerDirectoryStore = (*PlayerDirectoryStore)(nil)
