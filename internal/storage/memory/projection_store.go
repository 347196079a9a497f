package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"nba-seer/internal/domain"
	"nba-seer/internal/storage"
)

// ProjectionStore is an in-memory implementation of storage.ProjectionStore.
type ProjectionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PlayerProjection // keyed by (run_id, person_id, game_id)
}

// NewProjectionStore creates a new in-memory projection store.
func NewProjectionStore() *ProjectionStore {
	return &ProjectionStore{
		data: make(map[string]*domain.PlayerProjection),
	}
}

func projectionKey(p *domain.PlayerProjection) string {
	return fmt.Sprintf("%s|%d|%s", p.RunID, p.Row.PersonID, p.Row.GameID)
}

// InsertBulk adds multiple projections. Fails entire batch on duplicate.
func (s *ProjectionStore) InsertBulk(_ context.Context, projections []*domain.PlayerProjection) error {
	if len(projections) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(projections))
	for _, p := range projections {
		if !storage.ValidProjection(p) {
			return storage.ErrInvalidInput
		}
		key := projectionKey(p)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, p := range projections {
		projection := *p
		s.data[projectionKey(p)] = &projection
	}

	return nil
}

// GetByRunID retrieves all projections of a run, ordered by (game_id, person_id) ASC.
func (s *ProjectionStore) GetByRunID(_ context.Context, runID string) ([]*domain.PlayerProjection, error) {
	return s.filter(func(p *domain.PlayerProjection) bool {
		return p.RunID == runID
	}), nil
}

// GetBySlateDate retrieves all projections for a slate date, ordered by (game_id, person_id) ASC.
func (s *ProjectionStore) GetBySlateDate(_ context.Context, date time.Time) ([]*domain.PlayerProjection, error) {
	return s.filter(func(p *domain.PlayerProjection) bool {
		return storage.SameDate(p.SlateDate, date)
	}), nil
}

func (s *ProjectionStore) filter(match func(*domain.PlayerProjection) bool) []*domain.PlayerProjection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PlayerProjection
	for _, p := range s.data {
		if match(p) {
			projection := *p
			result = append(result, &projection)
		}
	}

	storage.SortProjections(result)
	return result
}

var _ storage.ProjectionStore = (*ProjectionStore)(nil)
