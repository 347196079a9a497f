package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"nba-seer/internal/domain"
	"nba-seer/internal/storage"
)

// GameStore is an in-memory implementation of storage.GameStore.
type GameStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Game // keyed by game_id
}

// NewGameStore creates a new in-memory game store.
func NewGameStore() *GameStore {
	return &GameStore{
		data: make(map[string]*domain.Game),
	}
}

// InsertBulk adds multiple games atomically. Fails entire batch on any duplicate.
func (s *GameStore) InsertBulk(_ context.Context, games []*domain.Game) error {
	if len(games) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(games))
	for _, g := range games {
		if g == nil || g.GameID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[g.GameID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[g.GameID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[g.GameID] = struct{}{}
	}

	for _, g := range games {
		game := *g
		s.data[g.GameID] = &game
	}

	return nil
}

// GetByID retrieves a game by its display id. Returns ErrNotFound if not exists.
func (s *GameStore) GetByID(_ context.Context, gameID string) (*domain.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.data[gameID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	game := *g
	return &game, nil
}

// GetByDate retrieves all games on the given calendar date, ordered by game_id ASC.
func (s *GameStore) GetByDate(_ context.Context, date time.Time) ([]*domain.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Game
	for _, g := range s.data {
		if !g.GameDate.IsZero() && storage.SameDate(g.GameDate, date) {
			game := *g
			result = append(result, &game)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].GameID < result[j].GameID
	})

	return result, nil
}

var _ storage.GameStore = (*GameStore)(nil)
