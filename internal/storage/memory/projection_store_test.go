package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"nba-seer/internal/domain"
	"nba-seer/internal/storage"
)

func projection(runID string, personID int64, gameID string, slate time.Time) *domain.PlayerProjection {
	score := 42.5
	return &domain.PlayerProjection{
		RunID:     runID,
		SlateDate: slate,
		Row: domain.PlayerQueryRow{
			PersonID: personID,
			TeamID:   10,
			Location: domain.LocationAway,
			GameID:   gameID,
		},
		Features: domain.DerivedFeatureSet{ExpectedScore: &score},
	}
}

func TestProjectionStore_InsertAndQuery(t *testing.T) {
	store := NewProjectionStore()
	ctx := context.Background()

	slate := time.Date(2018, 1, 5, 0, 0, 0, 0, time.UTC)
	other := slate.AddDate(0, 0, 1)

	err := store.InsertBulk(ctx, []*domain.PlayerProjection{
		projection("run-a", 2, "0021700600", slate),
		projection("run-a", 1, "0021700600", slate),
		projection("run-a", 1, "0021700599", slate),
		projection("run-b", 1, "0021700610", other),
	})
	if err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	byRun, err := store.GetByRunID(ctx, "run-a")
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}
	if len(byRun) != 3 {
		t.Fatalf("Expected 3 projections, got %d", len(byRun))
	}
	if byRun[0].Row.GameID != "0021700599" || byRun[1].Row.PersonID != 1 || byRun[2].Row.PersonID != 2 {
		t.Errorf("Unexpected order: %+v", byRun)
	}

	byDate, err := store.GetBySlateDate(ctx, other)
	if err != nil {
		t.Fatalf("GetBySlateDate failed: %v", err)
	}
	if len(byDate) != 1 || byDate[0].RunID != "run-b" {
		t.Errorf("Unexpected projections for %s: %+v", other.Format(storage.DateLayout), byDate)
	}
	if *byDate[0].Features.ExpectedScore != 42.5 {
		t.Errorf("Expected score 42.5, got %v", *byDate[0].Features.ExpectedScore)
	}
}

func TestProjectionStore_DuplicateKey(t *testing.T) {
	store := NewProjectionStore()
	ctx := context.Background()
	slate := time.Date(2018, 1, 5, 0, 0, 0, 0, time.UTC)

	p := projection("run-a", 1, "0021700600", slate)
	if err := store.InsertBulk(ctx, []*domain.PlayerProjection{p}); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	if err := store.InsertBulk(ctx, []*domain.PlayerProjection{p}); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	// Same row in a different run is a distinct key.
	if err := store.InsertBulk(ctx, []*domain.PlayerProjection{projection("run-b", 1, "0021700600", slate)}); err != nil {
		t.Errorf("Expected insert for new run to succeed, got %v", err)
	}
}

func TestProjectionStore_InvalidInput(t *testing.T) {
	store := NewProjectionStore()
	ctx := context.Background()

	p := projection("", 1, "0021700600", time.Now())
	if err := store.InsertBulk(ctx, []*domain.PlayerProjection{p}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}
