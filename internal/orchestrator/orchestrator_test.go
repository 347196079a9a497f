// Package orchestrator provides end-to-end slate orchestration tests.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"nba-seer/internal/domain"
	"nba-seer/internal/features"
	"nba-seer/internal/storage/memory"
)

var (
	seasonStart = time.Date(2017, 10, 17, 0, 0, 0, 0, time.UTC)
	slateDate   = time.Date(2017, 11, 20, 0, 0, 0, 0, time.UTC)
)

var teams = map[int64]int64{ // person -> team
	1: 1610612737,
	2: 1610612738,
	3: 1610612751,
	4: 1610612752,
}

type testStores struct {
	games       *memory.GameStore
	directory   *memory.PlayerDirectoryStore
	logs        *memory.GameLogStore
	projections *memory.ProjectionStore
}

func createTestStores(t *testing.T, withSlateBoxScores bool) testStores {
	t.Helper()
	ctx := context.Background()
	s := testStores{
		games:       memory.NewGameStore(),
		directory:   memory.NewPlayerDirectoryStore(),
		logs:        memory.NewGameLogStore(),
		projections: memory.NewProjectionStore(),
	}

	slate := []*domain.Game{
		{GameID: "0021700101", HomeTeamID: teams[1], VisitorTeamID: teams[2], GameDate: slateDate},
		{GameID: "0021700102", HomeTeamID: teams[3], VisitorTeamID: teams[4], GameDate: slateDate},
		{GameID: "0021700090", HomeTeamID: teams[1], VisitorTeamID: teams[3], GameDate: slateDate.AddDate(0, 0, -3)},
	}
	if err := s.games.InsertBulk(ctx, slate); err != nil {
		t.Fatalf("insert games: %v", err)
	}

	var entries []*domain.PlayerDirectoryEntry
	var records []*domain.PlayerGameRecord
	for person := int64(1); person <= 4; person++ {
		team := teams[person]
		entries = append(entries, &domain.PlayerDirectoryEntry{
			PersonID:         person,
			TeamID:           team,
			DisplayFirstLast: fmt.Sprintf("Player %d", person),
			TeamAbbreviation: fmt.Sprintf("T%d", person),
		})
		for i := 1; i <= 25; i++ {
			loc := domain.LocationHome
			if i%2 == 0 {
				loc = domain.LocationAway
			}
			records = append(records, record(person, team, fmt.Sprintf("00217%05d", i), loc,
				30+float64(i%3), 18+float64(i%5)*2, seasonStart.AddDate(0, 0, i)))
		}
	}
	if withSlateBoxScores {
		records = append(records,
			record(1, teams[1], "0021700101", domain.LocationHome, 34, 30, slateDate),
			record(2, teams[2], "0021700101", domain.LocationAway, 28, 12, slateDate),
			record(3, teams[3], "0021700102", domain.LocationHome, 36, 25, slateDate),
			record(4, teams[4], "0021700102", domain.LocationAway, 32, 20, slateDate),
		)
	}

	if err := s.directory.Upsert(ctx, entries); err != nil {
		t.Fatalf("upsert directory: %v", err)
	}
	if err := s.logs.InsertBulk(ctx, records); err != nil {
		t.Fatalf("insert logs: %v", err)
	}
	return s
}

func record(person, team int64, gameID string, loc domain.Location, minutes, points float64, date time.Time) *domain.PlayerGameRecord {
	sortable, _ := domain.SortableKey(gameID)
	return &domain.PlayerGameRecord{
		PlayerID:       person,
		TeamID:         team,
		GameID:         gameID,
		GameIDSortable: sortable,
		Location:       loc,
		Minutes:        &minutes,
		Points:         points,
		Assists:        4,
		DefRebounds:    3,
		GameDate:       date,
	}
}

func TestOrchestrator_Run_NoGames(t *testing.T) {
	s := createTestStores(t, false)
	orch := New(Options{
		GameStore:      s.games,
		DirectoryStore: s.directory,
		GameLogStore:   s.logs,
		SlateDate:      time.Date(2018, 6, 1, 0, 0, 0, 0, time.UTC),
	})

	result, err := orch.Run(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if result.Games != 0 || len(result.Projections) != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
}

func TestOrchestrator_Run_Live(t *testing.T) {
	ctx := context.Background()
	s := createTestStores(t, false)

	orch := New(Options{
		GameStore:        s.games,
		DirectoryStore:   s.directory,
		GameLogStore:     s.logs,
		ProjectionStores: []ProjectionSink{s.projections},
		Mode:             ModeLive,
		SlateDate:        slateDate,
		Workers:          2,
		Clock:            features.FixedClock(slateDate.Add(15 * time.Hour)),
	})

	result, err := orch.Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Games != 2 {
		t.Errorf("expected 2 games, got %d", result.Games)
	}
	if result.Resolved != 4 {
		t.Errorf("expected 4 rows, got %d", result.Resolved)
	}
	if len(result.Projections) != 4 {
		t.Fatalf("expected 4 projections, got %d (errors: %v)", len(result.Projections), result.Errors)
	}
	for _, p := range result.Projections {
		if p.Features.ExpectedScoreLocation == nil {
			t.Errorf("person %d: EXP_SCO_L is nil", p.Row.PersonID)
		}
		if p.Row.DisplayFirstLast == "" {
			t.Errorf("person %d: display name not carried over", p.Row.PersonID)
		}
	}
	if result.Evaluation != nil {
		t.Error("live mode must not evaluate")
	}

	stored, err := s.projections.GetByRunID(ctx, result.RunID)
	if err != nil {
		t.Fatalf("GetByRunID: %v", err)
	}
	if len(stored) != 4 {
		t.Errorf("expected 4 stored projections, got %d", len(stored))
	}
}

func TestOrchestrator_Run_Backtest(t *testing.T) {
	s := createTestStores(t, true)

	orch := New(Options{
		GameStore:    s.games,
		GameLogStore: s.logs,
		Mode:         ModeBacktest,
		SlateDate:    slateDate,
	})

	result, err := orch.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Projections) != 4 {
		t.Fatalf("expected 4 projections, got %d (errors: %v)", len(result.Projections), result.Errors)
	}
	for _, p := range result.Projections {
		if p.Row.DisplayFirstLast != "" {
			t.Errorf("backtest rows carry no display name, got %q", p.Row.DisplayFirstLast)
		}
		// backtest rest days are measured to the slate date: last game 2017-11-11
		if p.Features.DaysRest == nil || *p.Features.DaysRest != 8 {
			t.Errorf("person %d: d_rest = %v, want 8", p.Row.PersonID, p.Features.DaysRest)
		}
	}
	if result.Evaluation == nil || result.Evaluation.Count != 4 {
		t.Fatalf("expected 4 evaluated rows, got %+v", result.Evaluation)
	}
	if result.Evaluation.MAE <= 0 {
		t.Errorf("expected positive MAE, got %v", result.Evaluation.MAE)
	}
}

type failingStore struct{}

func (failingStore) InsertBulk(context.Context, []*domain.PlayerProjection) error {
	return errors.New("connection refused")
}

func TestOrchestrator_Run_PersistErrorsAreCollected(t *testing.T) {
	s := createTestStores(t, false)

	orch := New(Options{
		GameStore:        s.games,
		DirectoryStore:   s.directory,
		GameLogStore:     s.logs,
		ProjectionStores: []ProjectionSink{failingStore{}, s.projections},
		SlateDate:        slateDate,
		Clock:            features.FixedClock(slateDate),
	})

	result, err := orch.Run(context.Background())
	if err != nil {
		t.Fatalf("persist failures must not abort the run: %v", err)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "connection refused") {
		t.Errorf("expected one persist error, got %v", result.Errors)
	}
	stored, _ := s.projections.GetBySlateDate(context.Background(), slateDate)
	if len(stored) != 4 {
		t.Errorf("healthy store must still receive projections, got %d", len(stored))
	}
}

func TestOrchestrator_Run_LiveRequiresDirectory(t *testing.T) {
	s := createTestStores(t, false)
	orch := New(Options{GameStore: s.games, GameLogStore: s.logs, SlateDate: slateDate})
	if _, err := orch.Run(context.Background()); err == nil {
		t.Error("expected error without directory store")
	}
}
