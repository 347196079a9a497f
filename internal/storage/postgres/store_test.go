package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nba-seer/internal/domain"
	"nba-seer/internal/storage"
)

var slate = time.Date(2018, 1, 12, 0, 0, 0, 0, time.UTC)

func record(playerID int64, gameID, sortable string, loc domain.Location, minutes *float64) *domain.PlayerGameRecord {
	return &domain.PlayerGameRecord{
		PlayerID:       playerID,
		TeamID:         1610612738,
		GameID:         gameID,
		GameIDSortable: sortable,
		OpposingTeamID: 1610612737,
		Location:       loc,
		Minutes:        minutes,
		Points:         20,
		Assists:        4,
		DefRebounds:    6,
		GameDate:       slate.AddDate(0, 0, -2),
	}
}

func TestGameStore_Integration(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewGameStore(pool)
	ctx := context.Background()

	games := []*domain.Game{
		{GameID: "0021700621", HomeTeamID: 3, VisitorTeamID: 4, GameDate: slate},
		{GameID: "0021700620", HomeTeamID: 1, VisitorTeamID: 2, GameDate: slate},
		{GameID: "0021700500", HomeTeamID: 1, VisitorTeamID: 3, GameDate: slate.AddDate(0, 0, -10)},
	}
	require.NoError(t, store.InsertBulk(ctx, games))

	got, err := store.GetByDate(ctx, slate)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "0021700620", got[0].GameID)
	assert.Equal(t, "0021700621", got[1].GameID)

	g, err := store.GetByID(ctx, "0021700500")
	require.NoError(t, err)
	assert.True(t, g.GameDate.Equal(slate.AddDate(0, 0, -10)))

	_, err = store.GetByID(ctx, "0021799999")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Duplicate fails the whole batch
	err = store.InsertBulk(ctx, []*domain.Game{
		{GameID: "0021700900", HomeTeamID: 5, VisitorTeamID: 6},
		{GameID: "0021700620", HomeTeamID: 1, VisitorTeamID: 2},
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
	_, err = store.GetByID(ctx, "0021700900")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPlayerDirectoryStore_Integration(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPlayerDirectoryStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []*domain.PlayerDirectoryEntry{
		{PersonID: 202, TeamID: 10, DisplayFirstLast: "Jaylen Brown", TeamAbbreviation: "BOS"},
		{PersonID: 101, TeamID: 20, DisplayFirstLast: "Player One", TeamAbbreviation: "ATL"},
	}))

	// Traded player moves teams
	require.NoError(t, store.Upsert(ctx, []*domain.PlayerDirectoryEntry{
		{PersonID: 101, TeamID: 10, DisplayFirstLast: "Player One", TeamAbbreviation: "BOS"},
	}))

	onTeam, err := store.GetByTeamIDs(ctx, []int64{10})
	require.NoError(t, err)
	require.Len(t, onTeam, 2)
	assert.Equal(t, int64(101), onTeam[0].PersonID)
	assert.Equal(t, "BOS", onTeam[0].TeamAbbreviation)

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGameLogStore_Integration(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewGameLogStore(pool)
	ctx := context.Background()

	records := []*domain.PlayerGameRecord{
		record(202, "0021700620", "1700210620", domain.LocationAway, ptr(34.5)),
		record(202, "0021700100", "1700210100", domain.LocationHome, nil),
		record(101, "0021700620", "1700210620", domain.LocationHome, ptr(30.0)),
	}
	require.NoError(t, store.InsertBulk(ctx, records))

	byPlayer, err := store.GetByPlayerID(ctx, 202)
	require.NoError(t, err)
	require.Len(t, byPlayer, 2)
	assert.Equal(t, "0021700100", byPlayer[0].GameID)
	assert.Nil(t, byPlayer[0].Minutes)
	require.NotNil(t, byPlayer[1].Minutes)
	assert.Equal(t, 34.5, *byPlayer[1].Minutes)
	assert.Equal(t, domain.LocationAway, byPlayer[1].Location)
	assert.True(t, byPlayer[1].GameDate.Equal(slate.AddDate(0, 0, -2)))

	byPlayers, err := store.GetByPlayerIDs(ctx, []int64{202, 101})
	require.NoError(t, err)
	require.Len(t, byPlayers, 3)
	assert.Equal(t, int64(101), byPlayers[0].PlayerID)

	byGame, err := store.GetByGameIDs(ctx, []string{"0021700620"})
	require.NoError(t, err)
	require.Len(t, byGame, 2)
	assert.Equal(t, int64(101), byGame[0].PlayerID)

	err = store.InsertBulk(ctx, []*domain.PlayerGameRecord{
		record(202, "0021700620", "1700210620", domain.LocationAway, ptr(12.0)),
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}
