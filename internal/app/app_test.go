package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nba-seer/internal/config"
	"nba-seer/internal/features"
	"nba-seer/internal/orchestrator"
	"nba-seer/internal/storage/memory"
)

const (
	hawks   = 1610612737
	celtics = 1610612738
)

var slateDay = time.Date(2018, 1, 12, 0, 0, 0, 0, time.UTC)

const logHeader = "PLAYER_ID,TEAM_ID,GAME_ID,GAME_ID_O,LOCATION,GAME_DATE_EST,MINS,PTS,AST,OREB,DREB,STL,BLK,TO,FGM,FGA,FG3M\n"

func writeInputs(t *testing.T, withBoxScores bool) config.InputsConfig {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}

	games := "GAME_ID,HOME_TEAM_ID,VISITOR_TEAM_ID,GAME_DATE_EST\n" +
		fmt.Sprintf("0021700620,%d,%d,2018-01-12T00:00:00\n", hawks, celtics) +
		fmt.Sprintf("0021700630,%d,%d,2018-01-13T00:00:00\n", celtics, hawks)

	directory := "PERSON_ID,TEAM_ID,DISPLAY_FIRST_LAST,TEAM_ABBREVIATION\n" +
		fmt.Sprintf("1,%d,Player One,ATL\n", hawks) +
		fmt.Sprintf("2,%d,Player Two,BOS\n", celtics)

	var logs strings.Builder
	logs.WriteString(logHeader)
	for i := 1; i <= 10; i++ {
		date := time.Date(2018, 1, i, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
		gameID := fmt.Sprintf("00217%05d", 500+i)
		home, away := "HOME", "AWAY"
		if i%2 == 0 {
			home, away = away, home
		}
		fmt.Fprintf(&logs, "1,%d,%s,,%s,%s,%d,%d,4,1,5,1,0,2,8,16,2\n", hawks, gameID, home, date, 30+i%3, 14+i)
		fmt.Fprintf(&logs, "2,%d,%s,,%s,%s,32:30,%d,6,0,7,2,1,3,9,18,1\n", celtics, gameID, away, date, 20+(i%4)*3)
	}
	if withBoxScores {
		fmt.Fprintf(&logs, "1,%d,0021700620,,HOME,2018-01-12,34,30,5,1,6,1,0,2,11,19,3\n", hawks)
		fmt.Fprintf(&logs, "2,%d,0021700620,,AWAY,2018-01-12,31,18,4,0,5,1,1,4,7,16,1\n", celtics)
		fmt.Fprintf(&logs, "1,%d,0021700630,,AWAY,2018-01-13,29,16,3,0,4,0,0,1,6,14,1\n", hawks)
		fmt.Fprintf(&logs, "2,%d,0021700630,,HOME,2018-01-13,35,27,8,1,8,2,0,2,10,20,2\n", celtics)
	}

	return config.InputsConfig{
		Games:     []string{write("games.csv", games)},
		Directory: []string{write("directory.csv", directory)},
		GameLogs:  []string{write("logs.csv", logs.String())},
	}
}

func testConfig(t *testing.T, mode string, withBoxScores bool) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Mode:      mode,
		Workers:   2,
		LogLevel:  "info",
		LogFormat: "text",
		OutputDir: t.TempDir(),
		Storage:   config.StorageConfig{Backend: config.BackendMemory},
		Inputs:    writeInputs(t, withBoxScores),
	}
	w := features.DefaultWeights
	cfg.Scoring = config.ScoringConfig{
		Points:        w.Points,
		Assists:       w.Assists,
		OffRebounds:   w.OffRebounds,
		DefRebounds:   w.DefRebounds,
		Steals:        w.Steals,
		Blocks:        w.Blocks,
		Turnovers:     w.Turnovers,
		OutlierCutoff: w.OutlierCutoff,
	}
	return cfg
}

func openMemory(t *testing.T) *Stores {
	t.Helper()
	stores, err := OpenStores(context.Background(), config.StorageConfig{Backend: config.BackendMemory}, nil, nil)
	require.NoError(t, err)
	t.Cleanup(stores.Close)
	return stores
}

func TestRunSlate_Live(t *testing.T) {
	cfg := testConfig(t, config.ModeLive, false)
	stores := openMemory(t)
	clock := features.FixedClock(time.Date(2018, 1, 12, 10, 0, 0, 0, time.UTC))

	out, err := RunSlate(context.Background(), SlateOptions{Config: cfg, Stores: stores, Clock: clock})
	require.NoError(t, err)

	assert.True(t, out.SlateDate.Equal(time.Date(2018, 1, 12, 0, 0, 0, 0, time.UTC)))
	require.NotNil(t, out.Loaded)
	assert.Equal(t, 2, out.Loaded.Games)
	assert.Equal(t, 20, out.Loaded.GameLogRecords)

	res := out.Result
	assert.Equal(t, orchestrator.ModeLive, res.Mode)
	assert.Equal(t, 1, res.Games)
	assert.Equal(t, 2, res.Resolved)
	require.Len(t, res.Projections, 2)
	assert.Nil(t, res.Evaluation)
	for _, p := range res.Projections {
		require.NotNil(t, p.Features.ExpectedScore)
		require.NotNil(t, p.Features.DaysRest)
		assert.Equal(t, 1, *p.Features.DaysRest, "last game 2018-01-10, today 2018-01-12")
	}

	stored, err := stores.Projections.GetByRunID(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	require.Len(t, out.Files, 2)
	for _, f := range out.Files {
		assert.FileExists(t, f)
	}
}

func TestRunSlate_GamesWithoutDate(t *testing.T) {
	cfg := testConfig(t, config.ModeLive, false)
	games := filepath.Join(t.TempDir(), "games.csv")
	require.NoError(t, os.WriteFile(games, []byte("GAME_ID,HOME_TEAM_ID,VISITOR_TEAM_ID\n"+
		fmt.Sprintf("0021700620,%d,%d\n", hawks, celtics)), 0o600))
	cfg.Inputs.Games = []string{games}
	stores := openMemory(t)
	clock := features.FixedClock(time.Date(2018, 1, 12, 10, 0, 0, 0, time.UTC))

	out, err := RunSlate(context.Background(), SlateOptions{Config: cfg, Stores: stores, Clock: clock})
	require.NoError(t, err)

	require.NotNil(t, out.Loaded)
	assert.Equal(t, 1, out.Loaded.Games)
	assert.Equal(t, 1, out.Result.Games, "undated games belong to today's slate")
	assert.Equal(t, 2, out.Result.Resolved)
	assert.Len(t, out.Result.Projections, 2)
	assert.Len(t, out.Files, 2)
}

func TestRunSlate_Backtest(t *testing.T) {
	cfg := testConfig(t, config.ModeBacktest, true)
	cfg.SlateDate = "2018-01-12"
	stores := openMemory(t)

	out, err := RunSlate(context.Background(), SlateOptions{Config: cfg, Stores: stores})
	require.NoError(t, err)

	res := out.Result
	assert.Equal(t, orchestrator.ModeBacktest, res.Mode)
	require.Len(t, res.Projections, 2)
	require.NotNil(t, res.Evaluation)
	assert.Equal(t, 2, res.Evaluation.Count)
	assert.Greater(t, res.Evaluation.MAE, 0.0)

	for _, p := range res.Projections {
		require.NotNil(t, p.Features.DaysRest)
		assert.Equal(t, 1, *p.Features.DaysRest, "rest is measured from the slate date")
	}
}

func TestRunSlate_NoGamesWritesNoReport(t *testing.T) {
	cfg := testConfig(t, config.ModeBacktest, true)
	cfg.SlateDate = "2018-01-11"
	stores := openMemory(t)

	out, err := RunSlate(context.Background(), SlateOptions{Config: cfg, Stores: stores})
	require.NoError(t, err)
	assert.Equal(t, 0, out.Result.Games)
	assert.Empty(t, out.Result.Projections)
	assert.Empty(t, out.Files)
}

func TestRunSlate_InvalidSlateDate(t *testing.T) {
	cfg := testConfig(t, config.ModeBacktest, true)
	cfg.SlateDate = "12/01/2018"

	_, err := RunSlate(context.Background(), SlateOptions{Config: cfg, Stores: openMemory(t)})
	assert.Error(t, err)
}

func TestRunRange(t *testing.T) {
	cfg := testConfig(t, config.ModeBacktest, true)
	cfg.OutputDir = ""
	stores := openMemory(t)

	out, err := RunRange(context.Background(), SlateOptions{Config: cfg, Stores: stores},
		slateDay.AddDate(0, 0, -1), slateDay.AddDate(0, 0, 1))
	require.NoError(t, err)

	assert.Equal(t, 1, out.Empty)
	require.Len(t, out.Slates, 2)
	assert.True(t, out.Slates[0].SlateDate.Equal(slateDay))

	perSlate := 0
	for _, s := range out.Slates {
		perSlate += s.Result.Evaluation.Count
	}
	assert.Equal(t, perSlate, out.Evaluation.Count)
	assert.Equal(t, 4, out.Evaluation.Count)

	runs := map[string]bool{}
	for _, s := range out.Slates {
		runs[s.Result.RunID] = true
	}
	assert.Len(t, runs, 2)
}

func TestRunRange_Reversed(t *testing.T) {
	cfg := testConfig(t, config.ModeBacktest, true)
	_, err := RunRange(context.Background(), SlateOptions{Config: cfg, Stores: openMemory(t)},
		slateDay, slateDay.AddDate(0, 0, -1))
	assert.Error(t, err)
}

func TestOpenStores(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		s := openMemory(t)
		assert.IsType(t, &memory.GameStore{}, s.Games)
		assert.IsType(t, &memory.ProjectionStore{}, s.Projections)
		assert.Nil(t, s.Cache)
		assert.Len(t, s.Sinks(), 1)
	})

	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "seer.db")
		s, err := OpenStores(ctx, config.StorageConfig{Backend: config.BackendSQLite, SQLitePath: path}, nil, nil)
		require.NoError(t, err)
		defer s.Close()

		assert.FileExists(t, path)
		games, err := s.Games.GetByDate(ctx, slateDay)
		require.NoError(t, err)
		assert.Empty(t, games)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := OpenStores(ctx, config.StorageConfig{Backend: "mongo"}, nil, nil)
		assert.Error(t, err)
	})
}
