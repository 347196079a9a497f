package ingestion

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nba-seer/internal/domain"
)

const gameLogHeader = "PLAYER_ID,TEAM_ID,GAME_ID,GAME_ID_O,LOCATION,GAME_DATE_EST,MINS,PTS,AST,OREB,DREB,STL,BLK,TO,FGM,FGA,FG3M\n"

func TestReadGames(t *testing.T) {
	in := "GAME_DATE_EST,GAME_ID,HOME_TEAM_ID,VISITOR_TEAM_ID\n" +
		"2018-01-12T00:00:00,0021700620,1610612737,1610612738\n" +
		"2018-01-12T00:00:00,0021700621,1610612751,1610612752.0\n"

	games, err := ReadGames(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, games, 2)

	assert.Equal(t, "0021700620", games[0].GameID)
	assert.Equal(t, int64(1610612737), games[0].HomeTeamID)
	assert.Equal(t, int64(1610612752), games[1].VisitorTeamID)
	assert.Equal(t, time.Date(2018, 1, 12, 0, 0, 0, 0, time.UTC), games[0].GameDate)
}

func TestReadGames_DateOptional(t *testing.T) {
	games, err := ReadGames(strings.NewReader("GAME_ID,HOME_TEAM_ID,VISITOR_TEAM_ID\n0021700620,1,2\n"))
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.True(t, games[0].GameDate.IsZero())
}

func TestReadGames_MissingColumn(t *testing.T) {
	_, err := ReadGames(strings.NewReader("GAME_ID,HOME_TEAM_ID\n0021700620,1\n"))
	assert.True(t, errors.Is(err, ErrMissingColumn), "got %v", err)
	assert.Contains(t, err.Error(), "VISITOR_TEAM_ID")

	_, err = ReadGames(strings.NewReader(""))
	assert.True(t, errors.Is(err, ErrMissingColumn), "got %v", err)
}

func TestReadDirectory(t *testing.T) {
	in := "\ufeffPERSON_ID,DISPLAY_FIRST_LAST,TEAM_ID,TEAM_ABBREVIATION\n" +
		"2544,LeBron James,1610612739,CLE\n" +
		"1627759,\"Brown, Jaylen\",1610612738,BOS\n" +
		"203999,Free Agent,,\n"

	entries, err := ReadDirectory(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, domain.PlayerDirectoryEntry{
		PersonID: 2544, TeamID: 1610612739, DisplayFirstLast: "LeBron James", TeamAbbreviation: "CLE",
	}, *entries[0])
	assert.Equal(t, "Brown, Jaylen", entries[1].DisplayFirstLast)
	assert.Zero(t, entries[2].TeamID)
}

func TestReadDirectory_InvalidValue(t *testing.T) {
	_, err := ReadDirectory(strings.NewReader("PERSON_ID,TEAM_ID,DISPLAY_FIRST_LAST,TEAM_ABBREVIATION\nabc,1,X,Y\n"))
	assert.True(t, errors.Is(err, ErrInvalidValue), "got %v", err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestReadGameLogs(t *testing.T) {
	in := gameLogHeader +
		"2544,1610612739,0021700620,1700200620,HOME,2018-01-12T00:00:00,36.5,30,8,1,7,2,1,4,11,20,3\n" +
		"2544,1610612739,0021700610,,away,2018-01-10T00:00:00,,,,,,,,,,,\n" +
		"2544,1610612739,0041600101,,HOME,2017-04-15T00:00:00,41:30,25,5,0,6,1,0,2,9,19,2\n"

	records, err := ReadGameLogs(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, records, 3)

	r := records[0]
	assert.Equal(t, int64(2544), r.PlayerID)
	assert.Equal(t, "1700200620", r.GameIDSortable)
	assert.Equal(t, domain.LocationHome, r.Location)
	require.NotNil(t, r.Minutes)
	assert.Equal(t, 36.5, *r.Minutes)
	assert.Equal(t, 30.0, r.Points)
	assert.Equal(t, 7.0, r.DefRebounds)
	assert.Equal(t, 4.0, r.Turnovers)
	assert.Equal(t, 3.0, r.ThreesMade)
	assert.Equal(t, time.Date(2018, 1, 12, 0, 0, 0, 0, time.UTC), r.GameDate)

	dnp := records[1]
	assert.Nil(t, dnp.Minutes)
	assert.False(t, dnp.Played())
	assert.Equal(t, domain.LocationAway, dnp.Location)
	assert.Equal(t, "1700200610", dnp.GameIDSortable)

	require.NotNil(t, records[2].Minutes)
	assert.Equal(t, 41.5, *records[2].Minutes)
	assert.Equal(t, "1600400101", records[2].GameIDSortable)
}

func TestReadGameLogs_AgainstTeam(t *testing.T) {
	in := "PLAYER_ID,TEAM_ID,AGAINST_TEAM_ID,GAME_ID,GAME_ID_O,LOCATION,GAME_DATE_EST,MINS,PTS,AST,OREB,DREB,STL,BLK,TO,FGM,FGA,FG3M\n" +
		"1,10,20,0021700001,,HOME,2017-10-17,30,10,1,1,1,1,1,1,4,9,1\n"
	records, err := ReadGameLogs(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, int64(20), records[0].OpposingTeamID)
}

func TestReadGameLogs_Errors(t *testing.T) {
	tests := []struct {
		name string
		row  string
		want error
	}{
		{"inconsistent sortable id", "1,10,0021700001,0021700001,HOME,2017-10-17,30,1,1,1,1,1,1,1,1,1,1", ErrInvalidValue},
		{"short game id", "1,10,21700001,,HOME,2017-10-17,30,1,1,1,1,1,1,1,1,1,1", domain.ErrInvalidGameID},
		{"bad location", "1,10,0021700001,,NEUTRAL,2017-10-17,30,1,1,1,1,1,1,1,1,1,1", ErrInvalidValue},
		{"bad minutes", "1,10,0021700001,,HOME,2017-10-17,thirty,1,1,1,1,1,1,1,1,1,1", ErrInvalidValue},
		{"bad seconds", "1,10,0021700001,,HOME,2017-10-17,30:75,1,1,1,1,1,1,1,1,1,1", ErrInvalidValue},
		{"bad stat", "1,10,0021700001,,HOME,2017-10-17,30,x,1,1,1,1,1,1,1,1,1", ErrInvalidValue},
		{"bad date", "1,10,0021700001,,HOME,17-10-2017,30,1,1,1,1,1,1,1,1,1,1", ErrInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadGameLogs(strings.NewReader(gameLogHeader + tt.row + "\n"))
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestReadGameLogs_MissingColumn(t *testing.T) {
	header := strings.Replace(gameLogHeader, ",FG3M", "", 1)
	_, err := ReadGameLogs(strings.NewReader(header))
	assert.True(t, errors.Is(err, ErrMissingColumn), "got %v", err)
}
