package ingestion

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"nba-seer/internal/domain"
)

// Errors returned by the CSV readers. Both reject the whole file.
var (
	ErrMissingColumn = errors.New("missing column")
	ErrInvalidValue  = errors.New("invalid value")
)

// Game table columns.
const (
	ColGameID        = "GAME_ID"
	ColHomeTeamID    = "HOME_TEAM_ID"
	ColVisitorTeamID = "VISITOR_TEAM_ID"
	ColGameDate      = "GAME_DATE_EST"
)

// Directory table columns.
const (
	ColPersonID         = "PERSON_ID"
	ColTeamID           = "TEAM_ID"
	ColDisplayFirstLast = "DISPLAY_FIRST_LAST"
	ColTeamAbbreviation = "TEAM_ABBREVIATION"
)

// Game log columns.
const (
	ColPlayerID       = "PLAYER_ID"
	ColGameIDSortable = "GAME_ID_O"
	ColLocation       = "LOCATION"
	ColAgainstTeamID  = "AGAINST_TEAM_ID"
	ColMinutes        = "MINS"
	ColPoints         = "PTS"
	ColAssists        = "AST"
	ColOffRebounds    = "OREB"
	ColDefRebounds    = "DREB"
	ColSteals         = "STL"
	ColBlocks         = "BLK"
	ColTurnovers      = "TO"
	ColFGM            = "FGM"
	ColFGA            = "FGA"
	ColFG3M           = "FG3M"
)

var (
	gameColumns      = []string{ColGameID, ColHomeTeamID, ColVisitorTeamID}
	directoryColumns = []string{ColPersonID, ColTeamID, ColDisplayFirstLast, ColTeamAbbreviation}
	gameLogColumns   = []string{
		ColPlayerID, ColTeamID, ColGameID, ColGameIDSortable, ColLocation, ColGameDate,
		ColMinutes, ColPoints, ColAssists, ColOffRebounds, ColDefRebounds,
		ColSteals, ColBlocks, ColTurnovers, ColFGM, ColFGA, ColFG3M,
	}
)

// table is a CSV file with a validated header.
type table struct {
	r    *csv.Reader
	cols map[string]int
	line int
}

func openTable(r io.Reader, required []string) (*table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	head, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file, want %s", ErrMissingColumn, strings.Join(required, ","))
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(head))
	for i, name := range head {
		// Excel exports prefix the first header with a byte order mark
		name = strings.TrimPrefix(strings.TrimSpace(name), "\ufeff")
		cols[strings.ToUpper(name)] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}
	return &table{r: cr, cols: cols, line: 1}, nil
}

// next reads the next record. It returns io.EOF at the end.
func (t *table) next() ([]string, error) {
	rec, err := t.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("line %d: %w", t.line+1, err)
	}
	t.line++
	return rec, nil
}

func (t *table) has(col string) bool {
	_, ok := t.cols[col]
	return ok
}

func (t *table) str(rec []string, col string) string {
	i, ok := t.cols[col]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func (t *table) invalid(col, value string, cause error) error {
	if cause != nil {
		return fmt.Errorf("%w: line %d column %s %q: %w", ErrInvalidValue, t.line, col, value, cause)
	}
	return fmt.Errorf("%w: line %d column %s %q", ErrInvalidValue, t.line, col, value)
}

func (t *table) parseInt(rec []string, col string) (int64, error) {
	s := t.str(rec, col)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// some exports write integer ids as floats
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int64(f)) {
			return 0, t.invalid(col, s, err)
		}
		v = int64(f)
	}
	return v, nil
}

// parseFloat parses a counting stat. Empty cells are zero.
func (t *table) parseFloat(rec []string, col string) (float64, error) {
	s := t.str(rec, col)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, t.invalid(col, s, err)
	}
	return v, nil
}

// parseMinutes parses decimal minutes or MM:SS. Empty means the player did not play.
func (t *table) parseMinutes(rec []string, col string) (*float64, error) {
	s := t.str(rec, col)
	if s == "" {
		return nil, nil
	}
	if mm, ss, ok := strings.Cut(s, ":"); ok {
		m, err1 := strconv.Atoi(mm)
		sec, err2 := strconv.Atoi(ss)
		if err1 != nil || err2 != nil || sec < 0 || sec >= 60 {
			return nil, t.invalid(col, s, nil)
		}
		v := float64(m) + float64(sec)/60
		return &v, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, t.invalid(col, s, err)
	}
	return &v, nil
}

// parseDate parses the first 10 characters as YYYY-MM-DD. Empty is the zero time.
func (t *table) parseDate(rec []string, col string) (time.Time, error) {
	s := t.str(rec, col)
	if s == "" {
		return time.Time{}, nil
	}
	if len(s) < 10 {
		return time.Time{}, t.invalid(col, s, nil)
	}
	d, err := time.Parse("2006-01-02", s[:10])
	if err != nil {
		return time.Time{}, t.invalid(col, s, err)
	}
	return d, nil
}

// ReadGames parses the game table.
func ReadGames(r io.Reader) ([]*domain.Game, error) {
	t, err := openTable(r, gameColumns)
	if err != nil {
		return nil, err
	}

	var games []*domain.Game
	for {
		rec, err := t.next()
		if errors.Is(err, io.EOF) {
			return games, nil
		}
		if err != nil {
			return nil, err
		}

		g := &domain.Game{GameID: t.str(rec, ColGameID)}
		if g.GameID == "" {
			return nil, t.invalid(ColGameID, "", nil)
		}
		if g.HomeTeamID, err = t.parseInt(rec, ColHomeTeamID); err != nil {
			return nil, err
		}
		if g.VisitorTeamID, err = t.parseInt(rec, ColVisitorTeamID); err != nil {
			return nil, err
		}
		if g.GameDate, err = t.parseDate(rec, ColGameDate); err != nil {
			return nil, err
		}
		games = append(games, g)
	}
}

// ReadDirectory parses the player directory table.
func ReadDirectory(r io.Reader) ([]*domain.PlayerDirectoryEntry, error) {
	t, err := openTable(r, directoryColumns)
	if err != nil {
		return nil, err
	}

	var entries []*domain.PlayerDirectoryEntry
	for {
		rec, err := t.next()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return nil, err
		}

		e := &domain.PlayerDirectoryEntry{
			DisplayFirstLast: t.str(rec, ColDisplayFirstLast),
			TeamAbbreviation: t.str(rec, ColTeamAbbreviation),
		}
		if e.PersonID, err = t.parseInt(rec, ColPersonID); err != nil {
			return nil, err
		}
		// players without a team have TEAM_ID 0 in the directory
		if t.str(rec, ColTeamID) != "" {
			if e.TeamID, err = t.parseInt(rec, ColTeamID); err != nil {
				return nil, err
			}
		}
		entries = append(entries, e)
	}
}

// ReadGameLogs parses the historical game log table.
// A missing GAME_ID_O is computed; one that disagrees with GAME_ID is rejected.
func ReadGameLogs(r io.Reader) ([]*domain.PlayerGameRecord, error) {
	t, err := openTable(r, gameLogColumns)
	if err != nil {
		return nil, err
	}
	hasAgainst := t.has(ColAgainstTeamID)

	var records []*domain.PlayerGameRecord
	for {
		rec, err := t.next()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		record, err := t.gameLogRecord(rec, hasAgainst)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
}

func (t *table) gameLogRecord(rec []string, hasAgainst bool) (*domain.PlayerGameRecord, error) {
	var err error
	r := &domain.PlayerGameRecord{
		GameID:   t.str(rec, ColGameID),
		Location: domain.Location(strings.ToUpper(t.str(rec, ColLocation))),
	}

	sortable, perr := domain.SortableKey(r.GameID)
	if perr != nil {
		return nil, t.invalid(ColGameID, r.GameID, perr)
	}
	given := t.str(rec, ColGameIDSortable)
	if given != "" && given != sortable {
		return nil, t.invalid(ColGameIDSortable, given, fmt.Errorf("want %s", sortable))
	}
	r.GameIDSortable = sortable

	if !r.Location.IsValid() {
		return nil, t.invalid(ColLocation, string(r.Location), nil)
	}
	if r.PlayerID, err = t.parseInt(rec, ColPlayerID); err != nil {
		return nil, err
	}
	if r.TeamID, err = t.parseInt(rec, ColTeamID); err != nil {
		return nil, err
	}
	if hasAgainst && t.str(rec, ColAgainstTeamID) != "" {
		if r.OpposingTeamID, err = t.parseInt(rec, ColAgainstTeamID); err != nil {
			return nil, err
		}
	}
	if r.GameDate, err = t.parseDate(rec, ColGameDate); err != nil {
		return nil, err
	}
	if r.Minutes, err = t.parseMinutes(rec, ColMinutes); err != nil {
		return nil, err
	}

	stats := []struct {
		col string
		dst *float64
	}{
		{ColPoints, &r.Points},
		{ColAssists, &r.Assists},
		{ColOffRebounds, &r.OffRebounds},
		{ColDefRebounds, &r.DefRebounds},
		{ColSteals, &r.Steals},
		{ColBlocks, &r.Blocks},
		{ColTurnovers, &r.Turnovers},
		{ColFGM, &r.FieldGoalsMade},
		{ColFGA, &r.FieldGoalsAttempted},
		{ColFG3M, &r.ThreesMade},
	}
	for _, s := range stats {
		if *s.dst, err = t.parseFloat(rec, s.col); err != nil {
			return nil, err
		}
	}
	return r, nil
}
