// Package ingestion loads the external game, directory and game log tables
// from CSV exports into the configured stores.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"nba-seer/internal/domain"
	"nba-seer/internal/logging"
	"nba-seer/internal/observability"
	"nba-seer/internal/storage"
)

// Files lists the CSV exports to load, per table.
type Files struct {
	Games     []string
	Directory []string
	GameLogs  []string

	// GameDate is assigned to game rows without a date, so a games table
	// without GAME_DATE_EST is read as that day's slate. Zero leaves them undated.
	GameDate time.Time
}

// LoadResult counts the rows stored per table.
type LoadResult struct {
	Games            int
	DirectoryEntries int
	GameLogRecords   int
}

// Loader parses CSV files and inserts their rows into stores.
type Loader struct {
	games     storage.GameStore
	directory storage.PlayerDirectoryStore
	logs      storage.GameLogStore
	log       *logrus.Entry
	metrics   *observability.Metrics
}

// LoaderOptions contains configuration for creating a Loader.
// A nil store skips its table.
type LoaderOptions struct {
	GameStore      storage.GameStore
	DirectoryStore storage.PlayerDirectoryStore
	GameLogStore   storage.GameLogStore
	Logger         logrus.FieldLogger
	Metrics        *observability.Metrics
}

// NewLoader creates a new loader.
func NewLoader(opts LoaderOptions) *Loader {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Loader{
		games:     opts.GameStore,
		directory: opts.DirectoryStore,
		logs:      opts.GameLogStore,
		log:       logging.Component(logger, "ingestion"),
		metrics:   opts.Metrics,
	}
}

// LoadFiles loads every file. Each file is inserted as one batch, so a file
// either loads completely or not at all. The first failing file stops the load.
func (l *Loader) LoadFiles(ctx context.Context, files Files) (*LoadResult, error) {
	result := &LoadResult{}

	if len(files.Games) > 0 && l.games == nil {
		return nil, errors.New("games files given without a game store")
	}
	for _, path := range files.Games {
		n, err := loadFile(path, func(r io.Reader) (int, error) {
			games, err := ReadGames(r)
			if err != nil {
				return 0, err
			}
			stampUndated(games, files.GameDate)
			return len(games), l.games.InsertBulk(ctx, games)
		})
		if err != nil {
			return nil, err
		}
		l.stored("games", path, n)
		result.Games += n
	}

	if len(files.Directory) > 0 && l.directory == nil {
		return nil, errors.New("directory files given without a directory store")
	}
	for _, path := range files.Directory {
		n, err := loadFile(path, func(r io.Reader) (int, error) {
			entries, err := ReadDirectory(r)
			if err != nil {
				return 0, err
			}
			return len(entries), l.directory.Upsert(ctx, entries)
		})
		if err != nil {
			return nil, err
		}
		l.stored("player_directory", path, n)
		result.DirectoryEntries += n
	}

	if len(files.GameLogs) > 0 && l.logs == nil {
		return nil, errors.New("game log files given without a game log store")
	}
	for _, path := range files.GameLogs {
		n, err := loadFile(path, func(r io.Reader) (int, error) {
			records, err := ReadGameLogs(r)
			if err != nil {
				return 0, err
			}
			return len(records), l.logs.InsertBulk(ctx, records)
		})
		if err != nil {
			return nil, err
		}
		l.stored("game_log", path, n)
		result.GameLogRecords += n
	}

	return result, nil
}

func stampUndated(games []*domain.Game, date time.Time) {
	if date.IsZero() {
		return
	}
	y, m, d := date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	for _, g := range games {
		if g.GameDate.IsZero() {
			g.GameDate = day
		}
	}
}

func (l *Loader) stored(table, path string, n int) {
	l.metrics.RecordIngested(table, n)
	l.log.WithFields(logrus.Fields{"table": table, "file": path, "rows": n}).Info("file loaded")
}

func loadFile(path string, load func(io.Reader) (int, error)) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	n, err := load(f)
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", path, err)
	}
	return n, nil
}
