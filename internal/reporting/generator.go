package reporting

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"nba-seer/internal/domain"
	"nba-seer/internal/storage"
)

// Generator writes slate reports to an output directory.
type Generator struct {
	outputDir string
	topN      int
	now       func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(outputDir string) *Generator {
	return &Generator{
		outputDir: outputDir,
		topN:      DefaultTopN,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// WithTopN sets how many projections the Markdown summary lists.
func (g *Generator) WithTopN(n int) *Generator {
	g.topN = n
	return g
}

// FromStore builds a report from the projections stored for a slate date.
func (g *Generator) FromStore(ctx context.Context, store storage.ProjectionStore, date time.Time) (*SlateReport, error) {
	projections, err := store.GetBySlateDate(ctx, date)
	if err != nil {
		return nil, err
	}
	r := &SlateReport{SlateDate: date, Projections: projections, Resolved: len(projections)}
	if len(projections) > 0 {
		r.RunID = projections[0].RunID
	}
	games := make(map[string]struct{})
	for _, p := range projections {
		games[p.Row.GameID] = struct{}{}
	}
	r.Games = len(games)
	return r, nil
}

// Write renders the report and writes projections_<date>.csv and SLATE_<date>.md.
// Returns the written paths.
func (g *Generator) Write(r *SlateReport) ([]string, error) {
	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	rep := *r
	if rep.GeneratedAt.IsZero() {
		rep.GeneratedAt = g.now()
	}
	rep.Projections = append([]*domain.PlayerProjection(nil), r.Projections...)
	storage.SortProjections(rep.Projections)

	date := rep.SlateDate.Format(storage.DateLayout)
	files := []struct {
		name    string
		content string
	}{
		{fmt.Sprintf("projections_%s.csv", date), RenderCSV(rep.Projections)},
		{fmt.Sprintf("SLATE_%s.md", date), RenderMarkdown(&rep, g.topN)},
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(g.outputDir, f.name)
		if err := os.WriteFile(path, []byte(f.content), 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", f.name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
