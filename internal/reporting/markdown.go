package reporting

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"nba-seer/internal/domain"
)

// RenderMarkdown renders the slate report as Markdown string.
func RenderMarkdown(r *SlateReport, topN int) string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# Slate %s\n\n", r.SlateDate.Format("2006-01-02")))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Run: `%s` | Mode: %s\n\n", r.RunID, r.Mode))

	// Run Summary
	sb.WriteString("## Run Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Games | %d |\n", r.Games))
	sb.WriteString(fmt.Sprintf("| Rows Resolved | %d |\n", r.Resolved))
	sb.WriteString(fmt.Sprintf("| Projections | %d |\n", len(r.Projections)))
	sb.WriteString(fmt.Sprintf("| Dropped (SCO_COV_20 <= 0) | %d |\n", r.Dropped))
	sb.WriteString(fmt.Sprintf("| Row Errors | %d |\n", r.RowErrors))
	sb.WriteString("\n")

	// Top Projections
	sb.WriteString("## Top Projections\n\n")
	top := topProjections(r.Projections, topN)
	if len(top) > 0 {
		sb.WriteString("| # | Player | Team | Loc | Game | MA_20 | MIN_20 | EXP_SCO | EXP_SCO_L |\n")
		sb.WriteString("|---|--------|------|-----|------|-------|--------|---------|-----------|\n")
		for i, p := range top {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s | %s | %s | %s | %s |\n",
				i+1, playerLabel(p.Row), teamLabel(p.Row), p.Row.Location, p.Row.GameID,
				cell(p.Features.MA20, 2), cell(p.Features.MIN20, 2),
				cell(p.Features.ExpectedScore, 2), cell(p.Features.ExpectedScoreLocation, 2)))
		}
	} else {
		sb.WriteString("No projections available.\n")
	}
	sb.WriteString("\n")

	// Backtest Accuracy
	if ev := r.Evaluation; ev != nil {
		sb.WriteString("## Backtest Accuracy\n\n")
		if ev.Count > 0 {
			sb.WriteString("| Metric | Value |\n")
			sb.WriteString("|--------|-------|\n")
			sb.WriteString(fmt.Sprintf("| Evaluated | %d |\n", ev.Count))
			sb.WriteString(fmt.Sprintf("| Skipped | %d |\n", ev.Skipped))
			sb.WriteString(fmt.Sprintf("| MAE | %.4f |\n", ev.MAE))
			sb.WriteString(fmt.Sprintf("| RMSE | %.4f |\n", ev.RMSE))
			sb.WriteString(fmt.Sprintf("| Bias | %.4f |\n", ev.Bias))
			sb.WriteString(fmt.Sprintf("| Median Abs Error | %.4f |\n", ev.MedianAbs))
			sb.WriteString(fmt.Sprintf("| P90 Abs Error | %.4f |\n", ev.P90Abs))
		} else {
			sb.WriteString("No projection could be matched to a played game.\n")
		}
		sb.WriteString("\n")
	}

	// Errors
	if len(r.Errors) > 0 {
		sb.WriteString("## Errors\n\n")
		for _, err := range r.Errors {
			sb.WriteString(fmt.Sprintf("- %s\n", err))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// topProjections orders by EXP_SCO_L descending; rows without it go last.
func topProjections(projections []*domain.PlayerProjection, n int) []*domain.PlayerProjection {
	sorted := make([]*domain.PlayerProjection, 0, len(projections))
	for _, p := range projections {
		if p.Features.ExpectedScoreLocation != nil {
			sorted = append(sorted, p)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := *sorted[i].Features.ExpectedScoreLocation, *sorted[j].Features.ExpectedScoreLocation
		if a != b {
			return a > b
		}
		return sorted[i].Row.PersonID < sorted[j].Row.PersonID
	})
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func playerLabel(row domain.PlayerQueryRow) string {
	if row.DisplayFirstLast != "" {
		return row.DisplayFirstLast
	}
	return fmt.Sprintf("%d", row.PersonID)
}

func teamLabel(row domain.PlayerQueryRow) string {
	if row.TeamAbbreviation != "" {
		return row.TeamAbbreviation
	}
	return fmt.Sprintf("%d", row.TeamID)
}

func cell(v *float64, places int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.*f", places, *v)
}
