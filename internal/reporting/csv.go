package reporting

import (
	"encoding/csv"
	"strconv"
	"strings"

	"nba-seer/internal/domain"
)

// ProjectionColumns is the header of the projection table.
var ProjectionColumns = []string{
	"PERSON_ID", "DISPLAY_FIRST_LAST", "TEAM_ABBREVIATION", "TEAM_ID", "Location", "GAME_ID",
	"Against_Team_ID", "5_g_d", "d_rest",
	"MA_20", "MA_10", "MA_5",
	"MIN_20", "MIN_10", "MIN_5",
	"MIN_COV_20", "MIN_COV_10", "MIN_COV_5",
	"SCO_COV_20", "SCO_COV_10", "SCO_COV_5",
	"home_aff", "away_aff", "EXP_SCO", "EXP_SCO_L",
}

// RenderCSV renders projections as CSV string. Undefined features are empty cells.
func RenderCSV(projections []*domain.PlayerProjection) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	_ = w.Write(ProjectionColumns)
	for _, p := range projections {
		f := &p.Features
		_ = w.Write([]string{
			strconv.FormatInt(p.Row.PersonID, 10),
			p.Row.DisplayFirstLast,
			p.Row.TeamAbbreviation,
			strconv.FormatInt(p.Row.TeamID, 10),
			string(p.Row.Location),
			p.Row.GameID,
			strconv.FormatInt(p.Row.OpposingTeamID, 10),
			formatInt(f.GameDensity5),
			formatInt(f.DaysRest),
			formatFloat(f.MA20), formatFloat(f.MA10), formatFloat(f.MA5),
			formatFloat(f.MIN20), formatFloat(f.MIN10), formatFloat(f.MIN5),
			formatFloat(f.MINCOV20), formatFloat(f.MINCOV10), formatFloat(f.MINCOV5),
			formatFloat(f.SCOCOV20), formatFloat(f.SCOCOV10), formatFloat(f.SCOCOV5),
			formatFloat(f.HomeAffinity),
			formatFloat(f.AwayAffinity),
			formatFloat(f.ExpectedScore),
			formatFloat(f.ExpectedScoreLocation),
		})
	}
	w.Flush()

	return sb.String()
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
