package domain

import "time"

// Supported trailing window sizes, in games.
const (
	Window5  = 5
	Window10 = 10
	Window20 = 20
)

// Windows lists the trailing window sizes in output order.
var Windows = []int{Window20, Window10, Window5}

// DerivedFeatureSet holds the features derived for one PlayerQueryRow.
// NULL (nil) means the feature is undefined for lack of qualifying history.
type DerivedFeatureSet struct {
	GameDensity5 *int // 5_g_d: days spanned by the last 5 played games
	DaysRest     *int // d_rest: days since the last played game, as of today

	MA20 *float64 // mean per-36 composite score, last 20 games
	MA10 *float64
	MA5  *float64

	MIN20 *float64 // mean minutes, last 20 games
	MIN10 *float64
	MIN5  *float64

	MINCOV20 *float64 // coefficient of variation of minutes
	MINCOV10 *float64
	MINCOV5  *float64

	SCOCOV20 *float64 // coefficient of variation of per-36 composite score
	SCOCOV10 *float64
	SCOCOV5  *float64

	HomeAffinity *float64 // home mean / recent mean
	AwayAffinity *float64 // away mean / recent mean

	ExpectedScore         *float64 // EXP_SCO
	ExpectedScoreLocation *float64 // EXP_SCO_L
}

// WindowFeatures is the per-window slice of a DerivedFeatureSet.
type WindowFeatures struct {
	MeanScore   *float64 // MA_n
	MeanMinutes *float64 // MIN_n
	MinutesCOV  *float64 // MIN_COV_n
	ScoreCOV    *float64 // SCO_COV_n
}

// Window returns the features for window size n. ok is false for unsupported sizes.
func (f *DerivedFeatureSet) Window(n int) (WindowFeatures, bool) {
	switch n {
	case Window20:
		return WindowFeatures{f.MA20, f.MIN20, f.MINCOV20, f.SCOCOV20}, true
	case Window10:
		return WindowFeatures{f.MA10, f.MIN10, f.MINCOV10, f.SCOCOV10}, true
	case Window5:
		return WindowFeatures{f.MA5, f.MIN5, f.MINCOV5, f.SCOCOV5}, true
	}
	return WindowFeatures{}, false
}

// SetWindow stores the features for window size n. Unsupported sizes are ignored.
func (f *DerivedFeatureSet) SetWindow(n int, w WindowFeatures) {
	switch n {
	case Window20:
		f.MA20, f.MIN20, f.MINCOV20, f.SCOCOV20 = w.MeanScore, w.MeanMinutes, w.MinutesCOV, w.ScoreCOV
	case Window10:
		f.MA10, f.MIN10, f.MINCOV10, f.SCOCOV10 = w.MeanScore, w.MeanMinutes, w.MinutesCOV, w.ScoreCOV
	case Window5:
		f.MA5, f.MIN5, f.MINCOV5, f.SCOCOV5 = w.MeanScore, w.MeanMinutes, w.MinutesCOV, w.ScoreCOV
	}
}

// PlayerProjection is one row of the output table: a query row with its features.
// Corresponds to the player_projections table in ClickHouse.
type PlayerProjection struct {
	RunID     string    // batch identifier (uuid)
	SlateDate time.Time // date the slate was projected for
	Row       PlayerQueryRow
	Features  DerivedFeatureSet
}

// Key returns the (PersonID, GameID) key of the projection.
func (p *PlayerProjection) Key() RowKey {
	return p.Row.Key()
}
