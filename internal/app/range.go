package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"nba-seer/internal/backtest"
	"nba-seer/internal/logging"
	"nba-seer/internal/orchestrator"
	"nba-seer/internal/storage"
)

// RangeOutput summarizes a backtest over consecutive slates.
type RangeOutput struct {
	Slates []*SlateOutput // dates with at least one game
	Empty  int            // dates without games
	// Evaluation pools every slate's rows.
	Evaluation *backtest.Evaluation
}

// RunRange backtests every date in [from, to]. Inputs are loaded once; each
// date's rest days are measured from the date itself.
func RunRange(ctx context.Context, opts SlateOptions, from, to time.Time) (*RangeOutput, error) {
	opts = opts.withDefaults()
	from, to = dateOnly(from), dateOnly(to)
	if to.Before(from) {
		return nil, errors.New("range end is before its start")
	}

	if _, err := LoadInputs(ctx, opts); err != nil {
		return nil, err
	}

	log := logging.Component(opts.Logger, "app")
	out := &RangeOutput{}
	var evals []*backtest.Evaluation
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		slate, err := projectSlate(ctx, opts, d, orchestrator.ModeBacktest, nil)
		if err != nil {
			return nil, fmt.Errorf("slate %s: %w", d.Format(storage.DateLayout), err)
		}
		if slate.Result.Games == 0 {
			out.Empty++
			continue
		}
		out.Slates = append(out.Slates, slate)
		evals = append(evals, slate.Result.Evaluation)
	}
	out.Evaluation = backtest.Merge(evals...)

	log.WithFields(logrus.Fields{
		"from":      from.Format(storage.DateLayout),
		"to":        to.Format(storage.DateLayout),
		"slates":    len(out.Slates),
		"empty":     out.Empty,
		"evaluated": out.Evaluation.Count,
		"mae":       out.Evaluation.MAE,
	}).Info("range backtest finished")

	return out, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
