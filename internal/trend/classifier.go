package trend

import (
	"errors"
	"sort"
	"time"

	"github.com/erik-esparza/rival-review/internal/config"
	"github.com/erik-esparza/rival-review/internal/model"
	"github.com/erik-esparza/rival-review/internal/rank"
	"github.com/erik-esparza/rival-review/internal/review"
)

// ErrNoCurrentSnapshot is returned when the current snapshot is literally
// absent. An empty current snapshot is a valid (if dull) input; a nil one
// means the fetch collaborator handed us nothing and the run cannot
// proceed.
var ErrNoCurrentSnapshot = errors.New("current snapshot is missing")

// Analysis is the fully materialized output of one classification run:
// the unified rank table, the review window table, and the typed alerts.
// Report writers and export sinks consume it as-is.
type Analysis struct {
	// Query is the tracked search term.
	Query string `json:"query"`

	// PreviousCapturedAt and CurrentCapturedAt date the two snapshots.
	// PreviousCapturedAt is zero when there was no baseline.
	PreviousCapturedAt time.Time `json:"previous_captured_at"`
	CurrentCapturedAt  time.Time `json:"current_captured_at"`

	// LookbackDays is the review window length the analysis used.
	LookbackDays int `json:"lookback_days"`

	// Ranks is the unified rank-diff table in current page order.
	Ranks []model.RankRow `json:"ranks"`

	// Windows is the review window aggregation table. Empty when the
	// review log held no comparable data.
	Windows []model.ReviewWindowRow `json:"windows"`

	// Alerts is the typed alert list, grouped by kind in a fixed order.
	Alerts []model.Alert `json:"alerts"`
}

// AlertsOf returns the alerts of one kind, preserving order.
func (a *Analysis) AlertsOf(kind model.AlertKind) []model.Alert {
	var out []model.Alert
	for _, al := range a.Alerts {
		if al.Kind == kind {
			out = append(out, al)
		}
	}
	return out
}

// Classify runs the full trend analysis of a snapshot pair and a review log
// against the thresholds in cfg.
//
// A nil previous snapshot is treated as a missing baseline and replaced
// with an empty one: everything current then classifies as new, which is
// the recoverable degraded mode. A nil current snapshot is fatal.
//
// Every rule is evaluated independently, so one app can collect several
// alert kinds in a single run. A rule whose required inputs are absent is
// skipped for that app; absence of data is never coerced into a default
// that could fabricate an alert.
func Classify(previous, current *model.Snapshot, log []model.Review, cfg *config.Config) (*Analysis, error) {
	if current == nil {
		return nil, ErrNoCurrentSnapshot
	}
	if previous == nil {
		previous = model.NewSnapshot(current.Query)
	}

	sentinels := rank.Sentinels{
		UnknownPrevious: cfg.UnknownRankSentinel,
		VanishedCurrent: cfg.MaxRankAnalysis,
	}

	analysis := &Analysis{
		Query:              current.Query,
		PreviousCapturedAt: previous.CapturedAt,
		CurrentCapturedAt:  current.CapturedAt,
		LookbackDays:       cfg.LookbackDays,
		Ranks:              rank.Diff(previous, current, sentinels),
		Windows:            review.Aggregate(log, cfg.LookbackDays),
	}

	analysis.Alerts = append(analysis.Alerts, newEntityAlerts(analysis.Ranks)...)
	analysis.Alerts = append(analysis.Alerts, movementAlerts(analysis.Ranks, cfg, sentinels)...)
	analysis.Alerts = append(analysis.Alerts, leaderboardAlerts(analysis.Ranks, cfg.TopN)...)
	analysis.Alerts = append(analysis.Alerts, reviewAlerts(analysis.Windows, cfg)...)

	return analysis, nil
}

// newEntityAlerts flags every app absent from the previous snapshot,
// ordered by current rank ascending, name ascending.
func newEntityAlerts(rows []model.RankRow) []model.Alert {
	var alerts []model.Alert
	for _, r := range rows { // rows are already in current page order
		if !r.New {
			continue
		}
		alerts = append(alerts, model.Alert{
			Kind:    model.AlertNewEntity,
			AppName: r.AppName,
			NewRank: r.CurrentRank,
		})
	}
	return alerts
}

// movementAlerts converts qualified jumps and drops into alerts.
func movementAlerts(rows []model.RankRow, cfg *config.Config, s rank.Sentinels) []model.Alert {
	var alerts []model.Alert
	for _, r := range rank.Jumps(rows, cfg.RankJumpThreshold, cfg.MaxRankAnalysis, s) {
		alerts = append(alerts, model.Alert{
			Kind:    model.AlertRankJump,
			AppName: r.AppName,
			OldRank: r.PreviousRank,
			NewRank: r.CurrentRank,
			Delta:   r.RankChange,
		})
	}
	for _, r := range rank.Drops(rows, cfg.RankJumpThreshold, cfg.MaxRankAnalysis, s) {
		alerts = append(alerts, model.Alert{
			Kind:    model.AlertRankDrop,
			AppName: r.AppName,
			OldRank: r.PreviousRank,
			NewRank: r.CurrentRank,
			Delta:   r.RankChange,
		})
	}
	return alerts
}

// leaderboardAlerts reports top-N entrants and evictees as two independent
// name-sorted sets.
func leaderboardAlerts(rows []model.RankRow, topN int) []model.Alert {
	ranks := make(map[string]model.RankRow, len(rows))
	for _, r := range rows {
		ranks[r.AppName] = r
	}

	var alerts []model.Alert
	for _, name := range rank.TopNEntrants(rows, topN) {
		alerts = append(alerts, model.Alert{
			Kind:    model.AlertTopNEntrant,
			AppName: name,
			OldRank: ranks[name].PreviousRank,
			NewRank: ranks[name].CurrentRank,
		})
	}
	for _, name := range rank.TopNEvictees(rows, topN) {
		alerts = append(alerts, model.Alert{
			Kind:    model.AlertTopNEvictee,
			AppName: name,
			OldRank: ranks[name].PreviousRank,
			NewRank: ranks[name].CurrentRank,
		})
	}
	return alerts
}

// reviewAlerts evaluates the review-based rules over the window table.
// An empty table means no comparable data, so no review alert can fire.
func reviewAlerts(windows []model.ReviewWindowRow, cfg *config.Config) []model.Alert {
	var growth, drops []model.Alert
	for _, w := range windows {
		if w.WindowCount > cfg.ReviewThreshold {
			growth = append(growth, model.Alert{
				Kind:        model.AlertExplosiveReviewGrowth,
				AppName:     w.AppName,
				ReviewCount: w.WindowCount,
				WindowDays:  cfg.LookbackDays,
			})
		}

		// Rating drop needs both sides of the subtraction; a missing
		// overall score or an empty window mean disqualifies the rule.
		if w.OverallScore == nil || w.WindowMeanRating == nil {
			continue
		}
		if magnitude := *w.OverallScore - *w.WindowMeanRating; magnitude > cfg.RatingDropThreshold {
			drops = append(drops, model.Alert{
				Kind:                model.AlertRatingDrop,
				AppName:             w.AppName,
				RatingDropMagnitude: magnitude,
			})
		}
	}

	// Growth inherits the window table's count-descending order; rating
	// drops are re-sorted by magnitude, worst first.
	sort.Slice(drops, func(i, j int) bool {
		if drops[i].RatingDropMagnitude != drops[j].RatingDropMagnitude {
			return drops[i].RatingDropMagnitude > drops[j].RatingDropMagnitude
		}
		return drops[i].AppName < drops[j].AppName
	})
	return append(growth, drops...)
}
