package model

// RankRow is one row of the unified rank-diff table: the outer join of the
// previous and current snapshots keyed by app name, with missing ranks
// already filled with the configured sentinels.
type RankRow struct {
	// AppName identifies the app.
	AppName string `json:"app_name"`

	// CurrentRank is the rank in the current snapshot, or the vanished-rank
	// ceiling when the app is no longer listed.
	CurrentRank int `json:"current_rank"`

	// PreviousRank is the rank in the previous snapshot, or the
	// unknown-rank sentinel when the app was not listed before.
	PreviousRank int `json:"previous_rank"`

	// RankChange is PreviousRank - CurrentRank. Positive means the app
	// moved up the listing.
	RankChange int `json:"rank_change"`

	// New reports whether the app was absent from the previous snapshot.
	// New apps never produce jump or drop alerts: their sentinel previous
	// rank would fabricate a huge movement.
	New bool `json:"new"`
}

// ReviewWindowRow is one row of the window aggregation table: per-app review
// activity over the trailing lookback window. A row exists for every app
// present in the review log with at least one dated review; an empty log
// produces no rows at all, which callers must not confuse with zero counts.
type ReviewWindowRow struct {
	// AppName identifies the app.
	AppName string `json:"app_name"`

	// WindowCount is the number of reviews dated within the window.
	// Zero is a valid computed value for an app whose reviews all fall
	// outside the window.
	WindowCount int `json:"window_count"`

	// WindowMeanRating is the arithmetic mean star rating over the
	// reviews within the window. Nil when WindowCount is zero: the mean
	// of an empty set is absent, not zero.
	WindowMeanRating *float64 `json:"window_mean_rating,omitempty"`

	// OverallScore is the app's aggregate score snapshotted at scrape
	// time, taken from the first review in the log that carries one.
	// Nil when no review recorded a score.
	OverallScore *float64 `json:"overall_score,omitempty"`
}
