package model

// AlertKind identifies the type of trend signal an Alert carries.
type AlertKind string

// Alert kinds emitted by the trend classifier. The rules are independent:
// one app may receive several kinds in a single run.
const (
	// AlertNewEntity fires when an app appears that was absent from the
	// previous snapshot.
	AlertNewEntity AlertKind = "new_entity"

	// AlertRankJump fires when a previously known app improves its rank by
	// more than the configured threshold.
	AlertRankJump AlertKind = "rank_jump"

	// AlertRankDrop fires when a previously known app loses rank by more
	// than the configured threshold.
	AlertRankDrop AlertKind = "rank_drop"

	// AlertTopNEntrant fires when an app enters the tracked leaderboard.
	AlertTopNEntrant AlertKind = "top_n_entrant"

	// AlertTopNEvictee fires when an app leaves the tracked leaderboard.
	AlertTopNEvictee AlertKind = "top_n_evictee"

	// AlertExplosiveReviewGrowth fires when an app's review count within
	// the lookback window exceeds the configured threshold.
	AlertExplosiveReviewGrowth AlertKind = "explosive_review_growth"

	// AlertRatingDrop fires when an app's recent mean rating falls below
	// its overall score by more than the configured threshold.
	AlertRatingDrop AlertKind = "rating_drop"
)

// Alert is a typed trend signal produced by the classifier. Alerts are
// ephemeral: they are recomputed on every run and never merged with alerts
// from prior runs. Only the fields relevant to the Kind are populated.
type Alert struct {
	// Kind is the alert type.
	Kind AlertKind `json:"kind"`

	// AppName is the subject app.
	AppName string `json:"app_name"`

	// OldRank and NewRank are populated for rank_jump, rank_drop,
	// top_n_entrant, and top_n_evictee alerts.
	OldRank int `json:"old_rank,omitempty"`
	NewRank int `json:"new_rank,omitempty"`

	// Delta is the rank change (old minus new, positive = improved) for
	// rank_jump and rank_drop alerts.
	Delta int `json:"delta,omitempty"`

	// ReviewCount and WindowDays are populated for explosive_review_growth.
	ReviewCount int `json:"review_count,omitempty"`
	WindowDays  int `json:"window_days,omitempty"`

	// RatingDropMagnitude is the positive difference between the overall
	// score and the recent mean rating for rating_drop alerts.
	RatingDropMagnitude float64 `json:"rating_drop_magnitude,omitempty"`
}
