package model

import "time"

// Review is a single merchant review observed on an app's listing page.
// Reviews accumulate in an append-only historical log; the log is never
// mutated in place.
type Review struct {
	// AppName links the review to an App by name.
	AppName string `json:"app_name"`

	// AppURL is the listing page the review was collected from.
	AppURL string `json:"app_url"`

	// ReviewDate is the date the review was posted. Source rows whose date
	// cannot be parsed are discarded at ingest; they cannot participate in
	// window aggregation.
	ReviewDate time.Time `json:"review_date"`

	// StarRating is the reviewer's rating, 0-5.
	StarRating float64 `json:"star_rating"`

	// OverallScore is the app's aggregate score as shown on the listing
	// page when the review was collected. Nil when the score could not be
	// extracted; it is never back-filled from another review of the same
	// app within the same run.
	OverallScore *float64 `json:"overall_score,omitempty"`

	// Content is the review body text.
	Content string `json:"content,omitempty"`

	// CollectedAt is when the review was scraped.
	CollectedAt time.Time `json:"collected_at"`
}

// Dated reports whether the review carries a usable review date.
func (r Review) Dated() bool {
	return !r.ReviewDate.IsZero()
}
