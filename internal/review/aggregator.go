package review

import (
	"sort"
	"time"

	"github.com/erik-esparza/rival-review/internal/model"
)

// Aggregate buckets the review log into a trailing window of lookbackDays
// days and returns one row per app present in the log.
//
// The window anchors at the maximum review date observed in the log, not
// wall-clock time, so the computation is reproducible from a fixed log. A
// review dated d is inside the window when d >= anchor - (lookbackDays-1)
// days.
//
// Undated reviews never participate. A log that is empty or holds no dated
// reviews yields no rows at all; callers must not treat that as zero-review
// apps, because "no data" forbids alerting while a computed zero does not.
//
// Rows are ordered by window count descending, name ascending.
func Aggregate(log []model.Review, lookbackDays int) []model.ReviewWindowRow {
	anchor, ok := anchorDate(log)
	if !ok {
		return nil
	}
	windowStart := anchor.AddDate(0, 0, -(lookbackDays - 1))

	type bucket struct {
		count   int
		sum     float64
		overall *float64
	}
	buckets := make(map[string]*bucket)

	for _, r := range log {
		if !r.Dated() {
			continue
		}
		b := buckets[r.AppName]
		if b == nil {
			b = &bucket{}
			buckets[r.AppName] = b
		}
		// Overall score: first review in log order that carries one.
		if b.overall == nil && r.OverallScore != nil {
			score := *r.OverallScore
			b.overall = &score
		}
		if r.ReviewDate.Before(windowStart) {
			continue
		}
		b.count++
		b.sum += r.StarRating
	}

	rows := make([]model.ReviewWindowRow, 0, len(buckets))
	for name, b := range buckets {
		row := model.ReviewWindowRow{
			AppName:      name,
			WindowCount:  b.count,
			OverallScore: b.overall,
		}
		if b.count > 0 {
			mean := b.sum / float64(b.count)
			row.WindowMeanRating = &mean
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].WindowCount != rows[j].WindowCount {
			return rows[i].WindowCount > rows[j].WindowCount
		}
		return rows[i].AppName < rows[j].AppName
	})
	return rows
}

// anchorDate returns the latest review date in the log, or false when the
// log holds no dated reviews.
func anchorDate(log []model.Review) (time.Time, bool) {
	var anchor time.Time
	found := false
	for _, r := range log {
		if !r.Dated() {
			continue
		}
		if !found || r.ReviewDate.After(anchor) {
			anchor = r.ReviewDate
			found = true
		}
	}
	return anchor, found
}
