package trend

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/erik-esparza/rival-review/internal/config"
	"github.com/erik-esparza/rival-review/internal/model"
)

// testConfig returns a valid analysis configuration with the stock
// thresholds.
func testConfig() *config.Config {
	cfg := config.NewConfig()
	cfg.Query = "quiz"
	return cfg
}

// snapshot builds a snapshot from ranked app names in page order.
func snapshot(names ...string) *model.Snapshot {
	s := model.NewSnapshot("quiz")
	for i, name := range names {
		s.Apps = append(s.Apps, model.App{Name: name, Rank: i + 1})
	}
	return s
}

// reviewOn builds a dated review.
func reviewOn(app string, d int, rating float64, overall *float64) model.Review {
	return model.Review{
		AppName:      app,
		ReviewDate:   time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC),
		StarRating:   rating,
		OverallScore: overall,
	}
}

// TestClassifyNilInputs verifies the degraded modes for missing snapshots.
func TestClassifyNilInputs(t *testing.T) {
	t.Parallel()

	t.Run("nil current snapshot is fatal", func(t *testing.T) {
		t.Parallel()
		_, err := Classify(snapshot("A"), nil, nil, testConfig())
		if !errors.Is(err, ErrNoCurrentSnapshot) {
			t.Errorf("expected ErrNoCurrentSnapshot, got %v", err)
		}
	})

	t.Run("nil previous snapshot degrades to empty baseline", func(t *testing.T) {
		t.Parallel()

		analysis, err := Classify(nil, snapshot("A", "B"), nil, testConfig())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		newApps := analysis.AlertsOf(model.AlertNewEntity)
		if len(newApps) != 2 {
			t.Errorf("expected 2 new entity alerts, got %d", len(newApps))
		}
		if jumps := analysis.AlertsOf(model.AlertRankJump); len(jumps) != 0 {
			t.Errorf("expected no jump alerts on first run, got %v", jumps)
		}
		if drops := analysis.AlertsOf(model.AlertRankDrop); len(drops) != 0 {
			t.Errorf("expected no drop alerts on first run, got %v", drops)
		}
		if !analysis.PreviousCapturedAt.IsZero() {
			t.Error("expected zero previous capture time")
		}
	})

	t.Run("empty current snapshot is valid input", func(t *testing.T) {
		t.Parallel()

		analysis, err := Classify(snapshot("A"), model.NewSnapshot("quiz"), nil, testConfig())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		// A vanished entirely; with the stock thresholds that is a drop.
		if drops := analysis.AlertsOf(model.AlertRankDrop); len(drops) != 1 {
			t.Errorf("expected A to register as a drop, got %v", drops)
		}
	})
}

// TestClassifyAlertOrdering verifies that alerts are grouped by kind in a
// fixed order.
func TestClassifyAlertOrdering(t *testing.T) {
	t.Parallel()

	prev := model.NewSnapshot("quiz")
	for i, name := range []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "Faller"} {
		prev.Apps = append(prev.Apps, model.App{Name: name, Rank: i + 1})
	}

	curr := model.NewSnapshot("quiz")
	// Jumper was rank 10 (J), now rank 1. Faller was 11, now 20.
	order := []string{"J", "A", "B", "C", "D", "E", "F", "G", "H", "I", "Fresh"}
	for i, name := range order {
		curr.Apps = append(curr.Apps, model.App{Name: name, Rank: i + 1})
	}
	curr.Apps = append(curr.Apps, model.App{Name: "Faller", Rank: 20})

	analysis, err := Classify(prev, curr, nil, testConfig())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// Kinds must appear grouped in declaration order.
	kindOrder := map[model.AlertKind]int{
		model.AlertNewEntity:             0,
		model.AlertRankJump:              1,
		model.AlertRankDrop:              2,
		model.AlertTopNEntrant:           3,
		model.AlertTopNEvictee:           4,
		model.AlertExplosiveReviewGrowth: 5,
		model.AlertRatingDrop:            6,
	}
	last := -1
	for _, a := range analysis.Alerts {
		idx, ok := kindOrder[a.Kind]
		if !ok {
			t.Fatalf("unknown alert kind %q", a.Kind)
		}
		if idx < last {
			t.Errorf("alert kinds not grouped: %q after index %d", a.Kind, last)
		}
		last = idx
	}

	if jumps := analysis.AlertsOf(model.AlertRankJump); len(jumps) != 1 || jumps[0].AppName != "J" {
		t.Errorf("expected J to jump, got %v", jumps)
	}
	if drops := analysis.AlertsOf(model.AlertRankDrop); len(drops) != 1 || drops[0].AppName != "Faller" {
		t.Errorf("expected Faller to drop, got %v", drops)
	}
	if entrants := analysis.AlertsOf(model.AlertTopNEntrant); len(entrants) != 1 || entrants[0].AppName != "J" {
		t.Errorf("expected J to enter the leaderboard, got %v", entrants)
	}
}

// TestClassifyIndependentRules verifies one app can collect several alert
// kinds in a single run.
func TestClassifyIndependentRules(t *testing.T) {
	t.Parallel()

	prev := model.NewSnapshot("quiz")
	for i, name := range []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "Hot"} {
		prev.Apps = append(prev.Apps, model.App{Name: name, Rank: i + 1})
	}
	curr := model.NewSnapshot("quiz")
	for i, name := range []string{"Hot", "A", "B", "C", "D", "E", "F", "G", "H", "I"} {
		curr.Apps = append(curr.Apps, model.App{Name: name, Rank: i + 1})
	}

	// Hot also has explosive review growth and a rating decline.
	overall := 4.9
	var log []model.Review
	for d := 1; d <= 15; d++ {
		log = append(log, reviewOn("Hot", d, 3.0, &overall))
	}

	analysis, err := Classify(prev, curr, log, testConfig())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	kinds := make(map[model.AlertKind]bool)
	for _, a := range analysis.Alerts {
		if a.AppName == "Hot" {
			kinds[a.Kind] = true
		}
	}

	for _, want := range []model.AlertKind{
		model.AlertRankJump,
		model.AlertTopNEntrant,
		model.AlertExplosiveReviewGrowth,
		model.AlertRatingDrop,
	} {
		if !kinds[want] {
			t.Errorf("expected Hot to collect %q, got kinds %v", want, kinds)
		}
	}
}

// TestReviewAlerts verifies the review growth and rating drop rules.
func TestReviewAlerts(t *testing.T) {
	t.Parallel()

	t.Run("growth strictly above threshold fires", func(t *testing.T) {
		t.Parallel()

		var log []model.Review
		for d := 1; d <= 11; d++ {
			log = append(log, reviewOn("A", d, 5, nil))
		}

		analysis, err := Classify(nil, snapshot("A"), log, testConfig())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		growth := analysis.AlertsOf(model.AlertExplosiveReviewGrowth)
		if len(growth) != 1 {
			t.Fatalf("expected 1 growth alert, got %d", len(growth))
		}
		if growth[0].ReviewCount != 11 {
			t.Errorf("expected review count 11, got %d", growth[0].ReviewCount)
		}
		if growth[0].WindowDays != 30 {
			t.Errorf("expected window days 30, got %d", growth[0].WindowDays)
		}
	})

	t.Run("growth exactly at threshold does not fire", func(t *testing.T) {
		t.Parallel()

		var log []model.Review
		for d := 1; d <= 10; d++ {
			log = append(log, reviewOn("A", d, 5, nil))
		}

		analysis, err := Classify(nil, snapshot("A"), log, testConfig())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if growth := analysis.AlertsOf(model.AlertExplosiveReviewGrowth); len(growth) != 0 {
			t.Errorf("expected no growth alerts at the threshold, got %v", growth)
		}
	})

	t.Run("rating drop requires both overall and window mean", func(t *testing.T) {
		t.Parallel()

		// No overall score recorded: rule must be skipped, not defaulted.
		log := []model.Review{reviewOn("A", 10, 1, nil)}

		analysis, err := Classify(nil, snapshot("A"), log, testConfig())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if drops := analysis.AlertsOf(model.AlertRatingDrop); len(drops) != 0 {
			t.Errorf("expected no rating drop without an overall score, got %v", drops)
		}
	})

	t.Run("rating drop magnitude is overall minus window mean", func(t *testing.T) {
		t.Parallel()

		overall := 4.8
		log := []model.Review{
			reviewOn("A", 10, 4.0, &overall),
			reviewOn("A", 11, 4.0, &overall),
		}

		analysis, err := Classify(nil, snapshot("A"), log, testConfig())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		drops := analysis.AlertsOf(model.AlertRatingDrop)
		if len(drops) != 1 {
			t.Fatalf("expected 1 rating drop, got %d", len(drops))
		}
		if math.Abs(drops[0].RatingDropMagnitude-0.8) > 1e-9 {
			t.Errorf("expected magnitude 0.8, got %v", drops[0].RatingDropMagnitude)
		}
	})

	t.Run("recent mean above overall never alerts", func(t *testing.T) {
		t.Parallel()

		overall := 3.0
		log := []model.Review{reviewOn("A", 10, 5, &overall)}

		analysis, err := Classify(nil, snapshot("A"), log, testConfig())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if drops := analysis.AlertsOf(model.AlertRatingDrop); len(drops) != 0 {
			t.Errorf("expected no rating drop for improving app, got %v", drops)
		}
	})

	t.Run("empty review log disables review rules entirely", func(t *testing.T) {
		t.Parallel()

		analysis, err := Classify(nil, snapshot("A"), nil, testConfig())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(analysis.Windows) != 0 {
			t.Errorf("expected no window rows, got %v", analysis.Windows)
		}
		if growth := analysis.AlertsOf(model.AlertExplosiveReviewGrowth); len(growth) != 0 {
			t.Errorf("expected no growth alerts, got %v", growth)
		}
	})
}
