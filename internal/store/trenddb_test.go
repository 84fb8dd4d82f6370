package store

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/erik-esparza/rival-review/internal/model"
)

// openTestDB creates a TrendDB in a temporary directory.
func openTestDB(t *testing.T) *TrendDB {
	t.Helper()

	opts := DefaultOptions()
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := Open(t.TempDir(), opts)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close database: %v", err)
		}
	})
	return db
}

// testSnapshot builds a snapshot with the given capture time and apps.
func testSnapshot(query string, capturedAt time.Time, names ...string) *model.Snapshot {
	s := model.NewSnapshot(query)
	s.CapturedAt = capturedAt
	for i, name := range names {
		s.Apps = append(s.Apps, model.App{Name: name, Rank: i + 1})
	}
	return s
}

// TestOpen verifies database creation behavior.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database when CreateIfNotExists is set", func(t *testing.T) {
		t.Parallel()
		db := openTestDB(t)
		if db == nil {
			t.Fatal("expected database handle")
		}
	})

	t.Run("fails when database missing and creation disabled", func(t *testing.T) {
		t.Parallel()
		opts := DefaultOptions()
		opts.CreateIfNotExists = false
		if _, err := Open(t.TempDir(), opts); err == nil {
			t.Error("expected an error for missing database")
		}
	})
}

// TestLoadSaveRoundtrip verifies the baseline load/save contract.
func TestLoadSaveRoundtrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openTestDB(t)

	t.Run("loading with no prior state returns empty snapshot", func(t *testing.T) {
		snapshot, err := db.LoadPrevious(ctx, "quiz")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if snapshot == nil {
			t.Fatal("expected non-nil snapshot")
		}
		if snapshot.Query != "quiz" {
			t.Errorf("expected query 'quiz', got %q", snapshot.Query)
		}
		if len(snapshot.Apps) != 0 {
			t.Errorf("expected empty snapshot, got %d apps", len(snapshot.Apps))
		}
	})

	captured := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	t.Run("save then load returns the persisted snapshot", func(t *testing.T) {
		if err := db.SaveCurrent(ctx, testSnapshot("quiz", captured, "A", "B")); err != nil {
			t.Fatalf("failed to save snapshot: %v", err)
		}

		snapshot, err := db.LoadPrevious(ctx, "quiz")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(snapshot.Apps) != 2 {
			t.Fatalf("expected 2 apps, got %d", len(snapshot.Apps))
		}
		if snapshot.Apps[0].Name != "A" || snapshot.Apps[0].Rank != 1 {
			t.Errorf("unexpected first app: %+v", snapshot.Apps[0])
		}
		if !snapshot.CapturedAt.Equal(captured) {
			t.Errorf("expected capture time %v, got %v", captured, snapshot.CapturedAt)
		}
	})

	t.Run("saving again overwrites the baseline", func(t *testing.T) {
		later := captured.Add(24 * time.Hour)
		if err := db.SaveCurrent(ctx, testSnapshot("quiz", later, "C")); err != nil {
			t.Fatalf("failed to save snapshot: %v", err)
		}

		snapshot, err := db.LoadPrevious(ctx, "quiz")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(snapshot.Apps) != 1 || snapshot.Apps[0].Name != "C" {
			t.Errorf("expected overwritten baseline with only C, got %v", snapshot.Apps)
		}
	})

	t.Run("queries are isolated from each other", func(t *testing.T) {
		snapshot, err := db.LoadPrevious(ctx, "other")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(snapshot.Apps) != 0 {
			t.Errorf("expected empty snapshot for untracked query, got %d apps", len(snapshot.Apps))
		}
	})

	t.Run("nil snapshot cannot be saved", func(t *testing.T) {
		if err := db.SaveCurrent(ctx, nil); err == nil {
			t.Error("expected an error for nil snapshot")
		}
	})
}

// TestLoadPreviousMalformed verifies that corrupted persisted state
// degrades to an empty baseline instead of failing the run.
func TestLoadPreviousMalformed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openTestDB(t)

	_, err := db.db.ExecContext(ctx, `
	INSERT INTO snapshots (query, captured_at, snapshot_json)
	VALUES ('quiz', '2026-03-15T12:00:00Z', '{not valid json')
	`)
	if err != nil {
		t.Fatalf("failed to plant malformed row: %v", err)
	}

	snapshot, err := db.LoadPrevious(ctx, "quiz")
	if err != nil {
		t.Fatalf("malformed state must not fail the load, got %v", err)
	}
	if snapshot == nil || len(snapshot.Apps) != 0 {
		t.Errorf("expected empty recovery snapshot, got %v", snapshot)
	}
}

// TestReviewLog verifies append and full-log retrieval.
func TestReviewLog(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openTestDB(t)

	overall := 4.5
	collected := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	reviews := []model.Review{
		{
			AppName:      "A",
			AppURL:       "https://example.com/apps/a",
			ReviewDate:   time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
			StarRating:   5,
			OverallScore: &overall,
			Content:      "great",
			CollectedAt:  collected,
		},
		{
			// Undated review with no overall score: stored as NULLs.
			AppName:     "B",
			StarRating:  2,
			CollectedAt: collected,
		},
	}

	if err := db.AppendReviews(ctx, reviews); err != nil {
		t.Fatalf("failed to append reviews: %v", err)
	}

	log, err := db.ReviewLog(ctx)
	if err != nil {
		t.Fatalf("failed to load review log: %v", err)
	}
	if len(log) != 2 {
		t.Fatalf("expected 2 reviews, got %d", len(log))
	}

	a := log[0]
	if a.AppName != "A" || a.StarRating != 5 || a.Content != "great" {
		t.Errorf("unexpected first review: %+v", a)
	}
	if a.OverallScore == nil || *a.OverallScore != 4.5 {
		t.Errorf("expected overall 4.5, got %v", a.OverallScore)
	}
	if !a.Dated() {
		t.Error("expected first review to be dated")
	}

	b := log[1]
	if b.Dated() {
		t.Error("expected second review to stay undated")
	}
	if b.OverallScore != nil {
		t.Errorf("expected nil overall, got %v", *b.OverallScore)
	}

	t.Run("appending nothing is a no-op", func(t *testing.T) {
		if err := db.AppendReviews(ctx, nil); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})
}

// TestHistory verifies the append-only snapshot history queries.
func TestHistory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openTestDB(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		s := testSnapshot("quiz", base.AddDate(0, 0, i), "A", "B")
		if err := db.SaveCurrent(ctx, s); err != nil {
			t.Fatalf("failed to save snapshot %d: %v", i, err)
		}
	}
	if err := db.SaveCurrent(ctx, testSnapshot("other", base, "X")); err != nil {
		t.Fatalf("failed to save other query: %v", err)
	}

	t.Run("history is newest first and per query", func(t *testing.T) {
		entries, err := db.History(ctx, "quiz")
		if err != nil {
			t.Fatalf("failed to get history: %v", err)
		}
		if len(entries) != 3 {
			t.Fatalf("expected 3 entries, got %d", len(entries))
		}
		if !entries[0].CapturedAt.After(entries[2].CapturedAt) {
			t.Errorf("expected newest first, got %v then %v", entries[0].CapturedAt, entries[2].CapturedAt)
		}
		if entries[0].AppCount != 2 {
			t.Errorf("expected app count 2, got %d", entries[0].AppCount)
		}
	})

	t.Run("list queries returns every tracked query", func(t *testing.T) {
		queries, err := db.ListQueries(ctx)
		if err != nil {
			t.Fatalf("failed to list queries: %v", err)
		}
		if len(queries) != 2 {
			t.Fatalf("expected 2 queries, got %v", queries)
		}
		if queries[0] != "other" || queries[1] != "quiz" {
			t.Errorf("expected sorted queries [other quiz], got %v", queries)
		}
	})

	t.Run("history by ID loads the snapshot", func(t *testing.T) {
		entries, err := db.History(ctx, "quiz")
		if err != nil {
			t.Fatalf("failed to get history: %v", err)
		}

		snapshot, err := db.HistoryByID(ctx, entries[1].ID)
		if err != nil {
			t.Fatalf("failed to load by ID: %v", err)
		}
		if snapshot == nil || len(snapshot.Apps) != 2 {
			t.Errorf("unexpected snapshot: %v", snapshot)
		}
	})

	t.Run("history by unknown ID returns nil without error", func(t *testing.T) {
		snapshot, err := db.HistoryByID(ctx, 9999)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if snapshot != nil {
			t.Errorf("expected nil snapshot, got %v", snapshot)
		}
	})

	t.Run("history since returns the oldest qualifying snapshot", func(t *testing.T) {
		snapshot, err := db.HistorySince(ctx, "quiz", base.AddDate(0, 0, 1))
		if err != nil {
			t.Fatalf("failed to load since: %v", err)
		}
		if snapshot == nil {
			t.Fatal("expected a snapshot")
		}
		want := base.AddDate(0, 0, 1)
		if !snapshot.CapturedAt.Equal(want) {
			t.Errorf("expected capture time %v, got %v", want, snapshot.CapturedAt)
		}
	})

	t.Run("history since a future date returns nil", func(t *testing.T) {
		snapshot, err := db.HistorySince(ctx, "quiz", base.AddDate(1, 0, 0))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if snapshot != nil {
			t.Errorf("expected nil snapshot, got %v", snapshot)
		}
	})
}

// TestParseTimestamp verifies both stored timestamp formats are accepted.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		zero  bool
	}{
		{name: "RFC3339", input: "2026-03-15T12:00:00Z", zero: false},
		{name: "sqlite default", input: "2026-03-15 12:00:00", zero: false},
		{name: "garbage", input: "not a timestamp", zero: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := parseTimestamp(tt.input)
			if got.IsZero() != tt.zero {
				t.Errorf("parseTimestamp(%q) = %v, zero expectation %v", tt.input, got, tt.zero)
			}
		})
	}
}
