package export

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/erik-esparza/rival-review/internal/model"
	"github.com/erik-esparza/rival-review/internal/trend"
)

func newTestExporter(t *testing.T) *CSVExporter {
	t.Helper()
	e, err := NewCSVExporter(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("failed to create exporter: %v", err)
	}
	return e
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

func testSnapshot(capturedAt time.Time) *model.Snapshot {
	s := model.NewSnapshot("quiz")
	s.CapturedAt = capturedAt
	s.Apps = []model.App{
		{Name: "Ad App", URL: "https://apps.shopify.com/ad-app", Ad: true},
		{Name: "First", URL: "https://apps.shopify.com/first", Rank: 1, BuiltForShopify: true},
		{Name: "Second", URL: "https://apps.shopify.com/second", Rank: 2},
	}
	return s
}

// TestExportRun verifies the per-run file layout: three titled sections
// with per-section headers, plus the historical append.
func TestExportRun(t *testing.T) {
	t.Parallel()

	e := newTestExporter(t)
	capturedAt := time.Date(2026, time.March, 2, 9, 30, 0, 0, time.UTC)
	snapshot := testSnapshot(capturedAt)
	analysis := &trend.Analysis{
		Query: "quiz",
		Alerts: []model.Alert{
			{Kind: model.AlertNewEntity, AppName: "Second", NewRank: 2},
		},
	}

	path, err := e.ExportRun(snapshot, analysis, 1)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if filepath.Base(path) != "apps_data_20260302_093000.csv" {
		t.Errorf("unexpected run file name: %s", path)
	}

	content := readFile(t, path)
	for _, want := range []string{
		"[All Apps]",
		"[New Apps]",
		"[Top 1]",
		"name,url,ad,bfs,rank",
		"First,https://apps.shopify.com/first,false,true,1",
		"Ad App,https://apps.shopify.com/ad-app,true,false,0",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("missing %q in run export:\n%s", want, content)
		}
	}

	// The new-apps section holds only the flagged app; the top-1 section
	// holds only the rank-1 app.
	sections := strings.Split(content, "\n\n")
	if len(sections) != 3 {
		t.Fatalf("expected 3 sections, got %d:\n%s", len(sections), content)
	}
	if !strings.Contains(sections[1], "Second") || strings.Contains(sections[1], "First,") {
		t.Errorf("unexpected new-apps section:\n%s", sections[1])
	}
	if !strings.Contains(sections[2], "First") || strings.Contains(sections[2], "Second,") {
		t.Errorf("unexpected top-N section:\n%s", sections[2])
	}

	historical := readFile(t, filepath.Join(e.dir, historicalAppsFile))
	if !strings.HasPrefix(historical, "date,name,url,ad,bfs,rank\n") {
		t.Errorf("missing historical header:\n%s", historical)
	}
	if !strings.Contains(historical, "2026-03-02,First,") {
		t.Errorf("missing dated historical row:\n%s", historical)
	}
}

// TestExportRunHistoricalHeaderOnce verifies a second run appends rows
// without repeating the header.
func TestExportRunHistoricalHeaderOnce(t *testing.T) {
	t.Parallel()

	e := newTestExporter(t)
	analysis := &trend.Analysis{Query: "quiz"}

	first := testSnapshot(time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC))
	second := testSnapshot(time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC))

	if _, err := e.ExportRun(first, analysis, 1); err != nil {
		t.Fatalf("first export failed: %v", err)
	}
	if _, err := e.ExportRun(second, analysis, 1); err != nil {
		t.Fatalf("second export failed: %v", err)
	}

	historical := readFile(t, filepath.Join(e.dir, historicalAppsFile))
	if got := strings.Count(historical, "date,name,url,ad,bfs,rank"); got != 1 {
		t.Errorf("expected header exactly once, got %d:\n%s", got, historical)
	}
	if got := strings.Count(historical, "First,"); got != 2 {
		t.Errorf("expected First in both runs, got %d rows", got)
	}
}

// TestExportReviews verifies the per-run review file and the historical
// append, including empty cells for absent values.
func TestExportReviews(t *testing.T) {
	t.Parallel()

	e := newTestExporter(t)
	capturedAt := time.Date(2026, time.March, 2, 9, 30, 0, 0, time.UTC)
	overall := 4.8
	reviews := []model.Review{
		{
			AppName:      "First",
			AppURL:       "https://apps.shopify.com/first",
			ReviewDate:   time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC),
			StarRating:   5,
			OverallScore: &overall,
			Content:      "Great app",
			CollectedAt:  capturedAt,
		},
		{
			AppName:     "Second",
			AppURL:      "https://apps.shopify.com/second",
			StarRating:  3,
			CollectedAt: capturedAt,
		},
	}

	path, err := e.ExportReviews(reviews, capturedAt)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if filepath.Base(path) != "reviews_20260302_093000.csv" {
		t.Errorf("unexpected review file name: %s", path)
	}

	content := readFile(t, path)
	if !strings.HasPrefix(content, "app_name,review_date,star_rating,review_content,overall_score\n") {
		t.Errorf("missing review header:\n%s", content)
	}
	if !strings.Contains(content, "First,2026-02-28,5.0,Great app,4.8") {
		t.Errorf("missing dated review row:\n%s", content)
	}
	// Undated review with no overall score keeps its cells empty.
	if !strings.Contains(content, "Second,,3.0,,") {
		t.Errorf("missing undated review row:\n%s", content)
	}

	historical := readFile(t, filepath.Join(e.dir, historicalReviewsFile))
	if !strings.HasPrefix(historical, "date_collected,app_name,app_url,review_date,star_rating,review_content,overall_score\n") {
		t.Errorf("missing historical reviews header:\n%s", historical)
	}
	if !strings.Contains(historical, "2026-03-02,First,https://apps.shopify.com/first,2026-02-28,5.0,Great app,4.8") {
		t.Errorf("missing historical review row:\n%s", historical)
	}
}

// TestExportReviewsEmpty verifies an empty batch writes nothing.
func TestExportReviewsEmpty(t *testing.T) {
	t.Parallel()

	e := newTestExporter(t)
	path, err := e.ExportReviews(nil, time.Now())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if path != "" {
		t.Errorf("expected no file path, got %q", path)
	}

	entries, err := os.ReadDir(e.dir)
	if err != nil {
		t.Fatalf("failed to read export dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty export dir, got %d entries", len(entries))
	}
}

// TestNewCSVExporterCreatesDir verifies a missing directory is created.
func TestNewCSVExporterCreatesDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "exports")
	if _, err := NewCSVExporter(dir, nil); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Errorf("expected directory at %s, got %v %v", dir, info, err)
	}
}
