package export

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/erik-esparza/rival-review/internal/model"
	"github.com/erik-esparza/rival-review/internal/trend"
)

const (
	// historicalAppsFile accumulates one row per app per run.
	historicalAppsFile = "historical_apps.csv"

	// historicalReviewsFile accumulates one row per collected review.
	historicalReviewsFile = "historical_reviews.csv"

	// runFileTimeLayout stamps per-run export filenames.
	runFileTimeLayout = "20060102_150405"
)

var appFieldHeader = []string{"name", "url", "ad", "bfs", "rank"}

// CSVExporter writes snapshot and review CSV files into a directory.
type CSVExporter struct {
	dir    string
	logger *slog.Logger
}

// NewCSVExporter creates an exporter rooted at dir, creating the
// directory if it does not exist.
func NewCSVExporter(dir string, logger *slog.Logger) (*CSVExporter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create export dir %q: %w", dir, err)
	}
	return &CSVExporter{dir: dir, logger: logger}, nil
}

// ExportRun writes the per-run snapshot file and appends to the
// historical apps file. The per-run file has three sections: all apps
// from the snapshot, the apps flagged as new by the analysis, and the
// current leaderboard.
func (e *CSVExporter) ExportRun(snapshot *model.Snapshot, analysis *trend.Analysis, topN int) (string, error) {
	name := fmt.Sprintf("apps_data_%s.csv", snapshot.CapturedAt.Format(runFileTimeLayout))
	path := filepath.Join(e.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create run export %q: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	newNames := make(map[string]bool)
	for _, a := range analysis.AlertsOf(model.AlertNewEntity) {
		newNames[a.AppName] = true
	}
	var newApps []model.App
	for _, app := range snapshot.Apps {
		if newNames[app.Name] {
			newApps = append(newApps, app)
		}
	}

	sections := []struct {
		title string
		apps  []model.App
	}{
		{"[All Apps]", snapshot.Apps},
		{"[New Apps]", newApps},
		{fmt.Sprintf("[Top %d]", topN), snapshot.TopN(topN)},
	}
	for i, s := range sections {
		if i > 0 {
			if err := w.Write([]string{}); err != nil {
				return "", fmt.Errorf("write section separator: %w", err)
			}
		}
		if err := writeAppSection(w, s.title, s.apps); err != nil {
			return "", err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush run export %q: %w", path, err)
	}

	if err := e.appendHistoricalApps(snapshot); err != nil {
		return "", err
	}

	e.logger.Info("wrote run export", "path", path, "apps", len(snapshot.Apps))
	return path, nil
}

// writeAppSection writes one titled section of app rows.
func writeAppSection(w *csv.Writer, title string, apps []model.App) error {
	if err := w.Write([]string{title}); err != nil {
		return fmt.Errorf("write section title %q: %w", title, err)
	}
	if err := w.Write(appFieldHeader); err != nil {
		return fmt.Errorf("write section header: %w", err)
	}
	for _, app := range apps {
		if err := w.Write(appRow(app)); err != nil {
			return fmt.Errorf("write app row %q: %w", app.Name, err)
		}
	}
	return nil
}

// appRow converts an app to its CSV representation.
func appRow(app model.App) []string {
	return []string{
		app.Name,
		app.URL,
		strconv.FormatBool(app.Ad),
		strconv.FormatBool(app.BuiltForShopify),
		strconv.Itoa(app.Rank),
	}
}

// appendHistoricalApps appends every app in the snapshot to the
// accumulating historical file, writing the header only on first use.
func (e *CSVExporter) appendHistoricalApps(snapshot *model.Snapshot) error {
	path := filepath.Join(e.dir, historicalAppsFile)
	f, writeHeader, err := openAppend(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(append([]string{"date"}, appFieldHeader...)); err != nil {
			return fmt.Errorf("write historical apps header: %w", err)
		}
	}

	date := snapshot.CapturedAt.Format("2006-01-02")
	for _, app := range snapshot.Apps {
		if err := w.Write(append([]string{date}, appRow(app)...)); err != nil {
			return fmt.Errorf("append historical app %q: %w", app.Name, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %q: %w", path, err)
	}
	return nil
}

// ExportReviews writes a stamped per-run review file and appends the
// same reviews to the accumulating historical reviews file.
func (e *CSVExporter) ExportReviews(reviews []model.Review, capturedAt time.Time) (string, error) {
	if len(reviews) == 0 {
		return "", nil
	}

	name := fmt.Sprintf("reviews_%s.csv", capturedAt.Format(runFileTimeLayout))
	path := filepath.Join(e.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create review export %q: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"app_name", "review_date", "star_rating", "review_content", "overall_score"}
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("write review header: %w", err)
	}
	for _, r := range reviews {
		row := []string{
			r.AppName,
			reviewDateCell(r),
			strconv.FormatFloat(r.StarRating, 'f', 1, 64),
			r.Content,
			overallCell(r),
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("write review row for %q: %w", r.AppName, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush review export %q: %w", path, err)
	}

	if err := e.appendHistoricalReviews(reviews); err != nil {
		return "", err
	}

	e.logger.Info("wrote review export", "path", path, "reviews", len(reviews))
	return path, nil
}

// appendHistoricalReviews appends reviews to the accumulating
// historical reviews file, writing the header only on first use.
func (e *CSVExporter) appendHistoricalReviews(reviews []model.Review) error {
	path := filepath.Join(e.dir, historicalReviewsFile)
	f, writeHeader, err := openAppend(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		header := []string{"date_collected", "app_name", "app_url", "review_date", "star_rating", "review_content", "overall_score"}
		if err := w.Write(header); err != nil {
			return fmt.Errorf("write historical reviews header: %w", err)
		}
	}

	for _, r := range reviews {
		row := []string{
			r.CollectedAt.Format("2006-01-02"),
			r.AppName,
			r.AppURL,
			reviewDateCell(r),
			strconv.FormatFloat(r.StarRating, 'f', 1, 64),
			r.Content,
			overallCell(r),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("append historical review for %q: %w", r.AppName, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %q: %w", path, err)
	}
	return nil
}

// openAppend opens path for appending and reports whether the file is
// new (so the caller knows to write a header first).
func openAppend(path string) (*os.File, bool, error) {
	_, statErr := os.Stat(path)
	writeHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, false, fmt.Errorf("open %q for append: %w", path, err)
	}
	return f, writeHeader, nil
}

// reviewDateCell formats a review date, empty when undated.
func reviewDateCell(r model.Review) string {
	if !r.Dated() {
		return ""
	}
	return r.ReviewDate.Format("2006-01-02")
}

// overallCell formats the overall score, empty when unknown.
func overallCell(r model.Review) string {
	if r.OverallScore == nil {
		return ""
	}
	return strconv.FormatFloat(*r.OverallScore, 'f', 1, 64)
}
