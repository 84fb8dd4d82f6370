package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/erik-esparza/rival-review/internal/export"
	"github.com/erik-esparza/rival-review/internal/fetch"
	"github.com/erik-esparza/rival-review/internal/report"
	"github.com/erik-esparza/rival-review/internal/store"
	"github.com/erik-esparza/rival-review/internal/trend"
)

// FetchRankingStep captures the current ranking snapshot from the
// marketplace search results.
//
// Design decision: Ranking capture is the first step because every
// later stage consumes the current snapshot; if capture fails there is
// nothing to compare, report, or persist.
type FetchRankingStep struct {
	// client performs the HTTP fetching and parsing.
	client *fetch.Client

	// logger for structured logging.
	logger *slog.Logger
}

// FetchRankingStepOption configures a FetchRankingStep.
type FetchRankingStepOption func(*FetchRankingStep)

// WithFetchRankingLogger sets a custom logger for the ranking step.
func WithFetchRankingLogger(logger *slog.Logger) FetchRankingStepOption {
	return func(s *FetchRankingStep) {
		s.logger = logger
	}
}

// NewFetchRankingStep creates a new ranking capture step.
func NewFetchRankingStep(client *fetch.Client, opts ...FetchRankingStepOption) *FetchRankingStep {
	s := &FetchRankingStep{
		client: client,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *FetchRankingStep) Name() string {
	return "fetch_ranking"
}

// Do captures the current snapshot.
func (s *FetchRankingStep) Do(ctx context.Context, run *Run) error {
	cfg := run.Config
	snapshot, err := s.client.FetchRanking(ctx, cfg.SearchURL, cfg.Query, cfg.MaxPages)
	if err != nil {
		return fmt.Errorf("fetch ranking for %q: %w", cfg.Query, err)
	}

	s.logger.Info("captured ranking snapshot",
		"query", cfg.Query,
		"apps", len(snapshot.Apps),
	)
	run.Current = snapshot
	return nil
}

// LoadBaselineStep loads the previously stored snapshot for the query.
// A missing or unreadable baseline degrades to an empty snapshot so a
// first run still works.
type LoadBaselineStep struct {
	db *store.TrendDB
}

// NewLoadBaselineStep creates a new baseline loading step.
func NewLoadBaselineStep(db *store.TrendDB) *LoadBaselineStep {
	return &LoadBaselineStep{db: db}
}

// Name returns the step name.
func (s *LoadBaselineStep) Name() string {
	return "load_baseline"
}

// Do loads the baseline snapshot.
func (s *LoadBaselineStep) Do(ctx context.Context, run *Run) error {
	previous, err := s.db.LoadPrevious(ctx, run.Config.Query)
	if err != nil {
		return fmt.Errorf("load baseline for %q: %w", run.Config.Query, err)
	}
	run.Previous = previous
	return nil
}

// FetchReviewsStep collects reviews for the current leaderboard apps.
type FetchReviewsStep struct {
	client *fetch.Client
	logger *slog.Logger
}

// FetchReviewsStepOption configures a FetchReviewsStep.
type FetchReviewsStepOption func(*FetchReviewsStep)

// WithFetchReviewsLogger sets a custom logger for the reviews step.
func WithFetchReviewsLogger(logger *slog.Logger) FetchReviewsStepOption {
	return func(s *FetchReviewsStep) {
		s.logger = logger
	}
}

// NewFetchReviewsStep creates a new review collection step.
func NewFetchReviewsStep(client *fetch.Client, opts ...FetchReviewsStepOption) *FetchReviewsStep {
	s := &FetchReviewsStep{
		client: client,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *FetchReviewsStep) Name() string {
	return "fetch_reviews"
}

// Do collects reviews for the top apps in the current snapshot.
// Review collection is restricted to the leaderboard because fetching
// every ranked app would multiply request volume for apps the trend
// rules never alert on.
func (s *FetchReviewsStep) Do(ctx context.Context, run *Run) error {
	cfg := run.Config
	if !cfg.FetchReviews {
		s.logger.Debug("review collection disabled")
		return nil
	}
	if run.Current == nil {
		return fmt.Errorf("fetch reviews: no current snapshot")
	}

	apps := run.Current.TopN(cfg.TopN)
	reviews, err := s.client.FetchAllReviews(ctx, apps, cfg.ReviewConcurrency)
	if err != nil {
		return fmt.Errorf("fetch reviews: %w", err)
	}

	s.logger.Info("collected reviews",
		"apps", len(apps),
		"reviews", len(reviews),
	)
	run.Reviews = reviews
	return nil
}

// AppendReviewsStep persists the collected reviews and reloads the
// full accumulated review log for the classifier.
type AppendReviewsStep struct {
	db *store.TrendDB
}

// NewAppendReviewsStep creates a new review persistence step.
func NewAppendReviewsStep(db *store.TrendDB) *AppendReviewsStep {
	return &AppendReviewsStep{db: db}
}

// Name returns the step name.
func (s *AppendReviewsStep) Name() string {
	return "append_reviews"
}

// Do appends this run's reviews to the log and reloads the whole log.
// The log is reloaded rather than merged in memory so the classifier
// always sees exactly what is persisted.
func (s *AppendReviewsStep) Do(ctx context.Context, run *Run) error {
	if len(run.Reviews) > 0 {
		if err := s.db.AppendReviews(ctx, run.Reviews); err != nil {
			return fmt.Errorf("append reviews: %w", err)
		}
	}

	log, err := s.db.ReviewLog(ctx)
	if err != nil {
		return fmt.Errorf("load review log: %w", err)
	}
	run.ReviewLog = log
	return nil
}

// ClassifyStep runs the trend classifier over the run's snapshots and
// review log.
type ClassifyStep struct{}

// NewClassifyStep creates a new classification step.
func NewClassifyStep() *ClassifyStep {
	return &ClassifyStep{}
}

// Name returns the step name.
func (s *ClassifyStep) Name() string {
	return "classify"
}

// Do classifies trends between the baseline and current snapshots.
func (s *ClassifyStep) Do(_ context.Context, run *Run) error {
	analysis, err := trend.Classify(run.Previous, run.Current, run.ReviewLog, run.Config)
	if err != nil {
		return fmt.Errorf("classify trends: %w", err)
	}
	run.Analysis = analysis
	return nil
}

// ReportStep writes the analysis through a report writer.
type ReportStep struct {
	writer report.Writer
}

// NewReportStep creates a new reporting step.
func NewReportStep(writer report.Writer) *ReportStep {
	return &ReportStep{writer: writer}
}

// Name returns the step name.
func (s *ReportStep) Name() string {
	return "report"
}

// Do writes the report.
func (s *ReportStep) Do(_ context.Context, run *Run) error {
	if run.Analysis == nil {
		return fmt.Errorf("report: no analysis available")
	}
	if _, err := s.writer.Write(run.Analysis); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// ExportCSVStep writes the per-run and historical CSV files.
type ExportCSVStep struct {
	exporter *export.CSVExporter
	logger   *slog.Logger
}

// ExportCSVStepOption configures an ExportCSVStep.
type ExportCSVStepOption func(*ExportCSVStep)

// WithExportLogger sets a custom logger for the export step.
func WithExportLogger(logger *slog.Logger) ExportCSVStepOption {
	return func(s *ExportCSVStep) {
		s.logger = logger
	}
}

// NewExportCSVStep creates a new CSV export step.
func NewExportCSVStep(exporter *export.CSVExporter, opts ...ExportCSVStepOption) *ExportCSVStep {
	s := &ExportCSVStep{
		exporter: exporter,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *ExportCSVStep) Name() string {
	return "export_csv"
}

// Do writes the CSV exports for this run.
func (s *ExportCSVStep) Do(_ context.Context, run *Run) error {
	if run.Current == nil || run.Analysis == nil {
		return fmt.Errorf("export: run is missing snapshot or analysis")
	}

	path, err := s.exporter.ExportRun(run.Current, run.Analysis, run.Config.TopN)
	if err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	}
	s.logger.Debug("exported snapshot", "path", path)

	if len(run.Reviews) > 0 {
		path, err = s.exporter.ExportReviews(run.Reviews, run.Current.CapturedAt)
		if err != nil {
			return fmt.Errorf("export reviews: %w", err)
		}
		s.logger.Debug("exported reviews", "path", path)
	}
	return nil
}

// SaveSnapshotStep persists the current snapshot as the next baseline.
//
// Design decision: Saving is the last step so that a run that fails to
// fetch or classify never advances the baseline; the next run compares
// against the last fully completed one.
type SaveSnapshotStep struct {
	db *store.TrendDB
}

// NewSaveSnapshotStep creates a new snapshot persistence step.
func NewSaveSnapshotStep(db *store.TrendDB) *SaveSnapshotStep {
	return &SaveSnapshotStep{db: db}
}

// Name returns the step name.
func (s *SaveSnapshotStep) Name() string {
	return "save_snapshot"
}

// Do persists the current snapshot.
func (s *SaveSnapshotStep) Do(ctx context.Context, run *Run) error {
	if run.Current == nil {
		return fmt.Errorf("save snapshot: no current snapshot")
	}
	if err := s.db.SaveCurrent(ctx, run.Current); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}
