package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/erik-esparza/rival-review/internal/config"
	"github.com/erik-esparza/rival-review/internal/export"
	"github.com/erik-esparza/rival-review/internal/fetch"
	intlog "github.com/erik-esparza/rival-review/internal/log"
	"github.com/erik-esparza/rival-review/internal/pipeline"
	"github.com/erik-esparza/rival-review/internal/report"
	"github.com/erik-esparza/rival-review/internal/store"
)

// NewWatchCmd creates the watch command.
func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [query]",
		Short: "Capture the current ranking and report trends",
		Long: `Watch captures the current search ranking for a query, compares it
against the previously stored snapshot, and reports notable movement:

- Apps that entered the ranking since the last run
- Ranking jumps and drops beyond the configured threshold
- Apps that entered or left the tracked leaderboard
- Review bursts and rating declines among the leaderboard apps

The first run for a query establishes the baseline and reports every
ranked app as new. Each successful run stores its snapshot as the
baseline for the next.

Examples:
  # Track the ranking for a search term
  rivalreview watch "Quiz"

  # Fetch more pages and track a larger leaderboard
  rivalreview watch --pages 10 --top 10 "Quiz"

  # Skip review collection (rank analysis only)
  rivalreview watch --reviews=false "Quiz"

  # Write a Markdown report to a file
  rivalreview watch --markdown -o report.md "Quiz"

  # Export CSV files alongside the report
  rivalreview watch --csv-dir data/csv_exports "Quiz"`,
		Args: cobra.MaximumNArgs(1),
		RunE: runWatchCmd,
	}

	// Fetch behavior flags
	cmd.Flags().IntP("pages", "p", config.DefaultMaxPages,
		"Maximum number of search result pages to fetch")
	cmd.Flags().DurationP("delay", "d", config.DefaultFetchDelay,
		"Politeness delay between page requests")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Connection timeout for each request")
	cmd.Flags().Bool("reviews", true,
		"Collect reviews for the current leaderboard apps")

	// Trend analysis flags
	cmd.Flags().IntP("top", "n", config.DefaultTopN,
		"Size of the tracked leaderboard")
	cmd.Flags().Int("lookback", config.DefaultLookbackDays,
		"Review aggregation window in days")
	cmd.Flags().Int("review-threshold", config.DefaultReviewThreshold,
		"Minimum window review count to flag explosive growth")
	cmd.Flags().Int("rank-threshold", config.DefaultRankJumpThreshold,
		"Minimum rank change to flag a jump or drop")
	cmd.Flags().Float64("rating-threshold", config.DefaultRatingDropThreshold,
		"Minimum overall-minus-recent rating difference to flag a decline")
	cmd.Flags().Int("max-rank", config.DefaultMaxRankAnalysis,
		"Ignore rank movement entirely outside this ceiling")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .rivalreview in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// Export flags
	cmd.Flags().String("csv-dir", "",
		"Directory for CSV exports (empty disables CSV export)")

	return cmd
}

// runWatchCmd executes the watch command.
func runWatchCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runWatch(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from the config file and cobra flags.
// The file is applied first so explicit flags always win.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// If the user explicitly specified a config file path, error if not
	// found. Otherwise silently skip when no file exists.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		cf, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cf.Apply(cfg)
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	// Flags override file settings, but only when the user actually set
	// them; otherwise a file setting would be clobbered by the default.
	if cmd.Flags().Changed("pages") || cfg.MaxPages == 0 {
		if cfg.MaxPages, err = cmd.Flags().GetInt("pages"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("top") || cfg.TopN == 0 {
		if cfg.TopN, err = cmd.Flags().GetInt("top"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("lookback") || cfg.LookbackDays == 0 {
		if cfg.LookbackDays, err = cmd.Flags().GetInt("lookback"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("review-threshold") {
		if cfg.ReviewThreshold, err = cmd.Flags().GetInt("review-threshold"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("rank-threshold") {
		if cfg.RankJumpThreshold, err = cmd.Flags().GetInt("rank-threshold"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("rating-threshold") {
		if cfg.RatingDropThreshold, err = cmd.Flags().GetFloat64("rating-threshold"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("max-rank") {
		if cfg.MaxRankAnalysis, err = cmd.Flags().GetInt("max-rank"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("csv-dir") {
		if cfg.CSVDir, err = cmd.Flags().GetString("csv-dir"); err != nil {
			return nil, err
		}
	}

	cfg.FetchDelay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}
	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}
	cfg.FetchReviews, err = cmd.Flags().GetBool("reviews")
	if err != nil {
		return nil, err
	}
	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}
	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}
	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)

	// Snapshots always persist using the XDG data directory.
	cfg.DBDir = config.XDGDataDir()

	// The positional argument overrides the config file query.
	if len(args) > 0 {
		cfg.Query = args[0]
	}

	return cfg, nil
}

// setupLogger creates a structured logger based on verbosity setting.
// Attribute values are length-capped so a pathological page title or
// review body cannot flood the log.
func setupLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := intlog.NewTruncateHandler(slog.NewTextHandler(os.Stderr, opts))
	return slog.New(handler)
}

// runWatch executes one watch run.
func runWatch(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting watch run",
		"query", cfg.Query,
		"maxPages", cfg.MaxPages,
		"topN", cfg.TopN,
		"fetchReviews", cfg.FetchReviews,
	)

	db, err := store.Open(cfg.DBDir, store.Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
		Logger:            logger,
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	logger.Info("database opened", "dir", cfg.DBDir)

	client := fetch.NewClient(cfg, fetch.WithLogger(logger))

	writer, closeReport, err := reportWriter(cfg)
	if err != nil {
		return err
	}
	defer closeReport()

	p := pipeline.New(
		pipeline.WithLogger(logger),
	)
	p.AddSteps(
		pipeline.NewFetchRankingStep(client, pipeline.WithFetchRankingLogger(logger)),
		pipeline.NewLoadBaselineStep(db),
		pipeline.NewFetchReviewsStep(client, pipeline.WithFetchReviewsLogger(logger)),
		pipeline.NewAppendReviewsStep(db),
		pipeline.NewClassifyStep(),
		pipeline.NewReportStep(writer),
	)

	if cfg.CSVDir != "" {
		exporter, err := export.NewCSVExporter(cfg.CSVDir, logger)
		if err != nil {
			return err
		}
		p.AddStep(pipeline.NewExportCSVStep(exporter, pipeline.WithExportLogger(logger)))
	}

	// Saving last means a failed run never advances the baseline.
	p.AddStep(pipeline.NewSaveSnapshotStep(db))

	run := pipeline.NewRun(cfg)

	startTime := time.Now()
	if err := p.Execute(ctx, run); err != nil {
		return fmt.Errorf("watch run failed: %w", err)
	}

	logger.Info("watch run completed",
		"query", cfg.Query,
		"elapsed", time.Since(startTime).Round(time.Millisecond),
		"steps", run.CompletedSteps,
	)
	return nil
}

// reportWriter builds the report writer for the configured format and
// destination. The returned close function is a no-op for stdout.
func reportWriter(cfg *config.Config) (report.Writer, func(), error) {
	output := os.Stdout
	closeFn := func() {}

	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create output file: %w", err)
		}
		output = f
		closeFn = func() { f.Close() }
	}

	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(output, report.WithPrettyPrint()), closeFn, nil
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output), closeFn, nil
	default:
		return report.NewTextWriter(output), closeFn, nil
	}
}
