package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/erik-esparza/rival-review/internal/config"
	"github.com/erik-esparza/rival-review/internal/model"
	"github.com/erik-esparza/rival-review/internal/store"
	"github.com/erik-esparza/rival-review/internal/trend"
)

// NewTrendsCmd creates the trends command.
// This command re-runs the trend analysis over snapshots already stored
// in the database, without fetching anything.
func NewTrendsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trends [query]",
		Short: "Analyze trends between stored snapshots",
		Long: `Trends compares snapshots already stored in the database and reports
the same analysis a watch run produces, without any network access.

By default the two most recent snapshots for the query are compared.
A specific historical snapshot can be selected by ID or by date.

Examples:
  # Compare the latest two snapshots for a query
  rivalreview trends "Quiz"

  # List snapshot history for a query
  rivalreview trends --list "Quiz"

  # Compare the latest snapshot with a specific one by ID
  rivalreview trends --with-snapshot-id 5 "Quiz"

  # Compare against the first snapshot taken after a date
  rivalreview trends --since "2026-01-01" "Quiz"

  # Output the analysis in JSON format
  rivalreview trends --json "Quiz"

  # List all tracked queries in the database
  rivalreview trends --list-queries`,
		Args: cobra.MaximumNArgs(1),
		RunE: runTrendsCmd,
	}

	// History listing flags
	cmd.Flags().BoolP("list", "l", false,
		"List snapshot history for the specified query")
	cmd.Flags().BoolP("list-queries", "L", false,
		"List all tracked queries in the database")

	// Comparison target flags
	cmd.Flags().Int64P("with-snapshot-id", "i", 0,
		"Compare with a specific snapshot by ID (use --list to see available IDs)")
	cmd.Flags().StringP("since", "s", "",
		"Compare with the first snapshot after this date (format: YYYY-MM-DD)")

	// Analysis flags
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

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output analysis in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output analysis in Markdown format")

	return cmd
}

// runTrendsCmd executes the trends command.
func runTrendsCmd(cmd *cobra.Command, args []string) error {
	listQueries, err := cmd.Flags().GetBool("list-queries")
	if err != nil {
		return err
	}

	// Validate arguments before opening the database so a bad invocation
	// never touches the database file.
	var query string
	if !listQueries {
		if len(args) == 0 {
			return errors.New("query is required (use --list-queries to see tracked queries)")
		}
		query = args[0]
	}

	db, err := store.Open(config.XDGDataDir(), store.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	if listQueries {
		return listTrackedQueries(ctx, db)
	}

	listHistory, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if listHistory {
		return listSnapshotHistory(ctx, db, query)
	}

	cfg, err := buildTrendsConfig(cmd, query)
	if err != nil {
		return err
	}

	withSnapshotID, err := cmd.Flags().GetInt64("with-snapshot-id")
	if err != nil {
		return err
	}
	sinceDate, err := cmd.Flags().GetString("since")
	if err != nil {
		return err
	}

	return runTrendAnalysis(ctx, db, cfg, withSnapshotID, sinceDate)
}

// buildTrendsConfig creates an analysis Config from the trends flags.
// Fetch-related settings stay at their defaults; the command never
// touches the network.
func buildTrendsConfig(cmd *cobra.Command, query string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Query = query

	var err error
	cfg.TopN, err = cmd.Flags().GetInt("top")
	if err != nil {
		return nil, err
	}
	cfg.LookbackDays, err = cmd.Flags().GetInt("lookback")
	if err != nil {
		return nil, err
	}
	cfg.ReviewThreshold, err = cmd.Flags().GetInt("review-threshold")
	if err != nil {
		return nil, err
	}
	cfg.RankJumpThreshold, err = cmd.Flags().GetInt("rank-threshold")
	if err != nil {
		return nil, err
	}
	cfg.RatingDropThreshold, err = cmd.Flags().GetFloat64("rating-threshold")
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

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// listTrackedQueries lists all queries that have snapshots in the database.
func listTrackedQueries(ctx context.Context, db *store.TrendDB) error {
	queries, err := db.ListQueries(ctx)
	if err != nil {
		return fmt.Errorf("failed to list queries: %w", err)
	}

	if len(queries) == 0 {
		fmt.Println("No tracked queries found in the database.")
		fmt.Println("\nUse 'rivalreview watch <query>' to start tracking a query.")
		return nil
	}

	fmt.Printf("Tracked queries (%d):\n\n", len(queries))
	for _, q := range queries {
		fmt.Printf("  • %s\n", q)
	}
	fmt.Println("\nUse 'rivalreview trends --list <query>' to see snapshot history for a query.")

	return nil
}

// listSnapshotHistory lists all stored snapshots for a query.
func listSnapshotHistory(ctx context.Context, db *store.TrendDB, query string) error {
	entries, err := db.History(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to get snapshot history: %w", err)
	}

	if len(entries) == 0 {
		fmt.Printf("No snapshot history found for %q\n", query)
		fmt.Println("\nUse 'rivalreview watch' to capture a snapshot for this query.")
		return nil
	}

	fmt.Printf("Snapshot history for %q (%d snapshots):\n\n", query, len(entries))
	fmt.Printf("  %-6s  %-20s  %s\n", "ID", "Date", "Apps")
	fmt.Println("  " + strings.Repeat("-", 40))

	for _, entry := range entries {
		fmt.Printf("  %-6d  %-20s  %d\n",
			entry.ID,
			entry.CapturedAt.Format("2006-01-02 15:04:05"),
			entry.AppCount,
		)
	}

	fmt.Println("\nUse 'rivalreview trends <query>' to compare the latest two snapshots.")
	fmt.Println("Use 'rivalreview trends --with-snapshot-id <id> <query>' to compare with a specific snapshot.")

	return nil
}

// runTrendAnalysis selects the snapshots to compare and reports the
// analysis.
func runTrendAnalysis(ctx context.Context, db *store.TrendDB, cfg *config.Config, withSnapshotID int64, sinceDate string) error {
	entries, err := db.History(ctx, cfg.Query)
	if err != nil {
		return fmt.Errorf("failed to get snapshot history: %w", err)
	}

	if len(entries) == 0 {
		return fmt.Errorf("no snapshot history found for %q", cfg.Query)
	}
	if len(entries) < 2 && withSnapshotID == 0 && sinceDate == "" {
		return fmt.Errorf("at least 2 snapshots are required for comparison (found %d)", len(entries))
	}

	// The latest snapshot is always the current one.
	current, err := db.HistoryByID(ctx, entries[0].ID)
	if err != nil {
		return fmt.Errorf("failed to load latest snapshot: %w", err)
	}

	previous, err := selectBaseline(ctx, db, cfg.Query, entries, withSnapshotID, sinceDate)
	if err != nil {
		return err
	}
	if previous != nil && current != nil && previous.CapturedAt.Equal(current.CapturedAt) {
		return fmt.Errorf("selected baseline is the latest snapshot; nothing to compare")
	}

	reviewLog, err := db.ReviewLog(ctx)
	if err != nil {
		return fmt.Errorf("failed to load review log: %w", err)
	}

	analysis, err := trend.Classify(previous, current, reviewLog, cfg)
	if err != nil {
		return fmt.Errorf("failed to classify trends: %w", err)
	}

	return outputAnalysis(cfg, analysis)
}

// selectBaseline resolves the baseline snapshot for comparison from the
// --with-snapshot-id and --since flags, defaulting to the second-latest
// snapshot.
func selectBaseline(ctx context.Context, db *store.TrendDB, query string, entries []store.HistoryEntry, withSnapshotID int64, sinceDate string) (*model.Snapshot, error) {
	if withSnapshotID > 0 {
		snapshot, err := db.HistoryByID(ctx, withSnapshotID)
		if err != nil {
			return nil, fmt.Errorf("failed to get snapshot with ID %d: %w", withSnapshotID, err)
		}
		if snapshot == nil {
			return nil, fmt.Errorf("snapshot with ID %d not found", withSnapshotID)
		}
		if snapshot.Query != query {
			return nil, fmt.Errorf("snapshot ID %d belongs to %q, not %q", withSnapshotID, snapshot.Query, query)
		}
		return snapshot, nil
	}

	if sinceDate != "" {
		parsed, err := time.Parse("2006-01-02", sinceDate)
		if err != nil {
			return nil, fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}
		snapshot, err := db.HistorySince(ctx, query, parsed)
		if err != nil {
			return nil, fmt.Errorf("failed to get snapshot since %s: %w", sinceDate, err)
		}
		if snapshot == nil {
			return nil, fmt.Errorf("no snapshots found since %s", sinceDate)
		}
		return snapshot, nil
	}

	return db.HistoryByID(ctx, entries[1].ID)
}

// outputAnalysis writes the analysis in the requested format to stdout.
func outputAnalysis(cfg *config.Config, analysis *trend.Analysis) error {
	writer, closeFn, err := reportWriter(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	_, err = writer.Write(analysis)
	return err
}
