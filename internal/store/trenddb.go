package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/erik-esparza/rival-review/internal/model"
)

// TrendDB provides SQLite-based storage for ranking snapshots and the
// review log. It manages connection pooling and provides methods for the
// load/save contract plus the append-only history queries.
//
// Design decision: We use a single database file for all queries rather
// than one file per search term. This keeps history queries and
// backup/restore trivial.
type TrendDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string

	// logger receives warning-level observations, such as a malformed
	// persisted snapshot being reset.
	logger *slog.Logger
}

// Options configures TrendDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// performance. Recommended for most use cases.
	EnableWAL bool

	// Logger is used for warning-level observations. Nil falls back to
	// slog.Default().
	Logger *slog.Logger
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a TrendDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is
// returned.
func Open(dbDir string, opts Options) (*TrendDB, error) {
	dbPath := filepath.Join(dbDir, "rivalreview.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; a single connection avoids lock
	// contention entirely.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tdb := &TrendDB{
		db:     db,
		dbPath: dbPath,
		logger: logger,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := tdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return tdb, nil
}

// Close closes the database connection.
func (tdb *TrendDB) Close() error {
	return tdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (tdb *TrendDB) createTables() error {
	schema := `
	-- Latest snapshot per query; overwritten on every run
	CREATE TABLE IF NOT EXISTS snapshots (
		query TEXT PRIMARY KEY,
		captured_at DATETIME NOT NULL,
		snapshot_json TEXT NOT NULL
	);

	-- Append-only log of every snapshot ever saved
	CREATE TABLE IF NOT EXISTS snapshot_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		query TEXT NOT NULL,
		captured_at DATETIME NOT NULL,
		snapshot_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_history_query ON snapshot_history(query);
	CREATE INDEX IF NOT EXISTS idx_history_captured ON snapshot_history(captured_at);

	-- Append-only review log; never mutated in place
	CREATE TABLE IF NOT EXISTS reviews (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		app_name TEXT NOT NULL,
		app_url TEXT,
		review_date DATETIME,
		star_rating REAL,
		overall_score REAL,
		content TEXT,
		collected_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reviews_app ON reviews(app_name);
	CREATE INDEX IF NOT EXISTS idx_reviews_date ON reviews(review_date);
	`

	_, err := tdb.db.ExecContext(context.Background(), schema)
	return err
}

// LoadPrevious returns the last-known snapshot for the query.
//
// It never fails the caller over state problems: when no prior snapshot
// exists, or the persisted row cannot be decoded, it returns an empty
// well-formed snapshot and (for the malformed case) logs a warning. A
// missing comparison baseline is recoverable; crashing loses the run.
func (tdb *TrendDB) LoadPrevious(ctx context.Context, query string) (*model.Snapshot, error) {
	row := tdb.db.QueryRowContext(ctx,
		`SELECT snapshot_json FROM snapshots WHERE query = ?`, query)

	var snapshotJSON string
	err := row.Scan(&snapshotJSON)
	if err == sql.ErrNoRows {
		return model.NewSnapshot(query), nil
	}
	if err != nil {
		// Infrastructure failure (closed database, I/O error) is a real
		// error; only state problems degrade to empty.
		return nil, fmt.Errorf("failed to load previous snapshot: %w", err)
	}

	var snapshot model.Snapshot
	if err := json.Unmarshal([]byte(snapshotJSON), &snapshot); err != nil {
		tdb.logger.Warn("persisted snapshot is malformed, resetting to empty baseline",
			"query", query,
			"error", err,
		)
		return model.NewSnapshot(query), nil
	}
	if snapshot.Apps == nil {
		snapshot.Apps = []model.App{}
	}
	return &snapshot, nil
}

// SaveCurrent persists the snapshot as the new baseline for its query and
// appends it to the history log. The baseline write is an idempotent
// overwrite: only one "previous" state survives per query.
func (tdb *TrendDB) SaveCurrent(ctx context.Context, snapshot *model.Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("cannot save nil snapshot")
	}

	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot: %w", err)
	}

	tx, err := tdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	_, err = tx.ExecContext(ctx, `
	INSERT INTO snapshots (query, captured_at, snapshot_json)
	VALUES (?, ?, ?)
	ON CONFLICT(query) DO UPDATE SET
		captured_at = excluded.captured_at,
		snapshot_json = excluded.snapshot_json
	`, snapshot.Query, snapshot.CapturedAt.UTC().Format(time.RFC3339), string(snapshotJSON))
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
	INSERT INTO snapshot_history (query, captured_at, snapshot_json)
	VALUES (?, ?, ?)
	`, snapshot.Query, snapshot.CapturedAt.UTC().Format(time.RFC3339), string(snapshotJSON))
	if err != nil {
		return fmt.Errorf("failed to append snapshot history: %w", err)
	}

	return tx.Commit()
}

// AppendReviews appends reviews to the historical review log.
func (tdb *TrendDB) AppendReviews(ctx context.Context, reviews []model.Review) error {
	if len(reviews) == 0 {
		return nil
	}

	tx, err := tdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO reviews (app_name, app_url, review_date, star_rating, overall_score, content, collected_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare review insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range reviews {
		var reviewDate any
		if r.Dated() {
			reviewDate = r.ReviewDate.UTC().Format(time.RFC3339)
		}
		var overall any
		if r.OverallScore != nil {
			overall = *r.OverallScore
		}
		if _, err := stmt.ExecContext(ctx,
			r.AppName, r.AppURL, reviewDate, r.StarRating, overall,
			r.Content, r.CollectedAt.UTC().Format(time.RFC3339),
		); err != nil {
			return fmt.Errorf("failed to append review for %s: %w", r.AppName, err)
		}
	}

	return tx.Commit()
}

// ReviewLog returns the full historical review log in insertion order.
func (tdb *TrendDB) ReviewLog(ctx context.Context) ([]model.Review, error) {
	rows, err := tdb.db.QueryContext(ctx, `
	SELECT app_name, app_url, review_date, star_rating, overall_score, content, collected_at
	FROM reviews
	ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query review log: %w", err)
	}
	defer rows.Close()

	var reviews []model.Review
	for rows.Next() {
		var (
			r           model.Review
			reviewDate  sql.NullString
			overall     sql.NullFloat64
			collectedAt string
		)
		if err := rows.Scan(&r.AppName, &r.AppURL, &reviewDate, &r.StarRating,
			&overall, &r.Content, &collectedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		if reviewDate.Valid {
			r.ReviewDate = parseTimestamp(reviewDate.String)
		}
		if overall.Valid {
			score := overall.Float64
			r.OverallScore = &score
		}
		r.CollectedAt = parseTimestamp(collectedAt)
		reviews = append(reviews, r)
	}

	return reviews, rows.Err()
}

// ListQueries returns all search queries with a persisted snapshot.
func (tdb *TrendDB) ListQueries(ctx context.Context) ([]string, error) {
	rows, err := tdb.db.QueryContext(ctx, `
	SELECT DISTINCT query FROM snapshot_history
	ORDER BY query
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list queries: %w", err)
	}
	defer rows.Close()

	var queries []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, fmt.Errorf("failed to scan query: %w", err)
		}
		queries = append(queries, q)
	}

	return queries, rows.Err()
}

// HistoryEntry describes one snapshot in the append-only history log.
type HistoryEntry struct {
	// ID is the history row identifier.
	ID int64

	// Query is the search term the snapshot was captured for.
	Query string

	// CapturedAt is when the snapshot was taken.
	CapturedAt time.Time

	// AppCount is the number of apps in the snapshot.
	AppCount int
}

// History returns the history entries for a query, newest first.
func (tdb *TrendDB) History(ctx context.Context, query string) ([]HistoryEntry, error) {
	rows, err := tdb.db.QueryContext(ctx, `
	SELECT id, query, captured_at, snapshot_json FROM snapshot_history
	WHERE query = ?
	ORDER BY captured_at DESC, id DESC
	`, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var (
			entry        HistoryEntry
			capturedAt   string
			snapshotJSON string
		)
		if err := rows.Scan(&entry.ID, &entry.Query, &capturedAt, &snapshotJSON); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entry.CapturedAt = parseTimestamp(capturedAt)

		var snapshot model.Snapshot
		if err := json.Unmarshal([]byte(snapshotJSON), &snapshot); err == nil {
			entry.AppCount = len(snapshot.Apps)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// HistoryByID returns a specific historical snapshot, or (nil, nil) when no
// entry with that ID exists.
func (tdb *TrendDB) HistoryByID(ctx context.Context, id int64) (*model.Snapshot, error) {
	row := tdb.db.QueryRowContext(ctx,
		`SELECT snapshot_json FROM snapshot_history WHERE id = ?`, id)

	var snapshotJSON string
	err := row.Scan(&snapshotJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get history entry %d: %w", id, err)
	}

	var snapshot model.Snapshot
	if err := json.Unmarshal([]byte(snapshotJSON), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse history entry %d: %w", id, err)
	}
	return &snapshot, nil
}

// HistorySince returns the oldest historical snapshot for the query captured
// at or after the given time, or (nil, nil) when none qualifies.
func (tdb *TrendDB) HistorySince(ctx context.Context, query string, since time.Time) (*model.Snapshot, error) {
	row := tdb.db.QueryRowContext(ctx, `
	SELECT snapshot_json FROM snapshot_history
	WHERE query = ? AND captured_at >= ?
	ORDER BY captured_at ASC, id ASC
	LIMIT 1
	`, query, since.UTC().Format(time.RFC3339))

	var snapshotJSON string
	err := row.Scan(&snapshotJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get history since %s: %w", since.Format("2006-01-02"), err)
	}

	var snapshot model.Snapshot
	if err := json.Unmarshal([]byte(snapshotJSON), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse history entry: %w", err)
	}
	return &snapshot, nil
}

// parseTimestamp parses timestamps stored by this package, tolerating the
// SQLite default format for rows written by older versions.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
