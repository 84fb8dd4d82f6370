package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// The threshold defaults mirror the values the watcher was originally tuned
// with against the Shopify app store.
const (
	// DefaultSearchURL is the marketplace search endpoint. The query term
	// is appended as the q parameter and pages as the page parameter.
	DefaultSearchURL = "https://apps.shopify.com/search"

	// DefaultReviewThreshold is the minimum number of reviews inside the
	// lookback window before review growth is considered explosive.
	DefaultReviewThreshold = 10

	// DefaultRankJumpThreshold is the minimum rank improvement (old rank
	// minus new rank) before a jump alert fires. 5 positions filters out
	// the ordinary day-to-day shuffling of mid-table apps.
	DefaultRankJumpThreshold = 5

	// DefaultRatingDropThreshold is the minimum positive difference
	// between an app's overall score and its recent mean rating before a
	// rating decline is flagged.
	DefaultRatingDropThreshold = 0.2

	// DefaultTopN is the size of the tracked leaderboard.
	DefaultTopN = 5

	// DefaultLookbackDays is the trailing window, in days, over which
	// review activity is aggregated. The window anchors to the latest
	// observed review date rather than wall-clock time so a fixed log
	// always reproduces the same aggregation.
	DefaultLookbackDays = 30

	// DefaultUnknownRankSentinel is the rank assigned to an app that did
	// not appear in the previous snapshot. It must be strictly greater
	// than any page-derived rank so that fabricated history can never
	// look like an improvement.
	DefaultUnknownRankSentinel = 300

	// DefaultMaxRankAnalysis limits analysis to the first tracked pages
	// (15 pages at roughly 20 apps per page). Apps that vanish from the
	// listing default to this ceiling, and rank movement entirely outside
	// it is ignored.
	DefaultMaxRankAnalysis = 300

	// DefaultMaxPages caps search-result pagination. The marketplace
	// rarely serves more pages of organic results than this for a single
	// query.
	DefaultMaxPages = 15

	// DefaultFetchDelay is the politeness delay between page requests.
	// The marketplace throttles aggressive clients; five seconds matches
	// the cadence the site tolerates.
	DefaultFetchDelay = 5 * time.Second

	// DefaultTimeout is the HTTP timeout for a single page fetch.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent identifies rival-review in HTTP requests.
	DefaultUserAgent = "rival-review/1.0 (+https://github.com/erik-esparza/rival-review)"

	// DefaultMaxBodySize limits the response body size read per page.
	// 5MB is generous for marketplace HTML while bounding memory use.
	DefaultMaxBodySize = 5 * 1024 * 1024

	// DefaultReviewConcurrency is the number of apps whose review pages
	// are fetched concurrently.
	DefaultReviewConcurrency = 2

	// AppName is the application name used for XDG directory paths.
	AppName = "rival-review"
)

// Config holds all configuration options for rival-review.
// This struct is populated from CLI flags and the optional YAML file and
// passed through the application via dependency injection rather than
// global state.
//
// Design decision: the original tooling kept thresholds as module-level
// mutable constants, which made runs order-dependent and tests flaky. A
// single explicit structure passed at call time allows multiple threshold
// profiles and deterministic tests.
type Config struct {
	// Query is the marketplace search term whose ranking is tracked.
	Query string

	// SearchURL is the search endpoint to fetch rankings from.
	SearchURL string

	// ReviewThreshold is the minimum window review count to flag
	// explosive growth.
	ReviewThreshold int

	// RankJumpThreshold is the minimum rank change to flag a jump or,
	// symmetrically, a drop.
	RankJumpThreshold int

	// RatingDropThreshold is the minimum positive overall-minus-recent
	// rating difference to flag a decline.
	RatingDropThreshold float64

	// TopN is the size of the tracked leaderboard.
	TopN int

	// LookbackDays is the review aggregation window length in days.
	LookbackDays int

	// UnknownRankSentinel substitutes for a missing previous rank.
	// Kept distinct from MaxRankAnalysis: the two concepts coincide at
	// their defaults but are tuned independently.
	UnknownRankSentinel int

	// MaxRankAnalysis is the analysis ceiling. A vanished app's current
	// rank defaults to this value, and movement with neither endpoint
	// within the ceiling is ignored.
	MaxRankAnalysis int

	// MaxPages caps search-result pagination during fetching.
	MaxPages int

	// FetchDelay is the politeness delay between page requests.
	FetchDelay time.Duration

	// Timeout is the HTTP timeout for a single request.
	Timeout time.Duration

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// ReviewConcurrency is the number of apps whose reviews are fetched
	// concurrently.
	ReviewConcurrency int

	// FetchReviews controls whether review pages are scraped for the
	// current top-N apps during a watch run.
	FetchReviews bool

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// JSONReport enables JSON report output instead of the human-readable
	// format. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of the
	// human-readable format. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// CSVDir is the directory for CSV exports (per-run snapshot files and
	// the append-only historical logs). Empty disables CSV export.
	CSVDir string

	// DBDir is the directory holding the SQLite database.
	// Defaults to the XDG data directory.
	DBDir string

	// ConfigFilePath is the path to the configuration file. If empty, the
	// tool searches for .rivalreview in the current directory and then in
	// the user's home directory.
	ConfigFilePath string
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use
// cases; callers override specific values after creation.
func NewConfig() *Config {
	return &Config{
		SearchURL:           DefaultSearchURL,
		ReviewThreshold:     DefaultReviewThreshold,
		RankJumpThreshold:   DefaultRankJumpThreshold,
		RatingDropThreshold: DefaultRatingDropThreshold,
		TopN:                DefaultTopN,
		LookbackDays:        DefaultLookbackDays,
		UnknownRankSentinel: DefaultUnknownRankSentinel,
		MaxRankAnalysis:     DefaultMaxRankAnalysis,
		MaxPages:            DefaultMaxPages,
		FetchDelay:          DefaultFetchDelay,
		Timeout:             DefaultTimeout,
		UserAgent:           DefaultUserAgent,
		MaxBodySize:         DefaultMaxBodySize,
		ReviewConcurrency:   DefaultReviewConcurrency,
		FetchReviews:        true,
	}
}

// XDGDataDir returns the XDG data directory for rival-review.
// On Linux: ~/.local/share/rival-review
// On macOS: ~/Library/Application Support/rival-review
// On Windows: %LOCALAPPDATA%\rival-review
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for rival-review.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first error found: fixing one error often makes the
// others irrelevant.
func (c *Config) Validate() error {
	if c.Query == "" {
		return ErrNoQuery
	}
	if c.ReviewThreshold < 0 {
		return ErrInvalidReviewThreshold
	}
	if c.RankJumpThreshold < 0 {
		return ErrInvalidRankJumpThreshold
	}
	if c.RatingDropThreshold < 0 {
		return ErrInvalidRatingDropThreshold
	}
	if c.TopN <= 0 {
		return ErrInvalidTopN
	}
	if c.LookbackDays <= 0 {
		return ErrInvalidLookback
	}

	// The sentinels must exceed any real page-derived rank, otherwise a
	// genuinely ranked app could be mistaken for an unknown one.
	maxReal := c.MaxPages * 20
	if c.UnknownRankSentinel <= 0 || c.UnknownRankSentinel < maxReal {
		return ErrInvalidSentinel
	}
	if c.MaxRankAnalysis <= 0 {
		return ErrInvalidMaxRankAnalysis
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.FetchDelay < 0 {
		return ErrInvalidFetchDelay
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.ReviewConcurrency <= 0 {
		return ErrInvalidReviewConcurrency
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}
