package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoQuery is returned when no search query is specified.
	// The query comes from the --query flag or the configuration file.
	ErrNoQuery = errors.New("no search query specified: use --query or set query in the config file")

	// ErrInvalidReviewThreshold is returned when the review threshold is negative.
	ErrInvalidReviewThreshold = errors.New("invalid review threshold: must be non-negative")

	// ErrInvalidRankJumpThreshold is returned when the rank jump threshold is negative.
	ErrInvalidRankJumpThreshold = errors.New("invalid rank jump threshold: must be non-negative")

	// ErrInvalidRatingDropThreshold is returned when the rating drop threshold is negative.
	ErrInvalidRatingDropThreshold = errors.New("invalid rating drop threshold: must be non-negative")

	// ErrInvalidTopN is returned when the leaderboard size is not positive.
	ErrInvalidTopN = errors.New("invalid top-n: must be positive")

	// ErrInvalidLookback is returned when the lookback window is not positive.
	// A window of zero days would make every aggregation empty.
	ErrInvalidLookback = errors.New("invalid lookback days: must be positive")

	// ErrInvalidSentinel is returned when the unknown-rank sentinel does not
	// exceed the largest possible page-derived rank. A sentinel inside the
	// real rank range would let fabricated history look like movement.
	ErrInvalidSentinel = errors.New("invalid unknown-rank sentinel: must exceed max-pages * 20")

	// ErrInvalidMaxRankAnalysis is returned when the analysis ceiling is not positive.
	ErrInvalidMaxRankAnalysis = errors.New("invalid max rank analysis: must be positive")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidFetchDelay is returned when the fetch delay is negative.
	// Use 0 for no delay between requests.
	ErrInvalidFetchDelay = errors.New("invalid fetch delay: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 to fall back to the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidReviewConcurrency is returned when the review fetch
	// concurrency is not positive.
	ErrInvalidReviewConcurrency = errors.New("invalid review concurrency: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
