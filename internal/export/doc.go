// Package export writes snapshot and review data to CSV files.
//
// Two kinds of files are produced: per-run exports stamped with the
// capture time, and append-only historical files that accumulate rows
// across runs for offline analysis.
package export
