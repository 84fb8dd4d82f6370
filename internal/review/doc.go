// Package review implements the review aggregator: it buckets the
// append-only historical review log into a trailing lookback window
// anchored at the latest observed review date and computes per-app counts
// and mean ratings over that window.
package review
