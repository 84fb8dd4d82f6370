// Package rank implements the rank diff engine: it merges the previous and
// current snapshots of a ranked listing into a unified table keyed by app
// name, fills missing ranks with the configured sentinels, and derives the
// rank-movement views (jumps, drops, top-N entrants and evictees) that feed
// the trend classifier.
package rank
