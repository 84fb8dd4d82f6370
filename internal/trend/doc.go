// Package trend implements the trend classifier. It combines the rank diff
// engine's unified table with the review aggregator's window table and
// evaluates both against the configured thresholds, producing the typed
// alert list.
//
// The classification is a pure transform: (previous, current, review log,
// config) in, analysis out. No state survives between runs; alerts are
// recomputed from scratch every time.
package trend
