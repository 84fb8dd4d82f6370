// Package log provides logging utilities for rival-review.
// It contains a slog.Handler wrapper that truncates oversized attribute
// values, keeping scraped HTML fragments and review bodies from flooding
// the log output.
package log
