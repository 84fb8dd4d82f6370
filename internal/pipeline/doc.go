// Package pipeline orchestrates a watch run as an ordered sequence of
// steps: fetch the current ranking, load the stored baseline, collect
// reviews, classify trends, emit reports and exports, and persist the
// new snapshot as the next baseline.
//
// Each step implements the Step interface and mutates a shared Run
// value. Steps execute in order; the pipeline stops on the first error
// unless configured to continue.
package pipeline
