// Package store provides SQLite-based persistence for rival-review.
//
// It implements three pieces of state:
//   - the snapshot store: the single last-known ranking snapshot per query,
//     overwritten on every run
//   - the snapshot history: an append-only log of every snapshot ever saved
//   - the review log: the append-only historical review stream
//
// Loading the previous snapshot never fails the caller: a missing or
// malformed baseline degrades to an empty snapshot, because everything
// looking "new" is recoverable while aborting the run is not.
package store
