// Package model defines the core data structures used throughout rival-review.
//
// This package contains the following main types:
//   - App: A single listed item in a marketplace search result
//   - Snapshot: One point-in-time capture of the ranked listing
//   - Review: A single merchant review for an app
//   - Alert: A typed trend signal emitted by the classifier
//   - RankRow / ReviewWindowRow: Rows of the analysis tables handed to report writers
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (fetch, rank, review, trend, store, report)
// need to use these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
