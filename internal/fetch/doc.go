// Package fetch implements the marketplace fetching collaborator.
//
// It retrieves paginated search results and per-app review pages over plain
// HTTP and parses them into the model types with goquery selectors. Rank
// assignment happens here: organic (non-ad) cards receive dense ranks in
// page order, ads never receive one.
//
// Fetching is deliberately unsophisticated: a politeness delay between
// requests, no retries, no backoff. Resilience against a hostile site is
// out of scope for this tool.
package fetch
