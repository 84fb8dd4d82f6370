// Package main provides the entry point for the rival-review CLI.
//
// rival-review tracks app rankings and reviews for a marketplace search
// query. It compares the current ranking against the previously stored
// snapshot and flags notable movement: new apps, ranking jumps and
// drops, leaderboard churn, review bursts, and rating declines.
//
// Usage:
//
//	rivalreview watch <query>
//	rivalreview trends <query>
//
// See --help for all available options.
package main

// main is the entry point for rival-review.
func main() {
	Execute()
}
