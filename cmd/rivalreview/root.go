package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for rival-review.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rivalreview",
		Short: "Marketplace rank and review trend watcher",
		Long: `rival-review tracks app rankings and reviews for a marketplace search query.

Each watch run captures the current search ranking, compares it against
the previously stored snapshot, and flags notable movement: new apps,
ranking jumps and drops, leaderboard churn, review bursts, and rating
declines. Snapshots and reviews accumulate in a local SQLite database.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewWatchCmd())
	cmd.AddCommand(NewTrendsCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
