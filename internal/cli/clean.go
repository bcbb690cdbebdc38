package cli

import (
	"fmt"
	"time"

	"github.com/qhkm/docfetch/internal/util"
	"github.com/spf13/cobra"
)

var (
	cleanOlderThan string
	cleanDryRun    bool
	cleanAll       bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove cached documentation entries",
	Long: `Removes cached entries older than the specified duration, or everything
with --all.

Examples:
  docfetch clean --older-than 7d     # Remove entries older than 7 days
  docfetch clean --older-than 12h    # Remove entries older than 12 hours
  docfetch clean --all               # Empty the cache
  docfetch clean --older-than 7d --dry-run`,
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().StringVarP(&cleanOlderThan, "older-than", "o", "7d", "Duration (e.g., 7d, 24h, 30m)")
	cleanCmd.Flags().BoolVarP(&cleanDryRun, "dry-run", "d", false, "Show what would be deleted without deleting")
	cleanCmd.Flags().BoolVarP(&cleanAll, "all", "a", false, "Remove every cached entry")
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	store, err := openCache()
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}

	if cleanAll {
		if cleanDryRun {
			fmt.Printf("Would delete all %d cached entry(s).\n", store.Len())
			return nil
		}
		removed, err := store.Clear()
		if err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		printSuccess(fmt.Sprintf("Deleted %d cached entry(s)", removed))
		return nil
	}

	duration, err := parseDuration(cleanOlderThan)
	if err != nil {
		return fmt.Errorf("invalid duration: %s", cleanOlderThan)
	}

	if cleanDryRun {
		cutoff := time.Now().Add(-duration)
		toDelete := 0

		for _, entry := range store.List() {
			if entry.CreatedAt.Before(cutoff) {
				fmt.Printf("Would delete: %s %s (%s)\n", entry.Fingerprint, entry.LibraryID, util.FormatTimeAgo(entry.CreatedAt))
				toDelete++
			}
		}

		if toDelete == 0 {
			fmt.Println("No entries to delete.")
		} else {
			fmt.Printf("\nWould delete %d entry(s). Run without --dry-run to delete.\n", toDelete)
		}
		return nil
	}

	deleted, err := store.Prune(duration)
	if err != nil {
		return fmt.Errorf("failed to clean cache: %w", err)
	}

	if deleted == 0 {
		fmt.Println("No entries to clean.")
	} else {
		printSuccess(fmt.Sprintf("Deleted %d cached entry(s)", deleted))
	}

	return nil
}

func parseDuration(s string) (time.Duration, error) {
	// Handle day suffix (not supported by time.ParseDuration)
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour, nil
		}
	}

	return time.ParseDuration(s)
}
