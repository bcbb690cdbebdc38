package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/qhkm/docfetch/internal/util"
	"github.com/spf13/cobra"
)

var (
	listLimit int
	listAll   bool
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List cached documentation entries",
	Long: `Lists cached documentation entries, newest first.

Examples:
  docfetch list           # Show recent entries
  docfetch list --all     # Show everything`,
	RunE: runList,
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 10, "Number of entries to show")
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "Show all entries")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	store, err := openCache()
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}

	entries := store.List()
	if len(entries) == 0 {
		fmt.Println("No cached documentation yet.")
		fmt.Println()
		fmt.Println("Run 'docfetch fetch <library>' to populate the cache.")
		return nil
	}

	// Apply limit
	displayCount := len(entries)
	if !listAll && listLimit > 0 && displayCount > listLimit {
		displayCount = listLimit
	}

	fmt.Printf("Found %d cached entry(s)", len(entries))
	if displayCount < len(entries) {
		fmt.Printf(" (showing %d)", displayCount)
	}
	fmt.Println()
	fmt.Println()

	headerColor := color.New(color.FgWhite, color.Bold)
	headerColor.Printf("%-18s  %-28s  %-16s  %s\n", "FINGERPRINT", "LIBRARY", "TIME", "INTENT")
	fmt.Println("─────────────────────────────────────────────────────────────────────────────")

	for _, entry := range entries[:displayCount] {
		timeStr := util.FormatTimeAgo(entry.CreatedAt)

		library := entry.LibraryID
		if entry.LibraryVersion != "" {
			library += "@" + entry.LibraryVersion
		}
		if len(library) > 28 {
			library = library[:25] + "..."
		}

		intent := entry.QueryIntent
		if intent == "" {
			intent = "-"
		}
		if len(intent) > 25 {
			intent = intent[:22] + "..."
		}

		fmt.Printf("%-18s  %-28s  %-16s  %s\n", entry.Fingerprint, library, timeStr, intent)
	}

	if displayCount < len(entries) {
		fmt.Println()
		fmt.Printf("Use 'docfetch list --all' or 'docfetch list -n %d' to see more.\n", len(entries))
	}

	return nil
}
