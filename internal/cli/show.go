package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/qhkm/docfetch/internal/cache"
	"github.com/qhkm/docfetch/internal/util"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <fingerprint|library>",
	Short: "Print a cached documentation entry",
	Long: `Prints the full text of a cached entry, looked up by fingerprint or by
library name (most recent entry wins on a name match).

Examples:
  docfetch show 9f2c1a84be7d3e01
  docfetch show fastapi`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	query := args[0]

	store, err := openCache()
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}

	entry := findEntry(store, query)
	if entry == nil {
		return fmt.Errorf("no cached entry matches %q", query)
	}

	color.New(color.FgCyan, color.Bold).Printf("%s", entry.LibraryID)
	if entry.LibraryVersion != "" {
		fmt.Printf(" @ %s", entry.LibraryVersion)
	}
	fmt.Println()
	color.HiBlack("fingerprint: %s  cached: %s  tokens: %d",
		entry.Fingerprint, util.FormatTimeAgo(entry.CreatedAt), entry.Content.Tokens)
	if entry.QueryIntent != "" {
		color.HiBlack("intent: %s", entry.QueryIntent)
	}
	fmt.Println()
	fmt.Println(entry.Content.Text)

	if len(entry.Citations) > 0 {
		fmt.Println()
		color.New(color.Bold).Println("Citations:")
		for _, c := range entry.Citations {
			fmt.Printf("  - %s\n", c)
		}
	}

	return nil
}

// findEntry matches an exact fingerprint first, then falls back to the most
// recent entry whose library name or id contains the query.
func findEntry(store *cache.Manager, query string) *cache.Entry {
	if entry := store.Get(query); entry != nil {
		return entry
	}

	lowered := strings.ToLower(query)
	for _, entry := range store.List() {
		if strings.Contains(strings.ToLower(entry.LibraryName), lowered) ||
			strings.Contains(strings.ToLower(entry.LibraryID), lowered) {
			return entry
		}
	}
	return nil
}
