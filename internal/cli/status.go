package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/qhkm/docfetch/internal/config"
	"github.com/qhkm/docfetch/internal/util"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show docfetch status and cache statistics",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	// Header
	color.New(color.FgCyan, color.Bold).Println("docfetch Status")
	fmt.Println("────────────────────────────────")

	// Configuration
	fmt.Printf("Config directory: %s\n", cfg.DocfetchDir)
	fmt.Printf("Server command:   %s\n", strings.Join(cfg.ServerCommand, " "))
	fmt.Printf("Request timeout:  %ds\n", cfg.TimeoutSec)
	fmt.Printf("Query budget:     %d per session\n", cfg.MaxQueries)
	fmt.Printf("Cache bound:      %d entries\n", cfg.MaxEntries)
	fmt.Println()

	// Cache statistics
	store, err := openCache()
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}

	entries := store.List()
	fmt.Printf("Cached entries: %d\n", len(entries))

	if len(entries) > 0 {
		usage, _ := store.DiskUsage()
		fmt.Printf("Storage used:   %s\n", util.FormatBytes(usage))
		fmt.Println()

		latest := entries[0]
		color.New(color.FgWhite, color.Bold).Println("Latest entry:")
		fmt.Printf("  Fingerprint: %s\n", latest.Fingerprint)
		fmt.Printf("  Library:     %s\n", latest.LibraryID)
		if latest.QueryIntent != "" {
			fmt.Printf("  Intent:      %s\n", latest.QueryIntent)
		}
		fmt.Printf("  Time:        %s\n", util.FormatTimeAgo(latest.CreatedAt))
	} else {
		fmt.Println()
		fmt.Println("Cache is empty. Run 'docfetch fetch <library>' to populate it.")
	}

	return nil
}
