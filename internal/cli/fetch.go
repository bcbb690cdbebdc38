package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/qhkm/docfetch/internal/cache"
	"github.com/qhkm/docfetch/internal/config"
	"github.com/qhkm/docfetch/internal/mcp"
	"github.com/spf13/cobra"
)

var (
	fetchVersion string
	fetchTopic   string
	fetchTokens  int
	fetchForce   bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <library>",
	Short: "Fetch documentation for a library and cache it",
	Long: `Resolves a library name against the documentation server, fetches its
docs and stores them in the local cache. If the cache already holds an
entry for the same (library, version, topic) triple, the server is not
contacted at all.

Examples:
  docfetch fetch fastapi
  docfetch fetch fastapi --topic routing
  docfetch fetch react --version 18 --topic hooks
  docfetch fetch fastapi --tokens 8000  # larger token budget
  docfetch fetch fastapi --force        # bypass the cache check`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVarP(&fetchVersion, "version", "v", "", "Library version")
	fetchCmd.Flags().StringVarP(&fetchTopic, "topic", "t", "", "Topic filter for the docs")
	fetchCmd.Flags().IntVar(&fetchTokens, "tokens", 0, "Token budget for the fetch (0 = configured default_tokens)")
	fetchCmd.Flags().BoolVarP(&fetchForce, "force", "f", false, "Fetch even if the cache has an entry")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	library := args[0]

	store, err := openCache()
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}

	// Cache-hit check happens here, before the client is ever spawned.
	// FetchAndCache itself never reads the cache.
	fingerprint := cache.Fingerprint(library, fetchVersion, fetchTopic)
	if !fetchForce {
		if entry := store.Get(fingerprint); entry != nil {
			printInfo(fmt.Sprintf("Cache hit for %s (%s)", library, fingerprint))
			fmt.Println(entry.Content.Text)
			return nil
		}
	}

	tokens := fetchTokens
	if tokens <= 0 {
		tokens = config.Get().DefaultTokens
	}

	var result *mcp.FetchResult
	err = mcp.WithClient(newClient(), func(c *mcp.Client) error {
		var err error
		result, err = c.FetchAndCache(library, fetchVersion, fetchTopic, tokens, store)
		return err
	})
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	switch result.Source {
	case mcp.SourceResolveFailed:
		printWarning(fmt.Sprintf("Could not resolve %q to a library id (%dms)", library, result.ElapsedMS))
	case mcp.SourceQueryFailed:
		printWarning(fmt.Sprintf("Resolved %s but got no documentation (%dms)", result.LibraryID, result.ElapsedMS))
	case mcp.SourceAPI:
		printSuccess(fmt.Sprintf("Cached docs for %s (%dms)", result.LibraryID, result.ElapsedMS))
		color.HiBlack("  fingerprint: %s", result.Fingerprint)
		if entry := store.Get(result.Fingerprint); entry != nil {
			fmt.Println(entry.Content.Text)
		}
	}

	return nil
}
