package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/qhkm/docfetch/internal/cache"
	"github.com/qhkm/docfetch/internal/config"
	"github.com/qhkm/docfetch/internal/mcp"
	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "docfetch",
		Short: "Fetch and cache library documentation via Context7",
		Long: `docfetch resolves library names against a Context7 MCP documentation
server and caches the fetched docs locally, keyed by a fingerprint of
(library, version, intent). Repeated fetches for the same triple hit the
cache and never touch the server.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.Init()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	version = "0.1.0"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("docfetch v%s\n", version)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		exitWithError(err.Error())
	}
}

// newClient builds a client over the configured server command.
func newClient() *mcp.Client {
	cfg := config.Get()
	return mcp.NewClient(mcp.NewStdioTransport(cfg.ServerCommand), mcp.Options{
		Timeout:    time.Duration(cfg.TimeoutSec) * time.Second,
		MaxQueries: cfg.MaxQueries,
	})
}

// openCache opens the configured cache directory.
func openCache() (*cache.Manager, error) {
	cfg := config.Get()
	return cache.NewManager(config.GetCacheDir(), cfg.MaxEntries)
}

// Helper functions for colored output
func printSuccess(msg string) {
	color.Green("✓ %s", msg)
}

func printWarning(msg string) {
	color.Yellow("! %s", msg)
}

func printError(msg string) {
	color.Red("✗ %s", msg)
}

func printInfo(msg string) {
	color.Cyan("→ %s", msg)
}

func exitWithError(msg string) {
	printError(msg)
	os.Exit(1)
}
