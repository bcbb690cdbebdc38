package cli

import (
	"fmt"

	"github.com/qhkm/docfetch/internal/mcp"
	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <name>",
	Short: "Resolve a library name to its documentation id",
	Long: `Asks the documentation server which library id a human-readable name
maps to, without fetching any docs.

Examples:
  docfetch resolve fastapi     # prints e.g. /tiangolo/fastapi`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	name := args[0]

	return mcp.WithClient(newClient(), func(c *mcp.Client) error {
		id, err := c.ResolveLibraryID(name)
		if err != nil {
			return err
		}
		if id == "" {
			printWarning(fmt.Sprintf("No library id found for %q", name))
			return nil
		}
		fmt.Println(id)
		return nil
	})
}
