package cli

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/qhkm/docfetch/internal/mcp"
	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools advertised by the documentation server",
	RunE:  runTools,
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}

func runTools(cmd *cobra.Command, args []string) error {
	return mcp.WithClient(newClient(), func(c *mcp.Client) error {
		tools := c.DiscoverTools()
		if len(tools) == 0 {
			printWarning("Server advertised no tools")
			return nil
		}

		names := make([]string, 0, len(tools))
		for name := range tools {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Printf("Server advertises %d tool(s)\n\n", len(tools))
		for _, name := range names {
			color.New(color.FgWhite, color.Bold).Println(name)
			if desc := tools[name].Description; desc != "" {
				fmt.Printf("  %s\n", desc)
			}
		}
		return nil
	})
}
