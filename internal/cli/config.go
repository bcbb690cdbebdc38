package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCmd = &cobra.Command{
	Use:   "config [get|set] [key] [value]",
	Short: "View or modify docfetch configuration",
	Long: `View or modify docfetch configuration settings.

Without arguments, shows all current settings.
Use 'get' to retrieve a specific setting.
Use 'set' to modify a setting.

Available settings:
  timeout_sec      Per-request timeout in seconds (default: 30)
  max_queries      Session-wide query budget (default: 10)
  default_tokens   Token budget per documentation fetch (default: 5000)
  max_entries      Cache bound, 0 for unbounded (default: 200)

Examples:
  docfetch config                      # Show all settings
  docfetch config get max_queries      # Get single value
  docfetch config set timeout_sec 60   # Set request timeout`,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

// configKeys defines valid config keys with descriptions
var configKeys = map[string]string{
	"timeout_sec":    "Per-request timeout in seconds",
	"max_queries":    "Session-wide query budget",
	"default_tokens": "Token budget per documentation fetch",
	"max_entries":    "Cache bound (0 = unbounded)",
	"docfetch_dir":   "docfetch data directory",
}

func runConfig(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		// Show all config
		return showAllConfig()
	}

	action := args[0]

	switch action {
	case "get":
		if len(args) < 2 {
			return fmt.Errorf("usage: docfetch config get <key>")
		}
		return getConfig(args[1])

	case "set":
		if len(args) < 3 {
			return fmt.Errorf("usage: docfetch config set <key> <value>")
		}
		return setConfig(args[1], args[2])

	default:
		// Treat as 'get' if it looks like a key
		if _, ok := configKeys[action]; ok {
			return getConfig(action)
		}
		return fmt.Errorf("unknown action: %s (use 'get' or 'set')", action)
	}
}

func showAllConfig() error {
	fmt.Println("docfetch Configuration")
	fmt.Println(strings.Repeat("─", 50))

	bold := color.New(color.Bold)

	bold.Println("\nClient:")
	fmt.Printf("  timeout_sec:    %v\n", viper.Get("timeout_sec"))
	fmt.Printf("  max_queries:    %v\n", viper.Get("max_queries"))
	fmt.Printf("  default_tokens: %v\n", viper.Get("default_tokens"))

	bold.Println("\nCache:")
	fmt.Printf("  max_entries:    %v\n", viper.Get("max_entries"))

	bold.Println("\nPaths:")
	fmt.Printf("  docfetch_dir:   %v\n", viper.Get("docfetch_dir"))

	server := viper.GetStringSlice("server_command")
	if len(server) > 0 {
		bold.Println("\nServer command:")
		fmt.Printf("  %s\n", strings.Join(server, " "))
	}

	fmt.Println()
	color.HiBlack("Config file: %s/config.yaml", viper.Get("docfetch_dir"))

	return nil
}

func getConfig(key string) error {
	// Validate key
	if _, ok := configKeys[key]; !ok {
		return fmt.Errorf("unknown config key: %s\n\nValid keys: %s",
			key, strings.Join(getValidKeys(), ", "))
	}

	value := viper.Get(key)
	fmt.Printf("%v\n", value)
	return nil
}

func setConfig(key, value string) error {
	// Validate key
	desc, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %s\n\nValid keys: %s",
			key, strings.Join(getValidKeys(), ", "))
	}

	// Don't allow changing docfetch_dir
	if key == "docfetch_dir" {
		return fmt.Errorf("docfetch_dir cannot be changed after initialization")
	}

	// Parse and validate value based on key type
	var parsedValue interface{}
	var err error

	switch key {
	case "timeout_sec", "max_queries", "default_tokens", "max_entries":
		parsedValue, err = strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s must be a number", key)
		}
		if parsedValue.(int) < 0 {
			return fmt.Errorf("%s must be non-negative", key)
		}

	default:
		parsedValue = value
	}

	// Set and save
	viper.Set(key, parsedValue)
	if err := viper.WriteConfig(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	color.Green("✓ Set %s = %v", key, parsedValue)
	color.HiBlack("  %s", desc)

	return nil
}

func getValidKeys() []string {
	keys := make([]string, 0, len(configKeys))
	for k := range configKeys {
		keys = append(keys, k)
	}
	return keys
}
