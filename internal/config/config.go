package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

type Config struct {
	DocfetchDir   string   `mapstructure:"docfetch_dir"`
	ServerCommand []string `mapstructure:"server_command"`
	TimeoutSec    int      `mapstructure:"timeout_sec"`
	MaxQueries    int      `mapstructure:"max_queries"`
	DefaultTokens int      `mapstructure:"default_tokens"`
	MaxEntries    int      `mapstructure:"max_entries"`
}

var cfg *Config

func Init() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	docfetchDir := filepath.Join(homeDir, ".docfetch")

	// Create docfetch directory if it doesn't exist
	if err := os.MkdirAll(docfetchDir, 0755); err != nil {
		return err
	}

	// Create cache directory
	cacheDir := filepath.Join(docfetchDir, "cache")
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return err
	}

	viper.SetDefault("docfetch_dir", docfetchDir)
	viper.SetDefault("server_command", []string{"npx", "-y", "@upstash/context7-mcp"})
	viper.SetDefault("timeout_sec", 30)
	viper.SetDefault("max_queries", 10)
	viper.SetDefault("default_tokens", 5000)
	viper.SetDefault("max_entries", 200)

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(docfetchDir)

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
		// Config file not found, create default one
		if err := viper.SafeWriteConfigAs(filepath.Join(docfetchDir, "config.yaml")); err != nil {
			// Ignore if file already exists
			if _, ok := err.(viper.ConfigFileAlreadyExistsError); !ok {
				return err
			}
		}
	}

	cfg = &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return err
	}

	return nil
}

func Get() *Config {
	if cfg == nil {
		Init()
	}
	return cfg
}

func GetDocfetchDir() string {
	return Get().DocfetchDir
}

func GetCacheDir() string {
	return filepath.Join(GetDocfetchDir(), "cache")
}
