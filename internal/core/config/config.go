// Package config provides configuration management for the TableKeeper CLI.
package config

import (
	"fmt"
	"strings"
)

// Config holds the validation run configuration.
// Data source is either a CSV file (DataFile) or a SQL query (DataURL +
// DataQuery); exactly one mode must be set when a run starts.
type Config struct {
	DataFile  string // CSV dataset path
	DataURL   string // database URL for the SQL dataset source
	DataQuery string // SQL query producing the dataset
	RulesFile string // rule sheet path (CSV or YAML)
	CacheURL  string // snapshot cache database URL; "" disables caching
	LogFile   string // report log destination
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		RulesFile: "data/rules.csv",
		CacheURL:  "sqlite://data/tablekeeper-cache.db",
		LogFile:   "log/validation-report.log",
	}
}

// Validate checks the loaded configuration before a run.
func (c *Config) Validate() error {
	if c.RulesFile == "" {
		return fmt.Errorf("rules file must be set")
	}
	if c.DataFile == "" && c.DataQuery == "" {
		return fmt.Errorf("either a data file or a data query must be set")
	}
	if c.DataFile != "" && c.DataQuery != "" {
		return fmt.Errorf("data file and data query are mutually exclusive")
	}
	if c.DataQuery != "" && c.DataURL == "" {
		return fmt.Errorf("data query requires a database URL")
	}
	if c.CacheURL != "" && !validScheme(c.CacheURL) {
		return fmt.Errorf("cache URL must use sqlite:// or postgres://, got %q", c.CacheURL)
	}
	if c.DataURL != "" && !validScheme(c.DataURL) {
		return fmt.Errorf("data URL must use sqlite:// or postgres://, got %q", c.DataURL)
	}
	return nil
}

func validScheme(url string) bool {
	return strings.HasPrefix(url, "sqlite://") || strings.HasPrefix(url, "postgres://")
}
