package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration from an optional file using viper.
// Precedence: CLI flags (applied by the caller) > environment > config
// file > defaults. Environment variables use the TBK_ prefix, e.g.
// TBK_RULES_FILE overrides rules.file.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("data.file", defaults.DataFile)
	v.SetDefault("data.url", defaults.DataURL)
	v.SetDefault("data.query", defaults.DataQuery)
	v.SetDefault("rules.file", defaults.RulesFile)
	v.SetDefault("cache.url", defaults.CacheURL)
	v.SetDefault("log.file", defaults.LogFile)

	v.SetEnvPrefix("TBK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return &Config{
		DataFile:  v.GetString("data.file"),
		DataURL:   v.GetString("data.url"),
		DataQuery: v.GetString("data.query"),
		RulesFile: v.GetString("rules.file"),
		CacheURL:  v.GetString("cache.url"),
		LogFile:   v.GetString("log.file"),
	}, nil
}
