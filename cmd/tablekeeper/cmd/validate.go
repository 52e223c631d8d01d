package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yangizzy/tablekeeper/internal/core/config"
	"github.com/yangizzy/tablekeeper/internal/core/db"
	"github.com/yangizzy/tablekeeper/internal/dataset"
	"github.com/yangizzy/tablekeeper/internal/report"
	"github.com/yangizzy/tablekeeper/internal/rules"
	"github.com/yangizzy/tablekeeper/internal/types"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a dataset against a rule sheet",
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().String("data", "", "CSV dataset path")
	validateCmd.Flags().String("data-url", "", "database URL for a SQL dataset source")
	validateCmd.Flags().String("data-query", "", "SQL query producing the dataset")
	validateCmd.Flags().String("rules", "", "rule sheet path (CSV or YAML)")
	validateCmd.Flags().Bool("no-cache", false, "bypass the snapshot cache")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}

	ds, err := loadDataset(cfg)
	if err != nil {
		return err
	}
	log.Printf("dataset loaded: %d records, %d columns", ds.Len(), len(ds.Columns))

	defs, err := dataset.LoadRules(cfg.RulesFile)
	if err != nil {
		return err
	}
	log.Printf("rules loaded: %d rules from %s", len(defs), cfg.RulesFile)

	rep, err := rules.Run(defs, ds)
	if err != nil {
		return err
	}

	if err := writeReport(cfg, rep); err != nil {
		return err
	}

	if !rep.Passed() {
		return fmt.Errorf("validation failed: %d failed, %d errors of %d entries",
			rep.Summary.Failed, rep.Summary.Errors, rep.Summary.Total)
	}
	return nil
}

// loadRunConfig merges the config file, environment, and flags.
// Flags win over everything, matching viper precedence order.
func loadRunConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("data") {
		cfg.DataFile, _ = cmd.Flags().GetString("data")
	}
	if cmd.Flags().Changed("data-url") {
		cfg.DataURL, _ = cmd.Flags().GetString("data-url")
	}
	if cmd.Flags().Changed("data-query") {
		cfg.DataQuery, _ = cmd.Flags().GetString("data-query")
	}
	if cmd.Flags().Changed("rules") {
		cfg.RulesFile, _ = cmd.Flags().GetString("rules")
	}
	if cacheURL != "" {
		cfg.CacheURL = cacheURL
	}
	if logFile != "" {
		cfg.LogFile = logFile
	}
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cfg.CacheURL = ""
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDataset materializes the snapshot from the configured source.
// SQL sources are never cached: the query result has no stable fingerprint.
// A broken cache degrades to a direct load rather than failing the run.
func loadDataset(cfg *config.Config) (*types.Dataset, error) {
	if cfg.DataQuery != "" {
		conn, err := db.Open(cfg.DataURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open data source: %w", err)
		}
		defer conn.Close()
		return dataset.LoadSQL(conn, cfg.DataQuery)
	}

	if cfg.CacheURL == "" {
		return dataset.LoadCSV(cfg.DataFile)
	}

	cache, cleanup, err := openCache(cfg.CacheURL)
	if err != nil {
		log.Printf("cache unavailable (%v), loading directly", err)
		return dataset.LoadCSV(cfg.DataFile)
	}
	defer cleanup()

	ds, fromCache, err := dataset.LoadCSVCached(cache, cfg.DataFile)
	if err != nil {
		return nil, err
	}
	if fromCache {
		log.Printf("dataset served from cache")
	} else {
		log.Printf("dataset cached")
	}
	return ds, nil
}

// openCache opens and migrates the cache database.
func openCache(url string) (*dataset.Cache, func(), error) {
	conn, err := db.Open(url)
	if err != nil {
		return nil, nil, err
	}
	if err := db.MigrateUp(conn); err != nil {
		conn.Close()
		return nil, nil, err
	}
	cache, err := dataset.NewCache(conn)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return cache, func() { conn.Close() }, nil
}

// writeReport renders to stdout and appends the same text to the log file.
func writeReport(cfg *config.Config, rep *report.Report) error {
	if err := report.Render(os.Stdout, rep); err != nil {
		return err
	}

	if cfg.LogFile == "" {
		return nil
	}
	if dir := filepath.Dir(cfg.LogFile); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	if err := report.Render(f, rep); err != nil {
		return err
	}
	_, err = io.WriteString(f, "\n")
	return err
}
