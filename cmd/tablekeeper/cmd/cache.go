package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/yangizzy/tablekeeper/internal/core/config"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the snapshot cache",
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List cached dataset snapshots",
	RunE:  runCacheStatus,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop every cached snapshot",
	RunE:  runCacheClear,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

// cacheConfigURL resolves the cache URL from flags, environment, and file.
func cacheConfigURL() (string, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	if cacheURL != "" {
		cfg.CacheURL = cacheURL
	}
	if cfg.CacheURL == "" {
		return "", fmt.Errorf("no cache URL configured")
	}
	return cfg.CacheURL, nil
}

func runCacheStatus(cmd *cobra.Command, args []string) error {
	url, err := cacheConfigURL()
	if err != nil {
		return err
	}

	cache, cleanup, err := openCache(url)
	if err != nil {
		return err
	}
	defer cleanup()

	infos, err := cache.Snapshots()
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Println("cache is empty")
		return nil
	}
	for _, info := range infos {
		fmt.Printf("%s  %s  %d rows  cached %s\n",
			info.Fingerprint[:12], info.Source, info.RowCount, info.CachedAt)
	}
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	url, err := cacheConfigURL()
	if err != nil {
		return err
	}

	cache, cleanup, err := openCache(url)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := cache.Clear(); err != nil {
		return err
	}
	log.Printf("cache cleared")
	return nil
}
