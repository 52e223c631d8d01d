package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/yangizzy/tablekeeper/internal/core/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending cache schema migrations",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	url, err := cacheConfigURL()
	if err != nil {
		return err
	}

	conn, err := db.Open(url)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := db.MigrateUp(conn); err != nil {
		return err
	}
	log.Printf("migrations applied")
	return nil
}
