package cmd

import (
	"github.com/spf13/cobra"
)

var (
	configFile string
	cacheURL   string
	logFile    string
)

const Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:           "tablekeeper",
	Short:         "TableKeeper tabular data validator",
	Long:          `TableKeeper validates tabular datasets against a declarative rule sheet and reports every violating record.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&cacheURL, "cache-url", "", "snapshot cache database URL (sqlite://path or postgres://...)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "report log destination")
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		rootCmd.PrintErrln("Error:", err)
	}
	return err
}
