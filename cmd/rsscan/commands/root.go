package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	strategyFile string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rsscan",
	Short: "Relative strength screener for US equities",
	Long: `rsscan ranks every listed common stock by weighted multi-horizon
momentum relative to a benchmark and prints the top percentile.

Usage:
  go run ./cmd/rsscan [command]

Examples:
  go run ./cmd/rsscan scan
  go run ./cmd/rsscan scan --strategy config/strategy/us_rs_growth.yaml --format csv -o top.csv
  go run ./cmd/rsscan universe refresh
  go run ./cmd/rsscan serve --schedule`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "", "strategy YAML (default: STRATEGY_FILE or built-in)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
