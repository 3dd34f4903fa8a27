package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	env     string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gmedash",
	Short: "GME market data client and dashboard",
	Long: `gmedash - Italian energy market data pipeline

Fetches published results from the GME public API, normalizes them
into flat hourly rows and serves them over a small dashboard API.

Usage:
  go run ./cmd/gmedash [command]

Examples:
  go run ./cmd/gmedash api
  go run ./cmd/gmedash fetch MGP --start 2024-11-01 --end 2024-11-07
  go run ./cmd/gmedash markets
  go run ./cmd/gmedash scheduler start`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&env, "env", "development", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
