package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kkaya/gmedash/internal/aggregate"
	"github.com/kkaya/gmedash/internal/export"
	"github.com/kkaya/gmedash/internal/market"
	"github.com/kkaya/gmedash/pkg/logger"
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch [market]",
	Short: "Fetch and normalize market data for a date range",
	Long: `Fetches published results for one market over a date range,
normalizes them and writes CSV to a file or stdout.

Example:
  go run ./cmd/gmedash fetch MGP --start 2024-11-01 --end 2024-11-07
  go run ./cmd/gmedash fetch MI-GAS --start 2024-11-01 --end 2024-11-01 --out migas.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

var (
	fetchStart string
	fetchEnd   string
	fetchOut   string
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVar(&fetchStart, "start", "", "start date (YYYY-MM-DD, default yesterday)")
	fetchCmd.Flags().StringVar(&fetchEnd, "end", "", "end date (YYYY-MM-DD, default start)")
	fetchCmd.Flags().StringVar(&fetchOut, "out", "", "output file (default stdout)")
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.RequireCredentials(); err != nil {
		return err
	}

	log := logger.New(cfg)

	spec, err := market.Resolve(args[0])
	if err != nil {
		return err
	}

	if fetchStart == "" {
		fetchStart = time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	}
	if fetchEnd == "" {
		fetchEnd = fetchStart
	}

	dateRange, err := aggregate.ParseDateRange(fetchStart, fetchEnd)
	if err != nil {
		return err
	}

	fetcher := buildFetcher(cfg, log)

	fmt.Fprintf(os.Stderr, "Fetching %s (%s) from %s to %s...\n", spec.ID, spec.Name, fetchStart, fetchEnd)

	result, err := fetcher.Fetch(context.Background(), spec, dateRange)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", spec.ID, err)
	}

	for _, failure := range result.Failures {
		fmt.Fprintf(os.Stderr, "⚠️  %s: %s\n", failure.Date, failure.Err)
	}

	if len(result.Rows) == 0 {
		return fmt.Errorf("no data returned for %s between %s and %s", spec.ID, fetchStart, fetchEnd)
	}

	if fetchOut != "" {
		if err := export.SaveCSV(fetchOut, result.Rows); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "✅ Wrote %d rows to %s\n", len(result.Rows), fetchOut)
		return nil
	}

	return export.WriteCSV(os.Stdout, result.Rows)
}
