package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kkaya/gmedash/internal/gme"
	"github.com/kkaya/gmedash/pkg/httputil"
	"github.com/kkaya/gmedash/pkg/logger"
)

// quotasCmd represents the quotas command
var quotasCmd = &cobra.Command{
	Use:   "quotas",
	Short: "Show remaining upstream request quotas",
	RunE:  showQuotas,
}

func init() {
	rootCmd.AddCommand(quotasCmd)
}

func showQuotas(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.RequireCredentials(); err != nil {
		return err
	}

	log := logger.New(cfg)

	httpClient := httputil.New(log, cfg.GME.Timeout)
	client := gme.NewClient(cfg.GME, httpClient, log)

	quotas, err := client.Quotas(context.Background())
	if err != nil {
		return fmt.Errorf("fetch quotas: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(quotas)
}
