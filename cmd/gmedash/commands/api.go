package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kkaya/gmedash/internal/api"
	"github.com/kkaya/gmedash/internal/api/handlers"
	"github.com/kkaya/gmedash/internal/forecast"
	"github.com/kkaya/gmedash/pkg/logger"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the dashboard API server",
	Long: `Starts the REST API server backing the dashboard.

Endpoints:
  GET  /health           - Health check
  GET  /api/markets      - Supported markets grouped by commodity
  POST /api/price-data   - Fetch normalized rows for a market and range
  POST /api/forecast     - Price forecast from supplied history
  POST /api/export       - CSV download of normalized rows

Example:
  go run ./cmd/gmedash api
  go run ./cmd/gmedash api --port 8089`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.RequireCredentials(); err != nil {
		return err
	}

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// 3. Wire the fetch pipeline
	fetcher := buildFetcher(cfg, log)

	// 4. Create handlers
	marketsHandler := handlers.NewMarketsHandler(log)
	priceHandler := handlers.NewPriceDataHandler(fetcher, log)
	forecastHandler := handlers.NewForecastHandler(forecast.NewPredictor(log), log)
	exportHandler := handlers.NewExportHandler(log)

	// 5. Create router and server
	router := api.NewRouter(marketsHandler, priceHandler, forecastHandler, exportHandler, log)
	server := api.New(cfg, log, router)

	// 6. Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  GET  /api/markets")
	fmt.Println("  POST /api/price-data")
	fmt.Println("  POST /api/forecast")
	fmt.Println("  POST /api/export")
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
