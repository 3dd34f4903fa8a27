package commands

import (
	"fmt"

	"github.com/kkaya/gmedash/internal/aggregate"
	"github.com/kkaya/gmedash/internal/gme"
	"github.com/kkaya/gmedash/pkg/config"
	"github.com/kkaya/gmedash/pkg/httputil"
	"github.com/kkaya/gmedash/pkg/logger"
)

// loadConfig loads configuration and applies global CLI flags
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if env != "" {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	return cfg, nil
}

// buildFetcher wires the upstream client stack: rate-limited HTTP
// client, authenticated GME client, range fetcher.
func buildFetcher(cfg *config.Config, log *logger.Logger) *aggregate.Fetcher {
	httpClient := httputil.New(log, cfg.GME.Timeout).
		WithRateLimit(cfg.GME.RateLimit, cfg.GME.RateBurst)

	client := gme.NewClient(cfg.GME, httpClient, log)

	return aggregate.NewFetcher(client, log, cfg.Fetch.Concurrency)
}
