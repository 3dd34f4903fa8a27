package jobs

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/kkaya/gmedash/internal/aggregate"
	"github.com/kkaya/gmedash/internal/export"
	"github.com/kkaya/gmedash/internal/market"
	"github.com/kkaya/gmedash/pkg/config"
	"github.com/kkaya/gmedash/pkg/logger"
)

// CollectionJob fetches the previous day's results for the configured
// markets and writes one CSV snapshot per market under the data
// directory.
type CollectionJob struct {
	fetcher *aggregate.Fetcher
	cfg     config.SchedulerConfig
	logger  *logger.Logger
}

// NewCollectionJob creates the daily collection job
func NewCollectionJob(fetcher *aggregate.Fetcher, cfg config.SchedulerConfig, log *logger.Logger) *CollectionJob {
	return &CollectionJob{
		fetcher: fetcher,
		cfg:     cfg,
		logger:  log,
	}
}

// Name returns the job name
func (j *CollectionJob) Name() string {
	return "daily_collection"
}

// Schedule returns the cron expression
func (j *CollectionJob) Schedule() string {
	return j.cfg.CronSpec
}

// Run fetches yesterday's data for every configured market. A market
// that fails does not stop the others; the job reports failure when
// nothing could be collected at all.
func (j *CollectionJob) Run(ctx context.Context) error {
	day := time.Now().AddDate(0, 0, -1).Format("2006-01-02")

	dateRange, err := aggregate.ParseDateRange(day, day)
	if err != nil {
		return fmt.Errorf("build range for %s: %w", day, err)
	}

	var collected, failed int
	for _, id := range j.cfg.Markets {
		spec, err := market.Resolve(id)
		if err != nil {
			j.logger.WithError(err).WithField("market", id).Error("Skipping unknown market in schedule")
			failed++
			continue
		}

		result, err := j.fetcher.Fetch(ctx, spec, dateRange)
		if err != nil {
			j.logger.WithError(err).WithField("market", spec.ID).Error("Daily collection failed")
			failed++
			continue
		}

		if len(result.Rows) == 0 {
			j.logger.WithFields(map[string]interface{}{
				"market": spec.ID,
				"date":   day,
			}).Warn("No data published yet, skipping snapshot")
			continue
		}

		path := filepath.Join(j.cfg.DataDir, spec.ID, day+".csv")
		if err := export.SaveCSV(path, result.Rows); err != nil {
			j.logger.WithError(err).WithField("path", path).Error("Failed to write snapshot")
			failed++
			continue
		}

		j.logger.WithFields(map[string]interface{}{
			"market": spec.ID,
			"date":   day,
			"rows":   len(result.Rows),
			"path":   path,
		}).Info("Snapshot written")
		collected++
	}

	if collected == 0 && failed > 0 {
		return fmt.Errorf("daily collection produced no snapshots (%d markets failed)", failed)
	}

	return nil
}
