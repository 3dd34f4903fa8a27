package aggregate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kkaya/gmedash/internal/gme"
	"github.com/kkaya/gmedash/internal/market"
	"github.com/kkaya/gmedash/internal/normalize"
	"github.com/kkaya/gmedash/pkg/logger"
)

// Source fetches the raw records for one (segment, dataName, day).
// *gme.Client satisfies it.
type Source interface {
	RequestData(ctx context.Context, segment, dataName string, day time.Time) ([]normalize.RawRecord, error)
}

// DateRange is an inclusive calendar day range.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseDateRange builds a range from ISO date strings.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := time.Parse("2006-01-02", start)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	e, err := time.Parse("2006-01-02", end)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid end date %q: %w", end, err)
	}
	if e.Before(s) {
		return DateRange{}, fmt.Errorf("end date %s before start date %s", end, start)
	}
	return DateRange{Start: s, End: e}, nil
}

// Days returns every calendar day in the range, inclusive.
func (r DateRange) Days() []time.Time {
	var days []time.Time
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// DayFailure records one calendar day whose fetch failed. The rest of
// the range is still returned.
type DayFailure struct {
	Date string `json:"date"`
	Err  string `json:"error"`
}

// Result is the aggregated output for one logical fetch.
type Result struct {
	Rows     []normalize.Row
	Failures []DayFailure
	Skipped  int // records dropped for missing dates
}

// Fetcher runs the decode+normalize pipeline across a date range.
type Fetcher struct {
	source      Source
	logger      *logger.Logger
	concurrency int
}

// NewFetcher creates a range fetcher. Concurrency bounds the number of
// in-flight day requests; the upstream quota is enforced separately by
// the HTTP client's limiter.
func NewFetcher(source Source, log *logger.Logger, concurrency int) *Fetcher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Fetcher{
		source:      source,
		logger:      log,
		concurrency: concurrency,
	}
}

// dayResult keeps per-day output in a slot indexed by day so the final
// order is independent of arrival order.
type dayResult struct {
	rows    []normalize.Row
	skipped int
	failure *DayFailure
	abort   error
}

// Fetch retrieves, normalizes and orders all rows for one market over
// a date range. Per-record date defects are skipped with a warning;
// per-day fetch errors accumulate as partial failures; authentication
// errors abort the whole fetch.
func (f *Fetcher) Fetch(ctx context.Context, spec market.Spec, dateRange DateRange) (Result, error) {
	days := dateRange.Days()
	slots := make([]dayResult, len(days))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, f.concurrency)
	var wg sync.WaitGroup

	for i, day := range days {
		wg.Add(1)
		go func(i int, day time.Time) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				slots[i].abort = ctx.Err()
				return
			}
			defer func() { <-sem }()

			slots[i] = f.fetchDay(ctx, spec, day)
			if slots[i].abort != nil {
				cancel() // authentication failure: stop remaining days
			}
		}(i, day)
	}

	wg.Wait()

	var result Result
	for _, slot := range slots {
		if slot.abort != nil {
			if errors.Is(slot.abort, context.Canceled) {
				continue
			}
			return Result{}, slot.abort
		}
		if slot.failure != nil {
			result.Failures = append(result.Failures, *slot.failure)
			continue
		}
		result.Rows = append(result.Rows, slot.rows...)
		result.Skipped += slot.skipped
	}

	// Deterministic ordering regardless of arrival order: date, then
	// interval; stable so same-slot ties keep upstream order.
	sort.SliceStable(result.Rows, func(a, b int) bool {
		if result.Rows[a].Date != result.Rows[b].Date {
			return result.Rows[a].Date < result.Rows[b].Date
		}
		return result.Rows[a].Interval < result.Rows[b].Interval
	})

	f.logger.WithFields(map[string]interface{}{
		"market":   spec.ID,
		"days":     len(days),
		"rows":     len(result.Rows),
		"failures": len(result.Failures),
		"skipped":  result.Skipped,
	}).Info("Range fetch complete")

	return result, nil
}

// fetchDay runs one upstream call and normalizes its records.
func (f *Fetcher) fetchDay(ctx context.Context, spec market.Spec, day time.Time) dayResult {
	dateStr := day.Format("2006-01-02")

	records, err := f.source.RequestData(ctx, spec.Segment, spec.DataName, day)
	if err != nil {
		var authErr *gme.AuthenticationError
		if errors.As(err, &authErr) {
			return dayResult{abort: err}
		}
		if errors.Is(err, context.Canceled) {
			return dayResult{abort: err}
		}

		f.logger.WithError(err).WithFields(map[string]interface{}{
			"market": spec.ID,
			"date":   dateStr,
		}).Warn("Day fetch failed")

		return dayResult{failure: &DayFailure{Date: dateStr, Err: err.Error()}}
	}

	var out dayResult
	for _, rec := range records {
		row, err := normalize.Normalize(rec, spec.Kind)
		if err != nil {
			// One defective record must not abort the day.
			out.skipped++
			f.logger.WithError(err).WithFields(map[string]interface{}{
				"market": spec.ID,
				"date":   dateStr,
			}).Warn("Skipping record")
			continue
		}
		if row.Date == "" {
			row.Date = dateStr
		}
		out.rows = append(out.rows, row)
	}

	return out
}
