package forecast

import (
	"sort"
	"time"

	"github.com/kkaya/gmedash/internal/normalize"
	"github.com/kkaya/gmedash/pkg/logger"
)

// minHistoryPoints is the minimum history needed before producing a
// forecast; below that the result is empty rather than noise.
const minHistoryPoints = 72

// Point is one forecast output row.
type Point struct {
	Date     string  `json:"date"`
	Interval int     `json:"interval"`
	Price    float64 `json:"price"`
}

// Predictor produces hourly price forecasts from normalized history.
// It blends a per-interval seasonal baseline with a linear
// day-over-day trend of the daily means.
type Predictor struct {
	lookbackDays int
	logger       *logger.Logger
}

// NewPredictor creates a predictor with the default lookback.
func NewPredictor(log *logger.Logger) *Predictor {
	return &Predictor{
		lookbackDays: 14,
		logger:       log,
	}
}

// Predict extends the history by the requested number of days. History
// rows may arrive unordered; they are bucketed by date internally.
func (p *Predictor) Predict(history []normalize.Row, days int) []Point {
	if len(history) < minHistoryPoints || days <= 0 {
		p.logger.WithFields(map[string]interface{}{
			"points": len(history),
			"needed": minHistoryPoints,
		}).Warn("Not enough history for a forecast")
		return nil
	}

	dates, byDate := bucketByDate(history)
	if len(dates) < 2 {
		return nil
	}

	// Keep only the lookback window
	if len(dates) > p.lookbackDays {
		dates = dates[len(dates)-p.lookbackDays:]
	}

	baseline := intervalBaseline(dates, byDate)
	slope := dailyTrend(dates, byDate)

	lastDate, err := time.Parse("2006-01-02", dates[len(dates)-1])
	if err != nil {
		p.logger.WithError(err).Error("History has unparseable dates")
		return nil
	}

	intervals := sortedIntervals(baseline)

	var out []Point
	for d := 1; d <= days; d++ {
		date := lastDate.AddDate(0, 0, d).Format("2006-01-02")
		for _, interval := range intervals {
			out = append(out, Point{
				Date:     date,
				Interval: interval,
				Price:    round2(baseline[interval] + slope*float64(d)),
			})
		}
	}

	p.logger.WithFields(map[string]interface{}{
		"history_days": len(dates),
		"forecast":     len(out),
		"slope":        slope,
	}).Debug("Forecast generated")

	return out
}

func bucketByDate(history []normalize.Row) ([]string, map[string][]normalize.Row) {
	byDate := make(map[string][]normalize.Row)
	for _, row := range history {
		byDate[row.Date] = append(byDate[row.Date], row)
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates, byDate
}

// intervalBaseline is the mean price per intraday interval over the
// window.
func intervalBaseline(dates []string, byDate map[string][]normalize.Row) map[int]float64 {
	sums := make(map[int]float64)
	counts := make(map[int]int)
	for _, d := range dates {
		for _, row := range byDate[d] {
			sums[row.Interval] += row.Price
			counts[row.Interval]++
		}
	}

	baseline := make(map[int]float64, len(sums))
	for interval, sum := range sums {
		baseline[interval] = sum / float64(counts[interval])
	}
	return baseline
}

// dailyTrend is the least-squares slope of the daily mean prices.
func dailyTrend(dates []string, byDate map[string][]normalize.Row) float64 {
	n := len(dates)
	if n < 2 {
		return 0
	}

	means := make([]float64, n)
	for i, d := range dates {
		var sum float64
		for _, row := range byDate[d] {
			sum += row.Price
		}
		means[i] = sum / float64(len(byDate[d]))
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range means {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := float64(n)*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (float64(n)*sumXY - sumX*sumY) / denom
}

func sortedIntervals(baseline map[int]float64) []int {
	intervals := make([]int, 0, len(baseline))
	for i := range baseline {
		intervals = append(intervals, i)
	}
	sort.Ints(intervals)
	return intervals
}

func round2(v float64) float64 {
	if v < 0 {
		return float64(int64(v*100-0.5)) / 100
	}
	return float64(int64(v*100+0.5)) / 100
}
