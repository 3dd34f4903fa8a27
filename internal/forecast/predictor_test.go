package forecast

import (
	"fmt"
	"io"
	"math"
	"testing"
	"time"

	"github.com/kkaya/gmedash/internal/normalize"
	"github.com/kkaya/gmedash/pkg/logger"
)

// flatHistory builds nDays of 24-interval history at a constant price.
func flatHistory(nDays int, price float64) []normalize.Row {
	start := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)
	var rows []normalize.Row
	for d := 0; d < nDays; d++ {
		date := start.AddDate(0, 0, d).Format("2006-01-02")
		for h := 1; h <= 24; h++ {
			rows = append(rows, normalize.Row{Date: date, Interval: h, Price: price})
		}
	}
	return rows
}

func newPredictor() *Predictor {
	return NewPredictor(logger.NewWriter(io.Discard))
}

func TestPredictTooLittleHistory(t *testing.T) {
	points := newPredictor().Predict(flatHistory(2, 100)[:48], 2)
	if points != nil {
		t.Errorf("expected nil forecast for short history, got %d points", len(points))
	}
}

func TestPredictFlatSeries(t *testing.T) {
	points := newPredictor().Predict(flatHistory(5, 100), 2)

	if len(points) != 48 {
		t.Fatalf("expected 48 points (2 days x 24 intervals), got %d", len(points))
	}

	for _, pt := range points {
		if math.Abs(pt.Price-100) > 0.01 {
			t.Errorf("flat series forecast drifted: %+v", pt)
		}
	}

	// First forecast day follows the last history day
	if points[0].Date != "2024-11-06" {
		t.Errorf("first forecast date = %s, want 2024-11-06", points[0].Date)
	}
	if points[0].Interval != 1 {
		t.Errorf("first forecast interval = %d, want 1", points[0].Interval)
	}
}

func TestPredictFollowsTrend(t *testing.T) {
	// Daily mean rising by 10 per day must extrapolate upward.
	start := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)
	var rows []normalize.Row
	for d := 0; d < 5; d++ {
		date := start.AddDate(0, 0, d).Format("2006-01-02")
		for h := 1; h <= 24; h++ {
			rows = append(rows, normalize.Row{Date: date, Interval: h, Price: 100 + float64(d)*10})
		}
	}

	points := newPredictor().Predict(rows, 1)
	if len(points) != 24 {
		t.Fatalf("expected 24 points, got %d", len(points))
	}

	// History daily means end at 140; one more day of +10 trend lands
	// near 130 (baseline mean 120 + slope 10).
	want := 130.0
	if math.Abs(points[0].Price-want) > 0.5 {
		t.Errorf("trend forecast = %v, want about %v", points[0].Price, want)
	}
}

func TestPredictSeasonalShape(t *testing.T) {
	// Per-interval baseline must survive into the forecast: evening
	// peaks stay above night troughs.
	start := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)
	var rows []normalize.Row
	for d := 0; d < 4; d++ {
		date := start.AddDate(0, 0, d).Format("2006-01-02")
		for h := 1; h <= 24; h++ {
			price := 50.0
			if h >= 18 && h <= 21 {
				price = 150.0
			}
			rows = append(rows, normalize.Row{Date: date, Interval: h, Price: price})
		}
	}

	points := newPredictor().Predict(rows, 1)

	byInterval := make(map[int]float64)
	for _, pt := range points {
		byInterval[pt.Interval] = pt.Price
	}

	if byInterval[19] <= byInterval[3] {
		t.Errorf("peak interval 19 (%v) not above trough interval 3 (%v)",
			byInterval[19], byInterval[3])
	}
}

func TestPredictZeroDays(t *testing.T) {
	if points := newPredictor().Predict(flatHistory(5, 100), 0); points != nil {
		t.Errorf("expected nil forecast for 0 days, got %d points", len(points))
	}
}

func TestPredictUnorderedHistory(t *testing.T) {
	rows := flatHistory(5, 100)
	// Reverse the input; output must be unaffected.
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}

	points := newPredictor().Predict(rows, 1)
	if len(points) != 24 {
		t.Fatalf("expected 24 points, got %d", len(points))
	}
	if points[0].Date != "2024-11-06" {
		t.Errorf("first forecast date = %s, want 2024-11-06", points[0].Date)
	}
}

func ExamplePredictor_Predict() {
	p := NewPredictor(logger.NewWriter(io.Discard))
	points := p.Predict(flatHistory(5, 100), 1)
	fmt.Println(points[0].Date, points[0].Interval, points[0].Price)
	// Output: 2024-11-06 1 100
}
