package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kkaya/gmedash/internal/aggregate"
	"github.com/kkaya/gmedash/internal/gme"
	"github.com/kkaya/gmedash/internal/market"
	"github.com/kkaya/gmedash/pkg/logger"
)

// RangeFetcher runs the full fetch pipeline for one market and range.
// *aggregate.Fetcher satisfies it.
type RangeFetcher interface {
	Fetch(ctx context.Context, spec market.Spec, dateRange aggregate.DateRange) (aggregate.Result, error)
}

// PriceDataHandler serves aggregated market data
type PriceDataHandler struct {
	fetcher RangeFetcher
	logger  *logger.Logger
}

// NewPriceDataHandler creates a new price data handler
func NewPriceDataHandler(fetcher RangeFetcher, log *logger.Logger) *PriceDataHandler {
	return &PriceDataHandler{
		fetcher: fetcher,
		logger:  log,
	}
}

type priceDataRequest struct {
	Type      string `json:"type"`
	Market    string `json:"market"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// Get fetches normalized rows for a market over a date range
// POST /api/price-data
func (h *PriceDataHandler) Get(w http.ResponseWriter, r *http.Request) {
	var req priceDataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Market == "" || req.StartDate == "" || req.EndDate == "" {
		respondError(w, http.StatusBadRequest, "market, start_date and end_date are required")
		return
	}

	spec, err := market.Resolve(req.Market)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// The commodity group is derivable from the market id; when the
	// caller sends one anyway it has to agree.
	if req.Type != "" && req.Type != string(spec.Type) {
		respondError(w, http.StatusBadRequest, "market does not belong to the requested type")
		return
	}

	dateRange, err := aggregate.ParseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"market": spec.ID,
		"start":  req.StartDate,
		"end":    req.EndDate,
	}).Info("Fetching price data")

	result, err := h.fetcher.Fetch(r.Context(), spec, dateRange)
	if err != nil {
		var authErr *gme.AuthenticationError
		if errors.As(err, &authErr) {
			respondError(w, http.StatusUnauthorized, "GME API authentication failed, check credentials")
			return
		}
		h.logger.WithError(err).Error("Range fetch failed")
		respondError(w, http.StatusInternalServerError, "Failed to fetch price data")
		return
	}

	if len(result.Rows) == 0 {
		respondJSON(w, http.StatusNotFound, map[string]interface{}{
			"error":    "No data found for the specified date range",
			"failures": result.Failures,
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"data":     result.Rows,
		"count":    len(result.Rows),
		"failures": result.Failures,
		"skipped":  result.Skipped,
	})
}
