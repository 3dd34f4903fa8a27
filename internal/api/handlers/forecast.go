package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/kkaya/gmedash/internal/forecast"
	"github.com/kkaya/gmedash/internal/normalize"
	"github.com/kkaya/gmedash/pkg/logger"
)

// ForecastHandler serves price forecasts built from caller-supplied
// history
type ForecastHandler struct {
	predictor *forecast.Predictor
	logger    *logger.Logger
}

// NewForecastHandler creates a new forecast handler
func NewForecastHandler(predictor *forecast.Predictor, log *logger.Logger) *ForecastHandler {
	return &ForecastHandler{
		predictor: predictor,
		logger:    log,
	}
}

type forecastRequest struct {
	History []normalize.Row `json:"history"`
	Days    int             `json:"days"`
}

// Forecast extends the supplied history by the requested number of days
// POST /api/forecast
func (h *ForecastHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	var req forecastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Days <= 0 {
		req.Days = 1
	}
	if req.Days > 7 {
		respondError(w, http.StatusBadRequest, "days must be between 1 and 7")
		return
	}

	points := h.predictor.Predict(req.History, req.Days)
	if len(points) == 0 {
		respondError(w, http.StatusUnprocessableEntity, "Not enough history to build a forecast")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"forecast": points,
		"count":    len(points),
	})
}
