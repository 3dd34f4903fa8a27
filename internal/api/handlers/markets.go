package handlers

import (
	"net/http"

	"github.com/kkaya/gmedash/internal/market"
	"github.com/kkaya/gmedash/pkg/logger"
)

// MarketsHandler serves the supported market listing
type MarketsHandler struct {
	logger *logger.Logger
}

// NewMarketsHandler creates a new markets handler
func NewMarketsHandler(log *logger.Logger) *MarketsHandler {
	return &MarketsHandler{logger: log}
}

type marketEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// List returns the market table grouped by commodity
// GET /api/markets
func (h *MarketsHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string][]marketEntry{
		"electricity":   entries(market.ByType(market.TypeElectricity)),
		"gas":           entries(market.ByType(market.TypeGas)),
		"environmental": entries(market.ByType(market.TypeEnvironmental)),
	})
}

func entries(specs []market.Spec) []marketEntry {
	out := make([]marketEntry, 0, len(specs))
	for _, s := range specs {
		out = append(out, marketEntry{ID: s.ID, Name: s.Name})
	}
	return out
}
