package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/kkaya/gmedash/internal/export"
	"github.com/kkaya/gmedash/internal/normalize"
	"github.com/kkaya/gmedash/pkg/logger"
)

// ExportHandler turns normalized rows into a CSV download
type ExportHandler struct {
	logger *logger.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(log *logger.Logger) *ExportHandler {
	return &ExportHandler{logger: log}
}

type exportRequest struct {
	Rows     []normalize.Row `json:"rows"`
	Filename string          `json:"filename"`
}

// Export streams the rows back as a CSV attachment
// POST /api/export
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if len(req.Rows) == 0 {
		respondError(w, http.StatusBadRequest, "rows must not be empty")
		return
	}

	filename := filepath.Base(req.Filename)
	if filename == "" || filename == "." || filename == "/" {
		filename = "market-data.csv"
	}
	if filepath.Ext(filename) != ".csv" {
		filename += ".csv"
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)

	if err := export.WriteCSV(w, req.Rows); err != nil {
		// Headers are already out; all we can do is log
		h.logger.WithError(err).Error("CSV export failed mid-stream")
	}
}
