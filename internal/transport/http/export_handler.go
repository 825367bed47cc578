package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"bikepulse/internal/analytics"
	apierrors "bikepulse/internal/errors"
	"bikepulse/internal/exporter"
)

// ExportHandler streams RFM results as CSV or XLSX downloads
type ExportHandler struct {
	service      DashboardServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewExportHandler creates a new export handler
func NewExportHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ExportHandler {
	return &ExportHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "export_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the export routes
func (h *ExportHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/rfm.csv", h.ExportRFMCSV)
	r.Get("/rfm-seasons.csv", h.ExportSeasonCSV)
	r.Get("/rfm.xlsx", h.ExportRFMXLSX)

	return r
}

// ExportRFMCSV handles GET /api/export/rfm.csv
func (h *ExportHandler) ExportRFMCSV(w http.ResponseWriter, r *http.Request) {
	tab, ok := h.loadRFM(w, r)
	if !ok {
		return
	}

	h.setDownloadHeaders(w, "text/csv", "rfm.csv")
	if err := exporter.WriteRFMCSV(w, tab.Days); err != nil {
		h.logger.ErrorContext(r.Context(), "csv export failed",
			slog.String("error", err.Error()))
	}
}

// ExportSeasonCSV handles GET /api/export/rfm-seasons.csv
func (h *ExportHandler) ExportSeasonCSV(w http.ResponseWriter, r *http.Request) {
	tab, ok := h.loadRFM(w, r)
	if !ok {
		return
	}
	if len(tab.Seasons) == 0 {
		h.errorHandler.HandleError(w, r, apierrors.New(
			http.StatusUnprocessableEntity,
			"TOO_FEW_ROWS",
			"Filtered range does not cover all four seasons",
		))
		return
	}

	h.setDownloadHeaders(w, "text/csv", "rfm-seasons.csv")
	if err := exporter.WriteSeasonRFMCSV(w, tab.Seasons); err != nil {
		h.logger.ErrorContext(r.Context(), "csv export failed",
			slog.String("error", err.Error()))
	}
}

// ExportRFMXLSX handles GET /api/export/rfm.xlsx
func (h *ExportHandler) ExportRFMXLSX(w http.ResponseWriter, r *http.Request) {
	tab, ok := h.loadRFM(w, r)
	if !ok {
		return
	}

	h.setDownloadHeaders(w,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "rfm.xlsx")
	if err := exporter.WriteRFMXLSX(w, tab.Days, tab.Seasons); err != nil {
		h.logger.ErrorContext(r.Context(), "xlsx export failed",
			slog.String("error", err.Error()))
	}
}

func (h *ExportHandler) loadRFM(w http.ResponseWriter, r *http.Request) (*RFMPayload, bool) {
	reqID := middleware.GetReqID(r.Context())

	filter, err := parseFilter(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return nil, false
	}

	tab, err := h.service.RFM(r.Context(), filter)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "export request failed",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		if errors.Is(err, analytics.ErrTooFewRows) {
			h.errorHandler.HandleError(w, r, apierrors.New(
				http.StatusUnprocessableEntity,
				"TOO_FEW_ROWS",
				"Filtered range has too few rows for quartile segmentation",
			))
			return nil, false
		}
		h.errorHandler.HandleError(w, r, err)
		return nil, false
	}

	return &RFMPayload{Days: tab.Days, Seasons: tab.Seasons}, true
}

func (h *ExportHandler) setDownloadHeaders(w http.ResponseWriter, contentType, filename string) {
	stamped := fmt.Sprintf("%s-%s", time.Now().Format("20060102"), filename)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", stamped))
}

// RFMPayload is the slice pair the exporters consume
type RFMPayload struct {
	Days    []analytics.RFMRow
	Seasons []analytics.SeasonRFM
}
