package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"bikepulse/internal/analytics"
	apierrors "bikepulse/internal/errors"
	"bikepulse/internal/services"
)

// DashboardServiceInterface is what the handler needs from the service layer
type DashboardServiceInterface interface {
	Meta(ctx context.Context) (services.Meta, error)
	Overview(ctx context.Context, f analytics.Filter) (services.OverviewTab, error)
	Temporal(ctx context.Context, f analytics.Filter) (services.TemporalTab, error)
	Weather(ctx context.Context, f analytics.Filter) (services.WeatherTab, error)
	Users(ctx context.Context, f analytics.Filter) (services.UsersTab, error)
	RFM(ctx context.Context, f analytics.Filter) (*services.RFMTab, error)
	Segments(ctx context.Context, f analytics.Filter) (*services.SegmentsTab, error)
	Dashboard(ctx context.Context, f analytics.Filter) (*services.Dashboard, error)
}

// DashboardHandler serves the dashboard API with RFC 7807 error responses
type DashboardHandler struct {
	service      DashboardServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dashboard routes
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.GetDashboard)
	r.Get("/meta", h.GetMeta)
	r.Get("/overview", h.tab("overview", func(ctx context.Context, f analytics.Filter) (interface{}, error) {
		return h.service.Overview(ctx, f)
	}))
	r.Get("/temporal", h.tab("temporal", func(ctx context.Context, f analytics.Filter) (interface{}, error) {
		return h.service.Temporal(ctx, f)
	}))
	r.Get("/weather", h.tab("weather", func(ctx context.Context, f analytics.Filter) (interface{}, error) {
		return h.service.Weather(ctx, f)
	}))
	r.Get("/users", h.tab("users", func(ctx context.Context, f analytics.Filter) (interface{}, error) {
		return h.service.Users(ctx, f)
	}))
	r.Get("/rfm", h.tab("rfm", func(ctx context.Context, f analytics.Filter) (interface{}, error) {
		return h.service.RFM(ctx, f)
	}))
	r.Get("/segments", h.tab("segments", func(ctx context.Context, f analytics.Filter) (interface{}, error) {
		return h.service.Segments(ctx, f)
	}))

	return r
}

// GetDashboard handles GET /api/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	filter, err := parseFilter(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "building dashboard",
		slog.String("request_id", reqID),
		slog.String("path", r.URL.Path),
	)

	dashboard, err := h.service.Dashboard(r.Context(), filter)
	if err != nil {
		h.handleServiceError(w, r, err, reqID)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   dashboard,
	})
}

// GetMeta handles GET /api/dashboard/meta
func (h *DashboardHandler) GetMeta(w http.ResponseWriter, r *http.Request) {
	meta, err := h.service.Meta(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err, middleware.GetReqID(r.Context()))
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   meta,
	})
}

// tab builds a handler for one partial-refresh tab endpoint
func (h *DashboardHandler) tab(name string, build func(context.Context, analytics.Filter) (interface{}, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqID := middleware.GetReqID(r.Context())

		filter, err := parseFilter(r)
		if err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}

		h.logger.InfoContext(r.Context(), "building tab",
			slog.String("request_id", reqID),
			slog.String("tab", name),
		)

		data, err := build(r.Context(), filter)
		if err != nil {
			h.handleServiceError(w, r, err, reqID)
			return
		}

		render.JSON(w, r, map[string]interface{}{
			"status": "success",
			"data":   data,
		})
	}
}

func (h *DashboardHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error, reqID string) {
	h.logger.ErrorContext(r.Context(), "dashboard request failed",
		slog.String("error", err.Error()),
		slog.String("request_id", reqID),
	)

	if errors.Is(err, analytics.ErrTooFewRows) {
		h.errorHandler.HandleError(w, r, apierrors.New(
			http.StatusUnprocessableEntity,
			"TOO_FEW_ROWS",
			"Filtered range has too few rows for quartile segmentation",
		))
		return
	}

	h.errorHandler.HandleError(w, r, err)
}
