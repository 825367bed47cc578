package services

import (
	"context"
	"log/slog"
	"time"

	"bikepulse/internal/dataset"
)

// Version is stamped at build time via -ldflags
var Version = "dev"

// HubStats is implemented by the websocket hub
type HubStats interface {
	Stats() map[string]interface{}
}

// HealthStatus is the /api/health response body
type HealthStatus struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Dataset   DatasetHealth          `json:"dataset"`
	WebSocket map[string]interface{} `json:"websocket,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// DatasetHealth reports whether the CSVs are loadable
type DatasetHealth struct {
	Healthy    bool      `json:"healthy"`
	DailyRows  int       `json:"daily_rows"`
	HourlyRows int       `json:"hourly_rows"`
	LoadedAt   time.Time `json:"loaded_at,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// HealthService answers liveness and readiness probes
type HealthService struct {
	store     *dataset.Store
	hub       HubStats
	logger    *slog.Logger
	startTime time.Time
}

// NewHealthService creates the health service
func NewHealthService(store *dataset.Store, hub HubStats, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		store:     store,
		hub:       hub,
		logger:    logger.With(slog.String("component", "health-service")),
		startTime: time.Now(),
	}
}

// Check reports overall service health. A broken dataset degrades the
// status instead of failing the probe so operators still get the detail.
func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "healthy",
		Version:   Version,
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Timestamp: time.Now(),
	}

	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		status.Status = "degraded"
		status.Dataset = DatasetHealth{Healthy: false, Error: err.Error()}
		s.logger.WarnContext(ctx, "dataset health check failed",
			slog.String("error", err.Error()))
	} else {
		status.Dataset = DatasetHealth{
			Healthy:    true,
			DailyRows:  len(snap.Daily),
			HourlyRows: len(snap.Hourly),
			LoadedAt:   snap.LoadedAt,
		}
	}

	if s.hub != nil {
		status.WebSocket = s.hub.Stats()
	}

	return status
}

// Ready reports whether the service can serve dashboard requests
func (s *HealthService) Ready(ctx context.Context) error {
	_, err := s.store.Snapshot(ctx)
	return err
}
