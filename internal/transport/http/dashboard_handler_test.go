package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bikepulse/internal/analytics"
	apierrors "bikepulse/internal/errors"
	"bikepulse/internal/services"
)

// stubService returns canned payloads and records the filter it received
type stubService struct {
	lastFilter analytics.Filter
	rfmErr     error
}

func (s *stubService) Meta(ctx context.Context) (services.Meta, error) {
	return services.Meta{Years: []int{2011, 2012}}, nil
}

func (s *stubService) Overview(ctx context.Context, f analytics.Filter) (services.OverviewTab, error) {
	s.lastFilter = f
	return services.OverviewTab{KPIs: services.KPIs{TotalRentals: 42, DayCount: 2}}, nil
}

func (s *stubService) Temporal(ctx context.Context, f analytics.Filter) (services.TemporalTab, error) {
	return services.TemporalTab{}, nil
}

func (s *stubService) Weather(ctx context.Context, f analytics.Filter) (services.WeatherTab, error) {
	return services.WeatherTab{}, nil
}

func (s *stubService) Users(ctx context.Context, f analytics.Filter) (services.UsersTab, error) {
	return services.UsersTab{}, nil
}

func (s *stubService) RFM(ctx context.Context, f analytics.Filter) (*services.RFMTab, error) {
	if s.rfmErr != nil {
		return nil, s.rfmErr
	}
	return &services.RFMTab{Days: []analytics.RFMRow{{Score: "444"}}}, nil
}

func (s *stubService) Segments(ctx context.Context, f analytics.Filter) (*services.SegmentsTab, error) {
	return &services.SegmentsTab{}, nil
}

func (s *stubService) Dashboard(ctx context.Context, f analytics.Filter) (*services.Dashboard, error) {
	return &services.Dashboard{}, nil
}

func newTestHandler(svc DashboardServiceInterface) *DashboardHandler {
	logger := testLogger()
	return NewDashboardHandler(svc, logger, apierrors.NewErrorHandler(logger, false))
}

func TestGetOverviewEnvelope(t *testing.T) {
	svc := &stubService{}
	handler := newTestHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/overview?from=2011-01-01&to=2011-12-31&seasons=1,2", nil)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "success", body["status"])

	data := body["data"].(map[string]interface{})
	kpis := data["kpis"].(map[string]interface{})
	assert.Equal(t, float64(42), kpis["total_rentals"])

	// The decoded filter reached the service
	assert.Equal(t, time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC), svc.lastFilter.From)
	assert.Equal(t, []int{1, 2}, svc.lastFilter.Seasons)
}

func TestGetMeta(t *testing.T) {
	handler := newTestHandler(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/meta", nil)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	data := body["data"].(map[string]interface{})
	assert.Len(t, data["years"], 2)
}

func TestInvalidFilterRejected(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"bad from date", "from=January"},
		{"bad season", "seasons=7"},
		{"non-numeric years", "years=abc"},
		{"inverted range", "from=2012-01-01&to=2011-01-01"},
	}

	handler := newTestHandler(&stubService{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/overview?"+tt.query, nil)
			rec := httptest.NewRecorder()
			handler.Routes().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var problem map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
			assert.Equal(t, float64(http.StatusBadRequest), problem["status"])
		})
	}
}

func TestRFMTooFewRowsMapsTo422(t *testing.T) {
	svc := &stubService{rfmErr: analytics.ErrTooFewRows}
	handler := newTestHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/rfm", nil)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Contains(t, problem["detail"], "too few rows")
}

func TestGetDashboard(t *testing.T) {
	handler := newTestHandler(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
