package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError(t *testing.T) {
	err := New(http.StatusNotFound, "NOT_FOUND", "thing is missing")

	assert.Equal(t, "thing is missing", err.Error())
	assert.Equal(t, http.StatusNotFound, err.StatusCode)
	assert.Equal(t, "NOT_FOUND", err.ErrorCode)
	assert.Nil(t, err.Details)
}

func TestErrValidation(t *testing.T) {
	err := ErrValidation("from", "must be a date")

	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", err.ErrorCode)

	detail, ok := err.Details.(ValidationError)
	require.True(t, ok)
	assert.Equal(t, "from", detail.Field)
	assert.Equal(t, "must be a date", detail.Message)
}

func TestDatasetLoadError(t *testing.T) {
	err := DatasetLoadError("data/day.csv", errors.New("missing column cnt"))

	assert.Equal(t, "DATASET_LOAD_FAILED", err.ErrorCode)
	assert.Contains(t, err.Message, "data/day.csv")
	assert.Equal(t, "missing column cnt", err.Details)
}

func TestProblemDetailsMarshalJSON(t *testing.T) {
	pd := NewProblemDetails(http.StatusBadRequest, TypeValidation, "Validation Failed", "bad filter", "/api/dashboard")
	pd.WithExtension("trace_id", "req-1")

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, TypeValidation, decoded["type"])
	assert.Equal(t, "Validation Failed", decoded["title"])
	assert.Equal(t, float64(http.StatusBadRequest), decoded["status"])
	assert.Equal(t, "bad filter", decoded["detail"])
	assert.Equal(t, "req-1", decoded["trace_id"])
}

func TestErrorHandlerHandlesAPIError(t *testing.T) {
	handler := NewErrorHandler(slog.Default(), false)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)

	handler.HandleError(w, r, ErrValidation("season", "unknown season"))

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var problem map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	assert.Equal(t, TypeValidation, problem["type"])
	assert.Equal(t, "VALIDATION_FAILED", problem["error_code"])
}

func TestErrorHandlerHandlesContextErrors(t *testing.T) {
	handler := NewErrorHandler(slog.Default(), false)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)

	handler.HandleError(w, r, fmt.Errorf("loading: %w", context.DeadlineExceeded))

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}

func TestErrorToProblemMapping(t *testing.T) {
	handler := NewErrorHandler(slog.Default(), false)
	r := httptest.NewRequest(http.MethodGet, "/api/rfm", nil)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"generic not found", errors.New("dataset not found"), http.StatusNotFound, TypeNotFound},
		{"degenerate bins", errors.New("too few rows for quartile binning"), http.StatusUnprocessableEntity, TypeDegenerateBins},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError, TypeInternal},
		{"api error passthrough", ErrDatasetNotFound, http.StatusNotFound, TypeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problem := handler.ErrorToProblem(tt.err, r)
			assert.Equal(t, tt.wantStatus, problem.Status)
			assert.Equal(t, tt.wantType, problem.Type)
		})
	}
}
