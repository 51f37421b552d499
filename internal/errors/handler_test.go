package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gdpwaterfall/internal/shared/testutil"
)

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantCode   string
	}{
		{
			name:       "context deadline exceeded",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "api validation error",
			err:        ErrValidation("format", "must be one of csv xlsx"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "unknown country",
			err:        fmt.Errorf("waterfall: %w", NewNotFoundError("country", errors.New("country not found"))),
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "country without data",
			err:        NewNoDataError("Atlantis", nil),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeNoData,
			wantCode:   "NO_DATA",
		},
		{
			name:       "empty dataset",
			err:        NewEmptyDatasetError("gdp.csv", nil),
			wantStatus: http.StatusServiceUnavailable,
			wantType:   TypeDatasetEmpty,
			wantCode:   "EMPTY_DATASET",
		},
		{
			name:       "source unreachable",
			err:        NewFileLoadError("gdp.csv", errors.New("connection refused")),
			wantStatus: http.StatusServiceUnavailable,
			wantType:   TypeDatasetUnavailable,
			wantCode:   "FILE_LOAD",
		},
		{
			name:       "config error hides detail",
			err:        NewConfigError("missing api key", nil),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeConfigurationFailed,
			wantCode:   "CONFIG",
		},
		{
			name:       "plain error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
			wantCode:   "INTERNAL_SERVER_ERROR",
		},
		{
			name:       "api not found",
			err:        ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
			wantCode:   "NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			h := NewErrorHandler(logger, false)

			req := httptest.NewRequest(http.MethodGet, "/api/countries/Atlantis/waterfall", nil)
			rec := httptest.NewRecorder()
			h.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeProblem(t, rec)
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, float64(tt.wantStatus), body["status"])
			assert.Equal(t, "/api/countries/Atlantis/waterfall", body["instance"])
			assert.NotContains(t, body, "stack")
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, body["error_code"])
			}
			assert.True(t, logs.ContainsMessage("request failed"))
		})
	}
}

func TestErrorHandler_HandleError_Nil(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, true)

	rec := httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Zero(t, rec.Body.Len())
	assert.Equal(t, 0, logs.Count())
}

func TestErrorHandler_ConfigDetailHidden(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	problem := h.ErrorToProblem(NewConfigError("missing api key", nil), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotContains(t, problem.Detail, "api key")
}

func TestErrorHandler_Router(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, true)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RecoveryMiddleware(h))
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)
	r.Get("/panic", func(w http.ResponseWriter, r *http.Request) {
		panic("chart exploded")
	})

	t.Run("not found", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		body := decodeProblem(t, rec)
		assert.Equal(t, TypeNotFound, body["type"])
		assert.Equal(t, "NOT_FOUND", body["error_code"])
		assert.Equal(t, ErrNotFound.Message, body["detail"])
		assert.NotEmpty(t, body["trace_id"])
	})

	t.Run("method not allowed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/panic", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		assert.Equal(t, TypeMethodNotAllowed, decodeProblem(t, rec)["type"])
	})

	t.Run("panic", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decodeProblem(t, rec)
		assert.Equal(t, "chart exploded", body["panic"])
		assert.Contains(t, body, "stack")
		assert.True(t, logs.ContainsMessage("panic recovered"))
	})
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	p := NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found", "", "/x").
		WithExtension("trace_id", "abc").
		WithExtension("status", 999)

	raw, err := json.Marshal(p)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, float64(http.StatusNotFound), body["status"], "extensions never overwrite standard members")
	assert.Equal(t, "abc", body["trace_id"])
	assert.NotContains(t, body, "detail")
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, ErrRateLimitExceeded)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", body.Error.ErrorCode)
}
