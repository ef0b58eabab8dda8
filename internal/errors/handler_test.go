package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler() *ErrorHandler {
	return NewErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), false)
}

func TestErrorHandler_ErrorToProblem(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "schema error",
			err:        NewSchemaError("a.xlsx", []string{"NPSN"}),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeSchema,
		},
		{
			name:       "joined coercion errors",
			err:        errors.Join(NewTypeCoercionError("a.xlsx", "PD", 2, "x", nil), NewTypeCoercionError("b.xlsx", "PD", 9, "y", nil)),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeTypeCoercion,
		},
		{
			name:       "empty result",
			err:        NewEmptyResultError("no rows left after excluding levels"),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeEmptyResult,
		},
		{
			name:       "render error",
			err:        NewRenderError("pdf", errors.New("boom")),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeRender,
		},
		{
			name:       "api error",
			err:        ErrPayloadTooLarge,
			wantStatus: http.StatusRequestEntityTooLarge,
			wantType:   TypePayloadTooLarge,
		},
		{
			name:       "deadline",
			err:        fmt.Errorf("parse: %w", context.DeadlineExceeded),
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "unknown",
			err:        errors.New("disk on fire"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	h := newTestHandler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/reports/preview", nil)
			problem := h.ErrorToProblem(tt.err, req)

			assert.Equal(t, tt.wantStatus, problem.Status)
			assert.Equal(t, tt.wantType, problem.Type)
			assert.Equal(t, "/api/reports/preview", problem.Instance)
		})
	}
}

func TestErrorHandler_HandleError_ListsEveryFile(t *testing.T) {
	h := newTestHandler()
	err := errors.Join(
		NewSchemaError("a.xlsx", []string{"NPSN"}),
		NewSchemaError("b.xlsx", []string{"BP"}),
	)

	req := httptest.NewRequest(http.MethodPost, "/api/reports/xlsx", nil)
	rec := httptest.NewRecorder()
	h.HandleError(rec, req, err)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["detail"], "a.xlsx")
	assert.Contains(t, body["detail"], "b.xlsx")
	assert.Equal(t, "SCHEMA", body["error_type"])
}

func TestErrorHandler_HandleError_Nil(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHandler().HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestErrorHandler_HandlePanic(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHandler().HandlePanic(rec, httptest.NewRequest(http.MethodGet, "/x", nil), "kaboom")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "kaboom")
}

func TestErrorHandler_NotFoundAndMethodNotAllowed(t *testing.T) {
	h := newTestHandler()

	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.MethodNotAllowed(rec, httptest.NewRequest(http.MethodDelete, "/api/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Body.String(), "DELETE")
}
