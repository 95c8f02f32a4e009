package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/heartline/internal/apperror"
)

func TestWriteError_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"validation", apperror.ValidationFailed("emotion", "emotion is required"), http.StatusBadRequest, "validation_error"},
		{"unauthorized", apperror.Unauthorized("invalid credentials"), http.StatusUnauthorized, "unauthorized"},
		{"forbidden", apperror.Forbidden("nope"), http.StatusForbidden, "forbidden"},
		{"not found", apperror.NotFound("creator", "42"), http.StatusNotFound, "not_found"},
		{"conflict", apperror.Conflict("meeting", "7"), http.StatusConflict, "conflict"},
		{"external", apperror.External("calendar", errors.New("boom")), http.StatusBadGateway, "external_error"},
		{"wrapped", fmt.Errorf("outer: %w", apperror.NotFound("user", "1")), http.StatusNotFound, "not_found"},
		{"plain", errors.New("disk on fire"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			writeError(rr, tt.err)

			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			var body ErrorResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
			assert.Equal(t, tt.kind, body.Error)
		})
	}
}

func TestWriteError_HintBecomesSuggestion(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, apperror.New(apperror.ErrNotFound, "no creators available").WithHint("try later"))

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "no creators available", body.Message)
	assert.Equal(t, "try later", body.Suggestion)
}

func TestWriteError_DetailOnlyWhenExposed(t *testing.T) {
	t.Cleanup(func() { SetExposeErrorDetail(false) })
	err := apperror.External("calendar", errors.New("token expired"))

	rr := httptest.NewRecorder()
	writeError(rr, err)
	assert.NotContains(t, rr.Body.String(), "token expired")
	assert.NotContains(t, rr.Body.String(), `"detail"`)

	SetExposeErrorDetail(true)
	rr = httptest.NewRecorder()
	writeError(rr, err)
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "token expired", body.Detail)
	assert.Equal(t, "calendar request failed", body.Message)

	rr = httptest.NewRecorder()
	writeError(rr, errors.New("sql: database is closed"))
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "An internal error occurred", body.Message)
	assert.Equal(t, "sql: database is closed", body.Detail)
}

func TestDecode(t *testing.T) {
	type payload struct {
		Status string `json:"status" validate:"required,oneof=online offline"`
	}

	t.Run("json field names in messages", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"status":"away"}`))
		var p payload
		err := decode(httptest.NewRecorder(), r, &p)

		var appErr *apperror.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "status", appErr.Field)
		assert.Equal(t, "status must be one of: online offline", appErr.Message)
	})

	t.Run("oversized body", func(t *testing.T) {
		big := `{"status":"` + strings.Repeat("a", maxBodyBytes) + `"}`
		r := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(big))
		var p payload
		err := decode(httptest.NewRecorder(), r, &p)
		assert.ErrorIs(t, err, apperror.ErrValidation)
	})

	t.Run("ok", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"status":"online"}`))
		var p payload
		require.NoError(t, decode(httptest.NewRecorder(), r, &p))
		assert.Equal(t, "online", p.Status)
	})
}
