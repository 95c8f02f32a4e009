package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON / writeError so the API has one
// response shape.
//
// CONSISTENT ERROR FORMAT:
//
//	{"error": "not_found", "message": "no creators available for this time slot",
//	 "suggestion": "try a different time or check back later"}
//
// "suggestion" appears when the service attached a hint. "detail" carries the
// raw error text and only appears when detail exposure is switched on
// (APP_ENV=development).

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"sync/atomic"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/heartline/internal/apperror"
	"github.com/sakif/heartline/internal/auth"
	"github.com/sakif/heartline/internal/model"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error      string `json:"error"`                // machine-readable kind, e.g. "not_found"
	Message    string `json:"message"`              // human-readable description
	Suggestion string `json:"suggestion,omitempty"` // what the caller could try instead
	Detail     string `json:"detail,omitempty"`     // raw error text, development only
}

var exposeErrorDetail atomic.Bool

// SetExposeErrorDetail controls whether error responses carry raw error text.
func SetExposeErrorDetail(on bool) {
	exposeErrorDetail.Store(on)
}

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// statusOf maps an error kind to its HTTP status and machine-readable name.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, apperror.ErrExternal):
		return http.StatusBadGateway, "external_error"
	}
	return http.StatusInternalServerError, "internal_error"
}

// writeError maps a domain error to its HTTP status and sends it.
//
// errors.As walks the wrap chain, so a service returning
// fmt.Errorf("...: %w", apperror.NotFound(...)) still maps to 404.
// Errors that are not *AppError are server faults: their text is logged and
// only shown to the client when detail exposure is on.
func writeError(w http.ResponseWriter, err error) {
	status, kind := statusOf(err)
	resp := ErrorResponse{Error: kind, Message: "An internal error occurred"}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		resp.Message = appErr.Message
		resp.Suggestion = appErr.Hint
		if appErr.Cause != nil && exposeErrorDetail.Load() {
			resp.Detail = appErr.Cause.Error()
		}
	} else if exposeErrorDetail.Load() {
		resp.Detail = err.Error()
	}

	if status >= http.StatusInternalServerError {
		slog.Error("request failed", slog.Int("status", status), slog.String("error", err.Error()))
	}
	writeJSON(w, status, resp)
}

// validate checks request DTOs. Field names in messages are the JSON names.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode reads a JSON body into dst and validates it.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.ValidationFailed("body", "invalid JSON body")
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return apperror.ValidationFailed(fe.Field(), validationMessage(fe))
		}
		return apperror.ValidationFailed("body", err.Error())
	}
	return nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "min", "max", "gte", "lte":
		return fmt.Sprintf("%s fails %s=%s", fe.Field(), fe.Tag(), fe.Param())
	}
	return fe.Field() + " is invalid"
}

// principal returns the authenticated caller. Routes using it sit behind
// auth.RequireAuth, so a missing principal is a wiring bug reported as 401.
func principal(r *http.Request) (model.Principal, error) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		return model.Principal{}, apperror.Unauthorized("authentication required")
	}
	return p, nil
}
