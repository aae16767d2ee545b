package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"palestra/internal/core"
	applog "palestra/internal/log"
	"palestra/internal/middleware/trace"
)

// Error codes carried in the error envelope.
const (
	CodeNotFound            = "not_found"
	CodeConflict            = "conflict"
	CodeConstraintViolation = "constraint_violation"
	CodeInvalidInput        = "invalid_input"
	CodeBadRequest          = "bad_request"
	CodeRateLimited         = "rate_limited"
	CodeUnauthorized        = "unauthorized"
	CodeUnknownProcedure    = "unknown_procedure"
	CodeMethodNotAllowed    = "method_not_allowed"
	CodeInternal            = "internal"
)

// errBadRequest marks a body or query the server could not decode.
var errBadRequest = errors.New("bad request")

type successEnvelope struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

type errorEnvelope struct {
	Status    string `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, successEnvelope{Status: "success", Data: data})
}

func writeError(w http.ResponseWriter, r *http.Request, statusCode int, code, message string) {
	writeJSON(w, statusCode, errorEnvelope{
		Status:    "error",
		Code:      code,
		Message:   message,
		RequestID: trace.FromRequest(r),
	})
}

// classify maps a handler error onto an HTTP status, an error code and the
// message shown to the caller.
func classify(err error) (int, string, string) {
	var nf *core.NotFoundError
	var conflict *core.ConflictError
	switch {
	case errors.As(err, &nf):
		return http.StatusNotFound, CodeNotFound, nf.Error()
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, CodeNotFound, err.Error()
	case errors.As(err, &conflict):
		return http.StatusConflict, CodeConflict, conflict.Error()
	case errors.Is(err, core.ErrConflict):
		return http.StatusConflict, CodeConflict, err.Error()
	case errors.Is(err, core.ErrConstraint):
		return http.StatusConflict, CodeConstraintViolation, singleLine(err.Error())
	case errors.Is(err, core.ErrInvalidInput):
		return http.StatusUnprocessableEntity, CodeInvalidInput, err.Error()
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, CodeBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, CodeInternal, "internal server error"
	}
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// writeServiceError logs unexpected failures and writes the envelope.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := classify(err)
	if status == http.StatusInternalServerError {
		operation := chi.URLParam(r, "procedure")
		if operation == "" {
			operation = r.URL.Path
		}
		applog.NewStructuredLogger(applog.FromContext(r.Context())).LogError(r.Context(),
			"Request failed", err, applog.ComponentRPC, operation,
			applog.NewFields().WithRequestID(trace.FromRequest(r)))
	}
	writeError(w, r, status, code, message)
}
