package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/seanrito/patients-backend/internal/domain"
	"github.com/seanrito/patients-backend/pkg/ctxutil"
)

// ErrorResponse is the JSON body of every non-2xx API response.
// Errors is present only for validation failures.
type ErrorResponse struct {
	Status    int                 `json:"status"`
	Error     string              `json:"error"`
	Message   string              `json:"message"`
	Errors    map[string][]string `json:"errors,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}

const internalErrorMessage = "An unexpected error occurred."

func writeProblem(w http.ResponseWriter, status int, message string, fields map[string][]string) {
	writeJSON(w, status, ErrorResponse{
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
		Errors:    fields,
		Timestamp: time.Now().UTC(),
	})
}

// statusFor maps a domain error to its HTTP status. Unclassified errors are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorWriter translates service errors into error bodies. Unclassified
// errors are logged and answered with a generic message.
type errorWriter struct {
	log *slog.Logger
}

func (e errorWriter) write(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	status := statusFor(err)

	switch {
	case status == http.StatusInternalServerError:
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			// Client went away; nobody reads the response.
			e.log.InfoContext(ctx, "request canceled",
				slog.String("request_id", ctxutil.RequestIDFromCtx(ctx)),
			)
		} else {
			e.log.ErrorContext(ctx, "unexpected error",
				slog.String("error", err.Error()),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("request_id", ctxutil.RequestIDFromCtx(ctx)),
			)
		}
		writeProblem(w, status, internalErrorMessage, nil)

	case errors.Is(err, domain.ErrValidation):
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			writeProblem(w, status, "One or more validation errors occurred.", ve.Fields())
			return
		}
		writeProblem(w, status, err.Error(), nil)

	case errors.Is(err, domain.ErrConflict):
		writeProblem(w, status, "The patient was modified by another request. Reload it and retry.", nil)

	case errors.Is(err, domain.ErrTimeout):
		writeProblem(w, status, "The operation timed out. Narrow the filter or retry later.", nil)

	default:
		writeProblem(w, status, err.Error(), nil)
	}
}

// Panic answers a recovered panic with the generic 500 body.
func Panic(w http.ResponseWriter, _ *http.Request) {
	writeProblem(w, http.StatusInternalServerError, internalErrorMessage, nil)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeProblem(w, http.StatusNotFound, "no route for "+r.Method+" "+r.URL.Path, nil)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeProblem(w, http.StatusMethodNotAllowed, r.Method+" is not allowed on "+r.URL.Path, nil)
}
