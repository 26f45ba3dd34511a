package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/crew-scheduler/internal/application"
	"github.com/example/crew-scheduler/internal/logging"
)

var (
	errBadRequestBody    = errors.New("request body must be a JSON object")
	errMissingMemberID   = errors.New("member id is required")
	errMissingActivityID = errors.New("activity id is required")
	errMissingID         = errors.New("assignment id is required")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	return responder{logger: defaultLogger(logger)}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := http.StatusText(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).WarnContext(ctx, "request rejected", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{ErrorCode: errorCodeFor(status), Message: message})
}

// writeConflicts answers a rejected write with the assignments it collides with.
func (r responder) writeConflicts(ctx context.Context, w http.ResponseWriter, result application.ConflictResult) {
	r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
		ErrorCode: "conflict",
		Message:   "member " + result.MemberID + " is already assigned during the requested interval",
		Conflicts: toAssignmentDTOs(result.Conflicts),
	})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	status := statusForError(err)
	kind := application.ErrorKind(err)
	logger := r.loggerFor(ctx)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(ctx, "request failed", "status", status, "error", err, "error_kind", kind)
		r.writeJSON(ctx, w, status, errorResponse{ErrorCode: kind, Message: "internal server error"})
		return
	}
	logger.WarnContext(ctx, "request rejected", "status", status, "error", err, "error_kind", kind)

	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		r.writeJSON(ctx, w, status, errorResponse{
			ErrorCode: kind,
			Message:   "validation failed",
			Errors:    vErr.FieldErrors,
		})
		return
	}

	r.writeJSON(ctx, w, status, errorResponse{ErrorCode: kind, Message: err.Error()})
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := logging.FromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, application.ErrNotFound), errors.Is(err, application.ErrMemberNotFound):
		return http.StatusNotFound
	case errors.Is(err, application.ErrConcurrentConflict):
		return http.StatusConflict
	case errors.Is(err, application.ErrInvalidInterval),
		errors.Is(err, application.ErrInvalidGranularity),
		errors.Is(err, application.ErrMissingDependencyStatus),
		errors.Is(err, application.ErrDependencyCycle):
		return http.StatusUnprocessableEntity
	}

	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func errorCodeFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusTooManyRequests:
		return "rate_limit_exceeded"
	default:
		return "internal"
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
	Conflicts []assignmentDTO   `json:"conflicts,omitempty"`
}
