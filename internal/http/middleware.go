package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/example/crew-scheduler/internal/logging"
)

// StatusRecorder receives the final status code of every request.
type StatusRecorder interface {
	RecordHTTPStatus(method string, statusCode int)
}

// RequestLogger attaches a request-scoped logger to the context and logs the
// outcome of each request. It expects middleware.RequestID to run first.
func RequestLogger(base *slog.Logger, recorder StatusRecorder) func(http.Handler) http.Handler {
	base = defaultLogger(base)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := base.With(
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := logging.ContextWithLogger(r.Context(), logger)
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			if recorder != nil {
				recorder.RecordHTTPStatus(r.Method, status)
			}
			logger.InfoContext(ctx, "request completed",
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}

// Recoverer turns a handler panic into a 500 response and logs the stack.
func Recoverer(base *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(base)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				ctx := r.Context()
				responder.loggerFor(ctx).ErrorContext(ctx, "handler panicked",
					"panic", fmt.Sprint(rec),
					"stack", string(debug.Stack()),
				)
				responder.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{
					ErrorCode: "internal",
					Message:   "internal server error",
				})
			}()
			next.ServeHTTP(w, r)
		})
	}
}
