package http

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/crew-scheduler/internal/application"
)

type activityService interface {
	ResolveActivityStatus(ctx context.Context, id string, now time.Time) (application.ActivityStatusReport, error)
	RefreshActivityStatus(ctx context.Context, id string, now time.Time) (application.ActivityStatusReport, error)
	StartActivity(ctx context.Context, id string) error
	CompleteActivity(ctx context.Context, id string) error
}

// ActivityHandler serves activity status resolution and lifecycle transitions.
type ActivityHandler struct {
	service   activityService
	responder responder
	logger    *slog.Logger
}

func NewActivityHandler(service activityService, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{service: service, responder: newResponder(logger), logger: defaultLogger(logger)}
}

// Status handles GET /activities/{id}/status?now=. Without now the service
// clock is used.
func (h *ActivityHandler) Status(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.service.ResolveActivityStatus)
}

// Refresh handles POST /activities/{id}/refresh.
func (h *ActivityHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.service.RefreshActivityStatus)
}

// Start handles POST /activities/{id}/start.
func (h *ActivityHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "start", h.service.StartActivity)
}

// Complete handles POST /activities/{id}/complete.
func (h *ActivityHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "complete", h.service.CompleteActivity)
}

func (h *ActivityHandler) resolve(w http.ResponseWriter, r *http.Request, resolve func(context.Context, string, time.Time) (application.ActivityStatusReport, error)) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingActivityID)
		return
	}
	now, err := parseTimestamp("now", r.URL.Query().Get("now"))
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	report, err := resolve(r.Context(), id, now)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toStatusDTO(report))
}

func (h *ActivityHandler) transition(w http.ResponseWriter, r *http.Request, operation string, apply func(context.Context, string) error) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingActivityID)
		return
	}
	if err := apply(r.Context(), id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	handlerLogger(r.Context(), h.logger, "activities", operation, "activity_id", id).InfoContext(r.Context(), "activity transitioned")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type dependencyStatusDTO struct {
	ActivityID string `json:"activity_id"`
	Status     string `json:"status"`
}

type activityStatusDTO struct {
	ActivityID   string                `json:"activity_id"`
	Status       string                `json:"status"`
	Dependencies []dependencyStatusDTO `json:"dependencies"`
	ResolvedAt   string                `json:"resolved_at"`
}

func toStatusDTO(report application.ActivityStatusReport) activityStatusDTO {
	dto := activityStatusDTO{
		ActivityID:   report.ActivityID,
		Status:       string(report.Status),
		Dependencies: make([]dependencyStatusDTO, 0, len(report.Dependencies)),
		ResolvedAt:   formatTimestamp(report.ResolvedAt),
	}
	for id, status := range report.Dependencies {
		dto.Dependencies = append(dto.Dependencies, dependencyStatusDTO{ActivityID: id, Status: string(status)})
	}
	sort.Slice(dto.Dependencies, func(i, j int) bool {
		return dto.Dependencies[i].ActivityID < dto.Dependencies[j].ActivityID
	})
	return dto
}
