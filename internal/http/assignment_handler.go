package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/crew-scheduler/internal/application"
)

type assignmentQueries interface {
	FindAssignments(ctx context.Context, params application.FindAssignmentsParams) ([]application.TeamAssignment, error)
	FindConflicts(ctx context.Context, memberID string, start, end time.Time, excludeID string) ([]application.TeamAssignment, error)
}

type conflictValidator interface {
	ValidateAssignment(ctx context.Context, memberID string, start, end time.Time, excludeID string) (application.ConflictResult, error)
}

type assignmentService interface {
	CreateAssignment(ctx context.Context, input application.AssignmentInput) (application.AssignmentOutcome, error)
	UpdateAssignment(ctx context.Context, id string, input application.AssignmentInput) (application.AssignmentOutcome, error)
	DeleteAssignment(ctx context.Context, id string) error
}

// AssignmentHandler serves assignment queries, validation and lifecycle writes.
type AssignmentHandler struct {
	queries   assignmentQueries
	guard     conflictValidator
	service   assignmentService
	responder responder
	logger    *slog.Logger
}

func NewAssignmentHandler(queries assignmentQueries, guard conflictValidator, service assignmentService, logger *slog.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		queries:   queries,
		guard:     guard,
		service:   service,
		responder: newResponder(logger),
		logger:    defaultLogger(logger),
	}
}

// List handles GET /assignments?start=&end=&members=&roles=.
func (h *AssignmentHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	start, end, err := parseRange(query)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	assignments, err := h.queries.FindAssignments(r.Context(), application.FindAssignmentsParams{
		RangeStart: start,
		RangeEnd:   end,
		MemberIDs:  splitList(query["members"]),
		RoleIDs:    splitList(query["roles"]),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listAssignmentsResponse{Assignments: toAssignmentDTOs(assignments)})
}

// Validate handles POST /assignments/validate.
func (h *AssignmentHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	start, err := parseTimestamp("start", req.Start)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	end, err := parseTimestamp("end", req.End)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	result, err := h.guard.ValidateAssignment(r.Context(), strings.TrimSpace(req.MemberID), start, end, strings.TrimSpace(req.ExcludeID))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toConflictResultDTO(result))
}

// Create handles POST /assignments.
func (h *AssignmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	outcome, err := h.service.CreateAssignment(r.Context(), input)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.renderOutcome(r.Context(), w, "create", outcome, http.StatusCreated)
}

// Update handles PUT /assignments/{id}.
func (h *AssignmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	outcome, err := h.service.UpdateAssignment(r.Context(), id, input)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.renderOutcome(r.Context(), w, "update", outcome, http.StatusOK)
}

// Delete handles DELETE /assignments/{id}.
func (h *AssignmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	if err := h.service.DeleteAssignment(r.Context(), id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *AssignmentHandler) decodeInput(w http.ResponseWriter, r *http.Request) (application.AssignmentInput, bool) {
	var req assignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return application.AssignmentInput{}, false
	}
	input, err := req.toInput()
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return application.AssignmentInput{}, false
	}
	return input, true
}

func (h *AssignmentHandler) renderOutcome(ctx context.Context, w http.ResponseWriter, operation string, outcome application.AssignmentOutcome, status int) {
	if outcome.Conflicts.HasConflicts() {
		handlerLogger(ctx, h.logger, "assignments", operation,
			"member_id", outcome.Conflicts.MemberID,
		).InfoContext(ctx, "assignment rejected", "conflict_ids", outcome.Conflicts.ConflictIDs())
		h.responder.writeConflicts(ctx, w, outcome.Conflicts)
		return
	}
	h.responder.writeJSON(ctx, w, status, assignmentResponse{Assignment: toAssignmentDTO(outcome.Assignment)})
}

type assignmentRequest struct {
	MemberID   string `json:"member_id"`
	RoleID     string `json:"role_id"`
	ActivityID string `json:"activity_id"`
	Start      string `json:"start"`
	End        string `json:"end"`
	Location   string `json:"location"`
}

func (r assignmentRequest) toInput() (application.AssignmentInput, error) {
	start, err := parseTimestamp("start", r.Start)
	if err != nil {
		return application.AssignmentInput{}, err
	}
	end, err := parseTimestamp("end", r.End)
	if err != nil {
		return application.AssignmentInput{}, err
	}
	return application.AssignmentInput{
		MemberID:   strings.TrimSpace(r.MemberID),
		RoleID:     strings.TrimSpace(r.RoleID),
		ActivityID: strings.TrimSpace(r.ActivityID),
		Start:      start,
		End:        end,
		Location:   strings.TrimSpace(r.Location),
	}, nil
}

type validateRequest struct {
	MemberID  string `json:"member_id"`
	Start     string `json:"start"`
	End       string `json:"end"`
	ExcludeID string `json:"exclude_id"`
}

type assignmentResponse struct {
	Assignment assignmentDTO `json:"assignment"`
}

type listAssignmentsResponse struct {
	Assignments []assignmentDTO `json:"assignments"`
}

type conflictResultDTO struct {
	MemberID     string          `json:"member_id"`
	Start        string          `json:"start"`
	End          string          `json:"end"`
	HasConflicts bool            `json:"has_conflicts"`
	Conflicts    []assignmentDTO `json:"conflicts"`
}

func toConflictResultDTO(result application.ConflictResult) conflictResultDTO {
	return conflictResultDTO{
		MemberID:     result.MemberID,
		Start:        formatTimestamp(result.Start),
		End:          formatTimestamp(result.End),
		HasConflicts: result.HasConflicts(),
		Conflicts:    toAssignmentDTOs(result.Conflicts),
	}
}
