package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/crew-scheduler/internal/application"
)

type auditService interface {
	AuditConflicts(ctx context.Context, rangeStart, rangeEnd time.Time) ([]application.AuditFinding, error)
}

type AuditHandler struct {
	service   auditService
	responder responder
}

func NewAuditHandler(service auditService, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{service: service, responder: newResponder(logger)}
}

// Conflicts handles GET /audit/conflicts?start=&end=.
func (h *AuditHandler) Conflicts(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseRange(r.URL.Query())
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	findings, err := h.service.AuditConflicts(r.Context(), start, end)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	response := auditResponse{Findings: make([]auditFindingDTO, 0, len(findings))}
	for _, finding := range findings {
		response.Findings = append(response.Findings, auditFindingDTO{
			MemberID: finding.MemberID,
			First:    toAssignmentDTO(finding.First),
			Second:   toAssignmentDTO(finding.Second),
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, response)
}

type auditFindingDTO struct {
	MemberID string        `json:"member_id"`
	First    assignmentDTO `json:"first"`
	Second   assignmentDTO `json:"second"`
}

type auditResponse struct {
	Findings []auditFindingDTO `json:"findings"`
}
