package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/crew-scheduler/internal/application"
)

type availabilityService interface {
	BuildDayGrid(ctx context.Context, memberID string, date time.Time, granularity time.Duration) (application.DayGrid, error)
	AvailableMembers(ctx context.Context, start, end time.Time, roleIDs []string) ([]application.Member, error)
	ListMembers(ctx context.Context, roleIDs []string) ([]application.Member, error)
	ListRoles(ctx context.Context) ([]application.Role, error)
}

// maxGridMinutes caps the slot width at one day.
const maxGridMinutes = 24 * 60

var (
	errInvalidDate        = errors.New("date must be formatted as YYYY-MM-DD")
	errInvalidGranularity = errors.New("granularity must be a whole number of minutes")
)

// MemberHandler serves the roster and per-member views: conflicts, day grids
// and availability.
type MemberHandler struct {
	queries      assignmentQueries
	availability availabilityService
	responder    responder
}

func NewMemberHandler(queries assignmentQueries, availability availabilityService, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{queries: queries, availability: availability, responder: newResponder(logger)}
}

// Conflicts handles GET /members/{id}/conflicts?start=&end=&exclude=.
func (h *MemberHandler) Conflicts(w http.ResponseWriter, r *http.Request) {
	memberID := strings.TrimSpace(chi.URLParam(r, "id"))
	if memberID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingMemberID)
		return
	}
	query := r.URL.Query()
	start, end, err := parseRange(query)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	conflicts, err := h.queries.FindConflicts(r.Context(), memberID, start, end, strings.TrimSpace(query.Get("exclude")))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toConflictResultDTO(application.ConflictResult{
		MemberID:  memberID,
		Start:     start,
		End:       end,
		Conflicts: conflicts,
	}))
}

// Grid handles GET /members/{id}/grid?date=YYYY-MM-DD&granularity=30.
func (h *MemberHandler) Grid(w http.ResponseWriter, r *http.Request) {
	memberID := strings.TrimSpace(chi.URLParam(r, "id"))
	if memberID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingMemberID)
		return
	}

	query := r.URL.Query()
	date, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(query.Get("date")), time.UTC)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
		return
	}

	var granularity time.Duration
	if raw := strings.TrimSpace(query.Get("granularity")); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidGranularity)
			return
		}
		if minutes < 1 || minutes > maxGridMinutes {
			h.responder.handleServiceError(r.Context(), w, fmt.Errorf("%w: %d minutes, want 1 to %d", application.ErrInvalidGranularity, minutes, maxGridMinutes))
			return
		}
		granularity = time.Duration(minutes) * time.Minute
	}

	grid, err := h.availability.BuildDayGrid(r.Context(), memberID, date, granularity)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toDayGridDTO(grid))
}

// Available handles GET /members/available?start=&end=&roles=.
func (h *MemberHandler) Available(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	start, end, err := parseRange(query)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	members, err := h.availability.AvailableMembers(r.Context(), start, end, splitList(query["roles"]))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, availableMembersResponse{Members: toMemberDTOs(members)})
}

// List handles GET /members?roles=.
func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.availability.ListMembers(r.Context(), splitList(r.URL.Query()["roles"]))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, availableMembersResponse{Members: toMemberDTOs(members)})
}

// Roles handles GET /roles.
func (h *MemberHandler) Roles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.availability.ListRoles(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	resp := rolesResponse{Roles: make([]roleDTO, 0, len(roles))}
	for _, role := range roles {
		resp.Roles = append(resp.Roles, roleDTO{ID: role.ID, Name: role.Name})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

type availableMembersResponse struct {
	Members []memberDTO `json:"members"`
}

type roleDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type rolesResponse struct {
	Roles []roleDTO `json:"roles"`
}

type slotDTO struct {
	Start string `json:"start"`
	State string `json:"state"`
}

type dayGridDTO struct {
	MemberID           string    `json:"member_id"`
	Date               string    `json:"date"`
	GranularityMinutes int       `json:"granularity_minutes"`
	Slots              []slotDTO `json:"slots"`
	Busy               []string  `json:"busy"`
}

func toDayGridDTO(grid application.DayGrid) dayGridDTO {
	dto := dayGridDTO{
		MemberID:           grid.MemberID,
		Date:               grid.Date.Format(time.DateOnly),
		GranularityMinutes: int(grid.Granularity / time.Minute),
		Slots:              make([]slotDTO, 0, len(grid.Slots)),
		Busy:               []string{},
	}
	for _, slot := range grid.Slots {
		dto.Slots = append(dto.Slots, slotDTO{Start: formatTimestamp(slot.Start), State: string(slot.State)})
	}
	for _, start := range grid.BusySlots() {
		dto.Busy = append(dto.Busy, formatTimestamp(start))
	}
	return dto
}
