package http

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/example/crew-scheduler/internal/application"
)

type assignmentDTO struct {
	ID           string `json:"id"`
	MemberID     string `json:"member_id"`
	MemberName   string `json:"member_name,omitempty"`
	RoleID       string `json:"role_id"`
	RoleName     string `json:"role_name,omitempty"`
	ActivityID   string `json:"activity_id,omitempty"`
	ActivityName string `json:"activity_name,omitempty"`
	Start        string `json:"start"`
	End          string `json:"end"`
	Location     string `json:"location,omitempty"`
	CreatedAt    string `json:"created_at,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty"`
}

func toAssignmentDTO(assignment application.TeamAssignment) assignmentDTO {
	dto := assignmentDTO{
		ID:         assignment.ID,
		MemberID:   assignment.MemberID,
		MemberName: assignment.Member.Name,
		RoleID:     assignment.RoleID,
		RoleName:   assignment.Role.Name,
		Start:      formatTimestamp(assignment.Start),
		End:        formatTimestamp(assignment.End),
		Location:   assignment.Location,
		CreatedAt:  formatTimestamp(assignment.CreatedAt),
		UpdatedAt:  formatTimestamp(assignment.UpdatedAt),
	}
	if assignment.Activity != nil {
		dto.ActivityID = assignment.Activity.ID
		dto.ActivityName = assignment.Activity.Name
	}
	return dto
}

func toAssignmentDTOs(assignments []application.TeamAssignment) []assignmentDTO {
	dtos := make([]assignmentDTO, 0, len(assignments))
	for _, assignment := range assignments {
		dtos = append(dtos, toAssignmentDTO(assignment))
	}
	return dtos
}

type memberDTO struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	RoleID  string `json:"role_id,omitempty"`
	Contact string `json:"contact,omitempty"`
}

func toMemberDTOs(members []application.Member) []memberDTO {
	dtos := make([]memberDTO, 0, len(members))
	for _, member := range members {
		dtos = append(dtos, memberDTO{ID: member.ID, Name: member.Name, RoleID: member.RoleID, Contact: member.Contact})
	}
	return dtos
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(time.RFC3339Nano)
}

// parseTimestamp accepts RFC 3339 with or without fractional seconds. An
// empty value yields the zero time.
func parseTimestamp(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be an RFC 3339 timestamp", field)
	}
	return ts, nil
}

func parseRange(query url.Values) (time.Time, time.Time, error) {
	start, err := parseTimestamp("start", query.Get("start"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseTimestamp("end", query.Get("end"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// splitList reads a list parameter given either repeatedly or comma separated.
func splitList(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
