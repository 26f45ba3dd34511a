package application

import (
	"time"

	"github.com/example/crew-scheduler/internal/persistence"
	"github.com/example/crew-scheduler/internal/scheduler"
)

// Member is a crew member as returned by application services.
type Member struct {
	ID      string
	Name    string
	RoleID  string
	Contact string
}

// Role references the function an assignment is staffed under.
type Role struct {
	ID   string
	Name string
}

// ActivityRef summarizes the activity an assignment is linked to.
type ActivityRef struct {
	ID    string
	Name  string
	Start time.Time
	End   time.Time
}

// TeamAssignment is a fully-resolved assignment: member, role and linked
// activity are joined so callers never look them up again.
type TeamAssignment struct {
	ID        string
	MemberID  string
	RoleID    string
	Start     time.Time
	End       time.Time
	Location  string
	Member    Member
	Role      Role
	Activity  *ActivityRef
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ActivityID returns the linked activity id or "".
func (a TeamAssignment) ActivityID() string {
	if a.Activity == nil {
		return ""
	}
	return a.Activity.ID
}

// FindAssignmentsParams selects assignments overlapping [RangeStart, RangeEnd).
// Empty id sets do not filter; both sets must match when given.
type FindAssignmentsParams struct {
	RangeStart time.Time
	RangeEnd   time.Time
	MemberIDs  []string
	RoleIDs    []string
}

// ConflictResult lists the existing assignments that overlap a candidate
// interval for one member. An empty list means the interval is free.
type ConflictResult struct {
	MemberID  string
	Start     time.Time
	End       time.Time
	Conflicts []TeamAssignment
}

// HasConflicts reports whether the candidate interval is taken.
func (r ConflictResult) HasConflicts() bool {
	return len(r.Conflicts) > 0
}

// ConflictIDs returns the ids of the conflicting assignments.
func (r ConflictResult) ConflictIDs() []string {
	ids := make([]string, len(r.Conflicts))
	for i, c := range r.Conflicts {
		ids[i] = c.ID
	}
	return ids
}

// AssignmentInput carries caller-supplied fields for creating or editing an
// assignment. When ActivityID is set and both times are zero, the linked
// activity's interval is used.
type AssignmentInput struct {
	MemberID   string
	RoleID     string
	ActivityID string
	Start      time.Time
	End        time.Time
	Location   string
}

// AssignmentOutcome is the result of a create or update. Assignment is only
// set when the write happened; otherwise Conflicts explains the rejection.
type AssignmentOutcome struct {
	Assignment TeamAssignment
	Conflicts  ConflictResult
}

// Written reports whether the assignment was persisted.
func (o AssignmentOutcome) Written() bool {
	return !o.Conflicts.HasConflicts() && o.Assignment.ID != ""
}

// DayGrid is one member's availability over one calendar day.
type DayGrid struct {
	MemberID    string
	Date        time.Time
	Granularity time.Duration
	Slots       []scheduler.Slot
}

// BusySlots returns the start times of busy slots.
func (g DayGrid) BusySlots() []time.Time {
	var busy []time.Time
	for _, slot := range g.Slots {
		if slot.State == scheduler.SlotBusy {
			busy = append(busy, slot.Start)
		}
	}
	return busy
}

// ActivityStatusReport is a resolved activity status with the dependency
// statuses that fed into it.
type ActivityStatusReport struct {
	ActivityID   string
	Status       scheduler.ActivityStatus
	Dependencies map[string]scheduler.ActivityStatus
	ResolvedAt   time.Time
}

// AuditFinding reports two stored assignments of the same member that overlap.
type AuditFinding struct {
	MemberID string
	First    TeamAssignment
	Second   TeamAssignment
}

func toTeamAssignment(record persistence.Assignment) TeamAssignment {
	assignment := TeamAssignment{
		ID:       record.ID,
		MemberID: record.MemberID,
		RoleID:   record.RoleID,
		Start:    record.Start,
		End:      record.End,
		Location: record.Location,
		Member: Member{
			ID:      record.Member.ID,
			Name:    record.Member.Name,
			RoleID:  record.Member.RoleID,
			Contact: record.Member.Contact,
		},
		Role:      Role{ID: record.Role.ID, Name: record.Role.Name},
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
	if record.Activity != nil {
		assignment.Activity = &ActivityRef{
			ID:    record.Activity.ID,
			Name:  record.Activity.Name,
			Start: record.Activity.Start,
			End:   record.Activity.End,
		}
	}
	return assignment
}

func toMember(record persistence.Member) Member {
	return Member{ID: record.ID, Name: record.Name, RoleID: record.RoleID, Contact: record.Contact}
}

func toSchedulerActivity(record persistence.Activity) scheduler.Activity {
	return scheduler.Activity{
		ID:            record.ID,
		Start:         record.Start,
		End:           record.End,
		Completed:     record.Completed,
		Status:        scheduler.ActivityStatus(record.Status),
		DependencyIDs: append([]string(nil), record.DependencyIDs...),
		ResourceIDs:   append([]string(nil), record.ResourceIDs...),
	}
}
