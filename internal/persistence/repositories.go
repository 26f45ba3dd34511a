package persistence

import (
	"context"
	"time"
)

// AssignmentFilter narrows assignment fetches. RangeStart and RangeEnd are
// required; an assignment matches when it overlaps [RangeStart, RangeEnd).
type AssignmentFilter struct {
	RangeStart time.Time
	RangeEnd   time.Time
	MemberIDs  []string
	RoleIDs    []string
}

// AssignmentRepository stores team assignments.
type AssignmentRepository interface {
	FetchAssignments(ctx context.Context, filter AssignmentFilter) ([]Assignment, error)
	GetAssignment(ctx context.Context, id string) (Assignment, error)
	// InsertAssignment and UpdateAssignment reject a write with ErrOverlap when
	// another assignment of the same member overlaps it.
	InsertAssignment(ctx context.Context, assignment Assignment) error
	UpdateAssignment(ctx context.Context, assignment Assignment) error
	DeleteAssignment(ctx context.Context, id string) error
}

// ActivityRepository stores activities with their dependency and resource sets.
type ActivityRepository interface {
	CreateActivity(ctx context.Context, activity Activity) error
	FetchActivity(ctx context.Context, id string) (Activity, error)
	FetchActivities(ctx context.Context, ids []string) ([]Activity, error)
	SetActivityStatus(ctx context.Context, id, status string) error
	SetActivityCompleted(ctx context.Context, id string, completed bool) error
}

// MemberRepository stores crew members and roles.
type MemberRepository interface {
	CreateRole(ctx context.Context, role Role) error
	CreateMember(ctx context.Context, member Member) error
	GetMember(ctx context.Context, id string) (Member, error)
	ListMembers(ctx context.Context, roleIDs []string) ([]Member, error)
	ListRoles(ctx context.Context) ([]Role, error)
}

// ResourceRepository answers resource availability questions.
type ResourceRepository interface {
	CreateResource(ctx context.Context, resource Resource) error
	AddOutage(ctx context.Context, outage ResourceOutage) error
	IsResourceAvailable(ctx context.Context, resourceID string, start, end time.Time) (bool, error)
}
