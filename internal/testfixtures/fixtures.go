package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/crew-scheduler/internal/application"
	"github.com/example/crew-scheduler/internal/persistence"
	"github.com/example/crew-scheduler/internal/scheduler"
)

var (
	memberCounter     uint64
	activityCounter   uint64
	assignmentCounter uint64
)

var referenceTime = time.Date(2025, time.May, 15, 0, 0, 0, 0, time.UTC)

// ReferenceTime returns midnight UTC of the day all fixtures are placed on.
func ReferenceTime() time.Time {
	return referenceTime
}

// At returns hour:minute on the reference day.
func At(hour, minute int) time.Time {
	return referenceTime.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

// DefaultRole is the role every generated member and assignment uses unless
// overridden.
var DefaultRole = persistence.Role{ID: "role-tech", Name: "Technician"}

// ----------------------------- Member fixtures -----------------------------

// MemberFixture is a deterministic crew member.
type MemberFixture struct {
	ID      string
	Name    string
	RoleID  string
	Contact string
}

// MemberOption configures a generated member.
type MemberOption func(*MemberFixture)

// NewMemberFixture returns a member with a unique id such as member-001.
func NewMemberFixture(opts ...MemberOption) MemberFixture {
	idx := atomic.AddUint64(&memberCounter, 1)
	id := fmt.Sprintf("member-%03d", idx)
	fixture := MemberFixture{
		ID:      id,
		Name:    fmt.Sprintf("Member %03d", idx),
		RoleID:  DefaultRole.ID,
		Contact: id + "@crew.example",
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithMemberID(id string) MemberOption {
	return func(f *MemberFixture) { f.ID = id }
}

func WithMemberName(name string) MemberOption {
	return func(f *MemberFixture) { f.Name = name }
}

func WithMemberRole(roleID string) MemberOption {
	return func(f *MemberFixture) { f.RoleID = roleID }
}

func (f MemberFixture) Persistence() persistence.Member {
	return persistence.Member{ID: f.ID, Name: f.Name, RoleID: f.RoleID, Contact: f.Contact}
}

func (f MemberFixture) Application() application.Member {
	return application.Member{ID: f.ID, Name: f.Name, RoleID: f.RoleID, Contact: f.Contact}
}

// ---------------------------- Activity fixtures ----------------------------

// ActivityFixture is a deterministic activity. It defaults to 09:00-10:00 on
// the reference day with no dependencies or resources.
type ActivityFixture struct {
	ID            string
	Name          string
	Start         time.Time
	End           time.Time
	StageID       string
	Completed     bool
	Status        scheduler.ActivityStatus
	DependencyIDs []string
	ResourceIDs   []string
}

// ActivityOption configures a generated activity.
type ActivityOption func(*ActivityFixture)

func NewActivityFixture(opts ...ActivityOption) ActivityFixture {
	idx := atomic.AddUint64(&activityCounter, 1)
	fixture := ActivityFixture{
		ID:      fmt.Sprintf("activity-%03d", idx),
		Name:    fmt.Sprintf("Activity %03d", idx),
		Start:   At(9, 0),
		End:     At(10, 0),
		StageID: "main-stage",
		Status:  scheduler.StatusScheduled,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithActivityID(id string) ActivityOption {
	return func(f *ActivityFixture) { f.ID = id }
}

func WithActivityWindow(start, end time.Time) ActivityOption {
	return func(f *ActivityFixture) {
		f.Start = start
		f.End = end
	}
}

func WithActivityStatus(status scheduler.ActivityStatus) ActivityOption {
	return func(f *ActivityFixture) { f.Status = status }
}

// WithActivityCompleted marks the activity finished.
func WithActivityCompleted() ActivityOption {
	return func(f *ActivityFixture) {
		f.Completed = true
		f.Status = scheduler.StatusCompleted
	}
}

func WithActivityDependencies(ids ...string) ActivityOption {
	return func(f *ActivityFixture) { f.DependencyIDs = append([]string(nil), ids...) }
}

func WithActivityResources(ids ...string) ActivityOption {
	return func(f *ActivityFixture) { f.ResourceIDs = append([]string(nil), ids...) }
}

func (f ActivityFixture) Persistence() persistence.Activity {
	return persistence.Activity{
		ID:            f.ID,
		Name:          f.Name,
		Start:         f.Start,
		End:           f.End,
		StageID:       f.StageID,
		Completed:     f.Completed,
		Status:        string(f.Status),
		DependencyIDs: append([]string(nil), f.DependencyIDs...),
		ResourceIDs:   append([]string(nil), f.ResourceIDs...),
	}
}

func (f ActivityFixture) Scheduler() scheduler.Activity {
	return scheduler.Activity{
		ID:            f.ID,
		Start:         f.Start,
		End:           f.End,
		Completed:     f.Completed,
		Status:        f.Status,
		DependencyIDs: append([]string(nil), f.DependencyIDs...),
		ResourceIDs:   append([]string(nil), f.ResourceIDs...),
	}
}

// --------------------------- Assignment fixtures ---------------------------

// AssignmentFixture is a deterministic team assignment. It defaults to
// 09:00-10:00 on the reference day under DefaultRole.
type AssignmentFixture struct {
	ID         string
	MemberID   string
	RoleID     string
	ActivityID string
	Start      time.Time
	End        time.Time
	Location   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AssignmentOption configures a generated assignment.
type AssignmentOption func(*AssignmentFixture)

func NewAssignmentFixture(memberID string, opts ...AssignmentOption) AssignmentFixture {
	idx := atomic.AddUint64(&assignmentCounter, 1)
	fixture := AssignmentFixture{
		ID:        fmt.Sprintf("assignment-%03d", idx),
		MemberID:  memberID,
		RoleID:    DefaultRole.ID,
		Start:     At(9, 0),
		End:       At(10, 0),
		Location:  "Hall A",
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithAssignmentID(id string) AssignmentOption {
	return func(f *AssignmentFixture) { f.ID = id }
}

func WithAssignmentWindow(start, end time.Time) AssignmentOption {
	return func(f *AssignmentFixture) {
		f.Start = start
		f.End = end
	}
}

func WithAssignmentRole(roleID string) AssignmentOption {
	return func(f *AssignmentFixture) { f.RoleID = roleID }
}

func WithAssignmentActivity(activityID string) AssignmentOption {
	return func(f *AssignmentFixture) { f.ActivityID = activityID }
}

func WithAssignmentLocation(location string) AssignmentOption {
	return func(f *AssignmentFixture) { f.Location = location }
}

func (f AssignmentFixture) Persistence() persistence.Assignment {
	record := persistence.Assignment{
		ID:        f.ID,
		MemberID:  f.MemberID,
		RoleID:    f.RoleID,
		Start:     f.Start,
		End:       f.End,
		Location:  f.Location,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
	if f.ActivityID != "" {
		record.Activity = &persistence.ActivityRef{ID: f.ActivityID}
	}
	return record
}

// Input returns the fixture as a service-level create request.
func (f AssignmentFixture) Input() application.AssignmentInput {
	return application.AssignmentInput{
		MemberID:   f.MemberID,
		RoleID:     f.RoleID,
		ActivityID: f.ActivityID,
		Start:      f.Start,
		End:        f.End,
		Location:   f.Location,
	}
}
