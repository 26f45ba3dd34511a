package application

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/example/crew-scheduler/internal/persistence"
)

func at(hour, minute int) time.Time {
	return time.Date(2025, time.May, 15, hour, minute, 0, 0, time.UTC)
}

type assignmentRepoStub struct {
	mu        sync.Mutex
	members   map[string]persistence.Member
	records   map[string]persistence.Assignment
	fetchErr  error
	insertErr error
	fetches   int
	lastQuery persistence.AssignmentFilter
	// afterFetch runs once a fetch has taken its snapshot, outside the lock.
	afterFetch func()
}

func newAssignmentRepoStub(memberIDs ...string) *assignmentRepoStub {
	repo := &assignmentRepoStub{
		members: make(map[string]persistence.Member),
		records: make(map[string]persistence.Assignment),
	}
	for _, id := range memberIDs {
		repo.members[id] = persistence.Member{ID: id, Name: "Member " + id}
	}
	return repo
}

func (r *assignmentRepoStub) add(id, memberID, roleID string, start, end time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[id] = persistence.Assignment{ID: id, MemberID: memberID, RoleID: roleID, Start: start, End: end}
}

func (r *assignmentRepoStub) FetchAssignments(ctx context.Context, filter persistence.AssignmentFilter) ([]persistence.Assignment, error) {
	out, hook, err := r.fetch(filter)
	if hook != nil {
		hook()
	}
	return out, err
}

func (r *assignmentRepoStub) fetch(filter persistence.AssignmentFilter) ([]persistence.Assignment, func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	hook := r.afterFetch
	r.fetches++
	r.lastQuery = filter
	if r.fetchErr != nil {
		return nil, hook, r.fetchErr
	}
	for _, id := range filter.MemberIDs {
		if _, ok := r.members[id]; !ok {
			return nil, hook, fmt.Errorf("%w: %s", persistence.ErrMemberNotFound, id)
		}
	}

	out := make([]persistence.Assignment, 0, len(r.records))
	for _, record := range r.records {
		if record.Start.Before(filter.RangeEnd) && filter.RangeStart.Before(record.End) {
			out = append(out, r.resolve(record))
		}
	}
	// Returned out of order on purpose; the service sorts.
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, hook, nil
}

func (r *assignmentRepoStub) GetAssignment(ctx context.Context, id string) (persistence.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[id]
	if !ok {
		return persistence.Assignment{}, persistence.ErrNotFound
	}
	return r.resolve(record), nil
}

func (r *assignmentRepoStub) InsertAssignment(ctx context.Context, assignment persistence.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	if _, exists := r.records[assignment.ID]; exists {
		return persistence.ErrDuplicate
	}
	r.records[assignment.ID] = assignment
	return nil
}

func (r *assignmentRepoStub) UpdateAssignment(ctx context.Context, assignment persistence.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[assignment.ID]; !exists {
		return persistence.ErrNotFound
	}
	r.records[assignment.ID] = assignment
	return nil
}

func (r *assignmentRepoStub) DeleteAssignment(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[id]; !exists {
		return persistence.ErrNotFound
	}
	delete(r.records, id)
	return nil
}

func (r *assignmentRepoStub) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

func (r *assignmentRepoStub) resolve(record persistence.Assignment) persistence.Assignment {
	record.Member = r.members[record.MemberID]
	record.Role = persistence.Role{ID: record.RoleID, Name: "Role " + record.RoleID}
	return record
}

type memberRepoStub struct {
	members []persistence.Member
	roles   []persistence.Role
	err     error
}

func (m *memberRepoStub) CreateRole(ctx context.Context, role persistence.Role) error {
	m.roles = append(m.roles, role)
	return nil
}

func (m *memberRepoStub) ListRoles(ctx context.Context) ([]persistence.Role, error) {
	if m.err != nil {
		return nil, m.err
	}
	return append([]persistence.Role(nil), m.roles...), nil
}

func (m *memberRepoStub) CreateMember(ctx context.Context, member persistence.Member) error {
	m.members = append(m.members, member)
	return nil
}

func (m *memberRepoStub) GetMember(ctx context.Context, id string) (persistence.Member, error) {
	for _, member := range m.members {
		if member.ID == id {
			return member, nil
		}
	}
	return persistence.Member{}, persistence.ErrMemberNotFound
}

func (m *memberRepoStub) ListMembers(ctx context.Context, roleIDs []string) ([]persistence.Member, error) {
	if m.err != nil {
		return nil, m.err
	}
	roles := toSet(roleIDs)
	var out []persistence.Member
	for _, member := range m.members {
		if len(roles) == 0 || roles[member.RoleID] {
			out = append(out, member)
		}
	}
	return out, nil
}

type activityRepoStub struct {
	mu         sync.Mutex
	activities map[string]persistence.Activity
	fetchErr   error
}

func newActivityRepoStub(activities ...persistence.Activity) *activityRepoStub {
	repo := &activityRepoStub{activities: make(map[string]persistence.Activity)}
	for _, a := range activities {
		repo.activities[a.ID] = a
	}
	return repo
}

func (r *activityRepoStub) CreateActivity(ctx context.Context, activity persistence.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activities[activity.ID] = activity
	return nil
}

func (r *activityRepoStub) FetchActivity(ctx context.Context, id string) (persistence.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fetchErr != nil {
		return persistence.Activity{}, r.fetchErr
	}
	a, ok := r.activities[id]
	if !ok {
		return persistence.Activity{}, persistence.ErrNotFound
	}
	return a, nil
}

func (r *activityRepoStub) FetchActivities(ctx context.Context, ids []string) ([]persistence.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []persistence.Activity
	for _, id := range ids {
		if a, ok := r.activities[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *activityRepoStub) SetActivityStatus(ctx context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.activities[id]
	if !ok {
		return persistence.ErrNotFound
	}
	a.Status = status
	r.activities[id] = a
	return nil
}

func (r *activityRepoStub) SetActivityCompleted(ctx context.Context, id string, completed bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.activities[id]
	if !ok {
		return persistence.ErrNotFound
	}
	a.Completed = completed
	r.activities[id] = a
	return nil
}

func (r *activityRepoStub) status(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activities[id].Status
}

type resourceRepoStub struct {
	busy  map[string]bool
	calls int
}

func (r *resourceRepoStub) CreateResource(ctx context.Context, resource persistence.Resource) error {
	return nil
}

func (r *resourceRepoStub) AddOutage(ctx context.Context, outage persistence.ResourceOutage) error {
	return nil
}

func (r *resourceRepoStub) IsResourceAvailable(ctx context.Context, resourceID string, start, end time.Time) (bool, error) {
	r.calls++
	return !r.busy[resourceID], nil
}

type recorderStub struct {
	mu          sync.Mutex
	validations map[string]int
	grids       int
	statuses    map[string]int
	cacheHits   int
	cacheMisses int
}

func newRecorderStub() *recorderStub {
	return &recorderStub{validations: map[string]int{}, statuses: map[string]int{}}
}

func (r *recorderStub) ObserveValidation(outcome string, elapsed time.Duration) {
	r.mu.Lock()
	r.validations[outcome]++
	r.mu.Unlock()
}

func (r *recorderStub) ObserveGridBuild(elapsed time.Duration) {
	r.mu.Lock()
	r.grids++
	r.mu.Unlock()
}

func (r *recorderStub) ObserveStatusResolution(status string) {
	r.mu.Lock()
	r.statuses[status]++
	r.mu.Unlock()
}

func (r *recorderStub) ObserveAuditCache(hit bool) {
	r.mu.Lock()
	if hit {
		r.cacheHits++
	} else {
		r.cacheMisses++
	}
	r.mu.Unlock()
}
