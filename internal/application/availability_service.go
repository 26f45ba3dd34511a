package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/crew-scheduler/internal/persistence"
	"github.com/example/crew-scheduler/internal/scheduler"
)

// AvailabilityService builds day grids and answers who is free in a window.
type AvailabilityService struct {
	queries     *ScheduleQueryService
	members     persistence.MemberRepository
	granularity time.Duration
	metrics     MetricsRecorder
	now         func() time.Time
	logger      *slog.Logger
}

// NewAvailabilityService wires dependencies. A non-positive granularity falls
// back to scheduler.DefaultGranularity.
func NewAvailabilityService(queries *ScheduleQueryService, members persistence.MemberRepository, granularity time.Duration, metrics MetricsRecorder, logger *slog.Logger) *AvailabilityService {
	if granularity <= 0 {
		granularity = scheduler.DefaultGranularity
	}
	return &AvailabilityService{
		queries:     queries,
		members:     members,
		granularity: granularity,
		metrics:     defaultRecorder(metrics),
		now:         time.Now,
		logger:      defaultLogger(logger),
	}
}

// BuildDayGrid returns memberID's busy/available slots for the calendar day
// containing date, in date's location. granularity of zero uses the service
// default. The grid always has ceil(day/granularity) slots.
func (s *AvailabilityService) BuildDayGrid(ctx context.Context, memberID string, date time.Time, granularity time.Duration) (DayGrid, error) {
	if s == nil || s.queries == nil {
		return DayGrid{}, fmt.Errorf("AvailabilityService is not configured")
	}
	if memberID == "" {
		return DayGrid{}, newValidationError("member_id", "member is required")
	}
	if date.IsZero() {
		return DayGrid{}, newValidationError("date", "date is required")
	}
	if granularity == 0 {
		granularity = s.granularity
	}
	if granularity < 0 {
		return DayGrid{}, fmt.Errorf("%w: %s", ErrInvalidGranularity, granularity)
	}

	began := s.now()
	dayStart, dayEnd := scheduler.DayBounds(date)

	assignments, err := s.queries.FindAssignments(ctx, FindAssignmentsParams{
		RangeStart: dayStart,
		RangeEnd:   dayEnd,
		MemberIDs:  []string{memberID},
	})
	if err != nil {
		return DayGrid{}, err
	}

	busy := make([]scheduler.Interval, len(assignments))
	for i, a := range assignments {
		busy[i] = scheduler.Interval{Start: a.Start, End: a.End}
	}

	slots, err := scheduler.BuildSlots(dayStart, dayEnd, granularity, busy)
	if err != nil {
		return DayGrid{}, err
	}
	s.metrics.ObserveGridBuild(s.now().Sub(began))

	return DayGrid{MemberID: memberID, Date: dayStart, Granularity: granularity, Slots: slots}, nil
}

// ListMembers returns every member ordered by id, restricted to members
// holding one of roleIDs when given.
func (s *AvailabilityService) ListMembers(ctx context.Context, roleIDs []string) ([]Member, error) {
	if s == nil || s.members == nil {
		return nil, fmt.Errorf("AvailabilityService is not configured")
	}
	records, err := s.members.ListMembers(ctx, sortStrings(uniqueStrings(roleIDs)))
	if err != nil {
		err = mapRepoError(err)
		logFailure(serviceLogger(ctx, s.logger, "availability", "list_members"), "failed to list members", err)
		return nil, err
	}
	members := make([]Member, len(records))
	for i, record := range records {
		members[i] = toMember(record)
	}
	return members, nil
}

// ListRoles returns every role ordered by id.
func (s *AvailabilityService) ListRoles(ctx context.Context) ([]Role, error) {
	if s == nil || s.members == nil {
		return nil, fmt.Errorf("AvailabilityService is not configured")
	}
	records, err := s.members.ListRoles(ctx)
	if err != nil {
		err = mapRepoError(err)
		logFailure(serviceLogger(ctx, s.logger, "availability", "list_roles"), "failed to list roles", err)
		return nil, err
	}
	roles := make([]Role, len(records))
	for i, record := range records {
		roles[i] = Role{ID: record.ID, Name: record.Name}
	}
	return roles, nil
}

// AvailableMembers returns members with no assignment overlapping
// [start, end), restricted to members holding one of roleIDs when given.
func (s *AvailabilityService) AvailableMembers(ctx context.Context, start, end time.Time, roleIDs []string) ([]Member, error) {
	if s == nil || s.queries == nil || s.members == nil {
		return nil, fmt.Errorf("AvailabilityService is not configured")
	}
	if err := scheduler.ValidateInterval(start, end); err != nil {
		return nil, err
	}

	records, err := s.members.ListMembers(ctx, sortStrings(uniqueStrings(roleIDs)))
	if err != nil {
		err = mapRepoError(err)
		logFailure(serviceLogger(ctx, s.logger, "availability", "available_members"), "failed to list members", err)
		return nil, err
	}
	if len(records) == 0 {
		return []Member{}, nil
	}

	ids := make([]string, len(records))
	for i, m := range records {
		ids[i] = m.ID
	}
	assignments, err := s.queries.FindAssignments(ctx, FindAssignmentsParams{
		RangeStart: start,
		RangeEnd:   end,
		MemberIDs:  ids,
	})
	if err != nil {
		return nil, err
	}

	busy := make(map[string]bool, len(assignments))
	for _, a := range assignments {
		busy[a.MemberID] = true
	}

	available := make([]Member, 0, len(records))
	for _, record := range records {
		if !busy[record.ID] {
			available = append(available, toMember(record))
		}
	}
	return available, nil
}
