package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/example/crew-scheduler/internal/persistence"
	"github.com/example/crew-scheduler/internal/scheduler"
)

// ScheduleQueryService retrieves resolved assignments by range and filters.
// It is read-only.
type ScheduleQueryService struct {
	assignments persistence.AssignmentRepository
	logger      *slog.Logger
}

// NewScheduleQueryService wires the assignment repository.
func NewScheduleQueryService(assignments persistence.AssignmentRepository, logger *slog.Logger) *ScheduleQueryService {
	return &ScheduleQueryService{assignments: assignments, logger: defaultLogger(logger)}
}

// FindAssignments returns every assignment overlapping the range and matching
// the member and role filters, ordered by start time then member id. Unknown
// member ids surface as ErrMemberNotFound.
func (s *ScheduleQueryService) FindAssignments(ctx context.Context, params FindAssignmentsParams) ([]TeamAssignment, error) {
	if s == nil {
		return nil, fmt.Errorf("ScheduleQueryService is nil")
	}
	if s.assignments == nil {
		return nil, fmt.Errorf("assignment repository not configured")
	}
	if err := scheduler.ValidateInterval(params.RangeStart, params.RangeEnd); err != nil {
		return nil, err
	}

	memberIDs := sortStrings(uniqueStrings(params.MemberIDs))
	roleIDs := sortStrings(uniqueStrings(params.RoleIDs))

	records, err := s.assignments.FetchAssignments(ctx, persistence.AssignmentFilter{
		RangeStart: params.RangeStart,
		RangeEnd:   params.RangeEnd,
		MemberIDs:  memberIDs,
		RoleIDs:    roleIDs,
	})
	if err != nil {
		err = mapRepoError(err)
		logFailure(serviceLogger(ctx, s.logger, "schedule_query", "find_assignments"), "failed to fetch assignments", err)
		return nil, err
	}

	memberSet := toSet(memberIDs)
	roleSet := toSet(roleIDs)

	result := make([]TeamAssignment, 0, len(records))
	for _, record := range records {
		if len(memberSet) > 0 && !memberSet[record.MemberID] {
			continue
		}
		if len(roleSet) > 0 && !roleSet[record.RoleID] {
			continue
		}
		overlaps, err := scheduler.Overlaps(record.Start, record.End, params.RangeStart, params.RangeEnd)
		if err != nil {
			return nil, fmt.Errorf("assignment %s: %w", record.ID, err)
		}
		if overlaps {
			result = append(result, toTeamAssignment(record))
		}
	}

	sortAssignments(result)
	return result, nil
}

// FindConflicts returns the assignments of memberID that overlap [start, end),
// leaving out excludeID when it is set.
func (s *ScheduleQueryService) FindConflicts(ctx context.Context, memberID string, start, end time.Time, excludeID string) ([]TeamAssignment, error) {
	if memberID == "" {
		return nil, newValidationError("member_id", "member is required")
	}
	if err := scheduler.ValidateInterval(start, end); err != nil {
		return nil, err
	}

	assignments, err := s.FindAssignments(ctx, FindAssignmentsParams{
		RangeStart: start,
		RangeEnd:   end,
		MemberIDs:  []string{memberID},
	})
	if err != nil {
		return nil, err
	}
	if excludeID == "" {
		return assignments, nil
	}

	filtered := assignments[:0]
	for _, assignment := range assignments {
		if assignment.ID != excludeID {
			filtered = append(filtered, assignment)
		}
	}
	return filtered, nil
}

func sortAssignments(assignments []TeamAssignment) {
	sort.SliceStable(assignments, func(i, j int) bool {
		a, b := assignments[i], assignments[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		if a.MemberID != b.MemberID {
			return a.MemberID < b.MemberID
		}
		return a.ID < b.ID
	})
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, value := range values {
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}
	return result
}

func sortStrings(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	sort.Strings(out)
	return out
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
