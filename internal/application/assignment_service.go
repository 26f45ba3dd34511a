package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/crew-scheduler/internal/persistence"
)

// ChangeListener is notified after any assignment write.
type ChangeListener interface {
	AssignmentsChanged()
}

// AssignmentService creates, edits and removes assignments. Each write holds
// the member's lock across validation and persistence, and the repository
// re-checks overlap inside its transaction, so two concurrent writers for the
// same member cannot both store overlapping assignments.
type AssignmentService struct {
	assignments persistence.AssignmentRepository
	activities  persistence.ActivityRepository
	guard       *ConflictGuard
	locks       *memberLocks
	listeners   []ChangeListener
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewAssignmentService wires dependencies for assignment writes.
func NewAssignmentService(assignments persistence.AssignmentRepository, activities persistence.ActivityRepository, guard *ConflictGuard, idGenerator func() string, now func() time.Time, logger *slog.Logger, listeners ...ChangeListener) *AssignmentService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AssignmentService{
		assignments: assignments,
		activities:  activities,
		guard:       guard,
		locks:       newMemberLocks(),
		listeners:   listeners,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// GetAssignment returns one resolved assignment.
func (s *AssignmentService) GetAssignment(ctx context.Context, id string) (TeamAssignment, error) {
	if err := s.ready(); err != nil {
		return TeamAssignment{}, err
	}
	record, err := s.assignments.GetAssignment(ctx, id)
	if err != nil {
		return TeamAssignment{}, mapRepoError(err)
	}
	return toTeamAssignment(record), nil
}

// CreateAssignment validates input and stores a new assignment when the
// member is free. A conflicting interval is returned in the outcome and
// nothing is written.
func (s *AssignmentService) CreateAssignment(ctx context.Context, input AssignmentInput) (AssignmentOutcome, error) {
	if err := s.ready(); err != nil {
		return AssignmentOutcome{}, err
	}
	logger := serviceLogger(ctx, s.logger, "assignment", "create", "member_id", input.MemberID)

	input, err := s.normalizeInput(ctx, input)
	if err != nil {
		logFailure(logger, "assignment rejected", err)
		return AssignmentOutcome{}, err
	}

	unlock := s.locks.lock(input.MemberID)
	defer unlock()

	result, err := s.guard.ValidateAssignment(ctx, input.MemberID, input.Start, input.End, "")
	if err != nil {
		return AssignmentOutcome{}, err
	}
	if result.HasConflicts() {
		return AssignmentOutcome{Conflicts: result}, nil
	}

	createdAt := s.now()
	record := persistence.Assignment{
		ID:        s.idGenerator(),
		MemberID:  input.MemberID,
		RoleID:    input.RoleID,
		Start:     input.Start,
		End:       input.End,
		Location:  input.Location,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if input.ActivityID != "" {
		record.Activity = &persistence.ActivityRef{ID: input.ActivityID}
	}
	if record.ID == "" {
		return AssignmentOutcome{}, fmt.Errorf("assignment id generator returned an empty id")
	}

	if err := s.assignments.InsertAssignment(ctx, record); err != nil {
		err = mapRepoError(err)
		logFailure(logger, "failed to insert assignment", err)
		return AssignmentOutcome{}, err
	}
	s.notify()
	logger.Info("assignment created", "assignment_id", record.ID)

	return s.outcomeFor(ctx, record.ID, result)
}

// UpdateAssignment replaces the fields of assignment id. Empty member, role
// and times keep their stored values. The assignment is validated against
// every other assignment of the (possibly new) member.
func (s *AssignmentService) UpdateAssignment(ctx context.Context, id string, input AssignmentInput) (AssignmentOutcome, error) {
	if err := s.ready(); err != nil {
		return AssignmentOutcome{}, err
	}
	logger := serviceLogger(ctx, s.logger, "assignment", "update", "assignment_id", id)

	existing, err := s.assignments.GetAssignment(ctx, id)
	if err != nil {
		return AssignmentOutcome{}, mapRepoError(err)
	}

	if input.MemberID == "" {
		input.MemberID = existing.MemberID
	}
	if input.RoleID == "" {
		input.RoleID = existing.RoleID
	}
	if input.ActivityID == "" && input.Start.IsZero() && input.End.IsZero() {
		input.Start, input.End = existing.Start, existing.End
	}
	input, err = s.normalizeInput(ctx, input)
	if err != nil {
		logFailure(logger, "assignment rejected", err)
		return AssignmentOutcome{}, err
	}

	unlock := s.locks.lock(existing.MemberID, input.MemberID)
	defer unlock()

	result, err := s.guard.ValidateAssignment(ctx, input.MemberID, input.Start, input.End, id)
	if err != nil {
		return AssignmentOutcome{}, err
	}
	if result.HasConflicts() {
		return AssignmentOutcome{Conflicts: result}, nil
	}

	updated := existing
	updated.MemberID = input.MemberID
	updated.RoleID = input.RoleID
	updated.Start = input.Start
	updated.End = input.End
	updated.Location = input.Location
	updated.Activity = nil
	if input.ActivityID != "" {
		updated.Activity = &persistence.ActivityRef{ID: input.ActivityID}
	}
	updated.UpdatedAt = s.now()

	if err := s.assignments.UpdateAssignment(ctx, updated); err != nil {
		err = mapRepoError(err)
		logFailure(logger, "failed to update assignment", err)
		return AssignmentOutcome{}, err
	}
	s.notify()
	logger.Info("assignment updated")

	return s.outcomeFor(ctx, id, result)
}

// DeleteAssignment unassigns a member by removing the assignment.
func (s *AssignmentService) DeleteAssignment(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.assignments.DeleteAssignment(ctx, id); err != nil {
		return mapRepoError(err)
	}
	s.notify()
	serviceLogger(ctx, s.logger, "assignment", "delete", "assignment_id", id).Info("assignment deleted")
	return nil
}

func (s *AssignmentService) ready() error {
	if s == nil {
		return fmt.Errorf("AssignmentService is nil")
	}
	if s.assignments == nil || s.guard == nil {
		return fmt.Errorf("assignment service not configured")
	}
	return nil
}

// normalizeInput trims fields, fills times from the linked activity when none
// are given, and reports field errors.
func (s *AssignmentService) normalizeInput(ctx context.Context, input AssignmentInput) (AssignmentInput, error) {
	input.MemberID = strings.TrimSpace(input.MemberID)
	input.RoleID = strings.TrimSpace(input.RoleID)
	input.ActivityID = strings.TrimSpace(input.ActivityID)
	input.Location = strings.TrimSpace(input.Location)

	vErr := &ValidationError{}
	if input.MemberID == "" {
		vErr.add("member_id", "member is required")
	}
	if input.RoleID == "" {
		vErr.add("role_id", "role is required")
	}

	if input.ActivityID != "" && input.Start.IsZero() && input.End.IsZero() {
		start, end, err := s.activityInterval(ctx, input.ActivityID)
		switch {
		case errors.Is(err, ErrNotFound):
			vErr.add("activity_id", "activity does not exist")
		case err != nil:
			return AssignmentInput{}, err
		default:
			input.Start, input.End = start, end
		}
	}

	if input.Start.IsZero() {
		vErr.add("start", "start is required")
	}
	if input.End.IsZero() {
		vErr.add("end", "end is required")
	}
	if !input.Start.IsZero() && !input.End.IsZero() && !input.Start.Before(input.End) {
		vErr.add("time", "start must be before end")
	}

	if vErr.HasErrors() {
		return AssignmentInput{}, vErr
	}
	return input, nil
}

func (s *AssignmentService) activityInterval(ctx context.Context, activityID string) (time.Time, time.Time, error) {
	if s.activities == nil {
		return time.Time{}, time.Time{}, fmt.Errorf("activity repository not configured")
	}
	activity, err := s.activities.FetchActivity(ctx, activityID)
	if err != nil {
		return time.Time{}, time.Time{}, mapRepoError(err)
	}
	return activity.Start, activity.End, nil
}

func (s *AssignmentService) outcomeFor(ctx context.Context, id string, result ConflictResult) (AssignmentOutcome, error) {
	stored, err := s.assignments.GetAssignment(ctx, id)
	if err != nil {
		return AssignmentOutcome{}, mapRepoError(err)
	}
	return AssignmentOutcome{Assignment: toTeamAssignment(stored), Conflicts: result}, nil
}

func (s *AssignmentService) notify() {
	for _, listener := range s.listeners {
		if listener != nil {
			listener.AssignmentsChanged()
		}
	}
}
