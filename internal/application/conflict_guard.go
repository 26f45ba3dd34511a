package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/crew-scheduler/internal/scheduler"
)

// ConflictGuard validates a candidate interval for a member against the
// stored assignments. Every create and update goes through it before the
// write; atomicity of check and write is the caller's concern, see
// AssignmentService.
type ConflictGuard struct {
	queries *ScheduleQueryService
	metrics MetricsRecorder
	now     func() time.Time
	logger  *slog.Logger
}

// NewConflictGuard wires the query service and an optional metrics recorder.
func NewConflictGuard(queries *ScheduleQueryService, metrics MetricsRecorder, logger *slog.Logger) *ConflictGuard {
	return &ConflictGuard{
		queries: queries,
		metrics: defaultRecorder(metrics),
		now:     time.Now,
		logger:  defaultLogger(logger),
	}
}

// ValidateAssignment returns the assignments of memberID overlapping
// [start, end), ignoring excludeID. A non-empty result is a rejection the
// caller must handle; it is not an error.
func (g *ConflictGuard) ValidateAssignment(ctx context.Context, memberID string, start, end time.Time, excludeID string) (ConflictResult, error) {
	if g == nil || g.queries == nil {
		return ConflictResult{}, fmt.Errorf("ConflictGuard is not configured")
	}
	began := g.now()
	logger := serviceLogger(ctx, g.logger, "conflict_guard", "validate_assignment", "member_id", memberID)

	if err := scheduler.ValidateInterval(start, end); err != nil {
		g.metrics.ObserveValidation(OutcomeError, g.now().Sub(began))
		return ConflictResult{}, err
	}

	conflicts, err := g.queries.FindConflicts(ctx, memberID, start, end, excludeID)
	if err != nil {
		g.metrics.ObserveValidation(OutcomeError, g.now().Sub(began))
		logFailure(logger, "conflict lookup failed", err)
		return ConflictResult{}, err
	}

	result := ConflictResult{MemberID: memberID, Start: start, End: end, Conflicts: conflicts}
	if result.HasConflicts() {
		g.metrics.ObserveValidation(OutcomeConflict, g.now().Sub(began))
		logger.Info("candidate interval conflicts", "conflicts", result.ConflictIDs())
		return result, nil
	}

	g.metrics.ObserveValidation(OutcomeFree, g.now().Sub(began))
	return result, nil
}
