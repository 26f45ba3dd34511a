package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/crew-scheduler/internal/scheduler"
)

// AuditService reports stored assignments that overlap for the same member,
// for example rows written to the database by other tools or before the
// exclusion check existed.
type AuditService struct {
	queries *ScheduleQueryService
	cache   *auditCache
	metrics MetricsRecorder
	logger  *slog.Logger
}

// NewAuditService wires the query service. Results are cached for ttl.
func NewAuditService(queries *ScheduleQueryService, ttl time.Duration, metrics MetricsRecorder, now func() time.Time, logger *slog.Logger) *AuditService {
	return &AuditService{
		queries: queries,
		cache:   newAuditCache(ttl, 0, now),
		metrics: defaultRecorder(metrics),
		logger:  defaultLogger(logger),
	}
}

// AuditConflicts returns every overlapping pair of assignments of one member
// in [rangeStart, rangeEnd), ordered by member then by the first start.
func (s *AuditService) AuditConflicts(ctx context.Context, rangeStart, rangeEnd time.Time) ([]AuditFinding, error) {
	if s == nil || s.queries == nil {
		return nil, fmt.Errorf("AuditService is not configured")
	}
	if err := scheduler.ValidateInterval(rangeStart, rangeEnd); err != nil {
		return nil, err
	}

	key := auditCacheKey(rangeStart, rangeEnd)
	if cached, ok := s.cache.Get(key); ok {
		s.metrics.ObserveAuditCache(true)
		return cached, nil
	}
	s.metrics.ObserveAuditCache(false)
	generation := s.cache.Generation()

	assignments, err := s.queries.FindAssignments(ctx, FindAssignmentsParams{RangeStart: rangeStart, RangeEnd: rangeEnd})
	if err != nil {
		return nil, err
	}

	byID := make(map[string]TeamAssignment, len(assignments))
	bookings := make([]scheduler.Booking, len(assignments))
	for i, a := range assignments {
		byID[a.ID] = a
		bookings[i] = scheduler.Booking{ID: a.ID, MemberID: a.MemberID, Start: a.Start, End: a.End}
	}

	conflicts, err := scheduler.DetectConflicts(bookings)
	if err != nil {
		return nil, err
	}

	findings := make([]AuditFinding, len(conflicts))
	for i, c := range conflicts {
		findings[i] = AuditFinding{MemberID: c.MemberID, First: byID[c.FirstID], Second: byID[c.SecondID]}
	}
	if len(findings) > 0 {
		serviceLogger(ctx, s.logger, "audit", "audit_conflicts").Warn("stored assignments overlap", "findings", len(findings))
	}

	s.cache.Store(key, generation, findings)
	return findings, nil
}

// AssignmentsChanged drops cached audit results.
func (s *AuditService) AssignmentsChanged() {
	if s != nil {
		s.cache.Invalidate()
	}
}
