package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/crew-scheduler/internal/persistence"
	"github.com/example/crew-scheduler/internal/scheduler"
)

// ActivityService loads activities with their dependency closure and derives
// statuses through scheduler.Resolver. The clock is always explicit: a zero
// now passed by the caller is replaced by the service clock once, before
// resolution starts.
type ActivityService struct {
	activities persistence.ActivityRepository
	resources  persistence.ResourceRepository
	resolver   scheduler.Resolver
	metrics    MetricsRecorder
	now        func() time.Time
	logger     *slog.Logger
}

// NewActivityService wires dependencies. upcomingWindow of zero uses
// scheduler.DefaultUpcomingWindow.
func NewActivityService(activities persistence.ActivityRepository, resources persistence.ResourceRepository, upcomingWindow time.Duration, metrics MetricsRecorder, now func() time.Time, logger *slog.Logger) *ActivityService {
	if now == nil {
		now = time.Now
	}
	return &ActivityService{
		activities: activities,
		resources:  resources,
		resolver:   scheduler.Resolver{UpcomingWindow: upcomingWindow},
		metrics:    defaultRecorder(metrics),
		now:        now,
		logger:     defaultLogger(logger),
	}
}

// ResolveActivityStatus derives the current status of activity id at now.
func (s *ActivityService) ResolveActivityStatus(ctx context.Context, id string, now time.Time) (ActivityStatusReport, error) {
	if s == nil || s.activities == nil {
		return ActivityStatusReport{}, fmt.Errorf("ActivityService is not configured")
	}
	if now.IsZero() {
		now = s.now()
	}
	logger := serviceLogger(ctx, s.logger, "activity", "resolve_status", "activity_id", id)

	closure, err := s.loadClosure(ctx, id)
	if err != nil {
		logFailure(logger, "failed to load activity", err)
		return ActivityStatusReport{}, err
	}

	available := func(resourceID string, start, end time.Time) (bool, error) {
		if s.resources == nil {
			return false, fmt.Errorf("resource repository not configured")
		}
		return s.resources.IsResourceAvailable(ctx, resourceID, start, end)
	}

	statuses, err := s.resolver.ResolveGraph(id, closure, now, available)
	if err != nil {
		logFailure(logger, "failed to resolve status", err)
		return ActivityStatusReport{}, err
	}

	root := closure[id]
	deps := make(map[string]scheduler.ActivityStatus, len(root.DependencyIDs))
	for _, depID := range root.DependencyIDs {
		if status, ok := statuses[depID]; ok {
			deps[depID] = status
		}
	}

	status := statuses[id]
	s.metrics.ObserveStatusResolution(string(status))
	return ActivityStatusReport{ActivityID: id, Status: status, Dependencies: deps, ResolvedAt: now}, nil
}

// RefreshActivityStatus resolves the status and writes it to the cached
// status column. A recorded in_progress start is kept unless the activity
// has completed.
func (s *ActivityService) RefreshActivityStatus(ctx context.Context, id string, now time.Time) (ActivityStatusReport, error) {
	report, err := s.ResolveActivityStatus(ctx, id, now)
	if err != nil {
		return ActivityStatusReport{}, err
	}

	current, err := s.activities.FetchActivity(ctx, id)
	if err != nil {
		return ActivityStatusReport{}, mapRepoError(err)
	}
	if scheduler.ActivityStatus(current.Status) == scheduler.StatusInProgress && report.Status != scheduler.StatusCompleted {
		return report, nil
	}
	if current.Status == string(report.Status) {
		return report, nil
	}

	if err := s.activities.SetActivityStatus(ctx, id, string(report.Status)); err != nil {
		return ActivityStatusReport{}, mapRepoError(err)
	}
	serviceLogger(ctx, s.logger, "activity", "refresh_status", "activity_id", id).
		Info("activity status changed", "from", current.Status, "to", string(report.Status))
	return report, nil
}

// StartActivity records in_progress as the last-known status.
func (s *ActivityService) StartActivity(ctx context.Context, id string) error {
	if s == nil || s.activities == nil {
		return fmt.Errorf("ActivityService is not configured")
	}
	activity, err := s.activities.FetchActivity(ctx, id)
	if err != nil {
		return mapRepoError(err)
	}
	if activity.Completed {
		return newValidationError("status", "activity is already completed")
	}
	if err := s.activities.SetActivityStatus(ctx, id, string(scheduler.StatusInProgress)); err != nil {
		return mapRepoError(err)
	}
	serviceLogger(ctx, s.logger, "activity", "start", "activity_id", id).Info("activity started")
	return nil
}

// CompleteActivity sets the completed flag.
func (s *ActivityService) CompleteActivity(ctx context.Context, id string) error {
	if s == nil || s.activities == nil {
		return fmt.Errorf("ActivityService is not configured")
	}
	if err := s.activities.SetActivityCompleted(ctx, id, true); err != nil {
		return mapRepoError(err)
	}
	if err := s.activities.SetActivityStatus(ctx, id, string(scheduler.StatusCompleted)); err != nil {
		return mapRepoError(err)
	}
	serviceLogger(ctx, s.logger, "activity", "complete", "activity_id", id).Info("activity completed")
	return nil
}

// loadClosure fetches id and everything it transitively depends on.
// Dependencies that do not exist are left out so the resolver reports them
// as missing.
func (s *ActivityService) loadClosure(ctx context.Context, id string) (map[string]scheduler.Activity, error) {
	root, err := s.activities.FetchActivity(ctx, id)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, mapRepoError(err)
	}

	closure := map[string]scheduler.Activity{root.ID: toSchedulerActivity(root)}
	frontier := pendingDependencies(closure, root.DependencyIDs, nil)

	for len(frontier) > 0 {
		records, err := s.activities.FetchActivities(ctx, frontier)
		if err != nil {
			return nil, mapRepoError(err)
		}
		tried := toSet(frontier)
		var next []string
		for _, record := range records {
			closure[record.ID] = toSchedulerActivity(record)
		}
		for _, record := range records {
			next = pendingDependencies(closure, record.DependencyIDs, next)
		}
		frontier = sortStrings(uniqueStrings(excluding(next, tried)))
	}

	return closure, nil
}

func pendingDependencies(closure map[string]scheduler.Activity, ids, into []string) []string {
	for _, depID := range ids {
		if _, loaded := closure[depID]; !loaded {
			into = append(into, depID)
		}
	}
	return into
}

func excluding(values []string, skip map[string]bool) []string {
	out := values[:0]
	for _, v := range values {
		if !skip[v] {
			out = append(out, v)
		}
	}
	return out
}
