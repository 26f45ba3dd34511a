package scheduler

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// DefaultUpcomingWindow is how close to its start an activity becomes upcoming.
const DefaultUpcomingWindow = time.Hour

var (
	// ErrMissingDependencyStatus is returned when a declared dependency has no
	// entry in the supplied status map.
	ErrMissingDependencyStatus = errors.New("scheduler: missing dependency status")
	// ErrResourceCheckUnavailable is returned when an activity requires
	// resources but no availability check was supplied.
	ErrResourceCheckUnavailable = errors.New("scheduler: resource availability check not provided")
	// ErrDependencyCycle is returned when activities depend on each other in a loop.
	ErrDependencyCycle = errors.New("scheduler: dependency cycle")
)

// ActivityStatus is the derived state of a scheduled activity.
type ActivityStatus string

const (
	StatusCompleted        ActivityStatus = "completed"
	StatusInProgress       ActivityStatus = "in_progress"
	StatusDelayed          ActivityStatus = "delayed"
	StatusBlocked          ActivityStatus = "blocked"
	StatusResourceConflict ActivityStatus = "resource_conflict"
	StatusUpcoming         ActivityStatus = "upcoming"
	StatusScheduled        ActivityStatus = "scheduled"
)

// Valid reports whether s is one of the known statuses.
func (s ActivityStatus) Valid() bool {
	switch s {
	case StatusCompleted, StatusInProgress, StatusDelayed, StatusBlocked,
		StatusResourceConflict, StatusUpcoming, StatusScheduled:
		return true
	}
	return false
}

// Activity carries the fields the resolver reads. Status is the last-known
// (cached) value, consulted only to tell whether the activity was started.
type Activity struct {
	ID            string
	Start         time.Time
	End           time.Time
	Completed     bool
	Status        ActivityStatus
	DependencyIDs []string
	ResourceIDs   []string
}

// ResourceAvailability answers whether a resource is free during [start, end).
type ResourceAvailability func(resourceID string, start, end time.Time) (bool, error)

// Resolver derives activity statuses. The zero value uses DefaultUpcomingWindow.
type Resolver struct {
	UpcomingWindow time.Duration
}

// ResolveStatus derives the status of activity with the default resolver.
func ResolveStatus(activity Activity, now time.Time, dependencyStatuses map[string]ActivityStatus, available ResourceAvailability) (ActivityStatus, error) {
	return Resolver{}.Resolve(activity, now, dependencyStatuses, available)
}

// Resolve evaluates the status rules in fixed priority order; the first rule
// that matches decides the result and later rules are not consulted:
//
//  1. completed flag set            -> completed
//  2. started in the past, not in progress -> delayed
//  3. any dependency not completed  -> blocked
//  4. any required resource busy    -> resource_conflict
//  5. starts within the upcoming window -> upcoming
//  6. otherwise                     -> scheduled
func (r Resolver) Resolve(activity Activity, now time.Time, dependencyStatuses map[string]ActivityStatus, available ResourceAvailability) (ActivityStatus, error) {
	if err := ValidateInterval(activity.Start, activity.End); err != nil {
		return "", err
	}

	if status, ok := ownStatus(activity, now); ok {
		return status, nil
	}

	// An open dependency blocks even when another dependency has no status.
	missing := ""
	for _, depID := range sortedCopy(activity.DependencyIDs) {
		status, ok := dependencyStatuses[depID]
		if !ok {
			if missing == "" {
				missing = depID
			}
			continue
		}
		if status != StatusCompleted {
			return StatusBlocked, nil
		}
	}
	if missing != "" {
		return "", fmt.Errorf("%w: activity %s depends on %s", ErrMissingDependencyStatus, activity.ID, missing)
	}

	if len(activity.ResourceIDs) > 0 {
		if available == nil {
			return "", ErrResourceCheckUnavailable
		}
		for _, resourceID := range sortedCopy(activity.ResourceIDs) {
			free, err := available(resourceID, activity.Start, activity.End)
			if err != nil {
				return "", fmt.Errorf("check resource %s: %w", resourceID, err)
			}
			if !free {
				return StatusResourceConflict, nil
			}
		}
	}

	if activity.Start.Sub(now) < r.upcomingWindow() {
		return StatusUpcoming, nil
	}

	return StatusScheduled, nil
}

// ownStatus applies the rules that read only the activity itself: completed
// and delayed. ok is false when the dependencies have to be consulted.
func ownStatus(activity Activity, now time.Time) (ActivityStatus, bool) {
	if activity.Completed {
		return StatusCompleted, true
	}
	if now.After(activity.Start) && activity.Status != StatusInProgress {
		return StatusDelayed, true
	}
	return "", false
}

func (r Resolver) upcomingWindow() time.Duration {
	if r.UpcomingWindow <= 0 {
		return DefaultUpcomingWindow
	}
	return r.UpcomingWindow
}

func sortedCopy(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	sort.Strings(out)
	return out
}
