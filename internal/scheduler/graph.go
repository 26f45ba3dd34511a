package scheduler

import (
	"fmt"
	"strings"
	"time"
)

// ResolveGraph resolves the status of rootID and, recursively, of every
// activity it depends on. activities must contain the whole dependency
// closure of rootID; a dependency absent from it is reported as
// ErrMissingDependencyStatus by the resolver. The returned map holds the
// status of every activity visited.
func (r Resolver) ResolveGraph(rootID string, activities map[string]Activity, now time.Time, available ResourceAvailability) (map[string]ActivityStatus, error) {
	g := graphWalk{
		resolver:   r,
		activities: activities,
		now:        now,
		available:  available,
		statuses:   make(map[string]ActivityStatus),
		visiting:   make(map[string]bool),
	}
	if _, err := g.resolve(rootID, nil); err != nil {
		return nil, err
	}
	return g.statuses, nil
}

type graphWalk struct {
	resolver   Resolver
	activities map[string]Activity
	now        time.Time
	available  ResourceAvailability
	statuses   map[string]ActivityStatus
	visiting   map[string]bool
}

func (g *graphWalk) resolve(id string, path []string) (ActivityStatus, error) {
	if status, ok := g.statuses[id]; ok {
		return status, nil
	}
	path = append(path, id)
	if g.visiting[id] {
		return "", fmt.Errorf("%w: %s", ErrDependencyCycle, strings.Join(path, " -> "))
	}

	activity, ok := g.activities[id]
	if !ok {
		return "", fmt.Errorf("%w: activity %s not loaded", ErrMissingDependencyStatus, id)
	}

	g.visiting[id] = true
	defer delete(g.visiting, id)

	// Completed and delayed are decided before any dependency is read, so a
	// broken dependency below them does not fail the walk. A completed
	// activity is not walked at all.
	_, settled := ownStatus(activity, g.now)
	deps := make(map[string]ActivityStatus, len(activity.DependencyIDs))
	if !activity.Completed {
		var depErr error
		blocked := false
		for _, depID := range sortedCopy(activity.DependencyIDs) {
			if _, known := g.activities[depID]; !known {
				continue
			}
			status, err := g.resolve(depID, path)
			if err != nil {
				if depErr == nil {
					depErr = err
				}
				continue
			}
			deps[depID] = status
			if status != StatusCompleted {
				blocked = true
			}
		}
		if depErr != nil && !settled && !blocked {
			return "", depErr
		}
	}

	status, err := g.resolver.Resolve(activity, g.now, deps, g.available)
	if err != nil {
		return "", err
	}
	g.statuses[id] = status
	return status, nil
}
