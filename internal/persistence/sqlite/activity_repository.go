package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/crew-scheduler/internal/persistence"
)

// ActivityRepository implements persistence.ActivityRepository.
type ActivityRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
	retry  *RetryHelper
}

var _ persistence.ActivityRepository = (*ActivityRepository)(nil)

const activitySelect = `
SELECT id, name, start_time, end_time, stage_id, responsible_id, completed, status
FROM activities`

// CreateActivity stores an activity together with its dependency and
// resource sets.
func (r *ActivityRepository) CreateActivity(ctx context.Context, activity persistence.Activity) error {
	status := activity.Status
	if status == "" {
		status = "scheduled"
	}
	return r.retry.WithRetry(ctx, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, `
INSERT INTO activities (id, name, start_time, end_time, stage_id, responsible_id, completed, status)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				activity.ID,
				activity.Name,
				formatTime(activity.Start),
				formatTime(activity.End),
				activity.StageID,
				activity.ResponsibleID,
				boolToInt(activity.Completed),
				status,
			)
			if err != nil {
				return r.mapper.MapError(err)
			}
			for _, depID := range uniqueSorted(activity.DependencyIDs) {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO activity_dependencies (activity_id, depends_on_id) VALUES (?, ?)`,
					activity.ID, depID); err != nil {
					return r.mapper.MapError(err)
				}
			}
			for _, resourceID := range uniqueSorted(activity.ResourceIDs) {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO activity_resources (activity_id, resource_id) VALUES (?, ?)`,
					activity.ID, resourceID); err != nil {
					return r.mapper.MapError(err)
				}
			}
			return nil
		})
	})
}

// FetchActivity returns one activity with its dependency and resource sets.
func (r *ActivityRepository) FetchActivity(ctx context.Context, id string) (persistence.Activity, error) {
	activities, err := r.FetchActivities(ctx, []string{id})
	if err != nil {
		return persistence.Activity{}, err
	}
	if len(activities) == 0 {
		return persistence.Activity{}, persistence.ErrNotFound
	}
	return activities[0], nil
}

// FetchActivities returns the activities among ids that exist, ordered by id.
// Unknown ids are skipped.
func (r *ActivityRepository) FetchActivities(ctx context.Context, ids []string) ([]persistence.Activity, error) {
	unique := uniqueSorted(ids)
	if len(unique) == 0 {
		return nil, nil
	}
	args := make([]any, len(unique))
	for i, id := range unique {
		args[i] = id
	}
	in := placeholders(len(unique))

	rows, err := r.pool.DB().QueryContext(ctx, activitySelect+` WHERE id IN (`+in+`) ORDER BY id`, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	var activities []persistence.Activity
	index := make(map[string]int, len(unique))
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		index[activity.ID] = len(activities)
		activities = append(activities, activity)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, r.mapper.MapError(err)
	}
	rows.Close()

	if len(activities) == 0 {
		return nil, nil
	}

	err = r.collectPairs(ctx,
		`SELECT activity_id, depends_on_id FROM activity_dependencies WHERE activity_id IN (`+in+`) ORDER BY activity_id, depends_on_id`,
		args, func(activityID, value string) {
			i := index[activityID]
			activities[i].DependencyIDs = append(activities[i].DependencyIDs, value)
		})
	if err != nil {
		return nil, err
	}

	err = r.collectPairs(ctx,
		`SELECT activity_id, resource_id FROM activity_resources WHERE activity_id IN (`+in+`) ORDER BY activity_id, resource_id`,
		args, func(activityID, value string) {
			i := index[activityID]
			activities[i].ResourceIDs = append(activities[i].ResourceIDs, value)
		})
	if err != nil {
		return nil, err
	}

	return activities, nil
}

// SetActivityStatus overwrites the cached status column.
func (r *ActivityRepository) SetActivityStatus(ctx context.Context, id, status string) error {
	return r.retry.WithRetry(ctx, func() error {
		result, err := r.pool.DB().ExecContext(ctx, `UPDATE activities SET status = ? WHERE id = ?`, status, id)
		if err != nil {
			return r.mapper.MapError(err)
		}
		return requireAffected(result)
	})
}

// SetActivityCompleted sets the completed flag.
func (r *ActivityRepository) SetActivityCompleted(ctx context.Context, id string, completed bool) error {
	return r.retry.WithRetry(ctx, func() error {
		result, err := r.pool.DB().ExecContext(ctx, `UPDATE activities SET completed = ? WHERE id = ?`, boolToInt(completed), id)
		if err != nil {
			return r.mapper.MapError(err)
		}
		return requireAffected(result)
	})
}

func (r *ActivityRepository) collectPairs(ctx context.Context, query string, args []any, fn func(activityID, value string)) error {
	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return r.mapper.MapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var activityID, value string
		if err := rows.Scan(&activityID, &value); err != nil {
			return r.mapper.MapError(err)
		}
		fn(activityID, value)
	}
	return r.mapper.MapError(rows.Err())
}

func scanActivity(scanner rowScanner) (persistence.Activity, error) {
	var (
		activity         persistence.Activity
		startStr, endStr string
		completed        int
	)
	err := scanner.Scan(
		&activity.ID,
		&activity.Name,
		&startStr,
		&endStr,
		&activity.StageID,
		&activity.ResponsibleID,
		&completed,
		&activity.Status,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Activity{}, persistence.ErrNotFound
		}
		return persistence.Activity{}, fmt.Errorf("failed to scan activity: %w", err)
	}
	if activity.Start, err = parseTime("start_time", startStr); err != nil {
		return persistence.Activity{}, err
	}
	if activity.End, err = parseTime("end_time", endStr); err != nil {
		return persistence.Activity{}, err
	}
	activity.Completed = completed != 0
	return activity, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
