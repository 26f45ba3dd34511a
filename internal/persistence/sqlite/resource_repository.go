package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/example/crew-scheduler/internal/persistence"
)

// ResourceRepository implements persistence.ResourceRepository. Availability
// is derived from the recorded outage windows.
type ResourceRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
	retry  *RetryHelper
}

var _ persistence.ResourceRepository = (*ResourceRepository)(nil)

// CreateResource stores a resource.
func (r *ResourceRepository) CreateResource(ctx context.Context, resource persistence.Resource) error {
	return r.retry.WithRetry(ctx, func() error {
		_, err := r.pool.DB().ExecContext(ctx, `INSERT INTO resources (id, name) VALUES (?, ?)`, resource.ID, resource.Name)
		return r.mapper.MapError(err)
	})
}

// AddOutage records a window during which the resource is unavailable.
func (r *ResourceRepository) AddOutage(ctx context.Context, outage persistence.ResourceOutage) error {
	return r.retry.WithRetry(ctx, func() error {
		_, err := r.pool.DB().ExecContext(ctx, `
INSERT INTO resource_outages (id, resource_id, start_time, end_time, reason)
VALUES (?, ?, ?, ?, ?)`,
			outage.ID, outage.ResourceID, formatTime(outage.Start), formatTime(outage.End), outage.Reason)
		return r.mapper.MapError(err)
	})
}

// IsResourceAvailable reports whether the resource exists and has no outage
// overlapping [start, end). An unknown resource is unavailable.
func (r *ResourceRepository) IsResourceAvailable(ctx context.Context, resourceID string, start, end time.Time) (bool, error) {
	var known, outages int
	err := r.pool.DB().QueryRowContext(ctx, `
SELECT
    (SELECT COUNT(*) FROM resources WHERE id = ?),
    (SELECT COUNT(*) FROM resource_outages WHERE resource_id = ? AND start_time < ? AND end_time > ?)`,
		resourceID, resourceID, formatTime(end), formatTime(start),
	).Scan(&known, &outages)
	if err != nil {
		return false, fmt.Errorf("failed to check resource %s: %w", resourceID, r.mapper.MapError(err))
	}
	return known > 0 && outages == 0, nil
}
