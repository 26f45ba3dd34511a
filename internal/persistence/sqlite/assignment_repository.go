package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/example/crew-scheduler/internal/persistence"
)

// AssignmentRepository implements persistence.AssignmentRepository.
type AssignmentRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
	retry  *RetryHelper
}

var _ persistence.AssignmentRepository = (*AssignmentRepository)(nil)

const assignmentSelect = `
SELECT a.id, a.member_id, a.role_id, a.activity_id, a.start_time, a.end_time, a.location,
       a.created_at, a.updated_at,
       m.name, m.role_id, m.contact,
       r.name,
       act.name, act.start_time, act.end_time
FROM assignments a
JOIN members m ON m.id = a.member_id
JOIN roles r ON r.id = a.role_id
LEFT JOIN activities act ON act.id = a.activity_id`

type rowScanner interface {
	Scan(dest ...any) error
}

// FetchAssignments returns joined assignments whose interval overlaps the
// filter range, ordered by start time then member id.
func (r *AssignmentRepository) FetchAssignments(ctx context.Context, filter persistence.AssignmentFilter) ([]persistence.Assignment, error) {
	if len(filter.MemberIDs) > 0 {
		if err := r.ensureMembersExist(ctx, filter.MemberIDs); err != nil {
			return nil, err
		}
	}

	query, args := buildAssignmentQuery(filter)
	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var assignments []persistence.Assignment
	for rows.Next() {
		assignment, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, assignment)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return assignments, nil
}

// GetAssignment returns one joined assignment.
func (r *AssignmentRepository) GetAssignment(ctx context.Context, id string) (persistence.Assignment, error) {
	row := r.pool.DB().QueryRowContext(ctx, assignmentSelect+" WHERE a.id = ?", id)
	assignment, err := scanAssignment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Assignment{}, persistence.ErrNotFound
		}
		return persistence.Assignment{}, err
	}
	return assignment, nil
}

// InsertAssignment stores a new assignment. The overlap check and the insert
// share one immediate transaction, so a concurrent writer for the same member
// is serialized behind it and then rejected with ErrOverlap.
func (r *AssignmentRepository) InsertAssignment(ctx context.Context, assignment persistence.Assignment) error {
	return r.retry.WithRetry(ctx, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			if err := checkMemberOverlap(ctx, tx, assignment); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, `
INSERT INTO assignments (id, member_id, role_id, activity_id, start_time, end_time, location, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				assignment.ID,
				assignment.MemberID,
				assignment.RoleID,
				nullString(assignment.ActivityID()),
				formatTime(assignment.Start),
				formatTime(assignment.End),
				assignment.Location,
				formatTime(assignment.CreatedAt),
				formatTime(assignment.UpdatedAt),
			)
			return r.mapper.MapError(err)
		})
	})
}

// UpdateAssignment replaces an existing assignment under the same overlap
// check as InsertAssignment, ignoring the row being replaced.
func (r *AssignmentRepository) UpdateAssignment(ctx context.Context, assignment persistence.Assignment) error {
	return r.retry.WithRetry(ctx, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			if err := checkMemberOverlap(ctx, tx, assignment); err != nil {
				return err
			}
			result, err := tx.ExecContext(ctx, `
UPDATE assignments
SET member_id = ?, role_id = ?, activity_id = ?, start_time = ?, end_time = ?, location = ?, updated_at = ?
WHERE id = ?`,
				assignment.MemberID,
				assignment.RoleID,
				nullString(assignment.ActivityID()),
				formatTime(assignment.Start),
				formatTime(assignment.End),
				assignment.Location,
				formatTime(assignment.UpdatedAt),
				assignment.ID,
			)
			if err != nil {
				return r.mapper.MapError(err)
			}
			return requireAffected(result)
		})
	})
}

// DeleteAssignment removes an assignment.
func (r *AssignmentRepository) DeleteAssignment(ctx context.Context, id string) error {
	return r.retry.WithRetry(ctx, func() error {
		result, err := r.pool.DB().ExecContext(ctx, `DELETE FROM assignments WHERE id = ?`, id)
		if err != nil {
			return r.mapper.MapError(err)
		}
		return requireAffected(result)
	})
}

func (r *AssignmentRepository) ensureMembersExist(ctx context.Context, memberIDs []string) error {
	unique := uniqueSorted(memberIDs)
	args := make([]any, len(unique))
	for i, id := range unique {
		args[i] = id
	}

	rows, err := r.pool.DB().QueryContext(ctx,
		`SELECT id FROM members WHERE id IN (`+placeholders(len(unique))+`)`, args...)
	if err != nil {
		return r.mapper.MapError(err)
	}
	defer rows.Close()

	found := make(map[string]bool, len(unique))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return r.mapper.MapError(err)
		}
		found[id] = true
	}
	if err := rows.Err(); err != nil {
		return r.mapper.MapError(err)
	}

	var missing []string
	for _, id := range unique {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", persistence.ErrMemberNotFound, strings.Join(missing, ", "))
	}
	return nil
}

func checkMemberOverlap(ctx context.Context, tx *sql.Tx, assignment persistence.Assignment) error {
	var existing string
	err := tx.QueryRowContext(ctx, `
SELECT id FROM assignments
WHERE member_id = ? AND id <> ? AND start_time < ? AND end_time > ?
ORDER BY start_time, id
LIMIT 1`,
		assignment.MemberID,
		assignment.ID,
		formatTime(assignment.End),
		formatTime(assignment.Start),
	).Scan(&existing)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil
	case err != nil:
		return fmt.Errorf("failed to check overlap: %w", err)
	default:
		return fmt.Errorf("%w: member %s already assigned by %s", persistence.ErrOverlap, assignment.MemberID, existing)
	}
}

func buildAssignmentQuery(filter persistence.AssignmentFilter) (string, []any) {
	var sb strings.Builder
	sb.WriteString(assignmentSelect)
	sb.WriteString(" WHERE a.start_time < ? AND a.end_time > ?")
	args := []any{formatTime(filter.RangeEnd), formatTime(filter.RangeStart)}

	if len(filter.MemberIDs) > 0 {
		ids := uniqueSorted(filter.MemberIDs)
		sb.WriteString(" AND a.member_id IN (" + placeholders(len(ids)) + ")")
		for _, id := range ids {
			args = append(args, id)
		}
	}
	if len(filter.RoleIDs) > 0 {
		ids := uniqueSorted(filter.RoleIDs)
		sb.WriteString(" AND a.role_id IN (" + placeholders(len(ids)) + ")")
		for _, id := range ids {
			args = append(args, id)
		}
	}

	sb.WriteString(" ORDER BY a.start_time, a.member_id, a.id")
	return sb.String(), args
}

func scanAssignment(scanner rowScanner) (persistence.Assignment, error) {
	var (
		assignment                               persistence.Assignment
		activityID, memberRole                   sql.NullString
		activityName, activityStart, activityEnd sql.NullString
		startStr, endStr, createdStr, updatedStr string
	)

	err := scanner.Scan(
		&assignment.ID,
		&assignment.MemberID,
		&assignment.RoleID,
		&activityID,
		&startStr,
		&endStr,
		&assignment.Location,
		&createdStr,
		&updatedStr,
		&assignment.Member.Name,
		&memberRole,
		&assignment.Member.Contact,
		&assignment.Role.Name,
		&activityName,
		&activityStart,
		&activityEnd,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Assignment{}, err
		}
		return persistence.Assignment{}, fmt.Errorf("failed to scan assignment: %w", err)
	}

	if assignment.Start, err = parseTime("start_time", startStr); err != nil {
		return persistence.Assignment{}, err
	}
	if assignment.End, err = parseTime("end_time", endStr); err != nil {
		return persistence.Assignment{}, err
	}
	if assignment.CreatedAt, err = parseTime("created_at", createdStr); err != nil {
		return persistence.Assignment{}, err
	}
	if assignment.UpdatedAt, err = parseTime("updated_at", updatedStr); err != nil {
		return persistence.Assignment{}, err
	}

	assignment.Member.ID = assignment.MemberID
	assignment.Member.RoleID = memberRole.String
	assignment.Role.ID = assignment.RoleID

	if activityID.Valid {
		ref := &persistence.ActivityRef{ID: activityID.String, Name: activityName.String}
		if ref.Start, err = parseTime("activity start_time", activityStart.String); err != nil {
			return persistence.Assignment{}, err
		}
		if ref.End, err = parseTime("activity end_time", activityEnd.String); err != nil {
			return persistence.Assignment{}, err
		}
		assignment.Activity = ref
	}

	return assignment, nil
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func uniqueSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
