package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/example/crew-scheduler/internal/persistence"
)

// MemberRepository implements persistence.MemberRepository.
type MemberRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
	retry  *RetryHelper
}

var _ persistence.MemberRepository = (*MemberRepository)(nil)

// CreateRole stores a role.
func (r *MemberRepository) CreateRole(ctx context.Context, role persistence.Role) error {
	return r.retry.WithRetry(ctx, func() error {
		_, err := r.pool.DB().ExecContext(ctx, `INSERT INTO roles (id, name) VALUES (?, ?)`, role.ID, role.Name)
		return r.mapper.MapError(err)
	})
}

// CreateMember stores a member. An empty RoleID stores no role.
func (r *MemberRepository) CreateMember(ctx context.Context, member persistence.Member) error {
	return r.retry.WithRetry(ctx, func() error {
		_, err := r.pool.DB().ExecContext(ctx,
			`INSERT INTO members (id, name, role_id, contact) VALUES (?, ?, ?, ?)`,
			member.ID, member.Name, nullString(member.RoleID), member.Contact)
		return r.mapper.MapError(err)
	})
}

// GetMember returns one member.
func (r *MemberRepository) GetMember(ctx context.Context, id string) (persistence.Member, error) {
	row := r.pool.DB().QueryRowContext(ctx, `SELECT id, name, role_id, contact FROM members WHERE id = ?`, id)
	member, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.Member{}, fmt.Errorf("%w: %s", persistence.ErrMemberNotFound, id)
	}
	return member, err
}

// ListMembers returns members ordered by id, restricted to roleIDs when given.
func (r *MemberRepository) ListMembers(ctx context.Context, roleIDs []string) ([]persistence.Member, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, name, role_id, contact FROM members`)
	var args []any
	if len(roleIDs) > 0 {
		ids := uniqueSorted(roleIDs)
		sb.WriteString(` WHERE role_id IN (` + placeholders(len(ids)) + `)`)
		for _, id := range ids {
			args = append(args, id)
		}
	}
	sb.WriteString(` ORDER BY id`)

	rows, err := r.pool.DB().QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var members []persistence.Member
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return members, nil
}

// ListRoles returns every role ordered by id.
func (r *MemberRepository) ListRoles(ctx context.Context) ([]persistence.Role, error) {
	rows, err := r.pool.DB().QueryContext(ctx, `SELECT id, name FROM roles ORDER BY id`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var roles []persistence.Role
	for rows.Next() {
		var role persistence.Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return roles, nil
}

func scanMember(scanner rowScanner) (persistence.Member, error) {
	var (
		member persistence.Member
		roleID sql.NullString
	)
	if err := scanner.Scan(&member.ID, &member.Name, &roleID, &member.Contact); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Member{}, err
		}
		return persistence.Member{}, fmt.Errorf("failed to scan member: %w", err)
	}
	member.RoleID = roleID.String
	return member, nil
}
