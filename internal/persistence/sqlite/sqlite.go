// Package sqlite implements the persistence repositories on SQLite.
package sqlite

import (
	"context"
	"fmt"
)

// Storage bundles the SQLite-backed repositories over one connection pool.
type Storage struct {
	pool  *ConnectionPool
	retry *RetryHelper

	Assignments *AssignmentRepository
	Activities  *ActivityRepository
	Members     *MemberRepository
	Resources   *ResourceRepository
}

// Open connects to dsn and verifies the connection. Call Migrate before use
// on a fresh database.
func Open(ctx context.Context, dsn string) (*Storage, error) {
	pool, err := NewConnectionPool(dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
	}

	retry := NewRetryHelper(DefaultRetryConfig())
	mapper := NewErrorMapper()
	return &Storage{
		pool:        pool,
		retry:       retry,
		Assignments: &AssignmentRepository{pool: pool, mapper: mapper, retry: retry},
		Activities:  &ActivityRepository{pool: pool, mapper: mapper, retry: retry},
		Members:     &MemberRepository{pool: pool, mapper: mapper, retry: retry},
		Resources:   &ResourceRepository{pool: pool, mapper: mapper, retry: retry},
	}, nil
}

// Ping checks that the database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Storage) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	return s.pool.Close()
}
