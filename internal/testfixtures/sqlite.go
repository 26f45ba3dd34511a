package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/crew-scheduler/internal/persistence"
	"github.com/example/crew-scheduler/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite storage
// instance for integration-style tests.
type SQLiteHarness struct {
	Storage *sqlite.Storage

	defaultRole bool
	cleanup     func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness using a temporary file that is
// migrated automatically. Callers may optionally invoke Close, but the helper
// will also register a cleanup callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "scheduler.db")

	storage, err := sqlite.Open(context.Background(), "file:"+path)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := storage.Migrate(); err != nil {
		_ = storage.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Storage: storage,
		cleanup: func() {
			_ = storage.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}

// SeedRoles stores roles, failing the test on error.
func (h *SQLiteHarness) SeedRoles(tb testing.TB, roles ...persistence.Role) {
	tb.Helper()
	for _, role := range roles {
		if err := h.Storage.Members.CreateRole(context.Background(), role); err != nil {
			tb.Fatalf("seed role %s: %v", role.ID, err)
		}
		if role.ID == DefaultRole.ID {
			h.defaultRole = true
		}
	}
}

// SeedMembers stores members, creating DefaultRole first when a member
// references it and it does not exist yet.
func (h *SQLiteHarness) SeedMembers(tb testing.TB, members ...MemberFixture) {
	tb.Helper()
	ctx := context.Background()
	for _, member := range members {
		if member.RoleID == DefaultRole.ID {
			h.ensureDefaultRole(tb)
		}
		if err := h.Storage.Members.CreateMember(ctx, member.Persistence()); err != nil {
			tb.Fatalf("seed member %s: %v", member.ID, err)
		}
	}
}

// SeedActivities stores activities in the order given; dependencies must
// precede their dependents.
func (h *SQLiteHarness) SeedActivities(tb testing.TB, activities ...ActivityFixture) {
	tb.Helper()
	for _, activity := range activities {
		if err := h.Storage.Activities.CreateActivity(context.Background(), activity.Persistence()); err != nil {
			tb.Fatalf("seed activity %s: %v", activity.ID, err)
		}
	}
}

// SeedAssignments stores assignments through the repository, so overlapping
// fixtures for the same member fail the test.
func (h *SQLiteHarness) SeedAssignments(tb testing.TB, assignments ...AssignmentFixture) {
	tb.Helper()
	for _, assignment := range assignments {
		if err := h.Storage.Assignments.InsertAssignment(context.Background(), assignment.Persistence()); err != nil {
			tb.Fatalf("seed assignment %s: %v", assignment.ID, err)
		}
	}
}

func (h *SQLiteHarness) ensureDefaultRole(tb testing.TB) {
	tb.Helper()
	if h.defaultRole {
		return
	}
	if err := h.Storage.Members.CreateRole(context.Background(), DefaultRole); err != nil {
		tb.Fatalf("seed default role: %v", err)
	}
	h.defaultRole = true
}
