package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
)

func TestDefaultLogger(t *testing.T) {
	t.Parallel()

	custom := slog.New(slog.NewTextHandler(io.Discard, nil))
	if got := defaultLogger(custom); got != custom {
		t.Fatalf("expected custom logger to be returned")
	}

	if got := defaultLogger(nil); got != slog.Default() {
		t.Fatalf("expected default logger when none provided")
	}
}

func TestErrorKind(t *testing.T) {
	t.Parallel()

	tests := map[string]error{
		"":                          nil,
		"not_found":                 ErrNotFound,
		"member_not_found":          fmt.Errorf("lookup: %w", ErrMemberNotFound),
		"invalid_interval":          fmt.Errorf("%w: [a, b)", ErrInvalidInterval),
		"missing_dependency_status": ErrMissingDependencyStatus,
		"dependency_cycle":          ErrDependencyCycle,
		"concurrent_conflict":       ErrConcurrentConflict,
		"canceled":                  context.Canceled,
		"validation":                newValidationError("start", "required"),
		"unexpected":                errors.New("boom"),
	}
	for want, err := range tests {
		if got := ErrorKind(err); got != want {
			t.Errorf("ErrorKind(%v) = %q, want %q", err, got, want)
		}
	}
}
