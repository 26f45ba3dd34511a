package application

import (
	"errors"
	"fmt"
	"testing"

	"github.com/example/crew-scheduler/internal/persistence"
)

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	var err *ValidationError
	if err.Error() != "" {
		t.Fatalf("expected empty string for nil error, got %q", err.Error())
	}

	empty := &ValidationError{}
	if got := empty.Error(); got != "validation failed" {
		t.Fatalf("expected generic message for empty error, got %q", got)
	}

	withFields := &ValidationError{FieldErrors: map[string]string{"start": "required", "member_id": "required"}}
	if got := withFields.Error(); got != "validation failed: member_id, start" {
		t.Fatalf("expected sorted field names, got %q", got)
	}
}

func TestValidationError_HasErrors(t *testing.T) {
	t.Parallel()

	if (&ValidationError{}).HasErrors() {
		t.Fatalf("expected HasErrors to report false for empty error")
	}
	if !newValidationError("field", "bad").HasErrors() {
		t.Fatalf("expected HasErrors to report true when fields are present")
	}
}

func TestMapRepoError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		in        error
		wantIs    error
		wantField string
	}{
		{name: "not found", in: persistence.ErrNotFound, wantIs: ErrNotFound},
		{name: "member not found passes through", in: fmt.Errorf("%w: m1", persistence.ErrMemberNotFound), wantIs: ErrMemberNotFound},
		{name: "overlap", in: fmt.Errorf("%w: m1", persistence.ErrOverlap), wantIs: ErrConcurrentConflict},
		{name: "check constraint", in: persistence.ErrConstraintViolation, wantField: "time"},
		{name: "foreign key", in: persistence.ErrForeignKeyViolation, wantField: "references"},
		{name: "duplicate", in: persistence.ErrDuplicate, wantField: "id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := mapRepoError(tt.in)
			if tt.wantIs != nil && !errors.Is(got, tt.wantIs) {
				t.Fatalf("expected %v, got %v", tt.wantIs, got)
			}
			if tt.wantField != "" {
				var vErr *ValidationError
				if !errors.As(got, &vErr) {
					t.Fatalf("expected ValidationError, got %v", got)
				}
				if _, ok := vErr.FieldErrors[tt.wantField]; !ok {
					t.Fatalf("expected field %q, got %v", tt.wantField, vErr.FieldErrors)
				}
			}
		})
	}

	if mapRepoError(nil) != nil {
		t.Fatalf("nil should map to nil")
	}
}
