package application

import (
	"errors"
	"sort"
	"strings"

	"github.com/example/crew-scheduler/internal/persistence"
	"github.com/example/crew-scheduler/internal/scheduler"
)

var (
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrConcurrentConflict is returned when storage rejected an assignment
	// because a concurrent write for the same member overlapped it.
	ErrConcurrentConflict = errors.New("application: assignment overlaps a concurrent write")

	// The following are passed through unchanged from lower layers.
	ErrInvalidInterval         = scheduler.ErrInvalidInterval
	ErrInvalidGranularity      = scheduler.ErrInvalidGranularity
	ErrMissingDependencyStatus = scheduler.ErrMissingDependencyStatus
	ErrDependencyCycle         = scheduler.ErrDependencyCycle
	ErrMemberNotFound          = persistence.ErrMemberNotFound
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	if len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

func newValidationError(field, message string) *ValidationError {
	vErr := &ValidationError{}
	vErr.add(field, message)
	return vErr
}

func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrMemberNotFound):
		return err
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrOverlap):
		return ErrConcurrentConflict
	case errors.Is(err, persistence.ErrConstraintViolation):
		return newValidationError("time", "start must be before end")
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		return newValidationError("references", "related records are missing")
	case errors.Is(err, persistence.ErrDuplicate):
		return newValidationError("id", "already exists")
	}
	return err
}
