package scheduler

import (
	"errors"
	"testing"
	"time"
)

func TestDetectConflicts(t *testing.T) {
	t.Parallel()

	t.Run("overlapping bookings of one member produce a conflict", func(t *testing.T) {
		t.Parallel()
		conflicts, err := DetectConflicts([]Booking{
			{ID: "b", MemberID: "m-7", Start: at(10, 0), End: at(12, 0)},
			{ID: "a", MemberID: "m-7", Start: at(9, 0), End: at(11, 0)},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(conflicts) != 1 {
			t.Fatalf("expected 1 conflict, got %v", conflicts)
		}
		if got := conflicts[0]; got.FirstID != "a" || got.SecondID != "b" || got.MemberID != "m-7" {
			t.Fatalf("unexpected conflict %+v", got)
		}
	})

	t.Run("different members never conflict", func(t *testing.T) {
		t.Parallel()
		conflicts, err := DetectConflicts([]Booking{
			{ID: "a", MemberID: "m-1", Start: at(9, 0), End: at(11, 0)},
			{ID: "b", MemberID: "m-2", Start: at(9, 0), End: at(11, 0)},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(conflicts) != 0 {
			t.Fatalf("expected no conflicts, got %v", conflicts)
		}
	})

	t.Run("adjacent bookings do not conflict", func(t *testing.T) {
		t.Parallel()
		conflicts, err := DetectConflicts([]Booking{
			{ID: "a", MemberID: "m-1", Start: at(9, 0), End: at(11, 0)},
			{ID: "b", MemberID: "m-1", Start: at(11, 0), End: at(12, 0)},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(conflicts) != 0 {
			t.Fatalf("expected no conflicts, got %v", conflicts)
		}
	})

	t.Run("long booking conflicts with every booking it covers", func(t *testing.T) {
		t.Parallel()
		conflicts, err := DetectConflicts([]Booking{
			{ID: "long", MemberID: "m-1", Start: at(8, 0), End: at(18, 0)},
			{ID: "x", MemberID: "m-1", Start: at(9, 0), End: at(10, 0)},
			{ID: "y", MemberID: "m-1", Start: at(15, 0), End: at(16, 0)},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(conflicts) != 2 {
			t.Fatalf("expected 2 conflicts, got %v", conflicts)
		}
	})

	t.Run("invalid booking is rejected", func(t *testing.T) {
		t.Parallel()
		_, err := DetectConflicts([]Booking{{ID: "a", MemberID: "m-1", Start: at(9, 0), End: at(9, 0).Add(-time.Minute)}})
		if !errors.Is(err, ErrInvalidInterval) {
			t.Fatalf("expected ErrInvalidInterval, got %v", err)
		}
	})
}
