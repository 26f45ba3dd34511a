package scheduler

import (
	"errors"
	"testing"
	"time"
)

func at(hour, minute int) time.Time {
	return time.Date(2025, 5, 15, hour, minute, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name           string
		s1, e1, s2, e2 time.Time
		want           bool
	}{
		{"partial overlap at end", at(9, 0), at(11, 0), at(10, 0), at(12, 0), true},
		{"partial overlap at start", at(10, 0), at(12, 0), at(9, 0), at(11, 0), true},
		{"candidate covers existing", at(8, 0), at(13, 0), at(9, 0), at(11, 0), true},
		{"candidate inside existing", at(9, 30), at(10, 0), at(9, 0), at(11, 0), true},
		{"adjacent after", at(9, 0), at(11, 0), at(11, 0), at(12, 0), false},
		{"adjacent before", at(8, 0), at(9, 0), at(9, 0), at(11, 0), false},
		{"disjoint", at(6, 0), at(7, 0), at(9, 0), at(11, 0), false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := Overlaps(tc.s1, tc.e1, tc.s2, tc.e2)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Overlaps = %v, want %v", got, tc.want)
			}
			reversed, err := Overlaps(tc.s2, tc.e2, tc.s1, tc.e1)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if reversed != got {
				t.Fatalf("Overlaps is not symmetric: %v vs %v", got, reversed)
			}
		})
	}
}

func TestOverlaps_SelfOverlap(t *testing.T) {
	t.Parallel()

	for minutes := 1; minutes <= 24*60; minutes *= 3 {
		start := at(0, 0)
		end := start.Add(time.Duration(minutes) * time.Minute)
		got, err := Overlaps(start, end, start, end)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !got {
			t.Fatalf("interval of %d minutes does not overlap itself", minutes)
		}
	}
}

func TestOverlaps_RejectsInvalidIntervals(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name           string
		s1, e1, s2, e2 time.Time
	}{
		{"empty first", at(9, 0), at(9, 0), at(9, 0), at(10, 0)},
		{"inverted first", at(10, 0), at(9, 0), at(9, 0), at(10, 0)},
		{"inverted second", at(9, 0), at(10, 0), at(11, 0), at(10, 0)},
		{"zero second", at(9, 0), at(10, 0), time.Time{}, at(10, 0)},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Overlaps(tc.s1, tc.e1, tc.s2, tc.e2); !errors.Is(err, ErrInvalidInterval) {
				t.Fatalf("expected ErrInvalidInterval, got %v", err)
			}
		})
	}
}

func TestContains(t *testing.T) {
	t.Parallel()

	start, end := at(8, 0), at(9, 30)

	for _, tc := range []struct {
		instant time.Time
		want    bool
	}{
		{at(7, 59), false},
		{at(8, 0), true},
		{at(9, 0), true},
		{at(9, 29), true},
		{at(9, 30), false},
	} {
		got, err := Contains(start, end, tc.instant)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tc.want {
			t.Errorf("Contains(%s) = %v, want %v", tc.instant.Format("15:04"), got, tc.want)
		}
	}
}

func TestClip(t *testing.T) {
	t.Parallel()

	dayStart, dayEnd := at(0, 0), at(0, 0).AddDate(0, 0, 1)

	clipped, ok, err := Clip(at(0, 0).Add(-2*time.Hour), at(1, 0), dayStart, dayEnd)
	if err != nil || !ok {
		t.Fatalf("expected clipped interval, got ok=%v err=%v", ok, err)
	}
	if !clipped.Start.Equal(dayStart) || !clipped.End.Equal(at(1, 0)) {
		t.Fatalf("unexpected clip result %v", clipped)
	}

	if _, ok, err := Clip(at(0, 0).Add(-2*time.Hour), dayStart, dayStart, dayEnd); err != nil || ok {
		t.Fatalf("expected no overlap for interval ending at day start, got ok=%v err=%v", ok, err)
	}
}
