package testfixtures

import (
	"testing"
	"time"
)

func TestClockDefaultsToReferenceTime(t *testing.T) {
	t.Parallel()

	clock := NewClock(time.Time{})
	if !clock.Now().Equal(ReferenceTime()) {
		t.Fatalf("expected ReferenceTime, got %v", clock.Now())
	}
}

func TestClockAdvanceAndSet(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, time.May, 15, 7, 0, 0, 0, time.UTC)
	clock := NewClock(start)

	if updated := clock.Advance(90 * time.Minute); !updated.Equal(start.Add(90 * time.Minute)) {
		t.Fatalf("advance returned %v", updated)
	}

	clock.Set(start.Add(2 * time.Hour))
	if got := clock.Now(); !got.Equal(start.Add(2 * time.Hour)) {
		t.Fatalf("expected %v, got %v", start.Add(2*time.Hour), got)
	}
}

func TestClockSetTimeOfDay(t *testing.T) {
	t.Parallel()

	clock := NewClock(time.Date(2025, time.May, 15, 7, 45, 30, 0, time.UTC))
	got := clock.SetTimeOfDay(14, 30)
	want := time.Date(2025, time.May, 15, 14, 30, 0, 0, time.UTC)
	if !got.Equal(want) || !clock.Now().Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestClockNowFunc(t *testing.T) {
	t.Parallel()

	clock := NewClock(time.Time{})
	nowFn := clock.NowFunc()
	clock.Advance(time.Minute)
	if got := nowFn(); !got.Equal(ReferenceTime().Add(time.Minute)) {
		t.Fatalf("NowFunc did not follow the clock: %v", got)
	}

	var nilClock *Clock
	if nilClock.NowFunc() == nil {
		t.Fatal("nil clock must fall back to time.Now")
	}
}
