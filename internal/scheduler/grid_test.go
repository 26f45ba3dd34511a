package scheduler

import (
	"errors"
	"testing"
	"time"
)

func TestBuildSlots_EmptyDayIsAllAvailable(t *testing.T) {
	t.Parallel()

	for _, granularity := range []time.Duration{15 * time.Minute, 30 * time.Minute, time.Hour} {
		dayStart, dayEnd := DayBounds(at(13, 45))
		slots, err := BuildSlots(dayStart, dayEnd, granularity, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := int(24 * time.Hour / granularity)
		if len(slots) != want {
			t.Fatalf("granularity %s: got %d slots, want %d", granularity, len(slots), want)
		}
		for _, slot := range slots {
			if slot.State != SlotAvailable {
				t.Fatalf("slot %s is %s, want available", slot.Start.Format("15:04"), slot.State)
			}
		}
	}
}

func TestBuildSlots_MarksHalfOpenCoverage(t *testing.T) {
	t.Parallel()

	dayStart, dayEnd := DayBounds(at(0, 0))
	busy := []Interval{
		{Start: at(8, 0), End: at(9, 30)},
		{Start: at(14, 0), End: at(15, 0)},
		{Start: at(14, 15), End: at(14, 45)},
	}

	slots, err := BuildSlots(dayStart, dayEnd, DefaultGranularity, busy)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantBusy := map[string]bool{"08:00": true, "08:30": true, "09:00": true, "14:00": true, "14:30": true}
	for _, slot := range slots {
		label := slot.Start.Format("15:04")
		if wantBusy[label] && slot.State != SlotBusy {
			t.Errorf("slot %s should be busy", label)
		}
		if !wantBusy[label] && slot.State != SlotAvailable {
			t.Errorf("slot %s should be available", label)
		}
	}
}

func TestBuildSlots_ClipsAcrossMidnight(t *testing.T) {
	t.Parallel()

	dayStart, dayEnd := DayBounds(at(12, 0))
	busy := []Interval{
		{Start: dayStart.Add(-3 * time.Hour), End: dayStart.Add(time.Hour)},
		{Start: dayEnd.Add(-30 * time.Minute), End: dayEnd.Add(2 * time.Hour)},
	}

	slots, err := BuildSlots(dayStart, dayEnd, DefaultGranularity, busy)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slots[0].State != SlotBusy || slots[1].State != SlotBusy || slots[2].State != SlotAvailable {
		t.Fatalf("unexpected leading slots: %v", slots[:3])
	}
	if last := slots[len(slots)-1]; last.State != SlotBusy {
		t.Fatalf("expected final slot busy, got %s", last.State)
	}
}

func TestBuildSlots_UnevenGranularityRoundsUp(t *testing.T) {
	t.Parallel()

	dayStart, dayEnd := DayBounds(at(0, 0))
	slots, err := BuildSlots(dayStart, dayEnd, 7*time.Hour, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 4 {
		t.Fatalf("got %d slots, want 4", len(slots))
	}
}

func TestBuildSlots_RejectsBadGranularity(t *testing.T) {
	t.Parallel()

	dayStart, dayEnd := DayBounds(at(0, 0))
	if _, err := BuildSlots(dayStart, dayEnd, 0, nil); !errors.Is(err, ErrInvalidGranularity) {
		t.Fatalf("expected ErrInvalidGranularity, got %v", err)
	}
}
