package scheduler

import (
	"errors"
	"fmt"
	"time"
)

// DefaultGranularity is the slot width used for availability grids.
const DefaultGranularity = 30 * time.Minute

// ErrInvalidGranularity is returned when the slot width is not positive.
var ErrInvalidGranularity = errors.New("scheduler: invalid granularity")

// SlotState is the occupancy of a single availability slot.
type SlotState string

const (
	// SlotAvailable marks a slot with no assignment starting or running in it.
	SlotAvailable SlotState = "available"
	// SlotBusy marks a slot whose start instant falls inside an assignment.
	SlotBusy SlotState = "busy"
)

// Slot is one cell of an availability grid.
type Slot struct {
	Start time.Time
	State SlotState
}

// DayBounds returns midnight-to-midnight bounds of date in its own location.
func DayBounds(date time.Time) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return start, start.AddDate(0, 0, 1)
}

// SlotCount returns ceil((end-start)/granularity).
func SlotCount(start, end time.Time, granularity time.Duration) int {
	span := end.Sub(start)
	n := int(span / granularity)
	if span%granularity != 0 {
		n++
	}
	return n
}

// BuildSlots lays out [dayStart, dayEnd) at granularity steps and marks every
// slot whose start lies in one of the busy intervals after clipping them to
// the day. Overlapping busy intervals mark a slot once.
func BuildSlots(dayStart, dayEnd time.Time, granularity time.Duration, busy []Interval) ([]Slot, error) {
	if granularity <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidGranularity, granularity)
	}
	if err := ValidateInterval(dayStart, dayEnd); err != nil {
		return nil, err
	}

	slots := make([]Slot, SlotCount(dayStart, dayEnd, granularity))
	for i := range slots {
		slots[i] = Slot{Start: dayStart.Add(time.Duration(i) * granularity), State: SlotAvailable}
	}

	for _, interval := range busy {
		clipped, ok, err := Clip(interval.Start, interval.End, dayStart, dayEnd)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		for i := range slots {
			if slots[i].State == SlotBusy {
				continue
			}
			inside, err := Contains(clipped.Start, clipped.End, slots[i].Start)
			if err != nil {
				return nil, err
			}
			if inside {
				slots[i].State = SlotBusy
			}
		}
	}

	return slots, nil
}
