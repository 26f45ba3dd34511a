// Package scheduler holds the pure scheduling engine: interval arithmetic,
// availability slot construction and activity status derivation. Nothing in
// this package performs I/O or reads the wall clock.
package scheduler

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidInterval is returned when an interval does not satisfy start < end.
var ErrInvalidInterval = errors.New("scheduler: invalid interval")

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Validate reports ErrInvalidInterval unless Start is strictly before End.
func (i Interval) Validate() error {
	return ValidateInterval(i.Start, i.End)
}

// ValidateInterval reports ErrInvalidInterval unless start is strictly before end.
func ValidateInterval(start, end time.Time) error {
	if start.IsZero() || end.IsZero() || !start.Before(end) {
		return fmt.Errorf("%w: [%s, %s)", ErrInvalidInterval, formatInstant(start), formatInstant(end))
	}
	return nil
}

// Overlaps reports whether [s1, e1) and [s2, e2) share at least one instant.
// Both intervals must be valid. Touching endpoints do not overlap.
func Overlaps(s1, e1, s2, e2 time.Time) (bool, error) {
	if err := ValidateInterval(s1, e1); err != nil {
		return false, err
	}
	if err := ValidateInterval(s2, e2); err != nil {
		return false, err
	}
	return s1.Before(e2) && s2.Before(e1), nil
}

// Contains reports whether instant lies within [start, end). It is expressed
// as an overlap against a one-nanosecond probe interval so there is a single
// comparison rule in the package.
func Contains(start, end, instant time.Time) (bool, error) {
	return Overlaps(start, end, instant, instant.Add(time.Nanosecond))
}

// Clip restricts [start, end) to the window [lo, hi). The boolean is false
// when the two ranges do not overlap.
func Clip(start, end, lo, hi time.Time) (Interval, bool, error) {
	ok, err := Overlaps(start, end, lo, hi)
	if err != nil || !ok {
		return Interval{}, false, err
	}
	clipped := Interval{Start: start, End: end}
	if clipped.Start.Before(lo) {
		clipped.Start = lo
	}
	if clipped.End.After(hi) {
		clipped.End = hi
	}
	return clipped, true, nil
}

func formatInstant(t time.Time) string {
	if t.IsZero() {
		return "zero"
	}
	return t.Format(time.RFC3339)
}
