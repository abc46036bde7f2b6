// Package itinerary expands a trip's date range into its individual days.
// Everything here is pure: the same start and end always yield the same days.
package itinerary

import (
	"errors"
	"fmt"
	"iter"
	"time"
)

// MaxDays bounds the length of a range. Longer ranges are rejected as invalid
// so a typo in a year cannot produce a multi-century itinerary.
const MaxDays = 3660

// ErrInvalidRange is matched by every *InvalidRangeError via errors.Is.
var ErrInvalidRange = errors.New("invalid date range")

// InvalidRangeError reports an end date before the start date, or a range
// longer than MaxDays.
type InvalidRangeError struct {
	Start time.Time
	End   time.Time
}

func (e *InvalidRangeError) Error() string {
	if e.End.Before(e.Start) {
		return fmt.Sprintf("invalid date range: end %s is before start %s",
			e.End.Format(time.DateOnly), e.Start.Format(time.DateOnly))
	}
	return fmt.Sprintf("invalid date range: %s to %s exceeds %d days",
		e.Start.Format(time.DateOnly), e.End.Format(time.DateOnly), MaxDays)
}

func (e *InvalidRangeError) Is(target error) bool { return target == ErrInvalidRange }

// Day describes one calendar day of a range.
type Day struct {
	// Index is 0 for the start date and increases by one per day.
	Index   int
	Date    time.Time
	Weekday time.Weekday
}

// WeekdayName returns the English weekday name, e.g. "Monday".
func (d Day) WeekdayName() string {
	return d.Weekday.String()
}

// Expand returns the days from start through end inclusive.
// The sequence is lazy and may be ranged over any number of times.
// Both dates are truncated to their calendar day in UTC first.
func Expand(start, end time.Time) (iter.Seq[Day], error) {
	n, err := Count(start, end)
	if err != nil {
		return nil, err
	}
	first := calendarDate(start)
	return func(yield func(Day) bool) {
		for i := range n {
			date := first.AddDate(0, 0, i)
			if !yield(Day{Index: i, Date: date, Weekday: date.Weekday()}) {
				return
			}
		}
	}, nil
}

// Count returns the number of days from start through end inclusive.
func Count(start, end time.Time) (int, error) {
	s, e := calendarDate(start), calendarDate(end)
	if e.Before(s) {
		return 0, &InvalidRangeError{Start: s, End: e}
	}
	// Both values are UTC midnights, so the difference is a whole number of days.
	n := int(e.Sub(s).Hours()/24) + 1
	if n > MaxDays {
		return 0, &InvalidRangeError{Start: s, End: e}
	}
	return n, nil
}

// DayAt returns the day with the given index, or an error if the index is
// outside [0, Count(start, end)).
func DayAt(start, end time.Time, index int) (Day, error) {
	n, err := Count(start, end)
	if err != nil {
		return Day{}, err
	}
	if index < 0 || index >= n {
		return Day{}, fmt.Errorf("day index %d out of range [0, %d)", index, n)
	}
	date := calendarDate(start).AddDate(0, 0, index)
	return Day{Index: index, Date: date, Weekday: date.Weekday()}, nil
}

func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
