// Package schedule generates the ordered rebalance dates a simulation
// steps through.
package schedule

import (
	"errors"
	"fmt"
	"time"
)

// Frequency selects how often the portfolio is rebalanced.
type Frequency string

const (
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
)

var (
	// ErrInvalidFrequency is returned for a frequency outside the
	// recognized set, before any simulation work begins.
	ErrInvalidFrequency = errors.New("schedule: invalid frequency")

	// ErrEmptySchedule is returned when start is after end.
	ErrEmptySchedule = errors.New("schedule: start after end, no dates to generate")
)

// months returns the calendar step for the frequency.
func (f Frequency) months() (int, error) {
	switch f {
	case Monthly:
		return 1, nil
	case Quarterly:
		return 3, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidFrequency, f)
}

// Valid reports whether f is a recognized frequency.
func (f Frequency) Valid() bool {
	_, err := f.months()
	return err == nil
}

// Generate returns the ordered sequence of rebalance dates: start
// inclusive, then repeated calendar-month steps, last date <= end.
//
// Month arithmetic is calendar-correct: stepping from the 31st lands on
// the last day of a shorter month instead of spilling into the next one,
// and the anchor day-of-month is preserved for subsequent steps.
func Generate(start, end time.Time, freq Frequency) ([]time.Time, error) {
	step, err := freq.months()
	if err != nil {
		return nil, err
	}

	start = midnight(start)
	end = midnight(end)

	if start.After(end) {
		return nil, ErrEmptySchedule
	}

	anchorDay := start.Day()

	var dates []time.Time
	for i := 0; ; i++ {
		d := addMonths(start, i*step, anchorDay)
		if d.After(end) {
			break
		}
		dates = append(dates, d)
	}
	return dates, nil
}

// addMonths advances t by n calendar months, clamping the anchor day to
// the target month's length (Jan 31 + 1mo = Feb 28/29, not Mar 2/3).
func addMonths(t time.Time, n, anchorDay int) time.Time {
	year, month := t.Year(), int(t.Month())+n
	// normalize month 13+ into the next year(s)
	year += (month - 1) / 12
	month = (month-1)%12 + 1

	day := anchorDay
	if last := daysIn(year, time.Month(month)); day > last {
		day = last
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, t.Location())
}

func daysIn(year int, month time.Month) int {
	// day 0 of the next month is the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
