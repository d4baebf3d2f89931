// Package pipeline holds the run parameters shared by every processing stage:
// the inclusive calendar date range and its validation rules.
package pipeline

import (
	"errors"
	"fmt"
	"time"
)

// Floor is the earliest date any upstream daily extract covers. The
// 2012-12-31 file carries hours 0-6 of 2013-01-01, so nothing before it can
// contribute to the reconstructed series.
var Floor = time.Date(2012, time.December, 31, 0, 0, 0, 0, time.UTC)

// ErrStartAfterEnd aborts a run before any file I/O happens.
var ErrStartAfterEnd = errors.New("start date is after end date")

// Range is an inclusive calendar date range. Both bounds are midnight UTC.
type Range struct {
	Start time.Time
	End   time.Time
}

// NewRange validates and normalizes a requested range. A start before Floor
// is clamped forward; the returned day count reports the adjustment so the
// caller can surface it. Start after end is a hard error.
func NewRange(start, end time.Time) (Range, int, error) {
	start = midnight(start)
	end = midnight(end)
	if start.After(end) {
		return Range{}, 0, fmt.Errorf("%w: %s > %s", ErrStartAfterEnd,
			start.Format(DateLayout), end.Format(DateLayout))
	}

	adjusted := 0
	if start.Before(Floor) {
		adjusted = int(Floor.Sub(start).Hours() / 24)
		start = Floor
		if start.After(end) {
			return Range{}, 0, fmt.Errorf("%w after clamping start to %s", ErrStartAfterEnd,
				Floor.Format(DateLayout))
		}
	}
	return Range{Start: start, End: end}, adjusted, nil
}

// Days lists every date of the range in ascending order.
func (r Range) Days() []time.Time {
	var days []time.Time
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Contains reports whether a date falls inside the range.
func (r Range) Contains(t time.Time) bool {
	t = midnight(t)
	return !t.Before(r.Start) && !t.After(r.End)
}

// Years returns the first and last year touched by the range.
func (r Range) Years() (int, int) {
	return r.Start.Year(), r.End.Year()
}

func (r Range) String() string {
	return r.Start.Format(DateLayout) + " to " + r.End.Format(DateLayout)
}

// DateLayout is the CLI-facing date format.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	return t, nil
}

// DefaultStart is where processing begins when the caller does not say.
var DefaultStart = time.Date(2013, time.January, 1, 0, 0, 0, 0, time.UTC)

// DefaultEnd returns the last day of the month before now, the latest date
// for which complete upstream extracts exist.
func DefaultEnd(now time.Time) time.Time {
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return firstOfMonth.AddDate(0, 0, -1)
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
