package hourgrid

import (
	"fmt"
	"time"
)

// Key identifies one calendar hour. Rows are matched across sources solely by
// key equality, never by position.
type Key struct {
	Year  int
	Month int
	Day   int
	Hour  int
}

// KeyOf places a timestamp on the hourly grid.
func KeyOf(t time.Time) Key {
	return Key{Year: t.Year(), Month: int(t.Month()), Day: t.Day(), Hour: t.Hour()}
}

// DayKey is the midnight key for a calendar date.
func DayKey(t time.Time) Key {
	return Key{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

// Join renders the composite join key, e.g. "2013_1_1_0". No zero padding.
func (k Key) Join() string {
	return fmt.Sprintf("%d_%d_%d_%d", k.Year, k.Month, k.Day, k.Hour)
}

// Date returns the calendar date of the key at midnight UTC.
func (k Key) Date() time.Time {
	return time.Date(k.Year, time.Month(k.Month), k.Day, 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether the key falls on the given calendar date.
func (k Key) SameDay(t time.Time) bool {
	return k.Year == t.Year() && k.Month == int(t.Month()) && k.Day == t.Day()
}
