// Package calendar generates the hourly datetime-feature series: weekday and
// Czech public-holiday flags for every hour of the requested range.
package calendar

import "time"

// Easter returns Easter Sunday for a year using the anonymous Gregorian
// computus (https://en.wikipedia.org/wiki/Computus#Anonymous_Gregorian_algorithm).
func Easter(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// Holidays returns the Czech public holidays of a year, keyed by midnight
// UTC. All dates are static except Easter Sunday and Easter Monday.
func Holidays(year int) map[time.Time]bool {
	static := []time.Time{
		date(year, time.January, 1),    // New Year's Day
		date(year, time.May, 1),        // Labour Day
		date(year, time.May, 8),        // Victory in Europe Day
		date(year, time.July, 5),       // Saints Cyril and Methodius Day
		date(year, time.July, 6),       // Jan Hus Day
		date(year, time.September, 28), // Czech Statehood Day
		date(year, time.October, 28),   // Independence Day
		date(year, time.November, 17),  // Struggle for Freedom and Democracy Day
		date(year, time.December, 24),  // Christmas Eve
		date(year, time.December, 25),  // Christmas Day
		date(year, time.December, 26),  // St. Stephen's Day
	}

	holidays := make(map[time.Time]bool, len(static)+2)
	for _, d := range static {
		holidays[d] = true
	}
	easter := Easter(year)
	holidays[easter] = true
	holidays[easter.AddDate(0, 0, 1)] = true // Easter Monday
	return holidays
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
