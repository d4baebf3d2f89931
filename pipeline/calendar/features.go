package calendar

import (
	"time"

	"gasflow/pipeline"
	"gasflow/pkg/hourgrid"
)

// FilePrefix names the yearly calendar-feature files.
const FilePrefix = "datetime_features"

// Generate builds the hourly datetime-feature frame for the range: 24 rows
// per date with day_of_week (Monday=0), holiday and before_holiday flags.
func Generate(rng pipeline.Range) *hourgrid.Frame {
	frame := hourgrid.NewFrame("day_of_week", "holiday", "before_holiday")

	holidaysByYear := make(map[int]map[time.Time]bool)
	holidaysFor := func(year int) map[time.Time]bool {
		if h, ok := holidaysByYear[year]; ok {
			return h
		}
		h := Holidays(year)
		holidaysByYear[year] = h
		return h
	}

	for _, day := range rng.Days() {
		weekday := mondayWeekday(day)
		holiday := flag(holidaysFor(day.Year())[day])
		next := day.AddDate(0, 0, 1)
		beforeHoliday := flag(holidaysFor(next.Year())[next])

		key := hourgrid.DayKey(day)
		for hour := 0; hour < 24; hour++ {
			key.Hour = hour
			frame.Append(key,
				hourgrid.Some(float64(weekday)),
				holiday,
				beforeHoliday,
			)
		}
	}
	return frame
}

// mondayWeekday maps time.Weekday (Sunday=0) to the Monday=0 convention the
// downstream feature consumers expect.
func mondayWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func flag(b bool) hourgrid.Value {
	if b {
		return hourgrid.Some(1)
	}
	return hourgrid.Some(0)
}
