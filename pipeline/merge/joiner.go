// Package merge combines the three independently produced hourly series
// (calendar features, consumption, weather) into one row-complete feature
// table per year, plus one combined table across all years.
//
// The join is an exact-key temporal join on (year, month, day, hour),
// anchored on the calendar-features series. Rows are never matched by
// position: an earlier positional-concatenation design silently misaligned
// rows whenever series lengths differed, and must not come back.
package merge

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"gasflow/pipeline"
	"gasflow/pkg/hourgrid"
)

// Yearly file prefixes of the three source series.
const (
	CalendarPrefix    = "datetime_features"
	ConsumptionPrefix = "consumption"
	WeatherPrefix     = "weather"
	MergedPrefix      = "merged"
)

// CombinedFileName is the all-years output spanning every merged year.
const CombinedFileName = MergedPrefix + "_all_years.csv"

// ErrNothingMerged means no year had all three source files inside the
// requested range; the run writes no output.
var ErrNothingMerged = errors.New("no years eligible for merge, nothing merged")

// Dirs locates the per-year files of the three sources.
type Dirs struct {
	Calendar    string
	Consumption string
	Weather     string
}

// YearReport is the coverage report of one merged year.
type YearReport struct {
	Year               int
	CalendarRows       int
	ConsumptionRows    int
	WeatherRows        int
	MergedRows         int
	MissingConsumption int
	MissingWeather     int
}

// Result holds every merged year in ascending order plus the combined table.
type Result struct {
	Years    []int
	ByYear   map[int]*hourgrid.Frame
	Reports  []YearReport
	Combined *hourgrid.Frame
}

// Joiner performs the cross-source merge.
type Joiner struct {
	Log *slog.Logger
}

// EligibleYears intersects the years present in all three sources with the
// requested range. Years missing from any one source are skipped entirely.
func (j *Joiner) EligibleYears(dirs Dirs, rng pipeline.Range) ([]int, error) {
	calendar, err := hourgrid.YearFiles(dirs.Calendar, CalendarPrefix)
	if err != nil {
		return nil, err
	}
	consumption, err := hourgrid.YearFiles(dirs.Consumption, ConsumptionPrefix)
	if err != nil {
		return nil, err
	}
	weather, err := hourgrid.YearFiles(dirs.Weather, WeatherPrefix)
	if err != nil {
		return nil, err
	}

	startYear, endYear := rng.Years()
	var years []int
	for year := range calendar {
		if year < startYear || year > endYear {
			continue
		}
		if _, ok := consumption[year]; !ok {
			continue
		}
		if _, ok := weather[year]; !ok {
			continue
		}
		years = append(years, year)
	}
	sort.Ints(years)
	return years, nil
}

// Merge joins every eligible year. A year whose three files cannot all be
// read is skipped with a warning; only an empty eligible set aborts the run.
func (j *Joiner) Merge(dirs Dirs, rng pipeline.Range) (*Result, error) {
	years, err := j.EligibleYears(dirs, rng)
	if err != nil {
		return nil, err
	}
	if len(years) == 0 {
		startYear, endYear := rng.Years()
		return nil, fmt.Errorf("%w for years %d-%d", ErrNothingMerged, startYear, endYear)
	}

	result := &Result{ByYear: make(map[int]*hourgrid.Frame)}
	for _, year := range years {
		calendar, consumption, weather, err := j.loadYear(dirs, year)
		if err != nil {
			j.Log.Warn("skipping year", "year", year, "error", err)
			continue
		}

		j.Log.Info("merging year",
			"year", year,
			"calendar_rows", len(calendar.Rows),
			"consumption_rows", len(consumption.Rows),
			"weather_rows", len(weather.Rows),
		)

		merged, report := Join(calendar, consumption, weather)
		report.Year = year
		if report.MissingConsumption > 0 {
			j.Log.Warn("rows missing consumption data", "year", year, "rows", report.MissingConsumption)
		}
		if report.MissingWeather > 0 {
			j.Log.Warn("rows missing weather data", "year", year, "rows", report.MissingWeather)
		}

		result.Years = append(result.Years, year)
		result.ByYear[year] = merged
		result.Reports = append(result.Reports, report)
	}

	if len(result.Years) == 0 {
		return nil, fmt.Errorf("%w: every eligible year failed to load", ErrNothingMerged)
	}

	frames := make([]*hourgrid.Frame, 0, len(result.Years))
	for _, year := range result.Years {
		frames = append(frames, result.ByYear[year])
	}
	result.Combined = Concat(frames...)
	return result, nil
}

func (j *Joiner) loadYear(dirs Dirs, year int) (calendar, consumption, weather *hourgrid.Frame, err error) {
	calendar, err = readYearFile(dirs.Calendar, CalendarPrefix, year)
	if err != nil {
		return nil, nil, nil, err
	}
	consumption, err = readYearFile(dirs.Consumption, ConsumptionPrefix, year)
	if err != nil {
		return nil, nil, nil, err
	}
	weather, err = readYearFile(dirs.Weather, WeatherPrefix, year)
	if err != nil {
		return nil, nil, nil, err
	}
	return calendar, consumption, weather, nil
}

func readYearFile(dir, prefix string, year int) (*hourgrid.Frame, error) {
	files, err := hourgrid.YearFiles(dir, prefix)
	if err != nil {
		return nil, err
	}
	path, ok := files[year]
	if !ok {
		return nil, fmt.Errorf("missing %s_%d.csv in %s", prefix, year, dir)
	}
	return hourgrid.ReadFile(path)
}

// Join left-joins consumption's and weather's value columns onto the
// calendar-features frame by exact hourly key. Every calendar row is
// preserved; keys without a match yield absent cells. The report counts rows
// whose consumption (or weather) columns are entirely absent after the join.
func Join(calendar, consumption, weather *hourgrid.Frame) (*hourgrid.Frame, YearReport) {
	report := YearReport{
		CalendarRows:    len(calendar.Rows),
		ConsumptionRows: len(consumption.Rows),
		WeatherRows:     len(weather.Rows),
	}

	columns := make([]string, 0, len(calendar.Columns)+len(consumption.Columns)+len(weather.Columns))
	columns = append(columns, calendar.Columns...)
	columns = append(columns, consumption.Columns...)
	columns = append(columns, weather.Columns...)
	merged := hourgrid.NewFrame(columns...)

	consumptionIdx := consumption.Index()
	weatherIdx := weather.Index()

	for _, row := range calendar.Rows {
		cells := make([]hourgrid.Value, 0, len(columns))
		cells = append(cells, row.Cells...)

		joinKey := row.Key.Join()
		if i, ok := consumptionIdx[joinKey]; ok {
			cells = append(cells, consumption.Rows[i].Cells...)
		} else {
			cells = append(cells, make([]hourgrid.Value, len(consumption.Columns))...)
		}
		if !anyValid(cells[len(calendar.Columns) : len(calendar.Columns)+len(consumption.Columns)]) {
			report.MissingConsumption++
		}

		weatherStart := len(cells)
		if i, ok := weatherIdx[joinKey]; ok {
			cells = append(cells, weather.Rows[i].Cells...)
		} else {
			cells = append(cells, make([]hourgrid.Value, len(weather.Columns))...)
		}
		if !anyValid(cells[weatherStart:]) {
			report.MissingWeather++
		}

		merged.Append(row.Key, cells...)
	}

	report.MergedRows = len(merged.Rows)
	return merged, report
}

// Concat stacks frames in order, unioning their value columns. Cells for
// columns a frame does not carry stay absent. Year partitions are disjoint by
// construction, so no deduplication happens.
func Concat(frames ...*hourgrid.Frame) *hourgrid.Frame {
	var columns []string
	seen := make(map[string]bool)
	for _, f := range frames {
		for _, c := range f.Columns {
			if !seen[c] {
				seen[c] = true
				columns = append(columns, c)
			}
		}
	}

	out := hourgrid.NewFrame(columns...)
	position := make(map[string]int, len(columns))
	for i, c := range columns {
		position[c] = i
	}

	for _, f := range frames {
		for _, row := range f.Rows {
			cells := make([]hourgrid.Value, len(columns))
			for i, c := range f.Columns {
				cells[position[c]] = row.Cells[i]
			}
			out.Append(row.Key, cells...)
		}
	}
	return out
}

func anyValid(cells []hourgrid.Value) bool {
	for _, c := range cells {
		if c.Valid {
			return true
		}
	}
	return false
}
