// Package weather normalizes the raw hourly weather extract into the yearly
// contract files the merge stage consumes.
package weather

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gasflow/pipeline"
	"gasflow/pkg/hourgrid"
)

// FilePrefix names the yearly weather files.
const FilePrefix = "weather"

// ErrNoRawFile means the raw weather directory holds no weather_*.csv.
var ErrNoRawFile = errors.New("no raw weather data file found")

// FeatureColumns are the twenty observation columns of the raw extract, in
// contract order. The raw date column is dropped; the hourly key replaces it.
var FeatureColumns = []string{
	"temperature_2m",
	"wind_gusts_10m",
	"wind_direction_100m",
	"wind_direction_10m",
	"wind_speed_100m",
	"wind_speed_10m",
	"weather_code",
	"pressure_msl",
	"surface_pressure",
	"cloud_cover",
	"cloud_cover_low",
	"cloud_cover_mid",
	"cloud_cover_high",
	"relative_humidity_2m",
	"dew_point_2m",
	"apparent_temperature",
	"precipitation",
	"rain",
	"snowfall",
	"snow_depth",
}

// Timestamp layouts the provider has shipped over the years.
var timeLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
}

// FindRawFile locates the single raw weather CSV in a directory. When several
// match, the lexically first is used and the rest are reported.
func FindRawFile(dir string, log *slog.Logger) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, FilePrefix+"_*.csv"))
	if err != nil {
		return "", fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNoRawFile, dir)
	}
	sort.Strings(matches)
	if len(matches) > 1 {
		log.Warn("multiple raw weather files found, using first",
			"file", filepath.Base(matches[0]), "extra", len(matches)-1)
	}
	return matches[0], nil
}

// Process parses the raw weather extract and returns the hourly frame for
// the requested range. Rows with unparseable timestamps are dropped, as are
// rows where every feature is absent; individual unparseable cells become
// absent. The range filter keeps the touched years and trims the one-day
// download buffer that spills into the month after the range end.
func Process(path string, rng pipeline.Range, log *slog.Logger) (*hourgrid.Frame, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open weather file %s: %w", path, err)
	}
	defer in.Close()

	r := csv.NewReader(in)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read weather file %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("weather file %s has no data rows", path)
	}

	header := records[0]
	dateIdx := -1
	featureIdx := make([]int, len(FeatureColumns))
	for i := range featureIdx {
		featureIdx[i] = -1
	}
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "date" {
			dateIdx = i
			continue
		}
		for j, want := range FeatureColumns {
			if name == want {
				featureIdx[j] = i
			}
		}
	}
	if dateIdx < 0 {
		return nil, fmt.Errorf("weather file %s is missing the date column", path)
	}
	for j, idx := range featureIdx {
		if idx < 0 {
			return nil, fmt.Errorf("weather file %s is missing column %q", path, FeatureColumns[j])
		}
	}

	startYear, endYear := rng.Years()
	cutoff := firstOfNextMonth(rng.End)

	frame := hourgrid.NewFrame(FeatureColumns...)
	dropped := 0
	for _, record := range records[1:] {
		if dateIdx >= len(record) {
			dropped++
			continue
		}
		ts, ok := parseTimestamp(record[dateIdx])
		if !ok {
			dropped++
			continue
		}
		if ts.Year() < startYear || ts.Year() > endYear || !ts.Before(cutoff) {
			continue
		}

		cells := make([]hourgrid.Value, len(FeatureColumns))
		present := false
		for j, idx := range featureIdx {
			if idx < len(record) {
				cells[j] = hourgrid.ParseValue(record[idx])
				present = present || cells[j].Valid
			}
		}
		if !present {
			dropped++
			continue
		}
		frame.Append(hourgrid.KeyOf(ts), cells...)
	}

	log.Info("processed weather data",
		"file", filepath.Base(path),
		"rows", len(frame.Rows),
		"dropped", dropped,
	)
	return frame, nil
}

func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func firstOfNextMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
}
