package consumption

import (
	"log/slog"
	"os"
	"time"

	"gasflow/pkg/hourgrid"
)

// The hour boundary of the upstream extracts: a file dated D carries hours
// 7-23 of D plus hours 0-6 of D+1.
const lastEarlyHour = 6

// DayColumn is the complete 24-hour reconstruction of one network's calendar
// day. Hours no source row covered stay absent.
type DayColumn [24]hourgrid.Value

// ReconstructDay rebuilds one network's readings for one calendar date from
// the two adjacent daily extracts. The early segment (hours 0-6) comes from
// the file dated day-1, the late segment (hours 7-23) from the file dated
// day. A missing file means the segment contributes nothing. When a provider
// pads an hour into both files, the late segment wins: segments are applied
// early first, late second, each overwriting unconditionally.
func ReconstructDay(src Source, network string, day time.Time, audit *Audit, log *slog.Logger) DayColumn {
	var col DayColumn

	early := readSegment(src, network, day.AddDate(0, 0, -1), audit, log)
	for _, rec := range early {
		if rec.Key.SameDay(day) && rec.Key.Hour <= lastEarlyHour {
			col[rec.Key.Hour] = rec.Value
		}
	}

	late := readSegment(src, network, day, audit, log)
	for _, rec := range late {
		if rec.Key.SameDay(day) && rec.Key.Hour > lastEarlyHour {
			col[rec.Key.Hour] = rec.Value
		}
	}
	return col
}

// readSegment opens and parses one daily extract. Absent files are normal
// (the segment is simply unavailable); parse failures are isolated to the
// file and reported, never escalated.
func readSegment(src Source, network string, fileDate time.Time, audit *Audit, log *slog.Logger) []HourRecord {
	r, filename, err := src.Open(network, fileDate)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("failed to open daily extract", "network", network, "file", filename, "error", err)
		}
		return nil
	}
	defer r.Close()

	records, err := ParseDaily(r, filename, network, audit)
	if err != nil {
		log.Warn("failed to parse daily extract", "network", network, "file", filename, "error", err)
		return nil
	}
	return records
}
