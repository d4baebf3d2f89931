package consumption

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"gasflow/pkg/hourgrid"
)

// Daily extract layout: Datum,ID,Hodnota,Nazev with day.month.year hour:minute
// timestamps, e.g. "1.1.2013 7:00".
const dailyTimeLayout = "2.1.2006 15:04"

// HourRecord is one network reading placed on the hourly grid. The value is
// absent when the source cell was missing or non-numeric.
type HourRecord struct {
	Key   hourgrid.Key
	Value hourgrid.Value
}

// ParseDaily reads one raw daily extract and returns its normalized hour
// records. Rows with unparseable timestamps are dropped (they cannot be
// placed on any day); rows with unparseable values are kept as absent. A data
// row count outside [MinExpectedRows, MaxExpectedRows] flags the file in the
// audit without blocking the parse.
func ParseDaily(r io.Reader, filename, network string, audit *Audit) ([]HourRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	if len(records) == 0 {
		audit.Record(network, filename, 0)
		return nil, nil
	}

	dateIdx, valueIdx := columnIndexes(records[0])
	data := records[1:]
	if len(data) < MinExpectedRows || len(data) > MaxExpectedRows {
		audit.Record(network, filename, len(data))
	}

	out := make([]HourRecord, 0, len(data))
	for _, record := range data {
		if dateIdx >= len(record) {
			continue
		}
		ts, err := time.Parse(dailyTimeLayout, strings.TrimSpace(record[dateIdx]))
		if err != nil {
			continue
		}
		var value hourgrid.Value
		if valueIdx < len(record) {
			value = hourgrid.ParseValue(record[valueIdx])
		}
		out = append(out, HourRecord{Key: hourgrid.KeyOf(ts), Value: value})
	}
	return out, nil
}

// columnIndexes locates Datum and Hodnota in the header, falling back to
// their nominal positions when a provider omits the header row.
func columnIndexes(header []string) (dateIdx, valueIdx int) {
	dateIdx, valueIdx = 0, 2
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case "Datum":
			dateIdx = i
		case "Hodnota":
			valueIdx = i
		}
	}
	return dateIdx, valueIdx
}
