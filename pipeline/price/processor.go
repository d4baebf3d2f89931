// Package price normalizes the monthly traded-gas price spreadsheets into
// yearly contract files. Prices are money, so cells are carried as decimals
// end to end and written back without float rounding artifacts.
package price

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"gasflow/pipeline"
)

// FilePrefix names the yearly price files.
const FilePrefix = "price"

// ErrNoPriceFiles means the raw price directory holds no VDT_plyn spreadsheets.
var ErrNoPriceFiles = errors.New("no raw price data files found")

// Spreadsheet layout: four preamble rows, then a Czech header row, then one
// data row per trading day.
const preambleRows = 5

// DayQuote is one trading day of the intraday gas market. Untraded days ship
// "-" cells, carried here as null decimals.
type DayQuote struct {
	Date     time.Time
	Volume   decimal.NullDecimal // traded volume, MWh
	AvgPrice decimal.NullDecimal // weighted average, EUR/MWh
	MinPrice decimal.NullDecimal
	MaxPrice decimal.NullDecimal
}

// Date layouts seen in the exported sheets, depending on cell styling.
var dateLayouts = []string{
	"2006-01-02",
	"2.1.2006",
	"02.01.2006",
	"01-02-06",
	"1/2/06",
	"2006-01-02 15:04:05",
}

// ParseSheet reads one monthly spreadsheet. Rows with unparseable dates are
// dropped; unparseable price cells become null.
func ParseSheet(path string) ([]DayQuote, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open price sheet %s: %w", path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read price sheet %s: %w", path, err)
	}
	if len(rows) <= preambleRows {
		return nil, fmt.Errorf("price sheet %s has no data rows", path)
	}

	var quotes []DayQuote
	for _, row := range rows[preambleRows:] {
		if len(row) == 0 {
			continue
		}
		date, ok := parseSheetDate(row[0])
		if !ok {
			continue
		}
		q := DayQuote{Date: date}
		if len(row) > 1 {
			q.Volume = parseDecimal(row[1])
		}
		if len(row) > 2 {
			q.AvgPrice = parseDecimal(row[2])
		}
		if len(row) > 3 {
			q.MinPrice = parseDecimal(row[3])
		}
		if len(row) > 4 {
			q.MaxPrice = parseDecimal(row[4])
		}
		quotes = append(quotes, q)
	}
	return quotes, nil
}

// Process parses every monthly sheet in the directory whose filename year
// falls inside the range. File naming: VDT_plyn_<MM>_<YYYY>_CZ.xls(x).
// Individual unreadable sheets are skipped with a warning.
func Process(dir string, rng pipeline.Range, log *slog.Logger) ([]DayQuote, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "VDT_plyn_*.xls*"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoPriceFiles, dir)
	}
	sort.Strings(matches)

	startYear, endYear := rng.Years()
	var all []DayQuote
	for _, path := range matches {
		year, ok := filenameYear(path)
		if !ok {
			log.Warn("cannot read year from price file name, skipping", "file", filepath.Base(path))
			continue
		}
		if year < startYear || year > endYear {
			continue
		}
		quotes, err := ParseSheet(path)
		if err != nil {
			log.Warn("failed to parse price sheet, skipping", "file", filepath.Base(path), "error", err)
			continue
		}
		all = append(all, quotes...)
	}

	filtered := all[:0]
	for _, q := range all {
		if y := q.Date.Year(); y >= startYear && y <= endYear {
			filtered = append(filtered, q)
		}
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].Date.Before(filtered[j].Date) })

	log.Info("processed price data", "files", len(matches), "days", len(filtered))
	return filtered, nil
}

// filenameYear extracts the year component of VDT_plyn_<MM>_<YYYY>_CZ.
func filenameYear(path string) (int, bool) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	parts := strings.Split(stem, "_")
	if len(parts) < 4 {
		return 0, false
	}
	year, err := strconv.Atoi(parts[3])
	if err != nil {
		return 0, false
	}
	return year, true
}

func parseSheetDate(cell string) (time.Time, bool) {
	cell = strings.TrimSpace(cell)
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, cell); err == nil {
			return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

func parseDecimal(cell string) decimal.NullDecimal {
	cell = strings.TrimSpace(cell)
	if cell == "" || cell == "-" {
		return decimal.NullDecimal{}
	}
	cell = strings.ReplaceAll(strings.ReplaceAll(cell, " ", ""), ",", ".")
	d, err := decimal.NewFromString(cell)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}
