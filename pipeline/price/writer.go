package price

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
)

var header = []string{
	"year", "month", "day", "hour",
	"traded_volume_mwh",
	"weighted_avg_price_eur_mwh",
	"min_price_eur_mwh",
	"max_price_eur_mwh",
}

// WriteYearly expands each trading day to 24 identical hourly rows and writes
// one price_<year>.csv per year. Decimal cells keep their exact scale; null
// cells serialize as empty fields. Returns the years written, ascending.
func WriteYearly(dir string, quotes []DayQuote) ([]int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	byYear := make(map[int][]DayQuote)
	for _, q := range quotes {
		byYear[q.Date.Year()] = append(byYear[q.Date.Year()], q)
	}

	var years []int
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	for _, year := range years {
		path := filepath.Join(dir, fmt.Sprintf("%s_%d.csv", FilePrefix, year))
		if err := writeYearFile(path, byYear[year]); err != nil {
			return nil, err
		}
	}
	return years, nil
}

func writeYearFile(path string, quotes []DayQuote) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer out.Close()

	w := csv.NewWriter(out)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", path, err)
	}

	record := make([]string, len(header))
	for _, q := range quotes {
		record[0] = strconv.Itoa(q.Date.Year())
		record[1] = strconv.Itoa(int(q.Date.Month()))
		record[2] = strconv.Itoa(q.Date.Day())
		record[4] = nullDecimalString(q.Volume)
		record[5] = nullDecimalString(q.AvgPrice)
		record[6] = nullDecimalString(q.MinPrice)
		record[7] = nullDecimalString(q.MaxPrice)
		for hour := 0; hour < 24; hour++ {
			record[3] = strconv.Itoa(hour)
			if err := w.Write(record); err != nil {
				return fmt.Errorf("failed to write row of %s: %w", path, err)
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return out.Close()
}

func nullDecimalString(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}
