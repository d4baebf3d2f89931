package hourgrid

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

var keyColumns = []string{"year", "month", "day", "hour"}

// WriteFile writes one frame as a CSV file with the canonical header
// year,month,day,hour followed by the frame's value columns.
func WriteFile(path string, f *Frame) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer out.Close()

	w := csv.NewWriter(out)
	header := append(append([]string(nil), keyColumns...), f.Columns...)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", path, err)
	}

	record := make([]string, len(header))
	for _, r := range f.Rows {
		record[0] = strconv.Itoa(r.Key.Year)
		record[1] = strconv.Itoa(r.Key.Month)
		record[2] = strconv.Itoa(r.Key.Day)
		record[3] = strconv.Itoa(r.Key.Hour)
		for i, cell := range r.Cells {
			record[4+i] = cell.String()
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write row of %s: %w", path, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return out.Close()
}

// WriteYearly partitions a frame by year and writes one file per year named
// <prefix>_<year>.csv. It returns the years written, ascending.
func WriteYearly(dir, prefix string, f *Frame) ([]int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	years := f.Years()
	for _, year := range years {
		path := filepath.Join(dir, fmt.Sprintf("%s_%d.csv", prefix, year))
		if err := WriteFile(path, f.FilterYear(year)); err != nil {
			return nil, err
		}
	}
	return years, nil
}

// ReadFile loads a yearly contract CSV. The header must contain the four key
// columns; every other header field becomes a value column in header order.
// Malformed key cells are an error: a contract file that cannot be keyed
// cannot be joined.
func ReadFile(path string) (*Frame, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer in.Close()

	r := csv.NewReader(in)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s is empty", path)
	}

	header := records[0]
	keyIdx := make(map[string]int, len(keyColumns))
	var valueCols []string
	var valueIdx []int
	for i, name := range header {
		name = strings.TrimSpace(name)
		if isKeyColumn(name) {
			keyIdx[name] = i
			continue
		}
		valueCols = append(valueCols, name)
		valueIdx = append(valueIdx, i)
	}
	for _, name := range keyColumns {
		if _, ok := keyIdx[name]; !ok {
			return nil, fmt.Errorf("%s is missing key column %q", path, name)
		}
	}

	frame := NewFrame(valueCols...)
	for line, record := range records[1:] {
		key, err := parseKey(record, keyIdx)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line+2, err)
		}
		cells := make([]Value, len(valueIdx))
		for i, idx := range valueIdx {
			if idx < len(record) {
				cells[i] = ParseValue(record[idx])
			}
		}
		frame.Append(key, cells...)
	}
	return frame, nil
}

// YearFiles scans a directory for <prefix>_<year>.csv files and maps each
// year to its path. Files whose suffix is not a plain year are ignored.
func YearFiles(dir, prefix string) (map[int]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, prefix+"_*.csv"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	files := make(map[int]string, len(matches))
	for _, path := range matches {
		stem := strings.TrimSuffix(filepath.Base(path), ".csv")
		yearPart := stem[strings.LastIndex(stem, "_")+1:]
		year, err := strconv.Atoi(yearPart)
		if err != nil {
			continue
		}
		files[year] = path
	}
	return files, nil
}

// SortedYears returns the keys of a year-file map, ascending.
func SortedYears(files map[int]string) []int {
	years := make([]int, 0, len(files))
	for y := range files {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

func isKeyColumn(name string) bool {
	for _, k := range keyColumns {
		if name == k {
			return true
		}
	}
	return false
}

func parseKey(record []string, keyIdx map[string]int) (Key, error) {
	var key Key
	fields := []struct {
		name string
		dst  *int
	}{
		{"year", &key.Year},
		{"month", &key.Month},
		{"day", &key.Day},
		{"hour", &key.Hour},
	}
	for _, f := range fields {
		idx := keyIdx[f.name]
		if idx >= len(record) {
			return Key{}, fmt.Errorf("missing %s cell", f.name)
		}
		v, err := strconv.Atoi(strings.TrimSpace(record[idx]))
		if err != nil {
			return Key{}, fmt.Errorf("invalid %s cell %q", f.name, record[idx])
		}
		*f.dst = v
	}
	return key, nil
}
