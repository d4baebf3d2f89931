package hourgrid

import (
	"fmt"
	"sort"
)

// Frame is a wide hourly table: four key columns plus named value columns.
// Cells are parallel to Columns for every row.
type Frame struct {
	Columns []string
	Rows    []Row
}

// Row is one keyed hour of a frame.
type Row struct {
	Key   Key
	Cells []Value
}

// NewFrame creates an empty frame with the given value columns.
func NewFrame(columns ...string) *Frame {
	return &Frame{Columns: append([]string(nil), columns...)}
}

// Append adds one row. The number of cells must match the frame's columns.
func (f *Frame) Append(key Key, cells ...Value) {
	if len(cells) != len(f.Columns) {
		panic(fmt.Sprintf("hourgrid: row has %d cells, frame has %d columns", len(cells), len(f.Columns)))
	}
	f.Rows = append(f.Rows, Row{Key: key, Cells: cells})
}

// ColumnIndex returns the position of a value column, or -1.
func (f *Frame) ColumnIndex(name string) int {
	for i, c := range f.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns all cells of one value column, or nil if it does not exist.
func (f *Frame) Column(name string) []Value {
	idx := f.ColumnIndex(name)
	if idx < 0 {
		return nil
	}
	out := make([]Value, len(f.Rows))
	for i, r := range f.Rows {
		out[i] = r.Cells[idx]
	}
	return out
}

// Years lists the distinct years present in the frame, ascending.
func (f *Frame) Years() []int {
	seen := make(map[int]bool)
	for _, r := range f.Rows {
		seen[r.Key.Year] = true
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// FilterYear returns a frame holding only the rows of one year. Row order is
// preserved; columns are shared with the receiver.
func (f *Frame) FilterYear(year int) *Frame {
	out := &Frame{Columns: f.Columns}
	for _, r := range f.Rows {
		if r.Key.Year == year {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// Index maps the composite join key of every row to its position. Later rows
// win on duplicate keys; yearly contract files never contain duplicates.
func (f *Frame) Index() map[string]int {
	idx := make(map[string]int, len(f.Rows))
	for i, r := range f.Rows {
		idx[r.Key.Join()] = i
	}
	return idx
}
