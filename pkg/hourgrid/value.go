// Package hourgrid provides the shared tabular model of the pipeline: hourly
// keyed rows with optional numeric cells, and the yearly CSV partition
// contract every processing stage reads and writes.
package hourgrid

import (
	"strconv"
	"strings"
)

// Value is one optional numeric cell. The zero value is absent. Absent is an
// explicit marker distinct from zero: it never contributes to sums and it
// serializes as an empty CSV field.
type Value struct {
	Float float64
	Valid bool
}

// Some wraps a present numeric value.
func Some(f float64) Value {
	return Value{Float: f, Valid: true}
}

// ParseValue coerces a raw text cell to a Value. Empty cells, "-" placeholders
// and non-numeric content all map to absent rather than failing.
func ParseValue(s string) Value {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return Value{}
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return Value{}
	}
	return Some(f)
}

// String renders the cell for CSV output. Integral values print without a
// decimal part, so consumption readings round-trip as plain integers.
func (v Value) String() string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Float, 'f', -1, 64)
}

// Sum adds the present values, ignoring absent ones. The result is absent
// only when every input is absent.
func Sum(values ...Value) Value {
	out := Value{}
	for _, v := range values {
		if !v.Valid {
			continue
		}
		out.Float += v.Float
		out.Valid = true
	}
	return out
}
