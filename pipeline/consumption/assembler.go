package consumption

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"

	"gasflow/pipeline"
	"gasflow/pkg/hourgrid"
)

// ErrNoNetworks signals the only non-error way a consumption run ends with no
// output: nothing valid was selected, so there is nothing to process.
var ErrNoNetworks = errors.New("no valid consumption networks selected, nothing to process")

// TotalColumn is the derived sum column of the assembled series.
const TotalColumn = "consumption_total"

// Assembler runs the day reconstruction across all requested networks and
// every date in range, producing one wide hourly table.
type Assembler struct {
	Source Source
	Log    *slog.Logger
}

// RunStats summarizes one assembly run for reporting.
type RunStats struct {
	Networks       []string
	Unknown        []string
	Days           int
	NetworkHours   int
	AvailableHours int
	MissingHours   int

	// Distribution of the hourly total where present.
	TotalMean hourgrid.Value
	TotalMin  hourgrid.Value
	TotalMax  hourgrid.Value
}

// Assemble reconstructs the hourly series for every network and date in the
// range. Requested networks that do not exist are reported and excluded; an
// empty request means all available networks. The resulting frame has one
// consumption_<network> column per network plus consumption_total, and
// exactly 24 rows per date regardless of source availability.
func (a *Assembler) Assemble(rng pipeline.Range, requested []string, audit *Audit) (*hourgrid.Frame, *RunStats, error) {
	networks, unknown, err := a.selectNetworks(requested)
	if err != nil {
		return nil, nil, err
	}
	if len(unknown) > 0 {
		a.Log.Warn("requested consumption networks not found",
			"networks", strings.Join(unknown, ", "))
	}
	if len(networks) == 0 {
		return nil, nil, ErrNoNetworks
	}

	a.Log.Info("processing consumption data",
		"start", rng.Start.Format(pipeline.DateLayout),
		"end", rng.End.Format(pipeline.DateLayout),
		"networks", strings.Join(networks, ", "),
	)

	columns := make([]string, 0, len(networks)+1)
	for _, network := range networks {
		columns = append(columns, "consumption_"+network)
	}
	columns = append(columns, TotalColumn)
	frame := hourgrid.NewFrame(columns...)

	days := rng.Days()
	for _, day := range days {
		dayColumns := make([]DayColumn, len(networks))
		for i, network := range networks {
			dayColumns[i] = ReconstructDay(a.Source, network, day, audit, a.Log)
		}
		for hour := 0; hour < 24; hour++ {
			cells := make([]hourgrid.Value, len(networks)+1)
			for i := range networks {
				cells[i] = dayColumns[i][hour]
			}
			// Absent only when every network is absent for the hour.
			cells[len(networks)] = hourgrid.Sum(cells[:len(networks)]...)
			key := hourgrid.DayKey(day)
			key.Hour = hour
			frame.Append(key, cells...)
		}
	}

	runStats := a.summarize(frame, networks, unknown, len(days))
	a.Log.Info("processed consumption data",
		"network_hours", runStats.NetworkHours,
		"with_data", runStats.AvailableHours,
		"absent", runStats.MissingHours,
	)
	return frame, runStats, nil
}

// selectNetworks resolves the requested identifiers against the source,
// splitting them into valid and unknown. Nil means everything available.
func (a *Assembler) selectNetworks(requested []string) (valid, unknown []string, err error) {
	available, err := a.Source.Names()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to discover consumption networks: %w", err)
	}
	if len(requested) == 0 {
		return available, nil, nil
	}

	known := make(map[string]bool, len(available))
	for _, name := range available {
		known[name] = true
	}
	seen := make(map[string]bool)
	for _, name := range requested {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		if known[name] {
			valid = append(valid, name)
		} else {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(valid)
	sort.Strings(unknown)
	return valid, unknown, nil
}

func (a *Assembler) summarize(frame *hourgrid.Frame, networks, unknown []string, days int) *RunStats {
	s := &RunStats{
		Networks:     networks,
		Unknown:      unknown,
		Days:         days,
		NetworkHours: len(frame.Rows) * len(networks),
	}

	for _, row := range frame.Rows {
		for i := range networks {
			if row.Cells[i].Valid {
				s.AvailableHours++
			}
		}
	}
	s.MissingHours = s.NetworkHours - s.AvailableHours

	var totals []float64
	for _, v := range frame.Column(TotalColumn) {
		if v.Valid {
			totals = append(totals, v.Float)
		}
	}
	if len(totals) > 0 {
		if mean, err := stats.Mean(totals); err == nil {
			s.TotalMean = hourgrid.Some(mean)
		}
		if min, err := stats.Min(totals); err == nil {
			s.TotalMin = hourgrid.Some(min)
		}
		if max, err := stats.Max(totals); err == nil {
			s.TotalMax = hourgrid.Some(max)
		}
	}
	return s
}
