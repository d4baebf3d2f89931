package consumption

import "log/slog"

// Expected data-row bounds of a daily extract: 24 hours plus tolerance for
// header padding the providers occasionally leak into the file.
const (
	MinExpectedRows = 24
	MaxExpectedRows = 26
)

// SuspectFile is one daily extract whose row count fell outside the expected
// range. The file is still parsed; the anomaly is only recorded.
type SuspectFile struct {
	Name string
	Rows int
}

// Audit collects suspicious files per network over a single run. It is owned
// by the caller of the run and passed into the parsing stage; two runs must
// never share one instance.
type Audit struct {
	order    []string
	networks map[string][]SuspectFile
}

func NewAudit() *Audit {
	return &Audit{networks: make(map[string][]SuspectFile)}
}

// Record flags one file for one network, preserving arrival order.
func (a *Audit) Record(network, file string, rows int) {
	if _, seen := a.networks[network]; !seen {
		a.order = append(a.order, network)
	}
	a.networks[network] = append(a.networks[network], SuspectFile{Name: file, Rows: rows})
}

// Empty reports whether the run flagged nothing.
func (a *Audit) Empty() bool {
	return len(a.networks) == 0
}

// Networks lists the flagged networks in first-flagged order.
func (a *Audit) Networks() []string {
	return a.order
}

// Files returns the flagged files of one network in arrival order.
func (a *Audit) Files(network string) []SuspectFile {
	return a.networks[network]
}

// Report emits every flagged file once, after the full range has been
// processed. It never mutates the assembled data. Nothing is logged when the
// run was clean.
func (a *Audit) Report(log *slog.Logger) {
	if a.Empty() {
		return
	}
	log.Warn("suspicious consumption files detected",
		"networks", len(a.order),
		"expected_rows_min", MinExpectedRows,
		"expected_rows_max", MaxExpectedRows,
	)
	for _, network := range a.order {
		for _, f := range a.networks[network] {
			log.Warn("suspicious file",
				"network", network,
				"file", f.Name,
				"rows", f.Rows,
			)
		}
	}
}
