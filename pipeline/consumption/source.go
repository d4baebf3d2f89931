// Package consumption reconstructs the canonical hourly consumption series of
// the distribution networks from their raw daily extracts. Each network splits
// a calendar day's 24 hours across two physical files: hours 0-6 of day D live
// in the file dated D-1, hours 7-23 in the file dated D.
package consumption

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Source exposes the consumption networks and their daily extracts. The
// engine depends only on this capability, not on any directory layout.
type Source interface {
	// Names lists the available network identifiers, lower-cased.
	Names() ([]string, error)
	// Open returns the daily extract of one network for one calendar date,
	// along with its file name. A missing extract is reported as an error
	// satisfying os.IsNotExist / errors.Is(err, fs.ErrNotExist).
	Open(network string, day time.Time) (io.ReadCloser, string, error)
}

// DirSource serves networks from <Root>/<network>/<YYYYMMDD>.csv, one
// subdirectory per network.
type DirSource struct {
	Root string
}

func (s DirSource) Names() ([]string, error) {
	entries, err := os.ReadDir(s.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list consumption networks in %s: %w", s.Root, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, strings.ToLower(e.Name()))
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s DirSource) Open(network string, day time.Time) (io.ReadCloser, string, error) {
	name := day.Format("20060102") + ".csv"
	f, err := os.Open(filepath.Join(s.Root, network, name))
	if err != nil {
		return nil, name, err
	}
	return f, name, nil
}
