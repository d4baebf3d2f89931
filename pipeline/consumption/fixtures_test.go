package consumption

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// extractRow renders one raw data line in the provider format.
func extractRow(ts time.Time, value string) string {
	return fmt.Sprintf("%s,21637,%s,Zona_Test", ts.Format("2.1.2006 15:04"), value)
}

// fullExtractRows builds the complete 24-row payload of the file dated
// fileDate: hours 7-23 of fileDate plus hours 0-6 of the next day. Each hour's
// value is base+hour so tests can tell which file a cell came from.
func fullExtractRows(fileDate time.Time, base float64) []string {
	rows := make([]string, 0, 24)
	for hour := 7; hour <= 23; hour++ {
		rows = append(rows, extractRow(fileDate.Add(time.Duration(hour)*time.Hour), fmt.Sprintf("%g", base+float64(hour))))
	}
	next := fileDate.AddDate(0, 0, 1)
	for hour := 0; hour <= 6; hour++ {
		rows = append(rows, extractRow(next.Add(time.Duration(hour)*time.Hour), fmt.Sprintf("%g", base+float64(hour))))
	}
	return rows
}

// writeExtract writes a raw daily extract under root/network/.
func writeExtract(t *testing.T, root, network string, fileDate time.Time, rows []string) {
	t.Helper()
	dir := filepath.Join(root, network)
	require.NoError(t, os.MkdirAll(dir, 0o755))

	content := "Datum,ID,Hodnota,Nazev\n"
	if len(rows) > 0 {
		content += strings.Join(rows, "\n") + "\n"
	}
	path := filepath.Join(dir, fileDate.Format("20060102")+".csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
