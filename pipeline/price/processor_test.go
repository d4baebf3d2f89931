package price

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"gasflow/pipeline"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeSheet builds a monthly spreadsheet in the exported layout: four
// preamble rows, a Czech header row, then daily rows of
// [date, volume, avg, min, max].
func writeSheet(t *testing.T, path string, days [][]string) {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	preamble := [][]string{
		{"OTE, a.s."},
		{"Vnitrodenní trh s plynem"},
		{},
		{"Výsledky obchodování"},
		{"Den", "Množství (MWh)", "Vážený průměr cen (EUR/MWh)", "Minimální cena (EUR/MWh)", "Maximální cena (EUR/MWh)"},
	}
	for i, row := range append(preamble, days...) {
		for j, cell := range row {
			name, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, name, cell))
		}
	}
	require.NoError(t, f.SaveAs(path))
}

func mustRange(t *testing.T, startYear, endYear int) pipeline.Range {
	t.Helper()
	rng, _, err := pipeline.NewRange(
		time.Date(startYear, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(endYear, time.December, 31, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	return rng
}

func TestParseSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "VDT_plyn_01_2013_CZ.xlsx")
	writeSheet(t, path, [][]string{
		{"2013-01-02", "1 234,5", "25,75", "24", "27,1"},
		{"2013-01-03", "-", "-", "-", "-"},
		{"poznámka"},
	})

	quotes, err := ParseSheet(path)
	require.NoError(t, err)
	require.Len(t, quotes, 2)

	traded := quotes[0]
	assert.Equal(t, time.Date(2013, time.January, 2, 0, 0, 0, 0, time.UTC), traded.Date)
	require.True(t, traded.Volume.Valid)
	assert.Equal(t, "1234.5", traded.Volume.Decimal.String())
	assert.Equal(t, "25.75", traded.AvgPrice.Decimal.String())
	assert.Equal(t, "24", traded.MinPrice.Decimal.String())
	assert.Equal(t, "27.1", traded.MaxPrice.Decimal.String())

	untraded := quotes[1]
	assert.False(t, untraded.Volume.Valid)
	assert.False(t, untraded.AvgPrice.Valid)
	assert.False(t, untraded.MinPrice.Valid)
	assert.False(t, untraded.MaxPrice.Valid)
}

func TestParseSheetCzechDateFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "VDT_plyn_02_2013_CZ.xlsx")
	writeSheet(t, path, [][]string{
		{"5.2.2013", "100", "20", "19", "21"},
	})

	quotes, err := ParseSheet(path)
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, time.Date(2013, time.February, 5, 0, 0, 0, 0, time.UTC), quotes[0].Date)
}

func TestProcess(t *testing.T) {
	t.Run("filters files by filename year", func(t *testing.T) {
		dir := t.TempDir()
		writeSheet(t, filepath.Join(dir, "VDT_plyn_01_2013_CZ.xlsx"), [][]string{
			{"2013-01-02", "100", "20", "19", "21"},
		})
		writeSheet(t, filepath.Join(dir, "VDT_plyn_01_2015_CZ.xlsx"), [][]string{
			{"2015-01-02", "300", "30", "29", "31"},
		})

		quotes, err := Process(dir, mustRange(t, 2013, 2014), discardLogger())
		require.NoError(t, err)
		require.Len(t, quotes, 1)
		assert.Equal(t, 2013, quotes[0].Date.Year())
	})

	t.Run("sorts across months", func(t *testing.T) {
		dir := t.TempDir()
		writeSheet(t, filepath.Join(dir, "VDT_plyn_02_2013_CZ.xlsx"), [][]string{
			{"2013-02-01", "200", "22", "21", "23"},
		})
		writeSheet(t, filepath.Join(dir, "VDT_plyn_01_2013_CZ.xlsx"), [][]string{
			{"2013-01-15", "100", "20", "19", "21"},
		})

		quotes, err := Process(dir, mustRange(t, 2013, 2013), discardLogger())
		require.NoError(t, err)
		require.Len(t, quotes, 2)
		assert.True(t, quotes[0].Date.Before(quotes[1].Date))
	})

	t.Run("unparseable file names are skipped", func(t *testing.T) {
		dir := t.TempDir()
		writeSheet(t, filepath.Join(dir, "VDT_plyn_legacy.xlsx"), [][]string{
			{"2013-01-02", "100", "20", "19", "21"},
		})
		writeSheet(t, filepath.Join(dir, "VDT_plyn_01_2013_CZ.xlsx"), [][]string{
			{"2013-01-03", "100", "20", "19", "21"},
		})

		quotes, err := Process(dir, mustRange(t, 2013, 2013), discardLogger())
		require.NoError(t, err)
		require.Len(t, quotes, 1)
		assert.Equal(t, 3, quotes[0].Date.Day())
	})

	t.Run("empty directory", func(t *testing.T) {
		_, err := Process(t.TempDir(), mustRange(t, 2013, 2013), discardLogger())
		assert.ErrorIs(t, err, ErrNoPriceFiles)
	})
}

func TestWriteYearly(t *testing.T) {
	dir := t.TempDir()
	quotes, err := ParseSheet(fixtureSheet(t, [][]string{
		{"2013-12-31", "1 234,5", "25,75", "-", "27,1"},
		{"2014-01-01", "-", "-", "-", "-"},
	}))
	require.NoError(t, err)

	years, err := WriteYearly(dir, quotes)
	require.NoError(t, err)
	assert.Equal(t, []int{2013, 2014}, years)

	raw, err := os.ReadFile(filepath.Join(dir, "price_2013.csv"))
	require.NoError(t, err)
	lines := splitLines(string(raw))
	require.Len(t, lines, 25, "header plus 24 hourly rows")
	assert.Equal(t, "year,month,day,hour,traded_volume_mwh,weighted_avg_price_eur_mwh,min_price_eur_mwh,max_price_eur_mwh", lines[0])
	assert.Equal(t, "2013,12,31,0,1234.5,25.75,,27.1", lines[1])
	assert.Equal(t, "2013,12,31,23,1234.5,25.75,,27.1", lines[24])

	raw, err = os.ReadFile(filepath.Join(dir, "price_2014.csv"))
	require.NoError(t, err)
	lines = splitLines(string(raw))
	require.Len(t, lines, 25)
	assert.Equal(t, "2014,1,1,0,,,,", lines[1])
}

func fixtureSheet(t *testing.T, days [][]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "VDT_plyn_12_2013_CZ.xlsx")
	writeSheet(t, path, days)
	return path
}

func splitLines(s string) []string {
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}
