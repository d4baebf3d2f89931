package weather

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gasflow/pipeline"
	"gasflow/pkg/hourgrid"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// rawRow renders one raw weather line: timestamp plus the twenty feature
// cells, each value+column-offset so tests can tell columns apart.
func rawRow(ts string, value float64) string {
	fields := make([]string, 0, len(FeatureColumns)+1)
	fields = append(fields, ts)
	for i := range FeatureColumns {
		fields = append(fields, fmt.Sprintf("%g", value+float64(i)))
	}
	return strings.Join(fields, ",")
}

func writeRaw(t *testing.T, dir, name string, rows []string) string {
	t.Helper()
	content := "date," + strings.Join(FeatureColumns, ",") + "\n" + strings.Join(rows, "\n") + "\n"
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func mustRange(t *testing.T, start, end time.Time) pipeline.Range {
	t.Helper()
	rng, _, err := pipeline.NewRange(start, end)
	require.NoError(t, err)
	return rng
}

func TestFindRawFile(t *testing.T) {
	t.Run("single match", func(t *testing.T) {
		dir := t.TempDir()
		path := writeRaw(t, dir, "weather_2013-01-01_2024-12-31.csv", []string{rawRow("2013-01-01T00:00", 1)})

		got, err := FindRawFile(dir, discardLogger())
		require.NoError(t, err)
		assert.Equal(t, path, got)
	})

	t.Run("several matches picks lexically first", func(t *testing.T) {
		dir := t.TempDir()
		first := writeRaw(t, dir, "weather_a.csv", nil)
		writeRaw(t, dir, "weather_b.csv", nil)

		got, err := FindRawFile(dir, discardLogger())
		require.NoError(t, err)
		assert.Equal(t, first, got)
	})

	t.Run("no match", func(t *testing.T) {
		_, err := FindRawFile(t.TempDir(), discardLogger())
		assert.ErrorIs(t, err, ErrNoRawFile)
	})
}

func TestProcess(t *testing.T) {
	rng := mustRange(t,
		time.Date(2013, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2013, time.January, 31, 0, 0, 0, 0, time.UTC),
	)

	t.Run("parses hourly rows onto the grid", func(t *testing.T) {
		path := writeRaw(t, t.TempDir(), "weather_x.csv", []string{
			rawRow("2013-01-01T00:00", 10),
			rawRow("2013-01-01T01:00", 20),
		})

		frame, err := Process(path, rng, discardLogger())
		require.NoError(t, err)

		assert.Equal(t, FeatureColumns, frame.Columns)
		require.Len(t, frame.Rows, 2)
		assert.Equal(t, hourgrid.Key{Year: 2013, Month: 1, Day: 1, Hour: 0}, frame.Rows[0].Key)
		assert.Equal(t, hourgrid.Some(10), frame.Rows[0].Cells[0])
		assert.Equal(t, hourgrid.Some(29), frame.Rows[1].Cells[9])
	})

	t.Run("accepts legacy timestamp layouts", func(t *testing.T) {
		path := writeRaw(t, t.TempDir(), "weather_x.csv", []string{
			rawRow("2013-01-02 05:00:00", 1),
			rawRow("2013-01-02 06:00", 2),
		})

		frame, err := Process(path, rng, discardLogger())
		require.NoError(t, err)
		require.Len(t, frame.Rows, 2)
		assert.Equal(t, 5, frame.Rows[0].Key.Hour)
		assert.Equal(t, 6, frame.Rows[1].Key.Hour)
	})

	t.Run("drops unparseable timestamps and all-absent rows", func(t *testing.T) {
		blank := "2013-01-01T02:00" + strings.Repeat(",", len(FeatureColumns))
		path := writeRaw(t, t.TempDir(), "weather_x.csv", []string{
			rawRow("garbage", 1),
			blank,
			rawRow("2013-01-01T03:00", 1),
		})

		frame, err := Process(path, rng, discardLogger())
		require.NoError(t, err)
		require.Len(t, frame.Rows, 1)
		assert.Equal(t, 3, frame.Rows[0].Key.Hour)
	})

	t.Run("unparseable cell becomes absent, row survives", func(t *testing.T) {
		fields := []string{"2013-01-01T04:00", "-"}
		for i := 1; i < len(FeatureColumns); i++ {
			fields = append(fields, "5")
		}
		path := writeRaw(t, t.TempDir(), "weather_x.csv", []string{strings.Join(fields, ",")})

		frame, err := Process(path, rng, discardLogger())
		require.NoError(t, err)
		require.Len(t, frame.Rows, 1)
		assert.False(t, frame.Rows[0].Cells[0].Valid)
		assert.True(t, frame.Rows[0].Cells[1].Valid)
	})

	t.Run("trims rows outside the range years and past the cutoff", func(t *testing.T) {
		path := writeRaw(t, t.TempDir(), "weather_x.csv", []string{
			rawRow("2012-12-31T23:00", 1), // before the first range year
			rawRow("2013-01-15T00:00", 2),
			rawRow("2013-02-01T00:00", 3), // spill past the end month
			rawRow("2014-01-01T00:00", 4), // later year
		})

		frame, err := Process(path, rng, discardLogger())
		require.NoError(t, err)
		require.Len(t, frame.Rows, 1)
		assert.Equal(t, hourgrid.Key{Year: 2013, Month: 1, Day: 15, Hour: 0}, frame.Rows[0].Key)
	})

	t.Run("missing required column is an error", func(t *testing.T) {
		dir := t.TempDir()
		content := "date,temperature_2m\n2013-01-01T00:00,1\n"
		path := filepath.Join(dir, "weather_x.csv")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		_, err := Process(path, rng, discardLogger())
		assert.ErrorContains(t, err, "missing column")
	})
}
