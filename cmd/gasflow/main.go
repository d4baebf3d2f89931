// gasflow - hourly gas-consumption feature pipeline
//
// Usage:
//   gasflow process consumption [--networks gasnet,pds]
//   gasflow process all --end-date 2024-12-31
//   gasflow load --clickhouse-host warehouse
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"gasflow/db/clickhouse"
	"gasflow/pipeline"
	"gasflow/pipeline/calendar"
	"gasflow/pipeline/consumption"
	"gasflow/pipeline/merge"
	"gasflow/pipeline/price"
	"gasflow/pipeline/weather"
	"gasflow/pkg/hourgrid"
	"gasflow/pkg/platform"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var logger *slog.Logger

func main() {
	platform.LoadEnv()
	logger = platform.InitLogger()

	app := &cli.App{
		Name:    "gasflow",
		Usage:   "Reconstructs and merges the hourly gas-consumption feature series",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "data-root",
				Value:   "data",
				Usage:   "Root of the raw/ and processed/ data tree",
				EnvVars: []string{"GASFLOW_DATA_ROOT"},
			},
			&cli.StringFlag{
				Name:    "start-date",
				Usage:   "Start date, YYYY-MM-DD (default 2013-01-01)",
				EnvVars: []string{"GASFLOW_START_DATE"},
			},
			&cli.StringFlag{
				Name:    "end-date",
				Usage:   "End date, YYYY-MM-DD (default last day of previous month)",
				EnvVars: []string{"GASFLOW_END_DATE"},
			},
		},

		Commands: []*cli.Command{
			processCommand(),
			loadCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// PROCESS COMMANDS
// =============================================================================

func processCommand() *cli.Command {
	networksFlag := &cli.StringSliceFlag{
		Name:    "networks",
		Usage:   "Consumption networks to process (default: all available)",
		EnvVars: []string{"GASFLOW_NETWORKS"},
	}

	return &cli.Command{
		Name:  "process",
		Usage: "Run one or all processing stages over the date range",
		Subcommands: []*cli.Command{
			{
				Name:   "dates",
				Usage:  "Generate the hourly datetime-feature files",
				Action: runDates,
			},
			{
				Name:   "consumption",
				Usage:  "Reconstruct the hourly consumption series from the daily extracts",
				Flags:  []cli.Flag{networksFlag},
				Action: runConsumption,
			},
			{
				Name:   "weather",
				Usage:  "Normalize the raw weather extract into yearly files",
				Action: runWeather,
			},
			{
				Name:   "price",
				Usage:  "Normalize the monthly price spreadsheets into yearly files",
				Action: runPrice,
			},
			{
				Name:   "merge",
				Usage:  "Join calendar, consumption and weather into the merged feature files",
				Action: runMerge,
			},
			{
				Name:   "all",
				Usage:  "Run dates, consumption, weather, price and merge in order",
				Flags:  []cli.Flag{networksFlag},
				Action: runAll,
			},
		},
	}
}

func runDates(c *cli.Context) error {
	rng, err := dateRange(c)
	if err != nil {
		return err
	}

	frame := calendar.Generate(rng)
	dir := paths(c).calendarDir
	years, err := hourgrid.WriteYearly(dir, calendar.FilePrefix, frame)
	if err != nil {
		return fmt.Errorf("failed to write datetime features: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Generated %d datetime-feature rows into %d yearly files in %s\n",
		len(frame.Rows), len(years), dir)
	return nil
}

func runConsumption(c *cli.Context) error {
	rng, err := dateRange(c)
	if err != nil {
		return err
	}
	p := paths(c)

	audit := consumption.NewAudit()
	assembler := &consumption.Assembler{
		Source: consumption.DirSource{Root: p.rawConsumptionDir},
		Log:    logger,
	}

	frame, runStats, err := assembler.Assemble(rng, c.StringSlice("networks"), audit)
	if err != nil {
		return err
	}

	audit.Report(logger)

	years, err := hourgrid.WriteYearly(p.consumptionDir, merge.ConsumptionPrefix, frame)
	if err != nil {
		return fmt.Errorf("failed to write consumption files: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Processed %s network-hours (%s with data, %s absent) across %d days\n",
		thousands(runStats.NetworkHours), thousands(runStats.AvailableHours),
		thousands(runStats.MissingHours), runStats.Days)
	if runStats.TotalMean.Valid {
		fmt.Fprintf(os.Stderr, "Hourly total: mean %s, min %s, max %s\n",
			runStats.TotalMean, runStats.TotalMin, runStats.TotalMax)
	}
	fmt.Fprintf(os.Stderr, "Saved %d yearly consumption files to %s\n", len(years), p.consumptionDir)
	return nil
}

func runWeather(c *cli.Context) error {
	rng, err := dateRange(c)
	if err != nil {
		return err
	}
	p := paths(c)

	raw, err := weather.FindRawFile(p.rawWeatherDir, logger)
	if err != nil {
		return err
	}
	frame, err := weather.Process(raw, rng, logger)
	if err != nil {
		return err
	}

	years, err := hourgrid.WriteYearly(p.weatherDir, merge.WeatherPrefix, frame)
	if err != nil {
		return fmt.Errorf("failed to write weather files: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Processed %s weather rows into %d yearly files in %s\n",
		thousands(len(frame.Rows)), len(years), p.weatherDir)
	return nil
}

func runPrice(c *cli.Context) error {
	rng, err := dateRange(c)
	if err != nil {
		return err
	}
	p := paths(c)

	quotes, err := price.Process(p.rawPriceDir, rng, logger)
	if err != nil {
		return err
	}

	years, err := price.WriteYearly(p.priceDir, quotes)
	if err != nil {
		return fmt.Errorf("failed to write price files: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Processed %d trading days into %d yearly price files in %s\n",
		len(quotes), len(years), p.priceDir)
	return nil
}

func runMerge(c *cli.Context) error {
	rng, err := dateRange(c)
	if err != nil {
		return err
	}
	p := paths(c)

	joiner := &merge.Joiner{Log: logger}
	result, err := joiner.Merge(merge.Dirs{
		Calendar:    p.calendarDir,
		Consumption: p.consumptionDir,
		Weather:     p.weatherDir,
	}, rng)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(p.mergedDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", p.mergedDir, err)
	}
	for _, year := range result.Years {
		path := filepath.Join(p.mergedDir, fmt.Sprintf("%s_%d.csv", merge.MergedPrefix, year))
		if err := hourgrid.WriteFile(path, result.ByYear[year]); err != nil {
			return err
		}
	}
	combined := filepath.Join(p.mergedDir, merge.CombinedFileName)
	if err := hourgrid.WriteFile(combined, result.Combined); err != nil {
		return err
	}

	for _, r := range result.Reports {
		fmt.Fprintf(os.Stderr,
			"Year %d: calendar %s, consumption %s, weather %s -> merged %s rows (%s missing consumption, %s missing weather)\n",
			r.Year, thousands(r.CalendarRows), thousands(r.ConsumptionRows), thousands(r.WeatherRows),
			thousands(r.MergedRows), thousands(r.MissingConsumption), thousands(r.MissingWeather))
	}
	fmt.Fprintf(os.Stderr, "Saved %d yearly files and %s (%s rows) to %s\n",
		len(result.Years), merge.CombinedFileName, thousands(len(result.Combined.Rows)), p.mergedDir)
	return nil
}

func runAll(c *cli.Context) error {
	stages := []struct {
		name string
		run  func(*cli.Context) error
	}{
		{"dates", runDates},
		{"consumption", runConsumption},
		{"weather", runWeather},
		{"price", runPrice},
		{"merge", runMerge},
	}
	for _, stage := range stages {
		fmt.Fprintf(os.Stderr, "==> %s\n", stage.name)
		if err := stage.run(c); err != nil {
			return fmt.Errorf("stage %s failed: %w", stage.name, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD COMMAND
// =============================================================================

func loadCommand() *cli.Command {
	return &cli.Command{
		Name:  "load",
		Usage: "Load the merged feature files into ClickHouse",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "clickhouse-host",
				Value:   "localhost",
				Usage:   "ClickHouse host",
				EnvVars: []string{"CLICKHOUSE_HOST"},
			},
			&cli.IntFlag{
				Name:    "clickhouse-port",
				Value:   9000,
				Usage:   "ClickHouse native port",
				EnvVars: []string{"CLICKHOUSE_PORT"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-database",
				Value:   "gasflow",
				Usage:   "ClickHouse database",
				EnvVars: []string{"CLICKHOUSE_DATABASE"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-user",
				Value:   "default",
				Usage:   "ClickHouse user",
				EnvVars: []string{"CLICKHOUSE_USER"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-password",
				Value:   "",
				Usage:   "ClickHouse password",
				EnvVars: []string{"CLICKHOUSE_PASSWORD"},
			},
		},
		Action: runLoad,
	}
}

func runLoad(c *cli.Context) error {
	ctx := context.Background()
	rng, err := dateRange(c)
	if err != nil {
		return err
	}
	p := paths(c)

	files, err := hourgrid.YearFiles(p.mergedDir, merge.MergedPrefix)
	if err != nil {
		return err
	}
	startYear, endYear := rng.Years()
	var frames []*hourgrid.Frame
	var years []int
	for _, year := range hourgrid.SortedYears(files) {
		if year < startYear || year > endYear {
			continue
		}
		frame, err := hourgrid.ReadFile(files[year])
		if err != nil {
			return fmt.Errorf("failed to read merged year %d: %w", year, err)
		}
		frames = append(frames, frame)
		years = append(years, year)
	}
	if len(frames) == 0 {
		return fmt.Errorf("no merged files for years %d-%d in %s, nothing to load", startYear, endYear, p.mergedDir)
	}
	combined := merge.Concat(frames...)

	store, err := clickhouse.NewStore(&clickhouse.Config{
		Host:     c.String("clickhouse-host"),
		Port:     c.Int("clickhouse-port"),
		Database: c.String("clickhouse-database"),
		Username: c.String("clickhouse-user"),
		Password: c.String("clickhouse-password"),
	})
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx, combined.Columns); err != nil {
		return err
	}

	startedAt := time.Now().UTC()
	rows, err := store.InsertFeatures(ctx, combined)
	if err != nil {
		return err
	}
	if err := store.RecordLoad(ctx, clickhouse.FeatureLoad{
		Years:      years,
		Rows:       rows,
		StartedAt:  startedAt,
		FinishedAt: time.Now().UTC(),
	}); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Loaded %s feature rows for %d years into ClickHouse\n",
		thousands(rows), len(years))
	return nil
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

type dataPaths struct {
	rawConsumptionDir string
	rawWeatherDir     string
	rawPriceDir       string
	calendarDir       string
	consumptionDir    string
	weatherDir        string
	priceDir          string
	mergedDir         string
}

func paths(c *cli.Context) dataPaths {
	root := c.String("data-root")
	return dataPaths{
		rawConsumptionDir: filepath.Join(root, "raw", "consumption"),
		rawWeatherDir:     filepath.Join(root, "raw", "weather"),
		rawPriceDir:       filepath.Join(root, "raw", "price"),
		calendarDir:       filepath.Join(root, "processed", "datetime_features"),
		consumptionDir:    filepath.Join(root, "processed", "consumption"),
		weatherDir:        filepath.Join(root, "processed", "weather"),
		priceDir:          filepath.Join(root, "processed", "price"),
		mergedDir:         filepath.Join(root, "processed", "merged"),
	}
}

// dateRange resolves the CLI date flags, applies the availability floor and
// reports any clamping. Validation happens before any file I/O.
func dateRange(c *cli.Context) (pipeline.Range, error) {
	start := pipeline.DefaultStart
	if s := c.String("start-date"); s != "" {
		parsed, err := pipeline.ParseDate(s)
		if err != nil {
			return pipeline.Range{}, err
		}
		start = parsed
	}

	end := pipeline.DefaultEnd(time.Now().UTC())
	if s := c.String("end-date"); s != "" {
		parsed, err := pipeline.ParseDate(s)
		if err != nil {
			return pipeline.Range{}, err
		}
		end = parsed
	}

	rng, adjusted, err := pipeline.NewRange(start, end)
	if err != nil {
		return pipeline.Range{}, err
	}
	if adjusted > 0 {
		fmt.Fprintf(os.Stderr, "Start date adjusted forward %d days to the data availability floor (%s)\n",
			adjusted, pipeline.Floor.Format(pipeline.DateLayout))
	}
	return rng, nil
}

// thousands formats a count with thousand separators for the run reports.
func thousands(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	return s + "," + strings.Join(parts, ",")
}
