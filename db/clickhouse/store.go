// Package clickhouse loads the merged feature tables into ClickHouse so the
// downstream analytics and model-training jobs can query them columnar-side
// instead of re-reading CSV exports.
package clickhouse

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/google/uuid"

	"gasflow/pkg/hourgrid"
)

// Config holds ClickHouse connection configuration
type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Debug    bool
}

// DefaultConfig returns default development configuration
func DefaultConfig() *Config {
	return &Config{
		Host:     "localhost",
		Port:     9000,
		Database: "gasflow",
		Username: "default",
		Password: "",
		Debug:    false,
	}
}

// Store pushes merged feature rows into ClickHouse.
type Store struct {
	conn clickhouse.Conn
	cfg  *Config
}

// NewStore opens a native-protocol connection.
func NewStore(cfg *Config) (*Store, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Debug: cfg.Debug,
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	return &Store{conn: conn, cfg: cfg}, nil
}

// Ping checks database connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.conn.Close()
}

var columnName = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// EnsureSchema creates the feature table for the given value columns plus the
// load-audit table. Feature columns are Nullable(Float64): absent CSV cells
// stay NULL in the warehouse. Column names outside [a-z0-9_] are rejected
// before they reach the DDL.
func (s *Store) EnsureSchema(ctx context.Context, featureColumns []string) error {
	var cols strings.Builder
	for _, name := range featureColumns {
		if !columnName.MatchString(name) {
			return fmt.Errorf("invalid feature column name %q", name)
		}
		fmt.Fprintf(&cols, "\t\t\t`%s` Nullable(Float64),\n", name)
	}

	featureTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS gas_features (
			year UInt16,
			month UInt8,
			day UInt8,
			hour UInt8,
%s			loaded_at DateTime DEFAULT now()
		) ENGINE = ReplacingMergeTree(loaded_at)
		ORDER BY (year, month, day, hour)
	`, cols.String())
	if err := s.conn.Exec(ctx, featureTable); err != nil {
		return fmt.Errorf("failed to create gas_features: %w", err)
	}

	loadTable := `
		CREATE TABLE IF NOT EXISTS feature_loads (
			id UUID,
			years Array(UInt16),
			rows UInt64,
			started_at DateTime,
			finished_at DateTime
		) ENGINE = MergeTree
		ORDER BY started_at
	`
	if err := s.conn.Exec(ctx, loadTable); err != nil {
		return fmt.Errorf("failed to create feature_loads: %w", err)
	}
	return nil
}

// InsertFeatures batch-inserts every row of a merged frame. The frame's
// columns must match the ones EnsureSchema was called with.
func (s *Store) InsertFeatures(ctx context.Context, frame *hourgrid.Frame) (int, error) {
	if len(frame.Rows) == 0 {
		return 0, nil
	}

	names := make([]string, 0, len(frame.Columns)+4)
	names = append(names, "year", "month", "day", "hour")
	for _, c := range frame.Columns {
		if !columnName.MatchString(c) {
			return 0, fmt.Errorf("invalid feature column name %q", c)
		}
		names = append(names, "`"+c+"`")
	}

	batch, err := s.conn.PrepareBatch(ctx, fmt.Sprintf(
		"INSERT INTO gas_features (%s)", strings.Join(names, ", ")))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare batch: %w", err)
	}

	for _, row := range frame.Rows {
		args := make([]any, 0, len(names))
		args = append(args,
			uint16(row.Key.Year),
			uint8(row.Key.Month),
			uint8(row.Key.Day),
			uint8(row.Key.Hour),
		)
		for _, cell := range row.Cells {
			args = append(args, nullableFloat(cell))
		}
		if err := batch.Append(args...); err != nil {
			return 0, fmt.Errorf("failed to append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return 0, fmt.Errorf("failed to send batch: %w", err)
	}
	return len(frame.Rows), nil
}

// FeatureLoad is the audit record of one warehouse load.
type FeatureLoad struct {
	ID         uuid.UUID
	Years      []int
	Rows       int
	StartedAt  time.Time
	FinishedAt time.Time
}

// RecordLoad writes the audit row for a completed load.
func (s *Store) RecordLoad(ctx context.Context, load FeatureLoad) error {
	if load.ID == uuid.Nil {
		load.ID = uuid.New()
	}
	years := make([]uint16, len(load.Years))
	for i, y := range load.Years {
		years[i] = uint16(y)
	}

	query := `INSERT INTO feature_loads (id, years, rows, started_at, finished_at) VALUES (?, ?, ?, ?, ?)`
	return s.conn.Exec(ctx, query,
		load.ID,
		years,
		uint64(load.Rows),
		load.StartedAt,
		load.FinishedAt,
	)
}

func nullableFloat(v hourgrid.Value) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float
	return &f
}
