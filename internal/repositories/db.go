package repositories

import (
	"context"
	"fmt"
	"iter"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rohits-web03/dnastore/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB is the storage gateway: it owns the connection pool and runs every
// statement inside its own transaction.
type DB struct {
	gorm   *gorm.DB
	logger *log.Logger
}

// Open connects to Postgres and sizes the pool. The caller owns the returned DB and must Close it.
func Open(cfg config.DatabaseConfig, logger *log.Logger) (*DB, error) {
	gdb, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.New(logger.With("component", "gorm"), gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("get connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxOpenConns)

	logger.Info("Successfully connected to database", "max_open_conns", cfg.MaxOpenConns)
	return &DB{gorm: gdb, logger: logger}, nil
}

// Execute runs fn in a transaction on one pooled connection, committing when fn
// returns nil and rolling back otherwise.
func (d *DB) Execute(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return d.gorm.WithContext(ctx).Transaction(fn)
}

func (d *DB) Ping(ctx context.Context) error {
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *DB) Close() error {
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var schema = []string{
	`CREATE EXTENSION IF NOT EXISTS pg_trgm`,
	`DO $$ BEGIN
		CREATE TYPE batch_status AS ENUM ('initiated', 'completed', 'failed');
	EXCEPTION
		WHEN duplicate_object THEN NULL;
	END $$`,
	`CREATE TABLE IF NOT EXISTS "user" (
		id integer GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
		benchling_id varchar(16) NOT NULL UNIQUE,
		name varchar(70) NOT NULL,
		handle varchar(16) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS dna_sequence (
		id integer GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
		benchling_id varchar(16) NOT NULL UNIQUE,
		creator_id integer NOT NULL REFERENCES "user" (id),
		name varchar(70) NOT NULL,
		created_at timestamptz NOT NULL,
		bases text COLLATE "C" NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS batch (
		id integer GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
		status batch_status NOT NULL DEFAULT 'initiated'
	)`,
	`CREATE TABLE IF NOT EXISTS dna_batch (
		batch_id integer NOT NULL REFERENCES batch (id),
		dna_sequence_id integer NOT NULL REFERENCES dna_sequence (id),
		PRIMARY KEY (batch_id, dna_sequence_id)
	)`,
	`CREATE INDEX IF NOT EXISTS dna_sequence_creator_id_idx ON dna_sequence (creator_id)`,
	// case-insensitive infix search on bases
	`CREATE INDEX IF NOT EXISTS dna_sequence_bases_trgm ON dna_sequence USING gin (bases gin_trgm_ops)`,
}

// CreateAll creates the extension, enum, tables and indexes that do not exist yet.
func (d *DB) CreateAll(ctx context.Context) error {
	return d.Execute(ctx, func(tx *gorm.DB) error {
		for _, stmt := range schema {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("execute ddl: %w", err)
			}
		}
		return nil
	})
}

// DropAll removes every table and type created by CreateAll.
func (d *DB) DropAll(ctx context.Context) error {
	return d.Execute(ctx, func(tx *gorm.DB) error {
		if err := tx.Exec(`DROP TABLE IF EXISTS dna_batch, batch, dna_sequence, "user"`).Error; err != nil {
			return err
		}
		return tx.Exec(`DROP TYPE IF EXISTS batch_status`).Error
	})
}

// stream runs query in its own transaction when ranged over and yields each row
// converted by convert. The sequence is single-use: a second range yields ErrStreamConsumed.
func stream[R, T any](ctx context.Context, d *DB, convert func(R) T, query string, args ...any) iter.Seq2[T, error] {
	var consumed atomic.Bool
	return func(yield func(T, error) bool) {
		var zero T
		if consumed.Swap(true) {
			yield(zero, ErrStreamConsumed)
			return
		}

		stopped := false
		err := d.Execute(ctx, func(tx *gorm.DB) error {
			rows, err := tx.Raw(query, args...).Rows()
			if err != nil {
				return err
			}
			defer func() { _ = rows.Close() }()

			for rows.Next() {
				var row R
				if err := tx.ScanRows(rows, &row); err != nil {
					return err
				}
				if !yield(convert(row), nil) {
					stopped = true
					return nil
				}
			}
			return rows.Err()
		})
		if err != nil && !stopped {
			yield(zero, err)
		}
	}
}

// Collect drains seq into a slice, stopping at the first error.
func Collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	out := make([]T, 0)
	for item, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func textArray(values []string) pgtype.Array[string] {
	return pgtype.Array[string]{
		Elements: values,
		Dims:     []pgtype.ArrayDimension{{Length: int32(len(values)), LowerBound: 1}},
		Valid:    true,
	}
}

func timeArray(values []time.Time) pgtype.Array[time.Time] {
	return pgtype.Array[time.Time]{
		Elements: values,
		Dims:     []pgtype.ArrayDimension{{Length: int32(len(values)), LowerBound: 1}},
		Valid:    true,
	}
}
