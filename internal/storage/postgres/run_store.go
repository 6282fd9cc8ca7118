// Package postgres persists pipeline run history in Postgres.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/catalogue-pipeline/internal/pipeline"
)

// DefaultTable is used when no table name is configured.
const DefaultTable = "pipeline_runs"

var (
	validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

	// ErrNotConfigured is returned by a nil or closed store.
	ErrNotConfigured = errors.New("run store is not configured")
)

// Config controls the Postgres connection pool used for run rows.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// RunStore writes one row per pipeline invocation.
type RunStore struct {
	pool  execCloser
	table string
}

// New connects a pool using cfg.
func New(ctx context.Context, cfg Config) (*RunStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &RunStore{pool: pool, table: table}, nil
}

// NewWithPool constructs a store from an existing pool (primarily for testing).
func NewWithPool(pool execCloser, table string) (*RunStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &RunStore{pool: pool, table: name}, nil
}

func tableName(table string) (string, error) {
	if table == "" {
		return DefaultTable, nil
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// Close releases the underlying pool resources.
func (s *RunStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// EnsureSchema creates the run table when it does not exist.
func (s *RunStore) EnsureSchema(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return ErrNotConfigured
	}
	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id           TEXT PRIMARY KEY,
	kind         TEXT NOT NULL,
	job_id       TEXT NOT NULL DEFAULT '',
	source       TEXT NOT NULL DEFAULT '',
	status_code  INTEGER NOT NULL,
	message      TEXT NOT NULL,
	output_path  TEXT NOT NULL DEFAULT '',
	digest       TEXT NOT NULL DEFAULT '',
	artifact_uri TEXT NOT NULL DEFAULT '',
	records      INTEGER NOT NULL DEFAULT 0,
	error_text   TEXT NOT NULL DEFAULT '',
	started_at   TIMESTAMPTZ NOT NULL,
	finished_at  TIMESTAMPTZ NOT NULL
)`, s.table)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create %s: %w", s.table, err)
	}
	return nil
}

// RecordRun inserts a run row.
func (s *RunStore) RecordRun(ctx context.Context, run pipeline.RunRecord) error {
	if s == nil || s.pool == nil {
		return ErrNotConfigured
	}
	if run.ID == "" {
		return fmt.Errorf("run id is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	kind,
	job_id,
	source,
	status_code,
	message,
	output_path,
	digest,
	artifact_uri,
	records,
	error_text,
	started_at,
	finished_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13
)`, s.table)

	args := []any{
		run.ID,
		string(run.Kind),
		run.JobID,
		run.Source,
		run.StatusCode,
		run.Message,
		run.OutputPath,
		run.Digest,
		run.ArtifactURI,
		run.Records,
		run.Error,
		run.StartedAt,
		run.FinishedAt,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}
