// Package store implements the optional SQL-backed persistence layer
// spec.md's domain stack describes: memo entries and run summaries
// surviving a process restart. Grounded on the teacher's
// internal/database.DBManager (db_manager.go), which picks a
// database/sql driver by name and opens a pooled *sql.DB; this package
// narrows that to the three drivers SPEC_FULL.md §11 names
// (modernc.org/sqlite by default, github.com/lib/pq and
// github.com/go-sql-driver/mysql as opt-ins) and layers a fixed schema
// on top instead of DBManager's free-form Execute/Query.
//
// A Store is entirely optional: every caller in internal/session and
// cmd/mendr works identically with a nil *Store, in which case a run's
// memo lives only in the fitness engine's in-memory map, exactly as
// spec.md describes.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"mendr/internal/repairerr"
)

// Driver names a supported database/sql driver. Sqlite is the default:
// it needs no running server and ships pure-Go (no cgo), matching the
// teacher's preference for self-contained defaults.
type Driver string

const (
	Sqlite   Driver = "sqlite"
	Postgres Driver = "postgres"
	MySQL    Driver = "mysql"
)

// Placeholder syntax is driver-specific ("?" for sqlite/mysql, "$1..." for
// postgres); like the teacher's DBManager, this package doesn't abstract
// over that; it is written and tested against Sqlite, the default.

func (d Driver) driverName() string {
	switch d {
	case Postgres:
		return "postgres"
	case MySQL:
		return "mysql"
	default:
		return "sqlite"
	}
}

// Store wraps a pooled *sql.DB holding the memo and run-summary tables.
// Safe for concurrent use by multiple fitness-engine workers.
type Store struct {
	db     *sql.DB
	driver Driver
}

// Open connects to dsn using driver (defaulting to Sqlite for the zero
// value), pings it, and ensures the schema exists. Mirrors DBManager.Connect's
// open-then-ping-then-configure-pool sequence.
func Open(driver Driver, dsn string) (*Store, error) {
	db, err := sql.Open(driver.driverName(), dsn)
	if err != nil {
		return nil, repairerr.Wrap(repairerr.SourceUnavailable, err, "opening store database").WithLocation(dsn, 0)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, repairerr.Wrap(repairerr.SourceUnavailable, err, "pinging store database").WithLocation(dsn, 0)
	}

	s := &Store{db: db, driver: driver}
	if err := s.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			source_root TEXT NOT NULL,
			mode TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			best_fitness REAL,
			generations INTEGER,
			status TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS memo_entries (
			run_id TEXT NOT NULL,
			op_key TEXT NOT NULL,
			fitness REAL NOT NULL,
			PRIMARY KEY (run_id, op_key)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return repairerr.Wrap(repairerr.InternalInvariant, err, "creating store schema")
		}
	}
	return nil
}

// RunSummary is one row of the runs table: the lifecycle and outcome of
// a single search run, keyed by its candidate.Candidate.RunID.
type RunSummary struct {
	RunID       uuid.UUID
	SourceRoot  string
	Mode        string
	StartedAt   time.Time
	FinishedAt  time.Time
	BestFitness float64
	Generations int
	Status      string
}

// RecordRunStart inserts a new in-progress run row.
func (s *Store) RecordRunStart(ctx context.Context, runID uuid.UUID, sourceRoot, mode string, startedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, source_root, mode, started_at, status) VALUES (?, ?, ?, ?, ?)`,
		runID.String(), sourceRoot, mode, startedAt.Format(time.RFC3339Nano), "running")
	if err != nil {
		return repairerr.Wrap(repairerr.InternalInvariant, err, "recording run start")
	}
	return nil
}

// RecordRunFinish updates a run row with its terminal state.
func (s *Store) RecordRunFinish(ctx context.Context, runID uuid.UUID, finishedAt time.Time, bestFitness float64, generations int, status string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, best_fitness = ?, generations = ?, status = ? WHERE run_id = ?`,
		finishedAt.Format(time.RFC3339Nano), bestFitness, generations, status, runID.String())
	if err != nil {
		return repairerr.Wrap(repairerr.InternalInvariant, err, "recording run finish")
	}
	return nil
}

// ListRuns returns every recorded run, most recently started first.
func (s *Store) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, source_root, mode, started_at, finished_at, best_fitness, generations, status
		 FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, repairerr.Wrap(repairerr.InternalInvariant, err, "listing runs")
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var (
			runID, startedAt string
			finishedAt       sql.NullString
			bestFitness      sql.NullFloat64
			generations      sql.NullInt64
		)
		var rs RunSummary
		if err := rows.Scan(&runID, &rs.SourceRoot, &rs.Mode, &startedAt, &finishedAt, &bestFitness, &generations, &rs.Status); err != nil {
			return nil, repairerr.Wrap(repairerr.InternalInvariant, err, "scanning run row")
		}
		id, err := uuid.Parse(runID)
		if err != nil {
			return nil, repairerr.Wrap(repairerr.InternalInvariant, err, "parsing stored run id")
		}
		rs.RunID = id
		rs.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
		if finishedAt.Valid {
			rs.FinishedAt, _ = time.Parse(time.RFC3339Nano, finishedAt.String)
		}
		if bestFitness.Valid {
			rs.BestFitness = bestFitness.Float64
		}
		if generations.Valid {
			rs.Generations = int(generations.Int64)
		}
		out = append(out, rs)
	}
	return out, rows.Err()
}

// SaveMemo persists one fitness-memo entry under runID, upserting on
// (run_id, op_key). The upsert clause differs by driver: MySQL lacks
// sqlite/postgres's ON CONFLICT syntax.
func (s *Store) SaveMemo(ctx context.Context, runID uuid.UUID, opKey string, fitness float64) error {
	var stmt string
	if s.driver == MySQL {
		stmt = `INSERT INTO memo_entries (run_id, op_key, fitness) VALUES (?, ?, ?)
		        ON DUPLICATE KEY UPDATE fitness = VALUES(fitness)`
	} else {
		stmt = `INSERT INTO memo_entries (run_id, op_key, fitness) VALUES (?, ?, ?)
		        ON CONFLICT (run_id, op_key) DO UPDATE SET fitness = excluded.fitness`
	}
	if _, err := s.db.ExecContext(ctx, stmt, runID.String(), opKey, fitness); err != nil {
		return repairerr.Wrap(repairerr.InternalInvariant, err, "saving memo entry")
	}
	return nil
}

// LoadMemo returns every memo entry recorded for runID, keyed by op-list
// encoding, for seeding a fresh fitness.Engine via its Seed method.
func (s *Store) LoadMemo(ctx context.Context, runID uuid.UUID) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT op_key, fitness FROM memo_entries WHERE run_id = ?`, runID.String())
	if err != nil {
		return nil, repairerr.Wrap(repairerr.InternalInvariant, err, "loading memo entries")
	}
	defer rows.Close()

	out := map[string]float64{}
	for rows.Next() {
		var key string
		var fitness float64
		if err := rows.Scan(&key, &fitness); err != nil {
			return nil, repairerr.Wrap(repairerr.InternalInvariant, err, "scanning memo row")
		}
		out[key] = fitness
	}
	return out, rows.Err()
}
