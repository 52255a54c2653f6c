// Package history persists finished run reports in a local SQLite file so
// past bulk and provisioning runs can be listed by the CLI and the dashboard.
package history

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"net/url"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite driver
	"github.com/pressly/goose/v3"

	"snowclone/internal/domain"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// SQLite DSN parameters, hardened for a single-process writer.
const (
	busyTimeout = "5000" // 5 seconds
	synchronous = "NORMAL"
	journalMode = "WAL"
)

// Store is the SQLite-backed run history. It implements domain.RunHistory.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path, applies
// pending migrations, and returns a ready store.
func Open(path string) (*Store, error) {
	params := url.Values{}
	params.Set("_journal_mode", journalMode)
	params.Set("_busy_timeout", busyTimeout)
	params.Set("_synchronous", synchronous)
	params.Set("_txlock", "immediate")

	db, err := sql.Open("sqlite3", path+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping history db: %w", err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// NewStore wraps an already-open database. Used in tests; callers normally
// use Open.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func migrate(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose set dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun inserts one finished run record.
func (s *Store) RecordRun(ctx context.Context, rec domain.RunRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO run_history (id, kind, started_at, finished_at, success, total, successful, failed, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, string(rec.Kind), rec.StartedAt, rec.FinishedAt,
		boolToInt(rec.Success), rec.Total, rec.Successful, rec.Failed, rec.Payload,
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", rec.ID, err)
	}
	return nil
}

// RecentRuns lists the most recent runs, newest first. Payloads are omitted;
// detail views load them via GetRun.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, started_at, finished_at, success, total, successful, failed
		FROM run_history
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.RunRecord
	for rows.Next() {
		var rec domain.RunRecord
		var kind string
		var success int
		if err := rows.Scan(&rec.ID, &kind, &rec.StartedAt, &rec.FinishedAt,
			&success, &rec.Total, &rec.Successful, &rec.Failed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.Kind = domain.RunKind(kind)
		rec.Success = success != 0
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return out, nil
}

// GetRun loads one run with its full report payload.
func (s *Store) GetRun(ctx context.Context, id string) (*domain.RunRecord, error) {
	var rec domain.RunRecord
	var kind string
	var success int
	err := s.db.QueryRowContext(ctx, `
		SELECT id, kind, started_at, finished_at, success, total, successful, failed, payload
		FROM run_history
		WHERE id = ?`, id).
		Scan(&rec.ID, &kind, &rec.StartedAt, &rec.FinishedAt,
			&success, &rec.Total, &rec.Successful, &rec.Failed, &rec.Payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("run %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	rec.Kind = domain.RunKind(kind)
	rec.Success = success != 0
	return &rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ domain.RunHistory = (*Store)(nil)
