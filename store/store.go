package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/epochtools/actinorm"
	_ "github.com/marcboeker/go-duckdb/v2"
)

// Store persists normalized epoch series in a local DuckDB file so
// downstream consumers can query across subjects and runs with SQL.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	closed bool
}

// Open creates or opens the epoch database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	// A stale WAL left by a crashed run can fail DuckDB recovery.
	os.Remove(path + ".wal")

	db, err := sql.Open("duckdb", path+"?access_mode=READ_WRITE")
	if err != nil {
		return nil, fmt.Errorf("failed to open epoch database: %w", err)
	}
	if _, err := db.Exec(createTablesSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &Store{db: db}, nil
}

// AppendSeries writes one epoch row per slot of a normalized series plus a
// file-summary row, in a single transaction. A missing slot stores NULL for
// its value so SQL consumers never mistake a gap for a zero reading.
func (s *Store) AppendSeries(ctx context.Context, subject, runID string, series *actinorm.EpochSeries, report *actinorm.InferenceReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("store is closed")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertEpochSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare epoch insert: %w", err)
	}
	defer stmt.Close()

	for slot, rec := range series.Records {
		var value any
		if !rec.Missing {
			value = rec.Value
		}
		if _, err := stmt.ExecContext(ctx, subject, runID, int64(slot), rec.Timestamp, value, rec.Missing); err != nil {
			return fmt.Errorf("failed to insert epoch row: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, insertFileSQL,
		subject, runID, report.SourceFile, report.EpochSeconds,
		report.Rows, report.ParseFailures, report.FilledGaps, time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("failed to insert file row: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// EpochCount returns the number of stored epoch rows for a subject.
func (s *Store) EpochCount(ctx context.Context, subject string) (int64, error) {
	return s.count(ctx, countEpochsSQL, subject)
}

// MissingCount returns the number of stored missing slots for a subject.
func (s *Store) MissingCount(ctx context.Context, subject string) (int64, error) {
	return s.count(ctx, countMissingSQL, subject)
}

// FileCount returns the number of ingested file-summary rows.
func (s *Store) FileCount(ctx context.Context) (int64, error) {
	return s.count(ctx, countFilesSQL)
}

func (s *Store) count(ctx context.Context, query string, args ...any) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, fmt.Errorf("store is closed")
	}
	var n int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return n, nil
}

// Close releases the database handle. Closing twice is harmless.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
