package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/aerolab/winddaq/internal/model"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS readings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ts TEXT NOT NULL,
	rpm REAL NOT NULL,
	lift_force REAL NOT NULL
)`

// SQLiteStore is a Store backed by a local SQLite file.
type SQLiteStore struct {
	cfg    Config
	logger *slog.Logger
	db     *sql.DB

	// mu serializes batch mutation and durable writes, so a clear can
	// never interleave with a half-written batch.
	mu     sync.Mutex
	batch  []model.Reading
	closed bool

	done chan struct{}
	wg   sync.WaitGroup
}

// NewSQLiteStore opens (creating if needed) the readings database at
// path and starts the periodic flush loop.
func NewSQLiteStore(path string, cfg Config, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		path = "winddaq.db"
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create readings table: %w", err)
	}

	s := &SQLiteStore{
		cfg:    cfg,
		logger: logger,
		db:     db,
		batch:  make([]model.Reading, 0, cfg.BatchSize),
		done:   make(chan struct{}),
	}

	s.wg.Add(1)
	go s.flushLoop()

	return s, nil
}

// Append buffers one reading, flushing when the batch is full.
func (s *SQLiteStore) Append(ctx context.Context, r model.Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	s.batch = append(s.batch, r)
	if len(s.batch) >= s.cfg.BatchSize {
		return s.flushLocked(ctx)
	}
	return nil
}

// Flush forces buffered readings to the database.
func (s *SQLiteStore) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	return s.flushLocked(ctx)
}

// flushLocked writes the current batch in one transaction.
// Caller holds s.mu.
func (s *SQLiteStore) flushLocked(ctx context.Context) error {
	if len(s.batch) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin flush tx: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO readings (ts, rpm, lift_force) VALUES (?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range s.batch {
		if _, err := stmt.ExecContext(ctx,
			r.Timestamp.Format(time.RFC3339Nano),
			r.RotationSpeed,
			r.LiftForce,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert reading: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit flush: %w", err)
	}

	s.logger.Debug("flushed readings", "count", len(s.batch))
	s.batch = s.batch[:0]
	return nil
}

// GetRecent returns the most recent n flushed readings, oldest first.
func (s *SQLiteStore) GetRecent(ctx context.Context, n int) ([]model.Reading, error) {
	if n <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT ts, rpm, lift_force FROM readings ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("select recent: %w", err)
	}
	defer rows.Close()

	var out []model.Reading
	for rows.Next() {
		var ts string
		var r model.Reading
		if err := rows.Scan(&ts, &r.RotationSpeed, &r.LiftForce); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		r.Timestamp, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", ts, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate readings: %w", err)
	}

	// Query returned newest first; callers want chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Clear drops all durable and buffered readings.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	s.batch = s.batch[:0]
	if _, err := s.db.ExecContext(ctx, `DELETE FROM readings`); err != nil {
		return fmt.Errorf("clear readings: %w", err)
	}

	s.logger.Info("readings cleared")
	return nil
}

// Close stops the flush loop, flushes remaining readings, and closes
// the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.done)
	s.wg.Wait()

	s.mu.Lock()
	flushErr := s.flushLocked(context.Background())
	s.mu.Unlock()

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return flushErr
}

// flushLoop flushes on a fixed interval so a trickle of appends still
// becomes durable without waiting for a full batch.
func (s *SQLiteStore) flushLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			if !s.closed {
				if err := s.flushLocked(context.Background()); err != nil {
					s.logger.Error("periodic flush failed", "error", err)
				}
			}
			s.mu.Unlock()
		}
	}
}
