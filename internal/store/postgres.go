package store

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aerolab/winddaq/internal/model"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS readings (
	id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	ts TIMESTAMPTZ NOT NULL,
	rpm DOUBLE PRECISION NOT NULL,
	lift_force DOUBLE PRECISION NOT NULL
)`

// PostgresConfig holds the connection settings for a Postgres or
// TimescaleDB backend.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// BuildConnString builds a PostgreSQL connection string from config.
func BuildConnString(cfg PostgresConfig) string {
	// URL-encode password to handle special characters
	escapedPassword := url.QueryEscape(cfg.Password)

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User,
		escapedPassword,
		cfg.Host,
		cfg.Port,
		cfg.Name,
		sslMode,
	)
}

// PostgresStore is a Store backed by a Postgres/TimescaleDB pool.
type PostgresStore struct {
	cfg    Config
	logger *slog.Logger
	pool   *pgxpool.Pool

	mu     sync.Mutex
	batch  []model.Reading
	closed bool

	done chan struct{}
	wg   sync.WaitGroup
}

// NewPostgresStore connects to the database, ensures the readings
// table exists, and starts the periodic flush loop.
func NewPostgresStore(ctx context.Context, pgCfg PostgresConfig, cfg Config, logger *slog.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	poolCfg, err := pgxpool.ParseConfig(BuildConnString(pgCfg))
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	poolCfg.MinConns = int32(pgCfg.MinConns)
	poolCfg.MaxConns = int32(pgCfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create readings table: %w", err)
	}

	s := &PostgresStore{
		cfg:    cfg,
		logger: logger,
		pool:   pool,
		batch:  make([]model.Reading, 0, cfg.BatchSize),
		done:   make(chan struct{}),
	}

	s.wg.Add(1)
	go s.flushLoop()

	return s, nil
}

// Append buffers one reading, flushing when the batch is full.
func (s *PostgresStore) Append(ctx context.Context, r model.Reading) error {
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
func (s *PostgresStore) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	return s.flushLocked(ctx)
}

// flushLocked writes the current batch with a single pgx batch.
// Caller holds s.mu.
func (s *PostgresStore) flushLocked(ctx context.Context) error {
	if len(s.batch) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, r := range s.batch {
		batch.Queue(
			`INSERT INTO readings (ts, rpm, lift_force) VALUES ($1, $2, $3)`,
			r.Timestamp, r.RotationSpeed, r.LiftForce,
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range s.batch {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert reading: %w", err)
		}
	}

	s.logger.Debug("flushed readings", "count", len(s.batch))
	s.batch = s.batch[:0]
	return nil
}

// GetRecent returns the most recent n flushed readings, oldest first.
func (s *PostgresStore) GetRecent(ctx context.Context, n int) ([]model.Reading, error) {
	if n <= 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT ts, rpm, lift_force FROM readings ORDER BY id DESC LIMIT $1`, n)
	if err != nil {
		return nil, fmt.Errorf("select recent: %w", err)
	}
	defer rows.Close()

	var out []model.Reading
	for rows.Next() {
		var r model.Reading
		var ts time.Time
		if err := rows.Scan(&ts, &r.RotationSpeed, &r.LiftForce); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		r.Timestamp = ts
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate readings: %w", err)
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Clear drops all durable and buffered readings.
func (s *PostgresStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	s.batch = s.batch[:0]
	if _, err := s.pool.Exec(ctx, `DELETE FROM readings`); err != nil {
		return fmt.Errorf("clear readings: %w", err)
	}

	s.logger.Info("readings cleared")
	return nil
}

// Close stops the flush loop, flushes remaining readings, and closes
// the pool.
func (s *PostgresStore) Close() error {
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

	s.pool.Close()
	return flushErr
}

// flushLoop flushes on a fixed interval.
func (s *PostgresStore) flushLoop() {
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
