// ./internal/state/db.go
package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/elys-network/curveamm/internal/logger"
)

var storeLogger = logger.GetForComponent("state_store")

// ErrNotInitialized is returned by a Store without a database.
var ErrNotInitialized = errors.New("database not initialized")

// DBConfig holds database connection parameters.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string // "disable", "require", "verify-full", etc.
}

// DSN renders the lib/pq connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// Store persists pools and operation receipts in PostgreSQL.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open connection pool.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, cfg DBConfig) (*Store, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := NewStore(db)
	if err := s.Ping(ctx); err != nil {
		db.Close()
		return nil, err
	}

	storeLogger.Info().Str("host", cfg.Host).Str("db", cfg.DBName).Msg("Successfully connected to the PostgreSQL database!")
	return s, nil
}

// Close closes the database connection pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	storeLogger.Info().Msg("Closing database connection...")
	if err := s.db.Close(); err != nil {
		storeLogger.Error().Err(err).Msg("Error closing database connection")
		return err
	}
	return nil
}

// Ping tests if the database connection is healthy
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return ErrNotInitialized
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS pools (
		pool_id BIGINT PRIMARY KEY,
		owner TEXT NOT NULL,
		lp_asset TEXT NOT NULL,
		assets TEXT[] NOT NULL,
		amplification NUMERIC(60, 18) NOT NULL,
		fee NUMERIC(20, 18) NOT NULL,
		admin_fee NUMERIC(20, 18) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS operation_receipts (
		receipt_id UUID PRIMARY KEY,
		kind VARCHAR(32) NOT NULL,
		pool_id BIGINT NOT NULL,
		who TEXT NOT NULL,
		status VARCHAR(16) NOT NULL,
		error TEXT,
		inputs TEXT[] NOT NULL,
		outputs TEXT[] NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_operation_receipts_finished ON operation_receipts(finished_at DESC);
	CREATE INDEX IF NOT EXISTS idx_operation_receipts_pool_id ON operation_receipts(pool_id);
	CREATE INDEX IF NOT EXISTS idx_operation_receipts_kind ON operation_receipts(kind);
`

// EnsureSchema applies the necessary DDL to create tables if they don't exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return ErrNotInitialized
	}
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema DDL: %w", err)
	}
	storeLogger.Info().Msg("Database schema ensured")
	return nil
}

// Reset drops every table owned by the store.
func (s *Store) Reset(ctx context.Context) error {
	if s == nil || s.db == nil {
		return ErrNotInitialized
	}
	if _, err := s.db.ExecContext(ctx, `DROP TABLE IF EXISTS operation_receipts, pools CASCADE;`); err != nil {
		return fmt.Errorf("failed to drop tables: %w", err)
	}
	storeLogger.Warn().Msg("Database tables dropped")
	return nil
}
