// Package postgres implements the domain repositories using PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gymos/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// uniqueViolation is the PostgreSQL error code for a unique constraint failure.
const uniqueViolation = "23505"

// Options tunes the connection pool.
type Options struct {
	MaxOpenConns int
	MaxIdleConns int
	ConnLifetime time.Duration
}

// DB wraps a *sqlx.DB and implements domain repository interfaces.
type DB struct {
	x *sqlx.DB
}

// Open connects to PostgreSQL, pings, and runs migrations.
func Open(ctx context.Context, connStr string, opts Options) (*DB, error) {
	x, err := sqlx.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if opts.MaxOpenConns > 0 {
		x.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		x.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnLifetime > 0 {
		x.SetConnMaxLifetime(opts.ConnLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := x.PingContext(pingCtx); err != nil {
		_ = x.Close()
		return nil, err
	}

	d := &DB{x: x}
	if err := d.Migrate(ctx); err != nil {
		_ = x.Close()
		return nil, err
	}
	return d, nil
}

// New wraps an existing connection without pinging or migrating.
func New(x *sqlx.DB) *DB {
	return &DB{x: x}
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.x.Close()
}

// Ping reports whether the database is reachable.
func (d *DB) Ping(ctx context.Context) error {
	return d.x.PingContext(ctx)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS members (
		id TEXT PRIMARY KEY,
		username TEXT UNIQUE NOT NULL,
		display_name TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'member' CHECK (role IN ('member','admin')),
		password_hash TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE TABLE IF NOT EXISTS checkins (
		id BIGSERIAL PRIMARY KEY,
		member_id TEXT NOT NULL REFERENCES members(id) ON DELETE CASCADE,
		weight DOUBLE PRECISION NOT NULL CHECK (weight > 0),
		diet_plan JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	"CREATE INDEX IF NOT EXISTS idx_checkins_member_created ON checkins(member_id, created_at, id);",
	`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		member_id TEXT NOT NULL REFERENCES members(id) ON DELETE CASCADE,
		user_agent TEXT NOT NULL DEFAULT '',
		ip TEXT NOT NULL DEFAULT '',
		expires_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	"CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);",
}

// Migrate creates the schema if it does not exist.
func (d *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := d.x.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// Ensure interfaces are met.
var _ domain.CheckInRepository = (*DB)(nil)
var _ domain.MemberRepository = (*DB)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)
