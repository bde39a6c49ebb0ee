package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is the SQL DDL for the voice_commands table. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS voice_commands (
    id         TEXT PRIMARY KEY,
    session_id TEXT NOT NULL,
    transcript TEXT NOT NULL,
    intent     TEXT NOT NULL DEFAULT '',
    confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
    state      TEXT NOT NULL DEFAULT '',
    action     TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_voice_commands_session ON voice_commands(session_id);
CREATE INDEX IF NOT EXISTS idx_voice_commands_created ON voice_commands(created_at);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is a [Recorder] backed by a PostgreSQL database.
type PostgresStore struct {
	db DB
}

// Compile-time interface check.
var _ Recorder = (*PostgresStore)(nil)

// NewPostgresStore creates a store that uses the given database connection or
// pool. Call [PostgresStore.Migrate] before recording.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Connect opens a connection pool for dsn and returns a migrated store. The
// returned cleanup function closes the pool.
func Connect(ctx context.Context, dsn string) (*PostgresStore, func(), error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("audit: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("audit: ping: %w", err)
	}
	s := NewPostgresStore(pool)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return s, pool.Close, nil
}

// Migrate executes the [Schema] DDL, creating the voice_commands table and
// indexes if they do not already exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("audit: migrate: %w", err)
	}
	return nil
}

// Record inserts one entry, assigning ID and CreatedAt when unset.
func (s *PostgresStore) Record(ctx context.Context, e Entry) error {
	e = fill(e)

	const query = `
		INSERT INTO voice_commands (id, session_id, transcript, intent, confidence, state, action, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	_, err := s.db.Exec(ctx, query,
		e.ID, e.SessionID, e.Transcript, e.Intent, e.Confidence, e.State, e.Action, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("audit: record: %w", err)
	}
	return nil
}

// Session returns all entries of one voice session in chronological order.
func (s *PostgresStore) Session(ctx context.Context, sessionID string) ([]Entry, error) {
	const query = `
		SELECT id, session_id, transcript, intent, confidence, state, action, created_at
		FROM voice_commands
		WHERE session_id = $1
		ORDER BY created_at`

	rows, err := s.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("audit: session %q: %w", sessionID, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Transcript, &e.Intent, &e.Confidence, &e.State, &e.Action, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("audit: session scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: session %q: %w", sessionID, err)
	}
	return entries, nil
}

// Ping verifies the database connection, for readiness probes.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, "SELECT 1"); err != nil {
		return fmt.Errorf("audit: ping: %w", err)
	}
	return nil
}
