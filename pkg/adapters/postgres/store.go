// Package postgres implements ports.StateStore on a PostgreSQL table.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	_ "github.com/lib/pq"

	"github.com/aretw0/tagbot/pkg/domain"
)

// DefaultTable is the table used when none is configured.
const DefaultTable = "tagbot_sessions"

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// Store keeps one row per conversation.
type Store struct {
	db    *sql.DB
	table string
	ttl   time.Duration
	now   func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithTable sets the table name. It must be a plain SQL identifier.
func WithTable(table string) Option {
	return func(s *Store) {
		s.table = table
	}
}

// WithTTL hides rows not updated within ttl. Zero keeps rows forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// Open connects to dsn and checks the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres is not reachable: %w", err)
	}
	return db, nil
}

// New wraps db. The table is not created until Migrate is called.
func New(db *sql.DB, opts ...Option) (*Store, error) {
	s := &Store{db: db, table: DefaultTable, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if !identifier.MatchString(s.table) {
		return nil, fmt.Errorf("%w: invalid postgres table name %q", domain.ErrConfiguration, s.table)
	}
	return s, nil
}

// Migrate creates the session table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id         TEXT PRIMARY KEY,
	state      TEXT NOT NULL,
	turns      INTEGER NOT NULL DEFAULT 0,
	sealed     TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMPTZ NOT NULL
)`, s.table))
	if err != nil {
		return fmt.Errorf("failed to migrate %s: %w", s.table, err)
	}
	return nil
}

// Save upserts the snapshot.
func (s *Store) Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error {
	updated := snap.UpdatedAt
	if updated.IsZero() {
		updated = s.now().UTC()
	}
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`INSERT INTO %s (id, state, turns, sealed, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET state = EXCLUDED.state, turns = EXCLUDED.turns,
	sealed = EXCLUDED.sealed, updated_at = EXCLUDED.updated_at`, s.table),
		sessionID, string(snap.State), snap.Turns, snap.Sealed, updated)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load returns the snapshot or domain.ErrSessionNotFound.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	var (
		snap  domain.Snapshot
		state string
	)
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT state, turns, sealed, updated_at FROM %s WHERE id = $1 AND updated_at >= $2`, s.table),
		sessionID, s.cutoff(),
	).Scan(&state, &snap.Turns, &snap.Sealed, &snap.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	snap.State = domain.StateID(state)
	return &snap, nil
}

// Delete removes the row. Deleting a missing session is not an error.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.table), sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// List returns the live session IDs in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT id FROM %s WHERE updated_at >= $1 ORDER BY id`, s.table), s.cutoff())
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Prune deletes expired rows and returns how many were removed.
func (s *Store) Prune(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE updated_at < $1`, s.table), s.cutoff())
	if err != nil {
		return 0, fmt.Errorf("failed to prune sessions: %w", err)
	}
	return res.RowsAffected()
}

// cutoff is the oldest live updated_at; the zero time when there is no TTL.
func (s *Store) cutoff() time.Time {
	if s.ttl <= 0 {
		return time.Time{}
	}
	return s.now().Add(-s.ttl).UTC()
}
