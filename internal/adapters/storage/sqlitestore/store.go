// Package sqlitestore keeps recording sessions in a SQLite database, one
// row per sample, as an alternative to per-session CSV files.
package sqlitestore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/okian/accelstream/internal/domain/model"
	"github.com/okian/accelstream/internal/domain/window"
)

//go:embed schema.sql
var schemaSQL string

// DB is a recording database.
type DB struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies the schema.
func Open(ctx context.Context, path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer; sqlite serializes anyway
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the database.
func (d *DB) Close() error { return d.db.Close() }

// StartSession registers a new recording session for activity.
func (d *DB) StartSession(ctx context.Context, id, activity string) (*Session, error) {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO sessions (id, activity, started_at) VALUES (?, ?, ?)`,
		id, activity, time.Now().UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	return &Session{db: d.db, id: id, activity: activity}, nil
}

// Recordings loads every finished session as a recording named
// <activity>-<id>.csv, so class patterns written for file names apply.
func (d *DB) Recordings(ctx context.Context) ([]window.Recording, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, activity FROM sessions WHERE ended_at IS NOT NULL ORDER BY started_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	type ref struct{ id, activity string }
	var refs []ref
	for rows.Next() {
		var r ref
		if err := rows.Scan(&r.id, &r.activity); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan session: %w", err)
		}
		refs = append(refs, r)
	}
	if err := errors.Join(rows.Err(), rows.Close()); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	recs := make([]window.Recording, 0, len(refs))
	for _, r := range refs {
		samples, err := d.Samples(ctx, r.id)
		if err != nil {
			return nil, err
		}
		recs = append(recs, window.Recording{Name: r.activity + "-" + r.id + ".csv", Samples: samples})
	}
	return recs, nil
}

// Samples returns one session's samples in arrival order.
func (d *DB) Samples(ctx context.Context, sessionID string) ([]model.Sample, error) {
	var exists int
	err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE id = ?`, sessionID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSession, sessionID)
	}

	rows, err := d.db.QueryContext(ctx,
		`SELECT source, accel_x, accel_y, accel_z FROM samples WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	var out []model.Sample
	for rows.Next() {
		var s model.Sample
		if err := rows.Scan(&s.Source, &s.X, &s.Y, &s.Z); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Session is one recording in progress. Writes are buffered in memory and
// committed in a single transaction per Flush.
type Session struct {
	mu       sync.Mutex
	db       *sql.DB
	id       string
	activity string
	pending  []model.Sample
	seq      int
	closed   bool
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Write buffers one sample.
func (s *Session) Write(_ context.Context, sample model.Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.pending = append(s.pending, sample)
	return nil
}

// Flush commits buffered samples.
func (s *Session) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	return s.flush(ctx)
}

func (s *Session) flush(ctx context.Context) error {
	if len(s.pending) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO samples (session_id, seq, source, accel_x, accel_y, accel_z) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for i, p := range s.pending {
		if _, err := stmt.ExecContext(ctx, s.id, s.seq+i, p.Source, p.X, p.Y, p.Z); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert sample %d: %w", s.seq+i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.seq += len(s.pending)
	s.pending = s.pending[:0]
	return nil
}

// Close commits anything pending and marks the session finished.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	ctx := context.Background()
	if err := s.flush(ctx); err != nil {
		return err
	}
	s.closed = true
	_, err := s.db.ExecContext(ctx, `UPDATE sessions SET ended_at = ? WHERE id = ?`, time.Now().UnixMilli(), s.id)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}
