// go-teraranger
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-teraranger.
//
// go-teraranger is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-teraranger is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-teraranger; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package store persists decode sessions and their samples in SQLite.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	teraranger "github.com/ZaparooProject/go-teraranger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// batchSize is the number of samples committed per transaction
const batchSize = 512

// ErrSessionFinished is returned when a finished session receives samples
var ErrSessionFinished = errors.New("session already finished")

// Store is a SQLite database of decode sessions
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies pending migrations
func Open(path string) (*Store, error) {
	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrateUp(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying handle
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) newMigrate() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = migrateLogger{}
	return m, nil
}

// migrateUp applies all pending migrations. The migrate instance is not
// closed because that would close the shared *sql.DB.
func (s *Store) migrateUp() error {
	m, err := s.newMigrate()
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// Version returns the applied schema version
func (s *Store) Version() (uint, error) {
	m, err := s.newMigrate()
	if err != nil {
		return 0, err
	}
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if dirty {
		return version, fmt.Errorf("schema version %d is dirty", version)
	}
	return version, nil
}

type migrateLogger struct{}

func (migrateLogger) Printf(format string, v ...any) {
	slog.Debug(fmt.Sprintf("[migrate] "+format, v...))
}

func (migrateLogger) Verbose() bool {
	return false
}

// SessionInfo describes how a session was captured
type SessionInfo struct {
	Device string
	CRC    teraranger.CRCVariant
	Resync teraranger.ResyncStrategy
}

// SessionRecord is a stored session
type SessionRecord struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Device     string
	CRC        string
	Resync     string
	Error      string
	Summary    teraranger.Summary
	ID         uuid.UUID
}

// Session records samples for one pipeline run. It implements
// teraranger.Sink and is not safe for concurrent use.
type Session struct {
	store    *Store
	tx       *sql.Tx
	stmt     *sql.Stmt
	now      func() time.Time
	pending  int
	seq      int64
	ID       uuid.UUID
	finished bool
}

// BeginSession inserts a new session row
func (s *Store) BeginSession(ctx context.Context, info SessionInfo) (*Session, error) {
	id := uuid.New()
	sess := &Session{store: s, ID: id, now: time.Now}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (session_id, device, crc_variant, resync, started_at)
		VALUES (?, ?, ?, ?, ?)`,
		id.String(), info.Device, string(info.CRC), info.Resync.String(), sess.now().UnixMicro())
	if err != nil {
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}
	return sess, nil
}

// Consume implements teraranger.Sink. Samples are committed in batches.
func (sess *Session) Consume(sample teraranger.Sample) error {
	if sess.finished {
		return ErrSessionFinished
	}

	if sess.tx == nil {
		tx, err := sess.store.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin batch: %w", err)
		}
		stmt, err := tx.Prepare(`
			INSERT INTO samples (session_id, seq, captured_at_us, raw_code, classification)
			VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to prepare sample insert: %w", err)
		}
		sess.tx, sess.stmt = tx, stmt
	}

	var captured sql.NullInt64
	if sample.HasTimestamp() {
		captured = sql.NullInt64{Int64: sample.CapturedAt.UnixMicro(), Valid: true}
	}

	sess.seq++
	if _, err := sess.stmt.Exec(sess.ID.String(), sess.seq, captured, int64(sample.Raw), int64(sample.Class)); err != nil {
		return fmt.Errorf("failed to insert sample %d: %w", sess.seq, err)
	}

	sess.pending++
	if sess.pending >= batchSize {
		return sess.commit()
	}
	return nil
}

func (sess *Session) commit() error {
	if sess.tx == nil {
		return nil
	}
	_ = sess.stmt.Close()
	err := sess.tx.Commit()
	sess.tx, sess.stmt, sess.pending = nil, nil, 0
	if err != nil {
		return fmt.Errorf("failed to commit samples: %w", err)
	}
	return nil
}

// Finish commits outstanding samples and stores the run summary. runErr is
// recorded as the session's terminal error when non-nil.
func (sess *Session) Finish(ctx context.Context, summary teraranger.Summary, runErr error) error {
	if sess.finished {
		return ErrSessionFinished
	}
	sess.finished = true

	if err := sess.commit(); err != nil {
		return err
	}

	var errText sql.NullString
	if runErr != nil {
		errText = sql.NullString{String: runErr.Error(), Valid: true}
	}

	_, err := sess.store.db.ExecContext(ctx, `
		UPDATE sessions SET finished_at = ?, valid = ?, header_mismatches = ?,
			checksum_failures = ?, timeouts = ?, bytes_read = ?, error = ?
		WHERE session_id = ?`,
		sess.now().UnixMicro(), summary.Valid, summary.HeaderMismatches,
		summary.ChecksumFailures, summary.Timeouts, int64(summary.Bytes), errText,
		sess.ID.String())
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

// Sessions lists stored sessions, newest first
func (s *Store) Sessions(ctx context.Context) ([]SessionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, device, crc_variant, resync, started_at, finished_at,
			valid, header_mismatches, checksum_failures, timeouts, bytes_read, error
		FROM sessions ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []SessionRecord
	for rows.Next() {
		var (
			rec        SessionRecord
			id         string
			startedAt  int64
			finishedAt sql.NullInt64
			bytesRead  int64
			errText    sql.NullString
		)
		if err := rows.Scan(&id, &rec.Device, &rec.CRC, &rec.Resync, &startedAt, &finishedAt,
			&rec.Summary.Valid, &rec.Summary.HeaderMismatches, &rec.Summary.ChecksumFailures,
			&rec.Summary.Timeouts, &bytesRead, &errText); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		if rec.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid session id %q: %w", id, err)
		}
		rec.StartedAt = time.UnixMicro(startedAt)
		if finishedAt.Valid {
			rec.FinishedAt = time.UnixMicro(finishedAt.Int64)
			rec.Summary.Elapsed = rec.FinishedAt.Sub(rec.StartedAt)
		}
		rec.Summary.Bytes = uint64(bytesRead)
		rec.Error = errText.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Samples returns the samples of one session in capture order
func (s *Store) Samples(ctx context.Context, id uuid.UUID) ([]teraranger.Sample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT captured_at_us, raw_code, classification
		FROM samples WHERE session_id = ? ORDER BY seq`, id.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []teraranger.Sample
	for rows.Next() {
		var (
			captured sql.NullInt64
			raw      int64
			class    int64
		)
		if err := rows.Scan(&captured, &raw, &class); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		sample := teraranger.Sample{
			Raw:   uint16(raw),
			Class: teraranger.Classification(class),
		}
		if captured.Valid {
			sample.CapturedAt = time.UnixMicro(captured.Int64)
		}
		out = append(out, sample)
	}
	return out, rows.Err()
}

// DeleteSession removes a session and its samples
func (s *Store) DeleteSession(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("session %s not found", id)
	}
	return nil
}
