// Package storage persists acquisition sessions and tool samples to sqlite
// so tracking runs can be inspected after the fact.
package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/saviola777/PlusLib/internal/tracking"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Recorder writes acquisition sessions and samples to one sqlite database.
type Recorder struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at path and applies any
// pending schema migrations. Use ":memory:" for an ephemeral database.
func Open(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	// sqlite allows a single writer; serialize access at the pool level.
	db.SetMaxOpenConns(1)

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Recorder{db: db}, nil
}

// Close closes the underlying database.
func (r *Recorder) Close() error { return r.db.Close() }

// migrateUp applies all pending migrations from the embedded set.
func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("loading embedded migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("creating sqlite migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("creating migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// BeginSession opens a new acquisition session for the named device and
// returns its ID.
func (r *Recorder) BeginSession(device string) (string, error) {
	sessionID := uuid.NewString()
	err := retryOnBusy(func() error {
		_, err := r.db.Exec(
			`INSERT INTO sessions (session_id, device, started_at) VALUES (?, ?, ?)`,
			sessionID, device, time.Now().UTC().Format(time.RFC3339),
		)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("inserting session: %w", err)
	}
	return sessionID, nil
}

// EndSession marks a session complete.
func (r *Recorder) EndSession(sessionID string) error {
	err := retryOnBusy(func() error {
		_, err := r.db.Exec(
			`UPDATE sessions SET completed_at = ? WHERE session_id = ?`,
			time.Now().UTC().Format(time.RFC3339), sessionID,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("completing session %s: %w", sessionID, err)
	}
	return nil
}

// RecordSample persists one sample for a tool within a session. A nil pose
// is stored as NULL, preserving the missing/out-of-view distinction.
func (r *Recorder) RecordSample(sessionID, toolName string, port int, s tracking.Sample) error {
	statusStr, err := tracking.ConvertTrackerStatusToString(s.Status)
	if err != nil {
		return fmt.Errorf("serializing sample status: %w", err)
	}
	var pose *string
	if s.Pose != nil {
		p := s.Pose.String()
		pose = &p
	}
	err = retryOnBusy(func() error {
		_, err := r.db.Exec(
			`INSERT INTO samples (session_id, tool, port, status, frame_number, timestamp, pose)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			sessionID, toolName, port, statusStr, s.FrameNumber, s.Timestamp, pose,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("inserting sample for tool %q: %w", toolName, err)
	}
	return nil
}

// SampleCount returns the number of samples stored for a session, per tool
// name.
func (r *Recorder) SampleCount(sessionID string) (map[string]int, error) {
	rows, err := r.db.Query(
		`SELECT tool, COUNT(*) FROM samples WHERE session_id = ? GROUP BY tool`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("counting samples for session %s: %w", sessionID, err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var tool string
		var n int
		if err := rows.Scan(&tool, &n); err != nil {
			return nil, fmt.Errorf("scanning sample count: %w", err)
		}
		counts[tool] = n
	}
	return counts, rows.Err()
}

// StoredSample is one persisted sample row.
type StoredSample struct {
	Tool        string
	Port        int
	Status      string
	FrameNumber uint64
	Timestamp   float64
	Pose        string // empty when the pose was NULL
}

// SessionSamples returns every sample of a session ordered by insertion.
func (r *Recorder) SessionSamples(sessionID string) ([]StoredSample, error) {
	rows, err := r.db.Query(
		`SELECT tool, port, status, frame_number, timestamp, pose
		 FROM samples WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying samples for session %s: %w", sessionID, err)
	}
	defer rows.Close()

	var samples []StoredSample
	for rows.Next() {
		var s StoredSample
		var pose sql.NullString
		if err := rows.Scan(&s.Tool, &s.Port, &s.Status, &s.FrameNumber, &s.Timestamp, &pose); err != nil {
			return nil, fmt.Errorf("scanning sample row: %w", err)
		}
		if pose.Valid {
			s.Pose = pose.String
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

// retryOnBusy retries a write a few times when sqlite reports the database
// is locked by another writer.
func retryOnBusy(fn func() error) error {
	const attempts = 5
	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if err == nil || !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		time.Sleep(time.Duration(i+1) * 10 * time.Millisecond)
	}
	return err
}
