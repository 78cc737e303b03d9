// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGo)
)

// =============================================================================
// CONSTANTS
// =============================================================================

// DatabaseFilename is the name of the SQLite cache file.
const DatabaseFilename = "cache.db"

// KeyFilename is the name of the machine secret file next to the cache.
const KeyFilename = "cache.key"

// schemaVersion is bumped whenever the table layout changes; a mismatch
// drops and recreates the cache (it holds only rederivable data).
const schemaVersion = 1

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNoSession indicates no session row exists in the cache.
	ErrNoSession = errors.New("no cached session")

	// ErrCacheClosed indicates an operation on a closed cache.
	ErrCacheClosed = errors.New("session cache is closed")
)

// =============================================================================
// TYPES
// =============================================================================

// Session is a cached sign-in: the account email and the refresh token
// issued by the identity provider. The token is encrypted at rest.
type Session struct {
	Email        string
	RefreshToken string
	CreatedAt    time.Time
}

// CheckInRecord is one journaled check-in trigger.
type CheckInRecord struct {
	At      time.Time
	Outcome string // "ok" or the error text
}

// Cache is the SQLite-backed local store. It holds at most one session
// plus an append-only journal of check-in attempts.
type Cache struct {
	mu     sync.Mutex
	db     *sql.DB
	keys   *keystore
	closed bool
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Open opens (creating if needed) the cache under dir.
func Open(dir string) (*Cache, error) {
	keys, err := openKeystore(filepath.Join(dir, KeyFilename))
	if err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, DatabaseFilename)
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open session cache: %w", err)
	}
	// SQLite handles one writer at a time; a single connection avoids
	// SQLITE_BUSY churn from the driver's pool.
	db.SetMaxOpenConns(1)

	c := &Cache{db: db, keys: keys}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Cache) migrate() error {
	var version int
	err := c.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if version != 0 && version != schemaVersion {
		if _, err := c.db.Exec("DROP TABLE IF EXISTS sessions; DROP TABLE IF EXISTS checkins"); err != nil {
			return fmt.Errorf("failed to reset cache schema: %w", err)
		}
	}

	const schema = `
	CREATE TABLE IF NOT EXISTS sessions (
		id            INTEGER PRIMARY KEY CHECK (id = 1),
		email         TEXT    NOT NULL,
		refresh_token BLOB    NOT NULL,
		created_at    INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS checkins (
		id      INTEGER PRIMARY KEY AUTOINCREMENT,
		at      INTEGER NOT NULL,
		outcome TEXT    NOT NULL
	);`
	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create cache schema: %w", err)
	}
	if _, err := c.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("failed to set schema version: %w", err)
	}
	return nil
}

// Close closes the underlying database. Safe to call twice.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.db.Close()
}

// =============================================================================
// SESSIONS
// =============================================================================

// Wipe removes any cached session. The check-in journal is kept.
// SECURITY: Called unconditionally at startup so a stale or revoked
// session can never be resumed silently.
func (c *Cache) Wipe() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCacheClosed
	}
	_, err := c.db.Exec("DELETE FROM sessions")
	if err != nil {
		return fmt.Errorf("failed to wipe sessions: %w", err)
	}
	return nil
}

// PutSession stores s as the single cached session, replacing any prior one.
// The refresh token is encrypted before it touches disk.
func (c *Cache) PutSession(s Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCacheClosed
	}

	sealed, err := c.keys.seal([]byte(s.RefreshToken))
	if err != nil {
		return fmt.Errorf("failed to encrypt refresh token: %w", err)
	}

	createdAt := s.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err = c.db.Exec(
		`INSERT INTO sessions (id, email, refresh_token, created_at) VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET email = excluded.email,
		   refresh_token = excluded.refresh_token, created_at = excluded.created_at`,
		s.Email, sealed, createdAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// GetSession returns the cached session, or ErrNoSession.
func (c *Cache) GetSession() (Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return Session{}, ErrCacheClosed
	}

	var (
		email     string
		sealed    []byte
		createdMs int64
	)
	err := c.db.QueryRow("SELECT email, refresh_token, created_at FROM sessions WHERE id = 1").
		Scan(&email, &sealed, &createdMs)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("failed to read session: %w", err)
	}

	token, err := c.keys.open(sealed)
	if err != nil {
		return Session{}, fmt.Errorf("failed to decrypt refresh token: %w", err)
	}
	defer ZeroBytes(token)

	return Session{
		Email:        email,
		RefreshToken: string(token),
		CreatedAt:    time.UnixMilli(createdMs),
	}, nil
}

// =============================================================================
// CHECK-IN JOURNAL
// =============================================================================

// RecordCheckIn appends a check-in attempt to the journal.
func (c *Cache) RecordCheckIn(at time.Time, outcome string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCacheClosed
	}
	_, err := c.db.Exec("INSERT INTO checkins (at, outcome) VALUES (?, ?)",
		at.UnixMilli(), outcome)
	if err != nil {
		return fmt.Errorf("failed to record check-in: %w", err)
	}
	return nil
}

// RecentCheckIns returns up to limit journal entries, newest first.
func (c *Cache) RecentCheckIns(limit int) ([]CheckInRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrCacheClosed
	}

	rows, err := c.db.Query(
		"SELECT at, outcome FROM checkins ORDER BY at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query check-ins: %w", err)
	}
	defer rows.Close()

	var records []CheckInRecord
	for rows.Next() {
		var (
			atMs    int64
			outcome string
		)
		if err := rows.Scan(&atMs, &outcome); err != nil {
			return nil, fmt.Errorf("failed to scan check-in row: %w", err)
		}
		records = append(records, CheckInRecord{
			At:      time.UnixMilli(atMs),
			Outcome: outcome,
		})
	}
	return records, rows.Err()
}
