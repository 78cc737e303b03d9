// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestGetSessionEmpty(t *testing.T) {
	c := newTestCache(t)

	_, err := c.GetSession()
	if !errors.Is(err, ErrNoSession) {
		t.Errorf("GetSession() on empty cache error = %v, want ErrNoSession", err)
	}
}

func TestPutGetSessionRoundTrip(t *testing.T) {
	c := newTestCache(t)

	want := Session{
		Email:        "alice@example.com",
		RefreshToken: "refresh-token-secret",
		CreatedAt:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := c.PutSession(want); err != nil {
		t.Fatalf("PutSession() error = %v", err)
	}

	got, err := c.GetSession()
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if got.Email != want.Email {
		t.Errorf("Email = %q, want %q", got.Email, want.Email)
	}
	if got.RefreshToken != want.RefreshToken {
		t.Errorf("RefreshToken = %q, want %q", got.RefreshToken, want.RefreshToken)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, want.CreatedAt)
	}
}

func TestPutSessionReplaces(t *testing.T) {
	c := newTestCache(t)

	if err := c.PutSession(Session{Email: "old@example.com", RefreshToken: "old"}); err != nil {
		t.Fatalf("PutSession() error = %v", err)
	}
	if err := c.PutSession(Session{Email: "new@example.com", RefreshToken: "new"}); err != nil {
		t.Fatalf("PutSession() error = %v", err)
	}

	got, err := c.GetSession()
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if got.Email != "new@example.com" || got.RefreshToken != "new" {
		t.Errorf("got %q/%q, want the replacement session", got.Email, got.RefreshToken)
	}
}

func TestWipeRemovesSessionKeepsJournal(t *testing.T) {
	c := newTestCache(t)

	if err := c.PutSession(Session{Email: "a@b.co", RefreshToken: "tok"}); err != nil {
		t.Fatalf("PutSession() error = %v", err)
	}
	if err := c.RecordCheckIn(time.Now(), "ok"); err != nil {
		t.Fatalf("RecordCheckIn() error = %v", err)
	}

	if err := c.Wipe(); err != nil {
		t.Fatalf("Wipe() error = %v", err)
	}

	if _, err := c.GetSession(); !errors.Is(err, ErrNoSession) {
		t.Errorf("GetSession() after Wipe error = %v, want ErrNoSession", err)
	}
	records, err := c.RecentCheckIns(10)
	if err != nil {
		t.Fatalf("RecentCheckIns() error = %v", err)
	}
	if len(records) != 1 {
		t.Errorf("journal length after Wipe = %d, want 1", len(records))
	}
}

func TestRefreshTokenEncryptedOnDisk(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	const token = "plaintext-refresh-token-should-not-appear"
	if err := c.PutSession(Session{Email: "a@b.co", RefreshToken: token}); err != nil {
		t.Fatalf("PutSession() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, DatabaseFilename))
	if err != nil {
		t.Fatalf("failed to read database file: %v", err)
	}
	if strings.Contains(string(raw), token) {
		t.Error("refresh token appears in plaintext in the database file")
	}
}

func TestCacheReopenDecrypts(t *testing.T) {
	dir := t.TempDir()

	c1, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := c1.PutSession(Session{Email: "a@b.co", RefreshToken: "tok-123"}); err != nil {
		t.Fatalf("PutSession() error = %v", err)
	}
	if err := c1.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	c2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen Open() error = %v", err)
	}
	defer c2.Close()

	got, err := c2.GetSession()
	if err != nil {
		t.Fatalf("GetSession() after reopen error = %v", err)
	}
	if got.RefreshToken != "tok-123" {
		t.Errorf("RefreshToken after reopen = %q, want %q", got.RefreshToken, "tok-123")
	}
}

func TestRecentCheckInsOrderAndLimit(t *testing.T) {
	c := newTestCache(t)

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if err := c.RecordCheckIn(base.Add(time.Duration(i)*time.Minute), "ok"); err != nil {
			t.Fatalf("RecordCheckIn() error = %v", err)
		}
	}

	records, err := c.RecentCheckIns(3)
	if err != nil {
		t.Fatalf("RecentCheckIns() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("len(records) = %d, want 3", len(records))
	}
	// Newest first.
	if !records[0].At.Equal(base.Add(4 * time.Minute)) {
		t.Errorf("records[0].At = %v, want newest entry", records[0].At)
	}
	if records[0].At.Before(records[1].At) || records[1].At.Before(records[2].At) {
		t.Error("records not sorted newest first")
	}
}

func TestClosedCache(t *testing.T) {
	c := newTestCache(t)
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if err := c.Wipe(); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("Wipe() on closed cache error = %v, want ErrCacheClosed", err)
	}
	if _, err := c.GetSession(); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("GetSession() on closed cache error = %v, want ErrCacheClosed", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() error = %v, want nil", err)
	}
}

func TestKeystoreSealOpenRoundTrip(t *testing.T) {
	ks, err := openKeystore(filepath.Join(t.TempDir(), KeyFilename))
	if err != nil {
		t.Fatalf("openKeystore() error = %v", err)
	}

	sealed, err := ks.seal([]byte("secret"))
	if err != nil {
		t.Fatalf("seal() error = %v", err)
	}
	got, err := ks.open(sealed)
	if err != nil {
		t.Fatalf("open() error = %v", err)
	}
	if string(got) != "secret" {
		t.Errorf("open(seal()) = %q, want %q", got, "secret")
	}
}

func TestKeystoreTamperDetection(t *testing.T) {
	ks, err := openKeystore(filepath.Join(t.TempDir(), KeyFilename))
	if err != nil {
		t.Fatalf("openKeystore() error = %v", err)
	}

	sealed, err := ks.seal([]byte("secret"))
	if err != nil {
		t.Fatalf("seal() error = %v", err)
	}
	sealed[len(sealed)-1] ^= 0xFF

	if _, err := ks.open(sealed); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("open(tampered) error = %v, want ErrDecryptionFailed", err)
	}
}

func TestKeystoreShortCiphertext(t *testing.T) {
	ks, err := openKeystore(filepath.Join(t.TempDir(), KeyFilename))
	if err != nil {
		t.Fatalf("openKeystore() error = %v", err)
	}

	if _, err := ks.open([]byte{1, 2, 3}); !errors.Is(err, ErrInvalidCiphertext) {
		t.Errorf("open(short) error = %v, want ErrInvalidCiphertext", err)
	}
}
