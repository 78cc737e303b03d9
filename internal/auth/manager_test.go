// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/raghavsikaria/dead-mans-switch/internal/storage"
)

// fakeProvider is an httptest identity provider recording what it saw.
type fakeProvider struct {
	mu         sync.Mutex
	signIns    []signInRequest
	mints      int
	revokes    []string
	rejectAuth bool
	server     *httptest.Server
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()
	fp := &fakeProvider{}
	fp.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fp.mu.Lock()
		defer fp.mu.Unlock()
		switch r.URL.Path {
		case "/v1/signin":
			var req signInRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			fp.signIns = append(fp.signIns, req)
			if fp.rejectAuth {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"message":"bad credentials"}`))
				return
			}
			_ = json.NewEncoder(w).Encode(signInResponse{RefreshToken: "refresh-1"})
		case "/v1/token":
			fp.mints++
			_ = json.NewEncoder(w).Encode(tokenResponse{AccessToken: "access-1", ExpiresIn: 300})
		case "/v1/revoke":
			var req revokeRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			fp.revokes = append(fp.revokes, req.RefreshToken)
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(fp.server.Close)
	return fp
}

func newTestManager(t *testing.T, fp *fakeProvider, totpSecret string) *Manager {
	t.Helper()
	cache, err := storage.Open(t.TempDir())
	if err != nil {
		t.Fatalf("storage.Open() error = %v", err)
	}
	t.Cleanup(func() { cache.Close() })

	m, err := NewManager(NewProvider(fp.server.URL), cache, totpSecret)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return m
}

func TestNewManagerWipesStaleSession(t *testing.T) {
	dir := t.TempDir()
	cache, err := storage.Open(dir)
	if err != nil {
		t.Fatalf("storage.Open() error = %v", err)
	}
	defer cache.Close()

	if err := cache.PutSession(storage.Session{Email: "stale@b.co", RefreshToken: "stale"}); err != nil {
		t.Fatalf("PutSession() error = %v", err)
	}

	fp := newFakeProvider(t)
	if _, err := NewManager(NewProvider(fp.server.URL), cache, ""); err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	if _, err := cache.GetSession(); !errors.Is(err, storage.ErrNoSession) {
		t.Errorf("stale session survived manager init: err = %v", err)
	}
}

func TestSignInEstablishesSession(t *testing.T) {
	fp := newFakeProvider(t)
	m := newTestManager(t, fp, "")

	if _, ok := m.Principal(); ok {
		t.Fatal("Principal() reports signed in before sign-in")
	}

	if err := m.SignIn(context.Background(), "alice@example.com", "hunter2"); err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}

	principal, ok := m.Principal()
	if !ok || principal != "alice@example.com" {
		t.Errorf("Principal() = %q, %v; want alice@example.com, true", principal, ok)
	}
	if got := fp.signIns[0]; got.Email != "alice@example.com" || got.Password != "hunter2" {
		t.Errorf("provider saw %+v", got)
	}
}

func TestSignInRejectedMapsToErrSignInFailed(t *testing.T) {
	fp := newFakeProvider(t)
	fp.rejectAuth = true
	m := newTestManager(t, fp, "")

	err := m.SignIn(context.Background(), "alice@example.com", "wrong")
	if !errors.Is(err, ErrSignInFailed) {
		t.Errorf("SignIn() error = %v, want ErrSignInFailed", err)
	}
	if _, ok := m.Principal(); ok {
		t.Error("Principal() reports signed in after rejected sign-in")
	}
}

func TestSignInSendsTOTPCode(t *testing.T) {
	fp := newFakeProvider(t)
	// Base32 secret; any valid one works for code generation.
	m := newTestManager(t, fp, "JBSWY3DPEHPK3PXP")

	if err := m.SignIn(context.Background(), "a@b.co", "pw"); err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if code := fp.signIns[0].TOTPCode; len(code) != 6 {
		t.Errorf("TOTP code = %q, want 6 digits", code)
	}
}

func TestRequestCredentialMintsFreshPerCall(t *testing.T) {
	fp := newFakeProvider(t)
	m := newTestManager(t, fp, "")

	if _, err := m.RequestCredential(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Errorf("RequestCredential() before sign-in error = %v, want ErrNoSession", err)
	}

	if err := m.SignIn(context.Background(), "a@b.co", "pw"); err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}

	for i := 0; i < 3; i++ {
		tok, err := m.RequestCredential(context.Background())
		if err != nil {
			t.Fatalf("RequestCredential() error = %v", err)
		}
		if tok != "access-1" {
			t.Errorf("token = %q, want access-1", tok)
		}
	}
	if fp.mints != 3 {
		t.Errorf("provider minted %d tokens, want 3 (one per call)", fp.mints)
	}
}

func TestSignOutRevokesAndIsIdempotent(t *testing.T) {
	fp := newFakeProvider(t)
	m := newTestManager(t, fp, "")

	if err := m.SignIn(context.Background(), "a@b.co", "pw"); err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}

	m.SignOut(context.Background())
	m.SignOut(context.Background()) // second call is a no-op

	if _, ok := m.Principal(); ok {
		t.Error("Principal() reports signed in after sign-out")
	}
	if len(fp.revokes) != 1 || fp.revokes[0] != "refresh-1" {
		t.Errorf("revokes = %v, want exactly [refresh-1]", fp.revokes)
	}
	if _, err := m.RequestCredential(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Errorf("RequestCredential() after sign-out error = %v, want ErrNoSession", err)
	}
}

func TestSignOutSucceedsLocallyWhenRevokeFails(t *testing.T) {
	fp := newFakeProvider(t)
	m := newTestManager(t, fp, "")

	if err := m.SignIn(context.Background(), "a@b.co", "pw"); err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}

	fp.server.Close() // revocation now fails on the wire
	m.SignOut(context.Background())

	if _, ok := m.Principal(); ok {
		t.Error("local session survived a failed revocation")
	}
}

func TestSubscribeReceivesLifecycleEvents(t *testing.T) {
	fp := newFakeProvider(t)
	m := newTestManager(t, fp, "")
	events := m.Subscribe()

	if err := m.SignIn(context.Background(), "a@b.co", "pw"); err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	m.SignOut(context.Background())

	want := []Event{
		{Kind: EventSignedIn, Principal: "a@b.co"},
		{Kind: EventSignedOut},
	}
	for i, w := range want {
		select {
		case got := <-events:
			if got != w {
				t.Errorf("event[%d] = %+v, want %+v", i, got, w)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}
}
