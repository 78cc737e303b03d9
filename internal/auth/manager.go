// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/pquerna/otp/totp"

	"github.com/raghavsikaria/dead-mans-switch/internal/storage"
)

// =============================================================================
// EVENTS
// =============================================================================

// EventKind distinguishes session lifecycle notifications.
type EventKind int

const (
	// EventSignedIn fires after a successful sign-in.
	EventSignedIn EventKind = iota
	// EventSignedOut fires after the session ends, for any reason.
	EventSignedOut
)

// Event is a session lifecycle notification.
type Event struct {
	Kind      EventKind
	Principal string // account email; empty for EventSignedOut
}

// =============================================================================
// MANAGER
// =============================================================================

// Manager owns the sign-in session: it authenticates against the identity
// provider, caches the refresh token locally, mints short-lived access
// tokens on demand, and broadcasts lifecycle events to subscribers.
type Manager struct {
	provider   *Provider
	cache      *storage.Cache
	totpSecret string

	mu        sync.Mutex
	principal string
	refresh   string
	subs      []chan Event
	closed    bool
}

// NewManager creates a session manager.
//
// SECURITY: Any session left in the cache by a previous run is discarded
// immediately, before anything can observe or resume it. A run always
// starts signed out.
func NewManager(provider *Provider, cache *storage.Cache, totpSecret string) (*Manager, error) {
	if err := cache.Wipe(); err != nil {
		return nil, fmt.Errorf("failed to discard stale session: %w", err)
	}
	return &Manager{
		provider:   provider,
		cache:      cache,
		totpSecret: totpSecret,
	}, nil
}

// Subscribe returns a channel of session lifecycle events. Events are
// dropped rather than blocking a slow subscriber.
func (m *Manager) Subscribe() <-chan Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan Event, 8)
	m.subs = append(m.subs, ch)
	return ch
}

func (m *Manager) broadcast(ev Event) {
	for _, ch := range m.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// SignIn authenticates with the identity provider and establishes the
// session. If a TOTP secret is configured, the current code is generated
// and sent as the second factor.
func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	var code string
	if m.totpSecret != "" {
		var err error
		code, err = totp.GenerateCode(m.totpSecret, time.Now())
		if err != nil {
			return fmt.Errorf("failed to generate TOTP code: %w", err)
		}
	}

	refresh, err := m.provider.SignIn(ctx, email, password, code)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.principal = email
	m.refresh = refresh

	if err := m.cache.PutSession(storage.Session{
		Email:        email,
		RefreshToken: refresh,
	}); err != nil {
		// The in-memory session still works; the cache only matters for
		// the next startup's wipe.
		log.Printf("auth: failed to cache session: %v", err)
	}

	m.broadcast(Event{Kind: EventSignedIn, Principal: email})
	return nil
}

// SignOut ends the session. The refresh token is revoked best-effort:
// a provider failure is logged but the local session ends regardless,
// so sign-out can never be blocked by the network.
func (m *Manager) SignOut(ctx context.Context) {
	m.mu.Lock()
	refresh := m.refresh
	wasSignedIn := refresh != ""
	m.principal = ""
	m.refresh = ""
	m.mu.Unlock()

	if !wasSignedIn {
		return
	}

	if err := m.provider.Revoke(ctx, refresh); err != nil {
		log.Printf("auth: token revocation failed, session ended locally anyway: %v", err)
	}
	if err := m.cache.Wipe(); err != nil {
		log.Printf("auth: failed to wipe cached session: %v", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.broadcast(Event{Kind: EventSignedOut})
}

// RequestCredential mints a fresh access token for a single API call.
// Tokens are never cached: every call gets a newly minted one, so
// revocation takes effect at the next request.
func (m *Manager) RequestCredential(ctx context.Context) (string, error) {
	m.mu.Lock()
	refresh := m.refresh
	m.mu.Unlock()

	if refresh == "" {
		return "", ErrNoSession
	}
	return m.provider.Mint(ctx, refresh)
}

// Principal returns the signed-in account email, if any.
func (m *Manager) Principal() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.principal, m.principal != ""
}

// Close ends the session and closes all subscriber channels.
func (m *Manager) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	m.SignOut(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	for _, ch := range m.subs {
		close(ch)
	}
	m.subs = nil
}
