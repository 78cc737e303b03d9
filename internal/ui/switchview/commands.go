// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package switchview

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/raghavsikaria/dead-mans-switch/internal/auth"
)

// opTimeout bounds every background operation so an unreachable backend
// cannot leave a state stuck forever.
const opTimeout = 60 * time.Second

// =============================================================================
// COMMANDS
// =============================================================================

// waitForSessionEvent pumps one auth lifecycle event into the program.
func waitForSessionEvent(events <-chan auth.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		return sessionEventMsg{event: ev, ok: ok}
	}
}

// signInCmd authenticates with the identity provider.
func (m *Model) signInCmd(email, password string) tea.Cmd {
	session := m.session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		return signInResultMsg{err: session.SignIn(ctx, email, password)}
	}
}

// initialLoadCmd runs the post-sign-in sequence: trigger a check-in, then
// fetch the (now refreshed) config. A check-in failure skips the fetch so
// the view never shows a deadline the backend did not actually extend.
func (m *Model) initialLoadCmd() tea.Cmd {
	gen := m.generation
	api := m.api
	principal := m.principalID()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()

		if err := api.CheckIn(ctx, principal); err != nil {
			return initialLoadedMsg{generation: gen, checkInErr: err}
		}

		cfg, err := api.FetchConfig(ctx, principal)
		return initialLoadedMsg{generation: gen, cfg: cfg, fetchErr: err}
	}
}

// saveCmd persists the edited config, then re-fetches so the view shows
// exactly what the backend stored.
func (m *Model) saveCmd(thresholdHours int, emails []string) tea.Cmd {
	gen := m.generation
	api := m.api
	principal := m.principalID()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()

		if err := api.SaveConfig(ctx, principal, thresholdHours, emails); err != nil {
			return savedMsg{generation: gen, err: err}
		}

		cfg, err := api.FetchConfig(ctx, principal)
		if err != nil {
			// The save itself succeeded; the re-fetch did not, so there
			// is no backend-confirmed config to install.
			return savedMsg{generation: gen, fetchErr: err}
		}
		return savedMsg{generation: gen, cfg: cfg}
	}
}

// deleteCmd deletes the account server-side.
func (m *Model) deleteCmd() tea.Cmd {
	gen := m.generation
	api := m.api
	principal := m.principalID()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		return deletedMsg{generation: gen, err: api.DeleteAccount(ctx, principal)}
	}
}

// signOutCmd revokes the session in the background; the view has already
// transitioned by the time this runs.
func (m *Model) signOutCmd() tea.Cmd {
	session := m.session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		session.SignOut(ctx)
		return nil
	}
}

// countdownTickCmd schedules the next deadline countdown redraw.
func (m *Model) countdownTickCmd() tea.Cmd {
	return tea.Tick(m.countdownRefresh, func(t time.Time) tea.Msg {
		return countdownTickMsg(t)
	})
}
