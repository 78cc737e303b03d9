// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package switchview

import (
	"errors"
	"log"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/raghavsikaria/dead-mans-switch/internal/auth"
	"github.com/raghavsikaria/dead-mans-switch/internal/ui/components"
	"github.com/raghavsikaria/dead-mans-switch/internal/validate"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update is the single state transition point. All async completions carry
// a generation; anything from a previous session is dropped on the floor.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.theme.Resize(msg.Width, msg.Height)
		m.bar.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case countdownTickMsg:
		// The deadline panel recomputes from the clock on every render;
		// the tick only forces the redraw.
		return m, m.countdownTickCmd()

	case sessionEventMsg:
		return m.handleSessionEvent(msg)

	case signInResultMsg:
		return m.handleSignInResult(msg)

	case initialLoadedMsg:
		return m.handleInitialLoaded(msg)

	case savedMsg:
		return m.handleSaved(msg)

	case deletedMsg:
		return m.handleDeleted(msg)

	case components.ToastExpiredMsg:
		m.toast.Update(msg)
		return m, nil

	case ConfigReloadedMsg:
		applyThemeName(m.theme, msg.Theme)
		if msg.CountdownRefreshSecs > 0 {
			m.countdownRefresh = secsToDuration(msg.CountdownRefreshSecs)
		}
		return m, nil
	}

	// Spinner frames and other component messages.
	return m, m.spinner.Update(msg)
}

// =============================================================================
// ASYNC COMPLETIONS
// =============================================================================

func (m *Model) handleSessionEvent(msg sessionEventMsg) (tea.Model, tea.Cmd) {
	if !msg.ok {
		return m, nil
	}

	var cmd tea.Cmd
	if msg.event.Kind == auth.EventSignedOut && m.state != StateSignedOut {
		// Session ended outside the view (revocation, manager close).
		m.generation++
		m.resetForms()
		m.state = StateSignedOut
		cmd = m.toast.Show(components.ToastInfo, "Signed out")
	}
	return m, tea.Batch(cmd, waitForSessionEvent(m.events))
}

func (m *Model) handleSignInResult(msg signInResultMsg) (tea.Model, tea.Cmd) {
	if m.state != StateSignedOut || !m.signInPending {
		return m, nil
	}
	m.signInPending = false
	m.spinner.Stop()

	if msg.err != nil {
		m.signInErr = signInErrorText(msg.err)
		return m, nil
	}

	m.signInErr = ""
	m.generation++
	m.state = StateLoadingInitial
	m.spinner.SetMessage("Checking in")
	return m, tea.Batch(m.spinner.Start(), m.initialLoadCmd())
}

func (m *Model) handleInitialLoaded(msg initialLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.generation != m.generation || m.state != StateLoadingInitial {
		return m, nil
	}
	m.spinner.Stop()
	m.state = StateReady
	m.configFocus = 0
	m.thresholdInput.Focus()
	m.emailsInput.Blur()

	switch {
	case msg.checkInErr != nil:
		m.populateConfigForm(nil)
		return m, m.toast.Show(components.ToastError,
			"Check-in failed: "+msg.checkInErr.Error())
	case msg.fetchErr != nil:
		m.populateConfigForm(nil)
		return m, m.toast.Show(components.ToastError,
			"Could not load configuration: "+msg.fetchErr.Error())
	default:
		m.populateConfigForm(msg.cfg)
		if msg.cfg == nil {
			return m, m.toast.Show(components.ToastInfo,
				"Checked in. No switch configured yet")
		}
		return m, m.toast.Show(components.ToastInfo, "Checked in")
	}
}

func (m *Model) handleSaved(msg savedMsg) (tea.Model, tea.Cmd) {
	if msg.generation != m.generation || m.state != StateSaving || m.deleting {
		return m, nil
	}
	m.spinner.Stop()
	m.state = StateReady

	if msg.err != nil {
		return m, m.toast.Show(components.ToastError, "Save failed: "+msg.err.Error())
	}
	if msg.fetchErr != nil {
		// Saved, but unconfirmed. The form keeps the entered values; the
		// confirmed config is untouched until a fetch succeeds.
		return m, m.toast.Show(components.ToastError,
			"Saved, but could not reload configuration: "+msg.fetchErr.Error())
	}
	m.populateConfigForm(msg.cfg)
	return m, m.toast.Show(components.ToastInfo, "Configuration saved")
}

func (m *Model) handleDeleted(msg deletedMsg) (tea.Model, tea.Cmd) {
	if msg.generation != m.generation || m.state != StateSaving || !m.deleting {
		return m, nil
	}

	// The account is gone (or the attempt is); either way the session ends.
	// Deletion is logged distinctly from a plain sign-out.
	if msg.err != nil {
		log.Printf("switchview: account deletion failed, signing out anyway: %v", msg.err)
	} else {
		log.Printf("switchview: account deleted, signing out")
	}

	m.generation++
	m.resetForms()
	m.state = StateSignedOut

	var toast tea.Cmd
	if msg.err != nil {
		toast = m.toast.Show(components.ToastError, "Deletion failed: "+msg.err.Error())
	} else {
		toast = m.toast.Show(components.ToastInfo, "Account deleted")
	}
	return m, tea.Batch(toast, m.signOutCmd())
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Overlays swallow keys until dismissed.
	if m.showHelp {
		if key := msg.String(); key == "f1" || key == "esc" || key == "q" {
			m.showHelp = false
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "f1":
		m.showHelp = true
		return m, nil

	case "f2":
		if m.state == StateReady && m.current != nil {
			m.showRaw = !m.showRaw
		}
		return m, nil

	case "ctrl+q":
		return m.signOut()
	}

	switch m.state {
	case StateSignedOut:
		return m.handleSignedOutKey(msg)
	case StateReady:
		return m.handleReadyKey(msg)
	default:
		// LoadingInitial and Saving lock input; only the global keys above
		// are honored so a stuck backend cannot trap the user.
		return m, nil
	}
}

// signOut ends the session from any state. An in-flight operation keeps
// running, but its completion carries the old generation and is discarded.
func (m *Model) signOut() (tea.Model, tea.Cmd) {
	if m.state == StateSignedOut {
		return m, tea.Quit
	}
	m.generation++
	m.resetForms()
	m.state = StateSignedOut
	return m, tea.Batch(m.signOutCmd(),
		m.toast.Show(components.ToastInfo, "Signed out"))
}

func (m *Model) handleSignedOutKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.signInPending {
		return m, nil
	}

	switch msg.String() {
	// Two fields, so forward and backward cycling coincide.
	case "tab", "down", "shift+tab", "up":
		m.setSignInFocus((m.signInFocus + 1) % 2)
		return m, nil
	case "enter":
		if m.signInFocus == 0 {
			m.setSignInFocus(1)
			return m, nil
		}
		return m.submitSignIn()
	}

	var cmd tea.Cmd
	if m.signInFocus == 0 {
		m.emailInput, cmd = m.emailInput.Update(msg)
	} else {
		m.passwordInput, cmd = m.passwordInput.Update(msg)
	}
	m.signInErr = ""
	return m, cmd
}

func (m *Model) setSignInFocus(focus int) {
	m.signInFocus = focus
	if focus == 0 {
		m.emailInput.Focus()
		m.passwordInput.Blur()
	} else {
		m.emailInput.Blur()
		m.passwordInput.Focus()
	}
}

func (m *Model) submitSignIn() (tea.Model, tea.Cmd) {
	email := strings.TrimSpace(m.emailInput.Value())
	password := m.passwordInput.Value()
	if email == "" || password == "" {
		m.signInErr = "email and password are required"
		return m, nil
	}

	m.signInPending = true
	m.signInErr = ""
	m.spinner.SetMessage("Signing in")
	return m, tea.Batch(m.spinner.Start(), m.signInCmd(email, password))
}

func (m *Model) handleReadyKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "down", "enter", "shift+tab", "up":
		m.setConfigFocus((m.configFocus + 1) % 2)
		return m, nil
	case "ctrl+s":
		return m.submitSave()
	case "ctrl+x":
		return m.submitDelete()
	}

	var cmd tea.Cmd
	if m.configFocus == 0 {
		m.thresholdInput, cmd = m.thresholdInput.Update(msg)
		delete(m.fieldErrs, "threshold")
	} else {
		m.emailsInput, cmd = m.emailsInput.Update(msg)
		delete(m.fieldErrs, "emails")
	}
	return m, cmd
}

func (m *Model) setConfigFocus(focus int) {
	m.configFocus = focus
	if focus == 0 {
		m.thresholdInput.Focus()
		m.emailsInput.Blur()
	} else {
		m.thresholdInput.Blur()
		m.emailsInput.Focus()
	}
}

// submitSave validates both fields locally. Any failure blocks the save
// entirely; nothing is sent until every field passes.
func (m *Model) submitSave() (tea.Model, tea.Cmd) {
	m.fieldErrs = make(map[string]string)

	threshold, err := validate.Threshold(m.thresholdInput.Value())
	if err != nil {
		m.fieldErrs["threshold"] = err.Error()
	}
	emails, err := validate.Emails(m.emailsInput.Value())
	if err != nil {
		m.fieldErrs["emails"] = err.Error()
	}
	if len(m.fieldErrs) > 0 {
		return m, nil
	}

	m.state = StateSaving
	m.deleting = false
	m.spinner.SetMessage("Saving")
	return m, tea.Batch(m.spinner.Start(), m.saveCmd(threshold, emails))
}

func (m *Model) submitDelete() (tea.Model, tea.Cmd) {
	m.state = StateSaving
	m.deleting = true
	m.spinner.SetMessage("Deleting account")
	return m, tea.Batch(m.spinner.Start(), m.deleteCmd())
}

// =============================================================================
// HELPERS
// =============================================================================

func signInErrorText(err error) string {
	if errors.Is(err, auth.ErrSignInFailed) {
		return "Sign-in rejected: check your email, password, and second factor"
	}
	return "Sign-in failed: " + err.Error()
}

func secsToDuration(secs int) time.Duration {
	return time.Duration(secs) * time.Second
}
