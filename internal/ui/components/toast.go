// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/raghavsikaria/dead-mans-switch/internal/ui/styles"
)

// =============================================================================
// TOAST
// =============================================================================

// DefaultToastDuration is how long a toast stays visible.
const DefaultToastDuration = 4 * time.Second

// ToastLevel distinguishes informational toasts from error toasts.
type ToastLevel int

const (
	ToastInfo ToastLevel = iota
	ToastError
)

// ToastExpiredMsg signals that a toast's display time elapsed.
type ToastExpiredMsg struct {
	ID int
}

// Toast is a transient one-line notification.
type Toast struct {
	level   ToastLevel
	message string
	id      int
	visible bool
}

// Show displays a message and returns the expiry command. A later Show
// supersedes an earlier one; stale expiry messages are ignored by ID.
func (t *Toast) Show(level ToastLevel, message string) tea.Cmd {
	t.id++
	t.level = level
	t.message = message
	t.visible = true

	id := t.id
	return tea.Tick(DefaultToastDuration, func(time.Time) tea.Msg {
		return ToastExpiredMsg{ID: id}
	})
}

// Update hides the toast when its own expiry message arrives.
func (t *Toast) Update(msg tea.Msg) {
	if expired, ok := msg.(ToastExpiredMsg); ok && expired.ID == t.id {
		t.visible = false
	}
}

// Visible reports whether the toast is currently shown.
func (t *Toast) Visible() bool {
	return t.visible
}

// View renders the toast line, empty when hidden.
func (t *Toast) View(theme *styles.Theme) string {
	if !t.visible {
		return ""
	}
	if t.level == ToastError {
		return theme.ToastError.Render(styles.StatusIndicators.Error + " " + t.message)
	}
	return theme.ToastInfo.Render(styles.StatusIndicators.Success + " " + t.message)
}
