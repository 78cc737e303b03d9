// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package switchview

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/raghavsikaria/dead-mans-switch/internal/switchapi"
)

func TestViewSignedOutShowsForm(t *testing.T) {
	m := newTestModel(&stubAPI{}, &stubSession{})
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	out := m.View()
	if !strings.Contains(out, "Sign in") {
		t.Error("signed-out view missing sign-in form")
	}
	if !strings.Contains(out, "dmswitch") {
		t.Error("view missing header")
	}
}

func TestDeadlinePanel(t *testing.T) {
	last := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{"well before deadline", last.Add(10 * time.Hour), "remaining"},
		{"inside the final day", last.Add(50 * time.Hour), "remaining"},
		{"deadline passed", last.Add(100 * time.Hour), "deadline passed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel(&stubAPI{}, &stubSession{principal: "a@b.co"})
			m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
			m.state = StateReady
			m.current = &switchapi.Config{
				ThresholdHours: 72,
				ContactEmails:  []string{"x@y.co"},
				LastCheckIn:    last,
			}
			m.now = func() time.Time { return tt.now }

			out := m.View()
			if !strings.Contains(out, tt.want) {
				t.Errorf("view missing %q", tt.want)
			}
			if !strings.Contains(out, "4th January 2024") {
				t.Errorf("view missing formatted alert deadline (72h after Jan 1)")
			}
		})
	}
}

func TestDeadlinePanelWithoutCheckIn(t *testing.T) {
	m := newTestModel(&stubAPI{}, &stubSession{principal: "a@b.co"})
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m.state = StateReady

	out := m.View()
	if !strings.Contains(out, "No check-in on record") {
		t.Error("view missing the empty-state status panel")
	}
}

func TestHelpOverlay(t *testing.T) {
	m := newTestModel(&stubAPI{}, &stubSession{})
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	m.Update(tea.KeyMsg{Type: tea.KeyF1})
	out := m.View()
	if !strings.Contains(out, "ctrl+s") {
		t.Error("help overlay missing key bindings")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	out = m.View()
	if !strings.Contains(out, "Sign in") {
		t.Error("esc did not dismiss the help overlay")
	}
}

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{26 * time.Hour, "1d 2h"},
		{3*time.Hour + 30*time.Minute, "3h 30m"},
		{45 * time.Minute, "45m"},
	}
	for _, tt := range tests {
		if got := formatRemaining(tt.d); got != tt.want {
			t.Errorf("formatRemaining(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
