// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package switchview

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/glamour"

	"github.com/raghavsikaria/dead-mans-switch/internal/deadline"
	"github.com/raghavsikaria/dead-mans-switch/internal/ui/components"
)

// soonWindow is how close to the alert deadline the countdown turns amber.
const soonWindow = 24 * time.Hour

const helpMarkdown = `# dmswitch

A personal liveness monitor. Sign in to check in; if you stop checking
in, your contacts get alerted after the configured threshold.

## Keys

| Key | Action |
|-----|--------|
| tab / shift+tab | Move between fields |
| enter | Next field / submit sign-in |
| ctrl+s | Save configuration |
| ctrl+x | Delete account (signs you out) |
| ctrl+q | Sign out (quit when signed out) |
| f1 | Toggle this help |
| f2 | Toggle raw configuration |
| ctrl+c | Quit |

## Fields

- **Threshold**: hours of silence before alerts go out (20-480).
- **Alert emails**: comma-separated addresses to notify.
`

// =============================================================================
// VIEW
// =============================================================================

// View renders the whole screen for the current state.
func (m *Model) View() string {
	if m.showHelp {
		return m.viewHelp()
	}

	var b strings.Builder
	if !m.compact {
		b.WriteString(m.theme.Header.Render("dmswitch"))
		b.WriteString("\n\n")
	}

	switch m.state {
	case StateSignedOut:
		b.WriteString(m.viewSignIn())
	case StateLoadingInitial, StateSaving:
		b.WriteString(m.viewConfig(true))
	case StateReady:
		b.WriteString(m.viewConfig(false))
	}

	if sp := m.spinner.View(m.theme); sp != "" {
		b.WriteString("\n" + sp)
	}
	if toast := m.toast.View(m.theme); toast != "" {
		b.WriteString("\n" + toast)
	}

	b.WriteString("\n\n")
	b.WriteString(m.viewStatusBar())
	return b.String()
}

func (m *Model) viewSignIn() string {
	var b strings.Builder
	b.WriteString(m.theme.PanelTitle.Render("Sign in"))
	b.WriteString("\n\n")

	b.WriteString(m.formLine("Email", m.emailInput.View(), m.signInFocus == 0))
	b.WriteString(m.formLine("Password", m.passwordInput.View(), m.signInFocus == 1))

	if m.signInErr != "" {
		b.WriteString("\n" + m.theme.FormError.Render(m.signInErr) + "\n")
	}
	return b.String()
}

// viewConfig renders the editable switch configuration. locked disables
// the edit affordances while a background operation runs.
func (m *Model) viewConfig(locked bool) string {
	var b strings.Builder
	b.WriteString(m.theme.PanelTitle.Render("Switch configuration"))
	b.WriteString("\n\n")

	b.WriteString(m.formLine("Threshold (hours)", m.thresholdInput.View(),
		!locked && m.configFocus == 0))
	if msg, ok := m.fieldErrs["threshold"]; ok {
		b.WriteString(m.theme.FormError.Render("  "+msg) + "\n")
	}

	b.WriteString(m.formLine("Alert emails", m.emailsInput.View(),
		!locked && m.configFocus == 1))
	if msg, ok := m.fieldErrs["emails"]; ok {
		b.WriteString(m.theme.FormError.Render("  "+msg) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(m.viewDeadlinePanel())

	if m.showRaw && m.current != nil {
		b.WriteString("\n\n")
		b.WriteString(m.viewRawConfig())
	}
	return b.String()
}

func (m *Model) formLine(label, input string, focused bool) string {
	style := m.theme.FormLabel
	if focused {
		style = m.theme.FormFocused.Width(22)
	}
	return style.Render(label) + " " + input + "\n"
}

// viewDeadlinePanel shows the last check-in and the derived alert deadline.
func (m *Model) viewDeadlinePanel() string {
	if m.current == nil || m.current.LastCheckIn.IsZero() {
		return m.renderPanel(
			m.theme.PanelTitle.Render("Status") + "\n" +
				"No check-in on record yet.")
	}

	cfg := m.current
	next := deadline.NextAlertTime(cfg.LastCheckIn, cfg.ThresholdHours)
	remaining := deadline.Remaining(cfg.LastCheckIn, cfg.ThresholdHours, m.now())

	var deadlineStyle = m.theme.DeadlineOK
	var note string
	switch {
	case remaining <= 0:
		deadlineStyle = m.theme.DeadlinePassed
		note = "deadline passed; alerts may have been sent"
	case remaining <= soonWindow:
		deadlineStyle = m.theme.DeadlineSoon
		note = fmt.Sprintf("%s remaining", formatRemaining(remaining))
	default:
		note = fmt.Sprintf("%s remaining", formatRemaining(remaining))
	}

	body := m.theme.PanelTitle.Render("Status") + "\n" +
		"Last check-in:  " + deadline.FormatInstant(cfg.LastCheckIn) + "\n" +
		"Alerts after:   " + deadlineStyle.Render(deadline.FormatInstant(next)) + "\n" +
		"                " + deadlineStyle.Render(note)
	return m.renderPanel(body)
}

// renderPanel boxes the body unless compact mode is on.
func (m *Model) renderPanel(body string) string {
	if m.compact {
		return body
	}
	return m.theme.PanelBox.Render(body)
}

// formatRemaining renders a duration as whole days/hours/minutes.
func formatRemaining(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	days := int(d / (24 * time.Hour))
	hours := int(d/time.Hour) % 24
	mins := int(d/time.Minute) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, mins)
	default:
		return fmt.Sprintf("%dm", mins)
	}
}

// viewRawConfig renders the backend config as syntax-highlighted JSON.
func (m *Model) viewRawConfig() string {
	payload := map[string]any{
		"threshold_hours":   m.current.ThresholdHours,
		"contact_emails":    m.current.ContactEmails,
		"last_checkin_time": m.current.LastCheckIn.Format(time.RFC3339),
		"next_alert_time": deadline.NextAlertTime(
			m.current.LastCheckIn, m.current.ThresholdHours).Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return m.theme.FormError.Render("raw view unavailable: " + err.Error())
	}

	style := "monokai"
	if !m.theme.IsDark {
		style = "github"
	}
	var buf bytes.Buffer
	if err := quick.Highlight(&buf, string(data), "json", "terminal256", style); err != nil {
		return string(data)
	}
	return m.theme.OverlayBox.Render(
		m.theme.OverlayTitle.Render("Raw configuration") + "\n" + buf.String())
}

func (m *Model) viewHelp() string {
	width := m.width - 4
	if width < 20 || width > 100 {
		width = 80
	}

	style := "dark"
	if !m.theme.IsDark {
		style = "light"
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return helpMarkdown
	}
	out, err := renderer.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	return out + m.theme.ShortcutDesc.Render("  press f1 or esc to close")
}

func (m *Model) viewStatusBar() string {
	m.bar.Width = m.width
	m.bar.Principal, _ = m.session.Principal()

	switch m.state {
	case StateSignedOut:
		m.bar.Shortcuts = []components.Shortcut{
			{Key: "enter", Desc: "sign in"},
			{Key: "f1", Desc: "help"},
			{Key: "ctrl+c", Desc: "quit"},
		}
	case StateReady:
		m.bar.Shortcuts = []components.Shortcut{
			{Key: "ctrl+s", Desc: "save"},
			{Key: "ctrl+x", Desc: "delete"},
			{Key: "ctrl+q", Desc: "sign out"},
			{Key: "f1", Desc: "help"},
		}
	default:
		m.bar.Shortcuts = []components.Shortcut{
			{Key: "ctrl+q", Desc: "sign out"},
		}
	}
	return m.bar.View(m.theme)
}
