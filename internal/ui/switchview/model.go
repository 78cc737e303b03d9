// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package switchview implements the dmswitch TUI: a single Bubble Tea
// model that coordinates sign-in, check-in, and switch configuration.
package switchview

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/raghavsikaria/dead-mans-switch/internal/auth"
	"github.com/raghavsikaria/dead-mans-switch/internal/switchapi"
	"github.com/raghavsikaria/dead-mans-switch/internal/ui/components"
	"github.com/raghavsikaria/dead-mans-switch/internal/ui/styles"
	"github.com/raghavsikaria/dead-mans-switch/internal/util"
)

// =============================================================================
// STATE MACHINE
// =============================================================================

// State is the coordinator's view state. Exactly one state is active at a
// time; all transitions happen inside Update.
type State int

const (
	// StateSignedOut shows the sign-in form. Initial state.
	StateSignedOut State = iota
	// StateLoadingInitial runs the post-sign-in check-in and config fetch.
	StateLoadingInitial
	// StateReady shows the editable switch configuration.
	StateReady
	// StateSaving runs a save or delete; edits are locked until it resolves.
	StateSaving
)

// String returns the state name for logs and tests.
func (s State) String() string {
	switch s {
	case StateSignedOut:
		return "signed-out"
	case StateLoadingInitial:
		return "loading"
	case StateReady:
		return "ready"
	case StateSaving:
		return "saving"
	default:
		return "unknown"
	}
}

// =============================================================================
// DEPENDENCIES
// =============================================================================

// API is the switch backend surface the view needs.
type API interface {
	CheckIn(ctx context.Context, principalID string) error
	FetchConfig(ctx context.Context, principalID string) (*switchapi.Config, error)
	SaveConfig(ctx context.Context, principalID string, thresholdHours int, emails []string) error
	DeleteAccount(ctx context.Context, principalID string) error
}

// Session is the slice of the auth manager the view needs.
type Session interface {
	SignIn(ctx context.Context, email, password string) error
	SignOut(ctx context.Context)
	Principal() (string, bool)
}

// =============================================================================
// MODEL
// =============================================================================

// Options configures a new Model.
type Options struct {
	API     API
	Session Session
	// Events is the auth manager's subscription channel; may be nil in tests.
	Events <-chan auth.Event
	// PrefillEmail pre-populates the sign-in email field.
	PrefillEmail string
	// Theme forces "dark" or "light"; anything else keeps the detected
	// terminal background.
	Theme string
	// Compact drops the header and panel borders for small terminals.
	Compact bool
	// CountdownRefresh is how often the deadline countdown redraws.
	CountdownRefresh time.Duration
}

// Model is the root Bubble Tea model for the switch view.
type Model struct {
	state      State
	generation uint64

	api     API
	session Session
	events  <-chan auth.Event

	theme  *styles.Theme
	width  int
	height int

	// Sign-in form
	emailInput    textinput.Model
	passwordInput textinput.Model
	signInFocus   int // 0 = email, 1 = password
	signInPending bool
	signInErr     string

	// Config form
	thresholdInput textinput.Model
	emailsInput    textinput.Model
	configFocus    int // 0 = threshold, 1 = emails
	fieldErrs      map[string]string

	// Last config confirmed by the backend, nil when none exists yet.
	current *switchapi.Config
	// deleting distinguishes a delete from a save while in StateSaving.
	deleting bool

	spinner components.Spinner
	toast   components.Toast
	bar     components.StatusBar

	showHelp bool
	showRaw  bool
	compact  bool

	countdownRefresh time.Duration
	now              func() time.Time
}

// New creates the switch view model in the signed-out state.
func New(opts Options) *Model {
	email := textinput.New()
	email.Placeholder = "email"
	email.CharLimit = 254
	email.SetValue(opts.PrefillEmail)
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '*'
	password.CharLimit = 256

	threshold := textinput.New()
	threshold.Placeholder = "hours (20-480)"
	threshold.CharLimit = 4

	emails := textinput.New()
	emails.Placeholder = "alert emails, comma separated"
	emails.CharLimit = 1024

	refresh := opts.CountdownRefresh
	if refresh <= 0 {
		refresh = time.Minute
	}

	theme := styles.NewTheme()
	applyThemeName(theme, opts.Theme)

	return &Model{
		state:            StateSignedOut,
		api:              opts.API,
		session:          opts.Session,
		events:           opts.Events,
		theme:            theme,
		emailInput:       email,
		passwordInput:    password,
		thresholdInput:   threshold,
		emailsInput:      emails,
		fieldErrs:        make(map[string]string),
		spinner:          components.NewSpinner("Working"),
		compact:          opts.Compact,
		countdownRefresh: refresh,
		now:              time.Now,
	}
}

// applyThemeName forces the background mode for "dark" or "light".
// "auto" and unknown names keep the detected value.
func applyThemeName(t *styles.Theme, name string) {
	switch name {
	case "dark":
		t.IsDark = true
	case "light":
		t.IsDark = false
	}
}

// Init starts the session event pump and the countdown ticker.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.countdownTickCmd()}
	if m.events != nil {
		cmds = append(cmds, waitForSessionEvent(m.events))
	}
	return tea.Batch(cmds...)
}

// State returns the current view state.
func (m *Model) State() State {
	return m.state
}

// Generation returns the current session generation.
func (m *Model) Generation() uint64 {
	return m.generation
}

// Current returns the last backend-confirmed config, nil when absent.
func (m *Model) Current() *switchapi.Config {
	return m.current
}

// principalID returns the signed-in principal, empty when signed out.
func (m *Model) principalID() string {
	p, _ := m.session.Principal()
	return p
}

// resetForms clears everything tied to a session.
// SECURITY: The password field is cleared on every sign-out path.
func (m *Model) resetForms() {
	m.passwordInput.SetValue("")
	m.thresholdInput.SetValue("")
	m.emailsInput.SetValue("")
	m.fieldErrs = make(map[string]string)
	m.current = nil
	m.signInPending = false
	m.signInErr = ""
	m.deleting = false
	m.showRaw = false
	m.signInFocus = 0
	m.configFocus = 0
	m.emailInput.Focus()
	m.passwordInput.Blur()
	m.spinner.Stop()
}

// populateConfigForm fills the editable fields from a fetched config.
func (m *Model) populateConfigForm(cfg *switchapi.Config) {
	m.current = cfg
	m.fieldErrs = make(map[string]string)
	if cfg == nil {
		m.thresholdInput.SetValue("")
		m.emailsInput.SetValue("")
		return
	}
	if cfg.ThresholdHours > 0 {
		m.thresholdInput.SetValue(util.IntToString(cfg.ThresholdHours))
	} else {
		m.thresholdInput.SetValue("")
	}
	m.emailsInput.SetValue(strings.Join(cfg.ContactEmails, ", "))
}
