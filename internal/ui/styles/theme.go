// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// APPLICATION CONTAINER STYLES
	// ==========================================================================

	App    lipgloss.Style
	Header lipgloss.Style

	// ==========================================================================
	// SIGN-IN FORM STYLES
	// ==========================================================================

	FormLabel   lipgloss.Style
	FormValue   lipgloss.Style
	FormFocused lipgloss.Style
	FormError   lipgloss.Style

	// ==========================================================================
	// STATUS PANEL STYLES
	// ==========================================================================

	PanelBox       lipgloss.Style
	PanelTitle     lipgloss.Style
	DeadlineOK     lipgloss.Style
	DeadlineSoon   lipgloss.Style
	DeadlinePassed lipgloss.Style

	// ==========================================================================
	// STATUS BAR STYLES
	// ==========================================================================

	StatusBar    lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style

	// ==========================================================================
	// TOAST AND OVERLAY STYLES
	// ==========================================================================

	ToastInfo    lipgloss.Style
	ToastError   lipgloss.Style
	OverlayBox   lipgloss.Style
	OverlayTitle lipgloss.Style

	// ==========================================================================
	// SPINNER STYLES
	// ==========================================================================

	Spinner     lipgloss.Style
	SpinnerText lipgloss.Style
}

// NewTheme creates a new theme with all styles configured.
func NewTheme() *Theme {
	colorProfile := termenv.ColorProfile()

	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}

	t.App = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.Header = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true).
		Padding(0, 1)

	t.FormLabel = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Width(22)

	t.FormValue = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.FormFocused = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.FormError = lipgloss.NewStyle().
		Foreground(Rose)

	t.PanelBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(1, 2)

	t.PanelTitle = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.DeadlineOK = lipgloss.NewStyle().
		Foreground(Emerald).
		Bold(true)

	t.DeadlineSoon = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true)

	t.DeadlinePassed = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.ToastInfo = lipgloss.NewStyle().
		Foreground(Emerald).
		Padding(0, 1)

	t.ToastError = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true).
		Padding(0, 1)

	t.OverlayBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(1, 2)

	t.OverlayTitle = lipgloss.NewStyle().
		Foreground(Purple).
		Bold(true)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Cyan)

	t.SpinnerText = lipgloss.NewStyle().
		Foreground(TextSecondary)

	return t
}

// Resize updates the theme's layout dimensions.
func (t *Theme) Resize(width, height int) {
	t.Width = width
	t.Height = height
}
