// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/raghavsikaria/dead-mans-switch/internal/ui/styles"
	"github.com/raghavsikaria/dead-mans-switch/internal/util"
)

// =============================================================================
// STATUS BAR
// =============================================================================

// Shortcut is one key binding shown in the status bar.
type Shortcut struct {
	Key  string
	Desc string
}

// StatusBar renders the bottom bar: signed-in principal on the left,
// key shortcuts on the right, truncated to the terminal width.
type StatusBar struct {
	Width     int
	Principal string
	Shortcuts []Shortcut
}

// View renders the status bar.
func (b *StatusBar) View(theme *styles.Theme) string {
	if b.Width <= 0 {
		return ""
	}

	left := b.Principal

	var parts []string
	for _, sc := range b.Shortcuts {
		parts = append(parts,
			theme.ShortcutKey.Render(sc.Key)+" "+theme.ShortcutDesc.Render(sc.Desc))
	}
	right := strings.Join(parts, "  ")

	// UNICODE: Widths measured in terminal cells, not runes or bytes.
	leftWidth := util.StringWidth(left)
	rightWidth := lipgloss.Width(right)

	gap := b.Width - leftWidth - rightWidth - 2
	if gap < 1 {
		// Drop the shortcuts before truncating the principal.
		right = ""
		gap = b.Width - leftWidth - 2
		if gap < 1 {
			left = util.TruncateWidth(left, b.Width-2)
			gap = 1
		}
	}

	content := left + strings.Repeat(" ", gap) + right
	return theme.StatusBar.Render(content)
}
