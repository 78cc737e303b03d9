// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the dmswitch TUI.
//
// Colors are defined once as lipgloss.AdaptiveColor pairs so every style
// works on both light and dark terminals. Theme bundles the configured
// lipgloss styles used by the view layer; status messages additionally
// carry ASCII shape indicators so state is readable without color.
package styles
