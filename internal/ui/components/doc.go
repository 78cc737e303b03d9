// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides small reusable UI pieces for the dmswitch
// TUI: the loading spinner, the bottom status bar, and transient toasts.
// Components hold their own state and render against a styles.Theme.
package components
