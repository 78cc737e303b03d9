// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package switchview implements the dmswitch TUI as a single Bubble Tea
// model.
//
// The model is a small state machine: signed-out, loading, ready, saving.
// All network work runs as Bubble Tea commands; their completion messages
// carry the session generation they were started under, and Update drops
// any message whose generation no longer matches. That makes sign-out safe
// at any moment: an in-flight save or fetch from the old session can
// complete, but its result can never reach the screen.
//
// Local validation runs before any save; a field that fails keeps the
// operation entirely client-side.
package switchview
