// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package switchview

import (
	"time"

	"github.com/raghavsikaria/dead-mans-switch/internal/auth"
	"github.com/raghavsikaria/dead-mans-switch/internal/switchapi"
)

// =============================================================================
// MESSAGES
// =============================================================================

// Every message produced by an asynchronous operation carries the session
// generation it was started under. Update discards messages whose
// generation no longer matches: a result that raced with a sign-out or a
// new sign-in must never touch current state.

// signInResultMsg reports the outcome of a sign-in attempt.
type signInResultMsg struct {
	err error
}

// initialLoadedMsg reports the post-sign-in check-in plus config fetch.
type initialLoadedMsg struct {
	generation uint64
	cfg        *switchapi.Config
	checkInErr error
	fetchErr   error
}

// savedMsg reports a save plus the re-fetch that follows it. err is the
// save failure; fetchErr means the save landed but the re-fetch did not,
// so cfg is nil and the last confirmed config stays as it was.
type savedMsg struct {
	generation uint64
	cfg        *switchapi.Config
	err        error
	fetchErr   error
}

// deletedMsg reports an account deletion attempt.
type deletedMsg struct {
	generation uint64
	err        error
}

// sessionEventMsg delivers one auth lifecycle event from the manager.
type sessionEventMsg struct {
	event auth.Event
	ok    bool // false when the subscription channel closed
}

// countdownTickMsg drives the periodic deadline countdown redraw.
type countdownTickMsg time.Time

// ConfigReloadedMsg delivers an externally reloaded application config
// (sent into the program by the file watcher in main).
type ConfigReloadedMsg struct {
	Theme                string
	CountdownRefreshSecs int
}
