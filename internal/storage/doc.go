// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage is the SQLite-backed local cache for dmswitch.
//
// The cache holds two things: at most one signed-in session (email plus
// refresh token, the token encrypted with AES-256-GCM under a key derived
// from a machine-local secret file) and an append-only journal of check-in
// attempts used by the status command.
//
// The session row is deliberately short-lived: the session manager wipes
// it on every startup, so the cache only bridges the gap between sign-in
// and process exit. The journal persists across runs.
package storage
