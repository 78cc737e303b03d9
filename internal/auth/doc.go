// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth handles sign-in, sign-out, and credential minting for the
// dmswitch client.
//
// Provider speaks to the identity provider over HTTPS. Manager sits above
// it and owns session state: it wipes any cached session at startup, signs
// in (generating a TOTP second factor when one is configured), mints a
// fresh access token for every outbound API call, and broadcasts signed-in
// and signed-out events to subscribers. Sign-out is idempotent and always
// succeeds locally even when server-side revocation fails.
package auth
