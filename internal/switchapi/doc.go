// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package switchapi implements the HTTP client for the dead man's switch
// backend service.
//
// # Protocol
//
// The service exposes a single endpoint. The operation is selected by a
// "mode" field in the JSON request body:
//
//	{mode:"checkin", user_id}            record a liveness signal
//	{mode:"fetch",   user_id}            read the stored configuration
//	{user_id, threshold_hours,
//	 contact_emails}                     save (implicit mode)
//	{mode:"delete",  user_id}            remove the account record
//
// All requests carry "Authorization: Bearer <token>" where the token is a
// short-lived credential minted immediately before the call through a
// CredentialSource. Tokens are never cached across calls.
//
// # Error model
//
// Any non-success transport or server response is returned as *RemoteError
// carrying the HTTP status and response body. An absent configuration on
// fetch (HTTP 204 or an empty body) is a valid non-error result, returned
// as (nil, nil). The client never retries automatically.
package switchapi
