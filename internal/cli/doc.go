// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the headless dmswitch commands: one-shot
// check-in, status, save, delete, and config management. The TUI is
// the default surface; these commands exist for cron jobs and quick
// terminal use without the full interface.
package cli
