// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// checkin.go - One-shot check-in command for dmswitch.
//
// Command: checkin
// Short:   Sign in, record a check-in, and exit
// Aliases: check-in, ci
//
// Examples:
//   dmswitch checkin                  Interactive check-in
//   DMSWITCH_PASSWORD=... dmswitch checkin --quiet
//                                     Cron-friendly check-in
//
// The command signs in, posts a check-in (which moves the alert
// deadline forward), records the attempt in the local journal, and
// signs out. Every attempt is journaled, including failures, so
// 'dmswitch status' can show a gap when a cron job breaks silently.
package cli

import (
	"context"
	"fmt"
	"log"
	"time"
)

// HandleCheckIn performs a single check-in and exits.
func HandleCheckIn(args Args) error {
	rt, err := newRuntime(args)
	if err != nil {
		return err
	}
	defer rt.close()

	if err := rt.signIn(context.Background(), args); err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	principal, err := rt.principalID()
	if err != nil {
		return err
	}

	ctx, cancel := rt.opContext()
	defer cancel()

	checkInErr := rt.client.CheckIn(ctx, principal)

	// Journal the attempt either way.
	outcome := "ok"
	if checkInErr != nil {
		outcome = checkInErr.Error()
	}
	if err := rt.cache.RecordCheckIn(time.Now(), outcome); err != nil {
		log.Printf("cli: journal write failed: %v", err)
	}

	if checkInErr != nil {
		return fmt.Errorf("check in: %w", checkInErr)
	}

	if args.Quiet {
		return nil
	}
	fmt.Println("Checked in.")

	// Best effort: show the new deadline. The check-in already
	// succeeded, so a fetch failure here is not a command failure.
	cfg, err := rt.client.FetchConfig(ctx, principal)
	if err != nil {
		log.Printf("cli: fetch after check-in failed: %v", err)
		return nil
	}
	if cfg == nil {
		fmt.Println("No switch configured yet. Run 'dmswitch save' to set one up.")
		return nil
	}
	printDeadlineLine(cfg)
	return nil
}
