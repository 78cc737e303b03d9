// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// delete.go - Account deletion command for dmswitch.
//
// Command: delete
// Short:   Delete the account and all its server-side data
// Aliases: deregister
//
// Examples:
//   dmswitch delete               Prompts for confirmation
//   dmswitch delete --yes         Skip the confirmation prompt
//
// SECURITY: Deletion is irreversible and requires an explicit yes.
// The local session always ends, even when the server call fails, so
// a half-deleted account never lingers signed in on this machine.
package cli

import (
	"context"
	"fmt"
	"log"
)

// HandleDelete deletes the account.
func HandleDelete(args Args) error {
	if !args.Yes {
		if !IsTTY() {
			return fmt.Errorf("refusing to delete without confirmation; pass --yes")
		}
		prompt := newPromptCLI()
		ok := prompt.Confirm("Delete the account and all its data? This cannot be undone.")
		prompt.Close()
		if !ok {
			fmt.Println("Aborted.")
			return nil
		}
	}

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

	// rt.close signs out regardless of the outcome below.
	if err := rt.client.DeleteAccount(ctx, principal); err != nil {
		log.Printf("cli: account deletion failed, signing out anyway: %v", err)
		return fmt.Errorf("delete account: %w", err)
	}

	if !args.Quiet {
		fmt.Println("Account deleted.")
	}
	return nil
}
