// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// save.go - Save command implementation for dmswitch.
//
// Command: save
// Short:   Save the switch threshold and contact emails
//
// Examples:
//   dmswitch save --threshold 72 --emails "a@x.com,b@y.com"
//   dmswitch save                 Prompt for both values interactively
//
// Validation is entirely client-side and happens before sign-in:
// nothing goes over the wire until both fields are valid. The
// threshold must be 20-480 hours; each comma-separated email must
// look like an address. All invalid emails are reported at once, not
// just the first.
package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/raghavsikaria/dead-mans-switch/internal/validate"
)

// HandleSave validates and saves the switch configuration.
func HandleSave(args Args) error {
	rawThreshold := strings.TrimSpace(args.Threshold)
	rawEmails := strings.TrimSpace(args.Emails)

	// Prompt for anything missing from flags.
	if rawThreshold == "" || rawEmails == "" {
		if !IsTTY() {
			return fmt.Errorf("--threshold and --emails are required when stdin is not a terminal")
		}
		prompt := newPromptCLI()
		defer prompt.Close()

		var err error
		if rawThreshold == "" {
			rawThreshold, err = prompt.ReadInput(fmt.Sprintf("check-in threshold in hours (%d-%d): ",
				validate.MinThresholdHours, validate.MaxThresholdHours))
			if err != nil {
				return fmt.Errorf("read threshold: %w", err)
			}
		}
		if rawEmails == "" {
			rawEmails, err = prompt.ReadInput("contact emails (comma-separated): ")
			if err != nil {
				return fmt.Errorf("read emails: %w", err)
			}
		}
	}

	threshold, err := validate.Threshold(rawThreshold)
	if err != nil {
		return err
	}
	emails, err := validate.Emails(rawEmails)
	if err != nil {
		var verr *validate.ValidationError
		if errors.As(err, &verr) && len(verr.Offenders) > 0 {
			return fmt.Errorf("%w (invalid: %s)", err, strings.Join(verr.Offenders, ", "))
		}
		return err
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

	if err := rt.client.SaveConfig(ctx, principal, threshold, emails); err != nil {
		return fmt.Errorf("save switch config: %w", err)
	}

	if args.Quiet {
		return nil
	}
	fmt.Printf("Saved: alert after %d hours without a check-in, notifying %s.\n",
		threshold, strings.Join(emails, ", "))

	// The deadline derives from the server's last check-in time, so
	// re-fetch rather than computing it locally.
	cfg, err := rt.client.FetchConfig(ctx, principal)
	if err == nil && cfg != nil {
		printDeadlineLine(cfg)
	}
	return nil
}
