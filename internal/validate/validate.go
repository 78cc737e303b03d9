// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package validate provides pure validation of liveness policy input.
//
// The two entry points, Threshold and Emails, are deterministic and perform
// no I/O. Both return *ValidationError on rejection so callers can tag the
// failure kind and, for malformed email addresses, list every offender.
package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// =============================================================================
// POLICY BOUNDS
// =============================================================================

const (
	// MinThresholdHours is the smallest accepted check-in threshold.
	MinThresholdHours = 20

	// MaxThresholdHours is the largest accepted check-in threshold (20 days).
	MaxThresholdHours = 480
)

// emailPattern accepts local@domain.tld shaped addresses: at least one
// non-whitespace character before the @, a domain containing a dot, and no
// embedded whitespace anywhere.
var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// =============================================================================
// VALIDATION ERRORS
// =============================================================================

// Kind identifies the class of validation failure.
type Kind string

const (
	// KindRange indicates a threshold outside the accepted bounds or not an integer.
	KindRange Kind = "range"

	// KindEmpty indicates the contact email set was empty after trimming.
	KindEmpty Kind = "empty"

	// KindFormat indicates one or more email addresses failed the syntax check.
	KindFormat Kind = "format"
)

// ValidationError is a kind-tagged rejection of user input.
// For KindFormat errors, Offenders names every rejected entry so the UI can
// list them all in one message.
type ValidationError struct {
	Kind      Kind
	Offenders []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	switch e.Kind {
	case KindRange:
		return fmt.Sprintf("threshold must be a whole number between %d and %d hours",
			MinThresholdHours, MaxThresholdHours)
	case KindEmpty:
		return "at least one contact email is required"
	case KindFormat:
		return fmt.Sprintf("invalid email address(es): %s", strings.Join(e.Offenders, ", "))
	default:
		return "invalid input"
	}
}

// IsKind reports whether err is a *ValidationError of the given kind.
func IsKind(err error, kind Kind) bool {
	ve, ok := err.(*ValidationError)
	return ok && ve.Kind == kind
}

// =============================================================================
// THRESHOLD VALIDATION
// =============================================================================

// Threshold parses and validates a threshold entered as text.
// The input must parse as a base-10 integer number of hours within
// [MinThresholdHours, MaxThresholdHours] inclusive.
func Threshold(raw string) (int, error) {
	hours, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &ValidationError{Kind: KindRange}
	}
	if hours < MinThresholdHours || hours > MaxThresholdHours {
		return 0, &ValidationError{Kind: KindRange}
	}
	return hours, nil
}

// =============================================================================
// EMAIL SET VALIDATION
// =============================================================================

// Emails splits a comma-separated address list, trims whitespace, and drops
// empty entries. It rejects an empty result with KindEmpty and any
// syntactically invalid entry with KindFormat, naming every offender.
// Duplicates are preserved: syntax is the only concern here.
func Emails(raw string) ([]string, error) {
	var emails []string
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		emails = append(emails, trimmed)
	}

	if len(emails) == 0 {
		return nil, &ValidationError{Kind: KindEmpty}
	}

	var offenders []string
	for _, email := range emails {
		if !emailPattern.MatchString(email) {
			offenders = append(offenders, email)
		}
	}
	if len(offenders) > 0 {
		return nil, &ValidationError{Kind: KindFormat, Offenders: offenders}
	}

	return emails, nil
}
