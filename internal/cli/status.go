// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Status command implementation for dmswitch.
//
// Command: status
// Short:   Display switch configuration, deadline, and journal
// Aliases: s
//
// Examples:
//   dmswitch status                 Show switch status
//   dmswitch status --limit 25      Show last 25 journal entries
//   dmswitch status --json          Machine-readable status
//
// Status Sections:
//   Switch:    Threshold, contact emails, last check-in
//   Deadline:  Next alert time and remaining margin
//   Journal:   Recent check-in attempts from the local cache
//
// NOTE: Status only fetches; it never posts a check-in, so running it
// does not move the deadline.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/raghavsikaria/dead-mans-switch/internal/deadline"
	"github.com/raghavsikaria/dead-mans-switch/internal/storage"
	"github.com/raghavsikaria/dead-mans-switch/internal/switchapi"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	statusTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")). // Cyan
				MarginBottom(1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")). // White
			MarginTop(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")). // Light gray
			Width(14)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")) // White

	valueGreenStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82")) // Green

	valueYellowStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("220")) // Yellow

	valueRedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // Red

	valueDimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242")) // Dim
)

// soonWindow is how close to the deadline counts as "soon".
const soonWindow = 24 * time.Hour

// =============================================================================
// JSON OUTPUT
// =============================================================================

type statusCheckInJSON struct {
	At      string `json:"at"`
	Outcome string `json:"outcome"`
}

type statusJSON struct {
	Configured     bool                `json:"configured"`
	ThresholdHours int                 `json:"threshold_hours,omitempty"`
	ContactEmails  []string            `json:"contact_emails,omitempty"`
	LastCheckIn    string              `json:"last_checkin,omitempty"`
	NextAlertTime  string              `json:"next_alert_time,omitempty"`
	RemainingSecs  int64               `json:"remaining_secs"`
	Journal        []statusCheckInJSON `json:"journal"`
}

// =============================================================================
// COMMAND HANDLER
// =============================================================================

// HandleStatus displays switch status.
func HandleStatus(args Args) error {
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

	cfg, err := rt.client.FetchConfig(ctx, principal)
	if err != nil {
		return fmt.Errorf("fetch switch config: %w", err)
	}

	records, err := rt.cache.RecentCheckIns(args.Limit)
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}

	if args.JSON {
		return printStatusJSON(cfg, records)
	}

	printStatusText(principal, cfg, records)
	return nil
}

func printStatusJSON(cfg *switchapi.Config, records []storage.CheckInRecord) error {
	out := statusJSON{Journal: make([]statusCheckInJSON, 0, len(records))}
	for _, r := range records {
		out.Journal = append(out.Journal, statusCheckInJSON{
			At:      r.At.Format(time.RFC3339),
			Outcome: r.Outcome,
		})
	}
	if cfg != nil {
		out.Configured = true
		out.ThresholdHours = cfg.ThresholdHours
		out.ContactEmails = cfg.ContactEmails
		if !cfg.LastCheckIn.IsZero() {
			next := deadline.NextAlertTime(cfg.LastCheckIn, cfg.ThresholdHours)
			out.LastCheckIn = cfg.LastCheckIn.Format(time.RFC3339)
			out.NextAlertTime = next.Format(time.RFC3339)
			out.RemainingSecs = int64(deadline.Remaining(cfg.LastCheckIn, cfg.ThresholdHours, time.Now()) / time.Second)
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func printStatusText(principal string, cfg *switchapi.Config, records []storage.CheckInRecord) {
	fmt.Println(statusTitleStyle.Render("dmswitch status"))
	fmt.Printf("%s %s\n", labelStyle.Render("Account"), valueStyle.Render(principal))

	fmt.Println(sectionStyle.Render("Switch"))
	if cfg == nil {
		fmt.Println(valueDimStyle.Render("  Not configured. Run 'dmswitch save' to set up the switch."))
	} else {
		fmt.Printf("%s %s\n", labelStyle.Render("Threshold"),
			valueStyle.Render(fmt.Sprintf("%d hours", cfg.ThresholdHours)))
		fmt.Printf("%s %s\n", labelStyle.Render("Contacts"),
			valueStyle.Render(strings.Join(cfg.ContactEmails, ", ")))

		fmt.Println(sectionStyle.Render("Deadline"))
		printDeadlineLine(cfg)
	}

	fmt.Println(sectionStyle.Render("Journal"))
	if len(records) == 0 {
		fmt.Println(valueDimStyle.Render("  No local check-in records."))
	}
	for _, r := range records {
		outcome := valueGreenStyle.Render("ok")
		if r.Outcome != "ok" {
			outcome = valueRedStyle.Render(r.Outcome)
		}
		fmt.Printf("  %s  %s\n", valueDimStyle.Render(r.At.Format("2006-01-02 15:04")), outcome)
	}
}

// printDeadlineLine prints the next alert time and remaining margin.
func printDeadlineLine(cfg *switchapi.Config) {
	if cfg.LastCheckIn.IsZero() {
		fmt.Println(valueDimStyle.Render("  No check-in on record yet."))
		return
	}

	next := deadline.NextAlertTime(cfg.LastCheckIn, cfg.ThresholdHours)
	remaining := deadline.Remaining(cfg.LastCheckIn, cfg.ThresholdHours, time.Now())

	fmt.Printf("%s %s\n", labelStyle.Render("Next alert"), valueStyle.Render(deadline.FormatInstant(next)))
	switch {
	case remaining <= 0:
		fmt.Printf("%s %s\n", labelStyle.Render("Remaining"),
			valueRedStyle.Render("deadline passed; alerts may have been sent"))
	case remaining <= soonWindow:
		fmt.Printf("%s %s\n", labelStyle.Render("Remaining"),
			valueYellowStyle.Render(formatDuration(remaining)))
	default:
		fmt.Printf("%s %s\n", labelStyle.Render("Remaining"),
			valueGreenStyle.Render(formatDuration(remaining)))
	}
}

// formatDuration renders a coarse human duration ("2d 4h", "3h 30m", "45m").
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	days := int(d / (24 * time.Hour))
	hours := int(d/time.Hour) % 24
	mins := int(d/time.Minute) % 60
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, mins)
	default:
		return fmt.Sprintf("%dm", mins)
	}
}
