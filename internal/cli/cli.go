// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command dispatch for dmswitch.
//
// CLI: Comprehensive help and examples for all commands
package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdCheckIn
	CmdStatus
	CmdSave
	CmdDelete
	CmdConfig
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet      bool
	Verbose    bool
	JSON       bool   // Output in JSON format
	ConfigPath string // Alternate config file (--config)
	Email      string // Sign-in email override (--email)

	// Command-specific
	Yes        bool   // Skip confirmation prompts (--yes)
	Threshold  string // Check-in threshold in hours (--threshold)
	Emails     string // Comma-separated contact emails (--emails)
	Limit      int    // Journal entry limit for status (--limit)
	ConfigKey  string
	ConfigVal  string
	Subcommand string

	// Raw args (remaining after flag parsing)
	Raw []string
}

const usageText = `dmswitch - personal dead man's switch client

Dmswitch is a client for a personal liveness-monitoring service. You
check in periodically; if you stop, the service alerts the contacts
you configured after your chosen threshold elapses.

Usage:
  dmswitch                    Start TUI (default)
  dmswitch checkin            Sign in, check in once, and exit
  dmswitch status, s          Show switch status and recent check-ins
  dmswitch save               Save switch configuration
  dmswitch delete             Delete the account and its data
  dmswitch config [show|set|path]  Configuration management
  dmswitch version            Show version information
  dmswitch help               Show this help

Check-in Command:
  dmswitch checkin            Record a check-in, extending the deadline
    --email ADDR              Sign-in email (overrides config)
    --quiet                   Suppress everything but errors

Status Command:
  dmswitch status             Show configuration, deadline, and journal
    --limit N                 Show last N journal entries (default: 10)
    --json                    Output in JSON format

Save Command:
  dmswitch save               Save threshold and contact emails
    --threshold N             Check-in threshold in hours (20-480)
    --emails a@x.com,b@y.com  Comma-separated alert contacts
                              Prompts interactively when flags omitted

Delete Command:
  dmswitch delete             Delete the account (irreversible)
    --yes                     Skip the confirmation prompt

Config Commands:
  dmswitch config show        Show current configuration (secrets redacted)
  dmswitch config set KEY VAL Set a configuration value
  dmswitch config path        Print the config file path

  Settable keys:
    api.endpoint              Switch API URL
    api.timeout_secs          Request timeout (1-300)
    api.requests_per_minute   Rate limit (0 disables)
    identity.base_url         Identity provider URL
    identity.email            Sign-in email pre-fill
    identity.totp_secret      TOTP secret for automatic second factor
    ui.theme                  dark, light, or auto
    ui.compact_mode           true or false
    ui.countdown_refresh_secs Countdown redraw interval (1-3600)

Global Flags:
  --config PATH   Use an alternate config file
  --email ADDR    Sign-in email for this invocation
  -q, --quiet     Minimal output
  -v, --verbose   Debug output
  --json          Output in JSON format

Environment:
  DMSWITCH_PASSWORD      Sign-in password (avoids the interactive prompt)
  DMSWITCH_EMAIL         Sign-in email
  DMSWITCH_TOTP_SECRET   TOTP secret for the second factor
  DMSWITCH_API_ENDPOINT  Switch API URL override
  DMSWITCH_IDENTITY_URL  Identity provider URL override

Examples:
  # Basic usage
  dmswitch                            Start TUI interface
  dmswitch checkin                    One-shot check-in (cron-friendly)
  dmswitch status                     Show deadline and journal

  # Configuration
  dmswitch config set api.endpoint https://switch.example.com/v1/switch
  dmswitch config set identity.email me@example.com
  dmswitch save --threshold 72 --emails "sister@example.com,friend@example.com"

  # Scripting
  dmswitch status --json              Machine-readable status
  DMSWITCH_PASSWORD=... dmswitch checkin --quiet

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("dmswitch version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// Parse parses command-line arguments and returns the command and args.
func Parse() (Command, Args) {
	args := os.Args[1:]

	remaining, parsedArgs := parseGlobalFlags(args)

	// If no remaining args, default to TUI
	if len(remaining) == 0 {
		return CmdTUI, parsedArgs
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, parsedArgs

	case "checkin", "check-in", "ci":
		return CmdCheckIn, parsedArgs

	case "status", "s":
		parseStatusArgs(&parsedArgs, remaining)
		return CmdStatus, parsedArgs

	case "save":
		parseSaveArgs(&parsedArgs, remaining)
		return CmdSave, parsedArgs

	case "delete", "deregister":
		parseDeleteArgs(&parsedArgs, remaining)
		return CmdDelete, parsedArgs

	case "config", "cfg":
		parseConfigArgs(&parsedArgs, remaining)
		return CmdConfig, parsedArgs

	case "version", "-v", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		// Unknown command: print usage rather than guessing.
		fmt.Fprintf(os.Stderr, "dmswitch: unknown command %q (try 'dmswitch help')\n", cmd)
		return CmdHelp, parsedArgs
	}
}

// parseGlobalFlags extracts global flags and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var parsed Args
	parsed.Limit = 10
	remaining := make([]string, 0, len(args))

	i := 0
	for i < len(args) {
		arg := args[i]
		switch {
		case arg == "--quiet" || arg == "-q":
			parsed.Quiet = true
		case arg == "--verbose" || arg == "-v":
			parsed.Verbose = true
		case arg == "--json":
			parsed.JSON = true
		case arg == "--config":
			if i+1 < len(args) {
				parsed.ConfigPath = args[i+1]
				i++
			}
		case strings.HasPrefix(arg, "--config="):
			parsed.ConfigPath = strings.TrimPrefix(arg, "--config=")
		case arg == "--email":
			if i+1 < len(args) {
				parsed.Email = args[i+1]
				i++
			}
		case strings.HasPrefix(arg, "--email="):
			parsed.Email = strings.TrimPrefix(arg, "--email=")
		default:
			remaining = append(remaining, arg)
		}
		i++
	}

	return remaining, parsed
}

// parseStatusArgs parses status-specific flags.
func parseStatusArgs(parsed *Args, args []string) {
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--limit" && i+1 < len(args):
			if n, err := strconv.Atoi(args[i+1]); err == nil && n > 0 {
				parsed.Limit = n
			}
			i++
		case strings.HasPrefix(args[i], "--limit="):
			if n, err := strconv.Atoi(strings.TrimPrefix(args[i], "--limit=")); err == nil && n > 0 {
				parsed.Limit = n
			}
		}
	}
}

// parseSaveArgs parses save-specific flags.
func parseSaveArgs(parsed *Args, args []string) {
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--threshold" && i+1 < len(args):
			parsed.Threshold = args[i+1]
			i++
		case strings.HasPrefix(args[i], "--threshold="):
			parsed.Threshold = strings.TrimPrefix(args[i], "--threshold=")
		case args[i] == "--emails" && i+1 < len(args):
			parsed.Emails = args[i+1]
			i++
		case strings.HasPrefix(args[i], "--emails="):
			parsed.Emails = strings.TrimPrefix(args[i], "--emails=")
		}
	}
}

// parseDeleteArgs parses delete-specific flags.
func parseDeleteArgs(parsed *Args, args []string) {
	for _, arg := range args {
		if arg == "--yes" || arg == "-y" || arg == "--confirm" {
			parsed.Yes = true
		}
	}
}

// parseConfigArgs parses config subcommand and key/value.
//
// Forms:
//
//	config            -> show
//	config show
//	config path
//	config set KEY VALUE
func parseConfigArgs(parsed *Args, args []string) {
	if len(args) == 0 {
		parsed.Subcommand = "show"
		return
	}
	parsed.Subcommand = strings.ToLower(args[0])
	if parsed.Subcommand == "set" {
		if len(args) > 1 {
			parsed.ConfigKey = args[1]
		}
		if len(args) > 2 {
			parsed.ConfigVal = strings.Join(args[2:], " ")
		}
	}
}
