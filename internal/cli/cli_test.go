// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"testing"
	"time"

	"github.com/raghavsikaria/dead-mans-switch/internal/config"
)

func TestParseGlobalFlags(t *testing.T) {
	remaining, args := parseGlobalFlags([]string{
		"--quiet", "--json", "--config", "/tmp/x.toml", "--email=me@example.com", "status",
	})

	if !args.Quiet {
		t.Error("Quiet = false, want true")
	}
	if !args.JSON {
		t.Error("JSON = false, want true")
	}
	if args.ConfigPath != "/tmp/x.toml" {
		t.Errorf("ConfigPath = %q, want /tmp/x.toml", args.ConfigPath)
	}
	if args.Email != "me@example.com" {
		t.Errorf("Email = %q, want me@example.com", args.Email)
	}
	if len(remaining) != 1 || remaining[0] != "status" {
		t.Errorf("remaining = %v, want [status]", remaining)
	}
}

func TestParseGlobalFlagsDefaults(t *testing.T) {
	_, args := parseGlobalFlags(nil)
	if args.Limit != 10 {
		t.Errorf("Limit = %d, want 10", args.Limit)
	}
	if args.Quiet || args.JSON {
		t.Error("flags should default to false")
	}
}

func TestParseStatusArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"long flag", []string{"--limit", "25"}, 25},
		{"equals form", []string{"--limit=7"}, 7},
		{"invalid ignored", []string{"--limit", "abc"}, 10},
		{"negative ignored", []string{"--limit", "-3"}, 10},
		{"absent", nil, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed := Args{Limit: 10}
			parseStatusArgs(&parsed, tt.args)
			if parsed.Limit != tt.want {
				t.Errorf("Limit = %d, want %d", parsed.Limit, tt.want)
			}
		})
	}
}

func TestParseSaveArgs(t *testing.T) {
	var parsed Args
	parseSaveArgs(&parsed, []string{"--threshold", "72", "--emails=a@x.com,b@y.com"})
	if parsed.Threshold != "72" {
		t.Errorf("Threshold = %q, want 72", parsed.Threshold)
	}
	if parsed.Emails != "a@x.com,b@y.com" {
		t.Errorf("Emails = %q", parsed.Emails)
	}
}

func TestParseDeleteArgs(t *testing.T) {
	for _, flag := range []string{"--yes", "-y", "--confirm"} {
		var parsed Args
		parseDeleteArgs(&parsed, []string{flag})
		if !parsed.Yes {
			t.Errorf("%s did not set Yes", flag)
		}
	}
}

func TestParseConfigArgs(t *testing.T) {
	var parsed Args
	parseConfigArgs(&parsed, nil)
	if parsed.Subcommand != "show" {
		t.Errorf("empty args => Subcommand = %q, want show", parsed.Subcommand)
	}

	parsed = Args{}
	parseConfigArgs(&parsed, []string{"set", "api.endpoint", "https://x.example.com"})
	if parsed.Subcommand != "set" || parsed.ConfigKey != "api.endpoint" || parsed.ConfigVal != "https://x.example.com" {
		t.Errorf("parsed = %+v", parsed)
	}
}

func TestApplyConfigKey(t *testing.T) {
	cfg := config.Default()

	if err := applyConfigKey(cfg, "api.endpoint", "https://switch.example.com/v1/switch"); err != nil {
		t.Fatalf("applyConfigKey() error = %v", err)
	}
	if cfg.API.Endpoint != "https://switch.example.com/v1/switch" {
		t.Errorf("Endpoint = %q", cfg.API.Endpoint)
	}

	if err := applyConfigKey(cfg, "ui.compact_mode", "yes"); err != nil {
		t.Fatalf("applyConfigKey() error = %v", err)
	}
	if !cfg.UI.CompactMode {
		t.Error("CompactMode = false, want true")
	}

	if err := applyConfigKey(cfg, "api.timeout_secs", "45"); err != nil {
		t.Fatalf("applyConfigKey() error = %v", err)
	}
	if cfg.API.TimeoutSecs != 45 {
		t.Errorf("TimeoutSecs = %d, want 45", cfg.API.TimeoutSecs)
	}

	if err := applyConfigKey(cfg, "api.timeout_secs", "soon"); err == nil {
		t.Error("non-integer timeout should error")
	}
	if err := applyConfigKey(cfg, "nope.nope", "x"); err == nil {
		t.Error("unknown key should error")
	}
}

func TestParseBoolValue(t *testing.T) {
	truthy := []string{"true", "YES", "y", "1", "on"}
	falsy := []string{"false", "No", "n", "0", "off"}

	for _, s := range truthy {
		got, err := parseBoolValue(s)
		if err != nil || !got {
			t.Errorf("parseBoolValue(%q) = %v, %v, want true", s, got, err)
		}
	}
	for _, s := range falsy {
		got, err := parseBoolValue(s)
		if err != nil || got {
			t.Errorf("parseBoolValue(%q) = %v, %v, want false", s, got, err)
		}
	}
	if _, err := parseBoolValue("maybe"); err == nil {
		t.Error("parseBoolValue(maybe) should error")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{26 * time.Hour, "1d 2h"},
		{3*time.Hour + 30*time.Minute, "3h 30m"},
		{45 * time.Minute, "45m"},
		{-time.Minute, "0m"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
