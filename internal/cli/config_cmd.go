// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Config command implementation for dmswitch.
//
// Command: config
// Short:   Show and edit the dmswitch configuration file
//
// Examples:
//   dmswitch config show
//   dmswitch config path
//   dmswitch config set api.endpoint https://switch.example.com/v1/switch
//   dmswitch config set ui.theme light
//
// 'set' edits only the file on disk; environment overrides are never
// written back, so a DMSWITCH_TOTP_SECRET set for one run does not end
// up persisted.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/raghavsikaria/dead-mans-switch/internal/config"
)

// HandleConfig dispatches config subcommands.
func HandleConfig(args Args) error {
	switch args.Subcommand {
	case "show", "":
		return handleConfigShow(args)
	case "path":
		return handleConfigPath(args)
	case "set":
		return handleConfigSet(args)
	default:
		return fmt.Errorf("unknown config subcommand %q (try show, set, path)", args.Subcommand)
	}
}

func handleConfigShow(args Args) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	// String() redacts secrets.
	fmt.Println(cfg.String())
	return nil
}

func handleConfigPath(args Args) error {
	if args.ConfigPath != "" {
		fmt.Println(args.ConfigPath)
		return nil
	}
	path, err := config.ConfigPathTOML()
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func handleConfigSet(args Args) error {
	if args.ConfigKey == "" {
		return fmt.Errorf("usage: dmswitch config set KEY VALUE")
	}

	path := args.ConfigPath
	if path == "" {
		p, err := config.ConfigPathTOML()
		if err != nil {
			return err
		}
		path = p
	}

	// Load the file itself, not the env-overridden view.
	cfg := config.Default()
	if _, err := os.Stat(path); err == nil {
		if filepath.Ext(path) == ".json" {
			if err := config.LoadJSON(cfg, path); err != nil {
				return err
			}
		} else {
			if err := config.LoadTOML(cfg, path); err != nil {
				return err
			}
		}
	}

	if err := applyConfigKey(cfg, args.ConfigKey, args.ConfigVal); err != nil {
		return err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	if filepath.Ext(path) == ".json" {
		if err := config.SaveJSON(cfg, path); err != nil {
			return err
		}
	} else {
		if err := config.SaveTOML(cfg, path); err != nil {
			return err
		}
	}

	fmt.Printf("Set %s\n", args.ConfigKey)
	return nil
}

// applyConfigKey sets a single dotted key on the config.
func applyConfigKey(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "api.endpoint":
		cfg.API.Endpoint = value
	case "api.timeout_secs":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("api.timeout_secs must be an integer: %w", err)
		}
		cfg.API.TimeoutSecs = n
	case "api.requests_per_minute":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("api.requests_per_minute must be an integer: %w", err)
		}
		cfg.API.RequestsPerMinute = n
	case "identity.base_url":
		cfg.Identity.BaseURL = value
	case "identity.email":
		cfg.Identity.Email = value
	case "identity.totp_secret":
		cfg.Identity.TOTPSecret = value
	case "ui.theme":
		cfg.UI.Theme = value
	case "ui.compact_mode":
		b, err := parseBoolValue(value)
		if err != nil {
			return fmt.Errorf("ui.compact_mode: %w", err)
		}
		cfg.UI.CompactMode = b
	case "ui.countdown_refresh_secs":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("ui.countdown_refresh_secs must be an integer: %w", err)
		}
		cfg.UI.CountdownRefreshSecs = n
	default:
		return fmt.Errorf("unknown config key %q (see 'dmswitch help' for settable keys)", key)
	}
	return nil
}

// parseBoolValue parses a boolean from common string representations.
// Accepts: true/false, yes/no, y/n, 1/0, on/off (case-insensitive)
func parseBoolValue(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1", "on":
		return true, nil
	case "false", "no", "n", "0", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean value: %s", s)
	}
}
