// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// session.go - Shared bootstrap for one-shot CLI commands.
//
// Every headless command (checkin, save, delete) builds the same stack:
// config, encrypted cache, identity manager, switch client. A run always
// starts signed out and signs out again before exiting.
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/raghavsikaria/dead-mans-switch/internal/auth"
	"github.com/raghavsikaria/dead-mans-switch/internal/config"
	"github.com/raghavsikaria/dead-mans-switch/internal/storage"
	"github.com/raghavsikaria/dead-mans-switch/internal/switchapi"
)

// cliRuntime holds the wired client stack for one command invocation.
type cliRuntime struct {
	cfg     *config.Config
	cache   *storage.Cache
	manager *auth.Manager
	client  *switchapi.Client
}

// loadConfig loads the effective configuration, honoring --config.
func loadConfig(args Args) (*config.Config, error) {
	if args.ConfigPath != "" {
		return config.LoadFromPath(args.ConfigPath)
	}
	return config.Load()
}

// newRuntime builds the client stack. The caller must call close.
func newRuntime(args Args) (*cliRuntime, error) {
	cfg, err := loadConfig(args)
	if err != nil {
		return nil, err
	}

	if cfg.API.Endpoint == "" {
		return nil, fmt.Errorf("no switch API endpoint configured (run 'dmswitch config set api.endpoint URL')")
	}
	if cfg.Identity.BaseURL == "" {
		return nil, fmt.Errorf("no identity provider configured (run 'dmswitch config set identity.base_url URL')")
	}

	dir, err := config.ConfigDir()
	if err != nil {
		return nil, err
	}
	cache, err := storage.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("open local cache: %w", err)
	}

	provider := auth.NewProvider(cfg.Identity.BaseURL)
	manager, err := auth.NewManager(provider, cache, cfg.Identity.TOTPSecret)
	if err != nil {
		cache.Close()
		return nil, err
	}

	client := switchapi.NewClient(cfg.API.Endpoint, manager).
		WithRateLimit(cfg.API.RequestsPerMinute).
		WithTimeout(time.Duration(cfg.API.TimeoutSecs) * time.Second)

	return &cliRuntime{
		cfg:     cfg,
		cache:   cache,
		manager: manager,
		client:  client,
	}, nil
}

// close signs out, revokes the session token, and releases the cache.
func (rt *cliRuntime) close() {
	rt.manager.Close()
	rt.cache.Close()
}

// opContext returns a context bounded by the configured request timeout.
func (rt *cliRuntime) opContext() (context.Context, context.CancelFunc) {
	timeout := time.Duration(rt.cfg.API.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = auth.DefaultTimeout
	}
	return context.WithTimeout(context.Background(), timeout)
}

// signIn authenticates using the flag, config, and environment in that
// order for the email, and DMSWITCH_PASSWORD or a no-echo prompt for
// the password.
func (rt *cliRuntime) signIn(ctx context.Context, args Args) error {
	email := strings.TrimSpace(args.Email)
	if email == "" {
		email = strings.TrimSpace(rt.cfg.Identity.Email)
	}
	if email == "" {
		if !IsTTY() {
			return fmt.Errorf("no sign-in email; use --email or set identity.email")
		}
		prompt := newPromptCLI()
		defer prompt.Close()
		line, err := prompt.ReadInput("email: ")
		if err != nil {
			return fmt.Errorf("read email: %w", err)
		}
		email = strings.TrimSpace(line)
	}
	if email == "" {
		return fmt.Errorf("sign-in email is required")
	}

	password := os.Getenv("DMSWITCH_PASSWORD")
	if password == "" {
		pw, err := readPassword("password: ")
		if err != nil {
			return err
		}
		password = pw
	}
	if password == "" {
		return fmt.Errorf("sign-in password is required")
	}

	return rt.manager.SignIn(ctx, email, password)
}

// principalID returns the signed-in principal or an error.
func (rt *cliRuntime) principalID() (string, error) {
	principal, ok := rt.manager.Principal()
	if !ok {
		return "", auth.ErrNoSession
	}
	return principal, nil
}
