// dmswitch - a terminal client for a personal dead man's switch.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/raghavsikaria/dead-mans-switch/internal/auth"
	"github.com/raghavsikaria/dead-mans-switch/internal/cli"
	"github.com/raghavsikaria/dead-mans-switch/internal/config"
	"github.com/raghavsikaria/dead-mans-switch/internal/storage"
	"github.com/raghavsikaria/dead-mans-switch/internal/switchapi"
	"github.com/raghavsikaria/dead-mans-switch/internal/ui/switchview"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdTUI:
		runTUI(args)
	case cli.CmdCheckIn:
		if err := cli.HandleCheckIn(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case cli.CmdStatus:
		if err := cli.HandleStatus(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case cli.CmdSave:
		if err := cli.HandleSave(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case cli.CmdDelete:
		if err := cli.HandleDelete(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case cli.CmdConfig:
		if err := cli.HandleConfig(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case cli.CmdVersion:
		cli.PrintVersion()
	case cli.CmdHelp:
		cli.PrintUsage()
	default:
		runTUI(args)
	}
}

// journalingClient records every check-in attempt in the local cache
// before returning the result to the view.
type journalingClient struct {
	*switchapi.Client
	cache *storage.Cache
}

func (j *journalingClient) CheckIn(ctx context.Context, principalID string) error {
	err := j.Client.CheckIn(ctx, principalID)
	outcome := "ok"
	if err != nil {
		outcome = err.Error()
	}
	if jerr := j.cache.RecordCheckIn(time.Now(), outcome); jerr != nil {
		log.Printf("main: journal write failed: %v", jerr)
	}
	return err
}

// runTUI starts the TUI interface.
func runTUI(args cli.Args) {
	var cfg *config.Config
	var err error
	if args.ConfigPath != "" {
		cfg, err = config.LoadFromPath(args.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if cfg.API.Endpoint == "" || cfg.Identity.BaseURL == "" {
		fmt.Fprintf(os.Stderr, "dmswitch is not configured yet. Run:\n")
		fmt.Fprintf(os.Stderr, "  dmswitch config set api.endpoint https://your-switch-api/v1/switch\n")
		fmt.Fprintf(os.Stderr, "  dmswitch config set identity.base_url https://your-identity-provider\n")
		os.Exit(1)
	}

	dir, err := config.ConfigDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cache, err := storage.Open(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: open local cache: %v\n", err)
		os.Exit(1)
	}
	defer cache.Close()

	provider := auth.NewProvider(cfg.Identity.BaseURL)
	manager, err := auth.NewManager(provider, cache, cfg.Identity.TOTPSecret)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer manager.Close()

	client := switchapi.NewClient(cfg.API.Endpoint, manager).
		WithRateLimit(cfg.API.RequestsPerMinute).
		WithTimeout(time.Duration(cfg.API.TimeoutSecs) * time.Second)

	prefill := args.Email
	if prefill == "" {
		prefill = cfg.Identity.Email
	}

	m := switchview.New(switchview.Options{
		API:              &journalingClient{Client: client, cache: cache},
		Session:          manager,
		Events:           manager.Subscribe(),
		PrefillEmail:     prefill,
		Theme:            cfg.UI.Theme,
		Compact:          cfg.UI.CompactMode,
		CountdownRefresh: time.Duration(cfg.UI.CountdownRefreshSecs) * time.Second,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())

	// Hot-reload UI settings when the config file changes on disk.
	watchPath := args.ConfigPath
	if watchPath == "" {
		if tomlPath, perr := config.ConfigPathTOML(); perr == nil {
			watchPath = tomlPath
		}
	}
	if watchPath != "" {
		watcher, werr := config.NewWatcher(watchPath, func(updated *config.Config) {
			p.Send(switchview.ConfigReloadedMsg{
				Theme:                updated.UI.Theme,
				CountdownRefreshSecs: updated.UI.CountdownRefreshSecs,
			})
		})
		if werr != nil {
			log.Printf("main: config watch unavailable: %v", werr)
		} else if werr := watcher.Watch(); werr != nil {
			log.Printf("main: config watch unavailable: %v", werr)
			watcher.Close()
		} else {
			defer watcher.Close()
		}
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running dmswitch: %v\n", err)
		os.Exit(1)
	}
}
