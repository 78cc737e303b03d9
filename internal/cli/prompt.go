// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// prompt.go - Interactive line input for the dmswitch CLI.
//
// USABILITY: Supports arrow keys for history navigation and line editing.
package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/raghavsikaria/dead-mans-switch/internal/config"
)

// promptCLI wraps liner with a persisted history file. History holds
// non-secret answers only (emails, thresholds); passwords bypass it
// entirely through readPassword.
type promptCLI struct {
	line        *liner.State
	historyFile string
}

// newPromptCLI creates a promptCLI with input history support.
func newPromptCLI() *promptCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}
	historyFile := filepath.Join(configDir, "prompt_history")

	p := &promptCLI{
		line:        line,
		historyFile: historyFile,
	}
	p.loadHistory()
	return p
}

func (p *promptCLI) loadHistory() {
	if f, err := os.Open(p.historyFile); err == nil {
		p.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt.
func (p *promptCLI) ReadInput(prompt string) (string, error) {
	input, err := p.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		p.line.AppendHistory(input)
	}
	return input, nil
}

// Confirm asks a yes/no question and returns true only on an explicit yes.
func (p *promptCLI) Confirm(prompt string) bool {
	input, err := p.line.Prompt(prompt + " [y/N] ")
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// saveHistory persists history with secure permissions.
func (p *promptCLI) saveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(p.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	p.line.WriteHistory(f)
}

// Close saves history and closes the liner.
func (p *promptCLI) Close() {
	p.saveHistory()
	p.line.Close()
}
