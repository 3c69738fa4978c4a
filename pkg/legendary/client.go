// Lumen Core
// Copyright (c) 2026 The Lumen Launcher Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Lumen Core.
//
// Lumen Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Lumen Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Lumen Core.  If not, see <http://www.gnu.org/licenses/>.

package legendary

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/LumenLauncher/lumen-core/pkg/config"
	"github.com/spf13/afero"
)

// packsPrompt is the literal prompt legendary prints on stdout when a game
// offers optional packs; the pending pack list is injected when it appears.
const packsPrompt = "Additional packs [Enter to confirm]:"

// CommandRunner abstracts the subprocess runner so tests can script
// results without executing real commands.
type CommandRunner interface {
	Run(inv Invocation) Result
	ClearCache()
}

// Game is one entry of legendary's installable-games listing.
type Game struct {
	AppName string `json:"app_name"`    //nolint:tagliatelle // external JSON format from legendary
	Title   string `json:"app_title"`   //nolint:tagliatelle // external JSON format from legendary
	Version string `json:"app_version"` //nolint:tagliatelle // external JSON format from legendary
}

// GameInfo is legendary's detailed per-game report.
type GameInfo struct {
	Game struct {
		AppName string `json:"app_name"` //nolint:tagliatelle // external JSON format from legendary
		Title   string `json:"title"`
		Version string `json:"version"`
	} `json:"game"`
	Install struct {
		DownloadSize int64 `json:"download_size"` //nolint:tagliatelle // external JSON format from legendary
		DiskSize     int64 `json:"disk_size"`     //nolint:tagliatelle // external JSON format from legendary
	} `json:"install"`
}

// InstallOptions configures a single install operation. Empty BasePath and
// Platform fall back to the configured defaults.
type InstallOptions struct {
	Game       string
	BasePath   string
	GameFolder string
	Platform   string
	Packs      []string
}

// Client is the caller-facing surface of the legendary wrapper. All
// command-backed operations block until the subprocess exits; the local
// file queries return without spawning anything.
type Client struct {
	cfg    *config.Instance
	state  *InstallState
	runner CommandRunner
	lib    *library
}

// NewClient wires a client against the real runner and OS filesystem.
func NewClient(cfg *config.Instance, state *InstallState) *Client {
	runner := NewRunner(cfg.LegendaryPath(), cfg.LegendaryConfigDir())
	return newClient(cfg, state, runner, afero.NewOsFs())
}

func newClient(cfg *config.Instance, state *InstallState, runner CommandRunner, fs afero.Fs) *Client {
	return &Client{
		cfg:    cfg,
		state:  state,
		runner: runner,
		lib:    &library{fs: fs, configDir: cfg.LegendaryConfigDir()},
	}
}

// State exposes the shared installation state for observers.
func (c *Client) State() *InstallState {
	return c.state
}

// Execute runs an arbitrary legendary invocation.
func (c *Client) Execute(inv Invocation) Result {
	return c.runner.Run(inv)
}

// ClearCache drops all cached command results.
func (c *Client) ClearCache() {
	c.runner.ClearCache()
}

// Install downloads and installs a game. It requires a signed-in session
// and a single-install discipline: a second install while one is active is
// rejected, not queued. A failure line captured during streaming fails the
// operation after the subprocess has exited and resets the shared state.
func (c *Client) Install(opts InstallOptions) error {
	if !c.SignedIn() {
		return ErrNotSignedIn
	}
	if c.state.InProgress() {
		return ErrInstallInProgress
	}

	c.state.Begin(opts.Game)

	args := []string{"-y", "install", opts.Game}
	if platform := c.orDefault(opts.Platform, c.cfg.Platform()); platform != "" {
		args = append(args, "--platform", platform)
	}
	if basePath := c.orDefault(opts.BasePath, c.cfg.BasePath()); basePath != "" {
		args = append(args, "--base-path", basePath)
	}
	if opts.GameFolder != "" {
		args = append(args, "--game-folder", opts.GameFolder)
	}

	parser := NewParser(c.state)
	inv := Invocation{
		Args:   args,
		OnLine: parser.HandleLine,
	}
	if len(opts.Packs) > 0 {
		inv.Input = strings.Join(opts.Packs, ", ")
		inv.Trigger = &InputTrigger{Stream: StreamStdout, Prompt: packsPrompt}
	}

	c.runner.Run(inv)

	if msg, failed := parser.Failure(); failed {
		c.state.Reset()
		return &InstallationError{Message: msg}
	}
	return nil
}

func (*Client) orDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

// SignedIn reports whether legendary has a stored user session.
func (c *Client) SignedIn() bool {
	return c.lib.signedIn()
}

// WhoAmI returns the signed-in account from legendary's user file.
func (c *Client) WhoAmI() (Account, error) {
	return c.lib.account()
}

// SignOut deletes the stored legendary session.
func (c *Client) SignOut() error {
	res := c.runner.Run(Invocation{Args: []string{"auth", "--delete"}})
	if res.Empty() {
		return errors.New("sign-out produced no output, legendary may not have run")
	}
	return nil
}

// ListInstalled returns the locally installed games from legendary's state
// file, sorted by app name.
func (c *Client) ListInstalled() ([]InstalledGame, error) {
	return c.lib.installed()
}

// ListInstallable fetches the full installable catalogue. Results are
// cached and refreshed in the background on later calls.
func (c *Client) ListInstallable() ([]Game, error) {
	res := c.runner.Run(Invocation{
		Args:  []string{"list", "--platform", "Windows", "--third-party", "--json"},
		Cache: true,
	})
	if res.Empty() {
		return nil, errors.New("listing produced no output, legendary may not have run")
	}

	var games []Game
	if err := json.Unmarshal(res.Stdout, &games); err != nil {
		return nil, fmt.Errorf("failed to parse game listing: %w", err)
	}
	return games, nil
}

// Info fetches legendary's detailed report for one game. Results are
// cached and refreshed in the background on later calls.
func (c *Client) Info(appName string) (GameInfo, error) {
	res := c.runner.Run(Invocation{
		Args:  []string{"info", appName, "--json"},
		Cache: true,
	})
	if res.Empty() {
		return GameInfo{}, errors.New("info produced no output, legendary may not have run")
	}

	var info GameInfo
	if err := json.Unmarshal(res.Stdout, &info); err != nil {
		return GameInfo{}, fmt.Errorf("failed to parse game info: %w", err)
	}
	return info, nil
}

// ResolveAlias maps a user-defined alias to its app name; unknown names
// resolve to themselves.
func (c *Client) ResolveAlias(name string) (string, error) {
	return c.lib.resolveAlias(name)
}

// Metadata returns legendary's cached metadata for one game.
func (c *Client) Metadata(appName string) (GameMetadata, error) {
	return c.lib.metadata(appName)
}
