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

// Package config manages the on-disk TOML configuration for Lumen Core.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/LumenLauncher/lumen-core/pkg/helpers/syncutil"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
)

const (
	SchemaVersion = 1
	CfgEnv        = "LUMEN_CFG"
)

var ErrMissingConfigPath = errors.New("config path not set")

type Values struct {
	Legendary    Legendary `toml:"legendary,omitempty"`
	ConfigSchema int       `toml:"config_schema"`
	DebugLogging bool      `toml:"debug_logging"`
}

// Legendary configures how the external legendary binary is located and run.
type Legendary struct {
	// BinaryPath is the path to the legendary executable. An empty value
	// resolves through $PATH.
	BinaryPath string `toml:"binary_path,omitempty"`
	// ConfigDir is handed to legendary via LEGENDARY_CONFIG_PATH so its
	// state files stay inside the app-owned directory tree.
	ConfigDir string `toml:"config_dir,omitempty"`
	// BasePath is the default install location passed as --base-path.
	BasePath string `toml:"base_path,omitempty"`
	// Platform is the default install platform (Windows or Mac).
	Platform string `toml:"platform,omitempty"`
}

var BaseDefaults = Values{
	ConfigSchema: SchemaVersion,
	Legendary: Legendary{
		BinaryPath: "legendary",
	},
}

type Instance struct {
	cfgPath  string
	cfgDir   string
	vals     Values
	defaults Values
	mu       syncutil.RWMutex
}

//nolint:gocritic // config struct copied for immutability
func NewConfig(configDir string, defaults Values) (*Instance, error) {
	cfgPath := os.Getenv(CfgEnv)
	if cfgPath == "" {
		cfgPath = filepath.Join(configDir, CfgFile)
	}

	cfg := Instance{
		cfgPath:  cfgPath,
		cfgDir:   configDir,
		vals:     defaults,
		defaults: defaults,
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		log.Info().Msg("saving new default config to disk")

		if err := os.MkdirAll(filepath.Dir(cfgPath), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := cfg.Save(); err != nil {
			return nil, fmt.Errorf("failed to save default config: %w", err)
		}
	}

	if err := cfg.Load(); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

func (c *Instance) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return ErrMissingConfigPath
	}
	if _, err := os.Stat(c.cfgPath); err != nil {
		return fmt.Errorf("config file inaccessible: %w", err)
	}

	data, err := os.ReadFile(c.cfgPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	vals := c.defaults
	if err := toml.Unmarshal(data, &vals); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if vals.ConfigSchema != SchemaVersion {
		log.Warn().Msgf(
			"config schema mismatch: expected %d, got %d",
			SchemaVersion, vals.ConfigSchema,
		)
	}

	c.vals = vals
	return nil
}

func (c *Instance) Save() error {
	if c.cfgPath == "" {
		return ErrMissingConfigPath
	}

	c.mu.RLock()
	data, err := toml.Marshal(&c.vals)
	c.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(c.cfgPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *Instance) LegendaryPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Legendary.BinaryPath == "" {
		return c.defaults.Legendary.BinaryPath
	}
	return c.vals.Legendary.BinaryPath
}

// LegendaryConfigDir is the directory handed to the external tool as its
// config path. Defaults to a "legendary" subdirectory of the app config dir.
func (c *Instance) LegendaryConfigDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Legendary.ConfigDir == "" {
		return filepath.Join(c.cfgDir, "legendary")
	}
	return c.vals.Legendary.ConfigDir
}

func (c *Instance) BasePath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Legendary.BasePath
}

func (c *Instance) SetBasePath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Legendary.BasePath = path
}

func (c *Instance) Platform() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Legendary.Platform
}

func (c *Instance) SetPlatform(platform string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Legendary.Platform = platform
}

func (c *Instance) DebugLogging() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.DebugLogging
}

func (c *Instance) SetDebugLogging(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.DebugLogging = enabled
}
