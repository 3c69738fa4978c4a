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
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

// Local state files legendary maintains inside its config directory. They
// are read-only inputs here; only the external tool writes them.
const (
	userFile      = "user.json"
	installedFile = "installed.json"
	aliasesFile   = "aliases.json"
	metadataDir   = "metadata"
)

// Account is the signed-in Epic Games account as recorded by legendary.
type Account struct {
	DisplayName string `json:"displayName"` //nolint:tagliatelle // external JSON format from legendary
	AccountID   string `json:"account_id"`  //nolint:tagliatelle // external JSON format from legendary
}

// InstalledGame is one entry of legendary's installed-games file.
type InstalledGame struct {
	AppName     string `json:"app_name"`     //nolint:tagliatelle // external JSON format from legendary
	Title       string `json:"title"`        //nolint:tagliatelle // external JSON format from legendary
	Version     string `json:"version"`      //nolint:tagliatelle // external JSON format from legendary
	InstallPath string `json:"install_path"` //nolint:tagliatelle // external JSON format from legendary
	Platform    string `json:"platform"`     //nolint:tagliatelle // external JSON format from legendary
	InstallSize int64  `json:"install_size"` //nolint:tagliatelle // external JSON format from legendary
}

// GameMetadata is the per-game metadata file legendary caches after a
// library sync.
type GameMetadata struct {
	AppName string `json:"app_name"`  //nolint:tagliatelle // external JSON format from legendary
	Title   string `json:"app_title"` //nolint:tagliatelle // external JSON format from legendary
}

// library answers the no-delay local-file queries against legendary's own
// state files. The filesystem is injected so tests run on a memory FS.
type library struct {
	fs        afero.Fs
	configDir string
}

func (l *library) path(name string) string {
	return filepath.Join(l.configDir, name)
}

// readJSON decodes a legendary state file, surfacing a missing file as
// DoesNotExistError.
func (l *library) readJSON(path string, v any) error {
	exists, err := afero.Exists(l.fs, path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !exists {
		return &DoesNotExistError{Path: path}
	}

	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func (l *library) account() (Account, error) {
	var acct Account
	if err := l.readJSON(l.path(userFile), &acct); err != nil {
		return Account{}, err
	}
	return acct, nil
}

func (l *library) signedIn() bool {
	acct, err := l.account()
	return err == nil && acct.DisplayName != ""
}

func (l *library) installed() ([]InstalledGame, error) {
	games := make(map[string]InstalledGame)
	if err := l.readJSON(l.path(installedFile), &games); err != nil {
		return nil, err
	}

	list := make([]InstalledGame, 0, len(games))
	for _, game := range games {
		list = append(list, game)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].AppName < list[j].AppName
	})
	return list, nil
}

// resolveAlias maps a user-defined alias to its app name. Unknown aliases
// resolve to themselves so callers can pass ids and aliases
// interchangeably.
func (l *library) resolveAlias(name string) (string, error) {
	aliases := make(map[string]string)
	if err := l.readJSON(l.path(aliasesFile), &aliases); err != nil {
		return "", err
	}
	if app, ok := aliases[name]; ok {
		return app, nil
	}
	return name, nil
}

func (l *library) metadata(appName string) (GameMetadata, error) {
	var meta GameMetadata
	path := l.path(filepath.Join(metadataDir, appName+".json"))
	if err := l.readJSON(path, &meta); err != nil {
		return GameMetadata{}, err
	}
	return meta, nil
}
