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
	"errors"
	"fmt"
)

// ErrNotSignedIn is returned by operations that require an authenticated
// legendary session before any subprocess is spawned.
var ErrNotSignedIn = errors.New("not signed in to an Epic Games account")

// ErrInstallInProgress is returned when an install is requested while
// another one is still active. Installs are not queued.
var ErrInstallInProgress = errors.New("another installation is already in progress")

// InstallationError carries the failure message the external tool reported
// on its output stream during an install.
type InstallationError struct {
	Message string
}

func (e *InstallationError) Error() string {
	return fmt.Sprintf("installation failed: %s", e.Message)
}

// DoesNotExistError reports a missing local state file or directory that
// legendary was expected to have written.
type DoesNotExistError struct {
	Path string
}

func (e *DoesNotExistError) Error() string {
	return fmt.Sprintf("does not exist: %s", e.Path)
}
