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
	"time"

	"github.com/LumenLauncher/lumen-core/pkg/helpers/syncutil"
	"github.com/jonboulle/clockwork"
)

// finishedPulse is how long the Finished flag stays raised after the
// download manager reports completion, so edge-triggered observers see
// exactly one pulse.
const finishedPulse = time.Second

// InstallState tracks the single active installation. It is owned by the
// top-level application and shared by reference between the install
// operation (which mutates it through the progress extractor) and any
// observers polling it.
//
// LOCKING RULES: mu protects all fields. The pulse timer callback only
// flips the finished flag and must never call back out while holding the
// lock. Only one installation mutates the state at a time; the state does
// not serialize concurrent installs itself.
type InstallState struct {
	clock      clockwork.Clock
	pulseTimer clockwork.Timer
	game       string
	progress   Progress
	mu         syncutil.RWMutex
	inProgress bool
	finished   bool
}

// InstallStatus is a consistent snapshot of the installation state.
type InstallStatus struct {
	Game       string
	Progress   Progress
	InProgress bool
	Finished   bool
}

// NewInstallState creates an empty installation state. A nil clock falls
// back to the real one; tests inject a fake clock to drive the finished
// pulse deterministically.
func NewInstallState(clock clockwork.Clock) *InstallState {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &InstallState{clock: clock}
}

// Begin marks an installation as active for the given game.
func (s *InstallState) Begin(game string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.game = game
	s.inProgress = true
	s.progress = Progress{}
}

// Reset returns the state to empty. Called on completion, failure, or an
// external cancellation request.
func (s *InstallState) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.game = ""
	s.inProgress = false
	s.finished = false
	s.progress = Progress{}
}

// SetProgress atomically publishes a new progress snapshot. Readers never
// observe a partially updated snapshot.
func (s *InstallState) SetProgress(p Progress) { //nolint:gocritic // snapshot copied on publish
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = p
}

// MarkFinished raises the finished pulse and schedules its automatic
// reset. A pulse already in flight is restarted.
func (s *InstallState) MarkFinished() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pulseTimer != nil {
		s.pulseTimer.Stop()
	}
	s.finished = true
	s.pulseTimer = s.clock.AfterFunc(finishedPulse, func() {
		s.mu.Lock()
		s.finished = false
		s.mu.Unlock()
	})
}

func (s *InstallState) Game() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.game
}

func (s *InstallState) InProgress() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inProgress
}

func (s *InstallState) Finished() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.finished
}

func (s *InstallState) Progress() Progress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progress
}

// Status returns a consistent snapshot of all state fields at once.
func (s *InstallState) Status() InstallStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return InstallStatus{
		Game:       s.game,
		Progress:   s.progress,
		InProgress: s.inProgress,
		Finished:   s.finished,
	}
}
