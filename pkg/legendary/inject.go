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
	"bytes"
	"io"

	"github.com/LumenLauncher/lumen-core/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
)

// inputInjector watches one output stream for a trigger substring and
// writes the pending input to the subprocess's stdin exactly once when it
// appears. After triggering it stays inert for the rest of the invocation.
type inputInjector struct {
	stdin   io.WriteCloser
	trigger *InputTrigger
	payload string
	// tail keeps the last len(prompt)-1 bytes of the watched stream so a
	// prompt split across chunk boundaries still matches.
	tail   []byte
	mu     syncutil.Mutex
	fired  bool
	closed bool
}

func newInputInjector(stdin io.WriteCloser, trigger *InputTrigger, input string) *inputInjector {
	return &inputInjector{
		stdin:   stdin,
		trigger: trigger,
		payload: input,
	}
}

// WriteImmediate writes the pending input right away and closes stdin.
// Used when no trigger condition is configured; with no input at all it
// just closes stdin so the subprocess never blocks on a read.
func (i *inputInjector) WriteImmediate() {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.payload != "" {
		i.writeLocked()
	}
	i.closeLocked()
}

// Observe inspects a chunk from the given stream and injects the pending
// input if the accumulated text now contains the trigger substring.
func (i *inputInjector) Observe(stream StreamID, chunk []byte) {
	if i.trigger == nil {
		return
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.fired || i.closed || stream != i.trigger.Stream {
		return
	}

	window := append(i.tail, chunk...) //nolint:gocritic // tail is rebuilt below
	if bytes.Contains(window, []byte(i.trigger.Prompt)) {
		log.Debug().Str("prompt", i.trigger.Prompt).Msg("input trigger matched")
		i.writeLocked()
		i.closeLocked()
		return
	}

	keep := len(i.trigger.Prompt) - 1
	if keep > len(window) {
		keep = len(window)
	}
	i.tail = append(i.tail[:0], window[len(window)-keep:]...)
}

// Close closes stdin if it is still open. Called after both output streams
// have drained so an unfired trigger cannot leave the pipe dangling.
func (i *inputInjector) Close() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.closeLocked()
}

func (i *inputInjector) writeLocked() {
	if i.fired {
		return
	}
	i.fired = true
	if _, err := io.WriteString(i.stdin, i.payload+"\n"); err != nil {
		log.Error().Err(err).Msg("failed to write input to subprocess")
	}
}

func (i *inputInjector) closeLocked() {
	if i.closed {
		return
	}
	i.closed = true
	if err := i.stdin.Close(); err != nil {
		log.Debug().Err(err).Msg("failed to close subprocess stdin")
	}
}
