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

// Package legendary wraps the external legendary command-line tool: it
// spawns it as a subprocess, streams and parses its output into typed
// progress events, and exposes the typed operations the launcher front-end
// calls into.
package legendary

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// configPathEnv points legendary at the app-owned configuration directory
// where it keeps its state files.
const configPathEnv = "LEGENDARY_CONFIG_PATH"

// InputTrigger defers writing input to the subprocess until the given
// prompt substring has been observed on the given stream.
type InputTrigger struct {
	Prompt string
	Stream StreamID
}

// Invocation describes a single run of the external tool. Its identity for
// caching purposes is the canonicalized argument list; the callbacks and
// input configuration are excluded.
type Invocation struct {
	// OnLine receives each complete output line. Both streams feed one
	// merged line sequence consumed by a single goroutine, so lines are
	// delivered in arrival order per stream and the handler never runs
	// concurrently with itself.
	OnLine func(stream StreamID, line string)
	// OnRaw receives every raw chunk as it arrives. The chunk is only
	// valid for the duration of the call.
	OnRaw func(stream StreamID, chunk []byte)
	// Env entries override the base environment on key collision.
	Env     map[string]string
	Input   string
	Trigger *InputTrigger
	Args    []string
	// Cache serves a previous result for the same arguments immediately
	// and refreshes it in the background.
	Cache bool
}

// CacheKey is the canonical cache identity of the invocation.
func (inv *Invocation) CacheKey() string {
	return strings.Join(inv.Args, " ")
}

// Result is the captured output of a completed invocation. A spawn failure
// yields the zero Result; callers treat empty stdout and stderr as the
// failure signal.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Empty reports whether the invocation produced no output at all.
func (r *Result) Empty() bool {
	return len(r.Stdout) == 0 && len(r.Stderr) == 0
}

// Runner spawns the external legendary binary and captures its output. It
// owns the result cache shared by all invocations.
type Runner struct {
	binary    string
	configDir string
	cache     *ResultCache
	refreshes sync.WaitGroup
}

// NewRunner creates a runner for the given binary, pointing the tool's
// config path environment variable at configDir.
func NewRunner(binary, configDir string) *Runner {
	return &Runner{
		binary:    binary,
		configDir: configDir,
		cache:     NewResultCache(),
	}
}

// ClearCache drops all cached command results.
func (r *Runner) ClearCache() {
	r.cache.Clear()
}

// Run executes the invocation and blocks until the subprocess exits and
// both output streams are fully drained. If caching is requested and a
// prior result exists, that result is returned immediately and the same
// invocation re-runs in the background to refresh the cache; the refresh
// runs without the invocation's callbacks since only the cache sees its
// outcome.
//
// Run never returns an error: a subprocess that cannot be spawned is
// logged and surfaced as an empty Result.
func (r *Runner) Run(inv Invocation) Result {
	key := inv.CacheKey()

	if inv.Cache {
		if cached, ok := r.cache.Get(key); ok {
			log.Debug().Str("key", key).Msg("serving cached result, refreshing in background")
			r.refreshes.Add(1)
			go func() {
				defer r.refreshes.Done()
				refresh := Invocation{Args: inv.Args, Env: inv.Env}
				res := r.spawn(&refresh)
				r.cache.Put(key, res)
			}()
			return cached
		}
	}

	res := r.spawn(&inv)
	if inv.Cache {
		r.cache.Put(key, res)
	}
	return res
}

func (r *Runner) spawn(inv *Invocation) Result {
	logger := log.With().
		Str("invocation", uuid.New().String()).
		Str("args", strings.Join(inv.Args, " ")).
		Logger()

	cmd := exec.Command(r.binary, inv.Args...) //nolint:gosec // binary path comes from app config
	cmd.Env = r.buildEnv(inv.Env)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		logger.Error().Err(err).Msg("failed to open stdin pipe")
		return Result{}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		logger.Error().Err(err).Msg("failed to open stdout pipe")
		return Result{}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		logger.Error().Err(err).Msg("failed to open stderr pipe")
		return Result{}
	}

	if err := cmd.Start(); err != nil {
		logger.Error().Err(err).Msg("failed to spawn legendary")
		return Result{}
	}
	logger.Debug().Int("pid", cmd.Process.Pid).Msg("spawned legendary")

	injector := newInputInjector(stdin, inv.Trigger, inv.Input)

	// Line events from both readers merge into one sequence pulled by a
	// single consumer, so line handlers see arrival order per stream and
	// never run concurrently.
	var lines chan lineEvent
	var consumerDone chan struct{}
	if inv.OnLine != nil {
		lines = make(chan lineEvent, 64)
		consumerDone = make(chan struct{})
		go func() {
			defer close(consumerDone)
			for ev := range lines {
				inv.OnLine(ev.stream, ev.line)
			}
		}()
	}

	var outBuf, errBuf bytes.Buffer
	var readers errgroup.Group
	readers.Go(func() error {
		return consumeStream(StreamStdout, stdout, &outBuf, injector, lines, inv.OnRaw)
	})
	readers.Go(func() error {
		return consumeStream(StreamStderr, stderr, &errBuf, injector, lines, inv.OnRaw)
	})

	if inv.Trigger == nil {
		injector.WriteImmediate()
	}

	// Both streams must be drained before Wait so no buffered output is
	// lost when the process exits.
	if err := readers.Wait(); err != nil {
		logger.Warn().Err(err).Msg("output stream read failed")
	}
	if lines != nil {
		close(lines)
		<-consumerDone
	}
	injector.Close()

	exitCode := 0
	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			logger.Error().Err(err).Msg("failed waiting for legendary")
		}
	}

	res := Result{
		Stdout:   outBuf.Bytes(),
		Stderr:   errBuf.Bytes(),
		ExitCode: exitCode,
	}
	r.logStderr(&logger, res.Stderr)
	logger.Debug().Int("exit", exitCode).Msg("legendary exited")
	return res
}

// buildEnv merges the process environment, the always-set config path
// variable, and the invocation overrides. Later entries win, so caller
// values take precedence on key collision.
func (r *Runner) buildEnv(overrides map[string]string) []string {
	env := os.Environ()
	env = append(env, configPathEnv+"="+r.configDir)
	for k, v := range overrides {
		env = append(env, k+"="+v)
	}
	return env
}

// stderrSeverities maps legendary's leading severity tokens to log levels.
// Evaluated in order, first match wins; classification is observational
// only and never affects the returned result.
var stderrSeverities = []struct {
	prefix string
	level  zerolog.Level
}{
	{"CRITICAL:", zerolog.ErrorLevel},
	{"ERROR:", zerolog.ErrorLevel},
	{"WARNING:", zerolog.WarnLevel},
	{"INFO:", zerolog.InfoLevel},
	{"DEBUG:", zerolog.DebugLevel},
}

func (*Runner) logStderr(logger *zerolog.Logger, stderr []byte) {
	content := strings.TrimSpace(string(stderr))
	if content == "" {
		return
	}

	level := zerolog.InfoLevel
	for _, sev := range stderrSeverities {
		if strings.HasPrefix(content, sev.prefix) {
			level = sev.level
			break
		}
	}
	logger.WithLevel(level).Msgf("legendary: %s", content)
}
