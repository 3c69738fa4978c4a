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
	"regexp"
	"strconv"
	"strings"

	"github.com/LumenLauncher/lumen-core/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
)

// Terminal line markers emitted by legendary's download manager. These are
// a fragile contract with the external tool's exact log phrasing, so they
// live here as the single recognizer for each signal. The completion
// marker raises the finished pulse; the terminal marker is the final
// summary line and resets the whole installation state. They overlap but
// are not the same signal and must stay separate.
const (
	completionMarker = "All done! Download manager quitting..."
	terminalMarker   = "Finished installation process in"
	failureTag       = "Failure: "
)

var (
	progressRe = regexp.MustCompile(
		`Progress: ([\d.]+)% \((\d+)/(\d+)\), Running for ([\d:]+), ETA: ([\d:]+)`)
	downloadedRe = regexp.MustCompile(
		`Downloaded: ([\d.]+) ([A-Za-z]+), Written: ([\d.]+) ([A-Za-z]+)`)
	cacheUsageRe = regexp.MustCompile(
		`Cache usage: ([\d.]+) ([A-Za-z]+), active tasks: (\d+)`)
	downloadRateRe = regexp.MustCompile(
		`\+ Download.*?([\d.]+) ([A-Za-z]+/[A-Za-z]+) \(raw\) / ([\d.]+) ([A-Za-z]+/[A-Za-z]+) \(decompressed\)`)
	diskRateRe = regexp.MustCompile(
		`\+ Disk.*?([\d.]+) ([A-Za-z]+/[A-Za-z]+) \(write\) / ([\d.]+) ([A-Za-z]+/[A-Za-z]+) \(read\)`)
)

// Parser turns complete output lines into typed progress updates on the
// installation state. Recognizers apply in a fixed priority order and the
// first match wins per line; unmatched lines are ignored. The executor
// delivers lines from a single goroutine; the mutex guards the captured
// failure against concurrent Failure reads.
type Parser struct {
	state    *InstallState
	failure  string
	progress Progress
	mu       syncutil.Mutex
	failed   bool
}

func NewParser(state *InstallState) *Parser {
	return &Parser{state: state}
}

// Failure returns the failure message captured during streaming, if any.
// The parser cannot interrupt an in-flight subprocess; the install
// operation checks this after the process has exited and fails then.
func (p *Parser) Failure() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failure, p.failed
}

// HandleLine processes one complete output line. After a line updates any
// progress field, the whole snapshot is published atomically.
func (p *Parser) HandleLine(_ StreamID, line string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.parseProgress(line),
		p.parseDownloaded(line),
		p.parseCacheUsage(line),
		p.parseDownloadRate(line),
		p.parseDiskRate(line):
		p.state.SetProgress(p.progress)

	case strings.Contains(line, completionMarker):
		p.state.MarkFinished()

	case strings.Contains(line, terminalMarker):
		p.progress = Progress{}
		p.state.Reset()

	case strings.Contains(line, failureTag):
		msg := line[strings.Index(line, failureTag)+len(failureTag):]
		p.failure = strings.TrimSpace(msg)
		p.failed = true
		log.Warn().Str("message", p.failure).Msg("legendary reported a failure")
	}
}

func (p *Parser) parseProgress(line string) bool {
	m := progressRe.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	pct := parseFloat(m[1])
	p.progress.Percent = &pct
	p.progress.DownloadedItems = parseInt(m[2])
	p.progress.TotalItems = parseInt(m[3])
	p.progress.Runtime = m[4]
	p.progress.ETA = m[5]
	return true
}

func (p *Parser) parseDownloaded(line string) bool {
	m := downloadedRe.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	p.progress.DownloadedTotal = Rate{Value: parseFloat(m[1]), Unit: m[2]}
	p.progress.WrittenTotal = Rate{Value: parseFloat(m[3]), Unit: m[4]}
	return true
}

func (p *Parser) parseCacheUsage(line string) bool {
	m := cacheUsageRe.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	p.progress.CacheUsed = Rate{Value: parseFloat(m[1]), Unit: m[2]}
	p.progress.ActiveTasks = parseInt(m[3])
	return true
}

func (p *Parser) parseDownloadRate(line string) bool {
	m := downloadRateRe.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	p.progress.DownloadRaw = Rate{Value: parseFloat(m[1]), Unit: m[2]}
	p.progress.DownloadDecompressed = Rate{Value: parseFloat(m[3]), Unit: m[4]}
	return true
}

func (p *Parser) parseDiskRate(line string) bool {
	m := diskRateRe.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	p.progress.DiskWrite = Rate{Value: parseFloat(m[1]), Unit: m[2]}
	p.progress.DiskRead = Rate{Value: parseFloat(m[3]), Unit: m[4]}
	return true
}

// parseFloat and parseInt default to zero on malformed numbers rather than
// dropping the line.

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseInt(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}
