// Lumen Core
// Copyright (c) 2026 The Lumen Launcher Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later

package legendary

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_ProgressLine(t *testing.T) {
	t.Parallel()

	state := NewInstallState(clockwork.NewFakeClock())
	parser := NewParser(state)

	parser.HandleLine(StreamStderr,
		"Progress: 42.50% (10/20), Running for 00:01:02, ETA: 00:02:00")

	progress := state.Progress()
	require.NotNil(t, progress.Percent)
	assert.InDelta(t, 42.5, *progress.Percent, 0.001)
	assert.Equal(t, 10, progress.DownloadedItems)
	assert.Equal(t, 20, progress.TotalItems)
	assert.Equal(t, "00:01:02", progress.Runtime)
	assert.Equal(t, "00:02:00", progress.ETA)
}

func TestParser_DownloadedTotalsLine(t *testing.T) {
	t.Parallel()

	state := NewInstallState(clockwork.NewFakeClock())
	parser := NewParser(state)

	parser.HandleLine(StreamStderr, " - Downloaded: 512.00 MiB, Written: 1024.00 MiB")

	progress := state.Progress()
	assert.InDelta(t, 512.0, progress.DownloadedTotal.Value, 0.001)
	assert.Equal(t, "MiB", progress.DownloadedTotal.Unit)
	assert.InDelta(t, 1024.0, progress.WrittenTotal.Value, 0.001)
	assert.Equal(t, "MiB", progress.WrittenTotal.Unit)
}

func TestParser_CacheUsageLine(t *testing.T) {
	t.Parallel()

	state := NewInstallState(clockwork.NewFakeClock())
	parser := NewParser(state)

	parser.HandleLine(StreamStderr, " - Cache usage: 384.00 MiB, active tasks: 12")

	progress := state.Progress()
	assert.InDelta(t, 384.0, progress.CacheUsed.Value, 0.001)
	assert.Equal(t, "MiB", progress.CacheUsed.Unit)
	assert.Equal(t, 12, progress.ActiveTasks)
}

func TestParser_DownloadRateLine(t *testing.T) {
	t.Parallel()

	state := NewInstallState(clockwork.NewFakeClock())
	parser := NewParser(state)

	parser.HandleLine(StreamStderr,
		" + Download\t- 45.20 MiB/s (raw) / 50.10 MiB/s (decompressed)")

	progress := state.Progress()
	assert.InDelta(t, 45.2, progress.DownloadRaw.Value, 0.001)
	assert.Equal(t, "MiB/s", progress.DownloadRaw.Unit)
	assert.InDelta(t, 50.1, progress.DownloadDecompressed.Value, 0.001)
	assert.Equal(t, "MiB/s", progress.DownloadDecompressed.Unit)
}

func TestParser_DiskRateLine(t *testing.T) {
	t.Parallel()

	state := NewInstallState(clockwork.NewFakeClock())
	parser := NewParser(state)

	parser.HandleLine(StreamStderr,
		" + Disk\t- 30.00 MiB/s (write) / 12.50 MiB/s (read)")

	progress := state.Progress()
	assert.InDelta(t, 30.0, progress.DiskWrite.Value, 0.001)
	assert.Equal(t, "MiB/s", progress.DiskWrite.Unit)
	assert.InDelta(t, 12.5, progress.DiskRead.Value, 0.001)
	assert.Equal(t, "MiB/s", progress.DiskRead.Unit)
}

func TestParser_UnmatchedLineLeavesFieldsUnchanged(t *testing.T) {
	t.Parallel()

	state := NewInstallState(clockwork.NewFakeClock())
	parser := NewParser(state)

	parser.HandleLine(StreamStderr,
		"Progress: 42.50% (10/20), Running for 00:01:02, ETA: 00:02:00")
	before := state.Progress()

	parser.HandleLine(StreamStderr, "[DLManager] INFO: something unrelated")
	parser.HandleLine(StreamStdout, "")

	after := state.Progress()
	assert.Equal(t, before, after)
}

func TestParser_FieldsRetainValuesAcrossLineTypes(t *testing.T) {
	t.Parallel()

	state := NewInstallState(clockwork.NewFakeClock())
	parser := NewParser(state)

	parser.HandleLine(StreamStderr,
		"Progress: 10.00% (2/20), Running for 00:00:10, ETA: 00:03:00")
	parser.HandleLine(StreamStderr, " - Downloaded: 100.00 MiB, Written: 90.00 MiB")
	parser.HandleLine(StreamStderr,
		"Progress: 20.00% (4/20), Running for 00:00:20, ETA: 00:02:40")

	progress := state.Progress()
	require.NotNil(t, progress.Percent)
	assert.InDelta(t, 20.0, *progress.Percent, 0.001)
	// totals from the earlier line survive later progress updates
	assert.InDelta(t, 100.0, progress.DownloadedTotal.Value, 0.001)
}

func TestParser_FinishedPulseAutoResets(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	state := NewInstallState(clock)
	parser := NewParser(state)

	parser.HandleLine(StreamStderr, "[DLManager] INFO: All done! Download manager quitting...")
	assert.True(t, state.Finished())

	clock.Advance(finishedPulse + time.Millisecond)
	assert.Eventually(t, func() bool { return !state.Finished() },
		time.Second, 10*time.Millisecond)
}

func TestParser_TerminalMarkerResetsState(t *testing.T) {
	t.Parallel()

	state := NewInstallState(clockwork.NewFakeClock())
	state.Begin("anemone")
	parser := NewParser(state)

	parser.HandleLine(StreamStderr,
		"Progress: 99.00% (19/20), Running for 00:05:00, ETA: 00:00:05")
	require.True(t, state.InProgress())

	parser.HandleLine(StreamStderr,
		"[Core] INFO: Finished installation process in 312.11 seconds.")

	status := state.Status()
	assert.False(t, status.InProgress)
	assert.Empty(t, status.Game)
	assert.Nil(t, status.Progress.Percent)
}

func TestParser_FailureLineCapturedForDeferredPropagation(t *testing.T) {
	t.Parallel()

	state := NewInstallState(clockwork.NewFakeClock())
	parser := NewParser(state)

	_, failed := parser.Failure()
	require.False(t, failed)

	parser.HandleLine(StreamStdout, "[DLManager] ERROR: Failure: disk full")

	msg, failed := parser.Failure()
	require.True(t, failed)
	assert.Equal(t, "disk full", msg)
}

func TestParser_MalformedNumbersDefaultToZero(t *testing.T) {
	t.Parallel()

	state := NewInstallState(clockwork.NewFakeClock())
	parser := NewParser(state)

	// 99999...9 overflows int64 far enough that Atoi fails
	parser.HandleLine(StreamStderr,
		"Progress: 42.50% (99999999999999999999/20), Running for 00:01:02, ETA: 00:02:00")

	progress := state.Progress()
	require.NotNil(t, progress.Percent)
	assert.InDelta(t, 42.5, *progress.Percent, 0.001)
	assert.Equal(t, 0, progress.DownloadedItems)
	assert.Equal(t, 20, progress.TotalItems)
}
