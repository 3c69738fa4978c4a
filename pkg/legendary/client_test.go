// Lumen Core
// Copyright (c) 2026 The Lumen Launcher Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later

package legendary

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/LumenLauncher/lumen-core/pkg/config"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner records invocations and scripts results without spawning
// real subprocesses, mirroring how the executor is mocked elsewhere.
type fakeRunner struct {
	respond      func(inv Invocation) Result
	invocations  []Invocation
	mu           sync.Mutex
	cacheCleared bool
}

func (f *fakeRunner) Run(inv Invocation) Result {
	f.mu.Lock()
	f.invocations = append(f.invocations, inv)
	f.mu.Unlock()
	if f.respond != nil {
		return f.respond(inv)
	}
	return Result{}
}

func (f *fakeRunner) ClearCache() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cacheCleared = true
}

func (f *fakeRunner) last(t *testing.T) Invocation {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.invocations)
	return f.invocations[len(f.invocations)-1]
}

func (f *fakeRunner) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.invocations)
}

func okResult() Result {
	return Result{Stdout: []byte("out"), Stderr: []byte("err")}
}

func testClient(t *testing.T, signedIn bool) (*Client, *fakeRunner, afero.Fs) {
	t.Helper()

	cfg, err := config.NewConfig(t.TempDir(), config.BaseDefaults)
	require.NoError(t, err)

	fs := afero.NewMemMapFs()
	if signedIn {
		writeUserFile(t, fs, cfg.LegendaryConfigDir())
	}

	runner := &fakeRunner{}
	state := NewInstallState(clockwork.NewFakeClock())
	return newClient(cfg, state, runner, fs), runner, fs
}

func writeUserFile(t *testing.T, fs afero.Fs, configDir string) {
	t.Helper()
	err := afero.WriteFile(fs,
		filepath.Join(configDir, userFile),
		[]byte(`{"displayName": "gamer", "account_id": "abc123"}`), 0o600)
	require.NoError(t, err)
}

func TestClient_InstallNotSignedIn(t *testing.T) {
	t.Parallel()

	client, runner, _ := testClient(t, false)

	err := client.Install(InstallOptions{Game: "anemone"})

	require.ErrorIs(t, err, ErrNotSignedIn)
	assert.Zero(t, runner.count(), "no subprocess may be spawned")
	assert.False(t, client.State().InProgress())
}

func TestClient_InstallRejectsConcurrent(t *testing.T) {
	t.Parallel()

	client, runner, _ := testClient(t, true)
	client.State().Begin("other-game")

	err := client.Install(InstallOptions{Game: "anemone"})

	require.ErrorIs(t, err, ErrInstallInProgress)
	assert.Zero(t, runner.count())
}

func TestClient_InstallBuildsArguments(t *testing.T) {
	t.Parallel()

	client, runner, _ := testClient(t, true)
	runner.respond = func(Invocation) Result { return okResult() }

	err := client.Install(InstallOptions{
		Game:       "anemone",
		Platform:   "Windows",
		BasePath:   "/games",
		GameFolder: "Anemone",
	})
	require.NoError(t, err)

	inv := runner.last(t)
	assert.Equal(t, []string{
		"-y", "install", "anemone",
		"--platform", "Windows",
		"--base-path", "/games",
		"--game-folder", "Anemone",
	}, inv.Args)
	assert.Nil(t, inv.Trigger)
	assert.Empty(t, inv.Input)
}

func TestClient_InstallWiresPacksAsTriggeredInput(t *testing.T) {
	t.Parallel()

	client, runner, _ := testClient(t, true)
	runner.respond = func(Invocation) Result { return okResult() }

	err := client.Install(InstallOptions{
		Game:  "anemone",
		Packs: []string{"pack1", "pack2"},
	})
	require.NoError(t, err)

	inv := runner.last(t)
	require.NotNil(t, inv.Trigger)
	assert.Equal(t, StreamStdout, inv.Trigger.Stream)
	assert.Equal(t, "Additional packs [Enter to confirm]:", inv.Trigger.Prompt)
	assert.Equal(t, "pack1, pack2", inv.Input)
}

func TestClient_InstallFailureLineFailsAfterExit(t *testing.T) {
	t.Parallel()

	client, runner, _ := testClient(t, true)
	runner.respond = func(inv Invocation) Result {
		inv.OnLine(StreamStderr, "Progress: 10.00% (1/10), Running for 00:00:05, ETA: 00:01:00")
		inv.OnLine(StreamStdout, "[DLManager] ERROR: Failure: disk full")
		return okResult()
	}

	err := client.Install(InstallOptions{Game: "anemone"})

	var instErr *InstallationError
	require.ErrorAs(t, err, &instErr)
	assert.Equal(t, "disk full", instErr.Message)

	status := client.State().Status()
	assert.False(t, status.InProgress)
	assert.Empty(t, status.Game)
}

func TestClient_InstallPublishesProgressDuringRun(t *testing.T) {
	t.Parallel()

	client, runner, _ := testClient(t, true)
	runner.respond = func(inv Invocation) Result {
		inv.OnLine(StreamStderr, "Progress: 42.50% (10/20), Running for 00:01:02, ETA: 00:02:00")
		return okResult()
	}

	err := client.Install(InstallOptions{Game: "anemone"})
	require.NoError(t, err)

	// no terminal marker arrived, so the state is left as published
	status := client.State().Status()
	assert.True(t, status.InProgress)
	assert.Equal(t, "anemone", status.Game)
	require.NotNil(t, status.Progress.Percent)
	assert.InDelta(t, 42.5, *status.Progress.Percent, 0.001)
}

func TestClient_InstallDefaultsFromConfig(t *testing.T) {
	t.Parallel()

	cfg, err := config.NewConfig(t.TempDir(), config.BaseDefaults)
	require.NoError(t, err)
	cfg.SetBasePath("/default/games")
	cfg.SetPlatform("Mac")

	fs := afero.NewMemMapFs()
	writeUserFile(t, fs, cfg.LegendaryConfigDir())
	runner := &fakeRunner{respond: func(Invocation) Result { return okResult() }}
	client := newClient(cfg, NewInstallState(clockwork.NewFakeClock()), runner, fs)

	require.NoError(t, client.Install(InstallOptions{Game: "anemone"}))

	inv := runner.last(t)
	assert.Equal(t, []string{
		"-y", "install", "anemone",
		"--platform", "Mac",
		"--base-path", "/default/games",
	}, inv.Args)
}

func TestClient_SignOut(t *testing.T) {
	t.Parallel()

	client, runner, _ := testClient(t, true)
	runner.respond = func(Invocation) Result { return okResult() }

	require.NoError(t, client.SignOut())

	inv := runner.last(t)
	assert.Equal(t, []string{"auth", "--delete"}, inv.Args)
	assert.False(t, inv.Cache)
}

func TestClient_SignOutEmptyResultIsError(t *testing.T) {
	t.Parallel()

	client, _, _ := testClient(t, true)

	assert.Error(t, client.SignOut())
}

func TestClient_ListInstallable(t *testing.T) {
	t.Parallel()

	client, runner, _ := testClient(t, true)
	runner.respond = func(Invocation) Result {
		return Result{
			Stdout: []byte(`[{"app_name": "anemone", "app_title": "Anemone", "app_version": "1.2"}]`),
			Stderr: []byte("INFO: listing\n"),
		}
	}

	games, err := client.ListInstallable()
	require.NoError(t, err)

	require.Len(t, games, 1)
	assert.Equal(t, "anemone", games[0].AppName)
	assert.Equal(t, "Anemone", games[0].Title)

	inv := runner.last(t)
	assert.Equal(t, []string{"list", "--platform", "Windows", "--third-party", "--json"}, inv.Args)
	assert.True(t, inv.Cache)
}

func TestClient_Info(t *testing.T) {
	t.Parallel()

	client, runner, _ := testClient(t, true)
	runner.respond = func(Invocation) Result {
		return Result{
			Stdout: []byte(`{
				"game": {"app_name": "anemone", "title": "Anemone", "version": "1.2"},
				"install": {"download_size": 1000, "disk_size": 2000}
			}`),
			Stderr: []byte("INFO: info\n"),
		}
	}

	info, err := client.Info("anemone")
	require.NoError(t, err)

	assert.Equal(t, "Anemone", info.Game.Title)
	assert.Equal(t, int64(1000), info.Install.DownloadSize)
	assert.Equal(t, int64(2000), info.Install.DiskSize)

	inv := runner.last(t)
	assert.Equal(t, []string{"info", "anemone", "--json"}, inv.Args)
	assert.True(t, inv.Cache)
}

func TestClient_WhoAmI(t *testing.T) {
	t.Parallel()

	client, _, _ := testClient(t, true)

	acct, err := client.WhoAmI()
	require.NoError(t, err)
	assert.Equal(t, "gamer", acct.DisplayName)
	assert.Equal(t, "abc123", acct.AccountID)
	assert.True(t, client.SignedIn())
}

func TestClient_WhoAmIMissingUserFile(t *testing.T) {
	t.Parallel()

	client, _, _ := testClient(t, false)

	_, err := client.WhoAmI()
	var notFound *DoesNotExistError
	require.ErrorAs(t, err, &notFound)
	assert.False(t, client.SignedIn())
}

func TestClient_ClearCacheDelegates(t *testing.T) {
	t.Parallel()

	client, runner, _ := testClient(t, true)
	client.ClearCache()

	runner.mu.Lock()
	defer runner.mu.Unlock()
	assert.True(t, runner.cacheCleared)
}
