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

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/LumenLauncher/lumen-core/pkg/config"
	"github.com/LumenLauncher/lumen-core/pkg/helpers"
	"github.com/LumenLauncher/lumen-core/pkg/legendary"
	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

//nolint:cyclop // one branch per subcommand flag
func run() error {
	installGame := flag.String("install", "", "install a game by app name or alias")
	packs := flag.String("packs", "", "comma-separated optional packs for -install")
	basePath := flag.String("base-path", "", "install base path override")
	gameFolder := flag.String("game-folder", "", "install folder name override")
	platform := flag.String("platform", "", "install platform override (Windows or Mac)")
	doList := flag.Bool("list", false, "list installable games")
	doInstalled := flag.Bool("installed", false, "list installed games")
	infoGame := flag.String("info", "", "show install info for a game")
	doWhoAmI := flag.Bool("whoami", false, "show the signed-in account")
	doSignOut := flag.Bool("signout", false, "delete the stored session")
	doClearCache := flag.Bool("clear-cache", false, "drop cached command results")
	verbose := flag.Bool("verbose", false, "also log to stderr")
	flag.Parse()

	var logWriters []io.Writer
	if *verbose {
		logWriters = []io.Writer{os.Stderr}
	}
	dataDir := filepath.Join(xdg.DataHome, config.AppName)
	if err := helpers.InitLogging(dataDir, logWriters); err != nil {
		return fmt.Errorf("error initializing logging: %w", err)
	}

	configDir := filepath.Join(xdg.ConfigHome, config.AppName)
	cfg, err := config.NewConfig(configDir, config.BaseDefaults)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if cfg.DebugLogging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	state := legendary.NewInstallState(nil)
	client := legendary.NewClient(cfg, state)

	switch {
	case *installGame != "":
		return install(client, *installGame, *packs, *basePath, *gameFolder, *platform)
	case *doList:
		return list(client)
	case *doInstalled:
		return installed(client)
	case *infoGame != "":
		return info(client, *infoGame)
	case *doWhoAmI:
		return whoAmI(client)
	case *doSignOut:
		return client.SignOut()
	case *doClearCache:
		client.ClearCache()
		return nil
	default:
		flag.Usage()
		return nil
	}
}

func install(client *legendary.Client, game, packs, basePath, gameFolder, platform string) error {
	app, err := client.ResolveAlias(game)
	if err != nil {
		log.Debug().Err(err).Msg("alias lookup failed, using name as-is")
		app = game
	}

	opts := legendary.InstallOptions{
		Game:       app,
		BasePath:   basePath,
		GameFolder: gameFolder,
		Platform:   platform,
	}
	if packs != "" {
		for _, pack := range strings.Split(packs, ",") {
			opts.Packs = append(opts.Packs, strings.TrimSpace(pack))
		}
	}

	done := make(chan error, 1)
	go func() {
		done <- client.Install(opts)
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case err := <-done:
			if err != nil {
				return fmt.Errorf("install failed: %w", err)
			}
			fmt.Printf("%s installed\n", app)
			return nil
		case <-ticker.C:
			status := client.State().Status()
			if status.InProgress && status.Progress.Percent != nil {
				fmt.Printf("\r%s: %.2f%% (ETA %s)   ",
					status.Game, *status.Progress.Percent, status.Progress.ETA)
			}
		}
	}
}

func list(client *legendary.Client) error {
	games, err := client.ListInstallable()
	if err != nil {
		return err
	}
	for _, game := range games {
		fmt.Printf("%s\t%s\n", game.AppName, game.Title)
	}
	return nil
}

func installed(client *legendary.Client) error {
	games, err := client.ListInstalled()
	if err != nil {
		return err
	}
	for _, game := range games {
		fmt.Printf("%s\t%s\t%s\n", game.AppName, game.Title, game.InstallPath)
	}
	return nil
}

func info(client *legendary.Client, game string) error {
	app, err := client.ResolveAlias(game)
	if err != nil {
		app = game
	}
	gi, err := client.Info(app)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s)\ndownload: %d bytes\ndisk: %d bytes\n",
		gi.Game.Title, gi.Game.Version, gi.Install.DownloadSize, gi.Install.DiskSize)
	return nil
}

func whoAmI(client *legendary.Client) error {
	acct, err := client.WhoAmI()
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s)\n", acct.DisplayName, acct.AccountID)
	return nil
}
