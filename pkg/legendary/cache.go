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
	"github.com/LumenLauncher/lumen-core/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
)

// ResultCache stores the last completed result per canonical command key.
// Cached results are served immediately while a background run refreshes
// them (stale-while-revalidate).
type ResultCache struct {
	results map[string]Result
	mu      syncutil.RWMutex
}

func NewResultCache() *ResultCache {
	return &ResultCache{
		results: make(map[string]Result),
	}
}

// Get returns the cached result for key, if any.
func (c *ResultCache) Get(key string) (Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	res, ok := c.results[key]
	return res, ok
}

// Put stores a result for key. Results with an empty stdout or stderr are
// never cached: an invocation that produced no output on either stream is
// treated as failed or incomplete.
func (c *ResultCache) Put(key string, res Result) { //nolint:gocritic // result copied into the cache
	if len(res.Stdout) == 0 || len(res.Stderr) == 0 {
		log.Debug().Str("key", key).Msg("skipping cache of incomplete result")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[key] = res
}

// Clear drops all cached results.
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = make(map[string]Result)
}
