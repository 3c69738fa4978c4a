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

// Rate is a measured quantity with the unit string legendary printed it
// with, e.g. {45.2, "MiB/s"} or {512.0, "MiB"}.
type Rate struct {
	Unit  string
	Value float64
}

// Progress aggregates everything legendary has reported about the active
// download so far. Fields are updated independently as matching log lines
// arrive; a field keeps its last known value until the next matching line
// or a full state reset.
type Progress struct {
	// Percent is nil until the first progress line has been seen.
	Percent              *float64
	Runtime              string
	ETA                  string
	DownloadedTotal      Rate
	WrittenTotal         Rate
	DownloadRaw          Rate
	DownloadDecompressed Rate
	DiskWrite            Rate
	DiskRead             Rate
	CacheUsed            Rate
	DownloadedItems      int
	TotalItems           int
	ActiveTasks          int
}
