// SPDX-License-Identifier: AGPL-3.0-or-later
// gateway - Federated pub/sub/RPC namespace gateway
// Copyright (C) 2026 The rocon-go Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

package engine

import (
	"time"

	"github.com/rocon-go/gateway/internal/hubclient"
)

// directoryCacheEntry is one remote gateway's last-known directory snapshot,
// kept around so a momentary hub hiccup doesn't blank out RemoteGatewayInfo
// or ConnectionGraph results (I4's crash-window tolerance extends to
// read-only queries, not just to reconciliation).
type directoryCacheEntry struct {
	info   hubclient.GatewayDirectoryEntry
	seenAt time.Time
}

// cacheRemoteGatewayInfo records a successfully-read snapshot.
func (e *Engine) cacheRemoteGatewayInfo(name string, info hubclient.GatewayDirectoryEntry, now time.Time) {
	e.dirCacheMu.Lock()
	defer e.dirCacheMu.Unlock()
	if e.dirCache == nil {
		e.dirCache = make(map[string]directoryCacheEntry)
	}
	e.dirCache[name] = directoryCacheEntry{info: info, seenAt: now}
}

// cachedRemoteGatewayInfo returns the last snapshot seen for name, if any.
func (e *Engine) cachedRemoteGatewayInfo(name string) (hubclient.GatewayDirectoryEntry, bool) {
	e.dirCacheMu.Lock()
	defer e.dirCacheMu.Unlock()
	entry, ok := e.dirCache[name]
	return entry.info, ok
}

// PruneDirectoryCacheOlderThan drops cached snapshots not refreshed within
// maxAge, and returns how many were removed. Defensive cleanup only: the
// watcher's level-triggered reconciliation never depends on this cache for
// correctness, so a missed prune never causes incorrect behavior, only a
// slowly-growing cache.
func (e *Engine) PruneDirectoryCacheOlderThan(maxAge time.Duration, now time.Time) int {
	e.dirCacheMu.Lock()
	defer e.dirCacheMu.Unlock()
	pruned := 0
	for name, entry := range e.dirCache {
		if now.Sub(entry.seenAt) > maxAge {
			delete(e.dirCache, name)
			pruned++
		}
	}
	return pruned
}
