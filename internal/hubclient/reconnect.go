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

package hubclient

import (
	"context"
	"log/slog"
	"time"
)

// minBackoff and maxBackoff bound the exponential reconnect delay (§4.9:
// "1s -> 32s cap").
const (
	minBackoff = time.Second
	maxBackoff = 32 * time.Second
)

// Backoff returns the delay before reconnect attempt number attempt
// (0-indexed): 1s, 2s, 4s, ... capped at maxBackoff.
func Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := minBackoff << attempt
	if d <= 0 || d > maxBackoff {
		return maxBackoff
	}
	return d
}

// Reconnect calls connect repeatedly with exponential backoff until it
// succeeds or ctx is cancelled. Used by the engine after a checker reports
// hub loss (§4.9 step 3).
func Reconnect(ctx context.Context, hubAddr string, connect func(ctx context.Context) error) error {
	attempt := 0
	for {
		if err := connect(ctx); err == nil {
			return nil
		} else {
			slog.Warn("hubclient: reconnect attempt failed", "hub", hubAddr, "attempt", attempt, "error", err)
		}

		wait := Backoff(attempt)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		attempt++
	}
}
