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

// Package gatewayerrors collects the sentinel error kinds named in spec §7,
// following this repo's own convention of package-level Err* sentinels
// (see internal/config's ErrInvalidRedisHost and friends) rather than a
// hierarchy of custom error types.
package gatewayerrors

import "errors"

var (
	// ErrHubConnectionLost marks any hub I/O failure. Handled internally by
	// the engine per §4.9 — it must never be returned to an operator command.
	ErrHubConnectionLost = errors.New("hub connection lost")
	// ErrHubNotFound is returned at connect time when the target host has no
	// hub listening.
	ErrHubNotFound = errors.New("hub not found at the given address")
	// ErrHubNameNotFound is returned when a hub is reachable but refuses to
	// identify itself as a rocon hub.
	ErrHubNameNotFound = errors.New("hub name could not be resolved")
	// ErrGatewayUnavailable is returned when a remote gateway referenced by a
	// query no longer exists on the hub.
	ErrGatewayUnavailable = errors.New("remote gateway unavailable")
	// ErrConnectionType is returned synchronously when a rule names an
	// unknown ConnectionType.
	ErrConnectionType = errors.New("unknown connection type")
	// ErrLocalAdapter marks a failure to register/unregister a connection
	// with the local namespace adapter.
	ErrLocalAdapter = errors.New("local adapter operation failed")
	// ErrPublicKeyTimeout is returned by send_flip_request when the remote
	// gateway's public key never appears before the timeout elapses.
	ErrPublicKeyTimeout = errors.New("timed out waiting for remote gateway public key")
)
