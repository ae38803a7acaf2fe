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

// Package adapter declares the collaborator contract for the local
// namespace (the out-of-scope "local-namespace adapter" of spec §2.2): the
// one thing the watcher asks of the process it is federating. Production
// deployments bring their own implementation of LocalMaster; this package
// only defines the shape and ships an in-memory Fake used by tests.
package adapter

import (
	"context"

	"github.com/rocon-go/gateway/internal/connection"
)

// LocalMaster enumerates the live endpoints of the local namespace and
// registers/unregisters foreign endpoints on its behalf.
type LocalMaster interface {
	// GetConnectionState returns every live local endpoint, keyed by type.
	GetConnectionState(ctx context.Context) (map[connection.ConnectionType][]connection.Connection, error)
	// Register adds a foreign connection to the local namespace and returns
	// the local node name it was registered under, so it can be revoked later.
	Register(ctx context.Context, conn connection.Connection, sourceGateway string) (localNodeName string, err error)
	// Unregister removes a previously registered foreign connection.
	Unregister(ctx context.Context, localNodeName string) error
	// GetMasterURI returns the identifying URI of the local namespace master.
	GetMasterURI() string
}
