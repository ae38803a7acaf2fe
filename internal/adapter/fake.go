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

package adapter

import (
	"context"
	"fmt"
	"sync"

	"github.com/rocon-go/gateway/internal/connection"
)

// Fake is an in-memory LocalMaster, used by watcher/engine/hubclient tests
// and as a reference implementation. Mirrors the no-backend fakes this repo
// ships for its KV store and pub/sub (internal/kv.inMemoryKV,
// internal/pubsub.inMemoryPubSub) — every external dependency gets a trivial
// in-process twin so the rest of the system is testable without it.
type Fake struct {
	mu         sync.Mutex
	masterURI  string
	live       []connection.Connection
	registered map[string]connection.Connection
	nextID     int
}

// NewFake creates a Fake seeded with the given live local connections.
func NewFake(masterURI string, live ...connection.Connection) *Fake {
	return &Fake{
		masterURI:  masterURI,
		live:       live,
		registered: make(map[string]connection.Connection),
	}
}

// SetLive replaces the set of live local connections the adapter reports.
func (f *Fake) SetLive(live []connection.Connection) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.live = live
}

func (f *Fake) GetConnectionState(_ context.Context) (map[connection.ConnectionType][]connection.Connection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[connection.ConnectionType][]connection.Connection)
	for _, c := range f.live {
		out[c.Type] = append(out[c.Type], c)
	}
	return out, nil
}

func (f *Fake) Register(_ context.Context, conn connection.Connection, sourceGateway string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	localNodeName := fmt.Sprintf("/pull/%s%s", sourceGateway, conn.Name)
	f.registered[localNodeName] = conn
	return localNodeName, nil
}

func (f *Fake) Unregister(_ context.Context, localNodeName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.registered, localNodeName)
	return nil
}

func (f *Fake) GetMasterURI() string {
	return f.masterURI
}

// Registered returns a snapshot of currently registered foreign connections,
// for test assertions.
func (f *Fake) Registered() map[string]connection.Connection {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]connection.Connection, len(f.registered))
	for k, v := range f.registered {
		out[k] = v
	}
	return out
}
