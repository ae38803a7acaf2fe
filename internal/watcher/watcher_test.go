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

package watcher_test

import (
	"context"
	"testing"
	"time"

	"github.com/rocon-go/gateway/internal/adapter"
	"github.com/rocon-go/gateway/internal/config"
	"github.com/rocon-go/gateway/internal/connection"
	"github.com/rocon-go/gateway/internal/engine"
	"github.com/rocon-go/gateway/internal/hubclient"
	"github.com/rocon-go/gateway/internal/kv"
	"github.com/rocon-go/gateway/internal/pubsub"
	"github.com/rocon-go/gateway/internal/watcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sharedHub sets up one in-memory kv/pubsub pair standing in for a single
// Redis-backed hub, so multiple hubclient.Client instances can simulate
// distinct gateways registered against it, the same pattern hubclient's own
// tests use.
func sharedHub(t *testing.T) (kv.KV, pubsub.PubSub) {
	t.Helper()
	kvStore, err := kv.MakeKV(context.Background(), &config.Config{})
	require.NoError(t, err)
	ps, err := pubsub.MakePubSub(context.Background(), &config.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = kvStore.Close()
		_ = ps.Close()
	})
	return kvStore, ps
}

func chatter(name string) connection.Connection {
	return connection.Connection{Type: connection.Publisher, Name: name, NodeURI: "http://node:1", TypeInfo: "std_msgs/String"}
}

func TestWatcherTickAdvertisesMatchingLiveConnections(t *testing.T) {
	t.Parallel()
	kvStore, ps := sharedHub(t)
	ctx := context.Background()

	fake := adapter.NewFake("http://gateway-a:1", chatter("/chatter"))
	eng := engine.New(&config.Config{Gateway: config.Gateway{Name: "gateway_a"}}, fake)
	eng.Public().AddRule(connection.Rule{Type: connection.Publisher, NamePattern: "/chatter", NodePattern: ".*"})

	self := hubclient.New(kvStore, ps, config.Hub{})
	require.NoError(t, self.RegisterGateway(ctx, "gateway_a", false, "10.0.0.1"))
	eng.AttachHub("hub1", self)

	w := watcher.New(eng, time.Second)
	w.Tick(ctx)

	advertised, err := self.LocalAdvertisements(ctx)
	require.NoError(t, err)
	assert.Equal(t, []connection.Connection{chatter("/chatter")}, advertised)
}

func TestWatcherTickPullsFromRemoteAdvertisement(t *testing.T) {
	t.Parallel()
	kvStore, ps := sharedHub(t)
	ctx := context.Background()

	fake := adapter.NewFake("http://gateway-a:1")
	eng := engine.New(&config.Config{Gateway: config.Gateway{Name: "gateway_a"}}, fake)

	self := hubclient.New(kvStore, ps, config.Hub{})
	require.NoError(t, self.RegisterGateway(ctx, "gateway_a", false, "10.0.0.1"))
	eng.AttachHub("hub1", self)

	remote := hubclient.New(kvStore, ps, config.Hub{})
	require.NoError(t, remote.RegisterGateway(ctx, "gateway_b", false, "10.0.0.2"))
	require.NoError(t, remote.Advertise(ctx, chatter("/odom")))

	_, _, err := eng.Pull([]connection.RemoteRule{{
		TargetGateway: "gateway_b",
		Rule:          connection.Rule{Type: connection.Publisher, NamePattern: "/odom", NodePattern: ".*"},
	}})
	require.NoError(t, err)

	w := watcher.New(eng, time.Second)
	w.Tick(ctx)

	registered := fake.Registered()
	require.Len(t, registered, 1)
	for _, conn := range registered {
		assert.Equal(t, chatter("/odom"), conn)
	}
	assert.Len(t, eng.Pulled().Registrations(), 1)

	// Withdraw the remote advertisement; next tick should unregister it.
	require.NoError(t, remote.Unadvertise(ctx, chatter("/odom")))
	w.Tick(ctx)
	assert.Empty(t, fake.Registered())
	assert.Empty(t, eng.Pulled().Registrations())
}

func TestWatcherTickFlipsOutboundToRemote(t *testing.T) {
	t.Parallel()
	kvStore, ps := sharedHub(t)
	ctx := context.Background()

	fake := adapter.NewFake("http://gateway-a:1", chatter("/chatter"))
	eng := engine.New(&config.Config{Gateway: config.Gateway{Name: "gateway_a"}}, fake)

	self := hubclient.New(kvStore, ps, config.Hub{})
	require.NoError(t, self.RegisterGateway(ctx, "gateway_a", false, "10.0.0.1"))
	eng.AttachHub("hub1", self)

	remote := hubclient.New(kvStore, ps, config.Hub{})
	require.NoError(t, remote.RegisterGateway(ctx, "gateway_b", false, "10.0.0.2"))

	_, _, err := eng.Flip([]connection.RemoteRule{{
		TargetGateway: "gateway_b",
		Rule:          connection.Rule{Type: connection.Publisher, NamePattern: "/chatter", NodePattern: ".*"},
	}})
	require.NoError(t, err)

	w := watcher.New(eng, time.Second)
	w.Tick(ctx)

	offers, err := remote.GetUnblockedFlippedInConnections(ctx)
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, "gateway_a", offers[0].Source)
	assert.Equal(t, chatter("/chatter"), offers[0].Connection)

	info := eng.GatewayInfo()
	require.Len(t, info.FlippedOut, 1)
	assert.Equal(t, "gateway_b", info.FlippedOut[0].Target)
}

func TestWatcherTickRegistersAcceptedInboundFlip(t *testing.T) {
	t.Parallel()
	kvStore, ps := sharedHub(t)
	ctx := context.Background()

	fake := adapter.NewFake("http://gateway-a:1")
	eng := engine.New(&config.Config{Gateway: config.Gateway{Name: "gateway_a"}}, fake)
	eng.Flipped().AddAcceptRule(connection.RemoteRule{
		TargetGateway: "gateway_b",
		Rule:          connection.Rule{Type: connection.Publisher, NamePattern: "/chatter", NodePattern: ".*"},
	})

	self := hubclient.New(kvStore, ps, config.Hub{})
	require.NoError(t, self.RegisterGateway(ctx, "gateway_a", false, "10.0.0.1"))
	eng.AttachHub("hub1", self)

	remote := hubclient.New(kvStore, ps, config.Hub{})
	require.NoError(t, remote.RegisterGateway(ctx, "gateway_b", false, "10.0.0.2"))
	require.NoError(t, remote.SendFlipRequest(ctx, "gateway_a", chatter("/chatter"), time.Second))

	w := watcher.New(eng, time.Second)
	w.Tick(ctx)

	registered := fake.Registered()
	require.Len(t, registered, 1)
	assert.Len(t, eng.Flipped().InboundRegistrations(), 1)

	entry, err := self.RemoteGatewayInfo(ctx, "gateway_a")
	require.NoError(t, err)
	require.Len(t, entry.FlipIns, 1)
	assert.Equal(t, connection.FlipAccepted, entry.FlipIns[0].Status)
}

func TestWatcherTickBlocksInboundFlipWithNoMatchingAcceptRule(t *testing.T) {
	t.Parallel()
	kvStore, ps := sharedHub(t)
	ctx := context.Background()

	fake := adapter.NewFake("http://gateway-a:1")
	eng := engine.New(&config.Config{Gateway: config.Gateway{Name: "gateway_a"}}, fake)

	self := hubclient.New(kvStore, ps, config.Hub{})
	require.NoError(t, self.RegisterGateway(ctx, "gateway_a", false, "10.0.0.1"))
	eng.AttachHub("hub1", self)

	remote := hubclient.New(kvStore, ps, config.Hub{})
	require.NoError(t, remote.RegisterGateway(ctx, "gateway_b", false, "10.0.0.2"))
	require.NoError(t, remote.SendFlipRequest(ctx, "gateway_a", chatter("/chatter"), time.Second))

	w := watcher.New(eng, time.Second)
	w.Tick(ctx)

	assert.Empty(t, fake.Registered())
	entry, err := self.RemoteGatewayInfo(ctx, "gateway_a")
	require.NoError(t, err)
	require.Len(t, entry.FlipIns, 1)
	assert.Equal(t, connection.FlipBlocked, entry.FlipIns[0].Status)

	// Blocked offers stay blocked without being re-evaluated on the next
	// tick — GetUnblockedFlippedInConnections filters them out entirely.
	w.Tick(ctx)
	entry, err = self.RemoteGatewayInfo(ctx, "gateway_a")
	require.NoError(t, err)
	assert.Equal(t, connection.FlipBlocked, entry.FlipIns[0].Status)
}
