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

package engine_test

import (
	"context"
	"testing"

	"github.com/rocon-go/gateway/internal/adapter"
	"github.com/rocon-go/gateway/internal/config"
	"github.com/rocon-go/gateway/internal/connection"
	"github.com/rocon-go/gateway/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{Gateway: config.Gateway{Name: "gateway1"}}
}

func TestNewAppliesAdvertiseAll(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Gateway.AdvertiseAll = true
	eng := engine.New(cfg, adapter.NewFake("http://local:1"))

	allowed, err := eng.Public().Allow(connection.Connection{Type: connection.Publisher, Name: "/anything", NodeURI: "http://n/x"})
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestNewWithoutConfiguredNameGeneratesOne(t *testing.T) {
	t.Parallel()
	eng := engine.New(&config.Config{}, adapter.NewFake("http://local:1"))
	assert.NotEmpty(t, eng.Name())
}

func TestAdvertiseUnadvertise(t *testing.T) {
	t.Parallel()
	eng := engine.New(testConfig(), adapter.NewFake("http://local:1"))
	rule := connection.Rule{Type: connection.Publisher, NamePattern: "/chatter", NodePattern: ".*"}

	ok, _, err := eng.Advertise([]connection.Rule{rule})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, eng.Public().Rules().Whitelist, 1)

	ok, _, err = eng.Unadvertise([]connection.Rule{rule})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, eng.Public().Rules().Whitelist)
}

func TestFlipAndPull(t *testing.T) {
	t.Parallel()
	eng := engine.New(testConfig(), adapter.NewFake("http://local:1"))
	flipRule := connection.RemoteRule{TargetGateway: "gateway_b", Rule: connection.Rule{Type: connection.Publisher}}
	pullRule := connection.RemoteRule{TargetGateway: "gateway_c", Rule: connection.Rule{Type: connection.Publisher}}

	_, _, err := eng.Flip([]connection.RemoteRule{flipRule})
	require.NoError(t, err)
	assert.Len(t, eng.Flipped().Rules(), 1)

	_, _, err = eng.Unflip([]connection.RemoteRule{flipRule})
	require.NoError(t, err)
	assert.Empty(t, eng.Flipped().Rules())

	_, _, err = eng.Pull([]connection.RemoteRule{pullRule})
	require.NoError(t, err)
	assert.Len(t, eng.Pulled().Rules(), 1)

	_, _, err = eng.Unpull([]connection.RemoteRule{pullRule})
	require.NoError(t, err)
	assert.Empty(t, eng.Pulled().Rules())
}

func TestFlipAllModes(t *testing.T) {
	t.Parallel()
	eng := engine.New(testConfig(), adapter.NewFake("http://local:1"))

	ok, _, err := eng.FlipAll([]string{"gateway_b"}, engine.FlipAll, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	// flip_all expands to one wildcard rule per connection type: an
	// untyped wildcard rule would never match any real (typed) connection.
	assert.Len(t, eng.Flipped().Rules(), len(connection.AllConnectionTypes))

	ok, _, err = eng.FlipAll([]string{"gateway_c"}, engine.FlipListOnly, []string{"/chatter", "/odom"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, eng.Flipped().Rules(), len(connection.AllConnectionTypes)+2*len(connection.AllConnectionTypes))

	ok, msg, err := eng.FlipAll([]string{"gateway_d"}, engine.FlipAllMode("bogus"), nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, msg, "unknown flip_all mode")
}

func TestMakeAllPublicRemoveAllPublic(t *testing.T) {
	t.Parallel()
	eng := engine.New(testConfig(), adapter.NewFake("http://local:1"))

	_, _, err := eng.MakeAllPublic()
	require.NoError(t, err)
	assert.Len(t, eng.Public().Rules().Whitelist, len(connection.AllConnectionTypes))

	_, _, err = eng.RemoveAllPublic()
	require.NoError(t, err)
	assert.Empty(t, eng.Public().Rules().Whitelist)
}

func TestConnectHubRegistersAndDisconnectCleansUp(t *testing.T) {
	t.Parallel()
	eng := engine.New(testConfig(), adapter.NewFake("http://local:1"))
	ctx := context.Background()

	ok, msg, err := eng.ConnectHub(ctx, "localhost", 6380)
	require.NoError(t, err)
	assert.True(t, ok, msg)
	require.Len(t, eng.Hubs(), 1)
	assert.Equal(t, "gateway1", eng.Name())

	ok, _, err = eng.ConnectHub(ctx, "localhost", 6380)
	require.NoError(t, err)
	assert.False(t, ok, "reconnecting to an already-connected hub should be a no-op")

	ok, _, err = eng.DisconnectHub(ctx, "localhost", 6380)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, eng.Hubs())
}

func TestGatewayInfoReflectsRuleState(t *testing.T) {
	t.Parallel()
	eng := engine.New(testConfig(), adapter.NewFake("http://local:1"))
	_, _, err := eng.Advertise([]connection.Rule{{Type: connection.Publisher, NamePattern: "/chatter", NodePattern: ".*"}})
	require.NoError(t, err)

	info := eng.GatewayInfo()
	assert.Equal(t, "gateway1", info.Name)
	assert.Len(t, info.PublicRules.Whitelist, 1)
	assert.Empty(t, info.ConnectedHubs)
}
