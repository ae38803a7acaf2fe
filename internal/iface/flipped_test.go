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

package iface_test

import (
	"testing"

	"github.com/rocon-go/gateway/internal/connection"
	"github.com/rocon-go/gateway/internal/iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlippedReconcileOutboundFlipsNewMatches(t *testing.T) {
	t.Parallel()
	f := iface.NewFlipped()
	f.AddRule(connection.RemoteRule{
		TargetGateway: "gateway_b",
		Rule:          connection.Rule{Type: connection.Publisher, NamePattern: "/chatter", NodePattern: ".*"},
	})

	toFlip, toUnflip, err := f.ReconcileOutbound([]connection.Connection{talker("/chatter")}, []string{"gateway_b", "gateway_c"})
	require.NoError(t, err)
	assert.Empty(t, toUnflip)
	require.Len(t, toFlip, 1)
	assert.Equal(t, "gateway_b", toFlip[0].Target)
}

func TestFlippedReconcileOutboundExpandsActionConnection(t *testing.T) {
	t.Parallel()
	f := iface.NewFlipped()
	f.AddRule(connection.RemoteRule{
		TargetGateway: "gateway_b",
		Rule:          connection.Rule{Type: connection.ActionClient, NamePattern: "/fibonacci", NodePattern: ".*"},
	})
	action := connection.Connection{Type: connection.ActionClient, Name: "/fibonacci", NodeURI: "http://node:1"}

	toFlip, toUnflip, err := f.ReconcileOutbound([]connection.Connection{action}, []string{"gateway_b"})
	require.NoError(t, err)
	assert.Empty(t, toUnflip)
	require.Len(t, toFlip, 5)
	names := make([]string, len(toFlip))
	for i, p := range toFlip {
		names[i] = p.Connection.Name
	}
	assert.Contains(t, names, "/fibonacci/goal")
	assert.Contains(t, names, "/fibonacci/feedback")

	// Removing the rule must withdraw all five sub-connections, leaving no
	// residual sub-endpoint.
	f.RemoveRule(connection.RemoteRule{
		TargetGateway: "gateway_b",
		Rule:          connection.Rule{Type: connection.ActionClient, NamePattern: "/fibonacci", NodePattern: ".*"},
	})
	_, toUnflip, err = f.ReconcileOutbound([]connection.Connection{action}, []string{"gateway_b"})
	require.NoError(t, err)
	assert.Len(t, toUnflip, 5)
}

func TestFlippedReconcileOutboundUnflipsWhenGatewayGoesAway(t *testing.T) {
	t.Parallel()
	f := iface.NewFlipped()
	f.AddRule(connection.RemoteRule{
		TargetGateway: "gateway_b",
		Rule:          connection.Rule{Type: connection.Publisher, NamePattern: "/chatter", NodePattern: ".*"},
	})
	_, _, err := f.ReconcileOutbound([]connection.Connection{talker("/chatter")}, []string{"gateway_b"})
	require.NoError(t, err)
	require.Len(t, f.FlippedOut(), 1)

	toFlip, toUnflip, err := f.ReconcileOutbound([]connection.Connection{talker("/chatter")}, nil)
	require.NoError(t, err)
	assert.Empty(t, toFlip)
	require.Len(t, toUnflip, 1)
	assert.Empty(t, f.FlippedOut())
}

func TestFlippedDropOutboundToTargets(t *testing.T) {
	t.Parallel()
	f := iface.NewFlipped()
	f.AddRule(connection.RemoteRule{
		TargetGateway: "gateway_b",
		Rule:          connection.Rule{Type: connection.Publisher, NamePattern: "/chatter", NodePattern: ".*"},
	})
	_, _, err := f.ReconcileOutbound([]connection.Connection{talker("/chatter")}, []string{"gateway_b"})
	require.NoError(t, err)
	require.Len(t, f.FlippedOut(), 1)

	f.DropOutboundToTargets(map[string]struct{}{"gateway_b": {}})
	assert.Empty(t, f.FlippedOut())
}

func TestFlippedEvaluateInboundAcceptsMatchingOffer(t *testing.T) {
	t.Parallel()
	f := iface.NewFlipped()
	f.AddAcceptRule(connection.RemoteRule{
		TargetGateway: "gateway_a",
		Rule:          connection.Rule{Type: connection.Publisher, NamePattern: "/chatter", NodePattern: ".*"},
	})

	offers := []iface.InboundCandidate{
		{Source: "gateway_a", Connection: talker("/chatter")},
		{Source: "gateway_a", Connection: talker("/other")},
		{Source: "gateway_x", Connection: talker("/chatter")},
	}
	verdicts, err := f.EvaluateInbound(offers)
	require.NoError(t, err)
	require.Len(t, verdicts, 3)
	assert.True(t, verdicts[0].Accept)
	assert.False(t, verdicts[1].Accept)
	assert.False(t, verdicts[2].Accept)
}

func TestFlippedEvaluateInboundAcceptAllViaWildcard(t *testing.T) {
	t.Parallel()
	f := iface.NewFlipped()
	f.AddAcceptRule(connection.RemoteRule{TargetGateway: ".*", Rule: connection.Rule{Type: connection.Publisher}})

	verdicts, err := f.EvaluateInbound([]iface.InboundCandidate{{Source: "anyone", Connection: talker("/x")}})
	require.NoError(t, err)
	require.Len(t, verdicts, 1)
	assert.True(t, verdicts[0].Accept)
}

func TestFlippedEvaluateInboundDenyOverridesAllow(t *testing.T) {
	t.Parallel()
	f := iface.NewFlipped()
	f.AddAcceptRule(connection.RemoteRule{TargetGateway: ".*", Rule: connection.Rule{Type: connection.Publisher, NamePattern: ".*", NodePattern: ".*"}})
	f.AddAcceptRule(connection.RemoteRule{TargetGateway: ".*", Rule: connection.Rule{Type: connection.Publisher, NamePattern: "/secret", NodePattern: ".*", Deny: true}})

	verdicts, err := f.EvaluateInbound([]iface.InboundCandidate{
		{Source: "gateway_a", Connection: talker("/chatter")},
		{Source: "gateway_a", Connection: talker("/secret")},
	})
	require.NoError(t, err)
	require.Len(t, verdicts, 2)
	assert.True(t, verdicts[0].Accept)
	assert.False(t, verdicts[1].Accept)
}

func TestFlippedEvaluateInboundExpandsActionAcceptRule(t *testing.T) {
	t.Parallel()
	f := iface.NewFlipped()
	f.AddAcceptRule(connection.RemoteRule{
		TargetGateway: "gateway_a",
		Rule:          connection.Rule{Type: connection.ActionClient, NamePattern: "/fibonacci", NodePattern: ".*"},
	})

	goalSub := connection.Connection{Type: connection.Publisher, Name: "/fibonacci/goal", NodeURI: "http://node:1"}
	verdicts, err := f.EvaluateInbound([]iface.InboundCandidate{{Source: "gateway_a", Connection: goalSub}})
	require.NoError(t, err)
	require.Len(t, verdicts, 1)
	assert.True(t, verdicts[0].Accept)
}

func TestFlippedReconcileInboundRegistersAcceptedOffer(t *testing.T) {
	t.Parallel()
	f := iface.NewFlipped()
	verdicts := []iface.InboundOffer{
		{Source: "gateway_a", Connection: talker("/chatter"), Accept: true},
		{Source: "gateway_a", Connection: talker("/other"), Accept: false},
	}
	toReg, toUnreg := f.ReconcileInbound(verdicts)
	assert.Empty(t, toUnreg)
	require.Len(t, toReg, 1)
	assert.Equal(t, "gateway_a", toReg[0].Source)

	f.CommitInbound(toReg[0].Source, toReg[0].Connection, connection.Registration{
		Connection: toReg[0].Connection, SourceGateway: toReg[0].Source, LocalNodeName: "/flip/chatter",
	})

	toReg, toUnreg = f.ReconcileInbound(verdicts)
	assert.Empty(t, toReg)
	assert.Empty(t, toUnreg)
}

func TestFlippedReconcileInboundUnregistersWithdrawnOffer(t *testing.T) {
	t.Parallel()
	f := iface.NewFlipped()
	f.CommitInbound("gateway_a", talker("/chatter"), connection.Registration{
		Connection: talker("/chatter"), SourceGateway: "gateway_a", LocalNodeName: "/flip/chatter",
	})

	toReg, toUnreg := f.ReconcileInbound(nil)
	assert.Empty(t, toReg)
	require.Len(t, toUnreg, 1)
	assert.Equal(t, "gateway_a", toUnreg[0].SourceGateway)

	f.DropInbound("gateway_a", talker("/chatter"))
	assert.Empty(t, f.InboundRegistrations())
}

func TestFlippedRemoveRule(t *testing.T) {
	t.Parallel()
	f := iface.NewFlipped()
	rule := connection.RemoteRule{TargetGateway: "gateway_b", Rule: connection.Rule{Type: connection.Publisher}}
	f.AddRule(rule)
	require.Len(t, f.Rules(), 1)
	f.RemoveRule(rule)
	assert.Empty(t, f.Rules())
}
