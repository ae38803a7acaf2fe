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

import "github.com/rocon-go/gateway/internal/connection"

// LatencyStats is the health snapshot recorded by the connection checker.
type LatencyStats struct {
	Min  float64
	Avg  float64
	Max  float64
	Mdev float64
}

// WirelessStats is advisory link-quality information a gateway may publish
// about the network it reaches the hub through.
type WirelessStats struct {
	InfoAvailable bool
	NetworkType   string
	Bitrate       float64
	Quality       float64
	SignalLevel   float64
	NoiseLevel    float64
}

// NetworkStatistics is everything publish_network_statistics writes in one
// call (§4.2): the checker's latency samples plus advisory wireless info.
type NetworkStatistics struct {
	Latency  LatencyStats
	Wireless WirelessStats
}

// DebugEntry is one row of a gateway's flips/pulls debug sets.
type DebugEntry struct {
	TargetGateway string
	Name          string
	Type          connection.ConnectionType
	Node          string
}

// GatewayDirectoryEntry is the full directory snapshot for one gateway, as
// stored in the hub (§3).
type GatewayDirectoryEntry struct {
	Name              string
	Firewall          bool
	IP                string
	PublicKey         []byte
	PublicInterface   []connection.Connection
	Flips             []DebugEntry
	Pulls             []DebugEntry
	FlipIns           []connection.FlipInEntry
	Available         bool
	TimeSinceLastSeen int
	Latency           LatencyStats
}
