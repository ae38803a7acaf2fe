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

// Package hubclient owns one logical connection to a hub: it persists this
// gateway's directory entry, reads others', posts flip requests into the
// remote's flip_ins set, and encrypts flip payloads; payloads are not
// signed, and flip requests are not sent over pub/sub. One Client exists per connected
// hub (§4.2); the engine keeps a registry of them keyed by "host:port".
package hubclient

import (
	"fmt"
	"time"
)

// gatewaylistKey is the single well-known set every gateway registers itself
// into on connect.
const gatewaylistKey = "rocon:hub:gatewaylist"

// MaxTTL is the lifetime of a gateway's keepalive key. It must exceed
// PingFrequency*FailureThreshold comfortably or a slow-but-alive gateway
// would appear to expire between pings.
const MaxTTL = 5 * time.Second

// gatewayMember is the value stored in the gatewaylist set for a gateway
// named uniqueName.
func gatewayMember(uniqueName string) string {
	return "rocon:" + uniqueName
}

// gatewayNameFromMember reverses gatewayMember.
func gatewayNameFromMember(member string) string {
	return member[len("rocon:"):]
}

// field builds the key for one scalar/set field under a gateway's namespace.
func field(uniqueName, name string) string {
	return fmt.Sprintf("rocon:%s:%s", uniqueName, name)
}

// pingKey is spelled with a literal double colon per the hub schema (§6).
func pingKey(uniqueName string) string {
	return fmt.Sprintf("rocon:%s::ping", uniqueName)
}

const (
	fieldFirewall          = "firewall"
	fieldIP                = "ip"
	fieldPublicKey         = "public_key"
	fieldAdvertisements    = "advertisements"
	fieldFlips             = "flips"
	fieldPulls             = "pulls"
	fieldFlipIns           = "flip_ins"
	fieldAvailable         = "available"
	fieldTimeSinceLastSeen = "time_since_last_seen"
	fieldLatencyMin        = "latency:min"
	fieldLatencyAvg        = "latency:avg"
	fieldLatencyMax        = "latency:max"
	fieldLatencyMdev       = "latency:mdev"
	fieldNetInfoAvailable  = "network:info_available"
	fieldNetType           = "network:type"
	fieldWirelessBitrate   = "wireless:bitrate"
	fieldWirelessQuality   = "wireless:quality"
	fieldWirelessSignal    = "wireless:signal_level"
	fieldWirelessNoise     = "wireless:noise_level"
)
