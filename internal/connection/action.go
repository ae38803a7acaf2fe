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

package connection

// actionSubSuffix describes one of the five pub/sub+service endpoints an
// action expands to on the wire, and the ConnectionType it takes for each
// side of the link.
type actionSubSuffix struct {
	suffix     string
	clientType ConnectionType
	serverType ConnectionType
}

// actionSubSuffixes lists the five sub-endpoints in a fixed order so fan-out
// and fan-in always process them identically (needed for P7's round-trip
// cleanliness check).
var actionSubSuffixes = []actionSubSuffix{
	{"/goal", Publisher, Subscriber},
	{"/cancel", Publisher, Subscriber},
	{"/feedback", Subscriber, Publisher},
	{"/status", Subscriber, Publisher},
	{"/result", Subscriber, Publisher},
}

// ExpandActionRule fans an action_client or action_server rule out into its
// five underlying pub/sub+service sub-rules, with directionality set
// correctly for whichever side r describes. Non-action rules are returned
// unchanged as a single-element slice.
func ExpandActionRule(r Rule) []Rule {
	if r.Type != ActionClient && r.Type != ActionServer {
		return []Rule{r}
	}
	out := make([]Rule, 0, len(actionSubSuffixes))
	for _, sub := range actionSubSuffixes {
		subType := sub.clientType
		if r.Type == ActionServer {
			subType = sub.serverType
		}
		out = append(out, Rule{
			Type:        subType,
			NamePattern: r.NamePattern + escapeLiteralSuffix(sub.suffix),
			NodePattern: r.NodePattern,
			Deny:        r.Deny,
		})
	}
	return out
}

// ExpandActionConnection fans an action-typed live Connection out into its
// five sub-Connections, named literally (not as regex) since it describes an
// observed endpoint rather than a matcher.
func ExpandActionConnection(c Connection) []Connection {
	if c.Type != ActionClient && c.Type != ActionServer {
		return []Connection{c}
	}
	out := make([]Connection, 0, len(actionSubSuffixes))
	for _, sub := range actionSubSuffixes {
		subType := sub.clientType
		if c.Type == ActionServer {
			subType = sub.serverType
		}
		out = append(out, Connection{
			Type:         subType,
			Name:         c.Name + sub.suffix,
			NodeURI:      c.NodeURI,
			TypeInfo:     c.TypeInfo,
			TransportURI: c.TransportURI,
		})
	}
	return out
}

// escapeLiteralSuffix escapes regex metacharacters in a literal action
// sub-endpoint suffix before it is appended to a name pattern. The only
// metacharacter action suffixes contain is '/', which is not special in Go's
// regexp syntax, so this is currently a no-op kept for clarity and future
// suffix changes.
func escapeLiteralSuffix(suffix string) string {
	return suffix
}
