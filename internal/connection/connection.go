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

// Package connection holds the uniform description of a topic/service/action
// endpoint and the rule that matches it. Nothing in this package talks to a
// hub or a local master — it is the shared vocabulary both sides serialize.
package connection

import (
	"fmt"
	"path"
	"regexp"
)

// ConnectionType identifies what kind of endpoint a Connection describes.
type ConnectionType string

const (
	Publisher    ConnectionType = "publisher"
	Subscriber   ConnectionType = "subscriber"
	Service      ConnectionType = "service"
	ActionClient ConnectionType = "action_client"
	ActionServer ConnectionType = "action_server"
)

// Valid reports whether t is one of the five known connection types.
func (t ConnectionType) Valid() bool {
	switch t {
	case Publisher, Subscriber, Service, ActionClient, ActionServer:
		return true
	default:
		return false
	}
}

// AllConnectionTypes lists the five known connection types, in the order
// wildcard expansion (MakeAllPublic, flip_all) emits one rule per type.
var AllConnectionTypes = []ConnectionType{Publisher, Subscriber, Service, ActionClient, ActionServer}

// Connection is a concrete, live endpoint. It is produced by the local
// adapter or decoded off the hub — the engine never invents one. Two
// Connections are equal when all five fields are equal.
type Connection struct {
	Type         ConnectionType `json:"type"`
	Name         string         `json:"name"`
	NodeURI      string         `json:"node_uri"`
	TypeInfo     string         `json:"type_info"`
	TransportURI string         `json:"transport_uri"`
}

// Equal reports whether c and other describe the same endpoint.
func (c Connection) Equal(other Connection) bool {
	return c == other
}

func (c Connection) String() string {
	return fmt.Sprintf("%s %s (%s) @ %s", c.Type, c.Name, c.TypeInfo, c.NodeURI)
}

// NodeBasename returns the last path element of the connection's node URI,
// the form Rule.NodePattern is matched against.
func (c Connection) NodeBasename() string {
	return path.Base(c.NodeURI)
}

// Rule is a matcher: (type, name pattern, node pattern). Patterns are
// anchored regular expressions; ".*" is the wildcard. Deny rules are used to
// build blacklists.
type Rule struct {
	Type        ConnectionType `json:"type"`
	NamePattern string         `json:"name_pattern"`
	NodePattern string         `json:"node_pattern"`
	Deny        bool           `json:"deny"`
}

// Matches reports whether c matches r: same type, name matches NamePattern,
// and the node basename matches NodePattern.
func (r Rule) Matches(c Connection) (bool, error) {
	if r.Type != c.Type {
		return false, nil
	}
	nameRe, err := regexp.Compile(anchor(r.NamePattern))
	if err != nil {
		return false, fmt.Errorf("invalid name pattern %q: %w", r.NamePattern, err)
	}
	if !nameRe.MatchString(c.Name) {
		return false, nil
	}
	nodeRe, err := regexp.Compile(anchor(r.NodePattern))
	if err != nil {
		return false, fmt.Errorf("invalid node pattern %q: %w", r.NodePattern, err)
	}
	return nodeRe.MatchString(c.NodeBasename()), nil
}

func anchor(pattern string) string {
	if pattern == "" {
		pattern = ".*"
	}
	if pattern[0] != '^' {
		pattern = "^" + pattern
	}
	if pattern[len(pattern)-1] != '$' {
		pattern += "$"
	}
	return pattern
}

// RemoteRule pairs a Rule with the gateway name pattern it targets. Used by
// flip and pull rule sets.
type RemoteRule struct {
	TargetGateway string `json:"target_gateway"`
	Rule          Rule   `json:"rule"`
}

// Registration is a foreign Connection the local adapter has been asked to
// register on our behalf. LocalNodeName is assigned at registration time so
// it can be revoked cleanly later.
type Registration struct {
	Connection    Connection `json:"connection"`
	SourceGateway string     `json:"source_gateway"`
	LocalNodeName string     `json:"local_node_name"`
}

// RuleSet is an ordered whitelist/blacklist pair. It accepts a Connection iff
// at least one non-deny rule matches and no deny rule matches.
type RuleSet struct {
	Whitelist []Rule
	Blacklist []Rule
}

// Allow reports whether c passes the ruleset.
func (rs RuleSet) Allow(c Connection) (bool, error) {
	allowed := false
	for _, r := range rs.Whitelist {
		ok, err := r.Matches(c)
		if err != nil {
			return false, err
		}
		if ok {
			allowed = true
			break
		}
	}
	if !allowed {
		return false, nil
	}
	for _, r := range rs.Blacklist {
		ok, err := r.Matches(c)
		if err != nil {
			return false, err
		}
		if ok {
			return false, nil
		}
	}
	return true, nil
}

// MakeAllPublic appends a wildcard ".*" rule per connection type to the
// whitelist, idempotently. A single untyped wildcard rule would never match
// anything, since Matches requires an exact type match; one rule per type is
// how the Python original's per-type topic_whitelist/service_whitelist
// wildcards behave.
func (rs *RuleSet) MakeAllPublic() {
	for _, t := range AllConnectionTypes {
		found := false
		for _, r := range rs.Whitelist {
			if r.Type == t && r.NamePattern == ".*" && r.NodePattern == ".*" && !r.Deny {
				found = true
				break
			}
		}
		if !found {
			rs.Whitelist = append(rs.Whitelist, Rule{Type: t, NamePattern: ".*", NodePattern: ".*"})
		}
	}
}

// RemoveAllPublic removes any wildcard rule previously added by MakeAllPublic.
func (rs *RuleSet) RemoveAllPublic() {
	kept := rs.Whitelist[:0]
	for _, r := range rs.Whitelist {
		if r.NamePattern == ".*" && r.NodePattern == ".*" && !r.Deny {
			continue
		}
		kept = append(kept, r)
	}
	rs.Whitelist = kept
}
