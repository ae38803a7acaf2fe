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

package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rocon-go/gateway/internal/connection"
	"github.com/rocon-go/gateway/internal/hubclient"
	"github.com/rocon-go/gateway/internal/iface"
)

// Advertise adds rules to the public interface's ruleset (§4.8). Pure rule
// mutation: the watcher's next tick is what actually calls hub_client.advertise.
func (e *Engine) Advertise(rules []connection.Rule) (bool, string, error) {
	for _, r := range rules {
		e.public.AddRule(r)
	}
	return true, fmt.Sprintf("added %d rule(s) to the public interface", len(rules)), nil
}

// Unadvertise removes rules from the public interface's ruleset.
func (e *Engine) Unadvertise(rules []connection.Rule) (bool, string, error) {
	for _, r := range rules {
		e.public.RemoveRule(r)
	}
	return true, fmt.Sprintf("removed %d rule(s) from the public interface", len(rules)), nil
}

// Flip adds outbound flip rules.
func (e *Engine) Flip(rules []connection.RemoteRule) (bool, string, error) {
	for _, r := range rules {
		e.flipped.AddRule(r)
	}
	return true, fmt.Sprintf("added %d flip rule(s)", len(rules)), nil
}

// Unflip removes outbound flip rules.
func (e *Engine) Unflip(rules []connection.RemoteRule) (bool, string, error) {
	for _, r := range rules {
		e.flipped.RemoveRule(r)
	}
	return true, fmt.Sprintf("removed %d flip rule(s)", len(rules)), nil
}

// Pull adds pull rules.
func (e *Engine) Pull(rules []connection.RemoteRule) (bool, string, error) {
	for _, r := range rules {
		e.pulled.AddRule(r)
	}
	return true, fmt.Sprintf("added %d pull rule(s)", len(rules)), nil
}

// Unpull removes pull rules.
func (e *Engine) Unpull(rules []connection.RemoteRule) (bool, string, error) {
	for _, r := range rules {
		e.pulled.RemoveRule(r)
	}
	return true, fmt.Sprintf("removed %d pull rule(s)", len(rules)), nil
}

// FlipAllMode selects which wildcard shape flip_all composes (§6.1's
// flip-all endpoint dispatches on this).
type FlipAllMode string

const (
	// FlipAll flips every connection type to the targets.
	FlipAll FlipAllMode = "flip_all"
	// FlipAllPublic composes the same per-type wildcard rules as FlipAll.
	// Outbound flip rules are matched against every live local connection,
	// so this mode is not limited to the public interface.
	FlipAllPublic FlipAllMode = "flip_all_public"
	// FlipListOnly flips only the explicitly named connections.
	FlipListOnly FlipAllMode = "flip_list_only"
)

// FlipAll composes a wildcard (or list-scoped) flip rule per target gateway
// pattern, per mode.
func (e *Engine) FlipAll(targets []string, mode FlipAllMode, names []string) (bool, string, error) {
	switch mode {
	case FlipAll, FlipAllPublic:
		// A Rule with a zero-value Type never matches anything (Matches
		// requires an exact type match), so the wildcard has to be expanded
		// into one rule per connection type.
		for _, t := range targets {
			for _, ct := range connection.AllConnectionTypes {
				e.flipped.AddRule(connection.RemoteRule{
					TargetGateway: t,
					Rule:          connection.Rule{Type: ct, NamePattern: ".*", NodePattern: ".*"},
				})
			}
		}
		return true, fmt.Sprintf("flipping everything to %d target(s)", len(targets)), nil
	case FlipListOnly:
		for _, t := range targets {
			for _, name := range names {
				for _, ct := range connection.AllConnectionTypes {
					e.flipped.AddRule(connection.RemoteRule{
						TargetGateway: t,
						Rule:          connection.Rule{Type: ct, NamePattern: name, NodePattern: ".*"},
					})
				}
			}
		}
		return true, fmt.Sprintf("flipping %d named connection(s) to %d target(s)", len(names), len(targets)), nil
	default:
		return false, fmt.Sprintf("unknown flip_all mode %q", mode), nil
	}
}

// MakeAllPublic adds the wildcard rule to the public interface.
func (e *Engine) MakeAllPublic() (bool, string, error) {
	e.public.MakeAllPublic()
	return true, "public interface now advertises everything", nil
}

// RemoveAllPublic removes the wildcard rule from the public interface.
func (e *Engine) RemoveAllPublic() (bool, string, error) {
	e.public.RemoveAllPublic()
	return true, "removed the make-all-public wildcard", nil
}

// GatewaySnapshot is the read-only local state returned by GatewayInfo.
type GatewaySnapshot struct {
	Name                string
	Firewall            bool
	ConnectedHubs       []string
	PublicRules         connection.RuleSet
	Advertised          []connection.Connection
	FlipRules           []connection.RemoteRule
	FlippedOut          []iface.PendingFlip
	PullRules           []connection.RemoteRule
	PulledRegistered    []connection.Registration
	FlippedInRegistered []connection.Registration
}

// GatewayInfo returns a snapshot of this gateway's own state (§4.8).
func (e *Engine) GatewayInfo() GatewaySnapshot {
	hubs := e.Hubs()
	addrs := make([]string, 0, len(hubs))
	for _, h := range hubs {
		addrs = append(addrs, h.Addr)
	}
	return GatewaySnapshot{
		Name:                e.Name(),
		Firewall:            e.firewall,
		ConnectedHubs:       addrs,
		PublicRules:         e.public.Rules(),
		Advertised:          e.public.Advertised(),
		FlipRules:           e.flipped.Rules(),
		FlippedOut:          e.flipped.FlippedOut(),
		PullRules:           e.pulled.Rules(),
		PulledRegistered:    e.pulled.Registrations(),
		FlippedInRegistered: e.flipped.InboundRegistrations(),
	}
}

// RemoteGatewayInfo aggregates remote_gateway_info across every connected
// hub, returning the first hub that knows about each requested name. A
// successful read refreshes the directory cache; if every connected hub
// fails a name (e.g. a hub blip mid-reconnect), the last cached snapshot is
// returned instead of an error, so a transient hub hiccup never blanks out
// an operator's view of a remote gateway it has seen before.
func (e *Engine) RemoteGatewayInfo(ctx context.Context, names []string) (map[string]hubclient.GatewayDirectoryEntry, error) {
	out := make(map[string]hubclient.GatewayDirectoryEntry, len(names))
	var lastErr error
	now := time.Now()
	for _, name := range names {
		found := false
		for _, hub := range e.Hubs() {
			entry, err := hub.Client.RemoteGatewayInfo(ctx, name)
			if err != nil {
				lastErr = err
				continue
			}
			out[name] = entry
			e.cacheRemoteGatewayInfo(name, entry, now)
			found = true
			break
		}
		if !found {
			if cached, ok := e.cachedRemoteGatewayInfo(name); ok {
				out[name] = cached
				continue
			}
			if lastErr != nil {
				return out, lastErr
			}
		}
	}
	return out, nil
}
