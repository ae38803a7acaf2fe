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

package iface

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/rocon-go/gateway/internal/connection"
)

// PendingPull is one (source, connection) pair the watcher should register
// locally, produced by Pulled.Reconcile.
type PendingPull struct {
	SourceGateway string
	Connection    connection.Connection
}

// Pulled tracks pull rules and the registrations they have produced (§4.5).
type Pulled struct {
	mu            sync.RWMutex
	rules         []connection.RemoteRule
	registrations map[string]map[connection.Connection]connection.Registration
}

// NewPulled returns an empty Pulled interface.
func NewPulled() *Pulled {
	return &Pulled{registrations: make(map[string]map[connection.Connection]connection.Registration)}
}

// AddRule appends rule idempotently.
func (p *Pulled) AddRule(rule connection.RemoteRule) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, existing := range p.rules {
		if existing == rule {
			return
		}
	}
	p.rules = append(p.rules, rule)
}

// RemoveRule removes rule if present.
func (p *Pulled) RemoveRule(rule connection.RemoteRule) {
	p.mu.Lock()
	defer p.mu.Unlock()
	kept := p.rules[:0:0]
	for _, existing := range p.rules {
		if existing != rule {
			kept = append(kept, existing)
		}
	}
	p.rules = kept
}

// Rules returns a copy of the current pull rules.
func (p *Pulled) Rules() []connection.RemoteRule {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]connection.RemoteRule(nil), p.rules...)
}

// Registrations returns a flat snapshot of every currently held
// Registration, for gateway_info and the watcher's metrics (§5: readers copy under
// a short read-lock).
func (p *Pulled) Registrations() []connection.Registration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]connection.Registration, 0)
	for _, bySource := range p.registrations {
		for _, reg := range bySource {
			out = append(out, reg)
		}
	}
	return out
}

// Reconcile is the watcher's entry point (§4.7 step 5 / §4.5): given the
// remote advertisement snapshot for every reachable gateway, it returns the
// (source, connection) pairs that should newly be registered and the
// Registrations that are now obsolete (rule removed, advertisement gone, or
// source no longer resolvable) and must be unregistered.
func (p *Pulled) Reconcile(remoteAdvertisements map[string][]connection.Connection) (toRegister []PendingPull, toUnregister []connection.Registration, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	desired := make(map[string]map[connection.Connection]struct{})
	for _, rule := range p.rules {
		targetRe, compileErr := regexp.Compile(anchorPattern(rule.TargetGateway))
		if compileErr != nil {
			return nil, nil, fmt.Errorf("invalid pull target pattern %q: %w", rule.TargetGateway, compileErr)
		}
		for source, conns := range remoteAdvertisements {
			if !targetRe.MatchString(source) {
				continue
			}
			for _, c := range conns {
				ok, matchErr := rule.Rule.Matches(c)
				if matchErr != nil {
					return nil, nil, matchErr
				}
				if !ok {
					continue
				}
				// Fan an opaque action_client/action_server advertisement out
				// into its five wire-level sub-connections before it becomes a
				// local registration, same as the outbound flip side.
				if desired[source] == nil {
					desired[source] = make(map[connection.Connection]struct{})
				}
				for _, sub := range connection.ExpandActionConnection(c) {
					desired[source][sub] = struct{}{}
				}
			}
		}
	}

	for source, wanted := range desired {
		for c := range wanted {
			bySource := p.registrations[source]
			if bySource == nil {
				toRegister = append(toRegister, PendingPull{SourceGateway: source, Connection: c})
				continue
			}
			if _, already := bySource[c]; !already {
				toRegister = append(toRegister, PendingPull{SourceGateway: source, Connection: c})
			}
		}
	}
	for source, bySource := range p.registrations {
		for c, reg := range bySource {
			if _, stillWanted := desired[source][c]; !stillWanted {
				toUnregister = append(toUnregister, reg)
			}
		}
	}
	return toRegister, toUnregister, nil
}

// Commit records a successful local registration, called by the watcher
// after adapter.Register returns the local node name.
func (p *Pulled) Commit(reg connection.Registration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.registrations[reg.SourceGateway] == nil {
		p.registrations[reg.SourceGateway] = make(map[connection.Connection]connection.Registration)
	}
	p.registrations[reg.SourceGateway][reg.Connection] = reg
}

// Drop removes a Registration after the watcher has unregistered it locally.
func (p *Pulled) Drop(reg connection.Registration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	bySource := p.registrations[reg.SourceGateway]
	if bySource == nil {
		return
	}
	delete(bySource, reg.Connection)
	if len(bySource) == 0 {
		delete(p.registrations, reg.SourceGateway)
	}
}

// DropAllFromSources removes every Registration sourced from any of the
// given gateways, used on hub loss (§4.9 step 2) to drop state derived from
// a hub that is no longer reachable.
func (p *Pulled) DropAllFromSources(sources map[string]struct{}) []connection.Registration {
	p.mu.Lock()
	defer p.mu.Unlock()
	var dropped []connection.Registration
	for source := range sources {
		for _, reg := range p.registrations[source] {
			dropped = append(dropped, reg)
		}
		delete(p.registrations, source)
	}
	return dropped
}

// anchorPattern anchors a gateway-name glob/regex pattern the same way
// connection.Rule patterns are anchored, so "g.*" doesn't also match
// "other_g1".
func anchorPattern(pattern string) string {
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
