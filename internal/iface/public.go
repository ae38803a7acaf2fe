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

// Package iface holds the three watcher-owned interfaces (§4.4-4.6): the set
// of local endpoints currently advertised, the outbound flips and inbound
// offers, and the pull registrations. Each is single-writer-from-the-watcher
// (§5); commands only ever touch the rule sets, never the committed state.
package iface

import (
	"sync"

	"github.com/rocon-go/gateway/internal/connection"
)

// Public tracks the public ruleset and the Connections currently advertised
// because of it (§4.4).
type Public struct {
	mu     sync.RWMutex
	rules  connection.RuleSet
	advertised map[connection.Connection]struct{}
}

// NewPublic returns an empty Public interface.
func NewPublic() *Public {
	return &Public{advertised: make(map[connection.Connection]struct{})}
}

// SetRules replaces the whitelist/blacklist wholesale (advertise/unadvertise
// commands add/remove individual rules via AddRule/RemoveRule instead).
func (p *Public) SetRules(rules connection.RuleSet) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rules = rules
}

// Rules returns a copy of the current ruleset.
func (p *Public) Rules() connection.RuleSet {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return connection.RuleSet{
		Whitelist: append([]connection.Rule(nil), p.rules.Whitelist...),
		Blacklist: append([]connection.Rule(nil), p.rules.Blacklist...),
	}
}

// AddRule appends r to the whitelist (or blacklist, if r.Deny) idempotently.
func (p *Public) AddRule(r connection.Rule) {
	p.mu.Lock()
	defer p.mu.Unlock()
	target := &p.rules.Whitelist
	if r.Deny {
		target = &p.rules.Blacklist
	}
	for _, existing := range *target {
		if existing == r {
			return
		}
	}
	*target = append(*target, r)
}

// RemoveRule removes r from whichever list it would have been added to.
func (p *Public) RemoveRule(r connection.Rule) {
	p.mu.Lock()
	defer p.mu.Unlock()
	target := &p.rules.Whitelist
	if r.Deny {
		target = &p.rules.Blacklist
	}
	kept := (*target)[:0:0]
	for _, existing := range *target {
		if existing != r {
			kept = append(kept, existing)
		}
	}
	*target = kept
}

// MakeAllPublic appends the ".*" wildcard rule to the whitelist.
func (p *Public) MakeAllPublic() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rules.MakeAllPublic()
}

// RemoveAllPublic removes the wildcard rule added by MakeAllPublic.
func (p *Public) RemoveAllPublic() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rules.RemoveAllPublic()
}

// Allow reports whether c passes the current ruleset.
func (p *Public) Allow(c connection.Connection) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.rules.Allow(c)
}

// Advertised returns a snapshot of the currently advertised Connections.
func (p *Public) Advertised() []connection.Connection {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]connection.Connection, 0, len(p.advertised))
	for c := range p.advertised {
		out = append(out, c)
	}
	return out
}

// IsAdvertised reports whether c is in the committed advertised set.
func (p *Public) IsAdvertised(c connection.Connection) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.advertised[c]
	return ok
}

// Reconcile is the watcher's single entry point into this interface (§4.4
// step 2 of the tick): given the live local connections, it computes which
// ones newly pass the ruleset (toAdvertise) and which previously-advertised
// ones must be dropped (toUnadvertise), and commits the new advertised set.
// The watcher is responsible for calling hub_client.advertise/unadvertise
// for each entry returned — this method only owns the in-memory state.
func (p *Public) Reconcile(live []connection.Connection) (toAdvertise, toUnadvertise []connection.Connection, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	liveSet := make(map[connection.Connection]struct{}, len(live))
	for _, c := range live {
		liveSet[c] = struct{}{}
	}

	next := make(map[connection.Connection]struct{})
	for _, c := range live {
		allowed, allowErr := p.rules.Allow(c)
		if allowErr != nil {
			return nil, nil, allowErr
		}
		if !allowed {
			continue
		}
		next[c] = struct{}{}
		if _, already := p.advertised[c]; !already {
			toAdvertise = append(toAdvertise, c)
		}
	}
	for c := range p.advertised {
		if _, stillWanted := next[c]; !stillWanted {
			toUnadvertise = append(toUnadvertise, c)
		}
	}
	p.advertised = next
	return toAdvertise, toUnadvertise, nil
}
