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

// outKey identifies one outbound flip: a target gateway plus the Connection
// flipped to it.
type outKey struct {
	target string
	conn   connection.Connection
}

// PendingFlip is one (target, connection) pair the watcher should post to a
// hub client, produced by Flipped.ReconcileOutbound.
type PendingFlip struct {
	Target     string
	Connection connection.Connection
}

// InboundOffer is a decrypted flip offer read off our own flip_ins, paired
// with the accept-policy verdict the watcher should act on.
type InboundOffer struct {
	Source     string
	Connection connection.Connection
	Accept     bool
}

// Flipped tracks the outbound flip ruleset and its live flips, plus the
// accept policy applied to inbound offers (§4.6).
type Flipped struct {
	mu sync.RWMutex

	rules      []connection.RemoteRule
	flippedOut map[outKey]struct{}

	// acceptPolicy is the inbound allow/deny ruleset: each rule's
	// TargetGateway is matched against the offer's source gateway and its
	// Rule against the offered connection (see acceptOffer). Empty
	// NamePattern/NodePattern match any name and node, but the rule's Type
	// still has to match; specific rules narrow it to named connections.
	acceptPolicy []connection.RemoteRule

	// inboundRegistered tracks the local adapter registrations created for
	// accepted inbound offers, keyed the same way flippedOut keys outbound
	// ones. Kept separate from Pulled's registry: these are driven by the
	// accept policy over flip_in entries, not by pull rules against a
	// remote's advertisements, so the two must not be reconciled against
	// each other's desired set.
	inboundRegistered map[outKey]connection.Registration
}

// NewFlipped returns an empty Flipped interface.
func NewFlipped() *Flipped {
	return &Flipped{
		flippedOut:        make(map[outKey]struct{}),
		inboundRegistered: make(map[outKey]connection.Registration),
	}
}

// AddRule appends an outbound flip rule idempotently.
func (f *Flipped) AddRule(rule connection.RemoteRule) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.rules {
		if existing == rule {
			return
		}
	}
	f.rules = append(f.rules, rule)
}

// RemoveRule removes an outbound flip rule if present.
func (f *Flipped) RemoveRule(rule connection.RemoteRule) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.rules[:0:0]
	for _, existing := range f.rules {
		if existing != rule {
			kept = append(kept, existing)
		}
	}
	f.rules = kept
}

// Rules returns a copy of the current outbound flip ruleset.
func (f *Flipped) Rules() []connection.RemoteRule {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]connection.RemoteRule(nil), f.rules...)
}

// AddAcceptRule appends an inbound accept-policy rule, keyed by source
// gateway pattern, idempotently.
func (f *Flipped) AddAcceptRule(rule connection.RemoteRule) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.acceptPolicy {
		if existing == rule {
			return
		}
	}
	f.acceptPolicy = append(f.acceptPolicy, rule)
}

// RemoveAcceptRule removes an inbound accept-policy rule if present.
func (f *Flipped) RemoveAcceptRule(rule connection.RemoteRule) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.acceptPolicy[:0:0]
	for _, existing := range f.acceptPolicy {
		if existing != rule {
			kept = append(kept, existing)
		}
	}
	f.acceptPolicy = kept
}

// FlippedOut returns a snapshot of the (target, connection) pairs currently
// flipped outward.
func (f *Flipped) FlippedOut() []PendingFlip {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]PendingFlip, 0, len(f.flippedOut))
	for k := range f.flippedOut {
		out = append(out, PendingFlip{Target: k.target, Connection: k.conn})
	}
	return out
}

// ReconcileOutbound is the watcher's entry point for step 4 of the tick
// (§4.7): given the live local Connections and the set of remote gateway
// names currently known to the hub (for matching TargetGateway patterns), it
// returns the flips to post and the flips to withdraw, and commits the new
// flipped-out set.
func (f *Flipped) ReconcileOutbound(live []connection.Connection, knownGateways []string) (toFlip, toUnflip []PendingFlip, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	desired := make(map[outKey]struct{})
	for _, rule := range f.rules {
		targetRe, compileErr := regexp.Compile(anchorPattern(rule.TargetGateway))
		if compileErr != nil {
			return nil, nil, fmt.Errorf("invalid flip target pattern %q: %w", rule.TargetGateway, compileErr)
		}
		for _, target := range knownGateways {
			if !targetRe.MatchString(target) {
				continue
			}
			for _, c := range live {
				ok, matchErr := rule.Rule.Matches(c)
				if matchErr != nil {
					return nil, nil, matchErr
				}
				if !ok {
					continue
				}
				// An action_client/action_server rule matches the local adapter's
				// single opaque action connection; fan it out into its five
				// wire-level sub-connections here, at the point it becomes a
				// flip, the same place the Python original does this
				// (gateway_hub.py send_unflip_request).
				for _, sub := range connection.ExpandActionConnection(c) {
					desired[outKey{target: target, conn: sub}] = struct{}{}
				}
			}
		}
	}

	for k := range desired {
		if _, already := f.flippedOut[k]; !already {
			toFlip = append(toFlip, PendingFlip{Target: k.target, Connection: k.conn})
		}
	}
	for k := range f.flippedOut {
		if _, stillWanted := desired[k]; !stillWanted {
			toUnflip = append(toUnflip, PendingFlip{Target: k.target, Connection: k.conn})
		}
	}
	f.flippedOut = desired
	return toFlip, toUnflip, nil
}

// DropOutboundToTargets removes every committed outbound flip addressed to
// any of the given targets, used on hub loss (§4.9 step 2): the flips were
// only ever meaningful through that hub.
func (f *Flipped) DropOutboundToTargets(targets map[string]struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k := range f.flippedOut {
		if _, gone := targets[k.target]; gone {
			delete(f.flippedOut, k)
		}
	}
}

// EvaluateInbound runs the accept policy over a batch of decrypted inbound
// offers (as returned by hubclient.Client.GetUnblockedFlippedInConnections)
// and reports, for each, whether it should transition to accepted or
// blocked. It does not mutate any hub state itself — the watcher applies the
// verdict via hubclient.Client.UpdateFlipRequestStatus (§4.6, invariant I2:
// once accepted or blocked, status is monotonic until the offer is
// withdrawn, so the watcher is expected to only call this against offers
// still pending).
func (f *Flipped) EvaluateInbound(offers []InboundCandidate) ([]InboundOffer, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]InboundOffer, 0, len(offers))
	for _, o := range offers {
		accept, err := f.acceptOffer(o.Source, o.Connection)
		if err != nil {
			return nil, err
		}
		out = append(out, InboundOffer{Source: o.Source, Connection: o.Connection, Accept: accept})
	}
	return out, nil
}

// InboundCandidate is the minimal shape EvaluateInbound needs from a decoded
// flip offer; the watcher builds one per hubclient.FlipOffer it reads.
type InboundCandidate struct {
	Source     string
	Connection connection.Connection
}

// ReconcileInbound is the watcher's entry point for step 5 of the tick
// (§4.7): given the accept-policy verdicts for every currently-present,
// unblocked flip_in entry, it returns the accepted offers that still need a
// local adapter registration and the previously-registered ones that are now
// gone (withdrawn by the sender or no longer accepted) and must be
// unregistered. It does not itself register anything — the watcher does
// that, then calls CommitInbound.
func (f *Flipped) ReconcileInbound(verdicts []InboundOffer) (toRegister []InboundOffer, toUnregister []connection.Registration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	present := make(map[outKey]struct{}, len(verdicts))
	for _, v := range verdicts {
		if !v.Accept {
			continue
		}
		k := outKey{target: v.Source, conn: v.Connection}
		present[k] = struct{}{}
		if _, already := f.inboundRegistered[k]; !already {
			toRegister = append(toRegister, v)
		}
	}
	for k, reg := range f.inboundRegistered {
		if _, stillPresent := present[k]; !stillPresent {
			toUnregister = append(toUnregister, reg)
		}
	}
	return toRegister, toUnregister
}

// CommitInbound records a successful local registration for an accepted
// inbound offer.
func (f *Flipped) CommitInbound(source string, conn connection.Connection, reg connection.Registration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inboundRegistered[outKey{target: source, conn: conn}] = reg
}

// DropInbound removes the registration bookkeeping for a withdrawn inbound
// offer after the watcher has unregistered it locally.
func (f *Flipped) DropInbound(source string, conn connection.Connection) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.inboundRegistered, outKey{target: source, conn: conn})
}

// InboundRegistrations returns a snapshot of accepted-offer registrations,
// for gateway_info.
func (f *Flipped) InboundRegistrations() []connection.Registration {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]connection.Registration, 0, len(f.inboundRegistered))
	for _, reg := range f.inboundRegistered {
		out = append(out, reg)
	}
	return out
}

// acceptOffer runs the accept policy as a whitelist/blacklist ruleset
// parallel to the public interface (§4.6): an offer is accepted iff a
// non-deny policy rule matches it and no deny policy rule also matches.
func (f *Flipped) acceptOffer(source string, conn connection.Connection) (bool, error) {
	allowed := false
	for _, rule := range f.acceptPolicy {
		if rule.Rule.Deny {
			continue
		}
		ok, err := f.acceptPolicyRuleMatches(rule, source, conn)
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
	for _, rule := range f.acceptPolicy {
		if !rule.Rule.Deny {
			continue
		}
		ok, err := f.acceptPolicyRuleMatches(rule, source, conn)
		if err != nil {
			return false, err
		}
		if ok {
			return false, nil
		}
	}
	return true, nil
}

// acceptPolicyRuleMatches matches an inbound offer against one accept-policy
// rule. An inbound Connection always arrives already fanned out to one of the
// five action sub-endpoint types (the sender expanded it when it flipped, see
// Flipped.ReconcileOutbound), so an accept rule written against the whole
// action (Type action_client/action_server) is expanded here the same way
// before matching.
func (f *Flipped) acceptPolicyRuleMatches(rule connection.RemoteRule, source string, conn connection.Connection) (bool, error) {
	sourceRe, err := regexp.Compile(anchorPattern(rule.TargetGateway))
	if err != nil {
		return false, fmt.Errorf("invalid accept-policy source pattern %q: %w", rule.TargetGateway, err)
	}
	if !sourceRe.MatchString(source) {
		return false, nil
	}
	for _, sub := range connection.ExpandActionRule(rule.Rule) {
		ok, err := sub.Matches(conn)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
