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

// Package watcher runs the gateway's single reconciliation loop (§4.7): a
// plain time.Ticker-driven goroutine, not gocron — gocron in this repo is
// reserved for coarse daily maintenance jobs (see internal/cmd's scheduler),
// and a sub-second protocol tick is not that shape of work.
package watcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/rocon-go/gateway/internal/connection"
	"github.com/rocon-go/gateway/internal/engine"
	"github.com/rocon-go/gateway/internal/gatewayerrors"
	"github.com/rocon-go/gateway/internal/hubclient"
	"github.com/rocon-go/gateway/internal/iface"
	"github.com/rocon-go/gateway/internal/metrics"
	"go.opentelemetry.io/otel"
)

// Watcher drives one Engine's reconciliation tick.
type Watcher struct {
	engine   *engine.Engine
	tickRate time.Duration

	// flipTimeout bounds how long a single SendFlipRequest call waits for a
	// remote's public_key to appear before giving up for this tick; the
	// rule stays pending and is retried the next tick.
	flipTimeout time.Duration

	metrics *metrics.Metrics
}

// New returns a Watcher for eng, ticking at tickRate (default 2 Hz per §4.7
// if tickRate is zero).
func New(eng *engine.Engine, tickRate time.Duration) *Watcher {
	if tickRate <= 0 {
		tickRate = 500 * time.Millisecond
	}
	return &Watcher{engine: eng, tickRate: tickRate, flipTimeout: 2 * time.Second}
}

// WithMetrics attaches a Metrics sink sampled at the end of every tick.
// Optional: a Watcher with no sink attached just skips the sampling step.
func (w *Watcher) WithMetrics(m *metrics.Metrics) *Watcher {
	w.metrics = m
	return w
}

// Run blocks, ticking until ctx is cancelled. Callers run it in its own
// goroutine, one per engine (§5).
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.tickRate)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Tick(ctx)
		}
	}
}

// Tick runs the six-step reconciliation order exactly once. Exported so
// tests (and a future manual "reconcile now" admin action) can drive it
// directly without waiting on the ticker.
func (w *Watcher) Tick(ctx context.Context) {
	ctx, span := otel.Tracer("gateway").Start(ctx, "Watcher.Tick")
	defer span.End()

	start := time.Now()

	live := w.localSnapshot(ctx)

	w.reconcilePublic(ctx, live)

	remoteNames, remoteAdvertisements := w.refreshDirectories(ctx)

	w.reconcileOutboundFlips(ctx, live, remoteNames)

	w.reconcileInboundFlips(ctx)
	w.reconcilePulled(ctx, remoteAdvertisements)

	w.publishNetworkStatistics(ctx)

	w.sampleMetrics(start)
}

// sampleMetrics is an optional step 7: when a sink is attached, record this
// tick's duration and the engine's current state gauges.
func (w *Watcher) sampleMetrics(tickStart time.Time) {
	if w.metrics == nil {
		return
	}
	w.metrics.ObserveTick(time.Since(tickStart).Seconds())
	w.metrics.SetConnectedHubs(len(w.engine.Hubs()))
	w.metrics.SetAdvertisedTotal(len(w.engine.Public().Advertised()))
	w.metrics.SetFlippedOutTotal(len(w.engine.Flipped().FlippedOut()))
	w.metrics.SetPulledTotal(len(w.engine.Pulled().Registrations()))

	// Pending/blocked offers live in each hub's flip_ins set, not in local
	// engine state; only the accepted count is cheap to report here.
	w.metrics.SetFlipInCounts(0, len(w.engine.Flipped().InboundRegistrations()), 0)
}

// localSnapshot is step 1: flatten the local adapter's typed connection
// state into one slice.
func (w *Watcher) localSnapshot(ctx context.Context) []connection.Connection {
	byType, err := w.engine.LocalAdapter().GetConnectionState(ctx)
	if err != nil {
		slog.Warn("watcher: local adapter snapshot failed", "error", err)
		return nil
	}
	out := make([]connection.Connection, 0)
	for _, conns := range byType {
		out = append(out, conns...)
	}
	return out
}

// reconcilePublic is step 2.
func (w *Watcher) reconcilePublic(ctx context.Context, live []connection.Connection) {
	toAdvertise, toUnadvertise, err := w.engine.Public().Reconcile(live)
	if err != nil {
		slog.Warn("watcher: public interface reconcile failed", "error", err)
		return
	}
	for _, hub := range w.engine.Hubs() {
		for _, c := range toAdvertise {
			if err := hub.Client.Advertise(ctx, c); err != nil {
				slog.Warn("watcher: advertise failed", "hub", hub.Addr, "connection", c, "error", err)
			}
		}
		for _, c := range toUnadvertise {
			if err := hub.Client.Unadvertise(ctx, c); err != nil {
				slog.Warn("watcher: unadvertise failed", "hub", hub.Addr, "connection", c, "error", err)
			}
		}
	}
}

// refreshDirectories is step 3: for every connected hub, list its remote
// gateway names and record them against that hub (so hub loss can scope
// cleanup), and read every remote's advertised Connections for the pull
// reconciliation in step 5.
func (w *Watcher) refreshDirectories(ctx context.Context) (allNames []string, advertisements map[string][]connection.Connection) {
	advertisements = make(map[string][]connection.Connection)
	seen := make(map[string]struct{})

	for _, hub := range w.engine.Hubs() {
		names, err := hub.Client.ListRemoteGatewayNames(ctx)
		if err != nil {
			slog.Warn("watcher: listing remote gateways failed", "hub", hub.Addr, "error", err)
			continue
		}
		w.engine.SetHubKnownGateways(hub.Addr, names)

		for _, name := range names {
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			allNames = append(allNames, name)

			state, err := hub.Client.GetRemoteConnectionState(ctx, name)
			if err != nil {
				slog.Warn("watcher: reading remote connection state failed", "hub", hub.Addr, "gateway", name, "error", err)
				continue
			}
			for _, conns := range state {
				advertisements[name] = append(advertisements[name], conns...)
			}
		}
	}
	return allNames, advertisements
}

// reconcileOutboundFlips is step 4.
func (w *Watcher) reconcileOutboundFlips(ctx context.Context, live []connection.Connection, knownGateways []string) {
	toFlip, toUnflip, err := w.engine.Flipped().ReconcileOutbound(live, knownGateways)
	if err != nil {
		slog.Warn("watcher: outbound flip reconcile failed", "error", err)
		return
	}
	for _, pending := range toFlip {
		hub := w.hubServing(ctx, pending.Target)
		if hub == nil {
			continue
		}
		if err := hub.Client.SendFlipRequest(ctx, pending.Target, pending.Connection, w.flipTimeout); err != nil {
			if err == gatewayerrors.ErrPublicKeyTimeout {
				slog.Warn("watcher: flip request waiting on remote public key, retrying next tick", "target", pending.Target)
			} else {
				slog.Warn("watcher: flip request failed", "target", pending.Target, "error", err)
			}
			continue
		}
		if err := hub.Client.PostFlipDetails(ctx, pending.Target, pending.Connection.Name, pending.Connection.Type, pending.Connection.NodeURI); err != nil {
			slog.Warn("watcher: recording flip debug details failed", "target", pending.Target, "error", err)
		}
	}
	for _, pending := range toUnflip {
		hub := w.hubServing(ctx, pending.Target)
		if hub == nil {
			continue
		}
		rule := connection.Rule{Type: pending.Connection.Type, NamePattern: pending.Connection.Name, NodePattern: pending.Connection.NodeBasename()}
		if err := hub.Client.SendUnflipRequest(ctx, pending.Target, rule); err != nil {
			slog.Warn("watcher: unflip request failed", "target", pending.Target, "error", err)
			continue
		}
		if err := hub.Client.RemoveFlipDetails(ctx, pending.Target, pending.Connection.Name, pending.Connection.Type, pending.Connection.NodeURI); err != nil {
			slog.Warn("watcher: removing flip debug details failed", "target", pending.Target, "error", err)
		}
	}
}

// reconcileInboundFlips is the read-offers/accept-policy/status-transition
// half of step 5: for every hub, read our own unblocked flip_ins, run the
// accept policy, write status transitions, then register/unregister the
// local adapter side of accepted offers.
func (w *Watcher) reconcileInboundFlips(ctx context.Context) {
	for _, hub := range w.engine.Hubs() {
		offers, err := hub.Client.GetUnblockedFlippedInConnections(ctx)
		if err != nil {
			slog.Warn("watcher: reading inbound flip offers failed", "hub", hub.Addr, "error", err)
			continue
		}
		candidates := make([]iface.InboundCandidate, 0, len(offers))
		for _, o := range offers {
			candidates = append(candidates, iface.InboundCandidate{Source: o.Source, Connection: o.Connection})
		}
		verdicts, err := w.engine.Flipped().EvaluateInbound(candidates)
		if err != nil {
			slog.Warn("watcher: evaluating inbound flip offers failed", "hub", hub.Addr, "error", err)
			continue
		}
		for _, v := range verdicts {
			status := connection.FlipBlocked
			if v.Accept {
				status = connection.FlipAccepted
			}
			if _, err := hub.Client.UpdateFlipRequestStatus(ctx, v.Source, v.Connection, status); err != nil {
				slog.Warn("watcher: updating flip_in status failed", "source", v.Source, "error", err)
			}
		}

		toRegister, toUnregister := w.engine.Flipped().ReconcileInbound(verdicts)
		for _, v := range toRegister {
			localNodeName, err := w.engine.LocalAdapter().Register(ctx, v.Connection, v.Source)
			if err != nil {
				slog.Warn("watcher: registering accepted flip locally failed", "source", v.Source, "error", err)
				continue
			}
			w.engine.Flipped().CommitInbound(v.Source, v.Connection, connection.Registration{
				Connection: v.Connection, SourceGateway: v.Source, LocalNodeName: localNodeName,
			})
		}
		for _, reg := range toUnregister {
			if err := w.engine.LocalAdapter().Unregister(ctx, reg.LocalNodeName); err != nil {
				slog.Warn("watcher: unregistering withdrawn flip failed", "local_node", reg.LocalNodeName, "error", err)
				continue
			}
			w.engine.Flipped().DropInbound(reg.SourceGateway, reg.Connection)
		}
	}
}

// reconcilePulled is the remainder of step 5: explicit pull rules matched
// against the remote advertisement snapshot gathered in step 3.
func (w *Watcher) reconcilePulled(ctx context.Context, remoteAdvertisements map[string][]connection.Connection) {
	toRegister, toUnregister, err := w.engine.Pulled().Reconcile(remoteAdvertisements)
	if err != nil {
		slog.Warn("watcher: pull reconcile failed", "error", err)
		return
	}
	for _, pending := range toRegister {
		localNodeName, err := w.engine.LocalAdapter().Register(ctx, pending.Connection, pending.SourceGateway)
		if err != nil {
			slog.Warn("watcher: registering pull failed", "source", pending.SourceGateway, "error", err)
			continue
		}
		w.engine.Pulled().Commit(connection.Registration{
			Connection: pending.Connection, SourceGateway: pending.SourceGateway, LocalNodeName: localNodeName,
		})
		if hub := w.hubServing(ctx, pending.SourceGateway); hub != nil {
			if err := hub.Client.PostPullDetails(ctx, pending.SourceGateway, pending.Connection.Name, pending.Connection.Type, pending.Connection.NodeURI); err != nil {
				slog.Warn("watcher: recording pull debug details failed", "source", pending.SourceGateway, "error", err)
			}
		}
	}
	for _, reg := range toUnregister {
		if err := w.engine.LocalAdapter().Unregister(ctx, reg.LocalNodeName); err != nil {
			slog.Warn("watcher: unregistering pull failed", "local_node", reg.LocalNodeName, "error", err)
			continue
		}
		w.engine.Pulled().Drop(reg)
		if hub := w.hubServing(ctx, reg.SourceGateway); hub != nil {
			if err := hub.Client.RemovePullDetails(ctx, reg.SourceGateway, reg.Connection.Name, reg.Connection.Type, reg.Connection.NodeURI); err != nil {
				slog.Warn("watcher: removing pull debug details failed", "source", reg.SourceGateway, "error", err)
			}
		}
	}
}

// publishNetworkStatistics is step 6: every connected hub gets its latency
// stats written and its :ping TTL refreshed, keeping this gateway's
// directory entry alive regardless of whether anything else changed.
func (w *Watcher) publishNetworkStatistics(ctx context.Context) {
	for _, hub := range w.engine.Hubs() {
		stats := hubclient.NetworkStatistics{Latency: hub.Checker.Latency()}
		if err := hub.Client.PublishNetworkStatistics(ctx, stats); err != nil {
			slog.Warn("watcher: publishing network statistics failed", "hub", hub.Addr, "error", err)
		}
	}
}

// hubServing returns the first connected hub that currently lists gatewayName
// among its remote gateways. A gateway may be visible through more than one
// hub; the first one found is used for flip/pull protocol calls against it.
func (w *Watcher) hubServing(ctx context.Context, gatewayName string) *engine.HubSnapshot {
	hubs := w.engine.Hubs()
	for i := range hubs {
		names, err := hubs[i].Client.ListRemoteGatewayNames(ctx)
		if err != nil {
			continue
		}
		for _, n := range names {
			if n == gatewayName {
				return &hubs[i]
			}
		}
	}
	return nil
}
