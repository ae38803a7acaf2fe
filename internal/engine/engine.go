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

// Package engine owns the gateway process's entire federation state: the
// local adapter, the three rule-driven interfaces, and the registry of
// connected hubs. It is the one thing cmd/root.go constructs and the one
// thing both the watcher and the operator HTTP surface hold a reference to
// (§4.8).
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/puzpuzpuz/xsync/v4"
	"github.com/rocon-go/gateway/internal/adapter"
	"github.com/rocon-go/gateway/internal/config"
	"github.com/rocon-go/gateway/internal/gatewayerrors"
	"github.com/rocon-go/gateway/internal/hubclient"
	"github.com/rocon-go/gateway/internal/iface"
)

// hubEntry is one connected hub's client, liveness checker, and the
// gateway-name snapshot the watcher last observed there. knownGateways is
// read by onHubLost to know which outbound flips/pull registrations were
// only reachable through this hub (§4.9 step 2).
type hubEntry struct {
	client  *hubclient.Client
	checker *hubclient.Checker
	cancel  context.CancelFunc

	mu            sync.Mutex
	knownGateways []string
	connected     bool
}

// HubSnapshot is a read-only view of one connected hub, returned to the
// watcher and the HTTP surface.
type HubSnapshot struct {
	Addr    string
	Client  *hubclient.Client
	Checker *hubclient.Checker
}

// Engine is the gateway process's root object. Command methods (commands.go)
// only ever mutate rule sets or the hub registry; all hub/adapter I/O is the
// watcher's monopoly (§4.8, §5).
type Engine struct {
	cfg     *config.Config
	adapter adapter.LocalMaster

	public  *iface.Public
	flipped *iface.Flipped
	pulled  *iface.Pulled

	hubs *xsync.Map[string, *hubEntry]

	nameMu   sync.RWMutex
	name     string
	firewall bool

	dirCacheMu sync.Mutex
	dirCache   map[string]directoryCacheEntry
}

// New constructs an Engine with empty rule sets and no connected hubs.
// cfg.Gateway.Name is the gateway's preferred identity; if empty a random one
// is generated, matching rocon_gateway's own default-naming convention.
func New(cfg *config.Config, localAdapter adapter.LocalMaster) *Engine {
	name := cfg.Gateway.Name
	if name == "" {
		name = fmt.Sprintf("gateway_%06x", rand.Uint32()&0xffffff)
	}
	e := &Engine{
		cfg:      cfg,
		adapter:  localAdapter,
		public:   iface.NewPublic(),
		flipped:  iface.NewFlipped(),
		pulled:   iface.NewPulled(),
		hubs:     xsync.NewMap[string, *hubEntry](),
		name:     name,
		firewall: cfg.Gateway.Firewall,
	}
	if cfg.Gateway.AdvertiseAll {
		e.public.MakeAllPublic()
	}
	return e
}

// Name returns this gateway's identity: the name New chose, replaced by
// whatever unique_name the hub granted on each successful ConnectHub.
func (e *Engine) Name() string {
	e.nameMu.RLock()
	defer e.nameMu.RUnlock()
	return e.name
}

// LocalAdapter returns the collaborator contract the watcher drives.
func (e *Engine) LocalAdapter() adapter.LocalMaster { return e.adapter }

// Public returns the public interface (§4.4).
func (e *Engine) Public() *iface.Public { return e.public }

// Flipped returns the outbound/inbound flip interface (§4.6).
func (e *Engine) Flipped() *iface.Flipped { return e.flipped }

// Pulled returns the pull interface (§4.5).
func (e *Engine) Pulled() *iface.Pulled { return e.pulled }

// Hubs returns a snapshot of every connected hub.
func (e *Engine) Hubs() []HubSnapshot {
	out := make([]HubSnapshot, 0)
	e.hubs.Range(func(addr string, entry *hubEntry) bool {
		entry.mu.Lock()
		connected := entry.connected
		entry.mu.Unlock()
		if connected {
			out = append(out, HubSnapshot{Addr: addr, Client: entry.client, Checker: entry.checker})
		}
		return true
	})
	return out
}

// SetHubKnownGateways records the remote gateway names last seen on addr's
// hub, used by onHubLost to scope cleanup to that hub's contribution.
func (e *Engine) SetHubKnownGateways(addr string, names []string) {
	entry, ok := e.hubs.Load(addr)
	if !ok {
		return
	}
	entry.mu.Lock()
	entry.knownGateways = append([]string(nil), names...)
	entry.mu.Unlock()
}

// ConnectHub dials a hub, registers this gateway, and starts its liveness
// checker. Returns (ok, diagnostic, error) per §4.8's command convention.
func (e *Engine) ConnectHub(ctx context.Context, host string, port int) (bool, string, error) {
	hub := config.Hub{Host: host, Port: port}
	addr := hub.Address()
	if _, exists := e.hubs.Load(addr); exists {
		return false, fmt.Sprintf("already connected to hub %s", addr), nil
	}

	client, err := hubclient.Connect(ctx, e.cfg, hub)
	if err != nil {
		return false, err.Error(), err
	}
	baseName := e.Name()
	if err := client.RegisterGateway(ctx, baseName, e.firewall, e.adapter.GetMasterURI()); err != nil {
		_ = client.Close()
		return false, err.Error(), err
	}

	e.nameMu.Lock()
	e.name = client.UniqueName()
	e.nameMu.Unlock()

	hubCtx, cancel := context.WithCancel(context.Background())
	entry := &hubEntry{client: client, cancel: cancel, connected: true}
	entry.checker = hubclient.NewChecker(hub, func() { e.onHubLost(addr, hub) })
	e.hubs.Store(addr, entry)
	go entry.checker.Run(hubCtx)

	return true, fmt.Sprintf("connected to %s as %s", addr, client.UniqueName()), nil
}

// AttachHub registers an already-connected hub Client directly, without
// dialing — mirrors the hubclient.New/Connect split: production code always
// goes through ConnectHub, while tests build Clients against a shared
// in-memory kv/pubsub pair (the way hubclient's own tests do) and attach
// them here so a watcher can be exercised against a simulated multi-gateway
// hub. Its liveness checker is constructed but never run, so Latency()
// stays at its zero value.
func (e *Engine) AttachHub(addr string, client *hubclient.Client) {
	entry := &hubEntry{
		client:    client,
		checker:   hubclient.NewChecker(hubclient.NewHubAddress(addr, 0), nil),
		cancel:    func() {},
		connected: true,
	}
	e.hubs.Store(addr, entry)
}

// DisconnectHub stops a hub's checker, unregisters cleanly, and drops it
// from the registry. A deliberate disconnect never triggers onHubLost.
func (e *Engine) DisconnectHub(ctx context.Context, host string, port int) (bool, string, error) {
	addr := config.Hub{Host: host, Port: port}.Address()
	entry, ok := e.hubs.Load(addr)
	if !ok {
		return false, fmt.Sprintf("not connected to hub %s", addr), nil
	}
	e.hubs.Delete(addr)
	entry.checker.Stop()
	entry.cancel()
	entry.client.UnregisterGateway(ctx)
	_ = entry.client.Close()

	entry.mu.Lock()
	known := entry.knownGateways
	entry.mu.Unlock()
	e.dropDerivedState(toSet(known))

	return true, fmt.Sprintf("disconnected from %s", addr), nil
}

// onHubLost implements §4.9: mark the hub gone, drop state derived only from
// it, and retry in the background with exponential backoff.
func (e *Engine) onHubLost(addr string, hub config.Hub) {
	entry, ok := e.hubs.Load(addr)
	if !ok {
		return
	}
	entry.mu.Lock()
	entry.connected = false
	known := entry.knownGateways
	entry.mu.Unlock()
	slog.Warn("engine: hub connection lost", "hub", addr)

	e.dropDerivedState(toSet(known))

	go func() {
		ctx := context.Background()
		err := hubclient.Reconnect(ctx, addr, func(ctx context.Context) error {
			return e.reregister(ctx, addr, hub)
		})
		if err != nil {
			slog.Error("engine: giving up reconnecting to hub", "hub", addr, "error", err)
		}
	}()
}

// reregister is the backoff loop's connect callback: it dials the hub fresh
// and reissues register_gateway with a brand-new keypair (§4.9 step 4 — the
// prior unique_name is not guaranteed reclaimable).
func (e *Engine) reregister(ctx context.Context, addr string, hub config.Hub) error {
	client, err := hubclient.Connect(ctx, e.cfg, hub)
	if err != nil {
		return fmt.Errorf("%w: %v", gatewayerrors.ErrHubConnectionLost, err)
	}
	if err := client.RegisterGateway(ctx, e.Name(), e.firewall, e.adapter.GetMasterURI()); err != nil {
		_ = client.Close()
		return err
	}

	e.nameMu.Lock()
	e.name = client.UniqueName()
	e.nameMu.Unlock()

	hubCtx, cancel := context.WithCancel(context.Background())
	entry := &hubEntry{client: client, cancel: cancel, connected: true}
	entry.checker = hubclient.NewChecker(hub, func() { e.onHubLost(addr, hub) })
	e.hubs.Store(addr, entry)
	go entry.checker.Run(hubCtx)

	slog.Warn("engine: reconnected to hub", "hub", addr, "unique_name", client.UniqueName())
	return nil
}

// dropDerivedState removes outbound flips and pull registrations that were
// only reachable through a set of now-gone gateway names (§4.9 step 2).
func (e *Engine) dropDerivedState(gone map[string]struct{}) {
	if len(gone) == 0 {
		return
	}
	e.flipped.DropOutboundToTargets(gone)
	dropped := e.pulled.DropAllFromSources(gone)
	for _, reg := range dropped {
		if err := e.adapter.Unregister(context.Background(), reg.LocalNodeName); err != nil {
			slog.Warn("engine: unregistering orphaned pull failed", "local_node", reg.LocalNodeName, "error", err)
		}
	}
}

func toSet(names []string) map[string]struct{} {
	out := make(map[string]struct{}, len(names))
	for _, n := range names {
		out[n] = struct{}{}
	}
	return out
}
