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
	"log/slog"
)

// GraphEdge is one gateway-to-gateway flip relationship surfaced by
// ConnectionGraph: source flips to target over some connection.
type GraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Count  int    `json:"flip_count"`
}

// ConnectionGraph is a read-only aggregation over every connected hub's
// remote_gateway_info, supplemented from the original Python implementation's
// graph.py (§11): it walks every known gateway's debug flips set and
// produces an edge list, letting an operator see the whole federation's
// topology from any one node without a central coordinator.
func (e *Engine) ConnectionGraph(ctx context.Context) []GraphEdge {
	edges := make(map[[2]string]int)
	self := e.Name()

	for _, hub := range e.Hubs() {
		names, err := hub.Client.ListRemoteGatewayNames(ctx)
		if err != nil {
			slog.Warn("engine: listing remote gateways for graph failed", "hub", hub.Addr, "error", err)
			continue
		}
		for _, name := range names {
			entry, err := hub.Client.RemoteGatewayInfo(ctx, name)
			if err != nil {
				continue
			}
			for _, flip := range entry.Flips {
				edges[[2]string{name, flip.TargetGateway}]++
			}
		}
	}
	// Our own outbound flips, recorded locally rather than re-read off any
	// hub's debug set.
	for _, f := range e.flipped.FlippedOut() {
		edges[[2]string{self, f.Target}]++
	}

	out := make([]GraphEdge, 0, len(edges))
	for pair, count := range edges {
		out = append(out, GraphEdge{Source: pair[0], Target: pair[1], Count: count})
	}
	return out
}
