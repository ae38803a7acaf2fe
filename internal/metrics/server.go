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

package metrics

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rocon-go/gateway/internal/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const readTimeout = 3 * time.Second

// CreateMetricsServer serves /metrics on cfg.Metrics.Bind:Port until the
// listener fails. A no-op returning nil when metrics are disabled, so
// cmd/root.go can always `go metrics.CreateMetricsServer(cfg)` unconditionally.
func CreateMetricsServer(cfg *config.Config) error {
	if !cfg.Metrics.Enabled {
		return nil
	}

	addr := fmt.Sprintf("%s:%d", cfg.Metrics.Bind, cfg.Metrics.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics server failed to bind %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: readTimeout,
	}
	if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("metrics server stopped: %w", err)
	}
	return nil
}
