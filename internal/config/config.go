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

// Package config declares the gateway's configuration tree, loaded and
// validated through configulator the same way as every other setting in
// this codebase: flags, environment variables, and a config file all bind
// onto the same struct, and Validate walks it once at startup.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for a gateway process.
type Config struct {
	LogLevel LogLevel `yaml:"log_level" default:"info"`
	Gateway  Gateway  `yaml:"gateway"`
	Hubs     []Hub    `yaml:"hubs"`
	Redis    Redis    `yaml:"redis"`
	HTTP     HTTP     `yaml:"http"`
	Watcher  Watcher  `yaml:"watcher"`
	Metrics  Metrics  `yaml:"metrics"`
}

// Gateway names this process on the hub and sets its default exposure policy.
type Gateway struct {
	// Name is the gateway's unique identifier on the hub. Gateway.Validate
	// rejects an empty name; engine.New, when handed a config with an empty
	// name directly, generates a random "gateway_" plus six hex digits.
	Name string `yaml:"name"`
	// Firewall, when true, blocks all remote flip requests targeting this
	// gateway regardless of rule matching.
	Firewall bool `yaml:"firewall"`
	// AdvertiseAll starts the gateway with a "*/.*" wildcard already in its
	// public interface whitelist, equivalent to calling make_all_public at
	// startup.
	AdvertiseAll bool `yaml:"advertise_all" default:"false"`
}

// Hub is one hub this gateway connects to at startup.
type Hub struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port" default:"6380"`
}

// Address returns the "host:port" form used to dial the hub directly (the
// connection checker's TCP reachability probe bypasses Redis entirely).
func (h Hub) Address() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// Redis configures the shared hub backend. When disabled, an in-process
// store is used instead — useful for tests and single-gateway demos, but it
// cannot federate with a second process.
type Redis struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host" default:"localhost"`
	Port     int    `yaml:"port" default:"6379"`
	Password string `yaml:"password"`
}

// HTTP configures the operator-facing RPC surface (§6.1).
type HTTP struct {
	Bind          string `yaml:"bind" default:"0.0.0.0"`
	Port          int    `yaml:"port" default:"3500"`
	CanonicalHost string `yaml:"canonical_host"`
}

// Watcher configures the reconciliation loop's tick rate.
type Watcher struct {
	TickRate time.Duration `yaml:"tick_rate" default:"500ms"`
}

// Metrics configures the Prometheus endpoint and optional OTLP tracing.
type Metrics struct {
	Enabled      bool   `yaml:"enabled"`
	Bind         string `yaml:"bind" default:"0.0.0.0"`
	Port         int    `yaml:"port" default:"9100"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
}
