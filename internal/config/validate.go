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

package config

import "errors"

var (
	// ErrInvalidLogLevel indicates that the provided log level is not valid.
	ErrInvalidLogLevel = errors.New("invalid log level provided")
	// ErrGatewayNameRequired indicates the gateway has no name and none could be generated.
	ErrGatewayNameRequired = errors.New("gateway name is required")
	// ErrNoHubsConfigured indicates no hub addresses were configured.
	ErrNoHubsConfigured = errors.New("at least one hub must be configured")
	// ErrInvalidHubHost indicates a configured hub has no host.
	ErrInvalidHubHost = errors.New("invalid hub host provided")
	// ErrInvalidHubPort indicates a configured hub has an out-of-range port.
	ErrInvalidHubPort = errors.New("invalid hub port provided")
	// ErrInvalidRedisHost indicates that the provided Redis host is not valid.
	ErrInvalidRedisHost = errors.New("invalid Redis host provided")
	// ErrInvalidRedisPort indicates that the provided Redis port is not valid.
	ErrInvalidRedisPort = errors.New("invalid Redis port provided")
	// ErrInvalidHTTPHost indicates that the provided HTTP bind address is not valid.
	ErrInvalidHTTPHost = errors.New("invalid HTTP bind address provided")
	// ErrInvalidHTTPPort indicates that the provided HTTP port is not valid.
	ErrInvalidHTTPPort = errors.New("invalid HTTP port provided")
	// ErrInvalidWatcherTickRate indicates a non-positive watcher tick rate.
	ErrInvalidWatcherTickRate = errors.New("watcher tick rate must be positive")
	// ErrInvalidMetricsBindAddress indicates that the provided metrics server bind address is not valid.
	ErrInvalidMetricsBindAddress = errors.New("invalid metrics server bind address provided")
	// ErrInvalidMetricsPort indicates that the provided metrics server port is not valid.
	ErrInvalidMetricsPort = errors.New("invalid metrics server port provided")
)

// Validate validates the Gateway configuration.
func (g Gateway) Validate() error {
	if g.Name == "" {
		return ErrGatewayNameRequired
	}
	return nil
}

// Validate validates a single Hub entry.
func (h Hub) Validate() error {
	if h.Host == "" {
		return ErrInvalidHubHost
	}
	if h.Port <= 0 || h.Port > 65535 {
		return ErrInvalidHubPort
	}
	return nil
}

// Validate validates the Redis configuration.
func (r Redis) Validate() error {
	if !r.Enabled {
		return nil
	}
	if r.Host == "" {
		return ErrInvalidRedisHost
	}
	if r.Port <= 0 || r.Port > 65535 {
		return ErrInvalidRedisPort
	}
	return nil
}

// Validate validates the HTTP configuration.
func (h HTTP) Validate() error {
	if h.Bind == "" {
		return ErrInvalidHTTPHost
	}
	if h.Port <= 0 || h.Port > 65535 {
		return ErrInvalidHTTPPort
	}
	return nil
}

// Validate validates the Watcher configuration.
func (w Watcher) Validate() error {
	if w.TickRate <= 0 {
		return ErrInvalidWatcherTickRate
	}
	return nil
}

// Validate validates the Metrics configuration.
func (m Metrics) Validate() error {
	if !m.Enabled {
		return nil
	}
	if m.Bind == "" {
		return ErrInvalidMetricsBindAddress
	}
	if m.Port <= 0 || m.Port > 65535 {
		return ErrInvalidMetricsPort
	}
	return nil
}

// Validate validates the complete configuration tree.
func (c Config) Validate() error {
	if c.LogLevel != LogLevelDebug &&
		c.LogLevel != LogLevelInfo &&
		c.LogLevel != LogLevelWarn &&
		c.LogLevel != LogLevelError {
		return ErrInvalidLogLevel
	}

	if err := c.Gateway.Validate(); err != nil {
		return err
	}

	if len(c.Hubs) == 0 {
		return ErrNoHubsConfigured
	}
	for _, h := range c.Hubs {
		if err := h.Validate(); err != nil {
			return err
		}
	}

	if err := c.Redis.Validate(); err != nil {
		return err
	}

	if err := c.HTTP.Validate(); err != nil {
		return err
	}

	if err := c.Watcher.Validate(); err != nil {
		return err
	}

	if err := c.Metrics.Validate(); err != nil {
		return err
	}

	return nil
}
