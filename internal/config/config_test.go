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

package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/rocon-go/gateway/internal/config"
)

func makeValidConfig() config.Config {
	return config.Config{
		LogLevel: config.LogLevelInfo,
		Gateway:  config.Gateway{Name: "gateway1"},
		Hubs:     []config.Hub{{Host: "localhost", Port: 6380}},
		HTTP:     config.HTTP{Bind: "0.0.0.0", Port: 3500, CanonicalHost: "http://localhost:3500"},
		Watcher:  config.Watcher{TickRate: 500 * time.Millisecond},
	}
}

// --- Redis Validation ---

func TestRedisValidateDisabled(t *testing.T) {
	t.Parallel()
	r := config.Redis{Enabled: false}
	if err := r.Validate(); err != nil {
		t.Errorf("Expected nil error for disabled Redis, got %v", err)
	}
}

func TestRedisValidateEmptyHost(t *testing.T) {
	t.Parallel()
	r := config.Redis{Enabled: true, Host: "", Port: 6379}
	if !errors.Is(r.Validate(), config.ErrInvalidRedisHost) {
		t.Errorf("Expected ErrInvalidRedisHost, got %v", r.Validate())
	}
}

func TestRedisValidateInvalidPort(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		port int
	}{
		{"zero", 0},
		{"negative", -1},
		{"too high", 70000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := config.Redis{Enabled: true, Host: "localhost", Port: tt.port}
			if !errors.Is(r.Validate(), config.ErrInvalidRedisPort) {
				t.Errorf("Expected ErrInvalidRedisPort for port %d, got %v", tt.port, r.Validate())
			}
		})
	}
}

func TestRedisValidateValid(t *testing.T) {
	t.Parallel()
	r := config.Redis{Enabled: true, Host: "localhost", Port: 6379}
	if err := r.Validate(); err != nil {
		t.Errorf("Expected nil error, got %v", err)
	}
}

// --- Gateway Validation ---

func TestGatewayValidateEmptyName(t *testing.T) {
	t.Parallel()
	g := config.Gateway{}
	if !errors.Is(g.Validate(), config.ErrGatewayNameRequired) {
		t.Errorf("Expected ErrGatewayNameRequired, got %v", g.Validate())
	}
}

func TestGatewayValidateValid(t *testing.T) {
	t.Parallel()
	g := config.Gateway{Name: "gateway1"}
	if err := g.Validate(); err != nil {
		t.Errorf("Expected nil error, got %v", err)
	}
}

// --- Hub Validation ---

func TestHubValidateEmptyHost(t *testing.T) {
	t.Parallel()
	h := config.Hub{Host: "", Port: 6380}
	if !errors.Is(h.Validate(), config.ErrInvalidHubHost) {
		t.Errorf("Expected ErrInvalidHubHost, got %v", h.Validate())
	}
}

func TestHubValidateInvalidPort(t *testing.T) {
	t.Parallel()
	h := config.Hub{Host: "localhost", Port: 0}
	if !errors.Is(h.Validate(), config.ErrInvalidHubPort) {
		t.Errorf("Expected ErrInvalidHubPort, got %v", h.Validate())
	}
}

func TestHubValidateValid(t *testing.T) {
	t.Parallel()
	h := config.Hub{Host: "localhost", Port: 6380}
	if err := h.Validate(); err != nil {
		t.Errorf("Expected nil error, got %v", err)
	}
}

// --- HTTP Validation ---

func TestHTTPValidateEmptyBind(t *testing.T) {
	t.Parallel()
	h := config.HTTP{Bind: "", Port: 3500, CanonicalHost: "http://localhost"}
	if !errors.Is(h.Validate(), config.ErrInvalidHTTPHost) {
		t.Errorf("Expected ErrInvalidHTTPHost, got %v", h.Validate())
	}
}

func TestHTTPValidateInvalidPort(t *testing.T) {
	t.Parallel()
	h := config.HTTP{Bind: "0.0.0.0", Port: -1, CanonicalHost: "http://localhost"}
	if !errors.Is(h.Validate(), config.ErrInvalidHTTPPort) {
		t.Errorf("Expected ErrInvalidHTTPPort, got %v", h.Validate())
	}
}

func TestHTTPValidateValid(t *testing.T) {
	t.Parallel()
	h := config.HTTP{Bind: "0.0.0.0", Port: 3500, CanonicalHost: "http://localhost:3500"}
	if err := h.Validate(); err != nil {
		t.Errorf("Expected nil error, got %v", err)
	}
}

// --- Watcher Validation ---

func TestWatcherValidateZeroTickRate(t *testing.T) {
	t.Parallel()
	w := config.Watcher{TickRate: 0}
	if !errors.Is(w.Validate(), config.ErrInvalidWatcherTickRate) {
		t.Errorf("Expected ErrInvalidWatcherTickRate, got %v", w.Validate())
	}
}

func TestWatcherValidateValid(t *testing.T) {
	t.Parallel()
	w := config.Watcher{TickRate: time.Second}
	if err := w.Validate(); err != nil {
		t.Errorf("Expected nil error, got %v", err)
	}
}

// --- Metrics Validation ---

func TestMetricsValidateDisabled(t *testing.T) {
	t.Parallel()
	m := config.Metrics{Enabled: false}
	if err := m.Validate(); err != nil {
		t.Errorf("Expected nil error, got %v", err)
	}
}

func TestMetricsValidateValid(t *testing.T) {
	t.Parallel()
	m := config.Metrics{Enabled: true, Bind: "0.0.0.0", Port: 9100}
	if err := m.Validate(); err != nil {
		t.Errorf("Expected nil error, got %v", err)
	}
}

// --- Full Config Validation ---

func TestConfigValidateInvalidLogLevel(t *testing.T) {
	t.Parallel()
	c := makeValidConfig()
	c.LogLevel = "invalid"
	if !errors.Is(c.Validate(), config.ErrInvalidLogLevel) {
		t.Errorf("Expected ErrInvalidLogLevel, got %v", c.Validate())
	}
}

func TestConfigValidateNoHubs(t *testing.T) {
	t.Parallel()
	c := makeValidConfig()
	c.Hubs = nil
	if !errors.Is(c.Validate(), config.ErrNoHubsConfigured) {
		t.Errorf("Expected ErrNoHubsConfigured, got %v", c.Validate())
	}
}

func TestConfigValidateValid(t *testing.T) {
	t.Parallel()
	c := makeValidConfig()
	if err := c.Validate(); err != nil {
		t.Errorf("Expected nil error, got %v", err)
	}
}

func TestConfigValidateAllLogLevels(t *testing.T) {
	t.Parallel()
	levels := []config.LogLevel{config.LogLevelDebug, config.LogLevelInfo, config.LogLevelWarn, config.LogLevelError}
	for _, level := range levels {
		t.Run(string(level), func(t *testing.T) {
			t.Parallel()
			c := makeValidConfig()
			c.LogLevel = level
			if err := c.Validate(); err != nil {
				t.Errorf("Expected nil error for log level %s, got %v", level, err)
			}
		})
	}
}
