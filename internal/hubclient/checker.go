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

package hubclient

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net"
	"sync"
	"time"
)

// PingFrequency is the checker's poll rate (5 Hz, per §4.3).
const PingFrequency = 200 * time.Millisecond

// FailureThreshold is the number of consecutive failed polls before a hub is
// declared lost (§8 scenario S4 uses this as "N missed pings").
const FailureThreshold = 3

const dialTimeout = PingFrequency

// latencyWindow bounds the checker's rolling sample buffer. Health
// reporting only needs a recent trend, not the full session history.
const latencyWindow = 20

// Checker is a per-hub background liveness probe (§4.3). One runs per
// connected hub; on the first sustained failure it invokes its onLoss
// callback exactly once, mirroring the stopOnce guard this repo's own
// subscription manager uses for its teardown hook.
type Checker struct {
	hub    Dialable
	onLoss func()

	mu       sync.Mutex
	samples  []float64
	failures int
	lossOnce sync.Once
	stopCh   chan struct{}
	stopOnce sync.Once
}

// Dialable is the address a Checker pings. config.Hub implements it via its
// own Address method, so callers can pass a Hub directly without this
// package importing internal/config.
type Dialable interface {
	Address() string
}

// NewChecker creates a Checker for hub, invoking onLoss at most once when
// the application-level health check fails FailureThreshold times in a row.
func NewChecker(hub Dialable, onLoss func()) *Checker {
	return &Checker{hub: hub, onLoss: onLoss, stopCh: make(chan struct{})}
}

// Run blocks, polling at PingFrequency, until the hub is declared lost or
// ctx is cancelled or Stop is called. Callers run it in its own goroutine.
func (c *Checker) Run(ctx context.Context) {
	ticker := time.NewTicker(PingFrequency)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case <-ticker.C:
			if c.poll() {
				return
			}
		}
	}
}

// poll performs one health check, returning true if the checker should stop
// (the loss hook just fired).
func (c *Checker) poll() bool {
	start := time.Now()
	conn, err := net.DialTimeout("tcp", c.hub.Address(), dialTimeout)
	elapsed := time.Since(start)
	if err == nil {
		_ = conn.Close()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.failures++
		if c.failures >= FailureThreshold {
			c.lossOnce.Do(func() {
				slog.Warn("hubclient: hub connection lost", "hub", c.hub.Address(), "consecutive_failures", c.failures)
				if c.onLoss != nil {
					c.onLoss()
				}
			})
			return true
		}
		return false
	}

	c.failures = 0
	c.recordSample(elapsed.Seconds() * 1000)
	return false
}

func (c *Checker) recordSample(ms float64) {
	c.samples = append(c.samples, ms)
	if len(c.samples) > latencyWindow {
		c.samples = c.samples[len(c.samples)-latencyWindow:]
	}
}

// Latency returns the current min/avg/max/mdev over the sample window.
func (c *Checker) Latency() LatencyStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.samples) == 0 {
		return LatencyStats{}
	}
	min, max, sum := c.samples[0], c.samples[0], 0.0
	for _, s := range c.samples {
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
		sum += s
	}
	avg := sum / float64(len(c.samples))
	devSum := 0.0
	for _, s := range c.samples {
		devSum += math.Abs(s - avg)
	}
	mdev := devSum / float64(len(c.samples))
	return LatencyStats{Min: min, Avg: avg, Max: max, Mdev: mdev}
}

// Stop halts the checker without invoking onLoss, used when the engine
// disconnects a hub deliberately rather than losing it.
func (c *Checker) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

// hubAddress adapts a host/port pair to Dialable without importing
// internal/config here, keeping this package's only config dependency in
// client.go where Connect already needs it.
type hubAddress string

func (h hubAddress) Address() string { return string(h) }

// NewHubAddress builds a Dialable from a host/port pair.
func NewHubAddress(host string, port int) Dialable {
	return hubAddress(fmt.Sprintf("%s:%d", host, port))
}
