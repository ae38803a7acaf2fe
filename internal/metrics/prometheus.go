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
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the gateway process's Prometheus gauges/counters, sampled once
// per watcher tick (§4.7) against the engine's current state.
type Metrics struct {
	ConnectedHubs      prometheus.Gauge
	AdvertisedTotal    prometheus.Gauge
	FlippedOutTotal    prometheus.Gauge
	FlipInPending      prometheus.Gauge
	FlipInAccepted     prometheus.Gauge
	FlipInBlocked      prometheus.Gauge
	PulledTotal        prometheus.Gauge
	WatcherTickSeconds prometheus.Histogram
}

func NewMetrics() *Metrics {
	m := &Metrics{
		ConnectedHubs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gateway_connected_hubs",
			Help: "The number of hubs this gateway currently has a live connection to",
		}),
		AdvertisedTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gateway_advertised_connections_total",
			Help: "The number of local connections currently advertised on the public interface",
		}),
		FlippedOutTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gateway_flipped_out_total",
			Help: "The number of local connections currently flipped out to remote gateways",
		}),
		FlipInPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gateway_flip_in_pending",
			Help: "The number of inbound flip offers awaiting an accept-policy decision",
		}),
		FlipInAccepted: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gateway_flip_in_accepted",
			Help: "The number of inbound flip offers currently accepted and registered locally",
		}),
		FlipInBlocked: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gateway_flip_in_blocked",
			Help: "The number of inbound flip offers blocked by the accept policy",
		}),
		PulledTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gateway_pulled_registrations_total",
			Help: "The number of remote connections currently pulled and registered locally",
		}),
		WatcherTickSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gateway_watcher_tick_duration_seconds",
			Help:    "Duration of one full watcher reconciliation tick",
			Buckets: prometheus.DefBuckets,
		}),
	}
	m.register()
	return m
}

func (m *Metrics) register() {
	prometheus.MustRegister(m.ConnectedHubs)
	prometheus.MustRegister(m.AdvertisedTotal)
	prometheus.MustRegister(m.FlippedOutTotal)
	prometheus.MustRegister(m.FlipInPending)
	prometheus.MustRegister(m.FlipInAccepted)
	prometheus.MustRegister(m.FlipInBlocked)
	prometheus.MustRegister(m.PulledTotal)
	prometheus.MustRegister(m.WatcherTickSeconds)
}

// ObserveTick records one watcher tick's wall-clock duration in seconds.
func (m *Metrics) ObserveTick(seconds float64) {
	m.WatcherTickSeconds.Observe(seconds)
}

// SetConnectedHubs records the current number of live hub connections.
func (m *Metrics) SetConnectedHubs(count int) {
	m.ConnectedHubs.Set(float64(count))
}

// SetAdvertisedTotal records the current size of the public interface's
// advertised set.
func (m *Metrics) SetAdvertisedTotal(count int) {
	m.AdvertisedTotal.Set(float64(count))
}

// SetFlippedOutTotal records the current size of the committed outbound
// flip set.
func (m *Metrics) SetFlippedOutTotal(count int) {
	m.FlippedOutTotal.Set(float64(count))
}

// SetFlipInCounts records the inbound flip_ins breakdown by status.
func (m *Metrics) SetFlipInCounts(pending, accepted, blocked int) {
	m.FlipInPending.Set(float64(pending))
	m.FlipInAccepted.Set(float64(accepted))
	m.FlipInBlocked.Set(float64(blocked))
}

// SetPulledTotal records the current number of locally registered pulls.
func (m *Metrics) SetPulledTotal(count int) {
	m.PulledTotal.Set(float64(count))
}
