// SPDX-License-Identifier: AGPL-3.0-or-later
// m17reflector - a UDP voice-stream reflector for the M17 digital voice protocol
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

// Package metrics exposes the reflector's ambient Prometheus gauges and
// counters: frame/packet throughput, drops, and attachment gauges.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every Prometheus collector the reflector registers.
type Metrics struct {
	FramesTotal   *prometheus.CounterVec
	FramesDropped *prometheus.CounterVec
	StreamsTotal  *prometheus.CounterVec
	ControlTotal  *prometheus.CounterVec

	PeersConnected *prometheus.GaugeVec
	ActiveStreams  *prometheus.GaugeVec
}

// NewMetrics builds and registers the reflector's collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		FramesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "m17reflector_stream_frames_total",
			Help: "Total stream frames routed, by module.",
		}, []string{"module"}),
		FramesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "m17reflector_stream_frames_dropped_total",
			Help: "Total stream frames dropped, by reason.",
		}, []string{"reason"}),
		StreamsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "m17reflector_streams_total",
			Help: "Total streams admitted, by module and kind (broadcast/unicast).",
		}, []string{"module", "kind"}),
		ControlTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "m17reflector_control_frames_total",
			Help: "Total control-plane frames handled, by magic.",
		}, []string{"magic"}),
		PeersConnected: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "m17reflector_peers_connected",
			Help: "Currently attached peers, by module.",
		}, []string{"module"}),
		ActiveStreams: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "m17reflector_active_streams",
			Help: "Currently in-flight streams, by module.",
		}, []string{"module"}),
	}
	m.register()
	return m
}

func (m *Metrics) register() {
	prometheus.MustRegister(m.FramesTotal)
	prometheus.MustRegister(m.FramesDropped)
	prometheus.MustRegister(m.StreamsTotal)
	prometheus.MustRegister(m.ControlTotal)
	prometheus.MustRegister(m.PeersConnected)
	prometheus.MustRegister(m.ActiveStreams)
}

// RecordFrame increments the per-module frame counter.
func (m *Metrics) RecordFrame(module string) {
	m.FramesTotal.WithLabelValues(module).Inc()
}

// RecordDrop increments the drop counter for reason.
func (m *Metrics) RecordDrop(reason string) {
	m.FramesDropped.WithLabelValues(reason).Inc()
}

// RecordStream increments the per-module, per-kind stream counter.
func (m *Metrics) RecordStream(module, kind string) {
	m.StreamsTotal.WithLabelValues(module, kind).Inc()
}

// RecordControl increments the control-frame counter for magic.
func (m *Metrics) RecordControl(magic string) {
	m.ControlTotal.WithLabelValues(magic).Inc()
}

// SetPeersConnected sets the current peer gauge for module.
func (m *Metrics) SetPeersConnected(module string, count float64) {
	m.PeersConnected.WithLabelValues(module).Set(count)
}

// SetActiveStreams sets the current active-stream gauge for module.
func (m *Metrics) SetActiveStreams(module string, count float64) {
	m.ActiveStreams.WithLabelValues(module).Set(count)
}
