/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package vrtio

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes the Reader's counters to a caller-owned Prometheus
// registry, in the same "plain struct of pre-built collectors, registered
// once by the caller" shape as ptp/sptp/stats.PrometheusExporter.
type Metrics struct {
	PacketsReceived prometheus.Counter
	FramesReceived  prometheus.Counter
	MissedPackets   prometheus.Counter
	MissedFrames    prometheus.Counter
	QueueDropped    prometheus.Counter
	QueueDepth      prometheus.Gauge
}

// NewMetrics builds a Metrics and registers every collector on reg.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		PacketsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vrtio_packets_received_total",
			Help: "VRT packets received, after VRL unframing.",
		}),
		FramesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vrtio_frames_received_total",
			Help: "VRL frames received.",
		}),
		MissedPackets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vrtio_missed_packets_total",
			Help: "Per-stream packet-count discontinuities detected.",
		}),
		MissedFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vrtio_missed_frames_total",
			Help: "Per-transmitter frame-count discontinuities detected.",
		}),
		QueueDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vrtio_queue_dropped_total",
			Help: "Packets dropped by the purge policy on a full queue.",
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vrtio_queue_depth",
			Help: "Current depth of the socket-to-dispatch packet queue.",
		}),
	}
	reg.MustRegister(m.PacketsReceived, m.FramesReceived, m.MissedPackets, m.MissedFrames, m.QueueDropped, m.QueueDepth)
	return m
}
