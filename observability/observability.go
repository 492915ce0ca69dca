// Copyright (c) 2019-2020 The Zcash developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

// Package observability exposes Prometheus counters/histograms around
// header verification, generalizing the teacher's grpc_prometheus wiring
// to a driver with no gRPC surface of its own.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HeadersVerified counts headers by verification outcome ("ok" or the
	// failing stage name).
	HeadersVerified = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "headerpow_headers_verified_total",
		Help: "Number of headers processed, labeled by outcome.",
	}, []string{"outcome"})

	// VerifyDuration tracks wall-clock time spent per header, across all
	// verification stages.
	VerifyDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "headerpow_verify_duration_seconds",
		Help:    "Time spent verifying a single header.",
		Buckets: prometheus.DefBuckets,
	})

	// ChainTip tracks the height of the most recently verified header.
	ChainTip = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "headerpow_chain_tip_height",
		Help: "Height of the most recently verified header.",
	})
)

func init() {
	prometheus.MustRegister(HeadersVerified, VerifyDuration, ChainTip)
}

// Handler serves the registered metrics in the Prometheus exposition
// format, the same handler the teacher mounted alongside its gRPC server.
func Handler() http.Handler {
	return promhttp.Handler()
}
