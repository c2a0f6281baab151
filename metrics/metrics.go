// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

// Package metrics exposes the engine's internal counters and
// histograms via Prometheus: open-election counts per system,
// consensus status transition counts, and threshold-signing ceremony
// latency.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles every metric the engine reports, constructed once
// at startup and threaded through the components that update it.
type Registry struct {
	OpenElections      *prometheus.GaugeVec
	ConsensusReached   *prometheus.CounterVec
	ConsensusLost      *prometheus.CounterVec
	CeremonyDuration   *prometheus.HistogramVec
	CeremonyFailures   *prometheus.CounterVec
	OffendersReported  prometheus.Counter
}

// NewRegistry constructs and registers every metric against reg.
func NewRegistry(reg prometheus.Registerer) *Registry {
	m := &Registry{
		OpenElections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "electoral",
			Name:      "open_elections",
			Help:      "Number of currently open elections per electoral system.",
		}, []string{"system"}),
		ConsensusReached: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "electoral",
			Name:      "consensus_reached_total",
			Help:      "Number of times an election transitioned into consensus.",
		}, []string{"system"}),
		ConsensusLost: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "electoral",
			Name:      "consensus_lost_total",
			Help:      "Number of times an election lost previously reached consensus.",
		}, []string{"system"}),
		CeremonyDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "thresholdsigner",
			Name:      "ceremony_duration_seconds",
			Help:      "Time taken for a signing ceremony attempt to complete or fail.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"chain", "outcome"}),
		CeremonyFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "thresholdsigner",
			Name:      "ceremony_failures_total",
			Help:      "Number of failed ceremony attempts by chain.",
		}, []string{"chain"}),
		OffendersReported: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "thresholdsigner",
			Name:      "offenders_reported_total",
			Help:      "Number of authorities reported as ceremony offenders.",
		}),
	}
	reg.MustRegister(m.OpenElections, m.ConsensusReached, m.ConsensusLost, m.CeremonyDuration, m.CeremonyFailures, m.OffendersReported)
	return m
}

// Serve starts an HTTP server exposing /metrics on addr. It returns
// immediately, serving from its own goroutine; callers shut it down via
// the returned server's Shutdown.
func Serve(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}
	go srv.ListenAndServe()
	return srv
}
