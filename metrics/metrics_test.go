// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNewRegistryRegistersEveryMetric(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRegistry(reg)

	m.OpenElections.WithLabelValues("liveness").Set(3)
	m.ConsensusReached.WithLabelValues("liveness").Inc()
	m.OffendersReported.Inc()

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	require.True(t, names["electoral_open_elections"])
	require.True(t, names["electoral_consensus_reached_total"])
	require.True(t, names["thresholdsigner_offenders_reported_total"])
}

func TestRegistryOpenElectionsTracksPerSystemLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRegistry(reg)
	m.OpenElections.WithLabelValues("block_witness").Set(5)

	require.Equal(t, float64(5), testutil.ToFloat64(m.OpenElections.WithLabelValues("block_witness")))
}

func TestNewRegistryPanicsOnDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewRegistry(reg)
	require.Panics(t, func() { NewRegistry(reg) })
}
