// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package consensusmech

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStagedConsensusProgressesThroughStages(t *testing.T) {
	s := StagedConsensus{ProvisionalNumerator: 1, ProvisionalDenominator: 3}
	value := []byte("candidate")

	// n=10: provisional threshold = ceil(10/3) = 4, final threshold = 7.
	_, stage := s.ResolveStaged(votesFor(3, value), 10)
	require.Equal(t, StagePending, stage)

	_, stage = s.ResolveStaged(votesFor(4, value), 10)
	require.Equal(t, StageProvisional, stage)

	got, stage := s.ResolveStaged(votesFor(7, value), 10)
	require.Equal(t, StageFinal, stage)
	require.Equal(t, value, got)
}

func TestStagedConsensusResolveOnlyAcceptsFinal(t *testing.T) {
	s := StagedConsensus{ProvisionalNumerator: 1, ProvisionalDenominator: 3}
	value := []byte("candidate")

	_, found := s.Resolve(votesFor(4, value), 10)
	require.False(t, found)

	got, found := s.Resolve(votesFor(7, value), 10)
	require.True(t, found)
	require.Equal(t, value, got)
}

func TestStagedConsensusNoProvisionalThreshold(t *testing.T) {
	s := StagedConsensus{}
	_, stage := s.ResolveStaged(votesFor(4, []byte("x")), 10)
	require.Equal(t, StagePending, stage)
}

func TestStagedConsensusZeroAuthorities(t *testing.T) {
	s := StagedConsensus{ProvisionalNumerator: 1, ProvisionalDenominator: 3}
	_, stage := s.ResolveStaged(nil, 0)
	require.Equal(t, StagePending, stage)
}
