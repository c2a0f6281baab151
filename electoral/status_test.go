// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package electoral

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConsensusStatusAdvanceLattice(t *testing.T) {
	var s ConsensusStatus = StatusNone
	require.False(t, s.HasConsensus())

	s = s.Advance(true, false)
	require.Equal(t, StatusGained, s)
	require.True(t, s.HasConsensus())

	s = s.Advance(true, false)
	require.Equal(t, StatusUnchanged, s)

	s = s.Advance(true, true)
	require.Equal(t, StatusChanged, s)

	s = s.Advance(false, false)
	require.Equal(t, StatusLost, s)
	require.False(t, s.HasConsensus())
}

func TestConsensusStatusString(t *testing.T) {
	tests := []struct {
		status ConsensusStatus
		want   string
	}{
		{StatusNone, "None"},
		{StatusGained, "Gained"},
		{StatusUnchanged, "Unchanged"},
		{StatusChanged, "Changed"},
		{StatusLost, "Lost"},
		{ConsensusStatus(99), "Unknown"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, tt.status.String())
	}
}
