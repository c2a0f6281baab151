// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package electoralsystems

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/equa/go-electoral/electoral"
)

func TestLivenessPerAuthorityParticipation(t *testing.T) {
	authorities := testAuthorities(4)
	table := electoral.NewElectionTable(authorities)
	l := NewLiveness(10)

	for block := uint64(1); block <= 3; block++ {
		id := l.OpenRound(table, block)
		e, err := table.ElectionMut(id)
		require.NoError(t, err)
		// authority 3 never votes, simulating a dropped connection.
		for i := 0; i < 3; i++ {
			require.NoError(t, e.Votes.Insert(authorities[i], electoral.Vote{Value: []byte{1}}))
		}
	}

	counts := l.PerAuthorityParticipation(table, 3)
	require.Equal(t, uint64(3), counts[authorities[0]])
	require.Equal(t, uint64(3), counts[authorities[1]])
	require.Equal(t, uint64(3), counts[authorities[2]])
	require.Equal(t, uint64(0), counts[authorities[3]])
}

func TestLivenessOnFinalizePrunesOutsideWindow(t *testing.T) {
	authorities := testAuthorities(3)
	table := electoral.NewElectionTable(authorities)
	l := NewLiveness(2)

	l.OpenRound(table, 1)
	require.Len(t, table.ElectionsByExtra(livenessExtra(1)), 1)

	// window of 2: round 1 falls out of the window once the chain
	// reaches block 4 (4 - 2 - 1 = 1).
	require.NoError(t, l.OnFinalize(table, 3))
	require.Len(t, table.ElectionsByExtra(livenessExtra(1)), 1, "round 1 is still within the window at block 3")

	require.NoError(t, l.OnFinalize(table, 4))
	require.Empty(t, table.ElectionsByExtra(livenessExtra(1)), "round older than the window should be pruned")
}

func TestLivenessIsVoteValidAcceptsAnything(t *testing.T) {
	l := NewLiveness(10)
	require.NoError(t, l.IsVoteValid(nil, electoral.Identifier{}, electoral.Vote{}))
}
