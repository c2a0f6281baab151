// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package electoralsystems

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/equa/go-electoral/electoral"
)

func TestMonotonicChangeProgressesToFinal(t *testing.T) {
	authorities := testAuthorities(10)
	table := electoral.NewElectionTable(authorities)
	m := NewMonotonicChange()

	id := m.OpenElection(table, "vault_epoch", 1)
	e, err := table.ElectionMut(id)
	require.NoError(t, err)

	value := []byte{0, 0, 0, 5}
	for i := 0; i < 4; i++ { // provisional threshold for n=10 is 4
		require.NoError(t, e.Votes.Insert(authorities[i], electoral.Vote{Value: value}))
	}
	require.NoError(t, m.CheckConsensus(table, id))
	e, err = table.Election(id)
	require.NoError(t, err)
	require.False(t, e.Status.HasConsensus(), "provisional majority should not count as consensus")

	for i := 4; i < 7; i++ {
		e, err := table.ElectionMut(id)
		require.NoError(t, err)
		require.NoError(t, e.Votes.Insert(authorities[i], electoral.Vote{Value: value}))
	}
	require.NoError(t, m.CheckConsensus(table, id))
	e, err = table.Election(id)
	require.NoError(t, err)
	require.True(t, e.Status.HasConsensus())
	require.Equal(t, value, e.Consensus)
}

func TestMonotonicChangeRejectsBackwardsVote(t *testing.T) {
	authorities := testAuthorities(10)
	table := electoral.NewElectionTable(authorities)
	m := NewMonotonicChange()
	id := m.OpenElection(table, "vault_epoch", 1)

	high := []byte{0, 0, 0, 10}
	low := []byte{0, 0, 0, 1}
	for i := 0; i < 7; i++ {
		e, err := table.ElectionMut(id)
		require.NoError(t, err)
		require.NoError(t, e.Votes.Insert(authorities[i], electoral.Vote{Value: high}))
	}
	require.NoError(t, m.CheckConsensus(table, id))

	err := m.IsVoteValid(table, id, electoral.Vote{Value: low})
	require.Error(t, err)
}

func TestMonotonicChangeOpenElectionIsIdempotent(t *testing.T) {
	table := electoral.NewElectionTable(testAuthorities(1))
	m := NewMonotonicChange()
	id1 := m.OpenElection(table, "vault_epoch", 1)
	id2 := m.OpenElection(table, "vault_epoch", 2)
	require.Equal(t, id1, id2)
}
