// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package electoralsystems

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/equa/go-electoral/electoral"
)

func TestEgressSuccessUnanimousSuccess(t *testing.T) {
	authorities := testAuthorities(10)
	table := electoral.NewElectionTable(authorities)
	es := NewEgressSuccess()

	id := es.OpenElection(table, "broadcast-1", 1)
	e, err := table.ElectionMut(id)
	require.NoError(t, err)
	for _, a := range authorities {
		require.NoError(t, e.Votes.Insert(a, electoral.Vote{Value: []byte{1}}))
	}

	require.NoError(t, es.CheckConsensus(table, id))
	e, err = table.Election(id)
	require.NoError(t, err)

	succeeded, resolved := Succeeded(e)
	require.True(t, resolved)
	require.True(t, succeeded)
}

func TestEgressSuccessUnanimousFailure(t *testing.T) {
	authorities := testAuthorities(10)
	table := electoral.NewElectionTable(authorities)
	es := NewEgressSuccess()

	id := es.OpenElection(table, "broadcast-2", 1)
	e, err := table.ElectionMut(id)
	require.NoError(t, err)
	for i := 0; i < 7; i++ {
		require.NoError(t, e.Votes.Insert(authorities[i], electoral.Vote{Value: []byte{0}}))
	}

	require.NoError(t, es.CheckConsensus(table, id))
	e, err = table.Election(id)
	require.NoError(t, err)

	succeeded, resolved := Succeeded(e)
	require.True(t, resolved)
	require.False(t, succeeded)
}

func TestEgressSuccessStopsNeedingVotesOnceResolved(t *testing.T) {
	authorities := testAuthorities(10)
	table := electoral.NewElectionTable(authorities)
	es := NewEgressSuccess()
	id := es.OpenElection(table, "broadcast-3", 1)

	require.True(t, es.IsVoteNeeded(table, id, authorities[8]), "unresolved election still needs votes")

	e, err := table.ElectionMut(id)
	require.NoError(t, err)
	for i := 0; i < 7; i++ {
		require.NoError(t, e.Votes.Insert(authorities[i], electoral.Vote{Value: []byte{1}}))
	}
	require.NoError(t, es.CheckConsensus(table, id))

	require.False(t, es.IsVoteNeeded(table, id, authorities[8]), "resolved election no longer needs votes")
}

// TestEgressSuccessDissentBlocksConsensus pins unanimity: a quorum
// voting success does not reach consensus if even one other authority
// disagrees, unlike a plain supermajority which would ignore the
// dissent once the threshold is cleared.
func TestEgressSuccessDissentBlocksConsensus(t *testing.T) {
	authorities := testAuthorities(10)
	table := electoral.NewElectionTable(authorities)
	es := NewEgressSuccess()

	id := es.OpenElection(table, "broadcast-4", 1)
	e, err := table.ElectionMut(id)
	require.NoError(t, err)
	for i := 0; i < 7; i++ {
		require.NoError(t, e.Votes.Insert(authorities[i], electoral.Vote{Value: []byte{1}}))
	}
	for i := 7; i < 9; i++ {
		require.NoError(t, e.Votes.Insert(authorities[i], electoral.Vote{Value: []byte{0}}))
	}

	require.NoError(t, es.CheckConsensus(table, id))
	e, err = table.Election(id)
	require.NoError(t, err)

	_, resolved := Succeeded(e)
	require.False(t, resolved, "2 of the 9 voters disagreeing must block consensus even though 7 clears the threshold")
}

func TestEgressSuccessIsVoteValidRejectsMultiByte(t *testing.T) {
	es := NewEgressSuccess()
	err := es.IsVoteValid(nil, electoral.Identifier{}, electoral.Vote{Value: []byte{1, 0}})
	require.Error(t, err)
}
