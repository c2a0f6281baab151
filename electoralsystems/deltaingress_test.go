// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package electoralsystems

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/equa/go-electoral/electoral"
)

func TestDeltaBasedIngressOpenElectionIsIdempotent(t *testing.T) {
	table := electoral.NewElectionTable(testAuthorities(3))
	d := NewDeltaBasedIngress(100)

	id1 := d.OpenElection(table, "addr-1", 1)
	id2 := d.OpenElection(table, "addr-1", 2)
	require.Equal(t, id1, id2)
	require.Len(t, table.All(), 1)
}

func TestDeltaBasedIngressResolvesMonotonicBalance(t *testing.T) {
	authorities := testAuthorities(7)
	table := electoral.NewElectionTable(authorities)
	d := NewDeltaBasedIngress(100)

	id := d.OpenElection(table, "addr-1", 1)
	e, err := table.ElectionMut(id)
	require.NoError(t, err)
	value := uint256.NewInt(500).Bytes32()
	for i := 0; i < 7; i++ {
		require.NoError(t, e.Votes.Insert(authorities[i], electoral.Vote{Value: value[:]}))
	}

	require.NoError(t, d.CheckConsensus(table, id))
	e, err = table.Election(id)
	require.NoError(t, err)
	require.True(t, e.Status.HasConsensus())
	require.Equal(t, value[:], e.Consensus)
}

func TestDeltaBasedIngressBackoffGrowsWhenBalanceUnchanged(t *testing.T) {
	authorities := testAuthorities(7)
	table := electoral.NewElectionTable(authorities)
	d := NewDeltaBasedIngress(8)

	id := d.OpenElection(table, "addr-1", 1)
	value := uint256.NewInt(500).Bytes32()

	castBalance := func() {
		e, err := table.ElectionMut(id)
		require.NoError(t, err)
		e.Votes.Remove(authorities[0])
		for i := 0; i < 7; i++ {
			require.NoError(t, e.Votes.Insert(authorities[i], electoral.Vote{Value: value[:]}))
		}
		require.NoError(t, d.CheckConsensus(table, id))
	}

	castBalance()
	first := d.backoffFor(table, "addr-1")
	require.Equal(t, uint64(0), first.BlocksSinceChange)

	castBalance()
	second := d.backoffFor(table, "addr-1")
	require.Equal(t, uint64(1), second.BlocksSinceChange)
}

func TestDeltaBasedIngressPollIntervalCapsAtMaxBackoff(t *testing.T) {
	d := NewDeltaBasedIngress(8)
	interval := d.pollInterval(IngressBackoff{BlocksSinceChange: 1000})
	require.Equal(t, uint64(8), interval)
}

func TestDeltaBasedIngressIsVoteValidRejectsOversizedBalance(t *testing.T) {
	d := NewDeltaBasedIngress(8)
	err := d.IsVoteValid(nil, electoral.Identifier{}, electoral.Vote{Value: make([]byte, 33)})
	require.Error(t, err)
}
