// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package electoral

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestElectionTableNewElectionAndLookup(t *testing.T) {
	table := NewElectionTable(addrs(3))
	id := table.NewElection("block-100", Properties("props"), Settings("settings"), NewBitmapVoteStorage(addrs(3)), 100)

	require.Equal(t, "block-100", id.Extra)
	require.Equal(t, 1, table.Len())

	e, err := table.Election(id)
	require.NoError(t, err)
	require.Equal(t, Properties("props"), e.Properties)
	require.Equal(t, uint64(100), e.CreatedAtBlock)

	byExtra := table.ElectionsByExtra("block-100")
	require.Len(t, byExtra, 1)
	require.Equal(t, id, byExtra[0].ID)
}

func TestElectionTableElectionNotFound(t *testing.T) {
	table := NewElectionTable(addrs(1))
	_, err := table.Election(Identifier{UMI: 999})
	require.ErrorIs(t, err, ErrElectionNotFound)

	_, err = table.ElectionMut(Identifier{UMI: 999})
	require.ErrorIs(t, err, ErrElectionNotFound)
}

func TestElectionTableDeleteElection(t *testing.T) {
	table := NewElectionTable(addrs(1))
	id := table.NewElection("x", nil, nil, NewChangeVoteStorage(), 1)
	require.Equal(t, 1, table.Len())

	require.NoError(t, table.DeleteElection(id))
	require.Equal(t, 0, table.Len())
	require.Empty(t, table.ElectionsByExtra("x"))

	err := table.DeleteElection(id)
	require.ErrorIs(t, err, ErrElectionNotFound)
}

func TestElectionTableUnsynchronisedState(t *testing.T) {
	table := NewElectionTable(addrs(1))
	_, ok := table.UnsynchronisedState("tip")
	require.False(t, ok)

	table.SetUnsynchronisedState("tip", []byte("hash-100"))
	v, ok := table.UnsynchronisedState("tip")
	require.True(t, ok)
	require.Equal(t, []byte("hash-100"), v)
}

func TestElectionTableUnsynchronisedStateMap(t *testing.T) {
	table := NewElectionTable(addrs(1))
	addr := addrs(1)[0].Hex()

	table.SetUnsynchronisedStateMap("backoff", addr, []byte{5})
	v, ok := table.UnsynchronisedStateMap("backoff", addr)
	require.True(t, ok)
	require.Equal(t, []byte{5}, v)

	_, ok = table.UnsynchronisedStateMap("backoff", "missing")
	require.False(t, ok)
}

func TestElectionTableAuthorities(t *testing.T) {
	initial := addrs(2)
	table := NewElectionTable(initial)
	require.Equal(t, initial, table.CurrentAuthorities())

	rotated := addrs(3)
	table.SetAuthorities(rotated)
	require.Equal(t, rotated, table.CurrentAuthorities())
}

func TestElectionTableAllReturnsEveryOpenElection(t *testing.T) {
	table := NewElectionTable(addrs(1))
	table.NewElection("a", nil, nil, NewChangeVoteStorage(), 1)
	table.NewElection("b", nil, nil, NewChangeVoteStorage(), 2)

	require.Len(t, table.All(), 2)
}
