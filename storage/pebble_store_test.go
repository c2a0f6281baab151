// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func TestStorePutGetElectionRoundTrip(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.PutElection([]byte("election-1"), []byte("snapshot")))

	got, err := s.GetElection([]byte("election-1"))
	require.NoError(t, err)
	require.Equal(t, []byte("snapshot"), got)
}

func TestStoreDeleteElection(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.PutElection([]byte("election-1"), []byte("snapshot")))
	require.NoError(t, s.DeleteElection([]byte("election-1")))

	_, err := s.GetElection([]byte("election-1"))
	require.Error(t, err)
}

func TestStorePutGetCeremonyRoundTrip(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.PutCeremony([]byte("ceremony-1"), []byte("state")))

	got, err := s.GetCeremony([]byte("ceremony-1"))
	require.NoError(t, err)
	require.Equal(t, []byte("state"), got)
}

func TestStorePutGetUnsynchronisedRoundTrip(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.PutUnsynchronised([]byte("bhw-tip"), []byte("42")))

	got, err := s.GetUnsynchronised([]byte("bhw-tip"))
	require.NoError(t, err)
	require.Equal(t, []byte("42"), got)
}

func TestStoreNamespacesDoNotCollide(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.PutElection([]byte("x"), []byte("election-value")))
	require.NoError(t, s.PutCeremony([]byte("x"), []byte("ceremony-value")))

	e, err := s.GetElection([]byte("x"))
	require.NoError(t, err)
	require.Equal(t, []byte("election-value"), e)

	c, err := s.GetCeremony([]byte("x"))
	require.NoError(t, err)
	require.Equal(t, []byte("ceremony-value"), c)
}

func TestStoreIterateWalksOnlyItsNamespace(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.PutElection([]byte("a"), []byte("1")))
	require.NoError(t, s.PutElection([]byte("b"), []byte("2")))
	require.NoError(t, s.PutCeremony([]byte("c"), []byte("3")))

	seen := make(map[string]string)
	require.NoError(t, s.Iterate(prefixElection, func(key, value []byte) error {
		seen[string(key)] = string(value)
		return nil
	}))

	require.Equal(t, map[string]string{"a": "1", "b": "2"}, seen)
}
