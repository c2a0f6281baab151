// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package electoralsystems

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/equa/go-electoral/common"
	"github.com/equa/go-electoral/electoral"
)

func testAuthorities(n int) common.AddressList {
	out := make(common.AddressList, n)
	for i := range out {
		out[i] = common.BytesToAddress([]byte{byte(i + 1)})
	}
	return out
}

func castVotes(t *testing.T, access electoral.Access, id electoral.Identifier, authorities common.AddressList, value []byte, count int) {
	t.Helper()
	e, err := access.ElectionMut(id)
	require.NoError(t, err)
	for i := 0; i < count; i++ {
		require.NoError(t, e.Votes.Insert(authorities[i], electoral.Vote{Value: value}))
	}
}

func hashFor(b byte) common.Hash {
	var h common.Hash
	h[0] = b
	return h
}

func TestBlockHeightWitnesserOpensAndResolvesHeights(t *testing.T) {
	authorities := testAuthorities(10)
	table := electoral.NewElectionTable(authorities)
	w := NewBlockHeightWitnesser(2)

	require.NoError(t, w.OnFinalize(table, 1))
	elections := table.ElectionsByExtra(heightExtra(1))
	require.Len(t, elections, 1)
	id := elections[0].ID

	vote := encodeBlockVote(hashFor(0xaa), common.Hash{})
	castVotes(t, table, id, authorities, vote, 7)

	require.NoError(t, w.CheckConsensus(table, id))
	e, err := table.Election(id)
	require.NoError(t, err)
	require.True(t, e.Status.HasConsensus())

	// OnFinalize advances the snapshot tip and retires the resolved
	// height-1 election; the height-2 election is opened on the
	// following call, once the tip has actually moved.
	require.NoError(t, w.OnFinalize(table, 2))
	require.Empty(t, table.ElectionsByExtra(heightExtra(1)))

	require.NoError(t, w.OnFinalize(table, 3))
	require.Len(t, table.ElectionsByExtra(heightExtra(2)), 1)
}

func TestBlockHeightWitnesserRejectsWrongLengthVote(t *testing.T) {
	w := NewBlockHeightWitnesser(2)
	table := electoral.NewElectionTable(testAuthorities(1))
	err := w.IsVoteValid(table, electoral.Identifier{}, electoral.Vote{Value: []byte("short")})
	require.Error(t, err)
}

func TestBlockHeightWitnesserIsVoteNeeded(t *testing.T) {
	authorities := testAuthorities(2)
	table := electoral.NewElectionTable(authorities)
	w := NewBlockHeightWitnesser(2)
	require.NoError(t, w.OnFinalize(table, 1))
	id := table.ElectionsByExtra(heightExtra(1))[0].ID

	require.True(t, w.IsVoteNeeded(table, id, authorities[0]))
	castVotes(t, table, id, authorities, encodeBlockVote(common.Hash{}, common.Hash{}), 1)
	require.False(t, w.IsVoteNeeded(table, id, authorities[0]))
	require.True(t, w.IsVoteNeeded(table, id, authorities[1]))
}

func TestHeightExtraRoundTrip(t *testing.T) {
	require.Equal(t, uint64(42), heightFromExtra(heightExtra(42)))
}

func TestBlockVoteRoundTrip(t *testing.T) {
	hash, parent := hashFor(0x01), hashFor(0x02)
	bv := decodeBlockVote(encodeBlockVote(hash, parent))
	require.Equal(t, hash, bv.Hash)
	require.Equal(t, parent, bv.ParentHash)
}

// finalizeHeight drives a height's election from open to committed:
// cast hash/parent votes from every authority, check consensus, then
// advance OnFinalize twice — once to commit the now-resolved height
// into the snapshot, once more to open the following height's
// election, mirroring the two-call pattern
// TestBlockHeightWitnesserOpensAndResolvesHeights exercises directly.
func finalizeHeight(t *testing.T, w *BlockHeightWitnesser, table electoral.Access, authorities common.AddressList, height uint64, hash, parent common.Hash, block uint64) {
	t.Helper()
	elections := table.ElectionsByExtra(heightExtra(height))
	require.Len(t, elections, 1)
	id := elections[0].ID
	castVotes(t, table, id, authorities, encodeBlockVote(hash, parent), len(authorities))
	require.NoError(t, w.CheckConsensus(table, id))
	require.NoError(t, w.OnFinalize(table, block))
	require.NoError(t, w.OnFinalize(table, block))
}

// TestBlockHeightWitnesserDetectsReorgAndRollsBackSafetyBuffer pins the
// chain-continuity invariant: a newly agreed height whose parent_hash
// doesn't match the already-recorded hash for height-1 must not be
// committed, and the SafetyBuffer heights before it must be rolled
// back and re-opened for a fresh vote.
func TestBlockHeightWitnesserDetectsReorgAndRollsBackSafetyBuffer(t *testing.T) {
	authorities := testAuthorities(10)
	table := electoral.NewElectionTable(authorities)
	w := NewBlockHeightWitnesser(2)

	require.NoError(t, w.OnFinalize(table, 1))
	h1 := hashFor(1)
	finalizeHeight(t, w, table, authorities, 1, h1, common.Hash{}, 2)

	h2 := hashFor(2)
	finalizeHeight(t, w, table, authorities, 2, h2, h1, 3)

	h3 := hashFor(3)
	finalizeHeight(t, w, table, authorities, 3, h3, h2, 4)

	snapshot := w.loadSnapshot(table)
	require.Equal(t, uint64(3), snapshot.Tip)

	// Height 4 is voted with a parent_hash that disagrees with the
	// already-committed hash for height 3: a reorg.
	conflictingParent := hashFor(0xff)
	elections := table.ElectionsByExtra(heightExtra(4))
	require.Len(t, elections, 1)
	id := elections[0].ID
	castVotes(t, table, id, authorities, encodeBlockVote(hashFor(4), conflictingParent), len(authorities))
	require.NoError(t, w.CheckConsensus(table, id))
	require.NoError(t, w.OnFinalize(table, 5))

	rolledBack := w.loadSnapshot(table)
	require.Equal(t, uint64(1), rolledBack.Tip, "heights 2 and 3 (SafetyBuffer=2) must be rolled back")
	require.Contains(t, rolledBack.Hashes, uint64(1))
	require.NotContains(t, rolledBack.Hashes, uint64(2))
	require.NotContains(t, rolledBack.Hashes, uint64(3))

	require.Len(t, table.ElectionsByExtra(heightExtra(2)), 1, "height 2 should be re-opened for a fresh vote")
	require.Len(t, table.ElectionsByExtra(heightExtra(3)), 1, "height 3 should be re-opened for a fresh vote")
	require.Empty(t, table.ElectionsByExtra(heightExtra(4)), "the conflicting height's election is discarded, not committed")
}
