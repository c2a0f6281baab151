// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package consensusmech

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/equa/go-electoral/common"
	"github.com/equa/go-electoral/electoral"
)

func uintVotes(values ...uint64) []electoral.VoterVote {
	out := make([]electoral.VoterVote, len(values))
	for i, v := range values {
		b := uint256.NewInt(v).Bytes32()
		out[i] = electoral.VoterVote{
			Voter: common.BytesToAddress([]byte{byte(i + 1)}),
			Vote:  electoral.Vote{Value: b[:]},
		}
	}
	return out
}

func TestMedianConsensusOddCount(t *testing.T) {
	votes := uintVotes(10, 30, 20, 40, 50, 15, 25, 35, 45) // n=9, threshold 7
	value, found := (MedianConsensus{}).Resolve(votes, 9)
	require.True(t, found)
	got := new(uint256.Int).SetBytes(value)
	require.Equal(t, uint64(25), got.Uint64())
}

// TestMedianConsensusPicksLowerTercileNotTrueMedian pins the
// lower-tercile rule against a majority trying to pull the value up:
// eleven votes 0..10 must resolve to 3, not the true median 5, so that
// a bloc smaller than a third of voters can never move it.
func TestMedianConsensusPicksLowerTercileNotTrueMedian(t *testing.T) {
	votes := uintVotes(0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10)
	value, found := (MedianConsensus{}).Resolve(votes, 11)
	require.True(t, found)
	got := new(uint256.Int).SetBytes(value)
	require.Equal(t, uint64(3), got.Uint64())
}

func TestMedianConsensusBelowThreshold(t *testing.T) {
	votes := uintVotes(10, 20, 30)
	_, found := (MedianConsensus{}).Resolve(votes, 10)
	require.False(t, found)
}

func TestMonotonicMedianConsensusRejectsRegression(t *testing.T) {
	prev := uint256.NewInt(100).Bytes32()
	votes := uintVotes(50, 60, 70, 55, 65, 45, 58) // median below previous
	m := MonotonicMedianConsensus{Previous: prev[:]}
	value, found := m.Resolve(votes, 7)
	require.True(t, found)
	require.Equal(t, prev[:], value)
}

func TestMonotonicMedianConsensusAcceptsAdvance(t *testing.T) {
	prev := uint256.NewInt(10).Bytes32()
	votes := uintVotes(50, 60, 70, 55, 65, 45, 58)
	m := MonotonicMedianConsensus{Previous: prev[:]}
	value, found := m.Resolve(votes, 7)
	require.True(t, found)
	got := new(uint256.Int).SetBytes(value)
	require.True(t, got.Uint64() >= 10)
}

func TestInterQuartileRange(t *testing.T) {
	votes := uintVotes(1, 2, 3, 4, 5, 6, 7, 8)
	q1, q3, ok := InterQuartileRange(votes)
	require.True(t, ok)
	require.True(t, q1.Cmp(q3) <= 0)
}

func TestInterQuartileRangeTooFewVotes(t *testing.T) {
	_, _, ok := InterQuartileRange(uintVotes(1, 2, 3))
	require.False(t, ok)
}
