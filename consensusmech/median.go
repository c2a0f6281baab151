// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package consensusmech

import (
	"sort"

	"github.com/holiman/uint256"

	"github.com/equa/go-electoral/electoral"
	"github.com/equa/go-electoral/params"
)

// MedianConsensus resolves an election to the lower-tercile value of
// votes once at least the success threshold of authorities have voted
// at all (unlike SupermajorityConsensus, individual vote values need
// not coincide — only their count needs to clear the bar). It backs
// the Oracle Price electoral system's per-round price aggregation.
//
// The lower tercile, not the true median, is deliberate: a malicious
// minority below a third of voters must never be able to pull the
// agreed value away from what an honest majority reported, which a
// plain median would let them do.
type MedianConsensus struct{}

// Resolve implements electoral.ConsensusMechanism. Votes are decoded
// as big-endian uint256 values.
func (MedianConsensus) Resolve(votes []electoral.VoterVote, n uint32) ([]byte, bool) {
	values, ok := decodeUint256Votes(votes)
	if !ok || uint32(len(values)) < params.SuccessThreshold(n) {
		return nil, false
	}
	b := median(values).Bytes32()
	return b[:], true
}

// MonotonicMedianConsensus behaves like MedianConsensus but additionally
// rejects the result unless it is greater than or equal to the
// previous agreed value, supplied by the caller from
// electoral.Election.Consensus. This is what lets the Delta-Based
// Ingress electoral system use a median of authority-reported
// cumulative balances without a malicious minority ever moving the
// agreed balance backwards.
type MonotonicMedianConsensus struct {
	Previous []byte
}

// Resolve implements electoral.ConsensusMechanism.
func (m MonotonicMedianConsensus) Resolve(votes []electoral.VoterVote, n uint32) ([]byte, bool) {
	value, found := (MedianConsensus{}).Resolve(votes, n)
	if !found {
		return nil, false
	}
	if len(m.Previous) == 0 {
		return value, true
	}
	prev := new(uint256.Int).SetBytes(m.Previous)
	cur := new(uint256.Int).SetBytes(value)
	if cur.Cmp(prev) < 0 {
		return m.Previous, true
	}
	return value, true
}

func decodeUint256Votes(votes []electoral.VoterVote) ([]*uint256.Int, bool) {
	out := make([]*uint256.Int, 0, len(votes))
	for _, v := range votes {
		if len(v.Vote.Value) == 0 || len(v.Vote.Value) > 32 {
			continue
		}
		out = append(out, new(uint256.Int).SetBytes(v.Vote.Value))
	}
	return out, len(out) > 0
}

// median picks the lower-tercile (33rd percentile) value rather than
// the statistical median, so that influencing the agreed value
// requires more than a simple majority of voters.
func median(values []*uint256.Int) *uint256.Int {
	sorted := make([]*uint256.Int, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Cmp(sorted[j]) < 0 })
	return sorted[len(sorted)/3]
}

// InterQuartileRange returns the [Q1, Q3] bounds of values, used by
// the Oracle Price electoral system to discard outlier votes before
// taking a median, per spec.md's IQR aggregation step.
func InterQuartileRange(votes []electoral.VoterVote) (q1, q3 *uint256.Int, ok bool) {
	values, ok := decodeUint256Votes(votes)
	if !ok || len(values) < 4 {
		return nil, nil, false
	}
	sorted := make([]*uint256.Int, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Cmp(sorted[j]) < 0 })
	return sorted[len(sorted)/4], sorted[(3*len(sorted))/4], true
}
