// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

// Package consensusmech implements the vote-aggregation strategies
// electoral systems plug into the framework's CheckConsensus hook:
// plain supermajority agreement, staged (two-phase) agreement,
// multiple-simultaneous-facts agreement, and median-based agreement
// with and without monotonicity. Every mechanism is a pure function of
// the votes currently recorded and the expected authority count, using
// the BFT supermajority threshold params.SuccessThreshold
// (ceil((2n+1)/3)) generalized from "stake" to "votes".
package consensusmech

import (
	"github.com/equa/go-electoral/electoral"
	"github.com/equa/go-electoral/params"
)

// SupermajorityConsensus resolves an election once a single value has
// at least the success threshold of votes, matching
// spec.md's success = ceil((2n+1)/3) rule. It is the mechanism behind
// block witnessing and any other "one true answer" election.
type SupermajorityConsensus struct{}

// Resolve implements electoral.ConsensusMechanism.
func (SupermajorityConsensus) Resolve(votes []electoral.VoterVote, n uint32) ([]byte, bool) {
	if n == 0 {
		return nil, false
	}
	tally := make(map[string]uint32)
	values := make(map[string][]byte)
	for _, v := range votes {
		key := string(v.Vote.Value)
		tally[key]++
		values[key] = v.Vote.Value
	}
	threshold := params.SuccessThreshold(n)
	for key, count := range tally {
		if count >= threshold {
			return values[key], true
		}
	}
	return nil, false
}

// Threshold exposes the success threshold used for n authorities, for
// callers (e.g. metrics, tests) that want to report progress toward it
// without duplicating the formula.
func Threshold(n uint32) uint32 { return params.SuccessThreshold(n) }

// UnanimousConsensus resolves an election only when every vote cast
// agrees and the number of voters has cleared the success threshold —
// stricter than SupermajorityConsensus, which only requires the
// threshold's worth of votes to agree while tolerating dissent from
// the rest. It backs elections where a single disagreeing authority
// must block consensus outright, such as egress-broadcast success.
type UnanimousConsensus struct{}

// Resolve implements electoral.ConsensusMechanism.
func (UnanimousConsensus) Resolve(votes []electoral.VoterVote, n uint32) ([]byte, bool) {
	if n == 0 || uint32(len(votes)) < params.SuccessThreshold(n) {
		return nil, false
	}
	value := votes[0].Vote.Value
	for _, v := range votes[1:] {
		if string(v.Vote.Value) != string(value) {
			return nil, false
		}
	}
	return value, true
}
