// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package consensusmech

import (
	"github.com/equa/go-electoral/electoral"
	"github.com/equa/go-electoral/params"
)

// Stage identifies which phase a StagedConsensus election is in.
type Stage int

const (
	// StagePending: the first-phase threshold has not yet been met
	// for any candidate value.
	StagePending Stage = iota
	// StageProvisional: a candidate cleared the first-phase
	// threshold but not yet the final one; its Change-storage
	// second-phase votes are still being collected.
	StageProvisional
	// StageFinal: a candidate cleared both thresholds.
	StageFinal
)

// StagedConsensus requires two independent thresholds to be cleared
// on the same value before it is accepted: a lower "provisional"
// threshold (any value worth acting on tentatively) and the full
// success threshold (the value is safe to finalize). The Monotonic-
// Change electoral system uses this to avoid finalizing a change on
// the first handful of votes when a reorg could still roll it back.
type StagedConsensus struct {
	// ProvisionalNumerator/Denominator set the first-stage threshold
	// as a fraction of n, e.g. 1/3 for "worth watching".
	ProvisionalNumerator, ProvisionalDenominator uint32
}

// ResolveStaged behaves like Resolve but additionally reports which
// stage the winning (or leading) value has reached.
func (s StagedConsensus) ResolveStaged(votes []electoral.VoterVote, n uint32) (value []byte, stage Stage) {
	if n == 0 {
		return nil, StagePending
	}
	tally := make(map[string]uint32)
	values := make(map[string][]byte)
	for _, v := range votes {
		key := string(v.Vote.Value)
		tally[key]++
		values[key] = v.Vote.Value
	}

	finalThreshold := params.SuccessThreshold(n)
	provisionalThreshold := uint32(0)
	if s.ProvisionalDenominator > 0 {
		provisionalThreshold = (n*s.ProvisionalNumerator + s.ProvisionalDenominator - 1) / s.ProvisionalDenominator
	}

	var bestKey string
	var bestCount uint32
	for key, count := range tally {
		if count > bestCount {
			bestCount, bestKey = count, key
		}
	}
	if bestCount == 0 {
		return nil, StagePending
	}
	switch {
	case bestCount >= finalThreshold:
		return values[bestKey], StageFinal
	case provisionalThreshold > 0 && bestCount >= provisionalThreshold:
		return values[bestKey], StageProvisional
	default:
		return nil, StagePending
	}
}

// Resolve implements electoral.ConsensusMechanism, treating only
// StageFinal as "found" so StagedConsensus can be used anywhere a
// plain ConsensusMechanism is expected.
func (s StagedConsensus) Resolve(votes []electoral.VoterVote, n uint32) ([]byte, bool) {
	value, stage := s.ResolveStaged(votes, n)
	return value, stage == StageFinal
}
