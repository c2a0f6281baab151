// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package consensusmech

import "github.com/equa/go-electoral/electoral"

// UnsafeMedian resolves to the same lower-tercile value MedianConsensus
// picks, taken over whatever votes are present, without requiring the success threshold of authorities to have
// voted at all, unlike MedianConsensus. It predates the
// success-threshold requirement and is kept only so callers that
// haven't migrated keep building; new electoral systems should use
// MedianConsensus or MonotonicMedianConsensus instead, both of which
// refuse to resolve on a minority of votes.
//
// Deprecated: vulnerable to a single early voter setting the agreed
// value before enough honest authorities have reported.
type UnsafeMedian struct{}

// Resolve implements electoral.ConsensusMechanism.
func (UnsafeMedian) Resolve(votes []electoral.VoterVote, n uint32) ([]byte, bool) {
	values, ok := decodeUint256Votes(votes)
	if !ok {
		return nil, false
	}
	b := median(values).Bytes32()
	return b[:], true
}
