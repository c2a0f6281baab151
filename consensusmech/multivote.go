// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package consensusmech

import (
	"github.com/equa/go-electoral/electoral"
	"github.com/equa/go-electoral/params"
)

// MultipleVotesConsensus resolves several independent facts bundled
// into a single election (one vote carries N sub-answers, e.g. a
// block's hash plus several egress receipts observed in it) by
// running SupermajorityConsensus separately over each sub-answer
// position. An election only reaches overall consensus once every
// position independently clears the threshold; Resolve splits each
// vote's raw bytes into FieldCount equal-length fields.
type MultipleVotesConsensus struct {
	FieldCount int
}

// Resolve implements electoral.ConsensusMechanism. A vote whose length
// is not divisible by FieldCount is ignored rather than aborting the
// whole election; votes of different lengths are split independently
// and so only tally together where their fields coincide.
func (m MultipleVotesConsensus) Resolve(votes []electoral.VoterVote, n uint32) ([]byte, bool) {
	if m.FieldCount <= 0 || n == 0 {
		return nil, false
	}
	fields := make([][]electoral.VoterVote, m.FieldCount)
	for _, v := range votes {
		if len(v.Vote.Value)%m.FieldCount != 0 {
			continue
		}
		fieldLen := len(v.Vote.Value) / m.FieldCount
		for i := 0; i < m.FieldCount; i++ {
			fields[i] = append(fields[i], electoral.VoterVote{
				Voter: v.Voter,
				Vote:  electoral.Vote{Value: v.Vote.Value[i*fieldLen : (i+1)*fieldLen]},
			})
		}
	}

	result := make([]byte, 0)
	var sm SupermajorityConsensus
	for _, fieldVotes := range fields {
		value, found := sm.Resolve(fieldVotes, n)
		if !found {
			return nil, false
		}
		result = append(result, value...)
	}
	return result, true
}

// PerFieldThreshold exposes the shared threshold used for every field,
// since MultipleVotesConsensus requires the same authority count
// agreement per field.
func PerFieldThreshold(n uint32) uint32 { return params.SuccessThreshold(n) }
