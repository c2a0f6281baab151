// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package electoralsystems

import (
	"fmt"

	"github.com/equa/go-electoral/common"
	"github.com/equa/go-electoral/consensusmech"
	"github.com/equa/go-electoral/electoral"
	"github.com/equa/go-electoral/log"
)

// EgressSuccess confirms that a broadcast the engine submitted to a
// target chain actually landed, by electing on the transaction
// receipt's success/failure byte. Unlike the witnessing systems it
// stops needing votes the instant consensus is first reached, since a
// submitted broadcast either succeeded or needs to be retried exactly
// once — there's nothing further to witness.
type EgressSuccess struct {
	logger log.Logger
}

// NewEgressSuccess builds the ES.
func NewEgressSuccess() *EgressSuccess { return &EgressSuccess{logger: log.With("system", "egress_success")} }

func (e *EgressSuccess) Name() string { return "egress_success" }

func (e *EgressSuccess) IsVoteNeeded(access electoral.Access, id electoral.Identifier, voter common.Address) bool {
	election, err := access.Election(id)
	if err != nil {
		return false
	}
	if election.Status.HasConsensus() {
		return false
	}
	for _, vv := range election.Votes.Votes() {
		if vv.Voter == voter {
			return false
		}
	}
	return true
}

func (e *EgressSuccess) IsVoteValid(access electoral.Access, id electoral.Identifier, vote electoral.Vote) error {
	if len(vote.Value) != 1 {
		return fmt.Errorf("egress_success: vote must be a single success/failure byte")
	}
	return nil
}

func (e *EgressSuccess) CheckConsensus(access electoral.Access, id electoral.Identifier) error {
	election, err := access.ElectionMut(id)
	if err != nil {
		return err
	}
	n := uint32(len(access.CurrentAuthorities()))
	value, found := (consensusmech.UnanimousConsensus{}).Resolve(election.Votes.Votes(), n)
	election.RecordConsensus(found, value)
	return nil
}

func (e *EgressSuccess) OnFinalize(access electoral.Access, block uint64) error {
	return nil
}

// OpenElection opens an egress-confirmation election for broadcastID.
func (e *EgressSuccess) OpenElection(access electoral.Access, broadcastID string, block uint64) electoral.Identifier {
	return access.NewElection(broadcastID, electoral.Properties(broadcastID), nil,
		electoral.NewBitmapVoteStorage(access.CurrentAuthorities()), block)
}

// Succeeded reports whether the election's agreed value is the
// success byte (1), and whether consensus has been reached at all.
func Succeeded(e *electoral.Election) (succeeded, resolved bool) {
	if !e.Status.HasConsensus() || len(e.Consensus) != 1 {
		return false, false
	}
	return e.Consensus[0] == 1, true
}
