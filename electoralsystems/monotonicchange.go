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

// MonotonicChange elects a value that is only ever allowed to move
// forward in an authority-defined total order (e.g. a key-rotation
// epoch number, or the highest vault address index in use), using
// StagedConsensus so a provisional majority can be observed before
// the change is treated as final and emitted downstream.
type MonotonicChange struct {
	Staged consensusmech.StagedConsensus
	logger log.Logger
}

// NewMonotonicChange builds the ES with a 1/3-of-authorities
// provisional threshold ahead of the full success threshold.
func NewMonotonicChange() *MonotonicChange {
	return &MonotonicChange{
		Staged: consensusmech.StagedConsensus{ProvisionalNumerator: 1, ProvisionalDenominator: 3},
		logger: log.With("system", "monotonic_change"),
	}
}

func (m *MonotonicChange) Name() string { return "monotonic_change" }

func (m *MonotonicChange) IsVoteNeeded(access electoral.Access, id electoral.Identifier, voter common.Address) bool {
	e, err := access.Election(id)
	if err != nil {
		return false
	}
	for _, vv := range e.Votes.Votes() {
		if vv.Voter == voter {
			return false
		}
	}
	return true
}

func (m *MonotonicChange) IsVoteValid(access electoral.Access, id electoral.Identifier, vote electoral.Vote) error {
	e, err := access.Election(id)
	if err != nil {
		return err
	}
	if len(e.Consensus) > 0 && len(vote.Value) == len(e.Consensus) && lessThan(vote.Value, e.Consensus) {
		return fmt.Errorf("monotonic_change: vote would move value backwards")
	}
	return nil
}

func (m *MonotonicChange) CheckConsensus(access electoral.Access, id electoral.Identifier) error {
	e, err := access.ElectionMut(id)
	if err != nil {
		return err
	}
	n := uint32(len(access.CurrentAuthorities()))
	value, stage := m.Staged.ResolveStaged(e.Votes.Votes(), n)
	found := stage == consensusmech.StageFinal
	e.RecordConsensus(found, value)
	if stage == consensusmech.StageProvisional {
		m.logger.Debug("provisional majority observed", "id", id.String())
	}
	return nil
}

func (m *MonotonicChange) OnFinalize(access electoral.Access, block uint64) error {
	return nil
}

// OpenElection opens a monotonic-change election for the given
// change-tracking key (e.g. "vault_epoch").
func (m *MonotonicChange) OpenElection(access electoral.Access, key string, block uint64) electoral.Identifier {
	existing := access.ElectionsByExtra(key)
	if len(existing) > 0 {
		return existing[0].ID
	}
	return access.NewElection(key, electoral.Properties(key), nil,
		electoral.NewChangeVoteStorage(), block)
}

func lessThan(a, b []byte) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
