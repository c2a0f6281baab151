// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package electoral

import "errors"

var (
	// ErrUnknownAuthority is returned when a vote is cast by an
	// address outside the election's authority set.
	ErrUnknownAuthority = errors.New("electoral: vote from unknown authority")
	// ErrElectionNotFound is returned by ElectionMut/Election for an
	// identifier with no corresponding open election.
	ErrElectionNotFound = errors.New("electoral: election not found")
	// ErrElectionClosed is returned when a vote arrives for an
	// election that has already been deleted this block.
	ErrElectionClosed = errors.New("electoral: election is closed")
	// ErrDuplicateVote is returned when an authority's vote is
	// rejected by the electoral system's IsVoteNeeded/IsVoteValid hooks.
	ErrDuplicateVote = errors.New("electoral: vote rejected as unneeded or invalid")
)

// Properties are the electoral-system-defined, immutable facts an
// election was opened to resolve (e.g. "vote on the hash of block
// 1000"). They never change after New.
type Properties []byte

// State is the electoral-system-defined, mutable per-election scratch
// space (e.g. a Staged-consensus election's partially-confirmed
// value). It is read and written only by that electoral system's
// hooks, never by the framework itself.
type State []byte

// Settings are governance-controlled parameters that apply to every
// election of a kind (e.g. the safety margin blocks), set once per
// electoral system rather than per election.
type Settings []byte

// Election is one unit of electoral-framework bookkeeping: a set of
// votes cast by authorities converging, via a ConsensusMechanism, on a
// single agreed value.
type Election struct {
	ID         Identifier
	Properties Properties
	State      State
	Settings   Settings
	Votes      VoteStorage
	Status     ConsensusStatus
	// Consensus is the most recently agreed value, nil if Status is
	// None or Lost.
	Consensus []byte
	// CreatedAtBlock is the chain height at which New opened this
	// election, used by age-based garbage collection.
	CreatedAtBlock uint64
}

// NewElection constructs an election with empty votes. The caller
// supplies the VoteStorage variant appropriate to the owning
// electoral system.
func NewElection(id Identifier, props Properties, settings Settings, votes VoteStorage, createdAtBlock uint64) *Election {
	return &Election{
		ID:             id,
		Properties:     props,
		Votes:          votes,
		Settings:       settings,
		Status:         StatusNone,
		CreatedAtBlock: createdAtBlock,
	}
}

// RecordConsensus advances the election's status per the lattice and
// stores the newly agreed value (or clears it on loss/none).
func (e *Election) RecordConsensus(found bool, value []byte) {
	changed := found && !bytesEqual(e.Consensus, value)
	e.Status = e.Status.Advance(found, changed)
	if found {
		e.Consensus = value
	} else {
		e.Consensus = nil
	}
}
