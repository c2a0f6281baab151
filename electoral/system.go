// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package electoral

import "github.com/equa/go-electoral/common"

// ElectoralSystem is implemented once per kind of fact the engine
// needs authority consensus on (block witnessing, ingress deltas,
// oracle prices, liveness, ...). The framework drives every system
// through the same four hooks each block; a system's own logic lives
// entirely in how it implements them.
type ElectoralSystem interface {
	// Name identifies the system for logging and metrics labels.
	Name() string

	// IsVoteNeeded reports whether voter still needs to vote in
	// election id, letting the engine skip re-voting work once an
	// authority's existing vote already satisfies the system.
	IsVoteNeeded(access Access, id Identifier, voter common.Address) bool

	// IsVoteValid validates a proposed vote's bytes against the
	// election's Properties before it is accepted into VoteStorage
	// (e.g. rejecting a price vote with a zero denominator).
	IsVoteValid(access Access, id Identifier, vote Vote) error

	// CheckConsensus runs this system's ConsensusMechanism over the
	// election's current votes and records the outcome, found or not,
	// with Election.RecordConsensus. The engine invokes it once per
	// block for every open election, and again after each local vote.
	CheckConsensus(access Access, id Identifier) error

	// OnFinalize runs once per block after every CheckConsensus call
	// has completed: opening new elections, executing newly reached
	// consensus, and deleting elections that are fully resolved.
	OnFinalize(access Access, block uint64) error
}

// ConsensusMechanism is implemented once per vote-aggregation
// strategy (Supermajority, Staged, MultipleVotes, Median,
// MonotonicMedian) and used by one or more ElectoralSystems.
type ConsensusMechanism interface {
	// Resolve inspects votes and the number of authorities expected
	// to vote (n) and returns the agreed value, if any.
	Resolve(votes []VoterVote, n uint32) (value []byte, found bool)
}
