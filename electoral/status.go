// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package electoral

// ConsensusStatus tracks how an election's outcome has evolved across
// successive check_consensus evaluations. It forms the lattice
// None -> Gained -> {Changed, Unchanged} -> Lost: once consensus is
// reached it can only change value or drop, never jump back to None
// while the election is still open.
type ConsensusStatus int

const (
	// StatusNone: no consensus has ever been reached for this election.
	StatusNone ConsensusStatus = iota
	// StatusGained: consensus was reached for the first time this round.
	StatusGained
	// StatusUnchanged: consensus holds and the agreed value is the
	// same as last round.
	StatusUnchanged
	// StatusChanged: consensus holds but the agreed value differs
	// from last round (e.g. a MonotonicMedian's running value moved).
	StatusChanged
	// StatusLost: consensus was present last round and is no longer
	// achievable with the current votes (e.g. an authority connection
	// drop shrank a Changed set of votes below threshold).
	StatusLost
)

func (s ConsensusStatus) String() string {
	switch s {
	case StatusNone:
		return "None"
	case StatusGained:
		return "Gained"
	case StatusUnchanged:
		return "Unchanged"
	case StatusChanged:
		return "Changed"
	case StatusLost:
		return "Lost"
	default:
		return "Unknown"
	}
}

// HasConsensus reports whether the election currently has an agreed
// value (Gained, Unchanged or Changed all count; None and Lost don't).
func (s ConsensusStatus) HasConsensus() bool {
	return s == StatusGained || s == StatusUnchanged || s == StatusChanged
}

// Advance computes the next status given whether a fresh evaluation
// found consensus and, if so, whether the resulting value changed
// from the previously agreed one. It is the framework's single source
// of truth for the lattice transition so every electoral system and
// consensus mechanism agrees on it.
func (s ConsensusStatus) Advance(found, valueChanged bool) ConsensusStatus {
	if !found {
		if s.HasConsensus() {
			return StatusLost
		}
		return StatusNone
	}
	if !s.HasConsensus() {
		return StatusGained
	}
	if valueChanged {
		return StatusChanged
	}
	return StatusUnchanged
}
