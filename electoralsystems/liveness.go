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

// Liveness opens one election per block and counts an authority as
// participating in that round if it submitted any vote at all, so an
// authority that's merely slow can be told apart from one that's truly
// offline, generalizing the stake manager's eligibility check from a
// one-shot "has min stake" test to an ongoing voted consensus.
type Liveness struct {
	// WindowBlocks is how far behind the current block liveness
	// elections are kept: OnFinalize at block b deletes the round for
	// block b-WindowBlocks-1, so rounds b-WindowBlocks through b remain.
	WindowBlocks uint64
	logger       log.Logger
}

// NewLiveness builds the ES with the given rolling window.
func NewLiveness(windowBlocks uint64) *Liveness {
	return &Liveness{WindowBlocks: windowBlocks, logger: log.With("system", "liveness")}
}

func (l *Liveness) Name() string { return "liveness" }

func (l *Liveness) IsVoteNeeded(access electoral.Access, id electoral.Identifier, voter common.Address) bool {
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

func (l *Liveness) IsVoteValid(access electoral.Access, id electoral.Identifier, vote electoral.Vote) error {
	return nil // any vote at all is evidence of liveness; content is unused.
}

func (l *Liveness) CheckConsensus(access electoral.Access, id electoral.Identifier) error {
	e, err := access.ElectionMut(id)
	if err != nil {
		return err
	}
	n := uint32(len(access.CurrentAuthorities()))
	value, found := (consensusmech.SupermajorityConsensus{}).Resolve(e.Votes.Votes(), n)
	e.RecordConsensus(found, value)
	return nil
}

func (l *Liveness) OnFinalize(access electoral.Access, block uint64) error {
	if block <= l.WindowBlocks {
		return nil
	}
	expired := block - l.WindowBlocks - 1
	for _, e := range access.ElectionsByExtra(livenessExtra(expired)) {
		access.DeleteElection(e.ID)
	}
	return nil
}

// OpenRound opens this block's liveness election: any vote an
// authority casts in it counts as participation, whatever its bytes.
// Participation is read back through PerAuthorityParticipation rather
// than Election.Consensus.
func (l *Liveness) OpenRound(access electoral.Access, block uint64) electoral.Identifier {
	return access.NewElection(livenessExtra(block), electoral.Properties(encodeHeight(block)), nil,
		electoral.NewBitmapVoteStorage(access.CurrentAuthorities()), block)
}

func livenessExtra(block uint64) string { return fmt.Sprintf("liveness:%d", block) }

// PerAuthorityParticipation reports, for each authority in the
// current set, how many of the liveness rounds for blocks
// currentBlock-WindowBlocks through currentBlock they voted in. The
// threshold-signing offender tracker does not consult it.
func (l *Liveness) PerAuthorityParticipation(access electoral.Access, currentBlock uint64) map[common.Address]uint64 {
	counts := make(map[common.Address]uint64)
	for _, auth := range access.CurrentAuthorities() {
		counts[auth] = 0
	}
	start := uint64(0)
	if currentBlock > l.WindowBlocks {
		start = currentBlock - l.WindowBlocks
	}
	for b := start; b <= currentBlock; b++ {
		for _, e := range access.ElectionsByExtra(livenessExtra(b)) {
			for _, vv := range e.Votes.Votes() {
				counts[vv.Voter]++
			}
		}
	}
	return counts
}
