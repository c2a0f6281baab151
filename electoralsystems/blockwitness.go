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

// BlockEvent is a chain event an authority observed at a given block,
// the unit BlockWitness elections vote on.
type BlockEvent struct {
	Block   uint64
	Payload []byte
}

// ExecuteFunc runs a confirmed event's side effect (e.g. submitting an
// extrinsic). It is supplied by the engine wiring, not by the
// electoral system itself, so BlockWitness stays chain-agnostic.
type ExecuteFunc func(event BlockEvent) error

// RulesFunc lets the engine veto opening an election for a given
// height — the "safety margin" hook — for reasons beyond simple chain
// depth (e.g. a maintenance window).
type RulesFunc func(height, chainTip uint64) bool

// BlockWitness elects per-block sets of events, only opening elections
// once a height is behind the chain tip by at least SafetyMargin
// blocks, deduplicating already-executed events, and applying
// backpressure once too many elections are open at once.
type BlockWitness struct {
	SafetyMargin  uint64
	Watermark     uint32
	Rules         RulesFunc
	Execute       ExecuteFunc
	logger        log.Logger
	executedCache map[string]struct{}
}

// NewBlockWitness builds a BW with the given safety margin and
// backpressure watermark.
func NewBlockWitness(safetyMargin uint64, watermark uint32, rules RulesFunc, execute ExecuteFunc) *BlockWitness {
	return &BlockWitness{
		SafetyMargin:  safetyMargin,
		Watermark:     watermark,
		Rules:         rules,
		Execute:       execute,
		logger:        log.With("system", "block_witness"),
		executedCache: make(map[string]struct{}),
	}
}

func (w *BlockWitness) Name() string { return "block_witness" }

func (w *BlockWitness) IsVoteNeeded(access electoral.Access, id electoral.Identifier, voter common.Address) bool {
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

func (w *BlockWitness) IsVoteValid(access electoral.Access, id electoral.Identifier, vote electoral.Vote) error {
	if len(vote.Value) == 0 {
		return fmt.Errorf("block_witness: empty event payload")
	}
	return nil
}

func (w *BlockWitness) CheckConsensus(access electoral.Access, id electoral.Identifier) error {
	e, err := access.ElectionMut(id)
	if err != nil {
		return err
	}
	n := uint32(len(access.CurrentAuthorities()))
	value, found := (consensusmech.SupermajorityConsensus{}).Resolve(e.Votes.Votes(), n)
	e.RecordConsensus(found, value)
	return nil
}

// OpenElectionsUpTo is called by the engine once it learns the
// witnessed chain tip, opening one election per eligible height that
// doesn't already have one, honoring both the safety margin and the
// backpressure watermark.
func (w *BlockWitness) OpenElectionsUpTo(access electoral.Access, chainTip, lastOpened, block uint64, tableLen func() int) uint64 {
	opened := lastOpened
	for h := lastOpened + 1; h+w.SafetyMargin <= chainTip; h++ {
		if tableLen() >= int(w.Watermark) {
			w.logger.Warn("backpressure watermark reached, deferring new elections", "watermark", w.Watermark)
			break
		}
		if w.Rules != nil && !w.Rules(h, chainTip) {
			continue
		}
		access.NewElection(heightExtra(h), electoral.Properties(encodeHeight(h)), nil,
			electoral.NewIndividualSharedVoteStorage(electoral.NewSharedDataTable(1<<20)), block)
		opened = h
	}
	return opened
}

// OnFinalize is a no-op: opening new elections needs the witnessed
// chain tip, which the engine supplies out of band via
// OpenElectionsUpTo once per block before calling CheckConsensus.
func (w *BlockWitness) OnFinalize(access electoral.Access, block uint64) error {
	return nil
}

// ExecuteConsensus runs Execute on every election that just reached
// consensus and hasn't been executed before, then deletes it. It is
// called by the engine after OnFinalize for every electoral system,
// so an electoral system's own OnFinalize stays free of the
// dedup/execute plumbing shared across systems.
func (w *BlockWitness) ExecuteConsensus(access electoral.Access, elections []*electoral.Election) {
	for _, e := range elections {
		if !e.Status.HasConsensus() {
			continue
		}
		key := fmt.Sprintf("%s:%x", e.ID.Extra, e.Consensus)
		if _, done := w.executedCache[key]; done {
			access.DeleteElection(e.ID)
			continue
		}
		if w.Execute != nil {
			event := BlockEvent{Block: heightFromExtra(e.ID.Extra), Payload: e.Consensus}
			if err := w.Execute(event); err != nil {
				w.logger.Error("execute hook failed, election left open for retry", "id", e.ID.String(), "err", err)
				continue
			}
		}
		w.executedCache[key] = struct{}{}
		access.DeleteElection(e.ID)
	}
}
