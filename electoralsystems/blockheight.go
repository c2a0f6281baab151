// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

// Package electoralsystems implements the concrete ElectoralSystems
// the engine runs: block-height witnessing, per-block witnessing,
// delta-based ingress tracking, oracle price aggregation, monotonic
// change detection, egress success confirmation and authority
// liveness, generalized from "one chain's blocks" to "any fact an
// electoral system defines."
package electoralsystems

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/equa/go-electoral/common"
	"github.com/equa/go-electoral/consensusmech"
	"github.com/equa/go-electoral/electoral"
	"github.com/equa/go-electoral/log"
)

// blockVoteLen is the wire size of a BHW vote: a 32-byte block hash
// followed by its 32-byte parent hash, enough to verify chain
// continuity without re-deriving it from a separate election.
const blockVoteLen = 2 * common.HashLength

// blockVote is the decoded form of a BHW vote.
type blockVote struct {
	Hash       common.Hash
	ParentHash common.Hash
}

func encodeBlockVote(hash, parent common.Hash) []byte {
	out := make([]byte, 0, blockVoteLen)
	out = append(out, hash.Bytes()...)
	out = append(out, parent.Bytes()...)
	return out
}

func decodeBlockVote(b []byte) blockVote {
	return blockVote{Hash: common.BytesToHash(b[:common.HashLength]), ParentHash: common.BytesToHash(b[common.HashLength:])}
}

// BlockHeightWitnesser elects, for each height above the last
// finalized one, the (hash, parent_hash) pair the authority majority
// has observed there, maintaining a local hash-chain snapshot so a
// reorg can be detected — by a newly agreed height's parent_hash
// disagreeing with the hash already recorded for height-1 — and the
// affected range re-elected rather than silently overwritten.
type BlockHeightWitnesser struct {
	// SafetyBuffer is how many already-finalized heights are rolled
	// back and re-queried when a reorg is detected at a height beyond
	// them.
	SafetyBuffer uint64
	logger       log.Logger
}

// NewBlockHeightWitnesser builds a BHW that rolls back safetyBuffer
// heights on a detected reorg.
func NewBlockHeightWitnesser(safetyBuffer uint64) *BlockHeightWitnesser {
	return &BlockHeightWitnesser{SafetyBuffer: safetyBuffer, logger: log.With("system", "block_height_witnesser")}
}

func (w *BlockHeightWitnesser) Name() string { return "block_height_witnesser" }

func (w *BlockHeightWitnesser) IsVoteNeeded(access electoral.Access, id electoral.Identifier, voter common.Address) bool {
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

func (w *BlockHeightWitnesser) IsVoteValid(access electoral.Access, id electoral.Identifier, vote electoral.Vote) error {
	if len(vote.Value) != blockVoteLen {
		return errors.New("block_height_witnesser: vote must carry a (hash, parent_hash) pair")
	}
	return nil
}

func (w *BlockHeightWitnesser) CheckConsensus(access electoral.Access, id electoral.Identifier) error {
	e, err := access.ElectionMut(id)
	if err != nil {
		return err
	}
	n := uint32(len(access.CurrentAuthorities()))
	value, found := (consensusmech.SupermajorityConsensus{}).Resolve(e.Votes.Votes(), n)
	e.RecordConsensus(found, value)
	return nil
}

// OnFinalize advances the witnessed-chain snapshot by one height once
// that height's election has reached consensus. Before committing a
// height's hash, it checks the agreed parent_hash against the hash
// already recorded for height-1; a mismatch means the authority
// majority has observed a reorg, so the conflicting height's election
// is discarded and the last SafetyBuffer finalized heights are rolled
// back and re-opened for a fresh vote instead of being committed.
func (w *BlockHeightWitnesser) OnFinalize(access electoral.Access, block uint64) error {
	snapshot := w.loadSnapshot(access)
	nextHeight := snapshot.Tip + 1

	existing := access.ElectionsByExtra(heightExtra(nextHeight))
	if len(existing) == 0 {
		id := access.NewElection(heightExtra(nextHeight),
			electoral.Properties(encodeHeight(nextHeight)),
			nil,
			electoral.NewBitmapVoteStorage(access.CurrentAuthorities()),
			block)
		w.logger.Debug("opened block-height election", "height", nextHeight, "id", id.String())
		return nil
	}

	for _, e := range existing {
		if !e.Status.HasConsensus() {
			continue
		}
		bv := decodeBlockVote(e.Consensus)

		if prevHash, ok := snapshot.Hashes[nextHeight-1]; nextHeight > 0 && ok && prevHash != bv.ParentHash {
			w.logger.Warn("reorg detected, rolling back snapshot",
				"height", nextHeight, "expected_parent", prevHash, "got_parent", bv.ParentHash)
			access.DeleteElection(e.ID)
			w.rollback(access, snapshot, nextHeight, block)
			return nil
		}

		snapshot.Tip = nextHeight
		snapshot.Hashes[nextHeight] = bv.Hash
		w.saveSnapshot(access, snapshot)
		access.DeleteElection(e.ID)
	}
	return nil
}

// rollback discards the SafetyBuffer heights immediately preceding
// conflictHeight from the snapshot and re-opens their elections so the
// authorities vote on that range again, per the "re-emit queries for
// the conflicting range" reorg-handling rule.
func (w *BlockHeightWitnesser) rollback(access electoral.Access, snapshot *Snapshot, conflictHeight, block uint64) {
	start := uint64(0)
	if conflictHeight > w.SafetyBuffer {
		start = conflictHeight - w.SafetyBuffer
	}
	for h := start; h < conflictHeight; h++ {
		delete(snapshot.Hashes, h)
		for _, e := range access.ElectionsByExtra(heightExtra(h)) {
			access.DeleteElection(e.ID)
		}
		id := access.NewElection(heightExtra(h), electoral.Properties(encodeHeight(h)), nil,
			electoral.NewBitmapVoteStorage(access.CurrentAuthorities()), block)
		w.logger.Debug("re-querying rolled-back height", "height", h, "id", id.String())
	}
	if start == 0 {
		snapshot.Tip = 0
	} else {
		snapshot.Tip = start - 1
	}
	w.saveSnapshot(access, snapshot)
}

// Snapshot is the BHW's unsynchronised (locally computed, not voted
// on) view of the witnessed chain.
type Snapshot struct {
	Tip    uint64
	Hashes map[uint64]common.Hash
}

const snapshotKey = "bhw_snapshot_tip"

func (w *BlockHeightWitnesser) loadSnapshot(access electoral.Access) *Snapshot {
	raw, ok := access.UnsynchronisedState(snapshotKey)
	if !ok {
		return &Snapshot{Hashes: make(map[uint64]common.Hash)}
	}
	tip := binary.BigEndian.Uint64(raw)
	s := &Snapshot{Tip: tip, Hashes: make(map[uint64]common.Hash)}
	for h := uint64(0); h <= tip; h++ {
		if v, ok := access.UnsynchronisedStateMap("bhw_hash", fmt.Sprintf("%d", h)); ok {
			s.Hashes[h] = common.BytesToHash(v)
		}
	}
	return s
}

func (w *BlockHeightWitnesser) saveSnapshot(access electoral.Access, s *Snapshot) {
	access.SetUnsynchronisedState(snapshotKey, encodeHeight(s.Tip))
	for h, hash := range s.Hashes {
		access.SetUnsynchronisedStateMap("bhw_hash", fmt.Sprintf("%d", h), hash.Bytes())
	}
}

func heightExtra(h uint64) string { return fmt.Sprintf("height:%d", h) }
func heightFromExtra(extra string) uint64 {
	var h uint64
	fmt.Sscanf(extra, "height:%d", &h)
	return h
}

func encodeHeight(h uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, h)
	return b
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
