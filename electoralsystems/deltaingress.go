// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package electoralsystems

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/equa/go-electoral/common"
	"github.com/equa/go-electoral/consensusmech"
	"github.com/equa/go-electoral/electoral"
	"github.com/equa/go-electoral/log"
)

// DeltaBasedIngress tracks, per ingress address, a monotonically
// non-decreasing cumulative balance — the model Solana-family chains
// need because individual deposit transactions aren't cheaply
// enumerable, only the running account balance is. Consensus on a new
// cumulative balance implies a deposit of (new - old); the longer an
// address goes without the reported balance moving, the further the
// electoral system backs off the polling rate (see pollInterval), up to
// the configurable MaxBackoffBlocks ceiling, rather than continuing to
// re-elect every block.
type DeltaBasedIngress struct {
	MaxBackoffBlocks uint64
	logger           log.Logger
}

// NewDeltaBasedIngress builds the ES with the given backoff ceiling.
func NewDeltaBasedIngress(maxBackoffBlocks uint64) *DeltaBasedIngress {
	return &DeltaBasedIngress{MaxBackoffBlocks: maxBackoffBlocks, logger: log.With("system", "delta_ingress")}
}

func (d *DeltaBasedIngress) Name() string { return "delta_based_ingress" }

func (d *DeltaBasedIngress) IsVoteNeeded(access electoral.Access, id electoral.Identifier, voter common.Address) bool {
	backoff := d.backoffFor(access, id.Extra)
	if backoff.BlocksSinceChange > 0 && backoff.BlocksSinceChange%d.pollInterval(backoff) != 0 {
		return false
	}
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

func (d *DeltaBasedIngress) IsVoteValid(access electoral.Access, id electoral.Identifier, vote electoral.Vote) error {
	if len(vote.Value) == 0 || len(vote.Value) > 32 {
		return fmt.Errorf("delta_based_ingress: balance vote must fit in 32 bytes")
	}
	return nil
}

func (d *DeltaBasedIngress) CheckConsensus(access electoral.Access, id electoral.Identifier) error {
	e, err := access.ElectionMut(id)
	if err != nil {
		return err
	}
	n := uint32(len(access.CurrentAuthorities()))
	mech := consensusmech.MonotonicMedianConsensus{Previous: e.Consensus}
	value, found := mech.Resolve(e.Votes.Votes(), n)

	changed := found && !bytesEqual(e.Consensus, value)
	e.RecordConsensus(found, value)

	backoff := d.backoffFor(access, id.Extra)
	if changed {
		if len(e.Consensus) > 0 {
			delta := new(uint256.Int).Sub(new(uint256.Int).SetBytes(value), new(uint256.Int).SetBytes(backoff.LastBalance))
			d.logger.Info("ingress delta observed", "address", id.Extra, "delta", delta.String())
		}
		backoff.LastBalance = value
		backoff.BlocksSinceChange = 0
	} else {
		backoff.BlocksSinceChange++
	}
	d.saveBackoff(access, id.Extra, backoff)
	return nil
}

func (d *DeltaBasedIngress) OnFinalize(access electoral.Access, block uint64) error {
	return nil
}

// OpenElection opens (or reuses) the balance-tracking election for
// address, called by the engine for every ingress address it is
// actively monitoring.
func (d *DeltaBasedIngress) OpenElection(access electoral.Access, address string, block uint64) electoral.Identifier {
	existing := access.ElectionsByExtra(address)
	if len(existing) > 0 {
		return existing[0].ID
	}
	return access.NewElection(address, electoral.Properties(address), nil,
		electoral.NewBitmapVoteStorage(access.CurrentAuthorities()), block)
}

// IngressBackoff tracks how long an address's reported balance has
// been unchanged, used to thin out redundant voting rounds.
type IngressBackoff struct {
	LastBalance       []byte
	BlocksSinceChange uint64
}

func (d *DeltaBasedIngress) backoffFor(access electoral.Access, address string) IngressBackoff {
	raw, ok := access.UnsynchronisedStateMap("delta_ingress_backoff", address)
	if !ok {
		return IngressBackoff{}
	}
	if len(raw) < 8 {
		return IngressBackoff{}
	}
	blocks := uint64(0)
	for i := 0; i < 8; i++ {
		blocks = blocks<<8 | uint64(raw[i])
	}
	return IngressBackoff{LastBalance: raw[8:], BlocksSinceChange: blocks}
}

func (d *DeltaBasedIngress) saveBackoff(access electoral.Access, address string, b IngressBackoff) {
	raw := encodeHeight(b.BlocksSinceChange)
	raw = append(raw, b.LastBalance...)
	access.SetUnsynchronisedStateMap("delta_ingress_backoff", address, raw)
}

// pollInterval maps blocks-since-change to a polling cadence capped at
// MaxBackoffBlocks, doubling every time the balance has gone quiet for
// another full interval.
func (d *DeltaBasedIngress) pollInterval(b IngressBackoff) uint64 {
	interval := uint64(1)
	quiet := b.BlocksSinceChange
	for quiet > interval && interval < d.MaxBackoffBlocks {
		interval *= 2
	}
	if interval > d.MaxBackoffBlocks {
		interval = d.MaxBackoffBlocks
	}
	if interval == 0 {
		interval = 1
	}
	return interval
}
