// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package electoralsystems

import (
	"fmt"
	"time"

	"github.com/holiman/uint256"

	"github.com/equa/go-electoral/common"
	"github.com/equa/go-electoral/consensusmech"
	"github.com/equa/go-electoral/electoral"
	"github.com/equa/go-electoral/log"
)

func bytesToUint256(b []byte) *uint256.Int { return new(uint256.Int).SetBytes(b) }

// Staleness tracks how long ago a price feed last reached consensus,
// forming the lattice UpToDate -> MaybeStale -> Stale that downstream
// consumers (e.g. a swap-pricing check) use to decide whether to trust
// the last agreed price at all.
type Staleness int

const (
	StalenessUpToDate Staleness = iota
	StalenessMaybeStale
	StalenessStale
)

func (s Staleness) String() string {
	switch s {
	case StalenessUpToDate:
		return "UpToDate"
	case StalenessMaybeStale:
		return "MaybeStale"
	default:
		return "Stale"
	}
}

// OraclePrice elects, per price feed, a median across authority-
// reported samples after discarding outliers by interquartile range,
// and tracks staleness if consensus stops being reached.
type OraclePrice struct {
	MaybeStaleAfter time.Duration
	StaleAfter      time.Duration
	now             func() time.Time
	logger          log.Logger
}

// NewOraclePrice builds the ES with the given staleness thresholds.
// now defaults to time.Now; tests may override it for determinism.
func NewOraclePrice(maybeStaleAfter, staleAfter time.Duration, now func() time.Time) *OraclePrice {
	if now == nil {
		now = time.Now
	}
	return &OraclePrice{MaybeStaleAfter: maybeStaleAfter, StaleAfter: staleAfter, now: now, logger: log.With("system", "oracle_price")}
}

func (o *OraclePrice) Name() string { return "oracle_price" }

func (o *OraclePrice) IsVoteNeeded(access electoral.Access, id electoral.Identifier, voter common.Address) bool {
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

func (o *OraclePrice) IsVoteValid(access electoral.Access, id electoral.Identifier, vote electoral.Vote) error {
	if len(vote.Value) == 0 || len(vote.Value) > 32 {
		return fmt.Errorf("oracle_price: price sample must fit in 32 bytes")
	}
	return nil
}

func (o *OraclePrice) CheckConsensus(access electoral.Access, id electoral.Identifier) error {
	e, err := access.ElectionMut(id)
	if err != nil {
		return err
	}
	n := uint32(len(access.CurrentAuthorities()))
	votes := e.Votes.Votes()

	filtered := votes
	if q1, q3, ok := consensusmech.InterQuartileRange(votes); ok {
		filtered = filtered[:0]
		for _, v := range votes {
			value := bytesToUint256(v.Vote.Value)
			if value.Cmp(q1) >= 0 && value.Cmp(q3) <= 0 {
				filtered = append(filtered, v)
			}
		}
	}

	value, found := (consensusmech.MedianConsensus{}).Resolve(filtered, n)
	e.RecordConsensus(found, value)

	if found {
		access.SetUnsynchronisedStateMap("oracle_last_seen", id.Extra, encodeTime(o.now()))
	}
	return nil
}

func (o *OraclePrice) OnFinalize(access electoral.Access, block uint64) error {
	return nil
}

// OpenElection opens (or reuses) a price-feed election for feedKey.
func (o *OraclePrice) OpenElection(access electoral.Access, feedKey string, block uint64) electoral.Identifier {
	existing := access.ElectionsByExtra(feedKey)
	if len(existing) > 0 {
		return existing[0].ID
	}
	return access.NewElection(feedKey, electoral.Properties(feedKey), nil, electoral.NewHashedPartialVoteStorage(), block)
}

// StalenessOf reports the staleness of feedKey's last agreed price
// relative to now.
func (o *OraclePrice) StalenessOf(access electoral.Access, feedKey string) Staleness {
	raw, ok := access.UnsynchronisedStateMap("oracle_last_seen", feedKey)
	if !ok {
		return StalenessStale
	}
	last := decodeTime(raw)
	age := o.now().Sub(last)
	switch {
	case age < o.MaybeStaleAfter:
		return StalenessUpToDate
	case age < o.StaleAfter:
		return StalenessMaybeStale
	default:
		return StalenessStale
	}
}

func encodeTime(t time.Time) []byte { return encodeHeight(uint64(t.UnixNano())) }
func decodeTime(b []byte) time.Time {
	if len(b) < 8 {
		return time.Time{}
	}
	var ns uint64
	for i := 0; i < 8; i++ {
		ns = ns<<8 | uint64(b[i])
	}
	return time.Unix(0, int64(ns))
}
