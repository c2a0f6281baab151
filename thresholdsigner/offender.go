// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package thresholdsigner

import (
	"sync"
	"time"

	"github.com/equa/go-electoral/common"
	"github.com/equa/go-electoral/log"
)

// OffenderTracker excludes authorities identified as the cause of a
// ceremony failure from nomination for a cooldown period, generalizing
// the beacon engine's stake-slashing eligibility gate from "permanent
// stake loss" to "temporary nomination exclusion" — threshold-signing
// ceremonies don't hold an economic stake to slash, only a
// participation slot to withhold.
type OffenderTracker struct {
	mu       sync.Mutex
	cooldown time.Duration
	until    map[common.Address]time.Time
	now      func() time.Time
	logger   log.Logger
}

// NewOffenderTracker builds a tracker with the given cooldown. now
// defaults to time.Now; tests may override it.
func NewOffenderTracker(cooldown time.Duration, now func() time.Time) *OffenderTracker {
	if now == nil {
		now = time.Now
	}
	return &OffenderTracker{
		cooldown: cooldown,
		until:    make(map[common.Address]time.Time),
		now:      now,
		logger:   log.With("component", "offender_tracker"),
	}
}

// Report marks addr as an offender for this tracker's cooldown period.
func (t *OffenderTracker) Report(addr common.Address, reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.until[addr] = t.now().Add(t.cooldown)
	t.logger.Warn("authority excluded from ceremony nomination", "authority", addr.Hex(), "reason", reason, "cooldown", t.cooldown)
}

// IsExcluded reports whether addr is currently in cooldown.
func (t *OffenderTracker) IsExcluded(addr common.Address) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	until, ok := t.until[addr]
	if !ok {
		return false
	}
	if !t.now().Before(until) {
		delete(t.until, addr)
		return false
	}
	return true
}

// Eligible filters authorities down to those not currently excluded.
func (t *OffenderTracker) Eligible(authorities common.AddressList) common.AddressList {
	out := make(common.AddressList, 0, len(authorities))
	for _, a := range authorities {
		if !t.IsExcluded(a) {
			out = append(out, a)
		}
	}
	return out
}
