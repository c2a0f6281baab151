// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package thresholdsigner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/equa/go-electoral/common"
)

func TestOffenderTrackerExcludesUntilCooldownExpires(t *testing.T) {
	now := time.Now()
	clock := now
	tracker := NewOffenderTracker(time.Minute, func() time.Time { return clock })

	addr := common.BytesToAddress([]byte{1})
	require.False(t, tracker.IsExcluded(addr))

	tracker.Report(addr, "missed ceremony round")
	require.True(t, tracker.IsExcluded(addr))

	clock = now.Add(2 * time.Minute)
	require.False(t, tracker.IsExcluded(addr), "cooldown should have expired")
}

func TestOffenderTrackerEligibleFiltersExcluded(t *testing.T) {
	now := time.Now()
	tracker := NewOffenderTracker(time.Minute, func() time.Time { return now })
	authorities := testAuthorities(4)

	tracker.Report(authorities[1], "offline")
	tracker.Report(authorities[3], "offline")

	eligible := tracker.Eligible(authorities)
	require.Equal(t, common.AddressList{authorities[0], authorities[2]}, eligible)
}

func TestOffenderTrackerDefaultsToRealClock(t *testing.T) {
	tracker := NewOffenderTracker(time.Hour, nil)
	addr := common.BytesToAddress([]byte{9})
	tracker.Report(addr, "test")
	require.True(t, tracker.IsExcluded(addr))
}
