// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package thresholdsigner

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/equa/go-electoral/common"
)

func testAuthorities(n int) common.AddressList {
	out := make(common.AddressList, n)
	for i := range out {
		out[i] = common.BytesToAddress([]byte{byte(i + 1)})
	}
	return out
}

func TestNominateIsDeterministicForSameSeed(t *testing.T) {
	eligible := testAuthorities(10)
	a := Nominate(eligible, RequestID(7), 0, 4)
	b := Nominate(eligible, RequestID(7), 0, 4)
	require.Equal(t, a, b)
	require.Len(t, a, 4)
}

func TestNominateCapsCountAtEligiblePoolSize(t *testing.T) {
	eligible := testAuthorities(3)
	got := Nominate(eligible, RequestID(1), 0, 10)
	require.Len(t, got, 3)
}

func TestNominateDiffersAcrossAttempts(t *testing.T) {
	eligible := testAuthorities(20)
	first := Nominate(eligible, RequestID(1), 0, 5)
	retry := Nominate(eligible, RequestID(1), 1, 5)
	require.NotEqual(t, first, retry, "a retry should rotate the participant set rather than repeat it")
}

func TestNominateOnlySelectsFromEligiblePool(t *testing.T) {
	eligible := testAuthorities(5)
	got := Nominate(eligible, RequestID(3), 0, 3)
	for _, a := range got {
		require.True(t, eligible.Contains(a))
	}
}
