// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package thresholdsigner

import (
	"sort"

	"github.com/equa/go-electoral/common"
)

// Nominate deterministically selects a ceremony's participant set
// from the eligible authority pool, seeded by the request ID and
// attempt number so every authority computes the same nomination
// independently without a round of communication, and so a retry
// after a failure nominates a different rotation (seeded by attempt)
// rather than repeating the same failing set.
func Nominate(eligible common.AddressList, requestID RequestID, attempt uint32, count int) common.AddressList {
	if count > len(eligible) {
		count = len(eligible)
	}
	seed := uint64(requestID)*1_000_003 + uint64(attempt)
	ordered := make(common.AddressList, len(eligible))
	copy(ordered, eligible)
	sort.Slice(ordered, func(i, j int) bool {
		return rotateKey(ordered[i], seed) < rotateKey(ordered[j], seed)
	})
	return ordered[:count]
}

// rotateKey derives a pseudo-random-but-deterministic sort key for
// addr given seed, so Nominate's output is stable for the same
// (seed, address) pair across every authority's independent
// computation but varies between attempts.
func rotateKey(addr common.Address, seed uint64) uint64 {
	h := seed
	for _, b := range addr.Bytes() {
		h = h*31 + uint64(b)
	}
	// Mix every bit of h so a different seed reorders the keys instead
	// of shifting them all by the same offset.
	h ^= h >> 33
	h *= 0xff51afd7ed558ccd
	h ^= h >> 33
	return h
}
