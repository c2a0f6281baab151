// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

// Package electoral implements the leaderless electoral framework: a
// generic engine for running many independent elections to reach
// authority consensus on arbitrary facts (block hashes, ingress
// deltas, prices, liveness), storing their votes compactly and
// deriving a consensus status every authority agrees on deterministically.
package electoral

import (
	"fmt"
)

// UniqueMonotonicIdentifier is the strictly-increasing counter every
// new election is assigned; elections are ordered and garbage
// collected by this value, never by wall-clock time.
type UniqueMonotonicIdentifier uint64

// Identifier names one election: the monotonic counter plus an
// electoral-system-defined Extra value (a block height, a byte-string
// ingress key, ...) that lets callers find an election by its domain
// meaning without scanning every open election.
type Identifier struct {
	UMI   UniqueMonotonicIdentifier
	Extra string
}

func (id Identifier) String() string {
	return fmt.Sprintf("election#%d[%s]", id.UMI, id.Extra)
}

// IdentifierCounter hands out strictly increasing UniqueMonotonicIdentifiers.
// It is not safe for concurrent use; callers serialize access to it
// through the same lock guarding the election table.
type IdentifierCounter struct {
	next UniqueMonotonicIdentifier
}

// Next returns the next UniqueMonotonicIdentifier and advances the counter.
func (c *IdentifierCounter) Next() UniqueMonotonicIdentifier {
	id := c.next
	c.next++
	return id
}

// Peek returns the value Next would return without advancing the counter.
func (c *IdentifierCounter) Peek() UniqueMonotonicIdentifier { return c.next }
