// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package electoral

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIdentifierCounterIsMonotonic(t *testing.T) {
	var c IdentifierCounter
	require.Equal(t, UniqueMonotonicIdentifier(0), c.Peek())

	first := c.Next()
	second := c.Next()
	require.Equal(t, UniqueMonotonicIdentifier(0), first)
	require.Equal(t, UniqueMonotonicIdentifier(1), second)
	require.Equal(t, UniqueMonotonicIdentifier(2), c.Peek())
}

func TestIdentifierString(t *testing.T) {
	id := Identifier{UMI: 7, Extra: "block-100"}
	require.Equal(t, "election#7[block-100]", id.String())
}
