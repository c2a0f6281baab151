// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTTLStoreGetSetRoundTrip(t *testing.T) {
	s := newTTLStore()
	_, ok := s.get("missing")
	require.False(t, ok)

	s.set("key", 42, time.Minute)
	v, ok := s.get("key")
	require.True(t, ok)
	require.Equal(t, 42, v)
}

func TestTTLStoreExpiresEntries(t *testing.T) {
	s := newTTLStore()
	s.set("key", "v", 5*time.Millisecond)
	time.Sleep(15 * time.Millisecond)
	_, ok := s.get("key")
	require.False(t, ok, "entry should have expired")
}

func TestTTLStoreDelete(t *testing.T) {
	s := newTTLStore()
	s.set("key", "v", time.Minute)
	s.delete("key")
	_, ok := s.get("key")
	require.False(t, ok)
}
