// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package electoral

import (
	"sync"

	"github.com/VictoriaMetrics/fastcache"
	"golang.org/x/crypto/sha3"

	"github.com/equa/go-electoral/common"
)

// SharedDataTable is a content-addressed, refcounted payload store.
// Individual-Shared votes store only a content hash pointing into this
// table, so many authorities voting for byte-identical payloads (a
// full block header, a large calldata blob) pay the storage cost once.
// The hot working set is mirrored in a fastcache.Cache for allocation-
// free reads on the consensus-check hot path; eviction from that cache
// never loses data because the authoritative copy lives in the
// refcounted map below it.
type SharedDataTable struct {
	mu       sync.RWMutex
	refcount map[common.Hash]uint32
	payload  map[common.Hash][]byte
	hot      *fastcache.Cache
}

// NewSharedDataTable builds a table whose hot-path cache is sized
// maxBytes.
func NewSharedDataTable(maxBytes int) *SharedDataTable {
	return &SharedDataTable{
		refcount: make(map[common.Hash]uint32),
		payload:  make(map[common.Hash][]byte),
		hot:      fastcache.New(maxBytes),
	}
}

// HashOf returns the content hash used to address data, as computed by
// every Individual-Shared vote before it is inserted or looked up.
func HashOf(data []byte) common.Hash {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return common.BytesToHash(h.Sum(nil))
}

// Insert adds data to the table (if not already present) and
// increments its refcount. Returns the content hash.
func (t *SharedDataTable) Insert(data []byte) common.Hash {
	h := HashOf(data)
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.payload[h]; !ok {
		stored := make([]byte, len(data))
		copy(stored, data)
		t.payload[h] = stored
		t.hot.Set(h.Bytes(), stored)
	}
	t.refcount[h]++
	return h
}

// Release decrements the refcount for h and deletes the payload once
// it reaches zero; IndividualSharedVoteStorage calls it when a vote is
// removed. The other vote storages keep their vote bytes themselves and
// hold no references in this table.
func (t *SharedDataTable) Release(h common.Hash) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.refcount[h] == 0 {
		return
	}
	t.refcount[h]--
	if t.refcount[h] == 0 {
		delete(t.refcount, h)
		delete(t.payload, h)
		t.hot.Del(h.Bytes())
	}
}

// Get returns the payload for h, checking the hot cache first.
func (t *SharedDataTable) Get(h common.Hash) ([]byte, bool) {
	if v, ok := t.hot.HasGet(nil, h.Bytes()); ok {
		return v, true
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.payload[h]
	return v, ok
}

// RefCount returns the current refcount for h, used by tests and
// metrics to assert the table doesn't leak.
func (t *SharedDataTable) RefCount(h common.Hash) uint32 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.refcount[h]
}

// Len returns the number of distinct payloads currently stored.
func (t *SharedDataTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.payload)
}
