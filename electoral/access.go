// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package electoral

import (
	"sync"

	"github.com/equa/go-electoral/common"
)

// Access is the interface an ElectoralSystem's hooks use to read and
// mutate the framework's election table and per-system global state.
// It is implemented by *ElectionTable; electoral systems never hold a
// table reference directly so every access goes through the same lock
// discipline.
type Access interface {
	// NewElection opens a fresh election with the given properties,
	// settings and vote storage, returning its freshly allocated
	// Identifier.
	NewElection(extra string, props Properties, settings Settings, votes VoteStorage, block uint64) Identifier

	// ElectionMut returns a mutable election for writing (votes,
	// state transitions). Callers must not retain the pointer past
	// the current hook invocation.
	ElectionMut(id Identifier) (*Election, error)

	// Election returns a read-only view of an election.
	Election(id Identifier) (*Election, error)

	// ElectionsByExtra returns every currently open election whose
	// Identifier.Extra matches extra, the lookup electoral systems use
	// to find "the election for block N" without scanning the table.
	ElectionsByExtra(extra string) []*Election

	// DeleteElection removes an election once it is fully resolved and
	// its consensus consumed (executed), releasing any shared-data
	// refcounts its votes held.
	DeleteElection(id Identifier) error

	// SetUnsynchronisedState replaces the electoral system's global,
	// non-election-scoped state (e.g. the Block-Height Witnesser's
	// latest hash-chain snapshot). "Unsynchronised" names that this
	// value is locally computed by each authority rather than agreed
	// on by vote.
	SetUnsynchronisedState(key string, value []byte)

	// UnsynchronisedState reads back a value set by
	// SetUnsynchronisedState.
	UnsynchronisedState(key string) ([]byte, bool)

	// SetUnsynchronisedStateMap is the keyed variant of
	// SetUnsynchronisedState, used for per-entity local state such as
	// the Delta-Based Ingress ES's per-address backoff counters.
	SetUnsynchronisedStateMap(namespace, key string, value []byte)

	// UnsynchronisedStateMap reads back a value set by
	// SetUnsynchronisedStateMap.
	UnsynchronisedStateMap(namespace, key string) ([]byte, bool)

	// CurrentAuthorities returns the authority set this round's
	// consensus checks should tally against.
	CurrentAuthorities() common.AddressList
}

// ElectionTable is the concrete, concurrency-safe Access
// implementation backing one electoral system.
type ElectionTable struct {
	mu         sync.RWMutex
	counter    IdentifierCounter
	elections  map[UniqueMonotonicIdentifier]*Election
	byExtra    map[string]map[UniqueMonotonicIdentifier]struct{}
	unsync     map[string][]byte
	unsyncMap  map[string]map[string][]byte
	authorities common.AddressList
}

// NewElectionTable builds an empty table for the given authority set.
func NewElectionTable(authorities common.AddressList) *ElectionTable {
	return &ElectionTable{
		elections:   make(map[UniqueMonotonicIdentifier]*Election),
		byExtra:     make(map[string]map[UniqueMonotonicIdentifier]struct{}),
		unsync:      make(map[string][]byte),
		unsyncMap:   make(map[string]map[string][]byte),
		authorities: authorities,
	}
}

func (t *ElectionTable) NewElection(extra string, props Properties, settings Settings, votes VoteStorage, block uint64) Identifier {
	t.mu.Lock()
	defer t.mu.Unlock()
	umi := t.counter.Next()
	id := Identifier{UMI: umi, Extra: extra}
	t.elections[umi] = NewElection(id, props, settings, votes, block)
	if t.byExtra[extra] == nil {
		t.byExtra[extra] = make(map[UniqueMonotonicIdentifier]struct{})
	}
	t.byExtra[extra][umi] = struct{}{}
	return id
}

func (t *ElectionTable) ElectionMut(id Identifier) (*Election, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.elections[id.UMI]
	if !ok {
		return nil, ErrElectionNotFound
	}
	return e, nil
}

func (t *ElectionTable) Election(id Identifier) (*Election, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.elections[id.UMI]
	if !ok {
		return nil, ErrElectionNotFound
	}
	return e, nil
}

func (t *ElectionTable) ElectionsByExtra(extra string) []*Election {
	t.mu.RLock()
	defer t.mu.RUnlock()
	umis := t.byExtra[extra]
	out := make([]*Election, 0, len(umis))
	for umi := range umis {
		out = append(out, t.elections[umi])
	}
	return out
}

func (t *ElectionTable) DeleteElection(id Identifier) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.elections[id.UMI]
	if !ok {
		return ErrElectionNotFound
	}
	if e.Votes != nil {
		for _, vv := range e.Votes.Votes() {
			e.Votes.Remove(vv.Voter)
		}
	}
	delete(t.elections, id.UMI)
	if set, ok := t.byExtra[id.Extra]; ok {
		delete(set, id.UMI)
		if len(set) == 0 {
			delete(t.byExtra, id.Extra)
		}
	}
	return nil
}

func (t *ElectionTable) SetUnsynchronisedState(key string, value []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.unsync[key] = value
}

func (t *ElectionTable) UnsynchronisedState(key string) ([]byte, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.unsync[key]
	return v, ok
}

func (t *ElectionTable) SetUnsynchronisedStateMap(namespace, key string, value []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.unsyncMap[namespace] == nil {
		t.unsyncMap[namespace] = make(map[string][]byte)
	}
	t.unsyncMap[namespace][key] = value
}

func (t *ElectionTable) UnsynchronisedStateMap(namespace, key string) ([]byte, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.unsyncMap[namespace][key]
	return v, ok
}

func (t *ElectionTable) CurrentAuthorities() common.AddressList {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.authorities
}

// SetAuthorities replaces the authority set, called on epoch
// rotation.
func (t *ElectionTable) SetAuthorities(authorities common.AddressList) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.authorities = authorities
}

// Len returns the number of currently open elections, used by the
// Block Witnesser's backpressure watermark check.
func (t *ElectionTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.elections)
}

// All returns every open election, for on_finalize sweeps.
func (t *ElectionTable) All() []*Election {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Election, 0, len(t.elections))
	for _, e := range t.elections {
		out = append(out, e)
	}
	return out
}
