// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

// Package storage persists election and ceremony state on a pebble
// key-value store. The engine writes election snapshots to it each
// block; nothing in this module reads them back into an election table
// on startup.
package storage

import (
	"github.com/cockroachdb/pebble"
)

// Store wraps a pebble database with the narrow key-space the
// electoral engine needs: election snapshots and ceremony state,
// namespaced by a single-byte prefix so both can share one database
// file without key collisions.
type Store struct {
	db *pebble.DB
}

const (
	prefixElection byte = 0x01
	prefixCeremony byte = 0x02
	prefixUnsync   byte = 0x03
)

// Open opens (creating if absent) a pebble store at dir.
func Open(dir string) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close flushes and closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// PutElection persists the encoded snapshot of one election.
func (s *Store) PutElection(id []byte, encoded []byte) error {
	return s.db.Set(withPrefix(prefixElection, id), encoded, pebble.Sync)
}

// GetElection reads back a persisted election snapshot.
func (s *Store) GetElection(id []byte) ([]byte, error) {
	v, closer, err := s.db.Get(withPrefix(prefixElection, id))
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// DeleteElection removes a persisted election snapshot.
func (s *Store) DeleteElection(id []byte) error {
	return s.db.Delete(withPrefix(prefixElection, id), pebble.Sync)
}

// PutCeremony persists ceremony state keyed by its serialized CeremonyID.
func (s *Store) PutCeremony(id []byte, encoded []byte) error {
	return s.db.Set(withPrefix(prefixCeremony, id), encoded, pebble.Sync)
}

// GetCeremony reads back persisted ceremony state.
func (s *Store) GetCeremony(id []byte) ([]byte, error) {
	v, closer, err := s.db.Get(withPrefix(prefixCeremony, id))
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// PutUnsynchronised persists an electoral system's unsynchronised
// (locally computed) state, e.g. the Block-Height Witnesser's
// hash-chain snapshot.
func (s *Store) PutUnsynchronised(key []byte, encoded []byte) error {
	return s.db.Set(withPrefix(prefixUnsync, key), encoded, pebble.Sync)
}

// GetUnsynchronised reads back unsynchronised state.
func (s *Store) GetUnsynchronised(key []byte) ([]byte, error) {
	v, closer, err := s.db.Get(withPrefix(prefixUnsync, key))
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Iterate walks every key under namespace, invoking fn with the key
// (stripped of the namespace prefix) and value.
func (s *Store) Iterate(namespace byte, fn func(key, value []byte) error) error {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte{namespace},
		UpperBound: []byte{namespace + 1},
	})
	if err != nil {
		return err
	}
	defer iter.Close()
	for iter.First(); iter.Valid(); iter.Next() {
		key := append([]byte{}, iter.Key()[1:]...)
		value := append([]byte{}, iter.Value()...)
		if err := fn(key, value); err != nil {
			return err
		}
	}
	return iter.Error()
}

func withPrefix(prefix byte, key []byte) []byte {
	out := make([]byte, 0, len(key)+1)
	out = append(out, prefix)
	out = append(out, key...)
	return out
}
