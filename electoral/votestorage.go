// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package electoral

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/equa/go-electoral/common"
)

// VoteStorage is implemented by each of the four vote representations
// an electoral system can choose for its votes. Consensus mechanisms
// read votes back out through Votes, never by reaching into the
// concrete type, so a mechanism can run unmodified over whichever
// storage variant the electoral system picked.
type VoteStorage interface {
	// Insert records that voter cast vote, in whatever encoding this
	// storage variant uses. It overwrites any prior vote from voter.
	Insert(voter common.Address, vote Vote) error
	// Remove deletes voter's vote, if any, releasing shared data.
	Remove(voter common.Address)
	// Votes returns every (voter, decoded vote) pair currently stored.
	Votes() []VoterVote
	// Count returns the number of authorities who have voted.
	Count() int
}

// Vote is the decoded payload an authority casts: arbitrary
// electoral-system-defined bytes (a price, a delta, a block witness
// summary) plus, for Change storage, the block at which it was
// observed.
type Vote struct {
	Value []byte
	Block uint64
}

// VoterVote pairs a decoded vote with the authority that cast it.
type VoterVote struct {
	Voter common.Address
	Vote  Vote
}

// BitmapVoteStorage is used when most authorities are expected to
// agree on an identical value (e.g. witnessing the same block hash):
// one shared copy of the value per distinct vote, with a bitset of
// which authorities support it.
type BitmapVoteStorage struct {
	authorities common.AddressList
	entries     []bitmapEntry
	voterIndex  map[common.Address]int // index into entries; absent if none
}

type bitmapEntry struct {
	value []byte
	bits  *bitset.BitSet
}

// NewBitmapVoteStorage builds empty bitmap storage over a fixed
// authority set; authority bit positions are assigned by
// AddressList.Index so every authority has a stable position across
// the election's lifetime.
func NewBitmapVoteStorage(authorities common.AddressList) *BitmapVoteStorage {
	return &BitmapVoteStorage{
		authorities: authorities,
		voterIndex:  make(map[common.Address]int, len(authorities)),
	}
}

func (s *BitmapVoteStorage) Insert(voter common.Address, vote Vote) error {
	idx := s.authorities.Index(voter)
	if idx < 0 {
		return ErrUnknownAuthority
	}
	s.Remove(voter)

	for i := range s.entries {
		if bytesEqual(s.entries[i].value, vote.Value) {
			s.entries[i].bits.Set(uint(idx))
			s.voterIndex[voter] = i
			return nil
		}
	}
	bits := bitset.New(uint(len(s.authorities)))
	bits.Set(uint(idx))
	s.entries = append(s.entries, bitmapEntry{value: vote.Value, bits: bits})
	s.voterIndex[voter] = len(s.entries) - 1
	return nil
}

func (s *BitmapVoteStorage) Remove(voter common.Address) {
	idx := s.authorities.Index(voter)
	if idx < 0 {
		return
	}
	entryIdx, ok := s.voterIndex[voter]
	if !ok {
		return
	}
	s.entries[entryIdx].bits.Clear(uint(idx))
	delete(s.voterIndex, voter)
}

func (s *BitmapVoteStorage) Votes() []VoterVote {
	out := make([]VoterVote, 0, len(s.voterIndex))
	for voter, entryIdx := range s.voterIndex {
		out = append(out, VoterVote{Voter: voter, Vote: Vote{Value: s.entries[entryIdx].value}})
	}
	return out
}

func (s *BitmapVoteStorage) Count() int { return len(s.voterIndex) }

// TallyByValue returns, for each distinct voted value, the number of
// authorities supporting it; this is exactly what
// SupermajorityConsensus needs and avoids decoding every vote.
func (s *BitmapVoteStorage) TallyByValue() map[string]uint32 {
	tally := make(map[string]uint32, len(s.entries))
	for _, e := range s.entries {
		tally[string(e.value)] = uint32(e.bits.Count())
	}
	return tally
}

// IndividualSharedVoteStorage is used when votes are large and likely
// to coincide (block bodies, receipts): each authority's vote is a
// pointer (content hash) into a SharedDataTable.
type IndividualSharedVoteStorage struct {
	table  *SharedDataTable
	voters map[common.Address]common.Hash
}

// NewIndividualSharedVoteStorage builds storage backed by table.
func NewIndividualSharedVoteStorage(table *SharedDataTable) *IndividualSharedVoteStorage {
	return &IndividualSharedVoteStorage{table: table, voters: make(map[common.Address]common.Hash)}
}

func (s *IndividualSharedVoteStorage) Insert(voter common.Address, vote Vote) error {
	s.Remove(voter)
	h := s.table.Insert(vote.Value)
	s.voters[voter] = h
	return nil
}

func (s *IndividualSharedVoteStorage) Remove(voter common.Address) {
	if h, ok := s.voters[voter]; ok {
		s.table.Release(h)
		delete(s.voters, voter)
	}
}

func (s *IndividualSharedVoteStorage) Votes() []VoterVote {
	out := make([]VoterVote, 0, len(s.voters))
	for voter, h := range s.voters {
		data, _ := s.table.Get(h)
		out = append(out, VoterVote{Voter: voter, Vote: Vote{Value: data}})
	}
	return out
}

func (s *IndividualSharedVoteStorage) Count() int { return len(s.voters) }

// ChangeVoteStorage records, per authority, the value they believe is
// current plus the block at which they observed it; used by the
// Monotonic-Change electoral system. The stored block is returned by
// Votes but not compared by StagedConsensus, which agrees on the value
// alone.
type ChangeVoteStorage struct {
	voters map[common.Address]Vote
}

// NewChangeVoteStorage builds empty change-vote storage.
func NewChangeVoteStorage() *ChangeVoteStorage {
	return &ChangeVoteStorage{voters: make(map[common.Address]Vote)}
}

func (s *ChangeVoteStorage) Insert(voter common.Address, vote Vote) error {
	s.voters[voter] = vote
	return nil
}

func (s *ChangeVoteStorage) Remove(voter common.Address) { delete(s.voters, voter) }

func (s *ChangeVoteStorage) Votes() []VoterVote {
	out := make([]VoterVote, 0, len(s.voters))
	for voter, v := range s.voters {
		out = append(out, VoterVote{Voter: voter, Vote: v})
	}
	return out
}

func (s *ChangeVoteStorage) Count() int { return len(s.voters) }

// HashedPartialVoteStorage hashes the vote's properties-derived
// portion separately from its free-form payload, letting the
// consensus mechanism compare agreement on the property-bound part
// (e.g. "which oracle feed") without requiring byte-identical
// payloads. Used by Oracle Price ES, whose votes carry a per-authority
// price sample that will rarely match exactly.
type HashedPartialVoteStorage struct {
	voters map[common.Address]hashedPartialEntry
}

type hashedPartialEntry struct {
	partialHash common.Hash
	payload     []byte
}

// NewHashedPartialVoteStorage builds empty storage.
func NewHashedPartialVoteStorage() *HashedPartialVoteStorage {
	return &HashedPartialVoteStorage{voters: make(map[common.Address]hashedPartialEntry)}
}

// InsertPartial stores vote under voter, tagging it with the hash of
// its property-bound partial (partial) for later grouping.
func (s *HashedPartialVoteStorage) InsertPartial(voter common.Address, partial, payload []byte) error {
	s.voters[voter] = hashedPartialEntry{partialHash: HashOf(partial), payload: payload}
	return nil
}

func (s *HashedPartialVoteStorage) Insert(voter common.Address, vote Vote) error {
	return s.InsertPartial(voter, vote.Value, vote.Value)
}

func (s *HashedPartialVoteStorage) Remove(voter common.Address) { delete(s.voters, voter) }

func (s *HashedPartialVoteStorage) Votes() []VoterVote {
	out := make([]VoterVote, 0, len(s.voters))
	for voter, e := range s.voters {
		out = append(out, VoterVote{Voter: voter, Vote: Vote{Value: e.payload}})
	}
	return out
}

func (s *HashedPartialVoteStorage) Count() int { return len(s.voters) }

// GroupByPartialHash buckets voters by their partial hash, the shape
// Oracle Price ES needs to decide which authorities are even talking
// about the same reading before computing a median across them.
func (s *HashedPartialVoteStorage) GroupByPartialHash() map[common.Hash][]common.Address {
	groups := make(map[common.Hash][]common.Address)
	for voter, e := range s.voters {
		groups[e.partialHash] = append(groups[e.partialHash], voter)
	}
	return groups
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
