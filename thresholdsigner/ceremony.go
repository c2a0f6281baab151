// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package thresholdsigner

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/equa/go-electoral/common"
	"github.com/equa/go-electoral/crypto"
	"github.com/equa/go-electoral/log"
)

// CeremonyID uniquely identifies one signing-ceremony attempt for a
// request.
type CeremonyID struct {
	Request RequestID
	Attempt uint32
}

// Stage is the FROST-round position a ceremony is in.
type Stage int

const (
	StageCommitting Stage = iota
	StageSigning
	StageDone
	StageFailed
)

var (
	// ErrCeremonyTimedOut is returned when not enough participants
	// commit or sign before the configured timeout.
	ErrCeremonyTimedOut = errors.New("thresholdsigner: ceremony timed out")
	// ErrUnknownParticipant is returned when a share arrives from an
	// address outside the ceremony's nominated set.
	ErrUnknownParticipant = errors.New("thresholdsigner: share from unnominated participant")
)

// Ceremony drives one FROST signing round among a nominated authority
// set for a single request attempt.
type Ceremony struct {
	ID           CeremonyID
	Scheme       crypto.Scheme
	Participants common.AddressList
	KeyShares    map[common.Address]crypto.KeyShare
	PubKey       crypto.PublicKey
	Payload      []byte

	mu          sync.Mutex
	stage       Stage
	commitments map[common.Address]crypto.NonceCommitment
	shares      map[common.Address]crypto.SignatureShare
	logger      log.Logger
}

// NewCeremony builds a ceremony for the given request attempt.
func NewCeremony(id CeremonyID, scheme crypto.Scheme, participants common.AddressList, keyShares map[common.Address]crypto.KeyShare, pub crypto.PublicKey, payload []byte) *Ceremony {
	return &Ceremony{
		ID:           id,
		Scheme:       scheme,
		Participants: participants,
		KeyShares:    keyShares,
		PubKey:       pub,
		Payload:      payload,
		stage:        StageCommitting,
		commitments:  make(map[common.Address]crypto.NonceCommitment),
		shares:       make(map[common.Address]crypto.SignatureShare),
		logger:       log.With("ceremony", id.Request, "attempt", id.Attempt),
	}
}

// SubmitCommitment records authority's round-1 nonce commitment.
func (c *Ceremony) SubmitCommitment(authority common.Address, commitment crypto.NonceCommitment) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.Participants.Contains(authority) {
		return ErrUnknownParticipant
	}
	c.commitments[authority] = commitment
	if len(c.commitments) == len(c.Participants) {
		c.stage = StageSigning
	}
	return nil
}

// ReadyToSign reports whether every participant has committed.
func (c *Ceremony) ReadyToSign() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stage == StageSigning
}

// Commitments returns the commitments collected so far, in no
// particular order, for a node computing its own signature share.
func (c *Ceremony) Commitments() []crypto.NonceCommitment {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]crypto.NonceCommitment, 0, len(c.commitments))
	for _, nc := range c.commitments {
		out = append(out, nc)
	}
	return out
}

// SubmitShare records authority's round-2 signature share.
func (c *Ceremony) SubmitShare(authority common.Address, share crypto.SignatureShare) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.Participants.Contains(authority) {
		return ErrUnknownParticipant
	}
	c.shares[authority] = share
	if len(c.shares) == len(c.Participants) {
		c.stage = StageDone
	}
	return nil
}

// Finish aggregates the collected shares into a finished signature.
// It must be called only once ReadyToSign's successor (all shares
// submitted) is true.
func (c *Ceremony) Finish() (crypto.Signature, error) {
	c.mu.Lock()
	commitments := make([]crypto.NonceCommitment, 0, len(c.commitments))
	for _, nc := range c.commitments {
		commitments = append(commitments, nc)
	}
	shares := make([]crypto.SignatureShare, 0, len(c.shares))
	for _, s := range c.shares {
		shares = append(shares, s)
	}
	c.mu.Unlock()
	return c.Scheme.Aggregate(c.PubKey, commitments, shares, c.Payload)
}

// Await polls every 25ms until the ceremony reaches StageDone
// (returning nil), ctx is done (returning ctx.Err()), or timeout
// expires (marking the ceremony StageFailed and returning
// ErrCeremonyTimedOut). It polls because participants submit
// asynchronously from network callbacks rather than through this
// goroutine.
func (c *Ceremony) Await(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(25 * time.Millisecond)
	defer ticker.Stop()
	for {
		c.mu.Lock()
		stage := c.stage
		c.mu.Unlock()
		if stage == StageDone {
			return nil
		}
		if time.Now().After(deadline) {
			c.mu.Lock()
			c.stage = StageFailed
			c.mu.Unlock()
			return ErrCeremonyTimedOut
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// MissingParticipants returns participants who haven't yet submitted
// whatever the current stage requires, used to attribute ceremony
// failure to specific offenders.
func (c *Ceremony) MissingParticipants() common.AddressList {
	c.mu.Lock()
	defer c.mu.Unlock()
	var done map[common.Address]struct{}
	switch {
	case len(c.commitments) < len(c.Participants):
		done = make(map[common.Address]struct{}, len(c.commitments))
		for a := range c.commitments {
			done[a] = struct{}{}
		}
	default:
		done = make(map[common.Address]struct{}, len(c.shares))
		for a := range c.shares {
			done[a] = struct{}{}
		}
	}
	missing := make(common.AddressList, 0)
	for _, p := range c.Participants {
		if _, ok := done[p]; !ok {
			missing = append(missing, p)
		}
	}
	return missing
}
