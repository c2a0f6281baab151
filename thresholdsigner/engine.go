// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package thresholdsigner

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/equa/go-electoral/common"
	"github.com/equa/go-electoral/crypto"
	"github.com/equa/go-electoral/log"
	"github.com/equa/go-electoral/params"
)

// Engine owns the full request -> nominate -> ceremony ->
// success/failure -> retry pipeline. One Engine is created per local
// authority process; RequestSignature is safe for concurrent callers.
type Engine struct {
	cfg        params.ThresholdSignerConfig
	offenders  *OffenderTracker
	keyShares  map[common.Address]crypto.KeyShare // keyed by authority address; holds only this authority's own share
	pub        crypto.PublicKey
	authority  common.Address
	logger     log.Logger

	mu        sync.Mutex
	requestID RequestID
}

// NewEngine builds an engine for the local authority identified by
// self, signing with keyShare under the ceremony-wide public key pub.
func NewEngine(cfg params.ThresholdSignerConfig, self common.Address, keyShare crypto.KeyShare, pub crypto.PublicKey) *Engine {
	return &Engine{
		cfg:       cfg,
		offenders: NewOffenderTracker(cfg.OffenderCooldown, nil),
		keyShares: map[common.Address]crypto.KeyShare{self: keyShare},
		pub:       pub,
		authority: self,
		logger:    log.With("component", "thresholdsigner_engine"),
	}
}

// Transport is implemented by the engine wiring to actually move
// ceremony messages (commitments, shares) between authorities; the
// engine itself only drives the state machine and nomination.
type Transport interface {
	BroadcastCommitment(ceremony CeremonyID, from common.Address, c crypto.NonceCommitment) error
	BroadcastShare(ceremony CeremonyID, from common.Address, s crypto.SignatureShare) error
}

// RequestSignature runs req through the pipeline against the
// authorities pool, retrying with a fresh nomination (excluding newly
// identified offenders) up to cfg.MaxRetries times.
func (e *Engine) RequestSignature(ctx context.Context, transport Transport, authorities common.AddressList, req Request) Outcome {
	scheme, err := crypto.SchemeFor(req.Chain)
	if err != nil {
		return Outcome{RequestID: req.ID, Err: err}
	}

	// trace correlates this request's log lines across retries; it has
	// no role in ceremony protocol logic, which keys everything off the
	// deterministic req.ID/CeremonyID instead.
	trace := uuid.NewString()
	logger := e.logger.With("trace", trace, "request", req.ID)

	var allOffenders []common.Address
	for attempt := uint32(0); attempt <= e.cfg.MaxRetries; attempt++ {
		req.attempt = attempt
		eligible := e.offenders.Eligible(authorities)
		participants := Nominate(eligible, req.ID, attempt, len(eligible))

		id := CeremonyID{Request: req.ID, Attempt: attempt}
		ceremony := NewCeremony(id, scheme, participants, e.keyShares, e.pub, req.Payload)

		self, secret, cerr := scheme.CommitNonce()
		if cerr != nil {
			return Outcome{RequestID: req.ID, Err: cerr}
		}
		self.Index = e.keyShares[e.authority].Index
		ceremony.SubmitCommitment(e.authority, self)
		if transport != nil {
			transport.BroadcastCommitment(id, e.authority, self)
		}

		if err := ceremony.Await(ctx, e.cfg.CeremonyTimeout); err != nil {
			offenders := ceremony.MissingParticipants()
			for _, o := range offenders {
				e.offenders.Report(o, "missed ceremony round")
			}
			allOffenders = append(allOffenders, offenders...)
			logger.Warn("ceremony failed, retrying", "attempt", attempt, "missing", len(offenders))
			continue
		}

		share, serr := scheme.SignShare(e.keyShares[e.authority], secret, ceremony.Commitments(), req.Payload)
		if serr != nil {
			return Outcome{RequestID: req.ID, Err: serr}
		}
		ceremony.SubmitShare(e.authority, share)
		if transport != nil {
			transport.BroadcastShare(id, e.authority, share)
		}

		sig, ferr := ceremony.Finish()
		if ferr != nil {
			logger.Warn("ceremony aggregation failed, retrying", "attempt", attempt, "err", ferr)
			continue
		}
		if verr := scheme.Verify(e.pub, req.Payload, sig); verr != nil {
			logger.Error("aggregated signature failed self-verification", "attempt", attempt)
			continue
		}
		return Outcome{RequestID: req.ID, Signature: sig, Offenders: allOffenders}
	}

	return Outcome{RequestID: req.ID, Err: ErrCeremonyTimedOut, Offenders: allOffenders}
}

// NextRequestID hands out a fresh RequestID for a new signing request.
func (e *Engine) NextRequestID() RequestID {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.requestID++
	return e.requestID
}
