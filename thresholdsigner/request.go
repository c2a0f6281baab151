// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

// Package thresholdsigner drives the request -> nominate -> ceremony
// -> success/failure -> retry/offender pipeline that turns an engine
// decision ("broadcast this payload to chain X") into a finished,
// chain-native threshold signature, using the curve-specific rules in
// package crypto.
package thresholdsigner

import (
	"github.com/equa/go-electoral/common"
	"github.com/equa/go-electoral/crypto"
)

// RequestID uniquely identifies a signing request across its retries.
type RequestID uint64

// Request is one payload that needs a threshold signature before it
// can be broadcast to a target chain.
type Request struct {
	ID      RequestID
	Chain   string // resolved via crypto.SchemeFor
	Payload []byte
	PubKey  crypto.PublicKey

	attempt uint32
}

// Outcome is delivered to the caller once a request finishes, either
// successfully or after exhausting retries.
type Outcome struct {
	RequestID RequestID
	Signature crypto.Signature
	Err       error
	Offenders []common.Address
}
