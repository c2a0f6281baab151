// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

// Package crypto implements the curve-specific signing rules consumed
// by the threshold-signing engine: key generation, the FROST-style
// nonce-commitment/signature-share arithmetic, and the chain-specific
// encoding rules each target curve imposes on top of a raw Schnorr
// signature (Ethereum KeyManager recovery format, Bitcoin BIP-340
// x-only keys, Polkadot SR25519/Ristretto transcripts).
package crypto

import (
	"crypto/rand"
	"errors"

	"github.com/equa/go-electoral/common"
)

// Scheme is implemented once per target-chain signing curve. The
// threshold-signing engine is otherwise curve-agnostic: it drives
// ceremonies and retries against this interface only.
type Scheme interface {
	// Name identifies the scheme for logging and metrics labels.
	Name() string

	// GenerateKeyShares returns total fresh private key shares, any
	// threshold of which can sign, and the aggregate public key they
	// sign for; in production this is the
	// output of a distributed key-generation ceremony, stubbed here
	// with Shamir-style splitting for a fixed participant set.
	GenerateKeyShares(threshold, total int) ([]KeyShare, PublicKey, error)

	// CommitNonce derives the per-ceremony nonce commitment an authority
	// publishes before signing, per FROST round 1.
	CommitNonce() (NonceCommitment, NonceSecret, error)

	// SignShare produces this authority's signature share over payload
	// given the aggregated nonce commitments of all ceremony
	// participants (FROST round 2).
	SignShare(share KeyShare, secret NonceSecret, commitments []NonceCommitment, payload []byte) (SignatureShare, error)

	// Aggregate combines signature shares into the chain's native
	// signature encoding, applying whatever curve-specific fixup the
	// target chain requires (e.g. BIP-340 odd-y negation).
	Aggregate(pub PublicKey, commitments []NonceCommitment, shares []SignatureShare, payload []byte) (Signature, error)

	// Verify checks a finished signature against the scheme's native
	// verification rule.
	Verify(pub PublicKey, payload []byte, sig Signature) error
}

// KeyShare is one participant's share of a distributed private key.
type KeyShare struct {
	Index uint32
	Value []byte
}

// PublicKey is the aggregate public key the ceremony signs for.
type PublicKey struct {
	Bytes []byte
}

// NonceCommitment is the public half of a FROST round-1 commitment.
type NonceCommitment struct {
	Index uint32
	Value []byte
}

// NonceSecret is the private half kept by the committing authority
// between round 1 and round 2; it must never be persisted or reused.
type NonceSecret struct {
	Value []byte
}

// SignatureShare is one participant's contribution to the aggregate
// signature.
type SignatureShare struct {
	Index uint32
	Value []byte
}

// Signature is the finished, chain-native signature bytes.
type Signature struct {
	Bytes []byte
}

var (
	// ErrThresholdTooHigh is returned when GenerateKeyShares is asked
	// for a threshold exceeding the participant count.
	ErrThresholdTooHigh = errors.New("crypto: threshold exceeds participant count")
	// ErrInsufficientShares is returned when Aggregate is called with
	// no signature shares at all; Aggregate does not know the
	// ceremony's threshold and does not check the share count against it.
	ErrInsufficientShares = errors.New("crypto: insufficient signature shares to aggregate")
	// ErrVerificationFailed is returned by Verify for a bad signature.
	ErrVerificationFailed = errors.New("crypto: signature verification failed")
)

// SchemeFor resolves the signing scheme for a chain family name, used
// by the threshold-signing engine to pick curve rules per request.
func SchemeFor(chain string) (Scheme, error) {
	switch chain {
	case "ethereum", "evm":
		return NewEVMScheme(), nil
	case "bitcoin", "btc":
		return NewBTCScheme(), nil
	case "polkadot", "dot":
		return NewDOTScheme(), nil
	default:
		return nil, errors.New("crypto: unknown chain scheme " + chain)
	}
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// HashToAddress is a convenience used by callers that need to derive a
// validator-style address from a raw public key for logging.
func HashToAddress(b []byte) common.Address {
	return common.BytesToAddress(b)
}
