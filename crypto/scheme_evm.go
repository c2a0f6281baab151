// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package crypto

import (
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"golang.org/x/crypto/sha3"
)

// evmScheme implements the Ethereum-family Schnorr variant compatible
// with a KeyManager contract verifying
//
//	e = keccak256(compressedPubKey, msgHash, nonceAddress)
//	s = k - e*privKey (mod n)
//
// and accepting (s, nonceAddress) as the signature, recovering the
// nonce point's address the way the contract's ecrecover-based check
// does rather than transmitting the raw point.
type evmScheme struct{}

// NewEVMScheme returns the Ethereum-family threshold Schnorr scheme.
func NewEVMScheme() Scheme { return evmScheme{} }

func (evmScheme) Name() string { return "evm-schnorr-secp256k1" }

func (evmScheme) GenerateKeyShares(threshold, total int) ([]KeyShare, PublicKey, error) {
	secretBytes, err := randomBytes(32)
	if err != nil {
		return nil, PublicKey{}, err
	}
	secret := scalarFromBytes(secretBytes)
	shares, err := shamirSplit(secret, threshold, total)
	if err != nil {
		return nil, PublicKey{}, err
	}
	pub := pointFromScalar(secret)
	return shares, PublicKey{Bytes: encodeCompressed(pub)}, nil
}

func (evmScheme) CommitNonce() (NonceCommitment, NonceSecret, error) {
	kBytes, err := randomBytes(32)
	if err != nil {
		return NonceCommitment{}, NonceSecret{}, err
	}
	k := scalarFromBytes(kBytes)
	pub := pointFromScalar(k)
	return NonceCommitment{Value: encodeCompressed(pub)}, NonceSecret{Value: kBytes}, nil
}

func (e evmScheme) SignShare(share KeyShare, secret NonceSecret, commitments []NonceCommitment, payload []byte) (SignatureShare, error) {
	challenge, _, err := e.challenge(nil, commitments, payload)
	if err != nil {
		return SignatureShare{}, err
	}

	k := scalarFromBytes(secret.Value)
	x := scalarFromBytes(share.Value)

	var idxScalar secp256k1.ModNScalar
	idxScalar.SetInt(share.Index)
	indices := make([]uint32, len(commitments))
	for i, c := range commitments {
		indices[i] = c.Index
	}
	lagrange := lagrangeCoefficient(share.Index, indices)

	var term secp256k1.ModNScalar
	term = *challenge
	term.Mul(x)
	term.Mul(&lagrange)

	s := *k
	s.Add(term.Negate())

	return SignatureShare{Index: share.Index, Value: s.Bytes()[:]}, nil
}

func (e evmScheme) Aggregate(pub PublicKey, commitments []NonceCommitment, shares []SignatureShare, payload []byte) (Signature, error) {
	if len(shares) == 0 {
		return Signature{}, ErrInsufficientShares
	}
	_, nonceAddr, err := e.challenge(pub.Bytes, commitments, payload)
	if err != nil {
		return Signature{}, err
	}

	var total secp256k1.ModNScalar
	for _, sh := range shares {
		s := scalarFromBytes(sh.Value)
		total.Add(s)
	}

	sig := append(append([]byte{}, total.Bytes()[:]...), nonceAddr...)
	return Signature{Bytes: sig}, nil
}

func (e evmScheme) Verify(pub PublicKey, payload []byte, sig Signature) error {
	if len(sig.Bytes) != 32+20 {
		return ErrVerificationFailed
	}
	s := scalarFromBytes(sig.Bytes[:32])
	nonceAddr := sig.Bytes[32:]

	pubPoint, err := decodePoint(pub.Bytes)
	if err != nil {
		return ErrVerificationFailed
	}
	challengeInput := append(append([]byte{}, pub.Bytes...), payload...)
	challengeInput = append(challengeInput, nonceAddr...)
	e32 := keccak256(challengeInput)
	ev := scalarFromBytes(e32)

	// R' = s*G + e*P must recover to the claimed nonce address.
	sG := pointFromScalar(s)
	eP := scalarMul(ev, pubPoint)
	rPrime := sumPoints([]*secp256k1.JacobianPoint{sG, eP})
	if !addressEquals(rPrime, nonceAddr) {
		return ErrVerificationFailed
	}
	return nil
}

// challenge computes the KeyManager-style Schnorr challenge and the
// nonce-point's address. When pubBytes is nil (signing time, before
// the aggregate key is finalized) the challenge binds only to the
// combined nonce commitment and payload, matching a cooperative
// FROST round where the group key is already known to all signers
// out of band.
func (evmScheme) challenge(pubBytes []byte, commitments []NonceCommitment, payload []byte) (*secp256k1.ModNScalar, []byte, error) {
	points := make([]*secp256k1.JacobianPoint, 0, len(commitments))
	for _, c := range commitments {
		p, err := decodePoint(c.Value)
		if err != nil {
			return nil, nil, err
		}
		points = append(points, p)
	}
	r := sumPoints(points)
	addr := addressOf(r)

	input := append(append([]byte{}, pubBytes...), payload...)
	input = append(input, addr...)
	e := scalarFromBytes(keccak256(input))
	return e, addr, nil
}

func keccak256(b []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(b)
	return h.Sum(nil)
}

func scalarMul(s *secp256k1.ModNScalar, p *secp256k1.JacobianPoint) *secp256k1.JacobianPoint {
	var out secp256k1.JacobianPoint
	secp256k1.ScalarMultNonConst(s, p, &out)
	out.ToAffine()
	return &out
}

// addressOf derives a 20-byte Ethereum-style address from the
// keccak256 hash of the uncompressed point encoding, matching
// ecrecover's address derivation.
func addressOf(p *secp256k1.JacobianPoint) []byte {
	p.ToAffine()
	pk := secp256k1.NewPublicKey(&p.X, &p.Y)
	uncompressed := pk.SerializeUncompressed()
	h := keccak256(uncompressed[1:])
	return h[12:]
}

func addressEquals(p *secp256k1.JacobianPoint, addr []byte) bool {
	got := addressOf(p)
	if len(got) != len(addr) {
		return false
	}
	for i := range got {
		if got[i] != addr[i] {
			return false
		}
	}
	return true
}
