// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package crypto

import (
	"crypto/sha512"
	"errors"

	"github.com/cloudflare/circl/group"
)

// dotScheme implements a Ristretto255-based Schnorr signature
// compatible in shape with Polkadot's SR25519: group arithmetic over
// ristretto255 rather than secp256k1, and a SHA-512 transcript hash
// standing in for SR25519's Merlin transcript binding.
type dotScheme struct {
	g group.Group
}

// NewDOTScheme returns the Polkadot-family threshold Schnorr scheme.
func NewDOTScheme() Scheme { return dotScheme{g: group.Ristretto255} }

func (dotScheme) Name() string { return "dot-ristretto-schnorr" }

func (d dotScheme) GenerateKeyShares(threshold, total int) ([]KeyShare, PublicKey, error) {
	if threshold > total || threshold < 1 {
		return nil, PublicKey{}, ErrThresholdTooHigh
	}
	secret := d.g.RandomScalar(randReader{})
	coeffs := make([]group.Scalar, threshold)
	coeffs[0] = secret
	for i := 1; i < threshold; i++ {
		coeffs[i] = d.g.RandomScalar(randReader{})
	}

	shares := make([]KeyShare, total)
	for idx := 1; idx <= total; idx++ {
		x := d.scalarFromIndex(uint32(idx))
		y := d.evalPoly(coeffs, x)
		yb, err := y.MarshalBinary()
		if err != nil {
			return nil, PublicKey{}, err
		}
		shares[idx-1] = KeyShare{Index: uint32(idx), Value: yb}
	}

	pub := d.g.NewElement().MulGen(secret)
	pubBytes, err := pub.MarshalBinary()
	if err != nil {
		return nil, PublicKey{}, err
	}
	return shares, PublicKey{Bytes: pubBytes}, nil
}

func (d dotScheme) CommitNonce() (NonceCommitment, NonceSecret, error) {
	k := d.g.RandomScalar(randReader{})
	kb, err := k.MarshalBinary()
	if err != nil {
		return NonceCommitment{}, NonceSecret{}, err
	}
	pub := d.g.NewElement().MulGen(k)
	pubBytes, err := pub.MarshalBinary()
	if err != nil {
		return NonceCommitment{}, NonceSecret{}, err
	}
	return NonceCommitment{Value: pubBytes}, NonceSecret{Value: kb}, nil
}

func (d dotScheme) SignShare(share KeyShare, secret NonceSecret, commitments []NonceCommitment, payload []byte) (SignatureShare, error) {
	r, err := d.sumCommitments(commitments)
	if err != nil {
		return SignatureShare{}, err
	}
	e, err := d.challenge(r, payload)
	if err != nil {
		return SignatureShare{}, err
	}

	k := d.g.NewScalar()
	if err := k.UnmarshalBinary(secret.Value); err != nil {
		return SignatureShare{}, err
	}
	x := d.g.NewScalar()
	if err := x.UnmarshalBinary(share.Value); err != nil {
		return SignatureShare{}, err
	}

	indices := make([]uint32, len(commitments))
	for i, c := range commitments {
		indices[i] = c.Index
	}
	lambda := d.lagrangeCoefficient(share.Index, indices)

	term := d.g.NewScalar()
	term.Mul(e, x)
	term.Mul(term, lambda)

	s := d.g.NewScalar()
	s.Sub(k, term)
	sb, err := s.MarshalBinary()
	if err != nil {
		return SignatureShare{}, err
	}
	return SignatureShare{Index: share.Index, Value: sb}, nil
}

func (d dotScheme) Aggregate(pub PublicKey, commitments []NonceCommitment, shares []SignatureShare, payload []byte) (Signature, error) {
	if len(shares) == 0 {
		return Signature{}, ErrInsufficientShares
	}
	r, err := d.sumCommitments(commitments)
	if err != nil {
		return Signature{}, err
	}
	total := d.g.NewScalar()
	for _, sh := range shares {
		s := d.g.NewScalar()
		if err := s.UnmarshalBinary(sh.Value); err != nil {
			return Signature{}, err
		}
		total.Add(total, s)
	}
	tb, err := total.MarshalBinary()
	if err != nil {
		return Signature{}, err
	}
	return Signature{Bytes: append(append([]byte{}, r...), tb...)}, nil
}

func (d dotScheme) Verify(pub PublicKey, payload []byte, sig Signature) error {
	half := len(sig.Bytes) / 2
	if half == 0 || len(sig.Bytes)%2 != 0 {
		return ErrVerificationFailed
	}
	rBytes, sBytes := sig.Bytes[:half], sig.Bytes[half:]

	e, err := d.challenge(rBytes, payload)
	if err != nil {
		return err
	}
	s := d.g.NewScalar()
	if err := s.UnmarshalBinary(sBytes); err != nil {
		return ErrVerificationFailed
	}
	pubPoint := d.g.NewElement()
	if err := pubPoint.UnmarshalBinary(pub.Bytes); err != nil {
		return ErrVerificationFailed
	}
	rPoint := d.g.NewElement()
	if err := rPoint.UnmarshalBinary(rBytes); err != nil {
		return ErrVerificationFailed
	}

	sG := d.g.NewElement().MulGen(s)
	eP := d.g.NewElement().Mul(pubPoint, e)
	rPrime := d.g.NewElement().Add(sG, eP)

	rPrimeBytes, err := rPrime.MarshalBinary()
	if err != nil {
		return err
	}
	if !bytesEqual(rPrimeBytes, rBytes) {
		return ErrVerificationFailed
	}
	return nil
}

func (d dotScheme) challenge(r, payload []byte) (group.Scalar, error) {
	h := sha512.New()
	h.Write([]byte("sr25519-frost-challenge"))
	h.Write(r)
	h.Write(payload)
	return d.g.HashToScalar(h.Sum(nil), []byte("equa-dot-challenge")), nil
}

func (d dotScheme) sumCommitments(commitments []NonceCommitment) ([]byte, error) {
	acc := d.g.NewElement()
	acc.SetIdentity()
	for _, c := range commitments {
		p := d.g.NewElement()
		if err := p.UnmarshalBinary(c.Value); err != nil {
			return nil, err
		}
		acc.Add(acc, p)
	}
	return acc.MarshalBinary()
}

func (d dotScheme) scalarFromIndex(idx uint32) group.Scalar {
	s := d.g.NewScalar()
	s.SetUint64(uint64(idx))
	return s
}

func (d dotScheme) evalPoly(coeffs []group.Scalar, x group.Scalar) group.Scalar {
	acc := d.g.NewScalar()
	for i := len(coeffs) - 1; i >= 0; i-- {
		acc.Mul(acc, x)
		acc.Add(acc, coeffs[i])
	}
	return acc
}

func (d dotScheme) lagrangeCoefficient(i uint32, indices []uint32) group.Scalar {
	xi := d.scalarFromIndex(i)
	num := d.g.NewScalar()
	num.SetUint64(1)
	den := d.g.NewScalar()
	den.SetUint64(1)
	for _, j := range indices {
		if j == i {
			continue
		}
		xj := d.scalarFromIndex(j)
		negXj := d.g.NewScalar()
		negXj.Neg(xj)

		num.Mul(num, negXj)

		diff := d.g.NewScalar()
		diff.Add(xi, negXj)
		den.Mul(den, diff)
	}
	den.Inv(den)
	num.Mul(num, den)
	return num
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

var errShortRead = errors.New("crypto: short read from randReader")

type randReader struct{}

func (randReader) Read(p []byte) (int, error) {
	n, err := randomBytesInto(p)
	if err != nil {
		return n, err
	}
	if n != len(p) {
		return n, errShortRead
	}
	return n, nil
}

func randomBytesInto(p []byte) (int, error) {
	b, err := randomBytes(len(p))
	if err != nil {
		return 0, err
	}
	copy(p, b)
	return len(b), nil
}
