// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package crypto

import (
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// sumPoints adds a set of Jacobian points (public nonce commitments
// or public key shares) and returns the affine result, as both the
// EVM and BTC FROST variants aggregate commitments by point addition.
func sumPoints(points []*secp256k1.JacobianPoint) *secp256k1.JacobianPoint {
	var acc secp256k1.JacobianPoint
	acc.X.SetInt(0)
	acc.Y.SetInt(0)
	acc.Z.SetInt(0)
	for _, p := range points {
		var sum secp256k1.JacobianPoint
		secp256k1.AddNonConst(&acc, p, &sum)
		acc = sum
	}
	acc.ToAffine()
	return &acc
}

// decodePoint parses a 33-byte compressed or 65-byte uncompressed
// secp256k1 point.
func decodePoint(b []byte) (*secp256k1.JacobianPoint, error) {
	pk, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return nil, err
	}
	var p secp256k1.JacobianPoint
	pk.AsJacobian(&p)
	return &p, nil
}

// encodeCompressed serializes an affine point in 33-byte compressed
// form.
func encodeCompressed(p *secp256k1.JacobianPoint) []byte {
	p.ToAffine()
	pk := secp256k1.NewPublicKey(&p.X, &p.Y)
	return pk.SerializeCompressed()
}

func scalarFromBytes(b []byte) *secp256k1.ModNScalar {
	var s secp256k1.ModNScalar
	s.SetByteSlice(b)
	return &s
}
