// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package crypto

import (
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// shamirSplit splits secret into total shares over GF(secp256k1's
// scalar field) such that any threshold of them reconstruct it via
// Lagrange interpolation at x=0. This replaces the big.Int toy
// Lagrange scheme the beacon engine prototype used with real
// modular arithmetic reduced mod the curve order.
func shamirSplit(secret *secp256k1.ModNScalar, threshold, total int) ([]KeyShare, error) {
	if threshold > total || threshold < 1 {
		return nil, ErrThresholdTooHigh
	}
	coeffs := make([]*secp256k1.ModNScalar, threshold)
	coeffs[0] = secret
	for i := 1; i < threshold; i++ {
		b, err := randomBytes(32)
		if err != nil {
			return nil, err
		}
		var c secp256k1.ModNScalar
		c.SetByteSlice(b)
		coeffs[i] = &c
	}

	shares := make([]KeyShare, total)
	for idx := 1; idx <= total; idx++ {
		x := scalarFromUint32(uint32(idx))
		y := evalPoly(coeffs, x)
		shares[idx-1] = KeyShare{Index: uint32(idx), Value: y.Bytes()[:]}
	}
	return shares, nil
}

func evalPoly(coeffs []*secp256k1.ModNScalar, x secp256k1.ModNScalar) secp256k1.ModNScalar {
	var acc secp256k1.ModNScalar
	for i := len(coeffs) - 1; i >= 0; i-- {
		acc.Mul(&x)
		acc.Add(coeffs[i])
	}
	return acc
}

func scalarFromUint32(v uint32) secp256k1.ModNScalar {
	var s secp256k1.ModNScalar
	s.SetInt(v)
	return s
}

// lagrangeCoefficient returns the Lagrange basis coefficient for
// participant index i evaluated at x=0 over the set of indices:
// L_i = prod_{j != i} (-x_j) / (x_i - x_j).
func lagrangeCoefficient(i uint32, indices []uint32) secp256k1.ModNScalar {
	xi := scalarFromUint32(i)
	var num, den secp256k1.ModNScalar
	num.SetInt(1)
	den.SetInt(1)
	for _, j := range indices {
		if j == i {
			continue
		}
		xj := scalarFromUint32(j)

		negXj := xj
		negXj.Negate()
		num.Mul(&negXj)

		diff := xi
		diff.Add(&negXj)
		den.Mul(&diff)
	}
	den.InverseValNonConst()
	num.Mul(&den)
	return num
}

// pointFromScalar derives the public point for a private scalar, used
// to build per-share public commitments for verifiable nonce
// broadcasts.
func pointFromScalar(s *secp256k1.ModNScalar) *secp256k1.JacobianPoint {
	var p secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(s, &p)
	p.ToAffine()
	return &p
}
